package cover

import (
	"context"
	"errors"
	"fmt"
	"unicode"
	"unicode/utf8"

	"github.com/handiism/vinyl-stack/internal/model"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultCover is used when no other cover can be found.
	DefaultCover = "/default-cover.jpg"

	fallbackImages = 5
)

// ErrNoCover is returned by a Source that has no cover for a record.
var ErrNoCover = errors.New("no cover found")

// Source looks up a cover URL for a record from somewhere other than the
// collection document.
type Source interface {
	Lookup(ctx context.Context, rec *model.Record) (string, error)
}

// Resolver finds the cover image for a record and remembers it in a Cache.
//
// Resolution order:
//  1. the cached URL
//  2. the record's own coverImageUrl, if valid
//  3. the remote Source, if configured
//  4. the default cover
type Resolver struct {
	cache        *Cache
	remote       Source
	defaultCover string
	concurrency  int
	log          zerolog.Logger
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithRemote adds a remote lookup between the record URL and the default.
func WithRemote(src Source) ResolverOption {
	return func(r *Resolver) {
		r.remote = src
	}
}

// WithDefaultCover overrides DefaultCover.
func WithDefaultCover(url string) ResolverOption {
	return func(r *Resolver) {
		if IsValidImageURL(url) {
			r.defaultCover = url
		}
	}
}

// WithConcurrency bounds parallel lookups in ResolveAll.
func WithConcurrency(n int) ResolverOption {
	return func(r *Resolver) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// WithResolverLogger sets the logger.
func WithResolverLogger(l zerolog.Logger) ResolverOption {
	return func(r *Resolver) {
		r.log = l
	}
}

// NewResolver creates a Resolver storing results in cache.
func NewResolver(cache *Cache, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		cache:        cache,
		defaultCover: DefaultCover,
		concurrency:  4,
		log:          log.Logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// DefaultCover returns the cover used when nothing else is found.
func (r *Resolver) DefaultCover() string {
	return r.defaultCover
}

// Resolve returns the cover URL for rec. It only fails when ctx is done.
func (r *Resolver) Resolve(ctx context.Context, rec *model.Record) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if rec == nil {
		return r.defaultCover, nil
	}

	if url, ok := r.cache.Lookup(rec.ID); ok {
		return url, nil
	}

	url, cacheable := r.find(ctx, rec)
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if cacheable {
		r.cache.Put(rec.ID, url)
	}
	return url, nil
}

// find walks the resolution order. The default cover is not cacheable
// when the remote lookup failed for a reason other than ErrNoCover, so
// that a later run can try again.
func (r *Resolver) find(ctx context.Context, rec *model.Record) (string, bool) {
	if IsValidImageURL(rec.CoverImageURL) {
		return rec.CoverImageURL, true
	}

	if r.remote == nil {
		return r.defaultCover, true
	}

	url, err := r.remote.Lookup(ctx, rec)
	switch {
	case err == nil && IsValidImageURL(url):
		r.log.Debug().Str("id", rec.ID).Str("url", url).Msg("found remote cover")
		return url, true
	case err == nil, errors.Is(err, ErrNoCover):
		r.log.Debug().Str("id", rec.ID).Msg("no remote cover")
		return r.defaultCover, true
	default:
		r.log.Warn().Err(err).Str("id", rec.ID).Msg("remote cover lookup failed")
		return r.defaultCover, false
	}
}

// ResolveAll resolves every record and returns the resulting URLs keyed
// by record ID. Nil records are skipped.
func (r *Resolver) ResolveAll(ctx context.Context, records []*model.Record) (Map, error) {
	urls := make([]string, len(records))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

	for i, rec := range records {
		if rec == nil {
			continue
		}
		g.Go(func() error {
			url, err := r.Resolve(gctx, rec)
			if err != nil {
				return fmt.Errorf("resolving %s: %w", rec.ID, err)
			}
			urls[i] = url
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := make(Map, len(records))
	for i, rec := range records {
		if rec != nil {
			result[rec.ID] = urls[i]
		}
	}
	r.log.Info().Int("count", len(result)).Msg("resolved covers")
	return result, nil
}

// FallbackImage picks one of the local fallback images from the first
// letter of the artist name, so the same artist always gets the same one.
func FallbackImage(rec *model.Record) string {
	if rec == nil || rec.Artist == "" {
		return DefaultCover
	}

	first, _ := utf8.DecodeRuneInString(rec.Artist)
	first = unicode.ToLower(first)
	return fmt.Sprintf("/images/fallback-%d.jpg", int(first)%fallbackImages)
}
