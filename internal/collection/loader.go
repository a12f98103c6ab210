package collection

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/handiism/vinyl-stack/internal/cover"
	"github.com/handiism/vinyl-stack/internal/model"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// DefaultTimeout bounds a single fetch.
const DefaultTimeout = 30 * time.Second

// Hydrator is notified once the collection has loaded. *cover.Cache
// satisfies it.
type Hydrator interface {
	Hydrate() cover.Map
}

// Loader loads the collection at most once. Concurrent callers share the
// same fetch, and the outcome, including an error, is kept for the
// lifetime of the Loader.
type Loader struct {
	src      Source
	hydrator Hydrator
	timeout  time.Duration
	log      zerolog.Logger

	group singleflight.Group

	mu   sync.Mutex
	done bool
	coll *model.Collection
	err  error
}

// Option configures a Loader.
type Option func(*Loader)

// WithTimeout bounds the shared fetch. Defaults to DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(l *Loader) {
		if d > 0 {
			l.timeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(l *Loader) {
		l.log = logger
	}
}

// NewLoader creates a Loader. hydrator may be nil.
func NewLoader(src Source, hydrator Hydrator, opts ...Option) *Loader {
	l := &Loader{
		src:      src,
		hydrator: hydrator,
		timeout:  DefaultTimeout,
		log:      log.Logger,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load returns the collection, fetching it on the first call.
//
// Cancelling ctx only stops this caller from waiting. The fetch itself
// carries on, bounded by the Loader timeout, so other callers still get
// its result.
func (l *Loader) Load(ctx context.Context) (*model.Collection, error) {
	if coll, ok, err := l.result(); ok {
		return coll, err
	}

	ch := l.group.DoChan("load", func() (any, error) {
		if coll, ok, err := l.result(); ok {
			return coll, err
		}

		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), l.timeout)
		defer cancel()

		coll, err := l.load(fctx)
		if err == nil && l.hydrator != nil {
			l.hydrator.Hydrate()
		}

		l.mu.Lock()
		l.done, l.coll, l.err = true, coll, err
		l.mu.Unlock()

		return coll, err
	})

	select {
	case res := <-ch:
		coll, _ := res.Val.(*model.Collection)
		return coll, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Loaded reports whether a load has finished, successfully or not.
func (l *Loader) Loaded() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.done
}

func (l *Loader) result() (*model.Collection, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.coll, l.done, l.err
}

func (l *Loader) load(ctx context.Context) (*model.Collection, error) {
	start := time.Now()
	location := l.src.Location()
	l.log.Info().Str("source", location).Msg("loading collection")

	data, err := l.src.Fetch(ctx)
	if err != nil {
		l.log.Error().Err(err).Str("source", location).Msg("error loading collection")
		return nil, &LoadError{Op: "fetch", Source: location, Err: err}
	}

	coll, err := Parse(data)
	if err != nil {
		l.log.Error().Err(err).Str("source", location).Msg("invalid collection")
		var le *LoadError
		if errors.As(err, &le) {
			le.Source = location
		}
		return nil, err
	}

	l.log.Info().
		Int("records", coll.Len()).
		Dur("elapsed", time.Since(start)).
		Msg("loaded collection")
	return coll, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Parse decodes and validates a collection document: a JSON array of
// records with unique, non-empty IDs.
func Parse(data []byte) (*model.Collection, error) {
	var records []*model.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, &LoadError{Op: "decode", Err: err}
	}

	if len(records) == 0 {
		return nil, &LoadError{Op: "validate", Err: ErrEmpty}
	}

	seen := make(map[string]int, len(records))
	for i, rec := range records {
		if rec == nil {
			return nil, &LoadError{Op: "validate", Err: fmt.Errorf("record %d is null", i)}
		}
		if err := validate.Struct(rec); err != nil {
			return nil, &LoadError{Op: "validate", Err: fmt.Errorf("record %d: %w", i, err)}
		}
		if first, dup := seen[rec.ID]; dup {
			return nil, &LoadError{
				Op:  "validate",
				Err: fmt.Errorf("%w %q at %d and %d", ErrDuplicateID, rec.ID, first, i),
			}
		}
		seen[rec.ID] = i
	}

	return model.NewCollection(records), nil
}
