// Package app wires the vinyl-stack components together from Settings.
package app

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/handiism/vinyl-stack/internal/collection"
	"github.com/handiism/vinyl-stack/internal/config"
	"github.com/handiism/vinyl-stack/internal/cover"
	"github.com/handiism/vinyl-stack/internal/export"
	"github.com/handiism/vinyl-stack/internal/http"
	"github.com/handiism/vinyl-stack/internal/store"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

// App holds the long-lived components shared by the CLI and the TUI.
type App struct {
	Settings *config.Settings
	Fs       afero.Fs
	Client   *http.Client
	Store    store.Store
	Cache    *cover.Cache
	Resolver *cover.Resolver
	Loader   *collection.Loader

	source collection.Source
}

// Option configures New.
type Option func(*App)

// WithFs sets the file system used for local collections and exports.
func WithFs(fs afero.Fs) Option {
	return func(a *App) {
		a.Fs = fs
	}
}

// WithStore uses st instead of opening the configured backend.
func WithStore(st store.Store) Option {
	return func(a *App) {
		a.Store = st
	}
}

// WithClient sets the HTTP client.
func WithClient(c *http.Client) Option {
	return func(a *App) {
		a.Client = c
	}
}

// New builds an App. Close must be called to flush the cover cache and
// release the store.
func New(settings *config.Settings, opts ...Option) (*App, error) {
	a := &App{Settings: settings}
	for _, opt := range opts {
		opt(a)
	}

	if a.Fs == nil {
		a.Fs = afero.NewOsFs()
	}
	if a.Client == nil {
		a.Client = http.NewClient(http.WithTimeout(settings.FetchTimeout()))
	}
	if a.Store == nil {
		st, err := store.Open(settings.Storage.Backend, settings.Storage.DataDir, settings.Storage.QuotaBytes)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s store: %w", settings.Storage.Backend, err)
		}
		a.Store = st
	}

	a.Cache = cover.NewCache(a.Store,
		cover.WithStorageKey(settings.Storage.Key),
		cover.WithDebounce(settings.Debounce()),
		cover.WithLogger(log.With().Str("component", "cover-cache").Logger()),
	)

	resolverOpts := []cover.ResolverOption{
		cover.WithDefaultCover(settings.Covers.DefaultCover),
		cover.WithConcurrency(settings.Export.MaxConcurrent),
		cover.WithResolverLogger(log.With().Str("component", "resolver").Logger()),
	}
	if settings.Covers.RemoteLookup {
		src := cover.NewITunesSource(a.Client, settings.Covers.RequestsPerSecond, settings.Covers.RemoteCountry)
		resolverOpts = append(resolverOpts, cover.WithRemote(src))
	}
	a.Resolver = cover.NewResolver(a.Cache, resolverOpts...)

	a.source = collection.NewSource(settings.Collection.Source, a.Fs, a.Client)
	a.Loader = collection.NewLoader(a.source, a.Cache,
		collection.WithTimeout(settings.FetchTimeout()),
		collection.WithLogger(log.With().Str("component", "loader").Logger()),
	)

	log.Debug().
		Str("backend", settings.Storage.Backend).
		Str("collection", a.source.Location()).
		Bool("remote_lookup", settings.Covers.RemoteLookup).
		Msg("app initialized")

	return a, nil
}

// NewExporter creates a cover export Manager reporting to onProgress.
func (a *App) NewExporter(onProgress func(export.ProgressEvent)) *export.Manager {
	return export.NewManager(a.Settings, a.Resolver, a.Client, onProgress,
		export.WithFs(a.Fs),
		export.WithBase(a.AssetBase()),
	)
}

// AssetBase is where site-relative cover paths resolve: the site root
// for an HTTP collection, or the folder holding "data/" for a local one.
func (a *App) AssetBase() string {
	location := a.source.Location()

	if _, ok := a.source.(*collection.HTTPSource); ok {
		if i := strings.Index(location, collection.CollectionPath); i >= 0 {
			return location[:i]
		}
		return location[:strings.LastIndex(location, "/")]
	}

	dir := filepath.Dir(location)
	if filepath.Base(dir) == "data" {
		return filepath.Dir(dir)
	}
	return dir
}

// Close flushes pending cover writes and closes the store.
func (a *App) Close() error {
	return errors.Join(a.Cache.Close(), a.Store.Close())
}
