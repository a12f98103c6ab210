package cover

import (
	"context"
	"errors"
	"testing"

	"github.com/handiism/vinyl-stack/internal/model"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestResolver(t *testing.T, opts ...ResolverOption) (*Resolver, *Cache) {
	t.Helper()
	c, _ := newTestCache(newRecordingStore())
	opts = append([]ResolverOption{WithResolverLogger(zerolog.Nop())}, opts...)
	return NewResolver(c, opts...), c
}

func TestResolver_Order(t *testing.T) {
	t.Parallel()

	remote := &stubSource{urls: map[string]string{"r": "https://art.example.com/r.jpg"}}
	r, cache := newTestResolver(t, WithRemote(remote))
	ctx := context.Background()

	cache.Put("cached", "/cached.jpg")
	url, err := r.Resolve(ctx, &model.Record{ID: "cached", CoverImageURL: "/ignored.jpg"})
	require.NoError(t, err)
	assert.Equal(t, "/cached.jpg", url)

	url, err = r.Resolve(ctx, &model.Record{ID: "own", CoverImageURL: "./own.jpg"})
	require.NoError(t, err)
	assert.Equal(t, "./own.jpg", url)

	url, err = r.Resolve(ctx, &model.Record{ID: "r", CoverImageURL: "bogus"})
	require.NoError(t, err)
	assert.Equal(t, "https://art.example.com/r.jpg", url)

	url, err = r.Resolve(ctx, &model.Record{ID: "none"})
	require.NoError(t, err)
	assert.Equal(t, DefaultCover, url)

	assert.Equal(t, Map{
		"cached": "/cached.jpg",
		"own":    "./own.jpg",
		"r":      "https://art.example.com/r.jpg",
		"none":   DefaultCover,
	}, cache.Get())
	assert.Equal(t, 2, remote.callCount())
}

func TestResolver_CachedSkipsRemote(t *testing.T) {
	t.Parallel()

	remote := &stubSource{urls: map[string]string{"a": "https://art.example.com/a.jpg"}}
	r, _ := newTestResolver(t, WithRemote(remote))

	for range 3 {
		url, err := r.Resolve(context.Background(), &model.Record{ID: "a"})
		require.NoError(t, err)
		assert.Equal(t, "https://art.example.com/a.jpg", url)
	}
	assert.Equal(t, 1, remote.callCount())
}

func TestResolver_RemoteErrorNotCached(t *testing.T) {
	t.Parallel()

	remote := &stubSource{err: errors.New("connection refused")}
	r, cache := newTestResolver(t, WithRemote(remote), WithDefaultCover("/fallback.jpg"))

	url, err := r.Resolve(context.Background(), &model.Record{ID: "a"})
	require.NoError(t, err)
	assert.Equal(t, "/fallback.jpg", url)
	assert.Equal(t, "/fallback.jpg", r.DefaultCover())

	_, ok := cache.Lookup("a")
	assert.False(t, ok, "a failed lookup should be retried later")
}

func TestResolver_CancelledContext(t *testing.T) {
	t.Parallel()

	r, cache := newTestResolver(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Resolve(ctx, &model.Record{ID: "a", CoverImageURL: "/a.jpg"})
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, cache.Len())
}

func TestResolver_InvalidDefaultIgnored(t *testing.T) {
	t.Parallel()

	r, _ := newTestResolver(t, WithDefaultCover("nope"))
	assert.Equal(t, DefaultCover, r.DefaultCover())
}

func TestResolver_ResolveAll(t *testing.T) {
	t.Parallel()

	remote := &stubSource{urls: map[string]string{"b": "http://art/b.jpg"}}
	r, cache := newTestResolver(t, WithRemote(remote), WithConcurrency(2))

	records := []*model.Record{
		{ID: "a", CoverImageURL: "/a.jpg"},
		{ID: "b"},
		{ID: "c"},
	}

	got, err := r.ResolveAll(context.Background(), records)
	require.NoError(t, err)
	want := Map{"a": "/a.jpg", "b": "http://art/b.jpg", "c": DefaultCover}
	assert.Equal(t, want, got)
	assert.Equal(t, want, cache.Get())
}

func TestResolver_ResolveAllSkipsNil(t *testing.T) {
	t.Parallel()

	r, _ := newTestResolver(t)
	records := []*model.Record{nil, {ID: "a", CoverImageURL: "/a.jpg"}, nil}

	got, err := r.ResolveAll(context.Background(), records)
	require.NoError(t, err)
	assert.Equal(t, Map{"a": "/a.jpg"}, got)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = r.ResolveAll(ctx, []*model.Record{nil})
	require.NoError(t, err)

	_, err = r.ResolveAll(ctx, records)
	require.ErrorIs(t, err, context.Canceled)
}

func TestFallbackImage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		rec  *model.Record
		want string
	}{
		{name: "nil", rec: nil, want: DefaultCover},
		{name: "no artist", rec: &model.Record{ID: "x"}, want: DefaultCover},
		// 'p' is 112
		{name: "lower", rec: &model.Record{Artist: "pink floyd"}, want: "/images/fallback-2.jpg"},
		{name: "upper", rec: &model.Record{Artist: "Pink Floyd"}, want: "/images/fallback-2.jpg"},
		// 'a' is 97
		{name: "a", rec: &model.Record{Artist: "ABBA"}, want: "/images/fallback-2.jpg"},
		// 'm' is 109
		{name: "m", rec: &model.Record{Artist: "Miles Davis"}, want: "/images/fallback-4.jpg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, FallbackImage(tt.rec))
		})
	}
}
