package collection

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/handiism/vinyl-stack/internal/cover"
	vhttp "github.com/handiism/vinyl-stack/internal/http"
	"github.com/handiism/vinyl-stack/internal/model"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCollection = `[
	{"id":"dsotm","artist":"Pink Floyd","title":"The Dark Side of the Moon","year":1973,
	 "tracks":[{"title":"Speak to Me","duration":"1:13"},{"title":"Breathe","duration":"2:43"}]},
	{"id":"kob","artist":"Miles Davis","title":"Kind of Blue","year":"1959","label":"Columbia",
	 "coverImageUrl":"/covers/kob.jpg","tracks":[]}
]`

// gatedSource blocks every fetch until the gate is closed.
type gatedSource struct {
	gate  chan struct{}
	calls atomic.Int32
	data  []byte
	err   error
}

func newGatedSource(data string) *gatedSource {
	return &gatedSource{gate: make(chan struct{}), data: []byte(data)}
}

func (s *gatedSource) Fetch(ctx context.Context) ([]byte, error) {
	s.calls.Add(1)
	select {
	case <-s.gate:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return s.data, s.err
}

func (s *gatedSource) Location() string { return "gated" }

type countingHydrator struct {
	calls atomic.Int32
}

func (h *countingHydrator) Hydrate() cover.Map {
	h.calls.Add(1)
	return cover.Map{}
}

func newTestLoader(src Source, h Hydrator, opts ...Option) *Loader {
	opts = append([]Option{WithLogger(zerolog.Nop())}, opts...)
	return NewLoader(src, h, opts...)
}

func TestLoader_ConcurrentCallersShareOneFetch(t *testing.T) {
	t.Parallel()

	src := newGatedSource(sampleCollection)
	h := &countingHydrator{}
	l := newTestLoader(src, h)

	const callers = 10
	results := make([]*model.Collection, callers)
	errs := make([]error, callers)

	var wg sync.WaitGroup
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = l.Load(context.Background())
		}()
	}

	require.Eventually(t, func() bool { return src.calls.Load() == 1 }, time.Second, time.Millisecond)
	close(src.gate)
	wg.Wait()

	assert.Equal(t, int32(1), src.calls.Load())
	assert.Equal(t, int32(1), h.calls.Load())
	for i := range callers {
		require.NoError(t, errs[i])
		assert.Same(t, results[0], results[i])
	}
	assert.Equal(t, 2, results[0].Len())

	// later calls hit the memo
	again, err := l.Load(context.Background())
	require.NoError(t, err)
	assert.Same(t, results[0], again)
	assert.Equal(t, int32(1), src.calls.Load())
	assert.True(t, l.Loaded())
}

func TestLoader_ErrorIsMemoised(t *testing.T) {
	t.Parallel()

	src := newGatedSource("")
	src.err = errors.New("connection reset")
	close(src.gate)
	h := &countingHydrator{}
	l := newTestLoader(src, h)

	_, err := l.Load(context.Background())
	var le *LoadError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, "fetch", le.Op)
	assert.Equal(t, "gated", le.Source)

	_, again := l.Load(context.Background())
	assert.Same(t, err, again)
	assert.Equal(t, int32(1), src.calls.Load(), "no retry")
	assert.Equal(t, int32(0), h.calls.Load(), "no hydrate on failure")
}

func TestLoader_CallerCancelDoesNotAbortFetch(t *testing.T) {
	t.Parallel()

	src := newGatedSource(sampleCollection)
	l := newTestLoader(src, nil)

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() {
		_, err := l.Load(ctx)
		errc <- err
	}()

	require.Eventually(t, func() bool { return src.calls.Load() == 1 }, time.Second, time.Millisecond)
	cancel()
	require.ErrorIs(t, <-errc, context.Canceled)

	close(src.gate)
	require.Eventually(t, l.Loaded, time.Second, time.Millisecond)

	coll, err := l.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, coll.Len())
	assert.Equal(t, int32(1), src.calls.Load())
}

func TestLoader_Timeout(t *testing.T) {
	t.Parallel()

	src := newGatedSource(sampleCollection)
	l := newTestLoader(src, nil, WithTimeout(20*time.Millisecond))

	_, err := l.Load(context.Background())
	require.ErrorIs(t, err, context.DeadlineExceeded)

	var le *LoadError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, "fetch", le.Op)
}

func TestLoader_HTTPSource(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Path != CollectionPath {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(sampleCollection))
	}))
	t.Cleanup(srv.Close)

	client := vhttp.NewClient(vhttp.WithHTTPClient(srv.Client()))
	h := &countingHydrator{}
	l := newTestLoader(NewSource(srv.URL+"/", afero.NewMemMapFs(), client), h)

	coll, err := l.Load(context.Background())
	require.NoError(t, err)

	rec, _, ok := coll.ByID("kob")
	require.True(t, ok)
	assert.Equal(t, model.Year(1959), rec.Year)
	assert.Equal(t, "/covers/kob.jpg", rec.CoverImageURL)
	assert.Equal(t, int32(1), hits.Load())
	assert.Equal(t, int32(1), h.calls.Load())
}

func TestLoader_HTTPStatusError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	client := vhttp.NewClient(vhttp.WithHTTPClient(srv.Client()))
	l := newTestLoader(NewHTTPSource(client, srv.URL), nil)

	_, err := l.Load(context.Background())
	var statusErr *vhttp.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusInternalServerError, statusErr.StatusCode)
}

func TestLoader_FileSource(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/srv/data/vinyl-collection.json", []byte(sampleCollection), 0o644))

	l := newTestLoader(NewSource("/srv/data/vinyl-collection.json", fs, nil), nil)
	coll, err := l.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Pink Floyd", coll.At(0).Artist)
	assert.Equal(t, "Breathe", coll.At(0).Tracks[1].Title)

	missing := newTestLoader(NewFileSource(fs, "/nope.json"), nil)
	_, err = missing.Load(context.Background())
	var le *LoadError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, "/nope.json", le.Source)
}

func TestParse_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		data   string
		op     string
		target error
	}{
		{name: "malformed", data: `[{"id":`, op: "decode"},
		{name: "not an array", data: `{"id":"a"}`, op: "decode"},
		{name: "empty", data: `[]`, op: "validate", target: ErrEmpty},
		{name: "null", data: `null`, op: "validate", target: ErrEmpty},
		{name: "null record", data: `[null]`, op: "validate"},
		{name: "missing id", data: `[{"artist":"A","title":"T"}]`, op: "validate"},
		{name: "missing title", data: `[{"id":"a","artist":"A"}]`, op: "validate"},
		{name: "untitled track", data: `[{"id":"a","artist":"A","title":"T","tracks":[{"duration":"1:00"}]}]`, op: "validate"},
		{
			name:   "duplicate id",
			data:   `[{"id":"a","artist":"A","title":"T"},{"id":"a","artist":"B","title":"U"}]`,
			op:     "validate",
			target: ErrDuplicateID,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := Parse([]byte(tt.data))
			var le *LoadError
			require.ErrorAs(t, err, &le)
			assert.Equal(t, tt.op, le.Op)
			if tt.target != nil {
				assert.ErrorIs(t, err, tt.target)
			}
		})
	}
}

func TestNewSource(t *testing.T) {
	t.Parallel()

	client := vhttp.NewClient()

	src := NewSource("https://vinyl.example.com", afero.NewMemMapFs(), client)
	assert.IsType(t, &HTTPSource{}, src)
	assert.Equal(t, "https://vinyl.example.com/data/vinyl-collection.json", src.Location())

	src = NewSource("HTTP://vinyl.example.com/custom.json", afero.NewMemMapFs(), client)
	assert.Equal(t, "HTTP://vinyl.example.com/custom.json", src.Location())

	src = NewSource("data/vinyl-collection.json", afero.NewMemMapFs(), client)
	assert.IsType(t, &FileSource{}, src)
}
