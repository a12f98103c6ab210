package cover

import (
	"context"
	"errors"
	"sync"

	"github.com/handiism/vinyl-stack/internal/model"
	"github.com/handiism/vinyl-stack/internal/store"
)

// recordingStore wraps a memory store, counting writes and optionally
// failing them.
type recordingStore struct {
	store.Store

	mu      sync.Mutex
	writes  []string
	deletes int
	// failSets makes the next n Set calls fail with setErr.
	failSets int
	setErr   error
	// failDeletes makes every Delete call fail.
	failDeletes bool
}

func newRecordingStore() *recordingStore {
	return &recordingStore{Store: store.NewMemory(0)}
}

func (s *recordingStore) Set(key string, value []byte) error {
	s.mu.Lock()
	s.writes = append(s.writes, string(value))
	if s.failSets > 0 {
		s.failSets--
		err := s.setErr
		s.mu.Unlock()
		return err
	}
	s.mu.Unlock()
	return s.Store.Set(key, value)
}

func (s *recordingStore) Delete(key string) error {
	s.mu.Lock()
	s.deletes++
	fail := s.failDeletes
	s.mu.Unlock()
	if fail {
		return errors.New("delete failed")
	}
	return s.Store.Delete(key)
}

func (s *recordingStore) writeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.writes)
}

func (s *recordingStore) lastWrite() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.writes) == 0 {
		return ""
	}
	return s.writes[len(s.writes)-1]
}

func (s *recordingStore) deleteCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deletes
}

// manualScheduler only runs the scheduled function when Fire is called.
type manualScheduler struct {
	mu       sync.Mutex
	fn       func()
	triggers int
}

func (m *manualScheduler) Trigger(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fn = fn
	m.triggers++
}

func (m *manualScheduler) Cancel() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	had := m.fn != nil
	m.fn = nil
	return had
}

func (m *manualScheduler) Fire() bool {
	m.mu.Lock()
	fn := m.fn
	m.fn = nil
	m.mu.Unlock()
	if fn == nil {
		return false
	}
	fn()
	return true
}

func (m *manualScheduler) Pending() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fn != nil
}

type stubSource struct {
	mu    sync.Mutex
	urls  map[string]string
	err   error
	calls int
}

func (s *stubSource) Lookup(_ context.Context, rec *model.Record) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	url, ok := s.urls[rec.ID]
	if !ok {
		return "", ErrNoCover
	}
	return url, nil
}

func (s *stubSource) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}
