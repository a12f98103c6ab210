package store

import "sync"

// Memory is an in-process Store. It is safe for concurrent use.
type Memory struct {
	mu      sync.Mutex
	entries map[string][]byte
	quota   int
}

var _ Store = (*Memory)(nil)

// NewMemory creates an empty Memory store. A quota of zero or less means
// unlimited.
func NewMemory(quota int) *Memory {
	return &Memory{
		entries: make(map[string][]byte),
		quota:   quota,
	}
}

func (m *Memory) Get(key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	v, ok := m.entries[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (m *Memory) Set(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	used := 0
	for k, v := range m.entries {
		if k != key {
			used += len(k) + len(v)
		}
	}
	if !fits(m.quota, used, key, value) {
		return ErrQuotaExceeded
	}

	m.entries[key] = append([]byte(nil), value...)
	return nil
}

func (m *Memory) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.entries, key)
	return nil
}

func (m *Memory) Close() error {
	return nil
}
