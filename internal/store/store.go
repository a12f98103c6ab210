// Package store provides the small key-value stores that stand in for
// browser local storage.
//
// A Store holds a handful of string-keyed byte values under a byte quota.
// Writes that would push the total size of keys and values past the quota
// fail with ErrQuotaExceeded and leave the previous value untouched.
//
// Three backends are available:
//   - Bolt: a bbolt database file (default)
//   - File: one file per key in a directory, on any afero.Fs
//   - Memory: an in-process map, used for tests and ephemeral runs
package store

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
)

var (
	// ErrNotFound is returned by Get when the key has no value.
	ErrNotFound = errors.New("store: key not found")

	// ErrQuotaExceeded is returned by Set when the value does not fit.
	ErrQuotaExceeded = errors.New("store: quota exceeded")
)

// Store is a string-keyed byte store.
type Store interface {
	// Get returns the value for key or ErrNotFound.
	Get(key string) ([]byte, error)
	// Set stores value under key, replacing any previous value.
	Set(key string, value []byte) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(key string) error
	// Close releases any resources held by the store.
	Close() error
}

// Backend names accepted by Open.
const (
	BackendBolt   = "bolt"
	BackendFile   = "file"
	BackendMemory = "memory"
)

// Open creates the named backend rooted at dataDir.
func Open(backend, dataDir string, quota int) (Store, error) {
	switch backend {
	case BackendBolt:
		fs := afero.NewOsFs()
		if err := fs.MkdirAll(dataDir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create data dir: %w", err)
		}
		return OpenBolt(filepath.Join(dataDir, "vinyl-stack.db"), quota)
	case BackendFile:
		return NewFile(afero.NewOsFs(), filepath.Join(dataDir, "local-storage"), quota)
	case BackendMemory:
		return NewMemory(quota), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", backend)
	}
}

// fits reports whether used bytes plus a new entry stay within quota.
// A quota of zero or less means unlimited.
func fits(quota, used int, key string, value []byte) bool {
	if quota <= 0 {
		return true
	}
	return used+len(key)+len(value) <= quota
}
