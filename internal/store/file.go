package store

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/afero"
)

const fileSuffix = ".json"

// File is a Store keeping one file per key inside a directory.
// Writes go to a temporary file first and are renamed into place.
type File struct {
	mu    sync.Mutex
	fs    afero.Fs
	dir   string
	quota int
}

var _ Store = (*File)(nil)

// NewFile creates a File store rooted at dir, creating it if needed.
func NewFile(fs afero.Fs, dir string, quota int) (*File, error) {
	if err := fs.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create store dir: %w", err)
	}
	return &File{fs: fs, dir: dir, quota: quota}, nil
}

func (f *File) path(key string) string {
	return filepath.Join(f.dir, url.PathEscape(key)+fileSuffix)
}

func (f *File) Get(key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := afero.ReadFile(f.fs, f.path(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return data, nil
}

func (f *File) Set(key string, value []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	used, err := f.usedExcept(key)
	if err != nil {
		return err
	}
	if !fits(f.quota, used, key, value) {
		return ErrQuotaExceeded
	}

	target := f.path(key)
	tmp := target + ".tmp"
	if err := afero.WriteFile(f.fs, tmp, value, 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	if err := f.fs.Rename(tmp, target); err != nil {
		_ = f.fs.Remove(tmp)
		return fmt.Errorf("failed to replace %s: %w", key, err)
	}
	return nil
}

func (f *File) Delete(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	err := f.fs.Remove(f.path(key))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

func (f *File) Close() error {
	return nil
}

// usedExcept sums key and value sizes of every stored entry except key.
func (f *File) usedExcept(key string) (int, error) {
	infos, err := afero.ReadDir(f.fs, f.dir)
	if err != nil {
		return 0, fmt.Errorf("failed to list store dir: %w", err)
	}

	used := 0
	skip := filepath.Base(f.path(key))
	for _, info := range infos {
		name := info.Name()
		if info.IsDir() || name == skip || !strings.HasSuffix(name, fileSuffix) {
			continue
		}
		k, err := url.PathUnescape(strings.TrimSuffix(name, fileSuffix))
		if err != nil {
			k = name
		}
		used += len(k) + int(info.Size())
	}
	return used, nil
}
