package collection

import (
	"context"
	"fmt"
	"strings"

	"github.com/handiism/vinyl-stack/internal/http"
	"github.com/spf13/afero"
)

// CollectionPath is appended to a base URL that does not name a .json
// document itself.
const CollectionPath = "/data/vinyl-collection.json"

// Source fetches the raw collection document.
type Source interface {
	Fetch(ctx context.Context) ([]byte, error)
	// Location is a human-readable description used in errors and logs.
	Location() string
}

// HTTPSource reads the collection from a web server.
type HTTPSource struct {
	client *http.Client
	url    string
}

// NewHTTPSource creates an HTTPSource. base may be a site root, in which
// case CollectionPath is appended, or a full URL ending in .json.
func NewHTTPSource(client *http.Client, base string) *HTTPSource {
	url := base
	if !strings.HasSuffix(strings.ToLower(base), ".json") {
		url = strings.TrimRight(base, "/") + CollectionPath
	}
	return &HTTPSource{client: client, url: url}
}

func (s *HTTPSource) Fetch(ctx context.Context) ([]byte, error) {
	return s.client.Get(ctx, s.url)
}

func (s *HTTPSource) Location() string {
	return s.url
}

// FileSource reads the collection from a file.
type FileSource struct {
	fs   afero.Fs
	path string
}

// NewFileSource creates a FileSource on fs.
func NewFileSource(fs afero.Fs, path string) *FileSource {
	return &FileSource{fs: fs, path: path}
}

func (s *FileSource) Fetch(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", s.path, err)
	}
	return data, nil
}

func (s *FileSource) Location() string {
	return s.path
}

// NewSource picks an HTTPSource for http(s) locations and a FileSource
// for everything else.
func NewSource(location string, fs afero.Fs, client *http.Client) Source {
	lower := strings.ToLower(location)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return NewHTTPSource(client, location)
	}
	return NewFileSource(fs, location)
}
