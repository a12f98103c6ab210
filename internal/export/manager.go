package export

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/url"
	"path"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/handiism/vinyl-stack/internal/config"
	"github.com/handiism/vinyl-stack/internal/cover"
	"github.com/handiism/vinyl-stack/internal/http"
	ioutils "github.com/handiism/vinyl-stack/internal/io"
	"github.com/handiism/vinyl-stack/internal/model"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"
)

// ProgressLevel indicates the severity/type of a progress message.
type ProgressLevel int

const (
	LevelInfo ProgressLevel = iota
	LevelVerbose
	LevelWarning
	LevelError
	LevelSuccess
)

func (l ProgressLevel) String() string {
	switch l {
	case LevelVerbose:
		return "verbose"
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	case LevelSuccess:
		return "success"
	default:
		return "info"
	}
}

// ProgressEvent represents an export progress update.
type ProgressEvent struct {
	Message string
	Level   ProgressLevel
	// RecordID is set for events about a single record.
	RecordID string
}

// ErrNotDownloadable is returned for a cover that is neither an absolute
// URL nor resolvable against the asset base.
var ErrNotDownloadable = errors.New("cover is not downloadable")

// Summary counts the outcome of an Export.
type Summary struct {
	Exported int
	Skipped  int
	Failed   int
}

// Manager exports the cover art of a collection into a folder.
type Manager struct {
	settings     *config.ExportSettings
	pathCfg      *model.CoverPathConfig
	resolver     *cover.Resolver
	httpClient   *http.Client
	fs           afero.Fs
	imageService *ioutils.ImageService
	base         string

	total    int32
	exported int32
	skipped  int32
	failed   int32

	onProgress func(ProgressEvent)
}

// Option configures a Manager.
type Option func(*Manager)

// WithFs sets the file system covers are written to and local assets are
// read from. Defaults to the OS file system.
func WithFs(fs afero.Fs) Option {
	return func(m *Manager) {
		m.fs = fs
	}
}

// WithBase sets where site-relative cover paths such as
// "/default-cover.jpg" are found: a site root URL or a local directory.
func WithBase(base string) Option {
	return func(m *Manager) {
		m.base = base
	}
}

// NewManager creates a new export Manager.
func NewManager(settings *config.Settings, resolver *cover.Resolver, client *http.Client, onProgress func(ProgressEvent), opts ...Option) *Manager {
	m := &Manager{
		settings:     &settings.Export,
		pathCfg:      settings.ToCoverPathConfig(),
		resolver:     resolver,
		httpClient:   client,
		fs:           afero.NewOsFs(),
		imageService: ioutils.NewImageService(),
		onProgress:   onProgress,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Export writes a JPEG cover for every record. A failure on one record
// is reported and does not stop the others; the returned error is only
// set when ctx is cancelled or the target folder cannot be created.
func (m *Manager) Export(ctx context.Context, records []*model.Record) (Summary, error) {
	if err := ioutils.EnsureDir(m.fs, m.pathCfg.Directory); err != nil {
		m.progress(ProgressEvent{Message: fmt.Sprintf("Error creating directory: %v", err), Level: LevelError})
		return Summary{}, err
	}

	atomic.StoreInt32(&m.total, int32(len(records)))
	atomic.StoreInt32(&m.exported, 0)
	atomic.StoreInt32(&m.skipped, 0)
	atomic.StoreInt32(&m.failed, 0)
	m.progress(ProgressEvent{
		Message: fmt.Sprintf("Exporting %d covers to %s", len(records), m.pathCfg.Directory),
		Level:   LevelInfo,
	})

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(m.settings.MaxConcurrent)

	for _, rec := range records {
		g.Go(func() error {
			if err := m.exportRecord(ctx, rec); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				atomic.AddInt32(&m.failed, 1)
				m.progress(ProgressEvent{
					Message:  fmt.Sprintf("Error exporting %s: %v", rec, err),
					Level:    LevelError,
					RecordID: rec.ID,
				})
			}
			return nil // Continue with other records
		})
	}

	err := g.Wait()
	summary := m.Summary()

	if err == nil {
		level := LevelSuccess
		if summary.Failed > 0 {
			level = LevelWarning
		}
		m.progress(ProgressEvent{
			Message: fmt.Sprintf("Exported %d, skipped %d, failed %d", summary.Exported, summary.Skipped, summary.Failed),
			Level:   level,
		})
	}
	return summary, err
}

// GetProgress returns how many records are done out of the total.
func (m *Manager) GetProgress() (done, total int32) {
	return atomic.LoadInt32(&m.exported) + atomic.LoadInt32(&m.skipped) + atomic.LoadInt32(&m.failed),
		atomic.LoadInt32(&m.total)
}

// Summary returns the counts so far.
func (m *Manager) Summary() Summary {
	return Summary{
		Exported: int(atomic.LoadInt32(&m.exported)),
		Skipped:  int(atomic.LoadInt32(&m.skipped)),
		Failed:   int(atomic.LoadInt32(&m.failed)),
	}
}

func (m *Manager) exportRecord(ctx context.Context, rec *model.Record) error {
	target := rec.CoverPath(m.pathCfg, ".jpg")

	if !m.settings.Overwrite && ioutils.Exists(m.fs, target) {
		m.progress(ProgressEvent{Message: fmt.Sprintf("Skipping existing: %s", filepath.Base(target)), Level: LevelVerbose, RecordID: rec.ID})
		atomic.AddInt32(&m.skipped, 1)
		return nil
	}

	coverURL, err := m.resolver.Resolve(ctx, rec)
	if err != nil {
		return err
	}

	data, err := m.fetch(ctx, rec, coverURL)
	if err != nil {
		return err
	}

	data, err = m.imageService.Process(ctx, data, m.settings.Resize, m.settings.MaxSize)
	if err != nil {
		return fmt.Errorf("processing %s: %w", coverURL, err)
	}

	if err := ioutils.WriteFile(m.fs, target, data); err != nil {
		return err
	}

	atomic.AddInt32(&m.exported, 1)
	m.progress(ProgressEvent{Message: fmt.Sprintf("Exported: %s", filepath.Base(target)), Level: LevelVerbose, RecordID: rec.ID})
	return nil
}

// fetch reads the cover image behind coverURL, downloading absolute and
// site-relative URLs and reading local assets from disk.
func (m *Manager) fetch(ctx context.Context, rec *model.Record, coverURL string) ([]byte, error) {
	location, remote, err := m.locate(coverURL)
	if err != nil {
		return nil, err
	}

	if !remote {
		return ioutils.ReadFile(m.fs, location)
	}

	var data []byte
	for tries := 0; tries < m.settings.MaxRetries; tries++ {
		data, err = m.httpClient.Get(ctx, location)
		if err == nil {
			return data, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if tries+1 == m.settings.MaxRetries {
			break
		}
		m.progress(ProgressEvent{
			Message:  fmt.Sprintf("Retry %d/%d for %s", tries+1, m.settings.MaxRetries, rec),
			Level:    LevelWarning,
			RecordID: rec.ID,
		})
		m.waitForRetry(ctx, tries)
	}
	return nil, err
}

// locate turns a cover URL into something fetchable. remote reports
// whether the result is an http(s) URL rather than a local path.
func (m *Manager) locate(coverURL string) (location string, remote bool, err error) {
	if isHTTP(coverURL) {
		return coverURL, true, nil
	}
	if m.base == "" {
		return "", false, fmt.Errorf("%w: %s", ErrNotDownloadable, coverURL)
	}

	if isHTTP(m.base) {
		base, err := url.Parse(strings.TrimRight(m.base, "/") + "/")
		if err != nil {
			return "", false, err
		}
		ref, err := url.Parse(strings.TrimLeft(coverURL, "/"))
		if err != nil {
			return "", false, err
		}
		return base.ResolveReference(ref).String(), true, nil
	}

	clean := path.Clean("/" + strings.TrimPrefix(coverURL, "."))
	return filepath.Join(m.base, filepath.FromSlash(clean)), false, nil
}

func (m *Manager) waitForRetry(ctx context.Context, tries int) {
	cooldown := m.settings.RetryCooldown * math.Pow(m.settings.RetryExponent, float64(tries))
	select {
	case <-ctx.Done():
	case <-time.After(time.Duration(cooldown * float64(time.Second))):
	}
}

func (m *Manager) progress(event ProgressEvent) {
	if m.onProgress != nil {
		m.onProgress(event)
	}
}

func isHTTP(s string) bool {
	lower := strings.ToLower(s)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
