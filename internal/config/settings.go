package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/handiism/vinyl-stack/internal/model"
	toml "github.com/pelletier/go-toml/v2"
)

// Environment variables that override values from the settings file.
const (
	EnvCollection = "VINYL_STACK_COLLECTION"
	EnvDataDir    = "VINYL_STACK_DATA_DIR"
	EnvStorage    = "VINYL_STACK_STORAGE"
	EnvLogLevel   = "VINYL_STACK_LOG_LEVEL"
)

// Storage backends.
const (
	BackendBolt   = "bolt"
	BackendFile   = "file"
	BackendMemory = "memory"
)

// Settings holds all configuration options.
type Settings struct {
	Collection CollectionSettings `toml:"collection"`
	Storage    StorageSettings    `toml:"storage"`
	Covers     CoverSettings      `toml:"covers"`
	Export     ExportSettings     `toml:"export"`
	Logging    LoggingSettings    `toml:"logging"`
}

// CollectionSettings controls where the collection document is read from.
type CollectionSettings struct {
	// Source is an http(s) URL or a local file path.
	Source              string `toml:"source" validate:"required"`
	FetchTimeoutSeconds int    `toml:"fetch_timeout_seconds" validate:"gte=1"`
}

// StorageSettings controls the local key-value store backing the cover cache.
type StorageSettings struct {
	Backend        string `toml:"backend" validate:"oneof=bolt file memory"`
	DataDir        string `toml:"data_dir" validate:"required"`
	Key            string `toml:"key" validate:"required"`
	QuotaBytes     int    `toml:"quota_bytes" validate:"gt=0"`
	DebounceMillis int    `toml:"debounce_millis" validate:"gte=0"`
}

// CoverSettings controls cover art resolution.
type CoverSettings struct {
	DefaultCover      string  `toml:"default_cover" validate:"required"`
	RemoteLookup      bool    `toml:"remote_lookup"`
	RemoteCountry     string  `toml:"remote_country"`
	RequestsPerSecond float64 `toml:"requests_per_second" validate:"gt=0"`
}

// ExportSettings controls `covers export`.
type ExportSettings struct {
	Directory      string  `toml:"directory"`
	FileNameFormat string  `toml:"file_name_format" validate:"required"`
	MaxConcurrent  int     `toml:"max_concurrent" validate:"gte=1"`
	MaxRetries     int     `toml:"max_retries" validate:"gte=1"`
	RetryCooldown  float64 `toml:"retry_cooldown" validate:"gte=0"`
	RetryExponent  float64 `toml:"retry_exponent" validate:"gte=1"`
	Resize         bool    `toml:"resize"`
	MaxSize        int     `toml:"max_size" validate:"gt=0"`
	// Overwrite replaces covers that were already exported.
	Overwrite bool `toml:"overwrite"`
}

// LoggingSettings controls the zerolog output.
type LoggingSettings struct {
	Level string `toml:"level" validate:"oneof=trace debug info warn error disabled"`
	// File is the rotating log file. Empty means <data_dir>/vinyl-stack.log.
	File string `toml:"file"`
}

// DefaultSettings returns settings with default values.
func DefaultSettings() *Settings {
	homeDir, _ := os.UserHomeDir()
	dataDir := filepath.Join(homeDir, ".local", "share", "vinyl-stack")

	return &Settings{
		Collection: CollectionSettings{
			Source:              filepath.Join("data", "vinyl-collection.json"),
			FetchTimeoutSeconds: 30,
		},
		Storage: StorageSettings{
			Backend:        BackendBolt,
			DataDir:        dataDir,
			Key:            "coverImages",
			QuotaBytes:     5 * 1024 * 1024,
			DebounceMillis: 2000,
		},
		Covers: CoverSettings{
			DefaultCover:      "/default-cover.jpg",
			RemoteLookup:      false,
			RemoteCountry:     "US",
			RequestsPerSecond: 1,
		},
		Export: ExportSettings{
			Directory:      filepath.Join(homeDir, "Pictures", "vinyl-stack"),
			FileNameFormat: "{artist} - {title}",
			MaxConcurrent:  4,
			MaxRetries:     3,
			RetryCooldown:  0.2,
			RetryExponent:  4.0,
			Resize:         true,
			MaxSize:        1000,
		},
		Logging: LoggingSettings{
			Level: "info",
		},
	}
}

// Load reads settings from a TOML file. A missing file yields defaults.
func Load(path string) (*Settings, error) {
	settings := DefaultSettings()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return settings, nil
		}
		return nil, fmt.Errorf("failed to read settings: %w", err)
	}

	if err := toml.Unmarshal(data, settings); err != nil {
		return nil, fmt.Errorf("failed to parse settings %s: %w", path, err)
	}

	if err := settings.Validate(); err != nil {
		return nil, err
	}

	return settings, nil
}

// Save writes settings to a TOML file.
func (s *Settings) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	data, err := toml.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}

	return os.WriteFile(path, data, 0o644)
}

// ApplyEnv overrides settings from VINYL_STACK_* environment variables.
func (s *Settings) ApplyEnv() {
	if v, ok := os.LookupEnv(EnvCollection); ok && v != "" {
		s.Collection.Source = v
	}
	if v, ok := os.LookupEnv(EnvDataDir); ok && v != "" {
		s.Storage.DataDir = v
	}
	if v, ok := os.LookupEnv(EnvStorage); ok && v != "" {
		s.Storage.Backend = strings.ToLower(v)
	}
	if v, ok := os.LookupEnv(EnvLogLevel); ok && v != "" {
		s.Logging.Level = strings.ToLower(v)
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the settings for out-of-range values.
func (s *Settings) Validate() error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}
	return nil
}

// DefaultPath returns the default settings file location.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "vinyl-stack", "config.toml")
}

// LogFile returns the log file path, defaulting into the data directory.
func (s *Settings) LogFile() string {
	if s.Logging.File != "" {
		return s.Logging.File
	}
	return filepath.Join(s.Storage.DataDir, "vinyl-stack.log")
}

// Debounce returns the cover cache write debounce interval.
func (s *Settings) Debounce() time.Duration {
	return time.Duration(s.Storage.DebounceMillis) * time.Millisecond
}

// FetchTimeout returns the collection fetch timeout.
func (s *Settings) FetchTimeout() time.Duration {
	return time.Duration(s.Collection.FetchTimeoutSeconds) * time.Second
}

// ToCoverPathConfig converts settings to a CoverPathConfig.
func (s *Settings) ToCoverPathConfig() *model.CoverPathConfig {
	return &model.CoverPathConfig{
		Directory:      s.Export.Directory,
		FileNameFormat: s.Export.FileNameFormat,
	}
}
