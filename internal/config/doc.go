// Package config provides configuration management for vinyl-stack.
//
// This package handles:
//   - Loading and saving settings from TOML files
//   - Default configuration values
//   - Environment variable overrides (VINYL_STACK_*)
//   - Conversion to CoverPathConfig for the cover export
//
// # Default Settings
//
// Use DefaultSettings() to get sensible defaults:
//
//	settings := config.DefaultSettings()
//	// Collection read from ./data/vinyl-collection.json
//	// Cover cache stored in a bbolt file under ~/.local/share/vinyl-stack
//	// Cache writes debounced by 2 seconds
//
// # Loading from File
//
//	settings, err := config.Load("/path/to/config.toml")
//	if err != nil {
//	    // Parse or validation failure; a missing file yields defaults
//	}
//	settings.ApplyEnv()
//
// # Saving Settings
//
//	settings.Storage.Backend = config.BackendFile
//	err := settings.Save("/path/to/config.toml")
package config
