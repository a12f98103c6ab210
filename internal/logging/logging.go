// Package logging configures the process-wide zerolog logger.
//
// Logs always go to a rotating file because the TUI owns the terminal.
// Extra writers (for example a console writer on stderr for CLI
// commands) can be added.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// Init points the global logger at a rotating log file plus any extra
// writers and sets the global level.
func Init(level, file string, writers ...io.Writer) error {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}

	if err := os.MkdirAll(filepath.Dir(file), 0o750); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	logWriters := []io.Writer{&lumberjack.Logger{
		Filename:   file,
		MaxSize:    1,
		MaxBackups: 2,
	}}
	logWriters = append(logWriters, writers...)

	zerolog.SetGlobalLevel(lvl)
	log.Logger = zerolog.New(io.MultiWriter(logWriters...)).
		With().Timestamp().Caller().Logger()

	return nil
}

// Console returns a human-readable writer for stderr.
func Console() io.Writer {
	return zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}
}
