package main

import (
	"fmt"
	"os"

	"github.com/handiism/vinyl-stack/internal/app"
	"github.com/handiism/vinyl-stack/internal/config"
	"github.com/handiism/vinyl-stack/internal/logging"
	"github.com/handiism/vinyl-stack/internal/tui"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	settings, err := config.Load(config.DefaultPath())
	if err != nil {
		return err
	}
	settings.ApplyEnv()

	if err := logging.Init(settings.Logging.Level, settings.LogFile()); err != nil {
		return err
	}

	a, err := app.New(settings)
	if err != nil {
		return err
	}
	defer a.Close()

	return tui.Run(a.Loader, a.Resolver)
}
