package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"
	"text/tabwriter"

	"github.com/handiism/vinyl-stack/internal/app"
	"github.com/handiism/vinyl-stack/internal/config"
	"github.com/handiism/vinyl-stack/internal/logging"
	"github.com/handiism/vinyl-stack/internal/tui"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// cli holds global flags and the App built from them.
type cli struct {
	configPath string
	collection string
	dataDir    string
	storage    string
	logLevel   string

	settings *config.Settings
	app      *app.App
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	rootCmd := &cobra.Command{
		Use:   "vinyl-stack",
		Short: "Browse a vinyl record collection",
		Long: `vinyl-stack browses a vinyl collection one record at a time.

The collection is a JSON document served over HTTP or read from disk.
Cover art URLs are cached locally between runs.

Run without a subcommand to open the interactive browser.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.setup,
		RunE:              c.withApp(c.runBrowse),
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&c.configPath, "config", config.DefaultPath(), "path to the settings file")
	flags.StringVar(&c.collection, "collection", "", "collection URL or file (overrides settings)")
	flags.StringVar(&c.dataDir, "data-dir", "", "directory for the cover cache and logs")
	flags.StringVar(&c.storage, "storage", "", "cover cache backend: bolt, file or memory")
	flags.StringVar(&c.logLevel, "log-level", "", "trace, debug, info, warn, error or disabled")

	browseCmd := &cobra.Command{
		Use:   "browse",
		Short: "Open the interactive browser",
		Args:  cobra.NoArgs,
		RunE:  c.withApp(c.runBrowse),
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List every record in the collection",
		Args:  cobra.NoArgs,
		RunE:  c.withApp(c.runList),
	}

	showCmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one record with its cover and tracklist",
		Args:  cobra.ExactArgs(1),
		RunE:  c.withApp(c.runShow),
	}

	rootCmd.AddCommand(browseCmd, listCmd, showCmd, c.newCoversCmd())
	return rootCmd
}

func (c *cli) setup(cmd *cobra.Command, _ []string) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to read .env: %w", err)
	}

	settings, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	settings.ApplyEnv()

	if c.collection != "" {
		settings.Collection.Source = c.collection
	}
	if c.dataDir != "" {
		settings.Storage.DataDir = c.dataDir
	}
	if c.storage != "" {
		settings.Storage.Backend = strings.ToLower(c.storage)
	}
	if c.logLevel != "" {
		settings.Logging.Level = strings.ToLower(c.logLevel)
	}
	if err := settings.Validate(); err != nil {
		return err
	}

	// The browser owns the terminal, so only other commands log to stderr.
	var extra []io.Writer
	if !isBrowse(cmd) {
		extra = append(extra, logging.Console())
	}
	if err := logging.Init(settings.Logging.Level, settings.LogFile(), extra...); err != nil {
		return err
	}

	a, err := app.New(settings)
	if err != nil {
		return err
	}

	c.settings = settings
	c.app = a
	log.Debug().Str("command", cmd.CommandPath()).Msg("starting")
	return nil
}

// withApp closes the App once fn returns, whether or not it failed.
func (c *cli) withApp(fn func(*cobra.Command, []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		err := fn(cmd, args)
		return errors.Join(err, c.teardown())
	}
}

func (c *cli) teardown() error {
	if c.app == nil {
		return nil
	}
	err := c.app.Close()
	c.app = nil
	return err
}

func isBrowse(cmd *cobra.Command) bool {
	return !cmd.HasParent() || cmd.Name() == "browse"
}

func (c *cli) runBrowse(_ *cobra.Command, _ []string) error {
	return tui.Run(c.app.Loader, c.app.Resolver)
}

func (c *cli) runList(cmd *cobra.Command, _ []string) error {
	coll, err := c.app.Loader.Load(cmd.Context())
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tARTIST\tTITLE\tYEAR\tTRACKS")
	for _, rec := range coll.Records {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n", rec.ID, rec.Artist, rec.Title, rec.Year, len(rec.Tracks))
	}
	return w.Flush()
}

func (c *cli) runShow(cmd *cobra.Command, args []string) error {
	coll, err := c.app.Loader.Load(cmd.Context())
	if err != nil {
		return err
	}

	rec, idx, ok := coll.ByID(args[0])
	if !ok {
		return fmt.Errorf("no record with id %q", args[0])
	}

	coverURL, err := c.app.Resolver.Resolve(cmd.Context(), rec)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s\n", rec)
	fmt.Fprintf(out, "  position: %d / %d\n", idx+1, coll.Len())
	if rec.Year != 0 {
		fmt.Fprintf(out, "  year:     %s\n", rec.Year)
	}
	if rec.Label != "" {
		fmt.Fprintf(out, "  label:    %s\n", rec.Label)
	}
	fmt.Fprintf(out, "  cover:    %s\n", coverURL)

	if len(rec.Tracks) > 0 {
		fmt.Fprintln(out, "\nTracklist:")
		for i, track := range rec.Tracks {
			if track.Duration != "" {
				fmt.Fprintf(out, "  %2d. %s (%s)\n", i+1, track.Title, track.Duration)
			} else {
				fmt.Fprintf(out, "  %2d. %s\n", i+1, track.Title)
			}
		}
	}
	return nil
}
