package main

import (
	"fmt"
	"slices"

	"github.com/handiism/vinyl-stack/internal/export"
	"github.com/spf13/cobra"
)

func (c *cli) newCoversCmd() *cobra.Command {
	coversCmd := &cobra.Command{
		Use:   "covers",
		Short: "Manage cached cover art",
		Long: `Manage the local cover art cache.

Available subcommands:
  resolve - Resolve and cache a cover for every record
  show    - Print the cached covers
  prune   - Drop cached entries that are not valid image URLs
  clear   - Delete the whole cache
  export  - Save every cover as a JPEG file`,
	}

	resolveCmd := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve and cache a cover for every record",
		Args:  cobra.NoArgs,
		RunE:  c.withApp(c.runCoversResolve),
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the cached covers",
		Args:  cobra.NoArgs,
		RunE:  c.withApp(c.runCoversShow),
	}

	pruneCmd := &cobra.Command{
		Use:   "prune",
		Short: "Drop cached entries that are not valid image URLs",
		Args:  cobra.NoArgs,
		RunE:  c.withApp(c.runCoversPrune),
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete the whole cover cache",
		Args:  cobra.NoArgs,
		RunE:  c.withApp(c.runCoversClear),
	}

	var verbose bool
	var dir string
	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Save every cover as a JPEG file",
		Args:  cobra.NoArgs,
		RunE: c.withApp(func(cmd *cobra.Command, args []string) error {
			return c.runCoversExport(cmd, dir, verbose)
		}),
	}
	exportCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "show every exported file")
	exportCmd.Flags().StringVar(&dir, "dir", "", "output directory (overrides settings)")

	coversCmd.AddCommand(resolveCmd, showCmd, pruneCmd, clearCmd, exportCmd)
	return coversCmd
}

func (c *cli) runCoversResolve(cmd *cobra.Command, _ []string) error {
	coll, err := c.app.Loader.Load(cmd.Context())
	if err != nil {
		return err
	}

	covers, err := c.app.Resolver.ResolveAll(cmd.Context(), coll.Records)
	if err != nil {
		return err
	}

	defaults := 0
	for _, url := range covers {
		if url == c.app.Resolver.DefaultCover() {
			defaults++
		}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Resolved %d covers (%d using the default)\n", len(covers), defaults)
	return nil
}

func (c *cli) runCoversShow(cmd *cobra.Command, _ []string) error {
	covers := c.app.Cache.Hydrate()

	ids := make([]string, 0, len(covers))
	for id := range covers {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	out := cmd.OutOrStdout()
	for _, id := range ids {
		fmt.Fprintf(out, "%s\t%s\n", id, covers[id])
	}
	fmt.Fprintf(out, "%d cached covers\n", len(ids))
	return nil
}

func (c *cli) runCoversPrune(cmd *cobra.Command, _ []string) error {
	c.app.Cache.Hydrate()
	removed := c.app.Cache.Dropped() + c.app.Cache.Prune()
	fmt.Fprintf(cmd.OutOrStdout(), "Removed %d invalid covers, %d left\n", removed, c.app.Cache.Len())
	return nil
}

func (c *cli) runCoversClear(cmd *cobra.Command, _ []string) error {
	c.app.Cache.Clear()
	fmt.Fprintln(cmd.OutOrStdout(), "Cover cache cleared")
	return nil
}

func (c *cli) runCoversExport(cmd *cobra.Command, dir string, verbose bool) error {
	if dir != "" {
		c.settings.Export.Directory = dir
	}

	coll, err := c.app.Loader.Load(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	manager := c.app.NewExporter(func(event export.ProgressEvent) {
		if event.Level == export.LevelVerbose && !verbose {
			return
		}

		prefix := ""
		switch event.Level {
		case export.LevelError:
			prefix = "✗ "
		case export.LevelWarning:
			prefix = "! "
		case export.LevelSuccess:
			prefix = "✓ "
		case export.LevelInfo:
			prefix = "› "
		default:
			prefix = "  "
		}
		fmt.Fprintln(out, prefix+event.Message)
	})

	summary, err := manager.Export(cmd.Context(), coll.Records)
	if err != nil {
		return err
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d covers failed to export", summary.Failed)
	}
	return nil
}
