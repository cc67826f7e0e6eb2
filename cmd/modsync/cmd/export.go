package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/bianoble/modsync/internal/engine"
	"github.com/bianoble/modsync/internal/rules"
)

var (
	exportProfiles   []string
	exportClientOnly bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Build the distributable archives of the pack",
	Long: `Runs the export profiles and writes one archive per profile to
build/<profile>/. Profiles for platforms the pack does not target are skipped.

Profiles: ` + strings.Join(rules.Names(), ", ") + `
Default:  ` + strings.Join(rules.DefaultProfiles, ", "),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, lf, err := load()
		if err != nil {
			return err
		}

		root, err := projectRoot()
		if err != nil {
			return err
		}

		dl, err := newDownloader()
		if err != nil {
			return err
		}

		eng := &engine.ExportEngine{
			ProjectRoot: root,
			Downloader:  dl,
			Logger:      logger,
			Concurrency: appSettings.Concurrency,
		}

		opts := engine.ExportOptions{Profiles: exportProfiles, ClientOnly: exportClientOnly}
		result, err := eng.Export(cmd.Context(), lf, cfg, opts)
		if err != nil {
			return err
		}

		for _, p := range result.Profiles {
			switch {
			case p.Skipped:
				info("  %-13s %s", p.Name, mutedStyle.Render("skipped"))
			case p.Archive == "":
				info("  %-13s %s", p.Name, errorStyle.Render("failed"))
			default:
				info("  %-13s %s (%d files, %s)", p.Name, pathStyle.Render(p.Archive), len(p.Files), p.Duration.Round(time.Millisecond))
			}
			for _, w := range p.Warnings {
				detail("%s: %s", p.Name, w)
			}
			for _, e := range p.Errors {
				errorf("%s: %s", p.Name, e)
			}
		}

		if result.Failed() {
			return fmt.Errorf("export finished with errors")
		}
		info("\n%s", successStyle.Render("Export complete."))
		return nil
	},
}

func init() {
	exportCmd.Flags().StringSliceVarP(&exportProfiles, "profile", "p", nil, "profiles to export (repeatable)")
	exportCmd.Flags().BoolVar(&exportClientOnly, "client-only", false, "leave server-only projects out of client exports")
	rootCmd.AddCommand(exportCmd)
}
