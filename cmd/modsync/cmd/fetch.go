package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bianoble/modsync/internal/engine"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch [entity...]",
	Short: "Download the locked files into the pack",
	Long: `Downloads the preferred file of every entity in the lockfile into its
kind folder (mods/, resourcepacks/, ...). Files already present with matching
hashes are skipped. If entity names are given, only those are fetched.`,
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

		eng := &engine.FetchEngine{
			ProjectRoot: root,
			Downloader:  dl,
			Logger:      logger,
			Concurrency: appSettings.Concurrency,
		}

		result, err := eng.Fetch(cmd.Context(), lf, cfg, engine.FetchOptions{Entities: args})
		if err != nil {
			return err
		}

		for _, f := range result.Written {
			info("  %s  %s", stateStyle(f.Action).Render(f.Action), f.Path)
		}
		for _, f := range result.Skipped {
			detail("%s  %s", f.Action, f.Path)
		}
		for _, w := range result.Warnings {
			warnf("%s", w)
		}

		if len(result.Errors) > 0 {
			for _, e := range result.Errors {
				errorf("%s", e)
			}
			return fmt.Errorf("%d entity(ies) could not be fetched", len(result.Errors))
		}
		info("\nFetched %d file(s), %d up to date.", len(result.Written), len(result.Skipped))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(fetchCmd)
}
