package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bianoble/modsync/internal/engine"
)

var addDryRun bool

var addCmd = &cobra.Command{
	Use:   "add <entity...>",
	Short: "Add entities to the lockfile",
	Long: `Looks every slug or platform ID up on the registered platforms the pack
targets, merges the answers into one entity and adds it to the lockfile with
its newest compatible file per platform. Entities already in the lockfile are
skipped.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, lf, err := load()
		if err != nil {
			return err
		}

		reg := newRegistry()
		if len(reg.Names()) == 0 {
			return fmt.Errorf("no platform clients registered — add needs a client registered through the modsync library")
		}

		eng := &engine.AddEngine{Registry: reg, Logger: logger, Concurrency: appSettings.Concurrency}
		result, updated, err := eng.Add(cmd.Context(), lf, engine.AddOptions{Inputs: args, DryRun: addDryRun})
		if err != nil {
			return err
		}
		printAddResult(result)

		if addDryRun {
			info("\nDry run — lockfile not modified.")
		} else if updated != nil && len(result.Added) > 0 {
			if err := saveLockfile(updated); err != nil {
				return fmt.Errorf("saving lockfile: %w", err)
			}
			info("\n%s", successStyle.Render("Lockfile updated."))
		}

		if len(result.Failed) > 0 {
			return fmt.Errorf("%d entity(ies) could not be added", len(result.Failed))
		}
		return nil
	},
}

// printAddResult lists added, skipped and failed entities.
func printAddResult(result *engine.AddResult) {
	for _, a := range result.Added {
		info("  %s  %s", successStyle.Render("added"), a)
	}
	for _, s := range result.Skipped {
		detail("already added  %s", s)
	}
	for _, e := range result.Failed {
		errorf("%s", e)
	}
}

func init() {
	addCmd.Flags().BoolVar(&addDryRun, "dry-run", false, "show changes without writing the lockfile")
	rootCmd.AddCommand(addCmd)
}
