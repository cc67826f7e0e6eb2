package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bianoble/modsync/internal/engine"
)

var updateDryRun bool

var updateCmd = &cobra.Command{
	Use:   "update [entity...]",
	Short: "Move entities to their newest compatible files",
	Long: `Queries the registered platforms for each entity with update strategy
"latest", keeps the newest file compatible with the pack's Minecraft versions
and loaders, and updates the lockfile. Entities with strategy "none" are left
unchanged. If entity names are given, only those are updated.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, lf, err := load()
		if err != nil {
			return err
		}

		reg := newRegistry()
		if len(reg.Names()) == 0 {
			return fmt.Errorf("no platform clients registered — update needs a client registered through the modsync library")
		}

		eng := &engine.UpdateEngine{Registry: reg, Logger: logger}
		result, updated, err := eng.Update(cmd.Context(), lf, engine.UpdateOptions{Entities: args, DryRun: updateDryRun})
		if err != nil {
			return err
		}

		for _, p := range result.Pinned {
			detail("pinned  %s", p)
		}
		if len(result.Updated) == 0 && len(result.Failed) == 0 {
			info("%s", successStyle.Render("All entities are up to date."))
			return nil
		}

		for _, u := range result.Updated {
			info("  %-28s  %s → %s", u.Entity, strings.Join(u.Before, ", "), strings.Join(u.After, ", "))
		}
		for _, e := range result.Failed {
			errorf("%s", e)
		}

		if updateDryRun {
			info("\nDry run — lockfile not modified.")
		} else if updated != nil && len(result.Updated) > 0 {
			if err := saveLockfile(updated); err != nil {
				return fmt.Errorf("saving lockfile: %w", err)
			}
			info("\n%s", successStyle.Render("Lockfile updated."))
		}

		if len(result.Failed) > 0 {
			return fmt.Errorf("%d entity(ies) failed to update", len(result.Failed))
		}
		return nil
	},
}

func init() {
	updateCmd.Flags().BoolVar(&updateDryRun, "dry-run", false, "show changes without writing the lockfile")
	rootCmd.AddCommand(updateCmd)
}
