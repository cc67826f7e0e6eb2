package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bianoble/modsync/internal/engine"
)

var importCmd = &cobra.Command{
	Use:   "import <modpack>",
	Short: "Create the lockfile from a CurseForge or Modrinth modpack",
	Long: `Reads manifest.json from a CurseForge .zip or modrinth.index.json from an
.mrpack (or either file on its own) and resolves every listed file on the
modpack's platform, keeping the exact files the modpack pins. The lockfile
must not exist yet.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := os.Stat(lockfilePath); err == nil {
			return fmt.Errorf("lockfile %s already exists — remove it to import %s", lockfilePath, args[0])
		}

		reg := newRegistry()
		if len(reg.Names()) == 0 {
			return fmt.Errorf("no platform clients registered — import needs a client registered through the modsync library")
		}

		eng := &engine.ImportEngine{Registry: reg, Logger: logger, Concurrency: appSettings.Concurrency}
		result, lf, err := eng.Import(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		printAddResult(result)

		if err := saveLockfile(lf); err != nil {
			return fmt.Errorf("saving lockfile: %w", err)
		}
		info("\n%s", successStyle.Render(fmt.Sprintf("Imported %d entities into %s.", len(result.Added), lockfilePath)))

		if len(result.Failed) > 0 {
			return fmt.Errorf("%d file(s) could not be resolved", len(result.Failed))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
}
