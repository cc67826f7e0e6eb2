package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bianoble/modsync/internal/engine"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify that fetched files match the lockfile",
	Long: `Hashes every fetched entity file and compares it against the lockfile.
Reports drifted and missing files.
Exit 0 if everything matches; exit non-zero on drift. Suitable for CI pipelines.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, lf, err := load()
		if err != nil {
			return err
		}

		root, err := projectRoot()
		if err != nil {
			return err
		}

		eng := &engine.CheckEngine{ProjectRoot: root}
		result, err := eng.Check(cmd.Context(), lf, cfg)
		if err != nil {
			return err
		}

		if result.Clean {
			info("%s", successStyle.Render("All files match the lockfile."))
			return nil
		}

		for _, d := range result.Drifted {
			info("  %s   %s", stateStyle("drifted").Render("drifted"), d.Path)
			detail("expected: %s", d.Expected)
			detail("actual:   %s", d.Actual)
		}
		for _, m := range result.Missing {
			info("  %s   %s", stateStyle("missing").Render("missing"), m)
		}

		total := len(result.Drifted) + len(result.Missing)
		return fmt.Errorf("check failed: %d file(s) out of sync", total)
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
