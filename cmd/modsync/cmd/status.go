package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bianoble/modsync/internal/engine"
)

var statusCmd = &cobra.Command{
	Use:   "status [entity...]",
	Short: "Show the current state of all locked entities",
	Long: `Shows entity name, kind, platforms, install path and state
(fetched, drifted, missing, no-file) for all or named entities.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, lf, err := load()
		if err != nil {
			return err
		}

		root, err := projectRoot()
		if err != nil {
			return err
		}

		eng := &engine.StatusEngine{ProjectRoot: root}
		statuses, err := eng.Status(cmd.Context(), lf, cfg, args)
		if err != nil {
			return err
		}

		if len(statuses) == 0 {
			info("No entities in the lockfile.")
			return nil
		}

		fmt.Println(titleStyle.Render(fmt.Sprintf("%-28s %-13s %-22s %-40s %s", "ENTITY", "KIND", "PLATFORMS", "PATH", "STATE")))
		for _, s := range statuses {
			fmt.Printf("%-28s %-13s %-22s %-40s %s\n",
				truncate(s.Name, 28), s.Kind, strings.Join(s.Platforms, ","), truncate(s.Path, 40),
				stateStyle(s.State).Render(s.State))
		}
		return nil
	},
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
