package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bianoble/modsync/internal/config"
	"github.com/bianoble/modsync/internal/engine"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show information about the modsync setup",
	Long: `Displays the modsync version, the config, lockfile and settings paths,
the cache directory and size, the folder of each entity kind (built-in and
custom) and the available export profiles.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, layers, _ := loadConfig() // ok if config doesn't exist
		if cfg == nil {
			cfg = &config.Config{}
		}
		c, _ := newCache()

		result, err := engine.Info(version, cfg, c, configPath, lockfilePath, loadedSettings, layers)
		if err != nil {
			return err
		}

		fmt.Println(titleStyle.Render("modsync " + result.Version))

		if len(result.ConfigChain) > 1 {
			fmt.Println("  config chain:")
			for _, layer := range result.ConfigChain {
				status := mutedStyle.Render("not found")
				if layer.Loaded {
					status = successStyle.Render("loaded")
				}
				fmt.Printf("    %-10s %s (%s)\n", layer.Level+":", layer.Path, status)
			}
		} else {
			fmt.Printf("  config:        %s\n", result.ConfigPath)
		}

		settingsFile := result.SettingsPath
		if settingsFile == "" {
			settingsFile = mutedStyle.Render("(defaults)")
		}
		fmt.Printf("  lockfile:      %s\n", result.LockPath)
		fmt.Printf("  settings:      %s\n", settingsFile)
		fmt.Printf("  cache dir:     %s\n", result.CacheDir)
		fmt.Printf("  cache size:    %s\n", humanSize(result.CacheSize))

		fmt.Println("\nKind folders:")
		for _, k := range result.Kinds {
			custom := ""
			if k.IsCustom {
				custom = mutedStyle.Render(" (custom)")
			}
			fmt.Printf("  %-15s → %s%s\n", k.Kind, k.Folder, custom)
		}

		fmt.Printf("\nExport profiles: %s\n", strings.Join(result.Profiles, ", "))
		return nil
	},
}

func humanSize(bytes int64) string {
	if bytes == 0 {
		return "0 B"
	}
	units := []string{"B", "KB", "MB", "GB"}
	size := float64(bytes)
	i := 0
	for size >= 1024 && i < len(units)-1 {
		size /= 1024
		i++
	}
	if i == 0 {
		return fmt.Sprintf("%d B", bytes)
	}
	return fmt.Sprintf("%.1f %s", size, units[i])
}

func init() {
	rootCmd.AddCommand(infoCmd)
}
