package cmd

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/bianoble/modsync/internal/config"
	"github.com/bianoble/modsync/internal/lock"
	"github.com/bianoble/modsync/internal/settings"
)

// Build-time variables set via -ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Global flags.
var (
	configPath   string
	lockfilePath string
	settingsPath string
	verbose      bool
	quiet        bool
	noColor      bool
)

// Set up by the root command before any subcommand runs.
var (
	appSettings    *settings.Settings
	loadedSettings string
	logger         *log.Logger
)

var rootCmd = &cobra.Command{
	Use:   "modsync",
	Short: "Reproducible Minecraft modpack management",
	Long: `modsync manages a Minecraft modpack from a config file and a lockfile.
It downloads the locked mod, resource pack and shader files, verifies them
against their recorded hashes, and exports the pack as CurseForge, Modrinth,
server, client, combined and MultiMC archives.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if noColor {
			disableColor()
		}
		s, path, err := settings.Load(settingsPath)
		if err != nil {
			return err
		}
		appSettings, loadedSettings = s, path
		logger = newLogger(s)
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("modsync %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.FileName, "path to config file")
	rootCmd.PersistentFlags().StringVar(&lockfilePath, "lockfile", lock.FileName, "path to lockfile")
	rootCmd.PersistentFlags().StringVar(&settingsPath, "settings", "", "path to settings file (default: user config dir)")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "detailed output")
	rootCmd.PersistentFlags().BoolVar(&quiet, "quiet", false, "minimal output (errors only)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(versionCmd)
}

// newLogger builds the stderr logger. --verbose and --quiet override the
// configured level.
func newLogger(s *settings.Settings) *log.Logger {
	l := log.NewWithOptions(os.Stderr, log.Options{
		Prefix:          "modsync",
		ReportTimestamp: verbose,
		Level:           s.Level(),
	})
	switch {
	case quiet:
		l.SetLevel(log.ErrorLevel)
	case verbose:
		l.SetLevel(log.DebugLevel)
	}
	return l
}

// Execute runs the root command.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("error:"), err)
		return err
	}
	return nil
}
