package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/bianoble/modsync/internal/cache"
	"github.com/bianoble/modsync/internal/config"
	"github.com/bianoble/modsync/internal/fetch"
	"github.com/bianoble/modsync/internal/lock"
	"github.com/bianoble/modsync/internal/platform"
)

// loadConfig reads the layered config. The project layer must exist.
func loadConfig() (*config.Config, []config.ConfigLayerInfo, error) {
	cfg, layers, err := config.LoadLayered(config.DiscoverOptions{ProjectPath: configPath}, config.EnvNoInherit())
	if err != nil {
		return nil, layers, fmt.Errorf("loading config %s: %w", configPath, err)
	}
	return cfg, layers, nil
}

// loadLockfile reads the lockfile and applies the project config to it.
func loadLockfile(cfg *config.Config) (*lock.Lockfile, error) {
	lf, err := lock.Load(lockfilePath)
	if err != nil {
		return nil, fmt.Errorf("loading lockfile %s: %w", lockfilePath, err)
	}
	lf.InheritConfig(cfg)
	return lf, nil
}

// load reads the config and the lockfile.
func load() (*config.Config, *lock.Lockfile, error) {
	cfg, _, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	lf, err := loadLockfile(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, lf, nil
}

// saveLockfile writes the lockfile atomically.
func saveLockfile(lf *lock.Lockfile) error {
	return lock.Save(lockfilePath, lf)
}

// projectRoot returns the directory containing the config file.
func projectRoot() (string, error) {
	abs, err := filepath.Abs(configPath)
	if err != nil {
		return "", fmt.Errorf("resolving config path: %w", err)
	}
	return filepath.Dir(abs), nil
}

// newRegistry creates the platform registry. No platform clients are
// built in; library users register their own through pkg/modsync.
func newRegistry() *platform.Registry {
	return platform.NewRegistry()
}

// newCache creates or opens the content-addressed cache.
func newCache() (*cache.Cache, error) {
	return cache.New(appSettings.CacheDir)
}

// newDownloader creates the cached HTTP downloader from the settings.
func newDownloader() (*fetch.Downloader, error) {
	c, err := newCache()
	if err != nil {
		return nil, err
	}
	return &fetch.Downloader{
		Client:    fetch.DefaultHTTPClient{},
		Cache:     c,
		MaxSize:   appSettings.MaxDownloadSize,
		Timeout:   appSettings.DownloadTimeout,
		UserAgent: appSettings.UserAgent,
		Logger:    logger,
	}, nil
}

// info prints a line unless quiet mode is active.
func info(format string, args ...any) {
	if !quiet {
		fmt.Printf(format+"\n", args...)
	}
}

// detail prints a line only in verbose mode.
func detail(format string, args ...any) {
	if verbose {
		fmt.Println(mutedStyle.Render(fmt.Sprintf("  "+format, args...)))
	}
}

// errorf prints an error message to stderr.
func errorf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "%s %s\n", errorStyle.Render("error:"), fmt.Sprintf(format, args...))
}

// warnf prints a warning to stderr unless quiet mode is active.
func warnf(format string, args ...any) {
	if !quiet {
		fmt.Fprintf(os.Stderr, "%s %s\n", warningStyle.Render("warning:"), fmt.Sprintf(format, args...))
	}
}
