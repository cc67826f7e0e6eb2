// Package modsync provides the public Go library API for modsync.
//
// modsync manages a Minecraft modpack described by modsync.yaml and
// modsync-lock.yaml: it fetches the locked files, checks them for drift
// and exports the pack as CurseForge, Modrinth, server, client, combined
// and MultiMC archives.
//
// # Basic Usage
//
//	client, err := modsync.New(modsync.Options{
//	    ProjectRoot: "/path/to/pack",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Download the locked files
//	fetchResult, err := client.Fetch(ctx, modsync.FetchOptions{})
//
//	// Build the archives
//	exportResult, err := client.Export(ctx, modsync.ExportOptions{})
package modsync

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/bianoble/modsync/internal/cache"
	"github.com/bianoble/modsync/internal/config"
	"github.com/bianoble/modsync/internal/engine"
	"github.com/bianoble/modsync/internal/export"
	"github.com/bianoble/modsync/internal/fetch"
	"github.com/bianoble/modsync/internal/lock"
	"github.com/bianoble/modsync/internal/platform"
)

// ExportOptions configures an export operation.
type ExportOptions struct {
	Profiles   []string // empty = curseforge, modrinth, serverpack
	ClientOnly bool
}

// FetchOptions configures a fetch operation.
type FetchOptions struct {
	Entities []string // empty = all
}

// PruneOptions configures a prune operation.
type PruneOptions struct {
	DryRun bool
}

// UpdateOptions configures an update operation.
type UpdateOptions struct {
	Entities []string // empty = update all
	DryRun   bool
}

// AddOptions configures an add operation.
type AddOptions struct {
	Inputs []string // slugs or platform IDs
	DryRun bool
}

// Exporter builds the distributable archives of a pack.
type Exporter interface {
	Export(ctx context.Context, opts ExportOptions) (*ExportResult, error)
}

// Fetcher downloads the locked files into the pack directory.
type Fetcher interface {
	Fetch(ctx context.Context, opts FetchOptions) (*FetchResult, error)
}

// Checker verifies that fetched files match the lockfile.
type Checker interface {
	Check(ctx context.Context) (*CheckResult, error)
}

// Pruner removes files no longer referenced by the lockfile.
type Pruner interface {
	Prune(ctx context.Context, opts PruneOptions) (*PruneResult, error)
}

// Updater moves entities to newer files and saves the lockfile.
type Updater interface {
	Update(ctx context.Context, opts UpdateOptions) (*UpdateResult, error)
}

// Adder resolves new entities on the registered platforms.
type Adder interface {
	Add(ctx context.Context, opts AddOptions) (*AddResult, error)
	Import(ctx context.Context, modpack string) (*AddResult, error)
}

// Options configures a modsync client.
type Options struct {
	// ProjectRoot is the pack directory.
	// If empty, defaults to the directory containing ConfigPath.
	ProjectRoot string

	// ConfigPath is the path to the config file. Default: "modsync.yaml".
	ConfigPath string

	// LockfilePath is the path to the lockfile. Default: "modsync-lock.yaml".
	LockfilePath string

	// CacheDir is the cache directory. If empty, uses the default (~/.cache/modsync).
	CacheDir string

	// NoInherit disables user and system config inheritance.
	NoInherit bool

	// Downloader fetches entity files. If nil, files are downloaded over
	// HTTP through the cache.
	Downloader Downloader

	Logger      *log.Logger
	Concurrency int
}

// Client is the main entry point for the modsync library.
// It implements Exporter, Fetcher, Checker, Pruner, Updater and Adder.
type Client struct {
	registry     *platform.Registry
	cache        *cache.Cache
	downloader   export.Downloader
	logger       *log.Logger
	projectRoot  string
	configPath   string
	lockfilePath string
	noInherit    bool
	concurrency  int
}

// New creates a new modsync Client.
func New(opts Options) (*Client, error) {
	if opts.ConfigPath == "" {
		opts.ConfigPath = config.FileName
	}
	if opts.LockfilePath == "" {
		opts.LockfilePath = lock.FileName
	}

	root := opts.ProjectRoot
	if root == "" {
		abs, err := filepath.Abs(opts.ConfigPath)
		if err != nil {
			return nil, fmt.Errorf("resolving config path: %w", err)
		}
		root = filepath.Dir(abs)
	}

	cacheDir := opts.CacheDir
	if cacheDir == "" {
		cacheDir = cache.DefaultDir()
	}
	c, err := cache.New(cacheDir)
	if err != nil {
		return nil, fmt.Errorf("initializing cache: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	var dl export.Downloader = &fetch.Downloader{Cache: c, Logger: logger}
	if opts.Downloader != nil {
		dl = opts.Downloader
	}

	return &Client{
		registry:     platform.NewRegistry(),
		cache:        c,
		downloader:   dl,
		logger:       logger,
		projectRoot:  root,
		configPath:   opts.ConfigPath,
		lockfilePath: opts.LockfilePath,
		noInherit:    opts.NoInherit,
		concurrency:  opts.Concurrency,
	}, nil
}

// RegisterPlatform makes a platform available to Update, Add and Import.
func (c *Client) RegisterPlatform(name string, pc PlatformClient) {
	c.registry.Register(name, pc)
}

func (c *Client) load() (*config.Config, *lock.Lockfile, error) {
	cfg, _, err := config.LoadLayered(config.DiscoverOptions{ProjectPath: c.configPath}, c.noInherit)
	if err != nil {
		return nil, nil, err
	}
	lf, err := lock.Load(c.lockfilePath)
	if err != nil {
		return nil, nil, err
	}
	lf.InheritConfig(cfg)
	return cfg, lf, nil
}

// Export builds the archives of the requested profiles.
func (c *Client) Export(ctx context.Context, opts ExportOptions) (*ExportResult, error) {
	cfg, lf, err := c.load()
	if err != nil {
		return nil, err
	}

	eng := &engine.ExportEngine{
		ProjectRoot: c.projectRoot,
		Downloader:  c.downloader,
		Logger:      c.logger,
		Concurrency: c.concurrency,
	}

	return eng.Export(ctx, lf, cfg, engine.ExportOptions{Profiles: opts.Profiles, ClientOnly: opts.ClientOnly})
}

// Fetch downloads the locked files into the pack directory.
func (c *Client) Fetch(ctx context.Context, opts FetchOptions) (*FetchResult, error) {
	cfg, lf, err := c.load()
	if err != nil {
		return nil, err
	}

	eng := &engine.FetchEngine{
		ProjectRoot: c.projectRoot,
		Downloader:  c.downloader,
		Logger:      c.logger,
		Concurrency: c.concurrency,
	}

	return eng.Fetch(ctx, lf, cfg, engine.FetchOptions{Entities: opts.Entities})
}

// Check verifies that fetched files match the lockfile.
func (c *Client) Check(ctx context.Context) (*CheckResult, error) {
	cfg, lf, err := c.load()
	if err != nil {
		return nil, err
	}

	eng := &engine.CheckEngine{ProjectRoot: c.projectRoot}
	return eng.Check(ctx, lf, cfg)
}

// Status returns the state of all (or the named) entities.
func (c *Client) Status(ctx context.Context, names []string) ([]EntityStatus, error) {
	cfg, lf, err := c.load()
	if err != nil {
		return nil, err
	}

	eng := &engine.StatusEngine{ProjectRoot: c.projectRoot}
	return eng.Status(ctx, lf, cfg, names)
}

// Prune removes entity files no longer referenced by the lockfile.
func (c *Client) Prune(ctx context.Context, opts PruneOptions) (*PruneResult, error) {
	cfg, lf, err := c.load()
	if err != nil {
		return nil, err
	}

	eng := &engine.PruneEngine{ProjectRoot: c.projectRoot}
	return eng.Prune(ctx, lf, cfg, engine.PruneOptions{DryRun: opts.DryRun})
}

// Update moves entities to the newest compatible files of the registered
// platforms and saves the lockfile.
func (c *Client) Update(ctx context.Context, opts UpdateOptions) (*UpdateResult, error) {
	_, lf, err := c.load()
	if err != nil {
		return nil, err
	}

	eng := &engine.UpdateEngine{Registry: c.registry, Logger: c.logger}
	result, updated, err := eng.Update(ctx, lf, engine.UpdateOptions{Entities: opts.Entities, DryRun: opts.DryRun})
	if err != nil {
		return nil, err
	}

	if updated != nil && len(result.Updated) > 0 {
		if err := lock.Save(c.lockfilePath, updated); err != nil {
			return nil, fmt.Errorf("saving lockfile: %w", err)
		}
	}
	return result, nil
}

// Add resolves the inputs on the registered platforms, adds them to the
// lockfile and saves it.
func (c *Client) Add(ctx context.Context, opts AddOptions) (*AddResult, error) {
	_, lf, err := c.load()
	if err != nil {
		return nil, err
	}

	eng := &engine.AddEngine{Registry: c.registry, Logger: c.logger, Concurrency: c.concurrency}
	result, updated, err := eng.Add(ctx, lf, engine.AddOptions{Inputs: opts.Inputs, DryRun: opts.DryRun})
	if err != nil {
		return nil, err
	}

	if updated != nil && len(result.Added) > 0 {
		if err := lock.Save(c.lockfilePath, updated); err != nil {
			return nil, fmt.Errorf("saving lockfile: %w", err)
		}
	}
	return result, nil
}

// Import creates the lockfile from a CurseForge or Modrinth modpack. An
// existing lockfile is never overwritten.
func (c *Client) Import(ctx context.Context, modpack string) (*AddResult, error) {
	if _, err := os.Stat(c.lockfilePath); err == nil {
		return nil, fmt.Errorf("lockfile %s already exists — remove it to import %s", c.lockfilePath, modpack)
	}

	eng := &engine.ImportEngine{Registry: c.registry, Logger: c.logger, Concurrency: c.concurrency}
	result, lf, err := eng.Import(ctx, modpack)
	if err != nil {
		return nil, err
	}
	if err := lock.Save(c.lockfilePath, lf); err != nil {
		return nil, fmt.Errorf("saving lockfile: %w", err)
	}
	return result, nil
}
