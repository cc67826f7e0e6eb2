package engine

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/bianoble/modsync/internal/archive"
	"github.com/bianoble/modsync/internal/config"
	"github.com/bianoble/modsync/internal/entity"
	"github.com/bianoble/modsync/internal/export"
	"github.com/bianoble/modsync/internal/lock"
	"github.com/bianoble/modsync/internal/overrides"
	"github.com/bianoble/modsync/internal/packerr"
	"github.com/bianoble/modsync/internal/rules"
	"github.com/bianoble/modsync/internal/sandbox"
	"github.com/bianoble/modsync/internal/target"
)

// BuildDir is the folder archives are written to, relative to the
// project root.
const BuildDir = "build"

// ExportEngine builds the distributable archives of a pack.
type ExportEngine struct {
	ProjectRoot string
	Downloader  export.Downloader
	Logger      *log.Logger
	// Concurrency bounds concurrent actions per profile.
	Concurrency int
}

// ExportOptions configures an export operation.
type ExportOptions struct {
	// Profiles to export. Empty means rules.DefaultProfiles.
	Profiles   []string
	ClientOnly bool
}

// Export runs every requested profile concurrently. Each profile is
// staged under .modsync/staging/<profile> and archived to
// build/<profile>/<name>[-<version>].<ext>. Profiles whose platform the
// pack does not target are skipped.
//
// A missing pack name or Minecraft version aborts before any I/O.
// Failures inside a profile are collected into its result.
func (e *ExportEngine) Export(ctx context.Context, lf *lock.Lockfile, cfg *config.Config, opts ExportOptions) (*ExportResult, error) {
	if cfg.Pack.Name == "" {
		return nil, packerr.ErrMissingPackName
	}
	if _, ok := lf.FirstMCVersion(); !ok {
		return nil, packerr.ErrMissingMCVersion
	}
	platforms, err := lf.Platforms()
	if err != nil {
		return nil, err
	}
	kp, err := target.NewKindPaths(cfg.Paths)
	if err != nil {
		return nil, err
	}

	requested := opts.Profiles
	if len(requested) == 0 {
		requested = rules.DefaultProfiles
	}
	var names []string
	for _, n := range requested {
		if err := rules.Check(n); err != nil {
			return nil, err
		}
		names = append(names, strings.ToLower(n))
	}
	slices.Sort(names)
	names = slices.Compact(names)

	packLock := *lf
	packLock.Entities = slices.Clone(lf.Entities)
	packLock.InheritConfig(cfg)

	contents, err := e.contents(&packLock, cfg)
	if err != nil {
		return nil, err
	}

	result := &ExportResult{Profiles: make([]ProfileResult, len(names))}
	g := new(errgroup.Group)
	for i, name := range names {
		g.Go(func() error {
			pack := &export.Pack{
				Lock:       &packLock,
				Config:     cfg,
				Paths:      kp,
				StagingDir: filepath.Join(e.ProjectRoot, overrides.WorkDir, "staging", name),
				WorkDir:    e.ProjectRoot,
				ClientOnly: opts.ClientOnly,
				Downloader: e.Downloader,
			}
			result.Profiles[i] = e.exportProfile(ctx, name, pack, contents, platforms)
			return nil
		})
	}
	_ = g.Wait()
	return result, nil
}

func (e *ExportEngine) contents(lf *lock.Lockfile, cfg *config.Config) (export.Contents, error) {
	files, err := overrides.Collect(e.ProjectRoot, cfg.Overrides, cfg.ServerOverrides, cfg.ClientOverrides)
	if err != nil {
		return export.Contents{}, fmt.Errorf("collecting overrides: %w", err)
	}
	manual, err := overrides.ScanManual(e.ProjectRoot)
	if err != nil {
		return export.Contents{}, err
	}
	var entities []entity.Entity
	for _, en := range lf.Entities {
		if en.Exported() {
			entities = append(entities, en)
		}
	}
	return export.Contents{Entities: entities, Overrides: files, Manual: manual}, nil
}

func (e *ExportEngine) exportProfile(ctx context.Context, name string, pack *export.Pack, contents export.Contents, platforms []string) ProfileResult {
	start := time.Now()
	logger := e.logger().With("profile", name)
	res := ProfileResult{Name: name}

	profile, err := rules.Profile(name, pack)
	if err != nil {
		res.Errors = append(res.Errors, err)
		return res
	}
	if profile.RequiresPlatform != "" && !slices.Contains(platforms, profile.RequiresPlatform) {
		logger.Info("skipping profile", "requires", profile.RequiresPlatform)
		res.Skipped = true
		return res
	}

	if err := sandbox.ResetDir(pack.StagingDir); err != nil {
		res.Errors = append(res.Errors, err)
		return res
	}

	eng := &export.Engine{
		Logger:      logger,
		Concurrency: e.Concurrency,
		Sink: func(err error) {
			switch packerr.SeverityOf(err) {
			case packerr.SeverityError:
				logger.Error(err.Error())
			case packerr.SeverityWarning:
				logger.Warn(err.Error())
			default:
				logger.Debug(err.Error())
			}
		},
	}
	rep := eng.Run(ctx, profile, pack, contents)
	res.Files = rep.Paths
	for _, err := range rep.Errors {
		if packerr.IsFatal(err) {
			res.Errors = append(res.Errors, err)
		} else {
			res.Warnings = append(res.Warnings, err)
		}
	}

	dest := filepath.Join(e.ProjectRoot, BuildDir, name, archiveName(pack.Config, profile.Extension))
	if err := archive.ZipDir(pack.StagingDir, dest); err != nil {
		res.Errors = append(res.Errors, fmt.Errorf("archiving %s: %w", name, err))
	} else {
		res.Archive = dest
		logger.Info("exported", "archive", dest, "files", len(res.Files), "errors", len(res.Errors))
	}
	res.Duration = time.Since(start)
	return res
}

func archiveName(cfg *config.Config, ext string) string {
	name := cfg.Pack.Name
	if cfg.Pack.Version != "" {
		name += "-" + cfg.Pack.Version
	}
	return name + "." + ext
}

func (e *ExportEngine) logger() *log.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return log.New(io.Discard)
}
