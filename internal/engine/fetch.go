package engine

import (
	"context"
	"errors"
	"io"
	"os"
	"slices"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/bianoble/modsync/internal/config"
	"github.com/bianoble/modsync/internal/entity"
	"github.com/bianoble/modsync/internal/export"
	"github.com/bianoble/modsync/internal/hashing"
	"github.com/bianoble/modsync/internal/lock"
	"github.com/bianoble/modsync/internal/packerr"
	"github.com/bianoble/modsync/internal/sandbox"
	"github.com/bianoble/modsync/internal/target"
)

// FetchEngine downloads the files of the lockfile into the pack directory.
type FetchEngine struct {
	ProjectRoot string
	Downloader  export.Downloader
	Logger      *log.Logger
	Concurrency int
}

// FetchOptions configures a fetch operation.
type FetchOptions struct {
	// Entities restricts the fetch to the matching entities. Empty means all.
	Entities []string
}

// Fetch writes the preferred file of every entity to <kind path>/<file>.
// Files already present with matching hashes are skipped. A failed
// download is reported and does not stop the others.
func (e *FetchEngine) Fetch(ctx context.Context, lf *lock.Lockfile, cfg *config.Config, opts FetchOptions) (*FetchResult, error) {
	kp, err := target.NewKindPaths(cfg.Paths)
	if err != nil {
		return nil, err
	}
	files, noFile, err := packFiles(lf, kp)
	if err != nil {
		return nil, err
	}
	if len(opts.Entities) > 0 {
		files = slices.DeleteFunc(files, func(pf packFile) bool {
			return !slices.ContainsFunc(opts.Entities, pf.Entity.Contains)
		})
		noFile = slices.DeleteFunc(noFile, func(en entity.Entity) bool {
			return !slices.ContainsFunc(opts.Entities, en.Contains)
		})
	}

	result := &FetchResult{}
	var mu sync.Mutex
	logger := e.logger()

	platforms, _ := sourcePlatforms(lf)
	for _, en := range noFile {
		err := packerr.NoFilesOnPlatform(en.DisplayName(), strings.Join(platforms, ", "))
		logger.Error("nothing to fetch", "entity", en.DisplayName(), "err", err)
		result.Errors = append(result.Errors, EntityError{Entity: en.DisplayName(), Err: err})
	}

	g := new(errgroup.Group)
	g.SetLimit(e.limit())
	for _, pf := range files {
		g.Go(func() error {
			action, err := e.fetchOne(ctx, pf)
			mu.Lock()
			defer mu.Unlock()
			if packerr.IsFatal(err) {
				logger.Error("fetch failed", "entity", pf.Entity.DisplayName(), "err", err)
				result.Errors = append(result.Errors, EntityError{Entity: pf.Entity.DisplayName(), Err: err})
				return nil
			}
			if err != nil {
				logger.Warn(err.Error(), "entity", pf.Entity.DisplayName())
				result.Warnings = append(result.Warnings, EntityError{Entity: pf.Entity.DisplayName(), Err: err})
			}
			if action.Action == "skipped" {
				result.Skipped = append(result.Skipped, action)
			} else {
				logger.Debug("fetched", "path", pf.Path)
				result.Written = append(result.Written, action)
			}
			return nil
		})
	}
	_ = g.Wait()

	byPath := func(a, b FileAction) int { return strings.Compare(a.Path, b.Path) }
	slices.SortFunc(result.Written, byPath)
	slices.SortFunc(result.Skipped, byPath)
	byEntity := func(a, b EntityError) int { return strings.Compare(a.Entity, b.Entity) }
	slices.SortFunc(result.Errors, byEntity)
	slices.SortFunc(result.Warnings, byEntity)
	return result, nil
}

// fetchOne returns the action taken for pf. A non-fatal error comes with
// a valid action.
func (e *FetchEngine) fetchOne(ctx context.Context, pf packFile) (FileAction, error) {
	if existing, err := os.ReadFile(abs(e.ProjectRoot, pf.Path)); err == nil {
		if verr := hashing.Verify(pf.Path, existing, pf.File.Hashes); verr == nil || errors.Is(verr, packerr.ErrNoHashes) {
			return FileAction{Path: pf.Path, Action: "skipped"}, nil
		}
	}
	if e.Downloader == nil {
		return FileAction{}, errors.New("no downloader configured")
	}

	data, err := e.Downloader.File(ctx, pf.File)
	if packerr.IsFatal(err) || data == nil {
		if err == nil {
			err = packerr.DownloadFailed(pf.File.URL, errors.New("empty response"))
		}
		return FileAction{}, err
	}
	if werr := sandbox.SafeWrite(e.ProjectRoot, pf.Path, data, 0644); werr != nil {
		return FileAction{}, packerr.CouldNotSave(pf.Path, werr)
	}
	return FileAction{Path: pf.Path, Action: "written"}, err
}

func (e *FetchEngine) limit() int {
	if e.Concurrency > 0 {
		return e.Concurrency
	}
	return export.DefaultConcurrency
}

func (e *FetchEngine) logger() *log.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return log.New(io.Discard)
}
