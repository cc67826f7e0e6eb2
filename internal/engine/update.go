package engine

import (
	"context"
	"io"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/bianoble/modsync/internal/compat"
	"github.com/bianoble/modsync/internal/entity"
	"github.com/bianoble/modsync/internal/lock"
	"github.com/bianoble/modsync/internal/packerr"
	"github.com/bianoble/modsync/internal/platform"
)

// UpdateEngine moves entities to the newest compatible files their
// platforms offer.
type UpdateEngine struct {
	Registry *platform.Registry
	Logger   *log.Logger
}

// UpdateOptions configures an update operation.
type UpdateOptions struct {
	// Entities restricts the update to the matching entities. Empty means all.
	Entities []string
	DryRun   bool
}

// Update refreshes every entity with update strategy "latest" from the
// registered platforms the pack targets, keeping the latest compatible
// file per platform. Entities with strategy "none" are reported as
// pinned. The returned lockfile is a copy; lf is not modified. It is nil
// for a dry run.
func (e *UpdateEngine) Update(ctx context.Context, lf *lock.Lockfile, opts UpdateOptions) (*UpdateResult, *lock.Lockfile, error) {
	result := &UpdateResult{}
	platforms, err := registeredPlatforms(lf, e.Registry)
	if err != nil {
		return nil, nil, err
	}

	var candidates []entity.Entity
	for _, en := range lf.Entities {
		if len(opts.Entities) > 0 && !slices.ContainsFunc(opts.Entities, en.Contains) {
			continue
		}
		if en.UpdateStrategy == entity.UpdateNone {
			result.Pinned = append(result.Pinned, en.DisplayName())
			continue
		}
		candidates = append(candidates, en)
	}
	for _, name := range opts.Entities {
		if _, ok := lf.Get(name); !ok {
			result.Failed = append(result.Failed, EntityError{Entity: name, Err: packerr.NotFound(name)})
		}
	}
	if len(candidates) == 0 {
		return result, e.output(lf, opts), nil
	}

	req := lf.CompatRequest()
	refreshed, err := e.Registry.Refresh(ctx, candidates, req, 1, platforms...)
	if err != nil {
		return nil, nil, err
	}

	updated := cloneLock(lf)
	for i, en := range refreshed {
		en.Files = latestPerPlatform(req, lf.LoaderNames(), candidates[i], en, platforms)
		before, after := fileNames(candidates[i]), fileNames(en)
		if slices.Equal(before, after) {
			continue
		}
		e.logger().Info("updating", "entity", en.DisplayName(), "files", after)
		result.Updated = append(result.Updated, EntityUpdate{Entity: en.DisplayName(), Before: before, After: after})
		if err := updated.Update(en); err != nil {
			result.Failed = append(result.Failed, EntityError{Entity: en.DisplayName(), Err: err})
		}
	}
	if opts.DryRun {
		return result, nil, nil
	}
	return result, updated, nil
}

func (e *UpdateEngine) output(lf *lock.Lockfile, opts UpdateOptions) *lock.Lockfile {
	if opts.DryRun {
		return nil
	}
	return cloneLock(lf)
}

// latestPerPlatform keeps the newest compatible file of each platform,
// preferring the pack's primary loader on equal publish dates. Files older
// than the current file on a platform are never picked. Platforms without
// an eligible file keep their current files.
func latestPerPlatform(req compat.Request, loaders []string, current, refreshed entity.Entity, platforms []string) []entity.File {
	var out []entity.File
	for _, f := range refreshed.Files {
		if !slices.Contains(platforms, f.Platform) {
			out = append(out, f)
		}
	}
	for _, p := range platforms {
		have := current.FilesOn(p)
		floor, pinned := newestPublished(have)
		eligible := slices.DeleteFunc(refreshed.FilesOn(p), func(f entity.File) bool {
			return pinned && f.DatePublished.Before(floor)
		})
		if latest, ok := compat.Latest(req, compat.SortByLoaderPreference(loaders, eligible)); ok {
			out = append(out, latest)
		} else {
			out = append(out, have...)
		}
	}
	return out
}

func newestPublished(files []entity.File) (time.Time, bool) {
	var newest time.Time
	for _, f := range files {
		if f.DatePublished.After(newest) {
			newest = f.DatePublished
		}
	}
	return newest, !newest.IsZero()
}

func fileNames(en entity.Entity) []string {
	names := make([]string, len(en.Files))
	for i, f := range en.Files {
		names[i] = f.Platform + ":" + f.FileName
	}
	slices.Sort(names)
	return names
}

func cloneLock(lf *lock.Lockfile) *lock.Lockfile {
	out := *lf
	out.MCVersions = slices.Clone(lf.MCVersions)
	out.Loaders = slices.Clone(lf.Loaders)
	out.Entities = slices.Clone(lf.Entities)
	return &out
}

func (e *UpdateEngine) logger() *log.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return log.New(io.Discard)
}
