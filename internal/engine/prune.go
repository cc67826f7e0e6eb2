package engine

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bianoble/modsync/internal/config"
	"github.com/bianoble/modsync/internal/lock"
	"github.com/bianoble/modsync/internal/sandbox"
	"github.com/bianoble/modsync/internal/target"
)

// prunable are the extensions of files prune may remove. Anything else
// in a kind folder, such as world data or configs, is left alone.
var prunable = []string{".jar", ".zip"}

// PruneEngine removes entity files that are no longer in the lockfile.
type PruneEngine struct {
	ProjectRoot string
}

// PruneOptions configures a prune operation.
type PruneOptions struct {
	DryRun bool
}

// Prune removes .jar and .zip files in the kind folders that no entity
// of the lockfile installs. With DryRun, nothing is removed and the
// files are reported as "would-remove".
func (e *PruneEngine) Prune(ctx context.Context, lf *lock.Lockfile, cfg *config.Config, opts PruneOptions) (*PruneResult, error) {
	kp, err := target.NewKindPaths(cfg.Paths)
	if err != nil {
		return nil, err
	}
	files, _, err := packFiles(lf, kp)
	if err != nil {
		return nil, err
	}
	expected := make(map[string]bool, len(files))
	for _, pf := range files {
		expected[pf.Path] = true
	}

	var orphans []string
	for _, folder := range kp.Folders() {
		dir := abs(e.ProjectRoot, folder)
		err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.Type().IsRegular() || !slices.Contains(prunable, strings.ToLower(filepath.Ext(p))) {
				return nil
			}
			rel, err := filepath.Rel(e.ProjectRoot, p)
			if err != nil {
				return err
			}
			if rel = filepath.ToSlash(rel); !expected[rel] {
				orphans = append(orphans, rel)
			}
			return nil
		})
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("scanning %s: %w", folder, err)
		}
	}
	slices.Sort(orphans)
	orphans = slices.Compact(orphans)

	result := &PruneResult{}
	for _, rel := range orphans {
		if opts.DryRun {
			result.Removed = append(result.Removed, FileAction{Path: rel, Action: "would-remove"})
			continue
		}
		if err := sandbox.SafeRemove(e.ProjectRoot, rel); err != nil {
			result.Errors = append(result.Errors, EntityError{Entity: path.Base(rel), Err: err})
			continue
		}
		result.Removed = append(result.Removed, FileAction{Path: rel, Action: "removed"})
	}
	return result, nil
}
