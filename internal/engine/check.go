package engine

import (
	"context"
	"os"

	"github.com/bianoble/modsync/internal/config"
	"github.com/bianoble/modsync/internal/hashing"
	"github.com/bianoble/modsync/internal/lock"
	"github.com/bianoble/modsync/internal/target"
)

// CheckEngine verifies that fetched files match the lockfile.
type CheckEngine struct {
	ProjectRoot string
}

// Check verifies the pack directory against the lockfile.
// Returns Clean=true if every file is present and, where the lockfile
// has hashes, unchanged.
func (e *CheckEngine) Check(ctx context.Context, lf *lock.Lockfile, cfg *config.Config) (*CheckResult, error) {
	kp, err := target.NewKindPaths(cfg.Paths)
	if err != nil {
		return nil, err
	}
	files, _, err := packFiles(lf, kp)
	if err != nil {
		return nil, err
	}

	result := &CheckResult{Clean: true}
	for _, pf := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		switch st, drift := fileState(e.ProjectRoot, pf); st {
		case StateMissing:
			result.Missing = append(result.Missing, pf.Path)
			result.Clean = false
		case StateDrifted:
			result.Drifted = append(result.Drifted, drift)
			result.Clean = false
		}
	}
	return result, nil
}

// fileState compares the file on disk with the lockfile hashes.
func fileState(root string, pf packFile) (string, DriftEntry) {
	content, err := os.ReadFile(abs(root, pf.Path))
	if err != nil {
		return StateMissing, DriftEntry{}
	}
	c, ok := hashing.Compare(content, pf.File.Hashes)
	if !ok || c.Match() {
		return StateFetched, DriftEntry{}
	}
	return StateDrifted, DriftEntry{Path: pf.Path, Expected: c.Algo + ":" + c.Expected, Actual: c.Algo + ":" + c.Actual}
}
