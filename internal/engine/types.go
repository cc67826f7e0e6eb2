package engine

import "time"

// FileAction represents an action taken on a single file during fetch or prune.
type FileAction struct {
	Path   string
	Action string // "written", "skipped", "removed", "would-remove"
}

// EntityError represents an error associated with a specific entity.
type EntityError struct {
	Entity string
	Err    error
}

func (e EntityError) Error() string {
	return e.Entity + ": " + e.Err.Error()
}

func (e EntityError) Unwrap() error {
	return e.Err
}

// DriftEntry represents a file whose content no longer matches the lockfile.
type DriftEntry struct {
	Path     string
	Expected string
	Actual   string
}

// ProfileResult is the outcome of exporting one profile.
type ProfileResult struct {
	Name string
	// Archive is the written archive, empty when skipped or failed.
	Archive string
	// Files are the staged files the rules reported.
	Files    []string
	Errors   []error
	Warnings []error
	Duration time.Duration
	Skipped  bool
}

// ExportResult holds the outcome of an export operation.
type ExportResult struct {
	Profiles []ProfileResult
}

// Failed reports whether any profile had an error.
func (r *ExportResult) Failed() bool {
	for _, p := range r.Profiles {
		if len(p.Errors) > 0 {
			return true
		}
	}
	return false
}

// FetchResult holds the outcome of a fetch operation.
type FetchResult struct {
	Written  []FileAction
	Skipped  []FileAction
	Warnings []EntityError
	Errors   []EntityError
}

// CheckResult holds the outcome of a check operation.
type CheckResult struct {
	Clean   bool
	Drifted []DriftEntry
	Missing []string
}

// PruneResult holds the outcome of a prune operation.
type PruneResult struct {
	Removed []FileAction
	Errors  []EntityError
}

// EntityUpdate records the files of an entity before and after update.
type EntityUpdate struct {
	Entity string
	Before []string
	After  []string
}

// UpdateResult holds the outcome of an update operation.
type UpdateResult struct {
	Updated []EntityUpdate
	Pinned  []string
	Failed  []EntityError
}

// AddResult holds the outcome of an add or import operation.
type AddResult struct {
	Added   []string
	Skipped []string
	Failed  []EntityError
}
