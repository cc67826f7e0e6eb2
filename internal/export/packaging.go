package export

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bianoble/modsync/internal/packerr"
	"github.com/bianoble/modsync/internal/sandbox"
	"github.com/bianoble/modsync/internal/transform"
)

// Packaging is the decision a rule made for a context. The set of
// implementations is closed: Ignored, EmptyAction, Action, FileAction and
// Failure.
type Packaging interface {
	isPackaging()
}

// Ignored does nothing and is never logged.
type Ignored struct{}

// EmptyAction does nothing but is logged.
type EmptyAction struct{}

// Action runs a side effect that produces no file.
type Action struct {
	Run func(ctx context.Context) error
}

// FileAction writes a file and returns its path.
type FileAction struct {
	Run func(ctx context.Context) (string, error)
}

// Failure is an error found while deciding. It is reported, never run.
type Failure struct {
	Err error
}

func (Ignored) isPackaging()     {}
func (EmptyAction) isPackaging() {}
func (Action) isPackaging()      {}
func (FileAction) isPackaging()  {}
func (Failure) isPackaging()     {}

// Result is the outcome of evaluating one rule against one context.
type Result struct {
	Description string
	Context     Context
	Packaging   Packaging
}

func (r Result) String() string {
	return fmt.Sprintf("%s %s %s", packagingName(r.Packaging), contextName(r.Context), r.Description)
}

func packagingName(p Packaging) string {
	switch p.(type) {
	case Ignored:
		return "Ignored"
	case EmptyAction:
		return "EmptyAction"
	case Action:
		return "Action"
	case FileAction:
		return "FileAction"
	case Failure:
		return "Failure"
	}
	return "Unknown"
}

func contextName(c Context) string {
	switch c.(type) {
	case *ExportingEntity:
		return "ExportingEntity"
	case *ExportingOverride:
		return "ExportingOverride"
	case *ExportingManualOverride:
		return "ExportingManualOverride"
	case *MissingEntity:
		return "MissingEntity"
	case *Finished:
		return "Finished"
	}
	return "Unknown"
}

// Rule decides what to do with every context it is given.
type Rule interface {
	Evaluate(c Context) Result
}

// RuleFunc adapts a function to a Rule.
type RuleFunc func(c Context) Result

func (f RuleFunc) Evaluate(c Context) Result { return f(c) }

// Handlers is a Rule with one handler per context variant. A nil handler
// ignores its variant.
type Handlers struct {
	Entity   func(*ExportingEntity) Result
	Override func(*ExportingOverride) Result
	Manual   func(*ExportingManualOverride) Result
	Missing  func(*MissingEntity) Result
	Finished func(*Finished) Result
}

func (h Handlers) Evaluate(c Context) Result {
	switch c := c.(type) {
	case *ExportingEntity:
		if h.Entity != nil {
			return h.Entity(c)
		}
	case *ExportingOverride:
		if h.Override != nil {
			return h.Override(c)
		}
	case *ExportingManualOverride:
		if h.Manual != nil {
			return h.Manual(c)
		}
	case *MissingEntity:
		if h.Missing != nil {
			return h.Missing(c)
		}
	case *Finished:
		if h.Finished != nil {
			return h.Finished(c)
		}
	}
	return Ignore(c)
}

// CreateFile writes data to the staging path joined from elem.
func CreateFile(c Context, data []byte, elem ...string) Result {
	rel, err := stagingRel(elem...)
	if err != nil {
		return Fail(c, err)
	}
	staging := c.Pack().StagingDir
	return Result{Description: fmt.Sprintf("createFile '%s'", rel), Context: c, Packaging: FileAction{
		Run: func(context.Context) (string, error) {
			return write(staging, rel, data)
		},
	}}
}

// CreateFileLazy fetches and writes a file unless it already exists, in
// which case an AlreadyExists notice is returned. Content that arrives
// with a non-fatal error is written and the error is returned with it.
func CreateFileLazy(c Context, fetch FetchFunc, elem ...string) Result {
	rel, err := stagingRel(elem...)
	if err != nil {
		return Fail(c, err)
	}
	staging := c.Pack().StagingDir
	return Result{Description: fmt.Sprintf("createFile '%s'", rel), Context: c, Packaging: FileAction{
		Run: func(ctx context.Context) (string, error) {
			out := filepath.Join(staging, filepath.FromSlash(rel))
			if sandbox.Exists(staging, rel) {
				return out, packerr.AlreadyExists(out)
			}
			data, ferr := fetch(ctx)
			if data == nil || packerr.IsFatal(ferr) {
				return out, packerr.DownloadFailed(rel, ferr)
			}
			if _, err := write(staging, rel, data); err != nil {
				return out, err
			}
			return out, ferr
		},
	}}
}

// CreateJSONFile marshals v when the action runs, so values filled in by
// earlier actions are included.
func CreateJSONFile(c Context, v any, elem ...string) Result {
	rel, err := stagingRel(elem...)
	if err != nil {
		return Fail(c, err)
	}
	staging := c.Pack().StagingDir
	return Result{Description: fmt.Sprintf("createJSONFile '%s'", rel), Context: c, Packaging: FileAction{
		Run: func(context.Context) (string, error) {
			data, err := json.MarshalIndent(v, "", "  ")
			if err != nil {
				return filepath.Join(staging, filepath.FromSlash(rel)), fmt.Errorf("encoding %s: %w", rel, err)
			}
			return write(staging, rel, append(data, '\n'))
		},
	}}
}

func write(staging, rel string, data []byte) (string, error) {
	out := filepath.Join(staging, filepath.FromSlash(rel))
	if err := sandbox.SafeWrite(staging, rel, data, 0644); err != nil {
		return out, packerr.CouldNotSave(out, err)
	}
	return out, nil
}

// ReplaceText replaces every @key@ token of vars in the staged text files.
// Archives and binary files are left alone.
func (c *Finished) ReplaceText(vars map[string]string) Result {
	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, "@"+k+"@")
	}
	slices.Sort(keys)
	staging := c.Pack().StagingDir
	r := transform.NewReplacer(vars)
	return Result{Description: fmt.Sprintf("replaceText [%s]", strings.Join(keys, ", ")), Context: c, Packaging: Action{
		Run: func(context.Context) error {
			return filepath.WalkDir(staging, func(p string, d fs.DirEntry, err error) error {
				if err != nil {
					return err
				}
				if d.IsDir() || !transform.Eligible(d.Name()) {
					return nil
				}
				data, err := os.ReadFile(p)
				if err != nil {
					return packerr.CouldNotRead(p, err)
				}
				out, changed := r.Apply(data)
				if !changed {
					return nil
				}
				rel, err := filepath.Rel(staging, p)
				if err != nil {
					return err
				}
				info, err := d.Info()
				if err != nil {
					return err
				}
				if err := sandbox.SafeWrite(staging, rel, out, info.Mode().Perm()); err != nil {
					return packerr.CouldNotSave(p, err)
				}
				return nil
			})
		},
	}}
}
