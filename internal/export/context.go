// Package export decides, rule by rule, what happens to every entity and
// override of a pack during an export, and executes those decisions into
// a staging directory.
package export

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"slices"

	"github.com/bianoble/modsync/internal/config"
	"github.com/bianoble/modsync/internal/entity"
	"github.com/bianoble/modsync/internal/lock"
	"github.com/bianoble/modsync/internal/overrides"
	"github.com/bianoble/modsync/internal/packerr"
	"github.com/bianoble/modsync/internal/sandbox"
	"github.com/bianoble/modsync/internal/target"
)

// platforms is every platform an entity file can come from, in
// preference order.
var platforms = []string{lock.CurseForge, lock.Modrinth, lock.GitHub}

// Downloader fetches the content of an entity file.
type Downloader interface {
	File(ctx context.Context, f entity.File) ([]byte, error)
}

// FetchFunc lazily produces file content at execution time.
type FetchFunc func(ctx context.Context) ([]byte, error)

// Pack is the state shared by every context of one profile run.
type Pack struct {
	Lock   *lock.Lockfile
	Config *config.Config
	Paths  *target.KindPaths

	// StagingDir receives every output of the run.
	StagingDir string
	// WorkDir is the pack root that override paths are relative to.
	WorkDir string
	// ClientOnly drops server-only content from client exports.
	ClientOnly bool

	Downloader Downloader
}

// Contents are the exportable inputs of a pack.
type Contents struct {
	Entities  []entity.Entity
	Overrides []overrides.File
	Manual    []overrides.Manual
}

// Context is the input a rule is evaluated against. The set of
// implementations is closed: ExportingEntity, ExportingOverride,
// ExportingManualOverride, MissingEntity and Finished.
type Context interface {
	Pack() *Pack
	isContext()
}

type base struct {
	pack *Pack
}

func (b base) Pack() *Pack { return b.pack }
func (base) isContext()    {}

// ExportingEntity is an entity of the lockfile being exported.
type ExportingEntity struct {
	base
	Entity entity.Entity
}

// ExportingOverride is an override file matched by the pack config.
type ExportingOverride struct {
	base
	Override overrides.File
}

// ExportingManualOverride is a file placed in the pack's work directory.
type ExportingManualOverride struct {
	base
	Override overrides.Manual
}

// MissingEntity is an entity some rule could not export on its target
// platform. It is evaluated once per rule after all other inputs.
type MissingEntity struct {
	base
	Entity entity.Entity
}

// Finished is evaluated once per rule after every other context.
type Finished struct {
	base
}

// StageFunc turns a chosen file into a result. fetch downloads it lazily
// and overridesFolder is the override folder matching the entity's side.
type StageFunc func(fetch FetchFunc, file entity.File, overridesFolder string) Result

// Ignore returns a result that does nothing.
func Ignore(c Context) Result {
	return Result{Description: "ignore", Context: c, Packaging: Ignored{}}
}

// Empty returns a result with an action that does nothing.
func Empty(c Context, description string) Result {
	return Result{Description: description, Context: c, Packaging: EmptyAction{}}
}

// Fail returns a result carrying a decision-time error.
func Fail(c Context, err error) Result {
	return Result{Description: "error " + err.Error(), Context: c, Packaging: Failure{Err: err}}
}

// SetMissing marks the entity as missing on the rule's target platform.
func (c *ExportingEntity) SetMissing() Result {
	m := &MissingEntity{base: c.base, Entity: c.Entity}
	return Empty(m, "missing "+c.Entity.String())
}

// ExportAsOverride stages the latest file of the entity from any
// platform. Unless force is set, entities that may not be redistributed
// fail with NotRedistributable.
func (c *ExportingEntity) ExportAsOverride(force bool, stage StageFunc) Result {
	return exportAsOverride(c, c.Entity, force, platforms, stage)
}

// ExportAsOverride stages the latest file of the entity from any platform
// not in excluded.
func (c *MissingEntity) ExportAsOverride(force bool, excluded []string, stage StageFunc) Result {
	allowed := slices.DeleteFunc(slices.Clone(platforms), func(p string) bool { return slices.Contains(excluded, p) })
	return exportAsOverride(c, c.Entity, force, allowed, stage)
}

func exportAsOverride(c Context, e entity.Entity, force bool, from []string, stage StageFunc) Result {
	if !e.Redistributable && !force {
		return Fail(c, packerr.NotRedistributable(e.DisplayName()))
	}
	f, ok := e.LatestFile(from...)
	if !ok {
		return Fail(c, packerr.NoFiles(e.DisplayName()))
	}
	res := stage(fetcher(c.Pack(), f), f, overrides.FromSide(e.Side).FolderName())
	res.Description = "exportAsOverride " + res.Description
	return res
}

func fetcher(p *Pack, f entity.File) FetchFunc {
	return func(ctx context.Context) ([]byte, error) {
		if p.Downloader == nil {
			return nil, errors.New("no downloader configured")
		}
		return p.Downloader.File(ctx, f)
	}
}

// Export copies the override into dir of the staging directory. An empty
// dir places it at the staging root. When allowed is not empty, overrides
// of other kinds are ignored.
func (c *ExportingOverride) Export(dir string, allowed ...overrides.Kind) Result {
	if len(allowed) > 0 && !slices.Contains(allowed, c.Override.Kind) {
		return Ignore(c)
	}
	src := filepath.Join(c.Pack().WorkDir, filepath.FromSlash(c.Override.Path))
	return copyFile(c, src, fmt.Sprintf("export %s '%s'", c.Override.Kind, c.Override.Path), dir, c.Override.Path)
}

// Export copies the manual override into dir of the staging directory.
func (c *ExportingManualOverride) Export(dir string, allowed ...overrides.Kind) Result {
	if len(allowed) > 0 && !slices.Contains(allowed, c.Override.Kind) {
		return Ignore(c)
	}
	m := c.Override
	return copyFile(c, m.SourcePath, fmt.Sprintf("export %s '%s'", m.Kind, m.SourcePath), dir, m.RelPath)
}

func copyFile(c Context, src, description string, elem ...string) Result {
	rel, err := stagingRel(elem...)
	if err != nil {
		return Fail(c, err)
	}
	staging := c.Pack().StagingDir
	return Result{Description: fmt.Sprintf("%s to '%s'", description, rel), Context: c, Packaging: FileAction{
		Run: func(context.Context) (string, error) {
			out := filepath.Join(staging, filepath.FromSlash(rel))
			data, err := os.ReadFile(src)
			if err != nil {
				if errors.Is(err, os.ErrNotExist) {
					return out, packerr.FileNotFound(src)
				}
				return out, packerr.CouldNotRead(src, err)
			}
			mode := os.FileMode(0644)
			if info, err := os.Stat(src); err == nil {
				mode = info.Mode().Perm()
			}
			if err := sandbox.SafeWrite(staging, rel, data, mode); err != nil {
				return out, packerr.CouldNotSave(out, err)
			}
			return out, nil
		},
	}}
}

// stagingRel joins elem into a slash path that must stay inside the
// staging directory.
func stagingRel(elem ...string) (string, error) {
	parts := make([]string, len(elem))
	for i, e := range elem {
		parts[i] = filepath.ToSlash(e)
	}
	rel := path.Join(parts...)
	if err := sandbox.CheckRelative(rel); err != nil {
		return "", err
	}
	return rel, nil
}
