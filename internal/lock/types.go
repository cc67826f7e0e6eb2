package lock

import (
	"fmt"
	"slices"
	"strings"

	"github.com/bianoble/modsync/internal/compat"
	"github.com/bianoble/modsync/internal/config"
	"github.com/bianoble/modsync/internal/entity"
	"github.com/bianoble/modsync/internal/packerr"
)

// Platform names.
const (
	CurseForge = "curseforge"
	Modrinth   = "modrinth"
	GitHub     = "github"
)

// Lockfile represents modsync-lock.yaml: the resolved entities of a pack
// and the game versions and loaders it targets.
type Lockfile struct {
	Version    int             `yaml:"version"`
	Target     string          `yaml:"target,omitempty"`
	MCVersions []string        `yaml:"mc_versions"`
	Loaders    []Loader        `yaml:"loaders"`
	Entities   []entity.Entity `yaml:"entities"`
}

// Loader is a mod loader and its pinned version. The first loader is the
// primary one.
type Loader struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

// New returns an empty lockfile for target.
func New(target string) *Lockfile {
	return &Lockfile{Version: 1, Target: target}
}

// Platforms returns the platforms the pack targets, most preferred first.
func (lf *Lockfile) Platforms() ([]string, error) {
	switch strings.ToLower(lf.Target) {
	case CurseForge:
		return []string{CurseForge}, nil
	case Modrinth:
		return []string{Modrinth}, nil
	case "", "multiplatform":
		return []string{CurseForge, Modrinth}, nil
	}
	return nil, fmt.Errorf("unknown target '%s' — must be one of: curseforge, modrinth, multiplatform", lf.Target)
}

// FirstMCVersion returns the primary Minecraft version.
func (lf *Lockfile) FirstMCVersion() (string, bool) {
	if len(lf.MCVersions) == 0 {
		return "", false
	}
	return lf.MCVersions[0], true
}

// PrimaryLoader returns the first loader.
func (lf *Lockfile) PrimaryLoader() (Loader, bool) {
	if len(lf.Loaders) == 0 {
		return Loader{}, false
	}
	return lf.Loaders[0], true
}

// LoaderNames returns the lowercased loader names.
func (lf *Lockfile) LoaderNames() []string {
	names := make([]string, len(lf.Loaders))
	for i, l := range lf.Loaders {
		names[i] = strings.ToLower(l.Name)
	}
	return names
}

// CompatRequest returns the compatibility request for the pack.
func (lf *Lockfile) CompatRequest() compat.Request {
	return compat.Request{Versions: slices.Clone(lf.MCVersions), Loaders: lf.LoaderNames()}
}

// Get returns the entity matching input by ID, slug, name, platform ID or alias.
func (lf *Lockfile) Get(input string) (entity.Entity, bool) {
	for _, e := range lf.Entities {
		if e.Contains(input) {
			return e, true
		}
	}
	return entity.Entity{}, false
}

// Add appends e unless an entity of the same kind describing the same
// add-on is already present, in which case an AlreadyAdded notice is
// returned.
func (lf *Lockfile) Add(e entity.Entity) error {
	for _, existing := range lf.Entities {
		if existing.ID == e.ID || (existing.Kind == e.Kind && entity.IsSame(existing, e)) {
			return packerr.AlreadyAdded(existing.DisplayName())
		}
	}
	lf.Entities = append(lf.Entities, e)
	return nil
}

// Update replaces the entity with the same ID.
func (lf *Lockfile) Update(e entity.Entity) error {
	for i := range lf.Entities {
		if lf.Entities[i].ID == e.ID {
			lf.Entities[i] = e
			return nil
		}
	}
	return packerr.NotFound(e.DisplayName())
}

// Remove deletes the entity with the given ID and drops it from the links
// of the remaining entities.
func (lf *Lockfile) Remove(id string) bool {
	n := len(lf.Entities)
	lf.Entities = slices.DeleteFunc(lf.Entities, func(e entity.Entity) bool { return e.ID == id })
	if len(lf.Entities) == n {
		return false
	}
	for i := range lf.Entities {
		lf.Entities[i].Links = slices.DeleteFunc(lf.Entities[i].Links, func(l string) bool { return l == id })
	}
	return true
}

// Dependents returns the entities that link to id.
func (lf *Lockfile) Dependents(id string) []entity.Entity {
	var out []entity.Entity
	for _, e := range lf.Entities {
		if slices.Contains(e.Links, id) {
			out = append(out, e)
		}
	}
	return out
}

// InheritConfig applies per-project settings from cfg to the matching
// entities. A key matches an entity it identifies or any of whose file
// names contain it.
func (lf *Lockfile) InheritConfig(cfg *config.Config) {
	if cfg == nil {
		return
	}
	for key, pc := range cfg.Projects {
		for i := range lf.Entities {
			e := &lf.Entities[i]
			if !matchesProjectKey(*e, key) {
				continue
			}
			if pc.Type != "" {
				e.Kind = entity.Kind(pc.Type)
			}
			if pc.Side != "" {
				e.Side = entity.Side(pc.Side)
			}
			if pc.UpdateStrategy != "" {
				e.UpdateStrategy = entity.UpdateStrategy(pc.UpdateStrategy)
			}
			if pc.Redistributable != nil {
				e.Redistributable = *pc.Redistributable
			}
			if pc.Subpath != "" {
				e.Subpath = pc.Subpath
			}
			if len(pc.Aliases) > 0 {
				e.Aliases = slices.Compact(slices.Sorted(slices.Values(append(slices.Clone(e.Aliases), pc.Aliases...))))
			}
			if pc.Export != nil {
				v := *pc.Export
				e.Export = &v
			}
		}
	}
}

func matchesProjectKey(e entity.Entity, key string) bool {
	if e.Contains(key) {
		return true
	}
	return slices.ContainsFunc(e.Files, func(f entity.File) bool { return strings.Contains(f.FileName, key) })
}
