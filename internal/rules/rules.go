// Package rules provides the export rules and the profiles built from
// them.
package rules

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"

	"github.com/bianoble/modsync/internal/config"
	"github.com/bianoble/modsync/internal/entity"
	"github.com/bianoble/modsync/internal/export"
	"github.com/bianoble/modsync/internal/hashing"
	"github.com/bianoble/modsync/internal/lock"
	"github.com/bianoble/modsync/internal/manifest"
	"github.com/bianoble/modsync/internal/overrides"
	"github.com/bianoble/modsync/internal/packerr"
	"github.com/bianoble/modsync/internal/transform"
)

// CurseForge lists the CurseForge file of every entity in manifest.json.
// Entities without one are marked missing.
func CurseForge(pack *export.Pack) export.Rule {
	cfg := configOf(pack)
	var m *manifest.CurseForge
	if v, ok := pack.Lock.FirstMCVersion(); ok {
		m = manifest.NewCurseForge(v, primaryLoader(pack.Lock), cfg.Pack.Name, cfg.Pack.Version, cfg.Pack.Author)
	}
	skipServer := pack.ClientOnly || !cfg.ServerSideToClient()

	return export.Handlers{
		Entity: func(c *export.ExportingEntity) export.Result {
			e := c.Entity
			if skipServer && e.Side == entity.SideServer {
				return export.Ignore(c)
			}
			files := e.FilesOn(lock.CurseForge)
			if len(files) == 0 {
				return c.SetMissing()
			}
			if m == nil {
				return export.Fail(c, packerr.ErrMissingMCVersion)
			}
			projectID, err := strconv.Atoi(e.PlatformID[lock.CurseForge])
			if err != nil {
				return export.Fail(c, fmt.Errorf("%s: invalid curseforge project id %q", e.DisplayName(), e.PlatformID[lock.CurseForge]))
			}
			fileID, err := strconv.Atoi(files[0].ID)
			if err != nil {
				return export.Fail(c, fmt.Errorf("%s: invalid curseforge file id %q", e.DisplayName(), files[0].ID))
			}
			return export.Result{
				Description: fmt.Sprintf("addToCurseForgeManifest %s", e),
				Context:     c,
				Packaging: export.Action{Run: func(context.Context) error {
					m.AddFile(projectID, fileID)
					return nil
				}},
			}
		},
		Finished: func(c *export.Finished) export.Result {
			if m == nil {
				return export.Fail(c, packerr.ErrMissingMCVersion)
			}
			return export.CreateJSONFile(c, m, manifest.CurseForgeFile)
		},
	}
}

// Modrinth lists the Modrinth or GitHub file of every entity in
// modrinth.index.json. Entities without one are marked missing. Hashes
// absent from the lockfile are computed from the fetched file.
func Modrinth(pack *export.Pack) export.Rule {
	cfg := configOf(pack)
	var m *manifest.Modrinth
	if v, ok := pack.Lock.FirstMCVersion(); ok {
		m = manifest.NewModrinth(v, primaryLoader(pack.Lock), cfg.Pack.Name, cfg.Pack.Version, cfg.Pack.Description)
	}
	exportServerSide := cfg.ServerSideToClient()

	return export.Handlers{
		Entity: func(c *export.ExportingEntity) export.Result {
			e := c.Entity
			if pack.ClientOnly && e.Side == entity.SideServer {
				return export.Ignore(c)
			}
			files := e.FilesOn(lock.Modrinth, lock.GitHub)
			if len(files) == 0 {
				return c.SetMissing()
			}
			if m == nil {
				return export.Fail(c, packerr.ErrMissingMCVersion)
			}
			f := files[0]
			download, err := encodeURL(f.URL)
			if err != nil {
				return export.Fail(c, fmt.Errorf("%s: %w", e.DisplayName(), err))
			}
			rel := pack.Paths.FilePath(e, f)
			env := manifest.EnvFor(e.Side, exportServerSide)
			return export.Result{
				Description: fmt.Sprintf("addToModrinthIndex %s", e),
				Context:     c,
				Packaging: export.Action{Run: func(context.Context) error {
					hashes, err := modrinthHashes(pack.WorkDir, rel, f.Hashes)
					if err != nil {
						return err
					}
					m.AddFile(manifest.MRFile{
						Path:      rel,
						Hashes:    hashes,
						Env:       &env,
						Downloads: []string{download},
						FileSize:  f.Size,
					})
					return nil
				}},
			}
		},
		Finished: func(c *export.Finished) export.Result {
			if m == nil {
				return export.Fail(c, packerr.ErrMissingMCVersion)
			}
			return export.CreateJSONFile(c, m, manifest.ModrinthFile)
		},
	}
}

func modrinthHashes(root, rel string, known map[string]string) (manifest.MRHashes, error) {
	h := manifest.MRHashes{SHA512: known[hashing.SHA512], SHA1: known[hashing.SHA1]}
	if h.SHA512 != "" && h.SHA1 != "" {
		return h, nil
	}
	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	if err != nil {
		return h, packerr.NoHashes(rel)
	}
	if h.SHA512 == "" {
		h.SHA512 = hashing.MustSum(hashing.SHA512, data)
	}
	if h.SHA1 == "" {
		h.SHA1 = hashing.MustSum(hashing.SHA1, data)
	}
	return h, nil
}

// encodeURL escapes characters such as spaces that may not appear
// unencoded in a download URL.
func encodeURL(raw string) (string, error) {
	if raw == "" {
		return "", fmt.Errorf("file has no download url")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid download url %q: %w", raw, err)
	}
	return u.String(), nil
}

// MissingFallback stages every missing entity from a platform other than
// excluded, under overridesFolder and the entity's kind path. An empty
// overridesFolder selects the override folder of the entity's side.
func MissingFallback(overridesFolder string, excluded ...string) export.Rule {
	return export.Handlers{
		Missing: func(c *export.MissingEntity) export.Result {
			return c.ExportAsOverride(false, excluded, func(fetch export.FetchFunc, f entity.File, sideFolder string) export.Result {
				folder := overridesFolder
				if folder == "" {
					folder = sideFolder
				}
				return export.CreateFileLazy(c, fetch, folder, c.Pack().Paths.ForEntity(c.Entity), f.FileName)
			})
		},
	}
}

// FolderFunc picks the staging folder of an override.
type FolderFunc func(overrides.Kind) string

// KindFolder keeps each override kind in its own folder.
func KindFolder(k overrides.Kind) string { return k.FolderName() }

// Fixed places every override in dir. An empty dir is the staging root.
func Fixed(dir string) FolderFunc {
	return func(overrides.Kind) string { return dir }
}

// Overrides exports override files and manual overrides of the allowed
// kinds. No kinds means all kinds.
func Overrides(folder FolderFunc, allowed ...overrides.Kind) export.Rule {
	return export.Handlers{
		Override: func(c *export.ExportingOverride) export.Result {
			return c.Export(folder(c.Override.Kind), allowed...)
		},
		Manual: func(c *export.ExportingManualOverride) export.Result {
			return c.Export(folder(c.Override.Kind), allowed...)
		},
	}
}

// RawEntities stages the entity files themselves under root. With sides
// set, entities of other sides are ignored. force exports entities that
// are not redistributable.
func RawEntities(root string, force bool, sides ...entity.Side) export.Rule {
	return export.Handlers{
		Entity: func(c *export.ExportingEntity) export.Result {
			if len(sides) > 0 && !slices.Contains(sides, c.Entity.Side) {
				return export.Ignore(c)
			}
			return c.ExportAsOverride(force, func(fetch export.FetchFunc, f entity.File, _ string) export.Result {
				return export.CreateFileLazy(c, fetch, root, c.Pack().Paths.ForEntity(c.Entity), f.FileName)
			})
		},
	}
}

// Replacement replaces @name@, @version@, @description@ and @author@ and
// the config's variables in every staged text file once all files are in
// place.
func Replacement() export.Rule {
	return export.Handlers{
		Finished: func(c *export.Finished) export.Result {
			cfg := configOf(c.Pack())
			builtin := map[string]string{
				"name":        cfg.Pack.Name,
				"version":     cfg.Pack.Version,
				"description": cfg.Pack.Description,
				"author":      cfg.Pack.Author,
			}
			return c.ReplaceText(transform.MergeVars(builtin, cfg.Variables))
		},
	}
}

func configOf(pack *export.Pack) *config.Config {
	if pack.Config == nil {
		return &config.Config{}
	}
	return pack.Config
}

func primaryLoader(lf *lock.Lockfile) *lock.Loader {
	if l, ok := lf.PrimaryLoader(); ok {
		return &l
	}
	return nil
}
