package engine

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/bianoble/modsync/internal/archive"
	"github.com/bianoble/modsync/internal/entity"
	"github.com/bianoble/modsync/internal/lock"
	"github.com/bianoble/modsync/internal/manifest"
	"github.com/bianoble/modsync/internal/platform"
)

// ImportEngine creates a lockfile from a CurseForge or Modrinth modpack.
type ImportEngine struct {
	Registry    *platform.Registry
	Logger      *log.Logger
	Concurrency int
}

// pinnedFile is one file listed by a modpack manifest.
type pinnedFile struct {
	// Label names the file in results until its entity is known.
	Label     string
	ProjectID string
	FileID    string
	Err       error
}

// Import reads the manifest of the modpack at path and resolves every
// listed file on the modpack's platform, keeping the exact file the
// modpack pins. path is a CurseForge .zip, an .mrpack, or a bare
// manifest.json or modrinth.index.json. The modpack's platform must be
// registered.
func (e *ImportEngine) Import(ctx context.Context, path string) (*AddResult, *lock.Lockfile, error) {
	lf, pins, err := readModpack(path)
	if err != nil {
		return nil, nil, err
	}
	source := lf.Target
	client, err := e.Registry.Get(source)
	if err != nil {
		return nil, nil, fmt.Errorf("importing a %s modpack: %w", source, err)
	}
	req := lf.CompatRequest()

	found := resolve(ctx, len(pins), e.Concurrency, func(ctx context.Context, i int) (entity.Entity, error) {
		pin := pins[i]
		if pin.Err != nil {
			return entity.Entity{}, pin.Err
		}
		en, err := e.Registry.Lookup(ctx, pin.ProjectID, req, 1, source)
		if err != nil {
			return entity.Entity{}, err
		}
		files, err := client.RequestFiles(ctx, req, pin.ProjectID, pin.FileID)
		if err != nil {
			return entity.Entity{}, &platform.Error{Platform: source, Operation: "request file " + pin.FileID, Err: err}
		}
		if len(files) == 0 {
			e.logger().Warn("pinned file not available, using the newest compatible file", "entity", en.DisplayName(), "file", pin.FileID)
			return en, nil
		}
		en.Files = slices.DeleteFunc(slices.Clone(en.Files), func(f entity.File) bool { return f.Platform == source })
		en.Files = entity.UnionFiles(en.Files, files[:1])
		return en, nil
	})

	result := &AddResult{}
	for i, r := range found {
		addResolved(lf, result, e.logger(), pins[i].Label, r)
	}
	return result, lf, nil
}

// readModpack returns an empty lockfile for the modpack at path and the
// files its manifest lists.
func readModpack(path string) (*lock.Lockfile, []pinnedFile, error) {
	var (
		data []byte
		err  error
		mr   bool
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".zip":
		data, err = archive.ReadEntry(path, manifest.CurseForgeFile)
	case "." + manifest.ModrinthExtension:
		data, err = archive.ReadEntry(path, manifest.ModrinthFile)
		mr = true
	case ".json":
		data, err = os.ReadFile(path)
		mr = filepath.Base(path) == manifest.ModrinthFile
	default:
		return nil, nil, fmt.Errorf("unsupported modpack '%s' — expected a .zip, an .mrpack, %s or %s", path, manifest.CurseForgeFile, manifest.ModrinthFile)
	}
	if err != nil {
		return nil, nil, err
	}

	if mr {
		m, err := manifest.ReadModrinth(data)
		if err != nil {
			return nil, nil, err
		}
		pins := make([]pinnedFile, len(m.Files))
		for i, f := range m.Files {
			pins[i] = modrinthPin(f)
		}
		return m.Lockfile(), pins, nil
	}

	m, err := manifest.ReadCurseForge(data)
	if err != nil {
		return nil, nil, err
	}
	pins := make([]pinnedFile, len(m.Files))
	for i, f := range m.Files {
		project := strconv.Itoa(f.ProjectID)
		pins[i] = pinnedFile{Label: project, ProjectID: project, FileID: strconv.Itoa(f.FileID)}
	}
	return m.Lockfile(), pins, nil
}

// modrinthPin reads the project and version IDs from a Modrinth CDN URL
// of the form https://cdn.modrinth.com/data/<project>/versions/<version>/<file>.
func modrinthPin(f manifest.MRFile) pinnedFile {
	pin := pinnedFile{Label: f.Path}
	for _, raw := range f.Downloads {
		u, err := url.Parse(raw)
		if err != nil {
			continue
		}
		parts := strings.Split(strings.Trim(u.Path, "/"), "/")
		if len(parts) >= 4 && parts[0] == "data" && parts[2] == "versions" {
			pin.ProjectID, pin.FileID = parts[1], parts[3]
			return pin
		}
	}
	pin.Err = fmt.Errorf("no Modrinth download url for '%s'", f.Path)
	return pin
}

func (e *ImportEngine) logger() *log.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return log.New(io.Discard)
}
