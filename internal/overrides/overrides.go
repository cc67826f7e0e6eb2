// Package overrides expands the override patterns of a pack config into
// concrete files and finds the manual overrides stored in the pack's
// work directory.
package overrides

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/bianoble/modsync/internal/entity"
	"github.com/bianoble/modsync/internal/sandbox"
)

// WorkDir is the pack-private directory holding manual overrides and
// export staging, relative to the pack root.
const WorkDir = ".modsync"

// Kind says which distribution an override belongs to.
type Kind string

const (
	Override       Kind = "override"
	ServerOverride Kind = "server_override"
	ClientOverride Kind = "client_override"
)

// Kinds returns all override kinds.
func Kinds() []Kind {
	return []Kind{Override, ServerOverride, ClientOverride}
}

// FolderName returns the archive folder for the kind.
func (k Kind) FolderName() string {
	switch k {
	case ServerOverride:
		return "server-overrides"
	case ClientOverride:
		return "client-overrides"
	default:
		return "overrides"
	}
}

// FromSide returns the override kind used for an entity of the given side.
func FromSide(side entity.Side) Kind {
	switch side {
	case entity.SideClient:
		return ClientOverride
	case entity.SideServer:
		return ServerOverride
	default:
		return Override
	}
}

// File is one override file, relative to the pack root.
type File struct {
	Path string
	Kind Kind
}

// Manual is a file the user placed in .modsync/<kind folder>/. RelPath is
// relative to that folder and is where the file lands in the export.
type Manual struct {
	Kind       Kind
	SourcePath string
	RelPath    string
}

// always excluded from expansion
var excluded = []string{WorkDir + "/**", "build/**", ".git/**"}

// Expand returns the files under root matched by patterns. A pattern
// prefixed with "!" removes matches of earlier and later patterns. A
// pattern that matches a directory selects every file below it. Results
// are slash-separated, sorted and unique.
func Expand(root string, patterns []string) ([]string, error) {
	var include, exclude []string
	for _, p := range patterns {
		neg := strings.HasPrefix(p, "!")
		p = strings.TrimPrefix(p, "!")
		p = filepath.ToSlash(p)
		if err := sandbox.CheckRelative(p); err != nil {
			return nil, err
		}
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid override pattern %q", p)
		}
		if neg {
			exclude = append(exclude, p, path.Join(p, "**"))
		} else {
			include = append(include, p)
		}
	}
	exclude = append(exclude, excluded...)

	fsys := os.DirFS(root)
	seen := make(map[string]bool)
	var out []string
	add := func(p string) {
		if seen[p] || matchesAny(exclude, p) {
			return
		}
		seen[p] = true
		out = append(out, p)
	}

	for _, pat := range include {
		matches, err := doublestar.Glob(fsys, pat)
		if err != nil {
			return nil, fmt.Errorf("expanding %q: %w", pat, err)
		}
		for _, m := range matches {
			info, err := fs.Stat(fsys, m)
			if err != nil {
				continue
			}
			if !info.IsDir() {
				add(m)
				continue
			}
			err = fs.WalkDir(fsys, m, func(p string, d fs.DirEntry, err error) error {
				if err != nil {
					return err
				}
				if !d.IsDir() {
					add(p)
				}
				return nil
			})
			if err != nil {
				return nil, fmt.Errorf("walking %s: %w", m, err)
			}
		}
	}
	slices.Sort(out)
	return out, nil
}

func matchesAny(patterns []string, p string) bool {
	for _, pat := range patterns {
		if ok, err := doublestar.Match(pat, p); err == nil && ok {
			return true
		}
	}
	return false
}

// Collect expands the three override lists of a pack.
func Collect(root string, common, server, client []string) ([]File, error) {
	var out []File
	for _, set := range []struct {
		kind     Kind
		patterns []string
	}{
		{Override, common},
		{ServerOverride, server},
		{ClientOverride, client},
	} {
		paths, err := Expand(root, set.patterns)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", set.kind, err)
		}
		for _, p := range paths {
			out = append(out, File{Path: p, Kind: set.kind})
		}
	}
	return out, nil
}

// ScanManual lists the manual overrides under root/.modsync. Missing
// folders are not an error.
func ScanManual(root string) ([]Manual, error) {
	var out []Manual
	for _, k := range Kinds() {
		dir := filepath.Join(root, WorkDir, k.FolderName())
		err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			rel, err := filepath.Rel(dir, p)
			if err != nil {
				return err
			}
			out = append(out, Manual{Kind: k, SourcePath: p, RelPath: filepath.ToSlash(rel)})
			return nil
		})
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("scanning %s: %w", dir, err)
		}
	}
	return out, nil
}
