package engine

import (
	"path/filepath"
	"slices"

	"github.com/bianoble/modsync/internal/entity"
	"github.com/bianoble/modsync/internal/lock"
	"github.com/bianoble/modsync/internal/platform"
	"github.com/bianoble/modsync/internal/target"
)

// packFile is the file an entity installs into the pack directory.
type packFile struct {
	Entity entity.Entity
	File   entity.File
	// Path is slash-separated and relative to the project root.
	Path string
}

// sourcePlatforms returns the platforms files are taken from, most
// preferred first.
func sourcePlatforms(lf *lock.Lockfile) ([]string, error) {
	ps, err := lf.Platforms()
	if err != nil {
		return nil, err
	}
	return append(slices.Clone(ps), lock.GitHub), nil
}

// registeredPlatforms returns the source platforms of lf that have a
// client in reg, most preferred first.
func registeredPlatforms(lf *lock.Lockfile, reg *platform.Registry) ([]string, error) {
	targeted, err := sourcePlatforms(lf)
	if err != nil {
		return nil, err
	}
	registered := reg.Names()
	return slices.DeleteFunc(targeted, func(p string) bool { return !slices.Contains(registered, p) }), nil
}

// packFiles returns the preferred file of every entity. Entities without
// a file on any source platform are returned in noFile.
func packFiles(lf *lock.Lockfile, kp *target.KindPaths) (files []packFile, noFile []entity.Entity, err error) {
	platforms, err := sourcePlatforms(lf)
	if err != nil {
		return nil, nil, err
	}
	for _, e := range lf.Entities {
		fs := e.FilesOn(platforms...)
		if len(fs) == 0 {
			noFile = append(noFile, e)
			continue
		}
		files = append(files, packFile{Entity: e, File: fs[0], Path: kp.FilePath(e, fs[0])})
	}
	return files, noFile, nil
}

func abs(root, rel string) string {
	return filepath.Join(root, filepath.FromSlash(rel))
}
