// Package target maps entity kinds to the folders their files are
// installed into, relative to the pack root or an export root.
package target

import (
	"fmt"
	"path"
	"strings"

	"github.com/bianoble/modsync/internal/entity"
)

// KindPaths resolves entity kinds to folders. Custom paths from the pack
// config replace the builtin folder of a kind.
type KindPaths struct {
	custom map[entity.Kind]string
}

// NewKindPaths creates KindPaths from the config's paths section, keyed
// by kind name.
func NewKindPaths(custom map[string]string) (*KindPaths, error) {
	kp := &KindPaths{custom: make(map[entity.Kind]string, len(custom))}
	for name, dest := range custom {
		k := entity.Kind(name)
		if !k.Valid() {
			return nil, fmt.Errorf("unknown kind '%s' in paths — must be one of: %s", name, kindList())
		}
		kp.custom[k] = cleanFolder(dest)
	}
	return kp, nil
}

// Resolve returns the folder for kind.
func (kp *KindPaths) Resolve(k entity.Kind) string {
	if kp != nil {
		if dest, ok := kp.custom[k]; ok {
			return dest
		}
	}
	return k.FolderName()
}

// ForEntity returns the folder for e, including its subpath.
func (kp *KindPaths) ForEntity(e entity.Entity) string {
	dir := kp.Resolve(e.Kind)
	if e.Subpath != "" {
		dir = path.Join(dir, cleanFolder(e.Subpath))
	}
	return dir
}

// FilePath returns the slash-separated path of f for entity e.
func (kp *KindPaths) FilePath(e entity.Entity, f entity.File) string {
	return path.Join(kp.ForEntity(e), f.FileName)
}

// IsCustom reports whether the kind's folder comes from the config.
func (kp *KindPaths) IsCustom(k entity.Kind) bool {
	if kp == nil {
		return false
	}
	_, ok := kp.custom[k]
	return ok
}

// Folders returns every distinct resolved folder, in kind order.
func (kp *KindPaths) Folders() []string {
	var out []string
	seen := make(map[string]bool)
	for _, k := range entity.Kinds() {
		dir := kp.Resolve(k)
		if !seen[dir] {
			seen[dir] = true
			out = append(out, dir)
		}
	}
	return out
}

func cleanFolder(p string) string {
	return strings.Trim(path.Clean(strings.ReplaceAll(p, `\`, "/")), "/")
}

func kindList() string {
	names := make([]string, 0, len(entity.Kinds()))
	for _, k := range entity.Kinds() {
		names = append(names, string(k))
	}
	return strings.Join(names, ", ")
}
