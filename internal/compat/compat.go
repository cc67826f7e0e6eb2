// Package compat narrows platform file lists to the files compatible with
// a pack's Minecraft versions and loaders.
package compat

import (
	"slices"
	"sort"
	"strings"

	"github.com/bianoble/modsync/internal/entity"
)

// AlwaysValidLoaders are accepted regardless of the requested loaders.
var AlwaysValidLoaders = []string{"minecraft", "iris", "optifine", "datapack"}

// Request is the set of versions and loaders a pack targets.
type Request struct {
	Versions []string
	Loaders  []string
}

// Accepts reports whether f supports one of the requested versions and,
// when it declares loaders, one of the requested or always-valid loaders.
func (r Request) Accepts(f entity.File) bool {
	if !slices.ContainsFunc(f.MCVersions, func(v string) bool { return slices.Contains(r.Versions, v) }) {
		return false
	}
	if len(f.Loaders) == 0 {
		return true
	}
	for _, l := range f.Loaders {
		l = strings.ToLower(l)
		if containsFold(r.Loaders, l) || slices.Contains(AlwaysValidLoaders, l) {
			return true
		}
	}
	return false
}

// Filter returns the accepted files in their original order.
func Filter(r Request, files []entity.File) []entity.File {
	var out []entity.File
	for _, f := range files {
		if r.Accepts(f) {
			out = append(out, f)
		}
	}
	return out
}

// Latest returns the most recently published accepted file. When publish
// dates are equal the earlier file in platform order wins.
func Latest(r Request, files []entity.File) (entity.File, bool) {
	passing := Filter(r, files)
	if len(passing) == 0 {
		return entity.File{}, false
	}
	sort.SliceStable(passing, func(i, j int) bool {
		return passing[i].DatePublished.After(passing[j].DatePublished)
	})
	return passing[0], true
}

// SortByLoaderPreference stably orders files by the position of the first
// requested loader they support. Files supporting none sort last.
func SortByLoaderPreference(loaders []string, files []entity.File) []entity.File {
	out := slices.Clone(files)
	rank := func(f entity.File) int {
		for i, l := range loaders {
			if containsFold(f.Loaders, l) {
				return i
			}
		}
		return len(loaders)
	}
	sort.SliceStable(out, func(i, j int) bool { return rank(out[i]) < rank(out[j]) })
	return out
}

func containsFold(list []string, s string) bool {
	return slices.ContainsFunc(list, func(v string) bool { return strings.EqualFold(v, s) })
}
