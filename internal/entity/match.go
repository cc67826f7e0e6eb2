package entity

import (
	"maps"
	"slices"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/bianoble/modsync/internal/packerr"
)

// IsSame reports whether a and b describe the same logical add-on: they
// share a platform ID, a slug, or a name. Names are compared after
// normalisation, so "Just Enough Items" matches "justenoughitems".
func IsSame(a, b Entity) bool {
	if intersects(a.PlatformID, b.PlatformID, identity) {
		return true
	}
	if intersects(a.Slug, b.Slug, identity) {
		return true
	}
	return intersects(a.Name, b.Name, normalizeName)
}

func identity(s string) string { return s }

func normalizeName(s string) string {
	s = strings.ToLower(norm.NFC.String(s))
	return strings.Join(strings.Fields(s), "")
}

func intersects(a, b map[string]string, key func(string) string) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	seen := make(map[string]struct{}, len(a))
	for _, v := range a {
		if k := key(v); k != "" {
			seen[k] = struct{}{}
		}
	}
	for _, v := range b {
		if _, ok := seen[key(v)]; ok {
			return true
		}
	}
	return false
}

// Merge combines two records of the same add-on into a new entity. The
// left entity keeps its identity: ID, links and update strategy come from
// a. Platform maps are unioned with b winning on conflicts.
func Merge(a, b Entity) (Entity, error) {
	if a.Kind != b.Kind {
		return Entity{}, packerr.KindMismatch(a.DisplayName(), string(a.Kind), string(b.Kind))
	}
	if len(a.Links) > 0 && len(b.Links) > 0 && !sameSet(a.Links, b.Links) {
		return Entity{}, packerr.LinkMismatch(a.DisplayName())
	}

	out := Entity{
		ID:              a.ID,
		Links:           slices.Clone(a.Links),
		Kind:            a.Kind,
		Side:            a.Side,
		Slug:            unionMaps(a.Slug, b.Slug),
		Name:            unionMaps(a.Name, b.Name),
		PlatformID:      unionMaps(a.PlatformID, b.PlatformID),
		UpdateStrategy:  a.UpdateStrategy,
		Redistributable: a.Redistributable && b.Redistributable,
		Subpath:         a.Subpath,
		Aliases:         unionStrings(a.Aliases, b.Aliases),
		Export:          a.Export,
		Files:           UnionFiles(a.Files, b.Files),
	}
	if out.Side == "" {
		out.Side = b.Side
	}
	if out.Subpath == "" {
		out.Subpath = b.Subpath
	}
	return out, nil
}

// CombineWith enriches each entity with the first record in others that
// IsSame and has the same kind. Records in others with no counterpart are
// dropped: the result always has the same length as entities.
func CombineWith(entities, others []Entity) []Entity {
	out := make([]Entity, len(entities))
	for i, e := range entities {
		out[i] = e
		for _, o := range others {
			if !IsSame(e, o) || e.Kind != o.Kind {
				continue
			}
			if merged, err := Merge(e, o); err == nil {
				out[i] = merged
			}
			break
		}
	}
	return out
}

// AssignFiles adds every file whose parent ID equals an entity's ID on
// platform to that entity. Files without a matching parent are ignored.
func AssignFiles(entities []Entity, files []File, platform string) []Entity {
	out := make([]Entity, len(entities))
	for i, e := range entities {
		out[i] = e
		pid, ok := e.PlatformID[platform]
		if !ok {
			continue
		}
		var matched []File
		for _, f := range files {
			if f.ParentID == pid {
				matched = append(matched, f)
			}
		}
		if len(matched) > 0 {
			out[i].Files = UnionFiles(e.Files, matched)
		}
	}
	return out
}

// UnionFiles returns a followed by the files of b not already in a.
func UnionFiles(a, b []File) []File {
	out := make([]File, 0, len(a)+len(b))
	seen := make(map[string]struct{}, len(a)+len(b))
	for _, f := range slices.Concat(a, b) {
		if _, ok := seen[f.Key()]; ok {
			continue
		}
		seen[f.Key()] = struct{}{}
		out = append(out, f)
	}
	return out
}

func unionMaps(a, b map[string]string) map[string]string {
	out := make(map[string]string, len(a)+len(b))
	maps.Copy(out, a)
	maps.Copy(out, b)
	return out
}

func unionStrings(a, b []string) []string {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}
	out := slices.Concat(a, b)
	slices.Sort(out)
	return slices.Compact(out)
}

func sameSet(a, b []string) bool {
	x := slices.Clone(a)
	y := slices.Clone(b)
	slices.Sort(x)
	slices.Sort(y)
	return slices.Equal(slices.Compact(x), slices.Compact(y))
}
