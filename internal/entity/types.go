// Package entity models add-ons as reported by content platforms and the
// rules for reconciling records of the same add-on across platforms.
package entity

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Kind is the category of an add-on.
type Kind string

const (
	KindMod          Kind = "mod"
	KindResourcePack Kind = "resource_pack"
	KindDataPack     Kind = "data_pack"
	KindWorld        Kind = "world"
	KindShader       Kind = "shader"
)

var kindFolders = map[Kind]string{
	KindMod:          "mods",
	KindResourcePack: "resourcepacks",
	KindDataPack:     "datapacks",
	KindWorld:        "saves",
	KindShader:       "shaderpacks",
}

// Kinds returns all known kinds in a stable order.
func Kinds() []Kind {
	return []Kind{KindMod, KindResourcePack, KindDataPack, KindWorld, KindShader}
}

// FolderName returns the default game folder for the kind.
func (k Kind) FolderName() string {
	return kindFolders[k]
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	_, ok := kindFolders[k]
	return ok
}

// Side restricts where an add-on is installed. The zero value means
// unspecified.
type Side string

const (
	SideClient Side = "client"
	SideServer Side = "server"
	SideBoth   Side = "both"
)

// Valid reports whether s is unspecified or one of the known sides.
func (s Side) Valid() bool {
	switch s {
	case "", SideClient, SideServer, SideBoth:
		return true
	}
	return false
}

// UpdateStrategy controls whether update moves an entity to newer files.
type UpdateStrategy string

const (
	UpdateLatest UpdateStrategy = "latest"
	UpdateNone   UpdateStrategy = "none"
)

// ReleaseType is the normalized release channel of a file.
type ReleaseType string

const (
	Release ReleaseType = "release"
	Beta    ReleaseType = "beta"
	Alpha   ReleaseType = "alpha"
)

// File is one downloadable artifact of an entity on one platform.
type File struct {
	Platform             string            `yaml:"type"`
	FileName             string            `yaml:"file_name"`
	MCVersions           []string          `yaml:"mc_versions"`
	Loaders              []string          `yaml:"loaders,omitempty"`
	ReleaseType          ReleaseType       `yaml:"release_type"`
	URL                  string            `yaml:"url,omitempty"`
	ID                   string            `yaml:"id"`
	ParentID             string            `yaml:"parent_id"`
	Hashes               map[string]string `yaml:"hashes,omitempty"`
	RequiredDependencies []string          `yaml:"required_dependencies,omitempty"`
	Size                 int64             `yaml:"size"`
	DatePublished        time.Time         `yaml:"date_published"`
}

// Key identifies the file within an entity's file set.
func (f File) Key() string {
	return f.Platform + ":" + f.ID
}

// Entity is the canonical record of one logical add-on.
type Entity struct {
	ID              string            `yaml:"id"`
	Links           []string          `yaml:"links,omitempty"`
	Kind            Kind              `yaml:"kind"`
	Side            Side              `yaml:"side,omitempty"`
	Slug            map[string]string `yaml:"slug"`
	Name            map[string]string `yaml:"name"`
	PlatformID      map[string]string `yaml:"platform_id"`
	UpdateStrategy  UpdateStrategy    `yaml:"update_strategy"`
	Redistributable bool              `yaml:"redistributable"`
	Subpath         string            `yaml:"subpath,omitempty"`
	Aliases         []string          `yaml:"aliases,omitempty"`
	Export          *bool             `yaml:"export,omitempty"`
	Files           []File            `yaml:"files"`
}

// New returns an entity of the given kind with a fresh ID and the default
// policy: latest updates, redistributable.
func New(kind Kind) Entity {
	return Entity{
		ID:              uuid.Must(uuid.NewV7()).String(),
		Kind:            kind,
		Slug:            map[string]string{},
		Name:            map[string]string{},
		PlatformID:      map[string]string{},
		UpdateStrategy:  UpdateLatest,
		Redistributable: true,
	}
}

// IsOn reports whether the entity is known on the platform.
func (e Entity) IsOn(platform string) bool {
	_, ok := e.PlatformID[platform]
	return ok
}

// HasFilesOn reports whether the entity has at least one file from platform.
func (e Entity) HasFilesOn(platform string) bool {
	return slices.ContainsFunc(e.Files, func(f File) bool { return f.Platform == platform })
}

// FilesOn returns the files of the given platforms, in platform order.
func (e Entity) FilesOn(platforms ...string) []File {
	var out []File
	for _, p := range platforms {
		for _, f := range e.Files {
			if f.Platform == p {
				out = append(out, f)
			}
		}
	}
	return out
}

// LatestFile returns the most recently published file across the given
// platforms. Earlier platforms win ties.
func (e Entity) LatestFile(platforms ...string) (File, bool) {
	var best File
	found := false
	for _, f := range e.FilesOn(platforms...) {
		if !found || f.DatePublished.After(best.DatePublished) {
			best = f
			found = true
		}
	}
	return best, found
}

// Exported reports whether the entity takes part in exports.
func (e Entity) Exported() bool {
	return e.Export == nil || *e.Export
}

// DisplayName returns a human readable name, preferring platform names,
// then slugs, then the ID.
func (e Entity) DisplayName() string {
	if v := firstValue(e.Name); v != "" {
		return v
	}
	if v := firstValue(e.Slug); v != "" {
		return v
	}
	return e.ID
}

// Contains reports whether input equals the entity ID or any of its
// slugs, names, platform IDs or aliases.
func (e Entity) Contains(input string) bool {
	if input == e.ID {
		return true
	}
	for _, m := range []map[string]string{e.Slug, e.Name, e.PlatformID} {
		for _, v := range m {
			if v == input {
				return true
			}
		}
	}
	return slices.Contains(e.Aliases, input)
}

func (e Entity) String() string {
	return fmt.Sprintf("%s (%s)", e.DisplayName(), e.Kind)
}

func firstValue(m map[string]string) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		if v := strings.TrimSpace(m[k]); v != "" {
			return v
		}
	}
	return ""
}
