// Package manifest models the index files of CurseForge and Modrinth
// modpacks.
package manifest

import (
	"cmp"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/bianoble/modsync/internal/lock"
)

// CurseForge modpack constants.
const (
	CurseForgeFile      = "manifest.json"
	CurseForgeExtension = "zip"
)

// CurseForge is the manifest.json of a CurseForge modpack. AddFile may be
// called concurrently.
type CurseForge struct {
	Minecraft       CFMinecraft `json:"minecraft"`
	ManifestType    string      `json:"manifestType"`
	ManifestVersion int         `json:"manifestVersion"`
	Name            string      `json:"name"`
	Version         string      `json:"version"`
	Author          string      `json:"author"`
	Files           []CFFile    `json:"files"`
	Overrides       string      `json:"overrides"`

	mu sync.Mutex
}

type CFMinecraft struct {
	Version    string        `json:"version"`
	ModLoaders []CFModLoader `json:"modLoaders"`
}

type CFModLoader struct {
	ID      string `json:"id"`
	Primary bool   `json:"primary"`
}

type CFFile struct {
	ProjectID int  `json:"projectID"`
	FileID    int  `json:"fileID"`
	Required  bool `json:"required"`
}

// NewCurseForge creates an empty manifest for the given pack. Only the
// primary loader is listed.
func NewCurseForge(mcVersion string, loader *lock.Loader, name, version, author string) *CurseForge {
	m := &CurseForge{
		Minecraft:       CFMinecraft{Version: mcVersion, ModLoaders: []CFModLoader{}},
		ManifestType:    "minecraftModpack",
		ManifestVersion: 1,
		Name:            name,
		Version:         version,
		Author:          author,
		Files:           []CFFile{},
		Overrides:       "overrides",
	}
	if loader != nil {
		m.Minecraft.ModLoaders = append(m.Minecraft.ModLoaders, CFModLoader{
			ID:      loader.Name + "-" + loader.Version,
			Primary: true,
		})
	}
	return m
}

// AddFile adds a required file. Adding the same file twice is a no-op.
func (m *CurseForge) AddFile(projectID, fileID int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f := CFFile{ProjectID: projectID, FileID: fileID, Required: true}
	if !slices.Contains(m.Files, f) {
		m.Files = append(m.Files, f)
	}
}

type curseForgeJSON CurseForge

// MarshalJSON writes the files ordered by project and file ID.
func (m *CurseForge) MarshalJSON() ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	slices.SortFunc(m.Files, func(a, b CFFile) int {
		return cmp.Or(cmp.Compare(a.ProjectID, b.ProjectID), cmp.Compare(a.FileID, b.FileID))
	})
	return json.Marshal((*curseForgeJSON)(m))
}

// ReadCurseForge parses a manifest.json.
func ReadCurseForge(data []byte) (*CurseForge, error) {
	var m CurseForge
	if err := json.Unmarshal(data, (*curseForgeJSON)(&m)); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", CurseForgeFile, err)
	}
	if m.ManifestType != "minecraftModpack" {
		return nil, fmt.Errorf("parsing %s: unexpected manifestType %q", CurseForgeFile, m.ManifestType)
	}
	return &m, nil
}

// Lockfile returns an empty lockfile targeting CurseForge with the
// manifest's Minecraft version and loaders.
func (m *CurseForge) Lockfile() *lock.Lockfile {
	lf := lock.New(lock.CurseForge)
	if m.Minecraft.Version != "" {
		lf.MCVersions = []string{m.Minecraft.Version}
	}
	for _, l := range m.Minecraft.ModLoaders {
		name, version, _ := strings.Cut(l.ID, "-")
		lf.Loaders = append(lf.Loaders, lock.Loader{Name: name, Version: version})
	}
	return lf
}
