package manifest

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/bianoble/modsync/internal/entity"
	"github.com/bianoble/modsync/internal/lock"
)

// Modrinth modpack constants.
const (
	ModrinthFile      = "modrinth.index.json"
	ModrinthExtension = "mrpack"
)

// Env values.
const (
	EnvRequired    = "required"
	EnvUnsupported = "unsupported"
)

// Modrinth is the modrinth.index.json of an .mrpack. AddFile may be
// called concurrently.
type Modrinth struct {
	FormatVersion int               `json:"formatVersion"`
	Game          string            `json:"game"`
	VersionID     string            `json:"versionId"`
	Name          string            `json:"name"`
	Summary       string            `json:"summary,omitempty"`
	Files         []MRFile          `json:"files"`
	Dependencies  map[string]string `json:"dependencies"`

	mu sync.Mutex
}

type MRFile struct {
	Path      string   `json:"path"`
	Hashes    MRHashes `json:"hashes"`
	Env       *MREnv   `json:"env,omitempty"`
	Downloads []string `json:"downloads"`
	FileSize  int64    `json:"fileSize"`
}

type MRHashes struct {
	SHA512 string `json:"sha512"`
	SHA1   string `json:"sha1"`
}

type MREnv struct {
	Client string `json:"client"`
	Server string `json:"server"`
}

// ModrinthLoaderName returns the dependency key Modrinth uses for loader.
func ModrinthLoaderName(loader string) string {
	switch strings.ToLower(loader) {
	case "fabric":
		return "fabric-loader"
	case "quilt":
		return "quilt-loader"
	}
	return strings.ToLower(loader)
}

// EnvFor returns the env of a file for an entity of the given side. With
// exportServerSide, server-only files stay installable on clients.
func EnvFor(side entity.Side, exportServerSide bool) MREnv {
	switch side {
	case entity.SideServer:
		client := EnvUnsupported
		if exportServerSide {
			client = EnvRequired
		}
		return MREnv{Client: client, Server: EnvRequired}
	case entity.SideClient:
		return MREnv{Client: EnvRequired, Server: EnvUnsupported}
	}
	return MREnv{Client: EnvRequired, Server: EnvRequired}
}

// NewModrinth creates an empty index. The primary loader, when present,
// becomes a dependency next to minecraft.
func NewModrinth(mcVersion string, loader *lock.Loader, name, version, summary string) *Modrinth {
	deps := map[string]string{"minecraft": mcVersion}
	if loader != nil {
		deps[ModrinthLoaderName(loader.Name)] = loader.Version
	}
	return &Modrinth{
		FormatVersion: 1,
		Game:          "minecraft",
		VersionID:     version,
		Name:          name,
		Summary:       summary,
		Files:         []MRFile{},
		Dependencies:  deps,
	}
}

// AddFile adds f. A file with the same path replaces the earlier one.
func (m *Modrinth) AddFile(f MRFile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i := slices.IndexFunc(m.Files, func(x MRFile) bool { return x.Path == f.Path }); i >= 0 {
		m.Files[i] = f
		return
	}
	m.Files = append(m.Files, f)
}

type modrinthJSON Modrinth

// MarshalJSON writes the files ordered by path.
func (m *Modrinth) MarshalJSON() ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	slices.SortFunc(m.Files, func(a, b MRFile) int { return strings.Compare(a.Path, b.Path) })
	return json.Marshal((*modrinthJSON)(m))
}

// ReadModrinth parses a modrinth.index.json.
func ReadModrinth(data []byte) (*Modrinth, error) {
	var m Modrinth
	if err := json.Unmarshal(data, (*modrinthJSON)(&m)); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", ModrinthFile, err)
	}
	if m.Game != "minecraft" {
		return nil, fmt.Errorf("parsing %s: unexpected game %q", ModrinthFile, m.Game)
	}
	return &m, nil
}

// Lockfile returns an empty lockfile targeting Modrinth with the index's
// Minecraft version and loaders.
func (m *Modrinth) Lockfile() *lock.Lockfile {
	lf := lock.New(lock.Modrinth)
	if v := m.Dependencies["minecraft"]; v != "" {
		lf.MCVersions = []string{v}
	}
	for _, key := range slices.Sorted(maps.Keys(m.Dependencies)) {
		if key == "minecraft" {
			continue
		}
		name := strings.TrimSuffix(key, "-loader")
		lf.Loaders = append(lf.Loaders, lock.Loader{Name: name, Version: m.Dependencies[key]})
	}
	return lf
}
