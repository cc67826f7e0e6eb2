package manifest

import (
	"cmp"
	"encoding/json"
	"slices"
	"sync"
)

// FileDirectorFile is where the mod-director bundle lives in an exported
// pack.
const FileDirectorFile = "overrides/config/mod-director/.bundle.json"

// FileDirector is the bundle read by the mod-director launcher plugin,
// which downloads the listed files on first start. AddURL may be called
// concurrently.
type FileDirector struct {
	URL   []FDURLEntry   `json:"url"`
	Curse []FDCurseEntry `json:"curse"`

	mu sync.Mutex
}

type FDURLEntry struct {
	URL      string `json:"url"`
	Folder   string `json:"folder"`
	FileName string `json:"fileName,omitempty"`
}

type FDCurseEntry struct {
	AddonID  int    `json:"addonId"`
	FileID   int    `json:"fileId"`
	Folder   string `json:"folder"`
	FileName string `json:"fileName,omitempty"`
}

// NewFileDirector returns an empty bundle.
func NewFileDirector() *FileDirector {
	return &FileDirector{URL: []FDURLEntry{}, Curse: []FDCurseEntry{}}
}

// AddURL adds a file downloaded from url into folder.
func (m *FileDirector) AddURL(url, folder, fileName string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := FDURLEntry{URL: url, Folder: folder, FileName: fileName}
	if !slices.Contains(m.URL, e) {
		m.URL = append(m.URL, e)
	}
}

type fileDirectorJSON FileDirector

// MarshalJSON writes the entries ordered by folder and file name.
func (m *FileDirector) MarshalJSON() ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	slices.SortFunc(m.URL, func(a, b FDURLEntry) int {
		return cmp.Or(cmp.Compare(a.Folder, b.Folder), cmp.Compare(a.FileName, b.FileName))
	})
	return json.Marshal((*fileDirectorJSON)(m))
}
