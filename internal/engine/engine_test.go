package engine

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bianoble/modsync/internal/config"
	"github.com/bianoble/modsync/internal/entity"
	"github.com/bianoble/modsync/internal/hashing"
	"github.com/bianoble/modsync/internal/lock"
	"github.com/bianoble/modsync/internal/packerr"
)

// stubDownloader serves file contents by file name and counts calls.
type stubDownloader struct {
	mu      sync.Mutex
	content map[string][]byte
	calls   map[string]int
}

func newStub(content map[string][]byte) *stubDownloader {
	return &stubDownloader{content: content, calls: make(map[string]int)}
}

func (d *stubDownloader) File(_ context.Context, f entity.File) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls[f.FileName]++
	data, ok := d.content[f.FileName]
	if !ok {
		return nil, packerr.DownloadFailed(f.URL, errors.New("HTTP 404"))
	}
	return data, nil
}

func modFile(platform, id, parent, name string, content []byte) entity.File {
	f := entity.File{
		Platform:      platform,
		FileName:      name,
		ID:            id,
		ParentID:      parent,
		URL:           "https://cdn.example.com/" + name,
		MCVersions:    []string{"1.20.1"},
		Loaders:       []string{"fabric"},
		Size:          int64(len(content)),
		DatePublished: time.Unix(100, 0),
	}
	if content != nil {
		f.Hashes = map[string]string{
			hashing.SHA1:   hashing.MustSum(hashing.SHA1, content),
			hashing.SHA512: hashing.MustSum(hashing.SHA512, content),
		}
	}
	return f
}

// jei is on CurseForge only, sodium on Modrinth only and client side.
func testLock(target string) *lock.Lockfile {
	jei := entity.New(entity.KindMod)
	jei.Slug[lock.CurseForge] = "jei"
	jei.Name[lock.CurseForge] = "Just Enough Items"
	jei.PlatformID[lock.CurseForge] = "238222"
	jei.Files = []entity.File{modFile(lock.CurseForge, "4712", "238222", "jei.jar", []byte("jei"))}

	sodium := entity.New(entity.KindMod)
	sodium.Slug[lock.Modrinth] = "sodium"
	sodium.Name[lock.Modrinth] = "Sodium"
	sodium.PlatformID[lock.Modrinth] = "AANobbMI"
	sodium.Side = entity.SideClient
	sodium.Files = []entity.File{modFile(lock.Modrinth, "v1", "AANobbMI", "sodium.jar", []byte("sodium"))}

	lf := lock.New(target)
	lf.MCVersions = []string{"1.20.1"}
	lf.Loaders = []lock.Loader{{Name: "fabric", Version: "0.15.7"}}
	lf.Entities = []entity.Entity{jei, sodium}
	return lf
}

func testConfig() *config.Config {
	return &config.Config{
		Version:   1,
		Pack:      config.Pack{Name: "Skyblock", Version: "1.4.0", Author: "alex"},
		Overrides: []string{"config/**"},
	}
}

func writeFile(t *testing.T, root, rel string, content []byte) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, content, 0644); err != nil {
		t.Fatal(err)
	}
}

func zipEntries(t *testing.T, path string) []string {
	t.Helper()
	r, err := zip.OpenReader(path)
	if err != nil {
		t.Fatalf("opening %s: %v", path, err)
	}
	defer r.Close()
	var names []string
	for _, f := range r.File {
		names = append(names, f.Name)
	}
	return names
}

func TestEntityErrorError(t *testing.T) {
	e := EntityError{Entity: "Sodium", Err: fmt.Errorf("something went wrong")}
	if got, want := e.Error(), "Sodium: something went wrong"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(e, e.Err) {
		t.Error("Unwrap should return inner error")
	}
}

func TestExportProfiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "config/jei.toml", []byte("pack = \"@name@\""))
	dl := newStub(map[string][]byte{"jei.jar": []byte("jei"), "sodium.jar": []byte("sodium")})

	eng := &ExportEngine{ProjectRoot: root, Downloader: dl}
	result, err := eng.Export(context.Background(), testLock("multiplatform"), testConfig(), ExportOptions{
		Profiles: []string{"curseforge", "Modrinth", "serverpack"},
	})
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if result.Failed() {
		t.Fatalf("unexpected errors: %+v", result.Profiles)
	}
	if len(result.Profiles) != 3 {
		t.Fatalf("profiles = %d, want 3", len(result.Profiles))
	}

	byName := make(map[string]ProfileResult)
	for _, p := range result.Profiles {
		byName[p.Name] = p
	}

	cf := byName["curseforge"]
	if want := filepath.Join(root, "build", "curseforge", "Skyblock-1.4.0.zip"); cf.Archive != want {
		t.Errorf("archive = %s, want %s", cf.Archive, want)
	}
	got := zipEntries(t, cf.Archive)
	want := []string{"manifest.json", "overrides/config/jei.toml", "overrides/mods/sodium.jar"}
	if !slices.Equal(got, want) {
		t.Errorf("curseforge entries = %v, want %v", got, want)
	}

	mr := byName["modrinth"]
	got = zipEntries(t, mr.Archive)
	want = []string{"modrinth.index.json", "overrides/config/jei.toml", "overrides/mods/jei.jar"}
	if !slices.Equal(got, want) {
		t.Errorf("modrinth entries = %v, want %v", got, want)
	}
	if filepath.Ext(mr.Archive) != ".mrpack" {
		t.Errorf("modrinth archive = %s", mr.Archive)
	}

	got = zipEntries(t, byName["serverpack"].Archive)
	want = []string{"config/jei.toml", "mods/jei.jar"}
	if !slices.Equal(got, want) {
		t.Errorf("serverpack entries = %v, want %v", got, want)
	}

	staged, err := os.ReadFile(filepath.Join(root, ".modsync", "staging", "curseforge", "overrides", "config", "jei.toml"))
	if err != nil {
		t.Fatal(err)
	}
	if string(staged) != `pack = "Skyblock"` {
		t.Errorf("replacement not applied: %s", staged)
	}
}

func TestExportClearsStaging(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, ".modsync/staging/serverpack/stale.txt", []byte("old"))
	dl := newStub(map[string][]byte{"jei.jar": []byte("jei")})

	eng := &ExportEngine{ProjectRoot: root, Downloader: dl}
	result, err := eng.Export(context.Background(), testLock("curseforge"), testConfig(), ExportOptions{Profiles: []string{"serverpack"}})
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if slices.Contains(zipEntries(t, result.Profiles[0].Archive), "stale.txt") {
		t.Error("stale staging file was archived")
	}
}

func TestExportSkipsUntargetedPlatform(t *testing.T) {
	root := t.TempDir()
	eng := &ExportEngine{ProjectRoot: root, Downloader: newStub(nil)}
	result, err := eng.Export(context.Background(), testLock("curseforge"), testConfig(), ExportOptions{Profiles: []string{"modrinth"}})
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if !result.Profiles[0].Skipped {
		t.Error("modrinth profile should be skipped for a curseforge pack")
	}
	if _, err := os.Stat(filepath.Join(root, "build")); !os.IsNotExist(err) {
		t.Error("no archive should be written for a skipped profile")
	}
}

func TestExportPreconditions(t *testing.T) {
	root := t.TempDir()
	eng := &ExportEngine{ProjectRoot: root}

	cfg := testConfig()
	cfg.Pack.Name = ""
	_, err := eng.Export(context.Background(), testLock("curseforge"), cfg, ExportOptions{})
	if !errors.Is(err, packerr.ErrMissingPackName) {
		t.Errorf("expected MissingPackName, got %v", err)
	}

	lf := testLock("curseforge")
	lf.MCVersions = nil
	_, err = eng.Export(context.Background(), lf, testConfig(), ExportOptions{})
	if !errors.Is(err, packerr.ErrMissingMCVersion) {
		t.Errorf("expected MissingMCVersion, got %v", err)
	}

	entries, _ := os.ReadDir(root)
	if len(entries) != 0 {
		t.Errorf("precondition failure must not touch the project: %v", entries)
	}
}

func TestExportUnknownProfile(t *testing.T) {
	eng := &ExportEngine{ProjectRoot: t.TempDir()}
	_, err := eng.Export(context.Background(), testLock(""), testConfig(), ExportOptions{Profiles: []string{"technic"}})
	if err == nil {
		t.Fatal("expected error for unknown profile")
	}
}

func TestExportReportsDownloadFailure(t *testing.T) {
	root := t.TempDir()
	eng := &ExportEngine{ProjectRoot: root, Downloader: newStub(map[string][]byte{"jei.jar": []byte("jei")})}
	result, err := eng.Export(context.Background(), testLock("curseforge"), testConfig(), ExportOptions{Profiles: []string{"combinedpack"}})
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	p := result.Profiles[0]
	if len(p.Errors) != 1 || !errors.Is(p.Errors[0], packerr.ErrDownloadFailed) {
		t.Fatalf("errors = %v, want one DownloadFailed", p.Errors)
	}
	if p.Archive == "" {
		t.Error("the archive is still written when one file fails")
	}
	if !slices.Contains(zipEntries(t, p.Archive), "mods/jei.jar") {
		t.Error("sibling file missing from archive")
	}
}

func TestFetch(t *testing.T) {
	root := t.TempDir()
	dl := newStub(map[string][]byte{"jei.jar": []byte("jei"), "sodium.jar": []byte("sodium")})
	eng := &FetchEngine{ProjectRoot: root, Downloader: dl}

	result, err := eng.Fetch(context.Background(), testLock("multiplatform"), testConfig(), FetchOptions{})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(result.Written) != 2 || len(result.Errors) != 0 {
		t.Fatalf("written = %v, errors = %v", result.Written, result.Errors)
	}
	if result.Written[0].Path != "mods/jei.jar" || result.Written[1].Path != "mods/sodium.jar" {
		t.Errorf("written = %v", result.Written)
	}

	// Second run: both files verify and are skipped.
	result, err = eng.Fetch(context.Background(), testLock("multiplatform"), testConfig(), FetchOptions{})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(result.Skipped) != 2 || len(result.Written) != 0 {
		t.Errorf("skipped = %v, written = %v", result.Skipped, result.Written)
	}
	if dl.calls["jei.jar"] != 1 {
		t.Errorf("jei downloaded %d times, want 1", dl.calls["jei.jar"])
	}
}

func TestFetchReplacesDriftedAndReportsFailures(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "mods/jei.jar", []byte("tampered"))
	dl := newStub(map[string][]byte{"jei.jar": []byte("jei")})
	eng := &FetchEngine{ProjectRoot: root, Downloader: dl}

	result, err := eng.Fetch(context.Background(), testLock("multiplatform"), testConfig(), FetchOptions{})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(result.Written) != 1 || result.Written[0].Path != "mods/jei.jar" {
		t.Errorf("written = %v", result.Written)
	}
	if len(result.Errors) != 1 || result.Errors[0].Entity != "Sodium" {
		t.Errorf("errors = %v", result.Errors)
	}
	data, _ := os.ReadFile(filepath.Join(root, "mods", "jei.jar"))
	if string(data) != "jei" {
		t.Errorf("jei.jar = %q", data)
	}
}

func TestFetchSelectedEntities(t *testing.T) {
	root := t.TempDir()
	dl := newStub(map[string][]byte{"jei.jar": []byte("jei"), "sodium.jar": []byte("sodium")})
	eng := &FetchEngine{ProjectRoot: root, Downloader: dl}

	result, err := eng.Fetch(context.Background(), testLock("multiplatform"), testConfig(), FetchOptions{Entities: []string{"sodium"}})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(result.Written) != 1 || result.Written[0].Path != "mods/sodium.jar" {
		t.Errorf("written = %v", result.Written)
	}
}

func TestFetchReportsEntitiesWithoutFile(t *testing.T) {
	root := t.TempDir()
	eng := &FetchEngine{ProjectRoot: root, Downloader: newStub(map[string][]byte{"jei.jar": []byte("jei")})}

	result, err := eng.Fetch(context.Background(), testLock("curseforge"), testConfig(), FetchOptions{})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(result.Written) != 1 || result.Written[0].Path != "mods/jei.jar" {
		t.Errorf("written = %v", result.Written)
	}
	if len(result.Errors) != 1 || result.Errors[0].Entity != "Sodium" || !errors.Is(result.Errors[0], packerr.ErrNoFilesOnPlatform) {
		t.Errorf("errors = %v, want NoFilesOnPlatform for Sodium", result.Errors)
	}
}

func TestCheck(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "mods/jei.jar", []byte("modified"))

	result, err := (&CheckEngine{ProjectRoot: root}).Check(context.Background(), testLock("multiplatform"), testConfig())
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if result.Clean {
		t.Error("expected not clean")
	}
	if len(result.Drifted) != 1 || result.Drifted[0].Path != "mods/jei.jar" {
		t.Errorf("drifted = %v", result.Drifted)
	}
	if !slices.Equal(result.Missing, []string{"mods/sodium.jar"}) {
		t.Errorf("missing = %v", result.Missing)
	}
}

func TestCheckClean(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "mods/jei.jar", []byte("jei"))
	writeFile(t, root, "mods/sodium.jar", []byte("sodium"))

	result, err := (&CheckEngine{ProjectRoot: root}).Check(context.Background(), testLock("multiplatform"), testConfig())
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if !result.Clean {
		t.Errorf("expected clean, got %+v", result)
	}
}

func TestCheckCurseForgeFingerprint(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "mods/jei.jar", []byte("j e i\n"))

	lf := testLock("curseforge")
	lf.Entities[0].Files[0].Hashes = map[string]string{hashing.Murmur2Key: fmt.Sprint(hashing.Fingerprint([]byte("jei")))}
	result, err := (&CheckEngine{ProjectRoot: root}).Check(context.Background(), lf, testConfig())
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if len(result.Drifted) != 0 {
		t.Errorf("whitespace-only difference drifted: %v", result.Drifted)
	}

	writeFile(t, root, "mods/jei.jar", []byte("jeb"))
	result, err = (&CheckEngine{ProjectRoot: root}).Check(context.Background(), lf, testConfig())
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if len(result.Drifted) != 1 || !strings.HasPrefix(result.Drifted[0].Expected, "murmur2:") {
		t.Errorf("drifted = %v", result.Drifted)
	}
}

func TestStatus(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "mods/jei.jar", []byte("jei"))

	lf := testLock("curseforge")
	statuses, err := (&StatusEngine{ProjectRoot: root}).Status(context.Background(), lf, testConfig(), nil)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if len(statuses) != 2 {
		t.Fatalf("statuses = %d, want 2", len(statuses))
	}
	if statuses[0].Name != "Just Enough Items" || statuses[0].State != StateFetched {
		t.Errorf("statuses[0] = %+v", statuses[0])
	}
	// A curseforge pack cannot use sodium's Modrinth file.
	if statuses[1].Name != "Sodium" || statuses[1].State != StateNoFile {
		t.Errorf("statuses[1] = %+v", statuses[1])
	}
}

func TestStatusDriftedAndFiltered(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "mods/jei.jar", []byte("modified"))

	statuses, err := (&StatusEngine{ProjectRoot: root}).Status(context.Background(), testLock(""), testConfig(), []string{"jei"})
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if len(statuses) != 1 || statuses[0].State != StateDrifted {
		t.Errorf("statuses = %+v", statuses)
	}
}

func TestPrune(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "mods/jei.jar", []byte("jei"))
	writeFile(t, root, "mods/old-mod.jar", []byte("old"))
	writeFile(t, root, "mods/readme.txt", []byte("keep"))
	writeFile(t, root, "resourcepacks/faithful.zip", []byte("old"))
	writeFile(t, root, "saves/world/level.dat", []byte("keep"))

	eng := &PruneEngine{ProjectRoot: root}
	result, err := eng.Prune(context.Background(), testLock(""), testConfig(), PruneOptions{DryRun: true})
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if len(result.Removed) != 2 || result.Removed[0].Action != "would-remove" {
		t.Fatalf("dry run = %+v", result.Removed)
	}
	if _, err := os.Stat(filepath.Join(root, "mods", "old-mod.jar")); err != nil {
		t.Error("dry run removed a file")
	}

	result, err = eng.Prune(context.Background(), testLock(""), testConfig(), PruneOptions{})
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	var removed []string
	for _, r := range result.Removed {
		removed = append(removed, r.Path)
	}
	if want := []string{"mods/old-mod.jar", "resourcepacks/faithful.zip"}; !slices.Equal(removed, want) {
		t.Errorf("removed = %v, want %v", removed, want)
	}
	for _, keep := range []string{"mods/jei.jar", "mods/readme.txt", "saves/world/level.dat"} {
		if _, err := os.Stat(filepath.Join(root, filepath.FromSlash(keep))); err != nil {
			t.Errorf("%s was removed", keep)
		}
	}
}

func TestInfo(t *testing.T) {
	cfg := testConfig()
	cfg.Paths = map[string]string{"shader": "custom/shaders"}
	r, err := Info("1.0.0", cfg, nil, "modsync.yaml", "modsync-lock.yaml", "", []config.ConfigLayerInfo{
		{Level: config.LevelProject, Path: "modsync.yaml", Loaded: true},
	})
	if err != nil {
		t.Fatalf("Info: %v", err)
	}
	if len(r.Kinds) != len(entity.Kinds()) {
		t.Errorf("kinds = %d", len(r.Kinds))
	}
	for _, k := range r.Kinds {
		if k.Kind == entity.KindShader && (k.Folder != "custom/shaders" || !k.IsCustom) {
			t.Errorf("shader kind = %+v", k)
		}
	}
	if len(r.ConfigChain) != 1 || !r.ConfigChain[0].Loaded {
		t.Errorf("config chain = %+v", r.ConfigChain)
	}
	if !slices.Contains(r.Profiles, "curseforge") {
		t.Errorf("profiles = %v", r.Profiles)
	}
}
