package lock

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bianoble/modsync/internal/config"
	"github.com/bianoble/modsync/internal/entity"
	"github.com/bianoble/modsync/internal/packerr"
)

func testEntity(slug string) entity.Entity {
	e := entity.New(entity.KindMod)
	e.Slug[Modrinth] = slug
	e.PlatformID[Modrinth] = "mr-" + slug
	e.Files = []entity.File{{
		Platform:      Modrinth,
		FileName:      slug + "-1.0.jar",
		MCVersions:    []string{"1.20.1"},
		Loaders:       []string{"fabric"},
		ReleaseType:   entity.Release,
		ID:            "f-" + slug,
		ParentID:      "mr-" + slug,
		Hashes:        map[string]string{"sha1": "abc"},
		DatePublished: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	}}
	return e
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	lf := New(Modrinth)
	lf.MCVersions = []string{"1.20.1"}
	lf.Loaders = []Loader{{Name: "fabric", Version: "0.15.7"}}
	if err := lf.Add(testEntity("sodium")); err != nil {
		t.Fatal(err)
	}

	if err := Save(path, lf); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temp file should not remain")
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got.Entities) != 1 {
		t.Fatalf("entities = %d", len(got.Entities))
	}
	e := got.Entities[0]
	if e.ID != lf.Entities[0].ID || e.Slug[Modrinth] != "sodium" {
		t.Errorf("entity = %+v", e)
	}
	if !e.Files[0].DatePublished.Equal(lf.Entities[0].Files[0].DatePublished) {
		t.Errorf("date published = %v", e.Files[0].DatePublished)
	}
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), FileName))
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	bad := testEntity("x")
	bad.Kind = "plugin"
	bad.Side = "nowhere"
	bad.Files[0].FileName = ""
	dup := testEntity("y")
	dup.ID = bad.ID

	lf := &Lockfile{Version: 2, Target: "bukkit", Loaders: []Loader{{}}, Entities: []entity.Entity{bad, dup}}
	errs := Validate(lf)
	joined := strings.Join(errs, "\n")
	for _, want := range []string{"unsupported version 2", "unknown target 'bukkit'", "loader[0]", "invalid kind 'plugin'", "invalid side 'nowhere'", "no file_name", "duplicate id"} {
		if !strings.Contains(joined, want) {
			t.Errorf("expected %q in:\n%s", want, joined)
		}
	}
}

func TestPlatforms(t *testing.T) {
	tests := []struct {
		target string
		want   string
	}{
		{"curseforge", "curseforge"},
		{"Modrinth", "modrinth"},
		{"multiplatform", "curseforge,modrinth"},
		{"", "curseforge,modrinth"},
	}
	for _, tt := range tests {
		got, err := (&Lockfile{Target: tt.target}).Platforms()
		if err != nil {
			t.Fatalf("%s: %v", tt.target, err)
		}
		if strings.Join(got, ",") != tt.want {
			t.Errorf("%s: got %v, want %s", tt.target, got, tt.want)
		}
	}
}

func TestAddRejectsSameEntity(t *testing.T) {
	lf := New(Modrinth)
	if err := lf.Add(testEntity("sodium")); err != nil {
		t.Fatal(err)
	}
	err := lf.Add(testEntity("sodium"))
	if !errors.Is(err, packerr.ErrAlreadyAdded) {
		t.Fatalf("expected AlreadyAdded, got %v", err)
	}
	if packerr.SeverityOf(err) != packerr.SeverityNotice {
		t.Error("AlreadyAdded should be a notice")
	}
	if len(lf.Entities) != 1 {
		t.Errorf("entities = %d", len(lf.Entities))
	}
}

func TestAddKeepsKindsApart(t *testing.T) {
	lf := New(Modrinth)
	mod := testEntity("faithful")
	pack := testEntity("faithful")
	pack.Kind = entity.KindResourcePack

	if err := lf.Add(mod); err != nil {
		t.Fatal(err)
	}
	if err := lf.Add(pack); err != nil {
		t.Fatalf("resource pack sharing a slug with a mod: %v", err)
	}
	if len(lf.Entities) != 2 {
		t.Errorf("entities = %d, want 2", len(lf.Entities))
	}
}

func TestGetUpdateRemove(t *testing.T) {
	lf := New(Modrinth)
	sodium := testEntity("sodium")
	iris := testEntity("iris")
	iris.Links = []string{sodium.ID}
	_ = lf.Add(sodium)
	_ = lf.Add(iris)

	got, ok := lf.Get("mr-sodium")
	if !ok || got.ID != sodium.ID {
		t.Fatalf("Get = %v, %v", got, ok)
	}
	if deps := lf.Dependents(sodium.ID); len(deps) != 1 || deps[0].ID != iris.ID {
		t.Errorf("Dependents = %v", deps)
	}

	sodium.Side = entity.SideClient
	if err := lf.Update(sodium); err != nil {
		t.Fatal(err)
	}
	if got, _ := lf.Get("sodium"); got.Side != entity.SideClient {
		t.Error("update not applied")
	}
	if err := lf.Update(testEntity("unknown")); !errors.Is(err, packerr.ErrNotFound) {
		t.Errorf("expected NotFound, got %v", err)
	}

	if !lf.Remove(sodium.ID) {
		t.Fatal("Remove should report true")
	}
	if lf.Remove(sodium.ID) {
		t.Error("second Remove should report false")
	}
	if got, _ := lf.Get("iris"); len(got.Links) != 0 {
		t.Errorf("links should drop removed id, got %v", got.Links)
	}
}

func TestInheritConfig(t *testing.T) {
	lf := New(Modrinth)
	_ = lf.Add(testEntity("sodium"))
	_ = lf.Add(testEntity("journeymap"))
	no := false

	lf.InheritConfig(&config.Config{Projects: map[string]config.ProjectConfig{
		"sodium":     {Side: "client", Subpath: "perf", Aliases: []string{"rubidium"}},
		"journeymap": {Redistributable: &no, UpdateStrategy: "none", Export: &no},
	}})

	s, _ := lf.Get("sodium")
	if s.Side != entity.SideClient || s.Subpath != "perf" {
		t.Errorf("sodium = %+v", s)
	}
	if _, ok := lf.Get("rubidium"); !ok {
		t.Error("alias should be inherited")
	}
	j, _ := lf.Get("journeymap")
	if j.Redistributable || j.UpdateStrategy != entity.UpdateNone || j.Exported() {
		t.Errorf("journeymap = %+v", j)
	}
}

func TestInheritConfigMatchesFileName(t *testing.T) {
	lf := New(Modrinth)
	_ = lf.Add(testEntity("sodium"))
	lf.InheritConfig(&config.Config{Projects: map[string]config.ProjectConfig{"sodium-1.0": {Side: "client"}}})
	if s, _ := lf.Get("sodium"); s.Side != entity.SideClient {
		t.Error("file name fragment should match")
	}
}

func TestCompatRequest(t *testing.T) {
	lf := &Lockfile{MCVersions: []string{"1.20.1", "1.20"}, Loaders: []Loader{{Name: "Fabric", Version: "0.15"}}}
	req := lf.CompatRequest()
	if len(req.Versions) != 2 || req.Loaders[0] != "fabric" {
		t.Errorf("request = %+v", req)
	}
	if v, ok := lf.FirstMCVersion(); !ok || v != "1.20.1" {
		t.Errorf("FirstMCVersion = %q, %v", v, ok)
	}
	if l, ok := lf.PrimaryLoader(); !ok || l.Name != "Fabric" {
		t.Errorf("PrimaryLoader = %+v", l)
	}
}
