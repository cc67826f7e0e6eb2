package overrides

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bianoble/modsync/internal/entity"
	"github.com/bianoble/modsync/internal/packerr"
)

func writeFiles(t *testing.T, root string, paths ...string) {
	t.Helper()
	for _, p := range paths {
		full := filepath.Join(root, filepath.FromSlash(p))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0755))
		require.NoError(t, os.WriteFile(full, []byte(p), 0644))
	}
}

func TestKindFolders(t *testing.T) {
	assert.Equal(t, "overrides", Override.FolderName())
	assert.Equal(t, "server-overrides", ServerOverride.FolderName())
	assert.Equal(t, "client-overrides", ClientOverride.FolderName())
}

func TestFromSide(t *testing.T) {
	assert.Equal(t, ClientOverride, FromSide(entity.SideClient))
	assert.Equal(t, ServerOverride, FromSide(entity.SideServer))
	assert.Equal(t, Override, FromSide(entity.SideBoth))
	assert.Equal(t, Override, FromSide(""))
}

func TestExpand(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root,
		"config/sodium.json",
		"config/local/secret.txt",
		"config/deep/nested/a.toml",
		"options.txt",
		"kubejs/scripts/a.js",
		".modsync/overrides/x.txt",
		"build/curseforge/pack.zip",
	)

	got, err := Expand(root, []string{"config", "!config/local", "options.txt", "kubejs/**/*.js", "missing.txt"})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"config/deep/nested/a.toml",
		"config/sodium.json",
		"kubejs/scripts/a.js",
		"options.txt",
	}, got)
}

func TestExpandNeverIncludesWorkDir(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, ".modsync/staging/curseforge/manifest.json", "a.txt")
	got, err := Expand(root, []string{"**"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt"}, got)
}

func TestExpandRejectsUnsafePatterns(t *testing.T) {
	root := t.TempDir()
	for _, p := range []string{"../outside", "/etc/passwd", "!../x", "C:/Windows"} {
		_, err := Expand(root, []string{p})
		assert.ErrorIs(t, err, packerr.ErrIllegalPath, p)
	}
}

func TestCollect(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "config/a.json", "server.properties", "options.txt")

	files, err := Collect(root, []string{"config"}, []string{"server.properties"}, []string{"options.txt"})
	require.NoError(t, err)
	assert.Equal(t, []File{
		{Path: "config/a.json", Kind: Override},
		{Path: "server.properties", Kind: ServerOverride},
		{Path: "options.txt", Kind: ClientOverride},
	}, files)
}

func TestScanManual(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root,
		".modsync/overrides/config/manual.cfg",
		".modsync/client-overrides/options.txt",
	)

	got, err := ScanManual(root)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, Override, got[0].Kind)
	assert.Equal(t, "config/manual.cfg", got[0].RelPath)
	assert.Equal(t, ClientOverride, got[1].Kind)
	assert.Equal(t, "options.txt", got[1].RelPath)
	assert.FileExists(t, got[1].SourcePath)
}

func TestScanManualEmpty(t *testing.T) {
	got, err := ScanManual(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, got)
}
