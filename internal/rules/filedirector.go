package rules

import (
	"context"
	"fmt"
	"slices"

	"github.com/bianoble/modsync/internal/entity"
	"github.com/bianoble/modsync/internal/export"
	"github.com/bianoble/modsync/internal/lock"
	"github.com/bianoble/modsync/internal/manifest"
	"github.com/bianoble/modsync/internal/packerr"
)

// FileDirectorSlug identifies the mod-director add-on in a lockfile.
const FileDirectorSlug = "filedirector"

// usesFileDirector reports whether the pack ships mod-director, which lets
// missing entities be downloaded at launch instead of bundled.
func usesFileDirector(pack *export.Pack) bool {
	return slices.ContainsFunc(pack.Lock.Entities, func(e entity.Entity) bool { return e.Contains(FileDirectorSlug) })
}

// FileDirector lists every missing entity in the mod-director bundle with
// the first download URL found on a platform other than excluded.
func FileDirector(excluded ...string) export.Rule {
	bundle := manifest.NewFileDirector()
	return export.RuleFunc(func(c export.Context) export.Result {
		switch c := c.(type) {
		case *export.MissingEntity:
			return addToFileDirector(c, bundle, excluded)
		case *export.Finished:
			return export.CreateJSONFile(c, bundle, manifest.FileDirectorFile)
		}
		return export.Ignore(c)
	})
}

func addToFileDirector(c *export.MissingEntity, bundle *manifest.FileDirector, excluded []string) export.Result {
	e := c.Entity
	if !e.Redistributable {
		return export.Fail(c, packerr.NotRedistributable(e.DisplayName()))
	}
	allowed := slices.DeleteFunc([]string{lock.CurseForge, lock.Modrinth, lock.GitHub}, func(p string) bool {
		return slices.Contains(excluded, p)
	})
	files := e.FilesOn(allowed...)
	i := slices.IndexFunc(files, func(f entity.File) bool { return f.URL != "" })
	if i < 0 {
		return export.Fail(c, packerr.NoFiles(e.DisplayName()))
	}
	f := files[i]
	download, err := encodeURL(f.URL)
	if err != nil {
		return export.Fail(c, fmt.Errorf("%s: %w", e.DisplayName(), err))
	}
	folder := c.Pack().Paths.ForEntity(e)
	return export.Result{
		Description: fmt.Sprintf("addToFileDirector %s", e),
		Context:     c,
		Packaging: export.Action{Run: func(context.Context) error {
			bundle.AddURL(download, folder, f.FileName)
			return nil
		}},
	}
}
