package rules

import (
	"fmt"
	"strings"

	"github.com/bianoble/modsync/internal/entity"
	"github.com/bianoble/modsync/internal/export"
	"github.com/bianoble/modsync/internal/lock"
	"github.com/bianoble/modsync/internal/manifest"
	"github.com/bianoble/modsync/internal/overrides"
)

// Profile names.
const (
	ProfileCurseForge   = "curseforge"
	ProfileModrinth     = "modrinth"
	ProfileServerPack   = "serverpack"
	ProfileClientPack   = "clientpack"
	ProfileCombinedPack = "combinedpack"
	ProfileMultiMC      = "multimc"
)

// DefaultProfiles are exported when none are requested.
var DefaultProfiles = []string{ProfileCurseForge, ProfileModrinth, ProfileServerPack}

type builder func(*export.Pack) export.Profile

var builders = map[string]builder{
	ProfileCurseForge:   curseForgeProfile,
	ProfileModrinth:     modrinthProfile,
	ProfileServerPack:   serverPackProfile,
	ProfileClientPack:   clientPackProfile,
	ProfileCombinedPack: combinedPackProfile,
	ProfileMultiMC:      multiMCProfile,
}

// Names returns every profile name in a stable order.
func Names() []string {
	return []string{ProfileCurseForge, ProfileModrinth, ProfileServerPack, ProfileClientPack, ProfileCombinedPack, ProfileMultiMC}
}

// Check returns an error unless name is a known profile.
func Check(name string) error {
	if _, ok := builders[strings.ToLower(name)]; !ok {
		return fmt.Errorf("unknown profile '%s' — must be one of: %s", name, strings.Join(Names(), ", "))
	}
	return nil
}

// Profile builds the named profile for pack.
func Profile(name string, pack *export.Pack) (export.Profile, error) {
	if err := Check(name); err != nil {
		return export.Profile{}, err
	}
	return builders[strings.ToLower(name)](pack), nil
}

// clientKinds are the override kinds a client-only export may contain.
func clientKinds(pack *export.Pack) []overrides.Kind {
	if pack.ClientOnly || !configOf(pack).ServerSideToClient() {
		return []overrides.Kind{overrides.Override, overrides.ClientOverride}
	}
	return nil
}

// missingRule bundles missing entities for mod-director when the pack
// ships it and stages them as overrides otherwise.
func missingRule(pack *export.Pack, overridesFolder string, excluded ...string) export.Rule {
	if usesFileDirector(pack) {
		return FileDirector(excluded...)
	}
	return MissingFallback(overridesFolder, excluded...)
}

func curseForgeProfile(pack *export.Pack) export.Profile {
	return export.Profile{
		Name:             ProfileCurseForge,
		Extension:        manifest.CurseForgeExtension,
		RequiresPlatform: lock.CurseForge,
		Rules: []export.Rule{
			CurseForge(pack),
			missingRule(pack, overrides.Override.FolderName(), lock.CurseForge),
			Overrides(Fixed(overrides.Override.FolderName()), clientKinds(pack)...),
			Replacement(),
		},
	}
}

func modrinthProfile(pack *export.Pack) export.Profile {
	return export.Profile{
		Name:             ProfileModrinth,
		Extension:        manifest.ModrinthExtension,
		RequiresPlatform: lock.Modrinth,
		Rules: []export.Rule{
			Modrinth(pack),
			missingRule(pack, "", lock.Modrinth, lock.GitHub),
			Overrides(KindFolder, clientKinds(pack)...),
			Replacement(),
		},
	}
}

func serverPackProfile(*export.Pack) export.Profile {
	return export.Profile{
		Name:      ProfileServerPack,
		Extension: "zip",
		Rules: []export.Rule{
			RawEntities("", true, "", entity.SideBoth, entity.SideServer),
			Overrides(Fixed(""), overrides.Override, overrides.ServerOverride),
		},
	}
}

func clientPackProfile(*export.Pack) export.Profile {
	return export.Profile{
		Name:      ProfileClientPack,
		Extension: "zip",
		Rules: []export.Rule{
			RawEntities("", true, "", entity.SideBoth, entity.SideClient),
			Overrides(Fixed(""), overrides.Override, overrides.ClientOverride),
			Replacement(),
		},
	}
}

func combinedPackProfile(*export.Pack) export.Profile {
	return export.Profile{
		Name:      ProfileCombinedPack,
		Extension: "zip",
		Rules: []export.Rule{
			RawEntities("", true),
			Overrides(Fixed("")),
			Replacement(),
		},
	}
}

func multiMCProfile(*export.Pack) export.Profile {
	return export.Profile{
		Name:      ProfileMultiMC,
		Extension: "zip",
		Rules: []export.Rule{
			RawEntities(".minecraft", false),
			Overrides(Fixed(".minecraft")),
		},
	}
}
