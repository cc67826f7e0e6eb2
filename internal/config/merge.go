package config

import (
	"fmt"
	"maps"
)

// Merge combines two configs where overlay takes precedence over base:
//   - version: must agree if both declare it (non-zero); fatal error on mismatch
//   - pack: field by field, non-empty overlay fields win
//   - variables, paths: deep merge, overlay keys win
//   - projects: merge by key, overlay entry replaces base entry entirely
//   - override pattern lists: concatenate (base first, then overlay)
//   - export_server_side_projects_to_client: overlay wins when set
func Merge(base, overlay *Config) (*Config, error) {
	if base == nil {
		return overlay, nil
	}
	if overlay == nil {
		return base, nil
	}

	result := &Config{}
	if err := mergeVersion(base.Version, overlay.Version, &result.Version); err != nil {
		return nil, err
	}

	result.Pack = mergePack(base.Pack, overlay.Pack)
	result.Variables = mergeMaps(base.Variables, overlay.Variables)
	result.Paths = mergeMaps(base.Paths, overlay.Paths)
	result.Projects = mergeMaps(base.Projects, overlay.Projects)

	result.Overrides = concat(base.Overrides, overlay.Overrides)
	result.ServerOverrides = concat(base.ServerOverrides, overlay.ServerOverrides)
	result.ClientOverrides = concat(base.ClientOverrides, overlay.ClientOverrides)

	result.ExportServerSideToClient = base.ExportServerSideToClient
	if overlay.ExportServerSideToClient != nil {
		result.ExportServerSideToClient = overlay.ExportServerSideToClient
	}
	return result, nil
}

// MergeAll merges configs in order, lowest precedence first.
func MergeAll(configs []*Config) (*Config, error) {
	if len(configs) == 0 {
		return nil, fmt.Errorf("no configs to merge")
	}
	result := configs[0]
	for i := 1; i < len(configs); i++ {
		var err error
		result, err = Merge(result, configs[i])
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}

func mergeVersion(base, overlay int, out *int) error {
	switch {
	case base == 0:
		*out = overlay
	case overlay == 0 || base == overlay:
		*out = base
	default:
		return fmt.Errorf("config version mismatch: one layer declares version %d, another declares version %d — all config layers must agree on version", base, overlay)
	}
	return nil
}

func mergePack(base, overlay Pack) Pack {
	pick := func(b, o string) string {
		if o != "" {
			return o
		}
		return b
	}
	return Pack{
		Name:        pick(base.Name, overlay.Name),
		Version:     pick(base.Version, overlay.Version),
		Description: pick(base.Description, overlay.Description),
		Author:      pick(base.Author, overlay.Author),
	}
}

func mergeMaps[V any](base, overlay map[string]V) map[string]V {
	if len(base) == 0 && len(overlay) == 0 {
		return nil
	}
	result := make(map[string]V, len(base)+len(overlay))
	maps.Copy(result, base)
	maps.Copy(result, overlay)
	return result
}

func concat(base, overlay []string) []string {
	if len(base) == 0 && len(overlay) == 0 {
		return nil
	}
	out := make([]string, 0, len(base)+len(overlay))
	out = append(out, base...)
	return append(out, overlay...)
}
