package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

const (
	// FileName is the default pack config file name.
	FileName = "modsync.yaml"

	// DefaultsFileName holds the pack defaults shared by every pack of a
	// user or machine, such as the author or custom kind folders.
	DefaultsFileName = "defaults.yaml"

	appDir = "modsync"
)

// ConfigLevel represents the precedence level of a configuration file.
type ConfigLevel string

const (
	LevelSystem  ConfigLevel = "system"
	LevelUser    ConfigLevel = "user"
	LevelProject ConfigLevel = "project"
)

// ConfigLayerInfo describes a discovered config layer and its load status.
type ConfigLayerInfo struct {
	Err    error // set when the file exists but failed to load
	Path   string
	Level  ConfigLevel
	Loaded bool
}

// DiscoverOptions controls how config paths are discovered.
type DiscoverOptions struct {
	// ProjectPath is the pack's modsync.yaml (required).
	ProjectPath string

	// SystemConfigPath and UserConfigPath replace the default locations of
	// the defaults files. A nonexistent path skips the layer.
	SystemConfigPath string
	UserConfigPath   string
}

// DiscoverPaths lists the layers from lowest precedence (system defaults)
// to highest (the pack's own config). A file reachable through more than
// one level is only listed once, at its first level.
func DiscoverPaths(opts DiscoverOptions) []ConfigLayerInfo {
	candidates := []ConfigLayerInfo{
		{Level: LevelSystem, Path: orDefault(opts.SystemConfigPath, defaultSystemConfigPath)},
		{Level: LevelUser, Path: orDefault(opts.UserConfigPath, defaultUserConfigPath)},
		{Level: LevelProject, Path: opts.ProjectPath},
	}

	seen := make(map[string]struct{}, len(candidates))
	layers := candidates[:0]
	for _, l := range candidates {
		if l.Path == "" {
			continue
		}
		key := l.Path
		if abs, err := filepath.Abs(l.Path); err == nil {
			key = abs
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		layers = append(layers, l)
	}
	return layers
}

func orDefault(path string, def func() string) string {
	if path != "" {
		return path
	}
	return def()
}

// defaultSystemConfigPath is /etc/modsync/defaults.yaml, or its
// ProgramData equivalent on Windows.
func defaultSystemConfigPath() string {
	root := "/etc"
	if runtime.GOOS == "windows" {
		root = os.Getenv("ProgramData")
		if root == "" {
			root = `C:\ProgramData`
		}
	}
	return filepath.Join(root, appDir, DefaultsFileName)
}

// defaultUserConfigPath sits next to the user's settings.yaml.
func defaultUserConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, appDir, DefaultsFileName)
}

// EnvNoInherit reports whether MODSYNC_NO_INHERIT disables the system
// and user layers.
func EnvNoInherit() bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("MODSYNC_NO_INHERIT"))) {
	case "1", "true", "yes":
		return true
	}
	return false
}
