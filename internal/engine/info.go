package engine

import (
	"github.com/bianoble/modsync/internal/cache"
	"github.com/bianoble/modsync/internal/config"
	"github.com/bianoble/modsync/internal/entity"
	"github.com/bianoble/modsync/internal/rules"
	"github.com/bianoble/modsync/internal/target"
)

// ConfigLayerStatus describes a config layer's load status for display.
type ConfigLayerStatus struct {
	Level  string // "system", "user", "project"
	Path   string
	Loaded bool
}

// InfoResult holds tool information for the info command.
type InfoResult struct {
	Version      string
	ConfigPath   string
	LockPath     string
	SettingsPath string
	CacheDir     string
	CacheSize    int64
	Kinds        []KindInfo
	Profiles     []string
	ConfigChain  []ConfigLayerStatus
}

// KindInfo describes where files of a kind are installed.
type KindInfo struct {
	Kind     entity.Kind
	Folder   string
	IsCustom bool
}

// Info gathers tool information. cfg and c may be nil.
func Info(version string, cfg *config.Config, c *cache.Cache, configPath, lockPath, settingsPath string, layers []config.ConfigLayerInfo) (*InfoResult, error) {
	r := &InfoResult{
		Version:      version,
		ConfigPath:   configPath,
		LockPath:     lockPath,
		SettingsPath: settingsPath,
		Profiles:     rules.Names(),
	}

	if c != nil {
		r.CacheDir = c.Path()
		if size, err := c.Size(); err == nil {
			r.CacheSize = size
		}
	}

	var custom map[string]string
	if cfg != nil {
		custom = cfg.Paths
	}
	kp, err := target.NewKindPaths(custom)
	if err != nil {
		return nil, err
	}
	for _, k := range entity.Kinds() {
		r.Kinds = append(r.Kinds, KindInfo{Kind: k, Folder: kp.Resolve(k), IsCustom: kp.IsCustom(k)})
	}

	for _, l := range layers {
		r.ConfigChain = append(r.ConfigChain, ConfigLayerStatus{Level: string(l.Level), Path: l.Path, Loaded: l.Loaded})
	}
	return r, nil
}
