package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/bianoble/modsync/internal/entity"
	"github.com/bianoble/modsync/internal/sandbox"
)

// Load reads and validates a modsync.yaml configuration file.
func Load(path string) (*Config, error) {
	cfg, err := parse(path)
	if err != nil {
		return nil, err
	}
	if errs := Validate(cfg); len(errs) > 0 {
		return nil, &ValidationError{Errors: errs}
	}
	return cfg, nil
}

func parse(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return &cfg, nil
}

// LoadLayered discovers the system, user and project layers, merges the
// ones that exist and validates the result. Only the project layer is
// required. With noInherit set, only the project layer is read.
func LoadLayered(opts DiscoverOptions, noInherit bool) (*Config, []ConfigLayerInfo, error) {
	layers := DiscoverPaths(opts)
	var configs []*Config
	for i := range layers {
		l := &layers[i]
		if noInherit && l.Level != LevelProject {
			continue
		}
		cfg, err := parse(l.Path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) && l.Level != LevelProject {
				continue
			}
			l.Err = err
			return nil, layers, err
		}
		l.Loaded = true
		configs = append(configs, cfg)
	}

	merged, err := MergeAll(configs)
	if err != nil {
		return nil, layers, err
	}
	if errs := Validate(merged); len(errs) > 0 {
		return nil, layers, &ValidationError{Errors: errs}
	}
	return merged, layers, nil
}

// Save writes cfg as YAML.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config %s: %w", path, err)
	}
	return nil
}

// ValidationError holds multiple validation failures.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed:\n  - %s", strings.Join(e.Errors, "\n  - "))
}

// Validate checks a Config for semantic correctness and returns every
// problem found. Pack name and Minecraft version are export preconditions
// and are not required here.
func Validate(cfg *Config) []string {
	var errs []string

	if cfg.Version != 1 {
		errs = append(errs, fmt.Sprintf("unsupported version %d — only version 1 is supported", cfg.Version))
	}

	overrideLists := []struct {
		field    string
		patterns []string
	}{
		{"overrides", cfg.Overrides},
		{"server_overrides", cfg.ServerOverrides},
		{"client_overrides", cfg.ClientOverrides},
	}
	for _, ol := range overrideLists {
		for _, p := range ol.patterns {
			if err := sandbox.CheckRelative(strings.TrimPrefix(p, "!")); err != nil {
				errs = append(errs, fmt.Sprintf("%s: pattern '%s' must be a relative path inside the pack", ol.field, p))
			}
		}
	}

	for kind, dest := range cfg.Paths {
		if !entity.Kind(kind).Valid() {
			errs = append(errs, fmt.Sprintf("paths: unknown kind '%s'", kind))
		}
		if err := sandbox.CheckRelative(dest); err != nil {
			errs = append(errs, fmt.Sprintf("paths: '%s' for kind '%s' must be a relative path inside the pack", dest, kind))
		}
	}

	for key, pc := range cfg.Projects {
		prefix := fmt.Sprintf("project '%s'", key)
		if pc.Type != "" && !entity.Kind(pc.Type).Valid() {
			errs = append(errs, fmt.Sprintf("%s: invalid type '%s'", prefix, pc.Type))
		}
		if !entity.Side(pc.Side).Valid() {
			errs = append(errs, fmt.Sprintf("%s: invalid side '%s' — must be one of: client, server, both", prefix, pc.Side))
		}
		switch entity.UpdateStrategy(pc.UpdateStrategy) {
		case "", entity.UpdateLatest, entity.UpdateNone:
		default:
			errs = append(errs, fmt.Sprintf("%s: invalid update_strategy '%s' — must be one of: latest, none", prefix, pc.UpdateStrategy))
		}
		if pc.Subpath != "" {
			if err := sandbox.CheckRelative(pc.Subpath); err != nil {
				errs = append(errs, fmt.Sprintf("%s: subpath '%s' must be a relative path", prefix, pc.Subpath))
			}
		}
	}

	return errs
}
