package lock

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/bianoble/modsync/internal/entity"
)

// FileName is the default lockfile name.
const FileName = "modsync-lock.yaml"

// Load reads and validates a lockfile.
func Load(path string) (*Lockfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading lockfile %s: %w", path, err)
	}

	var lf Lockfile
	if err := yaml.Unmarshal(data, &lf); err != nil {
		return nil, fmt.Errorf("parsing lockfile %s: %w", path, err)
	}
	if errs := Validate(&lf); len(errs) > 0 {
		return nil, &ValidationError{Errors: errs}
	}
	return &lf, nil
}

// Save writes a lockfile atomically using a temp file and rename.
func Save(path string, lf *Lockfile) error {
	data, err := yaml.Marshal(lf)
	if err != nil {
		return fmt.Errorf("marshaling lockfile: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("writing temp lockfile %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("renaming temp lockfile to %s: %w", path, err)
	}
	return nil
}

// ValidationError holds multiple validation failures.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("lockfile validation failed:\n  - %s", strings.Join(e.Errors, "\n  - "))
}

// Validate checks a Lockfile for semantic correctness.
func Validate(lf *Lockfile) []string {
	var errs []string

	if lf.Version != 1 {
		errs = append(errs, fmt.Sprintf("unsupported version %d — only version 1 is supported", lf.Version))
	}
	if _, err := lf.Platforms(); err != nil {
		errs = append(errs, err.Error())
	}
	for i, l := range lf.Loaders {
		if l.Name == "" {
			errs = append(errs, fmt.Sprintf("loader[%d]: 'name' is required", i))
		}
	}

	ids := make(map[string]bool)
	for i, e := range lf.Entities {
		prefix := fmt.Sprintf("entity[%d]", i)
		if e.ID == "" {
			errs = append(errs, fmt.Sprintf("%s: 'id' is required", prefix))
		} else {
			prefix = fmt.Sprintf("entity '%s'", e.DisplayName())
			if ids[e.ID] {
				errs = append(errs, fmt.Sprintf("%s: duplicate id '%s'", prefix, e.ID))
			}
			ids[e.ID] = true
		}
		if !e.Kind.Valid() {
			errs = append(errs, fmt.Sprintf("%s: invalid kind '%s'", prefix, e.Kind))
		}
		if !e.Side.Valid() {
			errs = append(errs, fmt.Sprintf("%s: invalid side '%s'", prefix, e.Side))
		}
		switch e.UpdateStrategy {
		case "", entity.UpdateLatest, entity.UpdateNone:
		default:
			errs = append(errs, fmt.Sprintf("%s: invalid update_strategy '%s'", prefix, e.UpdateStrategy))
		}
		for _, f := range e.Files {
			if f.FileName == "" {
				errs = append(errs, fmt.Sprintf("%s: file '%s' on %s has no file_name", prefix, f.ID, f.Platform))
			}
		}
	}
	return errs
}
