package engine

import (
	"context"
	"slices"
	"strings"

	"github.com/bianoble/modsync/internal/config"
	"github.com/bianoble/modsync/internal/entity"
	"github.com/bianoble/modsync/internal/lock"
	"github.com/bianoble/modsync/internal/target"
)

// Entity states.
const (
	StateFetched = "fetched"
	StateDrifted = "drifted"
	StateMissing = "missing"
	StateNoFile  = "no-file"
)

// StatusEngine computes the state of every entity in the pack directory.
type StatusEngine struct {
	ProjectRoot string
}

// EntityStatus describes the current state of an entity.
type EntityStatus struct {
	Name      string
	Kind      entity.Kind
	Platforms []string
	Path      string
	State     string
}

// Status returns the state of all (or the named) entities, sorted by name.
func (e *StatusEngine) Status(ctx context.Context, lf *lock.Lockfile, cfg *config.Config, names []string) ([]EntityStatus, error) {
	kp, err := target.NewKindPaths(cfg.Paths)
	if err != nil {
		return nil, err
	}
	files, noFile, err := packFiles(lf, kp)
	if err != nil {
		return nil, err
	}

	wanted := func(en entity.Entity) bool {
		return len(names) == 0 || slices.ContainsFunc(names, en.Contains)
	}

	var statuses []EntityStatus
	for _, pf := range files {
		if !wanted(pf.Entity) {
			continue
		}
		st, _ := fileState(e.ProjectRoot, pf)
		statuses = append(statuses, EntityStatus{
			Name:      pf.Entity.DisplayName(),
			Kind:      pf.Entity.Kind,
			Platforms: platformsOf(pf.Entity),
			Path:      pf.Path,
			State:     st,
		})
	}
	for _, en := range noFile {
		if !wanted(en) {
			continue
		}
		statuses = append(statuses, EntityStatus{
			Name:      en.DisplayName(),
			Kind:      en.Kind,
			Platforms: platformsOf(en),
			State:     StateNoFile,
		})
	}

	slices.SortFunc(statuses, func(a, b EntityStatus) int {
		return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	})
	return statuses, nil
}

func platformsOf(en entity.Entity) []string {
	ps := make([]string, 0, len(en.PlatformID))
	for p := range en.PlatformID {
		ps = append(ps, p)
	}
	slices.Sort(ps)
	return ps
}
