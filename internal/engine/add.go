package engine

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/bianoble/modsync/internal/entity"
	"github.com/bianoble/modsync/internal/export"
	"github.com/bianoble/modsync/internal/lock"
	"github.com/bianoble/modsync/internal/packerr"
	"github.com/bianoble/modsync/internal/platform"
)

// AddEngine resolves new entities on the registered platforms and adds
// them to the lockfile.
type AddEngine struct {
	Registry    *platform.Registry
	Logger      *log.Logger
	Concurrency int
}

// AddOptions configures an add operation.
type AddOptions struct {
	// Inputs are slugs or platform IDs.
	Inputs []string
	DryRun bool
}

// Add looks every input up on the registered platforms the pack targets
// and adds the merged entity with its newest compatible file per platform.
// Inputs already in the lockfile are reported as skipped. The returned
// lockfile is a copy; lf is not modified. It is nil for a dry run.
func (e *AddEngine) Add(ctx context.Context, lf *lock.Lockfile, opts AddOptions) (*AddResult, *lock.Lockfile, error) {
	platforms, err := registeredPlatforms(lf, e.Registry)
	if err != nil {
		return nil, nil, err
	}
	if len(platforms) == 0 {
		return nil, nil, fmt.Errorf("no platform clients registered for target '%s'", lf.Target)
	}

	found := resolve(ctx, len(opts.Inputs), e.Concurrency, func(ctx context.Context, i int) (entity.Entity, error) {
		return e.Registry.Lookup(ctx, opts.Inputs[i], lf.CompatRequest(), 1, platforms...)
	})

	result := &AddResult{}
	updated := cloneLock(lf)
	for i, r := range found {
		addResolved(updated, result, e.logger(), opts.Inputs[i], r)
	}
	if opts.DryRun {
		return result, nil, nil
	}
	return result, updated, nil
}

type resolved struct {
	entity entity.Entity
	err    error
}

// resolve runs lookup for n inputs with bounded concurrency. Results keep
// input order and a failed lookup never cancels the others.
func resolve(ctx context.Context, n, limit int, lookup func(context.Context, int) (entity.Entity, error)) []resolved {
	out := make([]resolved, n)
	if limit <= 0 {
		limit = export.DefaultConcurrency
	}
	g := new(errgroup.Group)
	g.SetLimit(limit)
	for i := range n {
		g.Go(func() error {
			en, err := lookup(ctx, i)
			out[i] = resolved{entity: en, err: err}
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func addResolved(lf *lock.Lockfile, result *AddResult, logger *log.Logger, input string, r resolved) {
	if r.err != nil {
		logger.Error("lookup failed", "input", input, "err", r.err)
		result.Failed = append(result.Failed, EntityError{Entity: input, Err: r.err})
		return
	}
	name := r.entity.DisplayName()
	if err := lf.Add(r.entity); err != nil {
		if errors.Is(err, packerr.ErrAlreadyAdded) {
			logger.Info("already added", "entity", name)
			result.Skipped = append(result.Skipped, name)
			return
		}
		result.Failed = append(result.Failed, EntityError{Entity: name, Err: err})
		return
	}
	logger.Info("added", "entity", name, "files", len(r.entity.Files))
	result.Added = append(result.Added, name)
}

func (e *AddEngine) logger() *log.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return log.New(io.Discard)
}
