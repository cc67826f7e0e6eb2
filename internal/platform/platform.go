// Package platform defines the content platform client contract and a
// registry that combines lookups across platforms.
package platform

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/bianoble/modsync/internal/compat"
	"github.com/bianoble/modsync/internal/entity"
	"github.com/bianoble/modsync/internal/packerr"
)

// Client is a content platform. Implementations own retries, timeouts
// and caching.
type Client interface {
	// RequestEntities returns the entities matching the given IDs or slugs.
	// Unknown inputs are omitted.
	RequestEntities(ctx context.Context, inputs []string) ([]entity.Entity, error)

	// RequestFiles returns the files of one entity compatible with req.
	// A non-empty fileID restricts the result to that file.
	RequestFiles(ctx context.Context, req compat.Request, entityID, fileID string) ([]entity.File, error)

	// RequestEntitiesWithFiles returns the entities for inputs with up to
	// n compatible files each assigned.
	RequestEntitiesWithFiles(ctx context.Context, req compat.Request, inputs []string, n int) ([]entity.Entity, error)
}

// Error represents a failed request against a platform.
type Error struct {
	Platform  string
	Operation string
	Err       error
	Hint      string
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s failed: %s", e.Platform, e.Operation, e.Err)
	if e.Hint != "" {
		msg += " — " + e.Hint
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Registry maps platform names to clients.
type Registry struct {
	clients map[string]Client
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{clients: make(map[string]Client)}
}

// Register adds a client for the named platform.
func (r *Registry) Register(name string, c Client) {
	r.clients[name] = c
}

// Get returns the client of the named platform.
func (r *Registry) Get(name string) (Client, error) {
	c, ok := r.clients[name]
	if !ok {
		return nil, fmt.Errorf("unknown platform '%s' — supported platforms: %s", name, r.supported())
	}
	return c, nil
}

// Names returns the registered platform names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.clients))
	for n := range r.clients {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

func (r *Registry) supported() string {
	names := r.Names()
	if len(names) == 0 {
		return "(none registered)"
	}
	return strings.Join(names, ", ")
}

// Lookup asks every listed platform for input concurrently and merges the
// answers into one entity, in platform order. The first platform that
// knows input provides the identity. Answers that do not describe the
// same add-on are dropped. A merge conflict between matching answers is
// returned as is.
func (r *Registry) Lookup(ctx context.Context, input string, req compat.Request, n int, platforms ...string) (entity.Entity, error) {
	clients := make([]Client, len(platforms))
	for i, p := range platforms {
		c, err := r.Get(p)
		if err != nil {
			return entity.Entity{}, err
		}
		clients[i] = c
	}

	found := make([][]entity.Entity, len(platforms))
	g, gctx := errgroup.WithContext(ctx)
	for i, c := range clients {
		g.Go(func() error {
			es, err := c.RequestEntitiesWithFiles(gctx, req, []string{input}, n)
			if err != nil {
				return &Error{Platform: platforms[i], Operation: "lookup " + input, Err: err}
			}
			found[i] = es
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return entity.Entity{}, err
	}

	var (
		result entity.Entity
		ok     bool
	)
	for _, es := range found {
		if len(es) == 0 {
			continue
		}
		if !ok {
			result, ok = es[0], true
			continue
		}
		if !entity.IsSame(result, es[0]) {
			continue
		}
		merged, err := entity.Merge(result, es[0])
		if err != nil {
			return entity.Entity{}, err
		}
		result = merged
	}
	if !ok {
		return entity.Entity{}, packerr.NotFound(input)
	}
	return result, nil
}

// Refresh re-requests the given entities from every listed platform with
// up to n compatible files each, newest first. Where a platform answers
// for an entity with at least one compatible file, the entity's files on
// that platform are replaced by the answer's files. An entity the platform
// has nothing compatible for keeps its current files. Identity and local
// policy of the entities are kept.
func (r *Registry) Refresh(ctx context.Context, entities []entity.Entity, req compat.Request, n int, platforms ...string) ([]entity.Entity, error) {
	answers := make([][]entity.Entity, len(platforms))
	g, gctx := errgroup.WithContext(ctx)
	for i, p := range platforms {
		c, err := r.Get(p)
		if err != nil {
			return nil, err
		}
		var ids []string
		for _, e := range entities {
			if id, ok := e.PlatformID[p]; ok {
				ids = append(ids, id)
			}
		}
		if len(ids) == 0 {
			continue
		}
		g.Go(func() error {
			es, err := requestWithFiles(gctx, c, p, req, ids, n)
			if err != nil {
				return &Error{Platform: p, Operation: "refresh", Err: err}
			}
			answers[i] = es
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := slices.Clone(entities)
	for i, p := range platforms {
		if len(answers[i]) == 0 {
			continue
		}
		stripped := make([]entity.Entity, len(out))
		for j, e := range out {
			stripped[j] = e
			answered := slices.ContainsFunc(answers[i], func(o entity.Entity) bool {
				return o.Kind == e.Kind && entity.IsSame(e, o)
			})
			if answered {
				stripped[j].Files = slices.DeleteFunc(slices.Clone(e.Files), func(f entity.File) bool { return f.Platform == p })
			}
		}
		for j, combined := range entity.CombineWith(stripped, answers[i]) {
			// a failed merge leaves the stripped entity behind
			if !combined.HasFilesOn(p) && out[j].HasFilesOn(p) {
				continue
			}
			out[j] = combined
		}
	}
	return out, nil
}

// requestWithFiles asks c for the entities behind ids and assigns each its
// n newest compatible files. Entities without a compatible file are
// dropped.
func requestWithFiles(ctx context.Context, c Client, p string, req compat.Request, ids []string, n int) ([]entity.Entity, error) {
	es, err := c.RequestEntities(ctx, ids)
	if err != nil {
		return nil, err
	}
	var files []entity.File
	for i := range es {
		es[i].Files = nil
		fs, err := c.RequestFiles(ctx, req, es[i].PlatformID[p], "")
		if err != nil {
			return nil, err
		}
		fs = slices.Clone(fs)
		slices.SortStableFunc(fs, func(a, b entity.File) int { return b.DatePublished.Compare(a.DatePublished) })
		if len(fs) > n {
			fs = fs[:n]
		}
		files = append(files, fs...)
	}
	es = entity.AssignFiles(es, files, p)
	return slices.DeleteFunc(es, func(e entity.Entity) bool { return !e.HasFilesOn(p) }), nil
}
