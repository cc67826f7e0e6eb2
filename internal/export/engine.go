package export

import (
	"context"
	"fmt"
	"io"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/bianoble/modsync/internal/entity"
	"github.com/bianoble/modsync/internal/packerr"
)

// DefaultConcurrency bounds concurrently running actions when Engine
// leaves it unset.
const DefaultConcurrency = 8

// Profile is a named set of rules producing one archive.
type Profile struct {
	Name      string
	Extension string
	// RequiresPlatform skips the profile unless the pack targets it.
	RequiresPlatform string
	Rules            []Rule
}

// Evaluate applies every rule to every input of contents, then to one
// MissingEntity per entity some rule marked missing, then to a single
// Finished context. Results keep that order.
func Evaluate(rules []Rule, pack *Pack, contents Contents) []Result {
	rules = slices.DeleteFunc(slices.Clone(rules), func(r Rule) bool { return r == nil })
	var results []Result

	for _, r := range rules {
		for _, e := range contents.Entities {
			results = append(results, r.Evaluate(&ExportingEntity{base: base{pack}, Entity: e}))
		}
		for _, o := range contents.Overrides {
			results = append(results, r.Evaluate(&ExportingOverride{base: base{pack}, Override: o}))
		}
		for _, m := range contents.Manual {
			results = append(results, r.Evaluate(&ExportingManualOverride{base: base{pack}, Override: m}))
		}
	}

	var missing []entity.Entity
	seen := make(map[string]bool)
	for _, res := range results {
		m, ok := res.Context.(*MissingEntity)
		if !ok || seen[m.Entity.ID] {
			continue
		}
		seen[m.Entity.ID] = true
		missing = append(missing, m.Entity)
	}
	for _, e := range missing {
		for _, r := range rules {
			results = append(results, r.Evaluate(&MissingEntity{base: base{pack}, Entity: e}))
		}
	}

	finished := &Finished{base: base{pack}}
	for _, r := range rules {
		results = append(results, r.Evaluate(finished))
	}
	return results
}

// Sink receives every error reported while executing results. Calls are
// serialized.
type Sink func(err error)

// Report is the outcome of executing a set of results.
type Report struct {
	Results []Result
	// Paths are the files produced by FileActions without a fatal
	// error, sorted.
	Paths  []string
	Errors []error
}

// Engine executes the results of rule evaluation.
type Engine struct {
	Logger      *log.Logger
	Sink        Sink
	Concurrency int
}

// Run evaluates the profile's rules and executes the results.
func (e *Engine) Run(ctx context.Context, profile Profile, pack *Pack, contents Contents) Report {
	results := Evaluate(profile.Rules, pack, contents)
	e.logger().Debug("evaluated rules", "profile", profile.Name, "results", len(results))
	return e.Execute(ctx, results)
}

// Execute runs every Action and FileAction of results. Actions of
// Finished contexts start only after all other actions have completed.
// A failing action never cancels its siblings; its error goes to the
// sink and the report.
func (e *Engine) Execute(ctx context.Context, results []Result) Report {
	logger := e.logger()
	rep := Report{Results: results}
	var mu sync.Mutex

	report := func(err error) {
		mu.Lock()
		defer mu.Unlock()
		rep.Errors = append(rep.Errors, err)
		if e.Sink != nil {
			e.Sink(err)
		}
	}

	var first, last []Result
	for _, r := range results {
		switch p := r.Packaging.(type) {
		case Failure:
			logger.Debug("failure", "result", r)
			report(p.Err)
		case EmptyAction:
			logger.Debug("empty action", "result", r)
		case Action, FileAction:
			if _, ok := r.Context.(*Finished); ok {
				last = append(last, r)
			} else {
				first = append(first, r)
			}
		}
	}

	run := func(batch []Result) {
		g := new(errgroup.Group)
		g.SetLimit(e.limit())
		for _, r := range batch {
			g.Go(func() error {
				start := time.Now()
				path, err := execute(ctx, r)
				logger.Debug("executed", "result", r, "took", time.Since(start))
				if err != nil {
					report(fmt.Errorf("%s: %w", r.Description, err))
				}
				if path != "" && !packerr.IsFatal(err) {
					mu.Lock()
					rep.Paths = append(rep.Paths, path)
					mu.Unlock()
				}
				return nil
			})
		}
		_ = g.Wait()
	}

	run(first)
	run(last)

	slices.Sort(rep.Paths)
	rep.Paths = slices.Compact(rep.Paths)
	return rep
}

func execute(ctx context.Context, r Result) (string, error) {
	switch p := r.Packaging.(type) {
	case Action:
		return "", p.Run(ctx)
	case FileAction:
		return p.Run(ctx)
	}
	return "", nil
}

func (e *Engine) limit() int {
	if e.Concurrency > 0 {
		return e.Concurrency
	}
	return DefaultConcurrency
}

func (e *Engine) logger() *log.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return log.New(io.Discard)
}
