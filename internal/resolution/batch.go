package resolution

import (
	"context"
	"github.com/funvibe/givens/internal/symbols"
	"golang.org/x/sync/errgroup"
	"runtime"
)

// Job is one injection site. Jobs resolved together must not share scopes:
// scopes memoize lookups and are not safe for concurrent use.
type Job struct {
	Name     string
	Scope    *symbols.Scope
	Callee   *symbols.Callable
	Requests []symbols.Request
}

// ResolveAll resolves jobs concurrently, each with its own Resolver, and
// returns the results in job order. It stops early when ctx is cancelled.
func ResolveAll(ctx context.Context, jobs []Job, opts ...Option) ([]InjectionResult, error) {
	return ResolveAllLimit(ctx, jobs, 0, opts...)
}

// ResolveAllLimit is ResolveAll with at most limit jobs in flight. A limit
// of zero or less means one per CPU.
func ResolveAllLimit(ctx context.Context, jobs []Job, limit int, opts ...Option) ([]InjectionResult, error) {
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}
	results := make([]InjectionResult, len(jobs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, job := range jobs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = NewResolver(opts...).ResolveRequests(job.Scope, job.Callee, job.Requests)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
