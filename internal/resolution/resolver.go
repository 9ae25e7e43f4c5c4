package resolution

import (
	"github.com/funvibe/givens/internal/config"
	"github.com/funvibe/givens/internal/symbols"
	"io"
	"log"
	"sort"
)

type chainEntry struct {
	request   symbols.Request
	candidate symbols.Candidate
}

// Resolver turns requests into call trees. It memoizes results per scope
// and keeps the chain of candidates being resolved for divergence
// detection. A Resolver serves one scope tree and is not safe for
// concurrent use.
type Resolver struct {
	logger   *log.Logger
	maxDepth int

	byType      map[*symbols.Scope]map[string]Result
	byCandidate map[*symbols.Scope]map[symbols.Candidate]Result
	chain       []chainEntry
	// set once the running computation hit divergence or the depth limit
	chainDependent bool
}

type Option func(*Resolver)

// WithMaxDepth limits the number of nested candidates on one chain.
func WithMaxDepth(depth int) Option {
	return func(r *Resolver) {
		if depth > 0 {
			r.maxDepth = depth
		}
	}
}

func WithLogger(logger *log.Logger) Option {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{
		logger:      log.New(io.Discard, "", 0),
		maxDepth:    config.MaxResolutionDepth,
		byType:      map[*symbols.Scope]map[string]Result{},
		byCandidate: map[*symbols.Scope]map[symbols.Candidate]Result{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ResolveRequests resolves every request of callee in scope. Optional
// requests that cannot be satisfied fall back to their default value unless
// the reason is an ambiguity. Of several failures the most relevant one is
// reported.
func (r *Resolver) ResolveRequests(scope *symbols.Scope, callee *symbols.Callable, requests []symbols.Request) InjectionResult {
	var successes []Dependency
	var failureRequest symbols.Request
	var failure Failure
	for _, request := range requests {
		switch result := r.Resolve(scope, request).(type) {
		case Success:
			successes = append(successes, Dependency{Request: request, Result: result})
		case Failure:
			if r.keepsFailure(request, result) {
				if failure == nil || compareResult(result, failure) < 0 {
					failureRequest, failure = request, result
				}
			} else {
				successes = append(successes, Dependency{Request: request, Result: DefaultValue{}})
			}
		}
	}
	if failure != nil {
		r.logger.Printf("session %s: resolution of %s failed at %s", scope.Session().ID, callee.Name, failureRequest)
		return &InjectionError{Scope: scope, Callee: callee, FailureRequest: failureRequest, Failure: failure}
	}
	return &InjectionSuccess{Scope: scope, Callee: callee, Results: successes}
}

func (r *Resolver) keepsFailure(request symbols.Request, failure Failure) bool {
	if request.Required {
		return true
	}
	_, inner := UnwrapDependencyFailure(request, failure)
	_, ambiguous := inner.(*CandidateAmbiguity)
	return ambiguous
}

// Resolve resolves a single request in scope. Declared candidates are
// tried first; framework candidates only when no declaration matches.
func (r *Resolver) Resolve(scope *symbols.Scope, request symbols.Request) Result {
	key := request.Type.Key()
	memo := r.byType[scope]
	if memo == nil {
		memo = map[string]Result{}
		r.byType[scope] = memo
	}
	if cached, ok := memo[key]; ok {
		return cached
	}

	result, cacheable := r.tracked(func() Result {
		if candidates := scope.CandidatesForRequest(request, scope); len(candidates) > 0 {
			generic := make([]symbols.Candidate, len(candidates))
			for i, c := range candidates {
				generic[i] = c
			}
			return r.resolveCandidates(scope, request, generic)
		}
		if candidate := scope.FrameworkCandidate(request); candidate != nil {
			return r.resolveCandidate(scope, request, candidate)
		}
		return &NoCandidates{Request: request}
	})

	if cacheable {
		memo[key] = result
	}
	return result
}

// tracked runs compute and reports whether its result can be memoized,
// which it cannot once anything below it depended on the current chain.
func (r *Resolver) tracked(compute func() Result) (Result, bool) {
	outer := r.chainDependent
	r.chainDependent = false
	result := compute()
	inner := r.chainDependent
	r.chainDependent = outer || inner
	return result, !inner
}

func (r *Resolver) candidateMemo(scope *symbols.Scope) map[symbols.Candidate]Result {
	memo := r.byCandidate[scope]
	if memo == nil {
		memo = map[symbols.Candidate]Result{}
		r.byCandidate[scope] = memo
	}
	return memo
}

// computeForCandidate memoizes compute per candidate and guards the
// resolution chain against divergence and excessive depth. Results that
// passed through a divergence or the depth limit are not memoized.
func (r *Resolver) computeForCandidate(scope *symbols.Scope, request symbols.Request, candidate symbols.Candidate, compute func() Result) Result {
	memo := r.candidateMemo(scope)
	if cached, ok := memo[candidate]; ok {
		return cached
	}

	if len(candidate.Dependencies()) == 0 {
		result := compute()
		memo[candidate] = result
		return result
	}

	if r.isDivergent(candidate) {
		r.logger.Printf("divergent candidate %s for %s", candidate.ChainName(), candidate.Type())
		r.chainDependent = true
		return &DivergentInjectable{Candidate: candidate}
	}

	if len(r.chain) >= r.maxDepth {
		r.chainDependent = true
		return &DepthExceeded{Candidate: candidate, Depth: len(r.chain)}
	}

	index := len(r.chain)
	r.chain = append(r.chain, chainEntry{request: request, candidate: candidate})
	result, cacheable := r.tracked(compute)
	r.chain = r.chain[:index]
	if cacheable {
		memo[candidate] = result
	}
	return result
}

// isDivergent scans the chain backwards for the same declaration whose type
// is equal to candidate's, or smaller over the same set of classifiers.
func (r *Resolver) isDivergent(candidate symbols.Candidate) bool {
	t := candidate.Type()
	var covering []string
	for i := len(r.chain) - 1; i >= 0; i-- {
		previous := r.chain[i].candidate
		if previous.ChainName() != candidate.ChainName() {
			continue
		}
		if covering == nil {
			covering = t.CoveringSet()
		}
		pt := previous.Type()
		if !sameStrings(pt.CoveringSet(), covering) {
			continue
		}
		if pt.TypeSize() < t.TypeSize() || pt.Equal(t) {
			return true
		}
	}
	return false
}

func sameStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// resolveCandidates resolves candidates from the most to the least
// preferred and stops once no remaining candidate can beat the best
// success. Equally good successes are ambiguous.
func (r *Resolver) resolveCandidates(scope *symbols.Scope, request symbols.Request, candidates []symbols.Candidate) Result {
	if len(candidates) == 1 {
		return r.resolveCandidate(scope, request, candidates[0])
	}

	sorted := append([]symbols.Candidate(nil), candidates...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return compareCandidate(sorted[i], sorted[j]) < 0
	})

	var successes []*Value
	var failure Failure
	for _, candidate := range sorted {
		if len(successes) > 0 && compareCandidate(successes[0].Candidate, candidate) < 0 {
			break
		}

		switch result := r.resolveCandidate(scope, request, candidate).(type) {
		case *Value:
			if len(successes) == 0 {
				successes = append(successes, result)
				continue
			}
			switch compareResult(result, successes[0]) {
			case -1:
				successes = []*Value{result}
			case 0:
				successes = append(successes, result)
			}
		case Failure:
			if failure == nil || compareResult(result, failure) < 0 {
				failure = result
			}
		}
	}

	switch {
	case len(successes) == 1:
		return successes[0]
	case len(successes) > 1:
		r.logger.Printf("ambiguous candidates for %s: %d", request, len(successes))
		return &CandidateAmbiguity{Request: request, Candidates: successes}
	}
	return failure
}

func (r *Resolver) resolveCandidate(scope *symbols.Scope, request symbols.Request, candidate symbols.Candidate) Result {
	return r.computeForCandidate(scope, request, candidate, func() Result {
		if mismatch := reifiedMismatch(candidate); mismatch != nil {
			return mismatch
		}

		dependencies := candidate.Dependencies()
		if len(dependencies) == 0 {
			return &Value{Candidate: candidate, Scope: scope}
		}

		dependencyScope := candidate.DependencyScope()
		if dependencyScope == nil {
			dependencyScope = scope
		}

		results := make([]Dependency, 0, len(dependencies))
		for _, dependency := range dependencies {
			switch result := r.Resolve(dependencyScope, dependency).(type) {
			case Success:
				results = append(results, Dependency{Request: dependency, Result: result})
			case Failure:
				if _, isLambda := candidate.(*symbols.LambdaCandidate); isLambda && dependency.Required {
					if _, none := result.(*NoCandidates); none {
						return &NoCandidates{Request: dependency}
					}
				}
				if r.keepsFailure(dependency, result) {
					return &DependencyFailure{Candidate: candidate, Request: dependency, Failure: result}
				}
				results = append(results, Dependency{Request: dependency, Result: DefaultValue{}})
			}
		}
		return &Value{Candidate: candidate, Scope: scope, Dependencies: results}
	})
}

// reifiedMismatch reports a reified type parameter bound to a type
// parameter that is not reified itself.
func reifiedMismatch(candidate symbols.Candidate) *ReifiedTypeArgumentMismatch {
	cc, ok := candidate.(*symbols.CallableCandidate)
	if !ok {
		return nil
	}
	for _, p := range cc.Callable.TypeParameters {
		arg, ok := cc.Callable.TypeArguments[p.Key]
		if !ok || !p.IsReified {
			continue
		}
		if arg.Classifier.IsTypeParameter && !arg.Classifier.IsReified {
			return &ReifiedTypeArgumentMismatch{Parameter: p, Argument: arg.Classifier, Candidate: candidate}
		}
	}
	return nil
}
