package symbols

import (
	"github.com/funvibe/givens/internal/typesystem"
	"github.com/hashicorp/go-set/v3"
)

// spreadingCandidate is a declaration with an unbound spread type parameter.
// It is instantiated once for every candidate type that satisfies the spread
// parameter's bounds. processed records the candidate types already tried.
type spreadingCandidate struct {
	callable       *Callable
	constraintType *typesystem.Type
	processed      *set.Set[string]
}

func newSpreadingCandidate(c *Callable) *spreadingCandidate {
	p := c.SpreadParameter()
	return &spreadingCandidate{
		callable:       c,
		constraintType: p.DefaultType().Substitute(c.TypeArguments).WithVariance(typesystem.Inv),
		processed:      set.New[string](0),
	}
}

func (sp *spreadingCandidate) copy() *spreadingCandidate {
	return &spreadingCandidate{
		callable:       sp.callable,
		constraintType: sp.constraintType,
		processed:      sp.processed.Copy(),
	}
}

func (s *Scope) inSpreadChain(sp *spreadingCandidate) bool {
	for _, active := range s.spreadChain {
		if active == sp {
			return true
		}
	}
	return false
}

// spreadOverAll matches sp against every callable visible from s.
func (s *Scope) spreadOverAll(sp *spreadingCandidate) {
	for _, scope := range s.allScopes {
		for _, c := range append([]*Callable(nil), scope.callables...) {
			s.spreadOver(sp, c.Type)
		}
	}
}

// spreadCandidateType offers a newly admitted candidate type to every
// spreading declaration of the scope.
func (s *Scope) spreadCandidateType(t *typesystem.Type) {
	for _, sp := range append([]*spreadingCandidate(nil), s.spreaders...) {
		s.spreadOver(sp, t)
	}
}

// spreadOver instantiates sp for candidateType. Each (declaration, type)
// pair is tried once, and a declaration never spreads over results it is
// producing itself; together these bound the expansion.
func (s *Scope) spreadOver(sp *spreadingCandidate, candidateType *typesystem.Type) {
	if !sp.processed.Insert(candidateType.Key()) || s.inSpreadChain(sp) {
		return
	}

	ctx := typesystem.BuildSpreadingContext(sp.constraintType, candidateType, s.allStatic)
	if !ctx.IsOk() {
		return
	}

	instance := sp.callable.Substitute(ctx.FixedTypeVariables()).WithSpreadOrigin(sp.callable)

	s.spreadChain = append(s.spreadChain, sp)
	defer func() { s.spreadChain = s.spreadChain[:len(s.spreadChain)-1] }()

	s.collect(instance, set.New[string](0),
		func(next *Callable) {
			s.callables = append(s.callables, next)
			s.spreadCandidateType(next.Type)
		},
		func(next *Callable) {
			nested := newSpreadingCandidate(next)
			s.spreaders = append(s.spreaders, nested)
			s.spreadOverAll(nested)
		})
}
