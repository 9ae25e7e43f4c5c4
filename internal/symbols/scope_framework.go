package symbols

import (
	"github.com/funvibe/givens/internal/config"
	"github.com/funvibe/givens/internal/typesystem"
	"strconv"
)

// FrameworkCandidate synthesizes a candidate for requests that declarations
// do not have to cover: function types, lists and type keys. It returns nil
// when the request has no structural answer.
func (s *Scope) FrameworkCandidate(request Request) Candidate {
	t := request.Type
	switch {
	case t.IsFunctionType() && !t.Provide:
		return s.lambdaCandidate(t)
	case t.Classifier.Is(typesystem.ListClassifier):
		if l := s.listCandidate(t); l != nil {
			return l
		}
	case t.Classifier.Is(typesystem.TypeKeyClassifier):
		arg := t.Arguments[0]
		// a bare type parameter has no structure to witness; only a
		// declared TypeKey can supply it
		if !arg.Star && !arg.Classifier.IsTypeParameter {
			return s.typeKeyCandidate(t)
		}
	}
	return nil
}

func (s *Scope) lambdaCandidate(t *typesystem.Type) *LambdaCandidate {
	key := "lambda|" + t.Key()
	if c, ok := s.framework[key]; ok {
		return c.(*LambdaCandidate)
	}

	arity, _ := typesystem.FunctionArity(t.Classifier)
	var params []*Callable
	for i := 0; i < arity; i++ {
		arg := t.Arguments[i]
		if arg.Star {
			continue
		}
		name := config.LambdaParamName
		if arity > 1 {
			name = "p" + strconv.Itoa(i+1)
		}
		params = append(params, NewCallable(name, arg.WithVariance(typesystem.Inv), nil))
	}

	l := &LambdaCandidate{
		typ:        t,
		Owner:      s,
		Parameters: params,
		requests: []Request{{
			Type:         t.Arguments[arity].WithVariance(typesystem.Inv),
			Name:         "invoke",
			CallableName: config.LambdaFuncName,
			Position:     0,
			Required:     true,
		}},
	}
	l.Scope = NewScope(s.session, "LAMBDA "+t.String(), s,
		WithKind(ScopeLambda), WithCallables(params...))
	s.framework[key] = l
	return l
}

// listCandidate collects, nearest scope first, every visible callable whose
// type matches the element type or a collection of it. Each match is
// registered in its declaring scope under a fresh unique id.
func (s *Scope) listCandidate(t *typesystem.Type) *ListCandidate {
	key := "list|" + requestKey(t, s.allStatic)
	if c, ok := s.framework[key]; ok {
		if c == nil {
			return nil
		}
		return c.(*ListCandidate)
	}

	single := t.Arguments[0]
	if single.Star {
		s.framework[key] = nil
		return nil
	}
	single = single.WithVariance(typesystem.Inv)
	collection := typesystem.NewType(typesystem.CollectionClassifier, single)

	var elements []*typesystem.Type
	for i := len(s.allScopes) - 1; i >= 0; i-- {
		scope := s.allScopes[i]
		for _, c := range scope.callables {
			if !s.IsVisible(c) {
				continue
			}
			ctx := typesystem.BuildContext(c.Type, single, s.allStatic)
			if !ctx.IsOk() {
				ctx = typesystem.BuildContext(c.Type, collection, s.allStatic)
			}
			if !ctx.IsOk() {
				continue
			}
			element := c.Substitute(ctx.FixedTypeVariables())
			id := s.session.NextUniqueID()
			element = element.withType(element.Type.WithUniqueID(id))
			scope.elements[id] = element
			elements = append(elements, element.Type)
		}
	}

	if len(elements) == 0 {
		s.framework[key] = nil
		return nil
	}
	l := newListCandidate(t, s, single, collection, elements)
	s.framework[key] = l
	return l
}

func (s *Scope) typeKeyCandidate(t *typesystem.Type) *TypeKeyCandidate {
	key := "typekey|" + t.Key()
	if c, ok := s.framework[key]; ok {
		return c.(*TypeKeyCandidate)
	}
	k := newTypeKeyCandidate(t, s)
	s.framework[key] = k
	return k
}

func (c *Callable) withType(t *typesystem.Type) *Callable {
	n := c.copy()
	n.Type = t
	return n
}
