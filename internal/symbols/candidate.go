package symbols

import (
	"github.com/funvibe/givens/internal/config"
	"github.com/funvibe/givens/internal/typesystem"
	"strconv"
)

// Candidate is anything resolution can pick to satisfy a request. The set
// of variants is closed: CallableCandidate, ListCandidate, LambdaCandidate
// and TypeKeyCandidate.
type Candidate interface {
	Type() *typesystem.Type
	OriginalType() *typesystem.Type
	Dependencies() []Request
	// DependencyScope is the scope dependencies resolve in; nil means the
	// requesting scope.
	DependencyScope() *Scope
	OwnerScope() *Scope
	// ChainName identifies the candidate for divergence detection.
	ChainName() string
	isCandidate()
}

// CallableCandidate is a declared (or spread-derived) callable whose type
// variables were fixed against a request.
type CallableCandidate struct {
	Callable *Callable
	Owner    *Scope
	requests []Request
}

func newCallableCandidate(c *Callable, owner *Scope) *CallableCandidate {
	return &CallableCandidate{Callable: c, Owner: owner, requests: c.Requests()}
}

func (c *CallableCandidate) Type() *typesystem.Type         { return c.Callable.Type }
func (c *CallableCandidate) OriginalType() *typesystem.Type { return c.Callable.OriginalType }
func (c *CallableCandidate) Dependencies() []Request        { return c.requests }
func (c *CallableCandidate) DependencyScope() *Scope        { return nil }
func (c *CallableCandidate) OwnerScope() *Scope             { return c.Owner }
func (c *CallableCandidate) ChainName() string              { return c.Callable.Name }
func (c *CallableCandidate) isCandidate()                   {}

// IsSpread reports whether the callable was produced by a spreading
// declaration.
func (c *CallableCandidate) IsSpread() bool { return c.Callable.SpreadOrigin != nil }

// ListCandidate aggregates every visible element for a List<E> request.
// Each element is requested through a unique-id pinned type so it resolves
// to exactly the callable it was collected from.
type ListCandidate struct {
	typ                   *typesystem.Type
	Owner                 *Scope
	SingleElementType     *typesystem.Type
	CollectionElementType *typesystem.Type
	Elements              []*typesystem.Type
	requests              []Request
}

func newListCandidate(t *typesystem.Type, owner *Scope, single, collection *typesystem.Type, elements []*typesystem.Type) *ListCandidate {
	l := &ListCandidate{
		typ:                   t,
		Owner:                 owner,
		SingleElementType:     single,
		CollectionElementType: collection,
		Elements:              elements,
	}
	for i, e := range elements {
		l.requests = append(l.requests, Request{
			Type:         e,
			Name:         "element" + strconv.Itoa(i),
			CallableName: l.ChainName(),
			Position:     i,
			Required:     true,
		})
	}
	return l
}

func (l *ListCandidate) Type() *typesystem.Type { return l.typ }
func (l *ListCandidate) OriginalType() *typesystem.Type {
	return typesystem.ListClassifier.DefaultType()
}
func (l *ListCandidate) Dependencies() []Request { return l.requests }
func (l *ListCandidate) DependencyScope() *Scope { return nil }
func (l *ListCandidate) OwnerScope() *Scope      { return l.Owner }
func (l *ListCandidate) ChainName() string {
	return config.ListOfFuncName + "<" + l.SingleElementType.String() + ">"
}
func (l *ListCandidate) isCandidate() {}

// LambdaCandidate satisfies a function-typed request by resolving the
// result type in a child scope that provides the lambda parameters.
type LambdaCandidate struct {
	typ        *typesystem.Type
	Owner      *Scope
	Scope      *Scope
	Parameters []*Callable
	requests   []Request
}

func (l *LambdaCandidate) Type() *typesystem.Type { return l.typ }
func (l *LambdaCandidate) OriginalType() *typesystem.Type {
	return l.typ.Classifier.DefaultType()
}
func (l *LambdaCandidate) Dependencies() []Request { return l.requests }
func (l *LambdaCandidate) DependencyScope() *Scope { return l.Scope }
func (l *LambdaCandidate) OwnerScope() *Scope      { return l.Owner }
func (l *LambdaCandidate) ChainName() string       { return config.LambdaFuncName }
func (l *LambdaCandidate) isCandidate()            {}

// TypeKeyCandidate produces a runtime witness of a type. It needs a witness
// for every type parameter occurring in the type.
type TypeKeyCandidate struct {
	typ      *typesystem.Type
	Owner    *Scope
	requests []Request
}

func newTypeKeyCandidate(t *typesystem.Type, owner *Scope) *TypeKeyCandidate {
	k := &TypeKeyCandidate{typ: t, Owner: owner}
	seen := map[string]bool{}
	for _, inner := range t.Arguments[0].AllTypes() {
		p := inner.Classifier
		if !p.IsTypeParameter || seen[p.Key] {
			continue
		}
		seen[p.Key] = true
		k.requests = append(k.requests, Request{
			Type:         typesystem.NewType(typesystem.TypeKeyClassifier, p.DefaultType().WithVariance(typesystem.Inv)),
			Name:         p.FqName + "Key",
			CallableName: k.ChainName(),
			Position:     len(k.requests),
			Required:     true,
		})
	}
	return k
}

func (k *TypeKeyCandidate) Type() *typesystem.Type         { return k.typ }
func (k *TypeKeyCandidate) OriginalType() *typesystem.Type { return k.typ }
func (k *TypeKeyCandidate) Dependencies() []Request        { return k.requests }
func (k *TypeKeyCandidate) DependencyScope() *Scope        { return k.Owner }
func (k *TypeKeyCandidate) OwnerScope() *Scope             { return k.Owner }
func (k *TypeKeyCandidate) ChainName() string {
	return config.TypeKeyOfName + "<" + k.typ.Arguments[0].String() + ">"
}
func (k *TypeKeyCandidate) isCandidate() {}
