// symbols/scope.go - Candidate scopes
//
// The scope tree is split across:
// - scope.go: Scope struct, construction, lookup and visibility
// - scope_spreading.go: expansion of spreading declarations
// - scope_framework.go: lambda, list and type key candidates
// - session.go: per-resolution cache and module registry

package symbols

import (
	"github.com/funvibe/givens/internal/typesystem"
	"github.com/hashicorp/go-set/v3"
	"strings"
)

type ScopeKind int

const (
	ScopeFile ScopeKind = iota
	ScopeClass
	ScopeFunction
	ScopeBlock
	ScopeLambda
)

var scopeKindNames = map[ScopeKind]string{
	ScopeFile:     "file",
	ScopeClass:    "class",
	ScopeFunction: "function",
	ScopeBlock:    "block",
	ScopeLambda:   "lambda",
}

func (k ScopeKind) String() string { return scopeKindNames[k] }

// ParseScopeKind maps a kind name to its ScopeKind.
func ParseScopeKind(name string) (ScopeKind, bool) {
	for k, n := range scopeKindNames {
		if n == name {
			return k, true
		}
	}
	return 0, false
}

// Scope is a node of the lexical candidate tree. A scope sees its own
// callables and those of every ancestor, filtered by the visibility
// predicates along the way.
//
// Scopes memoize lookups and are not safe for concurrent use. Build one
// tree per resolution.
type Scope struct {
	Name string
	Kind ScopeKind

	parent         *Scope
	session        *Session
	owner          string
	typeParameters []*typesystem.Classifier
	visibility     func(*Callable) bool
	nesting        int

	allScopes []*Scope
	allStatic []*typesystem.Classifier

	callables []*Callable
	// elements holds unique-id pinned copies of callables collected into a
	// list aggregate.
	elements map[string]*Callable

	spreaders   []*spreadingCandidate
	spreadChain []*spreadingCandidate

	byRequest map[string][]*CallableCandidate
	framework map[string]Candidate
}

type ScopeOption func(*scopeConfig)

type scopeConfig struct {
	kind           ScopeKind
	callables      []*Callable
	typeParameters []*typesystem.Classifier
	visibility     func(*Callable) bool
	owner          string
}

func WithKind(kind ScopeKind) ScopeOption {
	return func(c *scopeConfig) { c.kind = kind }
}

func WithCallables(callables ...*Callable) ScopeOption {
	return func(c *scopeConfig) { c.callables = append(c.callables, callables...) }
}

// WithTypeParameters declares type parameters that are fixed for every
// request made from this scope or below.
func WithTypeParameters(params ...*typesystem.Classifier) ScopeOption {
	return func(c *scopeConfig) { c.typeParameters = append(c.typeParameters, params...) }
}

// WithVisibility installs a predicate every candidate must pass for
// requests made from this scope or its descendants.
func WithVisibility(visible func(*Callable) bool) ScopeOption {
	return func(c *scopeConfig) { c.visibility = visible }
}

// WithOwner names the declaration unit of the scope. Private callables are
// visible only below a scope with the same owner.
func WithOwner(owner string) ScopeOption {
	return func(c *scopeConfig) { c.owner = owner }
}

// NewScope creates a scope below parent. A nil session is inherited from
// the parent (or created for a root scope). Spreading declarations are
// expanded before NewScope returns.
func NewScope(session *Session, name string, parent *Scope, opts ...ScopeOption) *Scope {
	cfg := scopeConfig{kind: ScopeBlock}
	if parent == nil {
		cfg.kind = ScopeFile
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if session == nil {
		if parent != nil {
			session = parent.session
		} else {
			session = NewSession()
		}
	}
	if cfg.owner == "" && parent != nil {
		cfg.owner = parent.owner
	}

	s := &Scope{
		Name:           name,
		Kind:           cfg.kind,
		parent:         parent,
		session:        session,
		owner:          cfg.owner,
		typeParameters: cfg.typeParameters,
		visibility:     cfg.visibility,
		elements:       map[string]*Callable{},
		byRequest:      map[string][]*CallableCandidate{},
		framework:      map[string]Candidate{},
	}
	if parent != nil {
		s.nesting = parent.nesting + 1
		s.allScopes = append(append(s.allScopes, parent.allScopes...), s)
		s.allStatic = append(append(s.allStatic, parent.allStatic...), cfg.typeParameters...)
		for _, sp := range parent.spreaders {
			s.spreaders = append(s.spreaders, sp.copy())
		}
	} else {
		s.allScopes = []*Scope{s}
		s.allStatic = append(s.allStatic, cfg.typeParameters...)
	}

	seen := set.New[string](0)
	for _, c := range cfg.callables {
		if c.Owner == "" {
			c = c.withOwner(s.owner)
		}
		s.collect(c, seen,
			func(next *Callable) { s.callables = append(s.callables, next) },
			func(next *Callable) { s.spreaders = append(s.spreaders, newSpreadingCandidate(next)) })
	}

	for _, sp := range append([]*spreadingCandidate(nil), s.spreaders...) {
		s.spreadOverAll(sp)
	}
	return s
}

func (c *Callable) withOwner(owner string) *Callable {
	n := c.copy()
	n.Owner = owner
	return n
}

func (s *Scope) Parent() *Scope      { return s.parent }
func (s *Scope) Session() *Session   { return s.session }
func (s *Scope) Owner() string       { return s.owner }
func (s *Scope) Nesting() int        { return s.nesting }
func (s *Scope) AllScopes() []*Scope { return s.allScopes }

// AllStaticTypeParameters lists the type parameters of this scope and its
// ancestors, root first.
func (s *Scope) AllStaticTypeParameters() []*typesystem.Classifier { return s.allStatic }

// Callables returns the callables declared in this scope, including module
// members and spread results.
func (s *Scope) Callables() []*Callable {
	return append([]*Callable(nil), s.callables...)
}

func (s *Scope) String() string { return "Scope(" + s.Name + ")" }

// collect admits c into the scope. Spreading declarations go to addSpreader;
// everything else goes to addCallable followed by its module members.
func (s *Scope) collect(c *Callable, seen *set.Set[string], addCallable, addSpreader func(*Callable)) {
	if c.SpreadParameter() != nil {
		addSpreader(c)
		return
	}
	addCallable(c)

	inner := c.Type.UnwrapTags()
	if len(s.session.ModuleMembers(inner.Classifier.Key)) == 0 {
		return
	}
	if !seen.Insert(c.Type.Key()) {
		return
	}
	for _, member := range s.moduleMembers(c) {
		s.collect(member, seen, addCallable, addSpreader)
	}
}

// moduleMembers instantiates the registered members of c's module type:
// the classifier's type parameters become the type's arguments and the
// dispatch receiver becomes c's type.
func (s *Scope) moduleMembers(c *Callable) []*Callable {
	return Cached(s.session, "module-members", c.Type.Key()+"@"+c.Owner, func() []*Callable {
		inner := c.Type.UnwrapTags()
		subst := typesystem.Subst{}
		for i, p := range inner.Classifier.TypeParameters {
			if i < len(inner.Arguments) {
				subst[p.Key] = inner.Arguments[i]
			}
		}
		var members []*Callable
		for _, m := range s.session.ModuleMembers(inner.Classifier.Key) {
			member := m.Substitute(subst).WithDispatchReceiver(c.Type)
			if member.Owner == "" {
				member = member.withOwner(c.Owner)
			}
			members = append(members, member)
		}
		return members
	})
}

// IsVisible reports whether c may be used for requests made from s.
func (s *Scope) IsVisible(c *Callable) bool {
	for _, scope := range s.allScopes {
		if scope.visibility != nil && !scope.visibility(c) {
			return false
		}
	}
	if c.Visibility != Private {
		return true
	}
	for _, scope := range s.allScopes {
		if scope.owner == c.Owner {
			return true
		}
	}
	return false
}

func requestKey(t *typesystem.Type, static []*typesystem.Classifier) string {
	var sb strings.Builder
	sb.WriteString(t.Key())
	for _, p := range static {
		sb.WriteByte('|')
		sb.WriteString(p.Key)
	}
	return sb.String()
}

// CandidatesForRequest returns the declared callables of s and its
// ancestors that can provide the request's type, substituted with the
// inferred type arguments and filtered by what requester may see.
// Plain List requests return nothing: lists are always aggregated.
func (s *Scope) CandidatesForRequest(request Request, requester *Scope) []*CallableCandidate {
	t := request.Type
	if t.UniqueID == "" && t.Classifier.Is(typesystem.ListClassifier) {
		return nil
	}
	static := requester.allStatic
	all := s.candidatesForType(t, static, requestKey(t, static))
	var visible []*CallableCandidate
	for _, c := range all {
		if requester.IsVisible(c.Callable) {
			visible = append(visible, c)
		}
	}
	return visible
}

func (s *Scope) candidatesForType(t *typesystem.Type, static []*typesystem.Classifier, key string) []*CallableCandidate {
	if len(s.callables) == 0 && len(s.elements) == 0 {
		if s.parent == nil {
			return nil
		}
		return s.parent.candidatesForType(t, static, key)
	}
	if cached, ok := s.byRequest[key]; ok {
		return cached
	}

	var result []*CallableCandidate
	if s.parent != nil {
		result = append(result, s.parent.candidatesForType(t, static, key)...)
	}

	if t.UniqueID != "" {
		if element, ok := s.elements[t.UniqueID]; ok {
			if c := s.match(element, t, static); c != nil {
				result = append(result, c)
			}
		}
	} else {
		for _, callable := range s.callables {
			if c := s.match(callable, t, static); c != nil {
				result = append(result, c)
			}
		}
	}
	s.byRequest[key] = result
	return result
}

func (s *Scope) match(callable *Callable, t *typesystem.Type, static []*typesystem.Classifier) *CallableCandidate {
	ctx := typesystem.BuildContext(callable.Type, t, static)
	if !ctx.IsOk() {
		return nil
	}
	return newCallableCandidate(callable.Substitute(ctx.FixedTypeVariables()), s)
}
