package symbols

import (
	"github.com/funvibe/givens/internal/typesystem"
	"sort"
)

type Visibility int

const (
	Public Visibility = iota
	Private
)

func (v Visibility) String() string {
	if v == Private {
		return "private"
	}
	return "public"
}

// Reserved parameter positions for receivers.
const (
	DispatchReceiverIndex  = -1
	ExtensionReceiverIndex = -2
)

type Parameter struct {
	Index      int
	Name       string
	Type       *typesystem.Type
	Inject     bool // filled by resolution rather than by the caller
	HasDefault bool
}

// Callable is a declaration that can provide a value of Type.
// Callables are never mutated after construction; Substitute and the With*
// methods return new values.
type Callable struct {
	Name         string
	Type         *typesystem.Type
	OriginalType *typesystem.Type
	Parameters   []Parameter
	// TypeParameters are the declared type parameters; TypeArguments holds
	// their current binding by key.
	TypeParameters []*typesystem.Classifier
	TypeArguments  typesystem.Subst
	Visibility     Visibility
	// Owner names the declaration unit (file, class) a private callable
	// belongs to.
	Owner string
	// SpreadOrigin is the spreading declaration this callable was produced from.
	SpreadOrigin *Callable
}

// NewCallable creates a public callable whose type parameters are bound to
// themselves.
func NewCallable(name string, typ *typesystem.Type, typeParameters []*typesystem.Classifier, params ...Parameter) *Callable {
	args := make(typesystem.Subst, len(typeParameters))
	for _, p := range typeParameters {
		args[p.Key] = p.DefaultType()
	}
	return &Callable{
		Name:           name,
		Type:           typ,
		OriginalType:   typ,
		Parameters:     params,
		TypeParameters: typeParameters,
		TypeArguments:  args,
	}
}

func (c *Callable) String() string {
	return c.Name + ": " + c.Type.String()
}

func (c *Callable) copy() *Callable {
	n := *c
	n.Parameters = append([]Parameter(nil), c.Parameters...)
	return &n
}

// ParameterTypes maps parameter positions to their types.
func (c *Callable) ParameterTypes() map[int]*typesystem.Type {
	m := make(map[int]*typesystem.Type, len(c.Parameters))
	for _, p := range c.Parameters {
		m[p.Index] = p.Type
	}
	return m
}

// Substitute applies s to the callable's type, parameters and type
// arguments.
func (c *Callable) Substitute(s typesystem.Subst) *Callable {
	if len(s) == 0 {
		return c
	}
	n := c.copy()
	n.Type = c.Type.Substitute(s)
	for i := range n.Parameters {
		n.Parameters[i].Type = n.Parameters[i].Type.Substitute(s)
	}
	n.TypeArguments = make(typesystem.Subst, len(c.TypeArguments))
	for k, v := range c.TypeArguments {
		n.TypeArguments[k] = v.Substitute(s)
	}
	return n
}

// WithDispatchReceiver binds the dispatch receiver parameter to t, adding it
// when absent.
func (c *Callable) WithDispatchReceiver(t *typesystem.Type) *Callable {
	n := c.copy()
	for i, p := range n.Parameters {
		if p.Index == DispatchReceiverIndex {
			n.Parameters[i].Type = t
			n.Parameters[i].Inject = true
			return n
		}
	}
	receiver := Parameter{Index: DispatchReceiverIndex, Name: "<this>", Type: t, Inject: true}
	n.Parameters = append([]Parameter{receiver}, n.Parameters...)
	return n
}

func (c *Callable) WithSpreadOrigin(origin *Callable) *Callable {
	n := c.copy()
	n.SpreadOrigin = origin
	return n
}

// DispatchReceiver returns the dispatch receiver type, if any.
func (c *Callable) DispatchReceiver() *typesystem.Type {
	for _, p := range c.Parameters {
		if p.Index == DispatchReceiverIndex {
			return p.Type
		}
	}
	return nil
}

// SpreadParameter returns the spread type parameter while it is still
// unbound. A callable with an unbound spread parameter is not a candidate
// itself; it is expanded over the other candidates of its scope.
func (c *Callable) SpreadParameter() *typesystem.Classifier {
	if c.SpreadOrigin != nil {
		return nil
	}
	for _, p := range c.TypeParameters {
		if !p.IsSpread {
			continue
		}
		arg, ok := c.TypeArguments[p.Key]
		if !ok || arg.Classifier.Is(p) {
			return p
		}
	}
	return nil
}

// FreeTypeParameters lists the type parameters still bound to themselves.
func (c *Callable) FreeTypeParameters() []*typesystem.Classifier {
	var free []*typesystem.Classifier
	for _, p := range c.TypeParameters {
		if arg, ok := c.TypeArguments[p.Key]; !ok || arg.Classifier.Is(p) {
			free = append(free, p)
		}
	}
	return free
}

// Requests returns one request per receiver and per injected parameter,
// receivers first.
func (c *Callable) Requests() []Request {
	var requests []Request
	for _, p := range c.Parameters {
		if p.Index >= 0 && !p.Inject {
			continue
		}
		requests = append(requests, Request{
			Type:         p.Type,
			Name:         p.Name,
			CallableName: c.Name,
			Position:     p.Index,
			Required:     !p.HasDefault,
		})
	}
	sort.SliceStable(requests, func(i, j int) bool {
		return requests[i].Position < requests[j].Position
	})
	return requests
}
