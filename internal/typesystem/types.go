package typesystem

import (
	"github.com/funvibe/givens/internal/config"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// Variance is the variance of a type parameter (declaration site) or of a
// type argument (use site).
type Variance int

const (
	Inv Variance = iota
	In
	Out
)

func (v Variance) String() string {
	switch v {
	case In:
		return "in"
	case Out:
		return "out"
	default:
		return "inv"
	}
}

// EffectiveVariance returns the first non-invariant of declared, useSite and
// originalDeclared.
func EffectiveVariance(declared, useSite, originalDeclared Variance) Variance {
	if declared != Inv {
		return declared
	}
	if useSite != Inv {
		return useSite
	}
	return originalDeclared
}

// Classifier is the identity of a nominal type or of a type parameter.
// Two classifiers denote the same thing iff their keys are equal.
type Classifier struct {
	Key            string
	FqName         string
	TypeParameters []*Classifier
	// LazySuperTypes is evaluated at most once, on first access, so that
	// declarations may reference each other in any order.
	LazySuperTypes  func() []*Type
	IsTypeParameter bool
	IsTag           bool
	IsSpread        bool
	IsReified       bool
	Variance        Variance
	Tags            []*Type

	superOnce   sync.Once
	superTypes  []*Type
	defaultOnce sync.Once
	defaultType *Type
}

// Is reports whether c and other denote the same classifier.
func (c *Classifier) Is(other *Classifier) bool {
	if c == other {
		return true
	}
	if c == nil || other == nil {
		return false
	}
	return c.Key == other.Key
}

func (c *Classifier) String() string {
	if c.FqName != "" {
		return c.FqName
	}
	return c.Key
}

// SuperTypes returns the declared supertypes. A classifier without declared
// supertypes extends Any; a type parameter without bounds extends Any?.
func (c *Classifier) SuperTypes() []*Type {
	c.superOnce.Do(func() {
		if c.LazySuperTypes != nil {
			c.superTypes = c.LazySuperTypes()
		}
		if len(c.superTypes) > 0 {
			return
		}
		switch {
		case c.Key == config.AnyTypeName, c.Key == config.NothingTypeName, c.Key == starKey:
		case c.IsTypeParameter:
			c.superTypes = []*Type{NullableAnyType()}
		default:
			c.superTypes = []*Type{AnyType()}
		}
	})
	return c.superTypes
}

// DefaultType is the classifier applied to its own type parameters and
// wrapped in its declared tags.
func (c *Classifier) DefaultType() *Type {
	c.defaultOnce.Do(func() {
		var args []*Type
		if len(c.TypeParameters) > 0 {
			args = make([]*Type, len(c.TypeParameters))
			for i, p := range c.TypeParameters {
				args[i] = p.DefaultType()
			}
		}
		c.defaultType = WrapTags(c.Tags, &Type{Classifier: c, Arguments: args, Variance: c.Variance})
	})
	return c.defaultType
}

// Type is a classifier applied to type arguments. Values are immutable:
// every With* method returns a modified copy.
type Type struct {
	Classifier *Classifier
	Arguments  []*Type
	Nullable   bool
	Star       bool
	// Provide marks a function type whose value is itself a provider.
	Provide bool
	// UniqueID pins the type to exactly one registered candidate.
	UniqueID string
	Variance Variance
	// Source is the type variable this type was derived from during
	// constraint propagation. Not part of the type's identity.
	Source *Classifier
}

const starKey = "*"

var starClassifier = &Classifier{Key: starKey, FqName: starKey}

// StarProjection matches any type argument.
var StarProjection = &Type{Classifier: starClassifier, Star: true}

// NewType applies c to args. It panics when the argument count does not
// match the declared type parameters.
func NewType(c *Classifier, args ...*Type) *Type {
	if len(args) != len(c.TypeParameters) {
		panic("typesystem: argument count mismatch for " + c.String() + ": want " +
			strconv.Itoa(len(c.TypeParameters)) + ", got " + strconv.Itoa(len(args)))
	}
	if len(args) == 0 {
		args = nil
	}
	return &Type{Classifier: c, Arguments: args}
}

func (t *Type) copy() *Type {
	c := *t
	return &c
}

func (t *Type) WithArguments(args []*Type) *Type {
	if sameTypes(t.Arguments, args) {
		return t
	}
	c := t.copy()
	c.Arguments = args
	return c
}

func (t *Type) WithNullability(nullable bool) *Type {
	if t.Nullable == nullable {
		return t
	}
	c := t.copy()
	c.Nullable = nullable
	return c
}

func (t *Type) WithVariance(v Variance) *Type {
	if t.Variance == v {
		return t
	}
	c := t.copy()
	c.Variance = v
	return c
}

func (t *Type) WithSource(source *Classifier) *Type {
	c := t.copy()
	c.Source = source
	return c
}

func (t *Type) WithUniqueID(id string) *Type {
	if t.UniqueID == id {
		return t
	}
	c := t.copy()
	c.UniqueID = id
	return c
}

func (t *Type) WithProvide(provide bool) *Type {
	if t.Provide == provide {
		return t
	}
	c := t.copy()
	c.Provide = provide
	return c
}

// Equal is structural identity: classifier, arguments, nullability, star,
// provide flag, unique id and variance.
func (t *Type) Equal(o *Type) bool {
	if t == o {
		return true
	}
	if t == nil || o == nil {
		return false
	}
	if !t.Classifier.Is(o.Classifier) ||
		t.Nullable != o.Nullable ||
		t.Star != o.Star ||
		t.Provide != o.Provide ||
		t.UniqueID != o.UniqueID ||
		t.Variance != o.Variance {
		return false
	}
	return sameTypes(t.Arguments, o.Arguments)
}

func sameTypes(a, b []*Type) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

// Key is a canonical string for the type's identity, usable as a map key.
func (t *Type) Key() string {
	var sb strings.Builder
	t.writeKey(&sb)
	return sb.String()
}

func (t *Type) writeKey(sb *strings.Builder) {
	if t.Variance != Inv {
		sb.WriteString(t.Variance.String())
		sb.WriteByte(' ')
	}
	if t.Star {
		sb.WriteByte('*')
	} else {
		sb.WriteString(t.Classifier.Key)
	}
	if len(t.Arguments) > 0 {
		sb.WriteByte('<')
		for i, a := range t.Arguments {
			if i > 0 {
				sb.WriteByte(',')
			}
			a.writeKey(sb)
		}
		sb.WriteByte('>')
	}
	if t.Nullable {
		sb.WriteByte('?')
	}
	if t.Provide {
		sb.WriteString("!p")
	}
	if t.UniqueID != "" {
		sb.WriteByte('#')
		sb.WriteString(t.UniqueID)
	}
}

// SuperTypes returns the classifier's supertypes instantiated with this
// type's arguments and carrying this type's nullability.
func (t *Type) SuperTypes() []*Type {
	declared := t.Classifier.SuperTypes()
	if len(declared) == 0 {
		return nil
	}
	subst := make(Subst, len(t.Classifier.TypeParameters))
	for i, p := range t.Classifier.TypeParameters {
		if i < len(t.Arguments) {
			subst[p.Key] = t.Arguments[i]
		}
	}
	result := make([]*Type, len(declared))
	for i, s := range declared {
		result[i] = s.Substitute(subst).WithNullability(t.Nullable)
	}
	return result
}

// AllTypes returns this type, its arguments and its supertypes, recursively
// and without duplicates, in discovery order.
func (t *Type) AllTypes() []*Type {
	seen := make(map[string]bool)
	var result []*Type
	var collect func(*Type)
	collect = func(inner *Type) {
		k := inner.Key()
		if seen[k] {
			return
		}
		seen[k] = true
		result = append(result, inner)
		for _, a := range inner.Arguments {
			collect(a)
		}
		for _, s := range inner.SuperTypes() {
			collect(s)
		}
	}
	collect(t)
	return result
}

// AnyType reports whether pred holds for t or any of its arguments.
func (t *Type) AnyType(pred func(*Type) bool) bool {
	if pred(t) {
		return true
	}
	for _, a := range t.Arguments {
		if a.AnyType(pred) {
			return true
		}
	}
	return false
}

// AnySuperType reports whether pred holds for t or any of its supertypes.
func (t *Type) AnySuperType(pred func(*Type) bool) bool {
	if pred(t) {
		return true
	}
	for _, s := range t.SuperTypes() {
		if s.AnySuperType(pred) {
			return true
		}
	}
	return false
}

// IsNullableType is true for marked nullable types and for types whose
// supertypes admit null (e.g. an unbounded type parameter).
func (t *Type) IsNullableType() bool {
	if t.Nullable {
		return true
	}
	for _, s := range t.SuperTypes() {
		if s.IsNullableType() {
			return true
		}
	}
	return false
}

// SubtypeView finds t's instantiation of classifier c in its supertype graph.
func (t *Type) SubtypeView(c *Classifier) *Type {
	if t.Classifier.Is(c) {
		return t
	}
	for _, s := range t.SuperTypes() {
		if v := s.SubtypeView(c); v != nil {
			return v
		}
	}
	return nil
}

// TypeDepth is the nesting depth of the argument tree.
func (t *Type) TypeDepth() int {
	max := 0
	for _, a := range t.Arguments {
		if d := a.TypeDepth(); d > max {
			max = d
		}
	}
	return max + 1
}

// TypeSize counts the nodes of the argument tree.
func (t *Type) TypeSize() int {
	size := 1
	for _, a := range t.Arguments {
		size += a.TypeSize()
	}
	return size
}

// CoveringSet returns the sorted set of classifier keys in the argument tree.
func (t *Type) CoveringSet() []string {
	seen := make(map[string]bool)
	var keys []string
	var visit func(*Type)
	visit = func(inner *Type) {
		if !seen[inner.Classifier.Key] {
			seen[inner.Classifier.Key] = true
			keys = append(keys, inner.Classifier.Key)
		}
		for _, a := range inner.Arguments {
			visit(a)
		}
	}
	visit(t)
	sort.Strings(keys)
	return keys
}

// IsUnconstrained reports whether t is a free type parameter whose bounds
// are all Any (or themselves unconstrained).
func (t *Type) IsUnconstrained(static []*Classifier) bool {
	if !t.Classifier.IsTypeParameter || containsClassifier(static, t.Classifier) {
		return false
	}
	for _, s := range t.Classifier.SuperTypes() {
		if s.Classifier.Key != config.AnyTypeName && !s.IsUnconstrained(static) {
			return false
		}
	}
	return true
}

func containsClassifier(list []*Classifier, c *Classifier) bool {
	for _, e := range list {
		if e.Is(c) {
			return true
		}
	}
	return false
}

// Subst maps type parameter keys to their replacements.
type Subst map[string]*Type

// Substitute replaces type parameters according to s. Star-projected
// occurrences take the replacement's nullability, other occurrences keep
// their own nullability as well.
func (t *Type) Substitute(s Subst) *Type {
	if len(s) == 0 {
		return t
	}
	if repl, ok := s[t.Classifier.Key]; ok {
		nullable := t.Nullable || repl.Nullable
		if t.Star {
			nullable = repl.Nullable
		}
		provide := t.Provide || repl.Provide
		variance := t.Variance
		if repl.Variance != Inv {
			variance = repl.Variance
		}
		if nullable != repl.Nullable || provide != repl.Provide || variance != repl.Variance {
			c := repl.copy()
			c.Nullable = nullable
			c.Provide = provide
			c.Variance = variance
			return c
		}
		return repl
	}
	if len(t.Arguments) == 0 {
		return t
	}
	var args []*Type
	for i, a := range t.Arguments {
		na := a.Substitute(s)
		if na != a && args == nil {
			args = make([]*Type, len(t.Arguments))
			copy(args, t.Arguments[:i])
		}
		if args != nil {
			args[i] = na
		}
	}
	if args == nil {
		return t
	}
	c := t.copy()
	c.Arguments = args
	return c
}

// Wrap places inner as the wrapped (last) argument of the tag type t.
func (t *Type) Wrap(inner *Type) *Type {
	var args []*Type
	if len(t.Arguments) < len(t.Classifier.TypeParameters) {
		args = append(append(args, t.Arguments...), inner)
	} else {
		args = append(append(args, t.Arguments[:len(t.Arguments)-1]...), inner)
	}
	c := t.copy()
	c.Arguments = args
	return c
}

// WrapTags wraps t in tags; the first tag ends up outermost.
func WrapTags(tags []*Type, t *Type) *Type {
	result := t
	for i := len(tags) - 1; i >= 0; i-- {
		result = tags[i].Wrap(result)
	}
	return result
}

// UnwrapTags strips tag wrappers and returns the underlying type.
func (t *Type) UnwrapTags() *Type {
	if !t.Classifier.IsTag || len(t.Arguments) == 0 {
		return t
	}
	return t.Arguments[len(t.Arguments)-1].UnwrapTags()
}

// IsFunctionType reports whether t is one of the FunctionN classifiers.
func (t *Type) IsFunctionType() bool {
	_, ok := FunctionArity(t.Classifier)
	return ok
}
