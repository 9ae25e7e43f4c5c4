package typesystem

import (
	"github.com/funvibe/givens/internal/config"
	"strconv"
	"strings"
	"sync"
)

// Built-in classifiers. They are immutable after package initialization and
// shared by every session.
var (
	AnyClassifier     = &Classifier{Key: config.AnyTypeName, FqName: config.AnyTypeName}
	NothingClassifier = &Classifier{Key: config.NothingTypeName, FqName: config.NothingTypeName}

	CollectionClassifier = newContainer(config.CollectionTypeName, nil)
	ListClassifier       = newContainer(config.ListTypeName, CollectionClassifier)
	TypeKeyClassifier    = &Classifier{
		Key:            config.TypeKeyTypeName,
		FqName:         config.TypeKeyTypeName,
		TypeParameters: []*Classifier{NewTypeParameter(config.TypeKeyTypeName+".T", "T", Inv)},
	}
	// FunctionClassifier is the common supertype of every FunctionN.
	FunctionClassifier = &Classifier{Key: config.FunctionTypeName, FqName: config.FunctionTypeName}

	IntClassifier     = &Classifier{Key: config.IntTypeName, FqName: config.IntTypeName}
	LongClassifier    = &Classifier{Key: config.LongTypeName, FqName: config.LongTypeName}
	DoubleClassifier  = &Classifier{Key: config.DoubleTypeName, FqName: config.DoubleTypeName}
	BooleanClassifier = &Classifier{Key: config.BooleanTypeName, FqName: config.BooleanTypeName}
	StringClassifier  = &Classifier{Key: config.StringTypeName, FqName: config.StringTypeName}
	UnitClassifier    = &Classifier{Key: config.UnitTypeName, FqName: config.UnitTypeName}
)

var (
	anyType             = &Type{Classifier: AnyClassifier}
	nullableAnyType     = &Type{Classifier: AnyClassifier, Nullable: true}
	nothingType         = &Type{Classifier: NothingClassifier}
	nullableNothingType = &Type{Classifier: NothingClassifier, Nullable: true}
)

func AnyType() *Type             { return anyType }
func NullableAnyType() *Type     { return nullableAnyType }
func NothingType() *Type         { return nothingType }
func NullableNothingType() *Type { return nullableNothingType }

// Builtins lists the built-in classifiers by key, for name resolution.
func Builtins() map[string]*Classifier {
	m := map[string]*Classifier{}
	for _, c := range []*Classifier{
		AnyClassifier, NothingClassifier, CollectionClassifier, ListClassifier,
		TypeKeyClassifier, FunctionClassifier, IntClassifier, LongClassifier,
		DoubleClassifier, BooleanClassifier, StringClassifier, UnitClassifier,
	} {
		m[c.Key] = c
	}
	return m
}

// NewTypeParameter creates a type parameter classifier without bounds.
func NewTypeParameter(key, name string, variance Variance) *Classifier {
	return &Classifier{Key: key, FqName: name, IsTypeParameter: true, Variance: variance}
}

func newContainer(name string, super *Classifier) *Classifier {
	e := NewTypeParameter(name+".E", "E", Out)
	c := &Classifier{Key: name, FqName: name, TypeParameters: []*Classifier{e}}
	if super != nil {
		c.LazySuperTypes = func() []*Type {
			return []*Type{NewType(super, e.DefaultType())}
		}
	}
	return c
}

func IsAny(c *Classifier) bool     { return c.Key == config.AnyTypeName }
func IsNothing(c *Classifier) bool { return c.Key == config.NothingTypeName }

var (
	functionsMu sync.Mutex
	functions   = map[int]*Classifier{}
)

// FunctionN returns the classifier FunctionN<in P1, ..., in Pn, out R>.
func FunctionN(arity int) *Classifier {
	functionsMu.Lock()
	defer functionsMu.Unlock()
	if c, ok := functions[arity]; ok {
		return c
	}
	name := config.FunctionTypeName + strconv.Itoa(arity)
	params := make([]*Classifier, 0, arity+1)
	for i := 1; i <= arity; i++ {
		p := "P" + strconv.Itoa(i)
		params = append(params, NewTypeParameter(name+"."+p, p, In))
	}
	params = append(params, NewTypeParameter(name+".R", "R", Out))
	c := &Classifier{
		Key:            name,
		FqName:         name,
		TypeParameters: params,
		LazySuperTypes: func() []*Type { return []*Type{FunctionClassifier.DefaultType()} },
	}
	functions[arity] = c
	return c
}

// NewFunctionType builds FunctionN<params..., result>.
func NewFunctionType(result *Type, params ...*Type) *Type {
	args := append(append([]*Type{}, params...), result)
	return NewType(FunctionN(len(params)), args...)
}

// FunctionArity reports the arity of a FunctionN classifier.
func FunctionArity(c *Classifier) (int, bool) {
	rest, ok := strings.CutPrefix(c.Key, config.FunctionTypeName)
	if !ok || rest == "" || c.IsTypeParameter {
		return 0, false
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n < 0 || len(c.TypeParameters) != n+1 {
		return 0, false
	}
	return n, true
}

// NewTagClassifier creates a tag classifier. The wrapped type is passed as an
// extra trailing out-projected type parameter.
func NewTagClassifier(key, name string, params ...*Classifier) *Classifier {
	target := NewTypeParameter(key+"."+config.TagTargetParam, config.TagTargetParam, Out)
	return &Classifier{
		Key:            key,
		FqName:         name,
		TypeParameters: append(append([]*Classifier{}, params...), target),
		IsTag:          true,
	}
}

// Tag returns a tag type ready to wrap another type: all parameters but the
// wrapped one are bound to args.
func Tag(c *Classifier, args ...*Type) *Type {
	return &Type{Classifier: c, Arguments: append([]*Type{}, args...)}
}
