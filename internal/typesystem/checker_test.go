package typesystem

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func sampleTypes(f *fixture) []*Type {
	return []*Type{
		intType(),
		intType().WithNullability(true),
		AnyType(),
		NullableAnyType(),
		NothingType(),
		f.foo1.DefaultType(),
		f.base.DefaultType(),
		typeOf(ListClassifier, intType()),
		typeOf(CollectionClassifier, f.base.DefaultType()),
		typeOf(f.box, StarProjection),
		typeOf(f.cell, stringType()),
		typeOf(f.sink, f.foo1.DefaultType()),
		Tag(f.qualifier).Wrap(f.foo1.DefaultType()),
		typeParam("T").DefaultType(),
		NewFunctionType(intType(), stringType()),
	}
}

func TestReflexivity(t *testing.T) {
	f := newFixture()
	for _, typ := range sampleTypes(f) {
		t.Run(typ.String(), func(t *testing.T) {
			assert.True(t, IsEqualTo(Checker, typ, typ))
			assert.True(t, IsSubTypeOf(Checker, typ, typ))
		})
	}
}

func TestAntisymmetryAndNullabilityMonotonicity(t *testing.T) {
	f := newFixture()
	types := sampleTypes(f)
	for _, a := range types {
		for _, b := range types {
			if !IsSubTypeOf(Checker, a, b) {
				continue
			}
			if IsSubTypeOf(Checker, b, a) {
				assert.True(t, IsEqualTo(Checker, a, b), "%s and %s are mutual subtypes", a, b)
			}
			assert.True(t, IsSubTypeOf(Checker, a, b.WithNullability(true)), "%s <: %s?", a, b)
		}
	}
}

func TestIsSubTypeOf(t *testing.T) {
	f := newFixture()
	foo1 := f.foo1.DefaultType()
	base := f.base.DefaultType()
	anyT := AnyType()

	tests := []struct {
		name string
		sub  *Type
		sup  *Type
		want bool
	}{
		{"class below Any", intType(), anyT, true},
		{"nullable not below Any", intType().WithNullability(true), anyT, false},
		{"nullable below Any?", intType().WithNullability(true), NullableAnyType(), true},
		{"Nothing is bottom", NothingType(), foo1, true},
		{"Nothing? needs nullable super", NullableNothingType(), foo1, false},
		{"Nothing? below nullable", NullableNothingType(), foo1.WithNullability(true), true},
		{"declared supertype", foo1, base, true},
		{"not the other way", base, foo1, false},
		{"siblings", foo1, f.foo2.DefaultType(), false},
		{"non-null below nullable", foo1, base.WithNullability(true), true},
		{"list below collection", typeOf(ListClassifier, foo1), typeOf(CollectionClassifier, foo1), true},
		{"covariant argument", typeOf(ListClassifier, foo1), typeOf(CollectionClassifier, base), true},
		{"covariant wrong way", typeOf(f.box, base), typeOf(f.box, foo1), false},
		{"invariant argument", typeOf(f.cell, foo1), typeOf(f.cell, base), false},
		{"use-site out", typeOf(f.cell, foo1), typeOf(f.cell, base.WithVariance(Out)), true},
		{"contravariant argument", typeOf(f.sink, base), typeOf(f.sink, foo1), true},
		{"contravariant wrong way", typeOf(f.sink, foo1), typeOf(f.sink, base), false},
		{"star accepts anything", typeOf(f.cell, foo1), typeOf(f.cell, StarProjection), true},
		{"star argument matches a concrete one", typeOf(f.cell, StarProjection), typeOf(f.cell, foo1), true},
		{"star argument under covariance", typeOf(f.box, StarProjection), typeOf(f.box, base), true},
		{"star argument keeps the classifier check", typeOf(f.cell, StarProjection), typeOf(f.box, foo1), false},
		{"function parameters are contravariant",
			NewFunctionType(foo1, base), NewFunctionType(base, foo1), true},
		{"function below Function", NewFunctionType(foo1), FunctionClassifier.DefaultType(), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsSubTypeOf(Checker, tt.sub, tt.sup), "%s <: %s", tt.sub, tt.sup)
		})
	}
}

func TestTagsAreDistinct(t *testing.T) {
	f := newFixture()
	foo1 := f.foo1.DefaultType()
	tagged := Tag(f.qualifier).Wrap(foo1)

	assert.False(t, IsSubTypeOf(Checker, tagged, foo1))
	assert.False(t, IsSubTypeOf(Checker, foo1, tagged))
	assert.True(t, IsSubTypeOf(Checker, tagged, Tag(f.qualifier).Wrap(f.base.DefaultType())))
	assert.True(t, tagged.UnwrapTags().Equal(foo1))
	assert.Equal(t, "@Qualifier Foo1", tagged.String())
}

func TestIsEqualTo(t *testing.T) {
	f := newFixture()
	foo1 := f.foo1.DefaultType()

	assert.True(t, IsEqualTo(Checker, typeOf(f.cell, StarProjection), typeOf(f.cell, StarProjection)))
	assert.False(t, IsEqualTo(Checker, foo1, foo1.WithNullability(true)))
	assert.False(t, IsEqualTo(Checker, typeOf(f.cell, foo1), typeOf(f.cell, f.foo2.DefaultType())))
	assert.False(t, IsEqualTo(Checker, foo1, f.foo2.DefaultType()))
}
