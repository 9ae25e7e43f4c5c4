package typesystem

import (
	"testing"

	"github.com/hashicorp/go-set/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildContextInfersArguments(t *testing.T) {
	f := newFixture()
	tp := typeParam("T")

	ctx := BuildContext(typeOf(f.box, tp.DefaultType()), typeOf(f.box, stringType()), nil)

	require.True(t, ctx.IsOk())
	got := ctx.FixedTypeVariables()["T"]
	require.NotNil(t, got)
	assert.True(t, got.Equal(stringType()), got.String())
	assert.Equal(t, []string{"T"}, ctx.FixedOrder())
}

func TestBuildContextRespectsBounds(t *testing.T) {
	f := newFixture()
	bounded := typeParam("T", f.base.DefaultType())

	t.Run("bound satisfied", func(t *testing.T) {
		ctx := BuildContext(bounded.DefaultType(), f.foo1.DefaultType(), nil)
		require.True(t, ctx.IsOk())
		got := ctx.FixedTypeVariables()["T"]
		assert.True(t, got.Equal(f.foo1.DefaultType()), got.String())
	})

	t.Run("bound violated", func(t *testing.T) {
		ctx := BuildContext(typeOf(ListClassifier, bounded.DefaultType()), typeOf(ListClassifier, intType()), nil)
		assert.False(t, ctx.IsOk())
		assert.NotEmpty(t, ctx.Errors())
	})
}

func TestBuildContextNullableBound(t *testing.T) {
	f := newFixture()
	foo1 := f.foo1.DefaultType()

	tests := []struct {
		name    string
		generic *Classifier
	}{
		{"covariant argument", f.box},
		{"invariant argument", f.cell},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tp := typeParam("T", foo1.WithNullability(true))
			ctx := BuildContext(typeOf(tt.generic, tp.DefaultType()), typeOf(tt.generic, foo1), nil)

			require.True(t, ctx.IsOk(), "%v", ctx.Errors())
			got := ctx.FixedTypeVariables()["T"]
			require.NotNil(t, got)
			assert.True(t, got.Equal(foo1), got.String())
		})
	}
}

func TestBuildContextMismatch(t *testing.T) {
	ctx := BuildContext(intType(), stringType(), nil)
	assert.False(t, ctx.IsOk())
	require.Len(t, ctx.Errors(), 1)
	assert.Contains(t, ctx.Errors()[0].Error(), "Int is not a subtype of String")
}

func TestBuildContextStaticParameters(t *testing.T) {
	f := newFixture()
	tp := typeParam("T")

	t.Run("static parameter only matches itself", func(t *testing.T) {
		ctx := BuildContext(typeOf(f.cell, tp.DefaultType()), typeOf(f.cell, stringType()), []*Classifier{tp})
		assert.False(t, ctx.IsOk())
		assert.Empty(t, ctx.FixedTypeVariables())
	})

	t.Run("static parameter against itself", func(t *testing.T) {
		ctx := BuildContext(typeOf(f.cell, tp.DefaultType()), typeOf(f.cell, tp.DefaultType()), []*Classifier{tp})
		assert.True(t, ctx.IsOk())
	})
}

// Whatever the solver answers, the substituted candidate must be a subtype
// of the request.
func TestBuildContextSolutionsAreSound(t *testing.T) {
	f := newFixture()
	tp := typeParam("T")
	bounded := typeParam("B", f.base.DefaultType())

	tests := []struct {
		candidate *Type
		request   *Type
	}{
		{typeOf(f.box, tp.DefaultType()), typeOf(f.box, f.base.DefaultType())},
		{typeOf(f.cell, tp.DefaultType()), typeOf(f.cell, intType())},
		{typeOf(f.sink, tp.DefaultType()), typeOf(f.sink, f.foo1.DefaultType())},
		{typeOf(ListClassifier, tp.DefaultType()), typeOf(CollectionClassifier, stringType())},
		{NewFunctionType(tp.DefaultType(), intType()), NewFunctionType(AnyType(), intType())},
		{bounded.DefaultType(), f.base.DefaultType()},
		{tp.DefaultType().WithNullability(true), intType().WithNullability(true)},
	}
	for _, tt := range tests {
		t.Run(tt.candidate.String()+" <: "+tt.request.String(), func(t *testing.T) {
			ctx := BuildContext(tt.candidate, tt.request, nil)
			require.True(t, ctx.IsOk(), "%v", ctx.Errors())
			substituted := tt.candidate.Substitute(ctx.FixedTypeVariables())
			assert.True(t, IsSubTypeOf(Checker, substituted, tt.request), "%s <: %s", substituted, tt.request)
		})
	}
}

func TestBuildSpreadingContext(t *testing.T) {
	f := newFixture()
	s := typeParam("S")
	spread := typeParam("T", Tag(f.qualifier).Wrap(s.DefaultType()))
	spread.IsSpread = true

	candidate := Tag(f.qualifier).Wrap(f.foo1.DefaultType())
	ctx := BuildSpreadingContext(spread.DefaultType(), candidate, nil)

	require.True(t, ctx.IsOk(), "%v", ctx.Errors())
	fixed := ctx.FixedTypeVariables()
	assert.True(t, fixed["T"].Equal(candidate), fixed["T"].String())
	assert.True(t, fixed["S"].Equal(f.foo1.DefaultType()), fixed["S"].String())

	t.Run("untagged candidate does not match", func(t *testing.T) {
		ctx := BuildSpreadingContext(spread.DefaultType(), f.foo1.DefaultType(), nil)
		assert.False(t, ctx.IsOk())
	})
}

func TestLowerAndUpperCollapseIntoEqual(t *testing.T) {
	tp := typeParam("T")
	v := &variableWithConstraints{typeVariable: tp}

	assert.True(t, v.addConstraint(Constraint{TypeVariable: tp, Type: intType(), Kind: Lower, DerivedFrom: set.New[string](0)}))
	assert.False(t, v.addConstraint(Constraint{TypeVariable: tp, Type: intType(), Kind: Lower, DerivedFrom: set.New[string](0)}))
	assert.True(t, v.addConstraint(Constraint{TypeVariable: tp, Type: intType(), Kind: Upper, DerivedFrom: set.New[string](0)}))

	require.Len(t, v.constraints, 1)
	assert.Equal(t, Equal, v.constraints[0].Kind)
	assert.False(t, v.addConstraint(Constraint{TypeVariable: tp, Type: intType(), Kind: Upper, DerivedFrom: set.New[string](0)}))
}
