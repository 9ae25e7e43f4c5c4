package typesystem

// TypeCheckerContext supplies the hooks that let the same subtyping rules
// serve both plain checks and constraint collection.
type TypeCheckerContext interface {
	// IsDenotable is false for types whose classifier is an unfixed type
	// variable of an ongoing inference.
	IsDenotable(t *Type) bool
	// AddSubTypeConstraint may answer sub <: sup on its own (handled=true),
	// typically by recording a constraint instead of comparing.
	AddSubTypeConstraint(sub, sup *Type) (result bool, handled bool)
}

type plainChecker struct{}

func (plainChecker) IsDenotable(*Type) bool { return true }

func (plainChecker) AddSubTypeConstraint(*Type, *Type) (bool, bool) { return false, false }

// Checker is the context without type variables.
var Checker TypeCheckerContext = plainChecker{}

// IsEqualTo is equality up to denotability: two denotable types are equal
// when classifier, nullability and (variance-compatible) arguments agree;
// otherwise equality is mutual subtyping.
func IsEqualTo(ctx TypeCheckerContext, a, b *Type) bool {
	if a.Equal(b) {
		return true
	}

	if ctx.IsDenotable(a) && ctx.IsDenotable(b) {
		if !a.Classifier.Is(b.Classifier) {
			return false
		}
		if a.Nullable != b.Nullable {
			return false
		}
		if len(a.Arguments) != len(b.Arguments) {
			return false
		}
		for i := range a.Arguments {
			x, y := a.Arguments[i], b.Arguments[i]
			if x.Star && y.Star {
				continue
			}
			if EffectiveVariance(x.Variance, y.Variance, Inv) != EffectiveVariance(y.Variance, x.Variance, Inv) {
				return false
			}
			if !IsEqualTo(ctx, x, y) {
				return false
			}
		}
		return true
	}

	return IsSubTypeOf(ctx, a, b) && IsSubTypeOf(ctx, b, a)
}

// IsSubTypeOf reports whether sub <: sup.
func IsSubTypeOf(ctx TypeCheckerContext, sub, sup *Type) bool {
	if sub.Equal(sup) {
		return true
	}

	if result, handled := ctx.AddSubTypeConstraint(sub, sup); handled {
		return result
	}

	if IsNothing(sub.Classifier) && (!sub.Nullable || sup.IsNullableType()) {
		return true
	}

	if IsAny(sup.Classifier) && (sup.Nullable || !sub.IsNullableType()) {
		return true
	}

	if view := sub.SubtypeView(sup.Classifier); view != nil {
		return isSubTypeOfSameClassifier(ctx, view, sup)
	}

	return false
}

func isSubTypeOfSameClassifier(ctx TypeCheckerContext, sub, sup *Type) bool {
	if !sup.Nullable && sub.Nullable {
		return false
	}

	params := sup.Classifier.TypeParameters
	for i := range sub.Arguments {
		if i >= len(sup.Arguments) {
			break
		}
		argument := sub.Arguments[i]
		parameter := sup.Arguments[i]
		if argument.Star || parameter.Star {
			continue
		}
		original := Inv
		if i < len(params) {
			original = params[i].Variance
		}
		var ok bool
		switch EffectiveVariance(parameter.Variance, argument.Variance, original) {
		case In:
			ok = IsSubTypeOf(ctx, parameter, argument)
		case Out:
			ok = IsSubTypeOf(ctx, argument, parameter)
		default:
			ok = IsEqualTo(ctx, argument, parameter)
		}
		if !ok {
			return false
		}
	}
	return true
}
