package resolution

import (
	"github.com/funvibe/givens/internal/symbols"
	"github.com/funvibe/givens/internal/typesystem"
)

// compareResult orders results: successes before failures, values before
// defaults, then by candidate or by failure ordering. Negative means a is
// better.
func compareResult(a, b Result) int {
	if a == b {
		return 0
	}
	if a != nil && b == nil {
		return -1
	}
	if a == nil {
		return 1
	}

	aSuccess, aOk := a.(Success)
	bSuccess, bOk := b.(Success)
	switch {
	case aOk && !bOk:
		return -1
	case bOk && !aOk:
		return 1
	case aOk && bOk:
		_, aDefault := aSuccess.(DefaultValue)
		_, bDefault := bSuccess.(DefaultValue)
		if !aDefault && bDefault {
			return -1
		}
		if aDefault && !bDefault {
			return 1
		}
		aValue, aIsValue := aSuccess.(*Value)
		bValue, bIsValue := bSuccess.(*Value)
		if aIsValue && bIsValue {
			return compareCandidate(aValue.Candidate, bValue.Candidate)
		}
		return 0
	}
	return compareInts(a.(Failure).Ordering(), b.(Failure).Ordering())
}

func compareInts(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// compareCandidate prefers declared over spread candidates, then candidates
// from deeper scopes, then the more specific declaration.
func compareCandidate(a, b symbols.Candidate) int {
	if a == b {
		return 0
	}
	if a != nil && b == nil {
		return -1
	}
	if a == nil {
		return 1
	}

	aSpread, bSpread := isSpread(a), isSpread(b)
	if !aSpread && bSpread {
		return -1
	}
	if aSpread && !bSpread {
		return 1
	}

	if d := compareInts(b.OwnerScope().Nesting(), a.OwnerScope().Nesting()); d != 0 {
		return d
	}

	aCallable, _ := a.(*symbols.CallableCandidate)
	bCallable, _ := b.(*symbols.CallableCandidate)
	return compareCallable(aCallable, bCallable)
}

func isSpread(c symbols.Candidate) bool {
	cc, ok := c.(*symbols.CallableCandidate)
	return ok && cc.IsSpread()
}

func compareCallable(a, b *symbols.CallableCandidate) int {
	if a == b {
		return 0
	}
	if a != nil && b == nil {
		return -1
	}
	if a == nil {
		return 1
	}

	// members of a more derived module win over the same member
	// inherited from a supertype
	aReceiver, bReceiver := a.Callable.DispatchReceiver(), b.Callable.DispatchReceiver()
	if aReceiver != nil && bReceiver != nil {
		aSub := typesystem.IsSubTypeOf(typesystem.Checker, aReceiver, bReceiver)
		bSub := typesystem.IsSubTypeOf(typesystem.Checker, bReceiver, aReceiver)
		if aSub && !bSub {
			return -1
		}
		if bSub && !aSub {
			return 1
		}
	}

	return compareType(a.OriginalType(), b.OriginalType(), map[[2]string]bool{})
}

// compareType ranks declared types by specificity: concrete over star,
// non-null over nullable, classes over type parameters, subtypes over
// supertypes, and argument-wise for the same classifier.
func compareType(a, b *typesystem.Type, compared map[[2]string]bool) int {
	if a == b || (a != nil && a.Equal(b)) {
		return 0
	}
	if a != nil && b == nil {
		return -1
	}
	if a == nil {
		return 1
	}

	if !a.Star && b.Star {
		return -1
	}
	if a.Star && !b.Star {
		return 1
	}

	if !a.Nullable && b.Nullable {
		return -1
	}
	if a.Nullable && !b.Nullable {
		return 1
	}

	if !a.Classifier.IsTypeParameter && b.Classifier.IsTypeParameter {
		return -1
	}
	if a.Classifier.IsTypeParameter && !b.Classifier.IsTypeParameter {
		return 1
	}

	pair := [2]string{a.Key(), b.Key()}
	if compared[pair] {
		return 0
	}
	compared[pair] = true

	if !a.Classifier.Is(b.Classifier) {
		aSub := typesystem.IsSubTypeOf(typesystem.Checker, a, b)
		bSub := typesystem.IsSubTypeOf(typesystem.Checker, b, a)
		if aSub && !bSub {
			return -1
		}
		if bSub && !aSub {
			return 1
		}
		aSupers, bSupers := a.SuperTypes(), b.SuperTypes()
		if len(aSupers) == 0 || len(bSupers) == 0 {
			return 0
		}
		return compareType(
			typesystem.CommonSuperType(typesystem.Checker, aSupers),
			typesystem.CommonSuperType(typesystem.Checker, bSupers),
			compared)
	}

	diff := 0
	for i := range a.Arguments {
		if i >= len(b.Arguments) {
			break
		}
		diff += compareType(a.Arguments[i], b.Arguments[i], compared)
	}
	return compareInts(diff, 0)
}
