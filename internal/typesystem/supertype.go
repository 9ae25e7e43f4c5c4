package typesystem

// CommonSuperType computes the least common supertype of types. Arguments
// nested deeper than the deepest input collapse to star projections.
func CommonSuperType(ctx TypeCheckerContext, types []*Type) *Type {
	max := 0
	for _, t := range types {
		if d := t.TypeDepth(); d > max {
			max = d
		}
	}
	return commonSuperType(ctx, types, -max)
}

func commonSuperType(ctx TypeCheckerContext, types []*Type, depth int) *Type {
	if len(types) == 1 {
		return types[0]
	}
	anyNullable := false
	for _, t := range types {
		if t.IsNullableType() {
			anyNullable = true
			break
		}
	}
	notNull := types
	if anyNullable {
		notNull = make([]*Type, len(types))
		for i, t := range types {
			notNull[i] = t.WithNullability(false)
		}
	}

	result := commonSuperTypeForNotNullTypes(ctx, notNull, depth)
	if anyNullable && !result.Classifier.IsTypeParameter {
		return result.WithNullability(true)
	}
	return result
}

func uniquify(ctx TypeCheckerContext, types []*Type) []*Type {
	var unique []*Type
	for _, t := range types {
		isNew := true
		for _, u := range unique {
			if IsEqualTo(ctx, u, t) {
				isNew = false
				break
			}
		}
		if isNew {
			unique = append(unique, t)
		}
	}
	return unique
}

func commonSuperTypeForNotNullTypes(ctx TypeCheckerContext, types []*Type, depth int) *Type {
	if len(types) == 1 {
		return types[0]
	}
	unique := uniquify(ctx, types)
	if len(unique) == 1 {
		return unique[0]
	}
	// keep only the types that are not below another one
	explicit := filterTypes(unique, func(other, t *Type) bool {
		return IsSubTypeOf(ctx, t, other)
	})
	if len(explicit) == 1 {
		return explicit[0]
	}
	if len(explicit) == 0 {
		return AnyType()
	}

	classifiers := allCommonSuperTypeClassifiers(explicit)
	supers := make([]*Type, 0, len(classifiers))
	for _, c := range classifiers {
		supers = append(supers, superTypeWithClassifier(ctx, explicit, c, depth))
	}
	if len(supers) == 0 {
		return AnyType()
	}
	return IntersectTypes(ctx, supers)
}

// filterTypes drops, one at a time, every element for which some remaining
// element satisfies pred(other, element).
func filterTypes(types []*Type, pred func(lower, upper *Type) bool) []*Type {
	result := append([]*Type(nil), types...)
	for i := 0; i < len(result); {
		upper := result[i]
		drop := false
		for j, lower := range result {
			if i != j && pred(lower, upper) {
				drop = true
				break
			}
		}
		if drop {
			result = append(result[:i], result[i+1:]...)
		} else {
			i++
		}
	}
	return result
}

func collectAllSuperClassifiers(t *Type) []*Classifier {
	var result []*Classifier
	seen := map[string]bool{}
	t.AnySuperType(func(s *Type) bool {
		if !seen[s.Classifier.Key] {
			seen[s.Classifier.Key] = true
			result = append(result, s.Classifier)
		}
		return false
	})
	return result
}

func allCommonSuperTypeClassifiers(types []*Type) []*Classifier {
	result := collectAllSuperClassifiers(types[0])
	for _, t := range types[1:] {
		other := collectAllSuperClassifiers(t)
		kept := result[:0:0]
		for _, c := range result {
			if containsClassifier(other, c) {
				kept = append(kept, c)
			}
		}
		result = kept
	}

	// Drop classifiers that have a subtype in the set; they are less precise.
	var precise []*Classifier
	for _, target := range result {
		lessPrecise := false
		for _, other := range result {
			if other.Is(target) {
				continue
			}
			for _, s := range other.SuperTypes() {
				if s.Classifier.Is(target) {
					lessPrecise = true
					break
				}
			}
			if lessPrecise {
				break
			}
		}
		if !lessPrecise {
			precise = append(precise, target)
		}
	}
	return precise
}

func superTypeWithClassifier(ctx TypeCheckerContext, types []*Type, c *Classifier, depth int) *Type {
	if len(c.TypeParameters) == 0 {
		return c.DefaultType()
	}

	views := make([]*Type, len(types))
	for i, t := range types {
		views[i] = t.SubtypeView(c)
	}

	args := make([]*Type, len(c.TypeParameters))
	for index, parameter := range c.TypeParameters {
		thereIsStar := false
		var typeArgs []*Type
		for _, v := range views {
			if v == nil || index >= len(v.Arguments) {
				continue
			}
			a := v.Arguments[index]
			if a.Star {
				thereIsStar = true
				continue
			}
			typeArgs = append(typeArgs, a)
		}

		if thereIsStar || len(typeArgs) == 0 {
			args[index] = StarProjection
			continue
		}
		arg := calculateArgument(ctx, parameter, typeArgs, depth)
		// a recursive out-projected argument of the same classifier
		// would grow forever
		if !arg.Star && arg.Variance == Out && arg.Classifier.Is(c) {
			arg = StarProjection
		}
		args[index] = arg
	}
	return c.DefaultType().UnwrapTags().WithArguments(args)
}

func calculateArgument(ctx TypeCheckerContext, parameter *Classifier, args []*Type, depth int) *Type {
	if depth > 0 {
		return StarProjection
	}

	if parameter.Variance == Inv {
		allInv := true
		for _, a := range args {
			if a.Variance != Inv {
				allInv = false
				break
			}
		}
		if allInv {
			first := args[0]
			allSame := true
			for _, a := range args[1:] {
				if !a.Equal(first) {
					allSame = false
					break
				}
			}
			if allSame {
				return first
			}
		}
	}

	var asOut bool
	if parameter.Variance != Inv {
		asOut = parameter.Variance == Out
	} else {
		thereIsOut, thereIsIn := false, false
		for _, a := range args {
			switch a.Variance {
			case Out:
				thereIsOut = true
			case In:
				thereIsIn = true
			}
		}
		if thereIsOut {
			if thereIsIn {
				return StarProjection
			}
			asOut = true
		} else {
			asOut = !thereIsIn
		}
	}

	if !asOut {
		t := IntersectTypes(ctx, args)
		if parameter.Variance != Inv {
			return t
		}
		return t.WithVariance(In)
	}

	if parameter.Variance != Inv {
		return commonSuperType(ctx, args, depth+1)
	}

	var equalToEachOther *Type
	for _, candidate := range args {
		all := true
		for _, a := range args {
			if !IsEqualTo(ctx, a, candidate) {
				all = false
				break
			}
		}
		if all {
			equalToEachOther = candidate
			break
		}
	}
	if equalToEachOther == nil {
		return commonSuperType(ctx, args, depth+1).WithVariance(Out)
	}
	for _, a := range args {
		if a.Variance != Inv {
			return equalToEachOther.WithVariance(Out)
		}
	}
	return equalToEachOther.WithVariance(Inv)
}

// IntersectTypes computes the greatest common subtype that can be expressed
// without intersection types: the most specific input, or Any when the
// inputs are unrelated. A single non-null input makes the result non-null.
func IntersectTypes(ctx TypeCheckerContext, types []*Type) *Type {
	if len(types) == 1 {
		return types[0]
	}

	nullability := nullabilityStart
	for _, t := range types {
		nullability = nullability.combine(t)
	}

	var normalized []*Type
	seen := map[string]bool{}
	for _, t := range types {
		n := t
		if nullability == nullabilityNotNull {
			n = t.WithNullability(false)
		}
		if k := n.Key(); !seen[k] {
			seen[k] = true
			normalized = append(normalized, n)
		}
	}
	if len(normalized) == 1 {
		return normalized[0]
	}

	filtered := filterTypes(normalized, func(lower, upper *Type) bool {
		return isStrictSupertype(lower, upper)
	})
	filtered = filterTypes(filtered, func(lower, upper *Type) bool {
		return IsEqualTo(ctx, lower, upper)
	})
	if len(filtered) == 1 {
		return filtered[0]
	}

	for _, t := range filtered {
		if t.IsNullableType() {
			return NullableAnyType()
		}
	}
	return AnyType()
}

// resultNullability folds the nullability of intersected types. Once a
// definitely non-null type is seen the result stays non-null.
type resultNullability int

const (
	nullabilityStart resultNullability = iota
	nullabilityAcceptNull
	nullabilityUnknown
	nullabilityNotNull
)

func nullabilityOf(t *Type) resultNullability {
	switch {
	case t.Nullable:
		return nullabilityAcceptNull
	case !t.IsNullableType():
		return nullabilityNotNull
	default:
		return nullabilityUnknown
	}
}

func (r resultNullability) combine(t *Type) resultNullability {
	switch r {
	case nullabilityNotNull:
		return r
	case nullabilityUnknown:
		if next := nullabilityOf(t); next != nullabilityAcceptNull {
			return next
		}
		return r
	default:
		return nullabilityOf(t)
	}
}

func isStrictSupertype(sub, sup *Type) bool {
	return IsSubTypeOf(Checker, sub, sup) && !IsSubTypeOf(Checker, sup, sub)
}
