package typesystem

import (
	"github.com/hashicorp/go-set/v3"
)

// ConstraintKind says how a type bounds a type variable.
type ConstraintKind int

const (
	Lower ConstraintKind = iota // type <: variable
	Upper                       // variable <: type
	Equal                       // variable == type
)

func (k ConstraintKind) String() string {
	switch k {
	case Lower:
		return "lower"
	case Upper:
		return "upper"
	default:
		return "equal"
	}
}

// ConstraintPosition records where a constraint came from.
type ConstraintPosition int

const (
	PositionUnknown ConstraintPosition = iota
	PositionFixVariable
	PositionDeclaredUpperBound
)

// Constraint bounds TypeVariable by Type. DerivedFrom holds the keys of the
// variables whose constraints were substituted to produce this one.
type Constraint struct {
	TypeVariable *Classifier
	Type         *Type
	Kind         ConstraintKind
	Position     ConstraintPosition
	DerivedFrom  *set.Set[string]
}

type variableWithConstraints struct {
	typeVariable *Classifier
	constraints  []Constraint
}

// addConstraint reports whether c changed the variable's constraint list.
// A lower and an upper bound with the same type collapse into an equality.
func (v *variableWithConstraints) addConstraint(c Constraint) bool {
	for _, previous := range v.constraints {
		if !previous.Type.Equal(c.Type) {
			continue
		}
		if previous.Kind == Equal || previous.Kind == c.Kind {
			return false
		}
		matching := (previous.Kind == Lower && c.Kind == Upper) ||
			(previous.Kind == Upper && c.Kind == Lower)
		if matching {
			actual := c
			if c.Kind != Equal {
				actual.Kind = Equal
			}
			kept := v.constraints[:0:0]
			for _, existing := range v.constraints {
				if !existing.Type.Equal(actual.Type) {
					kept = append(kept, existing)
				}
			}
			v.constraints = append(kept, actual)
			return true
		}
	}
	v.constraints = append(v.constraints, c)
	return true
}

// TypeContext collects constraints on type variables while checking
// subtyping and then fixes every variable to a concrete type.
// A TypeContext belongs to one inference and must not be shared.
type TypeContext struct {
	static map[string]bool

	variables     map[string]*variableWithConstraints
	variableOrder []string

	fixed      Subst
	fixedOrder []string

	errors []*ConstraintError

	pending []Constraint
}

func NewTypeContext() *TypeContext {
	return &TypeContext{
		static:    map[string]bool{},
		variables: map[string]*variableWithConstraints{},
		fixed:     Subst{},
	}
}

// IsOk is true while no constraint was violated.
func (c *TypeContext) IsOk() bool { return len(c.errors) == 0 }

// Errors returns the recorded constraint violations.
func (c *TypeContext) Errors() []*ConstraintError { return c.errors }

// FixedTypeVariables returns the solution. The map must not be modified.
func (c *TypeContext) FixedTypeVariables() Subst { return c.fixed }

// FixedOrder lists solved variable keys in the order they were fixed.
func (c *TypeContext) FixedOrder() []string { return c.fixedOrder }

func (c *TypeContext) AddStaticTypeParameter(p *Classifier) {
	c.static[p.Key] = true
}

// AddTypeVariable registers p as solvable. Its declared bounds become upper
// constraints right away.
func (c *TypeContext) AddTypeVariable(p *Classifier) {
	if c.static[p.Key] {
		return
	}
	if _, ok := c.variables[p.Key]; ok {
		return
	}
	c.variables[p.Key] = &variableWithConstraints{typeVariable: p}
	c.variableOrder = append(c.variableOrder, p.Key)
	for _, bound := range p.SuperTypes() {
		if bound.Equal(NullableAnyType()) {
			continue
		}
		c.AddInitialSubTypeConstraint(p.DefaultType(), bound)
	}
}

func (c *TypeContext) isVariable(cl *Classifier) bool {
	_, ok := c.variables[cl.Key]
	return ok
}

// AddInitialSubTypeConstraint seeds the context with sub <: sup.
func (c *TypeContext) AddInitialSubTypeConstraint(sub, sup *Type) {
	c.runIsSubTypeOf(sub, sup)
	c.processConstraints()
}

func (c *TypeContext) addInitialEqualityConstraint(a, b *Type) {
	var variable, equal *Type
	switch {
	case a.Classifier.IsTypeParameter:
		variable, equal = a, b
	case b.Classifier.IsTypeParameter:
		variable, equal = b, a
	default:
		return
	}
	c.pending = append(c.pending, Constraint{
		TypeVariable: variable.Classifier,
		Type:         equal,
		Kind:         Equal,
		Position:     PositionFixVariable,
		DerivedFrom:  set.New[string](0),
	})
	c.processConstraints()
}

func (c *TypeContext) processConstraints() {
	for len(c.pending) > 0 {
		if !c.IsOk() {
			break
		}
		batch := c.pending
		c.pending = nil
		anyAdded := false
		for _, constraint := range batch {
			if c.shouldSkipConstraint(constraint) {
				continue
			}
			v := c.variables[constraint.TypeVariable.Key]
			if v == nil {
				continue
			}
			if v.addConstraint(constraint) {
				anyAdded = true
				c.directWithVariable(v, constraint)
				c.insideOtherConstraint(constraint.TypeVariable, constraint)
			}
		}
		if !anyAdded {
			c.pending = nil
			break
		}
	}
}

func (c *TypeContext) shouldSkipConstraint(constraint Constraint) bool {
	if constraint.Kind == Equal {
		return false
	}
	t := constraint.Type
	if t.Classifier.Is(constraint.TypeVariable) {
		return !(t.Nullable && constraint.Kind == Lower)
	}
	return constraint.Position == PositionDeclaredUpperBound &&
		constraint.Kind == Upper &&
		t.Equal(NullableAnyType())
}

// FixTypeVariables solves every registered variable, preferring variables
// whose constraints only mention already fixed variables.
func (c *TypeContext) FixTypeVariables() {
	for c.IsOk() {
		var unfixed []*variableWithConstraints
		for _, key := range c.variableOrder {
			if _, done := c.fixed[key]; !done {
				unfixed = append(unfixed, c.variables[key])
			}
		}
		if len(unfixed) == 0 {
			break
		}
		next := unfixed[0]
		for _, v := range unfixed {
			if c.nestedVariablesFixed(v) {
				next = v
				break
			}
		}
		c.fixVariable(next)
	}
}

func (c *TypeContext) nestedVariablesFixed(v *variableWithConstraints) bool {
	for _, constraint := range v.constraints {
		for _, t := range constraint.Type.AllTypes() {
			if !c.isVariable(t.Classifier) {
				continue
			}
			if _, done := c.fixed[t.Classifier.Key]; !done {
				return false
			}
		}
	}
	return true
}

func (c *TypeContext) fixVariable(v *variableWithConstraints) {
	t := c.fixedType(v)

	c.addInitialEqualityConstraint(v.typeVariable.DefaultType(), t)

	for _, key := range c.variableOrder {
		if key == v.typeVariable.Key {
			continue
		}
		if _, done := c.fixed[key]; done {
			continue
		}
		other := c.variables[key]
		kept := other.constraints[:0:0]
		for _, oc := range other.constraints {
			mentions := oc.Type.AnyType(func(x *Type) bool {
				return x.Classifier.Is(v.typeVariable)
			})
			if !mentions {
				kept = append(kept, oc)
			}
		}
		other.constraints = kept
	}

	c.fixed[v.typeVariable.Key] = t
	c.fixedOrder = append(c.fixedOrder, v.typeVariable.Key)
}

func (c *TypeContext) fixedType(v *variableWithConstraints) *Type {
	var equals, lowers, uppers []*Type
	for _, constraint := range v.constraints {
		switch constraint.Kind {
		case Equal:
			equals = append(equals, constraint.Type)
		case Lower:
			lowers = append(lowers, constraint.Type)
		case Upper:
			uppers = append(uppers, constraint.Type)
		}
	}

	if best := c.singleBestRepresentative(equals); best != nil {
		return best
	}

	var sub, super *Type
	if len(lowers) > 0 {
		sub = CommonSuperType(c, lowers)
	}
	if len(uppers) > 0 {
		super = IntersectTypes(c, uppers)
	}
	if result := c.resultType(sub, super, v); result != nil {
		return result
	}
	return NullableAnyType()
}

func (c *TypeContext) resultType(first, second *Type, v *variableWithConstraints) *Type {
	if first == nil {
		return second
	}
	if second == nil {
		return first
	}
	if c.isSuitableType(first, v) {
		return first
	}
	if c.isSuitableType(second, v) {
		return second
	}
	return first
}

func (c *TypeContext) isSuitableType(t *Type, v *variableWithConstraints) bool {
	if IsNothing(t.Classifier) {
		return false
	}
	for _, constraint := range v.constraints {
		if !c.checkConstraint(constraint.Type, constraint.Kind, t) {
			return false
		}
	}
	return true
}

func (c *TypeContext) checkConstraint(constraintType *Type, kind ConstraintKind, result *Type) bool {
	switch kind {
	case Equal:
		return IsEqualTo(c, constraintType, result)
	case Lower:
		return IsSubTypeOf(c, constraintType, result)
	default:
		return IsSubTypeOf(c, result, constraintType)
	}
}

func (c *TypeContext) singleBestRepresentative(types []*Type) *Type {
	if len(types) == 1 {
		return types[0]
	}
	for _, candidate := range types {
		all := true
		for _, other := range types {
			if !IsEqualTo(c, candidate, other) {
				all = false
				break
			}
		}
		if all {
			return candidate
		}
	}
	return nil
}

// IsDenotable implements TypeCheckerContext.
func (c *TypeContext) IsDenotable(t *Type) bool {
	return !c.isVariable(t.Classifier)
}

// AddSubTypeConstraint implements TypeCheckerContext: comparisons that
// involve a type variable become constraints.
func (c *TypeContext) AddSubTypeConstraint(sub, sup *Type) (bool, bool) {
	answer, answered := false, false

	if c.isVariable(sup.Classifier) {
		answer, answered = c.addLowerConstraint(sup, sub), true
	}

	if c.isVariable(sub.Classifier) {
		ok := c.addUpperConstraint(sub, sup)
		return ok && (!answered || answer), true
	} else if sub.Source != nil && c.isVariable(sub.Source) {
		ok := c.addUpperConstraint(sub.Source.DefaultType(), sup)
		return ok && (!answered || answer), true
	}

	return answer, answered
}

func (c *TypeContext) addUpperConstraint(variable, sup *Type) bool {
	c.pending = append(c.pending, Constraint{
		TypeVariable: variable.Classifier,
		Type:         sup,
		Kind:         Upper,
		Position:     PositionUnknown,
		DerivedFrom:  set.New[string](0),
	})
	if variable.Nullable {
		return c.isVariable(sup.Classifier) || IsSubTypeOf(c, NullableNothingType(), sup)
	}
	return true
}

func (c *TypeContext) addLowerConstraint(variable, sub *Type) bool {
	c.pending = append(c.pending, Constraint{
		TypeVariable: variable.Classifier,
		Type:         sub,
		Kind:         Lower,
		Position:     PositionUnknown,
		DerivedFrom:  set.New[string](0),
	})
	return true
}

// directWithVariable checks a new bound against the opposite bounds of the
// same variable: every lower bound must stay below every upper bound.
func (c *TypeContext) directWithVariable(v *variableWithConstraints, constraint Constraint) {
	if constraint.Kind != Lower {
		for _, other := range append([]Constraint(nil), v.constraints...) {
			if !c.IsOk() {
				break
			}
			if other.Kind != Upper {
				c.runIsSubTypeOf(other.Type, constraint.Type)
			}
		}
	}
	if constraint.Kind != Upper {
		for _, other := range append([]Constraint(nil), v.constraints...) {
			if !c.IsOk() {
				break
			}
			if other.Kind != Lower {
				c.runIsSubTypeOf(constraint.Type, other.Type)
			}
		}
	}
}

// insideOtherConstraint propagates a new bound of variable into the
// constraints of every variable that mentions it.
func (c *TypeContext) insideOtherConstraint(variable *Classifier, constraint Constraint) {
	for _, key := range c.variableOrder {
		if !c.IsOk() {
			break
		}
		target := c.variables[key]
		for _, vc := range append([]Constraint(nil), target.constraints...) {
			if !c.IsOk() {
				break
			}
			mentions := vc.Type.AnyType(func(x *Type) bool {
				return x.Classifier.Is(variable)
			})
			if mentions {
				c.generateNewConstraint(target.typeVariable, vc, variable, constraint)
			}
		}
	}
}

func (c *TypeContext) runIsSubTypeOf(sub, sup *Type) {
	if !IsSubTypeOf(c, sub, sup) {
		c.errors = append(c.errors, &ConstraintError{Sub: sub, Super: sup, Kind: Upper})
	}
}

func (c *TypeContext) generateNewConstraint(target *Classifier, base Constraint, other *Classifier, otherConstraint Constraint) {
	var replacement *Type
	switch otherConstraint.Kind {
	case Equal:
		replacement = otherConstraint.Type
	case Upper:
		replacement = otherConstraint.Type.WithVariance(Out).WithSource(other)
	case Lower:
		replacement = otherConstraint.Type.WithVariance(In).WithSource(other)
	}
	substituted := base.Type.Substitute(Subst{other.Key: replacement})
	if base.Kind != Lower {
		c.addNewConstraint(target, base, other, otherConstraint, substituted, Upper)
	}
	if base.Kind != Upper {
		c.addNewConstraint(target, base, other, otherConstraint, substituted, Lower)
	}
}

func (c *TypeContext) addNewConstraint(target *Classifier, base Constraint, other *Classifier, otherConstraint Constraint, t *Type, kind ConstraintKind) {
	derivedFrom := base.DerivedFrom.Copy()
	derivedFrom.InsertSet(otherConstraint.DerivedFrom)
	if derivedFrom.Contains(other.Key) {
		return
	}
	derivedFrom.Insert(other.Key)
	c.pending = append(c.pending, Constraint{
		TypeVariable: target,
		Type:         t,
		Kind:         kind,
		Position:     PositionUnknown,
		DerivedFrom:  derivedFrom,
	})
}

// BuildContext infers the type variables of candidateType such that
// candidateType <: requestType. Classifiers in static are never solved.
func BuildContext(candidateType, requestType *Type, static []*Classifier) *TypeContext {
	return runCandidateInference(candidateType, requestType, static, false)
}

// BuildSpreadingContext matches an already admitted candidate type against
// the constraint type of a spreading declaration. The candidate's own type
// parameters are held static; the declaration's variables are solved.
func BuildSpreadingContext(constraintType, candidateType *Type, static []*Classifier) *TypeContext {
	var all []*Classifier
	for _, t := range candidateType.AllTypes() {
		if t.Classifier.IsTypeParameter {
			all = append(all, t.Classifier)
		}
	}
	all = append(all, static...)
	return runCandidateInference(candidateType, constraintType, all, true)
}

func runCandidateInference(candidateType, superType *Type, static []*Classifier, collectSuperTypeVariables bool) *TypeContext {
	ctx := NewTypeContext()
	for _, p := range static {
		ctx.AddStaticTypeParameter(p)
	}
	for _, t := range candidateType.AllTypes() {
		if t.Classifier.IsTypeParameter {
			ctx.AddTypeVariable(t.Classifier)
		}
	}
	if collectSuperTypeVariables {
		for _, t := range superType.AllTypes() {
			if t.Classifier.IsTypeParameter {
				ctx.AddTypeVariable(t.Classifier)
			}
		}
	}
	ctx.AddInitialSubTypeConstraint(candidateType, superType)
	ctx.FixTypeVariables()
	return ctx
}
