package typesystem

import "fmt"

// ConstraintError records a subtype check that failed during inference.
type ConstraintError struct {
	Sub   *Type
	Super *Type
	Kind  ConstraintKind
}

func (e *ConstraintError) Error() string {
	return fmt.Sprintf("constraint violated: %s is not a subtype of %s", e.Sub, e.Super)
}

// ClassifierNotFoundError indicates a type name that resolves to nothing.
type ClassifierNotFoundError struct {
	Name string
}

func (e *ClassifierNotFoundError) Error() string {
	return fmt.Sprintf("classifier not found: %s", e.Name)
}

func NewClassifierNotFoundError(name string) *ClassifierNotFoundError {
	return &ClassifierNotFoundError{Name: name}
}
