package symbols

import (
	"fmt"
	"github.com/funvibe/givens/internal/typesystem"
)

// Request is one parameter slot of a callable that resolution must fill.
type Request struct {
	Type         *typesystem.Type
	Name         string
	CallableName string
	Position     int
	// Required is false for parameters with a default value.
	Required bool
}

func (r Request) String() string {
	return fmt.Sprintf("%s.%s: %s", r.CallableName, r.Name, r.Type)
}
