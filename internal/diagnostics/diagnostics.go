package diagnostics

import (
	"fmt"
	"github.com/funvibe/givens/internal/resolution"
)

type ErrorCode string

// Facts document errors
const (
	ErrF001 ErrorCode = "F001" // unreadable document
	ErrF002 ErrorCode = "F002" // malformed YAML
	ErrF003 ErrorCode = "F003" // invalid declaration
)

// Resolution errors
const (
	ErrR001 ErrorCode = "R001" // no candidates
	ErrR002 ErrorCode = "R002" // ambiguous candidates
	ErrR003 ErrorCode = "R003" // divergent injectable
	ErrR004 ErrorCode = "R004" // reified type argument mismatch
	ErrR005 ErrorCode = "R005" // dependency failure
	ErrR006 ErrorCode = "R006" // resolution too deep
)

// Run errors
const (
	ErrP001 ErrorCode = "P001" // resolution cancelled
)

// Archive errors
const (
	ErrS001 ErrorCode = "S001" // report could not be archived
)

var descriptions = map[ErrorCode]string{
	ErrF001: "cannot read facts document",
	ErrF002: "malformed facts document",
	ErrF003: "invalid declaration",
	ErrR001: "no candidates",
	ErrR002: "ambiguous candidates",
	ErrR003: "divergent injectable",
	ErrR004: "reified type argument mismatch",
	ErrR005: "dependency failure",
	ErrR006: "resolution too deep",
	ErrP001: "resolution cancelled",
	ErrS001: "cannot archive report",
}

func (c ErrorCode) Description() string { return descriptions[c] }

// DiagnosticError is a reportable problem attached to a file and, for
// resolution errors, to the injection site that failed.
type DiagnosticError struct {
	Code    ErrorCode
	File    string
	Site    string
	Message string
}

func NewError(code ErrorCode, site, message string) *DiagnosticError {
	return &DiagnosticError{Code: code, Site: site, Message: message}
}

func (e *DiagnosticError) Error() string {
	prefix := string(e.Code)
	if e.File != "" {
		prefix = e.File + ": " + prefix
	}
	if e.Site != "" {
		return fmt.Sprintf("%s [%s]: %s", prefix, e.Site, e.Message)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Message)
}

// CodeFor classifies a resolution failure. Dependency failures are
// classified by the failure they wrap.
func CodeFor(failure resolution.Failure) ErrorCode {
	switch f := failure.(type) {
	case *resolution.NoCandidates:
		return ErrR001
	case *resolution.CandidateAmbiguity:
		return ErrR002
	case *resolution.DivergentInjectable:
		return ErrR003
	case *resolution.ReifiedTypeArgumentMismatch:
		return ErrR004
	case *resolution.DependencyFailure:
		if f.Failure == nil {
			return ErrR005
		}
		return CodeFor(f.Failure)
	case *resolution.DepthExceeded:
		return ErrR006
	}
	return ErrR005
}
