package resolution

import (
	"github.com/funvibe/givens/internal/symbols"
	"github.com/funvibe/givens/internal/typesystem"
)

// Result is the outcome of resolving one request. The variants are closed:
// the successes Value and DefaultValue, and the failures NoCandidates,
// CandidateAmbiguity, DivergentInjectable, ReifiedTypeArgumentMismatch,
// DependencyFailure and DepthExceeded.
type Result interface {
	isResult()
}

type Success interface {
	Result
	isSuccess()
}

type Failure interface {
	Result
	// Ordering ranks failures when several candidates fail; the lowest
	// ordering is reported.
	Ordering() int
	isFailure()
}

// Dependency pairs a request with the success that satisfies it.
type Dependency struct {
	Request symbols.Request
	Result  Success
}

// Value is a resolved candidate together with the results of its
// dependencies, in request order.
type Value struct {
	Candidate    symbols.Candidate
	Scope        *symbols.Scope
	Dependencies []Dependency
}

// DefaultValue leaves an optional parameter to its declared default.
type DefaultValue struct{}

type NoCandidates struct {
	Request symbols.Request
}

type CandidateAmbiguity struct {
	Request    symbols.Request
	Candidates []*Value
}

type DivergentInjectable struct {
	Candidate symbols.Candidate
}

type ReifiedTypeArgumentMismatch struct {
	Parameter *typesystem.Classifier
	Argument  *typesystem.Classifier
	Candidate symbols.Candidate
}

type DependencyFailure struct {
	Candidate symbols.Candidate
	Request   symbols.Request
	Failure   Failure
}

// DepthExceeded stops a dependency chain longer than the resolver allows.
type DepthExceeded struct {
	Candidate symbols.Candidate
	Depth     int
}

func (*Value) isResult()                        {}
func (*Value) isSuccess()                       {}
func (DefaultValue) isResult()                  {}
func (DefaultValue) isSuccess()                 {}
func (*NoCandidates) isResult()                 {}
func (*NoCandidates) isFailure()                {}
func (*CandidateAmbiguity) isResult()           {}
func (*CandidateAmbiguity) isFailure()          {}
func (*DivergentInjectable) isResult()          {}
func (*DivergentInjectable) isFailure()         {}
func (*ReifiedTypeArgumentMismatch) isResult()  {}
func (*ReifiedTypeArgumentMismatch) isFailure() {}
func (*DependencyFailure) isResult()            {}
func (*DependencyFailure) isFailure()           {}
func (*DepthExceeded) isResult()                {}
func (*DepthExceeded) isFailure()               {}

func (*CandidateAmbiguity) Ordering() int          { return 0 }
func (*ReifiedTypeArgumentMismatch) Ordering() int { return 1 }
func (*DependencyFailure) Ordering() int           { return 1 }
func (*DepthExceeded) Ordering() int               { return 1 }
func (*DivergentInjectable) Ordering() int         { return 2 }
func (*NoCandidates) Ordering() int                { return 3 }

// UnwrapDependencyFailure follows a chain of dependency failures to the
// request that failed first and its failure.
func UnwrapDependencyFailure(request symbols.Request, failure Failure) (symbols.Request, Failure) {
	for {
		df, ok := failure.(*DependencyFailure)
		if !ok {
			return request, failure
		}
		request, failure = df.Request, df.Failure
	}
}

// InjectionResult is the outcome of resolving all requests of one callee.
type InjectionResult interface {
	isInjectionResult()
}

type InjectionSuccess struct {
	Scope   *symbols.Scope
	Callee  *symbols.Callable
	Results []Dependency
}

type InjectionError struct {
	Scope          *symbols.Scope
	Callee         *symbols.Callable
	FailureRequest symbols.Request
	Failure        Failure
}

func (*InjectionSuccess) isInjectionResult() {}
func (*InjectionError) isInjectionResult()   {}
