package prettyprinter

import (
	"fmt"
	"github.com/funvibe/givens/internal/resolution"
	"github.com/funvibe/givens/internal/symbols"
	"strings"
)

// Headline is the one-line summary of why request could not be satisfied.
// Dependency failures are summarized by the failure they wrap.
func Headline(request symbols.Request, failure resolution.Failure) string {
	request, failure = resolution.UnwrapDependencyFailure(request, failure)
	switch f := failure.(type) {
	case *resolution.NoCandidates:
		return fmt.Sprintf("no candidate of type %s for parameter %s of %s", f.Request.Type, f.Request.Name, f.Request.CallableName)
	case *resolution.CandidateAmbiguity:
		names := make([]string, len(f.Candidates))
		for i, c := range f.Candidates {
			names[i] = CandidateName(c.Candidate)
		}
		return fmt.Sprintf("ambiguous candidates of type %s for parameter %s of %s: %s",
			f.Request.Type, f.Request.Name, f.Request.CallableName, strings.Join(names, ", "))
	case *resolution.DivergentInjectable:
		return fmt.Sprintf("divergent candidate %s of type %s", CandidateName(f.Candidate), f.Candidate.Type())
	case *resolution.ReifiedTypeArgumentMismatch:
		return fmt.Sprintf("type parameter %s of %s is reified but its argument %s is not",
			f.Parameter, CandidateName(f.Candidate), f.Argument)
	case *resolution.DepthExceeded:
		return fmt.Sprintf("resolution of %s exceeds %d nested candidates", CandidateName(f.Candidate), f.Depth)
	}
	return fmt.Sprintf("cannot resolve parameter %s of %s", request.Name, request.CallableName)
}

// CandidateName is the name a candidate is called by in rendered trees.
func CandidateName(c symbols.Candidate) string {
	switch c := c.(type) {
	case *symbols.CallableCandidate:
		return c.Callable.Name
	case *symbols.ListCandidate:
		return "listOf"
	case *symbols.LambdaCandidate:
		return "lambda"
	case *symbols.TypeKeyCandidate:
		return c.ChainName()
	}
	return "<unknown>"
}

// PrintFailure writes the partial call of callee down to the request that
// failed, with the failure marked in place of the missing argument.
func (p *CodePrinter) PrintFailure(r *resolution.InjectionError) {
	arg := argument{
		name: r.FailureRequest.Name,
		expr: p.sub(func(q *CodePrinter) { q.printFailure(r.FailureRequest, r.Failure) }),
	}
	p.printCall(r.Callee.Name, []argument{arg})
}

func (p *CodePrinter) printFailure(request symbols.Request, failure resolution.Failure) {
	switch f := failure.(type) {
	case *resolution.DependencyFailure:
		arg := argument{
			name: f.Request.Name,
			expr: p.sub(func(q *CodePrinter) { q.printFailure(f.Request, f.Failure) }),
		}
		name := CandidateName(f.Candidate)
		if c, ok := f.Candidate.(*symbols.CallableCandidate); ok {
			name += typeArguments(c.Callable)
		}
		p.printCall(name, []argument{arg})
	case *resolution.NoCandidates:
		p.styled(ansiRed, "/* missing: "+request.Type.String()+" */")
	case *resolution.CandidateAmbiguity:
		names := make([]string, len(f.Candidates))
		for i, c := range f.Candidates {
			names[i] = CandidateName(c.Candidate)
		}
		p.styled(ansiRed, "/* ambiguous: "+strings.Join(names, ", ")+" */")
	case *resolution.DivergentInjectable:
		p.styled(ansiRed, "/* divergent: "+CandidateName(f.Candidate)+" */")
	case *resolution.ReifiedTypeArgumentMismatch:
		p.styled(ansiRed, "/* not reified: "+f.Argument.String()+" */")
	case *resolution.DepthExceeded:
		p.styled(ansiRed, "/* too deep: "+CandidateName(f.Candidate)+" */")
	}
}

// Explain renders the full human readable report for a failed injection.
func Explain(r *resolution.InjectionError, color bool) string {
	p := NewCodePrinter()
	p.SetColor(color)
	p.styled(ansiBold, Headline(r.FailureRequest, r.Failure))
	p.writeln()
	p.writeln()
	p.styled(ansiDim, "I found:")
	p.writeln()
	p.writeln()
	p.indent++
	p.writeIndent()
	p.PrintFailure(r)
	p.indent--
	p.writeln()
	return p.String()
}

// Render returns the call expression for a successful injection.
func Render(r *resolution.InjectionSuccess, width int) string {
	p := NewCodePrinterWithWidth(width)
	p.PrintInjection(r)
	return p.String()
}

// StripColor removes the ANSI sequences written by a colored printer.
func StripColor(s string) string {
	if !strings.Contains(s, "\033[") {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\033' && i+1 < len(s) && s[i+1] == '[' {
			j := i + 2
			for j < len(s) && s[j] != 'm' {
				j++
			}
			i = j
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}
