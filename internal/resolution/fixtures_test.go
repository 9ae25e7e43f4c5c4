package resolution

import (
	"fmt"
	"strings"

	"github.com/funvibe/givens/internal/symbols"
	"github.com/funvibe/givens/internal/typesystem"
)

func class(key string, supers ...*typesystem.Classifier) *typesystem.Classifier {
	c := &typesystem.Classifier{Key: key, FqName: key}
	if len(supers) > 0 {
		c.LazySuperTypes = func() []*typesystem.Type {
			result := make([]*typesystem.Type, len(supers))
			for i, s := range supers {
				result[i] = s.DefaultType()
			}
			return result
		}
	}
	return c
}

func generic(key string, variance typesystem.Variance) *typesystem.Classifier {
	p := typesystem.NewTypeParameter(key+".T", "T", variance)
	return &typesystem.Classifier{Key: key, FqName: key, TypeParameters: []*typesystem.Classifier{p}}
}

func typeParam(key string, bounds ...*typesystem.Type) *typesystem.Classifier {
	p := typesystem.NewTypeParameter(key, key, typesystem.Inv)
	if len(bounds) > 0 {
		p.LazySuperTypes = func() []*typesystem.Type { return bounds }
	}
	return p
}

func typeOf(c *typesystem.Classifier, args ...*typesystem.Type) *typesystem.Type {
	return typesystem.NewType(c, args...)
}

func intType() *typesystem.Type    { return typesystem.IntClassifier.DefaultType() }
func stringType() *typesystem.Type { return typesystem.StringClassifier.DefaultType() }

func provider(name string, t *typesystem.Type, params ...symbols.Parameter) *symbols.Callable {
	return symbols.NewCallable(name, t, nil, params...)
}

func injected(index int, name string, t *typesystem.Type) symbols.Parameter {
	return symbols.Parameter{Index: index, Name: name, Type: t, Inject: true}
}

func optional(index int, name string, t *typesystem.Type) symbols.Parameter {
	return symbols.Parameter{Index: index, Name: name, Type: t, Inject: true, HasDefault: true}
}

func request(t *typesystem.Type) symbols.Request {
	return symbols.Request{Type: t, Name: "value", CallableName: "test", Required: true}
}

func rootScope(callables ...*symbols.Callable) *symbols.Scope {
	return symbols.NewScope(nil, "root", nil, symbols.WithCallables(callables...))
}

func candidateName(c symbols.Candidate) string {
	switch c := c.(type) {
	case *symbols.CallableCandidate:
		return c.Callable.Name
	default:
		return c.ChainName()
	}
}

// shape renders a result as a compact string so that results from
// different resolvers can be compared structurally.
func shape(r Result) string {
	var sb strings.Builder
	writeShape(&sb, r)
	return sb.String()
}

func writeShape(sb *strings.Builder, r Result) {
	switch r := r.(type) {
	case *Value:
		sb.WriteString(candidateName(r.Candidate))
		sb.WriteByte(':')
		sb.WriteString(r.Candidate.Type().Key())
		if len(r.Dependencies) > 0 {
			sb.WriteByte('(')
			for i, d := range r.Dependencies {
				if i > 0 {
					sb.WriteByte(' ')
				}
				sb.WriteString(d.Request.Name)
				sb.WriteByte('=')
				writeShape(sb, d.Result)
			}
			sb.WriteByte(')')
		}
	case DefaultValue:
		sb.WriteString("default")
	case *NoCandidates:
		fmt.Fprintf(sb, "none[%s]", r.Request.Type)
	case *CandidateAmbiguity:
		fmt.Fprintf(sb, "ambiguous[%d]", len(r.Candidates))
	case *DivergentInjectable:
		fmt.Fprintf(sb, "divergent[%s]", candidateName(r.Candidate))
	case *ReifiedTypeArgumentMismatch:
		fmt.Fprintf(sb, "reified[%s->%s]", r.Parameter, r.Argument)
	case *DependencyFailure:
		fmt.Fprintf(sb, "failed[%s/%s: ", candidateName(r.Candidate), r.Request.Name)
		writeShape(sb, r.Failure)
		sb.WriteByte(']')
	case *DepthExceeded:
		fmt.Fprintf(sb, "depth[%d]", r.Depth)
	}
}
