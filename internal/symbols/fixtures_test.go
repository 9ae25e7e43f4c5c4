package symbols

import (
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

func spreadParam(key string, bounds ...*typesystem.Type) *typesystem.Classifier {
	p := typeParam(key, bounds...)
	p.IsSpread = true
	return p
}

func typeOf(c *typesystem.Classifier, args ...*typesystem.Type) *typesystem.Type {
	return typesystem.NewType(c, args...)
}

func intType() *typesystem.Type    { return typesystem.IntClassifier.DefaultType() }
func stringType() *typesystem.Type { return typesystem.StringClassifier.DefaultType() }

func provider(name string, t *typesystem.Type, params ...Parameter) *Callable {
	return NewCallable(name, t, nil, params...)
}

func injected(index int, name string, t *typesystem.Type) Parameter {
	return Parameter{Index: index, Name: name, Type: t, Inject: true}
}

func request(t *typesystem.Type) Request {
	return Request{Type: t, Name: "value", CallableName: "test", Required: true}
}

func callablesOfType(s *Scope, t *typesystem.Type) []*Callable {
	var result []*Callable
	for _, c := range s.Callables() {
		if c.Type.Equal(t) {
			result = append(result, c)
		}
	}
	return result
}
