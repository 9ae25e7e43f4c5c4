package typesystem

// Shared declarations for the package tests:
//
//	interface Base
//	class Foo1 : Base, class Foo2 : Base
//	class Box<out T>, class Cell<T>, class Sink<in T>
//	tag Qualifier
type fixture struct {
	base, foo1, foo2 *Classifier
	box, cell, sink  *Classifier
	qualifier        *Classifier
}

func newClass(key string, supers ...func() *Type) *Classifier {
	c := &Classifier{Key: key, FqName: key}
	if len(supers) > 0 {
		c.LazySuperTypes = func() []*Type {
			result := make([]*Type, len(supers))
			for i, s := range supers {
				result[i] = s()
			}
			return result
		}
	}
	return c
}

func newGeneric(key string, variance Variance) *Classifier {
	p := NewTypeParameter(key+".T", "T", variance)
	return &Classifier{Key: key, FqName: key, TypeParameters: []*Classifier{p}}
}

func newFixture() *fixture {
	f := &fixture{}
	f.base = newClass("Base")
	f.foo1 = newClass("Foo1", func() *Type { return f.base.DefaultType() })
	f.foo2 = newClass("Foo2", func() *Type { return f.base.DefaultType() })
	f.box = newGeneric("Box", Out)
	f.cell = newGeneric("Cell", Inv)
	f.sink = newGeneric("Sink", In)
	f.qualifier = NewTagClassifier("Qualifier", "Qualifier")
	return f
}

func typeOf(c *Classifier, args ...*Type) *Type { return NewType(c, args...) }

func intType() *Type    { return IntClassifier.DefaultType() }
func stringType() *Type { return StringClassifier.DefaultType() }

// typeParam creates a fresh type parameter with the given upper bounds.
func typeParam(key string, bounds ...*Type) *Classifier {
	p := NewTypeParameter(key, key, Inv)
	if len(bounds) > 0 {
		p.LazySuperTypes = func() []*Type { return bounds }
	}
	return p
}
