package facts

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/funvibe/givens/internal/resolution"
	"github.com/funvibe/givens/internal/typesystem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadTestProgram(t *testing.T) *Program {
	t.Helper()
	doc, err := LoadFile(filepath.Join("testdata", "app.yaml"))
	require.NoError(t, err)
	prog, err := Compile(doc)
	require.NoError(t, err)
	return prog
}

func TestParseTypeExpressions(t *testing.T) {
	prog := loadTestProgram(t)
	named := typesystem.NewTagClassifier("app.Named", "Named", typesystem.NewTypeParameter("app.Named.V", "V", typesystem.Inv))
	prog.classifiers[named.Key] = named
	lookup := prog.lookupFunc(nil)

	tests := []struct {
		src  string
		want string
	}{
		{"Int", "Int"},
		{"app.Foo", "Foo"},
		{"Foo?", "Foo?"},
		{"List<Int>", "List<Int>"},
		{"Box<out Foo>", "Box<out Foo>"},
		{"Box<*>", "Box<*>"},
		{"@Qualifier Foo", "@Qualifier Foo"},
		{"@app.Named<String> Foo?", "@Named<String> Foo?"},
		{"(Int, String) -> Foo", "Function2<Int, String, Foo>"},
		{"() -> Unit", "Function0<Unit>"},
		{"Function1<Int, Foo>", "Function1<Int, Foo>"},
		{" Box< List<Int> > ", "Box<List<Int>>"},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			got, err := parseType(tt.src, lookup)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestParseTypeErrors(t *testing.T) {
	prog := loadTestProgram(t)
	lookup := prog.lookupFunc(nil)

	tests := []struct {
		src  string
		want string
	}{
		{"Unknown", "classifier not found: Unknown"},
		{"List<Int, Int>", "List takes 1 type arguments, got 2"},
		{"Qualifier", "must be written as @Qualifier"},
		{"@Foo Int", "Foo is not a tag"},
		{"List<Int", `expected ","`},
		{"Int Foo", `unexpected "Foo"`},
		{"(Int) Foo", `expected "->"`},
		{"", "expected a name"},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			_, err := parseType(tt.src, lookup)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	var notFound *typesystem.ClassifierNotFoundError
	_, err := parseType("Nope", lookup)
	assert.True(t, errors.As(err, &notFound))
}

func TestNameResolution(t *testing.T) {
	doc, err := Parse([]byte(`
classifiers:
  - {key: a.T, name: T}
  - {key: a.Dup, name: Same}
  - {key: b.Dup, name: Same}
scopes:
  - name: root
    callables:
      - name: generic
        type_parameters: [{name: T}]
        type: T
      - name: plain
        type: T
`), "names.yaml")
	require.NoError(t, err)
	prog, err := Compile(doc)
	require.NoError(t, err)

	callables := prog.scopes["root"].callables
	assert.True(t, callables[0].Type.Classifier.IsTypeParameter, "type parameters shadow classifiers")
	assert.Equal(t, "a.T", callables[1].Type.Classifier.Key)

	_, err = parseType("Same", prog.lookupFunc(nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Same is ambiguous: a.Dup, b.Dup")
}

func TestParseValidation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		path string
	}{
		{"missing key", "classifiers: [{name: Foo}]", "classifiers[0].key"},
		{"duplicate key", "classifiers: [{key: A}, {key: A}]", "classifiers[1].key"},
		{"bad variance", "classifiers: [{key: A, type_parameters: [{name: T, variance: up}]}]", "classifiers[0].type_parameters[0].variance"},
		{"unknown kind", "scopes: [{name: s, kind: module}]", "scopes[0].kind"},
		{"unknown parent", "scopes: [{name: s, parent: nope}]", "scopes[0].parent"},
		{"callable without type", "scopes: [{name: s, callables: [{name: f}]}]", "scopes[0].callables[0].type"},
		{"bad visibility", "scopes: [{name: s, callables: [{name: f, type: Int, visibility: internal}]}]", "scopes[0].callables[0].visibility"},
		{"unknown site scope", "sites: [{name: main, scope: nope}]", "sites[0].scope"},
		{"request without type", "scopes: [{name: s}]\nsites: [{name: main, scope: s, requests: [{name: x}]}]", "sites[0].requests[0].type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml), "bad.yaml")
			require.Error(t, err)
			var verr *ValidationError
			require.True(t, errors.As(err, &verr), err.Error())
			assert.Equal(t, tt.path, verr.Path)
			assert.Equal(t, "bad.yaml", verr.File)
		})
	}

	_, err := Parse([]byte("classifiers: {"), "broken.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing broken.yaml")
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		path    string
		message string
	}{
		{"unknown parameter type", "scopes: [{name: s, callables: [{name: f, type: Int, parameters: [{name: x, type: Nope, inject: true}]}]}]",
			"scopes[0].callables[0].parameters[0].type", ""},
		{"bad supertype", "classifiers: [{key: A, supertypes: [\"List<\"]}]", "classifiers[0].supertypes[0]", ""},
		{"bad tag", "classifiers: [{key: A, tags: [Int]}]", "classifiers[0].tags[0]", ""},
		{"cyclic scopes", "scopes: [{name: a, parent: b}, {name: b, parent: a}]", "scopes[0].parent", ""},
		{"bad request type", "scopes: [{name: s}]\nsites: [{name: m, scope: s, requests: [{name: x, type: \"Box<\"}]}]", "sites[0].requests[0].type", ""},
		{"cyclic inheritance", "classifiers: [{key: A, supertypes: [B]}, {key: B, supertypes: [A]}]",
			"classifiers[0].supertypes", "cyclic inheritance: A -> B -> A"},
		{"self inheritance", "classifiers: [{key: C}, {key: D, supertypes: [C, D]}]",
			"classifiers[1].supertypes", "cyclic inheritance: D -> D"},
		{"cyclic inheritance through a generic supertype", "classifiers: [{key: Box, type_parameters: [{name: T}], supertypes: [\"Leaf<T>\"]}, {key: Leaf, type_parameters: [{name: T}], supertypes: [\"Box<T>\"]}]",
			"classifiers[0].supertypes", "cyclic inheritance: Box -> Leaf -> Box"},
		{"cyclic type parameter bounds", "scopes: [{name: s, callables: [{name: f, type: Int, type_parameters: [{name: T, bounds: [U]}, {name: U, bounds: [T]}]}]}]",
			"scopes[0].callables[0].type_parameters[0].bounds", "cyclic bounds: T -> U -> T"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Parse([]byte(tt.yaml), "bad.yaml")
			require.NoError(t, err)
			_, err = Compile(doc)
			require.Error(t, err)
			var verr *ValidationError
			require.True(t, errors.As(err, &verr), err.Error())
			assert.Equal(t, tt.path, verr.Path)
			if tt.message != "" {
				assert.Equal(t, tt.message, verr.Message)
			}
		})
	}
}

func TestLoadFileRejectsOtherExtensions(t *testing.T) {
	_, err := LoadFile("facts.json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), ".yaml, .yml")

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestProgramResolvesSites(t *testing.T) {
	prog := loadTestProgram(t)
	assert.Equal(t, []string{"main", "run", "broken"}, prog.Sites())

	results, err := resolution.ResolveAll(context.Background(), prog.Jobs())
	require.NoError(t, err)
	require.Len(t, results, 3)

	t.Run("main", func(t *testing.T) {
		success, ok := results[0].(*resolution.InjectionSuccess)
		require.True(t, ok, "%#v", results[0])
		require.Len(t, success.Results, 3)

		bar := success.Results[0].Result.(*resolution.Value)
		assert.Equal(t, "provideBar", bar.Candidate.ChainName())
		require.Len(t, bar.Dependencies, 2)
		assert.Equal(t, "module", bar.Dependencies[0].Result.(*resolution.Value).Candidate.ChainName())
		assert.Equal(t, "provideFoo", bar.Dependencies[1].Result.(*resolution.Value).Candidate.ChainName())

		box := success.Results[1].Result.(*resolution.Value)
		assert.Equal(t, "Box<String>", box.Candidate.Type().String())
		assert.Equal(t, "secret", success.Results[2].Result.(*resolution.Value).Candidate.ChainName(),
			"private callables are visible under their owner")
	})

	t.Run("run", func(t *testing.T) {
		success, ok := results[1].(*resolution.InjectionSuccess)
		require.True(t, ok, "%#v", results[1])
		require.Len(t, success.Results, 4)
		assert.Equal(t, "two", success.Results[0].Result.(*resolution.Value).Candidate.ChainName(),
			"one is hidden in run")
		numbers := success.Results[1].Result.(*resolution.Value)
		assert.Len(t, numbers.Dependencies, 1)
		assert.Equal(t, "qualified", success.Results[2].Result.(*resolution.Value).Candidate.ChainName())
		assert.Equal(t, "lambda", success.Results[3].Result.(*resolution.Value).Candidate.ChainName())
	})

	t.Run("broken", func(t *testing.T) {
		failure, ok := results[2].(*resolution.InjectionError)
		require.True(t, ok, "%#v", results[2])
		assert.Equal(t, "double", failure.FailureRequest.Name)
		assert.IsType(t, &resolution.NoCandidates{}, failure.Failure)
	})
}

func TestJobsAreIndependent(t *testing.T) {
	prog := loadTestProgram(t)

	first, err := prog.Job("run")
	require.NoError(t, err)
	second, err := prog.Job("run")
	require.NoError(t, err)

	assert.NotSame(t, first.Scope, second.Scope)
	assert.NotEqual(t, first.Scope.Session().ID, second.Scope.Session().ID)
	assert.Same(t, first.Callee, second.Callee, "callables are shared facts")
	assert.Equal(t, "file main", first.Scope.Parent().Name)

	_, err = prog.Job("nope")
	assert.EqualError(t, err, `unknown site "nope"`)
}
