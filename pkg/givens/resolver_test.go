package givens

import (
	"bytes"
	"context"
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/funvibe/givens/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const facts = `
classifiers:
  - {key: app.Foo, name: Foo}
  - {key: app.Bar, name: Bar}
scopes:
  - name: file main
    callables:
      - {name: foo, type: Foo}
      - name: bar
        type: Bar
        parameters: [{name: foo, type: Foo, inject: true}]
sites:
  - name: main
    scope: file main
    requests: [{name: bar, type: Bar}]
  - name: broken
    scope: file main
    requests: [{name: count, type: Int}]
  - name: optional
    scope: file main
    requests: [{name: count, type: Int, required: false}]
`

func TestResolve(t *testing.T) {
	report, err := New().Resolve(context.Background(), "app.yaml", []byte(facts))
	require.NoError(t, err)
	require.Len(t, report.Sites, 3)

	tests := []struct {
		site string
		ok   bool
		code string
		tree string
	}{
		{"main", true, "", "main(bar = bar(foo = foo()))"},
		{"broken", false, "R001", ""},
		{"optional", true, "", "optional()"},
	}
	for _, tt := range tests {
		t.Run(tt.site, func(t *testing.T) {
			s, ok := report.Site(tt.site)
			require.True(t, ok)
			assert.Equal(t, tt.ok, s.OK)
			assert.Equal(t, tt.code, s.Code)
			if tt.tree != "" {
				assert.Equal(t, tt.tree, s.Tree)
			}
		})
	}

	failed := report.Failed()
	require.Len(t, failed, 1)
	assert.Equal(t, "no candidate of type Int for parameter count of broken", failed[0].Message)

	_, ok := report.Site("nope")
	assert.False(t, ok)
}

func TestResolveOptions(t *testing.T) {
	var logs bytes.Buffer
	r := New(
		WithSites("main"),
		WithLineWidth(20),
		WithParallelism(1),
		WithLogger(log.New(&logs, "", 0)),
	)
	report, err := r.Resolve(context.Background(), "app.yaml", []byte(facts))
	require.NoError(t, err)
	require.Len(t, report.Sites, 1)
	assert.Equal(t, "main(\n    bar = bar(foo = foo())\n)", report.Sites[0].Tree)
	assert.Contains(t, logs.String(), "loaded app.yaml")
}

func TestResolveErrors(t *testing.T) {
	cancelled, cancel := context.WithCancel(context.Background())
	cancel()

	tests := []struct {
		name    string
		ctx     context.Context
		source  string
		opts    []Option
		message string
	}{
		{"malformed", context.Background(), "sites: [", nil, "F002"},
		{"unknown site", context.Background(), facts, []Option{WithSites("nope")}, `unknown site "nope"`},
		{"bad parallelism", context.Background(), facts, []Option{WithParallelism(-1)}, "resolution.parallel"},
		{"cancelled", cancelled, facts, nil, "context canceled"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.opts...).Resolve(tt.ctx, "app.yaml", []byte(tt.source))
			assert.ErrorContains(t, err, tt.message)
		})
	}
}

func TestResolveDepthLimit(t *testing.T) {
	doc := `
classifiers:
  - {key: app.Chain, name: Chain, type_parameters: [{name: T}]}
  - {key: app.Leaf, name: Leaf}
scopes:
  - name: file main
    callables:
      - name: chain
        type_parameters: [{name: T}]
        type: Chain<T>
        parameters: [{name: next, type: "T", inject: true}]
      - {name: leaf, type: Leaf}
sites:
  - name: deep
    scope: file main
    requests: [{name: c, type: "Chain<Chain<Chain<Leaf>>>"}]
`
	report, err := New().Resolve(context.Background(), "deep.yaml", []byte(doc))
	require.NoError(t, err)
	require.True(t, report.Sites[0].OK)

	report, err = New(WithMaxDepth(2)).Resolve(context.Background(), "deep.yaml", []byte(doc))
	require.NoError(t, err)
	assert.False(t, report.Sites[0].OK)
	assert.Equal(t, "R006", report.Sites[0].Code)
}

func TestLoadFileWithStore(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.yaml")
	require.NoError(t, os.WriteFile(path, []byte(facts), 0o644))

	store, err := storage.NewSQLiteStore(filepath.Join(dir, "runs.db"))
	require.NoError(t, err)
	defer store.Close()

	report, err := New(WithStore(store)).LoadFile(context.Background(), path)
	require.NoError(t, err)
	require.NotEmpty(t, report.RunID)

	runs, err := store.ListRuns(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, 3, runs[0].Sites)
	assert.Equal(t, 1, runs[0].Failures)

	_, err = New().LoadFile(context.Background(), filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
