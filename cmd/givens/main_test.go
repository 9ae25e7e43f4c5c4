package main

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cliResult struct {
	stdout string
	stderr string
	err    error
}

func execute(t *testing.T, args ...string) cliResult {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append(args, "--config", filepath.Join(t.TempDir(), "none.yaml")))
	err := cmd.Execute()
	return cliResult{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

func TestResolveCommand(t *testing.T) {
	res := execute(t, "resolve", "testdata/app.yaml")

	var failed *failedError
	require.ErrorAs(t, res.err, &failed)
	assert.Equal(t, 1, failed.count)
	assert.Contains(t, res.stdout, "== main\nmain(bar = bar(foo = foo()))\n")
	assert.Contains(t, res.stdout, "== broken [R001]\nno candidate of type Int for parameter count of broken\n")
	assert.Contains(t, res.stdout, "/* missing: Int */")
	assert.NotContains(t, res.stdout, "\033[", "output to a buffer is not colored")
	assert.NotContains(t, res.stderr, "Processing failed", "site failures are printed once")
}

func TestResolveSelectedSites(t *testing.T) {
	res := execute(t, "resolve", "testdata/app.yaml", "--site", "main", "--width", "20")

	require.NoError(t, res.err)
	assert.Equal(t, "== main\nmain(\n    bar = bar(foo = foo())\n)\n", res.stdout)
}

func TestResolveFlags(t *testing.T) {
	tests := []struct {
		name   string
		args   []string
		stdout string
		stderr string
	}{
		{"color", []string{"--color", "always"}, "\033[", ""},
		{"verbose", []string{"--verbose"}, "", "givens: loaded testdata/app.yaml: 2 sites"},
		{"dump", []string{"--dump"}, "(*resolution.InjectionSuccess)", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := execute(t, append([]string{"resolve", "testdata/app.yaml"}, tt.args...)...)
			assert.Error(t, res.err)
			assert.Contains(t, res.stdout, tt.stdout)
			assert.Contains(t, res.stderr, tt.stderr)
		})
	}
}

func TestResolveRejectsBadColor(t *testing.T) {
	res := execute(t, "resolve", "testdata/app.yaml", "--color", "sometimes")
	assert.ErrorContains(t, res.err, "output.color")
}

func TestCheckCommand(t *testing.T) {
	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("classifiers: ["), 0o644))

	tests := []struct {
		name   string
		path   string
		ok     bool
		stdout string
		stderr string
	}{
		{"valid", "testdata/app.yaml", true, "testdata/app.yaml: 2 sites\n", ""},
		{"malformed", bad, false, "", "F002"},
		{"missing", "testdata/missing.yaml", false, "", "F001"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := execute(t, "check", tt.path)
			if tt.ok {
				require.NoError(t, res.err)
				assert.Equal(t, tt.stdout, res.stdout)
				return
			}
			assert.Error(t, res.err)
			assert.Contains(t, res.stderr, "Processing failed with errors:")
			assert.Contains(t, res.stderr, tt.stderr)
		})
	}
}

func TestHistoryAndShow(t *testing.T) {
	db := filepath.Join(t.TempDir(), "runs.db")

	res := execute(t, "history", "--db", db)
	require.NoError(t, res.err)
	assert.Equal(t, "no runs archived\n", res.stdout)

	res = execute(t, "resolve", "testdata/app.yaml", "--db", db)
	require.Error(t, res.err)
	m := regexp.MustCompile(`archived as run (\S+)`).FindStringSubmatch(res.stderr)
	require.Len(t, m, 2, res.stderr)
	id := m[1]

	res = execute(t, "history", "--db", db, "testdata/app.yaml")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "RUN")
	assert.Regexp(t, id+`\s+\S+\s+testdata/app.yaml\s+2\s+1`, res.stdout)

	res = execute(t, "show", id, "--db", db)
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "run "+id+" of testdata/app.yaml")
	assert.Contains(t, res.stdout, "== broken [R001]\nno candidate of type Int")

	res = execute(t, "show", "nope", "--db", db)
	assert.EqualError(t, res.err, `no run "nope"`)
}

func TestHistoryNeedsArchive(t *testing.T) {
	t.Setenv("GIVENS_DB", "")
	res := execute(t, "history")
	assert.ErrorContains(t, res.err, "no report archive configured")
}

func TestUseColor(t *testing.T) {
	var buf bytes.Buffer
	assert.True(t, useColor("always", &buf))
	assert.False(t, useColor("never", &buf))
	assert.False(t, useColor("auto", &buf))
}
