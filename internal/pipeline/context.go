package pipeline

import (
	"context"
	"github.com/funvibe/givens/internal/config"
	"github.com/funvibe/givens/internal/diagnostics"
	"github.com/funvibe/givens/internal/facts"
	"github.com/funvibe/givens/internal/resolution"
	"github.com/funvibe/givens/internal/storage"
	"io"
	"log"
)

// PipelineContext carries one facts file through the stages.
type PipelineContext struct {
	Context  context.Context
	FilePath string
	// Source is read from FilePath when nil.
	Source []byte
	// Sites limits resolution to the named sites. Empty means all.
	Sites []string

	Config *config.Config
	Logger *log.Logger
	Color  bool
	Store  *storage.SQLiteStore

	Document *facts.Document
	Program  *facts.Program
	Jobs     []resolution.Job
	Results  []resolution.InjectionResult
	Reports  []SiteReport
	RunID    string

	Errors []*diagnostics.DiagnosticError
}

// SiteReport is the rendered outcome of one site.
type SiteReport struct {
	Site   string
	Result resolution.InjectionResult
	// Tree is the call expression on success and the explanation on failure.
	Tree  string
	Error *diagnostics.DiagnosticError
}

func (r SiteReport) OK() bool { return r.Error == nil }

func NewPipelineContext(path string, source []byte) *PipelineContext {
	return &PipelineContext{
		Context:  context.Background(),
		FilePath: path,
		Source:   source,
		Config:   config.Default(),
		Logger:   log.New(io.Discard, "", 0),
	}
}

func (ctx *PipelineContext) addError(code diagnostics.ErrorCode, site, message string) *diagnostics.DiagnosticError {
	err := diagnostics.NewError(code, site, message)
	err.File = ctx.FilePath
	ctx.Errors = append(ctx.Errors, err)
	return err
}

// HasLoadErrors reports whether the document itself could not be used.
func (ctx *PipelineContext) HasLoadErrors() bool {
	return ctx.Program == nil
}

// Failures counts the sites that did not resolve.
func (ctx *PipelineContext) Failures() int {
	n := 0
	for _, r := range ctx.Reports {
		if !r.OK() {
			n++
		}
	}
	return n
}
