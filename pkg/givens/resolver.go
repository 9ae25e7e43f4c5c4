// Package givens embeds the resolver in Go programs: it takes a facts
// document and returns one report per injection site.
package givens

import (
	"context"
	"fmt"
	"github.com/funvibe/givens/internal/config"
	"github.com/funvibe/givens/internal/pipeline"
	"github.com/funvibe/givens/internal/storage"
	"io"
	"log"
	"os"
	"strings"
)

// Resolver wraps the resolution pipeline and provides a high-level
// embedding API.
type Resolver struct {
	config *config.Config
	sites  []string
	width  int
	logger *log.Logger
	store  *storage.SQLiteStore
}

type Option func(*Resolver)

func WithMaxDepth(depth int) Option {
	return func(r *Resolver) { r.config.Resolution.MaxDepth = depth }
}

func WithParallelism(n int) Option {
	return func(r *Resolver) { r.config.Resolution.Parallel = n }
}

// WithSites limits resolution to the named sites.
func WithSites(sites ...string) Option {
	return func(r *Resolver) { r.sites = sites }
}

// WithLineWidth sets the width of rendered call trees.
func WithLineWidth(width int) Option {
	return func(r *Resolver) { r.width = width }
}

func WithLogger(logger *log.Logger) Option {
	return func(r *Resolver) { r.logger = logger }
}

// WithStore archives every report in store.
func WithStore(store *storage.SQLiteStore) Option {
	return func(r *Resolver) { r.store = store }
}

// New creates a Resolver with the default configuration.
func New(opts ...Option) *Resolver {
	r := &Resolver{
		config: config.Default(),
		logger: log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SiteReport is the outcome of one injection site.
type SiteReport struct {
	Site string
	OK   bool
	// Code classifies a failure; it is empty on success.
	Code    string
	Message string
	// Tree is the resolved call expression, or the explanation of a failure.
	Tree string
}

// Report is the outcome of resolving one document.
type Report struct {
	File  string
	RunID string
	Sites []SiteReport
}

// Failed returns the reports of the sites that did not resolve.
func (r *Report) Failed() []SiteReport {
	var failed []SiteReport
	for _, s := range r.Sites {
		if !s.OK {
			failed = append(failed, s)
		}
	}
	return failed
}

// Site returns the report of the named site.
func (r *Report) Site(name string) (SiteReport, bool) {
	for _, s := range r.Sites {
		if s.Site == name {
			return s, true
		}
	}
	return SiteReport{}, false
}

// Resolve resolves the document in data. name is used in diagnostics. An
// error is returned when the document cannot be loaded, not when sites fail
// to resolve.
func (r *Resolver) Resolve(ctx context.Context, name string, data []byte) (*Report, error) {
	if err := r.config.Validate(); err != nil {
		return nil, err
	}

	pctx := pipeline.NewPipelineContext(name, data)
	pctx.Context = ctx
	pctx.Config = r.config
	pctx.Sites = r.sites
	pctx.Logger = r.logger
	pctx.Store = r.store

	pctx = pipeline.New(
		&pipeline.LoadProcessor{},
		&pipeline.ResolveProcessor{},
		&pipeline.ReportProcessor{Width: r.width},
		&pipeline.ArchiveProcessor{},
	).Run(pctx)

	if err := pipelineError(pctx); err != nil {
		return nil, err
	}

	report := &Report{File: name, RunID: pctx.RunID}
	for _, sr := range pctx.Reports {
		s := SiteReport{Site: sr.Site, OK: sr.OK(), Tree: sr.Tree}
		if sr.Error != nil {
			s.Code = string(sr.Error.Code)
			s.Message = sr.Error.Message
		}
		report.Sites = append(report.Sites, s)
	}
	return report, nil
}

// LoadFile reads and resolves a facts document.
func (r *Resolver) LoadFile(ctx context.Context, path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return r.Resolve(ctx, path, data)
}

// pipelineError reports everything but site resolution failures, which
// belong to the report.
func pipelineError(pctx *pipeline.PipelineContext) error {
	var msgs []string
	for _, e := range pctx.Errors {
		if !strings.HasPrefix(string(e.Code), "R") {
			msgs = append(msgs, e.Error())
		}
	}
	if len(msgs) > 0 {
		return fmt.Errorf("errors during resolution:\n%s", strings.Join(msgs, "\n"))
	}
	if len(pctx.Reports) < len(pctx.Jobs) {
		if err := pctx.Context.Err(); err != nil {
			return err
		}
		return fmt.Errorf("%s: resolution incomplete", pctx.FilePath)
	}
	return nil
}
