package pipeline

import (
	"errors"
	"fmt"
	"github.com/funvibe/givens/internal/diagnostics"
	"github.com/funvibe/givens/internal/facts"
	"github.com/funvibe/givens/internal/prettyprinter"
	"github.com/funvibe/givens/internal/resolution"
	"github.com/funvibe/givens/internal/storage"
	"os"
)

// LoadProcessor reads, validates and compiles the facts document.
type LoadProcessor struct{}

func (lp *LoadProcessor) Process(ctx *PipelineContext) *PipelineContext {
	if ctx.Source == nil {
		if !facts.IsFactsFile(ctx.FilePath) {
			ctx.addError(diagnostics.ErrF001, "", "not a facts document")
			return ctx
		}
		data, err := os.ReadFile(ctx.FilePath)
		if err != nil {
			ctx.addError(diagnostics.ErrF001, "", err.Error())
			return ctx
		}
		ctx.Source = data
	}

	doc, err := facts.Parse(ctx.Source, ctx.FilePath)
	if err != nil {
		ctx.addError(loadCode(err), "", loadMessage(err))
		return ctx
	}
	ctx.Document = doc

	prog, err := facts.Compile(doc)
	if err != nil {
		ctx.addError(loadCode(err), "", loadMessage(err))
		return ctx
	}
	ctx.Program = prog
	ctx.Logger.Printf("loaded %s: %d sites", ctx.FilePath, len(prog.Sites()))
	return ctx
}

func loadCode(err error) diagnostics.ErrorCode {
	var verr *facts.ValidationError
	if errors.As(err, &verr) {
		return diagnostics.ErrF003
	}
	return diagnostics.ErrF002
}

// loadMessage drops the file prefix; the diagnostic carries the file.
func loadMessage(err error) string {
	var verr *facts.ValidationError
	if errors.As(err, &verr) {
		return verr.Path + ": " + verr.Message
	}
	return err.Error()
}

// ResolveProcessor builds one job per selected site and resolves them
// concurrently.
type ResolveProcessor struct{}

func (rp *ResolveProcessor) Process(ctx *PipelineContext) *PipelineContext {
	if ctx.Program == nil {
		return ctx
	}

	if len(ctx.Sites) == 0 {
		ctx.Jobs = ctx.Program.Jobs()
	} else {
		for _, name := range ctx.Sites {
			job, err := ctx.Program.Job(name)
			if err != nil {
				ctx.addError(diagnostics.ErrF003, name, err.Error())
				continue
			}
			ctx.Jobs = append(ctx.Jobs, job)
		}
	}

	cfg := ctx.Config.Resolution
	results, err := resolution.ResolveAllLimit(ctx.Context, ctx.Jobs, cfg.Parallel,
		resolution.WithMaxDepth(cfg.MaxDepth),
		resolution.WithLogger(ctx.Logger))
	if err != nil {
		// only cancellation stops a batch
		ctx.Logger.Printf("resolution stopped: %v", err)
		ctx.addError(diagnostics.ErrP001, "", "resolution stopped: "+err.Error())
		return ctx
	}
	ctx.Results = results
	return ctx
}

// ReportProcessor renders every result and turns failures into diagnostics.
type ReportProcessor struct {
	// Width is the line width of rendered trees; zero uses the printer default.
	Width int
}

func (rp *ReportProcessor) Process(ctx *PipelineContext) *PipelineContext {
	for i, result := range ctx.Results {
		site := ctx.Jobs[i].Name
		switch r := result.(type) {
		case *resolution.InjectionSuccess:
			width := rp.Width
			if width <= 0 {
				width = prettyprinter.DefaultLineWidth
			}
			ctx.Reports = append(ctx.Reports, SiteReport{
				Site:   site,
				Result: r,
				Tree:   prettyprinter.Render(r, width),
			})
		case *resolution.InjectionError:
			err := ctx.addError(diagnostics.CodeFor(r.Failure), site,
				prettyprinter.Headline(r.FailureRequest, r.Failure))
			ctx.Reports = append(ctx.Reports, SiteReport{
				Site:   site,
				Result: r,
				Tree:   prettyprinter.Explain(r, ctx.Color),
				Error:  err,
			})
		}
	}
	return ctx
}

// ArchiveProcessor stores the reports when a store is configured.
type ArchiveProcessor struct{}

func (ap *ArchiveProcessor) Process(ctx *PipelineContext) *PipelineContext {
	if ctx.Store == nil || len(ctx.Reports) == 0 {
		return ctx
	}

	run := &storage.Run{File: ctx.FilePath}
	for _, r := range ctx.Reports {
		o := storage.Outcome{Site: r.Site, OK: r.OK(), Tree: prettyprinter.StripColor(r.Tree)}
		if r.Error != nil {
			o.Code = string(r.Error.Code)
			o.Message = r.Error.Message
		}
		run.Outcomes = append(run.Outcomes, o)
	}
	if err := ctx.Store.SaveRun(ctx.Context, run); err != nil {
		ctx.addError(diagnostics.ErrS001, "", fmt.Sprintf("saving run: %v", err))
		return ctx
	}
	ctx.RunID = run.ID
	ctx.Logger.Printf("archived run %s", run.ID)
	return ctx
}
