package pipeline

// Processor is one stage of the pipeline.
type Processor interface {
	Process(ctx *PipelineContext) *PipelineContext
}

// Pipeline represents a sequence of processing stages.
type Pipeline struct {
	processors []Processor
}

func New(processors ...Processor) *Pipeline {
	return &Pipeline{processors: processors}
}

// Default is the full pipeline: load, resolve, report and archive.
func Default() *Pipeline {
	return New(&LoadProcessor{}, &ResolveProcessor{}, &ReportProcessor{}, &ArchiveProcessor{})
}

// Run executes the pipeline.
func (p *Pipeline) Run(initialCtx *PipelineContext) *PipelineContext {
	ctx := initialCtx
	for _, processor := range p.processors {
		ctx = processor.Process(ctx)
		// Continue on errors: resolution failures of some sites must not
		// hide the reports of the others.
	}
	return ctx
}
