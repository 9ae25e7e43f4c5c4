package main

import (
	"fmt"
	"github.com/funvibe/givens/internal/pipeline"
	"github.com/funvibe/givens/internal/resolution"
	"io"

	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/cobra"
)

var dumpConfig = spew.ConfigState{
	Indent:                  "  ",
	MaxDepth:                6,
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	SortKeys:                true,
}

func newResolveCmd(opts *options) *cobra.Command {
	var (
		sites []string
		width int
		dump  bool
	)
	cmd := &cobra.Command{
		Use:   "resolve <facts.yaml>",
		Short: "Resolve every injection site of a facts document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load(cmd)
			if err != nil {
				return err
			}

			ctx := pipeline.NewPipelineContext(args[0], nil)
			ctx.Context = cmd.Context()
			ctx.Config = cfg
			ctx.Sites = sites
			ctx.Logger = logger(cfg, cmd.ErrOrStderr())
			ctx.Color = useColor(cfg.Output.Color, cmd.OutOrStdout())
			if cfg.Storage.Path != "" {
				store, err := openStore(cfg)
				if err != nil {
					return err
				}
				defer store.Close()
				ctx.Store = store
			}

			ctx = pipeline.New(
				&pipeline.LoadProcessor{},
				&pipeline.ResolveProcessor{},
				&pipeline.ReportProcessor{Width: width},
				&pipeline.ArchiveProcessor{},
			).Run(ctx)

			out := cmd.OutOrStdout()
			for i, report := range ctx.Reports {
				if i > 0 {
					fmt.Fprintln(out)
				}
				printReport(out, report)
				if dump {
					dumpResult(out, report.Result)
				}
			}
			if ctx.RunID != "" {
				fmt.Fprintf(cmd.ErrOrStderr(), "archived as run %s\n", ctx.RunID)
			}
			return reportErrors(cmd.ErrOrStderr(), ctx)
		},
	}
	cmd.Flags().StringSliceVarP(&sites, "site", "s", nil, "Resolve only the named sites")
	cmd.Flags().IntVarP(&width, "width", "w", 0, "Line width of rendered call trees")
	cmd.Flags().BoolVar(&dump, "dump", false, "Dump the raw resolution results")
	return cmd
}

func newCheckCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "check <facts.yaml>",
		Short: "Validate a facts document without resolving it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load(cmd)
			if err != nil {
				return err
			}
			ctx := pipeline.NewPipelineContext(args[0], nil)
			ctx.Config = cfg
			ctx.Logger = logger(cfg, cmd.ErrOrStderr())
			ctx = pipeline.New(&pipeline.LoadProcessor{}).Run(ctx)
			if err := reportErrors(cmd.ErrOrStderr(), ctx); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d sites\n", args[0], len(ctx.Program.Sites()))
			return nil
		},
	}
}

func printReport(w io.Writer, report pipeline.SiteReport) {
	if report.OK() {
		fmt.Fprintf(w, "== %s\n%s\n", report.Site, report.Tree)
		return
	}
	fmt.Fprintf(w, "== %s [%s]\n%s", report.Site, report.Error.Code, report.Tree)
}

func dumpResult(w io.Writer, result resolution.InjectionResult) {
	dumpConfig.Fdump(w, result)
}

// reportErrors prints the diagnostics that are not already part of a site
// report.
func reportErrors(w io.Writer, ctx *pipeline.PipelineContext) error {
	if len(ctx.Errors) == 0 {
		return nil
	}
	reported := map[string]bool{}
	for _, r := range ctx.Reports {
		if !r.OK() {
			reported[r.Site] = true
		}
	}
	var other int
	for _, err := range ctx.Errors {
		if err.Site != "" && reported[err.Site] {
			continue
		}
		if other == 0 {
			fmt.Fprintln(w, "Processing failed with errors:")
		}
		other++
		fmt.Fprintf(w, "- %s\n", err.Error())
	}
	return &failedError{count: len(ctx.Errors)}
}
