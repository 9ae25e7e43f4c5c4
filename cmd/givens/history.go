package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func newHistoryCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "history [facts.yaml]",
		Short: "List archived resolution runs",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load(cmd)
			if err != nil {
				return err
			}
			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			file := ""
			if len(args) > 0 {
				file = args[0]
			}
			runs, err := store.ListRuns(cmd.Context(), file)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no runs archived")
				return nil
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "RUN\tCREATED\tFILE\tSITES\tFAILURES")
			for _, r := range runs {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\n",
					r.ID, r.CreatedAt.Format(time.RFC3339), r.File, r.Sites, r.Failures)
			}
			return tw.Flush()
		},
	}
}

func newShowCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-id>",
		Short: "Print the reports of an archived run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load(cmd)
			if err != nil {
				return err
			}
			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			run, err := store.GetRun(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if run == nil {
				return fmt.Errorf("no run %q", args[0])
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "run %s of %s at %s\n", run.ID, run.File, run.CreatedAt.Format(time.RFC3339))
			for _, o := range run.Outcomes {
				fmt.Fprintln(out)
				if o.OK {
					fmt.Fprintf(out, "== %s\n%s\n", o.Site, o.Tree)
				} else {
					fmt.Fprintf(out, "== %s [%s]\n%s", o.Site, o.Code, o.Tree)
				}
			}
			return nil
		},
	}
}
