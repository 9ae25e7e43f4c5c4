package main

import (
	"fmt"
	"github.com/funvibe/givens/internal/config"
	"github.com/funvibe/givens/internal/storage"
	"io"
	"log"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

type options struct {
	configPath string
	dbPath     string
	color      string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "givens",
		Short:         "Resolve injected parameters from a facts document",
		Version:       config.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", config.ConfigFileName, "Path to the configuration file")
	root.PersistentFlags().StringVarP(&opts.dbPath, "db", "d", "", "Path to the SQLite report archive")
	root.PersistentFlags().StringVar(&opts.color, "color", "", "Colorize output: auto, always or never")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log resolution steps to stderr")

	root.AddCommand(newResolveCmd(opts))
	root.AddCommand(newCheckCmd(opts))
	root.AddCommand(newHistoryCmd(opts))
	root.AddCommand(newShowCmd(opts))
	return root
}

// load merges the configuration file with the flags set on cmd.
func (o *options) load(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.LoadConfig(o.configPath)
	if err != nil {
		return nil, err
	}
	flags := cmd.Flags()
	if flags.Changed("db") {
		cfg.Storage.Path = o.dbPath
	}
	if flags.Changed("color") {
		cfg.Output.Color = o.color
	}
	if flags.Changed("verbose") {
		cfg.Output.Verbose = o.verbose
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func logger(cfg *config.Config, w io.Writer) *log.Logger {
	if !cfg.Output.Verbose {
		return log.New(io.Discard, "", 0)
	}
	return log.New(w, "givens: ", 0)
}

// useColor decides whether output written to w gets ANSI highlighting.
func useColor(mode string, w io.Writer) bool {
	switch mode {
	case config.ColorAlways:
		return true
	case config.ColorNever:
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func openStore(cfg *config.Config) (*storage.SQLiteStore, error) {
	if cfg.Storage.Path == "" {
		return nil, fmt.Errorf("no report archive configured; use --db or storage.path")
	}
	return storage.NewSQLiteStore(cfg.Storage.Path)
}
