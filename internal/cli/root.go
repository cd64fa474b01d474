package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/unwind/internal/config"
	"github.com/roach88/unwind/internal/pipeline"
	"github.com/roach88/unwind/internal/pyfront"
	"github.com/roach88/unwind/internal/store"
	"github.com/roach88/unwind/internal/syntax"
)

// RootOptions holds global flags for all commands and the configuration
// they resolve to.
type RootOptions struct {
	Verbose     bool
	Format      string // "text" | "json" | "canonical" | "msgpack"
	ConfigPath  string
	Cache       string
	Python      string
	ExtendedOps bool

	// Config is filled in before any subcommand runs.
	Config config.Config

	// Parser overrides the python front end. Tests set it.
	Parser syntax.Parser

	Logger *slog.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{config.FormatText, config.FormatJSON, config.FormatCanonical, config.FormatMsgpack}

// NewRootCommand creates the root command for the unwind CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "unwind",
		Short: "Lower Python syntax trees to nested-list IR",
		Long: `unwind parses Python source with a python3 interpreter and lowers the
syntax tree into a nested-list IR suitable for downstream tools.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.resolve(cmd)
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", config.FormatText, "output format (text|json|canonical|msgpack)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "config file (default: unwind.yaml or unwind.toml in the working directory)")
	cmd.PersistentFlags().StringVar(&opts.Cache, "cache", "", "SQLite lowering cache path")
	cmd.PersistentFlags().StringVar(&opts.Python, "python", pyfront.DefaultInterpreter, "python interpreter used to parse sources")
	cmd.PersistentFlags().BoolVar(&opts.ExtendedOps, "extended-ops", false, "name every operator instead of falling back")

	// Add subcommands
	cmd.AddCommand(NewLowerCommand(opts))
	cmd.AddCommand(NewBatchCommand(opts))
	cmd.AddCommand(NewHashCommand(opts))
	cmd.AddCommand(NewKindsCommand(opts))
	cmd.AddCommand(NewCacheCommand(opts))
	cmd.AddCommand(NewCheckCommand(opts))

	return cmd
}

// resolve loads the config file, applies flags that were set explicitly,
// validates the result and installs the logger.
func (opts *RootOptions) resolve(cmd *cobra.Command) error {
	cfg := config.Default()

	path := opts.ConfigPath
	if path == "" {
		if found, ok := config.Find("."); ok {
			path = found
		}
	}
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return WrapExitError(ExitCommandError, "config", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("format") {
		cfg.Format = opts.Format
	}
	if flags.Changed("cache") {
		cfg.Cache = opts.Cache
	}
	if flags.Changed("python") {
		cfg.Python = opts.Python
	}
	if flags.Changed("extended-ops") {
		cfg.ExtendedOperators = opts.ExtendedOps
	}

	if !slices.Contains(ValidFormats, cfg.Format) {
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", cfg.Format, ValidFormats))
	}
	if err := config.Validate(cfg); err != nil {
		return WrapExitError(ExitCommandError, "config", err)
	}

	opts.Config = cfg
	opts.Format = cfg.Format
	opts.Logger = newLogger(cmd.ErrOrStderr(), opts.Verbose)
	return nil
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func (opts *RootOptions) logger() *slog.Logger {
	if opts.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return opts.Logger
}

func (opts *RootOptions) parser() syntax.Parser {
	if opts.Parser != nil {
		return opts.Parser
	}
	return pyfront.New(pyfront.WithInterpreter(opts.Config.Python), pyfront.WithLogger(opts.logger()))
}

// openStore opens the configured cache, or returns nil when caching is off.
func (opts *RootOptions) openStore() (*store.Store, error) {
	if opts.Config.Cache == "" {
		return nil, nil
	}
	s, err := store.Open(opts.Config.Cache)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "open cache", err)
	}
	return s, nil
}

// newPipeline builds the pipeline for a command. The returned close func
// releases the cache and is never nil.
func (opts *RootOptions) newPipeline(parser syntax.Parser) (*pipeline.Pipeline, func(), error) {
	s, err := opts.openStore()
	if err != nil {
		return nil, nil, err
	}

	popts := []pipeline.Option{
		pipeline.WithExtendedOperators(opts.Config.ExtendedOperators),
		pipeline.WithLogger(opts.logger()),
	}
	closeFn := func() {}
	if s != nil {
		popts = append(popts, pipeline.WithStore(s))
		closeFn = func() {
			if err := s.Close(); err != nil {
				opts.logger().Warn("close cache", "error", err)
			}
		}
	}
	return pipeline.New(parser, popts...), closeFn, nil
}

func (opts *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Diagnostics go to stderr to keep encoded output clean
		Verbose:   opts.Verbose,
	}
}

// Execute runs the root command and returns the process exit code.
func Execute(ctx context.Context) int {
	cmd := NewRootCommand()
	if err := cmd.ExecuteContext(ctx); err != nil {
		if !alreadyReported(err) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		return GetExitCode(err)
	}
	return ExitSuccess
}
