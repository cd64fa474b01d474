package cli

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/unwind/internal/store"
)

// NewCacheCommand creates the cache command and its subcommands.
func NewCacheCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and maintain the lowering cache",
		Long: `Inspect and maintain the SQLite lowering cache selected with --cache
or the cache config key.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:           "verify",
		Short:         "Re-hash every cached lowering",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCache(rootOpts, cmd, runCacheVerify)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:           "runs",
		Short:         "List recorded batch runs",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCache(rootOpts, cmd, runCacheRuns)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:           "show <run-id>",
		Short:         "Show the per-file outcomes of one run",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCache(rootOpts, cmd, func(f *OutputFormatter, s *store.Store, cmd *cobra.Command) error {
				return runCacheShow(f, s, cmd, args[0])
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:           "prune",
		Short:         "Delete lowerings written by other IR or engine versions",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCache(rootOpts, cmd, runCachePrune)
		},
	})

	return cmd
}

type cacheFunc func(formatter *OutputFormatter, s *store.Store, cmd *cobra.Command) error

// withCache opens the configured cache for fn and closes it afterwards.
func withCache(opts *RootOptions, cmd *cobra.Command, fn cacheFunc) error {
	formatter := opts.formatter(cmd)

	s, err := opts.openStore()
	if err != nil {
		return err
	}
	if s == nil {
		return NewExitError(ExitCommandError, "no cache configured: pass --cache or set cache in the config file")
	}
	defer s.Close()

	return fn(formatter, s, cmd)
}

func cacheFailure(formatter *OutputFormatter, err error) error {
	_ = formatter.Error(ErrCodeCache, err.Error(), nil)
	return &ExitError{Code: ExitCommandError, Message: ErrCodeCache, Err: err, reported: true}
}

func runCacheVerify(formatter *OutputFormatter, s *store.Store, cmd *cobra.Command) error {
	report, err := s.Verify(cmd.Context())
	if err != nil {
		return cacheFailure(formatter, err)
	}

	if formatter.structured() {
		if err := formatter.Success(report); err != nil {
			return err
		}
	} else {
		for _, m := range report.Mismatches {
			formatter.Failed("%s [%s] stored %s, computed %s",
				shortHash(m.SourceHash), m.Dialect, shortHash(m.Stored), shortHash(m.Computed))
		}
		if report.OK() {
			formatter.OK("Verified %d lowering(s)", report.Checked)
		}
		if report.Stale > 0 {
			formatter.Warn("%d lowering(s) from other IR or engine versions; run 'unwind cache prune'", report.Stale)
		}
	}

	if !report.OK() {
		return &ExitError{
			Code:     ExitFailure,
			Message:  fmt.Sprintf("%d of %d lowering(s) do not match their hash", len(report.Mismatches), report.Checked),
			reported: formatter.structured(),
		}
	}
	return nil
}

func runCacheRuns(formatter *OutputFormatter, s *store.Store, cmd *cobra.Command) error {
	runs, err := s.ListRuns(cmd.Context())
	if err != nil {
		return cacheFailure(formatter, err)
	}

	if formatter.structured() {
		return formatter.Success(runs)
	}
	if len(runs) == 0 {
		fmt.Fprintln(formatter.Writer, "No runs recorded")
		return nil
	}
	for _, run := range runs {
		failed := 0
		for _, f := range run.Files {
			if !f.OK() {
				failed++
			}
		}
		fmt.Fprintf(formatter.Writer, "%s  seq=%d  %s  %d file(s), %d failed\n",
			run.ID, run.Seq, run.Dialect, len(run.Files), failed)
	}
	return nil
}

func runCacheShow(formatter *OutputFormatter, s *store.Store, cmd *cobra.Command, id string) error {
	run, err := s.ReadRun(cmd.Context(), id)
	if errors.Is(err, sql.ErrNoRows) {
		_ = formatter.Error(ErrCodeNotFound, fmt.Sprintf("run %s not found", id), nil)
		return &ExitError{Code: ExitCommandError, Message: ErrCodeNotFound, Err: err, reported: true}
	}
	if err != nil {
		return cacheFailure(formatter, err)
	}

	if formatter.structured() {
		return formatter.Success(run)
	}
	fmt.Fprintf(formatter.Writer, "Run %s [%s] seq=%d\n", run.ID, run.Dialect, run.Seq)
	for _, f := range run.Files {
		if f.OK() {
			formatter.OK("%s %s", f.Path, shortHash(f.IRHash))
		} else {
			formatter.Failed("%s: %s", f.Path, f.Error)
		}
	}
	return nil
}

func runCachePrune(formatter *OutputFormatter, s *store.Store, cmd *cobra.Command) error {
	n, err := s.Prune(cmd.Context())
	if err != nil {
		return cacheFailure(formatter, err)
	}
	if formatter.structured() {
		return formatter.Success(map[string]int64{"pruned": n})
	}
	formatter.OK("Pruned %d lowering(s)", n)
	return nil
}
