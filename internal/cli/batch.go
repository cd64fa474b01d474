package cli

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

// BatchOptions holds flags for the batch command.
type BatchOptions struct {
	*RootOptions
	Jobs int
}

// BatchFile is the JSON payload for one file of a batch.
type BatchFile struct {
	Path       string    `json:"path"`
	SourceHash string    `json:"source_hash,omitempty"`
	IRHash     string    `json:"ir_hash,omitempty"`
	Cached     bool      `json:"cached"`
	Error      *CLIError `json:"error,omitempty"`
}

// BatchSummary is the JSON payload for a batch.
type BatchSummary struct {
	RunID   string      `json:"run_id,omitempty"`
	Dialect string      `json:"dialect"`
	Failed  int         `json:"failed"`
	Files   []BatchFile `json:"files"`
}

// NewBatchCommand creates the batch command.
func NewBatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BatchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "batch <path>...",
		Short: "Lower many files concurrently",
		Long: `Lower every given file, and every *.py file under given directories,
concurrently. A failing file does not stop the others. With a cache
configured, the run and its per-file outcomes are recorded.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(opts, args, cmd)
		},
	}

	cmd.Flags().IntVarP(&opts.Jobs, "jobs", "j", 0, "files lowered at once (default from config)")

	return cmd
}

func runBatch(opts *BatchOptions, args []string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	paths, err := collectSources(args)
	if err != nil {
		return formatter.Fail(err)
	}
	formatter.VerboseLog("Found %d source file(s)", len(paths))

	jobs := opts.Config.Jobs
	if cmd.Flags().Changed("jobs") {
		jobs = opts.Jobs
	}

	p, closeFn, err := opts.newPipeline(opts.parser())
	if err != nil {
		return err
	}
	defer closeFn()

	res, err := p.Batch(cmd.Context(), paths, jobs)
	if err != nil {
		return formatter.Fail(err)
	}
	dialect, err := p.Dialect(cmd.Context())
	if err != nil {
		return formatter.Fail(err)
	}

	summary := BatchSummary{Dialect: dialect, Failed: res.Failed(), Files: make([]BatchFile, len(res.Files))}
	if res.Run != nil {
		summary.RunID = res.Run.ID
	}
	for i, f := range res.Files {
		bf := BatchFile{Path: f.Path, SourceHash: f.Result.SourceHash, IRHash: f.Result.IRHash, Cached: f.Result.Cached}
		if f.Err != nil {
			code, _ := classify(f.Err)
			bf = BatchFile{Path: f.Path, Error: &CLIError{Code: code, Message: f.Err.Error()}}
		}
		summary.Files[i] = bf
	}

	if formatter.structured() {
		if err := formatter.Success(summary); err != nil {
			return err
		}
	} else {
		outputBatchText(formatter, summary)
	}

	if summary.Failed > 0 {
		return &ExitError{
			Code:     ExitFailure,
			Message:  fmt.Sprintf("%d of %d file(s) failed to lower", summary.Failed, len(summary.Files)),
			reported: true,
		}
	}
	return nil
}

func outputBatchText(formatter *OutputFormatter, summary BatchSummary) {
	for _, f := range summary.Files {
		if f.Error != nil {
			formatter.Failed("%s: %s %s", f.Path, f.Error.Code, f.Error.Message)
			continue
		}
		suffix := ""
		if f.Cached {
			suffix = " (cached)"
		}
		formatter.OK("%s %s%s", f.Path, shortHash(f.IRHash), suffix)
	}

	fmt.Fprintf(formatter.Writer, "\nLowered %d file(s), %d failed [%s]\n",
		len(summary.Files)-summary.Failed, summary.Failed, summary.Dialect)
	if summary.RunID != "" {
		fmt.Fprintf(formatter.Writer, "Recorded run %s\n", summary.RunID)
	}
}

// shortHash trims a hex hash for display.
func shortHash(hash string) string {
	if hash == "" {
		return "-"
	}
	if len(hash) > 12 {
		hash = hash[:12]
	}
	return hash
}

// collectSources expands directories into their *.py files, sorted for a
// deterministic order. Plain file arguments are kept as given.
func collectSources(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("path not found: %s: %w", arg, err)
		}
		if !info.IsDir() {
			paths = append(paths, arg)
			continue
		}

		var found []string
		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && strings.HasSuffix(path, ".py") {
				found = append(found, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("scanning %s: %w", arg, err)
		}
		sort.Strings(found)
		paths = append(paths, found...)
	}
	return paths, nil
}
