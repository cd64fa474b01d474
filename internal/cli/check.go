package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/unwind/internal/harness"
)

// CheckSummary is the JSON payload for the check command.
type CheckSummary struct {
	Passed  int               `json:"passed"`
	Failed  int               `json:"failed"`
	Results []*harness.Result `json:"results"`
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <scenario|dir>...",
		Short: "Run lowering conformance scenarios",
		Long: `Run YAML conformance scenarios. Each scenario lowers a source snippet or
a tree dump and checks assertions about the resulting IR. Directories are
searched for *.yaml and *.yml files.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(rootOpts, args, cmd)
		},
	}
	return cmd
}

func runCheck(opts *RootOptions, args []string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	var scenarios []*harness.Scenario
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return formatter.Fail(fmt.Errorf("path not found: %s: %w", arg, err))
		}
		if info.IsDir() {
			loaded, err := harness.LoadScenarios(arg)
			if err != nil {
				return formatter.Fail(err)
			}
			scenarios = append(scenarios, loaded...)
			continue
		}
		s, err := harness.LoadScenario(arg)
		if err != nil {
			return formatter.Fail(err)
		}
		scenarios = append(scenarios, s)
	}
	formatter.VerboseLog("Loaded %d scenario(s)", len(scenarios))

	h := harness.New(opts.parser(), harness.WithLogger(opts.logger()))
	results, err := h.RunAll(cmd.Context(), scenarios)
	if err != nil {
		return formatter.Fail(err)
	}

	summary := CheckSummary{Results: results}
	for _, r := range results {
		if r.Pass {
			summary.Passed++
		} else {
			summary.Failed++
		}
	}

	if formatter.structured() {
		if err := formatter.Success(summary); err != nil {
			return err
		}
	} else {
		for _, r := range results {
			if r.Pass {
				formatter.OK("%s", r.Name)
				continue
			}
			formatter.Failed("%s", r.Name)
			for _, msg := range r.Errors {
				fmt.Fprintf(formatter.Writer, "    %s\n", strings.ReplaceAll(strings.TrimRight(msg, "\n"), "\n", "\n    "))
			}
		}
		fmt.Fprintf(formatter.Writer, "\n%d passed, %d failed\n", summary.Passed, summary.Failed)
	}

	if summary.Failed > 0 {
		return &ExitError{
			Code:     ExitFailure,
			Message:  fmt.Sprintf("%d of %d scenario(s) failed", summary.Failed, len(results)),
			reported: true,
		}
	}
	return nil
}
