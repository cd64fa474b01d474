package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// KindsResult is the JSON payload for the kinds command.
type KindsResult struct {
	Dialect string   `json:"dialect"`
	Kinds   []string `json:"kinds"`
}

// NewKindsCommand creates the kinds command.
func NewKindsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "kinds",
		Short: "List the node kinds with dedicated lowering rules",
		Long: `List every node kind the active dialect lowers with a dedicated rule.
Kinds not listed still lower, through the generic field-by-field form.
The dialect depends on the interpreter's grammar and --extended-ops.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKinds(rootOpts, cmd)
		},
	}
	return cmd
}

func runKinds(opts *RootOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	p, closeFn, err := opts.newPipeline(opts.parser())
	if err != nil {
		return err
	}
	defer closeFn()

	l, err := p.Lowerer(cmd.Context())
	if err != nil {
		return formatter.Fail(err)
	}

	registry := l.Registry()
	result := KindsResult{Dialect: registry.Name()}
	for _, k := range registry.Kinds() {
		result.Kinds = append(result.Kinds, string(k))
	}

	if formatter.structured() {
		return formatter.Success(result)
	}
	fmt.Fprintf(formatter.Writer, "Dialect %s: %d kind(s)\n", result.Dialect, len(result.Kinds))
	for _, k := range result.Kinds {
		fmt.Fprintf(formatter.Writer, "  %s\n", k)
	}
	return nil
}
