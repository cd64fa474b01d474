package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/unwind/internal/ir"
)

// HashEntry is the JSON payload for one hashed file.
type HashEntry struct {
	Path       string `json:"path"`
	SourceHash string `json:"source_hash"`
	IRHash     string `json:"ir_hash"`
	Dialect    string `json:"dialect"`
}

// NewHashCommand creates the hash command.
func NewHashCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hash <file>...",
		Short: "Print the IR hash of each file",
		Long: `Lower each file and print the hash of its canonical IR, one line per
file in the style of sha256sum. Equal hashes mean identical IR.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHash(rootOpts, args, cmd)
		},
	}
	return cmd
}

func runHash(opts *RootOptions, paths []string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	p, closeFn, err := opts.newPipeline(opts.parser())
	if err != nil {
		return err
	}
	defer closeFn()

	entries := make([]HashEntry, 0, len(paths))
	for _, path := range paths {
		res, err := p.LowerFile(cmd.Context(), path)
		if err != nil {
			return formatter.Fail(err)
		}
		if res.IRHash == "" {
			// Non-finite reals have no canonical encoding.
			_, err := ir.IRHash(res.IR)
			return formatter.Fail(fmt.Errorf("%s: %w", path, err))
		}
		entries = append(entries, HashEntry{
			Path:       path,
			SourceHash: res.SourceHash,
			IRHash:     res.IRHash,
			Dialect:    res.Dialect,
		})
	}

	if formatter.structured() {
		return formatter.Success(entries)
	}
	for _, e := range entries {
		fmt.Fprintf(formatter.Writer, "%s  %s\n", e.IRHash, e.Path)
	}
	return nil
}
