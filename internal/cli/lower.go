package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/unwind/internal/config"
	"github.com/roach88/unwind/internal/ir"
	"github.com/roach88/unwind/internal/pipeline"
	"github.com/roach88/unwind/internal/syntax"
)

// textWidth is where text output starts breaking lists across lines.
const textWidth = 80

// LowerOptions holds flags for the lower command.
type LowerOptions struct {
	*RootOptions
	Tree   bool   // input is a JSON tree dump
	Units  bool   // lower each top-level statement separately
	Output string // output file path
}

// LowerResult is the JSON payload for a successful lowering.
type LowerResult struct {
	Path       string          `json:"path,omitempty"`
	SourceHash string          `json:"source_hash,omitempty"`
	Dialect    string          `json:"dialect"`
	IRHash     string          `json:"ir_hash,omitempty"`
	Cached     bool            `json:"cached"`
	IR         json.RawMessage `json:"ir,omitempty"`
	Output     string          `json:"output,omitempty"`
}

// UnitOutput is the JSON payload for one unit under --units.
type UnitOutput struct {
	Index int             `json:"index"`
	Kind  string          `json:"kind"`
	IR    json.RawMessage `json:"ir,omitempty"`
	Error *CLIError       `json:"error,omitempty"`
}

// NewLowerCommand creates the lower command.
func NewLowerCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LowerOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "lower <file|->",
		Short: "Lower one Python source file to IR",
		Long: `Lower a Python source file to IR and print it in the selected format.

Use "-" to read the source from stdin. With --tree the input is a JSON tree
dump instead of Python source, and no interpreter is started.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLower(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Tree, "tree", false, "input is a JSON tree dump")
	cmd.Flags().BoolVar(&opts.Units, "units", false, "lower each top-level statement separately")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the encoded IR to this file")

	return cmd
}

func runLower(opts *LowerOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	if opts.Tree && opts.Units {
		return NewExitError(ExitCommandError, "--tree and --units cannot be combined")
	}

	data, err := readInput(cmd, path)
	if err != nil {
		return formatter.Fail(err)
	}

	var parser syntax.Parser
	if !opts.Tree {
		parser = opts.parser()
	}
	p, closeFn, err := opts.newPipeline(parser)
	if err != nil {
		return err
	}
	defer closeFn()

	if opts.Units {
		return runLowerUnits(opts, formatter, p, data, cmd)
	}

	var res pipeline.Result
	if opts.Tree {
		tree, decodeErr := syntax.DecodeJSON(data)
		if decodeErr != nil {
			_ = formatter.Error(ErrCodeBadTree, decodeErr.Error(), nil)
			return &ExitError{Code: ExitCommandError, Message: ErrCodeBadTree, Err: decodeErr, reported: true}
		}
		res, err = p.LowerTree(cmd.Context(), tree)
	} else {
		res, err = p.LowerText(cmd.Context(), string(data))
	}
	if err != nil {
		return formatter.Fail(err)
	}
	if path != "-" {
		res.Path = path
	}
	formatter.VerboseLog("Lowered %s with dialect %s (cached=%t)", displayPath(path), res.Dialect, res.Cached)

	if opts.Output != "" {
		if err := writeIRFile(opts.Output, opts.Format, res.IR); err != nil {
			_ = formatter.Error(ErrCodeWriteFailed, err.Error(), nil)
			return &ExitError{Code: ExitCommandError, Message: ErrCodeWriteFailed, Err: err, reported: true}
		}
		if formatter.structured() {
			return formatter.Success(newLowerResult(res, nil, opts.Output))
		}
		formatter.OK("Wrote IR for %s to %s", displayPath(path), opts.Output)
		return nil
	}

	return writeResult(formatter, res)
}

// writeResult prints one lowering in the configured format.
func writeResult(formatter *OutputFormatter, res pipeline.Result) error {
	switch formatter.Format {
	case config.FormatJSON:
		raw, err := ir.MarshalIRValue(res.IR)
		if err != nil {
			return formatter.Fail(err)
		}
		return formatter.Success(newLowerResult(res, raw, ""))
	default:
		data, err := encodeIR(formatter.Format, res.IR)
		if err != nil {
			return formatter.Fail(err)
		}
		_, err = formatter.Writer.Write(data)
		return err
	}
}

func runLowerUnits(opts *LowerOptions, formatter *OutputFormatter, p *pipeline.Pipeline, data []byte, cmd *cobra.Command) error {
	if opts.Format != config.FormatText && opts.Format != config.FormatJSON {
		return NewExitError(ExitCommandError, "--units supports only text and json output")
	}
	if opts.Output != "" {
		return NewExitError(ExitCommandError, "--units cannot be combined with --output")
	}

	units, err := p.LowerUnits(cmd.Context(), string(data))
	if err != nil {
		return formatter.Fail(err)
	}

	failed := 0
	out := make([]UnitOutput, len(units))
	for i, u := range units {
		out[i] = UnitOutput{Index: u.Index, Kind: string(u.Kind)}
		if u.Err != nil {
			failed++
			code, _ := classify(u.Err)
			out[i].Error = &CLIError{Code: code, Message: u.Err.Error()}
			continue
		}
		raw, err := ir.MarshalIRValue(u.IR)
		if err != nil {
			return formatter.Fail(err)
		}
		out[i].IR = raw
	}

	if formatter.structured() {
		if err := formatter.Success(out); err != nil {
			return err
		}
	} else {
		for i, u := range units {
			if u.Err != nil {
				formatter.Failed("[%d] %s: %s %s", u.Index, u.Kind, out[i].Error.Code, u.Err)
				continue
			}
			fmt.Fprintf(formatter.Writer, "[%d] %s\n", u.Index, ir.Format(u.IR))
		}
	}

	if failed > 0 {
		return &ExitError{
			Code:     ExitFailure,
			Message:  fmt.Sprintf("%d of %d unit(s) failed to lower", failed, len(units)),
			reported: formatter.structured(),
		}
	}
	return nil
}

func newLowerResult(res pipeline.Result, raw json.RawMessage, output string) LowerResult {
	return LowerResult{
		Path:       res.Path,
		SourceHash: res.SourceHash,
		Dialect:    res.Dialect,
		IRHash:     res.IRHash,
		Cached:     res.Cached,
		IR:         raw,
		Output:     output,
	}
}

// encodeIR renders v in one of the output formats. Every format except
// msgpack ends with a newline.
func encodeIR(format string, v ir.IRValue) ([]byte, error) {
	switch format {
	case config.FormatText:
		return []byte(ir.FormatIndent(v, textWidth) + "\n"), nil
	case config.FormatJSON:
		data, err := ir.MarshalIRValue(v)
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	case config.FormatCanonical:
		data, err := ir.MarshalCanonical(v)
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	case config.FormatMsgpack:
		return ir.MarshalMsgpack(v)
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}
}

func writeIRFile(path, format string, v ir.IRValue) error {
	data, err := encodeIR(format, v)
	if err != nil {
		return fmt.Errorf("encoding IR: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}
	return nil
}

// readInput reads path, or stdin when path is "-".
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("path not found: %s: %w", path, err)
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return data, nil
}

func displayPath(path string) string {
	if path == "-" {
		return "<stdin>"
	}
	return path
}
