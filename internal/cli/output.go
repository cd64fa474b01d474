package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"

	"github.com/fatih/color"

	"github.com/roach88/unwind/internal/config"
	"github.com/roach88/unwind/internal/lower"
	"github.com/roach88/unwind/internal/pyfront"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Lowering failure (syntax error, unsupported construct, stale cache)
	ExitCommandError = 2 // Command error (bad flags, missing files, invalid config)
)

// Error codes reported in CLI output.
const (
	ErrCodeGeneric           = "E001" // Generic/unknown error
	ErrCodeSyntax            = "E002" // Source does not parse
	ErrCodeUnsupported       = "E003" // Construct rejected by the lowering rules
	ErrCodeUnknownLiteral    = "E004" // Literal of a type the IR does not model
	ErrCodeUnknownConversion = "E005" // Unknown interpolation conversion code
	ErrCodeNotFound          = "E006" // Path not found
	ErrCodeWriteFailed       = "E007" // File write error
	ErrCodeConfig            = "E008" // Invalid config
	ErrCodeCache             = "E009" // Cache read/write error
	ErrCodeInterpreter       = "E010" // Python interpreter missing
	ErrCodeBadTree           = "E011" // Tree dump does not decode
)

// ExitError represents an error with a specific exit code.
// Use this to return errors with meaningful exit codes from CLI commands.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)

	// reported is set once the error was already written by an OutputFormatter.
	reported bool
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

func alreadyReported(err error) bool {
	var exitErr *ExitError
	return errors.As(err, &exitErr) && exitErr.reported
}

// classify maps an error to its CLI error code and exit code.
func classify(err error) (string, int) {
	var syntaxErr *pyfront.SyntaxError
	var cfgErr *config.ValidationError
	switch {
	case errors.As(err, &syntaxErr):
		return ErrCodeSyntax, ExitFailure
	case lower.IsUnsupportedConstruct(err):
		return ErrCodeUnsupported, ExitFailure
	case lower.IsUnknownLiteralType(err):
		return ErrCodeUnknownLiteral, ExitFailure
	case lower.IsUnknownConversion(err):
		return ErrCodeUnknownConversion, ExitFailure
	case errors.Is(err, fs.ErrNotExist):
		return ErrCodeNotFound, ExitCommandError
	case errors.Is(err, pyfront.ErrInterpreterNotFound):
		return ErrCodeInterpreter, ExitCommandError
	case errors.As(err, &cfgErr):
		return ErrCodeConfig, ExitCommandError
	default:
		return ErrCodeGeneric, ExitFailure
	}
}

// OutputFormatter handles structured vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // Separate writer for verbose/diagnostic output (defaults to Writer)
	Verbose   bool
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status string    `json:"status"`          // "ok" or "error"
	Data   any       `json:"data,omitempty"`  // success payload
	Error  *CLIError `json:"error,omitempty"` // error details
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"`              // "E001", "E002", etc.
	Message string `json:"message"`           // human-readable message
	Details any    `json:"details,omitempty"` // additional context
}

var (
	okColor   = color.New(color.FgGreen, color.Bold)
	failColor = color.New(color.FgRed, color.Bold)
	warnColor = color.New(color.FgYellow)
)

// structured reports whether output is machine-readable. Only text output
// gets human status lines; every other format answers with a CLIResponse
// for status data.
func (f *OutputFormatter) structured() bool {
	return f.Format != config.FormatText
}

// Success outputs a successful result in the configured format.
func (f *OutputFormatter) Success(data any) error {
	if f.structured() {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "ok",
			Data:   data,
		})
	}

	// Human-readable text output
	fmt.Fprintln(f.Writer, data)
	return nil
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.structured() {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    code,
				Message: message,
				Details: details,
			},
		})
	}

	// Human-readable error
	failColor.Fprintf(f.Writer, "\u2717 Error [%s]: ", code)
	fmt.Fprintln(f.Writer, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// Fail reports err through Error and returns the matching ExitError.
func (f *OutputFormatter) Fail(err error) error {
	code, exit := classify(err)
	_ = f.Error(code, err.Error(), nil)
	return &ExitError{Code: exit, Message: code, Err: err, reported: true}
}

// OK prints a green status line in text mode.
func (f *OutputFormatter) OK(format string, args ...any) {
	okColor.Fprint(f.Writer, "\u2713 ")
	fmt.Fprintf(f.Writer, format+"\n", args...)
}

// Failed prints a red status line in text mode.
func (f *OutputFormatter) Failed(format string, args ...any) {
	failColor.Fprint(f.Writer, "\u2717 ")
	fmt.Fprintf(f.Writer, format+"\n", args...)
}

// Warn prints a yellow line to the diagnostic writer.
func (f *OutputFormatter) Warn(format string, args ...any) {
	warnColor.Fprintf(f.GetErrWriter(), format+"\n", args...)
}

// VerboseLog outputs a message only if verbose mode is enabled.
// Uses ErrWriter if set, otherwise falls back to Writer.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.GetErrWriter(), format+"\n", args...)
}

// GetErrWriter returns the appropriate writer for diagnostic output.
// Returns ErrWriter if set, otherwise Writer.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}
