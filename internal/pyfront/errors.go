package pyfront

import (
	"errors"
	"fmt"
)

// SyntaxError is a parse failure reported by the interpreter. The source is
// not valid Python for that interpreter's grammar.
type SyntaxError struct {
	// Type is the Python exception class, e.g. "SyntaxError" or
	// "IndentationError". Older interpreters report NUL bytes as "ValueError".
	Type string `json:"type"`

	// Msg is the interpreter's message.
	Msg string `json:"msg"`

	// Line and Offset locate the error (1-based, 0 when unknown).
	Line   int `json:"lineno"`
	Offset int `json:"offset"`
}

// Error implements the error interface.
func (e *SyntaxError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s: %s (line %d, column %d)", e.Type, e.Msg, e.Line, e.Offset)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Msg)
}

// IsSyntaxError returns true if err is or wraps a *SyntaxError.
func IsSyntaxError(err error) bool {
	var se *SyntaxError
	return errors.As(err, &se)
}

// ErrInterpreterNotFound is returned when the configured interpreter cannot
// be located on PATH.
var ErrInterpreterNotFound = errors.New("python interpreter not found")
