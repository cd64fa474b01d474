package lower

import (
	"errors"
	"fmt"

	"github.com/roach88/unwind/internal/syntax"
)

// LowerError is a fatal lowering error. There is no partial output: the
// lowering call that produced it returns no IR.
type LowerError struct {
	// Code identifies the error category.
	Code ErrorCode

	// Kind is the kind of the node being lowered.
	Kind syntax.Kind

	// Message is a human-readable description.
	Message string
}

// ErrorCode categorizes lowering errors.
type ErrorCode string

const (
	// ErrCodeUnsupportedConstruct marks constructs the lowering deliberately
	// does not implement: decorators and inline type comments.
	ErrCodeUnsupportedConstruct ErrorCode = "UNSUPPORTED_CONSTRUCT"

	// ErrCodeUnknownLiteralType marks a literal whose value is not text,
	// integer, real, boolean or null.
	ErrCodeUnknownLiteralType ErrorCode = "UNKNOWN_LITERAL_TYPE"

	// ErrCodeUnknownConversion marks an interpolation conversion code outside
	// the conversion table.
	ErrCodeUnknownConversion ErrorCode = "UNKNOWN_CONVERSION_CODE"
)

// Error implements the error interface.
func (e *LowerError) Error() string {
	if e.Kind != "" {
		return fmt.Sprintf("%s: %s (kind=%s)", e.Code, e.Message, e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewUnsupportedConstruct creates a LowerError for an unimplemented feature
// of a definition node.
func NewUnsupportedConstruct(kind syntax.Kind, feature string) *LowerError {
	return &LowerError{
		Code:    ErrCodeUnsupportedConstruct,
		Kind:    kind,
		Message: feature + " are not supported",
	}
}

// NewUnknownLiteralType creates a LowerError for a literal of an unmodelled type.
func NewUnknownLiteralType(value syntax.Value) *LowerError {
	return &LowerError{
		Code:    ErrCodeUnknownLiteralType,
		Kind:    syntax.KindConstant,
		Message: fmt.Sprintf("literal of type %s: %s", syntax.ScalarType(value), syntax.Repr(value)),
	}
}

// NewUnknownConversion creates a LowerError for an unknown conversion code.
func NewUnknownConversion(code syntax.Value) *LowerError {
	return &LowerError{
		Code:    ErrCodeUnknownConversion,
		Kind:    syntax.KindFormattedValue,
		Message: fmt.Sprintf("conversion code %s", syntax.Repr(code)),
	}
}

// IsUnsupportedConstruct returns true if err is an unsupported construct error.
// Uses errors.As to handle wrapped errors.
func IsUnsupportedConstruct(err error) bool {
	return hasCode(err, ErrCodeUnsupportedConstruct)
}

// IsUnknownLiteralType returns true if err is an unknown literal type error.
func IsUnknownLiteralType(err error) bool {
	return hasCode(err, ErrCodeUnknownLiteralType)
}

// IsUnknownConversion returns true if err is an unknown conversion code error.
func IsUnknownConversion(err error) bool {
	return hasCode(err, ErrCodeUnknownConversion)
}

func hasCode(err error, code ErrorCode) bool {
	var le *LowerError
	if errors.As(err, &le) {
		return le.Code == code
	}
	return false
}
