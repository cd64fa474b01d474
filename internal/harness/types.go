package harness

import "github.com/roach88/unwind/internal/ir"

// ErrCodeSyntax is the error code reported for sources that do not parse.
const ErrCodeSyntax = "SYNTAX_ERROR"

// Result is the outcome of a scenario execution.
type Result struct {
	// Name is the scenario name.
	Name string `json:"name"`

	// Pass indicates overall success: true if every assertion held.
	Pass bool `json:"pass"`

	// Dialect is the registry the scenario lowered with.
	Dialect string `json:"dialect"`

	// IR is nil when lowering failed.
	IR     ir.IRValue `json:"ir,omitempty"`
	IRHash string     `json:"ir_hash,omitempty"`

	// ErrorCode and ErrorMessage describe a lowering failure.
	ErrorCode    string `json:"error_code,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`

	// Errors contains assertion failure messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
// Used as the starting point for scenario execution.
func NewResult(name string) *Result {
	return &Result{
		Name:   name,
		Pass:   true,
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Failed reports whether lowering itself failed.
func (r *Result) Failed() bool {
	return r.ErrorCode != ""
}
