package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/unwind/internal/ir"
)

// AssertionError is returned when an assertion fails.
// It includes the lowered IR to help debug the failure.
type AssertionError struct {
	Type     string     // Assertion type for categorization
	Expected string     // Human-readable expected outcome
	Actual   string     // Human-readable actual outcome
	IR       ir.IRValue // Lowered IR, nil when lowering failed
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if e.IR != nil {
		fmt.Fprintf(&buf, "\nIR:\n%s\n", ir.FormatIndent(e.IR, 80))
	}

	return buf.String()
}

// assertIREquals checks the whole IR against the expected JSON.
func assertIREquals(result *Result, assertion Assertion) error {
	want, err := parseIR(assertion.IR)
	if err != nil {
		return err
	}
	if ir.Equal(want, result.IR) {
		return nil
	}
	return &AssertionError{
		Type:     AssertIREquals,
		Expected: ir.Format(want),
		Actual:   ir.Format(result.IR),
		IR:       result.IR,
	}
}

// assertContains checks that form appears as a subtree of the IR.
func assertContains(result *Result, assertion Assertion) error {
	form, err := parseIR(assertion.Form)
	if err != nil {
		return err
	}
	if containsForm(result.IR, form) {
		return nil
	}
	return &AssertionError{
		Type:     AssertContains,
		Expected: "subtree " + ir.Format(form),
		Actual:   "not found",
		IR:       result.IR,
	}
}

func containsForm(v, form ir.IRValue) bool {
	if ir.Equal(v, form) {
		return true
	}
	arr, ok := v.(ir.IRArray)
	if !ok {
		return false
	}
	for _, elem := range arr {
		if containsForm(elem, form) {
			return true
		}
	}
	return false
}

// assertHeadCount checks how many lists start with the given head atom.
func assertHeadCount(result *Result, assertion Assertion) error {
	count := countHead(result.IR, assertion.Head)
	if count == assertion.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertHeadCount,
		Expected: fmt.Sprintf("%d list(s) headed by %s", assertion.Count, assertion.Head),
		Actual:   fmt.Sprintf("%d list(s)", count),
		IR:       result.IR,
	}
}

func countHead(v ir.IRValue, head string) int {
	arr, ok := v.(ir.IRArray)
	if !ok {
		return 0
	}
	n := 0
	if len(arr) > 0 {
		if s, isAtom := arr[0].(ir.IRString); isAtom && string(s) == head {
			n++
		}
	}
	for _, elem := range arr {
		n += countHead(elem, head)
	}
	return n
}

func assertIRHash(result *Result, assertion Assertion) error {
	if result.IRHash == assertion.Hash {
		return nil
	}
	return &AssertionError{
		Type:     AssertIRHash,
		Expected: assertion.Hash,
		Actual:   result.IRHash,
		IR:       result.IR,
	}
}

func assertDialect(result *Result, assertion Assertion) error {
	if result.Dialect == assertion.Dialect {
		return nil
	}
	return &AssertionError{
		Type:     AssertDialect,
		Expected: assertion.Dialect,
		Actual:   result.Dialect,
	}
}

func assertError(result *Result, assertion Assertion) error {
	if result.ErrorCode == assertion.Code {
		return nil
	}
	actual := "lowering succeeded"
	if result.Failed() {
		actual = result.ErrorCode + ": " + result.ErrorMessage
	}
	return &AssertionError{
		Type:     AssertError,
		Expected: "error " + assertion.Code,
		Actual:   actual,
		IR:       result.IR,
	}
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
//
// When lowering failed, only error and dialect assertions are evaluated;
// the failure itself is reported unless some assertion expected an error.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errors []string

	expectsError := false
	for _, assertion := range assertions {
		if assertion.Type == AssertError {
			expectsError = true
		}
	}
	if result.Failed() && !expectsError {
		errors = append(errors, fmt.Sprintf("lowering failed: %s: %s", result.ErrorCode, result.ErrorMessage))
	}

	for i, assertion := range assertions {
		// There is no IR to inspect after a failure.
		if result.Failed() && assertion.Type != AssertError && assertion.Type != AssertDialect {
			continue
		}

		var err error
		switch assertion.Type {
		case AssertIREquals:
			err = assertIREquals(result, assertion)
		case AssertContains:
			err = assertContains(result, assertion)
		case AssertHeadCount:
			err = assertHeadCount(result, assertion)
		case AssertIRHash:
			err = assertIRHash(result, assertion)
		case AssertDialect:
			err = assertDialect(result, assertion)
		case AssertError:
			err = assertError(result, assertion)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
