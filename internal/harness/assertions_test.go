package harness

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/unwind/internal/ir"
)

func loweredResult() *Result {
	r := NewResult("sample")
	r.Dialect = "base"
	r.IR = ir.List("module",
		ir.List("cond",
			ir.IRArray{ir.IRString("a"), ir.IRArray{ir.List("f")}},
			ir.List("else", ir.IRArray{ir.List("g")}),
		),
		ir.List("assign", ir.IRString("x"), ir.IRInt(1)),
	)
	r.IRHash = ir.MustIRHash(r.IR)
	return r
}

func failedResult() *Result {
	r := NewResult("sample")
	r.Dialect = "base"
	r.ErrorCode = "UNSUPPORTED_CONSTRUCT"
	r.ErrorMessage = "UNSUPPORTED_CONSTRUCT: decorators are not supported (kind=FunctionDef)"
	return r
}

func TestAssertIREquals(t *testing.T) {
	r := loweredResult()

	errs := EvaluateAssertions(r, []Assertion{{
		Type: AssertIREquals,
		IR:   `["module", ["cond", ["a", [["f"]]], ["else", [["g"]]]], ["assign", "x", 1]]`,
	}})
	assert.Empty(t, errs)

	errs = EvaluateAssertions(r, []Assertion{{Type: AssertIREquals, IR: `["module"]`}})
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "Assertion failed: ir_equals")
	assert.Contains(t, errs[0], "Expected: (module)")
}

func TestAssertIREqualsDistinguishesNumbers(t *testing.T) {
	r := NewResult("n")
	r.IR = ir.List("module", ir.IRFloat(1))

	errs := EvaluateAssertions(r, []Assertion{{Type: AssertIREquals, IR: `["module", 1]`}})
	assert.Len(t, errs, 1)

	errs = EvaluateAssertions(r, []Assertion{{Type: AssertIREquals, IR: `["module", 1.0]`}})
	assert.Empty(t, errs)
}

func TestAssertContains(t *testing.T) {
	r := loweredResult()

	assert.Empty(t, EvaluateAssertions(r, []Assertion{{Type: AssertContains, Form: `["f"]`}}))
	assert.Empty(t, EvaluateAssertions(r, []Assertion{{Type: AssertContains, Form: `"x"`}}))

	errs := EvaluateAssertions(r, []Assertion{{Type: AssertContains, Form: `["h"]`}})
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "subtree (h)")
	assert.Contains(t, errs[0], "IR:\n")
}

func TestAssertHeadCount(t *testing.T) {
	r := loweredResult()

	assert.Empty(t, EvaluateAssertions(r, []Assertion{{Type: AssertHeadCount, Head: "cond", Count: 1}}))
	assert.Empty(t, EvaluateAssertions(r, []Assertion{{Type: AssertHeadCount, Head: "while", Count: 0}}))

	errs := EvaluateAssertions(r, []Assertion{{Type: AssertHeadCount, Head: "cond", Count: 2}})
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "1 list(s)")
}

func TestCountHeadIgnoresNonHeadPositions(t *testing.T) {
	v := ir.List("assign", ir.IRString("cond"), ir.List("cond"))
	assert.Equal(t, 1, countHead(v, "cond"))
	assert.Equal(t, 0, countHead(ir.IRString("cond"), "cond"))
}

func TestAssertIRHashAndDialect(t *testing.T) {
	r := loweredResult()

	assert.Empty(t, EvaluateAssertions(r, []Assertion{
		{Type: AssertIRHash, Hash: r.IRHash},
		{Type: AssertDialect, Dialect: "base"},
	}))

	errs := EvaluateAssertions(r, []Assertion{
		{Type: AssertIRHash, Hash: "deadbeef"},
		{Type: AssertDialect, Dialect: "base+ops"},
	})
	assert.Len(t, errs, 2)
}

func TestAssertError(t *testing.T) {
	errs := EvaluateAssertions(failedResult(), []Assertion{{Type: AssertError, Code: "UNSUPPORTED_CONSTRUCT"}})
	assert.Empty(t, errs)

	errs = EvaluateAssertions(failedResult(), []Assertion{{Type: AssertError, Code: "UNKNOWN_LITERAL_TYPE"}})
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "Actual: UNSUPPORTED_CONSTRUCT")

	errs = EvaluateAssertions(loweredResult(), []Assertion{{Type: AssertError, Code: "UNSUPPORTED_CONSTRUCT"}})
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "lowering succeeded")
}

func TestUnexpectedFailureIsReported(t *testing.T) {
	errs := EvaluateAssertions(failedResult(), []Assertion{
		{Type: AssertHeadCount, Head: "cond", Count: 1},
		{Type: AssertDialect, Dialect: "base"},
	})
	require.Len(t, errs, 1)
	assert.True(t, strings.HasPrefix(errs[0], "lowering failed: UNSUPPORTED_CONSTRUCT"))
}

func TestUnknownAssertionType(t *testing.T) {
	errs := EvaluateAssertions(loweredResult(), []Assertion{{Type: "final_state"}})
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], `unknown assertion type "final_state"`)
}

func TestResultAddError(t *testing.T) {
	r := NewResult("x")
	assert.True(t, r.Pass)
	r.AddError("boom")
	assert.False(t, r.Pass)
	assert.Equal(t, []string{"boom"}, r.Errors)
}
