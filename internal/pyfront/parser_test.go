package pyfront

import (
	"context"
	"errors"
	"math"
	"math/big"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/unwind/internal/ir"
	"github.com/roach88/unwind/internal/lower"
	"github.com/roach88/unwind/internal/syntax"
)

func requirePython(t *testing.T) *Parser {
	t.Helper()
	if _, err := exec.LookPath(DefaultInterpreter); err != nil {
		t.Skipf("%s not on PATH", DefaultInterpreter)
	}
	return New()
}

func parse(t *testing.T, p *Parser, source string) *syntax.Node {
	t.Helper()
	tree, err := p.Parse(context.Background(), source)
	require.NoError(t, err)
	require.Equal(t, syntax.KindModule, tree.Kind)
	return tree
}

// firstValue returns the value of the first statement of an expression module.
func firstValue(t *testing.T, tree *syntax.Node) *syntax.Node {
	t.Helper()
	body := tree.Items("body")
	require.NotEmpty(t, body)
	stmt, ok := body[0].(*syntax.Node)
	require.True(t, ok)
	value := stmt.Child("value")
	require.NotNil(t, value)
	return value
}

func TestParseAndLower(t *testing.T) {
	p := requirePython(t)
	tree := parse(t, p, "x = 1\nimport a, b\n")

	got, err := lower.New().Lower(tree)
	require.NoError(t, err)

	data, err := ir.MarshalCanonical(got)
	require.NoError(t, err)
	assert.Equal(t, `["module",["assign","x",1],["import","a","b"]]`, string(data))
}

func TestParseElifLadder(t *testing.T) {
	p := requirePython(t)
	tree := parse(t, p, "if a:\n    f()\nelif b:\n    g()\nelse:\n    h()\n")

	got, err := lower.New().Lower(tree)
	require.NoError(t, err)
	assert.Equal(t, "(module (cond (a ((f))) (b ((g))) (else ((h)))))", ir.Format(got))
}

func TestParseScalars(t *testing.T) {
	p := requirePython(t)

	tests := []struct {
		source string
		check  func(t *testing.T, v syntax.Value)
	}{
		{"1180591620717411303424", func(t *testing.T, v syntax.Value) {
			x, ok := v.(*big.Int)
			require.True(t, ok, "got %T", v)
			assert.Equal(t, "1180591620717411303424", x.String())
		}},
		{"0xFFFFFFFFFFFFFFFF", func(t *testing.T, v syntax.Value) {
			x, ok := v.(*big.Int)
			require.True(t, ok, "got %T", v)
			assert.Equal(t, "18446744073709551615", x.String())
		}},
		{"b'x'", func(t *testing.T, v syntax.Value) {
			assert.Equal(t, syntax.Opaque{Type: "bytes", Repr: "b'x'"}, v)
		}},
		{"1e400", func(t *testing.T, v syntax.Value) {
			f, ok := v.(float64)
			require.True(t, ok)
			assert.True(t, math.IsInf(f, 1))
		}},
		{"2.0", func(t *testing.T, v syntax.Value) {
			assert.Equal(t, 2.0, v)
		}},
		{"...", func(t *testing.T, v syntax.Value) {
			assert.Equal(t, "ellipsis", syntax.ScalarType(v))
		}},
		{"'h\u00e9llo'", func(t *testing.T, v syntax.Value) {
			assert.Equal(t, "h\u00e9llo", v)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			constant := firstValue(t, parse(t, p, tt.source))
			require.Equal(t, syntax.KindConstant, constant.Kind)
			v, _ := constant.Get("value")
			tt.check(t, v)
		})
	}
}

func TestParseSyntaxError(t *testing.T) {
	p := requirePython(t)

	_, err := p.Parse(context.Background(), "def (:\n")
	require.Error(t, err)
	assert.True(t, IsSyntaxError(err))

	var se *SyntaxError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, 1, se.Line)
	assert.NotEmpty(t, se.Msg)
}

func TestIndentationErrorIsSyntaxError(t *testing.T) {
	p := requirePython(t)

	_, err := p.Parse(context.Background(), "if x:\npass\n")
	var se *SyntaxError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "IndentationError", se.Type)
}

func TestNulByteIsSyntaxError(t *testing.T) {
	p := requirePython(t)

	// Interpreters before 3.12 reject NUL with ValueError instead of SyntaxError.
	_, err := p.Parse(context.Background(), "x = 1\x00\n")
	var se *SyntaxError
	require.True(t, errors.As(err, &se), "got %v", err)
	assert.Contains(t, []string{"SyntaxError", "ValueError"}, se.Type)
	assert.Contains(t, se.Msg, "null bytes")
}

func TestCapabilities(t *testing.T) {
	p := requirePython(t)

	caps, err := p.Capabilities(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, caps.Version)

	again, err := p.Capabilities(context.Background())
	require.NoError(t, err)
	assert.Equal(t, caps, again)
}

func TestParseSeedsCapabilities(t *testing.T) {
	p := requirePython(t)
	parse(t, p, "pass")

	p.mu.Lock()
	probed := p.probed
	p.mu.Unlock()
	assert.True(t, probed)
}

func TestParseMatchStatement(t *testing.T) {
	p := requirePython(t)
	caps, err := p.Capabilities(context.Background())
	require.NoError(t, err)
	if !caps.PatternMatching {
		t.Skipf("python %s has no match statement", caps.Version)
	}

	tree := parse(t, p, "match cmd:\n    case x:\n        pass\n")
	got, err := lower.New(lower.WithCapabilities(caps)).Lower(tree)
	require.NoError(t, err)
	assert.Equal(t, "(module (match cmd ((match_case (match_as x) ((pass))))))", ir.Format(got))
}

func TestParseCancelled(t *testing.T) {
	p := requirePython(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Parse(ctx, "x = 1")
	require.Error(t, err)
	assert.False(t, IsSyntaxError(err))
}

func TestInterpreterNotFound(t *testing.T) {
	p := New(WithInterpreter("unwind-no-such-python"))
	assert.Equal(t, "unwind-no-such-python", p.Interpreter())

	_, err := p.Parse(context.Background(), "x = 1")
	assert.ErrorIs(t, err, ErrInterpreterNotFound)

	_, err = p.Capabilities(context.Background())
	assert.ErrorIs(t, err, ErrInterpreterNotFound)
}

func TestWithInterpreterEmptyKeepsDefault(t *testing.T) {
	assert.Equal(t, DefaultInterpreter, New(WithInterpreter("")).Interpreter())
}

func TestSyntaxErrorMessage(t *testing.T) {
	err := &SyntaxError{Type: "SyntaxError", Msg: "invalid syntax", Line: 3, Offset: 7}
	assert.Equal(t, "SyntaxError: invalid syntax (line 3, column 7)", err.Error())

	err = &SyntaxError{Type: "SyntaxError", Msg: "unexpected EOF"}
	assert.Equal(t, "SyntaxError: unexpected EOF", err.Error())
}
