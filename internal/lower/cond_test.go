package lower

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/unwind/internal/ir"
	"github.com/roach88/unwind/internal/syntax"
	. "github.com/roach88/unwind/internal/testutil"
)

func TestNormalizeCond(t *testing.T) {
	body := arr(arr(s("f")))

	t.Run("no else", func(t *testing.T) {
		got := NormalizeCond(s("a"), body, arr())
		assert.Equal(t, arr(s(CondTag), arr(s("a"), body)), got)
	})

	t.Run("plain else", func(t *testing.T) {
		got := NormalizeCond(s("a"), body, arr(arr(s("h"))))
		assert.Equal(t, arr(s(CondTag), arr(s("a"), body), arr(s(ElseTag), arr(arr(s("h"))))), got)
	})

	t.Run("nested cond is spliced", func(t *testing.T) {
		nested := NormalizeCond(s("b"), arr(arr(s("g"))), arr(arr(s("h"))))
		got := NormalizeCond(s("a"), body, arr(nested))
		assert.Equal(t, arr(s(CondTag),
			arr(s("a"), body),
			arr(s("b"), arr(arr(s("g")))),
			arr(s(ElseTag), arr(arr(s("h")))),
		), got)
	})

	t.Run("cond followed by another statement is not spliced", func(t *testing.T) {
		nested := NormalizeCond(s("b"), arr(arr(s("g"))), arr())
		orelse := arr(nested, arr(s("h")))
		got := NormalizeCond(s("a"), body, orelse)
		require.Len(t, got, 3)
		assert.Equal(t, arr(s(ElseTag), orelse), got[2])
	})

	t.Run("bare cond atom is an ordinary statement", func(t *testing.T) {
		got := NormalizeCond(s("a"), body, arr(s(CondTag)))
		assert.Equal(t, arr(s(ElseTag), arr(s(CondTag))), got[2])
	})
}

// elifLadder builds `if c0: b0() elif c1: b1() ... else: done()` with n elifs.
func elifLadder(n int) *syntax.Node {
	tail := []*syntax.Node{CallStmt("done")}
	for k := n; k >= 0; k-- {
		branch := If(Name(fmt.Sprintf("c%d", k)), []*syntax.Node{CallStmt(fmt.Sprintf("b%d", k))}, tail)
		tail = []*syntax.Node{branch}
	}
	return tail[0]
}

func containsCond(v ir.IRValue) bool {
	list, ok := v.(ir.IRArray)
	if !ok {
		return false
	}
	if ir.Head(list) == CondTag {
		return true
	}
	for _, elem := range list {
		if containsCond(elem) {
			return true
		}
	}
	return false
}

func TestElifLadderIsFlat(t *testing.T) {
	for _, n := range []int{0, 1, 2, 5, 20} {
		t.Run(fmt.Sprintf("%d elifs", n), func(t *testing.T) {
			got := lowerOK(t, elifLadder(n)).(ir.IRArray)

			// head + (n+1) test clauses + else
			require.Len(t, got, n+3)
			assert.Equal(t, CondTag, ir.Head(got))
			for k, clause := range got[1 : n+2] {
				assert.Equal(t, fmt.Sprintf("c%d", k), ir.Head(clause))
				assert.False(t, containsCond(clause), "clause %d holds a nested cond", k)
			}
			assert.Equal(t, arr(s(ElseTag), arr(arr(s("done")))), got[n+2])
		})
	}
}

func TestElseWithSeveralStatements(t *testing.T) {
	// if a: f()
	// else:
	//     if b: g()
	//     h()
	tree := If(Name("a"),
		[]*syntax.Node{CallStmt("f")},
		[]*syntax.Node{
			If(Name("b"), []*syntax.Node{CallStmt("g")}, nil),
			CallStmt("h"),
		},
	)

	assertLowers(t,
		arr(s("cond"),
			arr(s("a"), arr(arr(s("f")))),
			arr(s("else"), arr(
				arr(s("cond"), arr(s("b"), arr(arr(s("g"))))),
				arr(s("h")),
			)),
		),
		tree,
	)
}

func TestElseWithSingleStatement(t *testing.T) {
	tree := If(Name("a"), []*syntax.Node{CallStmt("f")}, []*syntax.Node{Return(nil)})
	assertLowers(t,
		arr(s("cond"), arr(s("a"), arr(arr(s("f")))), arr(s("else"), arr(arr(s("return"), null)))),
		tree,
	)
}

func TestIfInsideBodyIsNotSpliced(t *testing.T) {
	// if a:
	//     if b: g()
	tree := If(Name("a"), []*syntax.Node{If(Name("b"), []*syntax.Node{CallStmt("g")}, nil)}, nil)
	assertLowers(t,
		arr(s("cond"), arr(s("a"), arr(arr(s("cond"), arr(s("b"), arr(arr(s("g")))))))),
		tree,
	)
}
