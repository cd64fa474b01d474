package lower

import "github.com/roach88/unwind/internal/ir"

// Tags of the flattened conditional form.
const (
	CondTag = "cond"
	ElseTag = "else"
)

// NormalizeCond builds the flat multi-clause form of one if statement:
//
//	(cond (test body) (test2 body2) ... (else orelse))
//
// When orelse is a single statement that is itself a cond, its clauses are
// spliced onto this one, which collapses elif ladders of any length into one
// list. Any other non-empty orelse becomes a terminal else clause.
func NormalizeCond(test ir.IRValue, body, orelse ir.IRArray) ir.IRArray {
	clauses := ir.IRArray{ir.IRArray{test, body}}

	switch {
	case len(orelse) == 0:
	case len(orelse) == 1 && ir.Head(orelse[0]) == CondTag:
		nested := orelse[0].(ir.IRArray)
		clauses = append(clauses, nested[1:]...)
	default:
		clauses = append(clauses, ir.List(ElseTag, orelse))
	}

	return ir.List(CondTag, clauses...)
}
