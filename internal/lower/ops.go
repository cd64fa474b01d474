package lower

import (
	"math"
	"math/big"

	"github.com/roach88/unwind/internal/ir"
	"github.com/roach88/unwind/internal/syntax"
)

// Symbol for unary arithmetic negation when it is not folded into a literal.
const SymNegate = "negate"

// operatorSymbols maps operator kinds to their IR atoms.
var operatorSymbols = map[syntax.Kind]string{
	syntax.KindAdd:      "+",
	syntax.KindSub:      "-",
	syntax.KindMult:     "*",
	syntax.KindDiv:      "/",
	syntax.KindPow:      "pow",
	syntax.KindFloorDiv: "floor_div",
	syntax.KindMod:      "%",

	syntax.KindLt:    "<",
	syntax.KindLtE:   "<=",
	syntax.KindEq:    "==",
	syntax.KindNotEq: "!=",
	syntax.KindGt:    ">",
	syntax.KindGtE:   ">=",

	syntax.KindAnd: "and",
	syntax.KindOr:  "or",
	syntax.KindNot: "not",

	syntax.KindUSub: SymNegate,
}

// extendedOperatorSymbols covers the operators the base dialect leaves to
// the generic fallback.
var extendedOperatorSymbols = map[syntax.Kind]string{
	syntax.KindUAdd:    "pos",
	syntax.KindInvert:  "invert",
	syntax.KindMatMult: "matmul",
	syntax.KindLShift:  "<<",
	syntax.KindRShift:  ">>",
	syntax.KindBitOr:   "|",
	syntax.KindBitXor:  "^",
	syntax.KindBitAnd:  "&",
	syntax.KindIs:      "is",
	syntax.KindIsNot:   "is_not",
	syntax.KindIn:      "in",
	syntax.KindNotIn:   "not_in",
}

// conversionLabels maps interpolation conversion codes to their IR labels.
// The codes are the character values of the conversion flags, with -1 for none.
var conversionLabels = map[int64]string{
	-1:  "no formatting",
	115: "!s string format",
	114: "!r repr format",
	97:  "!a ascii format",
}

// OperatorSymbol returns the IR atom for an operator kind in the base dialect.
func OperatorSymbol(kind syntax.Kind) (string, bool) {
	s, ok := operatorSymbols[kind]
	return s, ok
}

// ConversionLabel returns the IR label for an interpolation conversion code.
func ConversionLabel(code int64) (string, bool) {
	s, ok := conversionLabels[code]
	return s, ok
}

// symbolRule lowers a field-less operator node to a fixed atom.
func symbolRule(sym string) Rule {
	atom := ir.IRString(sym)
	return func(*Lowerer, *syntax.Node) (ir.IRValue, error) {
		return atom, nil
	}
}

// literal lowers a Constant's value by its runtime type. Text is quoted so
// it stays distinct from identifiers.
func literal(v syntax.Value) (ir.IRValue, error) {
	switch val := v.(type) {
	case nil:
		return ir.IRNull{}, nil
	case string:
		return ir.Quote(val), nil
	case int64:
		return ir.IRInt(val), nil
	case *big.Int:
		return ir.BigInt(val), nil
	case float64:
		return ir.IRFloat(val), nil
	case bool:
		return ir.IRBool(val), nil
	default:
		return nil, NewUnknownLiteralType(v)
	}
}

// negate folds unary minus into a numeric atom. ok is false for anything
// that is not an int or float atom.
func negate(v ir.IRValue) (ir.IRValue, bool) {
	switch val := v.(type) {
	case ir.IRInt:
		if val == math.MinInt64 {
			return ir.BigInt(new(big.Int).Neg(big.NewInt(int64(val)))), true
		}
		return -val, true
	case ir.IRBigInt:
		return ir.BigInt(new(big.Int).Neg(val.Int())), true
	case ir.IRFloat:
		return -val, true
	default:
		return nil, false
	}
}
