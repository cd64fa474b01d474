package syntax

// Kind names a node type. Values are the class names of the Python ast module,
// which is the grammar the front end speaks.
type Kind string

// Statement and structural kinds.
const (
	KindModule      Kind = "Module"
	KindExpr        Kind = "Expr"
	KindImport      Kind = "Import"
	KindImportFrom  Kind = "ImportFrom"
	KindAlias       Kind = "alias"
	KindWith        Kind = "With"
	KindWithItem    Kind = "withitem"
	KindAssign      Kind = "Assign"
	KindAnnAssign   Kind = "AnnAssign"
	KindAugAssign   Kind = "AugAssign"
	KindFunctionDef Kind = "FunctionDef"
	KindClassDef    Kind = "ClassDef"
	KindArguments   Kind = "arguments"
	KindArg         Kind = "arg"
	KindAssert      Kind = "Assert"
	KindReturn      Kind = "Return"
	KindRaise       Kind = "Raise"
	KindIf          Kind = "If"
	KindWhile       Kind = "While"
	KindFor         Kind = "For"
	KindBreak       Kind = "Break"
	KindContinue    Kind = "Continue"
	KindPass        Kind = "Pass"
)

// Expression kinds.
const (
	KindCall           Kind = "Call"
	KindName           Kind = "Name"
	KindList           Kind = "List"
	KindTuple          Kind = "Tuple"
	KindDict           Kind = "Dict"
	KindAttribute      Kind = "Attribute"
	KindKeyword        Kind = "keyword"
	KindConstant       Kind = "Constant"
	KindBinOp          Kind = "BinOp"
	KindBoolOp         Kind = "BoolOp"
	KindUnaryOp        Kind = "UnaryOp"
	KindCompare        Kind = "Compare"
	KindListComp       Kind = "ListComp"
	KindComprehension  Kind = "comprehension"
	KindStarred        Kind = "Starred"
	KindJoinedStr      Kind = "JoinedStr"
	KindFormattedValue Kind = "FormattedValue"
	KindSubscript      Kind = "Subscript"
	KindIndex          Kind = "Index"
)

// Pattern matching kinds. Only grammars that report
// Capabilities.PatternMatching produce these.
const (
	KindMatch     Kind = "Match"
	KindMatchCase Kind = "match_case"
	KindMatchAs   Kind = "MatchAs"
)

// Operator kinds. Operators are field-less nodes.
const (
	KindAdd      Kind = "Add"
	KindSub      Kind = "Sub"
	KindMult     Kind = "Mult"
	KindDiv      Kind = "Div"
	KindPow      Kind = "Pow"
	KindFloorDiv Kind = "FloorDiv"
	KindMod      Kind = "Mod"
	KindMatMult  Kind = "MatMult"
	KindLShift   Kind = "LShift"
	KindRShift   Kind = "RShift"
	KindBitOr    Kind = "BitOr"
	KindBitXor   Kind = "BitXor"
	KindBitAnd   Kind = "BitAnd"

	KindLt    Kind = "Lt"
	KindLtE   Kind = "LtE"
	KindEq    Kind = "Eq"
	KindNotEq Kind = "NotEq"
	KindGt    Kind = "Gt"
	KindGtE   Kind = "GtE"
	KindIs    Kind = "Is"
	KindIsNot Kind = "IsNot"
	KindIn    Kind = "In"
	KindNotIn Kind = "NotIn"

	KindAnd Kind = "And"
	KindOr  Kind = "Or"
	KindNot Kind = "Not"

	KindUSub   Kind = "USub"
	KindUAdd   Kind = "UAdd"
	KindInvert Kind = "Invert"
)

// Capabilities describes which optional constructs a grammar can produce.
type Capabilities struct {
	// Version is the grammar version reported by the front end, e.g. "3.12.1".
	Version string `json:"version"`

	// PatternMatching is true when the grammar has match statements.
	PatternMatching bool `json:"pattern_matching"`
}
