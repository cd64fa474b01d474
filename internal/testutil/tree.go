package testutil

import (
	"github.com/roach88/unwind/internal/syntax"
)

// Builders for syntax trees in tests. Field names and order follow the
// Python ast module so trees look exactly like front-end output.

// F is shorthand for a syntax.Field.
func F(name string, value syntax.Value) syntax.Field {
	return syntax.Field{Name: name, Value: value}
}

// N builds a node of any kind.
func N(kind syntax.Kind, fields ...syntax.Field) *syntax.Node {
	return syntax.New(kind, fields...)
}

// L builds a list value from nodes.
func L(nodes ...*syntax.Node) syntax.List {
	list := make(syntax.List, len(nodes))
	for i, n := range nodes {
		if n == nil {
			list[i] = nil
			continue
		}
		list[i] = n
	}
	return list
}

func ctxLoad() *syntax.Node  { return N("Load") }
func ctxStore() *syntax.Node { return N("Store") }

// Module builds a top-level unit.
func Module(body ...*syntax.Node) *syntax.Node {
	return N(syntax.KindModule, F("body", L(body...)), F("type_ignores", syntax.List{}))
}

// Expr wraps an expression as a statement.
func Expr(value *syntax.Node) *syntax.Node {
	return N(syntax.KindExpr, F("value", value))
}

// Name builds a load-context identifier.
func Name(id string) *syntax.Node {
	return N(syntax.KindName, F("id", id), F("ctx", ctxLoad()))
}

// Target builds a store-context identifier.
func Target(id string) *syntax.Node {
	return N(syntax.KindName, F("id", id), F("ctx", ctxStore()))
}

// Const builds a literal. v is nil, string, int64, *big.Int, float64, bool or
// syntax.Opaque.
func Const(v syntax.Value) *syntax.Node {
	return N(syntax.KindConstant, F("value", v), F("kind", nil))
}

// Int is shorthand for an integer literal.
func Int(i int64) *syntax.Node {
	return Const(i)
}

// Str is shorthand for a text literal.
func Str(s string) *syntax.Node {
	return Const(s)
}

// Call builds an invocation with positional arguments.
func Call(fn *syntax.Node, args ...*syntax.Node) *syntax.Node {
	return CallKw(fn, args, nil)
}

// CallKw builds an invocation with positional and keyword arguments.
func CallKw(fn *syntax.Node, args, keywords []*syntax.Node) *syntax.Node {
	return N(syntax.KindCall, F("func", fn), F("args", L(args...)), F("keywords", L(keywords...)))
}

// Keyword builds a named argument; arg "" means **kwargs (null name).
func Keyword(arg string, value *syntax.Node) *syntax.Node {
	var name syntax.Value
	if arg != "" {
		name = arg
	}
	return N(syntax.KindKeyword, F("arg", name), F("value", value))
}

// CallStmt is Expr(Call(Name(fn))) with no arguments, i.e. the statement `fn()`.
func CallStmt(fn string) *syntax.Node {
	return Expr(Call(Name(fn)))
}

// Assign builds an assignment.
func Assign(targets []*syntax.Node, value *syntax.Node) *syntax.Node {
	return N(syntax.KindAssign, F("targets", L(targets...)), F("value", value), F("type_comment", nil))
}

// If builds a conditional with optional else branch.
func If(test *syntax.Node, body, orelse []*syntax.Node) *syntax.Node {
	return N(syntax.KindIf, F("test", test), F("body", L(body...)), F("orelse", L(orelse...)))
}

// BinOp builds a binary operation; op is an operator kind such as syntax.KindAdd.
func BinOp(left *syntax.Node, op syntax.Kind, right *syntax.Node) *syntax.Node {
	return N(syntax.KindBinOp, F("left", left), F("op", N(op)), F("right", right))
}

// UnaryOp builds a unary operation.
func UnaryOp(op syntax.Kind, operand *syntax.Node) *syntax.Node {
	return N(syntax.KindUnaryOp, F("op", N(op)), F("operand", operand))
}

// Arg builds a parameter; annotation may be nil.
func Arg(name string, annotation *syntax.Node) *syntax.Node {
	return N(syntax.KindArg, F("arg", name), F("annotation", annotation), F("type_comment", nil))
}

// Arguments builds a parameter list with only positional parameters.
func Arguments(args ...*syntax.Node) *syntax.Node {
	return N(syntax.KindArguments,
		F("posonlyargs", syntax.List{}),
		F("args", L(args...)),
		F("vararg", nil),
		F("kwonlyargs", syntax.List{}),
		F("kw_defaults", syntax.List{}),
		F("kwarg", nil),
		F("defaults", syntax.List{}),
	)
}

// FunctionDef builds an undecorated function definition.
func FunctionDef(name string, args *syntax.Node, returns *syntax.Node, body ...*syntax.Node) *syntax.Node {
	return N(syntax.KindFunctionDef,
		F("name", name),
		F("args", args),
		F("body", L(body...)),
		F("decorator_list", syntax.List{}),
		F("returns", returns),
		F("type_comment", nil),
	)
}

// Return builds a return statement; value may be nil.
func Return(value *syntax.Node) *syntax.Node {
	return N(syntax.KindReturn, F("value", value))
}

// Pass builds a pass statement.
func Pass() *syntax.Node {
	return N(syntax.KindPass)
}
