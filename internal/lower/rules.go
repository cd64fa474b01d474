package lower

import (
	"github.com/roach88/unwind/internal/ir"
	"github.com/roach88/unwind/internal/syntax"
)

// part is one element of a tagged output list: a single lowered field, or a
// list field lowered into a nested list.
type part struct {
	name string
	list bool
}

func one(name string) part  { return part{name: name} }
func many(name string) part { return part{name: name, list: true} }

// tagged builds a rule producing [tag, part...].
func tagged(tag string, parts ...part) Rule {
	return func(l *Lowerer, n *syntax.Node) (ir.IRValue, error) {
		out := make(ir.IRArray, 0, len(parts)+1)
		out = append(out, ir.IRString(tag))
		for _, p := range parts {
			var (
				v   ir.IRValue
				err error
			)
			if p.list {
				v, err = l.items(n, p.name)
			} else {
				v, err = l.field(n, p.name)
			}
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	}
}

// spliced builds a rule producing [tag, elem...] from one list field.
func spliced(tag, name string) Rule {
	return func(l *Lowerer, n *syntax.Node) (ir.IRValue, error) {
		elems, err := l.items(n, name)
		if err != nil {
			return nil, err
		}
		return ir.List(tag, elems...), nil
	}
}

// unwrap builds a rule that lowers to one of the node's fields, untagged.
func unwrap(name string) Rule {
	return func(l *Lowerer, n *syntax.Node) (ir.IRValue, error) {
		return l.field(n, name)
	}
}

func lowerBare(tag string) Rule {
	return func(*Lowerer, *syntax.Node) (ir.IRValue, error) {
		return ir.List(tag), nil
	}
}

func lowerSequence(tag string) Rule {
	return spliced(tag, "elts")
}

var (
	lowerModule     = spliced("module", "body")
	lowerExpr       = unwrap("value")
	lowerImport     = spliced("import", "names")
	lowerAlias      = unwrap("name")
	lowerName       = unwrap("id")
	lowerImportFrom = tagged("import_from", one("module"), many("names"))
	lowerWith       = tagged("with", many("items"), many("body"))
	lowerWithItem   = tagged("with_item", one("context_expr"), one("optional_vars"))
	lowerAttribute  = tagged("attribute", one("value"), one("attr"))
	lowerKeyword    = tagged("keyword", one("arg"), one("value"))
	lowerAssert     = tagged("assert", one("test"))
	lowerReturn     = tagged("return", one("value"))
	lowerListComp   = tagged("list_comp", one("elt"), many("generators"))
	lowerStarred    = tagged("starred", one("value"))
	lowerDict       = tagged("dict", many("keys"), many("values"))
	lowerCompare    = tagged("compare", one("left"), many("ops"), many("comparators"))
	lowerRaise      = tagged("raise", one("exc"))
	lowerJoinedStr  = spliced("joined_str", "values")
	lowerAnnAssign  = tagged("ann_assign", one("target"), one("annotation"), one("value"))
	lowerAugAssign  = tagged("aug_assign", one("target"), one("op"), one("value"))
	lowerSubscript  = tagged("subscript", one("value"), one("slice"))
	lowerIndex      = tagged("index", one("value"))
	lowerWhile      = tagged("while", one("test"), many("body"))
	lowerFor        = tagged("for", one("target"), one("iter"), many("body"), many("orelse"))
	lowerMatch      = tagged("match", one("subject"), many("cases"))
	lowerMatchCase  = tagged("match_case", one("pattern"), many("body"))
	lowerMatchAs    = tagged("match_as", one("name"))
)

// lowerCall puts the callee at the head: [callee, arg..., keyword...].
func lowerCall(l *Lowerer, n *syntax.Node) (ir.IRValue, error) {
	callee, err := l.field(n, "func")
	if err != nil {
		return nil, err
	}
	args, err := l.items(n, "args")
	if err != nil {
		return nil, err
	}
	keywords, err := l.items(n, "keywords")
	if err != nil {
		return nil, err
	}

	out := make(ir.IRArray, 0, 1+len(args)+len(keywords))
	out = append(out, callee)
	out = append(out, args...)
	return append(out, keywords...), nil
}

// lowerAssign keeps a lone target bare and groups multiple targets.
func lowerAssign(l *Lowerer, n *syntax.Node) (ir.IRValue, error) {
	targets, err := l.items(n, "targets")
	if err != nil {
		return nil, err
	}
	value, err := l.field(n, "value")
	if err != nil {
		return nil, err
	}
	if len(targets) == 1 {
		return ir.List("assign", targets[0], value), nil
	}
	return ir.List("assign", targets, value), nil
}

func lowerConstant(_ *Lowerer, n *syntax.Node) (ir.IRValue, error) {
	v, _ := n.Get("value")
	return literal(v)
}

func lowerFunctionDef(l *Lowerer, n *syntax.Node) (ir.IRValue, error) {
	params, err := l.field(n, "args")
	if err != nil {
		return nil, err
	}
	returns, err := l.field(n, "returns")
	if err != nil {
		return nil, err
	}
	body, err := l.items(n, "body")
	if err != nil {
		return nil, err
	}
	if len(n.Items("decorator_list")) > 0 {
		return nil, NewUnsupportedConstruct(n.Kind, "decorators")
	}
	if comment, _ := n.String("type_comment"); comment != "" {
		return nil, NewUnsupportedConstruct(n.Kind, "type comments")
	}

	name, err := l.field(n, "name")
	if err != nil {
		return nil, err
	}
	return ir.List("def", name, params, returns, body), nil
}

func lowerClassDef(l *Lowerer, n *syntax.Node) (ir.IRValue, error) {
	bases, err := l.items(n, "bases")
	if err != nil {
		return nil, err
	}
	keywords, err := l.items(n, "keywords")
	if err != nil {
		return nil, err
	}
	body, err := l.items(n, "body")
	if err != nil {
		return nil, err
	}
	if len(n.Items("decorator_list")) > 0 {
		return nil, NewUnsupportedConstruct(n.Kind, "decorators")
	}

	name, err := l.field(n, "name")
	if err != nil {
		return nil, err
	}
	return ir.List("class", name, bases, keywords, body), nil
}

// argumentGroups lists parameter groups in output order. Defaults stay
// nested because they align with the tail of the positional parameters.
var argumentGroups = []struct {
	field  string
	nested bool
}{
	{"posonlyargs", false},
	{"args", false},
	{"kwonlyargs", false},
	{"kw_defaults", false},
	{"defaults", true},
}

// lowerArguments emits only the non-empty parameter groups, in fixed order.
func lowerArguments(l *Lowerer, n *syntax.Node) (ir.IRValue, error) {
	out := ir.IRArray{}
	for _, g := range argumentGroups {
		elems, err := l.items(n, g.field)
		if err != nil {
			return nil, err
		}
		if len(elems) == 0 {
			continue
		}
		if g.nested {
			out = append(out, ir.List(g.field, elems))
		} else {
			out = append(out, ir.List(g.field, elems...))
		}
	}
	return out, nil
}

func lowerArg(l *Lowerer, n *syntax.Node) (ir.IRValue, error) {
	name, err := l.field(n, "arg")
	if err != nil {
		return nil, err
	}
	if n.IsNull("annotation") {
		return name, nil
	}
	annotation, err := l.field(n, "annotation")
	if err != nil {
		return nil, err
	}
	return ir.IRArray{name, annotation}, nil
}

func lowerBinOp(l *Lowerer, n *syntax.Node) (ir.IRValue, error) {
	left, err := l.field(n, "left")
	if err != nil {
		return nil, err
	}
	op, err := l.field(n, "op")
	if err != nil {
		return nil, err
	}
	right, err := l.field(n, "right")
	if err != nil {
		return nil, err
	}
	return ir.IRArray{op, left, right}, nil
}

func lowerBoolOp(l *Lowerer, n *syntax.Node) (ir.IRValue, error) {
	op, err := l.field(n, "op")
	if err != nil {
		return nil, err
	}
	values, err := l.items(n, "values")
	if err != nil {
		return nil, err
	}
	return append(ir.IRArray{op}, values...), nil
}

// lowerUnaryOp folds arithmetic negation of a numeric literal into a
// negative atom; every other operand keeps the explicit [op, operand] form.
func lowerUnaryOp(l *Lowerer, n *syntax.Node) (ir.IRValue, error) {
	op, err := l.field(n, "op")
	if err != nil {
		return nil, err
	}
	operand, err := l.field(n, "operand")
	if err != nil {
		return nil, err
	}
	if opNode := n.Child("op"); opNode != nil && opNode.Kind == syntax.KindUSub {
		if folded, ok := negate(operand); ok {
			return folded, nil
		}
	}
	return ir.IRArray{op, operand}, nil
}

func lowerComprehension(l *Lowerer, n *syntax.Node) (ir.IRValue, error) {
	target, err := l.field(n, "target")
	if err != nil {
		return nil, err
	}
	source, err := l.field(n, "iter")
	if err != nil {
		return nil, err
	}
	conditions, err := l.items(n, "ifs")
	if err != nil {
		return nil, err
	}
	return ir.List("comprehension", target, source, conditions,
		ir.List("is_async", ir.IRBool(isAsync(n)))), nil
}

// isAsync reads the comprehension flag, which grammars report as 0/1 or bool.
func isAsync(n *syntax.Node) bool {
	v, _ := n.Get("is_async")
	switch flag := v.(type) {
	case bool:
		return flag
	case int64:
		return flag != 0
	default:
		return false
	}
}

func lowerIf(l *Lowerer, n *syntax.Node) (ir.IRValue, error) {
	test, err := l.field(n, "test")
	if err != nil {
		return nil, err
	}
	body, err := l.items(n, "body")
	if err != nil {
		return nil, err
	}
	orelse, err := l.items(n, "orelse")
	if err != nil {
		return nil, err
	}
	return NormalizeCond(test, body, orelse), nil
}

func lowerFormattedValue(l *Lowerer, n *syntax.Node) (ir.IRValue, error) {
	value, err := l.field(n, "value")
	if err != nil {
		return nil, err
	}
	raw, _ := n.Get("conversion")
	code, ok := raw.(int64)
	if !ok {
		return nil, NewUnknownConversion(raw)
	}
	label, ok := ConversionLabel(code)
	if !ok {
		return nil, NewUnknownConversion(raw)
	}
	return ir.List("formatted_value", value, ir.IRString(label)), nil
}
