package syntax

import (
	"context"
	"fmt"
	"math/big"
	"strconv"
)

// Value is a field value: nil, string, int64, *big.Int, float64, bool, Opaque,
// *Node or List. *big.Int holds only integers outside the int64 range.
type Value any

// List is an ordered sequence of field values.
type List []Value

// Opaque is a scalar of a producer type the IR does not model, such as bytes
// or complex numbers. Repr is the producer's printable form.
type Opaque struct {
	Type string
	Repr string
}

// Field is one named field of a node.
type Field struct {
	Name  string
	Value Value
}

// Node is one syntax tree node. Fields keep their declared order.
type Node struct {
	Kind   Kind
	fields []Field
}

// New creates a node. The fields slice is owned by the node afterwards.
func New(kind Kind, fields ...Field) *Node {
	return &Node{Kind: kind, fields: fields}
}

// Fields returns the node's fields in declared order.
// The returned slice must not be modified.
func (n *Node) Fields() []Field {
	if n == nil {
		return nil
	}
	return n.fields
}

// Get returns the value of the named field.
func (n *Node) Get(name string) (Value, bool) {
	if n == nil {
		return nil, false
	}
	for _, f := range n.fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

// Child returns the named field as a node, or nil when the field is absent,
// null, or not a node.
func (n *Node) Child(name string) *Node {
	v, _ := n.Get(name)
	child, _ := v.(*Node)
	return child
}

// Items returns the named field as a list, or nil when it is absent or not a list.
func (n *Node) Items(name string) List {
	v, _ := n.Get(name)
	items, _ := v.(List)
	return items
}

// String returns the named field as a string.
func (n *Node) String(name string) (string, bool) {
	v, _ := n.Get(name)
	s, ok := v.(string)
	return s, ok
}

// Int returns the named field as an integer.
func (n *Node) Int(name string) (int64, bool) {
	v, _ := n.Get(name)
	i, ok := v.(int64)
	return i, ok
}

// IsNull reports whether the named field is absent or holds nil.
func (n *Node) IsNull(name string) bool {
	v, _ := n.Get(name)
	if v == nil {
		return true
	}
	child, ok := v.(*Node)
	return ok && child == nil
}

// ScalarType names the producer type of a scalar value, for diagnostics.
func ScalarType(v Value) string {
	switch val := v.(type) {
	case nil:
		return "NoneType"
	case string:
		return "str"
	case int64, *big.Int:
		return "int"
	case float64:
		return "float"
	case bool:
		return "bool"
	case Opaque:
		return val.Type
	case *Node:
		if val == nil {
			return "NoneType"
		}
		return string(val.Kind)
	case List:
		return "list"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// Repr renders a scalar the way the producer prints it.
func Repr(v Value) string {
	switch val := v.(type) {
	case nil:
		return "None"
	case string:
		return strconv.Quote(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case *big.Int:
		return val.String()
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64)
	case bool:
		if val {
			return "True"
		}
		return "False"
	case Opaque:
		return val.Repr
	default:
		return fmt.Sprintf("%v", v)
	}
}

// Parser is the front end that turns source text into a syntax tree.
type Parser interface {
	// Parse parses a complete source unit and returns its root node.
	Parse(ctx context.Context, source string) (*Node, error)

	// Capabilities reports which optional constructs the grammar supports.
	Capabilities(ctx context.Context) (Capabilities, error)
}
