package syntax

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"math/big"
	"strconv"
	"strings"
)

// JSON dump format, shared with the front end's dump script:
//
//	node:    {"_kind": "Name", "_fields": [["id", "x"], ["ctx", {...}]]}
//	list:    [v, ...]
//	scalar:  string | integer | real | true | false | null
//	opaque:  {"_opaque": "bytes", "repr": "b'ab'"}
//	special: {"_float": "inf" | "-inf" | "nan"}
const (
	keyKind   = "_kind"
	keyFields = "_fields"
	keyOpaque = "_opaque"
	keyRepr   = "repr"
	keyFloat  = "_float"
)

// DecodeJSON decodes a JSON tree dump into a Node.
func DecodeJSON(data []byte) (*Node, error) {
	return Decode(bytes.NewReader(data))
}

// Decode reads one JSON tree dump from r.
func Decode(r io.Reader) (*Node, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode tree: %w", err)
	}

	v, err := convertValue(raw)
	if err != nil {
		return nil, fmt.Errorf("decode tree: %w", err)
	}
	node, ok := v.(*Node)
	if !ok || node == nil {
		return nil, fmt.Errorf("decode tree: root is %s, not a node", ScalarType(v))
	}
	return node, nil
}

// DecodeValue converts an already-decoded JSON value (json.Number numbers)
// into a field Value. Front ends embedding a tree in a larger envelope use it.
func DecodeValue(raw any) (Value, error) {
	return convertValue(raw)
}

func convertValue(raw any) (Value, error) {
	switch val := raw.(type) {
	case nil:
		return nil, nil
	case string, bool:
		return val, nil
	case json.Number:
		return convertNumber(val), nil
	case []any:
		list := make(List, len(val))
		for i, elem := range val {
			v, err := convertValue(elem)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			list[i] = v
		}
		return list, nil
	case map[string]any:
		return convertObject(val)
	default:
		return nil, fmt.Errorf("unsupported JSON value %T", raw)
	}
}

func convertNumber(n json.Number) Value {
	s := string(n)
	if strings.ContainsAny(s, ".eE") {
		f, err := n.Float64()
		if err != nil {
			return Opaque{Type: "float", Repr: s}
		}
		return f
	}
	if i, err := n.Int64(); err == nil {
		return i
	}
	if x, ok := new(big.Int).SetString(s, 10); ok {
		return x
	}
	return Opaque{Type: "int", Repr: s}
}

func convertObject(obj map[string]any) (Value, error) {
	if kind, ok := obj[keyKind].(string); ok {
		return convertNode(Kind(kind), obj[keyFields])
	}
	if typ, ok := obj[keyOpaque].(string); ok {
		repr, _ := obj[keyRepr].(string)
		return Opaque{Type: typ, Repr: repr}, nil
	}
	if special, ok := obj[keyFloat].(string); ok {
		switch special {
		case "inf":
			return math.Inf(1), nil
		case "-inf":
			return math.Inf(-1), nil
		case "nan":
			return math.NaN(), nil
		}
		return nil, fmt.Errorf("unknown special float %q", special)
	}
	return nil, fmt.Errorf("object is neither a node, an opaque scalar nor a special float")
}

func convertNode(kind Kind, rawFields any) (Value, error) {
	if rawFields == nil {
		return New(kind), nil
	}
	pairs, ok := rawFields.([]any)
	if !ok {
		return nil, fmt.Errorf("%s: %s must be a list", kind, keyFields)
	}

	fields := make([]Field, 0, len(pairs))
	for i, p := range pairs {
		pair, ok := p.([]any)
		if !ok || len(pair) != 2 {
			return nil, fmt.Errorf("%s: field %d must be a [name, value] pair", kind, i)
		}
		name, ok := pair[0].(string)
		if !ok {
			return nil, fmt.Errorf("%s: field %d name must be a string", kind, i)
		}
		v, err := convertValue(pair[1])
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", kind, name, err)
		}
		fields = append(fields, Field{Name: name, Value: v})
	}
	return New(kind, fields...), nil
}

// MarshalJSON implements json.Marshaler using the dump format.
func (n *Node) MarshalJSON() ([]byte, error) {
	if n == nil {
		return []byte("null"), nil
	}
	pairs := make([][2]any, len(n.fields))
	for i, f := range n.fields {
		pairs[i] = [2]any{f.Name, encodeValue(f.Value)}
	}
	return json.Marshal(map[string]any{
		keyKind:   n.Kind,
		keyFields: pairs,
	})
}

func encodeValue(v Value) any {
	switch val := v.(type) {
	case float64:
		switch {
		case math.IsInf(val, 1):
			return map[string]string{keyFloat: "inf"}
		case math.IsInf(val, -1):
			return map[string]string{keyFloat: "-inf"}
		case math.IsNaN(val):
			return map[string]string{keyFloat: "nan"}
		}
		// Keep a fraction so integral reals decode back as float64.
		s := strconv.FormatFloat(val, 'g', -1, 64)
		if !strings.ContainsAny(s, ".eE") {
			s += ".0"
		}
		return json.Number(s)
	case *big.Int:
		return json.Number(val.String())
	case Opaque:
		return map[string]string{keyOpaque: val.Type, keyRepr: val.Repr}
	case List:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = encodeValue(elem)
		}
		return out
	default:
		return v
	}
}
