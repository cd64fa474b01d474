package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
)

// IRValue is a sealed interface representing IR values.
// Only IRNull, IRString, IRInt, IRBigInt, IRFloat, IRBool, and IRArray implement this.
type IRValue interface {
	irValue() // Sealed - only these types implement it
}

// IRNull is the null atom. Absent optional children lower to IRNull.
type IRNull struct{}

func (IRNull) irValue() {}

// MarshalJSON implements json.Marshaler for IRNull.
func (IRNull) MarshalJSON() ([]byte, error) {
	return []byte("null"), nil
}

// IRString is a text atom. Identifiers and symbols are stored bare; source
// text literals are stored with their surrounding double quotes.
type IRString string

func (IRString) irValue() {}

// IRInt is an integer atom.
type IRInt int64

func (IRInt) irValue() {}

// IRBigInt is an integer atom outside the int64 range. Build it with BigInt,
// which keeps every integer that fits int64 an IRInt.
type IRBigInt struct {
	v *big.Int
}

func (IRBigInt) irValue() {}

// BigInt returns x as an integer atom: IRInt when it fits int64, IRBigInt
// otherwise. x is copied.
func BigInt(x *big.Int) IRValue {
	if x.IsInt64() {
		return IRInt(x.Int64())
	}
	return IRBigInt{v: new(big.Int).Set(x)}
}

// Int returns a copy of the integer.
func (b IRBigInt) Int() *big.Int {
	if b.v == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(b.v)
}

// Equal reports whether both atoms hold the same integer.
func (b IRBigInt) Equal(o IRBigInt) bool {
	return b.Int().Cmp(o.Int()) == 0
}

// String returns the decimal form.
func (b IRBigInt) String() string {
	if b.v == nil {
		return "0"
	}
	return b.v.String()
}

// IRFloat is a real-number atom.
type IRFloat float64

func (IRFloat) irValue() {}

// IRBool is a boolean atom.
type IRBool bool

func (IRBool) irValue() {}

// IRArray is a list of IR values.
type IRArray []IRValue

func (IRArray) irValue() {}

// MarshalJSON implements json.Marshaler for IRArray.
func (arr IRArray) MarshalJSON() ([]byte, error) {
	return marshalIRArray(arr)
}

// Quote renders a source text literal as an IR atom.
// Example: Quote("k") == IRString(`"k"`)
func Quote(s string) IRString {
	return IRString(`"` + s + `"`)
}

// List builds an IRArray with a bare symbol at its head.
// Example: List("assign", IRString("x"), IRInt(1))
func List(head string, rest ...IRValue) IRArray {
	arr := make(IRArray, 0, len(rest)+1)
	arr = append(arr, IRString(head))
	return append(arr, rest...)
}

// Head returns the leading symbol of a list, or "" when v is not a list
// or its first element is not a string atom.
func Head(v IRValue) string {
	arr, ok := v.(IRArray)
	if !ok || len(arr) == 0 {
		return ""
	}
	s, ok := arr[0].(IRString)
	if !ok {
		return ""
	}
	return string(s)
}

// Equal reports whether two IR values are structurally identical.
// IRInt(1) and IRFloat(1) are not equal.
func Equal(a, b IRValue) bool {
	switch av := a.(type) {
	case IRNull:
		_, ok := b.(IRNull)
		return ok
	case IRString:
		bv, ok := b.(IRString)
		return ok && av == bv
	case IRInt:
		bv, ok := b.(IRInt)
		return ok && av == bv
	case IRBigInt:
		bv, ok := b.(IRBigInt)
		return ok && av.Equal(bv)
	case IRFloat:
		bv, ok := b.(IRFloat)
		if !ok {
			return false
		}
		if math.IsNaN(float64(av)) {
			return math.IsNaN(float64(bv))
		}
		return av == bv
	case IRBool:
		bv, ok := b.(IRBool)
		return ok && av == bv
	case IRArray:
		bv, ok := b.(IRArray)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !Equal(av[i], bv[i]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// MarshalIRValue marshals an IRValue to JSON bytes.
// Uses type-switch dispatch to handle all IRValue types correctly.
// NOTE: This is NOT canonical marshaling. Use MarshalCanonical for hashing.
func MarshalIRValue(v IRValue) ([]byte, error) {
	switch val := v.(type) {
	case IRNull:
		return []byte("null"), nil
	case IRString:
		return json.Marshal(string(val))
	case IRInt:
		return json.Marshal(int64(val))
	case IRBigInt:
		return []byte(val.String()), nil
	case IRFloat:
		s, err := formatFloat(float64(val))
		if err != nil {
			return nil, err
		}
		return []byte(s), nil
	case IRBool:
		return json.Marshal(bool(val))
	case IRArray:
		return marshalIRArray(val)
	case nil:
		return nil, fmt.Errorf("nil IRValue (use IRNull)")
	default:
		return nil, fmt.Errorf("unknown IRValue type: %T", v)
	}
}

// marshalIRArray marshals an IRArray to JSON bytes.
func marshalIRArray(arr IRArray) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')

	for i, elem := range arr {
		if i > 0 {
			buf.WriteByte(',')
		}
		elemBytes, err := MarshalIRValue(elem)
		if err != nil {
			return nil, fmt.Errorf("array[%d]: %w", i, err)
		}
		buf.Write(elemBytes)
	}

	buf.WriteByte(']')
	return buf.Bytes(), nil
}

// formatFloat renders a float in shortest round-trip form. Integral values
// keep a ".0" suffix so they never read back as IRInt.
func formatFloat(f float64) (string, error) {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return "", fmt.Errorf("non-finite float is not representable in JSON: %v", f)
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s, nil
}

// UnmarshalIRValue deserializes JSON into an IRValue.
// Numbers without fraction or exponent become IRInt, or IRBigInt beyond the
// int64 range; all others become IRFloat.
// Objects are rejected: the IR has no mapping type.
func UnmarshalIRValue(data []byte) (IRValue, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, fmt.Errorf("trailing data after IR value")
	}

	return convertToIRValue(raw)
}

// convertToIRValue recursively converts a decoded JSON value to an IRValue.
func convertToIRValue(v any) (IRValue, error) {
	switch val := v.(type) {
	case nil:
		return IRNull{}, nil
	case bool:
		return IRBool(val), nil
	case string:
		return IRString(val), nil
	case json.Number:
		s := string(val)
		if strings.ContainsAny(s, ".eE") {
			f, err := val.Float64()
			if err != nil {
				return nil, fmt.Errorf("invalid float %s: %w", s, err)
			}
			return IRFloat(f), nil
		}
		if n, err := val.Int64(); err == nil {
			return IRInt(n), nil
		}
		x, ok := new(big.Int).SetString(s, 10)
		if !ok {
			return nil, fmt.Errorf("invalid integer %s", s)
		}
		return BigInt(x), nil
	case []any:
		arr := make(IRArray, len(val))
		for i, elem := range val {
			irElem, err := convertToIRValue(elem)
			if err != nil {
				return nil, fmt.Errorf("array[%d]: %w", i, err)
			}
			arr[i] = irElem
		}
		return arr, nil
	case map[string]any:
		return nil, fmt.Errorf("objects are not IR values")
	default:
		return nil, fmt.Errorf("unsupported type: %T", v)
	}
}
