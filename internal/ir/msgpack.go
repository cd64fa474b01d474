package ir

import (
	"fmt"
	"math/big"

	"github.com/vmihailenco/msgpack/v5"
)

// bigIntExtID is the MessagePack extension type carrying IRBigInt as
// decimal digits.
const bigIntExtID int8 = 1

func init() {
	msgpack.RegisterExt(bigIntExtID, (*bigIntExt)(nil))
}

type bigIntExt struct {
	digits string
}

func (b *bigIntExt) MarshalMsgpack() ([]byte, error) {
	return []byte(b.digits), nil
}

func (b *bigIntExt) UnmarshalMsgpack(data []byte) error {
	b.digits = string(data)
	return nil
}

// MarshalMsgpack encodes an IR value as MessagePack.
// Integers and floats keep distinct wire types, so the encoding round-trips.
// Integers beyond int64 use extension type 1 holding their decimal digits.
func MarshalMsgpack(v IRValue) ([]byte, error) {
	plain, err := toPlain(v)
	if err != nil {
		return nil, err
	}
	return msgpack.Marshal(plain)
}

// UnmarshalMsgpack decodes a MessagePack document produced by MarshalMsgpack.
func UnmarshalMsgpack(data []byte) (IRValue, error) {
	var raw any
	if err := msgpack.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode msgpack: %w", err)
	}
	return fromPlain(raw)
}

func toPlain(v IRValue) (any, error) {
	switch val := v.(type) {
	case IRNull:
		return nil, nil
	case IRString:
		return string(val), nil
	case IRInt:
		return int64(val), nil
	case IRBigInt:
		return &bigIntExt{digits: val.String()}, nil
	case IRFloat:
		return float64(val), nil
	case IRBool:
		return bool(val), nil
	case IRArray:
		out := make([]any, len(val))
		for i, elem := range val {
			p, err := toPlain(elem)
			if err != nil {
				return nil, fmt.Errorf("array[%d]: %w", i, err)
			}
			out[i] = p
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unknown IRValue type: %T", v)
	}
}

func fromPlain(v any) (IRValue, error) {
	switch val := v.(type) {
	case nil:
		return IRNull{}, nil
	case string:
		return IRString(val), nil
	case bool:
		return IRBool(val), nil
	case int8:
		return IRInt(val), nil
	case int16:
		return IRInt(val), nil
	case int32:
		return IRInt(val), nil
	case int64:
		return IRInt(val), nil
	case uint8:
		return IRInt(val), nil
	case uint16:
		return IRInt(val), nil
	case uint32:
		return IRInt(val), nil
	case uint64:
		return BigInt(new(big.Int).SetUint64(val)), nil
	case *bigIntExt:
		x, ok := new(big.Int).SetString(val.digits, 10)
		if !ok {
			return nil, fmt.Errorf("invalid big integer %q", val.digits)
		}
		return BigInt(x), nil
	case float32:
		return IRFloat(val), nil
	case float64:
		return IRFloat(val), nil
	case []any:
		arr := make(IRArray, len(val))
		for i, elem := range val {
			irElem, err := fromPlain(elem)
			if err != nil {
				return nil, fmt.Errorf("array[%d]: %w", i, err)
			}
			arr[i] = irElem
		}
		return arr, nil
	default:
		return nil, fmt.Errorf("unsupported msgpack value: %T", v)
	}
}
