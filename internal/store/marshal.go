package store

import (
	"database/sql"
	"fmt"

	"github.com/roach88/unwind/internal/ir"
)

// marshalIR converts an IR value to JSON TEXT for storage. Strings are kept
// byte for byte: a cache hit must return exactly the IR that was lowered, and
// canonical JSON would NFC-normalize them. Verify re-hashes the decoded value.
func marshalIR(v ir.IRValue) (string, error) {
	data, err := ir.MarshalIRValue(v)
	if err != nil {
		return "", fmt.Errorf("marshal ir: %w", err)
	}
	return string(data), nil
}

// unmarshalIR parses stored TEXT back into an IR value. Integers stay
// IRInt and numbers with a fraction or exponent become IRFloat.
func unmarshalIR(data string) (ir.IRValue, error) {
	v, err := ir.UnmarshalIRValue([]byte(data))
	if err != nil {
		return nil, fmt.Errorf("unmarshal ir: %w", err)
	}
	return v, nil
}

// nullString maps "" to SQL NULL.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
