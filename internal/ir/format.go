package ir

import (
	"math"
	"strconv"
	"strings"
)

// Format renders an IR value as a single-line S-expression.
//
//	["assign", "x", 1]  =>  (assign x 1)
//
// String atoms print verbatim, so quoted literals keep their quote markers
// and bare identifiers stay bare.
func Format(v IRValue) string {
	var sb strings.Builder
	writeFlat(&sb, v)
	return sb.String()
}

// FormatIndent renders an IR value as an S-expression, breaking any list whose
// flat form exceeds width onto one element per line.
func FormatIndent(v IRValue, width int) string {
	var sb strings.Builder
	writeIndent(&sb, v, 0, width)
	return sb.String()
}

func writeFlat(sb *strings.Builder, v IRValue) {
	arr, ok := v.(IRArray)
	if !ok {
		sb.WriteString(formatAtom(v))
		return
	}
	sb.WriteByte('(')
	for i, elem := range arr {
		if i > 0 {
			sb.WriteByte(' ')
		}
		writeFlat(sb, elem)
	}
	sb.WriteByte(')')
}

func writeIndent(sb *strings.Builder, v IRValue, depth, width int) {
	flat := Format(v)
	arr, ok := v.(IRArray)
	if !ok || len(arr) < 2 || depth*2+len(flat) <= width {
		sb.WriteString(flat)
		return
	}

	// Keep the head on the opening line when it is an atom.
	sb.WriteByte('(')
	start := 0
	if _, isList := arr[0].(IRArray); !isList {
		sb.WriteString(formatAtom(arr[0]))
		start = 1
	}
	for i := start; i < len(arr); i++ {
		sb.WriteByte('\n')
		sb.WriteString(strings.Repeat("  ", depth+1))
		writeIndent(sb, arr[i], depth+1, width)
	}
	sb.WriteByte(')')
}

func formatAtom(v IRValue) string {
	switch val := v.(type) {
	case IRNull:
		return "null"
	case IRString:
		return string(val)
	case IRInt:
		return strconv.FormatInt(int64(val), 10)
	case IRBigInt:
		return val.String()
	case IRFloat:
		f := float64(val)
		switch {
		case math.IsInf(f, 1):
			return "inf"
		case math.IsInf(f, -1):
			return "-inf"
		case math.IsNaN(f):
			return "nan"
		}
		s, _ := formatFloat(f)
		return s
	case IRBool:
		if val {
			return "true"
		}
		return "false"
	default:
		return "?"
	}
}
