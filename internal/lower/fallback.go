package lower

import (
	"fmt"
	"math/big"

	"github.com/roach88/unwind/internal/ir"
	"github.com/roach88/unwind/internal/syntax"
)

// fallback reflects a node without a registered rule:
//
//	[kind, [[field, value], ...]]
//
// Fields keep their declared order. Lists lower element-wise, child nodes
// lower recursively and scalars pass through as atoms. The fallback itself
// never fails; only errors from lowering its children propagate.
func (l *Lowerer) fallback(n *syntax.Node) (ir.IRValue, error) {
	l.logger.Debug("no lowering rule, reflecting fields",
		"kind", n.Kind,
		"registry", l.registry.Name(),
	)

	fields := n.Fields()
	out := make(ir.IRArray, 0, len(fields))
	for _, f := range fields {
		v, err := l.LowerValue(f.Value)
		if err != nil {
			return nil, err
		}
		out = append(out, ir.IRArray{ir.IRString(f.Name), v})
	}
	return ir.IRArray{ir.IRString(n.Kind), out}, nil
}

// scalar converts a non-node field value to an atom, unchanged.
func scalar(v syntax.Value) ir.IRValue {
	switch val := v.(type) {
	case nil:
		return ir.IRNull{}
	case string:
		return ir.IRString(val)
	case int64:
		return ir.IRInt(val)
	case *big.Int:
		return ir.BigInt(val)
	case float64:
		return ir.IRFloat(val)
	case bool:
		return ir.IRBool(val)
	case syntax.Opaque:
		return ir.IRString(val.Repr)
	default:
		return ir.IRString(fmt.Sprint(val))
	}
}
