package lower

import (
	"log/slog"

	"github.com/roach88/unwind/internal/ir"
	"github.com/roach88/unwind/internal/syntax"
)

// Lowerer is the recursive lowering engine.
type Lowerer struct {
	registry *Registry
	caps     syntax.Capabilities
	logger   *slog.Logger
}

// Option configures a Lowerer.
type Option func(*Lowerer)

// WithRegistry replaces the default registry, e.g. with an alternate
// output dialect. The registry must be fully built before lowering starts.
func WithRegistry(r *Registry) Option {
	return func(l *Lowerer) {
		l.registry = r
	}
}

// WithCapabilities selects the default registry for a grammar with caps.
// It has no effect when WithRegistry is also given.
func WithCapabilities(caps syntax.Capabilities) Option {
	return func(l *Lowerer) {
		l.caps = caps
	}
}

// WithLogger sets the logger used for fallback diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Lowerer) {
		l.logger = logger
	}
}

// New creates a Lowerer. Without options it uses the default registry for a
// grammar without pattern matching and logs through slog.Default().
func New(opts ...Option) *Lowerer {
	l := &Lowerer{}
	for _, opt := range opts {
		opt(l)
	}
	if l.registry == nil {
		l.registry = DefaultRegistry(l.caps)
	}
	if l.logger == nil {
		l.logger = slog.Default()
	}
	return l
}

// Registry returns the registry this Lowerer dispatches through.
func (l *Lowerer) Registry() *Registry {
	return l.registry
}

// Lower lowers one node. A nil node is the absent marker and lowers to null.
func (l *Lowerer) Lower(n *syntax.Node) (ir.IRValue, error) {
	if n == nil {
		return ir.IRNull{}, nil
	}
	if rule, ok := l.registry.Lookup(n.Kind); ok {
		return rule(l, n)
	}
	return l.fallback(n)
}

// LowerValue lowers any field value: nodes through Lower, lists element-wise,
// scalars as atoms.
func (l *Lowerer) LowerValue(v syntax.Value) (ir.IRValue, error) {
	switch val := v.(type) {
	case *syntax.Node:
		return l.Lower(val)
	case syntax.List:
		return l.lowerItems(val)
	default:
		return scalar(v), nil
	}
}

func (l *Lowerer) lowerItems(items syntax.List) (ir.IRArray, error) {
	out := make(ir.IRArray, 0, len(items))
	for _, item := range items {
		v, err := l.LowerValue(item)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// field lowers the named field of n; absent fields lower to null.
func (l *Lowerer) field(n *syntax.Node, name string) (ir.IRValue, error) {
	v, _ := n.Get(name)
	return l.LowerValue(v)
}

// items lowers the named list field of n; absent fields lower to an empty list.
func (l *Lowerer) items(n *syntax.Node, name string) (ir.IRArray, error) {
	return l.lowerItems(n.Items(name))
}
