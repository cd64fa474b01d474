package lower

import (
	"maps"
	"slices"
	"sync"

	"github.com/roach88/unwind/internal/ir"
	"github.com/roach88/unwind/internal/syntax"
)

// Rule lowers one node. Rules lower children through l so the whole walk
// uses a single registry.
type Rule func(l *Lowerer, n *syntax.Node) (ir.IRValue, error)

// Registry maps node kinds to lowering rules. A Registry is immutable once
// built and safe for concurrent use.
type Registry struct {
	name  string
	rules map[syntax.Kind]Rule
}

// Lookup returns the rule registered for kind.
func (r *Registry) Lookup(kind syntax.Kind) (Rule, bool) {
	rule, ok := r.rules[kind]
	return rule, ok
}

// Name identifies the output dialect, e.g. "base+match". Cached lowerings
// are keyed by it.
func (r *Registry) Name() string {
	return r.name
}

// Kinds returns the registered kinds in sorted order.
func (r *Registry) Kinds() []syntax.Kind {
	return slices.Sorted(maps.Keys(r.rules))
}

// Len returns the number of registered kinds.
func (r *Registry) Len() int {
	return len(r.rules)
}

// Builder assembles a Registry. When a kind is registered twice, the later
// registration wins.
type Builder struct {
	name  string
	rules map[syntax.Kind]Rule
}

// NewBuilder creates an empty builder for a dialect called name.
func NewBuilder(name string) *Builder {
	return &Builder{name: name, rules: make(map[syntax.Kind]Rule)}
}

// Register binds kind to rule, replacing any earlier binding.
func (b *Builder) Register(kind syntax.Kind, rule Rule) *Builder {
	b.rules[kind] = rule
	return b
}

// Merge copies every rule of r into the builder, replacing earlier bindings.
func (b *Builder) Merge(r *Registry) *Builder {
	maps.Copy(b.rules, r.rules)
	return b
}

// Build freezes the builder's rules into a Registry. The builder may keep
// being used; later changes do not affect registries already built.
func (b *Builder) Build() *Registry {
	return &Registry{name: b.name, rules: maps.Clone(b.rules)}
}

// NewRegistry builds the default rules for a grammar with the given
// capabilities. Pattern-matching rules are included only when the grammar
// supports match statements.
func NewRegistry(caps syntax.Capabilities) *Registry {
	b := NewBuilder("base")
	registerBase(b)
	if caps.PatternMatching {
		b.name = "base+match"
		registerPatternMatching(b)
	}
	return b.Build()
}

// ExtendedOperators derives a dialect from base that names every operator,
// including the bitwise, identity and membership operators that the base
// dialect sends through the generic fallback.
func ExtendedOperators(base *Registry) *Registry {
	b := NewBuilder(base.Name() + "+ops").Merge(base)
	for kind, sym := range extendedOperatorSymbols {
		b.Register(kind, symbolRule(sym))
	}
	return b.Build()
}

var (
	baseRegistry  = sync.OnceValue(func() *Registry { return NewRegistry(syntax.Capabilities{}) })
	matchRegistry = sync.OnceValue(func() *Registry {
		return NewRegistry(syntax.Capabilities{PatternMatching: true})
	})
)

// DefaultRegistry returns the process-wide default registry for caps. It is
// built on first use and never changes afterwards.
func DefaultRegistry(caps syntax.Capabilities) *Registry {
	if caps.PatternMatching {
		return matchRegistry()
	}
	return baseRegistry()
}

func registerBase(b *Builder) {
	b.Register(syntax.KindModule, lowerModule).
		Register(syntax.KindExpr, lowerExpr).
		Register(syntax.KindImport, lowerImport).
		Register(syntax.KindAlias, lowerAlias).
		Register(syntax.KindImportFrom, lowerImportFrom).
		Register(syntax.KindWith, lowerWith).
		Register(syntax.KindWithItem, lowerWithItem).
		Register(syntax.KindCall, lowerCall).
		Register(syntax.KindName, lowerName).
		Register(syntax.KindAssign, lowerAssign).
		Register(syntax.KindList, lowerSequence("list")).
		Register(syntax.KindTuple, lowerSequence("tuple")).
		Register(syntax.KindAttribute, lowerAttribute).
		Register(syntax.KindKeyword, lowerKeyword).
		Register(syntax.KindConstant, lowerConstant).
		Register(syntax.KindFunctionDef, lowerFunctionDef).
		Register(syntax.KindClassDef, lowerClassDef).
		Register(syntax.KindArguments, lowerArguments).
		Register(syntax.KindArg, lowerArg).
		Register(syntax.KindAssert, lowerAssert).
		Register(syntax.KindReturn, lowerReturn).
		Register(syntax.KindBinOp, lowerBinOp).
		Register(syntax.KindBoolOp, lowerBoolOp).
		Register(syntax.KindUnaryOp, lowerUnaryOp).
		Register(syntax.KindListComp, lowerListComp).
		Register(syntax.KindComprehension, lowerComprehension).
		Register(syntax.KindStarred, lowerStarred).
		Register(syntax.KindDict, lowerDict).
		Register(syntax.KindIf, lowerIf).
		Register(syntax.KindCompare, lowerCompare).
		Register(syntax.KindRaise, lowerRaise).
		Register(syntax.KindJoinedStr, lowerJoinedStr).
		Register(syntax.KindFormattedValue, lowerFormattedValue).
		Register(syntax.KindAnnAssign, lowerAnnAssign).
		Register(syntax.KindAugAssign, lowerAugAssign).
		Register(syntax.KindSubscript, lowerSubscript).
		Register(syntax.KindIndex, lowerIndex).
		Register(syntax.KindWhile, lowerWhile).
		Register(syntax.KindFor, lowerFor).
		Register(syntax.KindBreak, lowerBare("break")).
		Register(syntax.KindContinue, lowerBare("continue")).
		Register(syntax.KindPass, lowerBare("pass"))

	for kind, sym := range operatorSymbols {
		b.Register(kind, symbolRule(sym))
	}
}

func registerPatternMatching(b *Builder) {
	b.Register(syntax.KindMatch, lowerMatch).
		Register(syntax.KindMatchCase, lowerMatchCase).
		Register(syntax.KindMatchAs, lowerMatchAs)
}
