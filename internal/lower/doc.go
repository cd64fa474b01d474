// Package lower turns a syntax tree into the nested-list IR.
//
// The engine (Lowerer) looks up each node's kind in a Registry of lowering
// rules. Kinds without a rule take the generic fallback, which reflects the
// node's fields into [kind, [[field, value]...]], so lowering never fails
// merely because a kind is unknown. The only errors are the three LowerError
// codes: unsupported constructs, unknown literal types and unknown
// conversion codes.
//
// Registries are immutable once built. A Lowerer holds no mutable state, so
// one Lowerer may lower independent trees from many goroutines.
//
// Shapes produced by the default registry:
//
//	x = 1            (assign x 1)
//	import a, b      (import a b)
//	d = {"k": 1}     (assign d (dict ("k") (1)))
//
// An elif ladder collapses into a single cond whose clause bodies are
// statement lists:
//
//	(cond (a ((f))) (b ((g))) (else ((h))))
package lower
