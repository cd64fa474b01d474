// Package syntax defines the read-only syntax tree consumed by the lowering
// engine, and the Parser contract of the front end that produces it.
//
// A Node is a kind tag plus an ordered list of named fields. Field values are
// scalars (string, int64, float64, bool, nil, Opaque), child nodes (*Node) or
// ordered lists of values (List). A nil *Node is the absent marker.
//
// Trees arrive either from a Parser or from a JSON dump (see DecodeJSON). The
// producer guarantees they are finite and acyclic; nothing in this package
// mutates a tree after construction.
package syntax
