// Package ir provides the nested-list intermediate representation produced by
// lowering a syntax tree.
//
// This package contains value types and their serializations only. All other
// internal packages import ir; ir imports nothing internal.
//
// Key design constraints:
//   - An IR value is either an atom (null, string, int, float, bool) or a list
//   - Text literals carry their quote markers inside the IRString itself
//   - Integers and floats stay distinguishable through every serialization
//   - IR trees are freshly allocated per lowering call and owned by the caller
package ir
