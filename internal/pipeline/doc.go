// Package pipeline runs the end-to-end path from source text to IR: parse
// with a front end, lower with the registry matching the front end's
// grammar, and optionally serve and fill the lowering cache.
//
// A Pipeline resolves its registry once, on first use, from the parser's
// capabilities. Cached entries are keyed by source hash and registry name,
// so switching dialects never returns IR produced by another dialect.
package pipeline
