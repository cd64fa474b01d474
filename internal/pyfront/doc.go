// Package pyfront is the Python front end. It runs a Python 3 interpreter
// over an embedded dump script that parses the source with the ast module
// and writes the tree as JSON, then decodes the dump with syntax.Decode.
//
// The grammar capabilities (pattern matching support) depend on the
// interpreter version and are probed once per Parser.
package pyfront
