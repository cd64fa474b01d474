package testutil

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/roach88/unwind/internal/syntax"
)

// FakeParser is a syntax.Parser backed by a fixed source-to-tree table.
//
// Thread-safety: FakeParser is read-only after construction apart from its
// call counter, which is atomic.
type FakeParser struct {
	Trees map[string]*syntax.Node
	Caps  syntax.Capabilities
	calls atomic.Int64
}

// NewFakeParser creates a parser that knows no sources yet.
func NewFakeParser(caps syntax.Capabilities) *FakeParser {
	return &FakeParser{Trees: make(map[string]*syntax.Node), Caps: caps}
}

// Add registers the tree returned for source.
func (p *FakeParser) Add(source string, tree *syntax.Node) *FakeParser {
	p.Trees[source] = tree
	return p
}

// Parse returns the registered tree, or an error for unknown sources.
func (p *FakeParser) Parse(ctx context.Context, source string) (*syntax.Node, error) {
	p.calls.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tree, ok := p.Trees[source]
	if !ok {
		return nil, fmt.Errorf("fake parser: no tree for source %q", source)
	}
	return tree, nil
}

// Capabilities returns the configured capabilities.
func (p *FakeParser) Capabilities(context.Context) (syntax.Capabilities, error) {
	return p.Caps, nil
}

// Calls returns how many times Parse was invoked.
func (p *FakeParser) Calls() int64 {
	return p.calls.Load()
}
