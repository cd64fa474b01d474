package pipeline

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/unwind/internal/ir"
	"github.com/roach88/unwind/internal/lower"
	"github.com/roach88/unwind/internal/store"
	"github.com/roach88/unwind/internal/syntax"
	. "github.com/roach88/unwind/internal/testutil"
)

const (
	assignSource = "x = 1\n"
	mainSource   = "main()\n"
	badSource    = "@staticmethod\ndef f(): pass\n"
)

func decorated() *syntax.Node {
	return N(syntax.KindFunctionDef,
		F("name", "f"),
		F("args", Arguments()),
		F("body", L(Pass())),
		F("decorator_list", L(Name("staticmethod"))),
		F("returns", nil),
		F("type_comment", nil),
	)
}

func fakeParser(caps syntax.Capabilities) *FakeParser {
	return NewFakeParser(caps).
		Add(assignSource, Module(Assign([]*syntax.Node{Target("x")}, Int(1)))).
		Add(mainSource, Module(CallStmt("main"))).
		Add(badSource, Module(decorated()))
}

func assignIR() ir.IRValue {
	return ir.List("module", ir.List("assign", ir.IRString("x"), ir.IRInt(1)))
}

func openStore(t *testing.T, ids ...string) *store.Store {
	t.Helper()
	var opts []store.Option
	if len(ids) > 0 {
		opts = append(opts, store.WithIDGenerator(NewFixedIDs(ids...)))
	}
	s, err := store.Open(filepath.Join(t.TempDir(), "cache.db"), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestLowerText(t *testing.T) {
	p := New(fakeParser(syntax.Capabilities{}))

	res, err := p.LowerText(t.Context(), assignSource)
	require.NoError(t, err)

	assert.True(t, ir.Equal(assignIR(), res.IR), "got %s", ir.Format(res.IR))
	assert.Equal(t, ir.SourceHash(assignSource), res.SourceHash)
	assert.Equal(t, ir.MustIRHash(assignIR()), res.IRHash)
	assert.Equal(t, "base", res.Dialect)
	assert.False(t, res.Cached)
	assert.Empty(t, res.Path)
}

func TestDialectFollowsCapabilities(t *testing.T) {
	tests := []struct {
		name     string
		caps     syntax.Capabilities
		extended bool
		want     string
	}{
		{"base", syntax.Capabilities{}, false, "base"},
		{"match", syntax.Capabilities{PatternMatching: true}, false, "base+match"},
		{"extended", syntax.Capabilities{}, true, "base+ops"},
		{"match extended", syntax.Capabilities{PatternMatching: true}, true, "base+match+ops"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(fakeParser(tt.caps), WithExtendedOperators(tt.extended))
			got, err := p.Dialect(t.Context())
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWithRegistryIgnoresCapabilities(t *testing.T) {
	custom := lower.NewBuilder("custom").Merge(lower.DefaultRegistry(syntax.Capabilities{})).Build()
	p := New(fakeParser(syntax.Capabilities{PatternMatching: true}), WithRegistry(custom))

	got, err := p.Dialect(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "custom", got)
}

func TestLowererResolvedOnce(t *testing.T) {
	p := New(fakeParser(syntax.Capabilities{}))
	a, err := p.Lowerer(t.Context())
	require.NoError(t, err)
	b, err := p.Lowerer(t.Context())
	require.NoError(t, err)
	assert.Same(t, a, b)
}

func TestLowerTextErrors(t *testing.T) {
	p := New(fakeParser(syntax.Capabilities{}))

	_, err := p.LowerText(t.Context(), badSource)
	require.Error(t, err)
	assert.True(t, lower.IsUnsupportedConstruct(err))

	_, err = p.LowerText(t.Context(), "unknown")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no tree for source")
}

func TestLowerTextWithoutParser(t *testing.T) {
	_, err := New(nil).LowerText(t.Context(), assignSource)
	require.Error(t, err)
}

func TestLowerTree(t *testing.T) {
	p := New(nil)

	res, err := p.LowerTree(t.Context(), Module(Assign([]*syntax.Node{Target("x")}, Int(1))))
	require.NoError(t, err)
	assert.True(t, ir.Equal(assignIR(), res.IR))
	assert.Equal(t, "base+match", res.Dialect)
	assert.Empty(t, res.SourceHash)
	assert.NotEmpty(t, res.IRHash)
}

func TestLowerTreeNonFiniteHasNoHash(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	p := New(nil, WithLogger(logger))

	res, err := p.LowerTree(t.Context(), Module(Expr(Const(posInf()))))
	require.NoError(t, err)
	assert.Empty(t, res.IRHash)
	assert.Contains(t, buf.String(), "no canonical form")
}

func posInf() float64 {
	zero := 0.0
	return 1 / zero
}

func TestLowerFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.py")
	require.NoError(t, os.WriteFile(path, []byte(assignSource), 0o644))

	p := New(fakeParser(syntax.Capabilities{}))
	res, err := p.LowerFile(t.Context(), path)
	require.NoError(t, err)
	assert.Equal(t, path, res.Path)
	assert.True(t, ir.Equal(assignIR(), res.IR))

	_, err = p.LowerFile(t.Context(), filepath.Join(dir, "missing.py"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLowerFileErrorNamesPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.py")
	require.NoError(t, os.WriteFile(path, []byte(badSource), 0o644))

	_, err := New(fakeParser(syntax.Capabilities{})).LowerFile(t.Context(), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), path)
	assert.True(t, lower.IsUnsupportedConstruct(err))
}

func TestCacheRoundTrip(t *testing.T) {
	parser := fakeParser(syntax.Capabilities{})
	s := openStore(t)
	p := New(parser, WithStore(s))

	first, err := p.LowerText(t.Context(), assignSource)
	require.NoError(t, err)
	assert.False(t, first.Cached)

	second, err := p.LowerText(t.Context(), assignSource)
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.IRHash, second.IRHash)
	assert.True(t, ir.Equal(first.IR, second.IR))

	assert.Equal(t, int64(1), parser.Calls(), "cache hit must not reparse")
}

func TestCacheKeyedByDialect(t *testing.T) {
	s := openStore(t)
	parser := fakeParser(syntax.Capabilities{})

	_, err := New(parser, WithStore(s)).LowerText(t.Context(), assignSource)
	require.NoError(t, err)

	res, err := New(parser, WithStore(s), WithExtendedOperators(true)).LowerText(t.Context(), assignSource)
	require.NoError(t, err)
	assert.False(t, res.Cached)
	assert.Equal(t, int64(2), parser.Calls())

	recs, err := s.ListLowerings(t.Context())
	require.NoError(t, err)
	assert.Len(t, recs, 2)
}

func TestFailuresAreNotCached(t *testing.T) {
	s := openStore(t)
	p := New(fakeParser(syntax.Capabilities{}), WithStore(s))

	_, err := p.LowerText(t.Context(), badSource)
	require.Error(t, err)

	recs, err := s.ListLowerings(t.Context())
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	_, err := New(fakeParser(syntax.Capabilities{})).LowerText(ctx, assignSource)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCacheHitKeepsDecomposedText(t *testing.T) {
	// s = 'e' + U+0301: a fresh lowering keeps the decomposed form, so a
	// cache hit must too.
	const source = "s = 'e\u0301'\n"
	parser := NewFakeParser(syntax.Capabilities{}).
		Add(source, Module(Assign([]*syntax.Node{Target("s")}, Str("e\u0301"))))
	p := New(parser, WithStore(openStore(t)))

	cold, err := p.LowerText(t.Context(), source)
	require.NoError(t, err)
	warm, err := p.LowerText(t.Context(), source)
	require.NoError(t, err)

	require.True(t, warm.Cached)
	assert.True(t, ir.Equal(cold.IR, warm.IR), "cold %q, warm %q", ir.Format(cold.IR), ir.Format(warm.IR))
	assert.Equal(t, cold.IRHash, warm.IRHash)
}

func TestCacheKeyedByGrammarRelease(t *testing.T) {
	s := openStore(t)

	// a[i] parses differently before and after 3.9, under one dialect.
	const source = "a[i]\n"
	subscript := func(slice *syntax.Node) *syntax.Node {
		return Module(Expr(N(syntax.KindSubscript, F("value", Name("a")), F("slice", slice), F("ctx", N("Load")))))
	}
	py38 := NewFakeParser(syntax.Capabilities{Version: "3.8.18"}).
		Add(source, subscript(N("Index", F("value", Name("i")))))
	py312 := NewFakeParser(syntax.Capabilities{Version: "3.12.1"}).
		Add(source, subscript(Name("i")))

	old, err := New(py38, WithStore(s)).LowerText(t.Context(), source)
	require.NoError(t, err)

	res, err := New(py312, WithStore(s)).LowerText(t.Context(), source)
	require.NoError(t, err)
	assert.False(t, res.Cached, "lowering from another grammar release must not be served")
	assert.Equal(t, "base", res.Dialect)
	assert.False(t, ir.Equal(old.IR, res.IR))
	assert.Equal(t, int64(1), py312.Calls())

	// A patch release shares the cache row.
	py312b := NewFakeParser(syntax.Capabilities{Version: "3.12.4"})
	again, err := New(py312b, WithStore(s)).LowerText(t.Context(), source)
	require.NoError(t, err)
	assert.True(t, again.Cached)
	assert.True(t, ir.Equal(res.IR, again.IR))

	recs, err := s.ListLowerings(t.Context())
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "base@3.8", recs[0].Dialect)
	assert.Equal(t, "base@3.12", recs[1].Dialect)
}

func TestCacheDialect(t *testing.T) {
	tests := []struct {
		dialect, version, want string
	}{
		{"base", "", "base"},
		{"base", "3.12.1", "base@3.12"},
		{"base+match", "3.10", "base+match@3.10"},
		{"base+ops", "3", "base+ops@3"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, cacheDialect(tt.dialect, tt.version), "%s %s", tt.dialect, tt.version)
	}
}
