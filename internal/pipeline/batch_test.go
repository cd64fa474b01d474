package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/unwind/internal/syntax"
)

func writeSources(t *testing.T, sources ...string) []string {
	t.Helper()
	dir := t.TempDir()
	paths := make([]string, len(sources))
	for i, src := range sources {
		paths[i] = filepath.Join(dir, string(rune('a'+i))+".py")
		require.NoError(t, os.WriteFile(paths[i], []byte(src), 0o644))
	}
	return paths
}

func TestBatchKeepsInputOrder(t *testing.T) {
	paths := writeSources(t, assignSource, mainSource, badSource, assignSource)
	p := New(fakeParser(syntax.Capabilities{}))

	for _, jobs := range []int{0, 1, 2, 16} {
		res, err := p.Batch(t.Context(), paths, jobs)
		require.NoError(t, err)
		require.Len(t, res.Files, len(paths))

		for i, f := range res.Files {
			assert.Equal(t, paths[i], f.Path, "jobs=%d", jobs)
		}
		assert.NoError(t, res.Files[0].Err)
		assert.NoError(t, res.Files[1].Err)
		assert.Error(t, res.Files[2].Err)
		assert.Equal(t, res.Files[0].Result.IRHash, res.Files[3].Result.IRHash)
		assert.Equal(t, 1, res.Failed())
		assert.Nil(t, res.Run)
	}
}

func TestBatchEmpty(t *testing.T) {
	res, err := New(fakeParser(syntax.Capabilities{})).Batch(t.Context(), nil, 4)
	require.NoError(t, err)
	assert.Empty(t, res.Files)
}

func TestBatchRecordsRun(t *testing.T) {
	paths := writeSources(t, assignSource, badSource)
	s := openStore(t, "run-1")
	p := New(fakeParser(syntax.Capabilities{}), WithStore(s))

	res, err := p.Batch(t.Context(), paths, 2)
	require.NoError(t, err)
	require.NotNil(t, res.Run)
	assert.Equal(t, "run-1", res.Run.ID)
	assert.Equal(t, "base", res.Run.Dialect)

	run, err := s.ReadRun(t.Context(), "run-1")
	require.NoError(t, err)
	require.Len(t, run.Files, 2)
	assert.True(t, run.Files[0].OK())
	assert.Equal(t, res.Files[0].Result.IRHash, run.Files[0].IRHash)
	assert.False(t, run.Files[1].OK())
	assert.Empty(t, run.Files[1].IRHash)
	assert.Contains(t, run.Files[1].Error, "UNSUPPORTED_CONSTRUCT")
}

func TestBatchCancelled(t *testing.T) {
	paths := writeSources(t, assignSource, mainSource)
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	_, err := New(fakeParser(syntax.Capabilities{})).Batch(ctx, paths, 2)
	assert.ErrorIs(t, err, context.Canceled)
}
