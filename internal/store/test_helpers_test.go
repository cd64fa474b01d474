package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/unwind/internal/ir"
	"github.com/roach88/unwind/internal/testutil"
)

// createTestStore creates a new store in a temporary directory for testing.
func createTestStore(t *testing.T, ids ...string) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	var opts []Option
	if len(ids) > 0 {
		opts = append(opts, WithIDGenerator(testutil.NewFixedIDs(ids...)))
	}
	s, err := Open(path, opts...)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// sampleIR is the lowering of `x = 1`.
func sampleIR() ir.IRValue {
	return ir.List("module", ir.List("assign", ir.IRString("x"), ir.IRInt(1)))
}
