package testutil

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/unwind/internal/ir"
)

// AssertGolden compares the canonical JSON of an IR tree against
// testdata/golden/{name}.golden, relative to the calling package.
//
// To regenerate golden files, run the package tests with -update:
//
//	go test ./internal/lower -update
//
// Golden files are the source of truth for the exact output shape, so any
// diff is a change to the IR and needs an IRVersion bump.
func AssertGolden(t *testing.T, name string, v ir.IRValue) {
	t.Helper()

	data, err := ir.MarshalCanonical(v)
	if err != nil {
		t.Fatalf("marshal %s: %v", name, err)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, append(data, '\n'))
}
