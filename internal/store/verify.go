package store

import (
	"context"
	"fmt"

	"github.com/roach88/unwind/internal/ir"
)

// Mismatch is a cached lowering whose stored hash no longer matches its IR.
type Mismatch struct {
	SourceHash string `json:"source_hash"`
	Dialect    string `json:"dialect"`
	IRVersion  string `json:"ir_version"`
	Stored     string `json:"stored"`
	Computed   string `json:"computed"`
}

// CacheReport summarizes a Verify pass over the cache.
type CacheReport struct {
	Checked    int        `json:"checked"`
	Stale      int        `json:"stale"` // rows written by another IR or engine version
	Mismatches []Mismatch `json:"mismatches"`
}

// OK reports whether every checked row matched its hash.
func (r CacheReport) OK() bool {
	return len(r.Mismatches) == 0
}

// Verify re-hashes every cached lowering and compares the result with the
// stored ir_hash. The hash is recomputed from the decoded IR, not the stored
// text. Rows from other IR or engine versions are counted as stale but still
// checked, since their hashes are just as reproducible.
func (s *Store) Verify(ctx context.Context) (CacheReport, error) {
	lowerings, err := s.ListLowerings(ctx)
	if err != nil {
		return CacheReport{}, fmt.Errorf("verify: %w", err)
	}

	report := CacheReport{Mismatches: []Mismatch{}}
	for _, rec := range lowerings {
		report.Checked++
		if rec.IRVersion != ir.IRVersion || rec.EngineVersion != ir.EngineVersion {
			report.Stale++
		}

		computed, err := ir.IRHash(rec.IR)
		if err != nil {
			return CacheReport{}, fmt.Errorf("verify %s/%s: %w", rec.SourceHash, rec.Dialect, err)
		}
		if computed != rec.IRHash {
			report.Mismatches = append(report.Mismatches, Mismatch{
				SourceHash: rec.SourceHash,
				Dialect:    rec.Dialect,
				IRVersion:  rec.IRVersion,
				Stored:     rec.IRHash,
				Computed:   computed,
			})
		}
	}
	return report, nil
}

// Prune deletes cached lowerings written under other IR or engine versions
// and returns how many rows were removed.
func (s *Store) Prune(ctx context.Context) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM lowerings WHERE ir_version <> ? OR engine_version <> ?`,
		ir.IRVersion, ir.EngineVersion)
	if err != nil {
		return 0, fmt.Errorf("prune: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune: rows affected: %w", err)
	}
	return n, nil
}
