package store

import (
	"context"
	"fmt"

	"github.com/roach88/unwind/internal/ir"
)

// PutLowering caches the IR for (sourceHash, dialect) at the current IR
// version. Returns the stored record and whether a new record was inserted.
//
// A second put for the same key under the same engine version keeps the
// first record and returns it with inserted=false. Lowering is deterministic,
// so both records would hold the same IR. A row written by another engine
// version is replaced, and that counts as inserted.
//
// IR containing non-finite reals has no canonical form and cannot be cached.
func (s *Store) PutLowering(ctx context.Context, sourceHash, dialect string, v ir.IRValue) (rec Lowering, inserted bool, err error) {
	irJSON, err := marshalIR(v)
	if err != nil {
		return Lowering{}, false, fmt.Errorf("put lowering: %w", err)
	}
	irHash, err := ir.IRHash(v)
	if err != nil {
		return Lowering{}, false, fmt.Errorf("put lowering: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Lowering{}, false, fmt.Errorf("put lowering: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	seq := s.clock.Next()
	result, err := tx.ExecContext(ctx, `
		INSERT INTO lowerings
		(source_hash, dialect, ir_version, engine_version, ir_hash, ir_json, created_seq)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(source_hash, dialect, ir_version) DO UPDATE SET
			engine_version = excluded.engine_version,
			ir_hash        = excluded.ir_hash,
			ir_json        = excluded.ir_json,
			created_seq    = excluded.created_seq
		WHERE lowerings.engine_version <> excluded.engine_version
	`,
		sourceHash,
		dialect,
		ir.IRVersion,
		ir.EngineVersion,
		irHash,
		irJSON,
		seq,
	)
	if err != nil {
		return Lowering{}, false, fmt.Errorf("put lowering: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return Lowering{}, false, fmt.Errorf("put lowering: rows affected: %w", err)
	}

	if affected == 0 {
		rec, err = scanLoweringRow(tx.QueryRowContext(ctx, selectLowering+`
			WHERE source_hash = ? AND dialect = ? AND ir_version = ?
		`, sourceHash, dialect, ir.IRVersion))
		if err != nil {
			return Lowering{}, false, fmt.Errorf("put lowering: read existing: %w", err)
		}
		return rec, false, tx.Commit()
	}

	if err := tx.Commit(); err != nil {
		return Lowering{}, false, fmt.Errorf("put lowering: commit: %w", err)
	}

	return Lowering{
		SourceHash:    sourceHash,
		Dialect:       dialect,
		IRVersion:     ir.IRVersion,
		EngineVersion: ir.EngineVersion,
		IRHash:        irHash,
		IR:            v,
		Seq:           seq,
	}, true, nil
}

// RecordRun stores a batch run and its per-file outcomes atomically.
// The run is assigned a fresh ID and seq.
func (s *Store) RecordRun(ctx context.Context, dialect string, files []RunFile) (Run, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Run{}, fmt.Errorf("record run: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	run := Run{
		ID:      s.ids.Generate(),
		Dialect: dialect,
		Seq:     s.clock.Next(),
		Files:   files,
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, dialect, started_seq, file_count)
		VALUES (?, ?, ?, ?)
	`, run.ID, run.Dialect, run.Seq, len(files))
	if err != nil {
		return Run{}, fmt.Errorf("record run: %w", err)
	}

	for i, f := range files {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO run_files (run_id, position, path, source_hash, ir_hash, error)
			VALUES (?, ?, ?, ?, ?, ?)
		`, run.ID, i, f.Path, f.SourceHash, nullString(f.IRHash), nullString(f.Error))
		if err != nil {
			return Run{}, fmt.Errorf("record run: file %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Run{}, fmt.Errorf("record run: commit: %w", err)
	}

	if run.Files == nil {
		run.Files = []RunFile{}
	}
	return run, nil
}
