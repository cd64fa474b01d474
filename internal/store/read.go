package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/unwind/internal/ir"
)

const selectLowering = `
	SELECT source_hash, dialect, ir_version, engine_version, ir_hash, ir_json, created_seq
	FROM lowerings
`

// GetLowering returns the cached lowering of sourceHash under dialect at the
// current IR and engine versions. ok is false on a cache miss, including a
// row left by another engine version.
func (s *Store) GetLowering(ctx context.Context, sourceHash, dialect string) (rec Lowering, ok bool, err error) {
	rec, err = scanLoweringRow(s.db.QueryRowContext(ctx, selectLowering+`
		WHERE source_hash = ? AND dialect = ? AND ir_version = ? AND engine_version = ?
	`, sourceHash, dialect, ir.IRVersion, ir.EngineVersion))
	if errors.Is(err, sql.ErrNoRows) {
		return Lowering{}, false, nil
	}
	if err != nil {
		return Lowering{}, false, fmt.Errorf("get lowering: %w", err)
	}
	return rec, true, nil
}

// ListLowerings returns every cached lowering, all IR versions included.
// Results are ordered deterministically: ORDER BY created_seq ASC, then key.
//
// Returns an empty slice (not nil) if the cache is empty.
func (s *Store) ListLowerings(ctx context.Context) ([]Lowering, error) {
	rows, err := s.db.QueryContext(ctx, selectLowering+`
		ORDER BY created_seq ASC, source_hash COLLATE BINARY ASC, dialect COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query lowerings: %w", err)
	}
	defer rows.Close()

	lowerings := []Lowering{}
	for rows.Next() {
		rec, err := scanLowering(rows)
		if err != nil {
			return nil, err
		}
		lowerings = append(lowerings, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate lowerings: %w", err)
	}
	return lowerings, nil
}

// ReadRun retrieves a run and its files by ID.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadRun(ctx context.Context, id string) (Run, error) {
	var run Run
	err := s.db.QueryRowContext(ctx, `
		SELECT id, dialect, started_seq FROM runs WHERE id = ?
	`, id).Scan(&run.ID, &run.Dialect, &run.Seq)
	if err != nil {
		return Run{}, err
	}

	files, err := s.readRunFiles(ctx, id)
	if err != nil {
		return Run{}, err
	}
	run.Files = files
	return run, nil
}

// ListRuns returns every run with its files, ordered by seq.
//
// Returns an empty slice (not nil) if no runs exist.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, dialect, started_seq FROM runs
		ORDER BY started_seq ASC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}

	runs := []Run{}
	for rows.Next() {
		var run Run
		if err := rows.Scan(&run.ID, &run.Dialect, &run.Seq); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	// Close before the per-run queries: the pool holds a single connection.
	rows.Close()

	for i := range runs {
		files, err := s.readRunFiles(ctx, runs[i].ID)
		if err != nil {
			return nil, err
		}
		runs[i].Files = files
	}
	return runs, nil
}

func (s *Store) readRunFiles(ctx context.Context, runID string) ([]RunFile, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT path, source_hash, ir_hash, error
		FROM run_files
		WHERE run_id = ?
		ORDER BY position ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query run files: %w", err)
	}
	defer rows.Close()

	files := []RunFile{}
	for rows.Next() {
		var (
			f       RunFile
			irHash  sql.NullString
			errText sql.NullString
		)
		if err := rows.Scan(&f.Path, &f.SourceHash, &irHash, &errText); err != nil {
			return nil, fmt.Errorf("scan run file: %w", err)
		}
		f.IRHash = irHash.String
		f.Error = errText.String
		files = append(files, f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run files: %w", err)
	}
	return files, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanLowering(row scanner) (Lowering, error) {
	var (
		rec    Lowering
		irJSON string
	)
	err := row.Scan(
		&rec.SourceHash,
		&rec.Dialect,
		&rec.IRVersion,
		&rec.EngineVersion,
		&rec.IRHash,
		&irJSON,
		&rec.Seq,
	)
	if err != nil {
		return Lowering{}, err
	}

	rec.IR, err = unmarshalIR(irJSON)
	if err != nil {
		return Lowering{}, err
	}
	return rec, nil
}

func scanLoweringRow(row *sql.Row) (Lowering, error) {
	return scanLowering(row)
}
