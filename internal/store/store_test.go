package store

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"
)

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	for i := 0; i < 3; i++ {
		s, err := Open(path)
		if err != nil {
			t.Fatalf("Open() iteration %d failed: %v", i, err)
		}
		s.Close()
	}

	s, err := Open(path)
	if err != nil {
		t.Fatalf("final Open() failed: %v", err)
	}
	defer s.Close()

	tables := []string{"lowerings", "runs", "run_files"}
	for _, table := range tables {
		var name string
		err := s.db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?",
			table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %q not found after idempotent opens: %v", table, err)
		}
	}
}

func TestOpen_InvalidPath(t *testing.T) {
	_, err := Open("/nonexistent/dir/test.db")
	if err == nil {
		t.Error("expected error for invalid path, got nil")
	}
}

func TestClose_NilDB(t *testing.T) {
	s := &Store{db: nil}
	if err := s.Close(); err != nil {
		t.Errorf("Close() on nil db should not error: %v", err)
	}
}

// Pragma tests

func TestPragmas(t *testing.T) {
	s := createTestStore(t)

	tests := []struct {
		name string
		want string
	}{
		{"journal_mode", "wal"},
		{"synchronous", "1"}, // NORMAL
		{"busy_timeout", "5000"},
		{"foreign_keys", "1"},
		{"user_version", "1"},
	}

	for _, tt := range tests {
		if err := s.verifyPragma(tt.name, tt.want); err != nil {
			t.Error(err)
		}
	}
}

// Migration tests

func TestMigration_AddsEngineVersionToOldDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "old.db")

	// A database created before engine_version existed.
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("sql.Open() failed: %v", err)
	}
	_, err = db.Exec(`
		CREATE TABLE lowerings (
			source_hash TEXT NOT NULL,
			dialect     TEXT NOT NULL,
			ir_version  TEXT NOT NULL,
			ir_hash     TEXT NOT NULL,
			ir_json     TEXT NOT NULL,
			created_seq INTEGER NOT NULL,
			PRIMARY KEY (source_hash, dialect, ir_version)
		);
		INSERT INTO lowerings VALUES ('src', 'base', '1', 'h', '["pass"]', 7);
	`)
	if err != nil {
		t.Fatalf("seed old schema: %v", err)
	}
	db.Close()

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	ok, err := hasColumn(s.db, "lowerings", "engine_version")
	if err != nil {
		t.Fatalf("hasColumn() failed: %v", err)
	}
	if !ok {
		t.Fatal("engine_version column missing after migration")
	}

	var engineVersion string
	if err := s.db.QueryRow("SELECT engine_version FROM lowerings").Scan(&engineVersion); err != nil {
		t.Fatalf("query engine_version: %v", err)
	}
	if engineVersion != "" {
		t.Errorf("engine_version = %q, want empty for pre-v1 rows", engineVersion)
	}

	if got := s.Seq(); got != 7 {
		t.Errorf("Seq() = %d, want clock resumed at 7", got)
	}
}

func TestOpen_ResumesClock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s1, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	if _, _, err := s1.PutLowering(t.Context(), "a", "base", sampleIR()); err != nil {
		t.Fatalf("PutLowering() failed: %v", err)
	}
	if _, _, err := s1.PutLowering(t.Context(), "b", "base", sampleIR()); err != nil {
		t.Fatalf("PutLowering() failed: %v", err)
	}
	s1.Close()

	s2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer s2.Close()

	if got := s2.Seq(); got != 2 {
		t.Fatalf("Seq() after reopen = %d, want 2", got)
	}
	rec, _, err := s2.PutLowering(t.Context(), "c", "base", sampleIR())
	if err != nil {
		t.Fatalf("PutLowering() failed: %v", err)
	}
	if rec.Seq != 3 {
		t.Errorf("seq after reopen = %d, want 3", rec.Seq)
	}
}
