package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/nvandessel/coevolve/internal/simulation"
)

func TestSQLiteRunStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dbPath := DefaultDBPath(t.TempDir())

	s, err := NewSQLiteRunStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteRunStore() error = %v", err)
	}
	id, err := s.CreateRun(ctx, Run{NetworkID: "net"})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.RecordRound(ctx, Round{RunID: id, Round: 1, Susceptible: 4}); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	reopened, err := NewSQLiteRunStore(dbPath)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer reopened.Close()

	rounds, err := reopened.Rounds(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if len(rounds) != 1 || rounds[0].Susceptible != 4 {
		t.Errorf("rounds after reopen = %+v", rounds)
	}
	if rounds[0].Events != nil {
		t.Errorf("empty events should read back as nil, got %v", rounds[0].Events)
	}
}

func TestSQLiteRunStore_DeleteCascadesRounds(t *testing.T) {
	ctx := context.Background()
	s, err := NewSQLiteRunStore(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	id, err := s.CreateRun(ctx, Run{NetworkID: "net"})
	if err != nil {
		t.Fatal(err)
	}
	rec := NewRecorder(s, id)
	for i := 1; i <= 3; i++ {
		if err := rec.RecordRound(ctx, simulation.RoundResult{Round: i}); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.DeleteRun(ctx, id); err != nil {
		t.Fatal(err)
	}

	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM rounds`).Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Errorf("rounds left after delete = %d, want 0", count)
	}
}

func TestInitSchema_RecordsVersion(t *testing.T) {
	ctx := context.Background()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "schema.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	if err := InitSchema(ctx, db); err != nil {
		t.Fatalf("InitSchema() error = %v", err)
	}
	// Second call validates instead of recreating.
	if err := InitSchema(ctx, db); err != nil {
		t.Fatalf("InitSchema() on existing schema error = %v", err)
	}

	version, err := getSchemaVersion(ctx, db)
	if err != nil {
		t.Fatal(err)
	}
	if version != SchemaVersion {
		t.Errorf("schema version = %d, want %d", version, SchemaVersion)
	}
}

func TestInitSchema_RejectsNewerVersion(t *testing.T) {
	ctx := context.Background()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "future.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	if err := InitSchema(ctx, db); err != nil {
		t.Fatal(err)
	}
	if _, err := db.ExecContext(ctx, `INSERT INTO schema_version (version, applied_at) VALUES (?, datetime('now'))`, SchemaVersion+1); err != nil {
		t.Fatal(err)
	}
	if err := InitSchema(ctx, db); err == nil {
		t.Error("expected error for a newer schema version")
	}
}

func TestNewSQLiteRunStore_RequiresPath(t *testing.T) {
	if _, err := NewSQLiteRunStore(""); err == nil {
		t.Error("expected error for empty path")
	}
}
