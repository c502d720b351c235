package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nvandessel/coevolve/internal/simulation"
)

// timeFormat is fixed width so text ordering matches time ordering.
const timeFormat = "2006-01-02T15:04:05.000000000Z"

// SQLiteRunStore implements RunStore on a SQLite database file.
type SQLiteRunStore struct {
	mu     sync.RWMutex
	db     *sql.DB
	dbPath string
}

// NewSQLiteRunStore opens (creating if needed) the database at dbPath.
func NewSQLiteRunStore(dbPath string) (*SQLiteRunStore, error) {
	if dbPath == "" {
		return nil, errors.New("sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite works best with single writer

	if err := InitSchema(context.Background(), db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteRunStore{db: db, dbPath: dbPath}, nil
}

// Path returns the database file path.
func (s *SQLiteRunStore) Path() string { return s.dbPath }

// CreateRun stores a new run.
func (s *SQLiteRunStore) CreateRun(ctx context.Context, run Run) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, network_id, config, started_at) VALUES (?, ?, ?, ?)`,
		run.ID, run.NetworkID, nullString(run.Config), run.StartedAt.UTC().Format(timeFormat))
	if err != nil {
		return "", fmt.Errorf("failed to insert run %s: %w", run.ID, err)
	}
	return run.ID, nil
}

// RecordRound appends a round to an existing run.
func (s *SQLiteRunStore) RecordRound(ctx context.Context, round Round) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireRun(ctx, round.RunID); err != nil {
		return fmt.Errorf("record round %d: %w", round.Round, err)
	}

	events, err := json.Marshal(round.Events)
	if err != nil {
		return fmt.Errorf("failed to marshal events: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO rounds (run_id, round, susceptible, infected, recovered,
			connections, changes, new_infections, stable, events)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, round) DO UPDATE SET
			susceptible = excluded.susceptible,
			infected = excluded.infected,
			recovered = excluded.recovered,
			connections = excluded.connections,
			changes = excluded.changes,
			new_infections = excluded.new_infections,
			stable = excluded.stable,
			events = excluded.events`,
		round.RunID, round.Round, round.Susceptible, round.Infected, round.Recovered,
		round.Connections, round.Changes, round.NewInfections, boolToInt(round.Stable), string(events))
	if err != nil {
		return fmt.Errorf("failed to insert round %d: %w", round.Round, err)
	}
	return nil
}

// FinishRun attaches the summary and end time to a run.
func (s *SQLiteRunStore) FinishRun(ctx context.Context, id string, summary simulation.Summary) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET finished_at = ?, summary = ? WHERE id = ?`,
		time.Now().UTC().Format(timeFormat), string(data), id)
	if err != nil {
		return fmt.Errorf("failed to finish run %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("finish run: %w: %s", ErrRunNotFound, id)
	}
	return nil
}

// GetRun retrieves a run by id.
func (s *SQLiteRunStore) GetRun(ctx context.Context, id string) (*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		`SELECT id, network_id, config, started_at, finished_at, summary FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get run: %w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// ListRuns returns all runs, most recently started first.
func (s *SQLiteRunStore) ListRuns(ctx context.Context) ([]Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, network_id, config, started_at, finished_at, summary FROM runs
		 ORDER BY started_at DESC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Rounds returns the recorded rounds of a run in order.
func (s *SQLiteRunStore) Rounds(ctx context.Context, runID string) ([]Round, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.requireRun(ctx, runID); err != nil {
		return nil, fmt.Errorf("rounds: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT round, susceptible, infected, recovered, connections, changes,
			new_infections, stable, events
		FROM rounds WHERE run_id = ? ORDER BY round`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query rounds: %w", err)
	}
	defer rows.Close()

	var rounds []Round
	for rows.Next() {
		r := Round{RunID: runID}
		var stable int
		var events sql.NullString
		if err := rows.Scan(&r.Round, &r.Susceptible, &r.Infected, &r.Recovered,
			&r.Connections, &r.Changes, &r.NewInfections, &stable, &events); err != nil {
			return nil, fmt.Errorf("failed to scan round: %w", err)
		}
		r.Stable = stable != 0
		if events.Valid && events.String != "" && events.String != "null" {
			if err := json.Unmarshal([]byte(events.String), &r.Events); err != nil {
				return nil, fmt.Errorf("failed to parse events of round %d: %w", r.Round, err)
			}
		}
		rounds = append(rounds, r)
	}
	return rounds, rows.Err()
}

// DeleteRun removes a run; its rounds are removed by cascade.
func (s *SQLiteRunStore) DeleteRun(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete run %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("delete run: %w: %s", ErrRunNotFound, id)
	}
	return nil
}

// Close closes the database.
func (s *SQLiteRunStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

func (s *SQLiteRunStore) requireRun(ctx context.Context, id string) error {
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM runs WHERE id = ?`, id).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var (
		run                         Run
		config, finishedAt, summary sql.NullString
		startedAt                   string
	)
	if err := row.Scan(&run.ID, &run.NetworkID, &config, &startedAt, &finishedAt, &summary); err != nil {
		return Run{}, err
	}

	run.Config = config.String
	t, err := time.Parse(timeFormat, startedAt)
	if err != nil {
		return Run{}, fmt.Errorf("failed to parse started_at of run %s: %w", run.ID, err)
	}
	run.StartedAt = t

	if finishedAt.Valid {
		t, err := time.Parse(timeFormat, finishedAt.String)
		if err != nil {
			return Run{}, fmt.Errorf("failed to parse finished_at of run %s: %w", run.ID, err)
		}
		run.FinishedAt = &t
	}

	if summary.Valid {
		var s simulation.Summary
		if err := json.Unmarshal([]byte(summary.String), &s); err != nil {
			return Run{}, fmt.Errorf("failed to parse summary of run %s: %w", run.ID, err)
		}
		run.Summary = &s
	}
	return run, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
