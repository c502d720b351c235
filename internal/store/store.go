// Package store records simulation runs and their per-round results.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/nvandessel/coevolve/internal/simulation"
)

// ErrRunNotFound is returned when a run id is unknown.
var ErrRunNotFound = errors.New("run not found")

// Run is one recorded simulation.
type Run struct {
	ID        string `json:"id"`
	NetworkID string `json:"network_id"`

	// Config is the JSON encoded configuration the run was started with.
	Config string `json:"config,omitempty"`

	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`

	// Summary is set once the run has ended, whether finished or interrupted.
	Summary *simulation.Summary `json:"summary,omitempty"`
}

// Round is the persisted form of one finished round.
type Round struct {
	RunID         string   `json:"run_id"`
	Round         int      `json:"round"`
	Susceptible   int      `json:"susceptible"`
	Infected      int      `json:"infected"`
	Recovered     int      `json:"recovered"`
	Connections   int      `json:"connections"`
	Changes       int      `json:"changes"`
	NewInfections int      `json:"new_infections"`
	Stable        bool     `json:"stable"`
	Events        []string `json:"events,omitempty"`
}

// RoundFromResult flattens a round result for storage.
func RoundFromResult(runID string, res simulation.RoundResult) Round {
	var events []string
	for _, ev := range res.Events {
		events = append(events, string(ev))
	}
	return Round{
		RunID:         runID,
		Round:         res.Round,
		Susceptible:   res.Susceptible,
		Infected:      res.Infected,
		Recovered:     res.Recovered,
		Connections:   res.Connections,
		Changes:       len(res.Changes),
		NewInfections: len(res.NewInfections),
		Stable:        res.Stable,
		Events:        events,
	}
}

// RunStore defines the interface for recording and querying runs.
type RunStore interface {
	// CreateRun stores a new run. An empty ID is replaced by a fresh UUID.
	// It returns the run id.
	CreateRun(ctx context.Context, run Run) (string, error)

	// RecordRound appends a round to an existing run.
	RecordRound(ctx context.Context, round Round) error

	// FinishRun attaches the summary and end time to a run.
	FinishRun(ctx context.Context, id string, summary simulation.Summary) error

	// GetRun returns ErrRunNotFound for unknown ids.
	GetRun(ctx context.Context, id string) (*Run, error)

	// ListRuns returns all runs, most recently started first.
	ListRuns(ctx context.Context) ([]Run, error)

	// Rounds returns the recorded rounds of a run in order.
	Rounds(ctx context.Context, runID string) ([]Round, error)

	// DeleteRun removes a run and its rounds.
	DeleteRun(ctx context.Context, id string) error

	Close() error
}

// Recorder adapts a RunStore to the engine's Recorder for a single run.
type Recorder struct {
	store RunStore
	runID string
}

// NewRecorder returns a recorder appending to runID.
func NewRecorder(s RunStore, runID string) *Recorder {
	return &Recorder{store: s, runID: runID}
}

// RecordRound implements simulation.Recorder.
func (r *Recorder) RecordRound(ctx context.Context, res simulation.RoundResult) error {
	return r.store.RecordRound(ctx, RoundFromResult(r.runID, res))
}
