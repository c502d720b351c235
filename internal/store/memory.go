package store

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nvandessel/coevolve/internal/simulation"
)

// InMemoryRunStore implements RunStore for testing and throwaway runs.
type InMemoryRunStore struct {
	mu     sync.RWMutex
	runs   map[string]Run
	rounds map[string][]Round
}

// NewInMemoryRunStore creates an empty in-memory store.
func NewInMemoryRunStore() *InMemoryRunStore {
	return &InMemoryRunStore{
		runs:   make(map[string]Run),
		rounds: make(map[string][]Round),
	}
}

// CreateRun stores a new run.
func (s *InMemoryRunStore) CreateRun(ctx context.Context, run Run) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if _, exists := s.runs[run.ID]; exists {
		return "", fmt.Errorf("run %s already exists", run.ID)
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}
	s.runs[run.ID] = run
	return run.ID, nil
}

// RecordRound appends a round to an existing run.
func (s *InMemoryRunStore) RecordRound(ctx context.Context, round Round) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.runs[round.RunID]; !ok {
		return fmt.Errorf("record round %d: %w: %s", round.Round, ErrRunNotFound, round.RunID)
	}
	round.Events = slices.Clone(round.Events)
	s.rounds[round.RunID] = append(s.rounds[round.RunID], round)
	return nil
}

// FinishRun attaches the summary and end time to a run.
func (s *InMemoryRunStore) FinishRun(ctx context.Context, id string, summary simulation.Summary) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	run, ok := s.runs[id]
	if !ok {
		return fmt.Errorf("finish run: %w: %s", ErrRunNotFound, id)
	}
	now := time.Now().UTC()
	run.FinishedAt = &now
	run.Summary = &summary
	s.runs[id] = run
	return nil
}

// GetRun retrieves a run by id.
func (s *InMemoryRunStore) GetRun(ctx context.Context, id string) (*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[id]
	if !ok {
		return nil, fmt.Errorf("get run: %w: %s", ErrRunNotFound, id)
	}
	return &run, nil
}

// ListRuns returns all runs, most recently started first.
func (s *InMemoryRunStore) ListRuns(ctx context.Context) ([]Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	runs := make([]Run, 0, len(s.runs))
	for _, r := range s.runs {
		runs = append(runs, r)
	}
	slices.SortFunc(runs, func(a, b Run) int {
		if c := b.StartedAt.Compare(a.StartedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return runs, nil
}

// Rounds returns the recorded rounds of a run in order.
func (s *InMemoryRunStore) Rounds(ctx context.Context, runID string) ([]Round, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.runs[runID]; !ok {
		return nil, fmt.Errorf("rounds: %w: %s", ErrRunNotFound, runID)
	}
	return slices.Clone(s.rounds[runID]), nil
}

// DeleteRun removes a run and its rounds.
func (s *InMemoryRunStore) DeleteRun(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.runs[id]; !ok {
		return fmt.Errorf("delete run: %w: %s", ErrRunNotFound, id)
	}
	delete(s.runs, id)
	delete(s.rounds, id)
	return nil
}

// Close is a no-op.
func (s *InMemoryRunStore) Close() error { return nil }

