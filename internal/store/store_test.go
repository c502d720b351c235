package store

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/nvandessel/coevolve/internal/simulation"
)

// storeFactories lists every RunStore implementation under test.
func storeFactories(t *testing.T) map[string]func() RunStore {
	t.Helper()
	return map[string]func() RunStore{
		"memory": func() RunStore { return NewInMemoryRunStore() },
		"sqlite": func() RunStore {
			s, err := NewSQLiteRunStore(filepath.Join(t.TempDir(), DBFileName))
			if err != nil {
				t.Fatalf("NewSQLiteRunStore() error = %v", err)
			}
			return s
		},
	}
}

func TestRunStore_Lifecycle(t *testing.T) {
	for name, newStore := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := newStore()
			defer s.Close()

			id, err := s.CreateRun(ctx, Run{NetworkID: "net-1", Config: `{"population":{"size":3}}`})
			if err != nil {
				t.Fatalf("CreateRun() error = %v", err)
			}
			if id == "" {
				t.Fatal("CreateRun() should assign an id")
			}

			rec := NewRecorder(s, id)
			results := []simulation.RoundResult{
				{Round: 1, Susceptible: 2, Infected: 1, Connections: 1,
					Changes: []simulation.Change{{Agent: 1, Partner: 2, Action: simulation.ActionConnect}},
					Events:  []simulation.Event{simulation.EventRoundFinished}},
				{Round: 2, Susceptible: 2, Recovered: 1, Connections: 1, Stable: true,
					Events: []simulation.Event{simulation.EventRoundFinished, simulation.EventInfectionDefeated}},
			}
			for _, res := range results {
				if err := rec.RecordRound(ctx, res); err != nil {
					t.Fatalf("RecordRound() error = %v", err)
				}
			}

			rounds, err := s.Rounds(ctx, id)
			if err != nil {
				t.Fatalf("Rounds() error = %v", err)
			}
			want := []Round{
				{RunID: id, Round: 1, Susceptible: 2, Infected: 1, Connections: 1, Changes: 1, Events: []string{"round_finished"}},
				{RunID: id, Round: 2, Susceptible: 2, Recovered: 1, Connections: 1, Stable: true, Events: []string{"round_finished", "infection_defeated"}},
			}
			if !reflect.DeepEqual(rounds, want) {
				t.Errorf("Rounds() = %+v\nwant %+v", rounds, want)
			}

			summary := simulation.Summary{RunID: id, Rounds: 2, Finished: true, FinishedByStability: true}
			if err := s.FinishRun(ctx, id, summary); err != nil {
				t.Fatalf("FinishRun() error = %v", err)
			}

			run, err := s.GetRun(ctx, id)
			if err != nil {
				t.Fatalf("GetRun() error = %v", err)
			}
			if run.NetworkID != "net-1" || run.Config == "" {
				t.Errorf("run = %+v", run)
			}
			if run.FinishedAt == nil || run.Summary == nil {
				t.Fatalf("finished run should carry end time and summary: %+v", run)
			}
			if !run.Summary.FinishedByStability || run.Summary.Rounds != 2 {
				t.Errorf("summary = %+v", run.Summary)
			}

			if err := s.DeleteRun(ctx, id); err != nil {
				t.Fatalf("DeleteRun() error = %v", err)
			}
			if _, err := s.GetRun(ctx, id); !errors.Is(err, ErrRunNotFound) {
				t.Errorf("GetRun() after delete error = %v, want ErrRunNotFound", err)
			}
		})
	}
}

func TestRunStore_UnknownRun(t *testing.T) {
	for name, newStore := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := newStore()
			defer s.Close()

			if err := s.RecordRound(ctx, Round{RunID: "missing", Round: 1}); !errors.Is(err, ErrRunNotFound) {
				t.Errorf("RecordRound() error = %v, want ErrRunNotFound", err)
			}
			if err := s.FinishRun(ctx, "missing", simulation.Summary{}); !errors.Is(err, ErrRunNotFound) {
				t.Errorf("FinishRun() error = %v, want ErrRunNotFound", err)
			}
			if _, err := s.Rounds(ctx, "missing"); !errors.Is(err, ErrRunNotFound) {
				t.Errorf("Rounds() error = %v, want ErrRunNotFound", err)
			}
			if err := s.DeleteRun(ctx, "missing"); !errors.Is(err, ErrRunNotFound) {
				t.Errorf("DeleteRun() error = %v, want ErrRunNotFound", err)
			}
		})
	}
}

func TestRunStore_ListRunsNewestFirst(t *testing.T) {
	for name, newStore := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := newStore()
			defer s.Close()

			base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
			for i, id := range []string{"a", "b", "c"} {
				if _, err := s.CreateRun(ctx, Run{ID: id, NetworkID: "n", StartedAt: base.Add(time.Duration(i) * time.Minute)}); err != nil {
					t.Fatal(err)
				}
			}
			if _, err := s.CreateRun(ctx, Run{ID: "a", NetworkID: "n"}); err == nil {
				t.Error("expected error for duplicate run id")
			}

			runs, err := s.ListRuns(ctx)
			if err != nil {
				t.Fatalf("ListRuns() error = %v", err)
			}
			var ids []string
			for _, r := range runs {
				ids = append(ids, r.ID)
			}
			if !reflect.DeepEqual(ids, []string{"c", "b", "a"}) {
				t.Errorf("ListRuns() order = %v, want [c b a]", ids)
			}
			if !runs[2].StartedAt.Equal(base) {
				t.Errorf("StartedAt = %v, want %v", runs[2].StartedAt, base)
			}
		})
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		kind    string
		wantErr bool
	}{
		{"", false},
		{"sqlite", false},
		{"memory", false},
		{"postgres", true},
	}

	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			s, err := New(tt.kind, DefaultDBPath(t.TempDir()))
			if (err != nil) != tt.wantErr {
				t.Fatalf("New(%q) error = %v, wantErr %v", tt.kind, err, tt.wantErr)
			}
			if s != nil {
				s.Close()
			}
		})
	}
}
