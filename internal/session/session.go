// Package session wires one configured simulation run to its supporting
// infrastructure: the run store, the decision trace and the saved final
// network.
//
// Usage:
//
//	s, err := session.Open(ctx, cfg, session.Options{Root: root, Logger: logger})
//	if err != nil {
//	    return err
//	}
//	defer s.Close()
//	summary, err := s.Run(ctx)
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nvandessel/coevolve/internal/config"
	"github.com/nvandessel/coevolve/internal/logging"
	"github.com/nvandessel/coevolve/internal/network"
	"github.com/nvandessel/coevolve/internal/simulation"
	"github.com/nvandessel/coevolve/internal/store"
)

// Options configures where a session keeps its files.
type Options struct {
	// Root is the project root. Its .coevolve directory holds the run
	// database, the decision trace and the final network. An empty Root
	// disables the decision trace and the saved network.
	Root string

	// Logger receives operational logs. Nil discards them.
	Logger *slog.Logger

	// Store overrides the configured run store. The session does not close
	// a store it was given.
	Store store.RunStore
}

// Session is a single simulation run.
type Session struct {
	cfg       *config.CoevolveConfig
	net       *network.Network
	engine    *simulation.Engine
	store     store.RunStore
	ownsStore bool
	decisions *logging.DecisionLogger
	logger    *slog.Logger
	dataDir   string
	runID     string
}

// Open validates cfg, builds the initial network and registers a new run.
func Open(ctx context.Context, cfg *config.CoevolveConfig, opts Options) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	scenario, err := cfg.Scenario()
	if err != nil {
		return nil, err
	}
	params, err := cfg.Params()
	if err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	net, err := scenario.Build(simulation.NewRand(params.Seed))
	if err != nil {
		return nil, fmt.Errorf("building network: %w", err)
	}

	var dataDir string
	if opts.Root != "" {
		dataDir = store.DataDir(opts.Root)
	}

	st, owns := opts.Store, false
	if st == nil {
		path := cfg.Store.Path
		if path == "" && opts.Root != "" {
			path = store.DefaultDBPath(opts.Root)
		}
		st, err = store.New(cfg.Store.Backend, path)
		if err != nil {
			return nil, fmt.Errorf("opening run store: %w", err)
		}
		owns = true
	}

	s := &Session{
		cfg:       cfg,
		net:       net,
		store:     st,
		ownsStore: owns,
		logger:    logger,
		dataDir:   dataDir,
	}

	cfgJSON, err := json.Marshal(cfg)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("encoding config: %w", err)
	}
	s.runID, err = st.CreateRun(ctx, store.Run{
		NetworkID: net.ID(),
		Config:    string(cfgJSON),
		StartedAt: time.Now().UTC(),
	})
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("creating run: %w", err)
	}

	if dataDir != "" {
		s.decisions = logging.NewDecisionLogger(dataDir, cfg.Logging.Level)
	}

	s.engine, err = simulation.New(net, params,
		simulation.WithLogger(logger),
		simulation.WithDecisionLogger(s.decisions),
		simulation.WithRecorder(store.NewRecorder(st, s.runID)),
		simulation.WithRunID(s.runID),
	)
	if err != nil {
		s.Close()
		return nil, err
	}

	logger.Info("run started",
		"run", s.runID,
		"agents", net.Size(),
		"topology", string(net.Type()),
		"utility", scenario.Function.String())
	return s, nil
}

// Run drives the engine to completion, then records the summary and saves
// the final network. When ctx is cancelled the partial summary is still
// recorded and ctx's error is returned.
func (s *Session) Run(ctx context.Context) (simulation.Summary, error) {
	summary, runErr := s.engine.Run(ctx)
	if runErr != nil && !errors.Is(runErr, context.Canceled) && !errors.Is(runErr, context.DeadlineExceeded) {
		return summary, runErr
	}

	// Bookkeeping runs even when the run itself was cancelled.
	bg := context.WithoutCancel(ctx)
	if err := s.store.FinishRun(bg, s.runID, summary); err != nil {
		s.logger.Warn("failed to record run summary", "run", s.runID, "error", err)
	}
	if s.dataDir != "" {
		snap := Capture(s.net, s.runID, summary.Rounds)
		if err := SaveSnapshot(snap, s.dataDir); err != nil {
			s.logger.Warn("failed to save final network", "run", s.runID, "error", err)
		}
	}

	return summary, runErr
}

// RunID returns the id the run was recorded under.
func (s *Session) RunID() string { return s.runID }

// Network returns the simulated network.
func (s *Session) Network() *network.Network { return s.net }

// Engine returns the underlying engine, e.g. to pause it.
func (s *Session) Engine() *simulation.Engine { return s.engine }

// Store returns the run store.
func (s *Session) Store() store.RunStore { return s.store }

// Close releases the decision trace and any store the session opened.
func (s *Session) Close() error {
	s.decisions.Close()
	if s.ownsStore && s.store != nil {
		return s.store.Close()
	}
	return nil
}
