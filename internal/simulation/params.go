package simulation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/nvandessel/coevolve/internal/disease"
	"github.com/nvandessel/coevolve/internal/logging"
	"github.com/nvandessel/coevolve/internal/stats"
)

// ErrFinished is returned by Step once the run has terminated.
var ErrFinished = errors.New("simulation already finished")

// Params are the plain values driving one run.
type Params struct {
	// MaxRounds caps the number of rounds.
	MaxRounds int

	// SafetyMargin is the number of consecutive rounds in which every agent
	// must be satisfied, with no infection left, before the run converges.
	SafetyMargin int

	// Seed seeds the shuffles, coin flips and transmission draws.
	Seed uint64

	// Workers > 1 evaluates decision proposals concurrently against the
	// network at the start of the phase. A proposal that no longer pays when
	// its agent's turn comes is dropped rather than replaced by the next best
	// candidate, so worker runs can diverge from sequential runs with the
	// same seed.
	Workers int

	// AgentDelay paces the decision phase. Zero runs at full speed.
	AgentDelay time.Duration

	// Specs is the disease that spreads during the run.
	Specs disease.Specs

	// IndirectPolicy decides how indirect contacts are counted.
	IndirectPolicy stats.IndirectPolicy
}

// Validate checks the parameters for values no run can use.
func (p Params) Validate() error {
	if p.MaxRounds < 1 {
		return fmt.Errorf("max rounds must be at least 1, got %d", p.MaxRounds)
	}
	if p.SafetyMargin < 1 {
		return fmt.Errorf("safety margin must be at least 1, got %d", p.SafetyMargin)
	}
	if p.Workers < 0 {
		return fmt.Errorf("workers must be non-negative, got %d", p.Workers)
	}
	if p.AgentDelay < 0 {
		return fmt.Errorf("agent delay must be non-negative, got %s", p.AgentDelay)
	}
	if err := p.Specs.Validate(); err != nil {
		return fmt.Errorf("disease: %w", err)
	}
	return nil
}

// Recorder persists round results. Errors are logged and never stop a run.
type Recorder interface {
	RecordRound(ctx context.Context, r RoundResult) error
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the operational logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithDecisionLogger traces every tie decision. A nil logger disables tracing.
func WithDecisionLogger(dl *logging.DecisionLogger) Option {
	return func(e *Engine) { e.decisions = dl }
}

// WithRecorder persists every finished round.
func WithRecorder(r Recorder) Option {
	return func(e *Engine) { e.recorder = r }
}

// WithRunID labels decision traces and summaries.
func WithRunID(id string) Option {
	return func(e *Engine) { e.runID = id }
}

// NewRand returns the deterministic generator used for a given seed.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed))
}
