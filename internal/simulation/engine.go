package simulation

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"slices"
	"sync/atomic"
	"time"

	"github.com/nvandessel/coevolve/internal/disease"
	"github.com/nvandessel/coevolve/internal/logging"
	"github.com/nvandessel/coevolve/internal/network"
	"github.com/nvandessel/coevolve/internal/stats"
)

// Engine drives rounds over a network. Step and Run must not be called
// concurrently; Pause and Resume may be called from any goroutine.
type Engine struct {
	net    *network.Network
	params Params
	rng    *rand.Rand
	runID  string

	logger    *slog.Logger
	decisions *logging.DecisionLogger
	recorder  Recorder

	paused atomic.Bool

	// current is the round in progress. It is kept across an interrupted
	// Step so the next Step resumes the same round.
	current *roundState

	rounds              int
	stableRounds        int
	finished            bool
	finishedByStability bool
}

// New creates an engine for net. Workers of 0 is treated as 1.
func New(net *network.Network, p Params, opts ...Option) (*Engine, error) {
	if net == nil {
		return nil, fmt.Errorf("simulation: nil network")
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("simulation: %w", err)
	}
	if p.Workers == 0 {
		p.Workers = 1
	}

	e := &Engine{
		net:    net,
		params: p,
		rng:    NewRand(p.Seed),
		logger: logging.Discard(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Network returns the network the engine mutates.
func (e *Engine) Network() *network.Network { return e.net }

// Params returns the normalized parameters.
func (e *Engine) Params() Params { return e.params }

// Rounds returns the number of completed rounds.
func (e *Engine) Rounds() int { return e.rounds }

// Finished reports whether the run has terminated.
func (e *Engine) Finished() bool { return e.finished }

// Pause stops the run before the next agent decision.
func (e *Engine) Pause() { e.paused.Store(true) }

// Resume clears the pause flag.
func (e *Engine) Resume() { e.paused.Store(false) }

// Paused reports whether the engine is paused.
func (e *Engine) Paused() bool { return e.paused.Load() }

// roundState is the progress of one round. The disease phase runs once when
// the state is created; next indexes the first agent still to decide.
type roundState struct {
	res          RoundResult
	hadInfection bool
	order        []int
	connectFirst []bool
	next         int
}

// Step runs one round. A round tripped by cancellation or pause comes back
// with Interrupted set and a nil error, and the next Step resumes it with the
// agents that have not decided yet. Fatal configuration errors are returned
// as errors.
func (e *Engine) Step(ctx context.Context) (RoundResult, error) {
	if e.finished {
		return RoundResult{Round: e.rounds, Finished: true, FinishedByStability: e.finishedByStability}, ErrFinished
	}

	if e.interrupted(ctx) {
		if e.current != nil {
			return e.current.interruptedResult(), nil
		}
		return RoundResult{Round: e.rounds + 1, Interrupted: true}, nil
	}

	rs := e.current
	if rs == nil {
		var err error
		if rs, err = e.startRound(); err != nil {
			return rs.res, err
		}
		e.current = rs
	} else {
		e.logger.Debug("round resumed", "round", rs.res.Round, "remaining", len(rs.order)-rs.next)
	}

	ok, err := e.decisionPhase(ctx, rs)
	if err != nil {
		return rs.res, err
	}
	if !ok {
		e.logger.Debug("round interrupted", "round", rs.res.Round, "changes", len(rs.res.Changes))
		return rs.interruptedResult(), nil
	}

	e.current = nil
	res := rs.res
	e.finishRound(ctx, &res, rs.hadInfection)
	return res, nil
}

// startRound runs the disease phase of a new round and draws the decision
// order and coin flips.
func (e *Engine) startRound() (*roundState, error) {
	rs := &roundState{
		res:          RoundResult{Round: e.rounds + 1},
		hadInfection: e.net.HasActiveInfection(),
	}
	if err := e.diseasePhase(&rs.res); err != nil {
		return rs, err
	}

	rs.order = e.shuffled()
	rs.connectFirst = make([]bool, len(rs.order))
	for i := range rs.order {
		rs.connectFirst[i] = e.rng.IntN(2) == 0
	}
	return rs, nil
}

// interruptedResult reports the round so far. The slices are copied so the
// caller's view does not change when the round resumes.
func (rs *roundState) interruptedResult() RoundResult {
	res := rs.res
	res.Interrupted = true
	res.NewInfections = slices.Clone(res.NewInfections)
	res.Recoveries = slices.Clone(res.Recoveries)
	res.Changes = slices.Clone(res.Changes)
	return res
}

// Run steps until the run terminates or is interrupted. On cancellation the
// context error is returned together with the summary so far.
func (e *Engine) Run(ctx context.Context) (Summary, error) {
	for !e.finished {
		res, err := e.Step(ctx)
		if err != nil {
			return e.summary(false), err
		}
		if res.Interrupted {
			return e.summary(true), ctx.Err()
		}
	}
	return e.summary(false), nil
}

func (e *Engine) summary(interrupted bool) Summary {
	return Summary{
		RunID:               e.runID,
		Rounds:              e.rounds,
		Finished:            e.finished,
		FinishedByStability: e.finishedByStability,
		Interrupted:         interrupted,
		Agents:              stats.ComputeGlobalAgentStats(e.net),
		Network:             stats.ComputeGlobalNetworkStats(e.net),
	}
}

func (e *Engine) finishRound(ctx context.Context, res *RoundResult, hadInfection bool) {
	e.rounds++

	res.Susceptible = e.net.CountGroup(disease.Susceptible)
	res.Infected = e.net.CountGroup(disease.Infected)
	res.Recovered = e.net.CountGroup(disease.Recovered)
	res.Connections = e.net.EdgeCount()

	res.Stable = e.net.AllSatisfied()
	if res.Stable {
		e.stableRounds++
	} else {
		e.stableRounds = 0
	}
	res.StableRounds = e.stableRounds

	res.Events = append(res.Events, EventRoundFinished)
	e.logger.Debug("round finished",
		"round", res.Round,
		"infected", res.Infected,
		"new_infections", len(res.NewInfections),
		"connections", res.Connections,
		"changes", len(res.Changes),
		"stable", res.Stable)

	active := res.Infected > 0
	if hadInfection && !active {
		res.Events = append(res.Events, EventInfectionDefeated)
		e.logger.Info("infection defeated", "round", res.Round, "recovered", res.Recovered)
	}

	switch {
	case e.stableRounds >= e.params.SafetyMargin && !active:
		e.finished = true
		e.finishedByStability = true
	case e.rounds >= e.params.MaxRounds:
		e.finished = true
	}
	if e.finished {
		res.Finished = true
		res.FinishedByStability = e.finishedByStability
		res.Events = append(res.Events, EventSimulationFinished)
		e.logger.Info("simulation finished",
			"rounds", e.rounds,
			"by_stability", e.finishedByStability,
			"connections", res.Connections)
	}

	if e.recorder != nil {
		if err := e.recorder.RecordRound(ctx, *res); err != nil {
			e.logger.Warn("failed to record round", "round", res.Round, "error", err)
		}
	}
}

// diseasePhase draws transmissions against the infections present when the
// phase starts, then advances existing infections, then applies the new ones.
func (e *Engine) diseasePhase(res *RoundResult) error {
	ids := e.shuffled()

	var infections []int
	for _, id := range ids {
		if e.net.Group(id) != disease.Susceptible {
			continue
		}
		nI := 0
		for _, t := range e.net.Ties(id) {
			if e.net.Infectious(t) {
				nI++
			}
		}
		if nI == 0 {
			continue
		}
		if e.rng.Float64() < disease.ProbabilityOfInfection(e.params.Specs.Gamma, nI) {
			infections = append(infections, id)
		}
	}

	for _, id := range ids {
		if e.net.Group(id) == disease.Infected && e.net.EvolveDisease(id) {
			res.Recoveries = append(res.Recoveries, id)
		}
	}

	for _, id := range infections {
		if err := e.net.Infect(id, e.params.Specs); err != nil {
			return fmt.Errorf("round %d: transmission: %w", res.Round, err)
		}
	}
	res.NewInfections = infections
	return nil
}

func (e *Engine) shuffled() []int {
	ids := e.net.IDs()
	e.rng.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })
	return ids
}

func (e *Engine) interrupted(ctx context.Context) bool {
	return ctx.Err() != nil || e.paused.Load()
}

// pace sleeps for AgentDelay. It returns false if ctx ends first.
func (e *Engine) pace(ctx context.Context) bool {
	if e.params.AgentDelay <= 0 {
		return true
	}
	t := time.NewTimer(e.params.AgentDelay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
