// Package disease models the SIR compartments, the immutable parameter bundle of a
// disease and the per-infection state machine.
package disease

import (
	"errors"
	"fmt"
	"math"
)

// ErrSpecsMismatch is returned when an agent is infected with a disease whose
// parameters do not match the disease the agent was configured with.
var ErrSpecsMismatch = errors.New("disease specs mismatch")

// Group is the SIR compartment an agent belongs to.
type Group int

const (
	Susceptible Group = iota
	Infected
	Recovered
)

// String returns the single-letter compartment label used in exports and logs.
func (g Group) String() string {
	switch g {
	case Susceptible:
		return "S"
	case Infected:
		return "I"
	case Recovered:
		return "R"
	default:
		return fmt.Sprintf("Group(%d)", int(g))
	}
}

// Valid reports whether g is one of the three compartments.
func (g Group) Valid() bool {
	return g == Susceptible || g == Infected || g == Recovered
}

// Specs is the immutable parameter bundle of a disease.
type Specs struct {
	// Type labels the disease model, e.g. "SIR".
	Type string `json:"type" yaml:"type"`

	// Tau is the number of rounds until an infected agent recovers.
	Tau int `json:"tau" yaml:"tau"`

	// Severity is the utility penalty magnitude of being infected (sigma).
	Severity float64 `json:"severity" yaml:"severity"`

	// Gamma is the per-contact transmission probability per round.
	Gamma float64 `json:"gamma" yaml:"gamma"`

	// Mu multiplies the cost of a tie to an infected partner.
	Mu float64 `json:"mu" yaml:"mu"`
}

// Equal reports whether two specs carry the same values.
func (s Specs) Equal(o Specs) bool {
	return s == o
}

// Validate checks that the parameters describe a usable disease.
func (s Specs) Validate() error {
	if s.Tau < 1 {
		return fmt.Errorf("tau must be at least 1, got %d", s.Tau)
	}
	if s.Gamma < 0 || s.Gamma > 1 {
		return fmt.Errorf("gamma must be between 0 and 1, got %f", s.Gamma)
	}
	if s.Severity < 0 {
		return fmt.Errorf("severity must be non-negative, got %f", s.Severity)
	}
	if s.Mu < 0 {
		return fmt.Errorf("mu must be non-negative, got %f", s.Mu)
	}
	return nil
}

// State is the phase of a single infection.
type State int

const (
	Infectious State = iota
	Defeated
)

// String returns the state name.
func (s State) String() string {
	if s == Defeated {
		return "defeated"
	}
	return "infectious"
}

// Disease is one running infection. It is owned by exactly one infected agent
// and discarded once the agent recovers.
type Disease struct {
	specs        Specs
	currDuration int
	state        State
}

// New starts a fresh infection.
func New(specs Specs) *Disease {
	return &Disease{specs: specs, state: Infectious}
}

// Specs returns the parameters this infection was started with.
func (d *Disease) Specs() Specs {
	return d.specs
}

// Evolve advances the infection by one round. Once the duration reaches tau the
// infection is defeated and further calls have no effect.
func (d *Disease) Evolve() {
	if d.state == Defeated {
		return
	}
	d.currDuration++
	if d.currDuration >= d.specs.Tau {
		d.state = Defeated
	}
}

// Duration returns the number of rounds the infection has lasted.
func (d *Disease) Duration() int {
	return d.currDuration
}

// RemainingRounds returns tau minus the current duration, never below zero.
func (d *Disease) RemainingRounds() int {
	if r := d.specs.Tau - d.currDuration; r > 0 {
		return r
	}
	return 0
}

// State returns the current phase.
func (d *Disease) State() State {
	return d.state
}

// IsInfectious reports whether the infection can still be transmitted.
func (d *Disease) IsInfectious() bool {
	return d.state == Infectious
}

// IsCured reports whether the infection has run its course.
func (d *Disease) IsCured() bool {
	return d.state == Defeated
}

// ProbabilityOfInfection returns the probability that a susceptible agent with
// nI infectious contacts is infected within one round: 1 - (1-gamma)^nI.
func ProbabilityOfInfection(gamma float64, nI int) float64 {
	if nI <= 0 {
		return 0
	}
	return 1 - math.Pow(1-gamma, float64(nI))
}
