package simulation

import (
	"slices"

	"github.com/nvandessel/coevolve/internal/stats"
)

// Event names something that happened during a round.
type Event string

const (
	EventRoundFinished      Event = "round_finished"
	EventInfectionDefeated  Event = "infection_defeated"
	EventSimulationFinished Event = "simulation_finished"
)

// Action is a tie change an agent can make.
type Action string

const (
	ActionConnect    Action = "connect"
	ActionDisconnect Action = "disconnect"
)

// Change is one applied tie change.
type Change struct {
	Agent   int     `json:"agent"`
	Partner int     `json:"partner"`
	Action  Action  `json:"action"`
	Gain    float64 `json:"gain"`
}

// RoundResult reports one round. An interrupted round stopped before the
// round counter advanced; its partial changes remain applied and the next
// Step finishes it without repeating the disease phase.
type RoundResult struct {
	Round       int  `json:"round"`
	Interrupted bool `json:"interrupted,omitempty"`

	NewInfections []int    `json:"new_infections,omitempty"`
	Recoveries    []int    `json:"recoveries,omitempty"`
	Changes       []Change `json:"changes,omitempty"`

	Susceptible int `json:"susceptible"`
	Infected    int `json:"infected"`
	Recovered   int `json:"recovered"`
	Connections int `json:"connections"`

	Stable       bool `json:"stable"`
	StableRounds int  `json:"stable_rounds"`

	Events              []Event `json:"events,omitempty"`
	Finished            bool    `json:"finished,omitempty"`
	FinishedByStability bool    `json:"finished_by_stability,omitempty"`
}

// Has reports whether ev was emitted in this round.
func (r RoundResult) Has(ev Event) bool {
	return slices.Contains(r.Events, ev)
}

// Summary reports a whole run.
type Summary struct {
	RunID               string                   `json:"run_id,omitempty"`
	Rounds              int                      `json:"rounds"`
	Finished            bool                     `json:"finished"`
	FinishedByStability bool                     `json:"finished_by_stability"`
	Interrupted         bool                     `json:"interrupted,omitempty"`
	Agents              stats.GlobalAgentStats   `json:"agents"`
	Network             stats.GlobalNetworkStats `json:"network"`
}
