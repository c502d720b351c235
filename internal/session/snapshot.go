package session

import (
	"fmt"

	"github.com/nvandessel/coevolve/internal/disease"
	"github.com/nvandessel/coevolve/internal/network"
	"github.com/nvandessel/coevolve/internal/utility"
)

// Snapshot is the serializable state of a network at the end of a run.
type Snapshot struct {
	RunID     string       `json:"run_id,omitempty"`
	NetworkID string       `json:"network_id"`
	Round     int          `json:"round"`
	Agents    []AgentState `json:"agents"`
}

// AgentState captures one agent. Duration is the number of rounds an
// infected agent has been ill.
type AgentState struct {
	ID       int              `json:"id"`
	Group    string           `json:"group"`
	Duration int              `json:"duration,omitempty"`
	Ties     []int            `json:"ties,omitempty"`
	Function utility.Function `json:"function"`
	Specs    disease.Specs    `json:"specs"`
	RSigma   float64          `json:"r_sigma"`
	RPi      float64          `json:"r_pi"`
}

// Capture records the current state of net.
func Capture(net *network.Network, runID string, round int) Snapshot {
	agents := net.Agents()
	snap := Snapshot{
		RunID:     runID,
		NetworkID: net.ID(),
		Round:     round,
		Agents:    make([]AgentState, 0, len(agents)),
	}
	for _, a := range agents {
		st := AgentState{
			ID:       a.ID(),
			Group:    net.Group(a.ID()).String(),
			Ties:     net.Ties(a.ID()),
			Function: a.UtilityFunction(),
			Specs:    a.Specs(),
			RSigma:   a.RSigma(),
			RPi:      a.RPi(),
		}
		if d := a.Disease(); d != nil {
			st.Duration = d.Duration()
		}
		snap.Agents = append(snap.Agents, st)
	}
	return snap
}

// Restore rebuilds a network from the snapshot. Agent ids must be
// contiguous from 1, which holds for every network built from a scenario.
func (s Snapshot) Restore() (*network.Network, error) {
	net := network.NewWithID(s.NetworkID)
	for i, st := range s.Agents {
		if st.ID != i+1 {
			return nil, fmt.Errorf("restore snapshot: agent ids not contiguous at %d", st.ID)
		}
		net.AddAgent(st.Function, st.Specs, st.RSigma, st.RPi)
	}

	for _, st := range s.Agents {
		for _, t := range st.Ties {
			if t <= st.ID {
				continue
			}
			if !net.AddConnection(st.ID, t) {
				return nil, fmt.Errorf("restore snapshot: invalid tie %d-%d", st.ID, t)
			}
		}

		switch st.Group {
		case disease.Susceptible.String():
		case disease.Infected.String():
			if st.Duration >= st.Specs.Tau {
				return nil, fmt.Errorf("restore snapshot: agent %d ill for %d of %d rounds", st.ID, st.Duration, st.Specs.Tau)
			}
			if err := net.Infect(st.ID, st.Specs); err != nil {
				return nil, fmt.Errorf("restore snapshot: %w", err)
			}
			for range st.Duration {
				net.EvolveDisease(st.ID)
			}
		case disease.Recovered.String():
			if err := net.Cure(st.ID); err != nil {
				return nil, fmt.Errorf("restore snapshot: %w", err)
			}
		default:
			return nil, fmt.Errorf("restore snapshot: agent %d has unknown group %q", st.ID, st.Group)
		}
	}
	return net, nil
}
