// Package network owns the agent population and the symmetric tie relation
// between agents.
//
// The Network is the sole owner of its agents. Agents refer to each other by
// integer id only, and every tie mutation updates both endpoints under the
// network's write lock, so b is tied to a exactly when a is tied to b.
package network

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/nvandessel/coevolve/internal/disease"
	"github.com/nvandessel/coevolve/internal/utility"
)

// ErrAgentNotFound is returned for operations on an id the network does not hold.
var ErrAgentNotFound = errors.New("agent not found")

// Network is the agent arena plus the tie relation.
type Network struct {
	mu     sync.RWMutex
	id     string
	agents map[int]*Agent
	nextID int
}

// New creates an empty network with a random identifier.
func New() *Network {
	return NewWithID(uuid.NewString())
}

// NewWithID creates an empty network with the given identifier.
func NewWithID(id string) *Network {
	return &Network{
		id:     id,
		agents: make(map[int]*Agent),
		nextID: 1,
	}
}

// ID returns the network identifier.
func (n *Network) ID() string {
	return n.id
}

// AddAgent inserts a susceptible agent without ties and returns it.
// Ids are assigned monotonically starting at 1 and are never reused.
func (n *Network) AddAgent(fn utility.Function, specs disease.Specs, rSigma, rPi float64) *Agent {
	n.mu.Lock()
	defer n.mu.Unlock()

	a := newAgent(n.nextID, fn, specs, rSigma, rPi)
	n.agents[a.id] = a
	n.nextID++
	return a
}

// RemoveAgent removes the most recently added agent after severing all of its
// ties. It returns the removed id, or false when the network is empty.
func (n *Network) RemoveAgent() (int, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if len(n.agents) == 0 {
		return 0, false
	}

	last := 0
	for id := range n.agents {
		if id > last {
			last = id
		}
	}

	a := n.agents[last]
	for other := range a.ties {
		delete(n.agents[other].ties, last)
	}
	delete(n.agents, last)
	return last, true
}

// Agent returns the agent with the given id.
func (n *Network) Agent(id int) (*Agent, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	a, ok := n.agents[id]
	return a, ok
}

// Agents returns all agents sorted by id.
func (n *Network) Agents() []*Agent {
	n.mu.RLock()
	defer n.mu.RUnlock()

	out := make([]*Agent, 0, len(n.agents))
	for _, a := range n.agents {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}

// IDs returns all agent ids in ascending order.
func (n *Network) IDs() []int {
	n.mu.RLock()
	defer n.mu.RUnlock()

	ids := make([]int, 0, len(n.agents))
	for id := range n.agents {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Size returns the number of agents.
func (n *Network) Size() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.agents)
}

// Ties returns the direct ties of id in ascending order, or nil for unknown ids.
func (n *Network) Ties(id int) []int {
	n.mu.RLock()
	defer n.mu.RUnlock()

	a, ok := n.agents[id]
	if !ok {
		return nil
	}
	return a.Ties()
}

// Group returns the disease compartment of id. Unknown ids report Susceptible.
func (n *Network) Group(id int) disease.Group {
	n.mu.RLock()
	defer n.mu.RUnlock()

	if a, ok := n.agents[id]; ok {
		return a.group
	}
	return disease.Susceptible
}

// Infectious reports whether id currently carries a transmissible infection.
func (n *Network) Infectious(id int) bool {
	n.mu.RLock()
	defer n.mu.RUnlock()

	a, ok := n.agents[id]
	return ok && a.IsInfectious()
}

// HasConnection reports whether a and b are tied.
func (n *Network) HasConnection(a, b int) bool {
	n.mu.RLock()
	defer n.mu.RUnlock()

	x, ok := n.agents[a]
	return ok && x.hasTie(b)
}

// AddConnection ties a and b. Existing ties, self-ties and unknown ids are
// no-ops. It reports whether the tie set changed.
func (n *Network) AddConnection(a, b int) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.addConnectionLocked(a, b)
}

func (n *Network) addConnectionLocked(a, b int) bool {
	if a == b {
		return false
	}
	x, okA := n.agents[a]
	y, okB := n.agents[b]
	if !okA || !okB || x.hasTie(b) {
		return false
	}
	x.ties[b] = struct{}{}
	y.ties[a] = struct{}{}
	return true
}

// RemoveConnection severs the tie between a and b. Removing a tie that does not
// exist is a no-op. It reports whether the tie set changed.
func (n *Network) RemoveConnection(a, b int) bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	x, okA := n.agents[a]
	y, okB := n.agents[b]
	if !okA || !okB || !x.hasTie(b) {
		return false
	}
	delete(x.ties, b)
	delete(y.ties, a)
	return true
}

// ClearConnections removes every tie but keeps disease states.
func (n *Network) ClearConnections() {
	n.mu.Lock()
	defer n.mu.Unlock()

	for _, a := range n.agents {
		clear(a.ties)
	}
}

// ResetAgents removes every tie and makes every agent susceptible.
func (n *Network) ResetAgents() {
	n.mu.Lock()
	defer n.mu.Unlock()

	for _, a := range n.agents {
		clear(a.ties)
		a.makeSusceptible()
		a.satisfied = false
	}
}

// CreateFullNetwork ties every pair of agents.
func (n *Network) CreateFullNetwork() {
	n.mu.Lock()
	defer n.mu.Unlock()

	ids := n.idsLocked()
	for i, a := range ids {
		for _, b := range ids[i+1:] {
			n.addConnectionLocked(a, b)
		}
	}
}

// CreateRing replaces all ties with a single cycle through the agents in id order.
func (n *Network) CreateRing() {
	n.mu.Lock()
	defer n.mu.Unlock()

	for _, a := range n.agents {
		clear(a.ties)
	}
	ids := n.idsLocked()
	if len(ids) < 3 {
		return
	}
	for i, a := range ids {
		n.addConnectionLocked(a, ids[(i+1)%len(ids)])
	}
}

// CreateStar replaces all ties with a star centred on hub.
func (n *Network) CreateStar(hub int) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if _, ok := n.agents[hub]; !ok {
		return fmt.Errorf("star hub %d: %w", hub, ErrAgentNotFound)
	}
	for _, a := range n.agents {
		clear(a.ties)
	}
	for _, id := range n.idsLocked() {
		n.addConnectionLocked(hub, id)
	}
	return nil
}

// Infect force-infects id with a fresh disease. The specs must match the
// disease the agent was configured with; a mismatch is a configuration error.
func (n *Network) Infect(id int, specs disease.Specs) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.infectLocked(id, specs)
}

func (n *Network) infectLocked(id int, specs disease.Specs) error {
	a, ok := n.agents[id]
	if !ok {
		return fmt.Errorf("infect agent %d: %w", id, ErrAgentNotFound)
	}
	if specs.Tau != a.specs.Tau {
		return fmt.Errorf("infect agent %d: tau %d does not match configured tau %d: %w",
			id, specs.Tau, a.specs.Tau, disease.ErrSpecsMismatch)
	}
	a.group = disease.Infected
	a.disease = disease.New(specs)
	return nil
}

// Cure moves id to the recovered compartment and discards its disease.
func (n *Network) Cure(id int) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	a, ok := n.agents[id]
	if !ok {
		return fmt.Errorf("cure agent %d: %w", id, ErrAgentNotFound)
	}
	a.cure()
	return nil
}

// InfectRandomAgent infects one agent drawn uniformly from all agents that are
// not currently infected. It returns false when every agent is infected.
func (n *Network) InfectRandomAgent(r *rand.Rand, specs disease.Specs) (int, bool, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	candidates := make([]int, 0, len(n.agents))
	for _, id := range n.idsLocked() {
		if n.agents[id].group != disease.Infected {
			candidates = append(candidates, id)
		}
	}
	if len(candidates) == 0 {
		return 0, false, nil
	}

	id := candidates[r.IntN(len(candidates))]
	if err := n.infectLocked(id, specs); err != nil {
		return 0, false, err
	}
	return id, true, nil
}

// ToggleInfection cycles id through Susceptible -> Infected -> Recovered -> Susceptible.
func (n *Network) ToggleInfection(id int, specs disease.Specs) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	a, ok := n.agents[id]
	if !ok {
		return fmt.Errorf("toggle infection of agent %d: %w", id, ErrAgentNotFound)
	}

	switch a.group {
	case disease.Susceptible:
		return n.infectLocked(id, specs)
	case disease.Infected:
		a.cure()
	case disease.Recovered:
		a.makeSusceptible()
	default:
		return fmt.Errorf("toggle infection of agent %d: unrecognized group %v", id, a.group)
	}
	return nil
}

// EvolveDisease advances the infection of id by one round and moves the agent
// to the recovered compartment once the disease is defeated. It reports
// whether the agent recovered. Agents that are not infected are left alone.
func (n *Network) EvolveDisease(id int) bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	a, ok := n.agents[id]
	if !ok || a.group != disease.Infected || a.disease == nil {
		return false
	}
	a.disease.Evolve()
	if a.disease.IsCured() {
		a.cure()
		return true
	}
	return false
}

// SetSatisfied records whether id changed no tie in the current decision phase.
func (n *Network) SetSatisfied(id int, satisfied bool) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if a, ok := n.agents[id]; ok {
		a.satisfied = satisfied
	}
}

// AllSatisfied reports whether every agent is satisfied. An empty network is satisfied.
func (n *Network) AllSatisfied() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()

	for _, a := range n.agents {
		if !a.satisfied {
			return false
		}
	}
	return true
}

// CountGroup returns the number of agents in the given compartment.
func (n *Network) CountGroup(g disease.Group) int {
	n.mu.RLock()
	defer n.mu.RUnlock()

	count := 0
	for _, a := range n.agents {
		if a.group == g {
			count++
		}
	}
	return count
}

// HasActiveInfection reports whether at least one agent is infected.
func (n *Network) HasActiveInfection() bool {
	return n.CountGroup(disease.Infected) > 0
}

// EdgeCount returns the number of undirected ties.
func (n *Network) EdgeCount() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.degreeSumLocked() / 2
}

// AverageDegree returns the mean number of ties per agent, 0 for an empty network.
func (n *Network) AverageDegree() float64 {
	n.mu.RLock()
	defer n.mu.RUnlock()

	if len(n.agents) == 0 {
		return 0
	}
	return float64(n.degreeSumLocked()) / float64(len(n.agents))
}

func (n *Network) degreeSumLocked() int {
	sum := 0
	for _, a := range n.agents {
		sum += len(a.ties)
	}
	return sum
}

func (n *Network) idsLocked() []int {
	ids := make([]int, 0, len(n.agents))
	for id := range n.agents {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
