package network

import (
	"sort"

	"github.com/nvandessel/coevolve/internal/disease"
	"github.com/nvandessel/coevolve/internal/utility"
)

// Agent is one network participant. Agents are created and mutated only
// through their owning Network; neighbours are referenced by id.
//
// Accessors do not lock. Read agents through the Network while no mutation
// is in flight (the simulation engine guarantees this during evaluation).
type Agent struct {
	id        int
	group     disease.Group
	disease   *disease.Disease
	rSigma    float64
	rPi       float64
	utility   utility.Function
	specs     disease.Specs
	ties      map[int]struct{}
	satisfied bool
}

func newAgent(id int, fn utility.Function, specs disease.Specs, rSigma, rPi float64) *Agent {
	return &Agent{
		id:      id,
		group:   disease.Susceptible,
		rSigma:  rSigma,
		rPi:     rPi,
		utility: fn,
		specs:   specs,
		ties:    make(map[int]struct{}),
	}
}

// ID returns the agent's immutable identifier.
func (a *Agent) ID() int { return a.id }

// Group returns the agent's disease compartment.
func (a *Agent) Group() disease.Group { return a.group }

// Disease returns the running infection, or nil unless the agent is infected.
func (a *Agent) Disease() *disease.Disease { return a.disease }

// RSigma returns the risk perception exponent applied to disease severity.
func (a *Agent) RSigma() float64 { return a.rSigma }

// RPi returns the risk perception exponent applied to the probability of infection.
func (a *Agent) RPi() float64 { return a.rPi }

// UtilityFunction returns the agent's utility function.
func (a *Agent) UtilityFunction() utility.Function { return a.utility }

// Specs returns the disease the agent was configured with.
func (a *Agent) Specs() disease.Specs { return a.specs }

// Degree returns the number of direct ties.
func (a *Agent) Degree() int { return len(a.ties) }

// IsSatisfied reports whether the agent changed no tie in the last decision phase.
func (a *Agent) IsSatisfied() bool { return a.satisfied }

// IsInfectious reports whether the agent currently carries a transmissible infection.
func (a *Agent) IsInfectious() bool {
	return a.group == disease.Infected && a.disease != nil && a.disease.IsInfectious()
}

// Ties returns the ids of direct ties in ascending order.
func (a *Agent) Ties() []int {
	return sortedKeys(a.ties)
}

func (a *Agent) hasTie(id int) bool {
	_, ok := a.ties[id]
	return ok
}

func (a *Agent) makeSusceptible() {
	a.group = disease.Susceptible
	a.disease = nil
}

func (a *Agent) cure() {
	a.group = disease.Recovered
	a.disease = nil
}

func sortedKeys(m map[int]struct{}) []int {
	ids := make([]int, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
