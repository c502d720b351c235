// Package stats provides pure statistics over a network view: degrees,
// centralities, per-agent disease exposure and population-wide aggregates.
// Nothing here mutates the network.
package stats

import (
	"fmt"

	"github.com/nvandessel/coevolve/internal/disease"
	"github.com/nvandessel/coevolve/internal/network"
	"github.com/nvandessel/coevolve/internal/utility"
)

// IndirectPolicy decides how often an indirect contact reachable through
// several direct ties is counted.
type IndirectPolicy int

const (
	// IndirectPerTraversal counts an indirect contact once for every direct tie
	// through which it is reached. This is the default.
	IndirectPerTraversal IndirectPolicy = iota

	// IndirectDistinct counts every indirect contact exactly once.
	IndirectDistinct
)

// String returns the configuration name of the policy.
func (p IndirectPolicy) String() string {
	if p == IndirectDistinct {
		return "distinct"
	}
	return "per-traversal"
}

// ParseIndirectPolicy maps a configuration name to a policy. The empty string
// selects the default.
func ParseIndirectPolicy(s string) (IndirectPolicy, error) {
	switch s {
	case "", "per-traversal":
		return IndirectPerTraversal, nil
	case "distinct":
		return IndirectDistinct, nil
	}
	return 0, fmt.Errorf("unknown indirect policy %q (valid: per-traversal, distinct)", s)
}

// LocalConnectionStats partitions the direct ties and indirect (distance-2)
// contacts of id by disease group. Indirect contacts exclude id itself and
// every agent that is already a direct tie.
func LocalConnectionStats(v network.View, id int, policy IndirectPolicy) utility.LocalStats {
	var s utility.LocalStats

	direct := v.Ties(id)
	isDirect := make(map[int]bool, len(direct))
	for _, d := range direct {
		isDirect[d] = true
		switch v.Group(d) {
		case disease.Susceptible:
			s.NS++
		case disease.Infected:
			s.NI++
		case disease.Recovered:
			s.NR++
		}
	}

	seen := make(map[int]bool)
	for _, d := range direct {
		for _, x := range v.Ties(d) {
			if x == id || isDirect[x] {
				continue
			}
			if policy == IndirectDistinct {
				if seen[x] {
					continue
				}
				seen[x] = true
			}
			switch v.Group(x) {
			case disease.Susceptible:
				s.MS++
			case disease.Infected:
				s.MI++
			case disease.Recovered:
				s.MR++
			}
		}
	}
	return s
}

// ProbabilityOfInfection returns 1 - (1-gamma)^nI.
func ProbabilityOfInfection(gamma float64, nI int) float64 {
	return disease.ProbabilityOfInfection(gamma, nI)
}

// AgentUtility evaluates the utility of agent a over v. Passing a hypothetical
// view (network.WithTie / network.WithoutTie) evaluates a tie change without
// applying it.
func AgentUtility(v network.View, a *network.Agent, policy IndirectPolicy) (utility.Utility, error) {
	u, err := a.UtilityFunction().Compute(utility.Input{
		Stats:  LocalConnectionStats(v, a.ID(), policy),
		Group:  a.Group(),
		Specs:  a.Specs(),
		RSigma: a.RSigma(),
		RPi:    a.RPi(),
	})
	if err != nil {
		return utility.Utility{}, fmt.Errorf("utility of agent %d: %w", a.ID(), err)
	}
	return u, nil
}
