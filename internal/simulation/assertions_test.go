package simulation

import (
	"testing"

	"github.com/nvandessel/coevolve/internal/disease"
	"github.com/nvandessel/coevolve/internal/network"
	"github.com/nvandessel/coevolve/internal/utility"
)

func testSpecs() disease.Specs {
	return disease.Specs{Type: "SIR", Tau: 5, Severity: 50, Gamma: 0.1, Mu: 1.5}
}

func testParams() Params {
	return Params{MaxRounds: 50, SafetyMargin: 2, Seed: 7, Specs: testSpecs()}
}

// buildNetwork creates n agents sharing fn and testSpecs, then adds ties.
func buildNetwork(t *testing.T, n int, fn utility.Function, ties ...[2]int) *network.Network {
	t.Helper()
	net := network.NewWithID("sim-test")
	for i := 0; i < n; i++ {
		net.AddAgent(fn, testSpecs(), 1, 1)
	}
	for _, tie := range ties {
		if !net.AddConnection(tie[0], tie[1]) {
			t.Fatalf("failed to add tie %v", tie)
		}
	}
	return net
}

func newEngine(t *testing.T, net *network.Network, p Params, opts ...Option) *Engine {
	t.Helper()
	e, err := New(net, p, opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return e
}

// AssertSymmetric fails if any tie is one-sided or a self-tie.
func AssertSymmetric(t *testing.T, net *network.Network) {
	t.Helper()
	for _, a := range net.IDs() {
		for _, b := range net.Ties(a) {
			if a == b {
				t.Fatalf("AssertSymmetric: agent %d is tied to itself", a)
			}
			if !net.HasConnection(b, a) {
				t.Fatalf("AssertSymmetric: tie %d-%d is not mirrored", a, b)
			}
		}
	}
}

// AssertGroupsConsistent fails if the group counts of a round do not add up
// to the population or disagree with the network.
func AssertGroupsConsistent(t *testing.T, net *network.Network, res RoundResult) {
	t.Helper()
	if got := res.Susceptible + res.Infected + res.Recovered; got != net.Size() {
		t.Errorf("AssertGroupsConsistent: round %d: S+I+R = %d, population %d", res.Round, got, net.Size())
	}
	if got := net.CountGroup(disease.Infected); got != res.Infected {
		t.Errorf("AssertGroupsConsistent: round %d: network has %d infected, result %d", res.Round, got, res.Infected)
	}
}

// snapshot captures every agent's ties and group for run comparisons.
type snapshot struct {
	ties   map[int][]int
	groups map[int]disease.Group
}

func takeSnapshot(net *network.Network) snapshot {
	s := snapshot{ties: map[int][]int{}, groups: map[int]disease.Group{}}
	for _, id := range net.IDs() {
		s.ties[id] = net.Ties(id)
		s.groups[id] = net.Group(id)
	}
	return s
}
