package stats

import (
	"math"
	"testing"

	"github.com/nvandessel/coevolve/internal/disease"
	"github.com/nvandessel/coevolve/internal/network"
	"github.com/nvandessel/coevolve/internal/utility"
)

const eps = 1e-9

func testSpecs() disease.Specs {
	return disease.Specs{Type: "SIR", Tau: 5, Severity: 50, Gamma: 0.1, Mu: 1.5}
}

func buildNetwork(t *testing.T, n int, fn utility.Function, ties [][2]int) *network.Network {
	t.Helper()
	net := network.NewWithID("stats")
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

// TestCumulativeUtility_Fixture checks the reference utilities of agents 1-4.
// The core ties 1-2, 1-3, 1-4 and 3-4 are the reference ones. The periphery
// (5..11) is a reconstructed fixture, chosen so the utilities come out as
// 4.5, 3.5, 4.0 and 5.5; it is not the reference graph.
func TestCumulativeUtility_Fixture(t *testing.T) {
	net := buildNetwork(t, 11, utility.NewCumulative(1, 0.5), [][2]int{
		{1, 2}, {1, 3}, {1, 4}, {3, 4},
		{2, 5}, {5, 6}, {3, 7}, {4, 8}, {8, 9}, {8, 10}, {8, 11},
	})

	want := map[int]float64{1: 4.5, 2: 3.5, 3: 4.0, 4: 5.5}
	for id, w := range want {
		a, _ := net.Agent(id)
		u, err := AgentUtility(net, a, IndirectPerTraversal)
		if err != nil {
			t.Fatalf("AgentUtility(%d) error = %v", id, err)
		}
		if math.Abs(u.Overall()-w) > eps {
			t.Errorf("agent %d overall utility = %v, want %v", id, u.Overall(), w)
		}
	}
}

func TestCumulativeUtility_CoreTiesOnly(t *testing.T) {
	net := buildNetwork(t, 4, utility.NewCumulative(1, 0.5), [][2]int{
		{1, 2}, {1, 3}, {1, 4}, {3, 4},
	})

	// Agent 2 reaches 3 and 4 through agent 1; everyone else sees only direct ties.
	want := map[int]float64{1: 3, 2: 2, 3: 2.5, 4: 2.5}
	for id, w := range want {
		a, _ := net.Agent(id)
		u, err := AgentUtility(net, a, IndirectPerTraversal)
		if err != nil {
			t.Fatal(err)
		}
		if math.Abs(u.Overall()-w) > eps {
			t.Errorf("agent %d overall utility = %v, want %v", id, u.Overall(), w)
		}
	}
}

func TestLocalConnectionStats_Policies(t *testing.T) {
	// 1 is tied to 2 and 3; both are tied to 4, so 4 is reachable twice.
	net := buildNetwork(t, 5, utility.NewCumulative(1, 1), [][2]int{
		{1, 2}, {1, 3}, {2, 4}, {3, 4}, {3, 5},
	})
	if err := net.Infect(4, testSpecs()); err != nil {
		t.Fatal(err)
	}
	if err := net.ToggleInfection(3, testSpecs()); err != nil {
		t.Fatal(err)
	}
	if err := net.ToggleInfection(3, testSpecs()); err != nil {
		t.Fatal(err)
	}

	perTraversal := LocalConnectionStats(net, 1, IndirectPerTraversal)
	want := utility.LocalStats{NS: 1, NR: 1, MI: 2, MS: 1}
	if perTraversal != want {
		t.Errorf("per-traversal stats = %+v, want %+v", perTraversal, want)
	}

	distinct := LocalConnectionStats(net, 1, IndirectDistinct)
	want = utility.LocalStats{NS: 1, NR: 1, MI: 1, MS: 1}
	if distinct != want {
		t.Errorf("distinct stats = %+v, want %+v", distinct, want)
	}

	if got := SecondOrderDegree(net, 1); got != 2 {
		t.Errorf("SecondOrderDegree(1) = %d, want 2", got)
	}
}

func TestLocalConnectionStats_ExcludesDirectTies(t *testing.T) {
	net := buildNetwork(t, 3, utility.NewCumulative(1, 1), [][2]int{{1, 2}, {2, 3}, {1, 3}})

	s := LocalConnectionStats(net, 1, IndirectPerTraversal)
	if s.Indirect() != 0 {
		t.Errorf("triangle should have no indirect contacts, got %+v", s)
	}
	if s.Direct() != 2 {
		t.Errorf("Direct() = %d, want 2", s.Direct())
	}
}

func TestParseIndirectPolicy(t *testing.T) {
	if p, err := ParseIndirectPolicy(""); err != nil || p != IndirectPerTraversal {
		t.Errorf("empty policy = %v, %v", p, err)
	}
	if p, err := ParseIndirectPolicy("distinct"); err != nil || p != IndirectDistinct {
		t.Errorf("distinct policy = %v, %v", p, err)
	}
	if _, err := ParseIndirectPolicy("twice"); err == nil {
		t.Error("expected error for unknown policy")
	}
}

func TestCloseness(t *testing.T) {
	tests := []struct {
		name string
		n    int
		ties [][2]int
		id   int
		want float64
	}{
		{"full network", 4, [][2]int{{1, 2}, {1, 3}, {1, 4}, {2, 3}, {2, 4}, {3, 4}}, 1, 1},
		{"isolated agent", 4, [][2]int{{2, 3}}, 1, 0},
		// 1-2-3 path among 3 agents: distances 1 and 2 -> 3/2 - 3/4.
		{"path end", 3, [][2]int{{1, 2}, {2, 3}}, 1, 0.75},
		{"path centre", 3, [][2]int{{1, 2}, {2, 3}}, 2, 1},
		// 1-2 tied, 3 isolated: distances 1 and penalty 3 -> 3/2 - 4/4.
		{"partially connected", 3, [][2]int{{1, 2}}, 1, 0.5},
		{"single agent", 1, nil, 1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			net := buildNetwork(t, tt.n, utility.NewCumulative(1, 1), tt.ties)
			if got := Closeness(net, tt.id); math.Abs(got-tt.want) > eps {
				t.Errorf("Closeness(%d) = %v, want %v", tt.id, got, tt.want)
			}
		})
	}
}

func TestClustering(t *testing.T) {
	net := buildNetwork(t, 4, utility.NewCumulative(1, 1), [][2]int{{1, 2}, {1, 3}, {1, 4}, {2, 3}})

	if got := Clustering(net, 1); math.Abs(got-1.0/3.0) > eps {
		t.Errorf("Clustering(1) = %v, want 1/3", got)
	}
	if got := Clustering(net, 2); got != 1 {
		t.Errorf("Clustering(2) = %v, want 1", got)
	}
	if got := Clustering(net, 4); got != 0 {
		t.Errorf("Clustering(4) = %v, want 0", got)
	}
}

func TestSummarizePaths(t *testing.T) {
	net := buildNetwork(t, 4, utility.NewCumulative(1, 1), [][2]int{{1, 2}, {2, 3}})

	s := SummarizePaths(net)
	// Ordered reachable pairs: (1,2),(2,1),(2,3),(3,2) at 1 and (1,3),(3,1) at 2.
	if s.ReachablePairs != 6 {
		t.Errorf("ReachablePairs = %d, want 6", s.ReachablePairs)
	}
	if s.Diameter != 2 {
		t.Errorf("Diameter = %d, want 2", s.Diameter)
	}
	if math.Abs(s.AveragePathLength-8.0/6.0) > eps {
		t.Errorf("AveragePathLength = %v, want 4/3", s.AveragePathLength)
	}
}

func TestPageRank_HubScoresHighest(t *testing.T) {
	net := buildNetwork(t, 6, utility.NewCumulative(1, 1), nil)
	if err := net.CreateStar(1); err != nil {
		t.Fatal(err)
	}

	scores := PageRank(net, DefaultPageRankConfig())
	if len(scores) != 6 {
		t.Fatalf("expected 6 scores, got %d", len(scores))
	}
	if math.Abs(scores[1]-1.0) > 0.001 {
		t.Errorf("hub PageRank = %f, want 1.0", scores[1])
	}
	for id := 2; id <= 6; id++ {
		if scores[id] >= scores[1] {
			t.Errorf("leaf %d (%f) should rank below the hub", id, scores[id])
		}
		if math.Abs(scores[id]-scores[2]) > 0.001 {
			t.Errorf("leaves should rank equally: %f vs %f", scores[id], scores[2])
		}
	}
}

func TestPageRank_Empty(t *testing.T) {
	if scores := PageRank(network.NewWithID("empty"), DefaultPageRankConfig()); len(scores) != 0 {
		t.Errorf("expected no scores, got %d", len(scores))
	}
}

func TestComputeGlobalAgentStats(t *testing.T) {
	net := network.NewWithID("risk")
	fn := utility.NewIRTC(1, 1, 1)
	net.AddAgent(fn, testSpecs(), 0.5, 1)
	net.AddAgent(fn, testSpecs(), 1, 1.5)
	net.AddAgent(fn, testSpecs(), 1.5, 0.5)
	if err := net.Infect(2, testSpecs()); err != nil {
		t.Fatal(err)
	}

	s := ComputeGlobalAgentStats(net)
	if s.N != 3 || s.NS != 2 || s.NI != 1 || s.NR != 0 {
		t.Errorf("group counts = %+v", s)
	}
	if s.RSigmaAverse != 1 || s.RSigmaNeutral != 1 || s.RSigmaSeeking != 1 {
		t.Errorf("rSigma classes = %+v", s)
	}
	if s.RPiAverse != 1 || s.RPiNeutral != 1 || s.RPiSeeking != 1 {
		t.Errorf("rPi classes = %+v", s)
	}
	if math.Abs(s.AvRSigma-1) > eps || math.Abs(s.AvRPi-1) > eps {
		t.Errorf("averages = %v, %v; want 1, 1", s.AvRSigma, s.AvRPi)
	}
}

func TestComputeGlobalNetworkStats(t *testing.T) {
	net := buildNetwork(t, 6, utility.NewCumulative(1, 1), nil)
	net.CreateRing()

	s := ComputeGlobalNetworkStats(net)
	if s.Type != network.TypeRing {
		t.Errorf("Type = %v, want RING", s.Type)
	}
	if s.Connections != 6 {
		t.Errorf("Connections = %d, want 6", s.Connections)
	}
	if s.AvDegree != 2 || s.AvDegree2 != 2 {
		t.Errorf("degrees = %v, %v; want 2, 2", s.AvDegree, s.AvDegree2)
	}
	if s.Diameter != 3 {
		t.Errorf("Diameter = %d, want 3", s.Diameter)
	}
	if s.Stable {
		t.Error("fresh agents are not satisfied, network should not be stable")
	}
	if math.Abs(s.Density-0.4) > eps {
		t.Errorf("Density = %v, want 0.4", s.Density)
	}
	// Ring of six: distances 1,1,2,2,3 from every agent.
	wantCloseness := 6.0/5.0 - 9.0/25.0
	if math.Abs(s.AvCloseness-wantCloseness) > eps {
		t.Errorf("AvCloseness = %v, want %v", s.AvCloseness, wantCloseness)
	}
	if math.Abs(s.AvPathLength-1.8) > eps {
		t.Errorf("AvPathLength = %v, want 1.8", s.AvPathLength)
	}
}

func TestComputeAgentStats(t *testing.T) {
	net := buildNetwork(t, 3, utility.NewCumulative(2, 1), [][2]int{{1, 2}, {2, 3}})

	s, ok, err := ComputeAgentStats(net, 1, IndirectPerTraversal)
	if err != nil || !ok {
		t.Fatalf("ComputeAgentStats() = %v, %v", ok, err)
	}
	if s.Degree1 != 1 || s.Degree2 != 1 {
		t.Errorf("degrees = %d, %d; want 1, 1", s.Degree1, s.Degree2)
	}
	if s.Overall != 3 {
		t.Errorf("Overall = %v, want 3", s.Overall)
	}
	if _, ok, _ := ComputeAgentStats(net, 99, IndirectPerTraversal); ok {
		t.Error("unknown agent should report false")
	}
}
