package stats

import (
	"github.com/nvandessel/coevolve/internal/disease"
	"github.com/nvandessel/coevolve/internal/network"
	"github.com/nvandessel/coevolve/internal/pathfind"
	"github.com/nvandessel/coevolve/internal/utility"
)

// RiskClass buckets a risk exponent: below 1 is averse, 1 neutral, above 1 seeking.
type RiskClass string

const (
	RiskAverse  RiskClass = "averse"
	RiskNeutral RiskClass = "neutral"
	RiskSeeking RiskClass = "seeking"
)

// ClassifyRisk returns the risk class of an exponent.
func ClassifyRisk(r float64) RiskClass {
	switch {
	case r < 1:
		return RiskAverse
	case r > 1:
		return RiskSeeking
	default:
		return RiskNeutral
	}
}

// AgentStats bundles the per-agent statistics shown by exporters and tools.
type AgentStats struct {
	ID         int                `json:"id"`
	Group      string             `json:"group"`
	Degree1    int                `json:"degree1"`
	Degree2    int                `json:"degree2"`
	Closeness  float64            `json:"closeness"`
	Clustering float64            `json:"clustering"`
	Satisfied  bool               `json:"satisfied"`
	Local      utility.LocalStats `json:"local"`
	Utility    utility.Utility    `json:"utility"`
	Overall    float64            `json:"overall_utility"`
}

// ComputeAgentStats evaluates all per-agent statistics of id.
func ComputeAgentStats(net *network.Network, id int, policy IndirectPolicy) (AgentStats, bool, error) {
	a, ok := net.Agent(id)
	if !ok {
		return AgentStats{}, false, nil
	}

	u, err := AgentUtility(net, a, policy)
	if err != nil {
		return AgentStats{}, true, err
	}

	return AgentStats{
		ID:         id,
		Group:      a.Group().String(),
		Degree1:    FirstOrderDegree(net, id),
		Degree2:    SecondOrderDegree(net, id),
		Closeness:  Closeness(net, id),
		Clustering: Clustering(net, id),
		Satisfied:  a.IsSatisfied(),
		Local:      LocalConnectionStats(net, id, policy),
		Utility:    u,
		Overall:    u.Overall(),
	}, true, nil
}

// GlobalAgentStats aggregates the population by disease group and risk class.
type GlobalAgentStats struct {
	N  int `json:"n"`
	NS int `json:"n_susceptible"`
	NI int `json:"n_infected"`
	NR int `json:"n_recovered"`

	RSigmaAverse  int `json:"r_sigma_averse"`
	RSigmaNeutral int `json:"r_sigma_neutral"`
	RSigmaSeeking int `json:"r_sigma_seeking"`
	RPiAverse     int `json:"r_pi_averse"`
	RPiNeutral    int `json:"r_pi_neutral"`
	RPiSeeking    int `json:"r_pi_seeking"`

	AvRSigma float64 `json:"av_r_sigma"`
	AvRPi    float64 `json:"av_r_pi"`
}

// ComputeGlobalAgentStats counts agents per group and risk class.
func ComputeGlobalAgentStats(net *network.Network) GlobalAgentStats {
	var s GlobalAgentStats
	sumSigma, sumPi := 0.0, 0.0

	for _, a := range net.Agents() {
		s.N++
		switch a.Group() {
		case disease.Susceptible:
			s.NS++
		case disease.Infected:
			s.NI++
		case disease.Recovered:
			s.NR++
		}

		switch ClassifyRisk(a.RSigma()) {
		case RiskAverse:
			s.RSigmaAverse++
		case RiskNeutral:
			s.RSigmaNeutral++
		case RiskSeeking:
			s.RSigmaSeeking++
		}
		switch ClassifyRisk(a.RPi()) {
		case RiskAverse:
			s.RPiAverse++
		case RiskNeutral:
			s.RPiNeutral++
		case RiskSeeking:
			s.RPiSeeking++
		}

		sumSigma += a.RSigma()
		sumPi += a.RPi()
	}

	if s.N > 0 {
		s.AvRSigma = sumSigma / float64(s.N)
		s.AvRPi = sumPi / float64(s.N)
	}
	return s
}

// GlobalNetworkStats summarizes the topology.
type GlobalNetworkStats struct {
	Stable       bool         `json:"stable"`
	Connections  int          `json:"connections"`
	AvDegree     float64      `json:"av_degree"`
	AvDegree2    float64      `json:"av_degree2"`
	AvCloseness  float64      `json:"av_closeness"`
	AvClustering float64      `json:"av_clustering"`
	AvPathLength float64      `json:"av_path_length"`
	Diameter     int          `json:"diameter"`
	Density      float64      `json:"density"`
	Type         network.Type `json:"type"`
}

// ComputeGlobalNetworkStats summarizes net. Stable is true iff every agent
// made no tie change in the last decision phase.
func ComputeGlobalNetworkStats(net *network.Network) GlobalNetworkStats {
	s := GlobalNetworkStats{
		Stable:      net.AllSatisfied(),
		Connections: net.EdgeCount(),
		AvDegree:    net.AverageDegree(),
		Density:     Density(net),
		Type:        net.Type(),
	}

	ids := net.IDs()
	n := len(ids)
	if n == 0 {
		return s
	}

	degree2, closeness, clustering := 0, 0.0, 0.0
	pathTotal, pairs := 0, 0
	for _, id := range ids {
		degree2 += SecondOrderDegree(net, id)
		clustering += Clustering(net, id)

		res := pathfind.Execute(net, id)
		if n > 1 {
			closeness += closenessFrom(net, res, n)
		}
		for other, d := range res.Distance {
			if other == id {
				continue
			}
			pathTotal += d
			pairs++
			if d > s.Diameter {
				s.Diameter = d
			}
		}
	}

	nf := float64(n)
	s.AvDegree2 = float64(degree2) / nf
	s.AvCloseness = closeness / nf
	s.AvClustering = clustering / nf
	if pairs > 0 {
		s.AvPathLength = float64(pathTotal) / float64(pairs)
	}
	return s
}
