package stats

import (
	"github.com/nvandessel/coevolve/internal/network"
	"github.com/nvandessel/coevolve/internal/pathfind"
)

// FirstOrderDegree returns the number of direct ties of id.
func FirstOrderDegree(v network.View, id int) int {
	return len(v.Ties(id))
}

// SecondOrderDegree returns the number of distinct agents at distance exactly 2.
func SecondOrderDegree(v network.View, id int) int {
	direct := v.Ties(id)
	isDirect := make(map[int]bool, len(direct))
	for _, d := range direct {
		isDirect[d] = true
	}

	second := make(map[int]bool)
	for _, d := range direct {
		for _, x := range v.Ties(d) {
			if x != id && !isDirect[x] {
				second[x] = true
			}
		}
	}
	return len(second)
}

// Closeness returns the closeness centrality of id following Buechel & Buskens
// (2013). Unreachable agents contribute a distance of n, the population size.
// Populations below two agents have closeness 0.
func Closeness(v network.View, id int) float64 {
	n := v.Size()
	if n < 2 {
		return 0
	}
	return closenessFrom(v, pathfind.Execute(v, id), n)
}

func closenessFrom(v network.View, res *pathfind.Result, n int) float64 {
	cumulated := 0
	for _, other := range v.IDs() {
		if other == res.Source {
			continue
		}
		if d, ok := res.Length(other); ok {
			cumulated += d
		} else {
			cumulated += n
		}
	}

	m := float64(n)
	return m/(m-1) - float64(cumulated)/((m-1)*float64(n-1))
}

// Clustering returns the local clustering coefficient of id: the share of
// pairs of direct ties that are tied to each other. Agents with fewer than two
// ties have clustering 0.
func Clustering(v network.View, id int) float64 {
	direct := v.Ties(id)
	k := len(direct)
	if k < 2 {
		return 0
	}

	isDirect := make(map[int]bool, k)
	for _, d := range direct {
		isDirect[d] = true
	}

	links := 0
	for _, d := range direct {
		for _, x := range v.Ties(d) {
			if x > d && isDirect[x] {
				links++
			}
		}
	}
	return float64(links) / float64(k*(k-1)/2)
}

// Density returns the share of possible ties that exist.
func Density(v network.View) float64 {
	n := v.Size()
	if n < 2 {
		return 0
	}
	sum := 0
	for _, id := range v.IDs() {
		sum += len(v.Ties(id))
	}
	return float64(sum) / float64(n*(n-1))
}

// PathSummary aggregates all-pairs shortest path lengths over reachable pairs.
type PathSummary struct {
	AveragePathLength float64
	Diameter          int
	ReachablePairs    int
}

// SummarizePaths runs one search per agent and aggregates reachable distances.
func SummarizePaths(v network.View) PathSummary {
	var s PathSummary
	total := 0
	for _, id := range v.IDs() {
		res := pathfind.Execute(v, id)
		for other, d := range res.Distance {
			if other == id {
				continue
			}
			total += d
			s.ReachablePairs++
			if d > s.Diameter {
				s.Diameter = d
			}
		}
	}
	if s.ReachablePairs > 0 {
		s.AveragePathLength = float64(total) / float64(s.ReachablePairs)
	}
	return s
}
