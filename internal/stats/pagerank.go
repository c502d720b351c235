package stats

import (
	"math"

	"github.com/nvandessel/coevolve/internal/network"
)

// PageRankConfig holds configuration for PageRank computation.
type PageRankConfig struct {
	// DampingFactor (d) is the probability of following a tie vs. teleporting.
	// Standard value: 0.85.
	DampingFactor float64

	// MaxIterations is the maximum number of power iteration steps. Default: 100.
	MaxIterations int

	// Tolerance is the convergence threshold. Default: 1e-6.
	Tolerance float64
}

// DefaultPageRankConfig returns the default PageRank configuration.
func DefaultPageRankConfig() PageRankConfig {
	return PageRankConfig{
		DampingFactor: 0.85,
		MaxIterations: 100,
		Tolerance:     1e-6,
	}
}

// PageRank calculates PageRank scores for every agent, normalized so the
// highest score is 1.
//
// Algorithm: standard power iteration over the symmetric tie relation
//  1. Initialize all agents with score = 1/N
//  2. For each iteration:
//     PR(v) = (1-d)/N + d * sum(PR(u)/degree(u)) for all u tied to v
//  3. Converge when max change < Tolerance
//  4. Normalize to [0, 1] range
func PageRank(v network.View, config PageRankConfig) map[int]float64 {
	ids := v.IDs()
	n := len(ids)
	scores := make(map[int]float64, n)
	if n == 0 {
		return scores
	}

	ties := make(map[int][]int, n)
	for _, id := range ids {
		ties[id] = v.Ties(id)
	}

	d := config.DampingFactor
	nf := float64(n)
	for _, id := range ids {
		scores[id] = 1.0 / nf
	}

	for iter := 0; iter < config.MaxIterations; iter++ {
		next := make(map[int]float64, n)
		maxDelta := 0.0

		for _, id := range ids {
			sum := 0.0
			for _, u := range ties[id] {
				if deg := len(ties[u]); deg > 0 {
					sum += scores[u] / float64(deg)
				}
			}

			score := (1.0-d)/nf + d*sum
			next[id] = score
			if delta := math.Abs(score - scores[id]); delta > maxDelta {
				maxDelta = delta
			}
		}

		scores = next
		if maxDelta < config.Tolerance {
			break
		}
	}

	maxScore := 0.0
	for _, score := range scores {
		if score > maxScore {
			maxScore = score
		}
	}
	if maxScore > 0 {
		for id, score := range scores {
			scores[id] = score / maxScore
		}
	}
	return scores
}
