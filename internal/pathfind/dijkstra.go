// Package pathfind computes single-source shortest paths over the tie relation.
//
// Ties are unweighted, so Dijkstra's algorithm reduces to a breadth-first
// search: nodes are settled in order of non-decreasing distance and each node
// is settled exactly once.
package pathfind

import "github.com/nvandessel/coevolve/internal/network"

// Result holds the distances and predecessors of one execution. It covers the
// connected component of the source only.
type Result struct {
	Source      int
	Distance    map[int]int
	Predecessor map[int]int
}

// Execute runs the search from source over v.
func Execute(v network.View, source int) *Result {
	res := &Result{
		Source:      source,
		Distance:    map[int]int{source: 0},
		Predecessor: make(map[int]int),
	}

	queue := []int{source}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		next := res.Distance[cur] + 1

		// Ties are sorted, so predecessors are deterministic.
		for _, nb := range v.Ties(cur) {
			if _, settled := res.Distance[nb]; settled {
				continue
			}
			res.Distance[nb] = next
			res.Predecessor[nb] = cur
			queue = append(queue, nb)
		}
	}
	return res
}

// Length returns the number of ties on the shortest path to target. The
// boolean is false when target is unreachable; that is a normal result.
func (r *Result) Length(target int) (int, bool) {
	d, ok := r.Distance[target]
	return d, ok
}

// Path returns the agents on a shortest path from the source to target,
// both inclusive, or nil when target is unreachable.
func (r *Result) Path(target int) []int {
	if _, ok := r.Distance[target]; !ok {
		return nil
	}

	path := []int{target}
	for cur := target; cur != r.Source; {
		cur = r.Predecessor[cur]
		path = append(path, cur)
	}

	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// Reachable returns the number of agents in the source's component, source included.
func (r *Result) Reachable() int {
	return len(r.Distance)
}

// ShortestPathLength is a convenience wrapper for a single source/target pair.
func ShortestPathLength(v network.View, source, target int) (int, bool) {
	return Execute(v, source).Length(target)
}
