package network

// Type classifies the current topology.
type Type string

const (
	TypeEmpty     Type = "EMPTY"
	TypeFull      Type = "FULL"
	TypeRing      Type = "RING"
	TypeStar      Type = "STAR"
	TypeUndefined Type = "UNDEFINED"
)

// Type classifies the topology by its degree sequence:
//   - EMPTY: every agent has degree 0 (including the empty network)
//   - FULL: every agent has degree n-1
//   - RING: every agent has degree 2 and all agents lie on one cycle
//   - STAR: exactly one agent has degree n-1 and all others degree 1
//   - UNDEFINED: anything else
func (n *Network) Type() Type {
	n.mu.RLock()
	defer n.mu.RUnlock()

	size := len(n.agents)
	if n.degreeSumLocked() == 0 {
		return TypeEmpty
	}

	full, twos, ones := 0, 0, 0
	for _, a := range n.agents {
		d := len(a.ties)
		if d == size-1 {
			full++
		}
		if d == 2 {
			twos++
		}
		if d == 1 {
			ones++
		}
	}

	switch {
	case full == size:
		return TypeFull
	case twos == size && n.connectedLocked():
		return TypeRing
	case full == 1 && ones == size-1:
		return TypeStar
	default:
		return TypeUndefined
	}
}

// connectedLocked reports whether every agent is reachable from the lowest id.
func (n *Network) connectedLocked() bool {
	ids := n.idsLocked()
	if len(ids) == 0 {
		return true
	}

	seen := map[int]bool{ids[0]: true}
	queue := []int{ids[0]}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for next := range n.agents[cur].ties {
			if !seen[next] {
				seen[next] = true
				queue = append(queue, next)
			}
		}
	}
	return len(seen) == len(ids)
}
