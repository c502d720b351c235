package network

import (
	"sort"

	"github.com/nvandessel/coevolve/internal/disease"
)

// View is the read-only topology surface consumed by statistics and utility
// evaluation. *Network implements it; WithTie and WithoutTie wrap a View with
// a single hypothetical tie change so decisions can be evaluated without
// mutating the network.
type View interface {
	IDs() []int
	Ties(id int) []int
	Group(id int) disease.Group
	Size() int
}

// WithTie returns a view of v in which a and b are tied.
func WithTie(v View, a, b int) View {
	return &overlay{View: v, a: a, b: b, add: true}
}

// WithoutTie returns a view of v in which a and b are not tied.
func WithoutTie(v View, a, b int) View {
	return &overlay{View: v, a: a, b: b, add: false}
}

type overlay struct {
	View
	a, b int
	add  bool
}

func (o *overlay) Ties(id int) []int {
	ties := o.View.Ties(id)

	var other int
	switch id {
	case o.a:
		other = o.b
	case o.b:
		other = o.a
	default:
		return ties
	}
	if o.a == o.b {
		return ties
	}

	i := sort.SearchInts(ties, other)
	present := i < len(ties) && ties[i] == other

	switch {
	case o.add && !present:
		out := make([]int, 0, len(ties)+1)
		out = append(out, ties[:i]...)
		out = append(out, other)
		return append(out, ties[i:]...)
	case !o.add && present:
		out := make([]int, 0, len(ties)-1)
		out = append(out, ties[:i]...)
		return append(out, ties[i+1:]...)
	}
	return ties
}
