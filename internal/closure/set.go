package closure

import (
	"sort"

	"goatk/internal/graph"
)

// Set is an immutable, sorted set of nodes from one graph. Sets returned by
// the Engine are shared between callers and must not be modified.
type Set struct {
	g     *graph.Graph
	nodes []graph.NodeID
}

func newSet(g *graph.Graph, sorted []graph.NodeID) *Set {
	return &Set{g: g, nodes: sorted}
}

// NewSet builds a set from arbitrary nodes.
func NewSet(g *graph.Graph, nodes ...graph.NodeID) *Set {
	cp := append([]graph.NodeID(nil), nodes...)
	return newSet(g, graph.SortUnique(cp))
}

// Len returns the number of nodes.
func (s *Set) Len() int {
	return len(s.nodes)
}

// Contains reports whether n is in the set.
func (s *Set) Contains(n graph.NodeID) bool {
	i := sort.Search(len(s.nodes), func(i int) bool { return s.nodes[i] >= n })
	return i < len(s.nodes) && s.nodes[i] == n
}

// ContainsID reports whether the canonical form of id is in the set.
func (s *Set) ContainsID(id string) bool {
	n, err := s.g.Lookup(id)
	return err == nil && s.Contains(n)
}

// Nodes returns the sorted backing slice. Callers must not modify it.
func (s *Set) Nodes() []graph.NodeID {
	return s.nodes
}

// IDs returns the canonical ids in lexical order.
func (s *Set) IDs() []string {
	return s.g.IDs(s.nodes)
}

// With returns a new set that also contains n.
func (s *Set) With(n graph.NodeID) *Set {
	if s.Contains(n) {
		return s
	}
	i := sort.Search(len(s.nodes), func(i int) bool { return s.nodes[i] >= n })
	out := make([]graph.NodeID, 0, len(s.nodes)+1)
	out = append(out, s.nodes[:i]...)
	out = append(out, n)
	out = append(out, s.nodes[i:]...)
	return newSet(s.g, out)
}

// Union returns s ∪ o.
func (s *Set) Union(o *Set) *Set {
	return newSet(s.g, mergeSorted(s.nodes, o.nodes))
}

// Intersect returns s ∩ o.
func (s *Set) Intersect(o *Set) *Set {
	var out []graph.NodeID
	i, j := 0, 0
	for i < len(s.nodes) && j < len(o.nodes) {
		switch {
		case s.nodes[i] < o.nodes[j]:
			i++
		case s.nodes[i] > o.nodes[j]:
			j++
		default:
			out = append(out, s.nodes[i])
			i++
			j++
		}
	}
	return newSet(s.g, out)
}

// SubsetOf reports whether every node of s is in o.
func (s *Set) SubsetOf(o *Set) bool {
	if len(s.nodes) > len(o.nodes) {
		return false
	}
	j := 0
	for _, n := range s.nodes {
		for j < len(o.nodes) && o.nodes[j] < n {
			j++
		}
		if j == len(o.nodes) || o.nodes[j] != n {
			return false
		}
	}
	return true
}

// Equal reports whether both sets hold the same nodes.
func (s *Set) Equal(o *Set) bool {
	if len(s.nodes) != len(o.nodes) {
		return false
	}
	for i := range s.nodes {
		if s.nodes[i] != o.nodes[i] {
			return false
		}
	}
	return true
}

func mergeSorted(a, b []graph.NodeID) []graph.NodeID {
	out := make([]graph.NodeID, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] < b[j]:
			out = append(out, a[i])
			i++
		case a[i] > b[j]:
			out = append(out, b[j])
			j++
		default:
			out = append(out, a[i])
			i++
			j++
		}
	}
	out = append(out, a[i:]...)
	return append(out, b[j:]...)
}
