// Package graph holds the immutable Gene Ontology term graph: an arena of
// terms with is_a and typed relation adjacency, plus alias resolution.
//
// A Graph is built once by Build and is safe for concurrent read-only use.
package graph

import (
	"sort"

	"goatk/internal/errors"
)

// Graph is the shared, read-only ontology.
type Graph struct {
	terms []Term

	// index maps canonical and alternate ids to the canonical node.
	index map[string]NodeID

	relationsLoaded bool
	version         string
	numAliases      int
}

// Len returns the number of canonical terms.
func (g *Graph) Len() int {
	return len(g.terms)
}

// NumAliases returns the number of alternate ids.
func (g *Graph) NumAliases() int {
	return g.numAliases
}

// Version returns the data-version reported by the loader.
func (g *Graph) Version() string {
	return g.version
}

// RelationsLoaded reports whether relation adjacency is available.
func (g *Graph) RelationsLoaded() bool {
	return g.relationsLoaded
}

// Lookup resolves an id or alias to its node.
func (g *Graph) Lookup(id string) (NodeID, error) {
	n, ok := g.index[id]
	if !ok {
		return 0, errors.NewUnknownTerm(id)
	}
	return n, nil
}

// Contains reports whether id (canonical or alias) is known.
func (g *Graph) Contains(id string) bool {
	_, ok := g.index[id]
	return ok
}

// Resolve maps an id or alias to the canonical id.
func (g *Graph) Resolve(id string) (string, error) {
	n, err := g.Lookup(id)
	if err != nil {
		return "", err
	}
	return g.terms[n].ID, nil
}

// IsAlias reports whether id is an alternate id of some canonical term.
func (g *Graph) IsAlias(id string) bool {
	n, ok := g.index[id]
	return ok && g.terms[n].ID != id
}

// Term returns the term for an id or alias.
func (g *Graph) Term(id string) (*Term, error) {
	n, err := g.Lookup(id)
	if err != nil {
		return nil, err
	}
	return &g.terms[n], nil
}

// Node returns the term stored at n. n must come from this graph.
func (g *Graph) Node(n NodeID) *Term {
	return &g.terms[n]
}

// ID returns the canonical id of n.
func (g *Graph) ID(n NodeID) string {
	return g.terms[n].ID
}

// IDs maps nodes to canonical ids, preserving order.
func (g *Graph) IDs(nodes []NodeID) []string {
	ids := make([]string, len(nodes))
	for i, n := range nodes {
		ids[i] = g.terms[n].ID
	}
	return ids
}

// Terms returns every canonical term in id order.
func (g *Graph) Terms() []*Term {
	out := make([]*Term, len(g.terms))
	for i := range g.terms {
		out[i] = &g.terms[i]
	}
	return out
}

// CheckRelations validates a relation subset against this graph: unknown
// bits are InvalidRelationType, any relation on a graph built without
// relationships is IncompleteGraph.
func (g *Graph) CheckRelations(rels RelationSet) error {
	if !rels.Valid() {
		return errors.Newf(errors.InvalidRelationType, "relation set %08b contains unknown relation types", uint8(rels))
	}
	if !rels.IsEmpty() && !g.relationsLoaded {
		return errors.NewIncompleteGraph(rels.String())
	}
	return nil
}

// AppendParents appends the direct is_a parents of n and, for each relation
// in rels, its direct relation targets. The result may hold duplicates when
// two edge kinds reach the same parent. rels must have passed CheckRelations.
func (g *Graph) AppendParents(dst []NodeID, n NodeID, rels RelationSet) []NodeID {
	t := &g.terms[n]
	dst = append(dst, t.parents...)
	if rels.IsEmpty() || t.rels == nil {
		return dst
	}
	for _, r := range rels.Types() {
		dst = append(dst, t.rels.fwd[r]...)
	}
	return dst
}

// AppendChildren is the reverse of AppendParents.
func (g *Graph) AppendChildren(dst []NodeID, n NodeID, rels RelationSet) []NodeID {
	t := &g.terms[n]
	dst = append(dst, t.children...)
	if rels.IsEmpty() || t.rels == nil {
		return dst
	}
	for _, r := range rels.Types() {
		dst = append(dst, t.rels.rev[r]...)
	}
	return dst
}

// RelationParents returns n's direct targets for a single relation type.
func (g *Graph) RelationParents(n NodeID, r RelType) []NodeID {
	t := &g.terms[n]
	if t.rels == nil || r >= numRelTypes {
		return nil
	}
	return t.rels.fwd[r]
}

// RelationChildren returns the terms pointing at n through relation r.
func (g *Graph) RelationChildren(n NodeID, r RelType) []NodeID {
	t := &g.terms[n]
	if t.rels == nil || r >= numRelTypes {
		return nil
	}
	return t.rels.rev[r]
}

// IsAChildren returns the direct is_a children of n.
func (g *Graph) IsAChildren(n NodeID) []NodeID {
	return g.terms[n].children
}

// IsAParents returns the direct is_a parents of n.
func (g *Graph) IsAParents(n NodeID) []NodeID {
	return g.terms[n].parents
}

// Parents returns the sorted canonical ids of id's direct parents under
// is_a plus rels.
func (g *Graph) Parents(id string, rels RelationSet) ([]string, error) {
	return g.neighbours(id, rels, g.AppendParents)
}

// Children returns the sorted canonical ids of id's direct children under
// is_a plus rels.
func (g *Graph) Children(id string, rels RelationSet) ([]string, error) {
	return g.neighbours(id, rels, g.AppendChildren)
}

func (g *Graph) neighbours(id string, rels RelationSet, appendFn func([]NodeID, NodeID, RelationSet) []NodeID) ([]string, error) {
	if err := g.CheckRelations(rels); err != nil {
		return nil, err
	}
	n, err := g.Lookup(id)
	if err != nil {
		return nil, err
	}
	return g.IDs(SortUnique(appendFn(nil, n, rels))), nil
}

// Roots returns the non-obsolete terms without is_a parents, in id order.
func (g *Graph) Roots() []*Term {
	return g.TermsAtDepth(0)
}

// TermsAtDepth returns the non-obsolete terms whose depth equals d.
func (g *Graph) TermsAtDepth(d int) []*Term {
	var out []*Term
	for i := range g.terms {
		t := &g.terms[i]
		if !t.Obsolete && t.Depth == d {
			out = append(out, t)
		}
	}
	return out
}

// Namespaces returns the distinct namespaces present, sorted.
func (g *Graph) Namespaces() []Namespace {
	seen := make(map[Namespace]bool)
	var out []Namespace
	for i := range g.terms {
		ns := g.terms[i].Namespace
		if !seen[ns] {
			seen[ns] = true
			out = append(out, ns)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// SortUnique sorts nodes in place and removes duplicates.
func SortUnique(nodes []NodeID) []NodeID {
	if len(nodes) < 2 {
		return nodes
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i] < nodes[j] })
	out := nodes[:1]
	for _, n := range nodes[1:] {
		if n != out[len(out)-1] {
			out = append(out, n)
		}
	}
	return out
}
