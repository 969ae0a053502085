package closure

import (
	"goatk/internal/graph"
)

// MapSlim maps id onto a slim subset of the ontology. all holds the slim
// terms on any is_a path from id to a root, id itself included. direct
// drops every slim term that some other slim term in all lies below, which
// is the slim seen first walking each path bottom up and never passed
// over on another. Both lists are sorted; slim ids may be alternate ids.
func (e *Engine) MapSlim(id string, slims []string) (direct, all []string, err error) {
	start, err := e.g.Lookup(id)
	if err != nil {
		return nil, nil, err
	}
	nodes := make([]graph.NodeID, 0, len(slims))
	for _, s := range slims {
		n, err := e.g.Lookup(s)
		if err != nil {
			return nil, nil, err
		}
		nodes = append(nodes, n)
	}

	anc, err := e.AncestorsOf(start, 0)
	if err != nil {
		return nil, nil, err
	}
	hits := anc.With(start).Intersect(NewSet(e.g, nodes...))

	covered := NewSet(e.g)
	for _, n := range hits.Nodes() {
		above, err := e.AncestorsOf(n, 0)
		if err != nil {
			return nil, nil, err
		}
		covered = covered.Union(above)
	}

	direct = []string{}
	for _, n := range hits.Nodes() {
		if !covered.Contains(n) {
			direct = append(direct, e.g.ID(n))
		}
	}
	return direct, hits.IDs(), nil
}
