package semsim

import (
	"goatk/internal/closure"
	"goatk/internal/graph"
	"goatk/internal/termscore"
)

// CommonAncestors returns the terms that are ids or ancestors of every id
// under rels.
func CommonAncestors(engine *closure.Engine, rels graph.RelationSet, ids ...string) (*closure.Set, error) {
	g := engine.Graph()
	var common *closure.Set
	for _, id := range ids {
		n, err := g.Lookup(id)
		if err != nil {
			return nil, err
		}
		anc, err := engine.AncestorsOf(n, rels)
		if err != nil {
			return nil, err
		}
		anc = anc.With(n)
		if common == nil {
			common = anc
		} else {
			common = common.Intersect(anc)
		}
	}
	if common == nil {
		common = closure.NewSet(g)
	}
	return common, nil
}

// DeepestCommonAncestor returns the common ancestor with the greatest depth,
// the lowest id on a tie. It returns "" when the ids share no ancestor.
func DeepestCommonAncestor(engine *closure.Engine, rels graph.RelationSet, ids ...string) (string, error) {
	common, err := CommonAncestors(engine, rels, ids...)
	if err != nil {
		return "", err
	}
	g := engine.Graph()
	best, found := graph.NodeID(0), false
	for _, n := range common.Nodes() {
		if !found || g.Node(n).Depth > g.Node(best).Depth {
			best, found = n, true
		}
	}
	if !found {
		return "", nil
	}
	return g.ID(best), nil
}

// Resnik returns the information content of the deepest is_a common
// ancestor of a and b. Terms in different namespaces score 0.
func Resnik(scorer *termscore.Scorer, a, b string) (float64, error) {
	dca, err := DeepestCommonAncestor(scorer.Engine(), 0, a, b)
	if err != nil || dca == "" {
		return 0, err
	}
	return scorer.InformationContent(dca)
}

// Lin returns 2*Resnik(a, b) / (IC(a) + IC(b)), or 0 when both terms carry
// no information.
func Lin(scorer *termscore.Scorer, a, b string) (float64, error) {
	r, err := Resnik(scorer, a, b)
	if err != nil {
		return 0, err
	}
	ica, err := scorer.InformationContent(a)
	if err != nil {
		return 0, err
	}
	icb, err := scorer.InformationContent(b)
	if err != nil {
		return 0, err
	}
	if ica+icb == 0 {
		return 0, nil
	}
	return 2 * r / (ica + icb), nil
}
