package semsim

import (
	"goatk/internal/closure"
)

// NoBranchDistance leaves terms in different namespaces without a
// distance.
const NoBranchDistance = -1

// MinBranchLength returns the number of is_a branches joining a and b
// through their deepest common ancestor, measured with term depths. Terms
// in different namespaces, or without a common ancestor, are
// depth(a)+depth(b)+branchDist apart; with a negative branchDist they have
// no distance and ok is false.
func MinBranchLength(engine *closure.Engine, a, b string, branchDist int) (dist int, ok bool, err error) {
	g := engine.Graph()
	ta, err := g.Term(a)
	if err != nil {
		return 0, false, err
	}
	tb, err := g.Term(b)
	if err != nil {
		return 0, false, err
	}

	if ta.Namespace == tb.Namespace {
		dca, err := DeepestCommonAncestor(engine, 0, ta.ID, tb.ID)
		if err != nil {
			return 0, false, err
		}
		if dca != "" {
			td, err := g.Term(dca)
			if err != nil {
				return 0, false, err
			}
			return (ta.Depth - td.Depth) + (tb.Depth - td.Depth), true, nil
		}
	}
	if branchDist < 0 {
		return 0, false, nil
	}
	return ta.Depth + tb.Depth + branchDist, true, nil
}

// SemanticDistance is the minimum number of branches connecting a and b.
func SemanticDistance(engine *closure.Engine, a, b string, branchDist int) (int, bool, error) {
	return MinBranchLength(engine, a, b, branchDist)
}

// SemanticSimilarity returns 1/SemanticDistance(a, b). A term is fully
// similar to itself and its alternate ids; pairs without a distance score 0.
func SemanticSimilarity(engine *closure.Engine, a, b string, branchDist int) (float64, error) {
	dist, ok, err := SemanticDistance(engine, a, b, branchDist)
	if err != nil || !ok {
		return 0, err
	}
	if dist == 0 {
		return 1, nil
	}
	return 1 / float64(dist), nil
}
