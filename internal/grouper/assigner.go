// Package grouper places member terms under their single most specific
// header term and partitions the used headers into named sections.
package grouper

import (
	"log/slog"

	"goatk/internal/errors"
	"goatk/internal/graph"
	"goatk/internal/slogutil"
	"goatk/internal/termscore"
)

// Options configures an Assigner.
type Options struct {
	Logger *slog.Logger
}

// Assigner groups members using the scorer's closures and scores.
type Assigner struct {
	scorer *termscore.Scorer
	logger *slog.Logger
}

// NewAssigner creates an assigner backed by scorer.
func NewAssigner(scorer *termscore.Scorer, opts Options) *Assigner {
	logger := opts.Logger
	if logger == nil {
		logger = slogutil.NewDiscardLogger()
	}
	return &Assigner{scorer: scorer, logger: logger}
}

// Assign places every member under exactly one header. Candidates are the
// headers among the member and its ancestors under rels. A member that is a
// candidate and is not strictly beaten by another candidate heads its own
// group. Any unknown id or a member without candidates fails the whole
// request.
func (a *Assigner) Assign(members []string, headers *HeaderSet, rels graph.RelationSet, tb TieBreak) (*Assignment, error) {
	engine := a.scorer.Engine()
	g := engine.Graph()
	if err := g.CheckRelations(rels); err != nil {
		return nil, err
	}
	if _, ok := tieBreakNames[tb]; !ok {
		return nil, errors.Newf(errors.InvalidConfig, "unknown tie break %d", tb)
	}

	nodes, err := lookupAll(g, members)
	if err != nil {
		return nil, err
	}
	nodes = graph.SortUnique(nodes)

	asg := newAssignment(g, headers, rels, tb)
	scores := make(map[graph.NodeID]score)
	scoreOf := func(n graph.NodeID) (score, error) {
		if s, ok := scores[n]; ok {
			return s, nil
		}
		dcnt, err := a.scorer.DescendantCountOf(n, rels)
		if err != nil {
			return score{}, err
		}
		s := score{dcnt: dcnt, ic: a.scorer.InformationContentOf(n)}
		scores[n] = s
		return s, nil
	}

	for _, m := range nodes {
		anc, err := engine.AncestorsOf(m, rels)
		if err != nil {
			return nil, err
		}
		candidates := anc.With(m).Intersect(headers.Set()).Nodes()
		if len(candidates) == 0 {
			return nil, errors.NewNoApplicableHeader(g.ID(m), headers.Len())
		}

		best := candidates[0]
		bestScore, err := scoreOf(best)
		if err != nil {
			return nil, err
		}
		for _, c := range candidates[1:] {
			cs, err := scoreOf(c)
			if err != nil {
				return nil, err
			}
			if tb.compare(cs, bestScore) > 0 {
				best, bestScore = c, cs
			}
		}

		if headers.Set().Contains(m) {
			ms, err := scoreOf(m)
			if err != nil {
				return nil, err
			}
			if tb.compare(bestScore, ms) <= 0 {
				asg.placeSelf(m)
				continue
			}
		}
		asg.place(m, best)
	}
	asg.finish()

	a.logger.Debug("Grouping complete",
		"members", len(nodes),
		"headers", headers.Len(),
		"headersUsed", len(asg.used),
		"selfHeaders", len(asg.self),
		"relations", rels.String(),
		"tieBreak", tb.String(),
	)
	return asg, nil
}
