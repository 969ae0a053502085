package graph

import (
	"log/slog"
	"sort"

	"goatk/internal/errors"
)

// TermRecord is one term as produced by a loader, before ids are resolved.
type TermRecord struct {
	ID        string
	Name      string
	Namespace Namespace
	AltIDs    []string
	Obsolete  bool
	IsA       []string

	// Relationships holds typed parent ids. Ignored unless the owning
	// Source has RelationsLoaded set.
	Relationships map[RelType][]string
}

// Source is the loader output consumed by Build.
type Source struct {
	Terms           []TermRecord
	RelationsLoaded bool
	Version         string
}

// BuildOptions controls graph construction.
type BuildOptions struct {
	// Relations is the union of relation types callers intend to query.
	// Build fails with IncompleteGraph when it is non-empty and the source
	// carries no relationships.
	Relations RelationSet

	Logger *slog.Logger
}

// Build constructs an immutable Graph from loader output. It resolves every
// parent and relation target, derives reverse adjacency, and computes level
// and depth over is_a.
func Build(src Source, opts BuildOptions) (*Graph, error) {
	if !opts.Relations.Valid() {
		return nil, errors.Newf(errors.InvalidRelationType, "relation set %08b contains unknown relation types", uint8(opts.Relations))
	}
	if !opts.Relations.IsEmpty() && !src.RelationsLoaded {
		return nil, errors.NewIncompleteGraph(opts.Relations.String())
	}

	records := make([]*TermRecord, len(src.Terms))
	for i := range src.Terms {
		records[i] = &src.Terms[i]
	}
	sort.Slice(records, func(i, j int) bool { return records[i].ID < records[j].ID })

	g := &Graph{
		terms:           make([]Term, len(records)),
		index:           make(map[string]NodeID, len(records)),
		relationsLoaded: src.RelationsLoaded,
		version:         src.Version,
	}

	for i, rec := range records {
		if rec.ID == "" {
			return nil, errors.Newf(errors.InvalidGraph, "term record %d has an empty id", i)
		}
		if _, dup := g.index[rec.ID]; dup {
			return nil, errors.Newf(errors.InvalidGraph, "duplicate term id %q", rec.ID)
		}
		n := NodeID(i)
		g.index[rec.ID] = n
		g.terms[i] = Term{
			ID:        rec.ID,
			Name:      rec.Name,
			Namespace: rec.Namespace,
			AltIDs:    append([]string(nil), rec.AltIDs...),
			Obsolete:  rec.Obsolete,
			node:      n,
		}
	}

	for i, rec := range records {
		for _, alt := range rec.AltIDs {
			if alt == rec.ID {
				continue
			}
			if owner, taken := g.index[alt]; taken {
				return nil, errors.Newf(errors.InvalidGraph, "alternate id %q of %s is already used by %s", alt, rec.ID, g.terms[owner].ID)
			}
			g.index[alt] = NodeID(i)
			g.numAliases++
		}
	}

	var missing []string
	resolve := func(ids []string) []NodeID {
		if len(ids) == 0 {
			return nil
		}
		out := make([]NodeID, 0, len(ids))
		for _, id := range ids {
			n, ok := g.index[id]
			if !ok {
				missing = append(missing, id)
				continue
			}
			out = append(out, n)
		}
		return SortUnique(out)
	}

	numRelEdges := 0
	for i, rec := range records {
		t := &g.terms[i]
		t.parents = resolve(rec.IsA)
		if !src.RelationsLoaded {
			continue
		}
		t.rels = &relationMap{}
		for r, targets := range rec.Relationships {
			if r >= numRelTypes {
				return nil, errors.Newf(errors.InvalidRelationType, "term %s uses unknown relation type %d", rec.ID, r)
			}
			t.rels.fwd[r] = resolve(targets)
			numRelEdges += len(t.rels.fwd[r])
		}
	}
	if len(missing) > 0 {
		return nil, errors.NewUnknownTerms(uniqueStrings(missing))
	}

	for i := range g.terms {
		n := NodeID(i)
		t := &g.terms[i]
		for _, p := range t.parents {
			if p == n {
				return nil, errors.NewRelationCycle([]string{t.ID, t.ID}, IsA)
			}
			g.terms[p].children = append(g.terms[p].children, n)
		}
		if t.rels == nil {
			continue
		}
		for r := RelType(0); r < numRelTypes; r++ {
			for _, p := range t.rels.fwd[r] {
				pr := g.terms[p].rels
				pr.rev[r] = append(pr.rev[r], n)
			}
		}
	}

	if err := g.computeLevels(); err != nil {
		return nil, err
	}

	if opts.Logger != nil {
		opts.Logger.Debug("Ontology graph built",
			"terms", len(g.terms),
			"aliases", g.numAliases,
			"relationsLoaded", g.relationsLoaded,
			"relationEdges", numRelEdges,
			"version", g.version,
		)
	}
	return g, nil
}

// computeLevels runs a Kahn topological sort over is_a. Level is the
// minimum and depth the maximum of parent values plus one. Nodes left
// unprocessed sit on or below an is_a cycle.
func (g *Graph) computeLevels() error {
	indeg := make([]int, len(g.terms))
	queue := make([]NodeID, 0, len(g.terms))
	for i := range g.terms {
		indeg[i] = len(g.terms[i].parents)
		if indeg[i] == 0 {
			queue = append(queue, NodeID(i))
		}
		g.terms[i].Level = -1
	}
	for _, n := range queue {
		g.terms[n].Level = 0
		g.terms[n].Depth = 0
	}

	processed := 0
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		processed++
		t := &g.terms[n]
		for _, c := range t.children {
			ct := &g.terms[c]
			if ct.Level < 0 || t.Level+1 < ct.Level {
				ct.Level = t.Level + 1
			}
			if t.Depth+1 > ct.Depth {
				ct.Depth = t.Depth + 1
			}
			indeg[c]--
			if indeg[c] == 0 {
				queue = append(queue, c)
			}
		}
	}
	if processed == len(g.terms) {
		return nil
	}
	return errors.NewRelationCycle(g.findIsACycle(indeg), IsA)
}

// findIsACycle walks unprocessed parents from any blocked node until a node
// repeats. Every blocked node has at least one blocked parent, so the walk
// always closes.
func (g *Graph) findIsACycle(indeg []int) []string {
	start := NodeID(-1)
	for i, d := range indeg {
		if d > 0 {
			start = NodeID(i)
			break
		}
	}
	if start < 0 {
		return nil
	}
	pos := make(map[NodeID]int)
	var path []NodeID
	n := start
	for {
		if at, seen := pos[n]; seen {
			cycle := append(path[at:], n)
			// Report top-down: parent before child.
			ids := g.IDs(cycle)
			for i, j := 0, len(ids)-1; i < j; i, j = i+1, j-1 {
				ids[i], ids[j] = ids[j], ids[i]
			}
			return ids
		}
		pos[n] = len(path)
		path = append(path, n)
		next := NodeID(-1)
		for _, p := range g.terms[n].parents {
			if indeg[p] > 0 {
				next = p
				break
			}
		}
		if next < 0 {
			return g.IDs(path)
		}
		n = next
	}
}

func uniqueStrings(in []string) []string {
	sort.Strings(in)
	out := in[:0]
	for i, s := range in {
		if i == 0 || s != in[i-1] {
			out = append(out, s)
		}
	}
	return out
}
