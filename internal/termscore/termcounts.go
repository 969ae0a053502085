package termscore

import (
	"sort"

	"goatk/internal/closure"
	"goatk/internal/errors"
	"goatk/internal/graph"
)

// TermCounts is an AnnotationSource built from a gene to term map. Each
// gene counts once for every term it is annotated to and every ancestor of
// those terms.
type TermCounts struct {
	counts map[string]int
	totals map[graph.Namespace]int
	genes  int
}

// NewTermCounts propagates annotations up the graph under rels. Every term
// id must be known to the graph.
func NewTermCounts(engine *closure.Engine, annotations map[string][]string, rels graph.RelationSet) (*TermCounts, error) {
	g := engine.Graph()
	tc := &TermCounts{
		counts: make(map[string]int),
		totals: make(map[graph.Namespace]int),
	}

	var missing []string
	for _, ids := range annotations {
		for _, id := range ids {
			if !g.Contains(id) {
				missing = append(missing, id)
			}
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, errors.NewUnknownTerms(dedupSorted(missing))
	}

	genes := make([]string, 0, len(annotations))
	for gene := range annotations {
		genes = append(genes, gene)
	}
	sort.Strings(genes)

	for _, gene := range genes {
		seen := make(map[graph.NodeID]bool)
		namespaces := make(map[graph.Namespace]bool)
		for _, id := range annotations[gene] {
			n, _ := g.Lookup(id)
			if seen[n] {
				continue
			}
			anc, err := engine.AncestorsOf(n, rels)
			if err != nil {
				return nil, err
			}
			seen[n] = true
			for _, a := range anc.Nodes() {
				seen[a] = true
			}
			namespaces[g.Node(n).Namespace] = true
		}
		if len(seen) == 0 {
			continue
		}
		tc.genes++
		for n := range seen {
			tc.counts[g.ID(n)]++
		}
		for ns := range namespaces {
			tc.totals[ns]++
		}
	}
	return tc, nil
}

// AnnotationCount returns the number of genes annotated to id or below.
func (tc *TermCounts) AnnotationCount(id string) int {
	return tc.counts[id]
}

// TotalAnnotations returns the number of genes with at least one annotation
// in ns.
func (tc *TermCounts) TotalAnnotations(ns graph.Namespace) int {
	return tc.totals[ns]
}

// Genes returns the number of genes with at least one annotation.
func (tc *TermCounts) Genes() int {
	return tc.genes
}

// Terms returns the number of terms with a non-zero count.
func (tc *TermCounts) Terms() int {
	return len(tc.counts)
}

func dedupSorted(in []string) []string {
	out := in[:0]
	for i, s := range in {
		if i == 0 || s != in[i-1] {
			out = append(out, s)
		}
	}
	return out
}
