package testutil

import (
	"fmt"
	"testing"

	"goatk/internal/graph"
)

// ToySource returns a ten-term biological_process ontology:
//
//	GO:0000001
//	├── GO:0000002
//	│   ├── GO:0000004
//	│   │   ├── GO:0000006 ── GO:0000009
//	│   │   └── GO:0000007 ── GO:0000010
//	│   └── GO:0000005 (also is_a GO:0000003)
//	│       ├── GO:0000007
//	│       └── GO:0000008
//	└── GO:0000003
//	    └── GO:0000010 (direct)
//
// GO:0000006 regulates GO:0000003, GO:0000009 part_of GO:0000008, and
// GO:0000011 is an alternate id of GO:0000010.
func ToySource() graph.Source {
	return graph.Source{
		Version:         "toy/2024-01-01",
		RelationsLoaded: true,
		Terms: []graph.TermRecord{
			bp("GO:0000001", "root process"),
			bp("GO:0000002", "branch two", "GO:0000001"),
			bp("GO:0000003", "branch three", "GO:0000001"),
			bp("GO:0000004", "left interior", "GO:0000002"),
			bp("GO:0000005", "shared interior", "GO:0000002", "GO:0000003"),
			withRel(bp("GO:0000006", "left leaf parent", "GO:0000004"), graph.Regulates, "GO:0000003"),
			bp("GO:0000007", "merged interior", "GO:0000004", "GO:0000005"),
			bp("GO:0000008", "right leaf", "GO:0000005"),
			withRel(bp("GO:0000009", "deep left leaf", "GO:0000006"), graph.PartOf, "GO:0000008"),
			withAlt(bp("GO:0000010", "deep merged leaf", "GO:0000007", "GO:0000003"), "GO:0000011"),
		},
	}
}

// ToyGraph builds ToySource with every relation available.
func ToyGraph(t testing.TB) *graph.Graph {
	t.Helper()
	g, err := graph.Build(ToySource(), graph.BuildOptions{Relations: graph.AllRelations()})
	if err != nil {
		t.Fatalf("building toy graph: %v", err)
	}
	return g
}

// WideShape sizes a WideSource graph.
type WideShape struct {
	// Branches per namespace: biological_process, molecular_function,
	// cellular_component.
	Branches [3]int
	// Mids is the number of depth-2 terms under each biological_process
	// branch.
	Mids int
	// Leaves are spread round robin under the mids, or under the branches
	// when Mids is zero.
	Leaves int
}

// WideSource returns a graph with one root per namespace. Ids are
// GO:1nxxxxx for depth-1 terms, GO:3xxxxxx for mids and GO:2xxxxxx for
// leaves.
func WideSource(shape WideShape) graph.Source {
	roots := []struct {
		id string
		ns graph.Namespace
	}{
		{"GO:0008150", graph.BiologicalProcess},
		{"GO:0003674", graph.MolecularFunction},
		{"GO:0005575", graph.CellularComponent},
	}
	var terms []graph.TermRecord
	var bpBranches []string
	for r, root := range roots {
		terms = append(terms, graph.TermRecord{ID: root.id, Name: string(root.ns), Namespace: root.ns})
		for i := 0; i < shape.Branches[r]; i++ {
			id := fmt.Sprintf("GO:1%d%05d", r, i)
			terms = append(terms, graph.TermRecord{
				ID:        id,
				Name:      fmt.Sprintf("%s branch %d", root.ns.Short(), i),
				Namespace: root.ns,
				IsA:       []string{root.id},
			})
			if root.ns == graph.BiologicalProcess {
				bpBranches = append(bpBranches, id)
			}
		}
	}

	parents := bpBranches
	if shape.Mids > 0 {
		parents = nil
		for b, branch := range bpBranches {
			for i := 0; i < shape.Mids; i++ {
				id := fmt.Sprintf("GO:3%03d%03d", b, i)
				terms = append(terms, graph.TermRecord{
					ID:        id,
					Name:      fmt.Sprintf("mid %d.%d", b, i),
					Namespace: graph.BiologicalProcess,
					IsA:       []string{branch},
				})
				parents = append(parents, id)
			}
		}
	}
	for i := 0; i < shape.Leaves && len(parents) > 0; i++ {
		terms = append(terms, graph.TermRecord{
			ID:        fmt.Sprintf("GO:2%06d", i),
			Name:      fmt.Sprintf("leaf %d", i),
			Namespace: graph.BiologicalProcess,
			IsA:       []string{parents[i%len(parents)]},
		})
	}
	return graph.Source{Terms: terms, Version: "wide"}
}

// LeafIDs returns the leaf ids a WideSource with n leaves contains.
func LeafIDs(n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("GO:2%06d", i)
	}
	return ids
}

// MustBuild builds src with no relations, failing the test on error.
func MustBuild(t testing.TB, src graph.Source) *graph.Graph {
	t.Helper()
	g, err := graph.Build(src, graph.BuildOptions{})
	if err != nil {
		t.Fatalf("building graph: %v", err)
	}
	return g
}

func bp(id, name string, parents ...string) graph.TermRecord {
	return graph.TermRecord{
		ID:            id,
		Name:          name,
		Namespace:     graph.BiologicalProcess,
		IsA:           parents,
		Relationships: map[graph.RelType][]string{},
	}
}

func withRel(rec graph.TermRecord, r graph.RelType, targets ...string) graph.TermRecord {
	rec.Relationships[r] = append(rec.Relationships[r], targets...)
	return rec
}

func withAlt(rec graph.TermRecord, alts ...string) graph.TermRecord {
	rec.AltIDs = append(rec.AltIDs, alts...)
	return rec
}
