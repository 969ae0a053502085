package graph_test

import (
	"errors"
	"reflect"
	"testing"

	goerr "goatk/internal/errors"
	"goatk/internal/graph"
	"goatk/internal/testutil"
)

func TestBuild_LevelsAndDepths(t *testing.T) {
	g := testutil.ToyGraph(t)

	tests := []struct {
		id    string
		level int
		depth int
	}{
		{"GO:0000001", 0, 0},
		{"GO:0000002", 1, 1},
		{"GO:0000005", 2, 2},
		{"GO:0000007", 3, 3},
		{"GO:0000009", 4, 4},
		{"GO:0000010", 2, 4},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			term, err := g.Term(tt.id)
			if err != nil {
				t.Fatalf("Term(%s) error: %v", tt.id, err)
			}
			if term.Level != tt.level {
				t.Errorf("Level = %d, want %d", term.Level, tt.level)
			}
			if term.Depth != tt.depth {
				t.Errorf("Depth = %d, want %d", term.Depth, tt.depth)
			}
		})
	}
}

func TestGraph_Resolve(t *testing.T) {
	g := testutil.ToyGraph(t)

	id, err := g.Resolve("GO:0000011")
	if err != nil {
		t.Fatalf("Resolve(alias) error: %v", err)
	}
	if id != "GO:0000010" {
		t.Errorf("Resolve(alias) = %s, want GO:0000010", id)
	}
	if !g.IsAlias("GO:0000011") || g.IsAlias("GO:0000010") {
		t.Error("IsAlias should only be true for the alternate id")
	}
	if g.NumAliases() != 1 {
		t.Errorf("NumAliases() = %d, want 1", g.NumAliases())
	}

	_, err = g.Resolve("GO:9999999")
	if !errors.Is(err, goerr.ErrUnknownTerm) {
		t.Errorf("Resolve(unknown) error = %v, want UNKNOWN_TERM", err)
	}
}

func TestGraph_ParentsChildren(t *testing.T) {
	g := testutil.ToyGraph(t)

	tests := []struct {
		name string
		fn   func(string, graph.RelationSet) ([]string, error)
		id   string
		rels graph.RelationSet
		want []string
	}{
		{"parents is_a", g.Parents, "GO:0000009", 0, []string{"GO:0000006"}},
		{"parents part_of", g.Parents, "GO:0000009", graph.NewRelationSet(graph.PartOf), []string{"GO:0000006", "GO:0000008"}},
		{"parents by alias", g.Parents, "GO:0000011", 0, []string{"GO:0000003", "GO:0000007"}},
		{"children is_a", g.Children, "GO:0000003", 0, []string{"GO:0000005", "GO:0000010"}},
		{"children regulates", g.Children, "GO:0000003", graph.NewRelationSet(graph.Regulates), []string{"GO:0000005", "GO:0000006", "GO:0000010"}},
		{"children of leaf", g.Children, "GO:0000009", graph.AllRelations(), []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.fn(tt.id, tt.rels)
			if err != nil {
				t.Fatalf("error: %v", err)
			}
			if len(got) == 0 && len(tt.want) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGraph_RootsAndDepth(t *testing.T) {
	g := testutil.MustBuild(t, testutil.WideSource(testutil.WideShape{Branches: [3]int{6, 2, 2}}))

	if got := len(g.Roots()); got != 3 {
		t.Errorf("len(Roots()) = %d, want 3", got)
	}
	if got := len(g.TermsAtDepth(1)); got != 10 {
		t.Errorf("len(TermsAtDepth(1)) = %d, want 10", got)
	}
	want := []graph.Namespace{graph.BiologicalProcess, graph.CellularComponent, graph.MolecularFunction}
	if got := g.Namespaces(); !reflect.DeepEqual(got, want) {
		t.Errorf("Namespaces() = %v, want %v", got, want)
	}
}

func TestBuild_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  graph.Source
		opts graph.BuildOptions
		code goerr.ErrorCode
	}{
		{
			name: "dangling parent",
			src: graph.Source{Terms: []graph.TermRecord{
				{ID: "GO:1", IsA: []string{"GO:404"}},
			}},
			code: goerr.UnknownTerm,
		},
		{
			name: "duplicate id",
			src: graph.Source{Terms: []graph.TermRecord{
				{ID: "GO:1"}, {ID: "GO:1"},
			}},
			code: goerr.InvalidGraph,
		},
		{
			name: "alias collides with canonical id",
			src: graph.Source{Terms: []graph.TermRecord{
				{ID: "GO:1"}, {ID: "GO:2", AltIDs: []string{"GO:1"}},
			}},
			code: goerr.InvalidGraph,
		},
		{
			name: "relations requested but not loaded",
			src:  graph.Source{Terms: []graph.TermRecord{{ID: "GO:1"}}},
			opts: graph.BuildOptions{Relations: graph.NewRelationSet(graph.PartOf)},
			code: goerr.IncompleteGraph,
		},
		{
			name: "is_a cycle",
			src: graph.Source{Terms: []graph.TermRecord{
				{ID: "GO:1"},
				{ID: "GO:2", IsA: []string{"GO:1", "GO:3"}},
				{ID: "GO:3", IsA: []string{"GO:2"}},
			}},
			code: goerr.RelationCycle,
		},
		{
			name: "self parent",
			src: graph.Source{Terms: []graph.TermRecord{
				{ID: "GO:1", IsA: []string{"GO:1"}},
			}},
			code: goerr.RelationCycle,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := graph.Build(tt.src, tt.opts)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if got := goerr.CodeOf(err); got != tt.code {
				t.Errorf("CodeOf(err) = %v, want %v (err: %v)", got, tt.code, err)
			}
		})
	}
}

func TestGraph_CheckRelations(t *testing.T) {
	isaOnly := testutil.MustBuild(t, graph.Source{Terms: []graph.TermRecord{{ID: "GO:1"}}})

	if err := isaOnly.CheckRelations(0); err != nil {
		t.Errorf("CheckRelations(is_a) error: %v", err)
	}
	if err := isaOnly.CheckRelations(graph.NewRelationSet(graph.Regulates)); !errors.Is(err, goerr.ErrIncompleteGraph) {
		t.Errorf("CheckRelations(regulates) = %v, want INCOMPLETE_GRAPH", err)
	}
	if err := isaOnly.CheckRelations(graph.RelationSet(0x80)); !errors.Is(err, goerr.ErrInvalidRelationType) {
		t.Errorf("CheckRelations(bad bits) = %v, want INVALID_RELATION_TYPE", err)
	}
}

func TestBuild_DeepChain(t *testing.T) {
	const n = 50000
	terms := make([]graph.TermRecord, n)
	for i := range terms {
		terms[i].ID = chainID(i)
		if i > 0 {
			terms[i].IsA = []string{chainID(i - 1)}
		}
	}
	g := testutil.MustBuild(t, graph.Source{Terms: terms})

	last, err := g.Term(chainID(n - 1))
	if err != nil {
		t.Fatal(err)
	}
	if last.Depth != n-1 || last.Level != n-1 {
		t.Errorf("deepest term level/depth = %d/%d, want %d", last.Level, last.Depth, n-1)
	}
}

func chainID(i int) string {
	const digits = "0123456789"
	b := []byte("GO:0000000")
	for p := len(b) - 1; i > 0; p-- {
		b[p] = digits[i%10]
		i /= 10
	}
	return string(b)
}
