package closure

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"testing"

	goerr "goatk/internal/errors"
	"goatk/internal/graph"
	"goatk/internal/testutil"
)

func newToyEngine(t *testing.T) *Engine {
	t.Helper()
	return New(testutil.ToyGraph(t), Options{})
}

func TestAncestors_ToyScenario(t *testing.T) {
	e := newToyEngine(t)
	want := []string{"GO:0000001", "GO:0000002", "GO:0000003"}

	for _, rels := range []graph.RelationSet{0, graph.NewRelationSet(graph.PartOf), graph.AllRelations()} {
		t.Run(rels.String(), func(t *testing.T) {
			got, err := e.Ancestors("GO:0000005", rels)
			if err != nil {
				t.Fatalf("Ancestors error: %v", err)
			}
			if !reflect.DeepEqual(got.IDs(), want) {
				t.Errorf("Ancestors(GO:0000005) = %v, want %v", got.IDs(), want)
			}
		})
	}
}

func TestAncestors(t *testing.T) {
	e := newToyEngine(t)

	tests := []struct {
		id   string
		rels graph.RelationSet
		want []string
	}{
		{"GO:0000001", 0, nil},
		{"GO:0000004", 0, []string{"GO:0000001", "GO:0000002"}},
		{"GO:0000010", 0, []string{"GO:0000001", "GO:0000002", "GO:0000003", "GO:0000004", "GO:0000005", "GO:0000007"}},
		{"GO:0000011", 0, []string{"GO:0000001", "GO:0000002", "GO:0000003", "GO:0000004", "GO:0000005", "GO:0000007"}},
		{"GO:0000006", graph.NewRelationSet(graph.Regulates), []string{"GO:0000001", "GO:0000002", "GO:0000003", "GO:0000004"}},
		{"GO:0000009", 0, []string{"GO:0000001", "GO:0000002", "GO:0000004", "GO:0000006"}},
		{"GO:0000009", graph.NewRelationSet(graph.PartOf), []string{"GO:0000001", "GO:0000002", "GO:0000003", "GO:0000004", "GO:0000005", "GO:0000006", "GO:0000008"}},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s/%s", tt.id, tt.rels), func(t *testing.T) {
			got, err := e.Ancestors(tt.id, tt.rels)
			if err != nil {
				t.Fatalf("Ancestors error: %v", err)
			}
			if got.Len() != len(tt.want) {
				t.Fatalf("Ancestors = %v, want %v", got.IDs(), tt.want)
			}
			if len(tt.want) > 0 && !reflect.DeepEqual(got.IDs(), tt.want) {
				t.Errorf("Ancestors = %v, want %v", got.IDs(), tt.want)
			}
		})
	}
}

func TestDescendants(t *testing.T) {
	e := newToyEngine(t)

	tests := []struct {
		id   string
		rels graph.RelationSet
		want int
	}{
		{"GO:0000001", 0, 9},
		{"GO:0000002", 0, 7},
		{"GO:0000003", 0, 4},
		{"GO:0000003", graph.NewRelationSet(graph.Regulates), 6},
		{"GO:0000008", 0, 0},
		{"GO:0000008", graph.NewRelationSet(graph.PartOf), 1},
		{"GO:0000010", graph.AllRelations(), 0},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s/%s", tt.id, tt.rels), func(t *testing.T) {
			got, err := e.Descendants(tt.id, tt.rels)
			if err != nil {
				t.Fatalf("Descendants error: %v", err)
			}
			if got.Len() != tt.want {
				t.Errorf("len(Descendants) = %d, want %d (%v)", got.Len(), tt.want, got.IDs())
			}
		})
	}
}

func TestClosure_Monotonic(t *testing.T) {
	e := newToyEngine(t)
	g := e.Graph()
	subsets := graph.AllRelationSets(graph.AllRelations())

	for _, term := range g.Terms() {
		for _, s1 := range subsets {
			for _, s2 := range subsets {
				if !s1.SubsetOf(s2) {
					continue
				}
				for _, dir := range []Direction{Up, Down} {
					small, err := e.Closure(term.Node(), s1, dir)
					if err != nil {
						t.Fatal(err)
					}
					large, err := e.Closure(term.Node(), s2, dir)
					if err != nil {
						t.Fatal(err)
					}
					if !small.SubsetOf(large) {
						t.Errorf("%s %s: %s closure %v not within %s closure %v",
							term.ID, dir, s1, small.IDs(), s2, large.IDs())
					}
				}
			}
		}
	}
}

func TestClosure_SelfExcluded(t *testing.T) {
	e := newToyEngine(t)
	for _, term := range e.Graph().Terms() {
		for _, dir := range []Direction{Up, Down} {
			s, err := e.Closure(term.Node(), graph.AllRelations(), dir)
			if err != nil {
				t.Fatal(err)
			}
			if s.Contains(term.Node()) {
				t.Errorf("%s closure of %s contains the term itself", dir, term.ID)
			}
			if !s.With(term.Node()).Contains(term.Node()) {
				t.Errorf("With(self) should contain %s", term.ID)
			}
		}
	}
}

func TestClosure_Idempotent(t *testing.T) {
	e := newToyEngine(t)

	first, err := e.Ancestors("GO:0000010", 0)
	if err != nil {
		t.Fatal(err)
	}
	before := e.Stats()

	second, err := e.Ancestors("GO:0000010", 0)
	if err != nil {
		t.Fatal(err)
	}
	after := e.Stats()

	if first != second {
		t.Error("second call should return the cached set")
	}
	if after.Misses != before.Misses || after.Computed != before.Computed {
		t.Errorf("second call traversed again: before %+v, after %+v", before, after)
	}
	if after.Hits != before.Hits+1 {
		t.Errorf("Hits = %d, want %d", after.Hits, before.Hits+1)
	}
}

func TestClosure_PublishesIntermediates(t *testing.T) {
	e := newToyEngine(t)

	if _, err := e.Ancestors("GO:0000010", 0); err != nil {
		t.Fatal(err)
	}
	stats := e.Stats()
	// GO:0000010 and its six ancestors.
	if stats.Computed != 7 {
		t.Errorf("Computed = %d, want 7", stats.Computed)
	}

	if _, err := e.Ancestors("GO:0000007", 0); err != nil {
		t.Fatal(err)
	}
	if got := e.Stats(); got.Misses != stats.Misses || got.Hits != stats.Hits+1 {
		t.Errorf("intermediate closure was not reused: %+v", got)
	}
}

func TestClosure_Concurrent(t *testing.T) {
	e := newToyEngine(t)

	const workers = 16
	results := make([]*Set, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s, err := e.Descendants("GO:0000001", graph.AllRelations())
			if err != nil {
				t.Error(err)
				return
			}
			results[i] = s
		}(i)
	}
	wg.Wait()

	for i := 1; i < workers; i++ {
		if results[i] != results[0] {
			t.Fatalf("worker %d got a different set instance", i)
		}
	}
}

func TestClosure_Errors(t *testing.T) {
	e := newToyEngine(t)
	isaOnly := New(testutil.MustBuild(t, graph.Source{Terms: []graph.TermRecord{{ID: "GO:1"}}}), Options{})

	tests := []struct {
		name string
		fn   func() error
		want error
	}{
		{"unknown term", func() error { _, err := e.Ancestors("GO:7777777", 0); return err }, goerr.ErrUnknownTerm},
		{"out of range node", func() error { _, err := e.AncestorsOf(99, 0); return err }, goerr.ErrUnknownTerm},
		{"invalid relation bits", func() error { _, err := e.Descendants("GO:0000001", graph.RelationSet(0xF0)); return err }, goerr.ErrInvalidRelationType},
		{"relations not loaded", func() error { _, err := isaOnly.Ancestors("GO:1", graph.NewRelationSet(graph.PartOf)); return err }, goerr.ErrIncompleteGraph},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.fn(); !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}
}

func cyclicGraph(t *testing.T) *graph.Graph {
	t.Helper()
	src := graph.Source{
		RelationsLoaded: true,
		Terms: []graph.TermRecord{
			{ID: "GO:A"},
			{ID: "GO:B", IsA: []string{"GO:A"}, Relationships: map[graph.RelType][]string{graph.PartOf: {"GO:C"}}},
			{ID: "GO:C", IsA: []string{"GO:B"}},
		},
	}
	g, err := graph.Build(src, graph.BuildOptions{Relations: graph.AllRelations()})
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	return g
}

func TestClosure_RelationCycle(t *testing.T) {
	e := New(cyclicGraph(t), Options{})
	partOf := graph.NewRelationSet(graph.PartOf)

	if _, err := e.Ancestors("GO:C", 0); err != nil {
		t.Fatalf("is_a closure should succeed: %v", err)
	}

	_, err := e.Ancestors("GO:C", partOf)
	if !errors.Is(err, goerr.ErrRelationCycle) {
		t.Fatalf("error = %v, want RELATION_CYCLE", err)
	}
	var ge *goerr.Error
	if !errors.As(err, &ge) {
		t.Fatal("error should be *errors.Error")
	}
	for _, id := range []string{"GO:B", "GO:C"} {
		if !strings.Contains(ge.Message, id) {
			t.Errorf("cycle message %q should name %s", ge.Message, id)
		}
	}

	if _, err := e.Descendants("GO:A", partOf); !errors.Is(err, goerr.ErrRelationCycle) {
		t.Errorf("descendant traversal error = %v, want RELATION_CYCLE", err)
	}
	if _, err := e.RelDepth("GO:C", partOf); !errors.Is(err, goerr.ErrRelationCycle) {
		t.Errorf("RelDepth error = %v, want RELATION_CYCLE", err)
	}
}

func TestClosure_DeepChain(t *testing.T) {
	const n = 3000
	terms := make([]graph.TermRecord, n)
	for i := range terms {
		terms[i].ID = fmt.Sprintf("GO:%07d", i)
		if i > 0 {
			terms[i].IsA = []string{fmt.Sprintf("GO:%07d", i-1)}
		}
	}
	e := New(testutil.MustBuild(t, graph.Source{Terms: terms}), Options{})

	anc, err := e.Ancestors(fmt.Sprintf("GO:%07d", n-1), 0)
	if err != nil {
		t.Fatal(err)
	}
	if anc.Len() != n-1 {
		t.Errorf("len(Ancestors) = %d, want %d", anc.Len(), n-1)
	}
	desc, err := e.Descendants("GO:0000000", 0)
	if err != nil {
		t.Fatal(err)
	}
	if desc.Len() != n-1 {
		t.Errorf("len(Descendants) = %d, want %d", desc.Len(), n-1)
	}
}

func TestReset(t *testing.T) {
	e := newToyEngine(t)
	if _, err := e.Ancestors("GO:0000010", 0); err != nil {
		t.Fatal(err)
	}
	e.Reset()
	if got := e.Stats(); got != (Stats{}) {
		t.Errorf("Stats after Reset = %+v, want zero", got)
	}
}
