package semsim

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"goatk/internal/closure"
	goerr "goatk/internal/errors"
	"goatk/internal/graph"
	"goatk/internal/termscore"
	"goatk/internal/testutil"
)

const eps = 1e-9

func newToyWang(t *testing.T, rels graph.RelationSet) *Wang {
	t.Helper()
	w, err := NewWang(closure.New(testutil.ToyGraph(t), closure.Options{}), rels, Options{})
	if err != nil {
		t.Fatalf("NewWang error: %v", err)
	}
	return w
}

func TestSValues(t *testing.T) {
	tests := []struct {
		name string
		id   string
		rels graph.RelationSet
		want map[string]float64
	}{
		{
			name: "is_a only",
			id:   "GO:0000009",
			want: map[string]float64{
				"GO:0000009": 1,
				"GO:0000006": 0.8,
				"GO:0000004": 0.64,
				"GO:0000002": 0.512,
				"GO:0000001": 0.4096,
			},
		},
		{
			name: "part_of reaches the right branch",
			id:   "GO:0000009",
			rels: graph.NewRelationSet(graph.PartOf),
			want: map[string]float64{
				"GO:0000009": 1,
				"GO:0000006": 0.8,
				"GO:0000008": 0.6,
				"GO:0000004": 0.64,
				"GO:0000005": 0.48,
				"GO:0000002": 0.512,
				"GO:0000003": 0.384,
				"GO:0000001": 0.4096,
			},
		},
		{
			name: "two paths keep the best",
			id:   "GO:0000005",
			want: map[string]float64{
				"GO:0000005": 1,
				"GO:0000002": 0.8,
				"GO:0000003": 0.8,
				"GO:0000001": 0.64,
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := newToyWang(t, tt.rels)
			got, err := w.SValues(tt.id)
			if err != nil {
				t.Fatalf("SValues error: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("SValues(%s) has %d terms, want %d: %v", tt.id, len(got), len(tt.want), got)
			}
			var sum float64
			for id, want := range tt.want {
				if math.Abs(got[id]-want) > eps {
					t.Errorf("S(%s, %s) = %v, want %v", tt.id, id, got[id], want)
				}
				sum += want
			}
			sv, err := w.SemanticValue(tt.id)
			if err != nil {
				t.Fatal(err)
			}
			if math.Abs(sv-sum) > eps {
				t.Errorf("SemanticValue(%s) = %v, want %v", tt.id, sv, sum)
			}
		})
	}
}

func TestSimilarity_HandComputed(t *testing.T) {
	w := newToyWang(t, 0)
	// SV(4) = 2.44, SV(5) = 3.24, shared {1, 2} contributes 2.88.
	got, err := w.Similarity("GO:0000004", "GO:0000005")
	if err != nil {
		t.Fatal(err)
	}
	if want := 2.88 / 5.68; math.Abs(got-want) > eps {
		t.Errorf("Similarity = %v, want %v", got, want)
	}
}

func TestSimilarity_Properties(t *testing.T) {
	for _, rels := range []graph.RelationSet{0, graph.AllRelations()} {
		w := newToyWang(t, rels)
		var ids []string
		for _, term := range w.engine.Graph().Terms() {
			ids = append(ids, term.ID)
		}
		for _, a := range ids {
			self, err := w.Similarity(a, a)
			if err != nil {
				t.Fatal(err)
			}
			if self != 1 {
				t.Errorf("[%s] sim(%s, %s) = %v, want 1", rels, a, a, self)
			}
			for _, b := range ids {
				ab, err := w.Similarity(a, b)
				if err != nil {
					t.Fatal(err)
				}
				ba, _ := w.Similarity(b, a)
				if ab != ba {
					t.Errorf("[%s] sim(%s, %s) = %v but sim(%s, %s) = %v", rels, a, b, ab, b, a, ba)
				}
				if ab < 0 || ab > 1 {
					t.Errorf("[%s] sim(%s, %s) = %v outside [0, 1]", rels, a, b, ab)
				}
			}
		}
	}
}

func TestSimilarity_Alias(t *testing.T) {
	w := newToyWang(t, 0)
	a, err := w.Similarity("GO:0000011", "GO:0000008")
	if err != nil {
		t.Fatal(err)
	}
	b, _ := w.Similarity("GO:0000010", "GO:0000008")
	if a != b {
		t.Errorf("alias similarity %v, canonical %v", a, b)
	}
	if self, _ := w.Similarity("GO:0000011", "GO:0000010"); self != 1 {
		t.Errorf("alias against canonical = %v, want 1", self)
	}
}

func TestSimilarity_DisjointNamespaces(t *testing.T) {
	src := graph.Source{Terms: []graph.TermRecord{
		{ID: "GO:0008150", Namespace: graph.BiologicalProcess},
		{ID: "GO:0000100", Namespace: graph.BiologicalProcess, IsA: []string{"GO:0008150"}},
		{ID: "GO:0003674", Namespace: graph.MolecularFunction},
		{ID: "GO:0000200", Namespace: graph.MolecularFunction, IsA: []string{"GO:0003674"}},
	}}
	w, err := NewWang(closure.New(testutil.MustBuild(t, src), closure.Options{}), 0, Options{})
	if err != nil {
		t.Fatal(err)
	}
	got, err := w.Similarity("GO:0000100", "GO:0000200")
	if err != nil {
		t.Fatal(err)
	}
	if got != 0 {
		t.Errorf("cross-namespace similarity = %v, want 0", got)
	}
	if got, _ := w.Similarity("GO:0008150", "GO:0003674"); got != 0 {
		t.Errorf("similarity of two roots = %v, want 0", got)
	}
}

func TestSimilarity_RelationsChangeResult(t *testing.T) {
	plain := newToyWang(t, 0)
	rel := newToyWang(t, graph.NewRelationSet(graph.PartOf))
	a, _ := plain.Similarity("GO:0000009", "GO:0000008")
	b, _ := rel.Similarity("GO:0000009", "GO:0000008")
	if b <= a {
		t.Errorf("part_of similarity %v should exceed is_a-only %v", b, a)
	}
}

func TestSimilarity_CustomWeights(t *testing.T) {
	e := closure.New(testutil.ToyGraph(t), closure.Options{})
	weights := DefaultWeights()
	weights.IsA = 0.5
	w, err := NewWang(e, 0, Options{Weights: weights})
	if err != nil {
		t.Fatal(err)
	}
	s, err := w.SValues("GO:0000004")
	if err != nil {
		t.Fatal(err)
	}
	if s["GO:0000001"] != 0.25 {
		t.Errorf("S(4, 1) = %v, want 0.25", s["GO:0000001"])
	}
	if w.Weights().IsA != 0.5 {
		t.Errorf("Weights().IsA = %v", w.Weights().IsA)
	}
}

func TestMatrix(t *testing.T) {
	w := newToyWang(t, graph.AllRelations())
	ids := []string{"GO:0000009", "GO:0000001", "GO:0000005", "GO:0000011", "GO:0000007"}
	for _, workers := range []int{0, 1, 3} {
		m, err := w.Matrix(context.Background(), ids, workers)
		if err != nil {
			t.Fatalf("Matrix(workers=%d) error: %v", workers, err)
		}
		if len(m) != len(ids) {
			t.Fatalf("Matrix has %d rows, want %d", len(m), len(ids))
		}
		for i, a := range ids {
			for j, b := range ids {
				want, _ := w.Similarity(a, b)
				if m[i][j] != want {
					t.Errorf("m[%s][%s] = %v, want %v", a, b, m[i][j], want)
				}
			}
		}
	}
}

func TestMatrix_Cancelled(t *testing.T) {
	w := newToyWang(t, 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := w.Matrix(ctx, []string{"GO:0000004", "GO:0000005"}, 1); !errors.Is(err, context.Canceled) {
		t.Errorf("Matrix on cancelled context error = %v, want context.Canceled", err)
	}
}

func TestConcurrentSimilarity(t *testing.T) {
	w := newToyWang(t, graph.AllRelations())
	want, _ := newToyWang(t, graph.AllRelations()).Similarity("GO:0000009", "GO:0000010")

	var wg sync.WaitGroup
	results := make([]float64, 16)
	for i := range results {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], _ = w.Similarity("GO:0000009", "GO:0000010")
		}()
	}
	wg.Wait()
	for i, got := range results {
		if got != want {
			t.Errorf("goroutine %d got %v, want %v", i, got, want)
		}
	}
}

func TestErrors(t *testing.T) {
	w := newToyWang(t, 0)
	if _, err := w.Similarity("GO:0000001", "GO:9999999"); !errors.Is(err, goerr.ErrUnknownTerm) {
		t.Errorf("unknown term error = %v", err)
	}
	if err := w.Add("GO:0000001", "GO:9999999"); !errors.Is(err, goerr.ErrUnknownTerm) {
		t.Errorf("Add unknown term error = %v", err)
	}
	if _, err := w.Matrix(context.Background(), []string{"GO:9999999"}, 0); !errors.Is(err, goerr.ErrUnknownTerm) {
		t.Errorf("Matrix unknown term error = %v", err)
	}

	src := testutil.ToySource()
	src.RelationsLoaded = false
	e := closure.New(testutil.MustBuild(t, src), closure.Options{})
	if _, err := NewWang(e, graph.NewRelationSet(graph.PartOf), Options{}); !errors.Is(err, goerr.ErrIncompleteGraph) {
		t.Errorf("NewWang without relations error = %v", err)
	}
}

func TestWeightsValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Weights)
		wantErr bool
	}{
		{"defaults", func(*Weights) {}, false},
		{"one is allowed", func(w *Weights) { w.IsA = 1 }, false},
		{"zero is_a", func(w *Weights) { w.IsA = 0 }, true},
		{"negative part_of", func(w *Weights) { w.PartOf = -0.1 }, true},
		{"above one", func(w *Weights) { w.NegativelyRegulates = 1.5 }, true},
		{"NaN", func(w *Weights) { w.Regulates = math.NaN() }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := DefaultWeights()
			tt.mutate(&w)
			err := w.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, goerr.ErrInvalidConfig) {
				t.Errorf("Validate() error code = %v, want INVALID_CONFIG", goerr.CodeOf(err))
			}
		})
	}
}

func toyScorer(t *testing.T) *termscore.Scorer {
	t.Helper()
	e := closure.New(testutil.ToyGraph(t), closure.Options{})
	tc, err := termscore.NewTermCounts(e, map[string][]string{
		"geneA": {"GO:0000008"},
		"geneB": {"GO:0000011"},
		"geneC": {"GO:0000004", "GO:0000006"},
	}, 0)
	if err != nil {
		t.Fatal(err)
	}
	return termscore.New(e, tc, 0)
}

func TestDeepestCommonAncestor(t *testing.T) {
	e := closure.New(testutil.ToyGraph(t), closure.Options{})
	tests := []struct {
		ids  []string
		rels graph.RelationSet
		want string
	}{
		{[]string{"GO:0000006", "GO:0000007"}, 0, "GO:0000004"},
		{[]string{"GO:0000008", "GO:0000010"}, 0, "GO:0000005"},
		{[]string{"GO:0000004", "GO:0000005"}, 0, "GO:0000002"},
		{[]string{"GO:0000009", "GO:0000008"}, 0, "GO:0000002"},
		{[]string{"GO:0000009", "GO:0000008"}, graph.NewRelationSet(graph.PartOf), "GO:0000008"},
		{[]string{"GO:0000007"}, 0, "GO:0000007"},
		{[]string{"GO:0000006", "GO:0000008", "GO:0000003"}, 0, "GO:0000001"},
	}
	for _, tt := range tests {
		got, err := DeepestCommonAncestor(e, tt.rels, tt.ids...)
		if err != nil {
			t.Fatalf("DeepestCommonAncestor(%v) error: %v", tt.ids, err)
		}
		if got != tt.want {
			t.Errorf("DeepestCommonAncestor(%v, %s) = %s, want %s", tt.ids, tt.rels, got, tt.want)
		}
	}
	if got, err := DeepestCommonAncestor(e, 0); err != nil || got != "" {
		t.Errorf("DeepestCommonAncestor() = %q, %v, want empty", got, err)
	}
}

func TestResnikAndLin(t *testing.T) {
	s := toyScorer(t)
	ln15 := math.Log(1.5)
	tests := []struct {
		a, b   string
		resnik float64
		lin    float64
	}{
		{"GO:0000006", "GO:0000007", ln15, ln15 / math.Log(3)},
		{"GO:0000008", "GO:0000010", ln15, ln15 / math.Log(3)},
		{"GO:0000004", "GO:0000005", 0, 0},
		{"GO:0000001", "GO:0000001", 0, 0},
	}
	for _, tt := range tests {
		r, err := Resnik(s, tt.a, tt.b)
		if err != nil {
			t.Fatalf("Resnik(%s, %s) error: %v", tt.a, tt.b, err)
		}
		if math.Abs(r-tt.resnik) > eps {
			t.Errorf("Resnik(%s, %s) = %v, want %v", tt.a, tt.b, r, tt.resnik)
		}
		l, err := Lin(s, tt.a, tt.b)
		if err != nil {
			t.Fatalf("Lin(%s, %s) error: %v", tt.a, tt.b, err)
		}
		if math.Abs(l-tt.lin) > eps {
			t.Errorf("Lin(%s, %s) = %v, want %v", tt.a, tt.b, l, tt.lin)
		}
	}
	if _, err := Resnik(s, "GO:0000001", "GO:9999999"); !errors.Is(err, goerr.ErrUnknownTerm) {
		t.Errorf("Resnik unknown term error = %v", err)
	}
}
