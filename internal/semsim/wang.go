// Package semsim computes semantic similarity between terms: Wang's
// DAG-based measure and the annotation-based Resnik and Lin measures.
package semsim

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"goatk/internal/closure"
	"goatk/internal/graph"
	"goatk/internal/slogutil"
)

// Options configures a Wang session.
type Options struct {
	// Weights defaults to DefaultWeights when zero.
	Weights Weights
	Logger  *slog.Logger
}

// dag is one term's weighted ancestor sub-graph after propagation.
type dag struct {
	nodes   []graph.NodeID
	svalues map[graph.NodeID]float64
	sv      float64
}

// Wang is a similarity session over one relation subset. Per-term DAGs are
// built on first use and kept for the life of the session. A Wang is safe
// for concurrent use.
type Wang struct {
	engine  *closure.Engine
	rels    graph.RelationSet
	weights Weights
	logger  *slog.Logger

	mu   sync.Mutex
	dags map[graph.NodeID]*dag
}

// NewWang creates a session. It fails when the weights are out of range or
// the graph lacks the requested relations.
func NewWang(engine *closure.Engine, rels graph.RelationSet, opts Options) (*Wang, error) {
	if err := engine.Graph().CheckRelations(rels); err != nil {
		return nil, err
	}
	weights := opts.Weights
	if weights == (Weights{}) {
		weights = DefaultWeights()
	}
	if err := weights.Validate(); err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = slogutil.NewDiscardLogger()
	}
	return &Wang{
		engine:  engine,
		rels:    rels,
		weights: weights,
		logger:  logger,
		dags:    make(map[graph.NodeID]*dag),
	}, nil
}

// Relations returns the session's relation subset.
func (w *Wang) Relations() graph.RelationSet {
	return w.rels
}

// Weights returns the session's edge weights.
func (w *Wang) Weights() Weights {
	return w.weights
}

// Add builds the DAGs of ids ahead of the similarity queries.
func (w *Wang) Add(ids ...string) error {
	g := w.engine.Graph()
	for _, id := range ids {
		n, err := g.Lookup(id)
		if err != nil {
			return err
		}
		if _, err := w.dagOf(n); err != nil {
			return err
		}
	}
	return nil
}

// SValues returns S(id, t) for every t in id's ancestors plus id itself.
func (w *Wang) SValues(id string) (map[string]float64, error) {
	d, err := w.dagByID(id)
	if err != nil {
		return nil, err
	}
	g := w.engine.Graph()
	out := make(map[string]float64, len(d.svalues))
	for n, s := range d.svalues {
		out[g.ID(n)] = s
	}
	return out, nil
}

// SemanticValue returns SV(id), the sum of its S-values.
func (w *Wang) SemanticValue(id string) (float64, error) {
	d, err := w.dagByID(id)
	if err != nil {
		return 0, err
	}
	return d.sv, nil
}

// Similarity returns Wang's similarity of a and b, in [0, 1]. Terms with no
// common ancestor score 0.
func (w *Wang) Similarity(a, b string) (float64, error) {
	g := w.engine.Graph()
	na, err := g.Lookup(a)
	if err != nil {
		return 0, err
	}
	nb, err := g.Lookup(b)
	if err != nil {
		return 0, err
	}
	return w.similarity(na, nb)
}

func (w *Wang) similarity(a, b graph.NodeID) (float64, error) {
	if a == b {
		return 1, nil
	}
	da, err := w.dagOf(a)
	if err != nil {
		return 0, err
	}
	db, err := w.dagOf(b)
	if err != nil {
		return 0, err
	}
	var shared float64
	for _, t := range da.nodes {
		if sb, ok := db.svalues[t]; ok {
			shared += da.svalues[t] + sb
		}
	}
	return shared / (da.sv + db.sv), nil
}

// Matrix returns the symmetric similarity matrix of ids, row and column
// order following ids. Rows are computed by up to workers goroutines; zero
// or less means one per row.
func (w *Wang) Matrix(ctx context.Context, ids []string, workers int) ([][]float64, error) {
	g := w.engine.Graph()
	nodes := make([]graph.NodeID, len(ids))
	for i, id := range ids {
		n, err := g.Lookup(id)
		if err != nil {
			return nil, err
		}
		nodes[i] = n
	}

	m := make([][]float64, len(nodes))
	for i := range m {
		m[i] = make([]float64, len(nodes))
	}

	eg, egctx := errgroup.WithContext(ctx)
	if workers > 0 {
		eg.SetLimit(workers)
	}
	for i := range nodes {
		i := i
		eg.Go(func() error {
			for j := i; j < len(nodes); j++ {
				if err := egctx.Err(); err != nil {
					return err
				}
				s, err := w.similarity(nodes[i], nodes[j])
				if err != nil {
					return err
				}
				m[i][j] = s
				m[j][i] = s
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	w.logger.Debug("Similarity matrix computed",
		"terms", len(nodes),
		"workers", workers,
		"relations", w.rels.String(),
	)
	return m, nil
}

func (w *Wang) dagByID(id string) (*dag, error) {
	n, err := w.engine.Graph().Lookup(id)
	if err != nil {
		return nil, err
	}
	return w.dagOf(n)
}

func (w *Wang) dagOf(n graph.NodeID) (*dag, error) {
	w.mu.Lock()
	d, ok := w.dags[n]
	w.mu.Unlock()
	if ok {
		return d, nil
	}

	d, err := w.build(n)
	if err != nil {
		return nil, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if prev, ok := w.dags[n]; ok {
		return prev, nil
	}
	w.dags[n] = d
	return d, nil
}

// build propagates S-values from x up through its ancestors. Ancestors are
// visited by decreasing depth over is_a plus the session relations, so each
// term's children inside the set are final before the term is scored.
func (w *Wang) build(x graph.NodeID) (*dag, error) {
	anc, err := w.engine.AncestorsOf(x, w.rels)
	if err != nil {
		return nil, err
	}
	set := anc.With(x)

	depth := make(map[graph.NodeID]int, set.Len())
	for _, n := range set.Nodes() {
		d, err := w.engine.RelDepthOf(n, w.rels)
		if err != nil {
			return nil, err
		}
		depth[n] = d
	}
	order := append([]graph.NodeID(nil), set.Nodes()...)
	sort.Slice(order, func(i, j int) bool {
		if depth[order[i]] != depth[order[j]] {
			return depth[order[i]] > depth[order[j]]
		}
		return order[i] < order[j]
	})

	g := w.engine.Graph()
	svalues := map[graph.NodeID]float64{x: 1}
	for _, t := range order {
		if t == x {
			continue
		}
		best := 0.0
		for _, c := range g.IsAChildren(t) {
			if s, ok := svalues[c]; ok && w.weights.IsA*s > best {
				best = w.weights.IsA * s
			}
		}
		for _, r := range w.rels.Types() {
			wr := w.weights.Of(r)
			for _, c := range g.RelationChildren(t, r) {
				if s, ok := svalues[c]; ok && wr*s > best {
					best = wr * s
				}
			}
		}
		if best > 0 {
			svalues[t] = best
		}
	}

	d := &dag{svalues: svalues}
	for _, n := range set.Nodes() {
		if s, ok := svalues[n]; ok {
			d.nodes = append(d.nodes, n)
			d.sv += s
		}
	}
	return d, nil
}
