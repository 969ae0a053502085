// Package closure computes ancestor and descendant closures over a term
// graph for any subset of relation types, memoizing each closure once.
package closure

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"goatk/internal/errors"
	"goatk/internal/graph"
	"goatk/internal/slogutil"
)

// Direction selects the adjacency a traversal follows.
type Direction uint8

const (
	// Up follows parents and yields ancestors.
	Up Direction = iota
	// Down follows children and yields descendants.
	Down
)

func (d Direction) String() string {
	if d == Down {
		return "descendants"
	}
	return "ancestors"
}

type cacheKey struct {
	node graph.NodeID
	rels graph.RelationSet
	dir  Direction
}

// Stats reports cache activity since construction or the last Reset.
type Stats struct {
	Hits     int64 `json:"hits"`
	Misses   int64 `json:"misses"`
	Computed int64 `json:"computed"`
	Entries  int   `json:"entries"`
}

// Options configures an Engine.
type Options struct {
	Logger *slog.Logger
}

// Engine answers closure queries against one graph. Every closure is
// published to a write-once cache the first time it is materialized,
// including intermediate closures met during a traversal. Engine is safe
// for concurrent use.
type Engine struct {
	g      *graph.Graph
	logger *slog.Logger

	mu     sync.RWMutex
	cache  map[cacheKey]*Set
	depths map[graph.RelationSet][]int

	hits     atomic.Int64
	misses   atomic.Int64
	computed atomic.Int64
}

// New creates an engine over g.
func New(g *graph.Graph, opts Options) *Engine {
	logger := opts.Logger
	if logger == nil {
		logger = slogutil.NewDiscardLogger()
	}
	return &Engine{
		g:      g,
		logger: logger,
		cache:  make(map[cacheKey]*Set),
		depths: make(map[graph.RelationSet][]int),
	}
}

// Graph returns the graph the engine traverses.
func (e *Engine) Graph() *graph.Graph {
	return e.g
}

// Ancestors returns every term reachable from id through is_a and the
// relations in rels. The term itself is never included.
func (e *Engine) Ancestors(id string, rels graph.RelationSet) (*Set, error) {
	return e.closureByID(id, rels, Up)
}

// Descendants returns every term that reaches id through is_a and the
// relations in rels. The term itself is never included.
func (e *Engine) Descendants(id string, rels graph.RelationSet) (*Set, error) {
	return e.closureByID(id, rels, Down)
}

// AncestorsOf is Ancestors addressed by node.
func (e *Engine) AncestorsOf(n graph.NodeID, rels graph.RelationSet) (*Set, error) {
	return e.Closure(n, rels, Up)
}

// DescendantsOf is Descendants addressed by node.
func (e *Engine) DescendantsOf(n graph.NodeID, rels graph.RelationSet) (*Set, error) {
	return e.Closure(n, rels, Down)
}

func (e *Engine) closureByID(id string, rels graph.RelationSet, dir Direction) (*Set, error) {
	n, err := e.g.Lookup(id)
	if err != nil {
		return nil, err
	}
	return e.Closure(n, rels, dir)
}

// Closure returns the closure of n in direction dir. Repeated calls with the
// same arguments return the same *Set without traversing again.
func (e *Engine) Closure(n graph.NodeID, rels graph.RelationSet, dir Direction) (*Set, error) {
	if n < 0 || int(n) >= e.g.Len() {
		return nil, errors.Newf(errors.UnknownTerm, "node %d is not part of the graph", n)
	}
	if err := e.g.CheckRelations(rels); err != nil {
		return nil, err
	}

	key := cacheKey{node: n, rels: rels, dir: dir}
	if s, ok := e.cached(key); ok {
		e.hits.Add(1)
		return s, nil
	}
	e.misses.Add(1)

	local, err := e.traverse(n, rels, dir)
	if err != nil {
		return nil, err
	}
	s, published := e.publish(key, local)
	e.logger.Debug("Closure computed",
		"term", e.g.ID(n),
		"direction", dir.String(),
		"relations", rels.String(),
		"size", s.Len(),
		"published", published,
	)
	return s, nil
}

func (e *Engine) cached(key cacheKey) (*Set, bool) {
	e.mu.RLock()
	s, ok := e.cache[key]
	e.mu.RUnlock()
	return s, ok
}

// publish stores every closure found by one traversal. An entry written by
// a concurrent traversal is kept, so the first writer wins and all callers
// see the same *Set.
func (e *Engine) publish(root cacheKey, local map[graph.NodeID]*Set) (*Set, int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	published := 0
	for n, s := range local {
		key := cacheKey{node: n, rels: root.rels, dir: root.dir}
		if _, ok := e.cache[key]; ok {
			continue
		}
		e.cache[key] = s
		published++
	}
	e.computed.Add(int64(published))
	return e.cache[root], published
}

type frame struct {
	node graph.NodeID
	nbrs []graph.NodeID
	next int
}

const (
	white uint8 = iota
	grey
	black
)

// traverse computes the closure of root with an explicit stack. Nodes are
// grey while on the stack; meeting a grey node again is a cycle. Each
// finished node's closure is the union of its neighbours and their
// closures, taken from the cache or from this traversal.
func (e *Engine) traverse(root graph.NodeID, rels graph.RelationSet, dir Direction) (map[graph.NodeID]*Set, error) {
	local := make(map[graph.NodeID]*Set)
	colour := make(map[graph.NodeID]uint8)

	closureOf := func(n graph.NodeID) (*Set, bool) {
		if s, ok := local[n]; ok {
			return s, true
		}
		return e.cached(cacheKey{node: n, rels: rels, dir: dir})
	}

	stack := []frame{e.newFrame(root, rels, dir)}
	colour[root] = grey

	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.next < len(top.nbrs) {
			nb := top.nbrs[top.next]
			top.next++
			if _, done := closureOf(nb); done {
				continue
			}
			switch colour[nb] {
			case grey:
				return nil, e.cycleError(stack, nb, rels, dir)
			case black:
				continue
			}
			colour[nb] = grey
			stack = append(stack, e.newFrame(nb, rels, dir))
			continue
		}

		var acc []graph.NodeID
		for _, nb := range top.nbrs {
			acc = append(acc, nb)
			if s, ok := closureOf(nb); ok {
				acc = append(acc, s.nodes...)
			}
		}
		local[top.node] = newSet(e.g, graph.SortUnique(acc))
		colour[top.node] = black
		stack = stack[:len(stack)-1]
	}
	return local, nil
}

func (e *Engine) newFrame(n graph.NodeID, rels graph.RelationSet, dir Direction) frame {
	var nbrs []graph.NodeID
	if dir == Up {
		nbrs = e.g.AppendParents(nil, n, rels)
	} else {
		nbrs = e.g.AppendChildren(nil, n, rels)
	}
	return frame{node: n, nbrs: graph.SortUnique(nbrs)}
}

// cycleError reports the stack segment from the repeated node to the top,
// closed by the repeated node, as a path in traversal order.
func (e *Engine) cycleError(stack []frame, repeat graph.NodeID, rels graph.RelationSet, dir Direction) error {
	start := 0
	for i := range stack {
		if stack[i].node == repeat {
			start = i
			break
		}
	}
	path := make([]string, 0, len(stack)-start+1)
	for _, f := range stack[start:] {
		path = append(path, e.g.ID(f.node))
	}
	path = append(path, e.g.ID(repeat))
	e.logger.Warn("Relation cycle detected",
		"direction", dir.String(),
		"relations", rels.String(),
		"length", len(path)-1,
	)
	return errors.NewRelationCycle(path, rels.String())
}

// Stats returns a snapshot of cache counters.
func (e *Engine) Stats() Stats {
	e.mu.RLock()
	entries := len(e.cache)
	e.mu.RUnlock()
	return Stats{
		Hits:     e.hits.Load(),
		Misses:   e.misses.Load(),
		Computed: e.computed.Load(),
		Entries:  entries,
	}
}

// Reset drops every cached closure and depth table and zeroes the counters.
func (e *Engine) Reset() {
	e.mu.Lock()
	e.cache = make(map[cacheKey]*Set)
	e.depths = make(map[graph.RelationSet][]int)
	e.mu.Unlock()
	e.hits.Store(0)
	e.misses.Store(0)
	e.computed.Store(0)
}
