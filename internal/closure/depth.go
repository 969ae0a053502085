package closure

import (
	"sort"
	"strings"

	"goatk/internal/errors"
	"goatk/internal/graph"
)

// RelDepth returns the longest path from a root to id over is_a and rels.
// With no relations it equals the term's depth.
func (e *Engine) RelDepth(id string, rels graph.RelationSet) (int, error) {
	n, err := e.g.Lookup(id)
	if err != nil {
		return 0, err
	}
	return e.RelDepthOf(n, rels)
}

// RelDepthOf is RelDepth addressed by node.
func (e *Engine) RelDepthOf(n graph.NodeID, rels graph.RelationSet) (int, error) {
	if rels.IsEmpty() {
		return e.g.Node(n).Depth, nil
	}
	depths, err := e.relDepths(rels)
	if err != nil {
		return 0, err
	}
	return depths[n], nil
}

// relDepths computes the depth table for rels once with a Kahn sort over
// the combined adjacency.
func (e *Engine) relDepths(rels graph.RelationSet) ([]int, error) {
	if err := e.g.CheckRelations(rels); err != nil {
		return nil, err
	}
	e.mu.RLock()
	depths, ok := e.depths[rels]
	e.mu.RUnlock()
	if ok {
		return depths, nil
	}

	n := e.g.Len()
	depths = make([]int, n)
	indeg := make([]int, n)
	var buf []graph.NodeID
	for i := 0; i < n; i++ {
		buf = graph.SortUnique(e.g.AppendParents(buf[:0], graph.NodeID(i), rels))
		indeg[i] = len(buf)
	}
	queue := make([]graph.NodeID, 0, n)
	for i, d := range indeg {
		if d == 0 {
			queue = append(queue, graph.NodeID(i))
		}
	}
	processed := 0
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		processed++
		buf = graph.SortUnique(e.g.AppendChildren(buf[:0], cur, rels))
		for _, c := range buf {
			if depths[cur]+1 > depths[c] {
				depths[c] = depths[cur] + 1
			}
			indeg[c]--
			if indeg[c] == 0 {
				queue = append(queue, c)
			}
		}
	}
	if processed != n {
		for i, d := range indeg {
			if d > 0 {
				// The closure traversal names the cycle path.
				if _, err := e.AncestorsOf(graph.NodeID(i), rels); err != nil {
					return nil, err
				}
				return nil, errors.NewRelationCycle([]string{e.g.ID(graph.NodeID(i))}, rels.String())
			}
		}
	}

	e.mu.Lock()
	if existing, ok := e.depths[rels]; ok {
		depths = existing
	} else {
		e.depths[rels] = depths
	}
	e.mu.Unlock()
	return depths, nil
}

// PathsToTop returns every is_a path from a root down to id, each path
// listed root first. Paths are sorted lexically by their joined ids.
func (e *Engine) PathsToTop(id string) ([][]string, error) {
	start, err := e.g.Lookup(id)
	if err != nil {
		return nil, err
	}

	var paths [][]string
	stack := [][]graph.NodeID{{start}}
	for len(stack) > 0 {
		path := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		last := path[len(path)-1]
		parents := e.g.IsAParents(last)
		if len(parents) == 0 {
			ids := make([]string, len(path))
			for i, n := range path {
				ids[len(path)-1-i] = e.g.ID(n)
			}
			paths = append(paths, ids)
			continue
		}
		for _, p := range parents {
			next := make([]graph.NodeID, len(path), len(path)+1)
			copy(next, path)
			stack = append(stack, append(next, p))
		}
	}
	sort.Slice(paths, func(i, j int) bool {
		return strings.Join(paths[i], " ") < strings.Join(paths[j], " ")
	})
	return paths, nil
}

// DescendantCounts returns the descendant count of every canonical term.
func (e *Engine) DescendantCounts(rels graph.RelationSet) (map[string]int, error) {
	if err := e.g.CheckRelations(rels); err != nil {
		return nil, err
	}
	counts := make(map[string]int, e.g.Len())
	for i := 0; i < e.g.Len(); i++ {
		s, err := e.DescendantsOf(graph.NodeID(i), rels)
		if err != nil {
			return nil, err
		}
		counts[e.g.ID(graph.NodeID(i))] = s.Len()
	}
	return counts, nil
}
