// Package termscore scores term specificity: descendant counts from the
// closure engine, information content from annotation frequencies, and the
// branch letters used in compact summaries.
package termscore

import (
	"math"
	"sort"
	"sync"

	"goatk/internal/closure"
	"goatk/internal/graph"
)

// AnnotationSource supplies annotation counts. Counts are per canonical id;
// totals are per namespace.
type AnnotationSource interface {
	AnnotationCount(id string) int
	TotalAnnotations(ns graph.Namespace) int
}

// Scorer derives per-term scores. A nil AnnotationSource is valid and makes
// every information content zero.
type Scorer struct {
	engine      *closure.Engine
	annotations AnnotationSource
	rels        graph.RelationSet

	lettersOnce sync.Once
	letters     map[graph.NodeID]byte
	lettersErr  error
}

// New creates a scorer. rels is the relation subset used for descendant
// counts inside branch letters and grouping.
func New(engine *closure.Engine, annotations AnnotationSource, rels graph.RelationSet) *Scorer {
	return &Scorer{engine: engine, annotations: annotations, rels: rels}
}

// Engine returns the closure engine the scorer reads from.
func (s *Scorer) Engine() *closure.Engine {
	return s.engine
}

// Relations returns the scorer's default relation subset.
func (s *Scorer) Relations() graph.RelationSet {
	return s.rels
}

// DescendantCount returns |Descendants(id, rels)|.
func (s *Scorer) DescendantCount(id string, rels graph.RelationSet) (int, error) {
	d, err := s.engine.Descendants(id, rels)
	if err != nil {
		return 0, err
	}
	return d.Len(), nil
}

// DescendantCountOf is DescendantCount addressed by node.
func (s *Scorer) DescendantCountOf(n graph.NodeID, rels graph.RelationSet) (int, error) {
	d, err := s.engine.DescendantsOf(n, rels)
	if err != nil {
		return 0, err
	}
	return d.Len(), nil
}

// AnnotationFrequency returns count(id) / total(namespace of id), or 0 when
// either is unavailable.
func (s *Scorer) AnnotationFrequency(id string) (float64, error) {
	t, err := s.engine.Graph().Term(id)
	if err != nil {
		return 0, err
	}
	return s.frequency(t), nil
}

func (s *Scorer) frequency(t *graph.Term) float64 {
	if s.annotations == nil {
		return 0
	}
	total := s.annotations.TotalAnnotations(t.Namespace)
	if total <= 0 {
		return 0
	}
	return float64(s.annotations.AnnotationCount(t.ID)) / float64(total)
}

// InformationContent returns -ln(frequency), or 0 when the frequency is 0.
func (s *Scorer) InformationContent(id string) (float64, error) {
	t, err := s.engine.Graph().Term(id)
	if err != nil {
		return 0, err
	}
	return s.ic(t), nil
}

// InformationContentOf is InformationContent addressed by node.
func (s *Scorer) InformationContentOf(n graph.NodeID) float64 {
	return s.ic(s.engine.Graph().Node(n))
}

func (s *Scorer) ic(t *graph.Term) float64 {
	freq := s.frequency(t)
	if freq <= 0 {
		return 0
	}
	return -math.Log(freq)
}

const letterAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// BranchLetter pairs a depth-1 term with its letter.
type BranchLetter struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Namespace   graph.Namespace `json:"namespace"`
	Letter      string          `json:"letter"`
	Descendants int             `json:"descendants"`
}

// BranchLetters labels the depth-1 non-obsolete terms of each namespace,
// largest descendant count first, ties by id. Terms past the 52nd of a
// namespace get an empty letter. Output is ordered by namespace then letter.
func (s *Scorer) BranchLetters() ([]BranchLetter, error) {
	g := s.engine.Graph()
	byNS := make(map[graph.Namespace][]BranchLetter)
	for _, t := range g.TermsAtDepth(1) {
		n, err := s.DescendantCountOf(t.Node(), s.rels)
		if err != nil {
			return nil, err
		}
		byNS[t.Namespace] = append(byNS[t.Namespace], BranchLetter{
			ID:          t.ID,
			Name:        t.Name,
			Namespace:   t.Namespace,
			Descendants: n,
		})
	}

	var out []BranchLetter
	for _, ns := range g.Namespaces() {
		terms := byNS[ns]
		sort.Slice(terms, func(i, j int) bool {
			if terms[i].Descendants != terms[j].Descendants {
				return terms[i].Descendants > terms[j].Descendants
			}
			return terms[i].ID < terms[j].ID
		})
		for i := range terms {
			if i < len(letterAlphabet) {
				terms[i].Letter = letterAlphabet[i : i+1]
			}
		}
		out = append(out, terms...)
	}
	return out, nil
}

func (s *Scorer) letterTable() (map[graph.NodeID]byte, error) {
	s.lettersOnce.Do(func() {
		letters, err := s.BranchLetters()
		if err != nil {
			s.lettersErr = err
			return
		}
		g := s.engine.Graph()
		s.letters = make(map[graph.NodeID]byte, len(letters))
		for _, bl := range letters {
			if bl.Letter == "" {
				continue
			}
			n, _ := g.Lookup(bl.ID)
			s.letters[n] = bl.Letter[0]
		}
	})
	return s.letters, s.lettersErr
}

// Letter returns the branch letter of a depth-1 term, or "" for any other
// term.
func (s *Scorer) Letter(id string) (string, error) {
	n, err := s.engine.Graph().Lookup(id)
	if err != nil {
		return "", err
	}
	table, err := s.letterTable()
	if err != nil {
		return "", err
	}
	if c, ok := table[n]; ok {
		return string(c), nil
	}
	return "", nil
}

// D1String returns the sorted letters of every depth-1 term among id and its
// ancestors.
func (s *Scorer) D1String(id string) (string, error) {
	n, err := s.engine.Graph().Lookup(id)
	if err != nil {
		return "", err
	}
	table, err := s.letterTable()
	if err != nil {
		return "", err
	}
	anc, err := s.engine.AncestorsOf(n, s.rels)
	if err != nil {
		return "", err
	}
	var letters []byte
	for _, a := range anc.With(n).Nodes() {
		if c, ok := table[a]; ok {
			letters = append(letters, c)
		}
	}
	sort.Slice(letters, func(i, j int) bool { return letters[i] < letters[j] })
	return string(letters), nil
}
