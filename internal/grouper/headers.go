package grouper

import (
	"goatk/internal/closure"
	"goatk/internal/errors"
	"goatk/internal/graph"
)

// DefaultSection receives used headers that no declared section lists.
const DefaultSection = "Misc."

// Section is a named, ordered list of header ids.
type Section struct {
	Name    string   `json:"name" yaml:"name" toml:"name"`
	Headers []string `json:"headers" yaml:"headers" toml:"headers"`
}

// HeaderOptions describes where headers come from.
type HeaderOptions struct {
	// Defaults are the fallback headers, usually DefaultHeaders.
	Defaults []string
	// User are extra headers outside any section.
	User []string
	// Sections are declared in display order.
	Sections []Section
	// OmitDefaults drops Defaults when User or Sections supply headers.
	// With neither, Defaults are always used.
	OmitDefaults bool
}

type section struct {
	name    string
	headers []graph.NodeID
}

// HeaderSet is the flattened, canonical header collection plus its
// sections.
type HeaderSet struct {
	g         *graph.Graph
	set       *closure.Set
	sections  []section
	inSection map[graph.NodeID][]string
}

// DefaultHeaders returns every non-obsolete depth-0 and depth-1 term plus
// the given slim ids, canonicalised and sorted.
func DefaultHeaders(g *graph.Graph, slims []string) ([]string, error) {
	var nodes []graph.NodeID
	for _, t := range g.TermsAtDepth(0) {
		nodes = append(nodes, t.Node())
	}
	for _, t := range g.TermsAtDepth(1) {
		nodes = append(nodes, t.Node())
	}
	extra, err := lookupAll(g, slims)
	if err != nil {
		return nil, err
	}
	nodes = append(nodes, extra...)
	return g.IDs(graph.SortUnique(nodes)), nil
}

// NewHeaderSet validates and canonicalises every header id. Sections that
// share a name are merged; repeated headers inside a section keep their
// first position.
func NewHeaderSet(g *graph.Graph, opts HeaderOptions) (*HeaderSet, error) {
	h := &HeaderSet{g: g, inSection: make(map[graph.NodeID][]string)}

	byName := make(map[string]int)
	for _, sec := range opts.Sections {
		nodes, err := lookupAll(g, sec.Headers)
		if err != nil {
			return nil, err
		}
		idx, ok := byName[sec.Name]
		if !ok {
			idx = len(h.sections)
			byName[sec.Name] = idx
			h.sections = append(h.sections, section{name: sec.Name})
		}
		h.sections[idx].headers = appendUnique(h.sections[idx].headers, nodes)
	}
	for _, sec := range h.sections {
		for _, n := range sec.headers {
			h.inSection[n] = append(h.inSection[n], sec.name)
		}
	}

	user, err := lookupAll(g, opts.User)
	if err != nil {
		return nil, err
	}
	defaults, err := lookupAll(g, opts.Defaults)
	if err != nil {
		return nil, err
	}

	var all []graph.NodeID
	if len(user) == 0 && len(h.sections) == 0 {
		all = defaults
	} else {
		all = append(all, user...)
		for _, sec := range h.sections {
			all = append(all, sec.headers...)
		}
		if !opts.OmitDefaults {
			all = append(all, defaults...)
		}
	}
	h.set = closure.NewSet(g, all...)
	return h, nil
}

// Len returns the number of distinct headers.
func (h *HeaderSet) Len() int {
	return h.set.Len()
}

// IDs returns every header id, sorted.
func (h *HeaderSet) IDs() []string {
	return h.set.IDs()
}

// Contains reports whether id (or the term it aliases) is a header.
func (h *HeaderSet) Contains(id string) bool {
	return h.set.ContainsID(id)
}

// Set returns the headers as a closure set.
func (h *HeaderSet) Set() *closure.Set {
	return h.set
}

// Sections returns the canonical declared sections in order.
func (h *HeaderSet) Sections() []Section {
	out := make([]Section, len(h.sections))
	for i, sec := range h.sections {
		out[i] = Section{Name: sec.name, Headers: h.g.IDs(sec.headers)}
	}
	return out
}

// SectionsOf returns the declared sections listing id, or the default
// section when none does.
func (h *HeaderSet) SectionsOf(id string) []string {
	n, err := h.g.Lookup(id)
	if err != nil {
		return nil
	}
	return h.sectionsOf(n)
}

func (h *HeaderSet) sectionsOf(n graph.NodeID) []string {
	if names, ok := h.inSection[n]; ok {
		return names
	}
	return []string{DefaultSection}
}

// SectionHeaders returns the headers listed in any declared section, sorted.
func (h *HeaderSet) SectionHeaders() []string {
	var nodes []graph.NodeID
	for n := range h.inSection {
		nodes = append(nodes, n)
	}
	return h.g.IDs(graph.SortUnique(nodes))
}

func lookupAll(g *graph.Graph, ids []string) ([]graph.NodeID, error) {
	nodes := make([]graph.NodeID, 0, len(ids))
	var missing []string
	for _, id := range ids {
		n, err := g.Lookup(id)
		if err != nil {
			missing = append(missing, id)
			continue
		}
		nodes = append(nodes, n)
	}
	if len(missing) > 0 {
		return nil, errors.NewUnknownTerms(missing)
	}
	return nodes, nil
}

func appendUnique(dst, add []graph.NodeID) []graph.NodeID {
	seen := make(map[graph.NodeID]bool, len(dst)+len(add))
	for _, n := range dst {
		seen[n] = true
	}
	for _, n := range add {
		if !seen[n] {
			seen[n] = true
			dst = append(dst, n)
		}
	}
	return dst
}
