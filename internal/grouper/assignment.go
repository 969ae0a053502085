package grouper

import (
	"sort"

	"goatk/internal/graph"
)

// Group is one header with the members placed under it.
type Group struct {
	Header string `json:"header" yaml:"header"`
	// HeaderIsMember is set when the header was itself a member.
	HeaderIsMember bool     `json:"headerIsMember" yaml:"headerIsMember"`
	Members        []string `json:"members" yaml:"members"`
}

// Placement is the header chosen for one member.
type Placement struct {
	Member string `json:"member" yaml:"member"`
	Header string `json:"header" yaml:"header"`
	Self   bool   `json:"self" yaml:"self"`
}

// SectionView is a section restricted to the headers actually used.
type SectionView struct {
	Name    string   `json:"name" yaml:"name"`
	Headers []string `json:"headers" yaml:"headers"`
}

// Assignment is the result of one Assign call. It is immutable.
type Assignment struct {
	g        *graph.Graph
	headers  *HeaderSet
	rels     graph.RelationSet
	tieBreak TieBreak

	members  []graph.NodeID
	headerOf map[graph.NodeID]graph.NodeID
	groups   map[graph.NodeID][]graph.NodeID
	selfSet  map[graph.NodeID]bool
	self     []graph.NodeID
	used     []graph.NodeID
}

func newAssignment(g *graph.Graph, headers *HeaderSet, rels graph.RelationSet, tb TieBreak) *Assignment {
	return &Assignment{
		g:        g,
		headers:  headers,
		rels:     rels,
		tieBreak: tb,
		headerOf: make(map[graph.NodeID]graph.NodeID),
		groups:   make(map[graph.NodeID][]graph.NodeID),
		selfSet:  make(map[graph.NodeID]bool),
	}
}

func (a *Assignment) place(m, h graph.NodeID) {
	a.members = append(a.members, m)
	a.headerOf[m] = h
	a.groups[h] = append(a.groups[h], m)
}

func (a *Assignment) placeSelf(m graph.NodeID) {
	a.members = append(a.members, m)
	a.headerOf[m] = m
	a.selfSet[m] = true
	if _, ok := a.groups[m]; !ok {
		a.groups[m] = nil
	}
}

func (a *Assignment) finish() {
	sort.Slice(a.members, func(i, j int) bool { return a.members[i] < a.members[j] })
	for h, ms := range a.groups {
		a.used = append(a.used, h)
		sort.Slice(ms, func(i, j int) bool { return ms[i] < ms[j] })
	}
	sort.Slice(a.used, func(i, j int) bool { return a.used[i] < a.used[j] })
	for n := range a.selfSet {
		a.self = append(a.self, n)
	}
	sort.Slice(a.self, func(i, j int) bool { return a.self[i] < a.self[j] })
}

// Relations returns the relation subset the assignment was computed under.
func (a *Assignment) Relations() graph.RelationSet {
	return a.rels
}

// TieBreak returns the tie break used.
func (a *Assignment) TieBreak() TieBreak {
	return a.tieBreak
}

// Headers returns the header set the members were assigned against.
func (a *Assignment) Headers() *HeaderSet {
	return a.headers
}

// Groups returns every used header with its members, ordered by header id.
func (a *Assignment) Groups() []Group {
	out := make([]Group, 0, len(a.used))
	for _, h := range a.used {
		out = append(out, Group{
			Header:         a.g.ID(h),
			HeaderIsMember: a.selfSet[h],
			Members:        a.g.IDs(a.groups[h]),
		})
	}
	return out
}

// Placements returns one entry per member, ordered by member id.
func (a *Assignment) Placements() []Placement {
	out := make([]Placement, len(a.members))
	for i, m := range a.members {
		h := a.headerOf[m]
		out[i] = Placement{Member: a.g.ID(m), Header: a.g.ID(h), Self: h == m}
	}
	return out
}

// HeaderOf returns the header chosen for member id. Aliases resolve to
// their canonical member.
func (a *Assignment) HeaderOf(id string) (string, bool) {
	n, err := a.g.Lookup(id)
	if err != nil {
		return "", false
	}
	h, ok := a.headerOf[n]
	if !ok {
		return "", false
	}
	return a.g.ID(h), true
}

// Members returns every canonical member id, sorted.
func (a *Assignment) Members() []string {
	return a.g.IDs(a.members)
}

// SelfHeaders returns the members that head their own group.
func (a *Assignment) SelfHeaders() []string {
	return a.g.IDs(a.self)
}

// HeadersUsed returns every header that received a member or is a self
// header.
func (a *Assignment) HeadersUsed() []string {
	return a.g.IDs(a.used)
}

// HeadersNotMembers returns the used headers that were not members.
func (a *Assignment) HeadersNotMembers() []string {
	var out []graph.NodeID
	for _, h := range a.used {
		if _, member := a.headerOf[h]; !member {
			out = append(out, h)
		}
	}
	return a.g.IDs(out)
}

// MembersUnder returns the members placed under any of hdrs, including a
// header that is itself a member.
func (a *Assignment) MembersUnder(hdrs ...string) []string {
	var out []graph.NodeID
	for _, id := range hdrs {
		h, err := a.g.Lookup(id)
		if err != nil {
			continue
		}
		out = append(out, a.groups[h]...)
		if a.selfSet[h] {
			out = append(out, h)
		}
	}
	return a.g.IDs(graph.SortUnique(out))
}

// HeadersFor returns the headers holding the given members, sorted.
func (a *Assignment) HeadersFor(members ...string) []string {
	var out []graph.NodeID
	for _, id := range members {
		n, err := a.g.Lookup(id)
		if err != nil {
			continue
		}
		if h, ok := a.headerOf[n]; ok {
			out = append(out, h)
		}
	}
	return a.g.IDs(graph.SortUnique(out))
}

// Sections partitions the used headers. Declared sections come first in
// declaration order, each listing its used headers in first-seen order;
// sections with no used header are skipped. Used headers no section lists
// go, sorted, into DefaultSection, which is always last. A declared section
// named DefaultSection keeps its own headers first.
func (a *Assignment) Sections() []SectionView {
	used := make(map[graph.NodeID]bool, len(a.used))
	for _, h := range a.used {
		used[h] = true
	}

	var out []SectionView
	placed := make(map[graph.NodeID]bool)
	var dflt []graph.NodeID
	for _, sec := range a.headers.sections {
		var hs []graph.NodeID
		for _, h := range sec.headers {
			if used[h] {
				hs = append(hs, h)
				placed[h] = true
			}
		}
		if sec.name == DefaultSection {
			dflt = hs
			continue
		}
		if len(hs) > 0 {
			out = append(out, SectionView{Name: sec.name, Headers: a.g.IDs(hs)})
		}
	}

	for _, h := range a.used {
		if !placed[h] {
			dflt = append(dflt, h)
		}
	}
	if len(dflt) > 0 {
		out = append(out, SectionView{Name: DefaultSection, Headers: a.g.IDs(dflt)})
	}
	return out
}

// MembersInSection returns the members whose header appears in the named
// section of Sections().
func (a *Assignment) MembersInSection(name string) []string {
	for _, sec := range a.Sections() {
		if sec.Name == name {
			return a.MembersUnder(sec.Headers...)
		}
	}
	return nil
}

// UnplacedHeaders returns the used headers that no declared section lists.
func (a *Assignment) UnplacedHeaders() []string {
	var out []graph.NodeID
	for _, h := range a.used {
		if _, ok := a.headers.inSection[h]; !ok {
			out = append(out, h)
		}
	}
	return a.g.IDs(out)
}

// MemberSections maps each member id to the sections of its header.
func (a *Assignment) MemberSections() map[string][]string {
	out := make(map[string][]string, len(a.members))
	for _, m := range a.members {
		out[a.g.ID(m)] = append([]string(nil), a.headers.sectionsOf(a.headerOf[m])...)
	}
	return out
}
