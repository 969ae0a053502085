package graph

import (
	"strings"

	"goatk/internal/errors"
)

// RelType is one of the auxiliary relation types that may extend the is_a
// closure. is_a itself is always present and is not a RelType.
type RelType uint8

const (
	PartOf RelType = iota
	Regulates
	PositivelyRegulates
	NegativelyRegulates

	numRelTypes
)

// IsA is the name of the primary subsumption relation.
const IsA = "is_a"

var relNames = [numRelTypes]string{
	PartOf:              "part_of",
	Regulates:           "regulates",
	PositivelyRegulates: "positively_regulates",
	NegativelyRegulates: "negatively_regulates",
}

// RelTypes returns every relation type in enum order.
func RelTypes() []RelType {
	return []RelType{PartOf, Regulates, PositivelyRegulates, NegativelyRegulates}
}

// RelNames returns the names of every relation type in enum order.
func RelNames() []string {
	return relNames[:]
}

func (r RelType) String() string {
	if r < numRelTypes {
		return relNames[r]
	}
	return "unknown"
}

// ParseRelType maps an OBO relationship name to its RelType.
func ParseRelType(name string) (RelType, error) {
	for i, n := range relNames {
		if n == name {
			return RelType(i), nil
		}
	}
	return 0, errors.NewInvalidRelation(name, RelNames())
}

// RelationSet is a subset of the relation types. The zero value means is_a
// only. It is small and comparable, so it doubles as a cache fingerprint.
type RelationSet uint8

const allRelations RelationSet = 1<<numRelTypes - 1

// NewRelationSet returns the set containing the given relation types.
func NewRelationSet(rels ...RelType) RelationSet {
	var s RelationSet
	for _, r := range rels {
		s |= 1 << r
	}
	return s
}

// AllRelations returns the set of all four relation types.
func AllRelations() RelationSet {
	return allRelations
}

// ParseRelationSet validates relation names and builds a set. The single
// token "all" selects every relation type.
func ParseRelationSet(names []string) (RelationSet, error) {
	var s RelationSet
	for _, raw := range names {
		name := strings.TrimSpace(raw)
		if name == "" || name == IsA {
			continue
		}
		if name == "all" {
			s |= allRelations
			continue
		}
		r, err := ParseRelType(name)
		if err != nil {
			return 0, err
		}
		s |= 1 << r
	}
	return s, nil
}

// Has reports whether r is in the set.
func (s RelationSet) Has(r RelType) bool {
	return r < numRelTypes && s&(1<<r) != 0
}

// IsEmpty reports whether the set selects is_a only.
func (s RelationSet) IsEmpty() bool {
	return s == 0
}

// Valid reports whether the set only contains known relation types.
func (s RelationSet) Valid() bool {
	return s&^allRelations == 0
}

// Union returns s ∪ o.
func (s RelationSet) Union(o RelationSet) RelationSet {
	return s | o
}

// SubsetOf reports whether every relation in s is also in o.
func (s RelationSet) SubsetOf(o RelationSet) bool {
	return s&^o == 0
}

// Types returns the relation types in the set in enum order.
func (s RelationSet) Types() []RelType {
	types := make([]RelType, 0, numRelTypes)
	for r := RelType(0); r < numRelTypes; r++ {
		if s.Has(r) {
			types = append(types, r)
		}
	}
	return types
}

// Names returns the relation names in the set in enum order.
func (s RelationSet) Names() []string {
	types := s.Types()
	names := make([]string, len(types))
	for i, r := range types {
		names[i] = r.String()
	}
	return names
}

// String renders the set as "is_a" or "is_a+part_of+regulates".
func (s RelationSet) String() string {
	if s.IsEmpty() {
		return IsA
	}
	return IsA + "+" + strings.Join(s.Names(), "+")
}

// AllRelationSets enumerates every subset of rels, the empty set first.
func AllRelationSets(rels RelationSet) []RelationSet {
	sets := []RelationSet{0}
	for _, r := range rels.Types() {
		n := len(sets)
		for i := 0; i < n; i++ {
			sets = append(sets, sets[i]|1<<r)
		}
	}
	return sets
}
