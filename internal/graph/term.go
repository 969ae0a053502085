package graph

// NodeID is the dense arena index of a canonical term. NodeIDs follow the
// lexical order of canonical ids, so sorting NodeIDs sorts ids.
type NodeID int32

// Namespace is one of the three disjoint GO categories.
type Namespace string

const (
	BiologicalProcess Namespace = "biological_process"
	MolecularFunction Namespace = "molecular_function"
	CellularComponent Namespace = "cellular_component"
)

var namespaceShort = map[Namespace]string{
	BiologicalProcess: "BP",
	MolecularFunction: "MF",
	CellularComponent: "CC",
}

// Short returns BP, MF or CC; other namespaces are returned unchanged.
func (n Namespace) Short() string {
	if s, ok := namespaceShort[n]; ok {
		return s
	}
	return string(n)
}

// ParseNamespace accepts either the long OBO name or the BP/MF/CC short form.
func ParseNamespace(s string) Namespace {
	for long, short := range namespaceShort {
		if s == short {
			return long
		}
	}
	return Namespace(s)
}

// Term is one node of the ontology. Exported fields are read-only once the
// graph is built; adjacency is reached through Graph methods.
type Term struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Namespace Namespace `json:"namespace"`
	AltIDs    []string  `json:"altIds,omitempty"`
	Obsolete  bool      `json:"obsolete,omitempty"`

	// Level is the shortest is_a path length from a root.
	Level int `json:"level"`
	// Depth is the longest is_a path length from a root.
	Depth int `json:"depth"`

	node     NodeID
	parents  []NodeID
	children []NodeID
	rels     *relationMap
}

// relationMap holds typed adjacency. It is nil on every term when the
// loader did not supply relationships.
type relationMap struct {
	fwd [numRelTypes][]NodeID
	rev [numRelTypes][]NodeID
}

// Node returns the term's arena index.
func (t *Term) Node() NodeID {
	return t.node
}

// HasRelations reports whether typed adjacency was loaded for this term.
func (t *Term) HasRelations() bool {
	return t.rels != nil
}

// NumParents returns the number of direct is_a parents.
func (t *Term) NumParents() int {
	return len(t.parents)
}

// NumChildren returns the number of direct is_a children.
func (t *Term) NumChildren() int {
	return len(t.children)
}

// IsLeaf reports whether the term has no is_a children.
func (t *Term) IsLeaf() bool {
	return len(t.children) == 0
}
