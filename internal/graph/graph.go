package graph

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when no node carries the requested identifier
	ErrNotFound = errors.New("identifier not found")
	// ErrAmbiguous is returned when more than one node carries the requested identifier
	ErrAmbiguous = errors.New("identifier is not unique")
	// ErrWrongKind is returned when an identifier names a node of the other kind
	ErrWrongKind = errors.New("identifier names the wrong kind of node")
)

// Graph owns every individual and family of one GEDCOM file, in input order
type Graph struct {
	nodes []Node
	index map[string][]Node
}

// New returns an empty graph
func New() *Graph {
	return &Graph{index: make(map[string][]Node)}
}

// Add appends a node, keeping input order. Duplicate identifiers are accepted here
// and reported by Find.
func (g *Graph) Add(n Node) {
	g.nodes = append(g.nodes, n)
	g.index[n.ID()] = append(g.index[n.ID()], n)
}

// Nodes returns all nodes in input order
func (g *Graph) Nodes() []Node {
	return g.nodes
}

// Len returns the number of nodes
func (g *Graph) Len() int {
	return len(g.nodes)
}

// Find returns the single node with the given identifier
func (g *Graph) Find(id string) (Node, error) {
	matches := g.index[id]
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return nil, fmt.Errorf("%s: %w", id, ErrNotFound)
	default:
		return nil, fmt.Errorf("%s (%d matches): %w", id, len(matches), ErrAmbiguous)
	}
}

// Individual returns the individual with the given identifier
func (g *Graph) Individual(id string) (*Individual, error) {
	n, err := g.Find(id)
	if err != nil {
		return nil, err
	}
	ind, ok := n.(*Individual)
	if !ok {
		return nil, fmt.Errorf("%s is a family: %w", id, ErrWrongKind)
	}
	return ind, nil
}

// Family returns the family with the given identifier
func (g *Graph) Family(id string) (*Family, error) {
	n, err := g.Find(id)
	if err != nil {
		return nil, err
	}
	fam, ok := n.(*Family)
	if !ok {
		return nil, fmt.Errorf("%s is an individual: %w", id, ErrWrongKind)
	}
	return fam, nil
}

// Individuals returns the individuals in input order
func (g *Graph) Individuals() []*Individual {
	var ret []*Individual
	for _, n := range g.nodes {
		if ind, ok := n.(*Individual); ok {
			ret = append(ret, ind)
		}
	}
	return ret
}

// Families returns the families in input order
func (g *Graph) Families() []*Family {
	var ret []*Family
	for _, n := range g.nodes {
		if fam, ok := n.(*Family); ok {
			ret = append(ret, fam)
		}
	}
	return ret
}

// Resolve wires the symbolic references of every node. It must complete before
// Neighbours or BFS are used.
func (g *Graph) Resolve() error {
	for _, n := range g.nodes {
		if err := n.Resolve(g); err != nil {
			return err
		}
	}
	return nil
}

// lookupFamily maps an empty id to no reference
func (g *Graph) lookupFamily(id string) (*Family, error) {
	if id == "" {
		return nil, nil
	}
	return g.Family(id)
}

func (g *Graph) lookupIndividual(id string) (*Individual, error) {
	if id == "" {
		return nil, nil
	}
	return g.Individual(id)
}
