package graph

import "fmt"

// Node is an entity of the family graph: either an *Individual or a *Family
type Node interface {
	// ID returns the GEDCOM identifier without the surrounding @ signs
	ID() string
	// Depth is only meaningful during the traversal that last set it
	Depth() int
	SetDepth(depth int)
	// Neighbours returns the currently resolved references, in a fixed order
	Neighbours() []Node
	// Resolve turns the symbolic ids of the node into direct references
	Resolve(g *Graph) error
}

// Individual is a child in at most one family and a spouse in 0..* families
type Individual struct {
	Identifier string
	Forename   string
	Surname    string
	Sex        string // "M", "F" or empty

	FamcID  string
	Famc    *Family
	FamsIDs []string
	Fams    []*Family

	Note  string
	Birth string // year
	Death string // year

	depth int
}

// NewIndividual creates an individual with the given identifier
func NewIndividual(id string) *Individual {
	return &Individual{Identifier: id}
}

func (i *Individual) ID() string         { return i.Identifier }
func (i *Individual) Depth() int         { return i.depth }
func (i *Individual) SetDepth(depth int) { i.depth = depth }

// Neighbours returns the parent family (if any) followed by the spouse families
func (i *Individual) Neighbours() []Node {
	ret := make([]Node, 0, len(i.Fams)+1)
	if i.Famc != nil {
		ret = append(ret, i.Famc)
	}
	for _, f := range i.Fams {
		ret = append(ret, f)
	}
	return ret
}

func (i *Individual) Resolve(g *Graph) error {
	famc, err := g.lookupFamily(i.FamcID)
	if err != nil {
		return fmt.Errorf("resolving FAMC of %s: %w", i.Identifier, err)
	}
	fams := make([]*Family, 0, len(i.FamsIDs))
	for _, id := range i.FamsIDs {
		f, err := g.lookupFamily(id)
		if err != nil {
			return fmt.Errorf("resolving FAMS of %s: %w", i.Identifier, err)
		}
		if f != nil {
			fams = append(fams, f)
		}
	}
	i.Famc = famc
	i.Fams = fams
	return nil
}

// String prints ids only, never the linked entities, so cycles can't recurse
func (i *Individual) String() string {
	return fmt.Sprintf("Individual(id=%s, name=%q, sex=%q, famc=%s, fams=%v, depth=%d)",
		i.Identifier, i.Forename+" "+i.Surname, i.Sex, i.FamcID, i.FamsIDs, i.depth)
}

// Family has at most one wife and one husband, and 0..* children
type Family struct {
	Identifier string

	WifeID   string
	Wife     *Individual
	HusbID   string
	Husb     *Individual
	ChildIDs []string
	Children []*Individual

	depth int
}

// NewFamily creates a family with the given identifier
func NewFamily(id string) *Family {
	return &Family{Identifier: id}
}

func (f *Family) ID() string         { return f.Identifier }
func (f *Family) Depth() int         { return f.depth }
func (f *Family) SetDepth(depth int) { f.depth = depth }

// Neighbours returns wife, husband, then the children in input order
func (f *Family) Neighbours() []Node {
	ret := make([]Node, 0, len(f.Children)+2)
	if f.Wife != nil {
		ret = append(ret, f.Wife)
	}
	if f.Husb != nil {
		ret = append(ret, f.Husb)
	}
	for _, c := range f.Children {
		ret = append(ret, c)
	}
	return ret
}

func (f *Family) Resolve(g *Graph) error {
	wife, err := g.lookupIndividual(f.WifeID)
	if err != nil {
		return fmt.Errorf("resolving WIFE of %s: %w", f.Identifier, err)
	}
	husb, err := g.lookupIndividual(f.HusbID)
	if err != nil {
		return fmt.Errorf("resolving HUSB of %s: %w", f.Identifier, err)
	}
	children := make([]*Individual, 0, len(f.ChildIDs))
	for _, id := range f.ChildIDs {
		c, err := g.lookupIndividual(id)
		if err != nil {
			return fmt.Errorf("resolving CHIL of %s: %w", f.Identifier, err)
		}
		if c != nil {
			children = append(children, c)
		}
	}
	f.Wife = wife
	f.Husb = husb
	f.Children = children
	return nil
}

func (f *Family) String() string {
	return fmt.Sprintf("Family(id=%s, wife=%s, husb=%s, children=%v, depth=%d)",
		f.Identifier, f.WifeID, f.HusbID, f.ChildIDs, f.depth)
}
