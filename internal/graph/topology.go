package graph

import "sort"

// FamilySize is a family together with its number of children
type FamilySize struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	Children int    `json:"children"`
}

// ChildBucket is one bucket in the children-per-family histogram
type ChildBucket struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// TopologyReport summarizes the shape of a resolved family graph
type TopologyReport struct {
	TotalIndividuals  int           `json:"total_individuals"`
	TotalFamilies     int           `json:"total_families"`
	NumComponents     int           `json:"num_components"`
	LargestComponent  int           `json:"largest_component"`
	SmallestComponent int           `json:"smallest_component"`
	IsolatedCount     int           `json:"isolated_count"`
	IsolatedIDs       []string      `json:"isolated_ids"`
	ChildHistogram    []ChildBucket `json:"child_histogram"`
	LargestFamilies   []FamilySize  `json:"largest_families"`
	Connectors        []string      `json:"connectors"`
}

// ComputeTopology analyzes connected components, isolated individuals, family sizes and
// articulation nodes. g must be resolved. topN bounds the listed ids per section.
func ComputeTopology(g *Graph, topN int) *TopologyReport {
	nodes := g.Nodes()
	report := &TopologyReport{ChildHistogram: defaultChildHistogram()}
	if len(nodes) == 0 {
		return report
	}

	idx := indexOf(nodes)
	uf := NewUnionFind(len(nodes))
	for i, n := range nodes {
		for _, nb := range n.Neighbours() {
			uf.Union(i, idx[nb])
		}
	}
	sizes := uf.Sizes()
	report.NumComponents = len(sizes)
	report.SmallestComponent = len(nodes)
	for _, s := range sizes {
		if s > report.LargestComponent {
			report.LargestComponent = s
		}
		if s < report.SmallestComponent {
			report.SmallestComponent = s
		}
	}

	var families []FamilySize
	for _, n := range nodes {
		switch v := n.(type) {
		case *Individual:
			report.TotalIndividuals++
			if v.Famc == nil && len(v.Fams) == 0 {
				report.IsolatedIDs = append(report.IsolatedIDs, v.Identifier)
			}
		case *Family:
			report.TotalFamilies++
			report.ChildHistogram[childBucket(len(v.Children))].Count++
			families = append(families, FamilySize{ID: v.Identifier, Label: FamilyLabel(v), Children: len(v.Children)})
		}
	}

	report.IsolatedCount = len(report.IsolatedIDs)
	if len(report.IsolatedIDs) > topN {
		report.IsolatedIDs = report.IsolatedIDs[:topN]
	}

	sort.SliceStable(families, func(i, j int) bool { return families[i].Children > families[j].Children })
	if len(families) > topN {
		families = families[:topN]
	}
	report.LargestFamilies = families

	report.Connectors = ArticulationNodes(g)
	if len(report.Connectors) > topN {
		report.Connectors = report.Connectors[:topN]
	}
	return report
}

// FamilyLabel describes a family by its spouses' surnames, husband first
func FamilyLabel(f *Family) string {
	label := ""
	if f.Husb != nil {
		label += f.Husb.Surname
	}
	label += "-"
	if f.Wife != nil {
		label += f.Wife.Surname
	}
	return label
}

func indexOf(nodes []Node) map[Node]int {
	idx := make(map[Node]int, len(nodes))
	for i, n := range nodes {
		idx[n] = i
	}
	return idx
}

func defaultChildHistogram() []ChildBucket {
	return []ChildBucket{
		{Label: "0"}, {Label: "1"}, {Label: "2-3"}, {Label: "4-7"}, {Label: "8+"},
	}
}

func childBucket(children int) int {
	switch {
	case children == 0:
		return 0
	case children == 1:
		return 1
	case children <= 3:
		return 2
	case children <= 7:
		return 3
	default:
		return 4
	}
}
