package graph

// ArticulationNodes returns, in input order, the ids of the nodes whose removal splits
// their connected component: the individuals and families that are the only link between
// two branches of the tree. g must be resolved.
func ArticulationNodes(g *Graph) []string {
	nodes := g.Nodes()
	n := len(nodes)
	if n == 0 {
		return nil
	}

	idx := indexOf(nodes)
	adj := make([][]int, n)
	for i, node := range nodes {
		for _, nb := range node.Neighbours() {
			j := idx[nb]
			if j == i {
				continue
			}
			adj[i] = append(adj[i], j)
		}
	}
	// Neighbour lists are one-sided on malformed input (a CHIL without the matching FAMC),
	// so make the adjacency symmetric and deduplicated.
	adj = symmetric(adj)

	disc := make([]int, n)
	low := make([]int, n)
	isAP := make([]bool, n)
	counter := 1

	type frame struct{ node, parent, next int }

	for start := 0; start < n; start++ {
		if disc[start] != 0 {
			continue
		}
		disc[start], low[start] = counter, counter
		counter++
		rootChildren := 0
		stack := []frame{{start, -1, 0}}

		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			if top.next < len(adj[top.node]) {
				child := adj[top.node][top.next]
				top.next++
				if child == top.parent {
					continue
				}
				if disc[child] != 0 {
					low[top.node] = min(low[top.node], disc[child])
					continue
				}
				disc[child], low[child] = counter, counter
				counter++
				if top.node == start {
					rootChildren++
				}
				stack = append(stack, frame{child, top.node, 0})
				continue
			}

			done := top.node
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				break
			}
			parent := stack[len(stack)-1].node
			low[parent] = min(low[parent], low[done])
			if parent != start && low[done] >= disc[parent] {
				isAP[parent] = true
			}
		}
		if rootChildren >= 2 {
			isAP[start] = true
		}
	}

	var ret []string
	for i, node := range nodes {
		if isAP[i] {
			ret = append(ret, node.ID())
		}
	}
	return ret
}

func symmetric(adj [][]int) [][]int {
	type pair struct{ u, v int }
	seen := make(map[pair]bool)
	out := make([][]int, len(adj))
	for u, vs := range adj {
		for _, v := range vs {
			key := pair{min(u, v), max(u, v)}
			if seen[key] {
				continue
			}
			seen[key] = true
			out[u] = append(out[u], v)
			out[v] = append(out[v], u)
		}
	}
	return out
}
