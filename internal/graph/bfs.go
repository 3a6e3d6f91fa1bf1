package graph

// BFS does a breadth first traversal from root and returns the visited nodes in
// discovery order, root first. Families and individuals alternate on every path
// and the root is a family, so familyDepth generations are familyDepth*2+1 hops.
//
// Nodes are dequeued in non-decreasing depth order, which is why the first node
// past the cutoff ends the whole traversal.
func BFS(root Node, familyDepth int) []Node {
	maxDepth := familyDepth*2 + 1

	root.SetDepth(0)
	visited := map[Node]bool{root: true}
	queue := []Node{root}
	var ret []Node

	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		if node.Depth() > maxDepth {
			return ret
		}
		ret = append(ret, node)
		for _, neighbour := range node.Neighbours() {
			if visited[neighbour] {
				continue
			}
			neighbour.SetDepth(node.Depth() + 1)
			visited[neighbour] = true
			queue = append(queue, neighbour)
		}
	}
	return ret
}
