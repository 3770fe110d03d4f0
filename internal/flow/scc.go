package flow

// Strongly connected component detection using the Kosaraju-Sharir
// algorithm. The first DFS pass is the post-order traversal the structurizer
// already needs; the second pass walks reversed edges in reverse post-order,
// so no per-block auxiliary state is required.

// SCCs returns the strongly connected components of the blocks reachable
// from the entry, topologically sorted by the kernel DAG. Components of a
// single block without a self edge are included; callers that only care
// about loops filter on size.
func (g *Graph) SCCs() [][]BlockID {
	rpo := g.ReversePostOrder()

	seen := make([]bool, len(g.blocks))
	reachable := make([]bool, len(g.blocks))
	for _, b := range rpo {
		reachable[b] = true
	}

	var result [][]BlockID
	queue := make([]BlockID, 0, len(rpo))
	for _, leader := range rpo {
		if seen[leader] {
			continue
		}

		// BFS over reversed edges collects one component.
		scc := make([]BlockID, 0, 4)
		queue = append(queue[:0], leader)
		seen[leader] = true
		for len(queue) > 0 {
			b := queue[0]
			queue = queue[1:]
			scc = append(scc, b)
			for _, e := range g.blocks[b].Preds {
				pred := g.edges[e].From
				if reachable[pred] && !seen[pred] {
					seen[pred] = true
					queue = append(queue, pred)
				}
			}
		}
		result = append(result, scc)
	}
	return result
}

// BlockOrder returns the reachable blocks in reverse post-order with every
// strongly connected component occupying an unbroken range: components are
// laid out in kernel-DAG topological order, members in reverse post-order of
// the component-internal edges. Region detection and reduction fold order
// ranges, so a loop whose members straddle an unrelated block would be
// invisible to them.
func (g *Graph) BlockOrder() []BlockID {
	var order []BlockID
	for _, scc := range g.SCCs() {
		if len(scc) == 1 {
			order = append(order, scc[0])
			continue
		}
		order = append(order, g.componentOrder(scc)...)
	}
	return order
}

// componentOrder is reverse post-order restricted to one component, starting
// from its first member (the earliest in whole-graph reverse post-order,
// which for a normalized loop is its entry).
func (g *Graph) componentOrder(scc []BlockID) []BlockID {
	in := make(map[BlockID]bool, len(scc))
	for _, b := range scc {
		in[b] = true
	}
	post := make([]BlockID, 0, len(scc))
	visited := map[BlockID]bool{scc[0]: true}
	type frame struct {
		b    BlockID
		next int
	}
	stack := []frame{{b: scc[0]}}
	for len(stack) > 0 {
		f := &stack[len(stack)-1]
		succs := g.blocks[f.b].Succs
		if f.next < len(succs) {
			to := g.edges[succs[f.next]].To
			f.next++
			if in[to] && !visited[to] {
				visited[to] = true
				stack = append(stack, frame{b: to})
			}
			continue
		}
		post = append(post, f.b)
		stack = stack[:len(stack)-1]
	}
	for i, j := 0, len(post)-1; i < j; i, j = i+1, j-1 {
		post[i], post[j] = post[j], post[i]
	}
	return post
}
