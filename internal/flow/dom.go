package flow

// Dominator and postdominator trees via the Cooper-Harvey-Kennedy iterative
// algorithm, plus Cytron-style dominance frontiers. Function graphs are
// small, so the simple data-flow iteration beats the bookkeeping of
// Lengauer-Tarjan here.

// DomTree is a dominator tree over a Graph. Forward trees are rooted at the
// entry block; postdominator trees are computed on the reversed graph and
// may have several roots (one per exit block).
type DomTree struct {
	g     *Graph
	idom  []BlockID // immediate dominator per block; NoBlock for roots/unreachable
	order []BlockID // reverse post-order used for iteration
	pos   []int     // order index per block; -1 if unreachable
	post  bool      // postdominator tree
}

// Idom returns b's immediate dominator, or NoBlock if b is a root or
// unreachable.
func (t *DomTree) Idom(b BlockID) BlockID { return t.idom[b] }

// Dominates reports whether a dominates b (reflexively).
func (t *DomTree) Dominates(a, b BlockID) bool {
	for b != NoBlock {
		if a == b {
			return true
		}
		b = t.idom[b]
	}
	return false
}

// Dominators computes the dominator tree rooted at the entry block.
func (g *Graph) Dominators() *DomTree {
	t := &DomTree{g: g, order: g.ReversePostOrder()}
	t.build(func(b BlockID) []EdgeID { return g.blocks[b].Preds },
		func(e EdgeID) BlockID { return g.edges[e].From },
		[]BlockID{g.Entry})
	return t
}

// PostDominators computes the postdominator tree on the reversed graph.
// Every block without successors is a root.
func (g *Graph) PostDominators() *DomTree {
	rpo := g.ReversePostOrder()
	// Reverse post-order of the reversed graph: approximate with the
	// reversed forward order, which visits successors before predecessors.
	order := make([]BlockID, len(rpo))
	for i, b := range rpo {
		order[len(rpo)-1-i] = b
	}
	var roots []BlockID
	for _, b := range rpo {
		if len(g.blocks[b].Succs) == 0 {
			roots = append(roots, b)
		}
	}
	t := &DomTree{g: g, order: order, post: true}
	t.build(func(b BlockID) []EdgeID { return g.blocks[b].Succs },
		func(e EdgeID) BlockID { return g.edges[e].To },
		roots)
	return t
}

// build runs the iterative intersection algorithm. preds/predOf walk the
// graph against the direction of dominance.
func (t *DomTree) build(preds func(BlockID) []EdgeID, predOf func(EdgeID) BlockID, roots []BlockID) {
	g := t.g
	t.idom = make([]BlockID, len(g.blocks))
	t.pos = make([]int, len(g.blocks))
	for i := range t.idom {
		t.idom[i] = NoBlock
		t.pos[i] = -1
	}
	for i, b := range t.order {
		t.pos[b] = i
	}

	isRoot := make(map[BlockID]bool, len(roots))
	processed := make([]bool, len(g.blocks))
	for _, r := range roots {
		isRoot[r] = true
		processed[r] = true
	}

	changed := true
	for changed {
		changed = false
		for _, b := range t.order {
			if isRoot[b] {
				continue
			}
			newIdom := NoBlock
			diverged := false
			for _, e := range preds(b) {
				p := predOf(e)
				if t.pos[p] < 0 || !processed[p] || diverged {
					continue
				}
				if newIdom == NoBlock {
					newIdom = p
					continue
				}
				newIdom = t.intersect(newIdom, p, isRoot)
				if newIdom == NoBlock {
					// Candidates meet only at the virtual root of a
					// multi-root postdominator tree.
					diverged = true
				}
			}
			if newIdom == NoBlock && !diverged {
				continue // no processed predecessor yet
			}
			processed[b] = true
			if t.idom[b] != newIdom {
				t.idom[b] = newIdom
				changed = true
			}
		}
	}
}

// intersect walks the two candidates up the tree until they meet. Roots of a
// multi-root (postdominator) tree that disagree meet at NoBlock.
func (t *DomTree) intersect(a, b BlockID, isRoot map[BlockID]bool) BlockID {
	for a != b {
		for a != b && t.pos[a] > t.pos[b] {
			if isRoot[a] {
				return NoBlock
			}
			a = t.idom[a]
			if a == NoBlock {
				return NoBlock
			}
		}
		for b != a && t.pos[b] > t.pos[a] {
			if isRoot[b] {
				return NoBlock
			}
			b = t.idom[b]
			if b == NoBlock {
				return NoBlock
			}
		}
	}
	return a
}

// DominanceFrontier computes the dominance frontier of every block under the
// forward dominator tree t: the first blocks where b's dominance stops.
func (g *Graph) DominanceFrontier(t *DomTree) map[BlockID][]BlockID {
	df := make(map[BlockID][]BlockID)
	seen := make(map[[2]BlockID]bool)
	add := func(b, f BlockID) {
		k := [2]BlockID{b, f}
		if !seen[k] {
			seen[k] = true
			df[b] = append(df[b], f)
		}
	}
	for _, b := range t.order {
		if len(g.blocks[b].Preds) < 2 {
			continue
		}
		for _, e := range g.blocks[b].Preds {
			runner := g.edges[e].From
			if t.pos[runner] < 0 {
				continue
			}
			for runner != NoBlock && runner != t.idom[b] {
				add(runner, b)
				runner = t.idom[runner]
			}
		}
	}
	return df
}
