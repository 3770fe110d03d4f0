package flow

import "sort"

// Single-entry single-exit region detection. The structurizer folds block
// ranges bottom-up over a region hierarchy; a region here is a pair
// (entry, exit) whose block-order range is closed under control flow:
// edges from outside enter only at the entry block, edges to the outside
// leave only to the exit block. Detecting regions directly on the block
// order keeps the structurizer's contiguity requirement true by
// construction.

// Region is a node of the hierarchical region tree. The root region covers
// the whole function and has no exit block. Children are disjoint and
// strictly nested; the structurizer consumes them destructively.
type Region struct {
	Entry    BlockID
	Exit     BlockID // NoBlock for the root region
	Children []*Region

	members map[BlockID]bool // nil for the root region
}

// Contains reports whether b is a member block of r. The exit block is not a
// member. The root region contains every block.
func (r *Region) Contains(b BlockID) bool {
	if r.members == nil {
		return true
	}
	return r.members[b]
}

type candidate struct {
	begin, end int // block-order range [begin, end)
	entry      BlockID
	exit       BlockID
}

// Regions computes the region tree of the (normalized) graph from its
// dominator tree, postdominator tree, and dominance frontier. Exit
// candidates for an entry block come from its postdominator chain; each is
// verified against the order-based closure test.
func (g *Graph) Regions() *Region {
	order := g.BlockOrder()
	if len(order) == 0 {
		return &Region{Entry: NoBlock, Exit: NoBlock}
	}
	pos := make([]int, len(g.blocks))
	for i := range pos {
		pos[i] = -1
	}
	for i, b := range order {
		pos[b] = i
	}

	dom := g.Dominators()
	pdom := g.PostDominators()
	df := g.DominanceFrontier(dom)

	var cands []candidate
	for i, entry := range order {
		for exit := pdom.Idom(entry); exit != NoBlock; exit = pdom.Idom(exit) {
			j := pos[exit]
			if j <= i {
				continue // exits behind the entry come from loop shapes; skip
			}
			if !g.frontierAllows(df, entry, exit) {
				continue
			}
			if g.isRegion(order, pos, i, j, entry, exit) {
				cands = append(cands, candidate{begin: i, end: j, entry: entry, exit: exit})
			}
		}
	}

	root := &Region{Entry: order[0], Exit: NoBlock}
	buildRegionTree(root, 0, len(order), order, cands)
	return root
}

// frontierAllows is a cheap rejection test: for a closed range every block in
// entry's dominance frontier must be the entry itself (loop back edge) or
// the exit.
func (g *Graph) frontierAllows(df map[BlockID][]BlockID, entry, exit BlockID) bool {
	for _, d := range df[entry] {
		if d != entry && d != exit {
			return false
		}
	}
	return true
}

// isRegion runs the closure test over the order range [i, j).
func (g *Graph) isRegion(order []BlockID, pos []int, i, j int, entry, exit BlockID) bool {
	in := make(map[BlockID]bool, j-i)
	for _, b := range order[i:j] {
		in[b] = true
	}
	for _, b := range order[i:j] {
		for _, e := range g.blocks[b].Preds {
			from := g.edges[e].From
			if pos[from] < 0 {
				continue // dead predecessor; never executes
			}
			if !in[from] && b != entry {
				return false
			}
		}
		for _, e := range g.blocks[b].Succs {
			to := g.edges[e].To
			if !in[to] && to != exit {
				return false
			}
		}
	}
	return true
}

// buildRegionTree nests the accepted candidates under parent, largest first.
// A candidate is dropped when it duplicates its parent's range or straddles
// an already-placed sibling.
func buildRegionTree(parent *Region, begin, end int, order []BlockID, cands []candidate) {
	// Largest ranges first so outer regions become parents.
	sorted := make([]candidate, len(cands))
	copy(sorted, cands)
	sort.Slice(sorted, func(i, j int) bool {
		si, sj := sorted[i].end-sorted[i].begin, sorted[j].end-sorted[j].begin
		if si != sj {
			return si > sj
		}
		return sorted[i].begin < sorted[j].begin
	})

	type placed struct {
		r          *Region
		begin, end int
	}
	tree := []placed{{r: parent, begin: begin, end: end}}
	owner := make([]int, len(order)) // index into tree per order slot
	for i := begin; i < end; i++ {
		owner[i] = 0
	}

	for _, c := range sorted {
		if c.begin < begin || c.end > end {
			continue
		}
		p := owner[c.begin]
		// Every slot of the candidate must currently belong to the same
		// innermost region, or the candidate straddles a sibling.
		ok := true
		for i := c.begin; i < c.end; i++ {
			if owner[i] != p {
				ok = false
				break
			}
		}
		if !ok {
			continue
		}
		pr := tree[p]
		if c.begin == pr.begin && c.end == pr.end {
			continue // duplicate of the enclosing region
		}
		r := &Region{Entry: c.entry, Exit: c.exit, members: make(map[BlockID]bool, c.end-c.begin)}
		for _, b := range order[c.begin:c.end] {
			r.members[b] = true
		}
		pr.r.Children = append(pr.r.Children, r)
		tree = append(tree, placed{r: r, begin: c.begin, end: c.end})
		id := len(tree) - 1
		for i := c.begin; i < c.end; i++ {
			owner[i] = id
		}
	}

	// Deterministic reduction order: children sorted by entry position.
	pos := make(map[BlockID]int, len(order))
	for i, b := range order {
		pos[b] = i
	}
	for _, p := range tree {
		kids := p.r.Children
		sort.Slice(kids, func(i, j int) bool {
			return pos[kids[i].Entry] < pos[kids[j].Entry]
		})
	}
}
