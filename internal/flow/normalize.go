package flow

import (
	"fmt"

	"restruct/internal/ast"
)

// Loop normalization. Structurization requires every cycle to have one
// structural entry point and at most one structural exit point; arbitrary
// machine code does not oblige. Normalize rewrites each offending strongly
// connected component by funneling its entering or exiting edges through a
// synthetic redirector block, preserving every edge's destination and
// condition.

// Normalize rewrites the graph so every cyclic strongly connected component
// has a single entry block and at most one exit block. Components that
// already satisfy this are untouched; single-block self loops carry no
// entry/exit ambiguity and are skipped.
func (g *Graph) Normalize(ctx *ast.Context) {
	// Collect first: redirector insertion grows the block list and must not
	// disturb the component iteration.
	var components [][]BlockID
	for _, scc := range g.SCCs() {
		if len(scc) > 1 {
			components = append(components, scc)
		}
	}
	for _, scc := range components {
		g.normalizeComponent(ctx, scc)
	}
}

func (g *Graph) normalizeComponent(ctx *ast.Context, scc []BlockID) {
	inSCC := make(map[BlockID]bool, len(scc))
	for _, b := range scc {
		inSCC[b] = true
	}

	// Partition incident edges. Entry nodes are destinations of edges whose
	// source lies outside the component; exit nodes are destinations outside
	// the component.
	var entering, exiting []EdgeID
	enteringSet := make(map[EdgeID]bool)
	entryNodes := make(map[BlockID]bool)
	exitNodes := make(map[BlockID]bool)
	for _, b := range scc {
		for _, e := range g.blocks[b].Preds {
			if !inSCC[g.edges[e].From] {
				entryNodes[g.edges[e].To] = true
				entering = append(entering, e)
				enteringSet[e] = true
			}
		}
		for _, e := range g.blocks[b].Succs {
			if !inSCC[g.edges[e].To] {
				exitNodes[g.edges[e].To] = true
				exiting = append(exiting, e)
			}
		}
	}

	// Back-edges re-enter the loop body just like external entering edges, so
	// their destinations count toward the entry-node set. Find them with a
	// DFS from an arbitrary member, restricted to component-internal
	// successors. (Back-edges only happen inside the component; exiting edges
	// need no such treatment.)
	visited := map[BlockID]bool{scc[0]: true}
	type frame struct {
		b    BlockID
		next int
	}
	stack := []frame{{b: scc[0]}}
	for len(stack) > 0 {
		f := &stack[len(stack)-1]
		succs := g.blocks[f.b].Succs
		if f.next >= len(succs) {
			stack = stack[:len(stack)-1]
			continue
		}
		e := succs[f.next]
		f.next++
		succ := g.edges[e].To
		if !visited[succ] {
			if inSCC[succ] {
				visited[succ] = true
				stack = append(stack, frame{b: succ})
			}
		} else {
			if !enteringSet[e] {
				enteringSet[e] = true
				entering = append(entering, e)
			}
			entryNodes[succ] = true
		}
	}

	if len(entryNodes) > 1 {
		g.createRedirectorBlock(ctx, entering)
	}
	if len(exitNodes) > 1 {
		g.createRedirectorBlock(ctx, exiting)
	}
}

// createRedirectorBlock retargets the given edges to a fresh synthetic block
// and forwards from it to each original destination. Each retargeted edge
// keeps its own condition; every forwarding edge is guarded by a routing
// predicate naming its destination, so edges with overlapping conditions can
// never be steered to the wrong successor. Merging forwarding conditions
// instead would let a literal-true edge absorb another destination's guard.
func (g *Graph) createRedirectorBlock(ctx *ast.Context, edges []EdgeID) BlockID {
	r := g.NewBlock()
	seen := make(map[BlockID]bool)
	var dests []BlockID
	for _, e := range edges {
		if to := g.edges[e].To; !seen[to] {
			seen[to] = true
			dests = append(dests, to)
		}
		g.Retarget(e, r)
	}
	if len(dests) == 1 {
		g.NewEdge(r, dests[0], ctx.True())
		return r
	}
	for _, d := range dests {
		name := fmt.Sprintf("target == b%d", d)
		if a := g.blocks[d].Addr; a != 0 {
			name = fmt.Sprintf("target == 0x%x", a)
		}
		g.NewEdge(r, d, ctx.Atom(name, uint64(r)))
	}
	return r
}
