package flow

import (
	"testing"

	"restruct/internal/ast"
)

// entryNodesOf counts the distinct destinations of edges entering the
// component from outside plus destinations of back edges, mirroring what
// normalization must reduce to one.
func entryNodesOf(g *Graph, scc []BlockID) map[BlockID]bool {
	in := make(map[BlockID]bool, len(scc))
	for _, b := range scc {
		in[b] = true
	}
	entries := make(map[BlockID]bool)
	for _, b := range scc {
		for _, e := range g.Block(b).Preds {
			if !in[g.Edge(e).From] {
				entries[b] = true
			}
		}
	}
	return entries
}

func exitNodesOf(g *Graph, scc []BlockID) map[BlockID]bool {
	in := make(map[BlockID]bool, len(scc))
	for _, b := range scc {
		in[b] = true
	}
	exits := make(map[BlockID]bool)
	for _, b := range scc {
		for _, e := range g.Block(b).Succs {
			if to := g.Edge(e).To; !in[to] {
				exits[to] = true
			}
		}
	}
	return exits
}

func TestSCCs_Acyclic(t *testing.T) {
	ctx := ast.NewContext()
	g := testGraph(t, ctx, 3, map[int][]int{0: {1}, 1: {2}})
	sccs := g.SCCs()
	if len(sccs) != 3 {
		t.Fatalf("sccs = %d, want 3", len(sccs))
	}
	// Topological order over the kernel DAG.
	for i, scc := range sccs {
		if len(scc) != 1 || scc[0] != BlockID(i) {
			t.Errorf("sccs[%d] = %v, want [b%d]", i, scc, i)
		}
	}
}

func TestSCCs_Loop(t *testing.T) {
	ctx := ast.NewContext()
	// 0 -> 1 -> 2 -> 1, 2 -> 3
	g := testGraph(t, ctx, 4, map[int][]int{0: {1}, 1: {2}, 2: {1, 3}})
	sccs := g.SCCs()
	if len(sccs) != 3 {
		t.Fatalf("sccs = %d, want 3", len(sccs))
	}
	var loop []BlockID
	for _, scc := range sccs {
		if len(scc) > 1 {
			loop = scc
		}
	}
	if len(loop) != 2 {
		t.Fatalf("loop component = %v, want two blocks", loop)
	}
	got := map[BlockID]bool{loop[0]: true, loop[1]: true}
	if !got[1] || !got[2] {
		t.Errorf("loop component = %v, want {b1, b2}", loop)
	}
}

func TestBlockOrder_LoopMembersContiguous(t *testing.T) {
	ctx := ast.NewContext()
	g := NewGraph("order")
	for i := 0; i < 4; i++ {
		id := g.NewBlock()
		g.Block(id).Stmt = ctx.Asm(i, i+1)
		g.Block(id).Orig = i
	}
	g.Entry = 0
	p := ctx.Atom("p", 0x100)
	// Plain reverse post-order places the exit block 3 between the cycle
	// members 1 and 2; the block order must keep the cycle unbroken.
	g.NewEdge(0, 1, p)
	g.NewEdge(0, 2, ctx.Not(p))
	g.NewEdge(1, 2, ctx.True())
	g.NewEdge(2, 1, ctx.True())
	g.NewEdge(1, 3, ctx.True())

	want := []BlockID{0, 1, 2, 3}
	got := g.BlockOrder()
	if len(got) != len(want) {
		t.Fatalf("order = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestNormalize_NaturalLoopUntouched(t *testing.T) {
	ctx := ast.NewContext()
	// 0 -> 1 -> 2 -> 1, 2 -> 3: one entry node, one exit node.
	g := testGraph(t, ctx, 4, map[int][]int{0: {1}, 1: {2}, 2: {1, 3}})
	g.Normalize(ctx)
	if g.NumBlocks() != 4 {
		t.Fatalf("blocks = %d, want 4 (no redirector needed)", g.NumBlocks())
	}
}

func TestNormalize_SelfLoopSkipped(t *testing.T) {
	ctx := ast.NewContext()
	// A self loop with two distinct exit targets still needs no redirector:
	// single-block components carry no entry/exit ambiguity.
	g := testGraph(t, ctx, 4, map[int][]int{0: {1}, 1: {1, 2, 3}})
	g.Normalize(ctx)
	if g.NumBlocks() != 4 {
		t.Fatalf("blocks = %d, want 4", g.NumBlocks())
	}
}

func TestNormalize_IrreducibleEntry(t *testing.T) {
	ctx := ast.NewContext()
	g := NewGraph("irr")
	for i := 0; i < 4; i++ {
		id := g.NewBlock()
		g.Block(id).Stmt = ctx.Asm(i, i+1)
		g.Block(id).Orig = i
	}
	g.Entry = 0
	p := ctx.Atom("p", 0x100)
	// 0 enters the cycle {1, 2} at both blocks.
	g.NewEdge(0, 1, p)
	g.NewEdge(0, 2, ctx.Not(p))
	g.NewEdge(1, 2, ctx.True())
	g.NewEdge(2, 1, ctx.True())
	g.NewEdge(1, 3, ctx.True())

	g.Normalize(ctx)

	if g.NumBlocks() != 5 {
		t.Fatalf("blocks = %d, want 5 (one redirector)", g.NumBlocks())
	}
	r := BlockID(4)
	if !g.Block(r).Synthetic() {
		t.Error("redirector not marked synthetic")
	}

	// Both of the entry's branches are funneled through the redirector.
	for _, e := range g.Block(0).Succs {
		if to := g.Edge(e).To; to != r {
			t.Errorf("entry edge targets b%d, want redirector b%d", to, r)
		}
	}
	// The redirector forwards to each original destination, every forwarding
	// edge guarded by its own routing predicate.
	if len(g.Block(r).Succs) != 2 {
		t.Fatalf("redirector succs = %d, want 2", len(g.Block(r).Succs))
	}
	forwarded := make(map[BlockID]ast.ExprID)
	for _, e := range g.Block(r).Succs {
		forwarded[g.Edge(e).To] = g.Edge(e).Cond
	}
	if _, ok := forwarded[1]; !ok {
		t.Error("no forwarding edge to b1")
	}
	if _, ok := forwarded[2]; !ok {
		t.Error("no forwarding edge to b2")
	}
	if forwarded[1] == ctx.True() || forwarded[2] == ctx.True() {
		t.Error("unconditional forwarding edge; routing is ambiguous")
	}
	if forwarded[1] == forwarded[2] {
		t.Error("forwarding edges share a guard; routing is ambiguous")
	}

	// The rewritten component has exactly one entry node.
	for _, scc := range g.SCCs() {
		if len(scc) > 1 {
			if n := len(entryNodesOf(g, scc)); n != 1 {
				t.Errorf("entry nodes after normalize = %d, want 1", n)
			}
		}
	}
}

func TestNormalize_RejoinKeepsRoutingDistinct(t *testing.T) {
	ctx := ast.NewContext()
	g := NewGraph("rejoin")
	for i := 0; i < 6; i++ {
		id := g.NewBlock()
		g.Block(id).Stmt = ctx.Asm(i, i+1)
		g.Block(id).Orig = i
	}
	g.Entry = 0
	c := ctx.Atom("c", 0x10)
	d := ctx.Atom("d", 0x20)
	// The loop body branches and rejoins; the rejoin edge counts as a second
	// entry, so the component gets an entry redirector. An unconditional edge
	// into the loop must not erase the back edge's condition.
	g.NewEdge(0, 1, ctx.True())
	g.NewEdge(1, 2, c)
	g.NewEdge(1, 3, ctx.Not(c))
	g.NewEdge(2, 4, ctx.True())
	g.NewEdge(3, 4, ctx.True())
	g.NewEdge(4, 1, d)
	g.NewEdge(4, 5, ctx.Not(d))

	g.Normalize(ctx)

	if g.NumBlocks() != 7 {
		t.Fatalf("blocks = %d, want 7 (one entry redirector)", g.NumBlocks())
	}
	r := BlockID(6)
	if !g.Block(r).Synthetic() {
		t.Error("redirector not marked synthetic")
	}
	if len(g.Block(r).Succs) != 2 {
		t.Fatalf("redirector succs = %d, want 2", len(g.Block(r).Succs))
	}
	conds := make(map[ast.ExprID]bool)
	for _, e := range g.Block(r).Succs {
		if cond := g.Edge(e).Cond; cond == ctx.True() {
			t.Errorf("forwarding edge to b%d is unconditional", g.Edge(e).To)
		} else {
			conds[cond] = true
		}
	}
	if len(conds) != 2 {
		t.Errorf("distinct forwarding guards = %d, want 2", len(conds))
	}
	for _, scc := range g.SCCs() {
		if len(scc) > 1 {
			if n := len(entryNodesOf(g, scc)); n != 1 {
				t.Errorf("entry nodes after normalize = %d, want 1", n)
			}
			if n := len(exitNodesOf(g, scc)); n != 1 {
				t.Errorf("exit nodes after normalize = %d, want 1", n)
			}
		}
	}
}

func TestNormalize_MultipleExits(t *testing.T) {
	ctx := ast.NewContext()
	g := NewGraph("exits")
	for i := 0; i < 6; i++ {
		id := g.NewBlock()
		g.Block(id).Stmt = ctx.Asm(i, i+1)
		g.Block(id).Orig = i
	}
	g.Entry = 0
	c := ctx.Atom("c", 0x10)
	d := ctx.Atom("d", 0x20)
	// Loop {1, 2} leaves to 3 from block 1 and to 4 from block 2.
	g.NewEdge(0, 1, ctx.True())
	g.NewEdge(1, 2, c)
	g.NewEdge(1, 3, ctx.Not(c))
	g.NewEdge(2, 1, d)
	g.NewEdge(2, 4, ctx.Not(d))
	g.NewEdge(3, 5, ctx.True())
	g.NewEdge(4, 5, ctx.True())

	g.Normalize(ctx)

	if g.NumBlocks() != 7 {
		t.Fatalf("blocks = %d, want 7 (one exit redirector)", g.NumBlocks())
	}
	for _, scc := range g.SCCs() {
		if len(scc) > 1 {
			if n := len(exitNodesOf(g, scc)); n != 1 {
				t.Errorf("exit nodes after normalize = %d, want 1", n)
			}
			if n := len(entryNodesOf(g, scc)); n != 1 {
				t.Errorf("entry nodes after normalize = %d, want 1", n)
			}
		}
	}

	// The redirector forwards to both original exit targets.
	r := BlockID(6)
	dests := make(map[BlockID]bool)
	for _, e := range g.Block(r).Succs {
		dests[g.Edge(e).To] = true
	}
	if !dests[3] || !dests[4] {
		t.Errorf("redirector forwards to %v, want b3 and b4", dests)
	}
}
