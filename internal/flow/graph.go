// Package flow holds the pre-AST block graph of one function and the
// algorithms that turn it into a structured statement tree: loop
// normalization, dominance analyses, region detection, and the structurizer
// itself.
package flow

import (
	"fmt"

	"restruct/internal/ast"
	"restruct/internal/disasm"
)

// BlockID is a handle into a Graph's block arena.
type BlockID int32

// EdgeID is a handle into a Graph's edge arena.
type EdgeID int32

// NoBlock is the invalid block handle.
const NoBlock BlockID = -1

// Edge is a directed connection between two blocks. The condition expression
// is literal true for unconditional edges. Edges are retargeted in place
// during normalization and reduction; they are never destroyed.
type Edge struct {
	From, To BlockID
	Cond     ast.ExprID
}

// Block is an original basic block or a synthetic block created during
// normalization or reduction. Succs and Preds hold edge handles in insertion
// order.
type Block struct {
	Succs []EdgeID
	Preds []EdgeID
	Stmt  ast.StmtID // attached statement; NoStmt until one is produced
	Addr  uint64     // address of the first instruction; 0 for synthetic blocks
	Orig  int        // originating disasm block ID; -1 for synthetic blocks
}

// Synthetic reports whether the block was created during normalization or
// reduction rather than lifted from the instruction stream.
func (b *Block) Synthetic() bool { return b.Orig < 0 }

// Graph is the per-function arena owning all blocks and edges. It is
// discarded after structurization; only the statement tree survives.
type Graph struct {
	Name   string
	Entry  BlockID
	blocks []Block
	edges  []Edge
}

// NewGraph returns an empty graph for the named function.
func NewGraph(name string) *Graph {
	return &Graph{Name: name, Entry: NoBlock}
}

// NewBlock allocates a synthetic block.
func (g *Graph) NewBlock() BlockID {
	g.blocks = append(g.blocks, Block{Stmt: ast.NoStmt, Orig: -1})
	return BlockID(len(g.blocks) - 1)
}

// Block returns the block for id. The pointer stays valid until the next
// NewBlock call; callers must not retain it across allocations.
func (g *Graph) Block(id BlockID) *Block { return &g.blocks[id] }

// Edge returns the edge for id.
func (g *Graph) Edge(id EdgeID) *Edge { return &g.edges[id] }

// NumBlocks returns the number of allocated blocks, synthetic ones included.
func (g *Graph) NumBlocks() int { return len(g.blocks) }

// NewEdge creates an edge from→to with the given condition and links it into
// both endpoint lists.
func (g *Graph) NewEdge(from, to BlockID, cond ast.ExprID) EdgeID {
	g.edges = append(g.edges, Edge{From: from, To: to, Cond: cond})
	id := EdgeID(len(g.edges) - 1)
	fb := &g.blocks[from]
	fb.Succs = append(fb.Succs, id)
	tb := &g.blocks[to]
	tb.Preds = append(tb.Preds, id)
	return id
}

// Retarget points edge e at a new destination, maintaining predecessor lists.
// The condition is untouched.
func (g *Graph) Retarget(e EdgeID, to BlockID) {
	edge := &g.edges[e]
	old := &g.blocks[edge.To]
	for i, p := range old.Preds {
		if p == e {
			old.Preds = append(old.Preds[:i], old.Preds[i+1:]...)
			break
		}
	}
	edge.To = to
	nb := &g.blocks[to]
	nb.Preds = append(nb.Preds, e)
}

// FromCFG lifts a disassembled control flow graph into a block graph.
// Blocks unreachable from the entry (dead code after returns) are dropped,
// along with their edges. Conditional successors become edges guarded by
// interned branch predicates; unconditional successors carry literal true.
func FromCFG(cfg *disasm.FuncCFG, ctx *ast.Context) *Graph {
	g := NewGraph(cfg.Name)
	if len(cfg.Blocks) == 0 {
		return g
	}

	// Reachability over the disasm CFG; the entry is block 0.
	reachable := make([]bool, len(cfg.Blocks))
	stack := []int{0}
	reachable[0] = true
	for len(stack) > 0 {
		b := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, s := range cfg.Blocks[b].Succs {
			if !reachable[s.BlockID] {
				reachable[s.BlockID] = true
				stack = append(stack, s.BlockID)
			}
		}
	}

	ids := make(map[int]BlockID, len(cfg.Blocks))
	for _, bb := range cfg.Blocks {
		if !reachable[bb.ID] {
			continue
		}
		id := g.NewBlock()
		blk := g.Block(id)
		blk.Orig = bb.ID
		blk.Stmt = ctx.Asm(bb.Start, bb.End)
		if bb.Start < len(cfg.Insts) {
			blk.Addr = cfg.Insts[bb.Start].Addr
		}
		ids[bb.ID] = id
	}
	g.Entry = ids[0]

	for _, bb := range cfg.Blocks {
		if !reachable[bb.ID] {
			continue
		}
		from := ids[bb.ID]
		for _, s := range bb.Succs {
			cond := ctx.True()
			if s.Cond != "" {
				cond = ctx.Atom(s.Cond, s.BranchPC)
				if s.Neg {
					cond = ctx.Not(cond)
				}
			}
			g.NewEdge(from, ids[s.BlockID], cond)
		}
	}
	return g
}

// ReversePostOrder returns the blocks reachable from the entry, entry first.
// For an acyclic graph every block appears after all of its predecessors.
func (g *Graph) ReversePostOrder() []BlockID {
	if g.Entry == NoBlock {
		return nil
	}
	post := make([]BlockID, 0, len(g.blocks))
	visited := make([]bool, len(g.blocks))

	type frame struct {
		b    BlockID
		next int
	}
	stack := []frame{{b: g.Entry}}
	visited[g.Entry] = true
	for len(stack) > 0 {
		f := &stack[len(stack)-1]
		succs := g.blocks[f.b].Succs
		if f.next < len(succs) {
			e := g.edges[succs[f.next]]
			f.next++
			if !visited[e.To] {
				visited[e.To] = true
				stack = append(stack, frame{b: e.To})
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

// String renders the graph for diagnostics.
func (g *Graph) String() string {
	s := fmt.Sprintf("graph %s (entry b%d)\n", g.Name, g.Entry)
	for i := range g.blocks {
		b := &g.blocks[i]
		s += fmt.Sprintf("  b%d:", i)
		for _, e := range b.Succs {
			s += fmt.Sprintf(" ->b%d", g.edges[e].To)
		}
		s += "\n"
	}
	return s
}
