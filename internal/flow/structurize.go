package flow

import (
	"fmt"

	"restruct/internal/ast"
)

// The structurizer collapses a normalized, region-annotated block graph into
// one statement per function. Regions are reduced bottom-up: each child
// region's block range is folded into a single synthetic block carrying a
// fully structured statement, then the flat remainder is folded with
// synthesized reaching conditions.
//
// Any inconsistency between the region tree and the block order is a defect
// in upstream analysis, not user input; it aborts via panic with the
// function and block identity attached.

// Structurizer reduces one function. The block order is linearized once,
// loop members kept contiguous, and spliced in place as regions collapse; it
// is the basis for both range lookup and emission order.
type Structurizer struct {
	ctx   *ast.Context
	g     *Graph
	order []BlockID
}

// NewStructurizer prepares a structurizer for g. The graph must already be
// normalized.
func NewStructurizer(ctx *ast.Context, g *Graph) *Structurizer {
	return &Structurizer{ctx: ctx, g: g, order: g.BlockOrder()}
}

// Structurize reduces the whole region tree to a single statement
// representing the function body.
func (s *Structurizer) Structurize(root *Region) ast.StmtID {
	if len(s.order) == 0 {
		return s.ctx.NewSeq()
	}
	stmt, _ := s.reduceRegion(root, 0, len(s.order))
	return stmt
}

// reduceRegion collapses r's child regions one by one, then folds the
// remaining flat range [begin, end) into one statement. Because child
// reduction splices the shared block order in place, the range shrinks as
// children collapse; the updated end index is returned alongside the
// statement.
func (s *Structurizer) reduceRegion(r *Region, begin, end int) (ast.StmtID, int) {
	for len(r.Children) > 0 {
		child := r.Children[0]

		// Locate the child's entry and exit inside the current range. A child
		// may share this region's exit block, which sits one past the range.
		cb, ce := -1, -1
		limit := end
		if limit < len(s.order) {
			limit++
		}
		for i := begin; i < limit; i++ {
			if s.order[i] == child.Entry {
				cb = i
			}
			if s.order[i] == child.Exit {
				ce = i
				break
			}
		}
		if cb < 0 || ce < 0 {
			panic(fmt.Sprintf("flow: %s: region b%d..b%d not inside block range [%d,%d)",
				s.g.Name, child.Entry, child.Exit, begin, end))
		}

		// Reduce the child's own range, then splice one synthetic block in
		// its place. The child's internal splices already shrank our range.
		stmt, ce2 := s.reduceRegion(child, cb, ce)
		end -= ce - ce2
		ce = ce2

		inside := make(map[BlockID]bool, ce-cb)
		for _, b := range s.order[cb:ce] {
			inside[b] = true
		}

		nb := s.g.NewBlock()
		s.g.Block(nb).Stmt = stmt
		s.order = append(s.order[:cb], append([]BlockID{nb}, s.order[ce:]...)...)
		end -= ce - cb - 1

		// Every edge into the child's entry now enters the synthetic block.
		entry := s.g.Block(child.Entry)
		preds := entry.Preds
		entry.Preds = nil
		for _, e := range preds {
			s.g.Edge(e).To = nb
			s.g.Block(nb).Preds = append(s.g.Block(nb).Preds, e)
		}

		// Internal paths to the shared exit are now captured inside the
		// folded statement; collapse them into one unconditional edge.
		exit := s.g.Block(child.Exit)
		kept := exit.Preds[:0]
		for _, e := range exit.Preds {
			if !inside[s.g.Edge(e).From] {
				kept = append(kept, e)
			}
		}
		exit.Preds = kept
		s.g.NewEdge(nb, child.Exit, s.ctx.True())

		r.Children = r.Children[1:]
	}

	return s.foldRange(begin, end), end
}

// foldRange converts the flat, region-free range [begin, end) into one
// statement. Blocks are emitted in order, each guarded by its reaching
// condition; a back edge inside the range makes the result a loop with
// conditional breaks toward the block following the range.
func (s *Structurizer) foldRange(begin, end int) ast.StmtID {
	ctx := s.ctx
	result := ctx.NewSeq()
	reaching := make(map[BlockID]ast.ExprID, end-begin)
	member := make(map[BlockID]bool, end-begin)
	isLoop := false

	for i := begin; i < end; i++ {
		b := s.order[i]
		blk := s.g.Block(b)

		// A successor edge back into the range means this range is a loop
		// body; keep going, every block still needs its place in the
		// sequence.
		member[b] = true
		if !isLoop {
			for _, e := range blk.Succs {
				if member[s.g.Edge(e).To] {
					isLoop = true
					break
				}
			}
		}

		// Reaching condition: OR over the incoming path conditions. An edge
		// whose source has no recorded condition comes from outside the
		// range — that is the range's unconditional entry.
		reach := ast.NoExpr
		for _, eid := range blk.Preds {
			e := s.g.Edge(eid)
			edgeCond := ctx.True()
			parent := ast.NoExpr
			if pc, ok := reaching[e.From]; ok {
				edgeCond = e.Cond
				parent = pc
			}
			var path ast.ExprID
			switch {
			case parent == ast.NoExpr:
				path = edgeCond
			case edgeCond == ctx.True():
				path = parent
			default:
				path = ctx.And(parent, edgeCond)
			}
			if reach == ast.NoExpr {
				reach = path
			} else {
				reach = ctx.Or(reach, path)
			}
		}
		if reach == ast.NoExpr {
			reach = ctx.True()
		}

		// The block statement must be a sequence so a break can be appended
		// to it later.
		if blk.Stmt == ast.NoStmt || ctx.Kind(blk.Stmt) != ast.StmtSeq {
			seq := ctx.NewSeq()
			if blk.Stmt != ast.NoStmt {
				ctx.Append(seq, blk.Stmt)
			}
			blk.Stmt = seq
		}

		insert := blk.Stmt
		if reach != ctx.True() {
			insert = ctx.If(reach, blk.Stmt)
		}
		ctx.Append(result, insert)

		if _, dup := reaching[b]; dup {
			panic(fmt.Sprintf("flow: %s: reaching condition for b%d computed twice", s.g.Name, b))
		}
		reaching[b] = reach
	}

	// A range covering the whole function has no successor and therefore no
	// break target; its infinite-loop semantics stay implicit.
	if isLoop && end < len(s.order) {
		succ := s.order[end]
		for _, eid := range s.g.Block(succ).Preds {
			e := s.g.Edge(eid)
			if member[e.From] {
				ctx.Append(s.g.Block(e.From).Stmt, ctx.Break(e.Cond))
			}
		}
		return ctx.NewLoop(ctx.True(), ast.PreTested, result)
	}
	return result
}
