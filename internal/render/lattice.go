package render

import (
	"fmt"

	"github.com/zboralski/lattice"
	latticerender "github.com/zboralski/lattice/render"

	"restruct/internal/disasm"
)

// ToLattice maps a disasm.FuncCFG to a lattice.FuncCFG. Conditional
// successors keep their predicate label; call edges are mapped into blocks by
// matching instruction PCs.
func ToLattice(dcfg *disasm.FuncCFG, edges []disasm.CallEdge) *lattice.FuncCFG {
	edgeByPC := make(map[uint64]disasm.CallEdge, len(edges))
	for _, e := range edges {
		edgeByPC[e.FromPC] = e
	}

	lcfg := &lattice.FuncCFG{Name: dcfg.Name}
	for _, db := range dcfg.Blocks {
		lb := &lattice.BasicBlock{
			ID:    db.ID,
			Start: db.Start,
			End:   db.End,
			Term:  db.IsTerm,
		}

		for _, ds := range db.Succs {
			cond := ds.Cond
			if ds.Neg && cond != "" {
				cond = "!" + cond
			}
			lb.Succs = append(lb.Succs, lattice.Successor{
				BlockID: ds.BlockID,
				Cond:    cond,
			})
		}

		// Populate calls from edges that fall within this block's instruction range.
		for idx := db.Start; idx < db.End && idx < len(dcfg.Insts); idx++ {
			if e, ok := edgeByPC[dcfg.Insts[idx].Addr]; ok {
				callee := e.TargetName
				if callee == "" && e.Kind == "blr" {
					callee = e.Reg
				}
				if callee == "" {
					callee = fmt.Sprintf("0x%x", e.TargetPC)
				}
				lb.Calls = append(lb.Calls, lattice.CallSite{
					Offset: idx,
					Callee: callee,
				})
			}
		}

		lcfg.Blocks = append(lcfg.Blocks, lb)
	}
	return lcfg
}

// LatticeDOT renders a single function's lattice CFG as DOT.
func LatticeDOT(lcfg *lattice.FuncCFG, name string) string {
	g := &lattice.CFGGraph{Funcs: []*lattice.FuncCFG{lcfg}}
	return latticerender.DOTCFG(g, name)
}
