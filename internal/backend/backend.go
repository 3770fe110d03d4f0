// Package backend drives structurization across a module: it lifts each
// function's instruction stream into a block graph, normalizes and reduces
// it, and collects the resulting statement trees for whole-module passes.
package backend

import (
	"sort"

	"restruct/internal/ast"
	"restruct/internal/disasm"
	"restruct/internal/flow"
)

// FunctionNode is the output of structurizing one function. The statement
// tree lives in the module-wide ast.Context; the block graph it came from is
// discarded after structurization.
type FunctionNode struct {
	Name  string
	Addr  uint64 // load address of the first instruction
	Insts []disasm.Inst
	Body  ast.StmtID
}

// Format renders the function's instructions in [start, end) as text lines,
// for use as an ast.AsmFormatter.
func (n *FunctionNode) Format(start, end int) []string {
	lines := make([]string, 0, end-start)
	for i := start; i < end && i < len(n.Insts); i++ {
		lines = append(lines, n.Insts[i].Text)
	}
	return lines
}

// Pass is a whole-module cleanup pass run over the sorted function list.
type Pass interface {
	Name() string
	Run(ctx *ast.Context, nodes []*FunctionNode)
}

// Backend accumulates structurized functions. Functions are processed
// strictly sequentially: each gets its own block graph, while statements
// share the module-wide context so later passes can walk them.
type Backend struct {
	ctx    *ast.Context
	nodes  []*FunctionNode
	passes []Pass
}

// New returns an empty backend with a fresh statement context.
func New() *Backend {
	return &Backend{ctx: ast.NewContext()}
}

// Context returns the module-wide statement/expression context.
func (b *Backend) Context() *ast.Context { return b.ctx }

// Nodes returns the accumulated function nodes.
func (b *Backend) Nodes() []*FunctionNode { return b.nodes }

// AddPass registers a cleanup pass to run after all functions are
// structurized and sorted.
func (b *Backend) AddPass(p Pass) {
	b.passes = append(b.passes, p)
}

// Structurize lifts one function and reduces it to a statement tree.
func (b *Backend) Structurize(name string, insts []disasm.Inst) *FunctionNode {
	node := &FunctionNode{Name: name, Insts: insts}
	if len(insts) > 0 {
		node.Addr = insts[0].Addr
	}

	cfg := disasm.BuildCFG(name, insts)
	g := flow.FromCFG(&cfg, b.ctx)
	if g.Entry == flow.NoBlock {
		node.Body = b.ctx.NewSeq()
	} else {
		g.Normalize(b.ctx)
		root := g.Regions()
		node.Body = flow.NewStructurizer(b.ctx, g).Structurize(root)
	}

	b.nodes = append(b.nodes, node)
	return node
}

// Run sorts the function list by load address (ties broken by name) and runs
// the registered passes over it.
func (b *Backend) Run() {
	sort.Slice(b.nodes, func(i, j int) bool {
		if b.nodes[i].Addr != b.nodes[j].Addr {
			return b.nodes[i].Addr < b.nodes[j].Addr
		}
		return b.nodes[i].Name < b.nodes[j].Name
	})
	for _, p := range b.passes {
		p.Run(b.ctx, b.nodes)
	}
}
