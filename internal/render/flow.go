package render

import (
	"fmt"
	"strings"

	"restruct/internal/ast"
	"restruct/internal/flow"
)

// FlowDOT renders a block graph as DOT, including synthetic blocks introduced
// by normalization. Edge labels show the guarding predicate.
func FlowDOT(g *flow.Graph, ctx *ast.Context, t Theme) string {
	if g.NumBlocks() == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("digraph flow {\n")
	b.WriteString("  rankdir=TB;\n")
	b.WriteString("  nodesep=0.3;\n")
	b.WriteString("  ranksep=0.4;\n")
	fmt.Fprintf(&b, "  bgcolor=%q;\n", t.Background)
	fmt.Fprintf(&b, "  node [shape=rect, style=filled, fillcolor=%q, color=%q, penwidth=0.5, fontname=\"Courier,monospace\", fontsize=8, fontcolor=%q, margin=\"0.08,0.04\"];\n",
		t.NodeFill, t.NodeBorder, t.TextColor)
	fmt.Fprintf(&b, "  edge [penwidth=0.7, arrowsize=0.5, arrowhead=vee];\n")
	fmt.Fprintf(&b, "  labelloc=t;\n  labeljust=l;\n")
	fmt.Fprintf(&b, "  label=<<font face=\"Helvetica Neue,Helvetica\" point-size=\"9\" color=\"%s\">%s</font>>;\n",
		t.TextColor, dotEscape(g.Name))
	b.WriteByte('\n')

	for i := 0; i < g.NumBlocks(); i++ {
		id := flow.BlockID(i)
		blk := g.Block(id)

		var label string
		if blk.Synthetic() {
			label = fmt.Sprintf("b%d (synthetic)", i)
		} else {
			label = fmt.Sprintf("b%d @ 0x%x", i, blk.Addr)
		}

		attrs := ""
		if id == g.Entry {
			attrs = fmt.Sprintf(", penwidth=1.5, color=%q", t.EntryBorder)
		}
		if blk.Synthetic() {
			attrs += fmt.Sprintf(", fillcolor=%q", t.SyntheticFill)
		}
		fmt.Fprintf(&b, "  b%d [label=<%s>%s];\n", i, dotEscape(label), attrs)
	}
	b.WriteByte('\n')

	for i := 0; i < g.NumBlocks(); i++ {
		blk := g.Block(flow.BlockID(i))
		for _, eid := range blk.Succs {
			e := g.Edge(eid)
			if e.Cond == ctx.True() {
				fmt.Fprintf(&b, "  b%d -> b%d [color=%q];\n", e.From, e.To, t.EdgeDirect)
				continue
			}
			color := t.EdgeTaken
			if ctx.Expr(e.Cond).Neg {
				color = t.EdgeFall
			}
			cond := truncLabel(ctx.ExprString(e.Cond), 24)
			fmt.Fprintf(&b, "  b%d -> b%d [color=%q, label=<<font point-size=\"7\" color=\"%s\">%s</font>>];\n",
				e.From, e.To, color, color, dotEscape(cond))
		}
	}

	b.WriteString("}\n")
	return b.String()
}
