package ast

import (
	"strconv"
	"strings"
)

// AsmFormatter renders the instructions in [start, end) as text lines.
// It keeps the printer independent of how instructions are stored.
type AsmFormatter func(start, end int) []string

// Print renders a statement tree as indented pseudocode. Asm statements are
// expanded through asm; a nil formatter prints a placeholder range instead.
func (c *Context) Print(root StmtID, asm AsmFormatter) string {
	var b strings.Builder
	c.print(&b, root, 0, asm)
	return b.String()
}

func (c *Context) print(b *strings.Builder, id StmtID, depth int, asm AsmFormatter) {
	s := c.stmts[id]
	switch s.Kind {
	case StmtSeq:
		for _, kid := range s.Kids {
			c.print(b, kid, depth, asm)
		}
	case StmtIf:
		indent(b, depth)
		b.WriteString("if (")
		b.WriteString(c.ExprString(s.Cond))
		b.WriteString(") {\n")
		c.print(b, s.Body, depth+1, asm)
		indent(b, depth)
		b.WriteString("}\n")
	case StmtLoop:
		indent(b, depth)
		if s.Loop == PostTested {
			b.WriteString("do {\n")
			c.print(b, s.Body, depth+1, asm)
			indent(b, depth)
			b.WriteString("} while (")
			b.WriteString(c.ExprString(s.Cond))
			b.WriteString(")\n")
			return
		}
		b.WriteString("while (")
		b.WriteString(c.ExprString(s.Cond))
		b.WriteString(") {\n")
		c.print(b, s.Body, depth+1, asm)
		indent(b, depth)
		b.WriteString("}\n")
	case StmtBreak:
		indent(b, depth)
		if s.Cond == c.True() {
			b.WriteString("break\n")
			return
		}
		b.WriteString("if (")
		b.WriteString(c.ExprString(s.Cond))
		b.WriteString(") break\n")
	case StmtAsm:
		var lines []string
		if asm != nil {
			lines = asm(s.Start, s.End)
		} else {
			lines = []string{"asm [" + strconv.Itoa(s.Start) + ":" + strconv.Itoa(s.End) + ")"}
		}
		for _, line := range lines {
			indent(b, depth)
			b.WriteString(line)
			b.WriteByte('\n')
		}
	}
}

func indent(b *strings.Builder, depth int) {
	for i := 0; i < depth; i++ {
		b.WriteString("  ")
	}
}
