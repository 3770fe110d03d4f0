package backend

import "restruct/internal/ast"

// FlattenPass collapses sequences nested directly inside sequences. The
// structurizer wraps every block statement in its own sequence so breaks can
// be appended; most of those wrappers are left holding a single child.
type FlattenPass struct{}

// Name implements Pass.
func (FlattenPass) Name() string { return "flatten-sequences" }

// Run implements Pass.
func (FlattenPass) Run(ctx *ast.Context, nodes []*FunctionNode) {
	for _, n := range nodes {
		flatten(ctx, n.Body)
	}
}

func flatten(ctx *ast.Context, id ast.StmtID) {
	s := ctx.Stmt(id)
	switch s.Kind {
	case ast.StmtSeq:
		var kids []ast.StmtID
		for _, kid := range s.Kids {
			flatten(ctx, kid)
			if ctx.Kind(kid) == ast.StmtSeq {
				kids = append(kids, ctx.Stmt(kid).Kids...)
			} else {
				kids = append(kids, kid)
			}
		}
		ctx.SetKids(id, kids)
	case ast.StmtIf, ast.StmtLoop:
		flatten(ctx, s.Body)
	}
}
