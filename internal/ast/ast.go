// Package ast holds the structured statement and expression trees produced
// by the structurizer. Nodes live in a per-module arena and are addressed by
// integer handles, so statements can reference shared expressions without
// ownership cycles.
package ast

import "fmt"

// ExprID is a handle into a Context's expression arena.
type ExprID int32

// StmtID is a handle into a Context's statement arena.
type StmtID int32

// NoExpr and NoStmt are invalid handles.
const (
	NoExpr ExprID = -1
	NoStmt StmtID = -1
)

// ExprKind discriminates expression nodes.
type ExprKind uint8

const (
	ExprTrue ExprKind = iota // boolean literal true
	ExprAtom                 // named branch predicate
	ExprNot                  // logical negation
	ExprAnd                  // short-circuit conjunction
	ExprOr                   // short-circuit disjunction
)

// Expr is an immutable expression node. Atoms carry the predicate label and
// the address of the branch that produced them, so two branches testing the
// same condition code remain distinct predicates.
type Expr struct {
	Kind ExprKind
	Name string // Atom: predicate label, e.g. "eq" or "w3 == 0"
	Site uint64 // Atom: address of the originating branch
	Neg  bool   // Atom: negated (fallthrough side of the branch)
	X, Y ExprID // Not: X; And/Or: X, Y
}

// StmtKind discriminates statement nodes.
type StmtKind uint8

const (
	StmtSeq   StmtKind = iota // ordered, appendable statement list
	StmtIf                    // guarded statement
	StmtLoop                  // pre- or post-tested loop
	StmtBreak                 // guarded exit from the enclosing loop
	StmtAsm                   // run of original instructions
)

// LoopKind tags where a loop's condition is tested.
type LoopKind uint8

const (
	PreTested LoopKind = iota
	PostTested
)

// Stmt is a statement node. Statements are never deleted once created, only
// linked into larger statements; sequences grow through Context.Append.
type Stmt struct {
	Kind StmtKind
	Cond ExprID   // If guard, Loop condition, Break guard
	Body StmtID   // If body, Loop body
	Loop LoopKind // Loop only
	Kids []StmtID // Seq children
	// Asm: [Start, End) indexes into the owning function's instruction slice.
	Start, End int
}

// Context owns the expression and statement arenas for one module.
type Context struct {
	exprs []Expr
	stmts []Stmt
	atoms map[atomKey]ExprID
}

type atomKey struct {
	name string
	site uint64
	neg  bool
}

// NewContext returns an empty context. Handle 0 is the shared true literal.
func NewContext() *Context {
	return &Context{
		exprs: []Expr{{Kind: ExprTrue}},
		atoms: make(map[atomKey]ExprID),
	}
}

// True returns the shared boolean literal true.
func (c *Context) True() ExprID { return 0 }

// Expr returns the expression node for id.
func (c *Context) Expr(id ExprID) Expr { return c.exprs[id] }

// Stmt returns the statement node for id.
func (c *Context) Stmt(id StmtID) Stmt { return c.stmts[id] }

// Kind returns the statement kind for id.
func (c *Context) Kind(id StmtID) StmtKind { return c.stmts[id].Kind }

func (c *Context) newExpr(e Expr) ExprID {
	c.exprs = append(c.exprs, e)
	return ExprID(len(c.exprs) - 1)
}

func (c *Context) newStmt(s Stmt) StmtID {
	c.stmts = append(c.stmts, s)
	return StmtID(len(c.stmts) - 1)
}

// Atom returns the predicate named name for the branch at site. Atoms are
// interned: the same (name, site) pair always yields the same handle.
func (c *Context) Atom(name string, site uint64) ExprID {
	return c.atom(atomKey{name: name, site: site})
}

func (c *Context) atom(k atomKey) ExprID {
	if id, ok := c.atoms[k]; ok {
		return id
	}
	id := c.newExpr(Expr{Kind: ExprAtom, Name: k.name, Site: k.site, Neg: k.neg})
	c.atoms[k] = id
	return id
}

// Not returns the negation of x. Negating an atom flips its polarity instead
// of allocating a wrapper node, so complementary branch sides stay cheap to
// compare.
func (c *Context) Not(x ExprID) ExprID {
	switch e := c.exprs[x]; e.Kind {
	case ExprAtom:
		return c.atom(atomKey{name: e.Name, site: e.Site, neg: !e.Neg})
	case ExprNot:
		return e.X
	default:
		return c.newExpr(Expr{Kind: ExprNot, X: x})
	}
}

// And returns the short-circuit conjunction of x and y. Literal-true operands
// are dropped.
func (c *Context) And(x, y ExprID) ExprID {
	if x == c.True() {
		return y
	}
	if y == c.True() {
		return x
	}
	if x == y {
		return x
	}
	return c.newExpr(Expr{Kind: ExprAnd, X: x, Y: y})
}

// Or returns the short-circuit disjunction of x and y. A literal-true operand
// or a pair of complementary atoms collapses to true, so a block reached along
// both sides of a branch gets the literal-true reaching condition.
func (c *Context) Or(x, y ExprID) ExprID {
	if x == c.True() || y == c.True() {
		return c.True()
	}
	if x == y {
		return x
	}
	if c.complementary(x, y) {
		return c.True()
	}
	return c.newExpr(Expr{Kind: ExprOr, X: x, Y: y})
}

// complementary reports whether x and y are the two sides of one branch.
func (c *Context) complementary(x, y ExprID) bool {
	a, b := c.exprs[x], c.exprs[y]
	return a.Kind == ExprAtom && b.Kind == ExprAtom &&
		a.Name == b.Name && a.Site == b.Site && a.Neg != b.Neg
}

// NewSeq returns a new empty sequence.
func (c *Context) NewSeq() StmtID {
	return c.newStmt(Stmt{Kind: StmtSeq})
}

// Append adds kid to the end of sequence seq.
func (c *Context) Append(seq, kid StmtID) {
	s := &c.stmts[seq]
	if s.Kind != StmtSeq {
		panic(fmt.Sprintf("ast: append to non-sequence statement %d", seq))
	}
	s.Kids = append(s.Kids, kid)
}

// SetKids replaces the children of sequence seq.
func (c *Context) SetKids(seq StmtID, kids []StmtID) {
	s := &c.stmts[seq]
	if s.Kind != StmtSeq {
		panic(fmt.Sprintf("ast: set children of non-sequence statement %d", seq))
	}
	s.Kids = kids
}

// If returns a statement executing body when cond holds. The else branch is
// never produced by structurization.
func (c *Context) If(cond ExprID, body StmtID) StmtID {
	return c.newStmt(Stmt{Kind: StmtIf, Cond: cond, Body: body})
}

// NewLoop returns a loop running body while cond holds.
func (c *Context) NewLoop(cond ExprID, kind LoopKind, body StmtID) StmtID {
	return c.newStmt(Stmt{Kind: StmtLoop, Cond: cond, Loop: kind, Body: body})
}

// Break returns a statement exiting the enclosing loop when guard holds.
func (c *Context) Break(guard ExprID) StmtID {
	return c.newStmt(Stmt{Kind: StmtBreak, Cond: guard})
}

// Asm returns a statement covering instructions [start, end) of the owning
// function.
func (c *Context) Asm(start, end int) StmtID {
	return c.newStmt(Stmt{Kind: StmtAsm, Start: start, End: end})
}

// ExprString renders an expression for diagnostics and pseudocode.
func (c *Context) ExprString(id ExprID) string {
	e := c.exprs[id]
	switch e.Kind {
	case ExprTrue:
		return "true"
	case ExprAtom:
		if e.Neg {
			return "!(" + e.Name + ")"
		}
		return e.Name
	case ExprNot:
		return "!(" + c.ExprString(e.X) + ")"
	case ExprAnd:
		return "(" + c.ExprString(e.X) + " && " + c.ExprString(e.Y) + ")"
	case ExprOr:
		return "(" + c.ExprString(e.X) + " || " + c.ExprString(e.Y) + ")"
	default:
		panic(fmt.Sprintf("ast: unknown expression kind %d", e.Kind))
	}
}
