// Package ast declares the syntax tree of a kawk program.
//
// The node set is closed: Expr, Stmt and Block are sealed by unexported
// marker methods, so only this package can add a variant and every type
// switch over them can be checked against the list below.
package ast

import "github.com/rcarmo/go-kawk/pkg/kawk/token"

// Node is implemented by every syntax tree node. Pos is the position of the
// first token the node was built from.
type Node interface {
	Pos() token.Pos
}

// Expr is one of *IntLit, *FloatLit, *StringLit, *Ident, *BinaryOp, *ParenExpr.
type Expr interface {
	Node
	exprNode()
}

// Stmt is one of *Assign, *Call, *EmptyStmt.
type Stmt interface {
	Node
	stmtNode()
}

// Block is one of *BeginBlock, *EndBlock, *PatternBlock.
type Block interface {
	Node
	blockNode()
}

// Literal is implemented by the literal expressions.
type Literal interface {
	Expr
	literalNode()
}

type (
	IntLit struct {
		At    token.Pos
		Value int64
	}

	FloatLit struct {
		At    token.Pos
		Value float64
	}

	// StringLit holds the decoded string; Raw records the r"..." form.
	StringLit struct {
		At    token.Pos
		Value string
		Raw   bool
	}

	// Ident names a variable, a reserved variable (NR, NF, FS) or a field
	// ($0, $1, $NF, ...).
	Ident struct {
		At   token.Pos
		Name string
	}

	// BinaryOp is Initial followed by operator/operand pairs applied strictly
	// left to right. Precedence is encoded by nesting.
	BinaryOp struct {
		At      token.Pos
		Initial Expr
		Rest    []Operand
	}

	ParenExpr struct {
		At token.Pos
		X  Expr
	}
)

// Operand is one (operator, operand) step of a BinaryOp.
type Operand struct {
	Op string
	X  Expr
}

type (
	Assign struct {
		At     token.Pos
		Target *Ident
		Value  Expr
	}

	Call struct {
		At   token.Pos
		Name *Ident
		Args []Expr
	}

	// EmptyStmt stands for a stray semicolon.
	EmptyStmt struct {
		At token.Pos
	}
)

type (
	BeginBlock struct {
		At   token.Pos
		Body []Stmt
	}

	EndBlock struct {
		At   token.Pos
		Body []Stmt
	}

	// PatternBlock runs Body for every record on which Pattern is true.
	// A nil Pattern matches every record.
	PatternBlock struct {
		At      token.Pos
		Pattern Expr
		Body    []Stmt
	}
)

// Program holds the blocks of a script grouped by category, each in source
// order. BEGIN blocks always run first and END blocks last, wherever they
// appear in the source.
type Program struct {
	At       token.Pos
	Begin    []*BeginBlock
	Patterns []*PatternBlock
	End      []*EndBlock
}

func (n *IntLit) Pos() token.Pos       { return n.At }
func (n *FloatLit) Pos() token.Pos     { return n.At }
func (n *StringLit) Pos() token.Pos    { return n.At }
func (n *Ident) Pos() token.Pos        { return n.At }
func (n *BinaryOp) Pos() token.Pos     { return n.At }
func (n *ParenExpr) Pos() token.Pos    { return n.At }
func (n *Assign) Pos() token.Pos       { return n.At }
func (n *Call) Pos() token.Pos         { return n.At }
func (n *EmptyStmt) Pos() token.Pos    { return n.At }
func (n *BeginBlock) Pos() token.Pos   { return n.At }
func (n *EndBlock) Pos() token.Pos     { return n.At }
func (n *PatternBlock) Pos() token.Pos { return n.At }
func (n *Program) Pos() token.Pos      { return n.At }

func (*IntLit) exprNode()    {}
func (*FloatLit) exprNode()  {}
func (*StringLit) exprNode() {}
func (*Ident) exprNode()     {}
func (*BinaryOp) exprNode()  {}
func (*ParenExpr) exprNode() {}

func (*IntLit) literalNode()    {}
func (*FloatLit) literalNode()  {}
func (*StringLit) literalNode() {}

func (*Assign) stmtNode()    {}
func (*Call) stmtNode()      {}
func (*EmptyStmt) stmtNode() {}

func (*BeginBlock) blockNode()   {}
func (*EndBlock) blockNode()     {}
func (*PatternBlock) blockNode() {}

// Blocks returns every block of p in execution category order.
func (p *Program) Blocks() []Block {
	blocks := make([]Block, 0, len(p.Begin)+len(p.Patterns)+len(p.End))
	for _, b := range p.Begin {
		blocks = append(blocks, b)
	}
	for _, b := range p.Patterns {
		blocks = append(blocks, b)
	}
	for _, b := range p.End {
		blocks = append(blocks, b)
	}
	return blocks
}
