package ast

import "fmt"

// Inspect traverses the tree rooted at node in depth-first order, calling
// f for every node. If f returns false the children of that node are
// skipped.
func Inspect(node Node, f func(Node) bool) {
	if node == nil || !f(node) {
		return
	}
	switch n := node.(type) {
	case *Program:
		for _, b := range n.Blocks() {
			Inspect(b, f)
		}
	case *BeginBlock:
		inspectStmts(n.Body, f)
	case *EndBlock:
		inspectStmts(n.Body, f)
	case *PatternBlock:
		if n.Pattern != nil {
			Inspect(n.Pattern, f)
		}
		inspectStmts(n.Body, f)
	case *Assign:
		Inspect(n.Target, f)
		Inspect(n.Value, f)
	case *Call:
		Inspect(n.Name, f)
		for _, arg := range n.Args {
			Inspect(arg, f)
		}
	case *BinaryOp:
		Inspect(n.Initial, f)
		for _, operand := range n.Rest {
			Inspect(operand.X, f)
		}
	case *ParenExpr:
		Inspect(n.X, f)
	case *IntLit, *FloatLit, *StringLit, *Ident, *EmptyStmt:
		// leaves
	default:
		panic(fmt.Sprintf("ast.Inspect: unexpected node type %T", n))
	}
}

func inspectStmts(stmts []Stmt, f func(Node) bool) {
	for _, s := range stmts {
		Inspect(s, f)
	}
}
