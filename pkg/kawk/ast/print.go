package ast

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rcarmo/go-kawk/pkg/kawk/value"
)

// Fprint writes node and its children to w as an indented tree, one node
// per line, with positions. It is what `kawk --ast` prints.
func Fprint(w io.Writer, node Node) error {
	p := &printer{w: w}
	p.node(node, 0)
	return p.err
}

type printer struct {
	w   io.Writer
	err error
}

func (p *printer) line(depth int, format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, "%s"+format+"\n", append([]any{strings.Repeat("  ", depth)}, args...)...)
}

func (p *printer) node(node Node, depth int) {
	switch n := node.(type) {
	case *Program:
		p.line(depth, "Program(%s)", n.At)
		for _, b := range n.Blocks() {
			p.node(b, depth+1)
		}
	case *BeginBlock:
		p.line(depth, "Begin(%s)", n.At)
		p.stmts(n.Body, depth+1)
	case *EndBlock:
		p.line(depth, "End(%s)", n.At)
		p.stmts(n.Body, depth+1)
	case *PatternBlock:
		p.line(depth, "Pattern(%s)", n.At)
		if n.Pattern != nil {
			p.node(n.Pattern, depth+1)
		}
		p.stmts(n.Body, depth+1)
	case *Assign:
		p.line(depth, "Assign(%s)", n.At)
		p.node(n.Target, depth+1)
		p.node(n.Value, depth+1)
	case *Call:
		p.line(depth, "Call(%s)", n.At)
		p.node(n.Name, depth+1)
		for _, arg := range n.Args {
			p.node(arg, depth+1)
		}
	case *EmptyStmt:
		p.line(depth, "Empty(%s)", n.At)
	case *BinaryOp:
		p.line(depth, "BinaryOp(%s)", n.At)
		p.node(n.Initial, depth+1)
		for _, operand := range n.Rest {
			p.line(depth+1, "%s", operand.Op)
			p.node(operand.X, depth+1)
		}
	case *ParenExpr:
		p.line(depth, "Paren(%s)", n.At)
		p.node(n.X, depth+1)
	case *IntLit:
		p.line(depth, "Int(%s, %d)", n.At, n.Value)
	case *FloatLit:
		p.line(depth, "Float(%s, %s)", n.At, value.FormatFloat(n.Value))
	case *StringLit:
		p.line(depth, "String(%s, %s)", n.At, strconv.Quote(n.Value))
	case *Ident:
		p.line(depth, "Ident(%s, %s)", n.At, n.Name)
	default:
		panic(fmt.Sprintf("ast.Fprint: unexpected node type %T", n))
	}
}

func (p *printer) stmts(stmts []Stmt, depth int) {
	for _, s := range stmts {
		p.node(s, depth)
	}
}
