package parser

import (
	"github.com/rcarmo/go-kawk/pkg/kawk/ast"
	"github.com/rcarmo/go-kawk/pkg/kawk/token"
	"github.com/rcarmo/go-kawk/pkg/kawk/value"
)

// foldConstants collapses the leading run of literal operands of an
// additive or multiplicative chain into one literal positioned at the
// start of the chain. Operands after the first non-literal stay as they
// are, so the result evaluates exactly like the unfolded chain. A step that
// fails (division by zero) is left for the runtime to report.
func foldConstants(at token.Pos, initial ast.Expr, rest []ast.Operand) ast.Expr {
	lit, ok := initial.(ast.Literal)
	if !ok {
		return &ast.BinaryOp{At: at, Initial: initial, Rest: rest}
	}
	acc := ast.LiteralValue(lit)
	n := 0
	for _, operand := range rest {
		rhs, ok := operand.X.(ast.Literal)
		if !ok {
			break
		}
		v, err := value.Fold(acc, operand.Op, ast.LiteralValue(rhs))
		if err != nil {
			break
		}
		acc = v
		n++
	}
	if n == 0 {
		return &ast.BinaryOp{At: at, Initial: initial, Rest: rest}
	}
	head := ast.NewLiteral(at, acc)
	if n == len(rest) {
		return head
	}
	return &ast.BinaryOp{At: at, Initial: head, Rest: rest[n:]}
}
