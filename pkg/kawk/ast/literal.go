package ast

import (
	"fmt"

	"github.com/rcarmo/go-kawk/pkg/kawk/token"
	"github.com/rcarmo/go-kawk/pkg/kawk/value"
)

// LiteralValue returns the runtime value of a literal node.
func LiteralValue(lit Literal) value.Value {
	switch n := lit.(type) {
	case *IntLit:
		return value.NewInt(n.Value)
	case *FloatLit:
		return value.NewFloat(n.Value)
	case *StringLit:
		return value.NewString(n.Value)
	}
	panic(fmt.Sprintf("ast.LiteralValue: unexpected literal type %T", lit))
}

// NewLiteral builds the literal node that holds v.
func NewLiteral(at token.Pos, v value.Value) Literal {
	switch v.Kind() {
	case value.Int:
		return &IntLit{At: at, Value: v.Int()}
	case value.Float:
		return &FloatLit{At: at, Value: v.Float()}
	}
	return &StringLit{At: at, Value: v.String()}
}
