package parser_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcarmo/go-kawk/pkg/kawk/ast"
	"github.com/rcarmo/go-kawk/pkg/kawk/lexer"
	"github.com/rcarmo/go-kawk/pkg/kawk/parser"
	"github.com/rcarmo/go-kawk/pkg/kawk/token"
)

func parse(t *testing.T, src string) *ast.Program {
	t.Helper()
	prog, err := parser.ParseString(src)
	require.NoError(t, err)
	require.NotNil(t, prog)
	return prog
}

// onlyBody returns the statements of the single pattern block of src.
func onlyBody(t *testing.T, src string) []ast.Stmt {
	t.Helper()
	prog := parse(t, src)
	require.Len(t, prog.Patterns, 1)
	return prog.Patterns[0].Body
}

func stmtKinds(body []ast.Stmt) []string {
	kinds := make([]string, len(body))
	for i, s := range body {
		kinds[i] = fmt.Sprintf("%T", s)
	}
	return kinds
}

func TestEmptyProgram(t *testing.T) {
	for _, src := range []string{"", "   ", "# nothing\n", "/* */"} {
		prog := parse(t, src)
		assert.Empty(t, prog.Blocks(), "src %q", src)
	}
}

func TestSemicolons(t *testing.T) {
	tests := []struct {
		src  string
		want []string
	}{
		{"{}", []string{}},
		{"{;}", []string{"*ast.EmptyStmt"}},
		{"{;;;}", []string{"*ast.EmptyStmt", "*ast.EmptyStmt", "*ast.EmptyStmt"}},
		{"{x=5}", []string{"*ast.Assign"}},
		{"{x=5;}", []string{"*ast.Assign"}},
		{"{x=5;;}", []string{"*ast.Assign", "*ast.EmptyStmt"}},
		{"{;x=1}", []string{"*ast.EmptyStmt", "*ast.Assign"}},
		{"{x=1;y=2}", []string{"*ast.Assign", "*ast.Assign"}},
		{"{x=1;;y=2}", []string{"*ast.Assign", "*ast.EmptyStmt", "*ast.Assign"}},
		{"{f();g()}", []string{"*ast.Call", "*ast.Call"}},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			assert.Equal(t, tt.want, stmtKinds(onlyBody(t, tt.src)))
		})
	}
}

func TestBlocksAreGroupedByCategory(t *testing.T) {
	prog := parse(t, `END { a() } { b() } BEGIN { c() } $1 == "x" { d() } BEGIN { e() }`)
	require.Len(t, prog.Begin, 2)
	require.Len(t, prog.Patterns, 2)
	require.Len(t, prog.End, 1)

	name := func(body []ast.Stmt) string { return body[0].(*ast.Call).Name.Name }
	assert.Equal(t, "c", name(prog.Begin[0].Body))
	assert.Equal(t, "e", name(prog.Begin[1].Body))
	assert.Equal(t, "b", name(prog.Patterns[0].Body))
	assert.Nil(t, prog.Patterns[0].Pattern)
	assert.Equal(t, "d", name(prog.Patterns[1].Body))
	assert.NotNil(t, prog.Patterns[1].Pattern)
	assert.Equal(t, "a", name(prog.End[0].Body))

	var order []string
	for _, b := range prog.Blocks() {
		order = append(order, fmt.Sprintf("%T", b))
	}
	assert.Equal(t, []string{"*ast.BeginBlock", "*ast.BeginBlock", "*ast.PatternBlock", "*ast.PatternBlock", "*ast.EndBlock"}, order)
}

func TestCalls(t *testing.T) {
	body := onlyBody(t, `{ f(); g(1, 2, x); print $1; print "a" + 1 }`)
	require.Len(t, body, 4)

	f := body[0].(*ast.Call)
	assert.Equal(t, "f", f.Name.Name)
	assert.Empty(t, f.Args)

	g := body[1].(*ast.Call)
	require.Len(t, g.Args, 3)
	assert.IsType(t, &ast.IntLit{}, g.Args[0])
	assert.IsType(t, &ast.Ident{}, g.Args[2])

	bare := body[2].(*ast.Call)
	require.Len(t, bare.Args, 1)
	assert.Equal(t, "$1", bare.Args[0].(*ast.Ident).Name)

	// "a" + 1 folds to Int 1: "a" has no numeric prefix.
	folded := body[3].(*ast.Call)
	require.Len(t, folded.Args, 1)
	assert.Equal(t, &ast.IntLit{At: token.Pos{Line: 1, Col: 36}, Value: 1}, folded.Args[0])
}

func TestAssignment(t *testing.T) {
	body := onlyBody(t, `{ $3 = NR * 2 }`)
	require.Len(t, body, 1)
	a := body[0].(*ast.Assign)
	assert.Equal(t, "$3", a.Target.Name)
	op := a.Value.(*ast.BinaryOp)
	assert.Equal(t, "NR", op.Initial.(*ast.Ident).Name)
	require.Len(t, op.Rest, 1)
	assert.Equal(t, "*", op.Rest[0].Op)
}

func TestPrecedence(t *testing.T) {
	body := onlyBody(t, `{ x = a + b * c == d < e }`)
	eq := body[0].(*ast.Assign).Value.(*ast.BinaryOp)
	require.Len(t, eq.Rest, 1)
	assert.Equal(t, "==", eq.Rest[0].Op)

	sum := eq.Initial.(*ast.BinaryOp)
	assert.Equal(t, "a", sum.Initial.(*ast.Ident).Name)
	require.Len(t, sum.Rest, 1)
	assert.Equal(t, "+", sum.Rest[0].Op)
	prod := sum.Rest[0].X.(*ast.BinaryOp)
	assert.Equal(t, "*", prod.Rest[0].Op)

	lt := eq.Rest[0].X.(*ast.BinaryOp)
	assert.Equal(t, "<", lt.Rest[0].Op)
}

func TestChainsAreFlat(t *testing.T) {
	body := onlyBody(t, `{ x = a - b + c - d }`)
	op := body[0].(*ast.Assign).Value.(*ast.BinaryOp)
	assert.Equal(t, "a", op.Initial.(*ast.Ident).Name)
	var ops []string
	for _, o := range op.Rest {
		ops = append(ops, o.Op)
	}
	assert.Equal(t, []string{"-", "+", "-"}, ops)
}

func TestConstantFolding(t *testing.T) {
	body := onlyBody(t, `{ print(2.5 + 4, 2 + 3, "123.qq" + "12", 7 / 2, 7 % 4 * 2) }`)
	args := body[0].(*ast.Call).Args
	require.Len(t, args, 5)

	ast.Inspect(body[0], func(n ast.Node) bool {
		_, isOp := n.(*ast.BinaryOp)
		assert.False(t, isOp, "unfolded operator at %s", n.Pos())
		return true
	})

	assert.Equal(t, 6.5, args[0].(*ast.FloatLit).Value)
	assert.Equal(t, int64(5), args[1].(*ast.IntLit).Value)
	assert.Equal(t, 135.0, args[2].(*ast.FloatLit).Value)
	assert.Equal(t, int64(3), args[3].(*ast.IntLit).Value)
	assert.Equal(t, int64(6), args[4].(*ast.IntLit).Value)
}

func TestFoldingKeepsResidual(t *testing.T) {
	body := onlyBody(t, `{ a = 2 + 3 + x; b = x + 2 + 3; c = 2 * 3 + x * 4; d = (1 + 2) * 3 }`)
	value := func(i int) ast.Expr { return body[i].(*ast.Assign).Value }

	a := value(0).(*ast.BinaryOp)
	assert.Equal(t, int64(5), a.Initial.(*ast.IntLit).Value)
	require.Len(t, a.Rest, 1)
	assert.Equal(t, "x", a.Rest[0].X.(*ast.Ident).Name)

	// Only a leading literal run folds.
	b := value(1).(*ast.BinaryOp)
	assert.Equal(t, "x", b.Initial.(*ast.Ident).Name)
	assert.Len(t, b.Rest, 2)

	c := value(2).(*ast.BinaryOp)
	assert.Equal(t, int64(6), c.Initial.(*ast.IntLit).Value)
	assert.IsType(t, &ast.BinaryOp{}, c.Rest[0].X)

	d := value(3).(*ast.BinaryOp)
	paren := d.Initial.(*ast.ParenExpr)
	assert.Equal(t, int64(3), paren.X.(*ast.IntLit).Value)
}

func TestComparisonsAreNotFolded(t *testing.T) {
	body := onlyBody(t, `{ x = 1 == 1; y = 2 < 3 }`)
	assert.IsType(t, &ast.BinaryOp{}, body[0].(*ast.Assign).Value)
	assert.IsType(t, &ast.BinaryOp{}, body[1].(*ast.Assign).Value)
}

func TestDivisionByZeroIsNotFolded(t *testing.T) {
	body := onlyBody(t, `{ x = 6 / 2 / 0 }`)
	op := body[0].(*ast.Assign).Value.(*ast.BinaryOp)
	assert.Equal(t, int64(3), op.Initial.(*ast.IntLit).Value)
	require.Len(t, op.Rest, 1)
	assert.Equal(t, "/", op.Rest[0].Op)
}

func TestLiterals(t *testing.T) {
	body := onlyBody(t, `{ print(0x1F, 0b101, 1_000, 1_0.5, .25, r"a\b") }`)
	args := body[0].(*ast.Call).Args
	assert.Equal(t, int64(31), args[0].(*ast.IntLit).Value)
	assert.Equal(t, int64(5), args[1].(*ast.IntLit).Value)
	assert.Equal(t, int64(1000), args[2].(*ast.IntLit).Value)
	assert.Equal(t, 10.5, args[3].(*ast.FloatLit).Value)
	assert.Equal(t, 0.25, args[4].(*ast.FloatLit).Value)
	s := args[5].(*ast.StringLit)
	assert.Equal(t, `a\b`, s.Value)
	assert.True(t, s.Raw)
}

func TestPositions(t *testing.T) {
	prog := parse(t, "BEGIN {\n  x = 1 + 2\n}\n$1 == \"a\" { print(x) }")
	begin := prog.Begin[0]
	assert.Equal(t, token.Pos{Line: 1, Col: 1}, begin.Pos())
	assign := begin.Body[0].(*ast.Assign)
	assert.Equal(t, token.Pos{Line: 2, Col: 3}, assign.Pos())
	assert.Equal(t, token.Pos{Line: 2, Col: 7}, assign.Value.Pos())

	pat := prog.Patterns[0]
	assert.Equal(t, token.Pos{Line: 4, Col: 1}, pat.Pos())
	assert.Equal(t, token.Pos{Line: 4, Col: 1}, pat.Pattern.Pos())
	assert.Equal(t, token.Pos{Line: 4, Col: 13}, pat.Body[0].Pos())
}

func TestErrors(t *testing.T) {
	tests := []struct {
		src string
		pos token.Pos
		msg string
	}{
		{"{1}", token.Pos{Line: 1, Col: 2}, "a statement must be an assignment or a function call"},
		{"{v}", token.Pos{Line: 1, Col: 3}, "a statement must be an assignment or a function call"},
		{"{x=5 y=6}", token.Pos{Line: 1, Col: 6}, "expected ';' or '}'"},
		{`{print "a", "b"}`, token.Pos{Line: 1, Col: 11}, "expected ';' or '}'"},
		{"BEGIN", token.Pos{Line: 1, Col: 6}, "expected '{'"},
		{"BEGIN x", token.Pos{Line: 1, Col: 7}, "expected '{'"},
		{"{x=}", token.Pos{Line: 1, Col: 4}, "expected an expression"},
		{"{f(1,)}", token.Pos{Line: 1, Col: 6}, "expected an expression"},
		{"{f(1}", token.Pos{Line: 1, Col: 5}, "expected ')'"},
		{"{x = (1 + 2}", token.Pos{Line: 1, Col: 12}, "expected ')'"},
		{"{x=1", token.Pos{Line: 1, Col: 5}, "expected ';' or '}'"},
		{"x == {y=1}", token.Pos{Line: 1, Col: 6}, "expected an expression"},
		{"{ = 1 }", token.Pos{Line: 1, Col: 3}, "a statement must be an assignment or a function call"},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			_, err := parser.ParseString(tt.src)
			require.Error(t, err)
			var perr *parser.Error
			require.True(t, errors.As(err, &perr), "want *parser.Error, got %T: %v", err, err)
			assert.Equal(t, tt.pos, perr.Pos)
			assert.Contains(t, perr.Msg, tt.msg)
		})
	}
}

func TestLexicalErrorsPropagate(t *testing.T) {
	_, err := parser.ParseString(`{ print("abc) }`)
	var lexErr *lexer.Error
	require.True(t, errors.As(err, &lexErr), "got %T: %v", err, err)
	assert.Equal(t, token.Pos{Line: 1, Col: 9}, lexErr.Pos)
}

func TestParserOverTokenSlice(t *testing.T) {
	toks, err := lexer.All(`{ print(1) }`)
	require.NoError(t, err)
	prog, err := parser.New(&sliceSource{toks: toks}).Parse()
	require.NoError(t, err)
	require.Len(t, prog.Patterns, 1)
}

type sliceSource struct {
	toks []token.Token
}

func (s *sliceSource) Next() (token.Token, error) {
	if len(s.toks) == 0 {
		return token.Token{}, lexer.ErrExhausted
	}
	tok := s.toks[0]
	s.toks = s.toks[1:]
	return tok, nil
}
