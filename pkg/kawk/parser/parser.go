// Package parser builds a kawk syntax tree from a token stream.
//
// The parser is a single-pass recursive-descent parser with one token of
// lookahead. It folds leading runs of literal operands in additive and
// multiplicative chains at parse time (see fold.go). The first error aborts
// the parse.
package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rcarmo/go-kawk/pkg/kawk/ast"
	"github.com/rcarmo/go-kawk/pkg/kawk/lexer"
	"github.com/rcarmo/go-kawk/pkg/kawk/token"
)

// TokenSource supplies tokens, ending with a single EOF token.
// *lexer.Lexer implements it.
type TokenSource interface {
	Next() (token.Token, error)
}

// Error is a grammar violation.
type Error struct {
	Pos token.Pos
	Msg string
}

func (e *Error) Error() string {
	return fmt.Sprintf("parse error at %s: %s", e.Pos, e.Msg)
}

// Position returns the line and column of the error.
func (e *Error) Position() (line, col int) { return e.Pos.Line, e.Pos.Col }

// Operator precedence levels, loosest first.
var levels = [][]string{
	{"==", "!="},
	{"<", ">"},
	{"+", "-"},
	{"*", "/", "%"},
}

// Chains at or beyond this level are constant-folded.
const foldLevel = 2

// Parser holds the token source and the current lookahead token.
type Parser struct {
	src TokenSource
	tok token.Token
}

// New returns a parser reading from src.
func New(src TokenSource) *Parser {
	return &Parser{src: src}
}

// ParseString lexes and parses a whole script.
func ParseString(src string) (*ast.Program, error) {
	return New(lexer.New(src)).Parse()
}

// Parse consumes the token source and returns the program.
func (p *Parser) Parse() (*ast.Program, error) {
	if err := p.advance(); err != nil {
		return nil, err
	}
	prog := &ast.Program{At: p.tok.Pos}
	for !p.tok.Is(token.EOF) {
		if err := p.condBlock(prog); err != nil {
			return nil, err
		}
	}
	return prog, nil
}

func (p *Parser) condBlock(prog *ast.Program) error {
	at := p.tok.Pos
	switch {
	case p.tok.Is(token.Keyword, token.Begin):
		if err := p.advance(); err != nil {
			return err
		}
		body, err := p.block()
		if err != nil {
			return err
		}
		prog.Begin = append(prog.Begin, &ast.BeginBlock{At: at, Body: body})
	case p.tok.Is(token.Keyword, token.End):
		if err := p.advance(); err != nil {
			return err
		}
		body, err := p.block()
		if err != nil {
			return err
		}
		prog.End = append(prog.End, &ast.EndBlock{At: at, Body: body})
	default:
		var pattern ast.Expr
		if !p.tok.Is(token.Punct, "{") {
			var err error
			if pattern, err = p.expr(); err != nil {
				return err
			}
		}
		body, err := p.block()
		if err != nil {
			return err
		}
		prog.Patterns = append(prog.Patterns, &ast.PatternBlock{At: at, Pattern: pattern, Body: body})
	}
	return nil
}

// block parses '{' statements '}'. A semicolon right after a statement
// separates it from the next one; any other semicolon is an empty statement.
func (p *Parser) block() ([]ast.Stmt, error) {
	if _, err := p.expect(token.Punct, "{"); err != nil {
		return nil, err
	}
	var body []ast.Stmt
	afterStmt := false
	for !p.tok.Is(token.Punct, "}") {
		if p.tok.Is(token.Punct, ";") {
			if !afterStmt {
				body = append(body, &ast.EmptyStmt{At: p.tok.Pos})
			}
			afterStmt = false
			if err := p.advance(); err != nil {
				return nil, err
			}
			continue
		}
		if afterStmt {
			return nil, p.errorf("expected ';' or '}', found %s", describe(p.tok))
		}
		stmt, err := p.stmt()
		if err != nil {
			return nil, err
		}
		body = append(body, stmt)
		afterStmt = true
	}
	return body, p.advance()
}

func (p *Parser) stmt() (ast.Stmt, error) {
	if !p.tok.Is(token.Ident) {
		return nil, p.errorf("unexpected %s: a statement must be an assignment or a function call", describe(p.tok))
	}
	name, err := p.next()
	if err != nil {
		return nil, err
	}
	id := &ast.Ident{At: name.Pos, Name: name.Text}
	switch {
	case p.tok.Is(token.Assign):
		if err := p.advance(); err != nil {
			return nil, err
		}
		val, err := p.expr()
		if err != nil {
			return nil, err
		}
		return &ast.Assign{At: id.At, Target: id, Value: val}, nil
	case p.tok.Is(token.Punct, "("):
		args, err := p.args()
		if err != nil {
			return nil, err
		}
		return &ast.Call{At: id.At, Name: id, Args: args}, nil
	case startsOperand(p.tok):
		arg, err := p.expr()
		if err != nil {
			return nil, err
		}
		return &ast.Call{At: id.At, Name: id, Args: []ast.Expr{arg}}, nil
	}
	return nil, p.errorf("unexpected %s after %q: a statement must be an assignment or a function call", describe(p.tok), name.Text)
}

// args parses '(' (expr (',' expr)*)? ')'.
func (p *Parser) args() ([]ast.Expr, error) {
	if err := p.advance(); err != nil {
		return nil, err
	}
	args := []ast.Expr{}
	if p.tok.Is(token.Punct, ")") {
		return args, p.advance()
	}
	for {
		arg, err := p.expr()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		if !p.tok.Is(token.Punct, ",") {
			break
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(token.Punct, ")"); err != nil {
		return nil, err
	}
	return args, nil
}

func (p *Parser) expr() (ast.Expr, error) {
	return p.chain(0)
}

// chain parses one precedence level: operand (op operand)*.
func (p *Parser) chain(level int) (ast.Expr, error) {
	if level == len(levels) {
		return p.primary()
	}
	at := p.tok.Pos
	initial, err := p.chain(level + 1)
	if err != nil {
		return nil, err
	}
	var rest []ast.Operand
	for p.tok.Is(token.Operator, levels[level]...) {
		op := p.tok.Text
		if err := p.advance(); err != nil {
			return nil, err
		}
		x, err := p.chain(level + 1)
		if err != nil {
			return nil, err
		}
		rest = append(rest, ast.Operand{Op: op, X: x})
	}
	switch {
	case len(rest) == 0:
		return initial, nil
	case level >= foldLevel:
		return foldConstants(at, initial, rest), nil
	}
	return &ast.BinaryOp{At: at, Initial: initial, Rest: rest}, nil
}

func (p *Parser) primary() (ast.Expr, error) {
	tok := p.tok
	switch {
	case tok.Is(token.Int):
		v, err := strconv.ParseInt(tok.Text, 0, 64)
		if err != nil {
			return nil, p.errorf("bad integer literal %q", tok.Text)
		}
		return &ast.IntLit{At: tok.Pos, Value: v}, p.advance()
	case tok.Is(token.Fixed):
		v, err := strconv.ParseFloat(strings.ReplaceAll(tok.Text, "_", ""), 64)
		if err != nil {
			return nil, p.errorf("bad fixed-point literal %q", tok.Text)
		}
		return &ast.FloatLit{At: tok.Pos, Value: v}, p.advance()
	case tok.Is(token.String):
		return &ast.StringLit{At: tok.Pos, Value: tok.Text, Raw: tok.Raw}, p.advance()
	case tok.Is(token.Ident):
		return &ast.Ident{At: tok.Pos, Name: tok.Text}, p.advance()
	case tok.Is(token.Punct, "("):
		if err := p.advance(); err != nil {
			return nil, err
		}
		x, err := p.expr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.Punct, ")"); err != nil {
			return nil, err
		}
		return &ast.ParenExpr{At: tok.Pos, X: x}, nil
	}
	return nil, p.errorf("expected an expression, found %s", describe(tok))
}

func (p *Parser) advance() error {
	tok, err := p.src.Next()
	if err != nil {
		return err
	}
	p.tok = tok
	return nil
}

// next returns the current token and moves to the following one.
func (p *Parser) next() (token.Token, error) {
	tok := p.tok
	return tok, p.advance()
}

func (p *Parser) expect(kind token.Kind, text string) (token.Token, error) {
	if !p.tok.Is(kind, text) {
		return token.Token{}, p.errorf("expected '%s', found %s", text, describe(p.tok))
	}
	return p.next()
}

func (p *Parser) errorf(format string, args ...any) error {
	return &Error{Pos: p.tok.Pos, Msg: fmt.Sprintf(format, args...)}
}

// startsOperand reports whether tok can begin the single bare argument of a
// call written without parentheses.
func startsOperand(tok token.Token) bool {
	switch tok.Kind {
	case token.Int, token.Fixed, token.String, token.Ident:
		return true
	}
	return false
}

func describe(tok token.Token) string {
	switch tok.Kind {
	case token.EOF:
		return "end of input"
	case token.String:
		return strconv.Quote(tok.Text)
	}
	return "'" + tok.Text + "'"
}
