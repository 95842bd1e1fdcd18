// Package lexer turns kawk script text into a stream of positioned tokens.
//
// The stream is pull-based: each call to Next skips blanks, newlines and
// comments, then recognises one token. The last token is always a single
// EOF token; after it has been returned More reports false.
package lexer

import (
	"errors"
	"fmt"
	"iter"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/rcarmo/go-kawk/pkg/kawk/token"
)

// ErrExhausted is returned by Next once the EOF token has been consumed.
var ErrExhausted = errors.New("token stream exhausted")

// Error is a lexical error.
type Error struct {
	Pos token.Pos
	Msg string
}

func (e *Error) Error() string {
	return fmt.Sprintf("lexical error at %s: %s", e.Pos, e.Msg)
}

// Position returns the line and column of the error.
func (e *Error) Position() (line, col int) { return e.Pos.Line, e.Pos.Col }

// Lexer scans a script. The zero value is not usable; call New.
type Lexer struct {
	src  string
	off  int
	line int
	col  int
	done bool
	err  error
}

// New returns a lexer positioned at the start of src.
func New(src string) *Lexer {
	return &Lexer{src: src, line: 1, col: 1}
}

// All scans src completely and returns every token including EOF.
func All(src string) ([]token.Token, error) {
	var toks []token.Token
	for tok, err := range New(src).Tokens() {
		if err != nil {
			return nil, err
		}
		toks = append(toks, tok)
	}
	return toks, nil
}

// More reports whether Next has a token left to return.
func (l *Lexer) More() bool {
	return !l.done && l.err == nil
}

// Tokens returns the remaining tokens as a sequence. Iteration stops after
// EOF or after the first error.
func (l *Lexer) Tokens() iter.Seq2[token.Token, error] {
	return func(yield func(token.Token, error) bool) {
		for l.More() {
			tok, err := l.Next()
			if !yield(tok, err) || err != nil {
				return
			}
		}
	}
}

// Next returns the next token.
func (l *Lexer) Next() (token.Token, error) {
	if l.err != nil {
		return token.Token{}, l.err
	}
	if l.done {
		return token.Token{}, ErrExhausted
	}
	tok, err := l.scan()
	if err != nil {
		l.err = err
		return token.Token{}, err
	}
	if tok.Kind == token.EOF {
		l.done = true
	}
	return tok, nil
}

func (l *Lexer) scan() (token.Token, error) {
	if err := l.skip(); err != nil {
		return token.Token{}, err
	}
	pos := l.pos()
	if l.off >= len(l.src) {
		return token.Token{Kind: token.EOF, Pos: pos}, nil
	}
	c := l.src[l.off]
	switch {
	case c == '=' && l.byteAt(1) != '=':
		return l.emit(token.Assign, 1), nil
	case strings.IndexByte(",{}();", c) >= 0:
		return l.emit(token.Punct, 1), nil
	case c == '"' || (c == 'r' && l.byteAt(1) == '"'):
		return l.lexString()
	case isIdentStart(c):
		return l.lexWord(), nil
	case isDigit(c) || (c == '.' && isDigit(l.byteAt(1))):
		return l.lexNumber()
	}
	if n := operatorLen(l.src[l.off:]); n > 0 {
		return l.emit(token.Operator, n), nil
	}
	r, _ := utf8.DecodeRuneInString(l.src[l.off:])
	return token.Token{}, &Error{Pos: pos, Msg: fmt.Sprintf("unexpected character %q", r)}
}

// skip consumes blanks, line breaks and comments.
func (l *Lexer) skip() error {
	for l.off < len(l.src) {
		rest := l.src[l.off:]
		switch c := rest[0]; {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			l.advance(1)
		case c == '#' || strings.HasPrefix(rest, "//"):
			if end := strings.IndexByte(rest, '\n'); end >= 0 {
				l.advance(end)
			} else {
				l.advance(len(rest))
			}
		case strings.HasPrefix(rest, "/*"):
			start := l.pos()
			end := strings.Index(rest[2:], "*/")
			if end < 0 {
				l.advance(len(rest))
				return &Error{Pos: start, Msg: "unterminated comment"}
			}
			l.advance(end + 4)
		default:
			return nil
		}
	}
	return nil
}

// advance moves the cursor n bytes forward, keeping line and column in step.
// A "\r\n" pair counts as a single line break.
func (l *Lexer) advance(n int) {
	end := l.off + n
	for l.off < end {
		r, size := utf8.DecodeRuneInString(l.src[l.off:])
		l.off += size
		switch r {
		case '\n':
			l.line++
			l.col = 1
		case '\r':
			if l.off < len(l.src) && l.src[l.off] == '\n' {
				continue
			}
			l.line++
			l.col = 1
		default:
			l.col++
		}
	}
}

func (l *Lexer) pos() token.Pos {
	return token.Pos{Line: l.line, Col: l.col}
}

func (l *Lexer) byteAt(i int) byte {
	if l.off+i < len(l.src) {
		return l.src[l.off+i]
	}
	return 0
}

func (l *Lexer) emit(kind token.Kind, n int) token.Token {
	tok := token.Token{Kind: kind, Text: l.src[l.off : l.off+n], Pos: l.pos()}
	l.advance(n)
	return tok
}

func (l *Lexer) lexString() (token.Token, error) {
	start := l.pos()
	raw := l.src[l.off] == 'r'
	i := l.off + 1
	if raw {
		i++
	}
	var b strings.Builder
	for i < len(l.src) {
		c := l.src[i]
		switch {
		case c == '"':
			l.advance(i + 1 - l.off)
			return token.Token{Kind: token.String, Text: b.String(), Pos: start, Raw: raw}, nil
		case c == '\\' && !raw && i+1 < len(l.src) && (l.src[i+1] == '"' || l.src[i+1] == '\\'):
			b.WriteByte(l.src[i+1])
			i += 2
		default:
			b.WriteByte(c)
			i++
		}
	}
	return token.Token{}, &Error{Pos: start, Msg: "unterminated string"}
}

func (l *Lexer) lexWord() token.Token {
	n := 1
	for l.off+n < len(l.src) && isWordChar(l.src[l.off+n]) {
		n++
	}
	tok := l.emit(token.Ident, n)
	if tok.Text == token.Begin || tok.Text == token.End {
		tok.Kind = token.Keyword
	}
	return tok
}

func (l *Lexer) lexNumber() (token.Token, error) {
	start := l.pos()
	rest := l.src[l.off:]
	malformed := func(text string) error {
		return &Error{Pos: start, Msg: fmt.Sprintf("malformed numeric literal %q", text)}
	}

	n := scanRun(rest, 0, isDigit)
	if n < len(rest) && rest[n] == '.' {
		m := scanRun(rest, n+1, isDigit)
		text := rest[:m]
		if m < len(rest) && (rest[m] == '.' || isWordChar(rest[m])) {
			return token.Token{}, malformed(rest[:m+1])
		}
		if !separatorsOK(rest[:n]) || !separatorsOK(rest[n+1:m]) {
			return token.Token{}, malformed(text)
		}
		if _, err := strconv.ParseFloat(strings.ReplaceAll(text, "_", ""), 64); err != nil {
			return token.Token{}, malformed(text)
		}
		return l.emit(token.Fixed, m), nil
	}

	var m int
	var digits string
	switch {
	case strings.HasPrefix(rest, "0x"):
		m = scanRun(rest, 2, isHexDigit)
		digits = rest[2:m]
	case strings.HasPrefix(rest, "0b"):
		m = scanRun(rest, 2, isBinDigit)
		digits = rest[2:m]
	default:
		m = n
		digits = rest[:m]
		if rest[0] == '0' && m > 1 {
			return token.Token{}, malformed(rest[:m])
		}
	}
	if m < len(rest) && isWordChar(rest[m]) {
		return token.Token{}, malformed(rest[:m+1])
	}
	if digits == "" || !separatorsOK(digits) {
		return token.Token{}, malformed(rest[:m])
	}
	if _, err := strconv.ParseInt(rest[:m], 0, 64); err != nil {
		return token.Token{}, &Error{Pos: start, Msg: fmt.Sprintf("integer literal %q out of range", rest[:m])}
	}
	return l.emit(token.Int, m), nil
}

// scanRun returns the index just past a run of digits (as judged by ok) and
// underscores starting at i.
func scanRun(s string, i int, ok func(byte) bool) int {
	for i < len(s) && (ok(s[i]) || s[i] == '_') {
		i++
	}
	return i
}

// separatorsOK reports whether every underscore in s sits between two digits.
func separatorsOK(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] != '_' {
			continue
		}
		if i == 0 || i == len(s)-1 || s[i-1] == '_' || s[i+1] == '_' {
			return false
		}
	}
	return true
}

func operatorLen(s string) int {
	if strings.HasPrefix(s, "==") || strings.HasPrefix(s, "!=") {
		return 2
	}
	if strings.IndexByte("+-*/%<>", s[0]) >= 0 {
		return 1
	}
	return 0
}

func isDigit(c byte) bool    { return '0' <= c && c <= '9' }
func isBinDigit(c byte) bool { return c == '0' || c == '1' }

func isHexDigit(c byte) bool {
	return isDigit(c) || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}

func isIdentStart(c byte) bool {
	return c == '$' || c == '_' || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

func isWordChar(c byte) bool {
	return c == '_' || isDigit(c) || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}
