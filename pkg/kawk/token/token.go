// Package token defines the lexical tokens of the kawk language.
package token

import "fmt"

// Kind classifies a token.
type Kind uint8

const (
	Operator Kind = iota // + - * / % < > == !=
	Assign               // =
	Punct                // , { } ( ) ;
	Ident                // foo, $1, NR
	Keyword              // BEGIN, END
	String               // "text" or r"text"
	Int                  // 42, 0x2a, 0b101010, 1_000
	Fixed                // 1.5, .5, 5.
	EOF
)

var kindNames = [...]string{
	Operator: "operator",
	Assign:   "assign",
	Punct:    "punctuation",
	Ident:    "identifier",
	Keyword:  "keyword",
	String:   "string",
	Int:      "integer",
	Fixed:    "fixed-point",
	EOF:      "end of input",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Pos is a 1-based line/column location in the script text.
type Pos struct {
	Line int
	Col  int
}

func (p Pos) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Col)
}

// IsValid reports whether p refers to an actual location.
func (p Pos) IsValid() bool { return p.Line > 0 }

// Token is a single lexeme. For String tokens Text holds the decoded
// content without quotes.
type Token struct {
	Kind Kind
	Text string
	Pos  Pos
	Raw  bool // String token written as r"..."
}

// Is reports whether t has the given kind and, if any texts are given,
// one of those texts.
func (t Token) Is(kind Kind, texts ...string) bool {
	if t.Kind != kind {
		return false
	}
	if len(texts) == 0 {
		return true
	}
	for _, s := range texts {
		if t.Text == s {
			return true
		}
	}
	return false
}

func (t Token) String() string {
	switch t.Kind {
	case EOF:
		return fmt.Sprintf("%s %s", t.Pos, t.Kind)
	case String:
		if t.Raw {
			return fmt.Sprintf("%s %s r%q", t.Pos, t.Kind, t.Text)
		}
		return fmt.Sprintf("%s %s %q", t.Pos, t.Kind, t.Text)
	}
	return fmt.Sprintf("%s %s %s", t.Pos, t.Kind, t.Text)
}

// Reserved variable names.
const (
	NR = "NR"
	NF = "NF"
	FS = "FS"
)

// Keywords.
const (
	Begin = "BEGIN"
	End   = "END"
)
