package core

import (
	"errors"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Positioned is implemented by errors that point into the script text.
// Lines and columns are 1-based; a zero line means no position.
type Positioned interface {
	error
	Position() (line, col int)
}

// isTerminal reports whether w is an interactive terminal.
var isTerminal = func(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Diagnose prints err prefixed with the applet name and returns ExitFailure.
// When stderr is a terminal and err carries a position inside src, the
// offending source line and a caret under the column follow the message.
func Diagnose(stdio *Stdio, applet, src string, err error) int {
	code := Report(stdio, applet, ExitFailure, err)
	if !isTerminal(stdio.Err) {
		return code
	}
	var p Positioned
	if !errors.As(err, &p) {
		return code
	}
	if snippet, ok := Snippet(src, p); ok {
		stdio.Errorf("%s", snippet)
	}
	return code
}

// Snippet renders the source line p points at followed by a caret line.
func Snippet(src string, p Positioned) (string, bool) {
	line, col := p.Position()
	if line < 1 || col < 1 {
		return "", false
	}
	lines := strings.Split(strings.ReplaceAll(src, "\r\n", "\n"), "\n")
	if line > len(lines) {
		return "", false
	}
	text := []rune(lines[line-1])
	if col > len(text)+1 {
		col = len(text) + 1
	}
	var b strings.Builder
	b.WriteString("    ")
	b.WriteString(string(text))
	b.WriteString("\n    ")
	for _, r := range text[:col-1] {
		if r == '\t' {
			b.WriteByte('\t')
		} else {
			b.WriteByte(' ')
		}
	}
	b.WriteString("^\n")
	return b.String(), true
}
