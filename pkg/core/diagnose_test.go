package core

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
)

type posError struct {
	line, col int
}

func (e *posError) Error() string             { return fmt.Sprintf("bad thing at %d:%d", e.line, e.col) }
func (e *posError) Position() (line, col int) { return e.line, e.col }

func withTerminal(t *testing.T, tty bool) {
	t.Helper()
	old := isTerminal
	isTerminal = func(io.Writer) bool { return tty }
	t.Cleanup(func() { isTerminal = old })
}

func TestDiagnoseNotTerminal(t *testing.T) {
	withTerminal(t, false)
	var errBuf bytes.Buffer
	stdio := &Stdio{Err: &errBuf}
	code := Diagnose(stdio, "kawk", "{1}", &posError{1, 2})
	if code != ExitFailure {
		t.Fatalf("code = %d, want %d", code, ExitFailure)
	}
	if got, want := errBuf.String(), "kawk: bad thing at 1:2\n"; got != want {
		t.Fatalf("stderr = %q, want %q", got, want)
	}
}

func TestDiagnoseTerminal(t *testing.T) {
	withTerminal(t, true)
	var errBuf bytes.Buffer
	stdio := &Stdio{Err: &errBuf}
	src := "BEGIN { x = 1 }\n{\tprint(y) ; 1 }"
	err := fmt.Errorf("wrapped: %w", &posError{2, 14})
	Diagnose(stdio, "kawk", src, err)
	want := "kawk: wrapped: bad thing at 2:14\n" +
		"    {\tprint(y) ; 1 }\n" +
		"     \t" + strings.Repeat(" ", 11) + "^\n"
	if got := errBuf.String(); got != want {
		t.Fatalf("stderr =\n%s\nwant\n%s", got, want)
	}
}

func TestDiagnoseWithoutPosition(t *testing.T) {
	withTerminal(t, true)
	var errBuf bytes.Buffer
	stdio := &Stdio{Err: &errBuf}
	Diagnose(stdio, "kawk", "{}", errors.New("plain"))
	if got := errBuf.String(); got != "kawk: plain\n" {
		t.Fatalf("stderr = %q", got)
	}
}

func TestSnippetBounds(t *testing.T) {
	tests := []struct {
		name string
		src  string
		err  *posError
		ok   bool
		want string
	}{
		{"no position", "abc", &posError{0, 0}, false, ""},
		{"line past end", "abc", &posError{3, 1}, false, ""},
		{"end of input", "abc", &posError{1, 4}, true, "    abc\n       ^\n"},
		{"column clamped", "ab", &posError{1, 9}, true, "    ab\n      ^\n"},
		{"crlf", "a\r\nxyz", &posError{2, 2}, true, "    xyz\n     ^\n"},
		{"runes", "é = @", &posError{1, 5}, true, "    é = @\n        ^\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Snippet(tt.src, tt.err)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if got != tt.want {
				t.Fatalf("snippet = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestUsageAndFileErrors(t *testing.T) {
	var errBuf bytes.Buffer
	stdio := &Stdio{Err: &errBuf}
	if code := UsageError(stdio, "kawk", "missing program"); code != ExitUsage {
		t.Errorf("UsageError code = %d", code)
	}
	if code := FileError(stdio, "kawk", "in.txt", errors.New("no such file")); code != ExitFailure {
		t.Errorf("FileError code = %d", code)
	}
	lines := strings.Split(strings.TrimSpace(errBuf.String()), "\n")
	if len(lines) != 2 || lines[0] != "kawk: missing program" || lines[1] != "kawk: in.txt: no such file" {
		t.Errorf("stderr = %q", errBuf.String())
	}
}
