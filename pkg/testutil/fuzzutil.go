package testutil

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/benhoyt/goawk/interp"
	"github.com/benhoyt/goawk/parser"

	"github.com/rcarmo/go-kawk/pkg/core"
)

// MaxFuzzBytes bounds fuzzed inputs.
const MaxFuzzBytes = 2048

// FuzzOptions tunes FuzzCompare.
type FuzzOptions struct {
	SkipReference bool // only check that the applet terminates cleanly
}

// ClampString cuts data to at most max bytes.
func ClampString(data string, max int) string {
	if len(data) > max {
		return data[:max]
	}
	return data
}

// ReferenceAwk runs script over input with goawk. vars holds name, value
// pairs assigned before BEGIN, FS included. It is the oracle kawk is
// compared against on the subset where both languages agree.
func ReferenceAwk(script, input string, vars ...string) (string, error) {
	prog, err := parser.ParseProgram([]byte(script), &parser.ParserConfig{})
	if err != nil {
		return "", err
	}
	var out bytes.Buffer
	config := &interp.Config{
		Stdin:        strings.NewReader(input),
		Output:       &out,
		Error:        io.Discard,
		Vars:         vars,
		NoExec:       true,
		NoFileWrites: true,
		NoFileReads:  true,
	}
	if _, err := interp.ExecProgram(prog, config); err != nil {
		return out.String(), err
	}
	return out.String(), nil
}

// NormalizeOutput strips the blanks at the end of every line. kawk's print
// leaves one space after each argument where awk separates them with OFS.
func NormalizeOutput(out string) string {
	lines := strings.Split(out, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " ")
	}
	return strings.Join(lines, "\n")
}

// FuzzCompare runs the applet on a script and compares its output with
// goawk's on the same input. Runs the reference rejects are not compared.
// The applet must never exit with a usage error for a syntactically valid
// call and must never write to stdout and fail at once.
func FuzzCompare(t *testing.T, run RunApplet, script, input string, files map[string]string, opts FuzzOptions) {
	t.Helper()
	dir := TempDirWithFiles(t, files)
	args := []string{script}
	if len(files) > 0 {
		args = append(args, "input.txt")
	}
	ours := RunInDir(t, run, args, input, dir)
	if ours.Code == core.ExitUsage {
		t.Fatalf("usage error for %q: %s", script, ours.Stderr)
	}
	if opts.SkipReference || ours.Code != core.ExitSuccess {
		return
	}
	refInput := input
	if data, ok := files["input.txt"]; ok {
		refInput = data
	}
	refOut, err := ReferenceAwk(script, refInput)
	if err != nil {
		return
	}
	CompareReferenceOutput(t, script, ours.Stdout, refOut)
}

// CompareReferenceOutput fails when two outputs differ after normalization.
func CompareReferenceOutput(t *testing.T, script, ourOut, refOut string) {
	t.Helper()
	if !outputsEqual(NormalizeOutput(ourOut), NormalizeOutput(refOut)) {
		t.Fatalf("stdout mismatch for %q:\nours:   %q\ngoawk:  %q", script, ourOut, refOut)
	}
}

func outputsEqual(a, b string) bool {
	if a == b {
		return true
	}
	trimA := strings.TrimSuffix(a, "\n")
	trimB := strings.TrimSuffix(b, "\n")
	return trimA == trimB
}
