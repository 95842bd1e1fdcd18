// Package testutil runs applets against in-memory streams and scratch
// directories for table and fuzz tests.
package testutil

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/rcarmo/go-kawk/pkg/core"
)

// RunApplet is the signature of an applet entry point.
type RunApplet func(stdio *core.Stdio, args []string) int

// Result is what one applet run produced.
type Result struct {
	Stdout string
	Stderr string
	Code   int
}

// AppletTestCase is one row of an applet table test. Empty expectations
// are not checked.
type AppletTestCase struct {
	Name       string
	Args       []string
	Input      string            // stdin
	Files      map[string]string // created in the working directory
	WantCode   int
	WantOut    string // exact stdout
	WantOutSub string // stdout substring
	WantErr    string // stderr substring
	NoStderr   bool
	Setup      func(t *testing.T, dir string)
	Check      func(t *testing.T, dir string)
}

// cwdMu serializes runs that change the process working directory.
var cwdMu sync.Mutex

// TempDirWithFiles creates a scratch directory holding files, keyed by
// slash-separated relative path.
func TempDirWithFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

// TempFile writes content to a fresh scratch file and returns its path.
func TempFile(t *testing.T, name, content string) string {
	t.Helper()
	return filepath.Join(TempDirWithFiles(t, map[string]string{name: content}), name)
}

// CaptureStdio returns a Stdio reading input and the buffers behind its
// output and error streams.
func CaptureStdio(input string) (*core.Stdio, *bytes.Buffer, *bytes.Buffer) {
	var out, errBuf bytes.Buffer
	return &core.Stdio{In: strings.NewReader(input), Out: &out, Err: &errBuf}, &out, &errBuf
}

// Capture runs the applet in the current directory.
func Capture(run RunApplet, args []string, input string) Result {
	stdio, out, errBuf := CaptureStdio(input)
	code := run(stdio, args)
	return Result{Stdout: out.String(), Stderr: errBuf.String(), Code: code}
}

// inDir makes dir the working directory until the returned func is called.
func inDir(t *testing.T, dir string) func() {
	t.Helper()
	cwdMu.Lock()
	old, err := os.Getwd()
	if err == nil {
		err = os.Chdir(dir)
	}
	if err != nil {
		cwdMu.Unlock()
		t.Fatal(err)
	}
	return func() {
		_ = os.Chdir(old)
		cwdMu.Unlock()
	}
}

// RunInDir runs the applet with dir as its working directory.
func RunInDir(t *testing.T, run RunApplet, args []string, input, dir string) Result {
	t.Helper()
	restore := inDir(t, dir)
	defer restore()
	return Capture(run, args, input)
}

// Expect checks r against the expectations of tc.
func (r Result) Expect(t *testing.T, tc AppletTestCase) {
	t.Helper()
	if r.Code != tc.WantCode {
		t.Errorf("exit code = %d, want %d (stderr %q)", r.Code, tc.WantCode, r.Stderr)
	}
	if tc.WantOut != "" && r.Stdout != tc.WantOut {
		t.Errorf("stdout = %q, want %q", r.Stdout, tc.WantOut)
	}
	if tc.WantOutSub != "" && !strings.Contains(r.Stdout, tc.WantOutSub) {
		t.Errorf("stdout %q does not contain %q", r.Stdout, tc.WantOutSub)
	}
	if tc.WantErr != "" && !strings.Contains(r.Stderr, tc.WantErr) {
		t.Errorf("stderr %q does not contain %q", r.Stderr, tc.WantErr)
	}
	if tc.NoStderr && r.Stderr != "" {
		t.Errorf("unexpected stderr: %q", r.Stderr)
	}
}

// RunAppletTests runs every case in its own scratch directory, which is
// the working directory for the case's Setup, run and Check.
func RunAppletTests(t *testing.T, run RunApplet, tests []AppletTestCase) {
	t.Helper()
	for _, tc := range tests {
		t.Run(tc.Name, func(t *testing.T) {
			dir := TempDirWithFiles(t, tc.Files)
			t.Cleanup(inDir(t, dir))
			if tc.Setup != nil {
				tc.Setup(t, dir)
			}
			Capture(run, tc.Args, tc.Input).Expect(t, tc)
			if tc.Check != nil {
				tc.Check(t, dir)
			}
		})
	}
}
