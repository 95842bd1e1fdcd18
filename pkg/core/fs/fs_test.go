package fs_test

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rcarmo/go-kawk/pkg/core/fs"
	"github.com/rcarmo/go-kawk/pkg/sandbox"
)

func TestOpenInputStdin(t *testing.T) {
	r, closeFn, err := fs.OpenInput("-", strings.NewReader("a\n"))
	if err != nil {
		t.Fatal(err)
	}
	data, _ := io.ReadAll(r)
	if string(data) != "a\n" {
		t.Errorf("read %q", data)
	}
	if err := closeFn(); err != nil {
		t.Errorf("close: %v", err)
	}
}

func TestOpenInputFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in.txt")
	if err := os.WriteFile(path, []byte("x y\n"), 0644); err != nil {
		t.Fatal(err)
	}
	r, closeFn, err := fs.OpenInput(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	data, _ := io.ReadAll(r)
	if string(data) != "x y\n" {
		t.Errorf("read %q", data)
	}
	if err := closeFn(); err != nil {
		t.Errorf("close: %v", err)
	}
}

func TestOpenInputErrors(t *testing.T) {
	dir := t.TempDir()
	if _, _, err := fs.OpenInput(filepath.Join(dir, "missing"), nil); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file: got %v", err)
	}
	if _, _, err := fs.OpenInput(dir, nil); err == nil || !strings.Contains(err.Error(), "is a directory") {
		t.Errorf("directory: got %v", err)
	}
}

func TestReadScript(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prog.kawk")
	if err := os.WriteFile(path, []byte("{ print $1 }\n"), 0644); err != nil {
		t.Fatal(err)
	}
	src, err := fs.ReadScript(path, nil)
	if err != nil || src != "{ print $1 }\n" {
		t.Errorf("ReadScript = %q, %v", src, err)
	}
	src, err = fs.ReadScript("-", strings.NewReader("BEGIN { }"))
	if err != nil || src != "BEGIN { }" {
		t.Errorf("ReadScript(-) = %q, %v", src, err)
	}
}

func TestSandboxedInput(t *testing.T) {
	allowed := t.TempDir()
	outside := filepath.Join(t.TempDir(), "in.txt")
	if err := os.WriteFile(outside, []byte("no\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := sandbox.Init(&sandbox.Config{AllowedPaths: []string{allowed}}); err != nil {
		t.Fatal(err)
	}
	defer sandbox.Disable()

	if _, _, err := fs.OpenInput(outside, nil); !errors.Is(err, sandbox.ErrAccessDenied) {
		t.Errorf("OpenInput outside sandbox: got %v", err)
	}
	if _, err := fs.ReadScript(outside, nil); !errors.Is(err, sandbox.ErrAccessDenied) {
		t.Errorf("ReadScript outside sandbox: got %v", err)
	}
	// stdin is never subject to the sandbox
	if _, _, err := fs.OpenInput("-", strings.NewReader("")); err != nil {
		t.Errorf("stdin: %v", err)
	}
}

func TestStat(t *testing.T) {
	dir := t.TempDir()
	info, err := fs.Stat(dir)
	if err != nil || !info.IsDir() {
		t.Fatalf("Stat(dir) = %v, %v", info, err)
	}
	if err := sandbox.Init(&sandbox.Config{AllowedPaths: []string{filepath.Join(dir, "inner")}}); err != nil {
		t.Fatal(err)
	}
	defer sandbox.Disable()
	// a refused directory reports the sandbox, not "is a directory"
	if _, _, err := fs.OpenInput(dir, nil); !errors.Is(err, sandbox.ErrAccessDenied) {
		t.Errorf("OpenInput(dir) outside sandbox: got %v", err)
	}
}
