// Package fs opens kawk's scripts and input files through the sandbox.
// Applets should use this package instead of direct os calls.
package fs

import (
	"errors"
	"io"
	"os"

	"github.com/rcarmo/go-kawk/pkg/sandbox"
)

var errIsDir = errors.New("is a directory")

// Stdin is the file name that stands for standard input.
const Stdin = "-"

// Open opens a file for reading.
func Open(path string) (*os.File, error) {
	return sandbox.Open(path)
}

// Stat describes a file.
func Stat(path string) (os.FileInfo, error) {
	return sandbox.Stat(path)
}

// ReadFile reads an entire file.
func ReadFile(path string) ([]byte, error) {
	return sandbox.ReadFile(path)
}

// OpenInput opens path, or returns stdin for "-". The returned closer must
// be called exactly once; for stdin it does nothing.
func OpenInput(path string, stdin io.Reader) (io.Reader, func() error, error) {
	if path == Stdin {
		return stdin, func() error { return nil }, nil
	}
	info, err := Stat(path)
	if err != nil {
		return nil, nil, err
	}
	if info.IsDir() {
		return nil, nil, &os.PathError{Op: "read", Path: path, Err: errIsDir}
	}
	f, err := Open(path)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}

// ReadScript returns the program text stored in path ("-" reads stdin).
func ReadScript(path string, stdin io.Reader) (string, error) {
	if path == Stdin {
		data, err := io.ReadAll(stdin)
		return string(data), err
	}
	data, err := ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
