// Package core holds the process plumbing of the kawk command line: the
// standard streams, the exit statuses and the one-line error reports.
package core

import (
	"fmt"
	"io"
	"os"
)

// Exit statuses returned by an applet's Run.
const (
	ExitSuccess = iota // program ran to completion
	ExitFailure        // script, input or runtime error
	ExitUsage          // bad command line
)

// Stdio bundles the streams an applet reads and writes. Tests replace them
// with in-memory buffers.
type Stdio struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

// DefaultStdio wires Stdio to the process streams.
func DefaultStdio() *Stdio {
	return &Stdio{In: os.Stdin, Out: os.Stdout, Err: os.Stderr}
}

// Printf formats to the output stream.
func (s *Stdio) Printf(format string, args ...any) {
	fmt.Fprintf(s.Out, format, args...)
}

// Errorf formats to the error stream.
func (s *Stdio) Errorf(format string, args ...any) {
	fmt.Fprintf(s.Err, format, args...)
}

// Report writes "applet: msg" as one line on stderr and returns code.
func Report(stdio *Stdio, applet string, code int, msg any) int {
	stdio.Errorf("%s: %v\n", applet, msg)
	return code
}

// UsageError reports a command-line mistake and points at --help.
func UsageError(stdio *Stdio, applet, message string) int {
	Report(stdio, applet, ExitUsage, message)
	stdio.Errorf("Try '%s --help' for more information.\n", applet)
	return ExitUsage
}

// FileError reports err against the file it concerns.
func FileError(stdio *Stdio, applet, path string, err error) int {
	return Report(stdio, applet, ExitFailure, fmt.Sprintf("%s: %v", path, err))
}
