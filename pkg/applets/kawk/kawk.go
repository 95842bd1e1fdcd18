// Package kawk implements the kawk command line.
package kawk

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/ogier/pflag"
	"github.com/pkg/profile"

	"github.com/rcarmo/go-kawk/pkg/core"
	corefs "github.com/rcarmo/go-kawk/pkg/core/fs"
	"github.com/rcarmo/go-kawk/pkg/kawk/ast"
	"github.com/rcarmo/go-kawk/pkg/kawk/interp"
	"github.com/rcarmo/go-kawk/pkg/kawk/lexer"
	"github.com/rcarmo/go-kawk/pkg/kawk/parser"
	"github.com/rcarmo/go-kawk/pkg/sandbox"
)

const applet = "kawk"

const usageText = `Usage: kawk [OPTIONS] 'PROGRAM' [FILE | NAME=VALUE]...
   or: kawk [OPTIONS] -f PROGFILE [FILE | NAME=VALUE]...

Run PROGRAM over every line of the FILEs (standard input if none, or "-").
NAME=VALUE operands assign a variable before the following file is read.
Long options that take a value are written --name=value; the short forms
also accept the value as the next argument (-F ,).

Options:
`

var assignmentRE = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*=`)

// assignments collects repeated -v NAME=VALUE flags.
type assignments []string

func (a *assignments) String() string { return strings.Join(*a, " ") }

func (a *assignments) Set(s string) error {
	if !assignmentRE.MatchString(s) {
		return fmt.Errorf("invalid variable assignment %q (want NAME=VALUE)", s)
	}
	*a = append(*a, s)
	return nil
}

// pairs flattens the assignments into name, value pairs.
func (a assignments) pairs() []string {
	out := make([]string, 0, 2*len(a))
	for _, s := range a {
		name, val, _ := strings.Cut(s, "=")
		out = append(out, name, val)
	}
	return out
}

// separator records whether -F was given, so that an explicit empty
// separator differs from none.
type separator struct {
	value string
	set   bool
}

func (s *separator) String() string { return s.value }

func (s *separator) Set(v string) error {
	s.value, s.set = v, true
	return nil
}

// paths collects repeated --allow flags.
type paths []string

func (p *paths) String() string { return strings.Join(*p, ",") }

func (p *paths) Set(s string) error {
	if s == "" {
		return errors.New("empty path")
	}
	*p = append(*p, s)
	return nil
}

type options struct {
	fieldSep separator
	vars     assignments
	progFile string
	tokens   bool
	ast      bool
	profile  string
	allow    paths
	operands []string
}

// Run executes kawk with the given arguments.
//
// Supported flags:
//
//	-F SEP          Set the field separator (--field-separator=SEP)
//	-v NAME=VALUE   Assign a variable before BEGIN (--assign=NAME=VALUE, repeatable)
//	-f PROGFILE     Read the program from PROGFILE, "-" for stdin (--file=PROGFILE)
//	--tokens        Print the token stream and exit
//	--ast           Print the parsed tree and exit
//	--profile=KIND  Write a cpu or heap profile to the current directory
//	--allow=DIR     Only read scripts and inputs below DIR (repeatable)
//
// Long flags that take a value need the --name=value form.
//
// The first operand is the program text unless -f is given. Remaining
// operands are input files or NAME=VALUE assignments.
func Run(stdio *core.Stdio, args []string) int {
	opts, code, done := parseArgs(stdio, args)
	if done {
		return code
	}

	switch opts.profile {
	case "":
	case "cpu":
		defer profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook, profile.Quiet).Stop()
	case "heap":
		defer profile.Start(profile.MemProfileHeap, profile.ProfilePath("."), profile.NoShutdownHook, profile.Quiet).Stop()
	default:
		return core.UsageError(stdio, applet, fmt.Sprintf("unknown profile %q (want cpu or heap)", opts.profile))
	}

	if len(opts.allow) > 0 {
		if err := sandbox.Init(&sandbox.Config{AllowedPaths: opts.allow}); err != nil {
			return core.Report(stdio, applet, core.ExitFailure, err)
		}
		defer sandbox.Disable()
	}

	src, operands, code, ok := loadProgram(stdio, opts)
	if !ok {
		return code
	}

	if opts.tokens {
		return dumpTokens(stdio, src)
	}

	prog, err := parser.ParseString(src)
	if err != nil {
		return core.Diagnose(stdio, applet, src, err)
	}
	if opts.ast {
		if err := ast.Fprint(stdio.Out, prog); err != nil {
			return core.Report(stdio, applet, core.ExitFailure, err)
		}
		return core.ExitSuccess
	}

	var vars []string
	if opts.fieldSep.set {
		vars = append(vars, "FS", opts.fieldSep.value)
	}
	vars = append(vars, opts.vars.pairs()...)
	rt, err := interp.New(prog, &interp.Config{Output: stdio.Out, Vars: vars})
	if err != nil {
		return core.Diagnose(stdio, applet, src, err)
	}
	return execute(stdio, rt, src, operands)
}

func parseArgs(stdio *core.Stdio, args []string) (*options, int, bool) {
	opts := &options{}
	flags := pflag.NewFlagSet(applet, pflag.ContinueOnError)
	flags.SetOutput(io.Discard)
	flags.Usage = func() {}
	flags.VarP(&opts.fieldSep, "field-separator", "F", "field separator")
	flags.VarP(&opts.vars, "assign", "v", "assign NAME=VALUE before BEGIN (repeatable)")
	flags.StringVarP(&opts.progFile, "file", "f", "", "read the program from this file (- for stdin)")
	flags.BoolVar(&opts.tokens, "tokens", false, "print the token stream and exit")
	flags.BoolVar(&opts.ast, "ast", false, "print the parsed tree and exit")
	flags.StringVar(&opts.profile, "profile", "", "write a cpu or heap profile to the current directory")
	flags.Var(&opts.allow, "allow", "only read files below this directory (repeatable)")
	help := flags.BoolP("help", "h", false, "show this help")

	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printUsage(stdio, flags)
			return nil, core.ExitSuccess, true
		}
		return nil, core.UsageError(stdio, applet, err.Error()), true
	}
	if *help {
		printUsage(stdio, flags)
		return nil, core.ExitSuccess, true
	}
	opts.operands = flags.Args()
	return opts, core.ExitSuccess, false
}

func printUsage(stdio *core.Stdio, flags *pflag.FlagSet) {
	stdio.Printf("%s", usageText)
	flags.SetOutput(stdio.Out)
	flags.PrintDefaults()
	flags.SetOutput(io.Discard)
}

// loadProgram returns the program text and the operands that follow it.
func loadProgram(stdio *core.Stdio, opts *options) (string, []string, int, bool) {
	operands := opts.operands
	if opts.progFile != "" {
		src, err := corefs.ReadScript(opts.progFile, stdio.In)
		if err != nil {
			return "", nil, fileError(stdio, opts.progFile, err), false
		}
		return src, operands, core.ExitSuccess, true
	}
	if len(operands) == 0 {
		return "", nil, core.UsageError(stdio, applet, "missing program"), false
	}
	return operands[0], operands[1:], core.ExitSuccess, true
}

func dumpTokens(stdio *core.Stdio, src string) int {
	for tok, err := range lexer.New(src).Tokens() {
		if err != nil {
			return core.Diagnose(stdio, applet, src, err)
		}
		stdio.Printf("%s\n", tok)
	}
	return core.ExitSuccess
}

// execute runs BEGIN, every input operand as one record stream, then END.
func execute(stdio *core.Stdio, rt *interp.Runtime, src string, operands []string) int {
	if err := rt.Begin(); err != nil {
		return core.Diagnose(stdio, applet, src, err)
	}
	files := 0
	for _, operand := range operands {
		if assignmentRE.MatchString(operand) {
			name, val, _ := strings.Cut(operand, "=")
			if err := rt.Set(name, val); err != nil {
				return core.Diagnose(stdio, applet, src, err)
			}
			continue
		}
		files++
		if code, ok := processFile(stdio, rt, src, operand); !ok {
			return code
		}
	}
	if files == 0 {
		if code, ok := processFile(stdio, rt, src, corefs.Stdin); !ok {
			return code
		}
	}
	if err := rt.End(); err != nil {
		return core.Diagnose(stdio, applet, src, err)
	}
	return core.ExitSuccess
}

func processFile(stdio *core.Stdio, rt *interp.Runtime, src, path string) (int, bool) {
	r, closeFn, err := corefs.OpenInput(path, stdio.In)
	if err != nil {
		return fileError(stdio, path, err), false
	}
	defer closeFn()
	if err := rt.Process(r); err != nil {
		var rerr *interp.Error
		if errors.As(err, &rerr) {
			return core.Diagnose(stdio, applet, src, err), false
		}
		return fileError(stdio, path, err), false
	}
	return core.ExitSuccess, true
}

// fileError reports err for path, naming the allowed directories when the
// sandbox refused it.
func fileError(stdio *core.Stdio, path string, err error) int {
	if errors.Is(err, sandbox.ErrAccessDenied) && sandbox.IsEnabled() {
		err = fmt.Errorf("%w (allowed: %s)", err, strings.Join(sandbox.Roots(), ", "))
	}
	return core.FileError(stdio, applet, path, err)
}
