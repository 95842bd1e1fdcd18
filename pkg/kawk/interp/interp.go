// Package interp executes a parsed kawk program against a stream of input
// records.
//
// A Runtime runs the BEGIN blocks once, then every pattern-action block for
// each input line, then the END blocks once. It owns the record state
// ($0, $1..$NF, NR, NF, FS) and the user variables; nothing in it is safe
// for concurrent use.
package interp

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rcarmo/go-kawk/pkg/kawk/ast"
	"github.com/rcarmo/go-kawk/pkg/kawk/token"
	"github.com/rcarmo/go-kawk/pkg/kawk/value"
)

// Runtime errors, wrapped in *Error.
var (
	ErrNoSuchFunction = errors.New("no such function")
	ErrBadField       = errors.New("invalid field reference")
	ErrBadNF          = errors.New("invalid NF value")
)

// Error is a runtime error at a position in the script. NR is the number of
// the record being processed, or 0 outside of the main loop.
type Error struct {
	Pos token.Pos
	NR  int64
	Err error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("runtime error")
	if e.Pos.IsValid() {
		fmt.Fprintf(&b, " at %s", e.Pos)
	}
	if e.NR > 0 {
		fmt.Fprintf(&b, " (record %d)", e.NR)
	}
	fmt.Fprintf(&b, ": %v", e.Err)
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Position returns the line and column of the error.
func (e *Error) Position() (line, col int) { return e.Pos.Line, e.Pos.Col }

// Config configures a Runtime.
type Config struct {
	// Output receives print output; os.Stdout if nil.
	Output io.Writer

	// Vars holds name, value pairs assigned as strings before BEGIN runs,
	// for example {"FS", ",", "limit", "10"}.
	Vars []string
}

// Runtime is the state of one program execution.
type Runtime struct {
	prog   *ast.Program
	out    *bufio.Writer
	rec    record
	nr     int64
	vars   map[string]value.Value
	inMain bool
}

// New prepares a runtime for prog. The record state starts as FS=" ",
// NR=0 and an empty $0 with NF=1.
func New(prog *ast.Program, cfg *Config) (*Runtime, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}
	if len(cfg.Vars)%2 != 0 {
		return nil, errors.New("interp: Config.Vars must hold name, value pairs")
	}
	r := &Runtime{
		prog: prog,
		out:  bufio.NewWriter(out),
		rec:  newRecord(),
		vars: make(map[string]value.Value),
	}
	for i := 0; i < len(cfg.Vars); i += 2 {
		name := cfg.Vars[i]
		if name == "" {
			return nil, errors.New("interp: empty variable name in Config.Vars")
		}
		if err := r.Set(name, cfg.Vars[i+1]); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// ExecProgram runs prog over in with a fresh runtime.
func ExecProgram(prog *ast.Program, cfg *Config, in io.Reader) error {
	r, err := New(prog, cfg)
	if err != nil {
		return err
	}
	return r.Run(in)
}

// Run executes BEGIN, every record of in, then END.
func (r *Runtime) Run(in io.Reader) error {
	if err := r.Begin(); err != nil {
		return err
	}
	if err := r.Process(in); err != nil {
		return err
	}
	return r.End()
}

// Begin runs the BEGIN blocks.
func (r *Runtime) Begin() error {
	for _, b := range r.prog.Begin {
		if err := r.execBody(b.Body); err != nil {
			return err
		}
	}
	return nil
}

// Process reads in line by line and runs the pattern-action blocks for
// each line. Line terminators ("\n" or "\r\n") are stripped; a last line
// without one is still a record. Lines may be of any length.
func (r *Runtime) Process(in io.Reader) error {
	br := bufio.NewReader(in)
	for {
		line, err := br.ReadString('\n')
		if err != nil && err != io.EOF {
			return fmt.Errorf("reading input: %w", err)
		}
		if line == "" && err == io.EOF {
			return nil
		}
		line = strings.TrimSuffix(line, "\n")
		line = strings.TrimSuffix(line, "\r")
		if rerr := r.Record(line); rerr != nil {
			return rerr
		}
		if err == io.EOF {
			return nil
		}
	}
}

// Record makes line the current record, increments NR and runs every
// pattern-action block whose pattern holds.
func (r *Runtime) Record(line string) error {
	r.nr++
	r.rec.setText(line)
	r.inMain = true
	defer func() { r.inMain = false }()
	for _, b := range r.prog.Patterns {
		if b.Pattern != nil {
			v, err := r.eval(b.Pattern)
			if err != nil {
				return err
			}
			if !v.Truthy() {
				continue
			}
		}
		if err := r.execBody(b.Body); err != nil {
			return err
		}
	}
	return nil
}

// End runs the END blocks.
func (r *Runtime) End() error {
	for _, b := range r.prog.End {
		if err := r.execBody(b.Body); err != nil {
			return err
		}
	}
	return nil
}

// Get returns the current value of a variable, reserved name or field
// reference such as "$2" or "$NF".
func (r *Runtime) Get(name string) (value.Value, error) {
	return r.lookup(&ast.Ident{Name: name})
}

// Set assigns the string s to a variable, reserved name or field reference,
// exactly as the statement `name = "s"` would.
func (r *Runtime) Set(name, s string) error {
	return r.assign(&ast.Ident{Name: name}, value.NewString(s))
}

func (r *Runtime) execBody(body []ast.Stmt) error {
	for _, stmt := range body {
		if err := r.exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runtime) exec(stmt ast.Stmt) error {
	switch s := stmt.(type) {
	case *ast.Assign:
		v, err := r.eval(s.Value)
		if err != nil {
			return err
		}
		return r.assign(s.Target, v)
	case *ast.Call:
		return r.call(s)
	case *ast.EmptyStmt:
		return nil
	}
	panic(fmt.Sprintf("interp: unexpected statement type %T", stmt))
}

func (r *Runtime) call(c *ast.Call) error {
	if c.Name.Name != "print" {
		return r.errorf(c.At, "%w: %s", ErrNoSuchFunction, c.Name.Name)
	}
	args := make([]value.Value, len(c.Args))
	for i, arg := range c.Args {
		v, err := r.eval(arg)
		if err != nil {
			return err
		}
		args[i] = v
	}
	return r.print(c.At, args)
}

// print writes each argument followed by a space, then a newline, and
// flushes so output is visible as soon as the call returns.
func (r *Runtime) print(at token.Pos, args []value.Value) error {
	for _, v := range args {
		r.out.WriteString(v.String())
		r.out.WriteByte(' ')
	}
	r.out.WriteByte('\n')
	if err := r.out.Flush(); err != nil {
		return r.errorf(at, "print: %w", err)
	}
	return nil
}

func (r *Runtime) eval(e ast.Expr) (value.Value, error) {
	switch n := e.(type) {
	case ast.Literal:
		return ast.LiteralValue(n), nil
	case *ast.Ident:
		return r.lookup(n)
	case *ast.ParenExpr:
		return r.eval(n.X)
	case *ast.BinaryOp:
		acc, err := r.eval(n.Initial)
		if err != nil {
			return value.Value{}, err
		}
		for _, operand := range n.Rest {
			rhs, err := r.eval(operand.X)
			if err != nil {
				return value.Value{}, err
			}
			if acc, err = value.Fold(acc, operand.Op, rhs); err != nil {
				return value.Value{}, r.errorf(operand.X.Pos(), "%w", err)
			}
		}
		return acc, nil
	}
	panic(fmt.Sprintf("interp: unexpected expression type %T", e))
}

func (r *Runtime) lookup(id *ast.Ident) (value.Value, error) {
	switch name := id.Name; {
	case strings.HasPrefix(name, "$"):
		i, err := r.fieldIndex(id)
		if err != nil {
			return value.Value{}, err
		}
		return value.NewString(r.rec.field(i)), nil
	case name == token.NR:
		return value.NewInt(r.nr), nil
	case name == token.NF:
		return value.NewInt(int64(r.rec.nf())), nil
	case name == token.FS:
		return value.NewString(r.rec.fs), nil
	default:
		return r.vars[name], nil
	}
}

func (r *Runtime) assign(id *ast.Ident, v value.Value) error {
	switch name := id.Name; {
	case strings.HasPrefix(name, "$"):
		i, err := r.fieldIndex(id)
		if err != nil {
			return err
		}
		if i > maxField {
			return r.errorf(id.At, "%w: $%d is too large", ErrBadField, i)
		}
		r.rec.setField(i, v.String())
	case name == token.NR:
		r.nr = v.Int()
	case name == token.NF:
		n := v.Int()
		if n < 0 || n > maxField {
			return r.errorf(id.At, "%w: %d", ErrBadNF, n)
		}
		r.rec.setNF(int(n))
	case name == token.FS:
		r.rec.fs = v.String()
	default:
		r.vars[name] = v
	}
	return nil
}

// fieldIndex resolves $N to N and $name to the integer value of name.
func (r *Runtime) fieldIndex(id *ast.Ident) (int, error) {
	ref := id.Name[1:]
	if ref == "" {
		return 0, r.errorf(id.At, "%w: %s", ErrBadField, id.Name)
	}
	var n int64
	if isDigits(ref) {
		var err error
		if n, err = strconv.ParseInt(ref, 10, 64); err != nil {
			return 0, r.errorf(id.At, "%w: %s", ErrBadField, id.Name)
		}
	} else {
		v, err := r.lookup(&ast.Ident{At: id.At, Name: ref})
		if err != nil {
			return 0, err
		}
		n = v.Int()
	}
	if n < 0 || n > int64(^uint(0)>>1) {
		return 0, r.errorf(id.At, "%w: %s is %d", ErrBadField, id.Name, n)
	}
	return int(n), nil
}

func (r *Runtime) errorf(at token.Pos, format string, args ...any) error {
	e := &Error{Pos: at, Err: fmt.Errorf(format, args...)}
	if r.inMain {
		e.NR = r.nr
	}
	return e
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}
