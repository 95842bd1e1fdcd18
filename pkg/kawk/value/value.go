// Package value implements the dynamically typed values of kawk and the
// single arithmetic/comparison step shared by constant folding and the
// runtime evaluator.
package value

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

// Kind is the dynamic type of a Value.
type Kind uint8

const (
	String Kind = iota // zero Value is the empty string
	Int
	Float
)

func (k Kind) String() string {
	switch k {
	case Int:
		return "int"
	case Float:
		return "float"
	}
	return "string"
}

// Value is an immutable int64, float64 or string. The zero Value is the
// empty string, which is also what unset variables read as.
type Value struct {
	kind Kind
	i    int64
	f    float64
	s    string
}

// NewInt returns an integer value.
func NewInt(i int64) Value { return Value{kind: Int, i: i} }

// NewFloat returns a fixed-point (float64) value.
func NewFloat(f float64) Value { return Value{kind: Float, f: f} }

// NewString returns a string value.
func NewString(s string) Value { return Value{kind: String, s: s} }

// Bool returns Int 1 for true and Int 0 for false.
func Bool(b bool) Value {
	if b {
		return NewInt(1)
	}
	return NewInt(0)
}

// Kind reports the dynamic type of v.
func (v Value) Kind() Kind { return v.kind }

// IsString reports whether v holds a string.
func (v Value) IsString() bool { return v.kind == String }

// Number returns v as an Int or Float value. Strings are converted by
// their leading numeric prefix.
func (v Value) Number() Value {
	if v.kind == String {
		return ParseNumber(v.s)
	}
	return v
}

// Int returns v converted to an integer. Floats are truncated toward zero.
func (v Value) Int() int64 {
	n := v.Number()
	if n.kind == Float {
		if math.IsNaN(n.f) {
			return 0
		}
		return int64(n.f)
	}
	return n.i
}

// Float returns v converted to a float64.
func (v Value) Float() float64 {
	n := v.Number()
	if n.kind == Float {
		return n.f
	}
	return float64(n.i)
}

// Truthy reports whether the numeric value of v is nonzero.
func (v Value) Truthy() bool {
	n := v.Number()
	if n.kind == Float {
		return n.f != 0
	}
	return n.i != 0
}

// String returns the display form of v: integers in decimal, floats in the
// shortest form that round-trips (always carrying a fraction or exponent),
// strings unchanged.
func (v Value) String() string {
	switch v.kind {
	case Int:
		return strconv.FormatInt(v.i, 10)
	case Float:
		return FormatFloat(v.f)
	}
	return v.s
}

// FormatFloat formats f for display. Integral values keep a ".0" suffix so
// that a float never prints like an integer.
func FormatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	format := byte('f')
	if a := math.Abs(f); a >= 1e21 || (a != 0 && a < 1e-6) {
		format = 'e'
	}
	s := strconv.FormatFloat(f, format, -1, 64)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}

// ParseNumber converts the leading numeric prefix of s. Leading blanks are
// skipped. A fixed-point prefix (one containing '.') is tried before an
// integer prefix; if neither matches the result is Int 0.
func ParseNumber(s string) Value {
	s = strings.TrimLeft(s, " \t")
	neg := strings.HasPrefix(s, "-")
	body := s
	if neg {
		body = s[1:]
	}
	if text, ok := fixedPrefix(body); ok {
		f, err := strconv.ParseFloat(strings.ReplaceAll(text, "_", ""), 64)
		if err == nil {
			if neg {
				f = -f
			}
			return NewFloat(f)
		}
	}
	if text, base := intPrefix(body); text != "" {
		if base == 10 {
			text = strings.ReplaceAll(text, "_", "")
		}
		if neg {
			text = "-" + text
		}
		if i, err := strconv.ParseInt(text, base, 64); err == nil {
			return NewInt(i)
		}
		// Out of range prefixes saturate through float64.
		if base == 10 {
			if f, err := strconv.ParseFloat(text, 64); err == nil {
				return NewFloat(f)
			}
		}
	}
	return NewInt(0)
}

// fixedPrefix matches digits? '.' digits? with at least one digit.
func fixedPrefix(s string) (string, bool) {
	n := digitRun(s, 0, isDigit)
	if n >= len(s) || s[n] != '.' {
		return "", false
	}
	m := digitRun(s, n+1, isDigit)
	if n == 0 && m == 1 {
		return "", false
	}
	return s[:m], true
}

// intPrefix matches 0x..., 0b..., or a decimal run with '_' separators and
// returns it with the base to parse it in (0 lets strconv read the prefix).
func intPrefix(s string) (string, int) {
	switch {
	case len(s) > 2 && s[0] == '0' && s[1] == 'x' && isHexDigit(s[2]):
		return s[:digitRun(s, 2, isHexDigit)], 0
	case len(s) > 2 && s[0] == '0' && s[1] == 'b' && isBinDigit(s[2]):
		return s[:digitRun(s, 2, isBinDigit)], 0
	}
	return s[:digitRun(s, 0, isDigit)], 10
}

// digitRun returns the end of a run of digits starting at i in which each
// underscore sits between two digits.
func digitRun(s string, i int, ok func(byte) bool) int {
	start := i
	for i < len(s) {
		switch {
		case ok(s[i]):
			i++
		case s[i] == '_' && i > start && i+1 < len(s) && ok(s[i+1]):
			i++
		default:
			return i
		}
	}
	return i
}

func isDigit(c byte) bool    { return '0' <= c && c <= '9' }
func isBinDigit(c byte) bool { return c == '0' || c == '1' }

func isHexDigit(c byte) bool {
	return isDigit(c) || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}

// Errors returned by Fold.
var (
	ErrDivisionByZero = errors.New("division by zero")
	ErrBadOperator    = errors.New("unknown operator")
)

// IsComparison reports whether op yields a 0/1 comparison result.
func IsComparison(op string) bool {
	switch op {
	case "==", "!=", "<", ">":
		return true
	}
	return false
}

// Fold applies one binary step acc op rhs.
//
// Comparisons between two strings compare the strings; every other
// combination compares numerically. Arithmetic coerces strings to numbers
// and is done in float64 when either side is a float, in int64 otherwise.
func Fold(acc Value, op string, rhs Value) (Value, error) {
	if IsComparison(op) {
		if acc.kind == String && rhs.kind == String {
			return compareStrings(acc.s, op, rhs.s), nil
		}
		return compareNumbers(acc.Number(), op, rhs.Number()), nil
	}
	a, b := acc.Number(), rhs.Number()
	if a.kind == Float || b.kind == Float {
		return floatStep(a.Float(), op, b.Float())
	}
	return intStep(a.i, op, b.i)
}

func compareStrings(a, op, b string) Value {
	switch op {
	case "==":
		return Bool(a == b)
	case "!=":
		return Bool(a != b)
	case "<":
		return Bool(a < b)
	}
	return Bool(a > b)
}

func compareNumbers(a Value, op string, b Value) Value {
	if a.kind == Int && b.kind == Int {
		switch op {
		case "==":
			return Bool(a.i == b.i)
		case "!=":
			return Bool(a.i != b.i)
		case "<":
			return Bool(a.i < b.i)
		}
		return Bool(a.i > b.i)
	}
	x, y := a.Float(), b.Float()
	switch op {
	case "==":
		return Bool(x == y)
	case "!=":
		return Bool(x != y)
	case "<":
		return Bool(x < y)
	}
	return Bool(x > y)
}

func intStep(a int64, op string, b int64) (Value, error) {
	switch op {
	case "+":
		return NewInt(a + b), nil
	case "-":
		return NewInt(a - b), nil
	case "*":
		return NewInt(a * b), nil
	case "/":
		if b == 0 {
			return Value{}, ErrDivisionByZero
		}
		if b == -1 {
			return NewInt(-a), nil
		}
		return NewInt(a / b), nil
	case "%":
		if b == 0 {
			return Value{}, ErrDivisionByZero
		}
		if b == -1 {
			return NewInt(0), nil
		}
		return NewInt(a % b), nil
	}
	return Value{}, ErrBadOperator
}

func floatStep(a float64, op string, b float64) (Value, error) {
	switch op {
	case "+":
		return NewFloat(a + b), nil
	case "-":
		return NewFloat(a - b), nil
	case "*":
		return NewFloat(a * b), nil
	case "/":
		if b == 0 {
			return Value{}, ErrDivisionByZero
		}
		return NewFloat(a / b), nil
	case "%":
		if b == 0 {
			return Value{}, ErrDivisionByZero
		}
		return NewFloat(math.Mod(a, b)), nil
	}
	return Value{}, ErrBadOperator
}
