// Package script implements the scripting language: lexer, expression and
// statement parsers, variable expansion, a tree-walking interpreter, and
// the deferred actions the interpreter hands back to the event loop.
package script

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fogwraith/fugue-mud-client/internal/attr"
)

// Kind tags a Value's representation.
type Kind int

const (
	KindInt Kind = iota
	KindFloat
	KindStr
)

// Value is a script scalar: integer, float, or attributed string.
// Arithmetic coerces strings to numbers (non-numeric parses as 0); string
// operations format numbers in decimal. Integer-preserving operations
// return KindInt.
type Value struct {
	kind Kind
	i    int64
	f    float64
	s    *attr.TfString
}

// IntValue returns an integer value.
func IntValue(i int64) Value { return Value{kind: KindInt, i: i} }

// FloatValue returns a float value.
func FloatValue(f float64) Value { return Value{kind: KindFloat, f: f} }

// StringValue returns a plain string value.
func StringValue(s string) Value {
	return Value{kind: KindStr, s: attr.Plain(s)}
}

// TfStringValue returns a string value carrying display attributes.
func TfStringValue(s *attr.TfString) Value {
	if s == nil {
		s = attr.NewTfString()
	}
	return Value{kind: KindStr, s: s}
}

// BoolValue returns 1 or 0.
func BoolValue(b bool) Value {
	if b {
		return IntValue(1)
	}
	return IntValue(0)
}

// Kind returns the representation tag.
func (v Value) Kind() Kind { return v.kind }

// String formats the value for display. Floats print with a trailing .0
// when integral so that the float/integer distinction stays visible.
func (v Value) String() string {
	switch v.kind {
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		if v.f == float64(int64(v.f)) && v.f < 1e15 && v.f > -1e15 {
			return strconv.FormatFloat(v.f, 'f', 1, 64)
		}
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	default:
		return v.s.String()
	}
}

// TfStr returns the value as an attributed string.
func (v Value) TfStr() *attr.TfString {
	if v.kind == KindStr {
		return v.s
	}
	return attr.Plain(v.String())
}

// AsBool coerces to boolean: 0, 0.0, "", and "0" are false.
func (v Value) AsBool() bool {
	switch v.kind {
	case KindInt:
		return v.i != 0
	case KindFloat:
		return v.f != 0
	default:
		s := v.s.String()
		return s != "" && s != "0"
	}
}

// AsInt coerces to int64; non-numeric strings coerce to 0.
func (v Value) AsInt() int64 {
	switch v.kind {
	case KindInt:
		return v.i
	case KindFloat:
		return int64(v.f)
	default:
		s := strings.TrimSpace(v.s.String())
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return int64(f)
		}
		return 0
	}
}

// AsFloat coerces to float64; non-numeric strings coerce to 0.
func (v Value) AsFloat() float64 {
	switch v.kind {
	case KindInt:
		return float64(v.i)
	case KindFloat:
		return v.f
	default:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.s.String()), 64)
		if err != nil {
			return 0
		}
		return f
	}
}

// TypeName is the name reported by whatis().
func (v Value) TypeName() string {
	switch v.kind {
	case KindInt:
		return "integer"
	case KindFloat:
		return "real"
	default:
		return "string"
	}
}

// isFloatish reports whether the value should promote arithmetic to float.
func (v Value) isFloatish() bool {
	if v.kind == KindFloat {
		return true
	}
	if v.kind == KindStr {
		return strings.Contains(v.s.String(), ".")
	}
	return false
}

func numericResult(f float64, isFloat bool) Value {
	if isFloat {
		return FloatValue(f)
	}
	return IntValue(int64(f))
}

// Add returns v + rhs with numeric promotion.
func (v Value) Add(rhs Value) Value {
	isFloat := v.isFloatish() || rhs.isFloatish()
	return numericResult(v.AsFloat()+rhs.AsFloat(), isFloat)
}

// Sub returns v - rhs.
func (v Value) Sub(rhs Value) Value {
	isFloat := v.isFloatish() || rhs.isFloatish()
	return numericResult(v.AsFloat()-rhs.AsFloat(), isFloat)
}

// Mul returns v * rhs.
func (v Value) Mul(rhs Value) Value {
	isFloat := v.isFloatish() || rhs.isFloatish()
	return numericResult(v.AsFloat()*rhs.AsFloat(), isFloat)
}

// Div returns v / rhs; division by zero is an error.
func (v Value) Div(rhs Value) (Value, error) {
	isFloat := v.isFloatish() || rhs.isFloatish()
	d := rhs.AsFloat()
	if d == 0 {
		return Value{}, fmt.Errorf("division by zero")
	}
	if isFloat {
		return FloatValue(v.AsFloat() / d), nil
	}
	return IntValue(v.AsInt() / rhs.AsInt()), nil
}

// Rem returns v % rhs; modulo by zero is an error.
func (v Value) Rem(rhs Value) (Value, error) {
	if rhs.AsInt() == 0 {
		return Value{}, fmt.Errorf("modulo by zero")
	}
	return IntValue(v.AsInt() % rhs.AsInt()), nil
}

// Neg returns the arithmetic negation.
func (v Value) Neg() Value {
	switch v.kind {
	case KindInt:
		return IntValue(-v.i)
	case KindFloat:
		return FloatValue(-v.f)
	default:
		s := strings.TrimSpace(v.s.String())
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return IntValue(-n)
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return FloatValue(-f)
		}
		return IntValue(0)
	}
}

// Compare returns -1, 0, or 1. Two strings compare numerically when both
// parse as numbers, lexically otherwise; mixed operands compare
// numerically.
func (v Value) Compare(rhs Value) int {
	if v.kind == KindStr && rhs.kind == KindStr {
		a, b := v.s.String(), rhs.s.String()
		af, aerr := strconv.ParseFloat(strings.TrimSpace(a), 64)
		bf, berr := strconv.ParseFloat(strings.TrimSpace(b), 64)
		if aerr == nil && berr == nil {
			return cmpFloat(af, bf)
		}
		return strings.Compare(a, b)
	}
	return cmpFloat(v.AsFloat(), rhs.AsFloat())
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// ParseNumber interprets s as an Int or Float value when it parses as one,
// otherwise returns it as a string value.
func ParseNumber(s string) Value {
	t := strings.TrimSpace(s)
	if n, err := strconv.ParseInt(t, 10, 64); err == nil {
		return IntValue(n)
	}
	if f, err := strconv.ParseFloat(t, 64); err == nil {
		return FloatValue(f)
	}
	return StringValue(s)
}
