package script

import "testing"

func TestValueDisplay(t *testing.T) {
	tests := []struct {
		v    Value
		want string
	}{
		{IntValue(42), "42"},
		{IntValue(-7), "-7"},
		{FloatValue(3.14), "3.14"},
		{FloatValue(1.0), "1.0"},
		{StringValue("hello"), "hello"},
	}
	for _, tt := range tests {
		if got := tt.v.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestValueAsBool(t *testing.T) {
	tests := []struct {
		v    Value
		want bool
	}{
		{IntValue(1), true},
		{IntValue(0), false},
		{FloatValue(0.5), true},
		{StringValue("hello"), true},
		{StringValue(""), false},
		{StringValue("0"), false},
		{StringValue("1"), true},
	}
	for _, tt := range tests {
		if got := tt.v.AsBool(); got != tt.want {
			t.Errorf("AsBool(%v) = %v, want %v", tt.v, got, tt.want)
		}
	}
}

func TestValueCoercions(t *testing.T) {
	if got := StringValue("42").AsInt(); got != 42 {
		t.Errorf("AsInt = %d, want 42", got)
	}
	if got := StringValue("abc").AsInt(); got != 0 {
		t.Errorf("non-numeric string AsInt = %d, want 0", got)
	}
	if got := FloatValue(3.9).AsInt(); got != 3 {
		t.Errorf("float AsInt = %d, want 3", got)
	}
	if got := StringValue(" 2.5 ").AsFloat(); got != 2.5 {
		t.Errorf("AsFloat = %v, want 2.5", got)
	}
}

func TestIntegerPreservingArithmetic(t *testing.T) {
	a, b := IntValue(10), IntValue(3)
	if got := a.Add(b); got.Kind() != KindInt || got.AsInt() != 13 {
		t.Errorf("10+3 = %v", got)
	}
	if got, err := a.Div(b); err != nil || got.Kind() != KindInt || got.AsInt() != 3 {
		t.Errorf("10/3 = %v, %v", got, err)
	}
	if got, err := a.Rem(b); err != nil || got.AsInt() != 1 {
		t.Errorf("10%%3 = %v, %v", got, err)
	}
}

func TestFloatPromotion(t *testing.T) {
	got := IntValue(7).Add(FloatValue(2))
	if got.Kind() != KindFloat || got.AsFloat() != 9 {
		t.Errorf("7+2.0 = %v, want float 9", got)
	}
	// Numeric-looking strings with a decimal point promote too.
	got = StringValue("1.5").Add(IntValue(1))
	if got.Kind() != KindFloat || got.AsFloat() != 2.5 {
		t.Errorf(`"1.5"+1 = %v, want float 2.5`, got)
	}
}

func TestDivisionByZero(t *testing.T) {
	if _, err := IntValue(1).Div(IntValue(0)); err == nil {
		t.Error("expected division-by-zero error")
	}
	if _, err := IntValue(1).Rem(IntValue(0)); err == nil {
		t.Error("expected modulo-by-zero error")
	}
}

func TestCompare(t *testing.T) {
	if IntValue(3).Compare(IntValue(3)) != 0 {
		t.Error("3 == 3")
	}
	if IntValue(2).Compare(IntValue(3)) >= 0 {
		t.Error("2 < 3")
	}
	// Numeric strings compare numerically.
	if StringValue("10").Compare(StringValue("9")) <= 0 {
		t.Error(`"10" should exceed "9" numerically`)
	}
	// Non-numeric strings compare lexically.
	if StringValue("abc").Compare(StringValue("abd")) >= 0 {
		t.Error(`"abc" < "abd" lexically`)
	}
}

func TestParseNumber(t *testing.T) {
	if v := ParseNumber("42"); v.Kind() != KindInt {
		t.Error("42 should parse as integer")
	}
	if v := ParseNumber("4.5"); v.Kind() != KindFloat {
		t.Error("4.5 should parse as real")
	}
	if v := ParseNumber("hi"); v.Kind() != KindStr {
		t.Error("hi should stay a string")
	}
}

func TestTypeName(t *testing.T) {
	if IntValue(0).TypeName() != "integer" ||
		FloatValue(0).TypeName() != "real" ||
		StringValue("").TypeName() != "string" {
		t.Error("type names wrong")
	}
}
