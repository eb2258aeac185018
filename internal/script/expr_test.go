package script

import "testing"

func evalIn(t *testing.T, in *Interpreter, src string) Value {
	t.Helper()
	v, err := in.EvalExprStr(src)
	if err != nil {
		t.Fatalf("eval %q: %v", src, err)
	}
	return v
}

func evalOne(t *testing.T, src string) Value {
	t.Helper()
	return evalIn(t, New(), src)
}

func TestArithmetic(t *testing.T) {
	tests := []struct {
		src  string
		want int64
	}{
		{"2 + 3", 5},
		{"10 - 4", 6},
		{"3 * 4", 12},
		{"10 / 3", 3},
		{"10 % 3", 1},
		{"2 + 3 * 4", 14},
		{"(2 + 3) * 4", 20},
		{"-5", -5},
		{"-(3 + 2)", -5},
		{"0xff", 255},
		{"5 & 3", 1},
		{"5 | 2", 7},
		{"5 ^ 3", 6},
		{"1 << 3", 8},
		{"8 >> 2", 2},
		{"~0", -1},
	}
	for _, tt := range tests {
		if got := evalOne(t, tt.src).AsInt(); got != tt.want {
			t.Errorf("%q = %d, want %d", tt.src, got, tt.want)
		}
	}
}

func TestComparisons(t *testing.T) {
	tests := []struct {
		src  string
		want int64
	}{
		{"3 == 3", 1},
		{"3 != 4", 1},
		{"2 < 3", 1},
		{"3 <= 3", 1},
		{"4 > 5", 0},
		{"3 >= 3", 1},
		{"!0", 1},
		{"!1", 0},
		{"1 && 1", 1},
		{"1 && 0", 0},
		{"0 || 1", 1},
		{"0 || 0", 0},
	}
	for _, tt := range tests {
		if got := evalOne(t, tt.src).AsInt(); got != tt.want {
			t.Errorf("%q = %d, want %d", tt.src, got, tt.want)
		}
	}
}

func TestTernary(t *testing.T) {
	if got := evalOne(t, "1 ? 10 : 20").AsInt(); got != 10 {
		t.Errorf("ternary true = %d", got)
	}
	if got := evalOne(t, "0 ? 10 : 20").AsInt(); got != 20 {
		t.Errorf("ternary false = %d", got)
	}
	if got := evalOne(t, `0 ? "a" : 1 ? "b" : "c"`).String(); got != "b" {
		t.Errorf("chained ternary = %q", got)
	}
}

func TestStringConcatOperator(t *testing.T) {
	if got := evalOne(t, `"foo" : "bar"`).String(); got != "foobar" {
		t.Errorf("concat = %q", got)
	}
	// Numbers format in decimal when concatenated.
	if got := evalOne(t, `"x" : 42`).String(); got != "x42" {
		t.Errorf("concat with int = %q", got)
	}
}

func TestStringCompareOperators(t *testing.T) {
	tests := []struct {
		src  string
		want int64
	}{
		{`"abc" =~ "abc"`, 1},
		{`"abc" =~ "ABC"`, 0},
		{`"abc" !~ "abd"`, 1},
	}
	for _, tt := range tests {
		if got := evalOne(t, tt.src).AsInt(); got != tt.want {
			t.Errorf("%q = %d, want %d", tt.src, got, tt.want)
		}
	}
}

func TestRegexMatchOperator(t *testing.T) {
	// =/ compiles a real regular expression, not a substring search.
	tests := []struct {
		src  string
		want int64
	}{
		{`"hello" =/ "hel.o"`, 1},
		{`"hello" =/ "^hell$"`, 0},
		{`"hello" =/ "^hello$"`, 1},
		{`"hello world" =/ "w(or)ld"`, 1},
		{`"hello" !/ "xyz"`, 1},
		{`"hello" !/ "ell"`, 0},
	}
	for _, tt := range tests {
		if got := evalOne(t, tt.src).AsInt(); got != tt.want {
			t.Errorf("%q = %d, want %d", tt.src, got, tt.want)
		}
	}
}

func TestRegexMatchOperatorBadPattern(t *testing.T) {
	if _, err := New().EvalExprStr(`"x" =/ "(unclosed"`); err == nil {
		t.Error("expected compile error from bad regex operand")
	}
}

func TestVariablesAndAssignment(t *testing.T) {
	in := New()
	in.SetGlobalVar("x", IntValue(7))
	if got := evalIn(t, in, "x + 1").AsInt(); got != 8 {
		t.Errorf("x+1 = %d", got)
	}
	evalIn(t, in, "y = 5")
	if v, _ := in.GetGlobalVar("y"); v.AsInt() != 5 {
		t.Error("assignment did not store")
	}
	evalIn(t, in, "x += 5")
	if v, _ := in.GetGlobalVar("x"); v.AsInt() != 12 {
		t.Error("compound assignment wrong")
	}
}

func TestUnknownVariableIsEmpty(t *testing.T) {
	in := New()
	v := evalIn(t, in, `nosuchvar : "x"`)
	if v.String() != "x" {
		t.Errorf("unknown variable should expand empty, got %q", v.String())
	}
	if in.LastError == "" {
		t.Error("unknown variable should set LastError")
	}
}

func TestCommaExpression(t *testing.T) {
	in := New()
	v := evalIn(t, in, "a = 1, b = 2, a + b")
	if v.AsInt() != 3 {
		t.Errorf("comma expr = %d, want 3", v.AsInt())
	}
}

func TestFunctionCalls(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{`strlen("hello")`, "5"},
		{`strcat("a", "b", "c")`, "abc"},
		{`substr("abcdef", 2, 3)`, "cde"},
		{`substr("abcdef", 4)`, "ef"},
		{`toupper("hi")`, "HI"},
		{`tolower("HI")`, "hi"},
		{`strstr("foobar", "bar")`, "3"},
		{`strstr("foobar", "zap")`, "-1"},
		{`strrep("ab", 3)`, "ababab"},
		{`replace("o", "0", "foo")`, "f00"},
		{`pad("x", 3)`, "  x"},
		{`pad("x", -3)`, "x  "},
		{`ascii("A")`, "65"},
		{`char(66)`, "B"},
		{`abs(-4)`, "4"},
		{`mod(10, 3)`, "1"},
		{`trunc(3.9)`, "3"},
		{`whatis(42)`, "integer"},
		{`whatis(4.5)`, "real"},
		{`whatis("s")`, "string"},
	}
	for _, tt := range tests {
		if got := evalOne(t, tt.src).String(); got != tt.want {
			t.Errorf("%q = %q, want %q", tt.src, got, tt.want)
		}
	}
}

func TestUnknownFunctionErrors(t *testing.T) {
	if _, err := New().EvalExprStr("no_such_fn(1)"); err == nil {
		t.Error("expected unknown-function error")
	}
}

func TestUnknownByteIsDiagnosed(t *testing.T) {
	// A stray byte must surface as an error, never be silently dropped.
	if _, err := New().EvalExprStr("1 + \x01"); err == nil {
		t.Error("expected unrecognized-character error")
	}
}

func TestRandRange(t *testing.T) {
	in := New()
	for i := 0; i < 100; i++ {
		v := evalIn(t, in, "rand(10)").AsInt()
		if v < 0 || v >= 10 {
			t.Fatalf("rand(10) = %d out of range", v)
		}
	}
}

func TestRegmatchSetsCaptures(t *testing.T) {
	in := New()
	v := evalIn(t, in, `regmatch("(\\w+) (\\w+)", "hello world!")`)
	if v.AsInt() != 1 {
		t.Fatal("regmatch should succeed")
	}
	p0, _ := in.GetVar("P0")
	p1, _ := in.GetVar("P1")
	p2, _ := in.GetVar("P2")
	pr, _ := in.GetVar("PR")
	if p0.String() != "hello world" || p1.String() != "hello" || p2.String() != "world" {
		t.Errorf("captures = %q %q %q", p0.String(), p1.String(), p2.String())
	}
	if pr.String() != "!" {
		t.Errorf("PR = %q, want %q", pr.String(), "!")
	}
}
