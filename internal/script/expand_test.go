package script

import "testing"

type expandCtx struct {
	*Interpreter
}

func newExpandCtx() *expandCtx {
	return &expandCtx{Interpreter: New()}
}

func (c *expandCtx) withVar(name, val string) *expandCtx {
	c.SetGlobalVar(name, StringValue(val))
	return c
}

func (c *expandCtx) withParams(params ...string) *expandCtx {
	c.frames = append(c.frames, frame{
		locals:  make(map[string]Value),
		params:  params,
		cmdName: "testcmd",
	})
	return c
}

func expandOK(t *testing.T, ctx *expandCtx, src string) string {
	t.Helper()
	out, err := Expand(src, ctx)
	if err != nil {
		t.Fatalf("Expand(%q): %v", src, err)
	}
	return out
}

func TestExpandPlainText(t *testing.T) {
	if got := expandOK(t, newExpandCtx(), "hello world"); got != "hello world" {
		t.Errorf("got %q", got)
	}
}

func TestExpandVariables(t *testing.T) {
	ctx := newExpandCtx().withVar("name", "Alice").withVar("x", "42")
	tests := []struct{ src, want string }{
		{"Hello, %{name}!", "Hello, Alice!"},
		{"value=%x end", "value=42 end"},
		{"${name}", "Alice"},
		{"%{nosuchvar}", ""},
		{"100%!", "100%!"},
		{"$$foo", "$foo"},
	}
	for _, tt := range tests {
		if got := expandOK(t, ctx, tt.src); got != tt.want {
			t.Errorf("Expand(%q) = %q, want %q", tt.src, got, tt.want)
		}
	}
}

func TestExpandPositionalParams(t *testing.T) {
	ctx := newExpandCtx().withParams("a", "b", "c", "d")
	tests := []struct{ src, want string }{
		{"{1} {2}", "a b"},
		{"%1 %2", "a b"},
		{"{#}", "4"},
		{"{*}", "a b c d"},
		{"{L}", "d"},
		{"%L", "d"},
		{"{-L}", "a b c"},
		{"%-L", "a b c"},
		{"{-1}", "b c d"},
		{"{-2}", "c d"},
		{"%-2", "c d"},
		{"{P}", "testcmd"},
		{"{9}", ""},
	}
	for _, tt := range tests {
		if got := expandOK(t, ctx, tt.src); got != tt.want {
			t.Errorf("Expand(%q) = %q, want %q", tt.src, got, tt.want)
		}
	}
}

func TestExpandScenario(t *testing.T) {
	// Macro body "{1}-{L}-{*}" with params a b c d expands to
	// "a-d-a b c d".
	ctx := newExpandCtx().withParams("a", "b", "c", "d")
	if got := expandOK(t, ctx, "{1}-{L}-{*}"); got != "a-d-a b c d" {
		t.Errorf("got %q, want %q", got, "a-d-a b c d")
	}
}

func TestExpandDefaults(t *testing.T) {
	ctx := newExpandCtx()
	if got := expandOK(t, ctx, "{1-x}"); got != "x" {
		t.Errorf("missing param default: %q", got)
	}
	if got := expandOK(t, ctx, "{L-@}"); got != "@" {
		t.Errorf("missing last-param default: %q", got)
	}
	if got := expandOK(t, ctx, "{*-none}"); got != "none" {
		t.Errorf("missing star default: %q", got)
	}
	if got := expandOK(t, ctx, "%{opt_a-/abort}"); got != "/abort" {
		t.Errorf("var default: %q", got)
	}
	ctx.SetGlobalVar("opt_a", StringValue("/myabort"))
	if got := expandOK(t, ctx, "%{opt_a-/abort}"); got != "/myabort" {
		t.Errorf("var value over default: %q", got)
	}

	with := newExpandCtx().withParams("world")
	if got := expandOK(t, with, "{2-23}"); got != "23" {
		t.Errorf("numeric default: %q", got)
	}
	with2 := newExpandCtx().withParams("world", "4000")
	if got := expandOK(t, with2, "{2-23}"); got != "4000" {
		t.Errorf("param over numeric default: %q", got)
	}
}

func TestExpandNestedDefaults(t *testing.T) {
	// Nested braces in defaults resolve via the depth-tracked scan.
	ctx := newExpandCtx().withVar("LOGFILE", "/tmp/tf.log")
	if got := expandOK(t, ctx, "%{_file-${LOGFILE}}"); got != "/tmp/tf.log" {
		t.Errorf("nested default: %q", got)
	}
	ctx.SetGlobalVar("_file", StringValue("/my/file"))
	if got := expandOK(t, ctx, "%{_file-${LOGFILE}}"); got != "/my/file" {
		t.Errorf("value over nested default: %q", got)
	}

	ctx2 := newExpandCtx().withVar("qdef_prefix", ">>").withParams("only")
	if got := expandOK(t, ctx2, "%{-L-%{qdef_prefix-:|}}"); got != ">>" {
		t.Errorf("deep nesting: %q", got)
	}
}

func TestExpandInlineExpressions(t *testing.T) {
	ctx := newExpandCtx().withVar("x", "10")
	if got := expandOK(t, ctx, "result=$[2 + 3]"); got != "result=5" {
		t.Errorf("$[]: %q", got)
	}
	if got := expandOK(t, ctx, "%(3 + 4)"); got != "7" {
		t.Errorf("%%(): %q", got)
	}
	if got := expandOK(t, ctx, "v=%(x * 2)"); got != "v=20" {
		t.Errorf("%%() with var: %q", got)
	}
	// %var inside $[...] substitutes before evaluation.
	ctx2 := newExpandCtx().withParams("6")
	if got := expandOK(t, ctx2, "$[%1-1]"); got != "5" {
		t.Errorf("$[%%1-1]: %q", got)
	}
}

func TestExpandIndirect(t *testing.T) {
	ctx := newExpandCtx().withVar("ptr", "target").withVar("target", "hello")
	if got := expandOK(t, ctx, "@@ptr"); got != "hello" {
		t.Errorf("@@: %q", got)
	}
	ctx2 := newExpandCtx().withVar("ptr", "nosuch")
	if got := expandOK(t, ctx2, "@@ptr"); got != "" {
		t.Errorf("@@ with dangling target: %q", got)
	}
	if got := expandOK(t, newExpandCtx(), "a@b"); got != "a@b" {
		t.Errorf("single @: %q", got)
	}
}

func TestExpandUnclosedBraceErrors(t *testing.T) {
	if _, err := Expand("%{oops", newExpandCtx()); err == nil {
		t.Error("unclosed %{ should error")
	}
	if _, err := Expand("$[1+2", newExpandCtx()); err == nil {
		t.Error("unclosed $[ should error")
	}
}
