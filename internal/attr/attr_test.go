package attr

import "testing"

func TestStyleFlagsAreIndependent(t *testing.T) {
	a := Bold | Underline
	if !a.Has(Bold) || !a.Has(Underline) {
		t.Error("expected bold and underline set")
	}
	if a.Has(Italic) {
		t.Error("italic should not be set")
	}
}

func TestEmptyVersusNone(t *testing.T) {
	// Empty is "unset, inherit"; None is an explicit reset marker.
	if Empty.Has(None) {
		t.Error("Empty must not satisfy Has(None)")
	}
	if !None.Has(None) {
		t.Error("None must satisfy Has(None)")
	}
	if Empty == None {
		t.Error("Empty and None must be distinct values")
	}
	if !Empty.IsEmpty() {
		t.Error("Empty.IsEmpty() should be true")
	}
	if None.IsEmpty() {
		t.Error("None.IsEmpty() should be false")
	}
}

func TestAllIsUnionOfNamedVariants(t *testing.T) {
	named := []Attr{
		Underline, Reverse, Bold, Italic, Dim, Strike, Hilite, None,
		NoActivity, NoLog, Bell, Gag, NoHistory, TFPrompt, ServPrompt,
	}
	var union Attr
	for _, v := range named {
		union |= v
	}
	if All != union {
		t.Errorf("All = %#x, want OR of named variants %#x", All, union)
	}
}

func TestFgColorRoundTrip(t *testing.T) {
	a := Bold.WithFg(Red)
	fg, ok := a.Fg()
	if !ok || fg != Red {
		t.Errorf("Fg() = %d,%v, want %d,true", fg, ok, Red)
	}
	if !a.Has(Bold) {
		t.Error("WithFg must preserve style bits")
	}
	if _, ok := a.Bg(); ok {
		t.Error("no background expected")
	}
}

func TestFgColorReplace(t *testing.T) {
	a := Empty.WithFg(Red).WithFg(BrightCyan)
	fg, _ := a.Fg()
	if fg != BrightCyan {
		t.Errorf("fg = %d, want %d", fg, BrightCyan)
	}
}

func TestWithoutFgClearsColor(t *testing.T) {
	a := Bold.WithFg(Cyan).WithoutFg()
	if _, ok := a.Fg(); ok {
		t.Error("foreground should be cleared")
	}
	if !a.Has(Bold) {
		t.Error("bold should survive")
	}
}

func TestHighBitFlagsDoNotCorruptColor(t *testing.T) {
	a := Gag | Empty.WithFg(White)
	if !a.Has(Gag) {
		t.Error("gag lost")
	}
	if fg, ok := a.Fg(); !ok || fg != White {
		t.Errorf("fg = %d,%v, want %d,true", fg, ok, White)
	}
}

func TestFlagStringAndParseFlags(t *testing.T) {
	tests := []struct {
		attr Attr
		want string
	}{
		{Bold | Underline | Gag, "bug"},
		{Hilite, "h"},
		{Gag, "g"},
		{Bold.WithFg(Green), "bCgreen"},
	}
	for _, tt := range tests {
		got := tt.attr.FlagString()
		if got != tt.want {
			t.Errorf("FlagString(%#x) = %q, want %q", tt.attr, got, tt.want)
		}
		back, err := ParseFlags(got)
		if err != nil {
			t.Errorf("ParseFlags(%q): %v", got, err)
		}
		if back != tt.attr {
			t.Errorf("ParseFlags(%q) = %#x, want %#x", got, back, tt.attr)
		}
	}
}

func TestParseFlagsRejectsUnknown(t *testing.T) {
	if _, err := ParseFlags("z"); err == nil {
		t.Error("expected error for unknown flag letter")
	}
	if _, err := ParseFlags("Cchartreuse"); err == nil {
		t.Error("expected error for unknown color name")
	}
}

func TestParseFlagsBackground(t *testing.T) {
	a, err := ParseFlags("Cbgred")
	if err != nil {
		t.Fatalf("ParseFlags: %v", err)
	}
	bg, ok := a.Bg()
	if !ok || bg != Red {
		t.Errorf("bg = %d,%v, want %d,true", bg, ok, Red)
	}
}
