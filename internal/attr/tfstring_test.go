package attr

import "testing"

func TestPlainHasNoAttrVector(t *testing.T) {
	s := Plain("hello")
	if s.Len() != 5 {
		t.Errorf("Len = %d, want 5", s.Len())
	}
	for i := 0; i < s.Len(); i++ {
		if s.AttrAt(i) != Empty {
			t.Errorf("AttrAt(%d) = %#x, want Empty", i, s.AttrAt(i))
		}
	}
}

func TestPushPreservesLengthInvariant(t *testing.T) {
	s := NewTfString()
	s.Push('a', Empty)
	s.Push('b', Bold)
	s.Push('c', Empty)
	if s.String() != "abc" {
		t.Errorf("String = %q", s.String())
	}
	if s.AttrAt(0) != Empty || s.AttrAt(1) != Bold || s.AttrAt(2) != Empty {
		t.Error("per-character attributes wrong after mixed pushes")
	}
}

func TestLineAttrMergesIntoEveryChar(t *testing.T) {
	s := Plain("xy")
	s.Line = Reverse
	if !s.AttrAt(0).Has(Reverse) || !s.AttrAt(1).Has(Reverse) {
		t.Error("line attribute should apply to every character")
	}
}

func TestSlice(t *testing.T) {
	s := NewTfString()
	s.PushString("abcdef", Empty)
	s.Push('g', Bold)
	sub := s.Slice(4, 3)
	if sub.String() != "efg" {
		t.Errorf("Slice = %q, want %q", sub.String(), "efg")
	}
	if sub.AttrAt(2) != Bold {
		t.Error("slice should carry per-character attributes")
	}
	// Out-of-range slicing clamps.
	if got := s.Slice(100, 5); got.Len() != 0 {
		t.Errorf("out-of-range slice Len = %d, want 0", got.Len())
	}
}

func TestSpans(t *testing.T) {
	s := NewTfString()
	s.PushString("aa", Bold)
	s.PushString("bb", Empty)
	s.PushString("c", Bold)
	var texts []string
	var attrs []Attr
	s.Spans(func(text string, a Attr) {
		texts = append(texts, text)
		attrs = append(attrs, a)
	})
	want := []string{"aa", "bb", "c"}
	if len(texts) != len(want) {
		t.Fatalf("spans = %v, want %v", texts, want)
	}
	for i := range want {
		if texts[i] != want[i] {
			t.Errorf("span %d = %q, want %q", i, texts[i], want[i])
		}
	}
	if attrs[0] != Bold || attrs[1] != Empty || attrs[2] != Bold {
		t.Error("span attributes wrong")
	}
}

func TestDecodeSGR(t *testing.T) {
	s := Decode("plain \x1b[1mbold\x1b[0m after")
	if s.String() != "plain bold after" {
		t.Errorf("text = %q", s.String())
	}
	if s.AttrAt(0) != Empty {
		t.Error("leading text should be plain")
	}
	if !s.AttrAt(6).Has(Bold) {
		t.Error("'bold' run should be bold")
	}
	if s.AttrAt(11) != Empty {
		t.Error("text after reset should be plain")
	}
}

func TestDecodeColors(t *testing.T) {
	s := Decode("\x1b[31;44mX\x1b[39mY")
	fg, ok := s.AttrAt(0).Fg()
	if !ok || fg != Red {
		t.Errorf("fg = %d,%v, want red", fg, ok)
	}
	bg, ok := s.AttrAt(0).Bg()
	if !ok || bg != Blue {
		t.Errorf("bg = %d,%v, want blue", bg, ok)
	}
	// 39 resets fg only; bg survives.
	if _, ok := s.AttrAt(1).Fg(); ok {
		t.Error("fg should be cleared on Y")
	}
	if _, ok := s.AttrAt(1).Bg(); !ok {
		t.Error("bg should survive on Y")
	}
}

func TestDecodeBrightColors(t *testing.T) {
	s := Decode("\x1b[91mX")
	fg, ok := s.AttrAt(0).Fg()
	if !ok || fg != BrightRed {
		t.Errorf("fg = %d,%v, want brightred", fg, ok)
	}
}

func TestDecodeStripsNonSGR(t *testing.T) {
	s := Decode("a\x1b[2Jb")
	if s.String() != "ab" {
		t.Errorf("text = %q, want %q", s.String(), "ab")
	}
}

func TestDecodeBellSetsLineFlag(t *testing.T) {
	s := Decode("ding\x07")
	if s.String() != "ding" {
		t.Errorf("text = %q", s.String())
	}
	if !s.Line.Has(Bell) {
		t.Error("BEL should set the line Bell flag")
	}
}

func TestParseMarkup(t *testing.T) {
	s := ParseMarkup("@{b}bold@{n} plain @@at")
	if s.String() != "bold plain @at" {
		t.Errorf("text = %q", s.String())
	}
	if !s.AttrAt(0).Has(Bold) {
		t.Error("markup bold not applied")
	}
	if s.AttrAt(5) != Empty {
		t.Error("@{n} should reset attributes")
	}
}

func TestParseMarkupColor(t *testing.T) {
	s := ParseMarkup("@{Cgreen}go")
	fg, ok := s.AttrAt(0).Fg()
	if !ok || fg != Green {
		t.Errorf("fg = %d,%v, want green", fg, ok)
	}
}
