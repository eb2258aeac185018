package attr

// TfString is a sequence of characters each bearing an Attr, plus an
// optional line-level Attr applied to the whole string.
//
// The per-character attribute slice is either nil (every character plain)
// or exactly as long as the rune slice. All mutators preserve that
// invariant.
type TfString struct {
	runes []rune
	attrs []Attr // nil, or len(attrs) == len(runes)

	// Line is a whole-line attribute (gag, highlight color, prompt marker).
	Line Attr
}

// NewTfString returns an empty attributed string.
func NewTfString() *TfString {
	return &TfString{}
}

// Plain builds a TfString from text with no attributes.
func Plain(text string) *TfString {
	return &TfString{runes: []rune(text)}
}

// Len returns the number of characters.
func (t *TfString) Len() int { return len(t.runes) }

// IsEmpty reports whether the string has no characters.
func (t *TfString) IsEmpty() bool { return len(t.runes) == 0 }

// String returns the text without attributes.
func (t *TfString) String() string { return string(t.runes) }

// Runes returns the underlying rune slice. Callers must not mutate it.
func (t *TfString) Runes() []rune { return t.runes }

// Push appends one character with the given attribute.
func (t *TfString) Push(r rune, a Attr) {
	if a != Empty && t.attrs == nil {
		t.attrs = make([]Attr, len(t.runes))
	}
	t.runes = append(t.runes, r)
	if t.attrs != nil {
		t.attrs = append(t.attrs, a)
	}
}

// PushString appends text with a uniform attribute.
func (t *TfString) PushString(s string, a Attr) {
	for _, r := range s {
		t.Push(r, a)
	}
}

// AttrAt returns the attribute of the character at index i, merged with
// the line-level attribute.
func (t *TfString) AttrAt(i int) Attr {
	if t.attrs == nil || i < 0 || i >= len(t.attrs) {
		return t.Line
	}
	return t.attrs[i] | t.Line
}

// Slice returns the characters in [start, start+n) with their attributes
// as a new TfString sharing no storage with t.
func (t *TfString) Slice(start, n int) *TfString {
	if start < 0 {
		start = 0
	}
	if start > len(t.runes) {
		start = len(t.runes)
	}
	end := start + n
	if end > len(t.runes) {
		end = len(t.runes)
	}
	out := &TfString{Line: t.Line}
	out.runes = append(out.runes, t.runes[start:end]...)
	if t.attrs != nil {
		out.attrs = append(out.attrs, t.attrs[start:end]...)
	}
	return out
}

// Spans calls fn for each maximal run of characters sharing one attribute,
// in order. Used by renderers to emit one style change per run.
func (t *TfString) Spans(fn func(text string, a Attr)) {
	if len(t.runes) == 0 {
		return
	}
	start := 0
	cur := t.AttrAt(0)
	for i := 1; i < len(t.runes); i++ {
		a := t.AttrAt(i)
		if a != cur {
			fn(string(t.runes[start:i]), cur)
			start = i
			cur = a
		}
	}
	fn(string(t.runes[start:]), cur)
}
