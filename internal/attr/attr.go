// Package attr implements text display attributes: a packed bitset of
// style flags and 16-color foreground/background indices, and TfString,
// a string carrying a display attribute per character.
package attr

import "strings"

// Attr packs style flags and optional fg/bg color indices into a uint32.
type Attr uint32

// Style flags (low bits).
const (
	Underline Attr = 0x0001
	Reverse   Attr = 0x0002
	Bold      Attr = 0x0004
	Italic    Attr = 0x0008
	Dim       Attr = 0x0010
	Strike    Attr = 0x0020
	Hilite    Attr = 0x0040

	// None explicitly marks "no formatting". It is distinct from the zero
	// value Empty: Empty means "unset, inherit", None means "explicitly
	// reset". Only values built with None satisfy Has(None).
	None Attr = 0x0080
)

// Color encoding: a presence flag plus a 4-bit index (16-color palette).
const (
	fgFlag  Attr = 0x0000_0100
	fgMask  Attr = 0x0000_1E00
	fgShift      = 9
	bgFlag  Attr = 0x0000_2000
	bgMask  Attr = 0x0003_C000
	bgShift      = 14
)

// Non-display flags (high bits).
const (
	NoActivity Attr = 0x0100_0000
	NoLog      Attr = 0x0200_0000
	Bell       Attr = 0x0400_0000
	Gag        Attr = 0x0800_0000
	NoHistory  Attr = 0x1000_0000
	TFPrompt   Attr = 0x2000_0000
	ServPrompt Attr = 0x4000_0000
)

// Empty is the zero attribute: nothing set, inherit surrounding attributes.
const Empty Attr = 0

// All is the OR of every named flag variant. The color index bits are not
// part of All; they only have meaning together with their presence flag.
const All = Underline | Reverse | Bold | Italic | Dim | Strike | Hilite |
	None | NoActivity | NoLog | Bell | Gag | NoHistory | TFPrompt | ServPrompt

// Standard 16-color palette indices.
const (
	Black = iota
	Red
	Green
	Yellow
	Blue
	Magenta
	Cyan
	White
	Gray
	BrightRed
	BrightGreen
	BrightYellow
	BrightBlue
	BrightMagenta
	BrightCyan
	BrightWhite
)

var colorNames = []string{
	"black", "red", "green", "yellow", "blue", "magenta", "cyan", "white",
	"gray", "brightred", "brightgreen", "brightyellow", "brightblue",
	"brightmagenta", "brightcyan", "brightwhite",
}

// ColorByName returns the palette index for a color name, or -1.
func ColorByName(name string) int {
	name = strings.ToLower(name)
	for i, n := range colorNames {
		if n == name {
			return i
		}
	}
	return -1
}

// ColorName returns the canonical name for a palette index.
func ColorName(idx int) string {
	if idx < 0 || idx >= len(colorNames) {
		return ""
	}
	return colorNames[idx]
}

// IsEmpty reports whether no bits are set.
func (a Attr) IsEmpty() bool { return a == Empty }

// Has reports whether all bits of other are set in a.
func (a Attr) Has(other Attr) bool { return a&other == other }

// Merge returns the union of a and other.
func (a Attr) Merge(other Attr) Attr { return a | other }

// Fg returns the foreground color index, if one is set.
func (a Attr) Fg() (int, bool) {
	if a&fgFlag == 0 {
		return 0, false
	}
	return int((a & fgMask) >> fgShift), true
}

// Bg returns the background color index, if one is set.
func (a Attr) Bg() (int, bool) {
	if a&bgFlag == 0 {
		return 0, false
	}
	return int((a & bgMask) >> bgShift), true
}

// WithFg returns a copy of a with the foreground color set.
func (a Attr) WithFg(color int) Attr {
	return (a &^ (fgFlag | fgMask)) | fgFlag | Attr(color)<<fgShift&fgMask
}

// WithBg returns a copy of a with the background color set.
func (a Attr) WithBg(color int) Attr {
	return (a &^ (bgFlag | bgMask)) | bgFlag | Attr(color)<<bgShift&bgMask
}

// WithoutFg returns a copy of a with the foreground color cleared.
func (a Attr) WithoutFg() Attr { return a &^ (fgFlag | fgMask) }

// WithoutBg returns a copy of a with the background color cleared.
func (a Attr) WithoutBg() Attr { return a &^ (bgFlag | bgMask) }

// FlagString serializes the display flags to the letter form used by
// /def -a (e.g. "bug" for bold+underline+gag). The foreground color is
// appended as C<name>; a background color is not written.
func (a Attr) FlagString() string {
	var sb strings.Builder
	if a.Has(None) {
		sb.WriteByte('n')
	}
	if a.Has(Bold) {
		sb.WriteByte('b')
	}
	if a.Has(Underline) {
		sb.WriteByte('u')
	}
	if a.Has(Reverse) {
		sb.WriteByte('r')
	}
	if a.Has(Italic) {
		sb.WriteByte('i')
	}
	if a.Has(Dim) {
		sb.WriteByte('d')
	}
	if a.Has(Strike) {
		sb.WriteByte('s')
	}
	if a.Has(Hilite) {
		sb.WriteByte('h')
	}
	if a.Has(Gag) {
		sb.WriteByte('g')
	}
	if a.Has(Bell) {
		sb.WriteByte('B')
	}
	if fg, ok := a.Fg(); ok {
		sb.WriteByte('C')
		sb.WriteString(ColorName(fg))
	}
	return sb.String()
}

// ParseFlags parses the letter form accepted by /def -a. Unknown letters
// are reported so the caller can emit a diagnostic.
func ParseFlags(s string) (Attr, error) {
	var a Attr
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case 'n':
			a |= None
		case 'b':
			a |= Bold
		case 'u':
			a |= Underline
		case 'r':
			a |= Reverse
		case 'i':
			a |= Italic
		case 'd':
			a |= Dim
		case 's':
			a |= Strike
		case 'h':
			a |= Hilite
		case 'g':
			a |= Gag
		case 'B':
			a |= Bell
		case 'C':
			name := s[i+1:]
			bg := false
			if strings.HasPrefix(name, "bg") {
				bg = true
				name = name[2:]
			}
			idx := ColorByName(name)
			if idx < 0 {
				return a, &BadFlagError{Flag: s[i:]}
			}
			if bg {
				a = a.WithBg(idx)
			} else {
				a = a.WithFg(idx)
			}
			return a, nil
		default:
			return a, &BadFlagError{Flag: s[i : i+1]}
		}
	}
	return a, nil
}

// BadFlagError reports an unrecognized attribute flag letter.
type BadFlagError struct {
	Flag string
}

func (e *BadFlagError) Error() string {
	return "invalid display attribute " + e.Flag
}
