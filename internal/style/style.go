package style

import (
	"image/color"

	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/muesli/gamut"

	"github.com/fogwraith/fugue-mud-client/internal/attr"
)

const (
	ColorLightGrey = lipgloss.Color("245")
	ColorCyan      = lipgloss.Color("63")
	ColorBrightRed = lipgloss.Color("196")
	ColorFuscia    = lipgloss.Color("170")
	ColorDarkGrey  = lipgloss.Color("241")
	ColorGrey2     = lipgloss.Color("235")
)

// Styles
var (
	// SystemLineStyle renders "%" client messages.
	SystemLineStyle = lipgloss.NewStyle().Foreground(ColorLightGrey)

	// ErrorLineStyle renders script and connection errors.
	ErrorLineStyle = lipgloss.NewStyle().
			Foreground(ColorBrightRed).
			Bold(true)

	// PromptStyle renders the server prompt above the input line.
	PromptStyle = lipgloss.NewStyle().Bold(true)

	// StatusBarStyle is the reverse-video status line.
	StatusBarStyle = lipgloss.NewStyle().
			Reverse(true)

	// StatusActivityStyle highlights worlds with unseen activity.
	StatusActivityStyle = lipgloss.NewStyle().
				Foreground(ColorFuscia).
				Reverse(true).
				Bold(true)

	// MoreStyle renders the --More-- pause marker.
	MoreStyle = lipgloss.NewStyle().
			Reverse(true).
			Bold(true)

	// EchoStyle renders locally echoed input on the output window.
	EchoStyle = lipgloss.NewStyle().Foreground(ColorDarkGrey)

	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorFuscia)

	HotkeyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)
)

// Blends is the banner gradient ramp.
var Blends = gamut.Blends(lipgloss.Color("#F25D94"), lipgloss.Color("#EDFF82"), 50)

// ansiPalette maps the 16-color attribute indices to terminal colors.
var ansiPalette = [16]lipgloss.Color{
	"0", "1", "2", "3", "4", "5", "6", "7",
	"8", "9", "10", "11", "12", "13", "14", "15",
}

// ForAttr builds a lipgloss style for a display attribute.
func ForAttr(a attr.Attr) lipgloss.Style {
	st := lipgloss.NewStyle()
	if a.Has(attr.None) {
		return st
	}
	if a.Has(attr.Bold) || a.Has(attr.Hilite) {
		st = st.Bold(true)
	}
	if a.Has(attr.Underline) {
		st = st.Underline(true)
	}
	if a.Has(attr.Reverse) {
		st = st.Reverse(true)
	}
	if a.Has(attr.Italic) {
		st = st.Italic(true)
	}
	if a.Has(attr.Dim) {
		st = st.Faint(true)
	}
	if a.Has(attr.Strike) {
		st = st.Strikethrough(true)
	}
	if fg, ok := a.Fg(); ok {
		st = st.Foreground(ansiPalette[fg&15])
	}
	if bg, ok := a.Bg(); ok {
		st = st.Background(ansiPalette[bg&15])
	}
	return st
}

// Rainbow renders s cycling through colors, one per rune.
func Rainbow(base lipgloss.Style, s string, colors []color.Color) string {
	var str string
	for i, ss := range s {
		c, _ := colorful.MakeColor(colors[i%len(colors)])
		str += base.Foreground(lipgloss.Color(c.Hex())).Render(string(ss))
	}
	return str
}
