// Package screen implements the output model: a bounded ring of logical
// lines (one per server line, with display attributes), the physical
// lines produced by wrapping them to the terminal width, and the
// scrollback view over them.
package screen

import (
	"github.com/mattn/go-runewidth"

	"github.com/fogwraith/fugue-mud-client/internal/attr"
)

// LogicalLine is one paragraph of output: the text with per-character
// attributes plus whole-line flags (gag, prompt markers, bell).
type LogicalLine struct {
	Content *attr.TfString
	Attr    attr.Attr
}

// PlainLine builds a logical line from unattributed text.
func PlainLine(text string) LogicalLine {
	return LogicalLine{Content: attr.Plain(text)}
}

// PhysLine is one terminal row: a slice of a logical line.
type PhysLine struct {
	// LogicalIdx indexes Screen's line ring.
	LogicalIdx int
	// Start is the rune offset within the logical line.
	Start int
	// Len is the rune count of this row.
	Len int
}

// Screen holds the scrollback buffer and view state for the output
// window.
//
// The view is "anchored": when new lines arrive while the user is
// scrolled back, the scrollback offset grows by the number of physical
// lines added so the visible region stays pinned to the same logical
// lines.
type Screen struct {
	// WrapWidth is the column count used for wrapping.
	WrapWidth int
	// ViewHeight is the number of physical rows displayed at once.
	ViewHeight int
	// MaxLines bounds the logical-line ring; the oldest lines are
	// trimmed past it.
	MaxLines int
	// MoreThreshold pauses output every N pushed lines; 0 disables
	// pagination.
	MoreThreshold int

	lines     []LogicalLine
	physlines []PhysLine

	scrollback int // physical lines scrolled above the bottom
	outcount   int
	paused     bool
}

// New returns a screen for the given terminal dimensions.
func New(wrapWidth, viewHeight int) *Screen {
	if wrapWidth < 1 {
		wrapWidth = 1
	}
	return &Screen{
		WrapWidth:  wrapWidth,
		ViewHeight: viewHeight,
		MaxLines:   1000,
	}
}

// Push appends a logical line, wrapping it into physical lines.
// Returns true when the More threshold was reached and output should
// pause.
func (s *Screen) Push(line LogicalLine) bool {
	idx := len(s.lines)
	added := s.appendPhys(idx, line)
	s.lines = append(s.lines, line)

	if s.scrollback > 0 {
		s.scrollback += added
	}

	preTrim := len(s.physlines)
	s.trimToMax()
	trimmed := preTrim - len(s.physlines)
	if trimmed > s.scrollback {
		s.scrollback = 0
	} else {
		s.scrollback -= trimmed
	}

	if s.MoreThreshold > 0 && !s.paused {
		s.outcount++
		if s.outcount >= s.MoreThreshold {
			s.paused = true
			s.outcount = 0
			return true
		}
	}
	return false
}

// appendPhys wraps one logical line into physlines. Wrapping counts
// display cells so double-width runes do not overflow the row.
func (s *Screen) appendPhys(idx int, line LogicalLine) int {
	runes := line.Content.Runes()
	if len(runes) == 0 {
		s.physlines = append(s.physlines, PhysLine{LogicalIdx: idx})
		return 1
	}
	added := 0
	start := 0
	for start < len(runes) {
		cols := 0
		end := start
		for end < len(runes) {
			w := runewidth.RuneWidth(runes[end])
			if cols+w > s.WrapWidth && end > start {
				break
			}
			cols += w
			end++
		}
		s.physlines = append(s.physlines, PhysLine{
			LogicalIdx: idx,
			Start:      start,
			Len:        end - start,
		})
		added++
		start = end
	}
	return added
}

// Paused reports whether output is paused at a More prompt.
func (s *Screen) Paused() bool { return s.paused }

// Unpause dismisses the More prompt.
func (s *Screen) Unpause() {
	s.paused = false
	s.outcount = 0
}

// ScrollUp moves the view toward older output by n physical lines;
// returns the distance actually moved.
func (s *Screen) ScrollUp(n int) int {
	maxScroll := len(s.physlines) - s.ViewHeight
	if maxScroll < 0 {
		maxScroll = 0
	}
	delta := min(n, maxScroll-s.scrollback)
	if delta < 0 {
		delta = 0
	}
	s.scrollback += delta
	return delta
}

// ScrollDown moves the view toward newer output; returns the distance
// moved.
func (s *Screen) ScrollDown(n int) int {
	delta := min(n, s.scrollback)
	s.scrollback -= delta
	return delta
}

// ScrollToBottom jumps to the most recent output.
func (s *Screen) ScrollToBottom() { s.scrollback = 0 }

// ScrollToTop jumps to the oldest retained output.
func (s *Screen) ScrollToTop() {
	maxScroll := len(s.physlines) - s.ViewHeight
	if maxScroll < 0 {
		maxScroll = 0
	}
	s.scrollback = maxScroll
}

// Scrollback returns the current scroll offset in physical lines.
func (s *Screen) Scrollback() int { return s.scrollback }

// LineCount returns the number of retained logical lines.
func (s *Screen) LineCount() int { return len(s.lines) }

// PhysCount returns the number of physical lines.
func (s *Screen) PhysCount() int { return len(s.physlines) }

// Line returns the logical line at index i.
func (s *Screen) Line(i int) LogicalLine { return s.lines[i] }

// VisibleRow pairs a physical row with its source logical line.
type VisibleRow struct {
	Line LogicalLine
	Phys PhysLine
}

// Visible returns the rows currently in view, oldest first. Fewer than
// ViewHeight rows are returned while the buffer is short.
func (s *Screen) Visible() []VisibleRow {
	total := len(s.physlines)
	bot := total - s.scrollback
	top := bot - s.ViewHeight
	if top < 0 {
		top = 0
	}
	rows := make([]VisibleRow, 0, bot-top)
	for _, pl := range s.physlines[top:bot] {
		rows = append(rows, VisibleRow{Line: s.lines[pl.LogicalIdx], Phys: pl})
	}
	return rows
}

// Resize adapts to a new terminal size, re-wrapping every line. The view
// stays clamped to the buffer; the scrollback offset is preserved as
// closely as the new wrapping allows.
func (s *Screen) Resize(wrapWidth, viewHeight int) {
	if wrapWidth < 1 {
		wrapWidth = 1
	}
	// Remember which logical line anchors the top of the view so resize
	// keeps it visible.
	anchorLogical := -1
	if s.scrollback > 0 {
		rows := s.Visible()
		if len(rows) > 0 {
			anchorLogical = rows[0].Phys.LogicalIdx
		}
	}

	s.WrapWidth = wrapWidth
	s.ViewHeight = viewHeight
	s.physlines = s.physlines[:0]
	for idx, line := range s.lines {
		s.appendPhys(idx, line)
	}

	if anchorLogical >= 0 {
		// Scroll so the anchored logical line is the top visible row.
		firstPhys := 0
		for i, pl := range s.physlines {
			if pl.LogicalIdx == anchorLogical {
				firstPhys = i
				break
			}
		}
		s.scrollback = len(s.physlines) - firstPhys - s.ViewHeight
		if s.scrollback < 0 {
			s.scrollback = 0
		}
	} else {
		s.scrollback = 0
	}
}

// trimToMax drops the oldest logical lines past MaxLines. Cost is one
// linear pass over physlines regardless of how many lines are dropped:
// find the split point, cut, and re-index the survivors.
func (s *Screen) trimToMax() {
	drop := len(s.lines) - s.MaxLines
	if drop <= 0 {
		return
	}
	s.lines = s.lines[drop:]
	split := 0
	for split < len(s.physlines) && s.physlines[split].LogicalIdx < drop {
		split++
	}
	s.physlines = s.physlines[split:]
	for i := range s.physlines {
		s.physlines[i].LogicalIdx -= drop
	}
}
