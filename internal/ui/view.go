package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/muesli/reflow/ansi"
	"github.com/muesli/reflow/truncate"

	"github.com/fogwraith/fugue-mud-client/internal/attr"
	"github.com/fogwraith/fugue-mud-client/internal/conn"
	"github.com/fogwraith/fugue-mud-client/internal/style"
)

// sessionView renders the main screen: output window, status line,
// prompt, and input line.
func (m *Model) sessionView() string {
	var sb strings.Builder

	rows := m.out.Visible()
	filler := m.outputHeight() - len(rows)
	for i := 0; i < filler; i++ {
		sb.WriteByte('\n')
	}
	for _, row := range rows {
		sb.WriteString(renderRow(row.Line.Content, row.Phys.Start, row.Phys.Len, row.Line.Attr))
		sb.WriteByte('\n')
	}

	sb.WriteString(m.statusLine())
	sb.WriteByte('\n')
	sb.WriteString(m.promptAndInput())
	return sb.String()
}

// renderRow renders one physical row, emitting one style change per
// attribute run.
func renderRow(content *attr.TfString, start, n int, lineAttr attr.Attr) string {
	slice := content.Slice(start, n)
	slice.Line = slice.Line | lineAttr
	var sb strings.Builder
	slice.Spans(func(text string, a attr.Attr) {
		if a.IsEmpty() {
			sb.WriteString(text)
			return
		}
		sb.WriteString(style.ForAttr(a).Render(text))
	})
	return sb.String()
}

// statusLine builds the reverse-video status bar: world name, connection
// state, background activity, More marker, clock.
func (m *Model) statusLine() string {
	worldPart := "(no world)"
	if m.fgWorld != "" {
		state := "closed"
		if wc, ok := m.conns[strings.ToLower(m.fgWorld)]; ok {
			state = wc.state.String()
		}
		worldPart = fmt.Sprintf(" %s [%s]", m.fgWorld, state)
	}

	var actNames []string
	for _, w := range m.worlds.All() {
		if wc, ok := m.conns[strings.ToLower(w.Name)]; ok && wc.activity > 0 {
			actNames = append(actNames, fmt.Sprintf("%s:%d", w.Name, wc.activity))
		}
	}
	activityPart := ""
	if len(actNames) > 0 {
		activityPart = " (Active: " + strings.Join(actNames, " ") + ")"
	}

	morePart := ""
	if m.out.Paused() {
		morePart = " --More--"
	} else if m.out.Scrollback() > 0 {
		morePart = fmt.Sprintf(" [scrolled %d]", m.out.Scrollback())
	}

	clock := time.Now().Format("15:04")

	left := style.StatusBarStyle.Render(worldPart)
	if activityPart != "" {
		left += style.StatusActivityStyle.Render(activityPart)
	}
	if morePart != "" {
		left += style.MoreStyle.Render(morePart)
	}
	right := style.StatusBarStyle.Render(clock + " ")

	gap := m.width - ansi.PrintableRuneWidth(left) - ansi.PrintableRuneWidth(right)
	if gap < 0 {
		return truncate.String(left, uint(m.width))
	}
	return left + style.StatusBarStyle.Render(strings.Repeat(" ", gap)) + right
}

// promptAndInput renders the server prompt and the editor line with the
// cursor.
func (m *Model) promptAndInput() string {
	var sb strings.Builder
	if m.prompt != nil {
		m.prompt.Spans(func(text string, a attr.Attr) {
			sb.WriteString(style.ForAttr(a &^ attr.ServPrompt).Render(text))
		})
		sb.WriteByte(' ')
	}

	text := m.editor.Text()
	if m.echoOff {
		text = strings.Repeat("*", len([]rune(text)))
	}
	pos := m.editor.Pos
	runes := []rune(text)
	if pos > len(runes) {
		pos = len(runes)
	}
	sb.WriteString(string(runes[:pos]))
	if pos < len(runes) {
		sb.WriteString(style.StatusBarStyle.Render(string(runes[pos])))
		sb.WriteString(string(runes[pos+1:]))
	} else {
		sb.WriteString(style.StatusBarStyle.Render(" "))
	}
	return truncate.String(sb.String(), uint(m.width))
}

// stateLabel is used by the worlds screen.
func (m *Model) stateLabel(name string) string {
	if wc, ok := m.conns[strings.ToLower(name)]; ok {
		return wc.state.String()
	}
	return conn.StateClosed.String()
}
