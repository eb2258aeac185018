package ui

import (
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/fogwraith/fugue-mud-client/internal/style"
)

// LogsScreen shows the captured debug log in a scrollable viewport.
type LogsScreen struct {
	buffer   *DebugBuffer
	viewport viewport.Model
}

// NewLogsScreen builds the log viewer over the shared debug buffer.
func NewLogsScreen(db *DebugBuffer, width, height int) *LogsScreen {
	vp := viewport.New(width, height-2)
	vp.SetContent(db.String())
	vp.GotoBottom()
	return &LogsScreen{buffer: db, viewport: vp}
}

func (s *LogsScreen) SetSize(w, h int) {
	s.viewport.Width = w
	s.viewport.Height = h - 2
	s.viewport.SetContent(s.buffer.String())
}

func (s *LogsScreen) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	s.viewport, cmd = s.viewport.Update(msg)
	return cmd
}

func (s *LogsScreen) View() string {
	return style.TitleStyle.Render("Logs") + "\n" + s.viewport.View()
}
