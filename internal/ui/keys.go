package ui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/fogwraith/fugue-mud-client/internal/input"
)

// handleKey routes one keystroke: sub-screen navigation, macro key
// bindings, the default keymap, then plain character insertion.
func (m *Model) handleKey(k tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := k.String()

	// Global bindings work on every screen.
	switch key {
	case "ctrl+q":
		return m.beginShutdown()
	case "ctrl+l":
		if m.currentScreen == ScreenLogs {
			m.currentScreen = ScreenSession
		} else {
			m.logsScreen = NewLogsScreen(m.debugBuffer, m.width, m.height)
			m.currentScreen = ScreenLogs
		}
		return m, nil
	case "ctrl+g":
		if m.currentScreen == ScreenWorlds {
			m.currentScreen = ScreenSession
		} else {
			m.worldsScreen = NewWorldsScreen(m, m.width, m.height)
			m.currentScreen = ScreenWorlds
		}
		return m, nil
	}

	if m.currentScreen != ScreenSession {
		if key == "esc" {
			m.currentScreen = ScreenSession
			return m, nil
		}
		switch m.currentScreen {
		case ScreenWorlds:
			if m.worldsScreen != nil {
				return m, m.worldsScreen.Update(k)
			}
		case ScreenLogs:
			if m.logsScreen != nil {
				return m, m.logsScreen.Update(k)
			}
		}
		return m, nil
	}

	// A keystroke re-arms the ACTIVITY hook on every connection.
	for _, wc := range m.conns {
		wc.seenLine = false
	}

	// The More pause swallows the unpause key.
	if m.out.Paused() && (key == "tab" || key == " ") {
		m.out.Unpause()
		return m, nil
	}

	// User key-binding macros shadow the built-in keymap.
	if mac, ok := m.macros.FindBinding(key); ok {
		m.invokeMacro(mac, nil, nil)
		m.drainInterp()
		m.syncInputGlobals()
		return m, nil
	}

	if op, ok := m.keymap[key]; ok {
		m.applyKeyOp(op)
		m.syncInputGlobals()
		return m, nil
	}

	switch k.Type {
	case tea.KeyRunes:
		for _, r := range k.Runes {
			m.editor.InsertRune(r)
		}
	case tea.KeySpace:
		m.editor.InsertRune(' ')
	}
	m.syncInputGlobals()
	return m, nil
}

// applyKeyOp performs one named editor/screen operation.
func (m *Model) applyKeyOp(op input.KeyOp) {
	switch op {
	case input.OpBspc:
		m.editor.DeleteBefore()
	case input.OpDch:
		m.editor.DeleteAt()
	case input.OpDline:
		m.editor.KillLine()
	case input.OpDeol:
		m.editor.KillToEnd()
	case input.OpDsol:
		m.editor.KillToStart()
	case input.OpDwordLeft:
		m.editor.KillWordBack()
	case input.OpDwordRight:
		m.editor.KillWordForward()
	case input.OpLeft:
		m.editor.MoveLeft()
	case input.OpRight:
		m.editor.MoveRight()
	case input.OpHome:
		m.editor.MoveHome()
	case input.OpEnd:
		m.editor.MoveEnd()
	case input.OpWordLeft:
		m.editor.MoveWordLeft()
	case input.OpWordRight:
		m.editor.MoveWordRight()
	case input.OpYank:
		m.editor.Yank()

	case input.OpRecallBack:
		if line, ok := m.history.Prev(m.editor.Text()); ok {
			m.editor.SetText(line)
		}
	case input.OpRecallForward:
		if line, ok := m.history.Next(); ok {
			m.editor.SetText(line)
		}
	case input.OpSearchBack:
		if line, ok := m.history.SearchBack(m.editor.Text(), m.editor.Text()); ok {
			m.editor.SetText(line)
		}

	case input.OpPage:
		m.out.ScrollDown(m.out.ViewHeight)
	case input.OpPageBack:
		m.out.ScrollUp(m.out.ViewHeight)
	case input.OpLine:
		m.out.ScrollDown(1)
	case input.OpLineBack:
		m.out.ScrollUp(1)
	case input.OpFlush:
		m.out.Unpause()
		m.out.ScrollToBottom()
	case input.OpRefresh:
		// The renderer redraws every frame; nothing stale to flush.

	case input.OpNewline:
		m.submitInput()
	}
}

// submitInput sends the typed line through the outbound pipeline.
func (m *Model) submitInput() {
	line := m.editor.TakeLine()
	m.history.ResetRecall()
	if line != "" && !m.echoOff {
		m.history.Record(line)
	}
	// Sending re-arms the ACTIVITY hooks and jumps to live output.
	m.out.ScrollToBottom()
	if strings.TrimSpace(line) == "" && m.fgWorld != "" {
		// A bare Enter still sends a newline to the world.
		m.sendToWorld("", "", false)
		m.syncInputGlobals()
		return
	}
	m.runInput(line)
	m.syncInputGlobals()
}
