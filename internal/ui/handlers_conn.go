package ui

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/fogwraith/fugue-mud-client/internal/attr"
	"github.com/fogwraith/fugue-mud-client/internal/conn"
	"github.com/fogwraith/fugue-mud-client/internal/macro"
	"github.com/fogwraith/fugue-mud-client/internal/screen"
)

func (m *Model) handleConnState(msg tea.Msg) (tea.Model, tea.Cmd) {
	sm := msg.(conn.StateMsg)
	wc, ok := m.conns[strings.ToLower(sm.World)]
	if !ok {
		return m, nil
	}
	prev := wc.state
	wc.state = sm.State

	switch sm.State {
	case conn.StateEstablished:
		m.pushSystemLine(fmt.Sprintf("%% Connected to %s.", sm.World))
		if wc.proxied {
			if w, okw := m.worlds.Get(sm.World); okw {
				m.fireHook(macro.HookProxy, w.Host+" "+w.Port)
			}
		}
		m.fireHook(macro.HookConnect, sm.World)
		m.autologin(sm.World)
		m.sourceWorldFile(sm.World)
		m.drainInterp()

	case conn.StateClosed:
		if sm.Err != nil {
			m.pushErrorLine(fmt.Sprintf("%% Connection to %s closed: %v", sm.World, sm.Err))
			if prev == conn.StateConnecting || prev == conn.StateResolving ||
				prev == conn.StateTLSHandshaking {
				m.fireHook(macro.HookConFail, sm.World+" "+sm.Err.Error())
			}
		} else {
			m.pushSystemLine(fmt.Sprintf("%% Connection to %s closed.", sm.World))
		}
		delete(m.conns, strings.ToLower(sm.World))
		m.fireHook(macro.HookDisconnect, sm.World)
		m.worlds.DropTempsFor(sm.World)
		if strings.EqualFold(m.fgWorld, sm.World) {
			m.prompt = nil
		}
		m.drainInterp()

		if m.quitting && len(m.conns) == 0 {
			return m, tea.Quit
		}
	}
	return m, nil
}

// autologin sends the world's character and password after CONNECT,
// unless disabled for this connection or globally.
func (m *Model) autologin(worldName string) {
	if m.opts.NoAutologin {
		return
	}
	key := "_nologin_" + strings.ToLower(worldName)
	if v, ok := m.interp.GetGlobalVar(key); ok && v.AsBool() {
		m.interp.UnsetGlobalVar(key)
		return
	}
	w, ok := m.worlds.Get(worldName)
	if !ok || w.Character == "" {
		return
	}
	m.fireHook(macro.HookLogin, worldName)
	m.sendToWorld("connect "+w.Character+" "+w.Pass, worldName, false)
}

// sourceWorldFile loads the world's macro file on connect.
func (m *Model) sourceWorldFile(worldName string) {
	w, ok := m.worlds.Get(worldName)
	if !ok || w.Mfile == "" {
		return
	}
	m.loadScriptFile(w.Mfile)
}

// handleConnLine is the inbound pipeline for one complete server line:
// decode, ACTIVITY hook, trigger pass, gag, prompt-vs-display.
func (m *Model) handleConnLine(msg tea.Msg) (tea.Model, tea.Cmd) {
	lm := msg.(conn.LineMsg)
	wc, ok := m.conns[strings.ToLower(lm.World)]
	if !ok {
		return m, nil
	}

	line := attr.Decode(string(lm.Raw))
	text := line.String()

	// The first line since the last keystroke fires ACTIVITY; background
	// worlds additionally bump the status-line counter.
	if !wc.seenLine {
		wc.seenLine = true
		m.fireHook(macro.HookActivity, lm.World)
	}
	if !strings.EqualFold(lm.World, m.fgWorld) {
		wc.activity++
	}

	// Trigger pass: the matching set is snapshotted before any body
	// runs, so bodies that mutate the store cannot affect this pass.
	worldType := ""
	if w, okw := m.worlds.Get(lm.World); okw {
		worldType = w.Type
	}
	matches := m.macros.FindTriggers(text, lm.World, worldType)

	lineAttr := line.Line
	gagged := false
	for _, mac := range matches {
		lineAttr = lineAttr.Merge(mac.Attr)
		if mac.Attr.Has(attr.Gag) {
			gagged = true
		}
		m.invokeMacro(mac, strings.Fields(text), triggerCaptures(mac, text))
	}
	m.drainInterp()

	// Global %gag suppresses everything.
	if v, ok := m.interp.GetGlobalVar("gag"); ok && v.AsBool() {
		gagged = true
	}

	if lm.Prompt {
		p := line
		p.Line = lineAttr | attr.ServPrompt
		m.prompt = p
		m.fireHook(macro.HookPrompt, text)
		m.drainInterp()
		return m, nil
	}

	if lineAttr.Has(attr.Bell) {
		m.ringBell()
	}
	if !gagged {
		out := screen.LogicalLine{Content: line, Attr: lineAttr &^ attr.Gag}
		m.pushLine(out)
	}
	return m, nil
}

// triggerCaptures builds the P0..Pn / PL / PR locals for a trigger body.
func triggerCaptures(mac *macro.Macro, text string) map[string]string {
	if mac.Trig == nil {
		return nil
	}
	idx := mac.Trig.FindSubmatch(text)
	if idx == nil {
		return nil
	}
	caps := map[string]string{
		"P0": text[idx[0]:idx[1]],
		"PL": text[:idx[0]],
		"PR": text[idx[1]:],
	}
	for g := 1; g*2+1 < len(idx); g++ {
		name := "P" + strconv.Itoa(g)
		if idx[g*2] < 0 {
			caps[name] = ""
		} else {
			caps[name] = text[idx[g*2]:idx[g*2+1]]
		}
	}
	return caps
}

func (m *Model) handleConnOOB(msg tea.Msg) (tea.Model, tea.Cmd) {
	om := msg.(conn.OOBMsg)
	hook := macro.HookGmcp
	if om.Kind == "ATCP" {
		hook = macro.HookAtcp
	}
	m.fireHook(hook, string(om.Payload))
	m.drainInterp()
	return m, nil
}

func (m *Model) handleConnEcho(msg tea.Msg) (tea.Model, tea.Cmd) {
	em := msg.(conn.EchoMsg)
	if wc, ok := m.conns[strings.ToLower(em.World)]; ok {
		wc.echoOff = em.Off
	}
	if strings.EqualFold(em.World, m.fgWorld) {
		m.echoOff = em.Off
	}
	return m, nil
}

// pushLine appends a displayable line, writes the session log, and rings
// the bell when the line asks for it.
func (m *Model) pushLine(line screen.LogicalLine) {
	if line.Content == nil {
		line.Content = attr.NewTfString()
	}
	m.out.Push(line)
	if m.logFile != nil && !line.Attr.Has(attr.NoLog) {
		fmt.Fprintln(m.logFile, line.Content.String())
	}
}

func (m *Model) pushSystemLine(text string) {
	for _, part := range strings.Split(text, "\n") {
		m.pushLine(screen.LogicalLine{Content: attr.Plain(part)})
	}
}

func (m *Model) pushErrorLine(text string) {
	line := attr.NewTfString()
	line.PushString(text, attr.Bold.WithFg(attr.Red))
	m.pushLine(screen.LogicalLine{Content: line})
}

func (m *Model) ringBell() {
	// BEL through the renderer; bubbletea passes raw output through.
	fmt.Print("\a")
}
