package ui

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/fogwraith/fugue-mud-client/internal/attr"
	"github.com/fogwraith/fugue-mud-client/internal/config"
	"github.com/fogwraith/fugue-mud-client/internal/input"
	"github.com/fogwraith/fugue-mud-client/internal/macro"
	"github.com/fogwraith/fugue-mud-client/internal/pattern"
	"github.com/fogwraith/fugue-mud-client/internal/proc"
	"github.com/fogwraith/fugue-mud-client/internal/script"
)

// dispatchAction executes one deferred action. Actions run serially, in
// queue order; anything they print or queue joins the current drain pass.
func (m *Model) dispatchAction(a script.Action) {
	switch act := a.(type) {
	case script.SendToWorld:
		m.sendToWorld(act.Text, act.World, act.NoNewline)

	case script.ConnectWorld:
		m.actConnect(act)

	case script.DisconnectWorld:
		name := act.World
		if name == "" {
			name = m.fgWorld
		}
		if wc, ok := m.conns[strings.ToLower(name)]; ok {
			wc.conn.Close()
		} else {
			m.pushErrorLine(fmt.Sprintf("%% Not connected to %s.", name))
		}

	case script.SwitchWorld:
		if _, ok := m.conns[strings.ToLower(act.Name)]; !ok {
			m.pushErrorLine(fmt.Sprintf("%% Not connected to %s.", act.Name))
			return
		}
		m.switchWorld(act.Name)

	case script.DefMacro:
		if act.Macro.Name != "" {
			if _, exists := m.macros.GetByName(act.Macro.Name); exists {
				m.fireHook(macro.HookRedef, act.Macro.Name)
			}
		}
		num := m.macros.Add(act.Macro)
		if !act.Macro.Quiet && !m.interp.FileLoadMode {
			m.pushSystemLine(fmt.Sprintf("%% Macro #%d defined.", num))
		}

	case script.UndefMacro:
		if !m.macros.RemoveByName(act.Name) {
			m.pushErrorLine(fmt.Sprintf("%% No macro named %s", act.Name))
		}

	case script.UndefMacroNum:
		for _, num := range act.Nums {
			if !m.macros.Remove(num) {
				m.pushErrorLine(fmt.Sprintf("%% No macro #%d", num))
			}
		}

	case script.PurgeMacros:
		n := m.actPurge(act.Pattern)
		m.pushSystemLine(fmt.Sprintf("%% %d macros deleted.", n))

	case script.FireHook:
		m.fireHook(act.Hook, act.Args)

	case script.SetInput:
		m.editor.SetText(act.Text)
		m.syncInputGlobals()

	case script.DoKey:
		op, ok := input.KeyOpByName(act.Op)
		if !ok {
			m.pushErrorLine(fmt.Sprintf("%% /dokey: unknown operation %q", act.Op))
			return
		}
		m.applyKeyOp(op)

	case script.SetPrompt:
		m.prompt = attr.ParseMarkup(act.Text)

	case script.RingBell:
		m.ringBell()

	case script.Scroll:
		if act.Lines < 0 {
			m.out.ScrollUp(-act.Lines)
		} else {
			m.out.ScrollDown(act.Lines)
		}

	case script.EditInput:
		// Leaves the Update loop as an ExecProcess command; the editor
		// gets the terminal and the result returns as editorDoneMsg.
		m.pendingEdit = true

	case script.AddWorld:
		m.worlds.Upsert(act.World)
		if !m.interp.FileLoadMode {
			m.pushSystemLine(fmt.Sprintf("%% World %s defined.", act.World.Name))
		}

	case script.RemoveWorld:
		if !m.worlds.Remove(act.Name) {
			m.pushErrorLine(fmt.Sprintf("%% No world named %s", act.Name))
		}

	case script.ListWorlds:
		m.actListWorlds()

	case script.RecallHistory:
		start := m.history.Len() - act.Count
		if start < 0 {
			start = 0
		}
		for i := start; i < m.history.Len(); i++ {
			m.pushSystemLine("% " + m.history.Entry(i))
		}

	case script.RecordHistory:
		m.history.Record(act.Text)

	case script.SaveWorlds:
		path := act.Path
		if path == "" {
			path = config.WorldsFile()
		}
		if err := m.worlds.SaveScript(path); err != nil {
			m.pushErrorLine("% saveworld: " + err.Error())
		} else {
			m.pushSystemLine("% Worlds saved to " + path)
		}

	case script.SaveSession:
		m.actSaveSession(act.Path)

	case script.LoadFile:
		path, err := config.ResolveScript(act.Path, config.LibDir(m.opts.LibDir))
		if err != nil {
			m.pushErrorLine("% load: " + err.Error())
			m.fireHook(macro.HookLoadFail, act.Path)
			return
		}
		m.loadScriptFile(path)

	case script.LogFile:
		m.actLog(act)

	case script.StartRepeat:
		p := m.procs.AddRepeat(act.Count, act.Interval, act.Body, act.World, time.Now())
		m.pushSystemLine(fmt.Sprintf("%% Process %d started.", p.PID))
		m.fireHook(macro.HookProcess, fmt.Sprintf("%d", p.PID))

	case script.StartQuote:
		m.actQuote(act)

	case script.KillProc:
		if m.procs.Remove(act.PID) {
			m.fireHook(macro.HookKill, fmt.Sprintf("%d", act.PID))
		} else {
			m.pushErrorLine(fmt.Sprintf("%% No process %d", act.PID))
		}

	case script.ListProcs:
		for _, p := range m.procs.All() {
			kind := "repeat"
			detail := p.Body
			if p.Kind == proc.KindQuote {
				kind = "quote"
				detail = fmt.Sprintf("%d lines pending", len(p.Lines))
			}
			m.pushSystemLine(fmt.Sprintf("%% %d\t%s\t%s\t%s", p.PID, kind, p.Interval, detail))
		}

	case script.ShellCmd:
		m.pendingShell = act.Cmd

	case script.SetEnvVar:
		// The model is single-threaded; no other goroutine reads the
		// environment while this runs.
		if err := os.Setenv(act.Key, act.Val); err != nil {
			m.pushErrorLine("% setenv: " + err.Error())
		}

	case script.Quit:
		m.pendingQuit = true
	}
}

func (m *Model) actConnect(act script.ConnectWorld) {
	switch {
	case act.Host != "":
		w := m.worlds.AddTemp(act.Host, act.Port)
		m.connectWorld(w, act.Background, act.NoLogin, act.Quiet)
	case act.Name != "":
		w, ok := m.worlds.Get(act.Name)
		if !ok {
			m.pushErrorLine(fmt.Sprintf("%% No world named %q", act.Name))
			m.fireHook(macro.HookIConFail, act.Name)
			return
		}
		m.connectWorld(w, act.Background, act.NoLogin, act.Quiet)
	case m.fgWorld != "":
		if w, ok := m.worlds.Get(m.fgWorld); ok {
			m.connectWorld(w, false, act.NoLogin, act.Quiet)
		}
	default:
		m.pushErrorLine("% connect: no world")
	}
}

func (m *Model) actPurge(pat string) int {
	if pat == "" {
		return m.macros.Purge(func(mac *macro.Macro) bool { return mac.Name == "" })
	}
	glob, err := pattern.Compile(pattern.Glob, pat)
	if err != nil {
		m.pushErrorLine("% purge: " + err.Error())
		return 0
	}
	return m.macros.Purge(func(mac *macro.Macro) bool {
		return mac.Name != "" && glob.Matches(mac.Name)
	})
}

func (m *Model) actListWorlds() {
	worlds := m.worlds.All()
	if len(worlds) == 0 {
		m.pushSystemLine("% No worlds defined.")
		return
	}
	for _, w := range worlds {
		mark := " "
		if strings.EqualFold(w.Name, m.fgWorld) {
			mark = "*"
		}
		state := "-"
		if wc, ok := m.conns[strings.ToLower(w.Name)]; ok {
			state = wc.state.String()
		}
		m.pushSystemLine(fmt.Sprintf("%%%s %-16s %-28s %s", mark, w.Name, w.Address(), state))
	}
}

// actSaveSession regenerates an executable config file from the live
// session: worlds, macros, and global variables.
func (m *Model) actSaveSession(path string) {
	if path == "" {
		m.pushErrorLine("% save: missing file name")
		return
	}
	var sb strings.Builder
	for _, w := range m.worlds.All() {
		if w.Temp {
			continue
		}
		sb.WriteString(w.ToAddworld())
		sb.WriteByte('\n')
	}
	for _, mac := range m.macros.All() {
		sb.WriteString(mac.ToDefCommand())
		sb.WriteByte('\n')
	}
	globals := m.interp.Globals()
	names := make([]string, 0, len(globals))
	for name := range globals {
		if strings.HasPrefix(name, "kb") || strings.HasPrefix(name, "_") {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(&sb, "/set %s=%s\n", name, globals[name].String())
	}
	if err := os.WriteFile(path, []byte(sb.String()), 0o600); err != nil {
		m.pushErrorLine("% save: " + err.Error())
		return
	}
	m.pushSystemLine("% Session saved to " + path)
}

func (m *Model) actLog(act script.LogFile) {
	if act.Off {
		if m.logFile != nil {
			m.pushSystemLine("% Logging off.")
			_ = m.logFile.Close()
			m.logFile = nil
		}
		return
	}
	path := act.Path
	if path == "" {
		path = "fugue.log"
	}
	fh, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		m.pushErrorLine("% log: " + err.Error())
		return
	}
	if m.logFile != nil {
		_ = m.logFile.Close()
	}
	m.logFile = fh
	m.pushSystemLine("% Logging to " + path)
	m.fireHook(macro.HookLog, path)
}

func (m *Model) actQuote(act script.StartQuote) {
	var lines []string
	if act.Shell {
		m.pushErrorLine("% quote: shell sources run via /sh and a file")
		return
	}
	data, err := os.ReadFile(act.Source)
	if err != nil {
		m.pushErrorLine("% quote: " + err.Error())
		return
	}
	for _, line := range strings.Split(strings.TrimRight(string(data), "\n"), "\n") {
		lines = append(lines, line)
	}
	p := m.procs.AddQuote(lines, act.Interval, act.Prefix, act.World, time.Now())
	m.pushSystemLine(fmt.Sprintf("%% Process %d started.", p.PID))
	m.fireHook(macro.HookProcess, fmt.Sprintf("%d", p.PID))
}
