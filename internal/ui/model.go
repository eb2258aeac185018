package ui

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/exec"
	"os/signal"
	"reflect"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/fogwraith/fugue-mud-client/internal/attr"
	"github.com/fogwraith/fugue-mud-client/internal/config"
	"github.com/fogwraith/fugue-mud-client/internal/conn"
	"github.com/fogwraith/fugue-mud-client/internal/input"
	"github.com/fogwraith/fugue-mud-client/internal/macro"
	"github.com/fogwraith/fugue-mud-client/internal/proc"
	"github.com/fogwraith/fugue-mud-client/internal/screen"
	"github.com/fogwraith/fugue-mud-client/internal/script"
	"github.com/fogwraith/fugue-mud-client/internal/world"
)

// msgHandler handles one message type.
type msgHandler = func(msg tea.Msg) (tea.Model, tea.Cmd)

// Options carries the command-line configuration into the model.
type Options struct {
	ConfigPath string // -f
	LibDir     string // -L
	Commands   []string
	// StartWorld is the positional world name, or Host/Port for a bare
	// connection.
	StartWorld string
	Host, Port string

	NoDefaultWorld bool // -n
	NoAutologin    bool // -l
	QuietLogin     bool // -q
	NoVisual       bool // -v
	Debug          bool // -d
}

// worldConn is the event loop's view of one connection.
type worldConn struct {
	conn     *conn.Conn
	state    conn.State
	echoOff  bool
	activity int
	// seenLine is cleared on every keystroke so the first line after it
	// fires the ACTIVITY hook.
	seenLine bool
	// proxied connections fire the PROXY hook on connect.
	proxied bool
}

// Model is the event loop: the exclusive owner of the screen, the input
// editor, the interpreter, the macro and world stores, the process
// scheduler, and the map of live connections. Connection tasks talk to
// it only through program.Send; the interpreter talks to it only through
// the deferred-action queue.
type Model struct {
	program *tea.Program

	opts        Options
	logger      *slog.Logger
	debugBuffer *DebugBuffer

	msgHandlers map[reflect.Type]msgHandler

	width, height int
	currentScreen Screen

	// Core state, exclusively owned.
	out     *screen.Screen
	editor  *input.LineEditor
	history *input.History
	keymap  map[string]input.KeyOp
	interp  *script.Interpreter
	macros  *macro.Store
	worlds  *world.Store
	procs   *proc.Scheduler

	conns   map[string]*worldConn
	fgWorld string

	prompt  *attr.TfString
	echoOff bool // server-side echo suppression (password entry)

	logFile *os.File

	worldsScreen *WorldsScreen
	logsScreen   *LogsScreen

	bridges map[string]*Bridge

	// Pending requests that must leave the Update loop as commands:
	// external processes and shutdown.
	pendingEdit  bool
	pendingShell string
	pendingQuit  bool

	quitting bool
}

// NewModel builds the event loop and its owned state.
func NewModel(opts Options, logger *slog.Logger, db *DebugBuffer) *Model {
	m := &Model{
		opts:        opts,
		logger:      logger,
		debugBuffer: db,
		msgHandlers: make(map[reflect.Type]msgHandler),
		width:       80,
		height:      24,
		out:         screen.New(80, 22),
		editor:      input.NewLineEditor(),
		history:     input.NewHistory(1000),
		keymap:      input.DefaultKeymap(),
		interp:      script.New(),
		macros:      macro.NewStore(),
		worlds:      world.NewStore(),
		procs:       proc.NewScheduler(),
		conns:       make(map[string]*worldConn),
		bridges:     make(map[string]*Bridge),
	}
	m.interp.Macros = m.macros
	m.interp.Info = script.InfoFuncs{
		WorldName: func() string { return m.fgWorld },
		MoreSize:  func() int { return m.out.PhysCount() },
		NumActive: func() int { return m.activeCount() },
	}
	m.syncInputGlobals()
	return m
}

func (m *Model) activeCount() int {
	n := 0
	for _, wc := range m.conns {
		if wc.state == conn.StateEstablished && wc.activity > 0 {
			n++
		}
	}
	return n
}

// Start runs the program until quit.
func (m *Model) Start() error {
	var progOpts []tea.ProgramOption
	if !m.opts.NoVisual {
		progOpts = append(progOpts, tea.WithAltScreen())
	}
	m.program = tea.NewProgram(m, progOpts...)

	// Deliver the asynchronous signals bubbletea does not translate.
	sigCh := make(chan os.Signal, 4)
	signal.Notify(sigCh, syscall.SIGHUP, syscall.SIGTERM)
	go func() {
		for sig := range sigCh {
			m.program.Send(signalMsg{sig: sig})
		}
	}()
	defer signal.Stop(sigCh)

	_, err := m.program.Run()
	if m.logFile != nil {
		_ = m.logFile.Close()
	}
	return err
}

func (m *Model) Init() tea.Cmd {
	m.registerHandler(tea.WindowSizeMsg{}, m.handleWindowResize)
	m.registerHandler(conn.StateMsg{}, m.handleConnState)
	m.registerHandler(conn.LineMsg{}, m.handleConnLine)
	m.registerHandler(conn.OOBMsg{}, m.handleConnOOB)
	m.registerHandler(conn.EchoMsg{}, m.handleConnEcho)
	m.registerHandler(procTickMsg{}, m.handleProcTick)
	m.registerHandler(signalMsg{}, m.handleSignal)
	m.registerHandler(editorDoneMsg{}, m.handleEditorDone)
	m.registerHandler(bridgeCmdMsg{}, m.handleBridgeCmd)

	m.pushSystemLine(randomBanner())
	m.startup()
	return m.scheduleProcTick()
}

// registerHandler registers a message handler for the given message type.
func (m *Model) registerHandler(msgType tea.Msg, handler msgHandler) {
	m.msgHandlers[reflect.TypeOf(msgType)] = handler
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	model, cmd := m.update(msg)
	if extra := m.takePendingCmd(); extra != nil {
		if cmd == nil {
			cmd = extra
		} else {
			cmd = tea.Batch(cmd, extra)
		}
	}
	return model, cmd
}

func (m *Model) update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		return m.handleKey(keyMsg)
	}
	if handler, ok := m.msgHandlers[reflect.TypeOf(msg)]; ok {
		return handler(msg)
	}
	// Sub-screens consume anything else (form and viewport internals).
	switch m.currentScreen {
	case ScreenWorlds:
		if m.worldsScreen != nil {
			return m, m.worldsScreen.Update(msg)
		}
	case ScreenLogs:
		if m.logsScreen != nil {
			return m, m.logsScreen.Update(msg)
		}
	}
	return m, nil
}

// takePendingCmd converts deferred-action requests that need the terminal
// (external editor, shell) or the program (quit) into bubbletea commands.
func (m *Model) takePendingCmd() tea.Cmd {
	var cmds []tea.Cmd
	if m.pendingShell != "" {
		cmdline := m.pendingShell
		m.pendingShell = ""
		c := exec.Command(config.Shell(), "-c", cmdline)
		cmds = append(cmds, tea.ExecProcess(c, func(err error) tea.Msg {
			return editorDoneMsg{err: err}
		}))
	}
	if m.pendingEdit {
		m.pendingEdit = false
		if c := m.editInputCmd(); c != nil {
			cmds = append(cmds, c)
		}
	}
	if m.pendingQuit {
		m.pendingQuit = false
		_, quit := m.beginShutdown()
		cmds = append(cmds, quit)
	}
	if len(cmds) == 0 {
		return nil
	}
	return tea.Batch(cmds...)
}

// editInputCmd writes the input line to an exclusive scratch file and
// opens the external editor on it.
func (m *Model) editInputCmd() tea.Cmd {
	tmp, err := os.CreateTemp("", "fugue-edit-*.txt")
	if err != nil {
		m.pushErrorLine("% edit: " + err.Error())
		return nil
	}
	if _, err := tmp.WriteString(m.editor.Text()); err != nil {
		m.pushErrorLine("% edit: " + err.Error())
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return nil
	}
	path := tmp.Name()
	_ = tmp.Close()
	c := exec.Command(config.Shell(), "-c", config.Editor()+" "+shellQuote(path))
	return tea.ExecProcess(c, func(err error) tea.Msg {
		return editorDoneMsg{path: path, err: err}
	})
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func (m *Model) handleEditorDone(msg tea.Msg) (tea.Model, tea.Cmd) {
	em := msg.(editorDoneMsg)
	if em.err != nil {
		m.pushErrorLine("% " + em.err.Error())
	}
	if em.path != "" {
		if data, err := os.ReadFile(em.path); err == nil {
			m.editor.SetText(strings.TrimRight(string(data), "\n"))
			m.syncInputGlobals()
		}
		_ = os.Remove(em.path)
	} else {
		m.fireHook(macro.HookShell, "")
		m.drainInterp()
	}
	return m, nil
}

// startup loads config files and processes the CLI connection request.
func (m *Model) startup() {
	libDir := config.LibDir(m.opts.LibDir)

	// The standard library is mandatory; its absence already aborted
	// startup in main. Load errors in it are still reported per line.
	if path, err := config.StdlibPath(libDir); err == nil {
		m.loadScriptFile(path)
	}
	if rc := config.FindRC(m.opts.ConfigPath); rc != "" {
		m.loadScriptFile(rc)
	}
	if path := config.WorldsFile(); path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := m.worlds.LoadFile(path); err != nil {
				m.pushErrorLine(err.Error())
			}
		}
	}

	for _, cmd := range m.opts.Commands {
		m.runInput(cmd)
	}

	switch {
	case m.opts.Host != "":
		w := m.worlds.AddTemp(m.opts.Host, m.opts.Port)
		m.connectWorld(w, false, m.opts.NoAutologin, m.opts.QuietLogin)
	case m.opts.StartWorld != "":
		if w, ok := m.worlds.Get(m.opts.StartWorld); ok {
			m.connectWorld(w, false, m.opts.NoAutologin, m.opts.QuietLogin)
		} else {
			m.pushErrorLine(fmt.Sprintf("%% No world named %q", m.opts.StartWorld))
		}
	case !m.opts.NoDefaultWorld:
		if w, ok := m.worlds.First(); ok {
			m.connectWorld(w, false, m.opts.NoAutologin, m.opts.QuietLogin)
		}
	}
}

// loadScriptFile sources a config or library file. A parse failure is
// reported as a line-numbered diagnostic and the remaining file
// continues to load.
func (m *Model) loadScriptFile(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		m.pushErrorLine(fmt.Sprintf("%% %s: %v", path, err))
		m.fireHook(macro.HookLoadFail, path)
		return
	}
	m.pushSystemLine(fmt.Sprintf("%% Loading commands from %s.", path))
	m.interp.FileLoadMode = true
	err = m.interp.ExecScript(string(data))
	if err != nil {
		// The file as a whole does not parse; re-run it line by line so
		// the good lines still load, with line-numbered diagnostics for
		// the bad ones.
		for num, line := range joinFileLines(string(data)) {
			if lerr := m.interp.ExecScript(line); lerr != nil {
				m.pushErrorLine(fmt.Sprintf("%% %s, line %d: %v", path, num+1, lerr))
			}
		}
	}
	m.interp.FileLoadMode = false
	m.drainInterp()
	m.fireHook(macro.HookLoad, path)
}

// joinFileLines splits file source into logical lines, honoring
// backslash continuations.
func joinFileLines(src string) []string {
	var out []string
	var current strings.Builder
	for _, line := range strings.Split(src, "\n") {
		if stripped, ok := strings.CutSuffix(line, "\\"); ok {
			current.WriteString(stripped)
			continue
		}
		current.WriteString(line)
		out = append(out, current.String())
		current.Reset()
	}
	if current.Len() > 0 {
		out = append(out, current.String())
	}
	return out
}

// runInput executes one line of user input at top level: fire the SEND
// hook, then hand the line to the interpreter (commands) or the
// foreground world (plain text).
func (m *Model) runInput(line string) {
	m.fireHook(macro.HookSend, line)
	if err := m.interp.ExecScript(line); err != nil {
		m.pushErrorLine("% error: " + err.Error())
	}
	m.drainInterp()
}

// drainInterp moves pending interpreter output to the screen and
// dispatches the deferred-action queue, serially and in order. Actions
// queued by an action's own side effects (hook bodies, loaded files) are
// dispatched in the same pass.
func (m *Model) drainInterp() {
	for {
		out := m.interp.TakeOutput()
		actions := m.interp.TakeActions()
		if len(out) == 0 && len(actions) == 0 {
			return
		}
		for _, line := range out {
			m.pushLine(screen.LogicalLine{Content: line})
		}
		for _, a := range actions {
			m.dispatchAction(a)
		}
	}
}

// fireHook runs the macros FindHooks selects for hook and args: the
// matching fall-throughs, then at most one non-fall-through, in fire order.
func (m *Model) fireHook(hook macro.Hook, args string) {
	matches := m.macros.FindHooks(hook, args)
	params := strings.Fields(args)
	for _, mac := range matches {
		m.invokeMacro(mac, params, nil)
	}
}

// invokeMacro runs a macro body via the interpreter, honoring the guard
// expression and the self-destruct count.
func (m *Model) invokeMacro(mac *macro.Macro, params []string, captures map[string]string) {
	if mac.ExprGuard != "" {
		v, err := m.interp.EvalExprStr(mac.ExprGuard)
		if err != nil {
			m.pushErrorLine("% error: " + err.Error())
			return
		}
		if !v.AsBool() {
			return
		}
	}
	if mac.Body != "" {
		if err := m.interp.InvokeMacro(mac, params, captures); err != nil {
			m.pushErrorLine("% error: " + err.Error())
		}
	}
	m.macros.ConsumeShot(mac.Num)
}

// syncInputGlobals publishes the editor state to the scripting globals
// after every keystroke.
func (m *Model) syncInputGlobals() {
	m.interp.SetGlobalVar("kbhead", script.StringValue(m.editor.Head()))
	m.interp.SetGlobalVar("kbtail", script.StringValue(m.editor.Tail()))
	m.interp.SetGlobalVar("kbpoint", script.IntValue(int64(m.editor.Pos)))
}

// scheduleProcTick arms the timer for the next due process.
func (m *Model) scheduleProcTick() tea.Cmd {
	wake, ok := m.procs.NextWakeup()
	if !ok {
		return nil
	}
	d := time.Until(wake)
	if d < 0 {
		d = 0
	}
	return tea.Tick(d, func(at time.Time) tea.Msg { return procTickMsg{at: at} })
}

func (m *Model) handleProcTick(tea.Msg) (tea.Model, tea.Cmd) {
	for _, fire := range m.procs.TakeDue(time.Now()) {
		if fire.Send {
			m.sendToWorld(fire.Body, fire.World, false)
			continue
		}
		if err := m.interp.ExecScript(fire.Body); err != nil {
			m.pushErrorLine("% error: " + err.Error())
		}
		m.drainInterp()
	}
	return m, m.scheduleProcTick()
}

func (m *Model) handleWindowResize(msg tea.Msg) (tea.Model, tea.Cmd) {
	ws := msg.(tea.WindowSizeMsg)
	m.width = ws.Width
	m.height = ws.Height
	m.out.Resize(ws.Width, m.outputHeight())
	if m.worldsScreen != nil {
		m.worldsScreen.SetSize(ws.Width, ws.Height)
	}
	if m.logsScreen != nil {
		m.logsScreen.SetSize(ws.Width, ws.Height)
	}
	// Re-advertise NAWS on every live connection.
	for _, wc := range m.conns {
		wc.conn.SendNAWS(ws.Width, ws.Height)
	}
	m.fireHook(macro.HookResize, fmt.Sprintf("%d %d", ws.Width, ws.Height))
	m.drainInterp()
	return m, nil
}

func (m *Model) handleSignal(msg tea.Msg) (tea.Model, tea.Cmd) {
	sig := msg.(signalMsg).sig
	switch sig {
	case syscall.SIGHUP:
		m.fireHook(macro.HookSigHup, "")
		m.drainInterp()
		return m, nil
	case syscall.SIGTERM:
		m.fireHook(macro.HookSigTerm, "")
		m.drainInterp()
		return m.beginShutdown()
	}
	return m, nil
}

// beginShutdown closes every connection and quits.
func (m *Model) beginShutdown() (tea.Model, tea.Cmd) {
	m.quitting = true
	for _, wc := range m.conns {
		wc.conn.Close()
	}
	for _, b := range m.bridges {
		b.Close()
	}
	return m, tea.Quit
}

func (m *Model) outputHeight() int {
	// Screen rows minus the status line, the prompt line, and the input
	// line.
	h := m.height - 3
	if h < 1 {
		h = 1
	}
	return h
}

// connectWorld starts a connection task for a world profile.
func (m *Model) connectWorld(w *world.World, background, noLogin, quiet bool) {
	if !w.IsConnectable() {
		m.pushErrorLine(fmt.Sprintf("%% World %s has no address", w.Name))
		return
	}
	if wc, ok := m.conns[strings.ToLower(w.Name)]; ok && wc.state != conn.StateClosed {
		m.pushSystemLine(fmt.Sprintf("%% Already connected to %s.", w.Name))
		if !background {
			m.switchWorld(w.Name)
		}
		return
	}
	if !quiet {
		m.pushSystemLine(fmt.Sprintf("%% Connecting to %s (%s).", w.Name, w.Address()))
	}
	// Tag the attempt so overlapping dials to one world are
	// distinguishable in the debug log.
	m.logger.Debug("Connecting", "world", w.Name, "addr", w.Address(),
		"attempt", uuid.New().String())

	// TFPROXY routes the TCP connection through a proxy host; the PROXY
	// hook fires on connect so macros can complete the handoff.
	host, port := w.Host, w.Port
	proxied := false
	if p := config.Proxy(); p != "" && !w.NoProxy {
		if ph, pp, err := net.SplitHostPort(p); err == nil {
			host, port = ph, pp
			proxied = true
		}
	}

	c := conn.Dial(context.Background(), w.Name, host, port, conn.Options{
		TLS:      w.TLS,
		TermType: config.TermName(),
		Width:    m.width,
		Height:   m.height,
	}, func(msg any) { m.program.Send(msg) })
	m.conns[strings.ToLower(w.Name)] = &worldConn{
		conn:    c,
		state:   conn.StateResolving,
		proxied: proxied,
	}
	if !background {
		m.switchWorld(w.Name)
	}
	if noLogin {
		// Mark the connection so the CONNECT handler skips autologin.
		m.interp.SetGlobalVar("_nologin_"+strings.ToLower(w.Name), script.IntValue(1))
	}
}

// switchWorld brings a world to the foreground and fires the WORLD hook.
func (m *Model) switchWorld(name string) {
	key := strings.ToLower(name)
	if m.fgWorld != "" && strings.EqualFold(m.fgWorld, name) {
		return
	}
	if wc, ok := m.conns[key]; ok {
		wc.activity = 0
		m.echoOff = wc.echoOff
	} else {
		m.echoOff = false
	}
	m.fgWorld = name
	m.prompt = nil
	m.fireHook(macro.HookWorld, name)
	m.drainInterp()
}

// sendToWorld writes one line to a named world, or the foreground world.
func (m *Model) sendToWorld(text, worldName string, noNewline bool) {
	name := worldName
	if name == "" {
		name = m.fgWorld
	}
	if name == "" {
		m.pushErrorLine("% Not connected to a world.")
		return
	}
	wc, ok := m.conns[strings.ToLower(name)]
	if !ok || wc.state != conn.StateEstablished {
		m.pushErrorLine(fmt.Sprintf("%% Not connected to %s.", name))
		return
	}
	if err := wc.conn.Send(text, noNewline); err != nil {
		m.pushErrorLine(fmt.Sprintf("%% %s: %v", name, err))
		return
	}
	if w, okw := m.worlds.Get(name); okw && w.Echo {
		m.pushLine(screen.LogicalLine{Content: attr.Plain(text), Attr: attr.Dim})
	}
	wc.seenLine = false
}

func (m *Model) View() string {
	switch m.currentScreen {
	case ScreenWorlds:
		if m.worldsScreen != nil {
			return m.worldsScreen.View()
		}
	case ScreenLogs:
		if m.logsScreen != nil {
			return m.logsScreen.View()
		}
	}
	return m.sessionView()
}
