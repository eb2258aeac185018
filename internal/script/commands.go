package script

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/fogwraith/fugue-mud-client/internal/attr"
	"github.com/fogwraith/fugue-mud-client/internal/macro"
	"github.com/fogwraith/fugue-mud-client/internal/pattern"
	"github.com/fogwraith/fugue-mud-client/internal/world"
)

// A commandFunc implements one builtin /command. Arguments arrive already
// variable-expanded. Side effects on event-loop state go through the
// deferred-action queue; only interpreter-local state is touched directly.
type commandFunc func(in *Interpreter, args string) error

var builtinCommands map[string]commandFunc

func init() {
	// Populated in init to avoid an initialization cycle: some commands
	// (e.g. /load → /require) refer back to the table.
	builtinCommands = map[string]commandFunc{
		"def":        cmdDef,
		"undef":      cmdUndef,
		"undefn":     cmdUndefn,
		"purge":      cmdPurge,
		"list":       cmdList,
		"bind":       cmdBind,
		"unbind":     cmdUnbind,
		"addworld":   cmdAddWorld,
		"unworld":    cmdUnworld,
		"listworlds": cmdListWorlds,
		"saveworld":  cmdSaveWorld,
		"save":       cmdSave,
		"connect":    cmdConnect,
		"world":      cmdConnect,
		"dc":         cmdDisconnect,
		"fg":         cmdFg,
		"repeat":     cmdRepeat,
		"quote":      cmdQuote,
		"kill":       cmdKill,
		"ps":         cmdPs,
		"sh":         cmdSh,
		"setenv":     cmdSetenv,
		"export":     cmdExport,
		"dokey":      cmdDokey,
		"grab":       cmdGrab,
		"input":      cmdInput,
		"prompt":     cmdPrompt,
		"beep":       cmdBeep,
		"scroll":     cmdScroll,
		"load":       cmdLoad,
		"require":    cmdLoad,
		"log":        cmdLog,
		"edit":       cmdEdit,
		"listvar":    cmdListVar,
		"listdefs":   cmdList,
		"recall":     cmdRecall,
		"recordline": cmdRecordLine,
		"quit":       cmdQuit,
	}
}

// ── macro definition ──────────────────────────────────────────────────

// cmdDef parses "/def [flags] [name] = body" into a macro and queues it.
// A pattern or guard that fails to compile rejects the definition.
func cmdDef(in *Interpreter, args string) error {
	m, err := ParseDefSpec(args)
	if err != nil {
		return err
	}
	// Reject bodies that do not parse, at definition time.
	if m.Body != "" {
		stmts, perr := ParseScript(m.Body)
		if perr != nil {
			return fmt.Errorf("/def %s: %w", m.Label(), perr)
		}
		m.SetCompiled(stmts)
	}
	in.Queue(DefMacro{Macro: m})
	return nil
}

// ParseDefSpec parses the argument string of /def (after expansion).
func ParseDefSpec(args string) (*macro.Macro, error) {
	m := &macro.Macro{Priority: 1, Probability: 100}
	mode := pattern.Glob // trigger patterns default to glob matching
	var trigSrc string
	trigSet := false

	s := strings.TrimLeft(args, " ")
	for strings.HasPrefix(s, "-") {
		var flag byte
		var val string
		flag, val, s = scanFlag(s)
		switch flag {
		case 'i':
			m.Invisible = true
		case 'F':
			m.Fallthru = true
		case 'q':
			m.Quiet = true
		case 'p':
			n, err := strconv.Atoi(val)
			if err != nil {
				return nil, fmt.Errorf("/def: bad priority %q", val)
			}
			m.Priority = n
		case 'c':
			n, err := strconv.Atoi(val)
			if err != nil || n < 0 || n > 100 {
				return nil, fmt.Errorf("/def: bad probability %q", val)
			}
			m.Probability = n
		case 'n':
			n, err := strconv.Atoi(val)
			if err != nil || n < 0 {
				return nil, fmt.Errorf("/def: bad shot count %q", val)
			}
			m.Shots = n
		case 'a':
			a, err := attr.ParseFlags(val)
			if err != nil {
				return nil, fmt.Errorf("/def: %w", err)
			}
			m.Attr = a
		case 'm':
			md, ok := pattern.ModeByName(val)
			if !ok {
				return nil, fmt.Errorf("/def: unknown match mode %q", val)
			}
			mode = md
		case 't':
			trigSrc = val
			trigSet = true
		case 'h':
			hookPart, argPart, _ := strings.Cut(val, " ")
			hs, err := macro.ParseHookSet(hookPart)
			if err != nil {
				return nil, fmt.Errorf("/def: %w", err)
			}
			m.Hooks = hs
			if argPart != "" {
				p, perr := pattern.Compile(pattern.Glob, argPart)
				if perr != nil {
					return nil, fmt.Errorf("/def: %w", perr)
				}
				m.HookArgs = p
			}
		case 'b':
			m.Key = val
		case 'w':
			m.World = val
		case 'T':
			p, err := pattern.Compile(pattern.Glob, val)
			if err != nil {
				return nil, fmt.Errorf("/def: %w", err)
			}
			m.WorldType = p
		case 'E':
			m.ExprGuard = val
		default:
			return nil, fmt.Errorf("/def: unknown flag -%c", flag)
		}
		s = strings.TrimLeft(s, " ")
	}

	if trigSet {
		p, err := pattern.Compile(mode, trigSrc)
		if err != nil {
			return nil, fmt.Errorf("/def: %w", err)
		}
		m.Trig = p
	}

	// Remaining: [name] [= body]
	if name, body, ok := strings.Cut(s, "="); ok {
		m.Name = strings.TrimSpace(name)
		m.Body = strings.TrimSpace(body)
	} else {
		m.Name = strings.TrimSpace(s)
	}
	if m.Name == "" && m.Body == "" && m.Trig == nil && m.Hooks.IsEmpty() && m.Key == "" {
		return nil, fmt.Errorf("/def: nothing to define")
	}
	return m, nil
}

// scanFlag consumes one -X[value] flag. Values may be quoted with ' or "
// to include spaces; an unquoted value runs to the next space.
func scanFlag(s string) (byte, string, string) {
	// s starts with '-'.
	if len(s) < 2 {
		return 0, "", ""
	}
	flag := s[1]
	rest := s[2:]
	if rest == "" || rest[0] == ' ' {
		return flag, "", strings.TrimLeft(rest, " ")
	}
	if rest[0] == '\'' || rest[0] == '"' {
		quote := rest[0]
		if end := strings.IndexByte(rest[1:], quote); end >= 0 {
			return flag, rest[1 : 1+end], rest[2+end:]
		}
		return flag, rest[1:], ""
	}
	if i := strings.IndexByte(rest, ' '); i >= 0 {
		return flag, rest[:i], rest[i:]
	}
	return flag, rest, ""
}

func cmdUndef(in *Interpreter, args string) error {
	name := strings.TrimSpace(args)
	if name == "" {
		return fmt.Errorf("/undef: missing macro name")
	}
	in.Queue(UndefMacro{Name: name})
	return nil
}

func cmdUndefn(in *Interpreter, args string) error {
	var nums []int
	for _, f := range strings.Fields(args) {
		n, err := strconv.Atoi(f)
		if err != nil {
			return fmt.Errorf("/undefn: bad macro number %q", f)
		}
		nums = append(nums, n)
	}
	if len(nums) == 0 {
		return fmt.Errorf("/undefn: missing macro number")
	}
	in.Queue(UndefMacroNum{Nums: nums})
	return nil
}

func cmdPurge(in *Interpreter, args string) error {
	in.Queue(PurgeMacros{Pattern: strings.TrimSpace(args)})
	return nil
}

func cmdList(in *Interpreter, args string) error {
	if in.Macros == nil {
		return nil
	}
	pat := strings.TrimSpace(args)
	var glob *pattern.Pattern
	if pat != "" {
		p, err := pattern.Compile(pattern.Glob, pat)
		if err != nil {
			return err
		}
		glob = p
	}
	n := 0
	for _, m := range in.Macros.All() {
		if m.Invisible {
			continue
		}
		if glob != nil && !glob.Matches(m.Name) {
			continue
		}
		in.EchoString("% " + m.ToDefCommand())
		n++
	}
	if n == 0 {
		in.EchoString("% No macros match.")
	}
	return nil
}

func cmdBind(in *Interpreter, args string) error {
	key, body, ok := strings.Cut(args, "=")
	if !ok {
		return fmt.Errorf("/bind: expected key = body")
	}
	m := &macro.Macro{
		Key:         strings.TrimSpace(key),
		Body:        strings.TrimSpace(body),
		Probability: 100,
		Priority:    1,
	}
	if m.Key == "" {
		return fmt.Errorf("/bind: missing key")
	}
	in.Queue(DefMacro{Macro: m})
	return nil
}

func cmdUnbind(in *Interpreter, args string) error {
	key := strings.TrimSpace(args)
	if key == "" {
		return fmt.Errorf("/unbind: missing key")
	}
	if in.Macros != nil {
		if m, ok := in.Macros.FindBinding(key); ok {
			in.Queue(UndefMacroNum{Nums: []int{m.Num}})
			return nil
		}
	}
	in.EchoString("% No binding for " + key)
	return nil
}

// ── worlds ────────────────────────────────────────────────────────────

// cmdAddWorld parses
// /addworld [-Ttype] [-e] [-x] [-p] name[=char[,pass]] [host port [mfile]]
func cmdAddWorld(in *Interpreter, args string) error {
	w := &world.World{}
	s := strings.TrimLeft(args, " ")
	for strings.HasPrefix(s, "-") {
		var flag byte
		var val string
		flag, val, s = scanFlag(s)
		switch flag {
		case 'T':
			w.Type = val
		case 'e':
			w.Echo = true
		case 'x':
			w.TLS = true
		case 'p':
			w.NoProxy = true
		default:
			return fmt.Errorf("/addworld: unknown flag -%c", flag)
		}
		s = strings.TrimLeft(s, " ")
	}
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return fmt.Errorf("/addworld: missing world name")
	}
	name := fields[0]
	if n, creds, ok := strings.Cut(name, "="); ok {
		name = n
		char, pass, _ := strings.Cut(creds, ",")
		w.Character = char
		w.Pass = pass
	}
	w.Name = name
	if len(fields) >= 3 {
		w.Host = fields[1]
		w.Port = fields[2]
	}
	if len(fields) >= 4 {
		w.Mfile = fields[3]
	}
	in.Queue(AddWorld{World: w})
	return nil
}

func cmdUnworld(in *Interpreter, args string) error {
	name := strings.TrimSpace(args)
	if name == "" {
		return fmt.Errorf("/unworld: missing world name")
	}
	in.Queue(RemoveWorld{Name: name})
	return nil
}

func cmdListWorlds(in *Interpreter, args string) error {
	// Rendered by the event loop, which owns the world store.
	in.Queue(ListWorlds{})
	return nil
}

func cmdSaveWorld(in *Interpreter, args string) error {
	in.Queue(SaveWorlds{Path: strings.TrimSpace(args)})
	return nil
}

func cmdSave(in *Interpreter, args string) error {
	in.Queue(SaveSession{Path: strings.TrimSpace(args)})
	return nil
}

// cmdConnect parses /connect [-b] [-l] [-q] {name | host port}.
func cmdConnect(in *Interpreter, args string) error {
	a := ConnectWorld{}
	s := strings.TrimLeft(args, " ")
	for strings.HasPrefix(s, "-") {
		var flag byte
		flag, _, s = scanFlag(s)
		switch flag {
		case 'b':
			a.Background = true
		case 'l':
			a.NoLogin = true
		case 'q':
			a.Quiet = true
		default:
			return fmt.Errorf("/connect: unknown flag -%c", flag)
		}
		s = strings.TrimLeft(s, " ")
	}
	fields := strings.Fields(s)
	switch len(fields) {
	case 0:
		// Reconnect the foreground world.
	case 1:
		a.Name = fields[0]
	case 2:
		a.Host, a.Port = fields[0], fields[1]
	default:
		return fmt.Errorf("/connect: expected world name or host port")
	}
	in.Queue(a)
	return nil
}

func cmdDisconnect(in *Interpreter, args string) error {
	in.Queue(DisconnectWorld{World: strings.TrimSpace(args)})
	return nil
}

func cmdFg(in *Interpreter, args string) error {
	name := strings.TrimSpace(args)
	if name == "" {
		return fmt.Errorf("/fg: missing world name")
	}
	in.Queue(SwitchWorld{Name: name})
	return nil
}

// ── processes ─────────────────────────────────────────────────────────

// cmdRepeat parses /repeat [-w<world>] [-<count>] <interval> <body>.
// A count of -0 means infinite; without a count the body runs once.
func cmdRepeat(in *Interpreter, args string) error {
	a := StartRepeat{Count: 1}
	s := strings.TrimLeft(args, " ")
	for strings.HasPrefix(s, "-") {
		var flag byte
		var val string
		flag, val, s = scanFlag(s)
		switch {
		case flag == 'w':
			a.World = val
		case flag >= '0' && flag <= '9':
			n, err := strconv.Atoi(string(flag) + val)
			if err != nil {
				return fmt.Errorf("/repeat: bad count")
			}
			if n == 0 {
				a.Count = -1
			} else {
				a.Count = n
			}
		default:
			return fmt.Errorf("/repeat: unknown flag -%c", flag)
		}
		s = strings.TrimLeft(s, " ")
	}
	intervalStr, body, ok := strings.Cut(s, " ")
	if !ok || strings.TrimSpace(body) == "" {
		return fmt.Errorf("/repeat: expected interval and body")
	}
	iv, err := parseInterval(intervalStr)
	if err != nil {
		return fmt.Errorf("/repeat: %w", err)
	}
	a.Interval = iv
	a.Body = strings.TrimSpace(body)
	in.Queue(a)
	return nil
}

// cmdQuote parses /quote [-w<world>] [-S] <interval> ['file | !cmd].
func cmdQuote(in *Interpreter, args string) error {
	a := StartQuote{}
	s := strings.TrimLeft(args, " ")
	for strings.HasPrefix(s, "-") {
		var flag byte
		var val string
		flag, val, s = scanFlag(s)
		switch flag {
		case 'w':
			a.World = val
		case 'S':
			a.Shell = true
		default:
			return fmt.Errorf("/quote: unknown flag -%c", flag)
		}
		s = strings.TrimLeft(s, " ")
	}
	intervalStr, src, ok := strings.Cut(s, " ")
	if !ok {
		return fmt.Errorf("/quote: expected interval and source")
	}
	iv, err := parseInterval(intervalStr)
	if err != nil {
		return fmt.Errorf("/quote: %w", err)
	}
	a.Interval = iv
	src = strings.TrimSpace(src)
	switch {
	case strings.HasPrefix(src, "!"):
		a.Shell = true
		a.Source = src[1:]
	case strings.HasPrefix(src, "'"):
		a.Source = src[1:]
	default:
		a.Source = src
	}
	if a.Source == "" {
		return fmt.Errorf("/quote: missing source")
	}
	in.Queue(a)
	return nil
}

// parseInterval reads a duration in seconds, with fractions allowed.
func parseInterval(s string) (time.Duration, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 {
		return 0, fmt.Errorf("bad interval %q", s)
	}
	return time.Duration(f * float64(time.Second)), nil
}

func cmdKill(in *Interpreter, args string) error {
	pid, err := strconv.Atoi(strings.TrimSpace(args))
	if err != nil {
		return fmt.Errorf("/kill: bad pid %q", args)
	}
	in.Queue(KillProc{PID: pid})
	return nil
}

func cmdPs(in *Interpreter, args string) error {
	in.Queue(ListProcs{})
	return nil
}

// ── environment and shell ─────────────────────────────────────────────

func cmdSh(in *Interpreter, args string) error {
	in.Queue(ShellCmd{Cmd: strings.TrimSpace(args)})
	return nil
}

func cmdSetenv(in *Interpreter, args string) error {
	key, val, ok := strings.Cut(strings.TrimSpace(args), "=")
	if !ok {
		key, val, _ = strings.Cut(strings.TrimSpace(args), " ")
	}
	if key == "" {
		return fmt.Errorf("/setenv: missing variable name")
	}
	in.Queue(SetEnvVar{Key: key, Val: val})
	return nil
}

func cmdExport(in *Interpreter, args string) error {
	name := strings.TrimSpace(args)
	if name == "" {
		return fmt.Errorf("/export: missing variable name")
	}
	v, _ := in.GetVar(name)
	in.Queue(SetEnvVar{Key: name, Val: v.String()})
	return nil
}

// ── input and display ─────────────────────────────────────────────────

func cmdDokey(in *Interpreter, args string) error {
	op := strings.TrimSpace(args)
	if op == "" {
		return fmt.Errorf("/dokey: missing operation")
	}
	in.Queue(DoKey{Op: op})
	return nil
}

func cmdGrab(in *Interpreter, args string) error {
	in.Queue(SetInput{Text: args})
	return nil
}

func cmdInput(in *Interpreter, args string) error {
	in.Queue(SetInput{Text: args})
	return nil
}

func cmdPrompt(in *Interpreter, args string) error {
	in.Queue(SetPrompt{Text: args})
	return nil
}

func cmdBeep(in *Interpreter, args string) error {
	in.Queue(RingBell{})
	return nil
}

func cmdScroll(in *Interpreter, args string) error {
	n, err := strconv.Atoi(strings.TrimSpace(args))
	if err != nil {
		return fmt.Errorf("/scroll: bad line count %q", args)
	}
	in.Queue(Scroll{Lines: n})
	return nil
}

func cmdLoad(in *Interpreter, args string) error {
	path := strings.TrimSpace(args)
	if path == "" {
		return fmt.Errorf("/load: missing file name")
	}
	in.Queue(LoadFile{Path: path})
	return nil
}

func cmdLog(in *Interpreter, args string) error {
	arg := strings.TrimSpace(args)
	if strings.EqualFold(arg, "off") {
		in.Queue(LogFile{Off: true})
		return nil
	}
	in.Queue(LogFile{Path: arg})
	return nil
}

func cmdEdit(in *Interpreter, args string) error {
	in.Queue(EditInput{})
	return nil
}

func cmdListVar(in *Interpreter, args string) error {
	names := make([]string, 0, len(in.globals))
	for name := range in.globals {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		in.EchoString(fmt.Sprintf("%% /set %s=%s", name, in.globals[name].String()))
	}
	return nil
}

func cmdRecall(in *Interpreter, args string) error {
	n := 20
	if s := strings.TrimSpace(args); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 1 {
			return fmt.Errorf("/recall: bad line count %q", s)
		}
		n = v
	}
	in.Queue(RecallHistory{Count: n})
	return nil
}

func cmdRecordLine(in *Interpreter, args string) error {
	in.Queue(RecordHistory{Text: args})
	return nil
}

func cmdQuit(in *Interpreter, args string) error {
	in.Queue(Quit{})
	return nil
}
