package script

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fogwraith/fugue-mud-client/internal/attr"
	"github.com/fogwraith/fugue-mud-client/internal/macro"
)

type ctrlKind int

const (
	ctrlNone ctrlKind = iota
	ctrlBreak
	ctrlReturn
)

type control struct {
	kind ctrlKind
	val  Value
}

// frame is one macro-invocation scope: its locals and positional
// parameters.
type frame struct {
	locals  map[string]Value
	params  []string
	cmdName string
}

// Interpreter executes parsed statements. It owns the global variable
// table and the deferred-action queue; it holds no references into
// event-loop state. The event loop hands it a macro store for named-macro
// invocation and drains actions and output after every top-level run.
type Interpreter struct {
	globals map[string]Value
	frames  []frame

	// Macros resolves named-macro invocations and caches compiled bodies.
	Macros *macro.Store

	// Info exposes read-only session facts (current world name, More
	// count, active-world count) to expression functions.
	Info InfoFuncs

	actions []Action
	output  []*attr.TfString

	// LastError records the most recent script error or unknown-variable
	// reference for script inspection.
	LastError string

	// FileLoadMode is set while sourcing a config file; some commands
	// behave more quietly there.
	FileLoadMode bool
}

// New returns an interpreter with an empty global scope.
func New() *Interpreter {
	return &Interpreter{globals: make(map[string]Value)}
}

// SetGlobalVar sets a global variable.
func (in *Interpreter) SetGlobalVar(name string, v Value) {
	in.globals[name] = v
}

// GetGlobalVar reads a global variable.
func (in *Interpreter) GetGlobalVar(name string) (Value, bool) {
	v, ok := in.globals[name]
	return v, ok
}

// UnsetGlobalVar removes a global variable.
func (in *Interpreter) UnsetGlobalVar(name string) {
	delete(in.globals, name)
}

// Globals returns the global table for /save and /listvar.
func (in *Interpreter) Globals() map[string]Value { return in.globals }

// Queue appends a deferred action.
func (in *Interpreter) Queue(a Action) { in.actions = append(in.actions, a) }

// TakeActions drains the deferred-action queue in FIFO order.
func (in *Interpreter) TakeActions() []Action {
	out := in.actions
	in.actions = nil
	return out
}

// Echo appends a line to the pending screen output.
func (in *Interpreter) Echo(line *attr.TfString) {
	in.output = append(in.output, line)
}

// EchoString appends a plain text line to the pending screen output.
func (in *Interpreter) EchoString(line string) { in.Echo(attr.Plain(line)) }

// Errorf reports a script error as a "% error:" screen line and records it
// in LastError. Script errors never propagate out of a top-level run.
func (in *Interpreter) Errorf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	in.LastError = msg
	in.EchoString("% error: " + msg)
}

// TakeOutput drains the pending screen output.
func (in *Interpreter) TakeOutput() []*attr.TfString {
	out := in.output
	in.output = nil
	return out
}

// ExecScript parses and runs script source as a top-level unit. Parse
// errors are returned; runtime errors inside the script are reported via
// Errorf and do not propagate.
func (in *Interpreter) ExecScript(src string) error {
	stmts, err := ParseScript(src)
	if err != nil {
		return err
	}
	in.runTopLevel(stmts)
	return nil
}

// runTopLevel executes statements, absorbing runtime errors as screen
// diagnostics so one bad statement cannot take down the session.
func (in *Interpreter) runTopLevel(stmts []Stmt) {
	for _, st := range stmts {
		if _, err := in.execStmt(st); err != nil {
			in.Errorf("%v", err)
		}
	}
}

func (in *Interpreter) execBlock(stmts []Stmt) (control, error) {
	for _, st := range stmts {
		c, err := in.execStmt(st)
		if err != nil {
			return control{}, err
		}
		if c.kind != ctrlNone {
			return c, nil
		}
	}
	return control{}, nil
}

func (in *Interpreter) execStmt(st Stmt) (control, error) {
	switch s := st.(type) {
	case RawStmt:
		text, err := Expand(s.Text, in)
		if err != nil {
			return control{}, err
		}
		in.Queue(SendToWorld{Text: text})
		return control{}, nil

	case EchoStmt:
		text, err := Expand(s.Text, in)
		if err != nil {
			return control{}, err
		}
		var line *attr.TfString
		if s.Attrs != "" {
			a, aerr := attr.ParseFlags(s.Attrs)
			if aerr != nil {
				return control{}, aerr
			}
			line = attr.NewTfString()
			line.PushString(text, a)
		} else {
			line = attr.ParseMarkup(text)
		}
		if !s.Newline && len(in.output) > 0 {
			last := in.output[len(in.output)-1]
			for i, r := range line.Runes() {
				last.Push(r, line.AttrAt(i))
			}
		} else {
			in.Echo(line)
		}
		return control{}, nil

	case SendStmt:
		text, err := Expand(s.Text, in)
		if err != nil {
			return control{}, err
		}
		in.Queue(SendToWorld{Text: text, World: s.World, NoNewline: s.NoNewline})
		return control{}, nil

	case SetStmt:
		val, err := Expand(s.Value, in)
		if err != nil {
			return control{}, err
		}
		if s.Name == "" {
			return control{}, fmt.Errorf("/set: missing variable name")
		}
		in.SetGlobal(s.Name, ParseNumber(val))
		return control{}, nil

	case LetStmt:
		val, err := Expand(s.Value, in)
		if err != nil {
			return control{}, err
		}
		if s.Name == "" {
			return control{}, fmt.Errorf("/let: missing variable name")
		}
		in.SetLocal(s.Name, ParseNumber(val))
		return control{}, nil

	case UnsetStmt:
		if len(in.frames) > 0 {
			delete(in.frames[len(in.frames)-1].locals, s.Name)
		}
		delete(in.globals, s.Name)
		return control{}, nil

	case ExprStmt:
		src, err := Expand(s.Src, in)
		if err != nil {
			return control{}, err
		}
		if _, err := in.EvalExprStr(src); err != nil {
			return control{}, err
		}
		return control{}, nil

	case ReturnStmt:
		if s.Value == "" {
			return control{kind: ctrlReturn}, nil
		}
		src, err := Expand(s.Value, in)
		if err != nil {
			return control{}, err
		}
		v, err := in.EvalExprStr(src)
		if err != nil {
			return control{}, err
		}
		return control{kind: ctrlReturn, val: v}, nil

	case BreakStmt:
		return control{kind: ctrlBreak}, nil

	case IfStmt:
		ok, err := in.evalCond(s.Cond)
		if err != nil {
			return control{}, err
		}
		if ok {
			return in.execBlock(s.Then)
		}
		return in.execBlock(s.Else)

	case WhileStmt:
		for {
			ok, err := in.evalCond(s.Cond)
			if err != nil {
				return control{}, err
			}
			if !ok {
				return control{}, nil
			}
			c, err := in.execBlock(s.Body)
			if err != nil {
				return control{}, err
			}
			switch c.kind {
			case ctrlBreak:
				return control{}, nil
			case ctrlReturn:
				return c, nil
			}
		}

	case ForStmt:
		startStr, err := Expand(s.Start, in)
		if err != nil {
			return control{}, err
		}
		endStr, err := Expand(s.End, in)
		if err != nil {
			return control{}, err
		}
		start, err := strconv.ParseInt(strings.TrimSpace(startStr), 10, 64)
		if err != nil {
			return control{}, fmt.Errorf("invalid /for start value %q", startStr)
		}
		end, err := strconv.ParseInt(strings.TrimSpace(endStr), 10, 64)
		if err != nil {
			return control{}, fmt.Errorf("invalid /for end value %q", endStr)
		}
		for i := start; i <= end; i++ {
			in.SetLocal(s.Var, IntValue(i))
			c, err := in.execBlock(s.Body)
			if err != nil {
				return control{}, err
			}
			switch c.kind {
			case ctrlBreak:
				return control{}, nil
			case ctrlReturn:
				return c, nil
			}
		}
		return control{}, nil

	case CommandStmt:
		return in.execCommand(s.Name, s.Args)
	}
	return control{}, fmt.Errorf("unhandled statement %T", st)
}

func (in *Interpreter) evalCond(cond string) (bool, error) {
	src, err := Expand(cond, in)
	if err != nil {
		return false, err
	}
	v, err := in.EvalExprStr(src)
	if err != nil {
		return false, err
	}
	return v.AsBool(), nil
}

// execCommand dispatches /name invocations: builtin commands first, then
// named macros, then the unknown-command diagnostic.
func (in *Interpreter) execCommand(name, args string) (control, error) {
	if cmd, ok := builtinCommands[name]; ok {
		expanded := args
		// Macro-defining commands keep their bodies verbatim: %1 and
		// friends substitute at invocation, not definition.
		if !isBodyCommand("/" + name) {
			var err error
			expanded, err = Expand(args, in)
			if err != nil {
				return control{}, err
			}
		}
		return control{}, cmd(in, expanded)
	}
	if in.Macros != nil {
		if m, ok := in.Macros.GetByName(name); ok {
			expanded, err := Expand(args, in)
			if err != nil {
				return control{}, err
			}
			_, err = in.invokeMacroFrame(m, splitParams(expanded), nil)
			return control{}, err
		}
	}
	in.LastError = "unknown command: /" + name
	in.EchoString("% Unknown command: /" + name)
	in.Queue(FireHook{Hook: macro.HookNoMacro, Args: name})
	return control{}, nil
}

// InvokeMacro runs a macro body with the given positional parameters and
// extra local variables (trigger captures). The parsed body is cached on
// the macro after the first invocation. A definition-time parse failure
// was already rejected by /def; an invocation-time failure aborts just
// this invocation.
func (in *Interpreter) InvokeMacro(m *macro.Macro, params []string, captures map[string]string) error {
	_, err := in.invokeMacroFrame(m, params, captures)
	return err
}

// invokeMacroFrame runs the macro body in a fresh frame and returns the
// body's /return value, if any.
func (in *Interpreter) invokeMacroFrame(m *macro.Macro, params []string, captures map[string]string) (Value, error) {
	stmts, ok := m.Compiled().([]Stmt)
	if !ok {
		var err error
		stmts, err = ParseScript(m.Body)
		if err != nil {
			return Value{}, fmt.Errorf("macro %s: %w", m.Label(), err)
		}
		m.SetCompiled(stmts)
	}

	f := frame{
		locals:  make(map[string]Value),
		params:  params,
		cmdName: m.Label(),
	}
	for k, v := range captures {
		f.locals[k] = StringValue(v)
	}
	in.frames = append(in.frames, f)
	defer func() { in.frames = in.frames[:len(in.frames)-1] }()

	c, err := in.execBlock(stmts)
	if err != nil {
		return Value{}, err
	}
	if c.kind == ctrlReturn {
		return c.val, nil
	}
	return Value{}, nil
}

// RunBody parses and runs an anonymous body with parameters, used for
// hooks, key bindings, and process bodies. The parsed body is not cached.
func (in *Interpreter) RunBody(body string, params []string, captures map[string]string) error {
	stmts, err := ParseScript(body)
	if err != nil {
		return err
	}
	f := frame{locals: make(map[string]Value), params: params}
	for k, v := range captures {
		f.locals[k] = StringValue(v)
	}
	in.frames = append(in.frames, f)
	defer func() { in.frames = in.frames[:len(in.frames)-1] }()
	_, err = in.execBlock(stmts)
	return err
}

func splitParams(s string) []string {
	return strings.Fields(s)
}

// ── Context implementation ────────────────────────────────────────────

// GetVar looks a variable up, innermost frame first, then globals.
// Unknown variables read as empty and are noted in LastError.
func (in *Interpreter) GetVar(name string) (Value, bool) {
	for i := len(in.frames) - 1; i >= 0; i-- {
		if v, ok := in.frames[i].locals[name]; ok {
			return v, true
		}
	}
	if v, ok := in.globals[name]; ok {
		return v, true
	}
	in.LastError = "undefined variable: " + name
	return Value{}, false
}

// SetLocal writes to the innermost frame, or globals at top level.
func (in *Interpreter) SetLocal(name string, v Value) {
	if len(in.frames) > 0 {
		in.frames[len(in.frames)-1].locals[name] = v
		return
	}
	in.globals[name] = v
}

// SetGlobal writes a global variable.
func (in *Interpreter) SetGlobal(name string, v Value) {
	in.globals[name] = v
}

// Params returns the current frame's positional parameters.
func (in *Interpreter) Params() []string {
	if len(in.frames) > 0 {
		return in.frames[len(in.frames)-1].params
	}
	return nil
}

// CmdName returns the executing macro's name for {P}.
func (in *Interpreter) CmdName() string {
	if len(in.frames) > 0 {
		return in.frames[len(in.frames)-1].cmdName
	}
	return ""
}

// CallFunc dispatches expression function calls: builtins first, then
// named macros called as functions.
func (in *Interpreter) CallFunc(name string, args []Value) (Value, error) {
	if fn, ok := builtinFuncs[name]; ok {
		return fn(in, args)
	}
	if in.Macros != nil {
		if m, ok := in.Macros.GetByName(name); ok {
			params := make([]string, len(args))
			for i, a := range args {
				params[i] = a.String()
			}
			return in.invokeMacroFrame(m, params, nil)
		}
	}
	return Value{}, fmt.Errorf("unknown function: %s", name)
}

// EvalExprStr parses and evaluates an expression string.
func (in *Interpreter) EvalExprStr(src string) (Value, error) {
	return EvalExprString(src, in)
}
