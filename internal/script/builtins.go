package script

import (
	"fmt"
	"math"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/fogwraith/fugue-mud-client/internal/macro"
	"github.com/fogwraith/fugue-mud-client/internal/pattern"
)

// InfoFuncs lets the event loop expose read-only session facts to
// expression functions without the interpreter holding event-loop state.
type InfoFuncs struct {
	WorldName func() string
	MoreSize  func() int
	NumActive func() int
}

// builtinFunc implements one expression function; arguments arrive
// evaluated.
type builtinFunc func(in *Interpreter, args []Value) (Value, error)

var builtinFuncs = map[string]builtinFunc{
	// Strings.
	"strlen":  fnStrlen,
	"strcat":  fnStrcat,
	"substr":  fnSubstr,
	"strcmp":  fnStrcmp,
	"strncmp": fnStrncmp,
	"strstr":  fnStrstr,
	"strrep":  fnStrrep,
	"replace": fnReplace,
	"toupper": fnToupper,
	"tolower": fnTolower,
	"pad":     fnPad,
	"ascii":   fnAscii,
	"char":    fnChar,

	// Math.
	"abs":   fnAbs,
	"mod":   fnMod,
	"pow":   fnPow,
	"sqrt":  fnSqrt,
	"exp":   fnExp,
	"ln":    fnLn,
	"sin":   fnSin,
	"cos":   fnCos,
	"tan":   fnTan,
	"asin":  fnAsin,
	"acos":  fnAcos,
	"atan":  fnAtan,
	"trunc": fnTrunc,
	"rand":  fnRand,

	// Time and environment.
	"time":    fnTime,
	"ftime":   fnFtime,
	"mktime":  fnMktime,
	"getpid":  fnGetpid,
	"systype": fnSystype,
	"getenv":  fnGetenv,

	// Session inspection.
	"whatis":   fnWhatis,
	"world":    fnWorld,
	"moresize": fnMoresize,
	"nactive":  fnNactive,
	"regmatch": fnRegmatch,
	"getopts":  fnGetopts,
}

func argCount(name string, args []Value, min, max int) error {
	if len(args) < min || (max >= 0 && len(args) > max) {
		return fmt.Errorf("%s: wrong number of arguments", name)
	}
	return nil
}

// ── strings ───────────────────────────────────────────────────────────

func fnStrlen(in *Interpreter, args []Value) (Value, error) {
	if err := argCount("strlen", args, 1, 1); err != nil {
		return Value{}, err
	}
	return IntValue(int64(len([]rune(args[0].String())))), nil
}

func fnStrcat(in *Interpreter, args []Value) (Value, error) {
	out := TfStringValue(nil)
	for _, a := range args {
		out, _ = evalBinOp(OpCat, out, a)
	}
	return out, nil
}

func fnSubstr(in *Interpreter, args []Value) (Value, error) {
	if err := argCount("substr", args, 2, 3); err != nil {
		return Value{}, err
	}
	rs := []rune(args[0].String())
	start := int(args[1].AsInt())
	if start < 0 {
		start = 0
	}
	if start > len(rs) {
		start = len(rs)
	}
	end := len(rs)
	if len(args) == 3 {
		end = start + int(args[2].AsInt())
		if end > len(rs) {
			end = len(rs)
		}
		if end < start {
			end = start
		}
	}
	return StringValue(string(rs[start:end])), nil
}

func fnStrcmp(in *Interpreter, args []Value) (Value, error) {
	if err := argCount("strcmp", args, 2, 2); err != nil {
		return Value{}, err
	}
	return IntValue(int64(strings.Compare(args[0].String(), args[1].String()))), nil
}

func fnStrncmp(in *Interpreter, args []Value) (Value, error) {
	if err := argCount("strncmp", args, 3, 3); err != nil {
		return Value{}, err
	}
	n := int(args[2].AsInt())
	a := truncRunes(args[0].String(), n)
	b := truncRunes(args[1].String(), n)
	return IntValue(int64(strings.Compare(a, b))), nil
}

func truncRunes(s string, n int) string {
	rs := []rune(s)
	if n < len(rs) {
		rs = rs[:n]
	}
	return string(rs)
}

func fnStrstr(in *Interpreter, args []Value) (Value, error) {
	if err := argCount("strstr", args, 2, 2); err != nil {
		return Value{}, err
	}
	idx := strings.Index(args[0].String(), args[1].String())
	return IntValue(int64(idx)), nil
}

func fnStrrep(in *Interpreter, args []Value) (Value, error) {
	if err := argCount("strrep", args, 2, 2); err != nil {
		return Value{}, err
	}
	n := int(args[1].AsInt())
	if n < 0 {
		n = 0
	}
	return StringValue(strings.Repeat(args[0].String(), n)), nil
}

func fnReplace(in *Interpreter, args []Value) (Value, error) {
	if err := argCount("replace", args, 3, 3); err != nil {
		return Value{}, err
	}
	return StringValue(strings.ReplaceAll(args[2].String(), args[0].String(), args[1].String())), nil
}

func fnToupper(in *Interpreter, args []Value) (Value, error) {
	if err := argCount("toupper", args, 1, 1); err != nil {
		return Value{}, err
	}
	return StringValue(strings.ToUpper(args[0].String())), nil
}

func fnTolower(in *Interpreter, args []Value) (Value, error) {
	if err := argCount("tolower", args, 1, 1); err != nil {
		return Value{}, err
	}
	return StringValue(strings.ToLower(args[0].String())), nil
}

func fnPad(in *Interpreter, args []Value) (Value, error) {
	// pad(s1, n1, s2, n2, ...): positive n pads right-aligned, negative
	// left-aligned.
	var sb strings.Builder
	for i := 0; i+1 < len(args); i += 2 {
		s := args[i].String()
		n := int(args[i+1].AsInt())
		w := len([]rune(s))
		switch {
		case n > 0 && w < n:
			sb.WriteString(strings.Repeat(" ", n-w))
			sb.WriteString(s)
		case n < 0 && w < -n:
			sb.WriteString(s)
			sb.WriteString(strings.Repeat(" ", -n-w))
		default:
			sb.WriteString(s)
		}
	}
	if len(args)%2 == 1 {
		sb.WriteString(args[len(args)-1].String())
	}
	return StringValue(sb.String()), nil
}

func fnAscii(in *Interpreter, args []Value) (Value, error) {
	if err := argCount("ascii", args, 1, 1); err != nil {
		return Value{}, err
	}
	rs := []rune(args[0].String())
	if len(rs) == 0 {
		return IntValue(0), nil
	}
	return IntValue(int64(rs[0])), nil
}

func fnChar(in *Interpreter, args []Value) (Value, error) {
	if err := argCount("char", args, 1, 1); err != nil {
		return Value{}, err
	}
	return StringValue(string(rune(args[0].AsInt()))), nil
}

// ── math ──────────────────────────────────────────────────────────────

func fnAbs(in *Interpreter, args []Value) (Value, error) {
	if err := argCount("abs", args, 1, 1); err != nil {
		return Value{}, err
	}
	if args[0].Kind() == KindFloat {
		return FloatValue(math.Abs(args[0].AsFloat())), nil
	}
	n := args[0].AsInt()
	if n < 0 {
		n = -n
	}
	return IntValue(n), nil
}

func fnMod(in *Interpreter, args []Value) (Value, error) {
	if err := argCount("mod", args, 2, 2); err != nil {
		return Value{}, err
	}
	return args[0].Rem(args[1])
}

func fnPow(in *Interpreter, args []Value) (Value, error) {
	if err := argCount("pow", args, 2, 2); err != nil {
		return Value{}, err
	}
	return FloatValue(math.Pow(args[0].AsFloat(), args[1].AsFloat())), nil
}

func float1(name string, args []Value, f func(float64) float64) (Value, error) {
	if err := argCount(name, args, 1, 1); err != nil {
		return Value{}, err
	}
	return FloatValue(f(args[0].AsFloat())), nil
}

func fnSqrt(in *Interpreter, args []Value) (Value, error) { return float1("sqrt", args, math.Sqrt) }
func fnExp(in *Interpreter, args []Value) (Value, error)  { return float1("exp", args, math.Exp) }
func fnLn(in *Interpreter, args []Value) (Value, error)   { return float1("ln", args, math.Log) }
func fnSin(in *Interpreter, args []Value) (Value, error)  { return float1("sin", args, math.Sin) }
func fnCos(in *Interpreter, args []Value) (Value, error)  { return float1("cos", args, math.Cos) }
func fnTan(in *Interpreter, args []Value) (Value, error)  { return float1("tan", args, math.Tan) }
func fnAsin(in *Interpreter, args []Value) (Value, error) { return float1("asin", args, math.Asin) }
func fnAcos(in *Interpreter, args []Value) (Value, error) { return float1("acos", args, math.Acos) }
func fnAtan(in *Interpreter, args []Value) (Value, error) { return float1("atan", args, math.Atan) }

func fnTrunc(in *Interpreter, args []Value) (Value, error) {
	if err := argCount("trunc", args, 1, 1); err != nil {
		return Value{}, err
	}
	return IntValue(args[0].AsInt()), nil
}

func fnRand(in *Interpreter, args []Value) (Value, error) {
	if err := argCount("rand", args, 0, 1); err != nil {
		return Value{}, err
	}
	if len(args) == 0 {
		return IntValue(int64(macro.RandInt(1 << 31))), nil
	}
	n := int(args[0].AsInt())
	if n <= 0 {
		return IntValue(0), nil
	}
	return IntValue(int64(macro.RandInt(n))), nil
}

// ── time and environment ──────────────────────────────────────────────

func fnTime(in *Interpreter, args []Value) (Value, error) {
	return IntValue(time.Now().Unix()), nil
}

// fnFtime formats a unix timestamp with a strftime-style format string.
func fnFtime(in *Interpreter, args []Value) (Value, error) {
	if err := argCount("ftime", args, 0, 2); err != nil {
		return Value{}, err
	}
	format := "%Y-%m-%d %H:%M:%S"
	t := time.Now()
	if len(args) >= 1 {
		format = args[0].String()
	}
	if len(args) == 2 {
		t = time.Unix(args[1].AsInt(), 0)
	}
	return StringValue(strftime(format, t)), nil
}

// strftime implements the directives TF scripts actually use.
func strftime(format string, t time.Time) string {
	var sb strings.Builder
	for i := 0; i < len(format); i++ {
		if format[i] != '%' || i+1 >= len(format) {
			sb.WriteByte(format[i])
			continue
		}
		i++
		switch format[i] {
		case 'Y':
			fmt.Fprintf(&sb, "%04d", t.Year())
		case 'm':
			fmt.Fprintf(&sb, "%02d", int(t.Month()))
		case 'd':
			fmt.Fprintf(&sb, "%02d", t.Day())
		case 'H':
			fmt.Fprintf(&sb, "%02d", t.Hour())
		case 'M':
			fmt.Fprintf(&sb, "%02d", t.Minute())
		case 'S':
			fmt.Fprintf(&sb, "%02d", t.Second())
		case 'j':
			fmt.Fprintf(&sb, "%03d", t.YearDay())
		case 'a':
			sb.WriteString(t.Format("Mon"))
		case 'b':
			sb.WriteString(t.Format("Jan"))
		case '%':
			sb.WriteByte('%')
		default:
			sb.WriteByte('%')
			sb.WriteByte(format[i])
		}
	}
	return sb.String()
}

func fnMktime(in *Interpreter, args []Value) (Value, error) {
	if err := argCount("mktime", args, 6, 6); err != nil {
		return Value{}, err
	}
	t := time.Date(
		int(args[0].AsInt()), time.Month(args[1].AsInt()), int(args[2].AsInt()),
		int(args[3].AsInt()), int(args[4].AsInt()), int(args[5].AsInt()),
		0, time.Local,
	)
	return IntValue(t.Unix()), nil
}

func fnGetpid(in *Interpreter, args []Value) (Value, error) {
	return IntValue(int64(os.Getpid())), nil
}

func fnSystype(in *Interpreter, args []Value) (Value, error) {
	switch runtime.GOOS {
	case "windows":
		return StringValue("windows"), nil
	default:
		return StringValue("unix"), nil
	}
}

func fnGetenv(in *Interpreter, args []Value) (Value, error) {
	if err := argCount("getenv", args, 1, 1); err != nil {
		return Value{}, err
	}
	return StringValue(os.Getenv(args[0].String())), nil
}

// ── session inspection ────────────────────────────────────────────────

func fnWhatis(in *Interpreter, args []Value) (Value, error) {
	if err := argCount("whatis", args, 1, 1); err != nil {
		return Value{}, err
	}
	return StringValue(args[0].TypeName()), nil
}

func fnWorld(in *Interpreter, args []Value) (Value, error) {
	if in.Info.WorldName != nil {
		return StringValue(in.Info.WorldName()), nil
	}
	return StringValue(""), nil
}

func fnMoresize(in *Interpreter, args []Value) (Value, error) {
	if in.Info.MoreSize != nil {
		return IntValue(int64(in.Info.MoreSize())), nil
	}
	return IntValue(0), nil
}

func fnNactive(in *Interpreter, args []Value) (Value, error) {
	if in.Info.NumActive != nil {
		return IntValue(int64(in.Info.NumActive())), nil
	}
	return IntValue(0), nil
}

// fnRegmatch runs regmatch(pattern, text): compiles pattern as a regexp,
// sets P0..Pn / PL / PR locals from the match, and returns 1 or 0.
func fnRegmatch(in *Interpreter, args []Value) (Value, error) {
	if err := argCount("regmatch", args, 2, 2); err != nil {
		return Value{}, err
	}
	p, err := pattern.Compile(pattern.Regexp, args[0].String())
	if err != nil {
		return Value{}, err
	}
	text := args[1].String()
	m := p.FindSubmatch(text)
	if m == nil {
		return IntValue(0), nil
	}
	in.SetLocal("P0", StringValue(text[m[0]:m[1]]))
	in.SetLocal("PL", StringValue(text[:m[0]]))
	in.SetLocal("PR", StringValue(text[m[1]:]))
	for g := 1; g*2+1 < len(m); g++ {
		if m[g*2] < 0 {
			in.SetLocal(fmt.Sprintf("P%d", g), StringValue(""))
			continue
		}
		in.SetLocal(fmt.Sprintf("P%d", g), StringValue(text[m[g*2]:m[g*2+1]]))
	}
	return IntValue(1), nil
}

// fnGetopts implements getopts(format[, defaults]): parses leading -X
// options from the current frame's positional parameters, sets opt_X
// locals, and replaces the parameters with the remaining arguments. A
// letter followed by ':' in the format takes a value.
func fnGetopts(in *Interpreter, args []Value) (Value, error) {
	if err := argCount("getopts", args, 1, 2); err != nil {
		return Value{}, err
	}
	if len(in.frames) == 0 {
		return IntValue(0), nil
	}
	format := args[0].String()
	defaultVal := ""
	if len(args) == 2 {
		defaultVal = args[1].String()
	}

	takesValue := map[byte]bool{}
	for i := 0; i < len(format); i++ {
		c := format[i]
		if c == ':' {
			continue
		}
		takesValue[c] = i+1 < len(format) && format[i+1] == ':'
	}

	// Initialize every declared option to the default so scripts can test
	// {opt_X-} without tripping the unknown-variable path.
	for c := range takesValue {
		in.SetLocal("opt_"+string(c), StringValue(defaultVal))
	}

	f := &in.frames[len(in.frames)-1]
	params := f.params
	for len(params) > 0 {
		p := params[0]
		if len(p) < 2 || p[0] != '-' {
			break
		}
		if p == "--" {
			params = params[1:]
			break
		}
		c := p[1]
		wantsVal, known := takesValue[c]
		if !known {
			in.Errorf("%s: invalid option -%c", f.cmdName, c)
			return IntValue(0), nil
		}
		name := "opt_" + string(c)
		switch {
		case !wantsVal:
			in.SetLocal(name, IntValue(1))
			params = params[1:]
		case len(p) > 2:
			in.SetLocal(name, StringValue(p[2:]))
			params = params[1:]
		case len(params) >= 2:
			in.SetLocal(name, StringValue(params[1]))
			params = params[2:]
		default:
			in.Errorf("%s: option -%c requires a value", f.cmdName, c)
			return IntValue(0), nil
		}
	}
	f.params = params
	return IntValue(1), nil
}
