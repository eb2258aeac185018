package script

import (
	"strconv"
	"strings"
)

// Expand performs the substitution pass over src before a command is
// dispatched:
//
//	%name %{name} ${name}   variable value
//	{n} %n                  positional parameter n (1-based)
//	{#} %#                  parameter count
//	{*} %*                  all parameters joined with spaces
//	{L} %L                  last parameter
//	{-L} %-L                all but the last parameter
//	{-n} %-n                parameters from n+1 onward
//	{P} %P                  current command/macro name
//	{x-default}             value of x, or default when unset/empty;
//	                        defaults nest ({a-%{b-c}}) via depth tracking
//	$[expr] %(expr)         inline expression result
//	@@name                  indirect: look up %name, then the named value
//	$$                      literal $
func Expand(src string, ctx Context) (string, error) {
	var out strings.Builder
	out.Grow(len(src))
	rs := []rune(src)
	i := 0
	for i < len(rs) {
		r := rs[i]
		switch r {
		case '@':
			if i+1 < len(rs) && rs[i+1] == '@' {
				i += 2
				start := i
				if i < len(rs) && isIdentStartRune(rs[i]) {
					i++
					for i < len(rs) && isIdentRune(rs[i]) {
						i++
					}
				}
				inner := lookupVar(string(rs[start:i]), ctx)
				out.WriteString(lookupVar(inner, ctx))
				continue
			}
			out.WriteByte('@')
			i++

		case '%':
			if i+1 >= len(rs) {
				out.WriteByte('%')
				i++
				continue
			}
			next := rs[i+1]
			switch {
			case next == '(':
				exprSrc, rest, ok := scanDelimited(rs[i+2:], '(', ')')
				if !ok {
					return "", errUnclosed("%(")
				}
				expanded, err := Expand(exprSrc, ctx)
				if err != nil {
					return "", err
				}
				v, err := ctx.EvalExprStr(expanded)
				if err != nil {
					return "", err
				}
				out.WriteString(v.String())
				i = len(rs) - len(rest)
			case next == '{':
				name, rest, ok := scanBraceName(rs[i+2:])
				if !ok {
					return "", errUnclosed("%{")
				}
				s, err := resolveBrace(name, ctx)
				if err != nil {
					return "", err
				}
				out.WriteString(s)
				i = len(rs) - len(rest)
			case next == '#':
				out.WriteString(itoa(len(ctx.Params())))
				i += 2
			case next == '*':
				out.WriteString(strings.Join(ctx.Params(), " "))
				i += 2
			case next == 'P':
				out.WriteString(ctx.CmdName())
				i += 2
			case next == 'L':
				params := ctx.Params()
				if len(params) > 0 {
					out.WriteString(params[len(params)-1])
				}
				i += 2
			case next == '-':
				consumed, text := expandDashForm(rs[i+2:], ctx)
				if consumed == 0 {
					out.WriteString("%-")
				} else {
					out.WriteString(text)
				}
				i += 2 + consumed
			case next >= '1' && next <= '9':
				j := i + 1
				for j < len(rs) && rs[j] >= '0' && rs[j] <= '9' {
					j++
				}
				n := atoiRunes(rs[i+1 : j])
				params := ctx.Params()
				if n >= 1 && n <= len(params) {
					out.WriteString(params[n-1])
				}
				i = j
			case isIdentStartRune(next):
				j := i + 1
				for j < len(rs) && isIdentRune(rs[j]) {
					j++
				}
				out.WriteString(lookupVar(string(rs[i+1:j]), ctx))
				i = j
			default:
				out.WriteByte('%')
				i++
			}

		case '{':
			name, rest, ok := scanBraceName(rs[i+1:])
			if !ok {
				return "", errUnclosed("{")
			}
			s, err := resolveBrace(name, ctx)
			if err != nil {
				return "", err
			}
			out.WriteString(s)
			i = len(rs) - len(rest)

		case '$':
			if i+1 >= len(rs) {
				out.WriteByte('$')
				i++
				continue
			}
			switch rs[i+1] {
			case '[':
				exprSrc, rest, ok := scanDelimited(rs[i+2:], '[', ']')
				if !ok {
					return "", errUnclosed("$[")
				}
				// Pre-expand so %var references substitute before the
				// expression evaluator treats '%' as modulo.
				expanded, err := Expand(exprSrc, ctx)
				if err != nil {
					return "", err
				}
				v, err := ctx.EvalExprStr(expanded)
				if err != nil {
					return "", err
				}
				out.WriteString(v.String())
				i = len(rs) - len(rest)
			case '{':
				name, rest, ok := scanBraceName(rs[i+2:])
				if !ok {
					return "", errUnclosed("${")
				}
				s, err := resolveBrace(name, ctx)
				if err != nil {
					return "", err
				}
				out.WriteString(s)
				i = len(rs) - len(rest)
			case '$':
				out.WriteByte('$')
				i += 2
			default:
				out.WriteByte('$')
				i++
			}

		default:
			out.WriteRune(r)
			i++
		}
	}
	return out.String(), nil
}

type unclosedError struct{ open string }

func (e *unclosedError) Error() string { return "unclosed " + e.open }

func errUnclosed(open string) error { return &unclosedError{open: open} }

// expandDashForm handles %-L and %-N. Returns runes consumed after the
// "%-" prefix and the substitution text; consumed 0 means not recognized.
func expandDashForm(rs []rune, ctx Context) (int, string) {
	if len(rs) == 0 {
		return 0, ""
	}
	params := ctx.Params()
	if rs[0] == 'L' {
		if len(params) > 1 {
			return 1, strings.Join(params[:len(params)-1], " ")
		}
		return 1, ""
	}
	if rs[0] >= '0' && rs[0] <= '9' {
		j := 0
		for j < len(rs) && rs[j] >= '0' && rs[j] <= '9' {
			j++
		}
		n := atoiRunes(rs[:j])
		if n < len(params) {
			return j, strings.Join(params[n:], " ")
		}
		return j, ""
	}
	return 0, ""
}

// scanBraceName reads up to the matching '}', tracking nested braces so
// that defaults like {a-%{b}} capture "a-%{b}". Returns the name, the
// remaining runes after the '}', and whether the brace was closed.
func scanBraceName(rs []rune) (string, []rune, bool) {
	depth := 0
	for i := 0; i < len(rs); i++ {
		switch rs[i] {
		case '{':
			depth++
		case '}':
			if depth == 0 {
				return string(rs[:i]), rs[i+1:], true
			}
			depth--
		}
	}
	return "", nil, false
}

// scanDelimited reads to the matching close delimiter with depth tracking.
func scanDelimited(rs []rune, open, close rune) (string, []rune, bool) {
	depth := 0
	for i := 0; i < len(rs); i++ {
		switch rs[i] {
		case open:
			depth++
		case close:
			if depth == 0 {
				return string(rs[:i]), rs[i+1:], true
			}
			depth--
		}
	}
	return "", nil, false
}

// resolveBrace handles {name}, {n}, {#}, {*}, {L}, {-L}, {-n}, {P}, and
// all of their -default forms.
func resolveBrace(name string, ctx Context) (string, error) {
	params := ctx.Params()

	switch name {
	case "#":
		return itoa(len(params)), nil
	case "*":
		return strings.Join(params, " "), nil
	case "P":
		return ctx.CmdName(), nil
	case "L":
		if len(params) > 0 {
			return params[len(params)-1], nil
		}
		return "", nil
	case "-L":
		if len(params) > 1 {
			return strings.Join(params[:len(params)-1], " "), nil
		}
		return "", nil
	}

	// {*-default}
	if rest, ok := strings.CutPrefix(name, "*-"); ok {
		if len(params) > 0 {
			return strings.Join(params, " "), nil
		}
		return Expand(rest, ctx)
	}

	// {-L...} and {-N...}
	if rest, ok := strings.CutPrefix(name, "-"); ok {
		if rest == "L" || strings.HasPrefix(rest, "L-") {
			if len(params) > 1 {
				return strings.Join(params[:len(params)-1], " "), nil
			}
			if def, ok := strings.CutPrefix(rest, "L-"); ok {
				return Expand(def, ctx)
			}
			return "", nil
		}
		numStr, def := splitAtDash(rest)
		if n, ok := atoiStr(numStr); ok {
			if n < len(params) {
				return strings.Join(params[n:], " "), nil
			}
			if def != "" {
				return Expand(def, ctx)
			}
			return "", nil
		}
		return "", nil
	}

	key, def := splitAtDash(name)

	// {N} / {N-default}
	if n, ok := atoiStr(key); ok {
		if n >= 1 && n <= len(params) {
			return params[n-1], nil
		}
		if def != "" {
			return Expand(def, ctx)
		}
		return "", nil
	}

	// {L-default}
	if key == "L" {
		if len(params) > 0 {
			return params[len(params)-1], nil
		}
		if def != "" {
			return Expand(def, ctx)
		}
		return "", nil
	}

	// Variable with optional default.
	if v, ok := ctx.GetVar(key); ok {
		s := v.String()
		if s != "" {
			return s, nil
		}
	}
	if def != "" {
		return Expand(def, ctx)
	}
	return "", nil
}

func splitAtDash(s string) (string, string) {
	if i := strings.IndexByte(s, '-'); i >= 0 {
		return s[:i], s[i+1:]
	}
	return s, ""
}

func lookupVar(name string, ctx Context) string {
	if v, ok := ctx.GetVar(name); ok {
		return v.String()
	}
	return ""
}

func isIdentStartRune(r rune) bool {
	return r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r == '_'
}

func isIdentRune(r rune) bool {
	return isIdentStartRune(r) || r >= '0' && r <= '9'
}

func itoa(n int) string { return strconv.Itoa(n) }

func atoiRunes(rs []rune) int {
	n := 0
	for _, r := range rs {
		n = n*10 + int(r-'0')
	}
	return n
}

func atoiStr(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	n := 0
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
		n = n*10 + int(s[i]-'0')
	}
	return n, true
}
