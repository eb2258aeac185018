package attr

import "strings"

// Decode parses raw server text into a TfString, translating ANSI SGR
// escape sequences into Attr values. Unrecognized escape sequences are
// stripped. Carriage returns are dropped; the caller splits on newlines
// before decoding.
func Decode(raw string) *TfString {
	out := NewTfString()
	var cur Attr
	rs := []rune(raw)
	for i := 0; i < len(rs); i++ {
		r := rs[i]
		switch {
		case r == 0x1b:
			if i+1 < len(rs) && rs[i+1] == '[' {
				// CSI sequence: collect parameter bytes up to the final byte.
				j := i + 2
				for j < len(rs) && (rs[j] == ';' || (rs[j] >= '0' && rs[j] <= '9')) {
					j++
				}
				if j < len(rs) && rs[j] == 'm' {
					cur = applySGR(cur, string(rs[i+2:j]))
				}
				// Non-SGR CSI sequences (cursor movement etc.) are dropped.
				i = j
			}
			// Bare ESC or two-byte sequences: drop the ESC, keep scanning.
		case r == '\r':
		case r == 0x07:
			out.Line |= Bell
		default:
			out.Push(r, cur)
		}
	}
	return out
}

// applySGR folds one SGR parameter list into the current attribute.
func applySGR(cur Attr, params string) Attr {
	if params == "" {
		return Empty
	}
	for _, p := range strings.Split(params, ";") {
		switch p {
		case "", "0":
			cur = Empty
		case "1":
			cur |= Bold
		case "2":
			cur |= Dim
		case "3":
			cur |= Italic
		case "4":
			cur |= Underline
		case "7":
			cur |= Reverse
		case "9":
			cur |= Strike
		case "22":
			cur &^= Bold | Dim
		case "23":
			cur &^= Italic
		case "24":
			cur &^= Underline
		case "27":
			cur &^= Reverse
		case "29":
			cur &^= Strike
		case "39":
			cur = cur.WithoutFg()
		case "49":
			cur = cur.WithoutBg()
		default:
			n := atoiSGR(p)
			switch {
			case n >= 30 && n <= 37:
				cur = cur.WithFg(n - 30)
			case n >= 90 && n <= 97:
				cur = cur.WithFg(n - 90 + 8)
			case n >= 40 && n <= 47:
				cur = cur.WithBg(n - 40)
			case n >= 100 && n <= 107:
				cur = cur.WithBg(n - 100 + 8)
			}
		}
	}
	return cur
}

func atoiSGR(s string) int {
	n := 0
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return -1
		}
		n = n*10 + int(s[i]-'0')
	}
	return n
}
