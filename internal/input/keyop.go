package input

import "strings"

// KeyOp names a line-editor operation, the unit /dokey and default key
// bindings dispatch.
type KeyOp int

const (
	OpBspc KeyOp = iota
	OpDch
	OpDline
	OpDeol
	OpDsol
	OpDwordLeft
	OpDwordRight
	OpLeft
	OpRight
	OpHome
	OpEnd
	OpWordLeft
	OpWordRight
	OpYank
	OpRecallBack
	OpRecallForward
	OpSearchBack
	OpPage
	OpPageBack
	OpLine
	OpLineBack
	OpFlush
	OpRefresh
	OpNewline
)

var keyOpNames = map[string]KeyOp{
	"bspc":     OpBspc,
	"dch":      OpDch,
	"dline":    OpDline,
	"deol":     OpDeol,
	"dsol":     OpDsol,
	"dwordl":   OpDwordLeft,
	"dwordr":   OpDwordRight,
	"left":     OpLeft,
	"right":    OpRight,
	"home":     OpHome,
	"end":      OpEnd,
	"wleft":    OpWordLeft,
	"wright":   OpWordRight,
	"yank":     OpYank,
	"recallb":  OpRecallBack,
	"recallf":  OpRecallForward,
	"searchb":  OpSearchBack,
	"page":     OpPage,
	"pageback": OpPageBack,
	"line":     OpLine,
	"lineback": OpLineBack,
	"flush":    OpFlush,
	"refresh":  OpRefresh,
	"newline":  OpNewline,
}

// KeyOpByName parses a /dokey operation name, case-insensitively.
func KeyOpByName(name string) (KeyOp, bool) {
	op, ok := keyOpNames[strings.ToLower(name)]
	return op, ok
}

// DefaultKeymap maps terminal key names (as the UI layer reports them) to
// editor operations. Macro key bindings are consulted first; these are
// the fallback emacs-style defaults.
func DefaultKeymap() map[string]KeyOp {
	return map[string]KeyOp{
		"backspace": OpBspc,
		"ctrl+h":    OpBspc,
		"delete":    OpDch,
		"ctrl+d":    OpDch,
		"ctrl+u":    OpDsol,
		"ctrl+k":    OpDeol,
		"ctrl+w":    OpDwordLeft,
		"left":      OpLeft,
		"ctrl+b":    OpLeft,
		"right":     OpRight,
		"ctrl+f":    OpRight,
		"home":      OpHome,
		"ctrl+a":    OpHome,
		"end":       OpEnd,
		"ctrl+e":    OpEnd,
		"alt+b":     OpWordLeft,
		"alt+f":     OpWordRight,
		"ctrl+y":    OpYank,
		"up":        OpRecallBack,
		"ctrl+p":    OpRecallBack,
		"down":      OpRecallForward,
		"ctrl+n":    OpRecallForward,
		"ctrl+r":    OpSearchBack,
		"pgup":      OpPageBack,
		"pgdown":    OpPage,
		"enter":     OpNewline,
	}
}
