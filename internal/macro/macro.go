// Package macro implements the unit of user automation: a named rule that
// can fire on matching server text (trigger), on a lifecycle event (hook
// handler), on a key (binding), or by name (/def command), and the store
// that owns every macro and its dispatch indexes.
package macro

import (
	"fmt"
	"strings"

	"github.com/fogwraith/fugue-mud-client/internal/attr"
	"github.com/fogwraith/fugue-mud-client/internal/pattern"
)

// Macro is one user-defined rule.
//
// A macro is a trigger if Trig is set, a hook handler if Hooks is
// non-empty, and a key binding if Key is set; the three are not mutually
// exclusive.
type Macro struct {
	// Num is a monotonic serial assigned by the store at definition time.
	// At equal priority, the higher (newer) num fires first.
	Num int
	// Name is unique among live macros when non-empty.
	Name string
	Body string

	// Trig matches inbound server lines.
	Trig *pattern.Pattern
	// Hooks is the set of lifecycle events this macro handles.
	Hooks HookSet
	// HookArgs, when set, must additionally match the hook argument string.
	HookArgs *pattern.Pattern
	// Key is the key name this macro is bound to (/def -b).
	Key string
	// World restricts trigger matching to one world's text (/def -w).
	World string
	// WorldType restricts matching by world type (/def -T).
	WorldType *pattern.Pattern
	// ExprGuard is evaluated before the body runs (/def -E).
	ExprGuard string

	// Priority orders trigger dispatch; higher fires first (/def -p).
	Priority int
	// Probability is the percent chance the macro fires on a match
	// (/def -c). Default 100.
	Probability int
	// Shots is the remaining self-destruct count; 0 means unlimited
	// (/def -n).
	Shots int

	// Attr is merged into the display attributes of matched lines (-a).
	// A Gag bit suppresses display entirely.
	Attr attr.Attr

	Fallthru  bool // -F: later matching triggers also fire
	Quiet     bool // -q: suppress trigger feedback
	Invisible bool // -i: hidden from /list

	// compiled caches the parsed statement tree for the body. It is
	// populated lazily on first invocation and reused afterwards; the
	// concrete type belongs to the script package.
	compiled any
}

// IsTrigger reports whether the macro participates in trigger matching.
func (m *Macro) IsTrigger() bool { return m.Trig != nil }

// IsHook reports whether the macro handles at least one hook event.
func (m *Macro) IsHook() bool { return !m.Hooks.IsEmpty() }

// Label returns the macro's name, or "#num" for anonymous macros.
func (m *Macro) Label() string {
	if m.Name != "" {
		return m.Name
	}
	return fmt.Sprintf("#%d", m.Num)
}

// Compiled returns the cached parsed body, or nil.
func (m *Macro) Compiled() any { return m.compiled }

// SetCompiled caches the parsed body.
func (m *Macro) SetCompiled(tree any) { m.compiled = tree }

// ToDefCommand serializes the macro as a /def command suitable for /load,
// used by /save to regenerate a session.
func (m *Macro) ToDefCommand() string {
	var sb strings.Builder
	sb.WriteString("/def")
	if m.Invisible {
		sb.WriteString(" -i")
	}
	if m.Priority != 1 {
		fmt.Fprintf(&sb, " -p%d", m.Priority)
	}
	if m.Shots > 0 {
		fmt.Fprintf(&sb, " -n%d", m.Shots)
	}
	if m.Probability != 100 {
		fmt.Fprintf(&sb, " -c%d", m.Probability)
	}
	if m.Fallthru {
		sb.WriteString(" -F")
	}
	if m.Quiet {
		sb.WriteString(" -q")
	}
	if !m.Attr.IsEmpty() {
		fmt.Fprintf(&sb, " -a%s", m.Attr.FlagString())
	}
	if m.Key != "" {
		fmt.Fprintf(&sb, " -b'%s'", m.Key)
	}
	if m.World != "" {
		fmt.Fprintf(&sb, " -w%s", m.World)
	}
	if m.WorldType != nil {
		fmt.Fprintf(&sb, " -T'%s'", m.WorldType.Src())
	}
	if !m.Hooks.IsEmpty() {
		if m.HookArgs != nil {
			fmt.Fprintf(&sb, " -h'%s %s'", m.Hooks.Names(), m.HookArgs.Src())
		} else {
			fmt.Fprintf(&sb, " -h'%s'", m.Hooks.Names())
		}
	}
	if m.ExprGuard != "" {
		fmt.Fprintf(&sb, " -E'%s'", m.ExprGuard)
	}
	if m.Trig != nil {
		fmt.Fprintf(&sb, " -m%s -t'%s'", m.Trig.Mode(), m.Trig.Src())
	}
	if m.Name != "" {
		sb.WriteByte(' ')
		sb.WriteString(m.Name)
	}
	sb.WriteString(" = ")
	sb.WriteString(m.Body)
	return sb.String()
}
