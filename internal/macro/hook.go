package macro

import (
	"fmt"
	"strings"
)

// Hook identifies a lifecycle event that macros can attach to.
type Hook int

const (
	HookActivity Hook = iota
	HookBamf
	HookBgText
	HookBgTrig
	HookConFail
	HookConflict
	HookConnect
	HookDisconnect
	HookIConFail
	HookKill
	HookLoad
	HookLoadFail
	HookLog
	HookLogin
	HookMail
	HookMore
	HookNoMacro
	HookPending
	HookPreActivity
	HookProcess
	HookPrompt
	HookProxy
	HookRedef
	HookResize
	HookSend
	HookShadow
	HookShell
	HookSigHup
	HookSigTerm
	HookSigUsr1
	HookSigUsr2
	HookWorld
	HookAtcp
	HookGmcp

	hookCount
)

var hookNames = [...]string{
	"ACTIVITY", "BAMF", "BGTEXT", "BGTRIG", "CONFAIL", "CONFLICT",
	"CONNECT", "DISCONNECT", "ICONFAIL", "KILL", "LOAD", "LOADFAIL",
	"LOG", "LOGIN", "MAIL", "MORE", "NOMACRO", "PENDING", "PREACTIVITY",
	"PROCESS", "PROMPT", "PROXY", "REDEF", "RESIZE", "SEND", "SHADOW",
	"SHELL", "SIGHUP", "SIGTERM", "SIGUSR1", "SIGUSR2", "WORLD",
	"ATCP", "GMCP",
}

// Name returns the canonical uppercase hook name used in scripts.
func (h Hook) Name() string {
	if h < 0 || int(h) >= len(hookNames) {
		return fmt.Sprintf("HOOK(%d)", int(h))
	}
	return hookNames[h]
}

// HookByName parses a hook name case-insensitively. "BACKGROUND" is
// accepted as an alias for BGTRIG for old scripts.
func HookByName(name string) (Hook, bool) {
	upper := strings.ToUpper(name)
	if upper == "BACKGROUND" {
		return HookBgTrig, true
	}
	for i, n := range hookNames {
		if n == upper {
			return Hook(i), true
		}
	}
	return 0, false
}

// NumHooks is the number of defined hook events.
const NumHooks = int(hookCount)

// HookSet is a bitmask of hooks.
type HookSet uint64

// HookSetNone is the empty set.
const HookSetNone HookSet = 0

// HookSetAll contains every defined hook. It is the OR of the defined
// variants, not the all-ones mask.
const HookSetAll HookSet = 1<<hookCount - 1

// Contains reports whether h is in the set.
func (s HookSet) Contains(h Hook) bool { return s&(1<<uint(h)) != 0 }

// With returns the set plus h.
func (s HookSet) With(h Hook) HookSet { return s | 1<<uint(h) }

// IsEmpty reports whether no hooks are in the set.
func (s HookSet) IsEmpty() bool { return s == 0 }

// Names returns the contained hook names joined by '|' (the /def -h form).
func (s HookSet) Names() string {
	var parts []string
	for h := Hook(0); h < hookCount; h++ {
		if s.Contains(h) {
			parts = append(parts, h.Name())
		}
	}
	return strings.Join(parts, "|")
}

// ParseHookSet parses a '|'-separated hook list.
func ParseHookSet(spec string) (HookSet, error) {
	var s HookSet
	for _, name := range strings.Split(spec, "|") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		h, ok := HookByName(name)
		if !ok {
			return 0, fmt.Errorf("invalid hook event %q", name)
		}
		s = s.With(h)
	}
	return s, nil
}
