package ui

import (
	"os"
	"time"
)

// Screen types
type Screen int

const (
	ScreenSession Screen = iota
	ScreenWorlds
	ScreenLogs
)

// procTickMsg drives the process scheduler.
type procTickMsg struct {
	at time.Time
}

// signalMsg delivers SIGHUP/SIGTERM/SIGINT from the signal goroutine.
type signalMsg struct {
	sig os.Signal
}

// editorDoneMsg returns control after an external /edit or /sh process.
type editorDoneMsg struct {
	path string // scratch file holding the edited input; empty for /sh
	err  error
}

// bridgeCmdMsg carries one command line from an embedded scripting host.
type bridgeCmdMsg struct {
	host string
	cmd  string
}
