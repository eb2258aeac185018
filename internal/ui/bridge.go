package ui

import (
	"errors"

	tea "github.com/charmbracelet/bubbletea"
)

// Bridge is the channel contract for an embedded scripting host. The
// host runs on its own goroutine and feeds command lines into the event
// loop through a bounded channel; when the channel is full, Submit
// returns an error to the caller instead of dropping the command.
type Bridge struct {
	name string
	cmds chan string
	done chan struct{}
}

// ErrBridgeBusy reports a full bridge channel; the host must retry or
// surface the failure to its caller.
var ErrBridgeBusy = errors.New("bridge command channel full")

// bridgeChannelCap bounds how many commands a host can have in flight.
const bridgeChannelCap = 64

// NewBridge registers a host channel on the model and starts the pump
// that forwards its commands into the program.
func (m *Model) NewBridge(name string) *Bridge {
	b := &Bridge{
		name: name,
		cmds: make(chan string, bridgeChannelCap),
		done: make(chan struct{}),
	}
	m.bridges[name] = b
	go b.pump(m.program.Send)
	return b
}

func (b *Bridge) pump(send func(tea.Msg)) {
	for {
		select {
		case <-b.done:
			return
		case cmd := <-b.cmds:
			send(bridgeCmdMsg{host: b.name, cmd: cmd})
		}
	}
}

// Submit queues one command line for the event loop. It never blocks:
// a full channel is the host's backpressure signal.
func (b *Bridge) Submit(cmd string) error {
	select {
	case b.cmds <- cmd:
		return nil
	default:
		return ErrBridgeBusy
	}
}

// Close stops the pump.
func (b *Bridge) Close() {
	close(b.done)
}

func (m *Model) handleBridgeCmd(msg tea.Msg) (tea.Model, tea.Cmd) {
	bm := msg.(bridgeCmdMsg)
	m.logger.Debug("bridge command", "host", bm.host, "cmd", bm.cmd)
	m.runInput(bm.cmd)
	return m, nil
}
