// Package conn runs one network connection per world: dialing with
// timeouts, optional TLS, the telnet state machine, MCCP decompression,
// and line assembly. Each connection is an independent goroutine owning
// its socket; it communicates with the event loop only by delivering
// messages through its sink and accepting writes through a bounded
// outbox, and is cancelled through its context.
package conn

import (
	"bytes"
	"compress/zlib"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/fogwraith/fugue-mud-client/internal/telnet"
)

// State is the connection lifecycle. Any state may transition to
// StateClosed on error.
type State int

const (
	StateResolving State = iota
	StateConnecting
	StateTLSHandshaking
	StateNegotiating
	StateEstablished
	StateClosing
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateResolving:
		return "resolving"
	case StateConnecting:
		return "connecting"
	case StateTLSHandshaking:
		return "tls-handshaking"
	case StateNegotiating:
		return "negotiating"
	case StateEstablished:
		return "established"
	case StateClosing:
		return "closing"
	default:
		return "closed"
	}
}

// Sink receives connection messages; the event loop installs a function
// that forwards them into its program.
type Sink func(msg any)

// StateMsg reports a lifecycle transition. Err is set when the
// transition to StateClosed was caused by a failure.
type StateMsg struct {
	World string
	State State
	Err   error
}

// LineMsg carries one complete inbound line (without its terminator), or
// a prompt candidate when Prompt is set.
type LineMsg struct {
	World  string
	Raw    []byte
	Prompt bool
}

// OOBMsg carries an ATCP or GMCP subnegotiation payload, delivered
// verbatim for hook dispatch.
type OOBMsg struct {
	World   string
	Kind    string // "ATCP" or "GMCP"
	Payload []byte
}

// EchoMsg reports a server-side ECHO toggle; Off means the client should
// stop local echo (password entry).
type EchoMsg struct {
	World string
	Off   bool
}

// Options configures a connection attempt.
type Options struct {
	TLS      bool
	TermType string
	Charset  string
	// Width and Height seed the NAWS advertisement.
	Width, Height int

	ConnectTimeout time.Duration
	TLSTimeout     time.Duration
	// IdleTimeout closes the connection after that long without data;
	// zero disables it.
	IdleTimeout time.Duration

	// OutboxSize bounds the outbound channel; sends beyond it fail fast.
	OutboxSize int
}

func (o *Options) fillDefaults() {
	if o.TermType == "" {
		o.TermType = "fugue"
	}
	if o.Charset == "" {
		o.Charset = "UTF-8"
	}
	if o.ConnectTimeout == 0 {
		o.ConnectTimeout = 30 * time.Second
	}
	if o.TLSTimeout == 0 {
		o.TLSTimeout = 15 * time.Second
	}
	if o.OutboxSize == 0 {
		o.OutboxSize = 256
	}
	if o.Width == 0 {
		o.Width = 80
	}
	if o.Height == 0 {
		o.Height = 24
	}
}

// ErrSendBufferFull is returned when the bounded outbox cannot accept
// another line; the caller decides how to surface it, never a silent
// drop.
var ErrSendBufferFull = errors.New("send buffer full")

// promptFlushDelay is how long a partial line may sit before it is
// flushed to the screen as a prompt candidate.
const promptFlushDelay = 100 * time.Millisecond

// Conn is the event loop's handle to one connection task.
type Conn struct {
	World string

	opts   Options
	host   string // for TLS server-name verification
	sink   Sink
	cancel context.CancelFunc

	outbox chan []byte

	mu     sync.Mutex
	sock   net.Conn
	neg    *telnet.Negotiator
	closed bool
}

// Dial starts a connection task for the world and returns its handle
// immediately; progress and failure arrive as StateMsg values.
func Dial(ctx context.Context, world, host, port string, opts Options, sink Sink) *Conn {
	opts.fillDefaults()
	ctx, cancel := context.WithCancel(ctx)
	c := &Conn{
		World:  world,
		opts:   opts,
		sink:   sink,
		cancel: cancel,
		host:   host,
		outbox: make(chan []byte, opts.OutboxSize),
		neg:    telnet.NewNegotiator(),
	}
	go c.run(ctx, host, port)
	return c
}

// NewWithConn wraps an established net.Conn (tests, STARTTLS restarts).
func NewWithConn(ctx context.Context, world string, sock net.Conn, opts Options, sink Sink) *Conn {
	opts.fillDefaults()
	ctx, cancel := context.WithCancel(ctx)
	c := &Conn{
		World:  world,
		opts:   opts,
		sink:   sink,
		cancel: cancel,
		outbox: make(chan []byte, opts.OutboxSize),
		neg:    telnet.NewNegotiator(),
		sock:   sock,
	}
	go c.serve(ctx)
	return c
}

// Close cancels the task; the socket closes at its next await point.
func (c *Conn) Close() {
	c.emit(StateMsg{World: c.World, State: StateClosing})
	c.cancel()
}

// Send queues one outbound line, CRLF-terminated unless noNewline, with
// telnet IAC escaping. Fails fast when the outbox is full.
func (c *Conn) Send(text string, noNewline bool) error {
	payload := telnet.EscapeData([]byte(text))
	if !noNewline {
		payload = append(payload, '\r', '\n')
	}
	select {
	case c.outbox <- payload:
		return nil
	default:
		return ErrSendBufferFull
	}
}

// SendNAWS advertises a new window size if NAWS is active.
func (c *Conn) SendNAWS(width, height int) {
	c.mu.Lock()
	active := c.neg.Us(telnet.OptNAWS)
	c.mu.Unlock()
	if active {
		c.write(telnet.BuildNAWS(uint16(width), uint16(height)))
	}
}

func (c *Conn) emit(msg any) { c.sink(msg) }

func (c *Conn) setSock(sock net.Conn) {
	c.mu.Lock()
	c.sock = sock
	c.mu.Unlock()
}

// write sends bytes directly on the socket with a short deadline. Used
// by the task itself for negotiation responses and by the writer loop.
func (c *Conn) write(b []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.sock == nil {
		return
	}
	_ = c.sock.SetWriteDeadline(time.Now().Add(5 * time.Second))
	_, _ = c.sock.Write(b)
}

// fail closes the socket and reports StateClosed with the cause.
func (c *Conn) fail(err error) {
	c.shutdown()
	c.emit(StateMsg{World: c.World, State: StateClosed, Err: err})
}

func (c *Conn) shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	if c.sock != nil {
		_ = c.sock.Close()
	}
}

// run dials and then serves the connection.
func (c *Conn) run(ctx context.Context, host, port string) {
	c.emit(StateMsg{World: c.World, State: StateResolving})

	dialer := &net.Dialer{Timeout: c.opts.ConnectTimeout}
	c.emit(StateMsg{World: c.World, State: StateConnecting})
	sock, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(host, port))
	if err != nil {
		c.emit(StateMsg{World: c.World, State: StateClosed, Err: err})
		return
	}

	if c.opts.TLS {
		c.emit(StateMsg{World: c.World, State: StateTLSHandshaking})
		tlsSock, err := c.handshakeTLS(ctx, sock, host)
		if err != nil {
			_ = sock.Close()
			c.emit(StateMsg{World: c.World, State: StateClosed, Err: err})
			return
		}
		sock = tlsSock
	}

	c.setSock(sock)
	c.serve(ctx)
}

// handshakeTLS wraps sock with TLS using the system root store.
func (c *Conn) handshakeTLS(ctx context.Context, sock net.Conn, host string) (net.Conn, error) {
	tlsSock := tls.Client(sock, &tls.Config{ServerName: host})
	hctx, hcancel := context.WithTimeout(ctx, c.opts.TLSTimeout)
	defer hcancel()
	if err := tlsSock.HandshakeContext(hctx); err != nil {
		return nil, fmt.Errorf("tls handshake: %w", err)
	}
	return tlsSock, nil
}

// serve runs the reader and writer loops over the established socket.
func (c *Conn) serve(ctx context.Context) {
	c.emit(StateMsg{World: c.World, State: StateNegotiating})

	// Close the socket when the context is cancelled so blocked reads
	// unwind; this is the task's cancellation point.
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			c.shutdown()
		case <-done:
		}
	}()
	defer close(done)

	// Offer NAWS and TTYPE up front so servers that wait on the client
	// see them without asking.
	c.write(c.negLocked(func(n *telnet.Negotiator) []byte { return n.SendWill(telnet.OptNAWS) }))
	c.write(c.negLocked(func(n *telnet.Negotiator) []byte { return n.SendWill(telnet.OptTType) }))

	go c.writeLoop(ctx)

	c.emit(StateMsg{World: c.World, State: StateEstablished})
	c.readLoop(ctx)
}

func (c *Conn) negLocked(f func(*telnet.Negotiator) []byte) []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return f(c.neg)
}

func (c *Conn) writeLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case payload := <-c.outbox:
			c.write(payload)
		}
	}
}

// readLoop pulls bytes from the socket (through the inflater once MCCP
// is active), walks them through the telnet FSM, and assembles lines.
func (c *Conn) readLoop(ctx context.Context) {
	parser := telnet.NewParser()
	var (
		lineBuf    []byte
		partialAt  time.Time
		inflater   io.ReadCloser
		rawReader  io.Reader
		compressed bool
	)
	c.mu.Lock()
	rawReader = c.sock
	sock := c.sock
	c.mu.Unlock()

	buf := make([]byte, 4096)
	for {
		if ctx.Err() != nil {
			c.shutdown()
			c.emit(StateMsg{World: c.World, State: StateClosed})
			return
		}

		// The read deadline implements both the idle timeout and the
		// prompt-flush delay for partial lines.
		deadline := time.Time{}
		if c.opts.IdleTimeout > 0 {
			deadline = time.Now().Add(c.opts.IdleTimeout)
		}
		if len(lineBuf) > 0 {
			flushAt := partialAt.Add(promptFlushDelay)
			if deadline.IsZero() || flushAt.Before(deadline) {
				deadline = flushAt
			}
		}
		_ = sock.SetReadDeadline(deadline)

		reader := rawReader
		if compressed {
			reader = inflater
		}
		n, err := reader.Read(buf)

		if n > 0 {
			chunk := buf[:n]
			for i := 0; i < len(chunk); i++ {
				events := parser.Feed(chunk[i : i+1])
				action := actNone
				for _, ev := range events {
					if a := c.handleEvent(ev, &lineBuf, &partialAt); a != actNone {
						action = a
					}
				}
				switch action {
				case actStartMCCP:
					// Everything after the COMPRESS2 subnegotiation is
					// zlib-compressed, including the rest of this chunk.
					rest := append([]byte(nil), chunk[i+1:]...)
					zr, zerr := zlib.NewReader(io.MultiReader(bytes.NewReader(rest), rawReader))
					if zerr != nil {
						c.fail(fmt.Errorf("mccp: %w", zerr))
						return
					}
					inflater = zr
					compressed = true
				case actStartTLS:
					tlsSock, terr := c.handshakeTLS(ctx, sock, c.host)
					if terr != nil {
						c.fail(terr)
						return
					}
					c.setSock(tlsSock)
					sock = tlsSock
					rawReader = tlsSock
				}
				if action == actStartMCCP {
					break
				}
			}
		}

		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				if len(lineBuf) > 0 && time.Now().After(partialAt.Add(promptFlushDelay)) {
					// Flush the partial line as a prompt candidate.
					c.emit(LineMsg{World: c.World, Raw: append([]byte(nil), lineBuf...), Prompt: true})
					lineBuf = lineBuf[:0]
					continue
				}
				if c.opts.IdleTimeout > 0 {
					c.fail(fmt.Errorf("idle timeout after %s", c.opts.IdleTimeout))
					return
				}
				continue
			}
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				c.shutdown()
				c.emit(StateMsg{World: c.World, State: StateClosed})
				return
			}
			if errors.Is(err, io.EOF) {
				if len(lineBuf) > 0 {
					c.flushLine(&lineBuf, false)
				}
				c.shutdown()
				c.emit(StateMsg{World: c.World, State: StateClosed})
				return
			}
			if compressed {
				// A broken compressed stream must surface, never be
				// passed through as raw bytes.
				c.fail(fmt.Errorf("mccp stream: %w", err))
				return
			}
			c.fail(err)
			return
		}
	}
}

// Stream-switching actions handleEvent can request.
const (
	actNone = iota
	actStartMCCP
	actStartTLS
)

// starttlsFollows is the FOLLOWS verb of the STARTTLS option.
const starttlsFollows byte = 1

// handleEvent processes one telnet event and returns the stream switch
// it requires, if any.
func (c *Conn) handleEvent(ev telnet.Event, lineBuf *[]byte, partialAt *time.Time) int {
	switch ev.Kind {
	case telnet.EventData:
		for _, b := range ev.Data {
			switch b {
			case '\n':
				c.flushLine(lineBuf, false)
			case '\r':
			default:
				if len(*lineBuf) == 0 {
					*partialAt = time.Now()
				}
				*lineBuf = append(*lineBuf, b)
			}
		}

	case telnet.EventWill:
		if resp := c.negLocked(func(n *telnet.Negotiator) []byte { return n.ReceiveWill(ev.Opt) }); resp != nil {
			c.write(resp)
		}
		switch ev.Opt {
		case telnet.OptEcho:
			c.emit(EchoMsg{World: c.World, Off: true})
		case telnet.OptStartTLS:
			// Only upgrade plaintext connections with a known hostname.
			if !c.opts.TLS && c.host != "" {
				c.write(telnet.BuildSubneg(telnet.OptStartTLS, []byte{starttlsFollows}))
			}
		}

	case telnet.EventWont:
		if resp := c.negLocked(func(n *telnet.Negotiator) []byte { return n.ReceiveWont(ev.Opt) }); resp != nil {
			c.write(resp)
		}
		if ev.Opt == telnet.OptEcho {
			c.emit(EchoMsg{World: c.World, Off: false})
		}

	case telnet.EventDo:
		if resp := c.negLocked(func(n *telnet.Negotiator) []byte { return n.ReceiveDo(ev.Opt) }); resp != nil {
			c.write(resp)
		}
		if ev.Opt == telnet.OptNAWS {
			c.write(telnet.BuildNAWS(uint16(c.opts.Width), uint16(c.opts.Height)))
		}

	case telnet.EventDont:
		if resp := c.negLocked(func(n *telnet.Negotiator) []byte { return n.ReceiveDont(ev.Opt) }); resp != nil {
			c.write(resp)
		}

	case telnet.EventSubneg:
		switch ev.Opt {
		case telnet.OptCompress2:
			return actStartMCCP
		case telnet.OptStartTLS:
			if len(ev.Data) == 1 && ev.Data[0] == starttlsFollows && !c.opts.TLS && c.host != "" {
				return actStartTLS
			}
		case telnet.OptTType:
			if len(ev.Data) == 1 && ev.Data[0] == telnet.TTypeSend {
				c.write(telnet.BuildTTypeIs(c.opts.TermType))
			}
		case telnet.OptCharset:
			if len(ev.Data) > 0 && ev.Data[0] == telnet.CharsetRequest {
				c.write(telnet.BuildCharsetAccepted(c.opts.Charset))
			}
		case telnet.OptATCP:
			c.emit(OOBMsg{World: c.World, Kind: "ATCP", Payload: ev.Data})
		case telnet.OptGMCP:
			c.emit(OOBMsg{World: c.World, Kind: "GMCP", Payload: ev.Data})
		}

	case telnet.EventGoAhead, telnet.EventEor:
		// Explicit prompt boundary.
		c.flushLine(lineBuf, true)
	}
	return actNone
}

func (c *Conn) flushLine(lineBuf *[]byte, prompt bool) {
	if prompt && len(*lineBuf) == 0 {
		return
	}
	c.emit(LineMsg{
		World:  c.World,
		Raw:    append([]byte(nil), *lineBuf...),
		Prompt: prompt,
	})
	*lineBuf = (*lineBuf)[:0]
}
