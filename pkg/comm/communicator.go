// Package comm implements the duplex network communicator used to exchange
// short text messages with a Moduri unit.
//
// A Communicator owns one endpoint: a TCP listener serving a single peer at
// a time, a TCP client dialed out to a server on the unit, or a bound UDP
// socket paired with a fixed remote. A background
// goroutine receives (and, for stream endpoints, accepts), while the caller
// drives sends from the foreground, typically through CommandLoop. The two
// directions never touch the same side of the socket, so the data path
// needs no lock; shared lifecycle state sits behind an atomic running flag
// and a mutex.
package comm

import (
	"context"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/vexown/Moduri/pkg/config"
)

// BufferSize bounds a single receive. The wire protocol is unframed UTF-8
// text: one read is one message, larger payloads split across reads.
const BufferSize = 1024

// acceptRetryDelay spaces out accept retries after a failure while the
// communicator is still running.
const acceptRetryDelay = time.Second

// dialTimeout bounds the outbound connection attempt of a connect-mode
// stream endpoint.
const dialTimeout = 5 * time.Second

// Communicator is a long-lived duplex endpoint. Create it with New, bring
// it up with Start, and shut it down with Stop (safe from any goroutine,
// any number of times).
type Communicator struct {
	cfg    config.EndpointConfig
	kind   Kind
	role   Role
	sink   Sink
	log    *zap.Logger
	prompt string

	running  atomic.Bool
	stopOnce sync.Once
	done     chan struct{}
	wg       sync.WaitGroup

	mu       sync.Mutex
	state    State
	ln       net.Listener   // stream
	peer     net.Conn       // stream, non-nil while a peer is connected
	peerAddr net.Addr       // stream, set only while connected
	pc       net.PacketConn // datagram
	remote   net.Addr       // datagram fixed destination
}

// New builds a Communicator for the given endpoint. The sink receives every
// decoded inbound message; it must not block for long or receives back up.
func New(cfg config.EndpointConfig, sink Sink, logger *zap.Logger) (*Communicator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	kind, err := ParseKind(cfg.Kind)
	if err != nil {
		return nil, err
	}
	role, err := ParseRole(cfg.Mode)
	if err != nil {
		return nil, err
	}
	if sink == nil {
		return nil, fmt.Errorf("comm: sink is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	prompt := "Enter message to send (or 'quit' to exit): "
	if kind == KindDatagram {
		prompt = "> "
	}

	return &Communicator{
		cfg:    cfg,
		kind:   kind,
		role:   role,
		sink:   sink,
		log:    logger.Named("comm"),
		prompt: prompt,
		done:   make(chan struct{}),
		state:  StateIdle,
	}, nil
}

// Kind returns the endpoint's transport kind.
func (c *Communicator) Kind() Kind { return c.kind }

// Role returns the endpoint's stream role.
func (c *Communicator) Role() Role { return c.role }

// Start brings the endpoint up and launches the background receive task.
// Listen-mode endpoints bind locally; connect-mode stream endpoints dial
// the fixed remote. A bind, listen, or dial failure is fatal to this
// startup attempt; nothing is left running.
func (c *Communicator) Start() error {
	var loop func()
	switch {
	case c.kind == KindStream && c.role == RoleConnect:
		conn, err := c.dialPeer()
		if err != nil {
			return err
		}
		c.attachPeer(conn)
		loop = func() { c.connectLoop(conn) }
	case c.kind == KindStream:
		if err := c.startStream(); err != nil {
			return err
		}
		loop = c.acceptLoop
	case c.kind == KindDatagram:
		if err := c.startDatagram(); err != nil {
			return err
		}
		loop = c.recvLoop
	default:
		return fmt.Errorf("comm: unsupported kind %v", c.kind)
	}

	c.running.Store(true)
	if c.role == RoleConnect {
		c.setState(StateConnected)
	} else {
		c.setState(StateListening)
	}

	c.wg.Add(1)
	go loop()
	return nil
}

func (c *Communicator) startStream() error {
	lc := net.ListenConfig{Control: reuseAddrControl}
	ln, err := lc.Listen(context.Background(), "tcp", c.cfg.BindAddr())
	if err != nil {
		return fmt.Errorf("listen %s: %w", c.cfg.BindAddr(), err)
	}
	c.mu.Lock()
	c.ln = ln
	c.mu.Unlock()
	c.log.Info("listening", zap.String("kind", c.kind.String()), zap.String("addr", ln.Addr().String()))
	return nil
}

func (c *Communicator) startDatagram() error {
	remote, err := net.ResolveUDPAddr("udp", c.cfg.RemoteAddr())
	if err != nil {
		return fmt.Errorf("resolve remote %s: %w", c.cfg.RemoteAddr(), err)
	}
	pc, err := net.ListenPacket("udp", c.cfg.BindAddr())
	if err != nil {
		return fmt.Errorf("bind %s: %w", c.cfg.BindAddr(), err)
	}
	c.mu.Lock()
	c.pc = pc
	c.remote = remote
	c.mu.Unlock()
	c.log.Info("listening", zap.String("kind", c.kind.String()),
		zap.String("addr", pc.LocalAddr().String()), zap.String("remote", remote.String()))
	return nil
}

// Send transmits one text message. Stream endpoints write to the connected
// peer; with no peer the send is skipped and reported as StatusNotConnected.
// Datagram endpoints write to the fixed remote, fire-and-forget. Write
// failures are StatusTransientError with the cause attached; they never
// stop the communicator.
func (c *Communicator) Send(text string) (SendStatus, error) {
	if !c.running.Load() {
		return StatusNotConnected, fmt.Errorf("comm: communicator is not running")
	}

	switch c.kind {
	case KindStream:
		c.mu.Lock()
		conn := c.peer
		c.mu.Unlock()
		if conn == nil {
			return StatusNotConnected, nil
		}
		if _, err := conn.Write([]byte(text)); err != nil {
			c.log.Warn("send to peer failed", zap.Error(err))
			return StatusTransientError, err
		}
		return StatusSent, nil

	case KindDatagram:
		c.mu.Lock()
		pc, remote := c.pc, c.remote
		c.mu.Unlock()
		if _, err := pc.WriteTo([]byte(text), remote); err != nil {
			c.log.Warn("send datagram failed", zap.String("remote", remote.String()), zap.Error(err))
			return StatusTransientError, err
		}
		return StatusSent, nil
	}
	return StatusTransientError, fmt.Errorf("comm: unsupported kind %v", c.kind)
}

// Stop flips the running flag and closes every handle, unblocking any
// pending accept or read. The first caller wins; later calls are no-ops
// that return nil. Stop never fails on an already-closed handle beyond
// reporting the close error of the first invocation.
func (c *Communicator) Stop() error {
	var err error
	c.stopOnce.Do(func() {
		c.running.Store(false)
		close(c.done)

		c.mu.Lock()
		if c.ln != nil {
			err = multierr.Append(err, c.ln.Close())
		}
		if c.peer != nil {
			err = multierr.Append(err, c.peer.Close())
			c.peer = nil
			c.peerAddr = nil
		}
		if c.pc != nil {
			err = multierr.Append(err, c.pc.Close())
		}
		c.state = StateClosed
		c.mu.Unlock()

		c.log.Info("communicator stopped")
	})
	return err
}

// Done is closed once Stop has been requested.
func (c *Communicator) Done() <-chan struct{} { return c.done }

// Wait blocks until the background receive task has exited. Call after
// Stop to join it.
func (c *Communicator) Wait() { c.wg.Wait() }

// State reports the current connection state.
func (c *Communicator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// PeerAddr reports the connected peer's address, or nil when no stream
// peer is attached.
func (c *Communicator) PeerAddr() net.Addr {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.peerAddr
}

// LocalAddr reports the bound local address. Useful when binding to an
// ephemeral port.
func (c *Communicator) LocalAddr() net.Addr {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ln != nil {
		return c.ln.Addr()
	}
	if c.pc != nil {
		return c.pc.LocalAddr()
	}
	if c.peer != nil {
		return c.peer.LocalAddr()
	}
	return nil
}

func (c *Communicator) setState(s State) {
	c.mu.Lock()
	if c.state != StateClosed { // Closed is terminal
		c.state = s
	}
	c.mu.Unlock()
}

// deliver decodes one raw read and forwards it to the sink. Non-UTF-8
// payloads are dropped after logging; the loop keeps going.
func (c *Communicator) deliver(data []byte, src net.Addr) {
	if !utf8.Valid(data) {
		c.log.Warn("dropping non-UTF-8 payload",
			zap.Int("bytes", len(data)), zap.String("source", src.String()))
		return
	}
	raw := make([]byte, len(data))
	copy(raw, data)
	c.sink.Consume(InboundMessage{
		Raw:    raw,
		Text:   string(raw),
		Source: src,
		Time:   time.Now(),
	})
}
