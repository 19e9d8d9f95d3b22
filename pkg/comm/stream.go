package comm

import (
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"go.uber.org/zap"
)

// acceptLoop serves stream peers one at a time. The listener's backlog is
// irrelevant here: a new accept is not attempted until the current peer is
// gone, which is what gives the endpoint its serial-peer contract. Accept
// failures while running are retried after a fixed backoff; once Stop has
// closed the listener the loop exits.
func (c *Communicator) acceptLoop() {
	defer c.wg.Done()

	for c.running.Load() {
		c.log.Info("waiting for connection")
		conn, err := c.ln.Accept()
		if err != nil {
			if !c.running.Load() {
				return
			}
			c.log.Warn("accept failed, retrying", zap.Error(err))
			select {
			case <-time.After(acceptRetryDelay):
			case <-c.done:
				return
			}
			continue
		}

		c.attachPeer(conn)
		c.log.Info("peer connected", zap.String("peer", conn.RemoteAddr().String()))
		c.servePeer(conn)
		c.detachPeer(conn)
	}
}

// servePeer reads from the connected peer until it disconnects, a read
// fails, or shutdown closes the socket. It never writes; sends go through
// Send on the foreground task.
func (c *Communicator) servePeer(conn net.Conn) {
	buf := make([]byte, BufferSize)
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			// a read can return bytes together with an error; the bytes
			// come first so a peer's final message before a reset is kept
			c.deliver(buf[:n], conn.RemoteAddr())
		}
		if err != nil {
			switch {
			case errors.Is(err, io.EOF):
				// graceful close: zero-length read on the wire
				c.log.Info("peer disconnected", zap.String("peer", conn.RemoteAddr().String()))
			case !c.running.Load():
				// expected shutdown path, exit silently
			default:
				c.log.Warn("read from peer failed", zap.Error(err))
			}
			return
		}
	}
}

// dialPeer establishes the outbound connection for a connect-mode stream
// endpoint.
func (c *Communicator) dialPeer() (net.Conn, error) {
	conn, err := net.DialTimeout("tcp", c.cfg.RemoteAddr(), dialTimeout)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", c.cfg.RemoteAddr(), err)
	}
	c.log.Info("connected", zap.String("peer", conn.RemoteAddr().String()),
		zap.String("local", conn.LocalAddr().String()))
	return conn, nil
}

// connectLoop reads from the dialed peer until it goes away. A connect
// endpoint has exactly one peer for its lifetime, so losing it stops the
// communicator and releases anything blocked on Done.
func (c *Communicator) connectLoop(conn net.Conn) {
	defer c.wg.Done()
	c.servePeer(conn)
	c.detachPeer(conn)
	_ = c.Stop()
}

func (c *Communicator) attachPeer(conn net.Conn) {
	c.mu.Lock()
	c.peer = conn
	c.peerAddr = conn.RemoteAddr()
	if c.state != StateClosed {
		c.state = StateConnected
	}
	c.mu.Unlock()
}

// detachPeer closes the peer socket and returns the endpoint to Listening
// so the next peer can connect. A Stop that raced us already cleared the
// peer; the state stays Closed in that case.
func (c *Communicator) detachPeer(conn net.Conn) {
	_ = conn.Close()
	c.mu.Lock()
	if c.peer == conn {
		c.peer = nil
		c.peerAddr = nil
	}
	if c.state == StateConnected {
		c.state = StateListening
	}
	c.mu.Unlock()
}
