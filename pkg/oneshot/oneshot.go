// Package oneshot implements the single-shot responder: a stream listener
// that accepts exactly one connection, reads exactly one message, and
// closes. It exists for quick reachability checks against a unit.
package oneshot

import (
	"context"
	"fmt"
	"net"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/vexown/Moduri/pkg/comm"
)

// Responder is a bound, not-yet-serving single-shot listener.
type Responder struct {
	ln  net.Listener
	log *zap.Logger
}

// Listen binds a stream listener on addr.
func Listen(addr string, logger *zap.Logger) (*Responder, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", addr, err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Responder{ln: ln, log: logger.Named("oneshot")}, nil
}

// Addr returns the bound local address.
func (r *Responder) Addr() net.Addr { return r.ln.Addr() }

// Close releases the listener. Safe to call after ServeOne.
func (r *Responder) Close() error { return r.ln.Close() }

// ServeOne accepts one connection, reads one message of at most
// comm.BufferSize bytes, closes the connection and the listener, and
// returns the decoded text. Canceling ctx closes the listener, which
// unblocks a pending accept or read.
func (r *Responder) ServeOne(ctx context.Context) (string, error) {
	defer r.ln.Close()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = r.ln.Close()
		case <-done:
		}
	}()

	r.log.Info("waiting for connection", zap.String("addr", r.ln.Addr().String()))
	conn, err := r.ln.Accept()
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("accept: %w", err)
	}
	defer conn.Close()
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	r.log.Info("connection from", zap.String("peer", conn.RemoteAddr().String()))

	buf := make([]byte, comm.BufferSize)
	n, err := conn.Read(buf)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("read: %w", err)
	}
	if !utf8.Valid(buf[:n]) {
		return "", fmt.Errorf("received %d non-UTF-8 bytes", n)
	}

	msg := string(buf[:n])
	r.log.Info("received message", zap.String("message", msg))
	return msg, nil
}
