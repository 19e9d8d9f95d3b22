// Package beacon implements the periodic fixed-payload sender: a one-way
// endpoint that transmits the same literal message on a timer and never
// reads a reply.
package beacon

import (
	"context"
	"fmt"
	"net"
	"time"

	"go.uber.org/zap"

	"github.com/vexown/Moduri/pkg/comm"
	"github.com/vexown/Moduri/pkg/config"
)

// Beacon periodically writes a fixed payload to a fixed destination over
// stream or datagram transport.
type Beacon struct {
	kind     comm.Kind
	address  string
	payload  []byte
	interval time.Duration
	log      *zap.Logger
}

// New builds a Beacon from config.
func New(cfg config.BeaconConfig, logger *zap.Logger) (*Beacon, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	kind, err := comm.ParseKind(cfg.Kind)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Beacon{
		kind:     kind,
		address:  cfg.Address,
		payload:  []byte(cfg.Payload),
		interval: time.Duration(cfg.IntervalMS) * time.Millisecond,
		log:      logger.Named("beacon"),
	}, nil
}

// Run sends the payload once immediately and then on every tick until ctx
// is canceled. The dial happens once up front; a stream write failure ends
// the run (the peer is gone and a reconnect is the operator's call), a
// datagram write failure is logged and the loop keeps ticking.
func (b *Beacon) Run(ctx context.Context) error {
	network := "udp"
	if b.kind == comm.KindStream {
		network = "tcp"
	}

	var d net.Dialer
	conn, err := d.DialContext(ctx, network, b.address)
	if err != nil {
		return fmt.Errorf("dial %s %s: %w", network, b.address, err)
	}
	defer conn.Close()

	b.log.Info("sending messages",
		zap.String("kind", b.kind.String()),
		zap.String("dest", b.address),
		zap.Duration("interval", b.interval))

	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	for {
		if _, err := conn.Write(b.payload); err != nil {
			if b.kind == comm.KindStream {
				return fmt.Errorf("send: %w", err)
			}
			// fire-and-forget: an unreachable destination surfaces
			// here as e.g. ECONNREFUSED on a connected UDP socket
			b.log.Warn("send failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			b.log.Info("stopped sending")
			return nil
		case <-ticker.C:
		}
	}
}
