package config

import (
	"fmt"
	"strings"
)

// BeaconConfig holds settings for the periodic fixed-payload sender.
type BeaconConfig struct {
	// Kind selects the transport: "stream" (TCP) or "datagram" (UDP).
	Kind string `mapstructure:"kind"`
	// Address is the fixed destination in host:port form.
	Address string `mapstructure:"address"`
	// Payload is the literal message sent on every tick.
	Payload string `mapstructure:"payload"`
	// IntervalMS is the send period.
	IntervalMS int `mapstructure:"interval_ms"`
}

// Validate checks the beacon fields and fills defaults.
func (b *BeaconConfig) Validate() error {
	b.Kind = strings.ToLower(strings.TrimSpace(b.Kind))
	switch b.Kind {
	case "stream", "datagram":
		// ok
	default:
		return fmt.Errorf("invalid beacon.kind: %q (want stream or datagram)", b.Kind)
	}
	if strings.TrimSpace(b.Address) == "" {
		return fmt.Errorf("beacon.address is required")
	}
	if b.Payload == "" {
		return fmt.Errorf("beacon.payload is required")
	}
	if b.IntervalMS <= 0 {
		b.IntervalMS = 1000
	}
	return nil
}
