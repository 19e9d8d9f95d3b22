package config

import (
	"fmt"
	"net"
	"strconv"
	"strings"
)

// EndpointConfig describes the communicator's network identity.
// Example YAML:
//
//	endpoint:
//	  kind: stream          # stream | datagram
//	  mode: listen          # listen | connect (stream only)
//	  bind_host: "0.0.0.0"
//	  bind_port: 8080
//	  remote_host: "192.168.1.50"   # datagram and connect mode
//	  remote_port: 5001             # datagram and connect mode
//
// The record is immutable after Load; all mutation happens on copies.
type EndpointConfig struct {
	// Kind selects the transport: "stream" (TCP) or "datagram" (UDP).
	Kind string `mapstructure:"kind"`
	// Mode selects the stream role: "listen" (default) waits for the
	// unit to dial in, "connect" dials a server running on the unit.
	Mode string `mapstructure:"mode"`
	// BindHost/BindPort is the local listen address. Unused in connect
	// mode, where the dialer picks an ephemeral local port.
	BindHost string `mapstructure:"bind_host"`
	BindPort int    `mapstructure:"bind_port"`
	// RemoteHost/RemotePort is the fixed send destination for datagram
	// endpoints and the dial target in connect mode. Unused for
	// listen-mode stream endpoints, which reply to the connected peer.
	RemoteHost string `mapstructure:"remote_host"`
	RemotePort int    `mapstructure:"remote_port"`
}

// BindAddr returns the local address in host:port form.
func (e EndpointConfig) BindAddr() string {
	return net.JoinHostPort(e.BindHost, strconv.Itoa(e.BindPort))
}

// RemoteAddr returns the fixed remote address in host:port form.
func (e EndpointConfig) RemoteAddr() string {
	return net.JoinHostPort(e.RemoteHost, strconv.Itoa(e.RemotePort))
}

// Validate checks the endpoint fields. Bind port 0 is allowed and means an
// ephemeral port.
func (e *EndpointConfig) Validate() error {
	e.Kind = strings.ToLower(strings.TrimSpace(e.Kind))
	switch e.Kind {
	case "stream", "datagram":
		// ok
	default:
		return fmt.Errorf("invalid endpoint.kind: %q (want stream or datagram)", e.Kind)
	}

	e.Mode = strings.ToLower(strings.TrimSpace(e.Mode))
	switch e.Mode {
	case "":
		e.Mode = "listen"
	case "listen":
		// ok
	case "connect":
		if e.Kind != "stream" {
			return fmt.Errorf("endpoint.mode connect requires a stream endpoint")
		}
	default:
		return fmt.Errorf("invalid endpoint.mode: %q (want listen or connect)", e.Mode)
	}

	if e.BindPort < 0 || e.BindPort > 65535 {
		return fmt.Errorf("invalid endpoint.bind_port: %d", e.BindPort)
	}
	if e.BindHost == "" {
		e.BindHost = "0.0.0.0"
	}

	if e.Kind == "datagram" || e.Mode == "connect" {
		if strings.TrimSpace(e.RemoteHost) == "" {
			return fmt.Errorf("endpoint.remote_host is required for datagram and connect endpoints")
		}
		if e.RemotePort <= 0 || e.RemotePort > 65535 {
			return fmt.Errorf("invalid endpoint.remote_port: %d", e.RemotePort)
		}
	}
	return nil
}
