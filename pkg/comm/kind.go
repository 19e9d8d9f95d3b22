package comm

import (
	"fmt"
	"strings"
)

// Kind identifies the transport flavor of an endpoint.
type Kind int

const (
	KindUnknown Kind = iota
	// KindStream is connection-oriented transport (TCP): bind, listen,
	// accept, then full-duplex exchange with a single peer.
	KindStream
	// KindDatagram is connectionless transport (UDP): bind once, every
	// send names its destination, every receive reports its source.
	KindDatagram
)

func (k Kind) String() string {
	switch k {
	case KindStream:
		return "stream"
	case KindDatagram:
		return "datagram"
	default:
		return "unknown"
	}
}

// ParseKind maps a config string onto a Kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "stream", "tcp":
		return KindStream, nil
	case "datagram", "udp":
		return KindDatagram, nil
	default:
		return KindUnknown, fmt.Errorf("unknown transport kind: %q", s)
	}
}
