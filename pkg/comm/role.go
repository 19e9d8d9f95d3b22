package comm

import (
	"fmt"
	"strings"
)

// Role selects which side of a stream conversation the endpoint takes.
// Datagram endpoints are always RoleListen; the fixed remote covers the
// outbound direction.
type Role int

const (
	// RoleListen binds locally and waits for the unit to dial in.
	RoleListen Role = iota
	// RoleConnect dials out to a server running on the unit.
	RoleConnect
)

func (r Role) String() string {
	switch r {
	case RoleConnect:
		return "connect"
	default:
		return "listen"
	}
}

// ParseRole maps a config mode string onto a Role. The empty string means
// the listen default.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "listen":
		return RoleListen, nil
	case "connect", "client", "dial":
		return RoleConnect, nil
	default:
		return RoleListen, fmt.Errorf("unknown endpoint mode: %q", s)
	}
}
