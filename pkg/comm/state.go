package comm

// State is the connection lifecycle state of a Communicator.
//
// Stream endpoints cycle Idle -> Listening -> Connected -> Listening (on
// peer disconnect) and terminate in Closed. Datagram endpoints only move
// Idle -> Listening -> Closed; there is no Connected state because every
// send and receive stands alone.
type State int

const (
	StateIdle State = iota
	StateListening
	StateConnected
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateListening:
		return "listening"
	case StateConnected:
		return "connected"
	case StateClosed:
		return "closed"
	default:
		return "invalid"
	}
}

// SendStatus is the explicit outcome of a send attempt.
type SendStatus int

const (
	// StatusSent means the payload was handed to the transport. For
	// datagram endpoints this says nothing about delivery.
	StatusSent SendStatus = iota
	// StatusNotConnected means a stream endpoint had no connected peer
	// (or the communicator was already stopped). The send is skipped.
	StatusNotConnected
	// StatusTransientError means the transport write failed. The failure
	// is local to this message; the communicator keeps running.
	StatusTransientError
)

func (s SendStatus) String() string {
	switch s {
	case StatusSent:
		return "sent"
	case StatusNotConnected:
		return "not-connected"
	case StatusTransientError:
		return "transient-error"
	default:
		return "invalid"
	}
}
