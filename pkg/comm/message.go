package comm

import (
	"fmt"
	"io"
	"net"
	"time"
)

// timestampLayout is the console timestamp format shared by receive and
// send reporting.
const timestampLayout = "2006-01-02 15:04:05"

// InboundMessage is one decoded receive event. One transport read produces
// exactly one message; payloads larger than the receive buffer arrive as
// several messages with no reassembly.
type InboundMessage struct {
	Raw    []byte
	Text   string
	Source net.Addr
	Time   time.Time
}

// Sink consumes decoded inbound messages. Consume is called from the
// receive goroutine, one message at a time.
type Sink interface {
	Consume(InboundMessage)
}

// ConsoleSink renders inbound messages to a writer, matching the operator
// console of the original host scripts.
type ConsoleSink struct {
	W io.Writer
	// ShowSource prefixes each line with a timestamp and the sender's
	// host, which is how the datagram variant reports traffic.
	ShowSource bool
	// Prompt, when non-empty, is redisplayed after every message so the
	// interactive input line is restored.
	Prompt string
}

func (s *ConsoleSink) Consume(m InboundMessage) {
	if s.ShowSource {
		host := sourceHost(m.Source)
		fmt.Fprintf(s.W, "\n[%s] Received from %s: %s\n", m.Time.Format(timestampLayout), host, m.Text)
	} else {
		fmt.Fprintf(s.W, "Received: %s\n", m.Text)
	}
	if s.Prompt != "" {
		fmt.Fprint(s.W, s.Prompt)
	}
}

func sourceHost(addr net.Addr) string {
	if addr == nil {
		return "?"
	}
	if host, _, err := net.SplitHostPort(addr.String()); err == nil {
		return host
	}
	return addr.String()
}
