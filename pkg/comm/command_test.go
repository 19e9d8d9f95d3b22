package comm

import (
	"bytes"
	"io"
	"net"
	"regexp"
	"strings"
	"testing"
	"time"
)

func TestCommandLoopQuit(t *testing.T) {
	c := startStream(t, newChanSink())

	var out bytes.Buffer
	done := make(chan struct{})
	go func() {
		c.CommandLoop(strings.NewReader("quit\n"), &out)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("command loop did not exit on quit")
	}
	if c.State() != StateClosed {
		t.Fatalf("state = %v, want closed after quit", c.State())
	}
}

func TestCommandLoopQuitCaseInsensitive(t *testing.T) {
	c := startStream(t, newChanSink())

	var out bytes.Buffer
	c.CommandLoop(strings.NewReader("QuIt\n"), &out)
	select {
	case <-c.Done():
	default:
		t.Fatalf("QuIt did not trigger shutdown")
	}
}

func TestCommandLoopSendsLines(t *testing.T) {
	remote, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen remote: %v", err)
	}
	defer remote.Close()

	c := startDatagram(t, newChanSink(), remote.LocalAddr())

	var out bytes.Buffer
	c.CommandLoop(strings.NewReader("\nping\nquit\n"), &out)

	_ = remote.(*net.UDPConn).SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, BufferSize)
	n, _, err := remote.ReadFrom(buf)
	if err != nil {
		t.Fatalf("remote read: %v", err)
	}
	if got := string(buf[:n]); got != "ping" {
		t.Fatalf("remote received %q, want %q (empty line must be skipped)", got, "ping")
	}
	// datagram sends are stamped like receives: [YYYY-MM-DD HH:MM:SS]
	confirm := regexp.MustCompile(`\[\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}\] Sent: ping`)
	if !confirm.MatchString(out.String()) {
		t.Fatalf("output %q does not confirm the send with a timestamp", out.String())
	}
}

func TestCommandLoopStreamSendPlain(t *testing.T) {
	sink := newChanSink()
	c := startStream(t, sink)

	client, err := net.Dial("tcp", c.LocalAddr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer client.Close()
	if _, err := client.Write([]byte("hi")); err != nil {
		t.Fatalf("client write: %v", err)
	}
	sink.next(t)

	var out bytes.Buffer
	c.CommandLoop(strings.NewReader("pong\nquit\n"), &out)
	if !strings.Contains(out.String(), "Sent: pong") {
		t.Fatalf("output %q does not confirm the send", out.String())
	}
	if strings.Contains(out.String(), "] Sent:") {
		t.Fatalf("stream send confirmation %q carries a timestamp", out.String())
	}
}

func TestCommandLoopReportsNotConnected(t *testing.T) {
	c := startStream(t, newChanSink())

	var out bytes.Buffer
	c.CommandLoop(strings.NewReader("hello\nquit\n"), &out)
	if !strings.Contains(out.String(), "No client connected") {
		t.Fatalf("output %q does not report the missing peer", out.String())
	}
}

func TestCommandLoopUnblocksOnStop(t *testing.T) {
	c := startStream(t, newChanSink())

	// io.Pipe never delivers a line, so only Stop can release the loop
	pr, pw := io.Pipe()
	defer pw.Close()

	done := make(chan struct{})
	go func() {
		c.CommandLoop(pr, io.Discard)
		close(done)
	}()

	time.Sleep(100 * time.Millisecond)
	_ = c.Stop()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("command loop still blocked after stop")
	}
}

func TestCommandLoopInputEOF(t *testing.T) {
	c := startStream(t, newChanSink())

	var out bytes.Buffer
	c.CommandLoop(strings.NewReader(""), &out)
	select {
	case <-c.Done():
	default:
		t.Fatalf("input EOF did not trigger shutdown")
	}
}
