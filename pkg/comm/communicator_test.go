package comm

import (
	"bytes"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/vexown/Moduri/pkg/config"
)

type chanSink struct {
	ch chan InboundMessage
}

func newChanSink() *chanSink {
	return &chanSink{ch: make(chan InboundMessage, 16)}
}

func (s *chanSink) Consume(m InboundMessage) { s.ch <- m }

func (s *chanSink) next(t *testing.T) InboundMessage {
	t.Helper()
	select {
	case m := <-s.ch:
		return m
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for inbound message")
		return InboundMessage{}
	}
}

func startStream(t *testing.T, sink Sink) *Communicator {
	t.Helper()
	cfg := config.EndpointConfig{Kind: "stream", BindHost: "127.0.0.1", BindPort: 0}
	c, err := New(cfg, sink, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := c.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	t.Cleanup(func() {
		_ = c.Stop()
		c.Wait()
	})
	return c
}

func waitState(t *testing.T, c *Communicator, want State) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if c.State() == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("state = %v, want %v", c.State(), want)
}

func TestStreamRoundTrip(t *testing.T) {
	sink := newChanSink()
	c := startStream(t, sink)

	client, err := net.Dial("tcp", c.LocalAddr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer client.Close()

	if _, err := client.Write([]byte("hello")); err != nil {
		t.Fatalf("client write: %v", err)
	}
	m := sink.next(t)
	if m.Text != "hello" {
		t.Fatalf("received %q, want %q", m.Text, "hello")
	}
	if c.State() != StateConnected {
		t.Fatalf("state = %v, want connected", c.State())
	}
	if c.PeerAddr() == nil {
		t.Fatalf("peer address not recorded")
	}

	status, err := c.Send("hi back")
	if err != nil || status != StatusSent {
		t.Fatalf("send = %v, %v; want sent", status, err)
	}
	_ = client.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, BufferSize)
	n, err := client.Read(buf)
	if err != nil {
		t.Fatalf("client read: %v", err)
	}
	if got := string(buf[:n]); got != "hi back" {
		t.Fatalf("client received %q, want %q", got, "hi back")
	}
}

func TestStreamSerialPeers(t *testing.T) {
	sink := newChanSink()
	c := startStream(t, sink)
	addr := c.LocalAddr().String()

	first, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("dial first: %v", err)
	}
	if _, err := first.Write([]byte("one")); err != nil {
		t.Fatalf("first write: %v", err)
	}
	if m := sink.next(t); m.Text != "one" {
		t.Fatalf("received %q, want %q", m.Text, "one")
	}

	// graceful close: the endpoint must return to listening and take a
	// new peer
	_ = first.Close()
	waitState(t, c, StateListening)

	second, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("dial second: %v", err)
	}
	defer second.Close()
	if _, err := second.Write([]byte("two")); err != nil {
		t.Fatalf("second write: %v", err)
	}
	if m := sink.next(t); m.Text != "two" {
		t.Fatalf("received %q, want %q", m.Text, "two")
	}
	if status, _ := c.Send("back at you"); status != StatusSent {
		t.Fatalf("send to second peer = %v, want sent", status)
	}
}

func TestStreamSendWithoutPeer(t *testing.T) {
	c := startStream(t, newChanSink())

	status, err := c.Send("nobody home")
	if status != StatusNotConnected {
		t.Fatalf("send = %v, want not-connected", status)
	}
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestStreamFragmentation(t *testing.T) {
	sink := newChanSink()
	c := startStream(t, sink)

	client, err := net.Dial("tcp", c.LocalAddr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer client.Close()

	payload := bytes.Repeat([]byte("m"), BufferSize+500)
	if _, err := client.Write(payload); err != nil {
		t.Fatalf("write: %v", err)
	}

	// no reassembly: the payload must arrive as several messages, each a
	// contiguous slice, concatenating back to the original
	var got []byte
	var events int
	for len(got) < len(payload) {
		m := sink.next(t)
		if len(m.Raw) > BufferSize {
			t.Fatalf("message of %d bytes exceeds buffer size", len(m.Raw))
		}
		got = append(got, m.Raw...)
		events++
	}
	if events < 2 {
		t.Fatalf("payload arrived in %d event(s), want at least 2", events)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("reassembled payload mismatch: got %d bytes", len(got))
	}
}

func TestStreamInvalidUTF8Dropped(t *testing.T) {
	sink := newChanSink()
	c := startStream(t, sink)

	client, err := net.Dial("tcp", c.LocalAddr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer client.Close()

	if _, err := client.Write([]byte{0xff, 0xfe, 0xfd}); err != nil {
		t.Fatalf("write: %v", err)
	}
	time.Sleep(200 * time.Millisecond) // keep the writes in separate reads
	if _, err := client.Write([]byte("ok")); err != nil {
		t.Fatalf("write: %v", err)
	}

	if m := sink.next(t); m.Text != "ok" {
		t.Fatalf("received %q, want the invalid payload dropped and %q delivered", m.Text, "ok")
	}
}

func TestStreamBindConflict(t *testing.T) {
	c := startStream(t, newChanSink())

	port := c.LocalAddr().(*net.TCPAddr).Port
	cfg := config.EndpointConfig{Kind: "stream", BindHost: "127.0.0.1", BindPort: port}
	dup, err := New(cfg, newChanSink(), nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := dup.Start(); err == nil {
		_ = dup.Stop()
		t.Fatalf("second bind on port %d succeeded, want error", port)
	}
}

func TestStopIdempotent(t *testing.T) {
	c := startStream(t, newChanSink())

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = c.Stop()
		}()
	}
	wg.Wait()

	if c.State() != StateClosed {
		t.Fatalf("state = %v, want closed", c.State())
	}
	select {
	case <-c.Done():
	default:
		t.Fatalf("done channel not closed after stop")
	}

	// the background task must unblock within a bounded window
	joined := make(chan struct{})
	go func() {
		c.Wait()
		close(joined)
	}()
	select {
	case <-joined:
	case <-time.After(2 * time.Second):
		t.Fatalf("receive task still blocked after stop")
	}
}

func TestStateTransitionsStream(t *testing.T) {
	sink := newChanSink()
	c := startStream(t, sink)
	if c.State() != StateListening {
		t.Fatalf("state after start = %v, want listening", c.State())
	}

	client, err := net.Dial("tcp", c.LocalAddr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	if _, err := client.Write([]byte("x")); err != nil {
		t.Fatalf("write: %v", err)
	}
	sink.next(t)
	waitState(t, c, StateConnected)

	_ = client.Close()
	waitState(t, c, StateListening)

	_ = c.Stop()
	if c.State() != StateClosed {
		t.Fatalf("state after stop = %v, want closed", c.State())
	}
}

func TestNewValidation(t *testing.T) {
	if _, err := New(config.EndpointConfig{Kind: "carrier-pigeon"}, newChanSink(), nil); err == nil {
		t.Fatalf("expected error for unknown kind")
	}
	if _, err := New(config.EndpointConfig{Kind: "stream"}, nil, nil); err == nil {
		t.Fatalf("expected error for nil sink")
	}
}
