package beacon

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/vexown/Moduri/pkg/config"
)

func TestBeaconSendsPeriodically(t *testing.T) {
	dest, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer dest.Close()

	b, err := New(config.BeaconConfig{
		Kind:       "datagram",
		Address:    dest.LocalAddr().String(),
		Payload:    "Yo from PC!",
		IntervalMS: 50,
	}, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- b.Run(ctx) }()

	buf := make([]byte, 1024)
	for i := 0; i < 2; i++ {
		_ = dest.(*net.UDPConn).SetReadDeadline(time.Now().Add(2 * time.Second))
		n, _, err := dest.ReadFrom(buf)
		if err != nil {
			t.Fatalf("read #%d: %v", i, err)
		}
		if got := string(buf[:n]); got != "Yo from PC!" {
			t.Fatalf("payload #%d = %q", i, got)
		}
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run returned %v after cancel", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("beacon did not stop on cancel")
	}
}

func TestBeaconStreamStopsOnPeerClose(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	// accept one connection, read one payload, close immediately: the
	// single-shot responder pattern the beacon has to tolerate
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		buf := make([]byte, 1024)
		_, _ = conn.Read(buf)
		_ = conn.Close()
	}()

	b, err := New(config.BeaconConfig{
		Kind:       "stream",
		Address:    ln.Addr().String(),
		Payload:    "tick",
		IntervalMS: 20,
	}, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	// the peer vanishing must surface as an error within a few writes,
	// not hang the run
	if err := b.Run(ctx); err == nil {
		t.Fatalf("expected run to end with a send error after peer close")
	}
}

func TestBeaconConfigValidation(t *testing.T) {
	if _, err := New(config.BeaconConfig{Kind: "smoke-signal", Address: "x:1", Payload: "p"}, nil); err == nil {
		t.Fatalf("expected error for bad kind")
	}
	if _, err := New(config.BeaconConfig{Kind: "datagram", Payload: "p"}, nil); err == nil {
		t.Fatalf("expected error for missing address")
	}
}
