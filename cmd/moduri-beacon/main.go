// moduri-beacon transmits a fixed payload to a fixed destination on a
// timer. It never reads; replies, if any, land at whatever endpoint the
// destination routes them to.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/vexown/Moduri/pkg/beacon"
	"github.com/vexown/Moduri/pkg/config"
	"github.com/vexown/Moduri/pkg/observability"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	kind := flag.String("kind", "", "transport kind override: stream|datagram")
	addr := flag.String("addr", "", "destination address override (host:port)")
	payload := flag.String("payload", "", "payload override")
	interval := flag.Duration("interval", 0, "send interval override, e.g. 1s")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fatalf("load config: %v", err)
	}
	if *kind != "" {
		cfg.Beacon.Kind = *kind
	}
	if *addr != "" {
		cfg.Beacon.Address = *addr
	}
	if *payload != "" {
		cfg.Beacon.Payload = *payload
	}
	if *interval > 0 {
		cfg.Beacon.IntervalMS = int(interval.Milliseconds())
	}

	logger, err := observability.SetupLogger(cfg.Log)
	if err != nil {
		fatalf("setup logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	b, err := beacon.New(cfg.Beacon, logger)
	if err != nil {
		zap.L().Error("failed to create beacon", zap.Error(err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := b.Run(ctx); err != nil {
		zap.L().Error("beacon stopped with error", zap.Error(err))
		os.Exit(1)
	}
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
