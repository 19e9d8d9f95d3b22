// moduri-echo is the single-shot responder: it accepts one connection,
// reads one message, prints it, and exits.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/vexown/Moduri/pkg/config"
	"github.com/vexown/Moduri/pkg/observability"
	"github.com/vexown/Moduri/pkg/oneshot"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	addr := flag.String("addr", ":12345", "listen address (host:port)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fatalf("load config: %v", err)
	}

	logger, err := observability.SetupLogger(cfg.Log)
	if err != nil {
		fatalf("setup logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	r, err := oneshot.Listen(*addr, logger)
	if err != nil {
		zap.L().Error("listen failed", zap.Error(err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	msg, err := r.ServeOne(ctx)
	if err != nil {
		zap.L().Error("serve failed", zap.Error(err))
		os.Exit(1)
	}
	fmt.Printf("Received message: %s\n", msg)
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
