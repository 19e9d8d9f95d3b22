// moduri-statusd serves a simulator of the unit's status endpoint so the
// menu client can be exercised without hardware on the bench.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/vexown/Moduri/pkg/config"
	"github.com/vexown/Moduri/pkg/observability"
	"github.com/vexown/Moduri/pkg/status"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	addr := flag.String("addr", ":8000", "listen address (host:port)")
	message := flag.String("message", "OK", "initial status message")
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

	mux := http.NewServeMux()
	mux.Handle("/api/v1/status", status.NewHandler(*message, logger))
	srv := &http.Server{Addr: *addr, Handler: mux}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	zap.L().Info("status simulator listening", zap.String("addr", *addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		zap.L().Error("server failed", zap.Error(err))
		os.Exit(1)
	}
	zap.L().Info("status simulator stopped")
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
