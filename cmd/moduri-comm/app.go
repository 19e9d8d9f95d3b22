package main

import (
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"go.uber.org/zap"

	"github.com/vexown/Moduri/pkg/comm"
	"github.com/vexown/Moduri/pkg/config"
	"github.com/vexown/Moduri/pkg/observability"
)

// run is the main entry point after CLI parsing.
func run(opts Options) int {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		_, _ = os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return 1
	}
	if err := applyOverrides(cfg, opts); err != nil {
		_, _ = os.Stderr.WriteString("invalid flags: " + err.Error() + "\n")
		return 1
	}

	logger, err := observability.SetupLogger(cfg.Log)
	if err != nil {
		_, _ = os.Stderr.WriteString("failed to setup logger: " + err.Error() + "\n")
		return 1
	}
	defer func() { _ = logger.Sync() }()

	zap.L().Info("moduri-comm started", zap.String("app", cfg.AppName),
		zap.String("kind", cfg.Endpoint.Kind), zap.String("mode", cfg.Endpoint.Mode),
		zap.String("bind", cfg.Endpoint.BindAddr()))

	sink := &comm.ConsoleSink{W: os.Stdout}
	if cfg.Endpoint.Kind == "datagram" {
		sink.ShowSource = true
		sink.Prompt = "> "
	}

	c, err := comm.New(cfg.Endpoint, sink, logger)
	if err != nil {
		zap.L().Error("failed to create communicator", zap.Error(err))
		return 1
	}
	if err := c.Start(); err != nil {
		zap.L().Error("failed to start communicator", zap.Error(err))
		return 1
	}

	// SIGINT/SIGTERM take the same orderly path as `quit`
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigCh:
			zap.L().Info("signal received, shutting down", zap.String("signal", sig.String()))
			_ = c.Stop()
		case <-c.Done():
		}
	}()

	c.CommandLoop(os.Stdin, os.Stdout)
	_ = c.Stop()
	c.Wait()
	return 0
}

// applyOverrides folds CLI flag values into the loaded config.
func applyOverrides(cfg *config.Config, opts Options) error {
	if opts.Kind != "" {
		cfg.Endpoint.Kind = opts.Kind
	}
	if opts.Mode != "" {
		cfg.Endpoint.Mode = opts.Mode
	}
	if opts.Bind != "" {
		host, port, err := splitHostPort(opts.Bind)
		if err != nil {
			return err
		}
		cfg.Endpoint.BindHost = host
		cfg.Endpoint.BindPort = port
	}
	if opts.Remote != "" {
		host, port, err := splitHostPort(opts.Remote)
		if err != nil {
			return err
		}
		cfg.Endpoint.RemoteHost = host
		cfg.Endpoint.RemotePort = port
	}
	return cfg.Endpoint.Validate()
}

func splitHostPort(addr string) (string, int, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return "", 0, err
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, err
	}
	return host, port, nil
}
