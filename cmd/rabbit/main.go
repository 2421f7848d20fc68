package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/nhdewitt/rabbit/internal/agent"
	"github.com/nhdewitt/rabbit/internal/collector"
	"github.com/nhdewitt/rabbit/internal/config"
	"github.com/nhdewitt/rabbit/internal/platform"
	"github.com/nhdewitt/rabbit/internal/server"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "rabbit: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if len(args) > 0 && args[0] == "list" {
		return runList(ctx, os.Stdout, collector.NewHost(), args[1:])
	}

	cfg, err := config.Load(args, os.Getenv)
	if errors.Is(err, pflag.ErrHelp) {
		return nil
	}
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}

	host := collector.NewHost()

	info := platform.Detect(ctx, host, cfg, logger)
	info.Apply(&cfg)
	info.ApplyHost(host)

	static := host.StaticInfo(ctx)
	logger.Info("rabbit starting",
		"version", version,
		"hostname", static.Hostname,
		"os", static.LongOSVersion,
		"power", info.Power,
		"ups", len(cfg.UPS),
		"batteries", cfg.Batteries,
	)

	a := agent.New(cfg, host, static, agent.Options{
		Logger:  logger,
		Arch:    host.Arch(),
		Threads: host.ThreadCount(),
	})
	srv := server.New(cfg, a.Store(), version, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return a.Run(gctx) })
	g.Go(func() error { return srv.Start(gctx) })

	err = g.Wait()
	logger.Info("rabbit stopped")
	return err
}

func newLogger(level, format string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	opts := &slog.HandlerOptions{Level: lvl}

	switch strings.ToLower(format) {
	case "json":
		return slog.New(slog.NewJSONHandler(os.Stderr, opts)), nil
	default:
		return slog.New(slog.NewTextHandler(os.Stderr, opts)), nil
	}
}
