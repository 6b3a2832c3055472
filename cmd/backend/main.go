package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	alertimpl "github.com/airwavelab/contestwatch/external/alert"
	configloader "github.com/airwavelab/contestwatch/external/config"
	decoderimpl "github.com/airwavelab/contestwatch/external/decoder"
	directoryimpl "github.com/airwavelab/contestwatch/external/directory"
	repositoryimpl "github.com/airwavelab/contestwatch/external/repository"
	"github.com/airwavelab/contestwatch/external/server"
	transcriberimpl "github.com/airwavelab/contestwatch/external/transcriber"
	"github.com/airwavelab/contestwatch/internal/alert"
	"github.com/airwavelab/contestwatch/internal/config"
	"github.com/airwavelab/contestwatch/internal/detect"
	"github.com/airwavelab/contestwatch/internal/event"
	"github.com/airwavelab/contestwatch/internal/metrics"
	"github.com/airwavelab/contestwatch/internal/repository"
	"github.com/airwavelab/contestwatch/internal/session"
	"github.com/airwavelab/contestwatch/internal/sink"
	"github.com/samber/do/v2"
)

const shutdownTimeout = 30 * time.Second

func main() {
	slog.Info("startup: loading configuration")
	cfg := mustLoadConfig()
	initLogger(cfg)
	slog.Info("startup: configuration loaded", "env", cfg.Env)

	slog.Info("startup: building dependency graph")
	injector := setupDI(cfg)

	slog.Info("startup: launching monitor")
	run(cfg, injector)
}

func mustLoadConfig() *config.Config {
	cfg, err := configloader.Load()
	if err != nil {
		slog.Error("config validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

func initLogger(cfg *config.Config) {
	logLevel := slog.LevelInfo
	if cfg.IsDevelopment() {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))
}

func setupDI(cfg *config.Config) do.Injector {
	injector := do.New()

	do.ProvideValue(injector, cfg)
	metrics.RegisterDI(injector)
	repositoryimpl.RegisterDI(injector)
	directoryimpl.RegisterDI(injector)
	decoderimpl.RegisterDI(injector)
	transcriberimpl.RegisterDI(injector)
	alertimpl.RegisterDI(injector)
	detect.RegisterDI(injector)
	session.RegisterDI(injector)
	server.RegisterDI(injector)

	return injector
}

func run(cfg *config.Config, injector do.Injector) {
	repo, err := do.Invoke[repository.Repository](injector)
	if err != nil {
		slog.Error("failed to resolve repository", "error", err)
		os.Exit(1)
	}
	notifiers, err := do.Invoke[[]alert.Notifier](injector)
	if err != nil {
		slog.Error("failed to resolve alert notifiers", "error", err)
		os.Exit(1)
	}
	hub, err := do.Invoke[*server.Hub](injector)
	if err != nil {
		slog.Error("failed to resolve websocket hub", "error", err)
		os.Exit(1)
	}
	m, err := do.Invoke[*metrics.Metrics](injector)
	if err != nil {
		slog.Error("failed to resolve metrics", "error", err)
		os.Exit(1)
	}

	dispatcher := sink.NewDispatcher(cfg.SegmentQueueSize*cfg.MaxConcurrentStations, m,
		sink.LogSink{},
		sink.NewPersister(repo),
		sink.NewNotifierSink(notifiers),
		hub,
	)
	do.ProvideValue(injector, event.Sink(dispatcher))

	manager, err := do.Invoke[*session.Manager](injector)
	if err != nil {
		slog.Error("failed to resolve session manager", "error", err)
		os.Exit(1)
	}
	httpServer, err := do.Invoke[*server.HTTPServer](injector)
	if err != nil {
		slog.Error("failed to resolve http server", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dispatcher.Start(ctx)
	httpServer.Start()

	started, err := manager.StartMonitoring(ctx)
	if err != nil {
		slog.Warn("initial station resolution failed; monitor reachable via http api", "error", err)
	} else {
		slog.Info("monitoring started", "sessions", started)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	slog.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	select {
	case <-manager.Shutdown():
	case <-shutdownCtx.Done():
		slog.Error("session shutdown timed out")
	}
	select {
	case <-dispatcher.Stop():
	case <-shutdownCtx.Done():
		slog.Error("event dispatcher shutdown timed out")
	}
	hub.Close()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown failed", "error", err)
	}
	slog.Info("shutdown complete")
}
