package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/zipxxx1/GravityBox-sub001/internal/broadcast"
	"github.com/zipxxx1/GravityBox-sub001/internal/config"
	"github.com/zipxxx1/GravityBox-sub001/internal/mock"
	"github.com/zipxxx1/GravityBox-sub001/internal/session"
	"github.com/zipxxx1/GravityBox-sub001/internal/tracker"
	"github.com/zipxxx1/GravityBox-sub001/internal/ws"
)

func main() {
	mockMode := flag.Bool("mock", false, "Drive the tracker from a simulated download host")
	configPath := flag.String("config", "config.yaml", "Path to config file")
	port := flag.Int("port", 0, "Override server port")
	flag.Parse()

	if err := run(*configPath, *port, *mockMode); err != nil {
		fmt.Fprintf(os.Stderr, "progressd: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, port int, mockMode bool) error {
	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if port > 0 {
		cfg.Server.Port = port
	}

	logger, err := cfg.Log.NewLogger(os.Stderr)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	registry := broadcast.NewRegistry(logger.With("component", "registry"))
	store := config.NewStore(cfg.Indicator)
	resolver := session.NewResolver(cfg.Tracker, logger.With("component", "resolver"))
	tr := tracker.New(resolver, store, registry, logger.With("component", "tracker"))

	broadcaster := ws.NewBroadcaster(tr.State, cfg.Server.BroadcastThrottle, cfg.Server.MaxConnections, logger.With("component", "ws"))
	registry.Register(broadcaster)
	defer broadcaster.Stop()

	watcher, err := config.NewWatcher(configPath, cfg, func(_ *config.Config, change config.Change) {
		if _, err := tr.ApplyConfig(change); err != nil {
			logger.Warn("config change rejected", "error", err)
		}
	}, logger.With("component", "config"))
	if err != nil {
		logger.Warn("config watcher disabled", "path", configPath, "error", err)
	} else {
		watcher.Start()
		defer watcher.Stop()
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	hupCh := make(chan os.Signal, 1)
	signal.Notify(hupCh, syscall.SIGHUP)
	defer signal.Stop(hupCh)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-hupCh:
				if watcher == nil {
					continue
				}
				if err := watcher.Reload(); err != nil {
					logger.Warn("config reload failed", "error", err)
				}
			}
		}
	}()

	if mockMode {
		logger.Info("starting in mock mode")
		mock.NewGenerator(tr, cfg.Mock.Interval, logger.With("component", "mock")).Start(ctx)
	}

	mux := http.NewServeMux()
	ws.NewServer(tr, broadcaster, cfg.Server, logger.With("component", "server")).SetupRoutes(mux)

	if err := ws.ListenAndServe(ctx, cfg.Server.Host, cfg.Server.Port, mux, logger); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	logger.Info("shut down")
	return nil
}
