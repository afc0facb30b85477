package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vkrause09/web-to-do/internal/api"
	"github.com/vkrause09/web-to-do/internal/config"
	"github.com/vkrause09/web-to-do/internal/core"
	"github.com/vkrause09/web-to-do/internal/logging"
	todomcp "github.com/vkrause09/web-to-do/internal/mcp"
	"github.com/vkrause09/web-to-do/internal/notify"
	"github.com/vkrause09/web-to-do/internal/store"
)

func main() {
	cfg, err := config.Parse()
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}

	logger := logging.New(cfg.Log.Level, cfg.Log.Format)

	baseCtx := context.Background()
	storeInst, err := store.Open(baseCtx, cfg.StateDir)
	if err != nil {
		logger.Error("open store", "err", err)
		os.Exit(1)
	}
	defer storeInst.Close()

	sheets, err := storeInst.Sheets(baseCtx)
	if err != nil {
		logger.Error("list sheets", "err", err)
		os.Exit(1)
	}
	logger.Info("record store ready", "path", cfg.StateDir, "sheets", len(sheets))

	location := time.Local
	if cfg.UseUTC {
		location = time.UTC
	}

	var notifier notify.Notifier = &notify.NoOpNotifier{}
	if cfg.Notification.Bark.Enabled {
		bark, err := notify.NewBarkNotifier(cfg.Notification.Bark.URL)
		if err != nil {
			logger.Error("configure bark notifier", "err", err)
			os.Exit(1)
		}
		notifier = bark
	}

	metrics := core.NewMetrics(storeInst, logger, location, nil)
	lifecycle := core.NewLifecycle(storeInst, logger, location, nil, notifier)

	ctx, cancel := context.WithCancel(baseCtx)
	defer cancel()

	if cfg.Rollup.Enabled {
		rollup, err := core.NewRollup(storeInst, logger, location, nil, cfg.Rollup.Cron)
		if err != nil {
			logger.Error("configure rollup", "err", err)
			os.Exit(1)
		}
		if err := rollup.Start(ctx); err != nil {
			logger.Error("start rollup", "err", err)
			os.Exit(1)
		}
		defer func() {
			stopCtx := rollup.Stop()
			select {
			case <-stopCtx.Done():
			case <-time.After(cfg.ShutdownGrace):
				logger.Warn("rollup stop timed out")
			}
		}()
	}

	switch cfg.Mode {
	case "http":
		runHTTPMode(cfg, metrics, lifecycle, logger)
	case "mcp":
		runMCPMode(metrics, lifecycle, logger, cancel)
	case "both":
		runBothMode(cfg, metrics, lifecycle, logger)
	}
}

// runHTTPMode starts only the HTTP server.
func runHTTPMode(cfg *config.Config, metrics *core.Metrics, lifecycle *core.Lifecycle, logger *slog.Logger) {
	server, err := api.NewServer(cfg.Server.Addr, cfg.Server.AuthToken, metrics, lifecycle, logger)
	if err != nil {
		logger.Error("create server", "err", err)
		os.Exit(1)
	}

	serverErr := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigs:
		logger.Info("received signal", "signal", sig.String())
	case err := <-serverErr:
		logger.Error("server error", "err", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownGrace)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", "err", err)
	}
}

// runMCPMode starts only the MCP server on stdio.
func runMCPMode(metrics *core.Metrics, lifecycle *core.Lifecycle, logger *slog.Logger, cancel context.CancelFunc) {
	mcpServer := todomcp.NewMCPServer(metrics, lifecycle, logger)

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigs
		logger.Info("received signal, shutting down...")
		cancel()
	}()

	if err := mcpServer.Run(); err != nil {
		logger.Error("mcp server error", "err", err)
		os.Exit(1)
	}
}

// runBothMode starts the HTTP server with the MCP server in the background.
func runBothMode(cfg *config.Config, metrics *core.Metrics, lifecycle *core.Lifecycle, logger *slog.Logger) {
	mcpServer := todomcp.NewMCPServer(metrics, lifecycle, logger)
	mcpErr := make(chan error, 1)
	go func() {
		if err := mcpServer.Run(); err != nil {
			mcpErr <- err
		}
	}()

	server, err := api.NewServer(cfg.Server.Addr, cfg.Server.AuthToken, metrics, lifecycle, logger)
	if err != nil {
		logger.Error("create server", "err", err)
		os.Exit(1)
	}

	serverErr := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigs:
		logger.Info("received signal", "signal", sig.String())
	case err := <-serverErr:
		logger.Error("server error", "err", err)
	case err := <-mcpErr:
		logger.Error("mcp server error", "err", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownGrace)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", "err", err)
	}

	logger.Info("shutdown complete")
}
