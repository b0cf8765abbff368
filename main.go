package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/coreos/go-systemd/v22/daemon"

	"github.com/b0bbywan/go-mpris-bridge/art"
	"github.com/b0bbywan/go-mpris-bridge/backend"
	"github.com/b0bbywan/go-mpris-bridge/config"
	"github.com/b0bbywan/go-mpris-bridge/logger"
	"github.com/b0bbywan/go-mpris-bridge/ws"
)

func main() {
	cfg, err := config.New()
	if err != nil {
		logger.Fatal("[%s] Failed to load config: %v", config.AppName, err)
	}

	// Set log level from config
	logger.SetLevel(cfg.LogLevel)
	config.Watch()

	// Global context for the entire application
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize backends
	b, err := backend.New(ctx, cfg)
	if err != nil {
		logger.Fatal("[%s] Backend initialization failed: %v", config.AppName, err)
	}

	// Connect to the session bus and publish the mDNS service
	if err := b.Start(); err != nil {
		logger.Fatal("[%s] Backend start failed: %v", config.AppName, err)
	}

	wsServer := ws.NewServer(ctx, cfg.Bind, cfg.WS, b)
	artServer := art.NewServer(cfg.Bind, cfg.Art, b)

	// Channel to synchronize shutdown
	shutdownDone := make(chan struct{})
	// Goroutine for signal handling
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan

		logger.Info("[%s] Shutdown signal received, stopping servers...", config.AppName)

		// Cancel the global context - stops both servers and all listeners
		cancel()

		// Cleanup backends
		b.Close()

		// Signal that cleanup is complete
		close(shutdownDone)
	}()

	go func() {
		if err := artServer.Run(ctx); err != nil && err != http.ErrServerClosed {
			logger.Error("[%s] art server error: %v", config.AppName, err)
		}
	}()

	if _, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		logger.Debug("[%s] sd_notify failed: %v", config.AppName, err)
	}

	logger.Info("[%s] started", config.AppName)
	if err := wsServer.Run(ctx); err != nil && err != http.ErrServerClosed {
		logger.Error("[%s] websocket server error: %v", config.AppName, err)
	}

	<-shutdownDone
	logger.Info("[%s] stopped", config.AppName)
}
