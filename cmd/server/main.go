package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/accessibleapps/html-to-text/internal/api"
	"github.com/accessibleapps/html-to-text/internal/config"
	"github.com/accessibleapps/html-to-text/internal/deliver"
	"github.com/accessibleapps/html-to-text/internal/pipeline"
	"github.com/accessibleapps/html-to-text/internal/stats"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dc := deliver.NewClient(cfg.DeliverToken, cfg.DeliverTimeout)
	renderStats := stats.NewRenderStats(cfg.StatsWindow)

	orch := pipeline.NewOrchestrator(cfg, dc, log)
	orch.Start(ctx)

	srv := api.NewServer(orch, renderStats, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		orch.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	log.Info("starting html-to-text", "port", cfg.Port)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
