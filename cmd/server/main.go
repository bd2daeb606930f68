package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/leduardoaraujo/jsonexplorer/internal/api"
	"github.com/leduardoaraujo/jsonexplorer/internal/config"
	"github.com/leduardoaraujo/jsonexplorer/internal/pathstore"
	"github.com/leduardoaraujo/jsonexplorer/internal/pipeline"
	"github.com/leduardoaraujo/jsonexplorer/internal/stats"
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

	rec := stats.NewRecorder(cfg.StatsWindow)

	// The export pipeline only runs when pathstore is configured.
	var (
		ps   *pathstore.Client
		orch *pipeline.Orchestrator
	)
	if cfg.IngestEnabled() {
		ps = pathstore.NewClient(cfg.PathstoreURL, cfg.PathstoreAPIKey)
		orch = pipeline.NewOrchestrator(cfg, ps, rec, log)
		orch.Start(ctx)
	} else {
		log.Info("PATHSTORE_API_KEY not set, chunk export disabled")
	}

	srv := api.NewServer(orch, rec, log, cfg)

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

		if orch != nil {
			orch.Stop()
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		if ps != nil {
			ps.Close()
		}
	}()

	log.Info("starting jsonexplorer", "port", cfg.Port, "start_level", cfg.StartLevel, "ingest", orch != nil)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
