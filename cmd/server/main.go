package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/doclabel/internal/api"
	"github.com/dgallion1/doclabel/internal/config"
	"github.com/dgallion1/doclabel/internal/engine"
	"github.com/dgallion1/doclabel/internal/pipeline"
	"github.com/dgallion1/doclabel/internal/publish"
	"github.com/dgallion1/doclabel/internal/store"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	opts, err := cfg.EngineOptions(log)
	if err != nil {
		log.Error("invalid labeling configuration", "error", err)
		os.Exit(1)
	}
	eng := engine.New(opts)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		log.Error("open result store", "error", err)
		os.Exit(1)
	}

	// Publishing is optional.
	var pub *publish.Client
	if cfg.PublishURL != "" {
		pub = publish.NewClient(cfg.PublishURL, cfg.PublishAPIKey)
	}

	// Initialize pipeline.
	orch := pipeline.NewOrchestrator(cfg, eng, st, pub, log)
	orch.Start(ctx)

	// Initialize HTTP server.
	srv := api.NewServer(orch, log, cfg)

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

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		orch.Stop()
		if pub != nil {
			pub.Close()
		}
		st.Close()
	}()

	log.Info("starting doclabel", "port", cfg.Port, "db", st.Path(), "publish", pub != nil)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
