package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/docstruct/internal/api"
	"github.com/dgallion1/docstruct/internal/config"
	"github.com/dgallion1/docstruct/internal/persona"
	"github.com/dgallion1/docstruct/internal/pipeline"
)

func main() {
	cfg, err := config.LoadWithHeuristics()
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	if err != nil {
		log.Error("invalid heuristics file", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	vocab, err := persona.LoadVocabulary(cfg.VocabularyFile)
	if err != nil {
		log.Error("invalid vocabulary", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize pipeline.
	jobs := pipeline.NewJobStore(cfg.JobTTL)
	runner := pipeline.NewRunner(cfg, jobs, log)
	runner.StartJanitor(ctx, 5*time.Minute)
	structure := pipeline.NewStructureEngine(cfg, runner, log)
	relevance := pipeline.NewRelevanceEngine(cfg, runner, vocab, log)

	// Initialize HTTP server.
	srv, err := api.NewServer(structure, relevance, jobs, log, cfg)
	if err != nil {
		log.Error("server setup failed", "error", err)
		os.Exit(1)
	}

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

		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	log.Info("starting docstruct",
		"port", cfg.Port,
		"workers", cfg.WorkerCount,
		"doc_timeout", cfg.DocTimeout,
		"segment_mode", cfg.SegmentMode,
		"auth", cfg.APIKey != "",
	)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
