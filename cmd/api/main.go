package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nikhilbhutani/audiobrief/internal/api"
	"github.com/nikhilbhutani/audiobrief/internal/app"
	"github.com/nikhilbhutani/audiobrief/internal/cache"
	"github.com/nikhilbhutani/audiobrief/internal/config"
	"github.com/nikhilbhutani/audiobrief/internal/logging"
	"github.com/nikhilbhutani/audiobrief/internal/queue"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logCloser := logging.Setup(cfg.Log)
	defer logCloser.Close()

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	built, err := app.BuildPipeline(ctx, cfg)
	if err != nil {
		slog.Error("failed to build pipeline", "error", err)
		os.Exit(1)
	}

	deps := api.Deps{
		Pipeline: built.Pipeline,
		Models:   built.Gateway,
		FFmpeg:   built.FFmpeg,
	}

	// Redis connection (optional; without it the job endpoints are disabled)
	rdb := cache.NewRedisClient(cfg.Redis)
	defer rdb.Close()

	c := cache.NewCache(rdb)
	deps.Redis = c
	if err := c.Ping(ctx); err != nil {
		slog.Warn("redis unavailable, running without background jobs", "error", err)
	} else {
		qc := queue.NewClient(cfg.Redis, cfg.Pipeline.Timeout)
		defer qc.Close()

		deps.Jobs = cache.NewJobStore(c, cfg.Queue.JobTTL)
		deps.Queue = qc
	}

	router := api.NewRouter(cfg, deps)
	defer router.Close()
	handler := router.Setup()

	// Synchronous requests hold the connection for the whole pipeline run.
	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      handler,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: cfg.Pipeline.Timeout + 30*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("starting API server", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced shutdown", "error", err)
	}
	slog.Info("server stopped")
}
