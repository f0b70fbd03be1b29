package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/hibiken/asynq"

	"github.com/nikhilbhutani/audiobrief/internal/app"
	"github.com/nikhilbhutani/audiobrief/internal/cache"
	"github.com/nikhilbhutani/audiobrief/internal/config"
	"github.com/nikhilbhutani/audiobrief/internal/logging"
	"github.com/nikhilbhutani/audiobrief/internal/queue"
	"github.com/nikhilbhutani/audiobrief/internal/queue/workers"
	"github.com/nikhilbhutani/audiobrief/internal/webhook"
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

	built, err := app.BuildPipeline(context.Background(), cfg)
	if err != nil {
		slog.Error("failed to build pipeline", "error", err)
		os.Exit(1)
	}

	rdb := cache.NewRedisClient(cfg.Redis)
	defer rdb.Close()
	jobs := cache.NewJobStore(cache.NewCache(rdb), cfg.Queue.JobTTL)

	srv := asynq.NewServer(
		queue.RedisOpt(cfg.Redis),
		asynq.Config{
			Concurrency: cfg.Queue.WorkerConcurrency,
			Queues: map[string]int{
				queue.QueueAudio: 1,
			},
			Logger: workers.NewLogger(slog.Default()),
		},
	)

	registry := queue.NewHandlersRegistry()

	dispatcher := webhook.NewDispatcher(cfg.Queue.CallbackSecret, 1000)
	defer dispatcher.Close()

	// Register workers
	audioWorker := workers.NewAudioWorker(built.Pipeline, jobs, cfg.Pipeline.Timeout).WithNotifier(dispatcher)

	registry.Register(queue.TypeAudioSummarize, asynq.HandlerFunc(audioWorker.ProcessTask))

	slog.Info("starting worker", "concurrency", cfg.Queue.WorkerConcurrency)
	if err := srv.Run(registry.Mux()); err != nil {
		slog.Error("worker error", "error", err)
		os.Exit(1)
	}
}
