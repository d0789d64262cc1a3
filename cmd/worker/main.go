package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"modalsearch/internal/config"
	"modalsearch/internal/contextutil"
	"modalsearch/internal/embedding"
	"modalsearch/internal/files"
	"modalsearch/internal/jobs"
	"modalsearch/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)

	db, err := storage.New(cfg.DSN())
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	if err := storage.Migrate(db, cfg.VectorSize); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	queue := jobs.NewRedisQueue(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err := queue.Ping(context.Background()); err != nil {
		log.Fatalf("Job queue unreachable: %v", err)
	}

	fileStore, err := files.NewDiskStore(cfg.UploadRoot)
	if err != nil {
		log.Fatalf("Failed to prepare upload root: %v", err)
	}

	processor := embedding.NewProcessor(
		func() embedding.Encoder {
			return embedding.NewHTTPEncoder(cfg.EncoderBaseURL, cfg.EncoderModelName, cfg.VectorSize)
		},
		storage.NewContentRepo(db),
		storage.NewEmbeddingRepo(db),
		storage.NewModelRepo(db),
	)

	worker := jobs.NewWorker(queue, cfg.WorkerCount)
	processor.Register(worker)

	cleaner := files.NewCleaner(fileStore, cfg.PurgeAge, cfg.PurgeInterval)

	ctx, cancel := context.WithCancel(contextutil.WithLogger(context.Background(), logger))
	defer cancel()

	go func() {
		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigs
		slog.Info("Shutting down", "signal", sig.String())
		cancel()
	}()

	go cleaner.Run(ctx)

	slog.Info("Worker starting",
		"workers", cfg.WorkerCount,
		"encoder", cfg.EncoderBaseURL,
		"model", cfg.EncoderModelName,
	)
	worker.Run(ctx)
}
