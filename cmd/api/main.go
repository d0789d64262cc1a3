package main

import (
	"context"
	"log"
	"log/slog"
	nethttp "net/http"
	"os"

	"modalsearch/internal/config"
	"modalsearch/internal/embedding"
	"modalsearch/internal/files"
	"modalsearch/internal/handlers"
	"modalsearch/internal/http"
	"modalsearch/internal/jobs"
	"modalsearch/internal/search"
	"modalsearch/internal/service"
	"modalsearch/internal/storage"
	"modalsearch/internal/vectorstore"
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
	slog.SetDefault(slog.New(handler))

	db, err := storage.New(cfg.DSN())
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	if err := storage.Migrate(db, cfg.VectorSize); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	slog.Info("Database ready", "vector_size", cfg.VectorSize)

	contentRepo := storage.NewContentRepo(db)
	queryRepo := storage.NewQueryRepo(db)
	recordRepo := storage.NewSearchRecordRepo(db)
	taskRepo := storage.NewTaskRepo(db)
	modelRepo := storage.NewModelRepo(db)

	queue := jobs.NewRedisQueue(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err := queue.Ping(context.Background()); err != nil {
		// The API still serves reads with the queue down; uploads and
		// search will report 503 until it returns.
		slog.Warn("Job queue unreachable at startup", "addr", cfg.RedisAddr, "error", err)
	}

	fileStore, err := files.NewDiskStore(cfg.UploadRoot)
	if err != nil {
		log.Fatalf("Failed to prepare upload root: %v", err)
	}
	slog.Info("Upload root ready", "path", cfg.UploadRoot)

	policy, err := search.NewPolicy(cfg.FusionPolicy)
	if err != nil {
		log.Fatalf("Failed to configure fusion policy: %v", err)
	}

	searcher := vectorstore.NewPgvectorStore(db, cfg.VectorSize)
	engine := search.NewEngine(
		searcher,
		queryRepo,
		recordRepo,
		modelRepo,
		policy,
		cfg.CandidateWidth,
		cfg.DefaultLimit,
	)
	slog.Info("Search engine initialized", "policy", policy.Name(), "candidate_width", cfg.CandidateWidth)

	producer := embedding.NewProducer(queue, cfg.SyncEmbedTimeout)
	taskService := service.NewTaskService(taskRepo, queue)

	deps := &http.Deps{
		Contents: handlers.NewContentHandler(fileStore, contentRepo, taskRepo, producer),
		Search:   handlers.NewSearchHandler(producer, engine, queryRepo, recordRepo, fileStore),
		Tasks:    handlers.NewTaskHandler(taskService),
		Health:   handlers.NewHealthHandler(storage.NewPinger(db), queue),
	}
	router := http.NewRouter(deps)

	addr := ":" + cfg.APIPort
	slog.Info("Starting API server", "addr", addr)
	if err := nethttp.ListenAndServe(addr, router); err != nil {
		log.Fatalf("API server failed to start: %v", err)
	}
}
