package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"talentTrack/internal/ai"
	"talentTrack/internal/config"
	"talentTrack/internal/database"
	"talentTrack/internal/metrics"
	"talentTrack/internal/storage"
	"talentTrack/internal/tasks"
	"talentTrack/internal/worker"
)

func main() {
	cfg := config.MustLoad()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	db, err := database.InitDatabase(cfg.Database)
	if err != nil {
		log.Fatalf("init database: %v", err)
	}
	logger.Info("database connection ready for worker")

	storageClient, err := storage.NewClient(cfg.MinIO)
	if err != nil {
		log.Fatalf("init storage client: %v", err)
	}
	logger.Info("storage client ready", slog.String("bucket", cfg.MinIO.Bucket))

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr()})
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error("close redis client failed", slog.Any("error", err))
		}
	}()
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.Fatalf("ping redis: %v", err)
	}

	var aiClient *ai.Client
	if cfg.Gemini.Enabled() {
		aiClient, err = ai.NewClient(context.Background(), cfg.Gemini.APIKey, cfg.Gemini.Model, cfg.Gemini.Timeout, logger)
		if err != nil {
			log.Fatalf("init gemini client: %v", err)
		}
		logger.Info("model client ready", slog.String("model", cfg.Gemini.Model))
	} else {
		logger.Info("no model api key configured, heuristic parsing only")
	}

	server := asynq.NewServer(asynq.RedisClientOpt{Addr: cfg.Redis.Addr()}, asynq.Config{
		Concurrency: 10,
	})

	parseHandler := worker.NewResumeParseHandler(db, storageClient, redisClient, aiClient, logger)
	recomputeHandler := worker.NewMatchRecomputeHandler(db, redisClient, aiClient, cfg.Recompute.PageSize, logger)

	mux := asynq.NewServeMux()
	mux.Use(metrics.AsynqMetricsMiddleware())
	mux.Handle(tasks.TypeResumeParse, parseHandler)
	mux.Handle(tasks.TypeMatchRecompute, recomputeHandler)

	logger.Info("worker service started", slog.String("redis_addr", cfg.Redis.Addr()))
	if err := server.Run(mux); err != nil {
		logger.Error("worker server stopped", slog.Any("error", err))
	}
}
