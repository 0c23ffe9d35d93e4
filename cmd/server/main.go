package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"twin-core/internal/adapter/api"
	"twin-core/internal/adapter/client"
	"twin-core/internal/adapter/store"
	"twin-core/internal/cache"
	"twin-core/internal/config"
	"twin-core/internal/domain/entity"
	"twin-core/internal/domain/repository"
	"twin-core/internal/logger"
	"twin-core/internal/metrics"
	"twin-core/internal/usecase"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/qdrant/go-client/qdrant"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	if err := config.LoadDotEnv(".env.dev"); err != nil {
		log.Println("Warning: .env.dev file not found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	zl, err := logger.New(logger.Options{
		Level:      cfg.LogLevel,
		Production: cfg.IsProduction(),
		File:       cfg.LogFile,
	})
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	if err := run(cfg, zl); err != nil {
		zl.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, zl *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	profile, err := config.LoadProfile(cfg.ProfilePath)
	if err != nil {
		return err
	}

	genaiClient, err := client.NewGenAIClient(ctx, cfg.GenAI)
	if err != nil {
		return err
	}

	primaryModel := client.NewGeminiGenerator(genaiClient, cfg.GenAI.Model, profile, cfg.GenAI.Temperature)
	var fallbackModel repository.AnswerGenerator
	if cfg.GenAI.FallbackModel != "" && cfg.GenAI.FallbackModel != cfg.GenAI.Model {
		fallbackModel = client.NewGeminiGenerator(genaiClient, cfg.GenAI.FallbackModel, profile, cfg.GenAI.Temperature)
	}
	generator := usecase.NewResilientGenerator(primaryModel, fallbackModel, cfg.GenAI.MaxRetries, cfg.GenAI.Timeout, zl.Named("generator"))

	embedder := client.NewEmbedderFromClient(genaiClient, cfg.GenAI.EmbeddingModel, int32(cfg.GenAI.EmbeddingDim))

	// Qdrant holds the profile snippets
	qClient, err := qdrant.NewClient(&qdrant.Config{
		Host: cfg.Qdrant.Host,
		Port: cfg.Qdrant.Port,
	})
	if err != nil {
		return err
	}
	defer qClient.Close()

	vectorStore := store.NewQdrantStore(qClient, cfg.Qdrant.Collection, embedder, cfg.Qdrant.MinScore, zl.Named("qdrant"))
	if err := vectorStore.InitCollection(ctx, cfg.GenAI.EmbeddingDim); err != nil {
		return err
	}

	responses := cache.New[string](
		cache.WithDefaultTTL(cfg.Cache.TTL),
		cache.WithCleanupThreshold(cfg.Cache.CleanupThreshold),
	)
	responses.StartSweeper(ctx, cfg.Cache.SweepInterval)
	if err := metrics.RegisterCache(prometheus.DefaultRegisterer, responses); err != nil {
		return err
	}

	memLogs := store.NewMemoryLogStore(cfg.Logs.MaxLogs, store.WithLogStoreLogger(zl.Named("logs")))
	if cfg.Logs.Retention > 0 {
		memLogs.StartRetention(ctx, cfg.Logs.Retention, cfg.Logs.RetentionInterval)
	}

	var archive *store.SQLiteArchive
	if cfg.Logs.ArchivePath != "" {
		archive, err = store.NewSQLiteArchive(cfg.Logs.ArchivePath)
		if err != nil {
			return err
		}
		n, err := usecase.Restore(ctx, archive, memLogs, cfg.Logs.MaxLogs)
		if err != nil {
			zl.Warn("could not restore interaction log", zap.Error(err))
		} else {
			zl.Info("restored interaction log", zap.Int("entries", n))
		}
		if cfg.Logs.Retention > 0 {
			go pruneArchive(ctx, archive, cfg.Logs.Retention, cfg.Logs.RetentionInterval, zl)
		}
	}

	var recorder *usecase.Recorder
	if archive != nil {
		recorder = usecase.NewRecorder(memLogs, archive, cfg.Logs.ArchiveQueue, zl.Named("recorder"))
	} else {
		recorder = usecase.NewRecorder(memLogs, nil, 0, zl.Named("recorder"))
	}
	defer func() {
		if err := recorder.Close(); err != nil {
			zl.Warn("closing interaction archive", zap.Error(err))
		}
	}()

	var limiter repository.RateLimiter
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
		defer rdb.Close()
		limiter = store.NewRedisLimiter(rdb, cfg.Redis.QuestionLimit, cfg.Redis.Window)
	}

	pipeline := usecase.NewPipeline(vectorStore, generator, responses, recorder, usecase.PipelineConfig{
		TopK:     cfg.Pipeline.TopK,
		CacheTTL: cfg.Cache.TTL,
	}, usecase.WithPipelineLogger(zl.Named("pipeline")))
	analytics := usecase.NewAnalytics(memLogs, loc)

	go warmUp(embedder, generator, zl)

	app := fiber.New(fiber.Config{
		AppName: "Twin Gateway",
	})
	api.SetupRouter(app, api.NewChatHandler(pipeline, zl.Named("api")), api.NewAnalyticsHandler(analytics, responses), api.RouterConfig{
		Version:    cfg.AppVersion,
		Env:        cfg.Env,
		Limiter:    limiter,
		Log:        zl.Named("ratelimit"),
		AccessLogs: !cfg.IsProduction(),
	})

	errCh := make(chan error, 1)
	go func() {
		zl.Info("twin gateway listening", zap.String("port", cfg.Port), zap.String("env", cfg.Env))
		errCh <- app.Listen(":" + cfg.Port)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	zl.Info("shutting down")
	return app.ShutdownWithTimeout(10 * time.Second)
}

// warmUp wakes the embedding and generation models so the first visitor does not pay
// the cold start.
func warmUp(embedder *client.Embedder, generator repository.AnswerGenerator, zl *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if _, err := embedder.CreateEmbedding(ctx, "warmup"); err != nil {
		zl.Warn("embedder warm-up failed", zap.Error(err))
	}
	if _, err := generator.Generate(ctx, ".", entity.ContextBundle{}, nil); err != nil {
		zl.Warn("generator warm-up failed", zap.Error(err))
	}
	zl.Info("pre-warm complete")
}

func pruneArchive(ctx context.Context, archive *store.SQLiteArchive, maxAge, interval time.Duration, zl *zap.Logger) {
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := archive.Cleanup(ctx, time.Now().Add(-maxAge))
			if err != nil {
				zl.Warn("archive cleanup failed", zap.Error(err))
				continue
			}
			if n > 0 {
				zl.Info("pruned archived interactions", zap.Int64("rows", n))
			}
		}
	}
}
