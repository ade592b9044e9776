package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AnuragPathakTDL/ContentService/internal/api/handler"
	"github.com/AnuragPathakTDL/ContentService/internal/api/middleware"
	"github.com/AnuragPathakTDL/ContentService/internal/config"
	"github.com/AnuragPathakTDL/ContentService/internal/infrastructure/cache"
	"github.com/AnuragPathakTDL/ContentService/internal/infrastructure/postgres"
	"github.com/AnuragPathakTDL/ContentService/internal/infrastructure/queue"
	"github.com/AnuragPathakTDL/ContentService/internal/infrastructure/storage"
	"github.com/AnuragPathakTDL/ContentService/internal/usecase"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	pgClient, err := postgres.NewClient(ctx, postgres.DefaultClientConfig(cfg.Database.DSN()))
	if err != nil {
		return fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	defer pgClient.Close()
	logger.Info("connected to PostgreSQL")

	redisClient, err := cache.NewClient(ctx, cache.ClientConfig{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	defer redisClient.Close()
	logger.Info("connected to Redis")

	storageClient, err := storage.NewClient(ctx, storage.ClientConfig{
		Endpoint:       cfg.MinIO.Endpoint,
		PublicEndpoint: cfg.MinIO.PublicEndpoint,
		AccessKey:      cfg.MinIO.AccessKey,
		SecretKey:      cfg.MinIO.SecretKey,
		Bucket:         cfg.MinIO.Bucket,
		UseSSL:         cfg.MinIO.UseSSL,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to MinIO: %w", err)
	}
	logger.Info("connected to MinIO")

	queueClient, err := queue.NewClient(ctx, queue.ClientConfig{
		URL:          cfg.RabbitMQ.URL(),
		Exchange:     cfg.RabbitMQ.Exchange,
		MetricsQueue: cfg.RabbitMQ.MetricsQueue,
		Prefetch:     cfg.RabbitMQ.Prefetch,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	defer queueClient.Close()
	logger.Info("connected to RabbitMQ")

	catalogRepo := postgres.NewCatalogRepository(pgClient.Pool())
	catalogSvc := usecase.NewViewerCatalogService(
		catalogRepo,
		cache.NewRedisStore(redisClient),
		usecase.NewTrendingAggregator(cache.NewRedisTrendingStore(redisClient)),
		usecase.NewQualityMonitor(),
		queueClient,
		storageClient,
		usecase.ViewerCatalogConfig{
			FeedTTL:        cfg.Cache.FeedTTL,
			SeriesTTL:      cfg.Cache.SeriesTTL,
			RelatedTTL:     cfg.Cache.RelatedTTL,
			CategoriesTTL:  cfg.Cache.CategoriesTTL,
			PlaybackURLTTL: cfg.Cache.PlaybackURLTTL,
		},
	)

	readiness := map[string]func(context.Context) error{
		"postgres": pgClient.Ping,
		"redis": func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		},
		"minio": storageClient.Ping,
	}

	r := setupRouter(logger, handler.NewCatalogHandler(catalogSvc), readiness)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("server error: %w", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		logger.Info("shutting down server", slog.String("signal", sig.String()))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

func setupRouter(logger *slog.Logger, catalog *handler.CatalogHandler, readiness map[string]func(context.Context) error) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recoverer(logger))

	r.Get("/health", handler.Health)
	r.Get("/ready", handler.Ready(readiness))
	r.Handle("/metrics", promhttp.Handler())

	catalog.RegisterRoutes(r)

	return r
}
