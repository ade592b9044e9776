package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/AnuragPathakTDL/ContentService/internal/config"
	"github.com/AnuragPathakTDL/ContentService/internal/domain/model"
	"github.com/AnuragPathakTDL/ContentService/internal/domain/repository"
	"github.com/AnuragPathakTDL/ContentService/internal/infrastructure/cache"
	"github.com/AnuragPathakTDL/ContentService/internal/infrastructure/queue"
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

	aggregator := usecase.NewTrendingAggregator(cache.NewRedisTrendingStore(redisClient))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	var wg sync.WaitGroup

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting worker, consuming engagement metrics")
		err := queueClient.ConsumeMetricsTasks(ctx, func(task repository.MetricsTask) error {
			wg.Add(1)
			defer wg.Done()

			if task.RetryCount >= cfg.Worker.MaxRetries {
				logger.Error("dropping metrics event after max retries",
					slog.String("event_id", task.Event.EventID.String()),
					slog.String("content_id", task.Event.ContentID.String()),
					slog.Int("retry_count", task.RetryCount),
				)
				return nil
			}

			if err := aggregator.ApplyMetrics(ctx, []model.MetricsEvent{task.Event}); err != nil {
				logger.Error("failed to apply metrics event",
					slog.String("event_id", task.Event.EventID.String()),
					slog.String("content_id", task.Event.ContentID.String()),
					slog.Int("retry_count", task.RetryCount),
					slog.String("error", err.Error()),
				)
				return err
			}

			logger.Info("metrics event applied",
				slog.String("event_id", task.Event.EventID.String()),
				slog.String("content_id", task.Event.ContentID.String()),
			)
			return nil
		})
		if err != nil && ctx.Err() == nil {
			errCh <- fmt.Errorf("consumer error: %w", err)
		}
	}()

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		logger.Info("shutting down worker", slog.String("signal", sig.String()))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Worker.ShutdownTimeout)
	defer shutdownCancel()

	cancel()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logger.Info("all in-flight events applied")
	case <-shutdownCtx.Done():
		logger.Warn("shutdown timeout exceeded, some events may not have been applied")
	}

	logger.Info("worker stopped")
	return nil
}
