package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/benvon/smart-dashboard/internal/config"
	"github.com/benvon/smart-dashboard/internal/logger"
	"github.com/benvon/smart-dashboard/internal/queue"
	"github.com/benvon/smart-dashboard/internal/telemetry"
	"github.com/benvon/smart-dashboard/internal/workers"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	deadLetterSweepInterval = time.Hour
	deadLetterRetention     = 24 * time.Hour
)

func main() {
	debugFlag := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.RabbitMQURL == "" {
		log.Fatalf("RABBITMQ_URL is required for the reminder worker")
	}
	debugMode := cfg.WorkerDebugMode || *debugFlag

	zapLogger, err := logger.New(cfg.LogFormat, debugMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err = run(ctx, cfg, zapLogger)
	stop()
	if err != nil {
		zapLogger.Error("worker_failed", zap.Error(err))
		_ = logger.Sync(zapLogger)
		os.Exit(1)
	}
	zapLogger.Info("worker_stopped")
	_ = logger.Sync(zapLogger)
}

func run(ctx context.Context, cfg *config.Config, zapLogger *zap.Logger) error {
	zapLogger.Info("worker_starting",
		zap.Int("prefetch", cfg.RabbitMQPrefetch),
		zap.Bool("otel_enabled", cfg.OTELEnabled),
	)

	shutdownTracing, err := telemetry.Setup(ctx, cfg.OTELEnabled && cfg.OTELEndpoint != "", "smart-dashboard-worker", cfg.OTELEndpoint)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			zapLogger.Error("failed_to_shutdown_otel_tracer", zap.Error(err))
		}
	}()

	jobQueue, err := queue.Connect(ctx, cfg.RabbitMQURL, zapLogger)
	if err != nil {
		return err
	}
	defer func() {
		if err := jobQueue.Close(); err != nil {
			zapLogger.Warn("failed_to_close_rabbitmq_connection", zap.Error(err))
		}
	}()

	msgs, errs, err := jobQueue.Consume(ctx, cfg.RabbitMQPrefetch)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	// Delivered reminders land in the structured log, where the alerting pipeline picks
	// up reminder_due events.
	worker := workers.NewDeliveryWorker(workers.NewLogNotifier(zapLogger), jobQueue, zapLogger)
	sweeper := queue.NewDeadLetterSweeper(jobQueue, deadLetterSweepInterval, deadLetterRetention, zapLogger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		zapLogger.Info("worker_consuming", zap.String("queue", queue.DefaultQueueName))
		return ignoreCanceled(worker.Run(gctx, msgs, errs))
	})
	g.Go(func() error {
		zapLogger.Info("dead_letter_sweeper_started",
			zap.Duration("interval", deadLetterSweepInterval),
			zap.Duration("retention", deadLetterRetention),
		)
		return ignoreCanceled(sweeper.Start(gctx))
	})
	return g.Wait()
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
