package queue

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

const (
	connectMaxRetries   = 10
	connectInitialDelay = 2 * time.Second
	connectMaxDelay     = 30 * time.Second
)

// Connect dials RabbitMQ, retrying with exponential backoff so processes can start before
// the broker is ready.
func Connect(ctx context.Context, amqpURL string, logger *zap.Logger) (*RabbitMQQueue, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var lastErr error
	for attempt := 0; attempt < connectMaxRetries; attempt++ {
		q, err := NewRabbitMQQueue(amqpURL, logger)
		if err == nil {
			logger.Info("connected_to_rabbitmq", zap.Int("attempt", attempt+1))
			return q, nil
		}
		lastErr = err

		delay := min(connectInitialDelay*time.Duration(1<<uint(attempt)), connectMaxDelay)
		logger.Warn("failed_to_connect_to_rabbitmq_retrying",
			zap.Int("attempt", attempt+1),
			zap.Int("max_retries", connectMaxRetries),
			zap.Duration("retry_delay", delay),
			zap.Error(err),
		)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
	return nil, fmt.Errorf("failed to connect to rabbitmq after %d attempts: %w", connectMaxRetries, lastErr)
}
