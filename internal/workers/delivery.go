package workers

import (
	"context"
	"fmt"
	"time"

	"github.com/benvon/smart-dashboard/internal/models"
	"github.com/benvon/smart-dashboard/internal/queue"
	"go.uber.org/zap"
)

// DefaultRetryDelay is the base backoff for a failed reminder delivery.
const DefaultRetryDelay = 30 * time.Second

// DeliveryWorker consumes reminder_due jobs and hands them to a Notifier.
type DeliveryWorker struct {
	sink       Notifier
	jobQueue   queue.ReminderQueue
	retryDelay time.Duration
	logger     *zap.Logger
}

// NewDeliveryWorker creates a worker. jobQueue is used to re-enqueue failed deliveries.
func NewDeliveryWorker(sink Notifier, jobQueue queue.ReminderQueue, logger *zap.Logger) *DeliveryWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DeliveryWorker{
		sink:       sink,
		jobQueue:   jobQueue,
		retryDelay: DefaultRetryDelay,
		logger:     logger,
	}
}

// Run consumes messages until ctx is cancelled or the message channel closes.
func (w *DeliveryWorker) Run(ctx context.Context, msgs <-chan queue.Delivery, errs <-chan error) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			w.logger.Error("queue_error", zap.Error(err))
		case msg, ok := <-msgs:
			if !ok {
				w.logger.Info("queue_channel_closed")
				return nil
			}
			if err := w.ProcessJob(ctx, msg); err != nil {
				job := msg.Job()
				w.logger.Error("job_failed",
					zap.String("job_id", job.ID.String()),
					zap.String("job_type", string(job.Type)),
					zap.Int("retry_count", job.RetryCount),
					zap.Error(err),
				)
			}
		}
	}
}

// ProcessJob delivers one job and settles its message: ack on success, re-enqueue with
// backoff while retries remain, otherwise nack to the DLQ.
func (w *DeliveryWorker) ProcessJob(ctx context.Context, msg queue.Delivery) error {
	job := msg.Job()

	switch job.Type {
	case queue.JobTypeReminderDue:
		if err := w.sink.Notify(ctx, job.SessionID, reminderFromJob(job), job.Message); err != nil {
			return w.handleJobError(ctx, msg, job, err)
		}
		if err := msg.Ack(); err != nil {
			return fmt.Errorf("failed to ack job: %w", err)
		}
		w.logger.Info("reminder_delivered",
			zap.String("job_id", job.ID.String()),
			zap.String("reminder_id", job.ReminderID.String()),
			zap.Int("attempt", job.RetryCount+1),
		)
		return nil

	default:
		// Unknown job type, send to DLQ
		if err := msg.Nack(false); err != nil {
			w.logger.Warn("nack_failed", zap.Error(err))
		}
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
}

func (w *DeliveryWorker) handleJobError(ctx context.Context, msg queue.Delivery, job *queue.Job, err error) error {
	if !job.CanRetry() || w.jobQueue == nil {
		if nackErr := msg.Nack(false); nackErr != nil {
			w.logger.Warn("nack_failed", zap.Error(nackErr))
		}
		return fmt.Errorf("delivery failed after %d attempts: %w", job.RetryCount+1, err)
	}

	retry := *job
	retry.IncrementRetry()
	notBefore := time.Now().Add(w.retryDelay * time.Duration(1<<job.RetryCount))
	retry.NotBefore = &notBefore

	if enqueueErr := w.jobQueue.Enqueue(ctx, &retry); enqueueErr != nil {
		// Leave the original on the queue
		if nackErr := msg.Nack(true); nackErr != nil {
			w.logger.Warn("nack_failed", zap.Error(nackErr))
		}
		return fmt.Errorf("delivery failed, re-enqueue failed: %w", enqueueErr)
	}
	if ackErr := msg.Ack(); ackErr != nil {
		w.logger.Warn("ack_failed", zap.Error(ackErr))
	}
	return fmt.Errorf("delivery failed (retry %d/%d at %s): %w",
		retry.RetryCount, retry.MaxRetries, notBefore.Format(time.RFC3339), err)
}

func reminderFromJob(job *queue.Job) models.Reminder {
	return models.Reminder{
		ID:      job.ReminderID,
		Subject: job.Subject,
		FireAt:  job.FireAt,
	}
}
