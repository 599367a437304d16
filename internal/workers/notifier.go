package workers

import (
	"context"
	"fmt"

	"github.com/benvon/smart-dashboard/internal/models"
	"github.com/benvon/smart-dashboard/internal/queue"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Notifier hands a due reminder to the user-facing delivery channel.
type Notifier interface {
	Notify(ctx context.Context, sessionID uuid.UUID, r models.Reminder, message string) error
}

// LogNotifier writes due reminders to the structured log.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a notifier that logs reminder_due events.
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogNotifier{logger: logger}
}

// Notify logs the reminder.
func (n *LogNotifier) Notify(_ context.Context, sessionID uuid.UUID, r models.Reminder, message string) error {
	n.logger.Info("reminder_due",
		zap.String("session_id", sessionID.String()),
		zap.String("reminder_id", r.ID.String()),
		zap.String("subject_kind", string(r.Subject.Kind)),
		zap.String("subject_id", r.Subject.ID.String()),
		zap.Time("fire_at", r.FireAt),
		zap.String("message", message),
	)
	return nil
}

// QueueNotifier publishes a reminder_due job for cmd/worker to deliver.
type QueueNotifier struct {
	jobQueue queue.ReminderQueue
}

// NewQueueNotifier creates a notifier backed by a job queue.
func NewQueueNotifier(jobQueue queue.ReminderQueue) *QueueNotifier {
	return &QueueNotifier{jobQueue: jobQueue}
}

// Notify enqueues the reminder.
func (n *QueueNotifier) Notify(ctx context.Context, sessionID uuid.UUID, r models.Reminder, message string) error {
	job := queue.NewReminderJob(sessionID, r, message)
	if err := n.jobQueue.Enqueue(ctx, job); err != nil {
		return fmt.Errorf("failed to enqueue reminder %s: %w", r.ID, err)
	}
	return nil
}
