package queue

import (
	"context"
	"time"
)

// Delivery is one consumed reminder job awaiting acknowledgement.
type Delivery interface {
	Ack() error
	// Nack without requeue routes the job to the dead letter queue.
	Nack(requeue bool) error
	Job() *Job
}

// ReminderQueue carries reminder_due jobs from the dispatcher to delivery workers.
type ReminderQueue interface {
	Enqueue(ctx context.Context, job *Job) error

	// Consume delivers jobs until ctx is cancelled. Each delivery must be acked or nacked.
	// prefetchCount bounds the unacknowledged deliveries held by this consumer.
	Consume(ctx context.Context, prefetchCount int) (<-chan Delivery, <-chan error, error)

	Close() error
	HealthCheck(ctx context.Context) error
}

// DeadLetterPurger removes dead-lettered jobs older than a retention window.
type DeadLetterPurger interface {
	PurgeOlderThan(ctx context.Context, retention time.Duration) (int, error)
}
