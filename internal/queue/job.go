package queue

import (
	"time"

	"github.com/benvon/smart-dashboard/internal/models"
	"github.com/google/uuid"
)

// JobType represents the type of job
type JobType string

const (
	// JobTypeReminderDue announces that a reminder has reached its fire time.
	JobTypeReminderDue JobType = "reminder_due"
)

// DefaultMaxRetries is how many times a failed delivery is re-enqueued before it is dead-lettered.
const DefaultMaxRetries = 3

// Job represents a job in the queue
type Job struct {
	ID         uuid.UUID         `json:"id"`
	Type       JobType           `json:"type"`
	SessionID  uuid.UUID         `json:"session_id"`
	ReminderID uuid.UUID         `json:"reminder_id"`
	Subject    models.SubjectRef `json:"subject"`
	Message    string            `json:"message"`
	FireAt     time.Time         `json:"fire_at"`
	NotBefore  *time.Time        `json:"not_before,omitempty"` // Earliest time to process job (nil = immediate)
	NotAfter   *time.Time        `json:"not_after,omitempty"`  // Latest time to process job (nil = no expiration)
	CreatedAt  time.Time         `json:"created_at"`
	RetryCount int               `json:"retry_count"`
	MaxRetries int               `json:"max_retries"`
}

// NewReminderJob creates a reminder_due job for a reminder owned by a session.
func NewReminderJob(sessionID uuid.UUID, r models.Reminder, message string) *Job {
	return &Job{
		ID:         uuid.New(),
		Type:       JobTypeReminderDue,
		SessionID:  sessionID,
		ReminderID: r.ID,
		Subject:    r.Subject,
		Message:    message,
		FireAt:     r.FireAt,
		CreatedAt:  time.Now(),
		RetryCount: 0,
		MaxRetries: DefaultMaxRetries,
	}
}

// ShouldProcess checks if the job should be processed now
func (j *Job) ShouldProcess() bool {
	now := time.Now()

	if j.NotBefore != nil && now.Before(*j.NotBefore) {
		return false
	}
	if j.NotAfter != nil && now.After(*j.NotAfter) {
		return false
	}
	return true
}

// IsExpired checks if the job has expired
func (j *Job) IsExpired() bool {
	if j.NotAfter == nil {
		return false
	}
	return time.Now().After(*j.NotAfter)
}

// CanRetry checks if the job can be retried
func (j *Job) CanRetry() bool {
	return j.RetryCount < j.MaxRetries
}

// IncrementRetry increments the retry count
func (j *Job) IncrementRetry() {
	j.RetryCount++
}
