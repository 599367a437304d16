package models

import (
	"time"

	"github.com/google/uuid"
)

// Task is a to-do item that belongs to exactly one calendar date.
type Task struct {
	ID          uuid.UUID  `json:"id"`
	Date        Date       `json:"date"`
	Description string     `json:"description"`
	Completed   bool       `json:"completed"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Payment is a bill with a due date. Paid is only ever changed by the user.
type Payment struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	Amount    Money      `json:"amount"`
	DueDate   Date       `json:"due_date"`
	Paid      bool       `json:"paid"`
	CreatedAt time.Time  `json:"created_at"`
	PaidAt    *time.Time `json:"paid_at,omitempty"`
}

// Stats are the derived overview counters shown on the dashboard.
type Stats struct {
	// CompletedCount is the number of tasks dated strictly before today.
	CompletedCount int `json:"completed_count"`
	// UpcomingCount is the number of tasks dated today or later.
	UpcomingCount int `json:"upcoming_count"`
	// CheckedCount is the number of tasks flagged completed, regardless of date.
	CheckedCount    int `json:"checked_count"`
	PendingPayments int `json:"pending_payments"`
	RemindersToday  int `json:"reminders_today"`
}
