package models

import (
	"time"

	"github.com/google/uuid"
)

// SubjectKind identifies what a reminder points at
type SubjectKind string

const (
	SubjectTask    SubjectKind = "task"
	SubjectPayment SubjectKind = "payment"
)

// Valid reports whether k is a known subject kind.
func (k SubjectKind) Valid() bool {
	return k == SubjectTask || k == SubjectPayment
}

// SubjectRef references the task or payment a reminder is about.
// Label is captured at scheduling time so delivery does not need the store.
type SubjectRef struct {
	Kind  SubjectKind `json:"kind"`
	ID    uuid.UUID   `json:"id"`
	Label string      `json:"label,omitempty"`
}

// Reminder is a forward-looking notification that fires at FireAt.
type Reminder struct {
	ID          uuid.UUID  `json:"id"`
	Subject     SubjectRef `json:"subject"`
	FireAt      time.Time  `json:"fire_at"`
	Delivered   bool       `json:"delivered"`
	DeliveredAt *time.Time `json:"delivered_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// NotificationKind categorises a notification log entry
type NotificationKind string

const (
	NotificationTask     NotificationKind = "task"
	NotificationPayment  NotificationKind = "payment"
	NotificationReminder NotificationKind = "reminder"
)

// NotificationEntry is one past event in the notification log.
type NotificationEntry struct {
	ID        uuid.UUID        `json:"id"`
	Message   string           `json:"message"`
	Kind      NotificationKind `json:"kind"`
	CreatedAt time.Time        `json:"created_at"`
}
