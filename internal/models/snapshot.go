package models

import "time"

// Snapshot is the full display state returned after every dashboard action.
type Snapshot struct {
	SelectedDate      Date                `json:"selected_date"`
	Today             Date                `json:"today"`
	Tasks             []Task              `json:"tasks"`
	Payments          []Payment           `json:"payments"`
	DueToday          []Payment           `json:"due_today"`
	Notifications     []NotificationEntry `json:"notifications"`
	UpcomingReminders []Reminder          `json:"upcoming_reminders"`
	Chat              []ChatTurn          `json:"chat"`
	Stats             Stats               `json:"stats"`
}

// StateDocument is the persisted form of one session's dashboard state.
type StateDocument struct {
	Version       int                 `json:"version"`
	Tasks         []Task              `json:"tasks"`
	Payments      []Payment           `json:"payments"`
	Reminders     []Reminder          `json:"reminders"`
	Notifications []NotificationEntry `json:"notifications"`
	Chat          []ChatTurn          `json:"chat"`
	SavedAt       time.Time           `json:"saved_at"`
}

// StateDocumentVersion is the current StateDocument schema version.
const StateDocumentVersion = 1

// SessionState pairs a persisted document with its session bookkeeping.
type SessionState struct {
	SessionID string        `json:"session_id"`
	Document  StateDocument `json:"document"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}
