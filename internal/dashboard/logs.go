package dashboard

import (
	"github.com/benvon/smart-dashboard/internal/models"
)

// Notifications returns up to limit of the most recent log entries, oldest first.
// A non-positive limit returns the whole retained log.
func (s *State) Notifications(limit int) []models.NotificationEntry {
	start := 0
	if limit > 0 && len(s.notifications) > limit {
		start = len(s.notifications) - limit
	}
	return append([]models.NotificationEntry(nil), s.notifications[start:]...)
}

// AppendChat records a completed chat exchange.
func (s *State) AppendChat(turn models.ChatTurn) {
	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = s.Now()
	}
	s.chat = newest(append(s.chat, turn), s.chatRetention)
}

// ChatLog returns a copy of the retained chat log, oldest first.
func (s *State) ChatLog() []models.ChatTurn {
	return append([]models.ChatTurn(nil), s.chat...)
}

// ChatHistory returns at most the last n turns, oldest first.
func (s *State) ChatHistory(n int) []models.ChatTurn {
	start := 0
	if n >= 0 && len(s.chat) > n {
		start = len(s.chat) - n
	}
	return append([]models.ChatTurn(nil), s.chat[start:]...)
}

func (s *State) appendNotification(kind models.NotificationKind, message string) {
	s.notifications = append(s.notifications, models.NotificationEntry{
		ID:        s.newID(),
		Message:   message,
		Kind:      kind,
		CreatedAt: s.Now(),
	})
	s.notifications = newest(s.notifications, s.notificationRetention)
}

// newest drops the oldest entries of log beyond limit.
func newest[T any](log []T, limit int) []T {
	if over := len(log) - limit; over > 0 {
		return append(log[:0:0], log[over:]...)
	}
	return log
}
