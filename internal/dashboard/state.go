// Package dashboard holds the per-session state reducer: tasks bucketed by date, payments,
// reminders, the notification log and the chat log.
//
// A State is owned by a single session and is not safe for concurrent use. Queries never
// mutate; mutations validate every input before touching any collection, so a failed action
// leaves the state exactly as it was.
package dashboard

import (
	"time"

	"github.com/benvon/smart-dashboard/internal/models"
	"github.com/google/uuid"
)

const (
	// DefaultNotificationDisplay is how many log entries a snapshot shows.
	DefaultNotificationDisplay = 6
	// DefaultNotificationRetention caps the stored notification log.
	DefaultNotificationRetention = 200
	// DefaultChatRetention caps the stored chat log.
	DefaultChatRetention = 200
)

// State is the complete dashboard state of one session.
type State struct {
	now   func() time.Time
	newID func() uuid.UUID
	loc   *time.Location

	tasks     map[models.Date][]*models.Task
	taskIndex map[uuid.UUID]models.Date

	payments     []*models.Payment
	paymentIndex map[uuid.UUID]*models.Payment

	reminders     []*models.Reminder
	reminderIndex map[uuid.UUID]*models.Reminder

	notifications         []models.NotificationEntry
	notificationRetention int
	notificationDisplay   int

	chat          []models.ChatTurn
	chatRetention int
}

// Option configures a State.
type Option func(*State)

// WithClock replaces time.Now. "Today" and reminder validation derive from it.
func WithClock(now func() time.Time) Option {
	return func(s *State) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator replaces uuid.New for generated identifiers.
func WithIDGenerator(gen func() uuid.UUID) Option {
	return func(s *State) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// WithLocation sets the zone used to turn timestamps into calendar dates.
func WithLocation(loc *time.Location) Option {
	return func(s *State) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithNotificationDisplay sets how many recent log entries a snapshot includes.
func WithNotificationDisplay(n int) Option {
	return func(s *State) {
		if n > 0 {
			s.notificationDisplay = n
		}
	}
}

// WithRetention caps the stored notification and chat logs. Oldest entries are dropped first.
func WithRetention(notifications, chat int) Option {
	return func(s *State) {
		if notifications > 0 {
			s.notificationRetention = notifications
		}
		if chat > 0 {
			s.chatRetention = chat
		}
	}
}

// New returns an empty State.
func New(opts ...Option) *State {
	s := &State{
		now:                   time.Now,
		newID:                 uuid.New,
		loc:                   time.Local,
		tasks:                 make(map[models.Date][]*models.Task),
		taskIndex:             make(map[uuid.UUID]models.Date),
		paymentIndex:          make(map[uuid.UUID]*models.Payment),
		reminderIndex:         make(map[uuid.UUID]*models.Reminder),
		notificationRetention: DefaultNotificationRetention,
		notificationDisplay:   DefaultNotificationDisplay,
		chatRetention:         DefaultChatRetention,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Now returns the current time from the state's clock.
func (s *State) Now() time.Time {
	return s.now().In(s.loc)
}

// Today returns the current calendar date in the state's location.
func (s *State) Today() models.Date {
	return models.DateOf(s.Now())
}

// Stats computes the overview counters. Task counts follow one definition: tasks dated
// strictly before today are completed, tasks dated today or later are upcoming.
func (s *State) Stats() models.Stats {
	today := s.Today()
	var st models.Stats
	for date, bucket := range s.tasks {
		if date.Before(today) {
			st.CompletedCount += len(bucket)
		} else {
			st.UpcomingCount += len(bucket)
		}
		for _, t := range bucket {
			if t.Completed {
				st.CheckedCount++
			}
		}
	}
	st.PendingPayments = s.PendingCount()
	for _, r := range s.reminders {
		if models.DateOf(r.FireAt.In(s.loc)) == today {
			st.RemindersToday++
		}
	}
	return st
}

// Snapshot returns everything the dashboard displays for the selected date.
func (s *State) Snapshot(selected models.Date) models.Snapshot {
	today := s.Today()
	if selected.IsZero() {
		selected = today
	}
	return models.Snapshot{
		SelectedDate:      selected,
		Today:             today,
		Tasks:             s.TasksFor(selected),
		Payments:          s.Payments(),
		DueToday:          s.DueToday(today),
		Notifications:     s.Notifications(s.notificationDisplay),
		UpcomingReminders: s.UpcomingReminders(),
		Chat:              s.ChatLog(),
		Stats:             s.Stats(),
	}
}
