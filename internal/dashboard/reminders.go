package dashboard

import (
	"cmp"
	"fmt"
	"slices"
	"time"

	"github.com/benvon/smart-dashboard/internal/models"
	"github.com/google/uuid"
)

// Schedule registers a reminder for an existing task or payment. fireAt may equal the
// current time but must not precede it.
func (s *State) Schedule(subject models.SubjectRef, fireAt time.Time) (uuid.UUID, error) {
	if !subject.Kind.Valid() {
		return uuid.Nil, invalid("subject_kind", fmt.Sprintf("unknown subject kind %q", subject.Kind))
	}
	if err := s.checkFireAt(fireAt); err != nil {
		return uuid.Nil, err
	}

	switch subject.Kind {
	case models.SubjectTask:
		t := s.findTask(subject.ID)
		if t == nil {
			return uuid.Nil, notFound("task", subject.ID.String())
		}
		subject.Label = t.Description
	case models.SubjectPayment:
		p, ok := s.paymentIndex[subject.ID]
		if !ok {
			return uuid.Nil, notFound("payment", subject.ID.String())
		}
		subject.Label = p.Name
	}

	r := s.newReminder(subject, fireAt)
	s.insertReminder(r)
	return r.ID, nil
}

// DueForDelivery returns undelivered reminders with FireAt at or before now, earliest first.
// Reminders firing at the same instant keep their scheduling order.
func (s *State) DueForDelivery(now time.Time) []models.Reminder {
	var out []models.Reminder
	for _, r := range s.reminders {
		if !r.Delivered && !r.FireAt.After(now) {
			out = append(out, *r)
		}
	}
	sortByFireAt(out)
	return out
}

// MarkDelivered flags a reminder as delivered and logs it. Delivering twice is a no-op.
func (s *State) MarkDelivered(reminderID uuid.UUID) error {
	r, ok := s.reminderIndex[reminderID]
	if !ok {
		return notFound("reminder", reminderID.String())
	}
	if r.Delivered {
		return nil
	}
	now := s.Now()
	r.Delivered = true
	r.DeliveredAt = &now
	s.appendNotification(models.NotificationReminder, DeliveryMessage(*r))
	return nil
}

// UpcomingReminders returns every undelivered reminder, earliest first.
func (s *State) UpcomingReminders() []models.Reminder {
	var out []models.Reminder
	for _, r := range s.reminders {
		if !r.Delivered {
			out = append(out, *r)
		}
	}
	sortByFireAt(out)
	return out
}

// Reminders returns a copy of every reminder in scheduling order.
func (s *State) Reminders() []models.Reminder {
	out := make([]models.Reminder, 0, len(s.reminders))
	for _, r := range s.reminders {
		out = append(out, *r)
	}
	return out
}

// DeliveryMessage is the text shown to the user when a reminder fires.
func DeliveryMessage(r models.Reminder) string {
	return fmt.Sprintf("Reminder: '%s' is due now!", r.Subject.Label)
}

func (s *State) checkFireAt(fireAt time.Time) error {
	if fireAt.IsZero() {
		return invalid("fire_at", "reminder time is required")
	}
	if fireAt.Before(s.now()) {
		return invalid("fire_at", "reminder time is in the past")
	}
	return nil
}

func (s *State) newReminder(subject models.SubjectRef, fireAt time.Time) *models.Reminder {
	return &models.Reminder{
		ID:        s.newID(),
		Subject:   subject,
		FireAt:    fireAt,
		CreatedAt: s.Now(),
	}
}

func (s *State) insertReminder(r *models.Reminder) {
	s.reminders = append(s.reminders, r)
	s.reminderIndex[r.ID] = r
}

func sortByFireAt(rs []models.Reminder) {
	slices.SortStableFunc(rs, func(a, b models.Reminder) int {
		return cmp.Compare(a.FireAt.UnixNano(), b.FireAt.UnixNano())
	})
}
