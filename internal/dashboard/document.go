package dashboard

import (
	"fmt"
	"slices"

	"github.com/benvon/smart-dashboard/internal/models"
)

// Export captures the state as a persistable document.
func (s *State) Export() models.StateDocument {
	doc := models.StateDocument{
		Version:       models.StateDocumentVersion,
		Payments:      s.Payments(),
		Reminders:     s.Reminders(),
		Notifications: s.Notifications(0),
		Chat:          s.ChatLog(),
		SavedAt:       s.Now(),
	}
	for _, date := range s.Dates() {
		for _, t := range s.tasks[date] {
			doc.Tasks = append(doc.Tasks, *t)
		}
	}
	return doc
}

// Restore replaces the state's collections with the document's contents.
// On error the state is left unchanged.
func (s *State) Restore(doc models.StateDocument) error {
	if doc.Version != models.StateDocumentVersion {
		return fmt.Errorf("unsupported state document version %d", doc.Version)
	}

	fresh := New(WithClock(s.now), WithIDGenerator(s.newID), WithLocation(s.loc),
		WithNotificationDisplay(s.notificationDisplay),
		WithRetention(s.notificationRetention, s.chatRetention))

	for i := range doc.Tasks {
		t := doc.Tasks[i]
		if _, dup := fresh.taskIndex[t.ID]; dup {
			return fmt.Errorf("duplicate task id %s in state document", t.ID)
		}
		fresh.insertTask(&t)
	}
	for i := range doc.Payments {
		p := doc.Payments[i]
		if _, dup := fresh.paymentIndex[p.ID]; dup {
			return fmt.Errorf("duplicate payment id %s in state document", p.ID)
		}
		fresh.payments = append(fresh.payments, &p)
		fresh.paymentIndex[p.ID] = &p
	}
	for i := range doc.Reminders {
		r := doc.Reminders[i]
		if _, dup := fresh.reminderIndex[r.ID]; dup {
			return fmt.Errorf("duplicate reminder id %s in state document", r.ID)
		}
		fresh.insertReminder(&r)
	}
	fresh.notifications = newest(slices.Clone(doc.Notifications), fresh.notificationRetention)
	fresh.chat = newest(slices.Clone(doc.Chat), fresh.chatRetention)

	*s = *fresh
	return nil
}

// Dates returns every date that has at least one task, ascending.
func (s *State) Dates() []models.Date {
	dates := make([]models.Date, 0, len(s.tasks))
	for d := range s.tasks {
		dates = append(dates, d)
	}
	slices.SortFunc(dates, models.Date.Compare)
	return dates
}
