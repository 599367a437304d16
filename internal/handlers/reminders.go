package handlers

import (
	"net/http"
	"time"

	"github.com/benvon/smart-dashboard/internal/dashboard"
	"github.com/benvon/smart-dashboard/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ScheduleReminderRequest is the body of POST /api/v1/reminders
type ScheduleReminderRequest struct {
	SubjectKind string     `json:"subject_kind" validate:"required,subject_kind"`
	SubjectID   string     `json:"subject_id" validate:"required,uuid"`
	FireAt      *time.Time `json:"fire_at" validate:"required"`
}

// ListReminders handles GET /api/v1/reminders
func (h *DashboardHandler) ListReminders(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var reminders []models.Reminder
	s.View(func(st *dashboard.State) {
		reminders = st.Reminders()
	})
	respondJSON(w, http.StatusOK, map[string]any{
		"reminders": nonNil(reminders),
	})
}

// ScheduleReminder handles POST /api/v1/reminders
func (h *DashboardHandler) ScheduleReminder(w http.ResponseWriter, r *http.Request) {
	var req ScheduleReminderRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	subject := models.SubjectRef{
		Kind: models.SubjectKind(req.SubjectKind),
		ID:   uuid.MustParse(req.SubjectID),
	}

	var reminder models.Reminder
	err := s.Do(r.Context(), func(st *dashboard.State) error {
		id, err := st.Schedule(subject, *req.FireAt)
		if err != nil {
			return err
		}
		for _, rem := range st.Reminders() {
			if rem.ID == id {
				reminder = rem
				break
			}
		}
		return nil
	})
	if err != nil {
		respondDomainError(w, err)
		return
	}

	h.logger.Debug("reminder_scheduled",
		zap.String("reminder_id", reminder.ID.String()),
		zap.String("subject_kind", string(reminder.Subject.Kind)),
		zap.Time("fire_at", reminder.FireAt),
	)
	respondJSON(w, http.StatusCreated, reminder)
}

// DueReminders handles GET /api/v1/reminders/due
func (h *DashboardHandler) DueReminders(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var due []models.Reminder
	s.View(func(st *dashboard.State) {
		due = st.DueForDelivery(st.Now())
	})
	respondJSON(w, http.StatusOK, map[string]any{
		"reminders": nonNil(due),
	})
}

// MarkDelivered handles POST /api/v1/reminders/{id}/delivered. Repeating it is harmless.
func (h *DashboardHandler) MarkDelivered(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	err := s.Do(r.Context(), func(st *dashboard.State) error {
		return st.MarkDelivered(id)
	})
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"id":        id,
		"delivered": true,
	})
}
