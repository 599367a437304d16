package handlers

import (
	"net/http"
	"time"

	"github.com/benvon/smart-dashboard/internal/dashboard"
	"github.com/benvon/smart-dashboard/internal/models"
	"github.com/benvon/smart-dashboard/internal/validation"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreateTaskRequest is the body of POST /api/v1/tasks
type CreateTaskRequest struct {
	Date        string     `json:"date" validate:"omitempty,civil_date"`
	Description string     `json:"description" validate:"required,max=500"`
	RemindAt    *time.Time `json:"remind_at,omitempty"`
}

// ToggleTaskRequest is the optional body of POST /api/v1/tasks/{id}/toggle
type ToggleTaskRequest struct {
	Date string `json:"date" validate:"omitempty,civil_date"`
}

// TaskCreated is returned after a task is added
type TaskCreated struct {
	Task       models.Task `json:"task"`
	ReminderID *uuid.UUID  `json:"reminder_id,omitempty"`
}

// ToggleResult reports the flag value after a toggle
type ToggleResult struct {
	ID    uuid.UUID `json:"id"`
	Value bool      `json:"value"`
}

// ListTasks handles GET /api/v1/tasks
func (h *DashboardHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	date, ok := queryDate(w, r)
	if !ok {
		return
	}
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var tasks []models.Task
	s.View(func(st *dashboard.State) {
		if date.IsZero() {
			date = st.Today()
		}
		tasks = st.TasksFor(date)
	})
	respondJSON(w, http.StatusOK, map[string]any{
		"date":  date,
		"tasks": nonNil(tasks),
	})
}

// CreateTask handles POST /api/v1/tasks
func (h *DashboardHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	var req CreateTaskRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var created TaskCreated
	err := s.Do(r.Context(), func(st *dashboard.State) error {
		date := st.Today()
		if req.Date != "" {
			date = models.MustParseDate(req.Date)
		}
		description := validation.SanitizeText(req.Description)

		var (
			taskID uuid.UUID
			err    error
		)
		if req.RemindAt != nil {
			var reminderID uuid.UUID
			taskID, reminderID, err = st.AddTaskWithReminder(date, description, *req.RemindAt)
			created.ReminderID = &reminderID
		} else {
			taskID, err = st.AddTask(date, description)
		}
		if err != nil {
			return err
		}
		created.Task, err = st.Task(taskID)
		return err
	})
	if err != nil {
		respondDomainError(w, err)
		return
	}

	h.logger.Debug("task_created",
		zap.String("task_id", created.Task.ID.String()),
		zap.String("date", created.Task.Date.String()),
		zap.Bool("with_reminder", created.ReminderID != nil),
	)
	respondJSON(w, http.StatusCreated, created)
}

// ToggleTask handles POST /api/v1/tasks/{id}/toggle. A body of {"date": ...} restricts the
// lookup to that date's bucket.
func (h *DashboardHandler) ToggleTask(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req ToggleTaskRequest
	if !decodeJSON(w, r, &req, true) {
		return
	}
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var completed bool
	err := s.Do(r.Context(), func(st *dashboard.State) error {
		var err error
		if req.Date != "" {
			completed, err = st.ToggleTask(models.MustParseDate(req.Date), id)
		} else {
			completed, err = st.ToggleTaskByID(id)
		}
		return err
	})
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, ToggleResult{ID: id, Value: completed})
}
