package dashboard

import (
	"fmt"
	"time"

	"github.com/benvon/smart-dashboard/internal/models"
	"github.com/benvon/smart-dashboard/internal/validation"
	"github.com/google/uuid"
)

// AddTask appends a task to the date's bucket, creating the bucket if needed.
func (s *State) AddTask(date models.Date, description string) (uuid.UUID, error) {
	task, err := s.newTask(date, description)
	if err != nil {
		return uuid.Nil, err
	}
	s.insertTask(task)
	return task.ID, nil
}

// AddTaskWithReminder adds a task and schedules a reminder for it in one action.
// If remindAt is in the past neither the task nor the reminder is stored.
func (s *State) AddTaskWithReminder(date models.Date, description string, remindAt time.Time) (uuid.UUID, uuid.UUID, error) {
	task, err := s.newTask(date, description)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	if err := s.checkFireAt(remindAt); err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	s.insertTask(task)
	reminder := s.newReminder(models.SubjectRef{Kind: models.SubjectTask, ID: task.ID, Label: task.Description}, remindAt)
	s.insertReminder(reminder)
	return task.ID, reminder.ID, nil
}

// ToggleTask flips the completion flag of a task within the given date and returns the new
// value. Only the false to true transition writes a log entry.
func (s *State) ToggleTask(date models.Date, taskID uuid.UUID) (bool, error) {
	bucket, ok := s.tasks[date]
	if !ok {
		return false, notFound("date", date.String())
	}
	for _, t := range bucket {
		if t.ID != taskID {
			continue
		}
		t.Completed = !t.Completed
		if t.Completed {
			now := s.Now()
			t.CompletedAt = &now
			s.appendNotification(models.NotificationTask, fmt.Sprintf("Task '%s' completed", t.Description))
		} else {
			t.CompletedAt = nil
		}
		return t.Completed, nil
	}
	return false, notFound("task", taskID.String())
}

// ToggleTaskByID resolves the task's date and toggles it.
func (s *State) ToggleTaskByID(taskID uuid.UUID) (bool, error) {
	date, ok := s.taskIndex[taskID]
	if !ok {
		return false, notFound("task", taskID.String())
	}
	return s.ToggleTask(date, taskID)
}

// TasksFor returns a copy of the date's tasks in insertion order.
func (s *State) TasksFor(date models.Date) []models.Task {
	bucket := s.tasks[date]
	out := make([]models.Task, 0, len(bucket))
	for _, t := range bucket {
		out = append(out, *t)
	}
	return out
}

// Task returns a copy of the task with the given id.
func (s *State) Task(taskID uuid.UUID) (models.Task, error) {
	t := s.findTask(taskID)
	if t == nil {
		return models.Task{}, notFound("task", taskID.String())
	}
	return *t, nil
}

func (s *State) newTask(date models.Date, description string) (*models.Task, error) {
	if date.IsZero() {
		return nil, invalid("date", "date is required")
	}
	description = validation.SanitizeText(description)
	if description == "" {
		return nil, invalid("description", "description must not be empty")
	}
	return &models.Task{
		ID:          s.newID(),
		Date:        date,
		Description: description,
		CreatedAt:   s.Now(),
	}, nil
}

func (s *State) insertTask(t *models.Task) {
	s.tasks[t.Date] = append(s.tasks[t.Date], t)
	s.taskIndex[t.ID] = t.Date
}

func (s *State) findTask(taskID uuid.UUID) *models.Task {
	date, ok := s.taskIndex[taskID]
	if !ok {
		return nil
	}
	for _, t := range s.tasks[date] {
		if t.ID == taskID {
			return t
		}
	}
	return nil
}
