package dashboard

import (
	"fmt"
	"testing"
	"time"

	"github.com/benvon/smart-dashboard/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func addTaskRef(t *testing.T, s *State, desc string) models.SubjectRef {
	t.Helper()
	id, err := s.AddTask(today(), desc)
	require.NoError(t, err)
	return models.SubjectRef{Kind: models.SubjectTask, ID: id}
}

func TestSchedule_PastRejected(t *testing.T) {
	t.Parallel()

	s, _ := newTestState(t)
	ref := addTaskRef(t, s, "standup")

	_, err := s.Schedule(ref, testNow.Add(-time.Second))
	require.Error(t, err)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "fire_at", ve.Field)
	assert.Empty(t, s.Reminders())
}

func TestSchedule_NowAccepted(t *testing.T) {
	t.Parallel()

	s, _ := newTestState(t)
	ref := addTaskRef(t, s, "standup")

	id, err := s.Schedule(ref, testNow)
	require.NoError(t, err)
	due := s.DueForDelivery(testNow)
	require.Len(t, due, 1)
	assert.Equal(t, id, due[0].ID)
	assert.Equal(t, "standup", due[0].Subject.Label)
}

func TestSchedule_SubjectChecks(t *testing.T) {
	t.Parallel()

	s, _ := newTestState(t)
	fireAt := testNow.Add(time.Hour)

	_, err := s.Schedule(models.SubjectRef{Kind: models.SubjectTask, ID: uuid.New()}, fireAt)
	assert.True(t, IsNotFound(err), "unknown task: %v", err)

	_, err = s.Schedule(models.SubjectRef{Kind: models.SubjectPayment, ID: uuid.New()}, fireAt)
	assert.True(t, IsNotFound(err), "unknown payment: %v", err)

	_, err = s.Schedule(models.SubjectRef{Kind: "meeting", ID: uuid.New()}, fireAt)
	assert.True(t, IsValidation(err), "unknown kind: %v", err)

	payID, err := s.AddPayment("Rent", "1200", today())
	require.NoError(t, err)
	_, err = s.Schedule(models.SubjectRef{Kind: models.SubjectPayment, ID: payID, Label: "ignored"}, fireAt)
	require.NoError(t, err)
	assert.Equal(t, "Rent", s.Reminders()[0].Subject.Label)
}

func TestDueForDelivery_OrderedAndFiltered(t *testing.T) {
	t.Parallel()

	s, clock := newTestState(t)
	ref := addTaskRef(t, s, "report")

	late, err := s.Schedule(ref, testNow.Add(30*time.Minute))
	require.NoError(t, err)
	early, err := s.Schedule(ref, testNow.Add(10*time.Minute))
	require.NoError(t, err)
	tieA, err := s.Schedule(ref, testNow.Add(20*time.Minute))
	require.NoError(t, err)
	tieB, err := s.Schedule(ref, testNow.Add(20*time.Minute))
	require.NoError(t, err)
	future, err := s.Schedule(ref, testNow.Add(2*time.Hour))
	require.NoError(t, err)

	clock.Advance(time.Hour)
	due := s.DueForDelivery(clock.Now())
	ids := make([]uuid.UUID, 0, len(due))
	for _, r := range due {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []uuid.UUID{early, tieA, tieB, late}, ids)

	require.NoError(t, s.MarkDelivered(tieA))
	due = s.DueForDelivery(clock.Now())
	require.Len(t, due, 3)
	for _, r := range due {
		assert.NotEqual(t, tieA, r.ID)
		assert.NotEqual(t, future, r.ID)
	}

	upcoming := s.UpcomingReminders()
	require.Len(t, upcoming, 4)
	assert.Equal(t, early, upcoming[0].ID)
	assert.Equal(t, future, upcoming[3].ID)
}

func TestMarkDelivered_Idempotent(t *testing.T) {
	t.Parallel()

	s, clock := newTestState(t)
	ref := addTaskRef(t, s, "Call client")
	id, err := s.Schedule(ref, testNow.Add(time.Minute))
	require.NoError(t, err)
	clock.Advance(time.Minute)

	require.NoError(t, s.MarkDelivered(id))
	require.NoError(t, s.MarkDelivered(id))

	logs := s.Notifications(0)
	require.Len(t, logs, 1)
	assert.Equal(t, "Reminder: 'Call client' is due now!", logs[0].Message)
	assert.Equal(t, models.NotificationReminder, logs[0].Kind)
	assert.Empty(t, s.DueForDelivery(clock.Now()))

	err = s.MarkDelivered(uuid.New())
	assert.True(t, IsNotFound(err))
}

func TestAddTaskWithReminder(t *testing.T) {
	t.Parallel()

	s, _ := newTestState(t)
	taskID, reminderID, err := s.AddTaskWithReminder(today(), "Team meeting", testNow.Add(5*time.Hour))
	require.NoError(t, err)

	tasks := s.TasksFor(today())
	require.Len(t, tasks, 1)
	assert.Equal(t, taskID, tasks[0].ID)
	reminders := s.Reminders()
	require.Len(t, reminders, 1)
	assert.Equal(t, reminderID, reminders[0].ID)
	assert.Equal(t, models.SubjectRef{Kind: models.SubjectTask, ID: taskID, Label: "Team meeting"}, reminders[0].Subject)
}

func TestAddTaskWithReminder_PastIsAtomic(t *testing.T) {
	t.Parallel()

	s, _ := newTestState(t)
	_, _, err := s.AddTaskWithReminder(today(), "Team meeting", testNow.Add(-time.Hour))
	require.Error(t, err)
	assert.True(t, IsValidation(err))
	assert.Empty(t, s.TasksFor(today()))
	assert.Empty(t, s.Dates())
	assert.Empty(t, s.Reminders())
}

func TestExportRestore(t *testing.T) {
	t.Parallel()

	s, _ := newTestState(t)
	require.NoError(t, s.SeedDemoPayments())
	taskID, _, err := s.AddTaskWithReminder(today(), "Backup files", testNow.Add(time.Hour))
	require.NoError(t, err)
	_, err = s.AddTask(today().AddDays(-1), "old")
	require.NoError(t, err)
	_, err = s.ToggleTaskByID(taskID)
	require.NoError(t, err)
	s.AppendChat(models.ChatTurn{UserText: "hello", BotText: "Hi!", Strategy: models.ChatStrategyCanned})

	doc := s.Export()
	assert.Equal(t, models.StateDocumentVersion, doc.Version)
	assert.Len(t, doc.Tasks, 2)
	assert.Equal(t, "old", doc.Tasks[0].Description)

	restored, _ := newTestState(t)
	require.NoError(t, restored.Restore(doc))
	assert.Equal(t, s.Snapshot(today()), restored.Snapshot(today()))
	assert.Equal(t, s.Reminders(), restored.Reminders())

	completed, err := restored.ToggleTaskByID(taskID)
	require.NoError(t, err)
	assert.False(t, completed)
}

func TestRestore_RejectsBadDocument(t *testing.T) {
	t.Parallel()

	s, _ := newTestState(t)
	_, err := s.AddTask(today(), "keep me")
	require.NoError(t, err)

	err = s.Restore(models.StateDocument{Version: 99})
	require.Error(t, err)

	dup := uuid.New()
	err = s.Restore(models.StateDocument{
		Version: models.StateDocumentVersion,
		Tasks: []models.Task{
			{ID: dup, Date: today(), Description: "a"},
			{ID: dup, Date: today(), Description: "b"},
		},
	})
	require.Error(t, err)
	assert.Len(t, s.TasksFor(today()), 1)
}

func TestRestore_AppliesRetention(t *testing.T) {
	t.Parallel()

	doc := models.StateDocument{Version: models.StateDocumentVersion}
	for i := 0; i < 50; i++ {
		doc.Notifications = append(doc.Notifications, models.NotificationEntry{
			ID:      uuid.New(),
			Message: fmt.Sprintf("entry %d", i),
			Kind:    models.NotificationTask,
		})
		doc.Chat = append(doc.Chat, models.ChatTurn{UserText: fmt.Sprintf("msg %d", i), BotText: "ok"})
	}

	s, _ := newTestState(t, WithRetention(10, 5))
	require.NoError(t, s.Restore(doc))

	notes := s.Notifications(0)
	require.Len(t, notes, 10)
	assert.Equal(t, "entry 49", notes[len(notes)-1].Message)
	assert.Equal(t, "entry 40", notes[0].Message)

	chat := s.ChatLog()
	require.Len(t, chat, 5)
	assert.Equal(t, "msg 45", chat[0].UserText)

	doc.Chat[49].UserText = "mutated"
	assert.Equal(t, "msg 49", s.ChatLog()[4].UserText)
}
