package dashboard

import (
	"strings"
	"testing"
	"time"

	"github.com/benvon/smart-dashboard/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 10, 18, 10, 0, 0, 0, time.UTC)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time            { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestState(t *testing.T, opts ...Option) (*State, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: testNow}
	base := []Option{WithClock(clock.Now), WithLocation(time.UTC)}
	return New(append(base, opts...)...), clock
}

func today() models.Date { return models.DateOf(testNow) }

func TestAddTask_AppearsOnceNotCompleted(t *testing.T) {
	t.Parallel()

	descriptions := []string{"Buy milk", "  Prepare presentation  ", "Call client", "ü & ñ"}
	for _, desc := range descriptions {
		t.Run(desc, func(t *testing.T) {
			t.Parallel()
			s, _ := newTestState(t)
			d := today()

			id, err := s.AddTask(d, desc)
			require.NoError(t, err)
			require.NotEqual(t, uuid.Nil, id)

			tasks := s.TasksFor(d)
			matches := 0
			for _, task := range tasks {
				if task.Description == strings.TrimSpace(desc) {
					matches++
					assert.False(t, task.Completed)
					assert.Equal(t, id, task.ID)
					assert.Equal(t, d, task.Date)
				}
			}
			assert.Equal(t, 1, matches)
		})
	}
}

func TestAddTask_EmptyDescriptionRejected(t *testing.T) {
	t.Parallel()

	for _, desc := range []string{"", "   ", "\t\n", "\x00\x01"} {
		s, _ := newTestState(t)
		d := today()
		_, err := s.AddTask(d, "existing")
		require.NoError(t, err)
		before := s.TasksFor(d)

		_, err = s.AddTask(d, desc)
		require.Error(t, err)
		assert.True(t, IsValidation(err), "expected ValidationError for %q, got %v", desc, err)
		assert.Equal(t, before, s.TasksFor(d))
	}
}

func TestTasksFor_DoesNotCreateBucket(t *testing.T) {
	t.Parallel()

	s, _ := newTestState(t)
	assert.Empty(t, s.TasksFor(today()))
	assert.Empty(t, s.Dates())
}

func TestTasksFor_PreservesInsertionOrder(t *testing.T) {
	t.Parallel()

	s, _ := newTestState(t)
	d := today()
	for _, desc := range []string{"first", "second", "third"} {
		_, err := s.AddTask(d, desc)
		require.NoError(t, err)
	}
	tasks := s.TasksFor(d)
	require.Len(t, tasks, 3)
	assert.Equal(t, "first", tasks[0].Description)
	assert.Equal(t, "second", tasks[1].Description)
	assert.Equal(t, "third", tasks[2].Description)
}

func TestToggleTask_TwiceLogsOnce(t *testing.T) {
	t.Parallel()

	s, _ := newTestState(t)
	d := today()
	id, err := s.AddTask(d, "Write report")
	require.NoError(t, err)

	completed, err := s.ToggleTask(d, id)
	require.NoError(t, err)
	assert.True(t, completed)
	assert.NotNil(t, s.TasksFor(d)[0].CompletedAt)

	completed, err = s.ToggleTask(d, id)
	require.NoError(t, err)
	assert.False(t, completed)
	assert.False(t, s.TasksFor(d)[0].Completed)
	assert.Nil(t, s.TasksFor(d)[0].CompletedAt)

	logs := s.Notifications(0)
	require.Len(t, logs, 1)
	assert.Equal(t, "Task 'Write report' completed", logs[0].Message)
	assert.Equal(t, models.NotificationTask, logs[0].Kind)
}

func TestToggleTask_NotFound(t *testing.T) {
	t.Parallel()

	s, _ := newTestState(t)
	d := today()
	id, err := s.AddTask(d, "exists")
	require.NoError(t, err)

	_, err = s.ToggleTask(d.AddDays(1), id)
	assert.True(t, IsNotFound(err), "wrong date should be NotFound, got %v", err)

	_, err = s.ToggleTask(d, uuid.New())
	assert.True(t, IsNotFound(err), "unknown id should be NotFound, got %v", err)

	_, err = s.ToggleTaskByID(uuid.New())
	assert.True(t, IsNotFound(err))

	assert.False(t, s.TasksFor(d)[0].Completed)
	assert.Empty(t, s.Notifications(0))
	assert.Len(t, s.Dates(), 1)
}

func TestToggleTaskByID(t *testing.T) {
	t.Parallel()

	s, _ := newTestState(t)
	d := today().AddDays(3)
	id, err := s.AddTask(d, "Read AI research papers")
	require.NoError(t, err)

	completed, err := s.ToggleTaskByID(id)
	require.NoError(t, err)
	assert.True(t, completed)
	assert.True(t, s.TasksFor(d)[0].Completed)
}

func TestStats_TaskCounts(t *testing.T) {
	t.Parallel()

	s, _ := newTestState(t)
	for i := 0; i < 3; i++ {
		_, err := s.AddTask(today(), "today task")
		require.NoError(t, err)
	}
	for i := 0; i < 2; i++ {
		_, err := s.AddTask(today().AddDays(-2), "past task")
		require.NoError(t, err)
	}

	st := s.Stats()
	assert.Equal(t, 3, st.UpcomingCount)
	assert.Equal(t, 2, st.CompletedCount)

	_, err := s.AddTask(today().AddDays(7), "future task")
	require.NoError(t, err)
	assert.Equal(t, 4, s.Stats().UpcomingCount)
}

func TestStats_TodayFollowsClock(t *testing.T) {
	t.Parallel()

	s, clock := newTestState(t)
	_, err := s.AddTask(today(), "task")
	require.NoError(t, err)
	assert.Equal(t, 1, s.Stats().UpcomingCount)

	clock.Advance(24 * time.Hour)
	st := s.Stats()
	assert.Equal(t, 0, st.UpcomingCount)
	assert.Equal(t, 1, st.CompletedCount)
}

func TestStats_CheckedAndReminders(t *testing.T) {
	t.Parallel()

	s, _ := newTestState(t)
	id, err := s.AddTask(today(), "check me")
	require.NoError(t, err)
	_, err = s.ToggleTaskByID(id)
	require.NoError(t, err)

	_, err = s.Schedule(models.SubjectRef{Kind: models.SubjectTask, ID: id}, testNow.Add(time.Hour))
	require.NoError(t, err)
	_, err = s.Schedule(models.SubjectRef{Kind: models.SubjectTask, ID: id}, testNow.Add(48*time.Hour))
	require.NoError(t, err)

	_, err = s.AddPayment("Rent", "1200.00", today())
	require.NoError(t, err)

	st := s.Stats()
	assert.Equal(t, 1, st.CheckedCount)
	assert.Equal(t, 1, st.RemindersToday)
	assert.Equal(t, 1, st.PendingPayments)
}

func TestSnapshot(t *testing.T) {
	t.Parallel()

	s, _ := newTestState(t, WithNotificationDisplay(2))
	require.NoError(t, s.SeedDemoPayments())
	for _, desc := range []string{"a", "b", "c"} {
		id, err := s.AddTask(today(), desc)
		require.NoError(t, err)
		_, err = s.ToggleTaskByID(id)
		require.NoError(t, err)
	}

	snap := s.Snapshot(models.Date{})
	assert.Equal(t, today(), snap.SelectedDate)
	assert.Equal(t, today(), snap.Today)
	assert.Len(t, snap.Tasks, 3)
	assert.Len(t, snap.Payments, 3)
	assert.Empty(t, snap.DueToday)
	require.Len(t, snap.Notifications, 2)
	assert.Equal(t, "Task 'b' completed", snap.Notifications[0].Message)
	assert.Equal(t, "Task 'c' completed", snap.Notifications[1].Message)
	assert.Equal(t, 3, snap.Stats.PendingPayments)

	other := s.Snapshot(today().AddDays(1))
	assert.Empty(t, other.Tasks)
}

func TestNotifications_RetentionCap(t *testing.T) {
	t.Parallel()

	s, _ := newTestState(t, WithRetention(3, 2))
	d := today()
	id, err := s.AddTask(d, "flip")
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		_, err := s.ToggleTask(d, id)
		require.NoError(t, err)
	}
	assert.Len(t, s.Notifications(0), 3)

	for i := 0; i < 5; i++ {
		s.AppendChat(models.ChatTurn{UserText: "hi", BotText: "hello"})
	}
	assert.Len(t, s.ChatLog(), 2)
}

func TestChatHistory(t *testing.T) {
	t.Parallel()

	s, _ := newTestState(t)
	for _, text := range []string{"one", "two", "three"} {
		s.AppendChat(models.ChatTurn{UserText: text, BotText: "ok", Strategy: models.ChatStrategyCanned})
	}

	hist := s.ChatHistory(2)
	require.Len(t, hist, 2)
	assert.Equal(t, "two", hist[0].UserText)
	assert.Equal(t, "three", hist[1].UserText)
	assert.Equal(t, testNow, hist[1].CreatedAt)
	assert.Len(t, s.ChatHistory(10), 3)
	assert.Empty(t, s.ChatHistory(0))
}
