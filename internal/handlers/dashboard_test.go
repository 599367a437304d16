package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/benvon/smart-dashboard/internal/dashboard"
	"github.com/benvon/smart-dashboard/internal/models"
	"github.com/benvon/smart-dashboard/internal/request"
	"github.com/benvon/smart-dashboard/internal/services/ai"
	"github.com/benvon/smart-dashboard/internal/session"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type envelope struct {
	Success bool              `json:"success"`
	Data    json.RawMessage   `json:"data"`
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields"`
}

type testEnv struct {
	router    *mux.Router
	clock     *testClock
	sessions  *session.Manager
	sessionID uuid.UUID
}

func newTestEnv(t *testing.T, responder ai.Responder, seed bool) *testEnv {
	t.Helper()
	clock := &testClock{now: time.Date(2025, 10, 18, 10, 0, 0, 0, time.UTC)}
	sessions := session.NewManager(session.Options{
		SeedDemoData: seed,
		Now:          clock.Now,
		StateOptions: []dashboard.Option{dashboard.WithClock(clock.Now), dashboard.WithLocation(time.UTC)},
	}, nil)

	env := &testEnv{
		router:    mux.NewRouter(),
		clock:     clock,
		sessions:  sessions,
		sessionID: uuid.New(),
	}
	env.router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(request.WithSessionID(r.Context(), env.sessionID)))
		})
	})
	NewDashboardHandler(sessions, responder, 4, nil).RegisterRoutes(env.router)
	return env
}

func (e *testEnv) do(t *testing.T, method, path string, body any) (int, envelope) {
	t.Helper()
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, newTestRequest(method, path, body))

	var env envelope
	if err := json.NewDecoder(w.Body).Decode(&env); err != nil {
		t.Fatalf("%s %s: failed to decode response: %v", method, path, err)
	}
	return w.Code, env
}

func decodeData[T any](t *testing.T, env envelope) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(env.Data, &out); err != nil {
		t.Fatalf("failed to decode data %s: %v", env.Data, err)
	}
	return out
}

func TestTasks_CreateListToggle(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil, false)

	status, resp := env.do(t, http.MethodPost, "/api/v1/tasks", map[string]any{
		"date":        "2025-10-18",
		"description": "  Write report  ",
	})
	if status != http.StatusCreated {
		t.Fatalf("create status = %d, body %+v", status, resp)
	}
	created := decodeData[TaskCreated](t, resp)
	if created.Task.Description != "Write report" {
		t.Errorf("Description = %q, want trimmed text", created.Task.Description)
	}
	if created.ReminderID != nil {
		t.Error("expected no reminder for a plain task")
	}

	status, resp = env.do(t, http.MethodGet, "/api/v1/tasks", nil)
	if status != http.StatusOK {
		t.Fatalf("list status = %d", status)
	}
	list := decodeData[struct {
		Date  models.Date   `json:"date"`
		Tasks []models.Task `json:"tasks"`
	}](t, resp)
	if list.Date.String() != "2025-10-18" || len(list.Tasks) != 1 {
		t.Fatalf("list = %+v, want one task for today", list)
	}

	status, resp = env.do(t, http.MethodPost, "/api/v1/tasks/"+created.Task.ID.String()+"/toggle", nil)
	if status != http.StatusOK {
		t.Fatalf("toggle status = %d, body %+v", status, resp)
	}
	if got := decodeData[ToggleResult](t, resp); !got.Value {
		t.Error("expected task to be completed after first toggle")
	}

	status, resp = env.do(t, http.MethodGet, "/api/v1/notifications", nil)
	if status != http.StatusOK {
		t.Fatalf("notifications status = %d", status)
	}
	notes := decodeData[struct {
		Notifications []models.NotificationEntry `json:"notifications"`
	}](t, resp)
	if len(notes.Notifications) != 1 || notes.Notifications[0].Message != "Task 'Write report' completed" {
		t.Errorf("notifications = %+v", notes.Notifications)
	}
}

func TestTasks_Errors(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil, false)

	_, resp := env.do(t, http.MethodPost, "/api/v1/tasks", map[string]any{"date": "2025-10-18", "description": "Real"})
	taskID := decodeData[TaskCreated](t, resp).Task.ID

	tests := []struct {
		name       string
		method     string
		path       string
		body       any
		wantStatus int
		wantField  string
	}{
		{"blank description", http.MethodPost, "/api/v1/tasks", map[string]any{"description": "   "}, http.StatusBadRequest, "description"},
		{"missing description", http.MethodPost, "/api/v1/tasks", map[string]any{"date": "2025-10-18"}, http.StatusBadRequest, "description"},
		{"bad date", http.MethodPost, "/api/v1/tasks", map[string]any{"date": "18/10/2025", "description": "x"}, http.StatusBadRequest, "date"},
		{"reminder in the past", http.MethodPost, "/api/v1/tasks", map[string]any{
			"description": "Too late",
			"remind_at":   env.clock.Now().Add(-time.Minute),
		}, http.StatusBadRequest, "fire_at"},
		{"toggle unknown task", http.MethodPost, "/api/v1/tasks/" + uuid.NewString() + "/toggle", nil, http.StatusNotFound, ""},
		{"toggle on wrong date", http.MethodPost, "/api/v1/tasks/" + taskID.String() + "/toggle", map[string]any{"date": "2025-10-19"}, http.StatusNotFound, ""},
		{"toggle bad id", http.MethodPost, "/api/v1/tasks/not-a-uuid/toggle", nil, http.StatusBadRequest, "id"},
		{"list bad date", http.MethodGet, "/api/v1/tasks?date=yesterday", nil, http.StatusBadRequest, "date"},
	}

	for _, tt := range tests {
		status, resp := env.do(t, tt.method, tt.path, tt.body)
		if status != tt.wantStatus {
			t.Errorf("%s: status = %d, want %d (%+v)", tt.name, status, tt.wantStatus, resp)
			continue
		}
		if resp.Success {
			t.Errorf("%s: expected success=false", tt.name)
		}
		if tt.wantField != "" {
			if _, ok := resp.Fields[tt.wantField]; !ok {
				t.Errorf("%s: expected field %q in %v", tt.name, tt.wantField, resp.Fields)
			}
		}
	}

	// None of the rejected actions changed the state.
	_, resp = env.do(t, http.MethodGet, "/api/v1/dashboard", nil)
	snapshot := decodeData[models.Snapshot](t, resp)
	if len(snapshot.Tasks) != 1 || snapshot.Tasks[0].Completed {
		t.Errorf("tasks = %+v, want the one untouched task", snapshot.Tasks)
	}
	if len(snapshot.UpcomingReminders) != 0 || len(snapshot.Notifications) != 0 {
		t.Errorf("unexpected side effects: %+v", snapshot)
	}
}

func TestTasks_CreateWithReminder(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil, false)

	status, resp := env.do(t, http.MethodPost, "/api/v1/tasks", map[string]any{
		"description": "Call mom",
		"remind_at":   env.clock.Now().Add(time.Hour),
	})
	if status != http.StatusCreated {
		t.Fatalf("status = %d, body %+v", status, resp)
	}
	created := decodeData[TaskCreated](t, resp)
	if created.ReminderID == nil {
		t.Fatal("expected a reminder id")
	}

	_, resp = env.do(t, http.MethodGet, "/api/v1/stats", nil)
	stats := decodeData[models.Stats](t, resp)
	if stats.UpcomingCount != 1 || stats.RemindersToday != 1 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestPayments_Flow(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil, false)

	status, resp := env.do(t, http.MethodPost, "/api/v1/payments", map[string]any{
		"name":     "Rent",
		"amount":   "1,200.50",
		"due_date": "2025-10-18",
	})
	if status != http.StatusCreated {
		t.Fatalf("create status = %d, body %+v", status, resp)
	}
	payment := decodeData[models.Payment](t, resp)
	if payment.Amount.Cents != 120050 {
		t.Errorf("Cents = %d, want 120050", payment.Amount.Cents)
	}

	_, resp = env.do(t, http.MethodGet, "/api/v1/payments/due", nil)
	due := decodeData[DuePaymentsResponse](t, resp)
	if len(due.Payments) != 1 || due.PendingCount != 1 {
		t.Fatalf("due = %+v", due)
	}

	status, resp = env.do(t, http.MethodPost, "/api/v1/payments/"+payment.ID.String()+"/toggle", nil)
	if status != http.StatusOK || !decodeData[ToggleResult](t, resp).Value {
		t.Fatalf("toggle status = %d, body %+v", status, resp)
	}

	_, resp = env.do(t, http.MethodGet, "/api/v1/payments/due?date=2025-10-18", nil)
	due = decodeData[DuePaymentsResponse](t, resp)
	if len(due.Payments) != 0 || due.PendingCount != 0 {
		t.Errorf("paid bill still due: %+v", due)
	}

	tests := []struct {
		name string
		body map[string]any
	}{
		{"negative amount", map[string]any{"name": "x", "amount": "-5", "due_date": "2025-10-18"}},
		{"zero amount", map[string]any{"name": "x", "amount": "0", "due_date": "2025-10-18"}},
		{"bad due date", map[string]any{"name": "x", "amount": "5", "due_date": "soon"}},
		{"blank name", map[string]any{"name": " ", "amount": "5", "due_date": "2025-10-18"}},
	}
	for _, tt := range tests {
		if status, _ := env.do(t, http.MethodPost, "/api/v1/payments", tt.body); status != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", tt.name, status)
		}
	}

	if status, _ := env.do(t, http.MethodPost, "/api/v1/payments/"+uuid.NewString()+"/toggle", nil); status != http.StatusNotFound {
		t.Errorf("toggle unknown payment status = %d, want 404", status)
	}
}

func TestPayments_SeededSession(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil, true)

	_, resp := env.do(t, http.MethodGet, "/api/v1/payments", nil)
	list := decodeData[struct {
		Payments []models.Payment `json:"payments"`
	}](t, resp)
	if len(list.Payments) != 3 {
		t.Fatalf("payments = %d, want 3 seeded bills", len(list.Payments))
	}
}

func TestReminders_Flow(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil, false)

	_, resp := env.do(t, http.MethodPost, "/api/v1/payments", map[string]any{
		"name": "Internet Bill", "amount": "30", "due_date": "2025-10-20",
	})
	paymentID := decodeData[models.Payment](t, resp).ID

	status, resp := env.do(t, http.MethodPost, "/api/v1/reminders", map[string]any{
		"subject_kind": "payment",
		"subject_id":   paymentID,
		"fire_at":      env.clock.Now().Add(30 * time.Minute),
	})
	if status != http.StatusCreated {
		t.Fatalf("schedule status = %d, body %+v", status, resp)
	}
	reminder := decodeData[models.Reminder](t, resp)
	if reminder.Subject.Label != "Internet Bill" {
		t.Errorf("Label = %q", reminder.Subject.Label)
	}

	_, resp = env.do(t, http.MethodGet, "/api/v1/reminders/due", nil)
	if due := decodeData[struct {
		Reminders []models.Reminder `json:"reminders"`
	}](t, resp); len(due.Reminders) != 0 {
		t.Fatalf("reminder due early: %+v", due.Reminders)
	}

	env.clock.Advance(31 * time.Minute)
	_, resp = env.do(t, http.MethodGet, "/api/v1/reminders/due", nil)
	due := decodeData[struct {
		Reminders []models.Reminder `json:"reminders"`
	}](t, resp)
	if len(due.Reminders) != 1 || due.Reminders[0].ID != reminder.ID {
		t.Fatalf("due = %+v", due.Reminders)
	}

	path := "/api/v1/reminders/" + reminder.ID.String() + "/delivered"
	for range 2 {
		if status, resp := env.do(t, http.MethodPost, path, nil); status != http.StatusOK {
			t.Fatalf("delivered status = %d, body %+v", status, resp)
		}
	}

	_, resp = env.do(t, http.MethodGet, "/api/v1/notifications?limit=5", nil)
	notes := decodeData[struct {
		Notifications []models.NotificationEntry `json:"notifications"`
	}](t, resp)
	if len(notes.Notifications) != 1 || notes.Notifications[0].Message != "Reminder: 'Internet Bill' is due now!" {
		t.Errorf("notifications = %+v, want one delivery entry", notes.Notifications)
	}

	tests := []struct {
		name       string
		path       string
		body       any
		wantStatus int
	}{
		{"past fire_at", "/api/v1/reminders", map[string]any{
			"subject_kind": "payment", "subject_id": paymentID, "fire_at": env.clock.Now().Add(-time.Second),
		}, http.StatusBadRequest},
		{"unknown kind", "/api/v1/reminders", map[string]any{
			"subject_kind": "meeting", "subject_id": paymentID, "fire_at": env.clock.Now().Add(time.Hour),
		}, http.StatusBadRequest},
		{"unknown subject", "/api/v1/reminders", map[string]any{
			"subject_kind": "task", "subject_id": uuid.New(), "fire_at": env.clock.Now().Add(time.Hour),
		}, http.StatusNotFound},
		{"missing fire_at", "/api/v1/reminders", map[string]any{
			"subject_kind": "payment", "subject_id": paymentID,
		}, http.StatusBadRequest},
		{"deliver unknown", "/api/v1/reminders/" + uuid.NewString() + "/delivered", nil, http.StatusNotFound},
	}
	for _, tt := range tests {
		if status, resp := env.do(t, http.MethodPost, tt.path, tt.body); status != tt.wantStatus {
			t.Errorf("%s: status = %d, want %d (%+v)", tt.name, status, tt.wantStatus, resp)
		}
	}
}

func TestReminders_FireAtNowAccepted(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil, false)

	_, resp := env.do(t, http.MethodPost, "/api/v1/tasks", map[string]any{"description": "Stretch"})
	taskID := decodeData[TaskCreated](t, resp).Task.ID

	status, resp := env.do(t, http.MethodPost, "/api/v1/reminders", map[string]any{
		"subject_kind": "task", "subject_id": taskID, "fire_at": env.clock.Now(),
	})
	if status != http.StatusCreated {
		t.Fatalf("status = %d, body %+v", status, resp)
	}
}

type stubResponder struct {
	mu      sync.Mutex
	reply   ai.Reply
	history []models.ChatTurn
	summary string
}

func (s *stubResponder) Respond(ctx context.Context, _ string, history []models.ChatTurn) ai.Reply {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = history
	s.summary = ai.DashboardSummary(ctx)
	return s.reply
}

func TestChat_CannedGreeting(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, ai.NewCannedResponder(nil), false)

	status, resp := env.do(t, http.MethodPost, "/api/v1/chat", map[string]any{"message": "hello"})
	if status != http.StatusOK {
		t.Fatalf("status = %d, body %+v", status, resp)
	}
	turn := decodeData[models.ChatTurn](t, resp)
	if !slices.Contains(ai.GreetingReplies, turn.BotText) {
		t.Errorf("BotText = %q, want a greeting reply", turn.BotText)
	}
	if turn.Strategy != models.ChatStrategyCanned {
		t.Errorf("Strategy = %q", turn.Strategy)
	}

	_, resp = env.do(t, http.MethodGet, "/api/v1/chat", nil)
	log := decodeData[struct {
		Chat []models.ChatTurn `json:"chat"`
	}](t, resp)
	if len(log.Chat) != 1 || log.Chat[0].UserText != "hello" {
		t.Errorf("chat log = %+v", log.Chat)
	}
}

func TestChat_FallbackIsRecorded(t *testing.T) {
	t.Parallel()
	stub := &stubResponder{reply: ai.Reply{Text: ai.FallbackReply, Strategy: models.ChatStrategyLLM, Fallback: true}}
	env := newTestEnv(t, stub, false)

	env.do(t, http.MethodPost, "/api/v1/tasks", map[string]any{"description": "Buy milk"})
	status, resp := env.do(t, http.MethodPost, "/api/v1/chat", map[string]any{"message": "what's on today?"})
	if status != http.StatusOK {
		t.Fatalf("status = %d, body %+v", status, resp)
	}
	turn := decodeData[models.ChatTurn](t, resp)
	if !turn.Fallback || turn.BotText != ai.FallbackReply {
		t.Errorf("turn = %+v, want fallback reply", turn)
	}
	if stub.summary == "" {
		t.Error("expected a dashboard summary on the context")
	}
}

func TestChat_HistoryIsBounded(t *testing.T) {
	t.Parallel()
	stub := &stubResponder{reply: ai.Reply{Text: "ok", Strategy: models.ChatStrategyLLM}}
	env := newTestEnv(t, stub, false)

	for range 6 {
		env.do(t, http.MethodPost, "/api/v1/chat", map[string]any{"message": "ping"})
	}
	if len(stub.history) != 4 {
		t.Errorf("history passed = %d turns, want 4", len(stub.history))
	}
}

func TestChat_RejectsBlankMessage(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil, false)

	for _, body := range []map[string]any{{"message": ""}, {"message": " \t "}} {
		status, resp := env.do(t, http.MethodPost, "/api/v1/chat", body)
		if status != http.StatusBadRequest {
			t.Errorf("status = %d, want 400 (%+v)", status, resp)
		}
	}
	_, resp := env.do(t, http.MethodGet, "/api/v1/chat", nil)
	if log := decodeData[struct {
		Chat []models.ChatTurn `json:"chat"`
	}](t, resp); len(log.Chat) != 0 {
		t.Errorf("blank message was recorded: %+v", log.Chat)
	}
}

func TestDashboard_Snapshot(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil, true)

	env.do(t, http.MethodPost, "/api/v1/tasks", map[string]any{"date": "2025-10-19", "description": "Tomorrow"})

	_, resp := env.do(t, http.MethodGet, "/api/v1/dashboard?date=2025-10-19", nil)
	snapshot := decodeData[models.Snapshot](t, resp)
	if snapshot.SelectedDate.String() != "2025-10-19" || snapshot.Today.String() != "2025-10-18" {
		t.Errorf("dates = %s / %s", snapshot.SelectedDate, snapshot.Today)
	}
	if len(snapshot.Tasks) != 1 || len(snapshot.Payments) != 3 {
		t.Errorf("snapshot = %+v", snapshot)
	}
	if snapshot.Stats.PendingPayments != 3 || snapshot.Stats.UpcomingCount != 1 {
		t.Errorf("stats = %+v", snapshot.Stats)
	}
}

func TestDashboard_RequiresSession(t *testing.T) {
	t.Parallel()
	sessions := session.NewManager(session.Options{}, nil)
	router := mux.NewRouter()
	NewDashboardHandler(sessions, nil, 4, nil).RegisterRoutes(router)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/dashboard", nil))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
	if sessions.Len() != 0 {
		t.Error("a session was created without an id")
	}
}

func TestDashboard_SessionsAreIsolated(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil, false)

	env.do(t, http.MethodPost, "/api/v1/tasks", map[string]any{"description": "Mine"})
	first := env.sessionID
	env.sessionID = uuid.New()

	_, resp := env.do(t, http.MethodGet, "/api/v1/tasks", nil)
	list := decodeData[struct {
		Tasks []models.Task `json:"tasks"`
	}](t, resp)
	if len(list.Tasks) != 0 {
		t.Errorf("second session sees %d tasks", len(list.Tasks))
	}
	if _, ok := env.sessions.Get(first); !ok {
		t.Error("first session missing")
	}
}
