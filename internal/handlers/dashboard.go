package handlers

import (
	"net/http"

	"github.com/benvon/smart-dashboard/internal/dashboard"
	"github.com/benvon/smart-dashboard/internal/models"
	"github.com/benvon/smart-dashboard/internal/request"
	"github.com/benvon/smart-dashboard/internal/services/ai"
	"github.com/benvon/smart-dashboard/internal/session"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// maxNotificationLimit bounds ?limit= on the notifications endpoint
const maxNotificationLimit = 100

// DashboardHandler serves the per-session dashboard API. Every route expects the session
// middleware to have put a session id on the request context.
type DashboardHandler struct {
	sessions     *session.Manager
	responder    ai.Responder
	historyTurns int
	logger       *zap.Logger
}

// NewDashboardHandler creates a dashboard handler. historyTurns is how many previous chat
// turns are handed to the responder.
func NewDashboardHandler(sessions *session.Manager, responder ai.Responder, historyTurns int, logger *zap.Logger) *DashboardHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if responder == nil {
		responder = ai.NewCannedResponder(nil)
	}
	return &DashboardHandler{
		sessions:     sessions,
		responder:    responder,
		historyTurns: historyTurns,
		logger:       logger,
	}
}

// RegisterRoutes registers dashboard routes
func (h *DashboardHandler) RegisterRoutes(r *mux.Router) {
	api := r.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/dashboard", h.GetDashboard).Methods("GET")
	api.HandleFunc("/stats", h.GetStats).Methods("GET")
	api.HandleFunc("/notifications", h.ListNotifications).Methods("GET")

	api.HandleFunc("/tasks", h.ListTasks).Methods("GET")
	api.HandleFunc("/tasks", h.CreateTask).Methods("POST")
	api.HandleFunc("/tasks/{id}/toggle", h.ToggleTask).Methods("POST")

	// /payments/due must be registered before the {id} routes
	api.HandleFunc("/payments/due", h.DuePayments).Methods("GET")
	api.HandleFunc("/payments", h.ListPayments).Methods("GET")
	api.HandleFunc("/payments", h.CreatePayment).Methods("POST")
	api.HandleFunc("/payments/{id}/toggle", h.TogglePaid).Methods("POST")

	api.HandleFunc("/reminders/due", h.DueReminders).Methods("GET")
	api.HandleFunc("/reminders", h.ListReminders).Methods("GET")
	api.HandleFunc("/reminders", h.ScheduleReminder).Methods("POST")
	api.HandleFunc("/reminders/{id}/delivered", h.MarkDelivered).Methods("POST")

	api.HandleFunc("/chat", h.GetChat).Methods("GET")
	api.HandleFunc("/chat", h.SendChat).Methods("POST")
}

// session resolves the caller's session. It writes the error response itself.
func (h *DashboardHandler) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	id, ok := request.SessionIDFromContext(r.Context())
	if !ok {
		respondJSONError(w, http.StatusUnauthorized, "unauthorized", "Session not found in request")
		return nil, false
	}

	s, err := h.sessions.GetOrCreate(r.Context(), id)
	if err != nil {
		h.logger.Error("session_lookup_failed",
			zap.String("session_id", id.String()),
			zap.Error(err),
		)
		respondJSONError(w, http.StatusServiceUnavailable, "session_unavailable", "Session state is temporarily unavailable")
		return nil, false
	}
	return s, true
}

// GetDashboard handles GET /api/v1/dashboard
func (h *DashboardHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	date, ok := queryDate(w, r)
	if !ok {
		return
	}
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var snapshot models.Snapshot
	s.View(func(st *dashboard.State) {
		snapshot = st.Snapshot(date)
	})
	respondJSON(w, http.StatusOK, snapshot)
}

// GetStats handles GET /api/v1/stats
func (h *DashboardHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var stats models.Stats
	s.View(func(st *dashboard.State) {
		stats = st.Stats()
	})
	respondJSON(w, http.StatusOK, stats)
}

// ListNotifications handles GET /api/v1/notifications
func (h *DashboardHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(w, r, "limit", 0, maxNotificationLimit)
	if !ok {
		return
	}
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var entries []models.NotificationEntry
	s.View(func(st *dashboard.State) {
		entries = st.Notifications(limit)
	})
	respondJSON(w, http.StatusOK, map[string]any{
		"notifications": nonNil(entries),
		"count":         len(entries),
	})
}

// nonNil keeps empty collections serialising as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
