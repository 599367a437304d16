package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/benvon/smart-dashboard/internal/dashboard"
	"github.com/benvon/smart-dashboard/internal/models"
	"github.com/benvon/smart-dashboard/internal/services/ai"
	"github.com/benvon/smart-dashboard/internal/validation"
	"go.uber.org/zap"
)

// ChatMessageRequest represents a chat message request
type ChatMessageRequest struct {
	Message string `json:"message" validate:"required,max=2000"`
}

// GetChat handles GET /api/v1/chat
func (h *DashboardHandler) GetChat(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var log []models.ChatTurn
	s.View(func(st *dashboard.State) {
		log = st.ChatLog()
	})
	respondJSON(w, http.StatusOK, map[string]any{
		"chat": nonNil(log),
	})
}

// SendChat handles POST /api/v1/chat. The responder runs outside the session lock, so a
// slow provider never blocks the rest of the dashboard. The turn is only recorded once a
// reply exists; a client that disconnects first leaves the log untouched.
func (h *DashboardHandler) SendChat(w http.ResponseWriter, r *http.Request) {
	var req ChatMessageRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}
	text := validation.SanitizeText(req.Message)
	if text == "" {
		respondDomainError(w, &dashboard.ValidationError{Field: "message", Message: "message must not be empty"})
		return
	}
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var (
		history []models.ChatTurn
		summary string
	)
	s.View(func(st *dashboard.State) {
		history = st.ChatHistory(h.historyTurns)
		summary = summarize(st)
	})

	ctx := ai.WithSessionID(r.Context(), s.ID.String())
	ctx = ai.WithDashboardSummary(ctx, summary)
	reply := h.responder.Respond(ctx, text, history)

	if err := r.Context().Err(); err != nil {
		h.logger.Info("chat_reply_discarded",
			zap.String("session_id", s.ID.String()),
			zap.Error(err),
		)
		return
	}

	turn := models.ChatTurn{
		UserText: text,
		BotText:  reply.Text,
		Strategy: reply.Strategy,
		Fallback: reply.Fallback,
	}
	err := s.Do(r.Context(), func(st *dashboard.State) error {
		turn.CreatedAt = st.Now()
		st.AppendChat(turn)
		return nil
	})
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, turn)
}

// summarize renders the dashboard as plain text for the LLM system prompt.
func summarize(st *dashboard.State) string {
	today := st.Today()
	var b strings.Builder

	tasks := st.TasksFor(today)
	done := 0
	for _, t := range tasks {
		if t.Completed {
			done++
		}
	}
	fmt.Fprintf(&b, "Today is %s. %d task(s) today, %d completed.\n", today, len(tasks), done)
	for _, t := range tasks {
		mark := " "
		if t.Completed {
			mark = "x"
		}
		fmt.Fprintf(&b, "- [%s] %s\n", mark, t.Description)
	}

	fmt.Fprintf(&b, "%d unpaid payment(s).\n", st.PendingCount())
	for _, p := range st.DueToday(today) {
		fmt.Fprintf(&b, "- due today: %s %s\n", p.Name, p.Amount)
	}

	for _, rem := range st.UpcomingReminders() {
		fmt.Fprintf(&b, "- reminder at %s: %s\n", rem.FireAt.Format("2006-01-02 15:04"), rem.Subject.Label)
	}
	return b.String()
}
