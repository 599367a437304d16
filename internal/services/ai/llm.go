package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/benvon/smart-dashboard/internal/models"
	"go.uber.org/zap"
)

const (
	// FallbackReply is returned whenever the provider cannot answer
	FallbackReply = "Sorry, I can't reach the assistant right now. Please try again in a moment."
	// DefaultChatTimeout bounds one provider call
	DefaultChatTimeout = 15 * time.Second
	// DefaultHistoryTurns is how many past turns are sent with each message
	DefaultHistoryTurns = 10
)

// LLMResponder forwards the conversation to an AIProvider.
type LLMResponder struct {
	provider     AIProvider
	logger       *zap.Logger
	timeout      time.Duration
	historyTurns int
}

// LLMOption configures an LLMResponder
type LLMOption func(*LLMResponder)

// WithTimeout sets the per-call deadline. Non-positive values keep the default.
func WithTimeout(d time.Duration) LLMOption {
	return func(r *LLMResponder) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithHistoryTurns sets how many past turns accompany a message. Negative values keep the default.
func WithHistoryTurns(n int) LLMOption {
	return func(r *LLMResponder) {
		if n >= 0 {
			r.historyTurns = n
		}
	}
}

// NewLLMResponder wraps provider. logger may be nil.
func NewLLMResponder(provider AIProvider, logger *zap.Logger, opts ...LLMOption) *LLMResponder {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &LLMResponder{
		provider:     provider,
		logger:       logger,
		timeout:      DefaultChatTimeout,
		historyTurns: DefaultHistoryTurns,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Respond implements Responder.
func (r *LLMResponder) Respond(ctx context.Context, userText string, history []models.ChatTurn) Reply {
	messages := BuildMessages(history, r.historyTurns, userText)

	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	resp, err := r.provider.Chat(callCtx, messages, DashboardSummary(ctx))
	if err == nil && strings.TrimSpace(resp.Message) == "" {
		err = ErrEmptyReply
	}
	if err != nil {
		cause := fmt.Errorf("%w: %s: %w", ErrBoundaryUnavailable, r.provider.Name(), err)
		r.logger.Warn("chat_fallback",
			zap.String("provider", r.provider.Name()),
			zap.String("reason", FailureReason(err)),
			zap.String("session_hash", HashSessionID(ExtractSessionID(ctx))),
			zap.Int64("latency_ms", time.Since(start).Milliseconds()),
			zap.Error(err),
		)
		return Reply{Text: FallbackReply, Strategy: models.ChatStrategyLLM, Fallback: true, Cause: cause}
	}

	return Reply{Text: strings.TrimSpace(resp.Message), Strategy: models.ChatStrategyLLM}
}

// BuildMessages flattens the last maxTurns turns plus the new message into role-tagged messages.
// Fallback replies are left out so the provider never sees its own apology.
func BuildMessages(history []models.ChatTurn, maxTurns int, userText string) []ChatMessage {
	if maxTurns >= 0 && len(history) > maxTurns {
		history = history[len(history)-maxTurns:]
	}
	messages := make([]ChatMessage, 0, len(history)*2+1)
	for _, turn := range history {
		messages = append(messages, ChatMessage{Role: RoleUser, Content: turn.UserText})
		if !turn.Fallback && turn.BotText != "" {
			messages = append(messages, ChatMessage{Role: RoleAssistant, Content: turn.BotText})
		}
	}
	return append(messages, ChatMessage{Role: RoleUser, Content: userText})
}
