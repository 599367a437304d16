package ai

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	"github.com/benvon/smart-dashboard/internal/logger"
)

// Context key types for logging (to avoid collisions with string keys)
type contextKey string

const (
	sessionIDContextKey        contextKey = "session_id"
	requestIDContextKey        contextKey = "request_id"
	dashboardSummaryContextKey contextKey = "dashboard_summary"
)

const (
	// MaxPreviewLength is the maximum length for preview strings in logs
	MaxPreviewLength = 200
	// RedactedValue is the value used to replace sensitive data
	RedactedValue = "[REDACTED]"
)

// WithRequestID attaches a request id for provider logging.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDContextKey, id)
}

// WithSessionID attaches the session id for provider logging.
func WithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionIDContextKey, id)
}

// WithDashboardSummary attaches a plain-text dashboard summary that LLM providers add to the
// system prompt.
func WithDashboardSummary(ctx context.Context, summary string) context.Context {
	return context.WithValue(ctx, dashboardSummaryContextKey, summary)
}

// SanitizeAPIKey sanitizes an API key for logging
func SanitizeAPIKey(apiKey string) string {
	if apiKey == "" {
		return ""
	}
	if len(apiKey) <= 8 {
		return RedactedValue
	}
	return apiKey[:4] + RedactedValue + apiKey[len(apiKey)-4:]
}

// SanitizePrompt creates a safe preview of a prompt for logging
func SanitizePrompt(prompt string, fullLog bool) string {
	if fullLog {
		return logger.SanitizeDebugContent(prompt)
	}
	return logger.SanitizeString(prompt, MaxPreviewLength)
}

// SanitizeResponse creates a safe preview of a response for logging
func SanitizeResponse(response string, fullLog bool) string {
	return SanitizePrompt(response, fullLog)
}

// HashSessionID creates a short hash of a session id so logs can correlate without exposing it
func HashSessionID(sessionID string) string {
	if sessionID == "" {
		return ""
	}
	hash := sha256.Sum256([]byte(sessionID))
	return hex.EncodeToString(hash[:])[:16]
}

// ExtractRequestID extracts a request ID from context if available
func ExtractRequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDContextKey).(string)
	return id
}

// ExtractSessionID extracts the session ID from context if available
func ExtractSessionID(ctx context.Context) string {
	id, _ := ctx.Value(sessionIDContextKey).(string)
	return id
}

// DashboardSummary returns the summary attached with WithDashboardSummary.
func DashboardSummary(ctx context.Context) string {
	s, _ := ctx.Value(dashboardSummaryContextKey).(string)
	return s
}
