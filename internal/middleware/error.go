package middleware

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/benvon/smart-dashboard/internal/request"
	"go.uber.org/zap"
)

// Error codes written by middleware. Handlers use the same snake_case vocabulary.
const (
	ErrCodeBadRequest         = "bad_request"
	ErrCodeInternal           = "internal_error"
	ErrCodePayloadTooLarge    = "payload_too_large"
	ErrCodeUnsupportedType    = "unsupported_media_type"
	ErrCodeRateLimited        = "rate_limited"
	ErrCodeSessionUnavailable = "session_unavailable"
	ErrCodeTimeout            = "timeout"
)

// ErrorResponse is the failure envelope written by middleware.
type ErrorResponse struct {
	Success   bool   `json:"success"`
	Error     string `json:"error"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
	Path      string `json:"path,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// ErrorHandler recovers panics and answers with a JSON 500.
func ErrorHandler(logger *zap.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				fields := []zap.Field{
					zap.Any("panic", rec),
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.String("request_id", request.RequestID(r.Context())),
					zap.Stack("stack"),
				}
				if id, ok := request.SessionIDFromContext(r.Context()); ok {
					fields = append(fields, zap.String("session_id", id.String()))
				}
				logger.Error("panic_recovered", fields...)
				respondErrorJSON(w, r, http.StatusInternalServerError, ErrCodeInternal, "An unexpected error occurred", logger)
			}()

			next.ServeHTTP(w, r)
		})
	}
}

func respondErrorJSON(w http.ResponseWriter, r *http.Request, status int, code, message string, logger *zap.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := ErrorResponse{
		Success:   false,
		Error:     code,
		Message:   message,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Path:      r.URL.Path,
		RequestID: request.RequestID(r.Context()),
	}

	if err := json.NewEncoder(w).Encode(response); err != nil && logger != nil {
		logger.Error("failed_to_encode_error_response",
			zap.Error(err),
			zap.Int("status_code", status),
			zap.String("path", r.URL.Path),
		)
	}
}
