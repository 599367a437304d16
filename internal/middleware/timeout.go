package middleware

import (
	"encoding/json"
	"net/http"
	"time"
)

const (
	// DefaultRequestTimeout is the default request timeout (30 seconds)
	DefaultRequestTimeout = 30 * time.Second
)

// Timeout bounds every handler. http.TimeoutHandler puts the deadline on the request context,
// so chat calls to the assistant observe it too.
func Timeout(timeout time.Duration) func(http.Handler) http.Handler {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}

	body, _ := json.Marshal(ErrorResponse{
		Error:   ErrCodeTimeout,
		Message: "The request took too long to complete",
	})

	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, timeout, string(body))
	}
}
