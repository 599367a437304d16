package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
)

var (
	// ErrBoundaryUnavailable wraps every chat provider failure. It is converted to the
	// fallback reply inside the responder and never returned to callers.
	ErrBoundaryUnavailable = errors.New("chat provider unavailable")
	// ErrRateLimited indicates the API rate limit was exceeded
	ErrRateLimited = errors.New("rate limited")
	// ErrQuotaExceeded indicates the API quota was exceeded
	ErrQuotaExceeded = errors.New("quota exceeded")
	// ErrEmptyReply is returned when a provider answered with blank text
	ErrEmptyReply = errors.New("empty reply")
)

// APIError represents an error from the AI provider API
type APIError struct {
	Message     string
	Type        string
	Code        string
	StatusCode  int
	RetryAfter  *time.Duration
	IsPermanent bool // true for quota errors, false for rate limits
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (status %d, type %s): %s", e.StatusCode, e.Type, e.Message)
}

// Unwrap lets errors.Is match ErrRateLimited / ErrQuotaExceeded.
func (e *APIError) Unwrap() error {
	switch {
	case e.IsPermanent:
		return ErrQuotaExceeded
	case e.StatusCode == 429:
		return ErrRateLimited
	default:
		return nil
	}
}

// IsRateLimitError checks if an error is a rate limit error
func IsRateLimitError(err error) bool {
	if err == nil {
		return false
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429 && !apiErr.IsPermanent
	}

	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "too many requests") ||
		strings.Contains(errStr, "resource_exhausted")
}

// IsQuotaError checks if an error is a quota exhaustion error
func IsQuotaError(err error) bool {
	if err == nil {
		return false
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.IsPermanent || apiErr.Code == "insufficient_quota"
	}

	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "insufficient_quota") ||
		strings.Contains(errStr, "quota") ||
		strings.Contains(errStr, "billing")
}

// ExtractAPIError extracts API error details from an error
func ExtractAPIError(err error) *APIError {
	if err == nil {
		return nil
	}

	var oaErr *openai.Error
	if errors.As(err, &oaErr) && oaErr.StatusCode == 429 {
		apiErr := &APIError{
			StatusCode:  oaErr.StatusCode,
			Message:     oaErr.Message,
			Type:        oaErr.Type,
			Code:        oaErr.Code,
			IsPermanent: oaErr.Code == "insufficient_quota",
		}
		setRetryAfter(apiErr)
		return apiErr
	}

	// Other SDKs embed the status and a JSON body in the message
	errStr := err.Error()
	if !strings.Contains(errStr, "429") {
		return nil
	}
	apiErr := &APIError{
		StatusCode: 429,
		Message:    errStr,
		Type:       "rate_limit_error",
	}
	if jsonStart := strings.Index(errStr, "{"); jsonStart != -1 {
		jsonStr := errStr[jsonStart:]
		if jsonEnd := strings.LastIndex(jsonStr, "}"); jsonEnd != -1 {
			jsonStr = jsonStr[:jsonEnd+1]
			var errorData struct {
				Message string `json:"message"`
				Type    string `json:"type"`
				Code    string `json:"code"`
			}
			if json.Unmarshal([]byte(jsonStr), &errorData) == nil {
				apiErr.Message = errorData.Message
				apiErr.Type = errorData.Type
				apiErr.Code = errorData.Code
				apiErr.IsPermanent = errorData.Code == "insufficient_quota"
			}
		}
	}
	setRetryAfter(apiErr)
	return apiErr
}

func setRetryAfter(apiErr *APIError) {
	retryAfter := 60 * time.Second
	if apiErr.IsPermanent {
		retryAfter = time.Hour
	}
	apiErr.RetryAfter = &retryAfter
}

// FailureReason maps a provider error onto a short label for logs and replies.
func FailureReason(err error) string {
	var netErr net.Error
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case IsQuotaError(err):
		return "quota"
	case IsRateLimitError(err):
		return "rate_limited"
	case errors.Is(err, ErrEmptyReply), errors.Is(err, ErrEmptyCandidates), strings.Contains(err.Error(), ErrNoChoicesInResponse):
		return "empty_reply"
	case errors.As(err, &netErr):
		if netErr.Timeout() {
			return "timeout"
		}
		return "network"
	default:
		return "error"
	}
}
