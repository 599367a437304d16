package ai

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestExtractAPIError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		err           error
		wantNil       bool
		wantPermanent bool
		wantCode      string
	}{
		{"nil", nil, true, false, ""},
		{"unrelated", errors.New("boom"), true, false, ""},
		{"plain 429", errors.New("POST: 429 Too Many Requests"), false, false, ""},
		{
			"quota body",
			errors.New(`POST "https://api.openai.com/v1/chat/completions": 429 {"message":"You exceeded your current quota","type":"insufficient_quota","code":"insufficient_quota"}`),
			false, true, "insufficient_quota",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			apiErr := ExtractAPIError(tt.err)
			if tt.wantNil {
				if apiErr != nil {
					t.Fatalf("ExtractAPIError() = %+v, want nil", apiErr)
				}
				return
			}
			if apiErr == nil {
				t.Fatal("ExtractAPIError() = nil")
			}
			if apiErr.IsPermanent != tt.wantPermanent {
				t.Errorf("IsPermanent = %v, want %v", apiErr.IsPermanent, tt.wantPermanent)
			}
			if apiErr.Code != tt.wantCode {
				t.Errorf("Code = %q, want %q", apiErr.Code, tt.wantCode)
			}
			if apiErr.RetryAfter == nil {
				t.Error("RetryAfter should be set")
			}
		})
	}
}

func TestAPIError_Classification(t *testing.T) {
	t.Parallel()

	rate := fmt.Errorf("failed to chat: %w", &APIError{StatusCode: 429, Type: "rate_limit_error"})
	quota := fmt.Errorf("failed to chat: %w", &APIError{StatusCode: 429, Code: "insufficient_quota", IsPermanent: true})

	if !IsRateLimitError(rate) || IsQuotaError(rate) {
		t.Error("rate limit error misclassified")
	}
	if !IsQuotaError(quota) || IsRateLimitError(quota) {
		t.Error("quota error misclassified")
	}
	if !errors.Is(rate, ErrRateLimited) {
		t.Error("rate limit error should match ErrRateLimited")
	}
	if !errors.Is(quota, ErrQuotaExceeded) {
		t.Error("quota error should match ErrQuotaExceeded")
	}
}

func TestFailureReason(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{context.DeadlineExceeded, "timeout"},
		{fmt.Errorf("wrapped: %w", context.Canceled), "canceled"},
		{ErrEmptyReply, "empty_reply"},
		{errors.New(ErrNoChoicesInResponse), "empty_reply"},
		{errors.New("something odd"), "error"},
	}
	for _, tt := range tests {
		if got := FailureReason(tt.err); got != tt.want {
			t.Errorf("FailureReason(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestProviderRegistry(t *testing.T) {
	t.Parallel()

	r := DefaultRegistry(nil)
	if _, err := r.GetProvider("openai", map[string]string{}); err == nil {
		t.Error("openai without api_key should fail")
	}
	p, err := r.GetProvider("openai", map[string]string{"api_key": "sk-test"})
	if err != nil {
		t.Fatalf("GetProvider(openai) error: %v", err)
	}
	if p.Name() != "openai" {
		t.Errorf("Name() = %q", p.Name())
	}
	if _, err := r.GetProvider("gemini", map[string]string{}); err == nil {
		t.Error("gemini without api_key should fail")
	}
	var nf *ErrProviderNotFound
	if _, err := r.GetProvider("mystery", nil); !errors.As(err, &nf) {
		t.Errorf("expected ErrProviderNotFound, got %v", err)
	}
}

func TestSanitizeAPIKey(t *testing.T) {
	t.Parallel()

	if got := SanitizeAPIKey("sk-1234567890abcd"); got != "sk-1"+RedactedValue+"abcd" {
		t.Errorf("SanitizeAPIKey() = %q", got)
	}
	if got := SanitizeAPIKey("short"); got != RedactedValue {
		t.Errorf("SanitizeAPIKey(short) = %q", got)
	}
	if HashSessionID("abc") == "" || len(HashSessionID("abc")) != 16 {
		t.Error("HashSessionID should return 16 hex chars")
	}
}
