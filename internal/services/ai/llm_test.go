package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/benvon/smart-dashboard/internal/models"
	"go.uber.org/zap"
)

type stubProvider struct {
	reply    string
	err      error
	block    bool
	got      []ChatMessage
	summary  string
	deadline bool
}

func (s *stubProvider) Name() string { return "stub" }

func (s *stubProvider) Chat(ctx context.Context, messages []ChatMessage, summary string) (*ChatResponse, error) {
	s.got = messages
	s.summary = summary
	_, s.deadline = ctx.Deadline()
	if s.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if s.err != nil {
		return nil, s.err
	}
	return &ChatResponse{Message: s.reply}, nil
}

func turns(n int) []models.ChatTurn {
	out := make([]models.ChatTurn, n)
	for i := range out {
		out[i] = models.ChatTurn{UserText: fmt.Sprintf("u%d", i), BotText: fmt.Sprintf("b%d", i)}
	}
	return out
}

func TestLLMResponder_Success(t *testing.T) {
	t.Parallel()

	p := &stubProvider{reply: "  You have two bills due.  "}
	r := NewLLMResponder(p, nil)
	ctx := WithDashboardSummary(context.Background(), "2 pending payments")

	reply := r.Respond(ctx, "what's due?", turns(2))
	if reply.Fallback || reply.Cause != nil {
		t.Fatalf("unexpected fallback: %+v", reply)
	}
	if reply.Text != "You have two bills due." {
		t.Errorf("Text = %q", reply.Text)
	}
	if reply.Strategy != models.ChatStrategyLLM {
		t.Errorf("Strategy = %q, want llm", reply.Strategy)
	}
	if p.summary != "2 pending payments" {
		t.Errorf("summary = %q", p.summary)
	}
	if !p.deadline {
		t.Error("provider call should carry a deadline")
	}
	last := p.got[len(p.got)-1]
	if last.Role != RoleUser || last.Content != "what's due?" {
		t.Errorf("last message = %+v", last)
	}
}

func TestLLMResponder_FallbackOnFailure(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		provider   *stubProvider
		timeout    time.Duration
		wantReason string
	}{
		{"timeout", &stubProvider{block: true}, 20 * time.Millisecond, "timeout"},
		{"quota", &stubProvider{err: errors.New(`429 {"message":"no","type":"insufficient_quota","code":"insufficient_quota"}`)}, time.Second, "quota"},
		{"rate limit", &stubProvider{err: errors.New("429 Too Many Requests")}, time.Second, "rate_limited"},
		{"network", &stubProvider{err: errors.New("dial tcp: connection refused")}, time.Second, "error"},
		{"empty reply", &stubProvider{reply: "   "}, time.Second, "empty_reply"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := NewLLMResponder(tt.provider, nil, WithTimeout(tt.timeout))
			reply := r.Respond(context.Background(), "hello", nil)
			if !reply.Fallback || reply.Text != FallbackReply {
				t.Fatalf("expected fallback reply, got %+v", reply)
			}
			if !errors.Is(reply.Cause, ErrBoundaryUnavailable) {
				t.Errorf("Cause %v should wrap ErrBoundaryUnavailable", reply.Cause)
			}
			if got := FailureReason(reply.Cause); got != tt.wantReason {
				t.Errorf("FailureReason = %q, want %q", got, tt.wantReason)
			}
		})
	}
}

func TestBuildMessages_BoundsHistory(t *testing.T) {
	t.Parallel()

	msgs := BuildMessages(turns(25), 10, "next")
	if len(msgs) != 21 {
		t.Fatalf("len = %d, want 21 (10 turns * 2 + 1)", len(msgs))
	}
	if msgs[0].Content != "u15" || msgs[0].Role != RoleUser {
		t.Errorf("first message = %+v, want u15", msgs[0])
	}
	if msgs[1].Role != RoleAssistant || msgs[1].Content != "b15" {
		t.Errorf("second message = %+v, want assistant b15", msgs[1])
	}

	none := BuildMessages(turns(3), 0, "only")
	if len(none) != 1 || none[0].Content != "only" {
		t.Errorf("zero history = %+v", none)
	}
}

func TestBuildMessages_SkipsFallbackReplies(t *testing.T) {
	t.Parallel()

	history := []models.ChatTurn{
		{UserText: "a", BotText: FallbackReply, Fallback: true},
		{UserText: "b", BotText: "answer"},
	}
	msgs := BuildMessages(history, 10, "c")
	var contents []string
	for _, m := range msgs {
		contents = append(contents, m.Content)
	}
	if got := strings.Join(contents, ","); got != "a,b,answer,c" {
		t.Errorf("messages = %s, want a,b,answer,c", got)
	}
}

func TestNewResponder(t *testing.T) {
	t.Parallel()

	registry := NewProviderRegistry(nil)
	registry.Register("stub", func(config map[string]string, _ *zap.Logger) (AIProvider, error) {
		if config["api_key"] == "" {
			return nil, errors.New("api_key is required")
		}
		return &stubProvider{reply: "ok"}, nil
	})

	r, err := NewResponder(ResponderConfig{Strategy: models.ChatStrategyCanned}, registry, nil)
	if err != nil {
		t.Fatalf("canned: %v", err)
	}
	if _, ok := r.(*CannedResponder); !ok {
		t.Errorf("canned strategy built %T", r)
	}

	r, err = NewResponder(ResponderConfig{Strategy: models.ChatStrategyLLM, Provider: "stub", APIKey: "k"}, registry, nil)
	if err != nil {
		t.Fatalf("llm: %v", err)
	}
	if got := r.Respond(context.Background(), "hi", nil); got.Text != "ok" {
		t.Errorf("llm reply = %+v", got)
	}

	if _, err := NewResponder(ResponderConfig{Strategy: models.ChatStrategyLLM, Provider: "stub"}, registry, nil); err == nil {
		t.Error("expected error for missing api key")
	}
	var notFound *ErrProviderNotFound
	if _, err := NewResponder(ResponderConfig{Strategy: models.ChatStrategyLLM, Provider: "nope"}, registry, nil); !errors.As(err, &notFound) {
		t.Errorf("expected ErrProviderNotFound, got %v", err)
	}
	if _, err := NewResponder(ResponderConfig{Strategy: "psychic"}, registry, nil); err == nil {
		t.Error("expected error for unknown strategy")
	}
}
