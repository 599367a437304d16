package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/benvon/smart-dashboard/internal/models"
	"go.uber.org/zap"
)

// Responder produces the bot side of a chat turn. Implementations never return an error:
// provider failures are turned into a fallback reply.
type Responder interface {
	Respond(ctx context.Context, userText string, history []models.ChatTurn) Reply
}

// Reply is a responder's answer.
type Reply struct {
	Text     string
	Strategy models.ChatStrategy
	Fallback bool
	// Cause is the provider failure behind a fallback reply. It wraps ErrBoundaryUnavailable.
	Cause error
}

// ResponderConfig selects and configures a Responder.
type ResponderConfig struct {
	Strategy     models.ChatStrategy
	Provider     string
	APIKey       string
	Model        string
	BaseURL      string
	Timeout      time.Duration
	HistoryTurns int
	DebugMode    bool
}

// NewResponder builds the configured strategy. The LLM strategy requires a provider
// registered in registry.
func NewResponder(cfg ResponderConfig, registry *ProviderRegistry, logger *zap.Logger) (Responder, error) {
	switch cfg.Strategy {
	case models.ChatStrategyCanned, "":
		return NewCannedResponder(nil), nil
	case models.ChatStrategyLLM:
		provider, err := registry.GetProvider(cfg.Provider, map[string]string{
			"api_key":  cfg.APIKey,
			"model":    cfg.Model,
			"base_url": cfg.BaseURL,
			"debug":    fmt.Sprintf("%t", cfg.DebugMode),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create %s provider: %w", cfg.Provider, err)
		}
		return NewLLMResponder(provider, logger,
			WithTimeout(cfg.Timeout),
			WithHistoryTurns(cfg.HistoryTurns),
		), nil
	default:
		return nil, fmt.Errorf("unknown chat strategy %q", cfg.Strategy)
	}
}
