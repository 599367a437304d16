package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

// DefaultGeminiModel is used when AI_MODEL is unset for the gemini provider
const DefaultGeminiModel = "gemini-2.0-flash"

// ErrEmptyCandidates is returned when Gemini produced no text
var ErrEmptyCandidates = errors.New("no text in gemini response")

// GeminiProvider implements AIProvider using Google's Gemini API
type GeminiProvider struct {
	client    *genai.Client
	model     string
	logger    *zap.Logger
	debugMode bool
}

// NewGeminiProvider creates a Gemini provider.
func NewGeminiProvider(ctx context.Context, apiKey, model string, logger *zap.Logger, debugMode bool) (*GeminiProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api_key is required")
	}
	if model == "" {
		model = DefaultGeminiModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &GeminiProvider{
		client:    client,
		model:     model,
		logger:    logger,
		debugMode: debugMode,
	}, nil
}

// Name implements AIProvider
func (p *GeminiProvider) Name() string { return "gemini" }

// Chat implements AIProvider
func (p *GeminiProvider) Chat(ctx context.Context, messages []ChatMessage, dashboardSummary string) (*ChatResponse, error) {
	contents := toGeminiContents(messages)
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemContent(dashboardSummary), genai.RoleUser),
	}

	startTime := time.Now()
	resp, err := p.client.Models.GenerateContent(ctx, p.model, contents, cfg)
	latency := time.Since(startTime)
	if err != nil {
		if p.logger != nil && p.debugMode {
			p.logger.Debug("llm_api_error",
				zap.String("provider", p.Name()),
				zap.String("model", p.model),
				zap.Error(err),
				zap.String("request_id", ExtractRequestID(ctx)),
				zap.Int64("latency_ms", latency.Milliseconds()),
			)
		}
		if apiErr := ExtractAPIError(err); apiErr != nil {
			return nil, fmt.Errorf("failed to chat: %w", apiErr)
		}
		return nil, fmt.Errorf("failed to chat: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return nil, ErrEmptyCandidates
	}

	if p.logger != nil && p.debugMode {
		p.logger.Debug("llm_api_response",
			zap.String("provider", p.Name()),
			zap.String("model", p.model),
			zap.Int("response_length", len(text)),
			zap.String("response_preview", SanitizeResponse(text, true)),
			zap.Int64("latency_ms", latency.Milliseconds()),
		)
	}

	return &ChatResponse{Message: text, Model: p.model}, nil
}

// toGeminiContents maps chat roles onto Gemini's user/model roles.
func toGeminiContents(messages []ChatMessage) []*genai.Content {
	contents := make([]*genai.Content, 0, len(messages))
	for _, msg := range messages {
		var role genai.Role = genai.RoleUser
		if msg.Role == RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(msg.Content, role))
	}
	return contents
}

// RegisterGemini registers the Gemini provider with the registry
func RegisterGemini(registry *ProviderRegistry) {
	registry.Register("gemini", func(config map[string]string, logger *zap.Logger) (AIProvider, error) {
		return NewGeminiProvider(context.Background(), config["api_key"], config["model"], logger, config["debug"] == "true")
	})
}
