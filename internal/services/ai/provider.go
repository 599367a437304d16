package ai

import (
	"context"

	"go.uber.org/zap"
)

// AIProvider is the interface for chat completion backends
type AIProvider interface {
	// Chat sends the conversation and returns the assistant's reply.
	// dashboardSummary is a short plain-text description of the user's current dashboard.
	Chat(ctx context.Context, messages []ChatMessage, dashboardSummary string) (*ChatResponse, error)

	// Name identifies the provider in logs
	Name() string
}

// Chat message roles
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage represents a message in a chat conversation
type ChatMessage struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// ChatResponse represents a response from the AI chat
type ChatResponse struct {
	Message string `json:"message"`
	Model   string `json:"model,omitempty"`
}

// ProviderFactory creates an AI provider based on the provider type
type ProviderFactory func(config map[string]string, logger *zap.Logger) (AIProvider, error)

// ProviderRegistry stores available AI providers
type ProviderRegistry struct {
	providers map[string]ProviderFactory
	logger    *zap.Logger
}

// NewProviderRegistry creates a new provider registry. logger may be nil.
func NewProviderRegistry(logger *zap.Logger) *ProviderRegistry {
	return &ProviderRegistry{
		providers: make(map[string]ProviderFactory),
		logger:    logger,
	}
}

// DefaultRegistry returns a registry with every built-in provider registered.
func DefaultRegistry(logger *zap.Logger) *ProviderRegistry {
	r := NewProviderRegistry(logger)
	RegisterOpenAI(r)
	RegisterGemini(r)
	return r
}

// Register registers a provider factory
func (r *ProviderRegistry) Register(name string, factory ProviderFactory) {
	r.providers[name] = factory
}

// GetProvider gets a provider by name
func (r *ProviderRegistry) GetProvider(name string, config map[string]string) (AIProvider, error) {
	factory, ok := r.providers[name]
	if !ok {
		return nil, &ErrProviderNotFound{Name: name}
	}

	return factory(config, r.logger)
}

// ErrProviderNotFound is returned when a provider is not found
type ErrProviderNotFound struct {
	Name string
}

func (e *ErrProviderNotFound) Error() string {
	return "AI provider not found: " + e.Name
}
