package models

import "time"

// ChatStrategy names the responder that produced a reply
type ChatStrategy string

const (
	ChatStrategyCanned ChatStrategy = "canned"
	ChatStrategyLLM    ChatStrategy = "llm"
)

// ChatTurn is one user message and the bot's reply.
type ChatTurn struct {
	UserText  string       `json:"user_text"`
	BotText   string       `json:"bot_text"`
	Strategy  ChatStrategy `json:"strategy"`
	Fallback  bool         `json:"fallback,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
}
