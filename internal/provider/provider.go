package provider

import "context"

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Response is one completed model turn.
type Response struct {
	Content      string
	Model        string
	InputTokens  int
	OutputTokens int
}

// Provider is a blocking chat client. The surrounding agent is a
// one-turn-at-a-time loop, so there is no streaming surface.
type Provider interface {
	Chat(ctx context.Context, msgs []Message) (*Response, error)
	Name() string
	ModelName() string
}
