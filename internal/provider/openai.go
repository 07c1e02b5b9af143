package provider

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIProvider talks to any OpenAI-compatible chat completions
// endpoint (hosted APIs, Ollama, vLLM).
type OpenAIProvider struct {
	client    *openai.Client
	name      string
	model     string
	maxTokens int
}

var _ Provider = (*OpenAIProvider)(nil)

func NewOpenAI(name, baseURL, apiKey, model string, maxTokens int) *OpenAIProvider {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIProvider{
		client:    openai.NewClientWithConfig(cfg),
		name:      name,
		model:     model,
		maxTokens: maxTokens,
	}
}

func (p *OpenAIProvider) Name() string { return p.name }

func (p *OpenAIProvider) ModelName() string { return p.model }

func (p *OpenAIProvider) Chat(ctx context.Context, msgs []Message) (*Response, error) {
	req := openai.ChatCompletionRequest{
		Model:     p.model,
		MaxTokens: p.maxTokens,
		Messages:  toOpenAIMessages(msgs),
	}

	resp, err := p.client.CreateChatCompletion(ctx, req)
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return nil, fmt.Errorf("%s: %s", p.name, parseProviderError(apiErr.HTTPStatusCode, []byte(apiErr.Message)))
		}
		return nil, fmt.Errorf("%s: %s", p.name, friendlyProviderError(err))
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%s: empty response from model", p.name)
	}

	return &Response{
		Content:      resp.Choices[0].Message.Content,
		Model:        resp.Model,
		InputTokens:  resp.Usage.PromptTokens,
		OutputTokens: resp.Usage.CompletionTokens,
	}, nil
}

func toOpenAIMessages(msgs []Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(msgs))
	for _, m := range msgs {
		role := openai.ChatMessageRoleUser
		switch m.Role {
		case RoleSystem:
			role = openai.ChatMessageRoleSystem
		case RoleAssistant:
			role = openai.ChatMessageRoleAssistant
		}
		out = append(out, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}
	return out
}
