package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sujin-ai/sujin/internal/provider"
)

// Processor runs a template end to end: validate the input against the
// input schema, render and send the prompt, and validate the model's
// reply against the output schema.
type Processor struct {
	provider  provider.Provider
	validator *Validator
}

func NewProcessor(p provider.Provider) *Processor {
	return &Processor{provider: p, validator: NewValidator()}
}

// Process executes one template invocation. The model is expected to
// reply with a JSON document matching the template's output schema; a
// fenced ```json block around it is tolerated.
func (p *Processor) Process(ctx context.Context, t *Template, input map[string]any) (map[string]any, error) {
	inputJSON, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("encode input: %w", err)
	}
	if err := p.validator.Validate(t.InputSchema, string(inputJSON)); err != nil {
		return nil, fmt.Errorf("template %q input: %w", t.Name, err)
	}

	prompt := t.Render(input)
	resp, err := p.provider.Chat(ctx, []provider.Message{
		{Role: provider.RoleSystem, Content: "Reply with a single JSON object and nothing else."},
		{Role: provider.RoleUser, Content: prompt},
	})
	if err != nil {
		return nil, fmt.Errorf("template %q: %w", t.Name, err)
	}

	raw := extractJSON(resp.Content)
	if err := p.validator.Validate(t.OutputSchema, raw); err != nil {
		return nil, fmt.Errorf("template %q output: %w", t.Name, err)
	}

	var out map[string]any
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("template %q: reply is not a JSON object: %w", t.Name, err)
	}
	return out, nil
}

// extractJSON strips markdown fences and surrounding prose from a model
// reply, keeping the outermost JSON object.
func extractJSON(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		if idx := strings.Index(text, "```"); idx >= 0 {
			text = text[:idx]
		}
		return strings.TrimSpace(text)
	}
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		return text[start : end+1]
	}
	return text
}
