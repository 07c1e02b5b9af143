package mcp

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/sujin-ai/sujin/internal/provider"
)

func sampleTemplate() *Template {
	return &Template{
		Name:           "summarize",
		Description:    "Summarize a text",
		Version:        "1.0",
		PromptTemplate: "Summarize in {words} words: {text}",
		InputSchema: map[string]any{
			"type":     "object",
			"required": []any{"text", "words"},
			"properties": map[string]any{
				"text":  map[string]any{"type": "string"},
				"words": map[string]any{"type": "integer"},
			},
		},
		OutputSchema: map[string]any{
			"type":     "object",
			"required": []any{"summary"},
			"properties": map[string]any{
				"summary": map[string]any{"type": "string"},
			},
		},
	}
}

func TestTemplateRender(t *testing.T) {
	tpl := sampleTemplate()
	got := tpl.Render(map[string]any{"text": "long article", "words": 5})
	want := "Summarize in 5 words: long article"
	if got != want {
		t.Errorf("Render = %q, want %q", got, want)
	}
}

func TestManagerSaveAndDiscover(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "templates")

	m := NewManager(dir)
	if err := m.Save(sampleTemplate()); err != nil {
		t.Fatalf("Save: %v", err)
	}

	fresh := NewManager(dir)
	if err := fresh.Discover(); err != nil {
		t.Fatalf("Discover: %v", err)
	}
	tpl, ok := fresh.Get("summarize")
	if !ok {
		t.Fatalf("template not rediscovered")
	}
	if tpl.Description != "Summarize a text" {
		t.Errorf("Description = %q", tpl.Description)
	}
	if names := fresh.Names(); len(names) != 1 || names[0] != "summarize" {
		t.Errorf("Names = %v", names)
	}
}

func TestDiscoverMissingDir(t *testing.T) {
	m := NewManager(filepath.Join(t.TempDir(), "absent"))
	if err := m.Discover(); err != nil {
		t.Errorf("missing dir must not error: %v", err)
	}
}

func TestValidator(t *testing.T) {
	v := NewValidator()
	schema := map[string]any{
		"type":     "object",
		"required": []any{"name"},
		"properties": map[string]any{
			"name": map[string]any{"type": "string"},
		},
	}

	if err := v.Validate(schema, `{"name":"ok"}`); err != nil {
		t.Errorf("valid document rejected: %v", err)
	}
	if err := v.Validate(schema, `{"name":42}`); err == nil {
		t.Errorf("wrong type accepted")
	}
	if err := v.Validate(schema, `{}`); err == nil {
		t.Errorf("missing required field accepted")
	}
	if err := v.Validate(nil, `{"anything":true}`); err != nil {
		t.Errorf("nil schema must accept everything: %v", err)
	}
}

type cannedProvider struct{ reply string }

func (c *cannedProvider) Name() string      { return "canned" }
func (c *cannedProvider) ModelName() string { return "canned" }
func (c *cannedProvider) Chat(ctx context.Context, msgs []provider.Message) (*provider.Response, error) {
	return &provider.Response{Content: c.reply}, nil
}

func TestProcessorValidatesBothSides(t *testing.T) {
	tpl := sampleTemplate()

	p := NewProcessor(&cannedProvider{reply: "```json\n{\"summary\":\"short\"}\n```"})
	out, err := p.Process(context.Background(), tpl, map[string]any{"text": "abc", "words": 3})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if out["summary"] != "short" {
		t.Errorf("out = %v", out)
	}

	// Bad input never reaches the model.
	if _, err := p.Process(context.Background(), tpl, map[string]any{"text": "abc"}); err == nil {
		t.Errorf("missing input field accepted")
	}

	// Bad output is rejected.
	bad := NewProcessor(&cannedProvider{reply: `{"nope":true}`})
	if _, err := bad.Process(context.Background(), tpl, map[string]any{"text": "abc", "words": 3}); err == nil {
		t.Errorf("schema-violating output accepted")
	}
}

func TestExtractJSON(t *testing.T) {
	tests := []struct{ in, want string }{
		{"{\"a\":1}", "{\"a\":1}"},
		{"```json\n{\"a\":1}\n```", "{\"a\":1}"},
		{"Here you go: {\"a\":1} hope that helps", "{\"a\":1}"},
	}
	for _, tt := range tests {
		if got := extractJSON(tt.in); got != tt.want {
			t.Errorf("extractJSON(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
