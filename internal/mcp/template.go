package mcp

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Template is one reusable prompt contract: a prompt with named slots,
// plus JSON schemas constraining what goes in and what must come back.
type Template struct {
	Name           string            `json:"name"`
	Description    string            `json:"description"`
	Version        string            `json:"version"`
	PromptTemplate string            `json:"prompt_template"`
	InputSchema    map[string]any    `json:"input_schema"`
	OutputSchema   map[string]any    `json:"output_schema"`
	Examples       []map[string]any  `json:"examples,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

// Render substitutes {key} slots in the prompt with input values.
func (t *Template) Render(input map[string]any) string {
	prompt := t.PromptTemplate
	for key, value := range input {
		prompt = strings.ReplaceAll(prompt, "{"+key+"}", fmt.Sprint(value))
	}
	return prompt
}

// Manager discovers and persists templates in a directory, one JSON
// file per template.
type Manager struct {
	dir       string
	templates map[string]*Template
}

func NewManager(dir string) *Manager {
	return &Manager{dir: dir, templates: make(map[string]*Template)}
}

// Discover loads every *.json template from the directory. A missing
// directory is an empty registry, not an error.
func (m *Manager) Discover() error {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read templates dir: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		path := filepath.Join(m.dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read template %s: %w", entry.Name(), err)
		}
		var t Template
		if err := json.Unmarshal(data, &t); err != nil {
			return fmt.Errorf("parse template %s: %w", entry.Name(), err)
		}
		if t.Name == "" {
			t.Name = strings.TrimSuffix(entry.Name(), ".json")
		}
		m.templates[t.Name] = &t
	}
	return nil
}

// Get returns a template by name.
func (m *Manager) Get(name string) (*Template, bool) {
	t, ok := m.templates[name]
	return t, ok
}

// Names lists registered templates alphabetically.
func (m *Manager) Names() []string {
	names := make([]string, 0, len(m.templates))
	for name := range m.templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Save writes a template to the directory and registers it.
func (m *Manager) Save(t *Template) error {
	if t.Name == "" {
		return fmt.Errorf("template needs a name")
	}
	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return fmt.Errorf("create templates dir: %w", err)
	}
	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return err
	}
	path := filepath.Join(m.dir, t.Name+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write template: %w", err)
	}
	m.templates[t.Name] = t
	return nil
}
