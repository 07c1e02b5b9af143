package agent

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sujin-ai/sujin/internal/memory"
	"github.com/sujin-ai/sujin/internal/provider"
)

// defaultMaxHistory bounds how many conversation messages are kept in
// state; older messages roll off.
const defaultMaxHistory = 100

// Message is one conversation turn with its creation time.
type Message struct {
	Role      provider.Role `json:"role"`
	Content   string        `json:"content"`
	Timestamp float64       `json:"timestamp"`
}

// Conversation is the rolling message history.
type Conversation struct {
	Messages   []Message `json:"messages"`
	MaxHistory int       `json:"max_history"`
}

func NewConversation() *Conversation {
	return &Conversation{MaxHistory: defaultMaxHistory}
}

func (c *Conversation) Add(role provider.Role, content string) {
	c.Messages = append(c.Messages, Message{
		Role:      role,
		Content:   content,
		Timestamp: float64(time.Now().UnixNano()) / 1e9,
	})
	max := c.MaxHistory
	if max <= 0 {
		max = defaultMaxHistory
	}
	if len(c.Messages) > max {
		c.Messages = c.Messages[len(c.Messages)-max:]
	}
}

// Recent returns the last n messages, oldest first.
func (c *Conversation) Recent(n int) []Message {
	if n <= 0 || n >= len(c.Messages) {
		return c.Messages
	}
	return c.Messages[len(c.Messages)-n:]
}

func (c *Conversation) Clear() {
	c.Messages = nil
}

// State is the whole persisted agent document: conversation, execution
// environment, and the memory subsystem. It is written as one file at
// caller-chosen checkpoints; a crash between checkpoints loses only the
// most recent turn.
type State struct {
	Conversation     *Conversation     `json:"conversation"`
	WorkingDirectory string            `json:"working_directory"`
	Environment      map[string]string `json:"environment"`
	Memory           *memory.Manager   `json:"memory"`
}

func NewState(workdir string) *State {
	return &State{
		Conversation:     NewConversation(),
		WorkingDirectory: workdir,
		Environment:      make(map[string]string),
		Memory:           memory.NewManager(nil),
	}
}

// Save overwrites the state file atomically enough for a single-user
// tool: write to a temp file in the same directory, then rename.
func (s *State) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace state: %w", err)
	}
	return nil
}

// LoadState reads a previously saved state file. A missing file returns
// a fresh state rather than an error.
func LoadState(path, workdir string) (*State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewState(workdir), nil
		}
		return nil, fmt.Errorf("read state: %w", err)
	}

	s := NewState(workdir)
	if err := json.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("decode state: %w", err)
	}
	if s.Conversation == nil {
		s.Conversation = NewConversation()
	}
	if s.Environment == nil {
		s.Environment = make(map[string]string)
	}
	if s.Memory == nil {
		s.Memory = memory.NewManager(nil)
	}
	if s.WorkingDirectory == "" {
		s.WorkingDirectory = workdir
	}
	return s, nil
}
