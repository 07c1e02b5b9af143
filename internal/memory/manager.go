package memory

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"
)

// minUtteranceLen filters conversational noise out of general memory.
const minUtteranceLen = 10

// Context assembly limits. These bound the text injected into prompts,
// not what the store holds.
const (
	contextRecentCommands = 5
	contextRelevant       = 5
	contextTopics         = 5
)

// Manager is the memory subsystem's front door: it owns the store, the
// feedback tracker, and the summarizer, and turns raw agent events into
// records and records into prompt context.
type Manager struct {
	store      *Store
	feedback   *FeedbackTracker
	summarizer *Summarizer
	log        *slog.Logger
}

// NewManager returns a manager with empty state.
func NewManager(log *slog.Logger) *Manager {
	if log == nil {
		log = slog.Default()
	}
	store := NewStore()
	return &Manager{
		store:      store,
		feedback:   NewFeedbackTracker(store),
		summarizer: NewSummarizer(),
		log:        log,
	}
}

// Store exposes the underlying record store.
func (m *Manager) Store() *Store { return m.store }

// Feedback exposes the feedback tracker.
func (m *Manager) Feedback() *FeedbackTracker { return m.feedback }

// RecordCommand stores an executed command and whatever preferences and
// topics can be read off it.
func (m *Manager) RecordCommand(command, output string, success bool) {
	command = strings.TrimSpace(command)
	if command == "" {
		return
	}
	m.store.AddCommand(command, output, success)
	for key, value := range ExtractPreferences(command) {
		m.store.AddPreference(key, value)
	}
	for _, topic := range ExtractTopics(command) {
		m.store.AddTopic(topic, map[string]any{"source": "command"})
	}
	m.log.Debug("recorded command", "command", command, "success", success)
}

// RecordUtterance stores what a free-form user message reveals: stated
// preferences always, and the utterance itself as a tagged general
// memory unless it is too short to be signal.
func (m *Manager) RecordUtterance(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	for key, value := range ExtractUtterancePreferences(text) {
		m.store.AddPreference(key, value)
	}
	if len(text) < minUtteranceLen {
		return
	}
	tags := append([]string{"user_input"}, UtteranceTags(text)...)
	m.store.AddMemory(text, CategoryGeneral, tags, PriorityMedium, nil)
}

// RecordFeedback forwards a judgment to the tracker.
func (m *Manager) RecordFeedback(ftype FeedbackType, category FeedbackCategory, content string) FeedbackEntry {
	return m.feedback.AddFeedback(ftype, category, content, nil)
}

// MemoryContext assembles the prompt-ready memory block: preferences,
// recent commands, topics, the top relevant records, and any summaries.
// Summarization runs first, lazily, so summaries stay current without a
// background scheduler. Returns an empty string when nothing is stored.
func (m *Manager) MemoryContext() string {
	m.summarizer.Run(m.store)

	var sections []string

	if prefs := m.store.Preferences(); len(prefs) > 0 {
		keys := make([]string, 0, len(prefs))
		for k := range prefs {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var b strings.Builder
		b.WriteString("User preferences:")
		for _, k := range keys {
			fmt.Fprintf(&b, "\n  %s: %s", k, stringify(prefs[k]))
		}
		sections = append(sections, b.String())
	}

	if cmds := m.store.RecentCommands(contextRecentCommands); len(cmds) > 0 {
		var b strings.Builder
		b.WriteString("Recent commands:")
		for _, c := range cmds {
			status := "ok"
			if !c.Success {
				status = "failed"
			}
			fmt.Fprintf(&b, "\n  %s (%s)", c.Command, status)
		}
		sections = append(sections, b.String())
	}

	if topics := m.store.Topics(); len(topics) > 0 {
		names := make([]string, 0, len(topics))
		for t := range topics {
			names = append(names, t)
		}
		sort.Strings(names)
		if len(names) > contextTopics {
			names = names[:contextTopics]
		}
		sections = append(sections, "Topics discussed: "+strings.Join(names, ", "))
	}

	if relevant := m.store.MostRelevant(contextRelevant); len(relevant) > 0 {
		var b strings.Builder
		b.WriteString("Relevant memories:")
		for _, r := range relevant {
			fmt.Fprintf(&b, "\n  - %s", r.Content)
		}
		sections = append(sections, b.String())
	}

	if summaries := m.summarizer.Summaries(); len(summaries) > 0 {
		keys := make([]string, 0, len(summaries))
		for k := range summaries {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var b strings.Builder
		b.WriteString("Summarized history:")
		for _, k := range keys {
			fmt.Fprintf(&b, "\n  [%s] %s", k, summaries[k])
		}
		sections = append(sections, b.String())
	}

	return strings.Join(sections, "\n\n")
}

// FeedbackContext renders the feedback tracker for prompt injection.
func (m *Manager) FeedbackContext() string {
	return m.feedback.Context()
}

// managerDoc is the persisted form of the whole subsystem, embedded in
// the larger agent state document.
type managerDoc struct {
	Storage  json.RawMessage `json:"storage"`
	Feedback json.RawMessage `json:"feedback"`
}

func (m *Manager) MarshalJSON() ([]byte, error) {
	storage, err := json.Marshal(m.store)
	if err != nil {
		return nil, err
	}
	feedback, err := json.Marshal(m.feedback)
	if err != nil {
		return nil, err
	}
	return json.Marshal(managerDoc{Storage: storage, Feedback: feedback})
}

// UnmarshalJSON restores store and tracker and re-links the tracker's
// mirror reference to the restored store.
func (m *Manager) UnmarshalJSON(data []byte) error {
	var doc managerDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	if m.store == nil {
		m.store = NewStore()
	}
	if m.feedback == nil {
		m.feedback = NewFeedbackTracker(m.store)
	}
	if m.summarizer == nil {
		m.summarizer = NewSummarizer()
	}
	if m.log == nil {
		m.log = slog.Default()
	}
	if len(doc.Storage) > 0 {
		if err := json.Unmarshal(doc.Storage, m.store); err != nil {
			return fmt.Errorf("restore memory storage: %w", err)
		}
	}
	if len(doc.Feedback) > 0 {
		if err := json.Unmarshal(doc.Feedback, m.feedback); err != nil {
			return fmt.Errorf("restore feedback: %w", err)
		}
	}
	m.feedback.store = m.store
	return nil
}

// SetClock overrides the time source everywhere in the subsystem.
// Intended for tests.
func (m *Manager) SetClock(now func() time.Time) {
	m.store.now = now
	m.feedback.now = now
	m.summarizer.now = now
}
