package memory

import (
	"time"

	"github.com/google/uuid"
)

// Category is the top-level partition a record belongs to. Every record
// lives in exactly one category for its whole life.
type Category string

const (
	CategoryCommand    Category = "command"
	CategoryPreference Category = "preference"
	CategoryTopic      Category = "topic"
	CategoryGeneral    Category = "general"
)

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryCommand, CategoryPreference, CategoryTopic, CategoryGeneral:
		return true
	}
	return false
}

// normalizeCategory coerces unknown categories to general. Unknown values
// show up in hand-edited state files, never from our own writers.
func normalizeCategory(c Category) Category {
	if c.Valid() {
		return c
	}
	return CategoryGeneral
}

// Priority ranks how aggressively a record should surface in context.
type Priority int

const (
	PriorityLow    Priority = 1
	PriorityMedium Priority = 2
	PriorityHigh   Priority = 3
)

func (p Priority) Valid() bool {
	return p >= PriorityLow && p <= PriorityHigh
}

func normalizePriority(p Priority) Priority {
	if p.Valid() {
		return p
	}
	return PriorityMedium
}

// Record is one stored fact about the user: a command they ran, a
// preference they stated, a topic they touched, or a general note.
// Content and category are fixed at creation; only the access metadata
// (LastAccessed, AccessCount) changes afterwards.
type Record struct {
	ID           string         `json:"id"`
	Content      string         `json:"content"`
	Category     Category       `json:"category"`
	Tags         []string       `json:"tags"`
	Priority     Priority       `json:"priority"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	CreatedAt    float64        `json:"created_at"`
	LastAccessed float64        `json:"last_accessed"`
	AccessCount  int            `json:"access_count"`
}

func newRecord(content string, category Category, tags []string, priority Priority, metadata map[string]any, now time.Time) *Record {
	ts := unixSeconds(now)
	return &Record{
		ID:           uuid.NewString(),
		Content:      content,
		Category:     normalizeCategory(category),
		Tags:         normalizeTags(tags),
		Priority:     normalizePriority(priority),
		Metadata:     metadata,
		CreatedAt:    ts,
		LastAccessed: ts,
	}
}

// touch marks the record as accessed. Only ranked retrieval calls touch;
// writes and raw scans do not.
func (r *Record) touch(now time.Time) {
	r.LastAccessed = unixSeconds(now)
	r.AccessCount++
}

// RelevanceScore combines priority, recency decay, and access frequency.
// It is recomputed on every ranking pass, never persisted as authoritative.
func (r *Record) RelevanceScore(now time.Time) float64 {
	days := (unixSeconds(now) - r.LastAccessed) / 86400
	if days < 0 {
		days = 0
	}
	return float64(r.Priority)*10 + 5/(1+days) + float64(r.AccessCount)
}

// HasTag reports whether the record carries the given tag.
func (r *Record) HasTag(tag string) bool {
	for _, t := range r.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// normalizeTags collapses duplicates and drops empty strings, preserving
// first-seen order.
func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

// unixSeconds converts a time to float seconds since epoch, the wire
// format used throughout the persisted state document.
func unixSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}
