package memory

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// FeedbackType classifies a user judgment.
type FeedbackType string

const (
	FeedbackPositive FeedbackType = "positive"
	FeedbackNegative FeedbackType = "negative"
	FeedbackNeutral  FeedbackType = "neutral"
)

func normalizeFeedbackType(t FeedbackType) FeedbackType {
	switch t {
	case FeedbackPositive, FeedbackNegative, FeedbackNeutral:
		return t
	}
	return FeedbackNeutral
}

// FeedbackCategory names what the judgment is about.
type FeedbackCategory string

const (
	FeedbackResponse   FeedbackCategory = "response"
	FeedbackSuggestion FeedbackCategory = "suggestion"
	FeedbackCommand    FeedbackCategory = "command"
)

var feedbackCategories = []FeedbackCategory{FeedbackResponse, FeedbackSuggestion, FeedbackCommand}

func normalizeFeedbackCategory(c FeedbackCategory) FeedbackCategory {
	switch c {
	case FeedbackResponse, FeedbackSuggestion, FeedbackCommand:
		return c
	}
	return FeedbackResponse
}

// FeedbackEntry is one immutable user judgment. Entries are never
// deleted, only aggregated.
type FeedbackEntry struct {
	ID        string           `json:"id"`
	Type      FeedbackType     `json:"feedback_type"`
	Category  FeedbackCategory `json:"category"`
	Content   string           `json:"content"`
	Metadata  map[string]any   `json:"metadata,omitempty"`
	Timestamp float64          `json:"timestamp"`
}

// feedbackCounts are incremental running totals, updated on every add and
// never recomputed by scanning the log.
type feedbackCounts struct {
	Total    int `json:"total"`
	Positive int `json:"positive"`
	Negative int `json:"negative"`
	Neutral  int `json:"neutral"`
}

func (c *feedbackCounts) add(t FeedbackType) {
	c.Total++
	switch t {
	case FeedbackPositive:
		c.Positive++
	case FeedbackNegative:
		c.Negative++
	default:
		c.Neutral++
	}
}

// FeedbackStats is the caller-facing aggregate view. Percentages are 0
// when the total is 0.
type FeedbackStats struct {
	Total       int
	Positive    int
	Negative    int
	Neutral     int
	PositivePct float64
	NegativePct float64
	NeutralPct  float64
}

// Trend describes how recent feedback compares with the all-time
// baseline for a category.
type Trend string

const (
	TrendImproving Trend = "improving"
	TrendDeclining Trend = "declining"
	TrendStable    Trend = "stable"
)

// trendWindow is how far back "recent" reaches, and trendSwing is the
// positive-percentage delta needed to leave "stable".
const (
	trendWindow = 24 * time.Hour
	trendSwing  = 10.0
)

// FeedbackTracker is an append-only log of user judgments with running
// per-category counters. Every entry is also mirrored into the memory
// store so feedback competes in relevance ranking; negative feedback is
// weighted high so it survives ranking longer.
type FeedbackTracker struct {
	history []FeedbackEntry
	metrics map[FeedbackCategory]*feedbackCounts
	store   *Store
	now     func() time.Time
}

// NewFeedbackTracker returns an empty tracker mirroring into store.
// A nil store disables mirroring.
func NewFeedbackTracker(store *Store) *FeedbackTracker {
	t := &FeedbackTracker{
		metrics: make(map[FeedbackCategory]*feedbackCounts),
		store:   store,
		now:     time.Now,
	}
	for _, c := range feedbackCategories {
		t.metrics[c] = &feedbackCounts{}
	}
	return t
}

// AddFeedback records one judgment. Invalid types default to neutral and
// invalid categories to response; the call never fails.
func (t *FeedbackTracker) AddFeedback(ftype FeedbackType, category FeedbackCategory, content string, metadata map[string]any) FeedbackEntry {
	ftype = normalizeFeedbackType(ftype)
	category = normalizeFeedbackCategory(category)

	entry := FeedbackEntry{
		ID:        uuid.NewString(),
		Type:      ftype,
		Category:  category,
		Content:   content,
		Metadata:  metadata,
		Timestamp: unixSeconds(t.now()),
	}
	t.history = append(t.history, entry)
	t.metrics[category].add(ftype)

	if t.store != nil {
		priority := PriorityMedium
		if ftype == FeedbackNegative {
			priority = PriorityHigh
		}
		t.store.AddMemory(
			fmt.Sprintf("User feedback (%s/%s): %s", ftype, category, content),
			CategoryGeneral,
			[]string{"feedback", string(ftype), string(category)},
			priority,
			map[string]any{"feedback_type": string(ftype), "feedback_category": string(category)},
		)
	}
	return entry
}

// Stats aggregates the counters for one category, or across all
// categories when category is empty.
func (t *FeedbackTracker) Stats(category FeedbackCategory) FeedbackStats {
	var c feedbackCounts
	if category == "" {
		for _, m := range t.metrics {
			c.Total += m.Total
			c.Positive += m.Positive
			c.Negative += m.Negative
			c.Neutral += m.Neutral
		}
	} else if m, ok := t.metrics[normalizeFeedbackCategory(category)]; ok {
		c = *m
	}

	stats := FeedbackStats{
		Total:    c.Total,
		Positive: c.Positive,
		Negative: c.Negative,
		Neutral:  c.Neutral,
	}
	if c.Total > 0 {
		stats.PositivePct = 100 * float64(c.Positive) / float64(c.Total)
		stats.NegativePct = 100 * float64(c.Negative) / float64(c.Total)
		stats.NeutralPct = 100 * float64(c.Neutral) / float64(c.Total)
	}
	return stats
}

// Trends compares the positive share of the last 24 hours against the
// all-time positive share per category. Categories with no entries in
// either window are omitted entirely.
func (t *FeedbackTracker) Trends() map[FeedbackCategory]Trend {
	cutoff := unixSeconds(t.now().Add(-trendWindow))

	recent := make(map[FeedbackCategory]*feedbackCounts)
	for _, e := range t.history {
		if e.Timestamp < cutoff {
			continue
		}
		if recent[e.Category] == nil {
			recent[e.Category] = &feedbackCounts{}
		}
		recent[e.Category].add(e.Type)
	}

	trends := make(map[FeedbackCategory]Trend)
	for _, cat := range feedbackCategories {
		all := t.metrics[cat]
		rec := recent[cat]
		if all == nil || all.Total == 0 || rec == nil || rec.Total == 0 {
			continue
		}
		allPct := 100 * float64(all.Positive) / float64(all.Total)
		recPct := 100 * float64(rec.Positive) / float64(rec.Total)
		switch {
		case recPct-allPct > trendSwing:
			trends[cat] = TrendImproving
		case allPct-recPct > trendSwing:
			trends[cat] = TrendDeclining
		default:
			trends[cat] = TrendStable
		}
	}
	return trends
}

// Context renders the tracker as prompt-ready text: overall stats, then
// per-category breakdowns, then trends. Empty tracker yields an empty
// string.
func (t *FeedbackTracker) Context() string {
	overall := t.Stats("")
	if overall.Total == 0 {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Feedback summary: %d total (%.0f%% positive, %.0f%% negative, %.0f%% neutral)\n",
		overall.Total, overall.PositivePct, overall.NegativePct, overall.NeutralPct)

	var lines []string
	for _, cat := range feedbackCategories {
		s := t.Stats(cat)
		if s.Total == 0 {
			continue
		}
		lines = append(lines, fmt.Sprintf("  %s: %d (%.0f%% positive)", cat, s.Total, s.PositivePct))
	}
	if len(lines) > 0 {
		b.WriteString("\nBy category:\n")
		b.WriteString(strings.Join(lines, "\n"))
		b.WriteString("\n")
	}

	trends := t.Trends()
	if len(trends) > 0 {
		cats := make([]string, 0, len(trends))
		for cat := range trends {
			cats = append(cats, string(cat))
		}
		sort.Strings(cats)
		b.WriteString("\nRecent trends:\n")
		for _, cat := range cats {
			fmt.Fprintf(&b, "  %s: %s\n", cat, trends[FeedbackCategory(cat)])
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// History returns a copy of the feedback log.
func (t *FeedbackTracker) History() []FeedbackEntry {
	return append([]FeedbackEntry(nil), t.history...)
}

// feedbackDoc is the wire form of the tracker.
type feedbackDoc struct {
	History []FeedbackEntry                      `json:"feedback_history"`
	Metrics map[FeedbackCategory]*feedbackCounts `json:"metrics"`
}

func (t *FeedbackTracker) MarshalJSON() ([]byte, error) {
	return json.Marshal(feedbackDoc{History: t.history, Metrics: t.metrics})
}

// UnmarshalJSON restores the log and counters. Entries with unknown types
// or categories are coerced, and counters for missing categories are
// re-initialized so older documents load cleanly.
func (t *FeedbackTracker) UnmarshalJSON(data []byte) error {
	var doc feedbackDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	if t.now == nil {
		t.now = time.Now
	}

	t.history = doc.History
	for i := range t.history {
		t.history[i].Type = normalizeFeedbackType(t.history[i].Type)
		t.history[i].Category = normalizeFeedbackCategory(t.history[i].Category)
	}

	t.metrics = make(map[FeedbackCategory]*feedbackCounts)
	for _, c := range feedbackCategories {
		t.metrics[c] = &feedbackCounts{}
	}
	for cat, counts := range doc.Metrics {
		if counts == nil {
			continue
		}
		*t.metrics[normalizeFeedbackCategory(cat)] = *counts
	}
	return nil
}
