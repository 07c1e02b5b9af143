package memory

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTracker(t *testing.T) (*FeedbackTracker, *Store) {
	t.Helper()
	s := testStore(t)
	tr := NewFeedbackTracker(s)
	tr.now = s.now
	return tr, s
}

func TestEmptyTrackerStats(t *testing.T) {
	tr, _ := testTracker(t)

	stats := tr.Stats("")
	assert.Equal(t, 0, stats.Total)
	assert.Zero(t, stats.PositivePct)
	assert.Zero(t, stats.NegativePct)
	assert.Zero(t, stats.NeutralPct)
	assert.Empty(t, tr.Context())
}

func TestAddFeedbackStats(t *testing.T) {
	tr, _ := testTracker(t)

	tr.AddFeedback(FeedbackNegative, FeedbackResponse, "too slow", nil)

	stats := tr.Stats("")
	assert.Equal(t, 1, stats.Total)
	assert.Equal(t, 1, stats.Negative)
	assert.Equal(t, 100.0, stats.NegativePct)

	perCat := tr.Stats(FeedbackResponse)
	assert.Equal(t, 1, perCat.Total)
	assert.Zero(t, tr.Stats(FeedbackCommand).Total)
}

func TestAddFeedbackCoercion(t *testing.T) {
	tr, _ := testTracker(t)

	entry := tr.AddFeedback("amazing", "vibes", "??", nil)
	assert.Equal(t, FeedbackNeutral, entry.Type)
	assert.Equal(t, FeedbackResponse, entry.Category)
	assert.Equal(t, 1, tr.Stats(FeedbackResponse).Neutral)
}

func TestFeedbackMirroredIntoStore(t *testing.T) {
	tr, s := testTracker(t)

	tr.AddFeedback(FeedbackNegative, FeedbackCommand, "deleted the wrong file", nil)
	tr.AddFeedback(FeedbackPositive, FeedbackResponse, "nice", nil)

	recs := s.ByTags([]string{"feedback"}, false, 0)
	require.Len(t, recs, 2)

	negative := s.ByTags([]string{"feedback", "negative"}, true, 0)
	require.Len(t, negative, 1)
	assert.Equal(t, PriorityHigh, negative[0].Priority, "negative feedback must be weighted high")

	positive := s.ByTags([]string{"feedback", "positive"}, true, 0)
	require.Len(t, positive, 1)
	assert.Equal(t, PriorityMedium, positive[0].Priority)
}

func TestTrends(t *testing.T) {
	tr, s := testTracker(t)
	base := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

	// Old baseline: mostly negative responses.
	clock := base.Add(-72 * time.Hour)
	s.now = func() time.Time { return clock }
	tr.now = s.now
	for i := 0; i < 8; i++ {
		tr.AddFeedback(FeedbackNegative, FeedbackResponse, "bad", nil)
	}
	tr.AddFeedback(FeedbackPositive, FeedbackResponse, "ok", nil)

	// Recent window: all positive.
	clock = base.Add(-time.Hour)
	for i := 0; i < 4; i++ {
		tr.AddFeedback(FeedbackPositive, FeedbackResponse, "great", nil)
	}

	clock = base
	trends := tr.Trends()
	assert.Equal(t, TrendImproving, trends[FeedbackResponse])
	assert.NotContains(t, trends, FeedbackSuggestion, "empty categories must be omitted")
	assert.NotContains(t, trends, FeedbackCommand)
}

func TestTrendsStableWithinSwing(t *testing.T) {
	tr, s := testTracker(t)
	base := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

	clock := base.Add(-time.Hour)
	s.now = func() time.Time { return clock }
	tr.now = s.now
	tr.AddFeedback(FeedbackPositive, FeedbackCommand, "worked", nil)
	tr.AddFeedback(FeedbackNegative, FeedbackCommand, "broke", nil)

	clock = base
	// All entries are inside the window, so recent == all-time.
	assert.Equal(t, TrendStable, tr.Trends()[FeedbackCommand])
}

func TestFeedbackContextSections(t *testing.T) {
	tr, _ := testTracker(t)
	tr.AddFeedback(FeedbackPositive, FeedbackResponse, "thanks", nil)
	tr.AddFeedback(FeedbackNegative, FeedbackSuggestion, "not that", nil)

	ctx := tr.Context()
	assert.Contains(t, ctx, "Feedback summary: 2 total")
	assert.Contains(t, ctx, "By category:")
	assert.Contains(t, ctx, "response: 1")
	assert.Contains(t, ctx, "suggestion: 1")
}

func TestFeedbackRoundTrip(t *testing.T) {
	tr, _ := testTracker(t)
	tr.AddFeedback(FeedbackNegative, FeedbackResponse, "too slow", nil)
	tr.AddFeedback(FeedbackPositive, FeedbackCommand, "fast", nil)

	data, err := json.Marshal(tr)
	require.NoError(t, err)

	restored := NewFeedbackTracker(nil)
	require.NoError(t, json.Unmarshal(data, restored))

	assert.Len(t, restored.History(), 2)
	assert.Equal(t, tr.Stats("").Total, restored.Stats("").Total)
	assert.Equal(t, 1, restored.Stats(FeedbackResponse).Negative)
	assert.Equal(t, 1, restored.Stats(FeedbackCommand).Positive)
}

func TestFeedbackLoadCoercesUnknownValues(t *testing.T) {
	doc := `{
		"feedback_history": [
			{"id":"1","feedback_type":"meh","category":"misc","content":"?","timestamp":1}
		],
		"metrics": {"response": {"total":1,"positive":0,"negative":0,"neutral":1}}
	}`
	restored := NewFeedbackTracker(nil)
	require.NoError(t, json.Unmarshal([]byte(doc), restored))

	entries := restored.History()
	require.Len(t, entries, 1)
	assert.Equal(t, FeedbackNeutral, entries[0].Type)
	assert.Equal(t, FeedbackResponse, entries[0].Category)
	// Counters for categories absent from the document still exist.
	assert.Zero(t, restored.Stats(FeedbackSuggestion).Total)
}
