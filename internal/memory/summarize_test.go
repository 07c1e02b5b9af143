package memory

import (
	"fmt"
	"strings"
	"testing"
	"time"
)

// seedOldCommands inserts n command records sharing a tag, created ten
// days before base.
func seedOldCommands(s *Store, n int, tag string, base time.Time) {
	old := base.Add(-10 * 24 * time.Hour)
	s.now = func() time.Time { return old }
	for i := 0; i < n; i++ {
		s.AddMemory(
			fmt.Sprintf("Command: build %d", i),
			CategoryCommand,
			[]string{tag},
			PriorityMedium,
			map[string]any{"command": "make build", "success": i%3 != 0},
		)
	}
	s.now = func() time.Time { return base }
}

func TestSummarizeBelowCountThreshold(t *testing.T) {
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	s := NewStore()
	seedOldCommands(s, 49, "build", base)

	sum := NewSummarizer()
	sum.now = s.now
	sum.Run(s)

	if len(sum.Summaries()) != 0 {
		t.Fatalf("49 records must not trigger summarization, got %v", sum.Summaries())
	}
}

func TestSummarizeAboveThreshold(t *testing.T) {
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	s := NewStore()
	seedOldCommands(s, 51, "build", base)

	sum := NewSummarizer()
	sum.now = s.now
	sum.Run(s)

	summary, ok := sum.Summaries()["command:build"]
	if !ok {
		t.Fatalf("expected a summary keyed command:build, got %v", sum.Summaries())
	}
	if !strings.Contains(summary, "51") {
		t.Errorf("summary should report the group size: %q", summary)
	}
	if !strings.Contains(summary, "make build") {
		t.Errorf("summary should name the most frequent command: %q", summary)
	}

	// Source records stay individually retrievable.
	if got := s.ByTags([]string{"build"}, false, 0); len(got) != 51 {
		t.Errorf("originals must survive summarization, got %d", len(got))
	}
}

func TestSummarizeSkipsYoungRecords(t *testing.T) {
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	s := NewStore()
	s.now = func() time.Time { return base }
	for i := 0; i < 60; i++ {
		s.AddMemory("fresh", CategoryCommand, []string{"build"}, PriorityMedium,
			map[string]any{"command": "make", "success": true})
	}

	sum := NewSummarizer()
	sum.now = s.now
	sum.Run(s)
	if len(sum.Summaries()) != 0 {
		t.Errorf("records younger than the age threshold must not summarize")
	}
}

func TestSummarizeSkipsSmallTagGroups(t *testing.T) {
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	s := NewStore()
	seedOldCommands(s, 50, "build", base)

	// Four extra records under a rare tag, also old.
	old := base.Add(-10 * 24 * time.Hour)
	s.now = func() time.Time { return old }
	for i := 0; i < 4; i++ {
		s.AddMemory("rare", CategoryCommand, []string{"rare"}, PriorityMedium,
			map[string]any{"command": "rare", "success": true})
	}
	s.now = func() time.Time { return base }

	sum := NewSummarizer()
	sum.now = s.now
	sum.Run(s)

	if _, ok := sum.Summaries()["command:rare"]; ok {
		t.Errorf("tag groups smaller than %d must be skipped", summarizeMinGroup)
	}
	if _, ok := sum.Summaries()["command:build"]; !ok {
		t.Errorf("qualifying group missing")
	}
}

func TestSummarizePreferenceReducer(t *testing.T) {
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	s := NewStore()
	old := base.Add(-10 * 24 * time.Hour)
	s.now = func() time.Time { return old }
	for i := 0; i < 55; i++ {
		s.AddMemory("pref", CategoryPreference, []string{"preference"}, PriorityHigh,
			map[string]any{"key": "preferred_editor", "value": fmt.Sprintf("editor-%d", i)})
	}
	s.now = func() time.Time { return base }

	sum := NewSummarizer()
	sum.now = s.now
	sum.Run(s)

	summary := sum.Summaries()["preference:preference"]
	if !strings.Contains(summary, "preferred_editor=editor-54") {
		t.Errorf("last write must win per key: %q", summary)
	}
}

func TestSummarizeGeneralReducer(t *testing.T) {
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	s := NewStore()
	old := base.Add(-10 * 24 * time.Hour)
	s.now = func() time.Time { return old }
	for i := 0; i < 50; i++ {
		s.AddMemory("note", CategoryGeneral, []string{"notes"}, PriorityLow, nil)
	}
	s.now = func() time.Time { return base }

	sum := NewSummarizer()
	sum.now = s.now
	sum.Run(s)

	if got := sum.Summaries()["general:notes"]; got != "50 memories tagged 'notes'" {
		t.Errorf("general reducer = %q", got)
	}
}
