package agent

import (
	"fmt"
	"strings"

	"github.com/sujin-ai/sujin/internal/memory"
)

// HandleFeedbackCommand intercepts feedback-related REPL input before it
// reaches the model. Recognized forms:
//
//	feedback <positive|negative|neutral> [text]
//	helpful / unhelpful (shorthands for the last response)
//	stats
//
// Returns the reply to print and whether the input was consumed.
func (a *Agent) HandleFeedbackCommand(input string) (string, bool) {
	fields := strings.Fields(strings.TrimSpace(input))
	if len(fields) == 0 {
		return "", false
	}

	switch strings.ToLower(fields[0]) {
	case "helpful":
		a.state.Memory.RecordFeedback(memory.FeedbackPositive, memory.FeedbackResponse, "marked helpful")
		return "Noted, thanks.", true
	case "unhelpful":
		a.state.Memory.RecordFeedback(memory.FeedbackNegative, memory.FeedbackResponse, "marked unhelpful")
		return "Noted. I'll try to do better.", true
	case "stats":
		return a.feedbackStats(), true
	case "feedback":
		if len(fields) < 2 {
			return "Usage: feedback <positive|negative|neutral> [comment]", true
		}
		ftype := memory.FeedbackType(strings.ToLower(fields[1]))
		content := strings.Join(fields[2:], " ")
		if content == "" {
			content = "no comment"
		}
		a.state.Memory.RecordFeedback(ftype, memory.FeedbackResponse, content)
		return "Feedback recorded.", true
	}
	return "", false
}

func (a *Agent) feedbackStats() string {
	stats := a.state.Memory.Feedback().Stats("")
	if stats.Total == 0 {
		return "No feedback recorded yet."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Feedback: %d total\n", stats.Total)
	fmt.Fprintf(&b, "  positive: %d (%.0f%%)\n", stats.Positive, stats.PositivePct)
	fmt.Fprintf(&b, "  negative: %d (%.0f%%)\n", stats.Negative, stats.NegativePct)
	fmt.Fprintf(&b, "  neutral:  %d (%.0f%%)", stats.Neutral, stats.NeutralPct)

	trends := a.state.Memory.Feedback().Trends()
	if len(trends) > 0 {
		b.WriteString("\nTrends:")
		for _, cat := range []memory.FeedbackCategory{memory.FeedbackResponse, memory.FeedbackSuggestion, memory.FeedbackCommand} {
			if tr, ok := trends[cat]; ok {
				fmt.Fprintf(&b, "\n  %s: %s", cat, tr)
			}
		}
	}
	return b.String()
}
