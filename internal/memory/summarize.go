package memory

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Summarization thresholds. A category is considered for summarization
// only once it holds enough records, enough of them are old, and a tag
// group is large enough to be worth condensing.
const (
	summarizeCountThreshold = 50
	summarizeAgeDays        = 7
	summarizeMinOld         = 10
	summarizeMinGroup       = 5
)

// Summarizer collapses old, over-represented tag groups into condensed
// synthetic summaries keyed by "category:tag". It only reads the store;
// source records are never deleted. Summaries live in-process and are
// rebuilt lazily, so they are not part of the persisted state.
type Summarizer struct {
	summaries map[string]string
	now       func() time.Time
}

// NewSummarizer returns an empty summarizer.
func NewSummarizer() *Summarizer {
	return &Summarizer{
		summaries: make(map[string]string),
		now:       time.Now,
	}
}

// Run re-evaluates every category and refreshes the summary keys it
// recomputes. Existing keys for groups that no longer qualify are kept;
// summarization is additive.
func (s *Summarizer) Run(store *Store) {
	store.mu.Lock()
	defer store.mu.Unlock()

	cutoff := unixSeconds(s.now()) - summarizeAgeDays*86400
	for cat, recs := range store.categorized {
		if len(recs) < summarizeCountThreshold {
			continue
		}
		var old []*Record
		for _, r := range recs {
			if r.CreatedAt < cutoff {
				old = append(old, r)
			}
		}
		if len(old) < summarizeMinOld {
			continue
		}
		for tag, group := range groupByTag(old) {
			if len(group) < summarizeMinGroup {
				continue
			}
			s.summaries[string(cat)+":"+tag] = summarizeGroup(cat, tag, group)
		}
	}
}

// Summaries returns a copy of the current summary map.
func (s *Summarizer) Summaries() map[string]string {
	out := make(map[string]string, len(s.summaries))
	for k, v := range s.summaries {
		out[k] = v
	}
	return out
}

func groupByTag(recs []*Record) map[string][]*Record {
	groups := make(map[string][]*Record)
	for _, r := range recs {
		for _, t := range r.Tags {
			groups[t] = append(groups[t], r)
		}
	}
	return groups
}

func summarizeGroup(cat Category, tag string, group []*Record) string {
	switch cat {
	case CategoryCommand:
		return summarizeCommands(tag, group)
	case CategoryPreference:
		return summarizePreferences(tag, group)
	case CategoryTopic:
		return summarizeTopics(tag, group)
	default:
		return fmt.Sprintf("%d memories tagged '%s'", len(group), tag)
	}
}

func summarizeCommands(tag string, group []*Record) string {
	succeeded := 0
	counts := make(map[string]int)
	for _, r := range group {
		if ok, _ := r.Metadata["success"].(bool); ok {
			succeeded++
		}
		if cmd, _ := r.Metadata["command"].(string); cmd != "" {
			counts[cmd]++
		}
	}
	summary := fmt.Sprintf("Ran %d '%s' commands (%d succeeded, %d failed)",
		len(group), tag, succeeded, len(group)-succeeded)
	if top := topN(counts, 3); len(top) > 0 {
		summary += ". Most frequent: " + strings.Join(top, ", ")
	}
	return summary
}

func summarizePreferences(tag string, group []*Record) string {
	// Most recent write per key wins; records are in insertion order.
	latest := make(map[string]string)
	var keys []string
	for _, r := range group {
		key, _ := r.Metadata["key"].(string)
		if key == "" {
			continue
		}
		if _, seen := latest[key]; !seen {
			keys = append(keys, key)
		}
		latest[key] = stringify(r.Metadata["value"])
	}
	if len(keys) == 0 {
		return fmt.Sprintf("%d preference memories tagged '%s'", len(group), tag)
	}
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+latest[k])
	}
	return "Preferences (" + tag + "): " + strings.Join(parts, ", ")
}

func summarizeTopics(tag string, group []*Record) string {
	counts := make(map[string]int)
	for _, r := range group {
		if topic, _ := r.Metadata["topic"].(string); topic != "" {
			counts[topic]++
		}
	}
	top := topN(counts, 3)
	if len(top) == 0 {
		return fmt.Sprintf("%d topic memories tagged '%s'", len(group), tag)
	}
	return "Frequent topics (" + tag + "): " + strings.Join(top, ", ")
}

// topN returns the n most frequent keys formatted "key (count)", ties
// broken alphabetically for determinism.
func topN(counts map[string]int, n int) []string {
	type kc struct {
		key   string
		count int
	}
	items := make([]kc, 0, len(counts))
	for k, c := range counts {
		items = append(items, kc{k, c})
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].count != items[j].count {
			return items[i].count > items[j].count
		}
		return items[i].key < items[j].key
	})
	if len(items) > n {
		items = items[:n]
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, fmt.Sprintf("%s (%d)", it.key, it.count))
	}
	return out
}
