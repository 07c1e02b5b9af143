package memory

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// maxCommandHistory caps the flat command log; the indexed command
// records are not capped.
const maxCommandHistory = 100

// CommandEntry is one row of the flat command log, kept alongside the
// indexed command records for cheap "recent commands" lookup.
type CommandEntry struct {
	Command   string  `json:"command"`
	Output    string  `json:"output"`
	Success   bool    `json:"success"`
	Timestamp float64 `json:"timestamp"`
}

// Store is the single source of truth for memory records. Records are
// partitioned by category; the tag index holds the same pointers, so a
// touch through either view is visible through both. The flat maps
// (preferences, topics, command history) give O(1) lookup by key and are
// always mirrored into indexed records.
type Store struct {
	mu sync.RWMutex

	categorized  map[Category][]*Record
	tagIndex     map[string][]*Record
	preferences  map[string]any
	topics       map[string]any
	commands     []CommandEntry
	lastAccessed map[string]float64

	now func() time.Time
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		categorized:  emptyPartitions(),
		tagIndex:     make(map[string][]*Record),
		preferences:  make(map[string]any),
		topics:       make(map[string]any),
		lastAccessed: make(map[string]float64),
		now:          time.Now,
	}
}

func emptyPartitions() map[Category][]*Record {
	return map[Category][]*Record{
		CategoryCommand:    nil,
		CategoryPreference: nil,
		CategoryTopic:      nil,
		CategoryGeneral:    nil,
	}
}

// AddMemory creates a record and inserts it into its category partition
// and every tag partition. Invalid inputs are defaulted, never rejected.
func (s *Store) AddMemory(content string, category Category, tags []string, priority Priority, metadata map[string]any) *Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := newRecord(content, category, tags, priority, metadata, s.now())
	s.categorized[r.Category] = append(s.categorized[r.Category], r)
	for _, t := range r.Tags {
		s.tagIndex[t] = append(s.tagIndex[t], r)
	}
	return r
}

// ByCategory returns up to limit records from one category, highest
// priority first, most recently accessed first within a priority. Records
// included in the result are touched.
func (s *Store) ByCategory(category Category, limit int, minPriority Priority) []*Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*Record
	for _, r := range s.categorized[normalizeCategory(category)] {
		if minPriority > 0 && r.Priority < minPriority {
			continue
		}
		out = append(out, r)
	}
	return s.rankAndTouch(out, limit)
}

// ByTags returns records matching the given tags. With requireAll the
// result is the intersection of the tag partitions; otherwise the
// de-duplicated union. An empty tag list with requireAll yields nothing.
func (s *Store) ByTags(tags []string, requireAll bool, limit int) []*Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*Record
	if requireAll {
		out = s.tagIntersection(tags)
	} else {
		out = s.tagUnion(tags)
	}
	return s.rankAndTouch(out, limit)
}

// Search does a case-insensitive substring match of query against record
// content, optionally restricted to categories and to the union of the
// given tags.
func (s *Store) Search(query string, categories []Category, tags []string, limit int) []*Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(categories) == 0 {
		categories = []Category{CategoryCommand, CategoryPreference, CategoryTopic, CategoryGeneral}
	}

	var tagged map[*Record]bool
	if len(tags) > 0 {
		tagged = make(map[*Record]bool)
		for _, r := range s.tagUnion(tags) {
			tagged[r] = true
		}
	}

	q := strings.ToLower(query)
	var out []*Record
	for _, c := range categories {
		for _, r := range s.categorized[normalizeCategory(c)] {
			if !strings.Contains(strings.ToLower(r.Content), q) {
				continue
			}
			if tagged != nil && !tagged[r] {
				continue
			}
			out = append(out, r)
		}
	}
	return s.rankAndTouch(out, limit)
}

// MostRelevant ranks every record by relevance score and returns the top
// window. Only the returned records are touched; being scanned and scored
// does not count as an access.
func (s *Store) MostRelevant(limit int) []*Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	var all []*Record
	for _, recs := range s.categorized {
		all = append(all, recs...)
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].RelevanceScore(now) > all[j].RelevanceScore(now)
	})
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	for _, r := range all {
		r.touch(now)
	}
	return all
}

// rankAndTouch sorts by (priority desc, last accessed desc), truncates,
// and touches the survivors. Callers hold the lock.
func (s *Store) rankAndTouch(recs []*Record, limit int) []*Record {
	sort.SliceStable(recs, func(i, j int) bool {
		if recs[i].Priority != recs[j].Priority {
			return recs[i].Priority > recs[j].Priority
		}
		return recs[i].LastAccessed > recs[j].LastAccessed
	})
	if limit > 0 && len(recs) > limit {
		recs = recs[:limit]
	}
	now := s.now()
	for _, r := range recs {
		r.touch(now)
	}
	return recs
}

func (s *Store) tagIntersection(tags []string) []*Record {
	if len(tags) == 0 {
		return nil
	}
	counts := make(map[*Record]int)
	for _, t := range tags {
		for _, r := range s.tagIndex[t] {
			counts[r]++
		}
	}
	// Preserve partition order from the first tag for a stable result.
	var out []*Record
	for _, r := range s.tagIndex[tags[0]] {
		if counts[r] == len(tags) {
			out = append(out, r)
		}
	}
	return out
}

func (s *Store) tagUnion(tags []string) []*Record {
	seen := make(map[*Record]bool)
	var out []*Record
	for _, t := range tags {
		for _, r := range s.tagIndex[t] {
			if seen[r] {
				continue
			}
			seen[r] = true
			out = append(out, r)
		}
	}
	return out
}

// AddPreference stores a preference in the flat map and mirrors it as a
// high-priority indexed record. Explicit preferences always rank high.
func (s *Store) AddPreference(key string, value any) {
	s.mu.Lock()
	s.preferences[key] = value
	s.mu.Unlock()

	s.AddMemory(
		"User preference: "+key+" = "+stringify(value),
		CategoryPreference,
		[]string{"preference", key},
		PriorityHigh,
		map[string]any{"key": key, "value": value},
	)
}

// Preference looks up a preference by key, falling back to def.
func (s *Store) Preference(key string, def any) any {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.preferences[key]; ok {
		s.lastAccessed["preference:"+key] = unixSeconds(s.now())
		return v
	}
	return def
}

// Preferences returns a copy of the flat preference map.
func (s *Store) Preferences() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]any, len(s.preferences))
	for k, v := range s.preferences {
		out[k] = v
	}
	return out
}

// AddCommand appends to the capped command log and mirrors the command as
// an indexed record. Failed and long commands escalate to high priority.
func (s *Store) AddCommand(command, output string, success bool) {
	s.mu.Lock()
	s.commands = append(s.commands, CommandEntry{
		Command:   command,
		Output:    output,
		Success:   success,
		Timestamp: unixSeconds(s.now()),
	})
	if len(s.commands) > maxCommandHistory {
		s.commands = s.commands[len(s.commands)-maxCommandHistory:]
	}
	s.mu.Unlock()

	priority := PriorityMedium
	if !success || len(command) > 50 {
		priority = PriorityHigh
	}
	tags := []string{"command"}
	if success {
		tags = append(tags, "success")
	} else {
		tags = append(tags, "failure")
	}
	if base := commandBase(command); base != "" {
		tags = append(tags, base)
	}
	s.AddMemory(
		"Command: "+command,
		CategoryCommand,
		tags,
		priority,
		map[string]any{"command": command, "output": output, "success": success},
	)
}

// RecentCommands returns the most recent n entries from the flat command
// log, newest last.
func (s *Store) RecentCommands(n int) []CommandEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastAccessed["command_history"] = unixSeconds(s.now())
	if n <= 0 || n >= len(s.commands) {
		return append([]CommandEntry(nil), s.commands...)
	}
	return append([]CommandEntry(nil), s.commands[len(s.commands)-n:]...)
}

// AddTopic stores a topic in the flat map and mirrors it as an indexed
// record at medium priority.
func (s *Store) AddTopic(topic string, details any) {
	s.mu.Lock()
	s.topics[topic] = details
	s.mu.Unlock()

	s.AddMemory(
		"Topic discussed: "+topic,
		CategoryTopic,
		[]string{"topic", topic},
		PriorityMedium,
		map[string]any{"topic": topic, "details": details},
	)
}

// Topic looks up topic details by name, falling back to def.
func (s *Store) Topic(topic string, def any) any {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.topics[topic]; ok {
		s.lastAccessed["topic:"+topic] = unixSeconds(s.now())
		return v
	}
	return def
}

// Topics returns a copy of the flat topic map.
func (s *Store) Topics() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]any, len(s.topics))
	for k, v := range s.topics {
		out[k] = v
	}
	return out
}

// CategoryLen reports the number of records in a category without
// touching any of them.
func (s *Store) CategoryLen(category Category) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.categorized[normalizeCategory(category)])
}

// Len reports the total number of records across all categories.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, recs := range s.categorized {
		n += len(recs)
	}
	return n
}

// storeDoc is the wire form of the store. The tag index is written for
// fidelity with previously persisted state but is never trusted on load.
type storeDoc struct {
	Preferences    map[string]any         `json:"preferences"`
	CommandHistory []CommandEntry         `json:"command_history"`
	Topics         map[string]any         `json:"topics"`
	LastAccessed   map[string]float64     `json:"last_accessed"`
	Categorized    map[Category][]*Record `json:"categorized_memories"`
	TagIndex       map[string][]*Record   `json:"tag_index"`
}

// MarshalJSON serializes every partition, the flat maps, and the tag
// index.
func (s *Store) MarshalJSON() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return json.Marshal(storeDoc{
		Preferences:    s.preferences,
		CommandHistory: s.commands,
		Topics:         s.topics,
		LastAccessed:   s.lastAccessed,
		Categorized:    s.categorized,
		TagIndex:       s.tagIndex,
	})
}

// UnmarshalJSON restores the store from its wire form. Missing keys
// default to empty containers and invalid categories or priorities are
// coerced, so hand-edited or older state files still load. The tag index
// is rebuilt from the category partitions rather than trusted from the
// document; that repair is what keeps the two views consistent.
func (s *Store) UnmarshalJSON(data []byte) error {
	var doc storeDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.now == nil {
		s.now = time.Now
	}

	s.preferences = doc.Preferences
	if s.preferences == nil {
		s.preferences = make(map[string]any)
	}
	s.topics = doc.Topics
	if s.topics == nil {
		s.topics = make(map[string]any)
	}
	s.lastAccessed = doc.LastAccessed
	if s.lastAccessed == nil {
		s.lastAccessed = make(map[string]float64)
	}
	s.commands = doc.CommandHistory
	if len(s.commands) > maxCommandHistory {
		s.commands = s.commands[len(s.commands)-maxCommandHistory:]
	}

	s.categorized = emptyPartitions()
	for cat, recs := range doc.Categorized {
		cat = normalizeCategory(cat)
		for _, r := range recs {
			if r == nil {
				continue
			}
			r.Category = cat
			r.Priority = normalizePriority(r.Priority)
			r.Tags = normalizeTags(r.Tags)
			s.categorized[cat] = append(s.categorized[cat], r)
		}
	}
	s.rebuildTagIndex()
	return nil
}

// rebuildTagIndex re-derives the tag index from the category partitions.
// Callers hold the lock.
func (s *Store) rebuildTagIndex() {
	s.tagIndex = make(map[string][]*Record)
	for _, recs := range s.categorized {
		for _, r := range recs {
			for _, t := range r.Tags {
				s.tagIndex[t] = append(s.tagIndex[t], r)
			}
		}
	}
}

// commandBase extracts the base program name from a command line, used as
// a tag on command records.
func commandBase(command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return ""
	}
	base := fields[0]
	if i := strings.LastIndex(base, "/"); i >= 0 {
		base = base[i+1:]
	}
	return base
}

func stringify(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case int:
		return strconv.Itoa(x)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(b)
	}
}
