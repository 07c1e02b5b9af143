package memory

import (
	"regexp"
	"strings"
)

// Extractors derive structured facts from raw commands and user
// utterances. They are pure functions; the Manager decides what to do
// with the results.

// editorPrefixes maps a command prefix to the editor it implies.
var editorPrefixes = []string{"vim ", "nano ", "emacs "}

// shellNames are detected as substrings anywhere in the command.
var shellNames = []string{"bash", "zsh", "fish"}

// topicKeywords buckets commands into coarse activity topics.
var topicKeywords = map[string][]string{
	"file_management":    {"ls", "cd", "cp", "mv", "rm", "mkdir", "touch", "find", "chmod", "chown"},
	"networking":         {"ping", "curl", "wget", "ssh", "scp", "netstat", "ifconfig", "dig", "nslookup"},
	"process_management": {"ps", "top", "htop", "kill", "killall", "jobs", "nice"},
}

// languageNames are checked as substrings of the whole command line.
var languageNames = []string{
	"python", "javascript", "typescript", "java", "golang", "rust",
	"ruby", "php", "perl", "swift", "kotlin", "scala", "haskell",
	"lua", "elixir", "clojure",
}

// utterancePatterns map free-form statements to distinct preference keys.
// Every pattern that matches is recorded independently.
var utterancePatterns = []struct {
	re  *regexp.Regexp
	key string
}{
	{regexp.MustCompile(`(?i)\bi prefer ([\w\s.+-]+)`), "stated_preference"},
	{regexp.MustCompile(`(?i)\bi like ([\w\s.+-]+)`), "liked_item"},
	{regexp.MustCompile(`(?i)\bi want ([\w\s.+-]+)`), "wanted_item"},
	{regexp.MustCompile(`(?i)\bi need ([\w\s.+-]+)`), "needed_item"},
	{regexp.MustCompile(`(?i)\bi use ([\w\s.+-]+)`), "used_tool"},
}

var positiveWords = []string{"thanks", "thank you", "great", "good", "perfect", "awesome", "nice"}
var negativeWords = []string{"wrong", "bad", "error", "broken", "useless", "slow", "terrible"}

var interrogatives = []string{"what", "how", "why", "when", "where", "who", "which", "can", "could", "would", "should", "is", "are", "do", "does"}

// ExtractPreferences derives preference key/value pairs from a raw
// command line: editor from known prefixes, shell from substring match,
// and a verbosity flag from -v/--verbose.
func ExtractPreferences(command string) map[string]any {
	prefs := make(map[string]any)
	for _, p := range editorPrefixes {
		if strings.HasPrefix(command, p) {
			prefs["preferred_editor"] = strings.TrimSpace(strings.TrimSuffix(p, " "))
			break
		}
	}
	for _, sh := range shellNames {
		if strings.Contains(command, sh) {
			prefs["preferred_shell"] = sh
			break
		}
	}
	for _, f := range strings.Fields(command) {
		if f == "-v" || f == "--verbose" {
			prefs["prefers_verbose"] = true
			break
		}
	}
	return prefs
}

// ExtractTopics derives coarse topics from a raw command line: activity
// buckets keyed off the base command, plus any programming language
// named anywhere in the line.
func ExtractTopics(command string) []string {
	var topics []string
	base := commandBase(command)
	for topic, keywords := range topicKeywords {
		for _, kw := range keywords {
			if base == kw {
				topics = append(topics, topic)
				break
			}
		}
	}
	lower := strings.ToLower(command)
	for _, lang := range languageNames {
		if strings.Contains(lower, lang) {
			topics = append(topics, lang)
		}
	}
	return normalizeTags(topics)
}

// ExtractUtterancePreferences scans free-form user text for statements of
// preference. Multiple matches in one utterance all persist, each under
// its own key.
func ExtractUtterancePreferences(text string) map[string]string {
	prefs := make(map[string]string)
	for _, p := range utterancePatterns {
		if m := p.re.FindStringSubmatch(text); m != nil {
			prefs[p.key] = strings.TrimSpace(m[1])
		}
	}
	return prefs
}

// UtteranceTags classifies free-form text with sentiment and question
// tags for the general-memory record.
func UtteranceTags(text string) []string {
	var tags []string
	lower := strings.ToLower(text)
	for _, w := range positiveWords {
		if strings.Contains(lower, w) {
			tags = append(tags, "positive_sentiment")
			break
		}
	}
	for _, w := range negativeWords {
		if strings.Contains(lower, w) {
			tags = append(tags, "negative_sentiment")
			break
		}
	}
	if isQuestion(lower) {
		tags = append(tags, "question")
	}
	return tags
}

func isQuestion(lower string) bool {
	if strings.Contains(lower, "?") {
		return true
	}
	fields := strings.Fields(lower)
	if len(fields) == 0 {
		return false
	}
	for _, w := range interrogatives {
		if fields[0] == w {
			return true
		}
	}
	return false
}
