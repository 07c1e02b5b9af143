package agent

import (
	"regexp"
	"strings"
)

// CodeBlock is one fenced block extracted from a model reply.
type CodeBlock struct {
	Lang string
	Code string
}

var fenceRe = regexp.MustCompile("(?s)```([a-zA-Z0-9_+-]*)\n(.*?)```")

// Some models wrap commands in their own tool tags instead of fences.
var toolTagRe = regexp.MustCompile(`(?s)<\|python_start\|>(.*?)<\|python_end\|>`)

// ExtractCodeBlocks returns every fenced code block in the reply, in
// order.
func ExtractCodeBlocks(text string) []CodeBlock {
	var blocks []CodeBlock
	for _, m := range fenceRe.FindAllStringSubmatch(text, -1) {
		blocks = append(blocks, CodeBlock{
			Lang: strings.ToLower(strings.TrimSpace(m[1])),
			Code: strings.TrimSpace(m[2]),
		})
	}
	for _, m := range toolTagRe.FindAllStringSubmatch(text, -1) {
		blocks = append(blocks, CodeBlock{Lang: "bash", Code: strings.TrimSpace(m[1])})
	}
	return blocks
}

// ExtractCommand pulls the first shell command proposed in a reply: the
// first bash/sh fenced block, or a bare fenced block that looks like a
// command rather than pasted output.
func ExtractCommand(text string) string {
	for _, b := range ExtractCodeBlocks(text) {
		switch b.Lang {
		case "bash", "sh", "shell", "zsh", "console":
			return firstCommandLine(b.Code)
		case "":
			if line := firstCommandLine(b.Code); line != "" && !IsLikelyCommandOutput(b.Code) {
				return line
			}
		}
	}
	return ""
}

// firstCommandLine returns the first non-comment line, stripping a
// leading shell prompt marker if present.
func firstCommandLine(code string) string {
	for _, line := range strings.Split(code, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "$ ")
		return line
	}
	return ""
}

var outputMarkers = []string{
	"total ", "drwx", "-rw-", "error:", "warning:", "traceback",
	"permission denied", "no such file", "command not found",
}

// IsLikelyCommandOutput guesses whether text is pasted program output
// rather than a command to run.
func IsLikelyCommandOutput(text string) bool {
	lower := strings.ToLower(text)
	for _, m := range outputMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	// Many short lines with no shell operators reads like output.
	lines := strings.Split(strings.TrimSpace(text), "\n")
	if len(lines) > 5 && !strings.ContainsAny(text, "|&;$") {
		return true
	}
	return false
}

var unsafePhrases = []string{
	"not safe", "unsafe", "dangerous", "destructive", "do not run",
	"don't run", "should not be executed", "harmful",
}

// ParseSafetyAssessment reads a model's judgment of a command. Anything
// that mentions danger counts as unsafe; only a clearly positive
// verdict passes.
func ParseSafetyAssessment(text string) bool {
	lower := strings.ToLower(text)
	for _, p := range unsafePhrases {
		if strings.Contains(lower, p) {
			return false
		}
	}
	return strings.Contains(lower, "safe")
}

// StripCodeBlocks removes fenced blocks, leaving the prose around them.
func StripCodeBlocks(text string) string {
	text = fenceRe.ReplaceAllString(text, "")
	text = toolTagRe.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}
