package executor

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Rule blocks commands either by prefix or by regular expression.
type Rule struct {
	Name        string
	Pattern     string
	IsRegex     bool
	Description string

	re *regexp.Regexp
}

func (r *Rule) matches(command string) bool {
	if r.IsRegex {
		if r.re == nil {
			r.re = regexp.MustCompile(r.Pattern)
		}
		return r.re.MatchString(command)
	}
	return strings.HasPrefix(command, r.Pattern) || strings.Contains(command, " "+r.Pattern)
}

// Policy decides which commands the assistant may run. It denies known
// destructive patterns, restricts sensitive paths, and caps command
// length; everything else passes.
type Policy struct {
	Denied            []Rule
	RestrictedPaths   []string
	MaxCommandLength  int
	AllowFileDeletion bool
	AllowNetwork      bool
}

// DefaultPolicy blocks the classic foot-guns and fences off system
// directories.
func DefaultPolicy() *Policy {
	return &Policy{
		Denied: []Rule{
			{Name: "recursive-root-delete", Pattern: `rm\s+(-[a-z]*\s+)*(-rf?|-fr?)\s+/(\s|$)`, IsRegex: true, Description: "recursive delete of the filesystem root"},
			{Name: "mkfs", Pattern: "mkfs", Description: "formatting a filesystem"},
			{Name: "raw-disk-write", Pattern: `dd\s+.*of=/dev/`, IsRegex: true, Description: "writing directly to a block device"},
			{Name: "fork-bomb", Pattern: `:\(\)\s*{\s*:\|:&\s*}\s*;\s*:`, IsRegex: true, Description: "fork bomb"},
			{Name: "shutdown", Pattern: "shutdown", Description: "shutting the machine down"},
			{Name: "reboot", Pattern: "reboot", Description: "rebooting the machine"},
			{Name: "halt", Pattern: "halt", Description: "halting the machine"},
			{Name: "world-writable-root", Pattern: `chmod\s+(-[a-zA-Z]+\s+)*777\s+/(\s|$)`, IsRegex: true, Description: "making the filesystem root world-writable"},
		},
		RestrictedPaths:  []string{"/etc/**", "/boot/**", "/dev/**", "/sys/**", "/proc/**"},
		MaxCommandLength: 1000,
	}
}

var fileDeletionRe = regexp.MustCompile(`(^|\s|;|&&|\|\|)\s*(rm|rmdir|unlink|shred)\s`)

var networkCommands = map[string]bool{
	"curl": true, "wget": true, "ssh": true, "scp": true, "ftp": true,
	"nc": true, "netcat": true, "telnet": true, "rsync": true,
}

// Validate reports why a command is rejected, or nil when it may run.
func (p *Policy) Validate(command string) error {
	command = Sanitize(command)
	if command == "" {
		return fmt.Errorf("empty command")
	}
	if p.MaxCommandLength > 0 && len(command) > p.MaxCommandLength {
		return fmt.Errorf("command exceeds maximum length of %d characters", p.MaxCommandLength)
	}

	for i := range p.Denied {
		if p.Denied[i].matches(command) {
			return fmt.Errorf("blocked by rule %q: %s", p.Denied[i].Name, p.Denied[i].Description)
		}
	}

	if !p.AllowFileDeletion && fileDeletionRe.MatchString(command) {
		return fmt.Errorf("file deletion is disabled; enable security.allow_file_deletion to permit it")
	}
	if !p.AllowNetwork {
		if base := BaseCommand(command); networkCommands[base] {
			return fmt.Errorf("network command %q is disabled; enable security.allow_network to permit it", base)
		}
	}

	for _, token := range strings.Fields(command) {
		if !strings.HasPrefix(token, "/") {
			continue
		}
		for _, pattern := range p.RestrictedPaths {
			ok, err := doublestar.Match(pattern, token)
			if err == nil && ok {
				return fmt.Errorf("path %q is restricted", token)
			}
		}
	}
	return nil
}

// Sanitize strips control characters and surrounding whitespace.
func Sanitize(command string) string {
	var b strings.Builder
	for _, r := range command {
		if r == '\n' || r == '\t' || r >= 0x20 {
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

// BaseCommand extracts the program name from a command line, skipping
// env-var assignments and path prefixes.
func BaseCommand(command string) string {
	for _, p := range strings.Fields(command) {
		if strings.Contains(p, "=") {
			continue
		}
		if idx := strings.LastIndex(p, "/"); idx >= 0 {
			p = p[idx+1:]
		}
		return p
	}
	return ""
}

// RiskLevel grades a command for display purposes; it is advisory only
// and never blocks anything.
func RiskLevel(command string) string {
	high := []string{"rm -rf", "rm -fr", "dd ", "mkfs", "fdisk", "shutdown", "reboot", "mv /", "> /dev/"}
	for _, p := range high {
		if strings.Contains(command, p) {
			return "high"
		}
	}
	medium := map[string]bool{
		"rm": true, "rmdir": true, "mv": true, "chmod": true, "chown": true,
		"kill": true, "killall": true, "truncate": true,
	}
	if medium[BaseCommand(command)] {
		return "medium"
	}
	return "low"
}
