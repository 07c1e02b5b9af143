package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/sujin-ai/sujin/internal/executor"
)

// Formatter renders agent output for the terminal. Assistant markdown
// goes through glamour; everything else is lipgloss-styled plain text.
type Formatter struct {
	w        io.Writer
	renderer *glamour.TermRenderer
}

func NewFormatter(w io.Writer) *Formatter {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		renderer = nil
	}
	return &Formatter{w: w, renderer: renderer}
}

// Welcome prints the banner and a short hint block.
func (f *Formatter) Welcome(providerName, model string) {
	fmt.Fprintln(f.w, BannerStyle.Render(Banner))
	fmt.Fprintln(f.w, SystemStyle.Render(fmt.Sprintf("  %s / %s", providerName, model)))
	fmt.Fprintln(f.w, HelpStyle.Render("  Type a request, 'helpful'/'unhelpful' to rate replies, 'stats' for feedback stats, 'exit' to quit."))
	fmt.Fprintln(f.w)
}

// User echoes the user's input with its label.
func (f *Formatter) User(text string) {
	fmt.Fprintln(f.w, UserLabelStyle.Render("you ")+UserMsgStyle.Render(text))
}

// Assistant renders a model reply as markdown, falling back to plain
// text when the renderer is unavailable.
func (f *Formatter) Assistant(text string) {
	fmt.Fprintln(f.w, AssistantLabelStyle.Render("sujin"))
	if f.renderer != nil {
		if out, err := f.renderer.Render(text); err == nil {
			fmt.Fprint(f.w, out)
			return
		}
	}
	fmt.Fprintln(f.w, AssistantMsgStyle.Render(text))
}

// Command shows a command about to run, with its advisory risk level.
func (f *Formatter) Command(command string) {
	level := executor.RiskLevel(command)
	var badge string
	switch level {
	case "high":
		badge = RiskHighStyle.Render("[" + level + "]")
	case "medium":
		badge = RiskMediumStyle.Render("[" + level + "]")
	default:
		badge = RiskLowStyle.Render("[" + level + "]")
	}
	fmt.Fprintln(f.w, CommandStyle.Render("$ "+command)+" "+badge)
}

// CommandResult shows an execution outcome.
func (f *Formatter) CommandResult(res *executor.Result) {
	output := strings.TrimRight(res.Output, "\n")
	if output != "" {
		fmt.Fprintln(f.w, CommandOutputStyle.Render(output))
	}
	if !res.Success() {
		reason := res.Err
		if reason == "" {
			reason = fmt.Sprintf("exit code %d", res.ExitCode)
		}
		fmt.Fprintln(f.w, ErrorStyle.Render("command failed: "+reason))
	}
}

// Confirm renders the yes/no question shown before running a command.
func (f *Formatter) Confirm(command string) string {
	return ConfirmStyle.Render(fmt.Sprintf("Run '%s'? [y/N] ", command))
}

// System prints an informational notice.
func (f *Formatter) System(text string) {
	fmt.Fprintln(f.w, SystemStyle.Render(text))
}

// Error prints an error line.
func (f *Formatter) Error(err error) {
	fmt.Fprintln(f.w, ErrorStyle.Render("error: "+err.Error()))
}

// Separator prints a horizontal rule.
func (f *Formatter) Separator() {
	fmt.Fprintln(f.w, SeparatorStyle.Render(strings.Repeat("─", 60)))
}
