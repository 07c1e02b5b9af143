package agent

import (
	"strings"
	"text/template"
)

// promptData feeds the system prompt template.
type promptData struct {
	WorkingDirectory string
	User             string
	OS               string
	MemoryContext    string
	FeedbackContext  string
}

var systemTmpl = template.Must(template.New("system").Parse(`You are Sujin, a personal command-line assistant. You help the user get things done in their terminal: answering questions, writing and explaining shell commands, and executing commands on their behalf when asked.

Environment:
- Working directory: {{.WorkingDirectory}}
- User: {{.User}}
- OS: {{.OS}}

When the user asks you to do something that requires running a command, reply with a short explanation and put the exact command in a fenced code block marked with bash. Propose one command at a time. Never propose destructive commands without an explicit warning.
{{- if .MemoryContext}}

What you remember about this user:

{{.MemoryContext}}
{{- end}}
{{- if .FeedbackContext}}

How the user has rated your help so far:

{{.FeedbackContext}}
{{- end}}`))

var analysisTmpl = template.Must(template.New("analysis").Parse(`The command below was just executed. Summarize the outcome for the user in one or two sentences. If it failed, say what likely went wrong and suggest a fix.

Command: {{.Command}}
Exit code: {{.ExitCode}}
Output:
{{.Output}}`))

var errorTmpl = template.Must(template.New("error").Parse(`The command {{.Command}} failed with this error:

{{.Error}}

Explain the error briefly and suggest how to fix it.`))

func renderTemplate(t *template.Template, data any) string {
	var b strings.Builder
	if err := t.Execute(&b, data); err != nil {
		return ""
	}
	return b.String()
}

// SystemPrompt renders the Sujin persona plus memory and feedback
// context for one turn.
func SystemPrompt(workdir, user, osName, memoryCtx, feedbackCtx string) string {
	return renderTemplate(systemTmpl, promptData{
		WorkingDirectory: workdir,
		User:             user,
		OS:               osName,
		MemoryContext:    memoryCtx,
		FeedbackContext:  feedbackCtx,
	})
}

// AnalysisPrompt asks the model to interpret a command's output.
func AnalysisPrompt(command, output string, exitCode int) string {
	const maxOutput = 4000
	if len(output) > maxOutput {
		output = output[:maxOutput] + "\n[output truncated]"
	}
	return renderTemplate(analysisTmpl, struct {
		Command  string
		ExitCode int
		Output   string
	}{command, exitCode, output})
}

// ErrorPrompt asks the model to explain a failed command.
func ErrorPrompt(command, errText string) string {
	return renderTemplate(errorTmpl, struct {
		Command string
		Error   string
	}{command, errText})
}
