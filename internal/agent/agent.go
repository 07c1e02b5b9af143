package agent

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"

	"github.com/sujin-ai/sujin/internal/executor"
	"github.com/sujin-ai/sujin/internal/provider"
)

// historyWindow is how many prior messages accompany each request.
const historyWindow = 20

// TurnResult is everything one user turn produced.
type TurnResult struct {
	Reply         string
	Command       string
	Executed      bool
	CommandResult *executor.Result
	Analysis      string
}

// Agent ties the provider, the executor, and the persisted state into
// the blocking request/response loop. One turn at a time; no
// concurrency.
type Agent struct {
	provider provider.Provider
	executor *executor.Executor
	state    *State
	log      *slog.Logger

	// Confirm is asked before any extracted command runs. Nil disables
	// execution entirely.
	Confirm func(command string) bool
}

func New(p provider.Provider, ex *executor.Executor, st *State, log *slog.Logger) *Agent {
	if log == nil {
		log = slog.Default()
	}
	return &Agent{provider: p, executor: ex, state: st, log: log}
}

// State exposes the agent's persisted state.
func (a *Agent) State() *State { return a.state }

// ProcessInput runs one full turn: memorize the input, ask the model,
// and if the reply proposes a command and the user confirms, execute it,
// memorize the outcome, and ask the model to interpret the output.
func (a *Agent) ProcessInput(ctx context.Context, input string) (*TurnResult, error) {
	a.state.Memory.RecordUtterance(input)

	msgs := a.buildMessages(input)
	a.state.Conversation.Add(provider.RoleUser, input)

	resp, err := a.provider.Chat(ctx, msgs)
	if err != nil {
		return nil, fmt.Errorf("model request failed: %w", err)
	}
	a.state.Conversation.Add(provider.RoleAssistant, resp.Content)
	a.log.Debug("model reply",
		"model", resp.Model, "input_tokens", resp.InputTokens, "output_tokens", resp.OutputTokens)

	result := &TurnResult{Reply: resp.Content}

	command := ExtractCommand(resp.Content)
	if command == "" || a.Confirm == nil || !a.Confirm(command) {
		return result, nil
	}
	result.Command = command

	res, err := a.executor.Run(ctx, command)
	if err != nil {
		// Policy rejection: remember the refusal, don't fail the turn.
		a.state.Memory.RecordCommand(command, err.Error(), false)
		result.Analysis = "Command not executed: " + err.Error()
		return result, nil
	}
	result.Executed = true
	result.CommandResult = &res
	a.state.Memory.RecordCommand(command, res.Output, res.Success())

	result.Analysis = a.analyzeOutput(ctx, res)
	return result, nil
}

// buildMessages assembles system prompt, rolling history, and the new
// user input.
func (a *Agent) buildMessages(input string) []provider.Message {
	system := SystemPrompt(
		a.state.WorkingDirectory,
		os.Getenv("USER"),
		runtime.GOOS,
		a.state.Memory.MemoryContext(),
		a.state.Memory.FeedbackContext(),
	)

	msgs := []provider.Message{{Role: provider.RoleSystem, Content: system}}
	for _, m := range a.state.Conversation.Recent(historyWindow) {
		msgs = append(msgs, provider.Message{Role: m.Role, Content: m.Content})
	}
	msgs = append(msgs, provider.Message{Role: provider.RoleUser, Content: input})
	return msgs
}

// analyzeOutput asks the model for a short interpretation of a command
// result. Analysis failures degrade to silence rather than failing the
// turn.
func (a *Agent) analyzeOutput(ctx context.Context, res executor.Result) string {
	prompt := AnalysisPrompt(res.Command, res.Output, res.ExitCode)
	resp, err := a.provider.Chat(ctx, []provider.Message{
		{Role: provider.RoleUser, Content: prompt},
	})
	if err != nil {
		a.log.Warn("output analysis failed", "error", err)
		return ""
	}
	a.state.Conversation.Add(provider.RoleAssistant, resp.Content)
	return resp.Content
}
