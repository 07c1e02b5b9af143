package agent

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sujin-ai/sujin/internal/executor"
	"github.com/sujin-ai/sujin/internal/memory"
	"github.com/sujin-ai/sujin/internal/provider"
)

// scriptedProvider returns canned replies in order.
type scriptedProvider struct {
	replies []string
	calls   int
	lastMsg []provider.Message
}

func (s *scriptedProvider) Name() string      { return "scripted" }
func (s *scriptedProvider) ModelName() string { return "scripted-model" }

func (s *scriptedProvider) Chat(ctx context.Context, msgs []provider.Message) (*provider.Response, error) {
	s.lastMsg = msgs
	reply := s.replies[len(s.replies)-1]
	if s.calls < len(s.replies) {
		reply = s.replies[s.calls]
	}
	s.calls++
	return &provider.Response{Content: reply, Model: "scripted-model"}, nil
}

func testAgent(t *testing.T, replies ...string) (*Agent, *scriptedProvider) {
	t.Helper()
	p := &scriptedProvider{replies: replies}
	pol := executor.DefaultPolicy()
	pol.AllowFileDeletion = true
	ex := executor.New("/bin/bash", 10*time.Second, pol, nil)
	a := New(p, ex, NewState(t.TempDir()), nil)
	return a, p
}

func TestProcessInputPlainReply(t *testing.T) {
	a, p := testAgent(t, "Nothing to run, you're all set.")

	res, err := a.ProcessInput(context.Background(), "am I done?")
	require.NoError(t, err)
	assert.Equal(t, "Nothing to run, you're all set.", res.Reply)
	assert.Empty(t, res.Command)
	assert.False(t, res.Executed)

	// System prompt goes first, user input last.
	require.GreaterOrEqual(t, len(p.lastMsg), 2)
	assert.Equal(t, provider.RoleSystem, p.lastMsg[0].Role)
	assert.Contains(t, p.lastMsg[0].Content, "Sujin")
	assert.Equal(t, "am I done?", p.lastMsg[len(p.lastMsg)-1].Content)

	// Both turns land in the conversation.
	assert.Len(t, a.State().Conversation.Messages, 2)
}

func TestProcessInputExecutesConfirmedCommand(t *testing.T) {
	a, p := testAgent(t,
		"Let's check:\n```bash\necho hello\n```",
		"The command printed hello.",
	)
	a.Confirm = func(string) bool { return true }

	res, err := a.ProcessInput(context.Background(), "say hello for me please")
	require.NoError(t, err)
	assert.Equal(t, "echo hello", res.Command)
	assert.True(t, res.Executed)
	require.NotNil(t, res.CommandResult)
	assert.Contains(t, res.CommandResult.Output, "hello")
	assert.Equal(t, "The command printed hello.", res.Analysis)
	assert.Equal(t, 2, p.calls)

	// The executed command is memorized.
	cmds := a.State().Memory.Store().RecentCommands(1)
	require.Len(t, cmds, 1)
	assert.Equal(t, "echo hello", cmds[0].Command)
}

func TestProcessInputDeclinedCommand(t *testing.T) {
	a, p := testAgent(t, "Run:\n```bash\necho hi\n```")
	a.Confirm = func(string) bool { return false }

	res, err := a.ProcessInput(context.Background(), "greet me please")
	require.NoError(t, err)
	assert.False(t, res.Executed)
	assert.Nil(t, res.CommandResult)
	assert.Equal(t, 1, p.calls, "no analysis call for a declined command")
}

func TestProcessInputBlockedCommand(t *testing.T) {
	a, _ := testAgent(t, "Sure:\n```bash\nshutdown -h now\n```")
	a.Confirm = func(string) bool { return true }

	res, err := a.ProcessInput(context.Background(), "turn the machine off")
	require.NoError(t, err, "policy rejection must not fail the turn")
	assert.False(t, res.Executed)
	assert.Contains(t, res.Analysis, "not executed")

	// The refusal is memorized as a failed command.
	recs := a.State().Memory.Store().ByTags([]string{"failure"}, false, 0)
	assert.NotEmpty(t, recs)
}

func TestProcessInputMemorizesPreferences(t *testing.T) {
	a, _ := testAgent(t, "Noted.")

	_, err := a.ProcessInput(context.Background(), "I prefer short answers")
	require.NoError(t, err)
	assert.NotEmpty(t, a.State().Memory.Store().Preferences()["stated_preference"])
}

func TestSystemPromptCarriesMemory(t *testing.T) {
	a, p := testAgent(t, "ok")
	a.State().Memory.Store().AddPreference("preferred_editor", "vim")

	_, err := a.ProcessInput(context.Background(), "open my config")
	require.NoError(t, err)
	assert.Contains(t, p.lastMsg[0].Content, "preferred_editor: vim")
}

func TestHandleFeedbackCommand(t *testing.T) {
	a, _ := testAgent(t, "unused")

	reply, handled := a.HandleFeedbackCommand("helpful")
	assert.True(t, handled)
	assert.NotEmpty(t, reply)

	reply, handled = a.HandleFeedbackCommand("feedback negative too slow")
	assert.True(t, handled)
	assert.NotEmpty(t, reply)

	stats := a.State().Memory.Feedback().Stats(memory.FeedbackResponse)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.Negative)

	statsReply, handled := a.HandleFeedbackCommand("stats")
	assert.True(t, handled)
	assert.Contains(t, statsReply, "2 total")

	_, handled = a.HandleFeedbackCommand("what's the weather")
	assert.False(t, handled)
}

func TestPrompts(t *testing.T) {
	sys := SystemPrompt("/work", "sam", "linux", "", "")
	assert.Contains(t, sys, "Sujin")
	assert.Contains(t, sys, "/work")
	assert.NotContains(t, sys, "What you remember", "empty memory must add no section")

	sys = SystemPrompt("/work", "sam", "linux", "User preferences:\n  preferred_editor: vim", "")
	assert.Contains(t, sys, "preferred_editor: vim")

	analysis := AnalysisPrompt("ls", strings.Repeat("x", 5000), 0)
	assert.Contains(t, analysis, "[output truncated]")

	errPrompt := ErrorPrompt("make", "missing target")
	assert.Contains(t, errPrompt, "missing target")
}
