package ui

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/sujin-ai/sujin/internal/executor"
)

func TestUserLine(t *testing.T) {
	var buf bytes.Buffer
	f := NewFormatter(&buf)
	f.User("hello there")
	if !strings.Contains(buf.String(), "hello there") {
		t.Errorf("user text missing: %q", buf.String())
	}
}

func TestAssistantFallsBackToPlainText(t *testing.T) {
	var buf bytes.Buffer
	f := NewFormatter(&buf)
	f.renderer = nil

	f.Assistant("plain reply")
	if !strings.Contains(buf.String(), "plain reply") {
		t.Errorf("assistant text missing: %q", buf.String())
	}
}

func TestCommandShowsRisk(t *testing.T) {
	var buf bytes.Buffer
	f := NewFormatter(&buf)
	f.Command("rm -rf ./build")
	out := buf.String()
	if !strings.Contains(out, "rm -rf ./build") || !strings.Contains(out, "high") {
		t.Errorf("command line = %q", out)
	}
}

func TestCommandResultFailure(t *testing.T) {
	var buf bytes.Buffer
	f := NewFormatter(&buf)
	f.CommandResult(&executor.Result{Command: "make", Output: "no rule\n", ExitCode: 2})
	out := buf.String()
	if !strings.Contains(out, "no rule") || !strings.Contains(out, "exit code 2") {
		t.Errorf("failure output = %q", out)
	}
}

func TestErrorLine(t *testing.T) {
	var buf bytes.Buffer
	f := NewFormatter(&buf)
	f.Error(errors.New("boom"))
	if !strings.Contains(buf.String(), "boom") {
		t.Errorf("error text missing: %q", buf.String())
	}
}
