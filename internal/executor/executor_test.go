package executor

import (
	"context"
	"strings"
	"testing"
	"time"
)

func testExecutor(t *testing.T) *Executor {
	t.Helper()
	p := DefaultPolicy()
	p.AllowFileDeletion = true
	return New("/bin/bash", 10*time.Second, p, nil)
}

func TestRunCapturesOutput(t *testing.T) {
	e := testExecutor(t)

	res, err := e.Run(context.Background(), "echo hello")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !res.Success() {
		t.Errorf("exit code = %d, err = %q", res.ExitCode, res.Err)
	}
	if !strings.Contains(res.Output, "hello") {
		t.Errorf("output = %q", res.Output)
	}
}

func TestRunReportsExitCode(t *testing.T) {
	e := testExecutor(t)

	res, err := e.Run(context.Background(), "exit 3")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.ExitCode != 3 {
		t.Errorf("exit code = %d, want 3", res.ExitCode)
	}
	if res.Success() {
		t.Errorf("non-zero exit must not be success")
	}
}

func TestRunRejectsBlockedCommand(t *testing.T) {
	e := testExecutor(t)

	if _, err := e.Run(context.Background(), "shutdown -h now"); err == nil {
		t.Fatalf("policy rejection must surface as an error")
	}
}

func TestRunTimeout(t *testing.T) {
	p := DefaultPolicy()
	e := New("/bin/bash", 1*time.Second, p, nil)

	res, err := e.Run(context.Background(), "sleep 5")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Err == "" {
		t.Errorf("timed-out command must report an error, got %+v", res)
	}
}
