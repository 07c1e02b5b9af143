package executor

import (
	"context"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/creack/pty"
)

// Result captures one command run. Output is the combined pty stream,
// so stdout and stderr arrive interleaved the way a terminal shows them.
type Result struct {
	Command  string
	Output   string
	ExitCode int
	Err      string
	Duration time.Duration
}

func (r Result) Success() bool { return r.ExitCode == 0 && r.Err == "" }

// Executor runs shell commands behind the security policy. Commands run
// under a pty so interactive programs behave as they would in a real
// terminal.
type Executor struct {
	shell   string
	timeout time.Duration
	policy  *Policy
	log     *slog.Logger
}

func New(shell string, timeout time.Duration, policy *Policy, log *slog.Logger) *Executor {
	if shell == "" {
		shell = "/bin/bash"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if policy == nil {
		policy = DefaultPolicy()
	}
	if log == nil {
		log = slog.Default()
	}
	return &Executor{shell: shell, timeout: timeout, policy: policy, log: log}
}

// Policy exposes the active security policy.
func (e *Executor) Policy() *Policy { return e.policy }

// Run validates and executes a command, returning its combined output.
// Policy rejections come back as an error with a zero-valued Result;
// execution failures are reported inside the Result.
func (e *Executor) Run(ctx context.Context, command string) (Result, error) {
	command = Sanitize(command)
	if err := e.policy.Validate(command); err != nil {
		e.log.Warn("command rejected", "command", command, "reason", err)
		return Result{Command: command}, err
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	start := time.Now()
	cmd := exec.CommandContext(ctx, e.shell, "-c", command)

	ptmx, err := pty.Start(cmd)
	if err != nil {
		return Result{Command: command, ExitCode: -1, Err: "failed to start pty: " + err.Error()}, nil
	}
	defer func() { _ = ptmx.Close() }()

	var outputBuf strings.Builder
	buf := make([]byte, 1024)
	for {
		n, err := ptmx.Read(buf)
		if n > 0 {
			outputBuf.Write(buf[:n])
		}
		if err != nil {
			if err == io.EOF {
				break
			}
			// Linux PTY returns EIO when the child side closes (success)
			if strings.Contains(err.Error(), "input/output error") {
				break
			}
			return Result{
				Command:  command,
				Output:   outputBuf.String(),
				ExitCode: -1,
				Err:      err.Error(),
				Duration: time.Since(start),
			}, nil
		}
	}

	res := Result{
		Command:  command,
		Output:   outputBuf.String(),
		Duration: time.Since(start),
	}
	if err := cmd.Wait(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			res.ExitCode = exitErr.ExitCode()
		} else {
			res.ExitCode = -1
			res.Err = err.Error()
		}
		if ctx.Err() == context.DeadlineExceeded {
			res.Err = "command timed out after " + e.timeout.String()
		}
	}

	e.log.Debug("command executed",
		"command", command, "exit_code", res.ExitCode, "duration", res.Duration)
	return res, nil
}
