// SPDX-License-Identifier: MPL-2.0

package process

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"strings"
)

type (
	// ExecCommandFunc is the function signature for creating exec.Cmd.
	// This allows injection of mock implementations for testing.
	ExecCommandFunc func(ctx context.Context, name string, arg ...string) *exec.Cmd

	// Invoker executes a program and captures its output.
	Invoker interface {
		Invoke(ctx context.Context, req Request) *Result
	}

	// Request describes a single program invocation.
	Request struct {
		// Name is the program to execute (a binary name or path).
		Name string
		// Args are the arguments passed to the program.
		Args []string
		// TTY attaches a pseudo-terminal to the program's stdin.
		TTY bool
	}

	// Result is the captured outcome of an invocation.
	Result struct {
		// Stdout holds the captured standard output, one entry per line.
		Stdout []string
		// Stderr holds the captured standard error, one entry per line.
		Stderr []string
		// ExitCode is the process exit code, or -1 when the process never ran.
		ExitCode int
		// Err is non-nil when the process could not be started or exited abnormally.
		Err error
	}

	// InvokerOption configures a CLIInvoker.
	InvokerOption func(*CLIInvoker)

	// CLIInvoker runs programs through os/exec.
	CLIInvoker struct {
		execCommand ExecCommandFunc
		openTTY     func() (ptmx, tty *os.File, err error)
		env         []string
	}
)

// ErrNotStarted is returned in Result.Err when the program could not be launched.
var ErrNotStarted = errors.New("process could not be started")

// WithExecCommand sets a custom exec command function for testing.
func WithExecCommand(fn ExecCommandFunc) InvokerOption {
	return func(i *CLIInvoker) {
		i.execCommand = fn
	}
}

// WithEnv appends KEY=VALUE entries to the environment of every invoked program.
func WithEnv(env ...string) InvokerOption {
	return func(i *CLIInvoker) {
		i.env = append(i.env, env...)
	}
}

// NewCLIInvoker creates an invoker backed by exec.CommandContext.
func NewCLIInvoker(opts ...InvokerOption) *CLIInvoker {
	i := &CLIInvoker{
		execCommand: exec.CommandContext,
		openTTY:     openPseudoTerminal,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Invoke runs the requested program to completion.
// It never returns nil; failures are reported through Result.Err.
func (i *CLIInvoker) Invoke(ctx context.Context, req Request) *Result {
	cmd := i.execCommand(ctx, req.Name, req.Args...)
	if len(i.env) > 0 {
		if cmd.Env == nil {
			cmd.Env = os.Environ()
		}
		cmd.Env = append(cmd.Env, i.env...)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if req.TTY {
		ptmx, tty, err := i.openTTY()
		if err != nil {
			return &Result{ExitCode: -1, Err: errors.Join(ErrNotStarted, err)}
		}
		defer ptmx.Close()
		defer tty.Close()
		cmd.Stdin = tty
	}

	err := cmd.Run()
	result := &Result{
		Stdout: SplitLines(stdout.String()),
		Stderr: SplitLines(stderr.String()),
	}
	if err != nil {
		result.Err = err
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		} else {
			result.ExitCode = -1
			result.Err = errors.Join(ErrNotStarted, err)
		}
	}
	return result
}

// Succeeded reports whether the program ran and exited with status zero.
func (r *Result) Succeeded() bool {
	return r.Err == nil
}

// Started reports whether the program was launched at all.
func (r *Result) Started() bool {
	return !errors.Is(r.Err, ErrNotStarted)
}

// HasStderr reports whether anything non-blank was written to stderr.
func (r *Result) HasStderr() bool {
	for _, line := range r.Stderr {
		if strings.TrimSpace(line) != "" {
			return true
		}
	}
	return false
}

// LastStdoutLine returns the final line of stdout, or "" when there was no output.
func (r *Result) LastStdoutLine() string {
	if len(r.Stdout) == 0 {
		return ""
	}
	return r.Stdout[len(r.Stdout)-1]
}

// SplitLines breaks captured output into lines.
// Trailing line terminators are dropped and CRLF endings are normalized,
// so "a\nb\n" yields ["a", "b"] and "" yields nil.
func SplitLines(s string) []string {
	s = strings.TrimRight(s, "\r\n")
	if s == "" {
		return nil
	}
	lines := strings.Split(s, "\n")
	for idx, line := range lines {
		lines[idx] = strings.TrimSuffix(line, "\r")
	}
	return lines
}
