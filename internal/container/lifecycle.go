// SPDX-License-Identifier: MPL-2.0

package container

import (
	"context"
	"strings"
	"time"

	"github.com/dockhand/dockhand/internal/process"
)

// Start materializes the container detached from the current image and environment.
// Interactive allocates stdin and a TTY inside the container.
func (c *Controller) Start(ctx context.Context, interactive bool) error {
	if err := c.probe.ensureReachable(ctx); err != nil {
		return err
	}
	if err := c.ensureAbsent(ctx, "start"); err != nil {
		return err
	}

	args := runArgs(runSpec{
		Name:        c.name,
		Image:       c.image,
		Env:         c.env,
		Detach:      true,
		Interactive: interactive,
		Extra:       c.nested.args(c.env),
	})
	result := c.probe.invokeRequest(ctx, process.Request{Name: c.probe.binary, Args: args, TTY: interactive})
	return c.classify("start", args, result, false)
}

// Run executes command in a new auto-removing container and blocks until it exits.
// The command string is split with shell word rules; a blank command runs the
// image's default command. It returns the captured stdout.
func (c *Controller) Run(ctx context.Context, command string) (string, error) {
	if strings.TrimSpace(command) == "" {
		return c.RunArgs(ctx, nil)
	}
	argv, err := splitCommand(command)
	if err != nil {
		return "", err
	}
	return c.RunArgs(ctx, argv)
}

// RunArgs is Run with a pre-split command. An empty argv runs the image's default command.
func (c *Controller) RunArgs(ctx context.Context, argv []string) (string, error) {
	if err := c.probe.ensureReachable(ctx); err != nil {
		return "", err
	}
	if err := c.ensureAbsent(ctx, "run"); err != nil {
		return "", err
	}

	args := runArgs(runSpec{
		Name:    c.name,
		Image:   c.image,
		Env:     c.env,
		Remove:  true,
		Extra:   c.nested.args(c.env),
		Command: argv,
	})
	result := c.probe.invoke(ctx, args...)
	return joinLines(result.Stdout), c.classify("run", args, result, false)
}

// Stop stops the running container. A zero grace period uses the engine default.
func (c *Controller) Stop(ctx context.Context, grace time.Duration) error {
	if err := c.probe.ensureReachable(ctx); err != nil {
		return err
	}
	if err := c.ensureState(ctx, "stop", StateRunning); err != nil {
		return err
	}

	args := StopArgs(c.name, grace)
	return c.classify("stop", args, c.probe.invoke(ctx, args...), true)
}

// Kill kills the running container without a grace period.
func (c *Controller) Kill(ctx context.Context) error {
	if err := c.probe.ensureReachable(ctx); err != nil {
		return err
	}
	running, err := c.probe.stateFlag(ctx, c.name, runningTemplate)
	if err != nil {
		return err
	}
	if !running {
		return &StateError{Container: c.name, Operation: "kill", Reason: "container is not running"}
	}

	args := KillArgs(c.name)
	return c.classify("kill", args, c.probe.invoke(ctx, args...), false)
}

// Remove deletes the container. A running container is only removed when force is set.
func (c *Controller) Remove(ctx context.Context, force bool) error {
	if err := c.probe.ensureReachable(ctx); err != nil {
		return err
	}
	state, err := c.state(ctx)
	if err != nil {
		return err
	}
	switch {
	case state == StateUnmaterialized:
		return &StateError{Container: c.name, Operation: "remove", Reason: "container does not exist"}
	case state == StateRunning && !force:
		return &StateError{Container: c.name, Operation: "remove", Reason: "container is running; stop it first or force removal"}
	}

	args := RemoveArgs(c.name, force)
	return c.classify("remove", args, c.probe.invoke(ctx, args...), false)
}

// Execute runs command inside the running container and returns its stdout.
// The command string is split with shell word rules.
func (c *Controller) Execute(ctx context.Context, command string) (string, error) {
	argv, err := splitCommand(command)
	if err != nil {
		return "", err
	}
	return c.ExecuteArgs(ctx, argv)
}

// ExecuteArgs is Execute with a pre-split command.
func (c *Controller) ExecuteArgs(ctx context.Context, argv []string) (string, error) {
	if len(argv) == 0 {
		return "", &ConfigError{Field: "command", Reason: "must not be empty"}
	}
	if err := c.probe.ensureReachable(ctx); err != nil {
		return "", err
	}
	running, err := c.probe.stateFlag(ctx, c.name, runningTemplate)
	if err != nil {
		return "", err
	}
	if !running {
		return "", &StateError{Container: c.name, Operation: "execute in", Reason: "container is not running"}
	}

	args := ExecArgs(c.name, argv)
	result := c.probe.invoke(ctx, args...)
	return joinLines(result.Stdout), c.classify("execute", args, result, true)
}

// Logs returns the container's captured stdout, one line per log line.
func (c *Controller) Logs(ctx context.Context) (string, error) {
	if err := c.probe.ensureReachable(ctx); err != nil {
		return "", err
	}
	if err := c.ensureState(ctx, "fetch logs of", StateExists, StateRunning); err != nil {
		return "", err
	}

	args := LogsArgs(c.name)
	result := c.probe.invoke(ctx, args...)
	if err := c.classify("logs", args, result, true); err != nil {
		return "", err
	}
	return joinLines(result.Stdout), nil
}

// ensureAbsent fails with ErrAlreadyExists when the name is taken.
func (c *Controller) ensureAbsent(ctx context.Context, op string) error {
	exists, err := c.probe.objectExists(ctx, c.name)
	if err != nil {
		return err
	}
	if exists {
		return &StateError{Container: c.name, Operation: op, Reason: "a container with this name already exists", Kind: ErrAlreadyExists}
	}
	return nil
}

// ensureState fails with ErrInvalidState unless the current state is one of allowed.
func (c *Controller) ensureState(ctx context.Context, op string, allowed ...State) error {
	state, err := c.state(ctx)
	if err != nil {
		return err
	}
	for _, s := range allowed {
		if state == s {
			return nil
		}
	}
	reason := "container does not exist"
	if state == StateExists {
		reason = "container is not running"
	}
	return &StateError{Container: c.name, Operation: op, Reason: reason}
}

// classify judges an invocation: a failed process always fails, and stderr output
// fails unless tolerable is set and the controller ignores container errors.
func (c *Controller) classify(op string, args []string, result *process.Result, tolerable bool) error {
	fail := func() error {
		return &OperationError{
			Container: c.name,
			Operation: op,
			Args:      c.probe.commandLine(args...),
			ExitCode:  result.ExitCode,
			Stderr:    result.Stderr,
			Cause:     result.Err,
		}
	}

	if !result.Succeeded() {
		return fail()
	}
	if !result.HasStderr() {
		return nil
	}
	if tolerable && c.ignoreErrors {
		c.logger.Warn("ignoring engine stderr", "container", c.name, "op", op, "stderr", strings.Join(result.Stderr, "\n"))
		return nil
	}
	return fail()
}

func splitCommand(command string) ([]string, error) {
	argv, err := process.SplitCommand(command)
	if err != nil {
		return nil, &ConfigError{Field: "command", Value: command, Reason: err.Error()}
	}
	return argv, nil
}

func joinLines(lines []string) string {
	return strings.Join(lines, "\n")
}
