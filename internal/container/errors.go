// SPDX-License-Identifier: MPL-2.0

package container

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidConfiguration is returned for bad names, images, commands, or environment keys.
	ErrInvalidConfiguration = errors.New("invalid container configuration")

	// ErrDuplicateKey is returned when adding an environment variable that is already set.
	// Errors wrapping it also match ErrInvalidConfiguration.
	ErrDuplicateKey = errors.New("environment variable already defined")

	// ErrUnknownKey is returned when overwriting an environment variable that was never added.
	// Errors wrapping it also match ErrInvalidConfiguration.
	ErrUnknownKey = errors.New("environment variable not defined")

	// ErrInvalidState is returned when an operation does not fit the container's current lifecycle state.
	ErrInvalidState = errors.New("invalid container state")

	// ErrAlreadyExists is returned when materializing a container whose name is taken.
	// Errors wrapping it also match ErrInvalidState.
	ErrAlreadyExists = errors.New("container already exists")

	// ErrEngineUnavailable is returned when the engine daemon cannot be reached.
	ErrEngineUnavailable = errors.New("container engine unavailable")

	// ErrEngineOperationFailed is returned when the engine reported a failure for an invocation.
	ErrEngineOperationFailed = errors.New("container engine operation failed")
)

type (
	// ConfigError describes a rejected configuration value.
	ConfigError struct {
		// Field names what was rejected ("name", "image", "env", "command").
		Field  string
		Value  string
		Reason string
		// Kind is ErrDuplicateKey, ErrUnknownKey, or nil.
		Kind error
	}

	// StateError describes an operation attempted in the wrong lifecycle state.
	StateError struct {
		Container string
		Operation string
		Reason    string
		// Kind is ErrAlreadyExists or nil.
		Kind error
	}

	// EngineUnavailableError is returned when the engine daemon is unreachable.
	EngineUnavailableError struct {
		Engine EngineType
	}

	// OperationError describes an engine invocation that was judged to have failed.
	OperationError struct {
		Container string
		Operation string
		// Args is the full command line, binary included.
		Args     []string
		ExitCode int
		Stderr   []string
		// Cause is the error reported by the process layer, if the process itself failed.
		Cause error
	}
)

func (e *ConfigError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

func (e *ConfigError) Unwrap() []error {
	if e.Kind != nil {
		return []error{ErrInvalidConfiguration, e.Kind}
	}
	return []error{ErrInvalidConfiguration}
}

func (e *StateError) Error() string {
	return fmt.Sprintf("cannot %s container %q: %s", e.Operation, e.Container, e.Reason)
}

func (e *StateError) Unwrap() []error {
	if e.Kind != nil {
		return []error{ErrInvalidState, e.Kind}
	}
	return []error{ErrInvalidState}
}

func (e *EngineUnavailableError) Error() string {
	return fmt.Sprintf("container engine '%s' is not reachable", e.Engine)
}

func (e *EngineUnavailableError) Unwrap() error { return ErrEngineUnavailable }

func (e *OperationError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %q failed", e.Operation, e.Container)
	if e.ExitCode != 0 {
		fmt.Fprintf(&b, " (exit code %d)", e.ExitCode)
	}
	if msg := strings.TrimSpace(strings.Join(e.Stderr, "\n")); msg != "" {
		fmt.Fprintf(&b, ": %s", msg)
	} else if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}
	return b.String()
}

func (e *OperationError) Unwrap() []error {
	if e.Cause != nil {
		return []error{ErrEngineOperationFailed, e.Cause}
	}
	return []error{ErrEngineOperationFailed}
}

// CommandLine returns the failed invocation as a single string.
func (e *OperationError) CommandLine() string {
	return strings.Join(e.Args, " ")
}
