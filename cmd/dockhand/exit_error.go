// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"

	"github.com/dockhand/dockhand/internal/config"
	"github.com/dockhand/dockhand/internal/container"
)

// Process exit codes.
const (
	ExitGeneric           = 1
	ExitInvalidConfig     = 2
	ExitInvalidState      = 3
	ExitEngineUnavailable = 4
	ExitOperationFailed   = 5
)

// ExitError signals a non-zero exit code without forcing os.Exit in RunE handlers.
type ExitError struct {
	Code int
	Err  error
}

// Error returns the error message for ExitError.
func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit status %d", e.Code)
}

// Unwrap returns the underlying error, if any.
func (e *ExitError) Unwrap() error {
	return e.Err
}

// exitCodeFor maps an error to the process exit code.
func exitCodeFor(err error) int {
	var exitErr *ExitError
	switch {
	case err == nil:
		return 0
	case errors.As(err, &exitErr):
		return exitErr.Code
	case errors.Is(err, container.ErrInvalidConfiguration), errors.Is(err, config.ErrInvalidConfig):
		return ExitInvalidConfig
	case errors.Is(err, container.ErrInvalidState):
		return ExitInvalidState
	case errors.Is(err, container.ErrEngineUnavailable):
		return ExitEngineUnavailable
	case errors.Is(err, container.ErrEngineOperationFailed):
		return ExitOperationFailed
	default:
		return ExitGeneric
	}
}
