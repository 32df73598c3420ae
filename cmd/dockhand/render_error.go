// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"

	"github.com/dockhand/dockhand/internal/container"
	"github.com/dockhand/dockhand/internal/issue"

	"github.com/spf13/cobra"
)

// fail prints err to stderr in actionable form and returns an ExitError
// carrying only its exit code, since the message has already been shown.
func (a *App) fail(cmd *cobra.Command, op, resource string, err error) error {
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	ae := actionable(op, resource, err)
	fmt.Fprintf(a.stderr, "%s %s\n", ErrorStyle.Render("Error:"), ae.Format(a.flags.verbose))

	if a.flags.verbose {
		if entry := issue.Get(issueFor(err)); entry != nil {
			if rendered, renderErr := entry.Render(""); renderErr == nil {
				fmt.Fprint(a.stderr, rendered)
			}
		}
	}

	return &ExitError{Code: exitCodeFor(err)}
}

// actionable wraps err with the operation, resource and suggestions matching
// its kind. Errors that are already actionable are returned unchanged.
func actionable(op, resource string, err error) *issue.ActionableError {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae
	}

	ctx := issue.NewErrorContext().
		WithOperation(op).
		WithResource(resource).
		Wrap(err)

	var (
		notFound *container.EngineNotFoundError
		opErr    *container.OperationError
	)
	switch {
	case errors.As(err, &notFound):
		ctx.WithSuggestions(
			"Install docker or podman and make sure it is on PATH",
			"Select an engine explicitly with --engine",
		)
	case errors.Is(err, container.ErrEngineUnavailable):
		ctx.WithSuggestions(
			"Check that the engine daemon or service is running",
			"Run 'dockhand engine' to diagnose the connection",
		)
	case errors.Is(err, container.ErrAlreadyExists):
		ctx.WithSuggestion(fmt.Sprintf("Remove the old container with 'dockhand rm -f %s' or choose another name", resource))
	case errors.Is(err, container.ErrInvalidState):
		ctx.WithSuggestion(fmt.Sprintf("Run 'dockhand status %s' to see the current state", resource))
	case errors.Is(err, container.ErrInvalidConfiguration):
		ctx.WithSuggestion("Container names must be non-empty, lowercase and free of whitespace")
	case errors.As(err, &opErr):
		ctx.WithCommand(opErr.CommandLine())
		ctx.WithSuggestion("Re-run with --verbose to see the engine command")
		if opErr.Operation == "exec" || opErr.Operation == "logs" || opErr.Operation == "stop" {
			ctx.WithSuggestion("Use --ignore-errors to log engine stderr as a warning instead")
		}
	}

	return ctx.Build()
}

// issueFor picks the explain entry for err.
func issueFor(err error) issue.Id {
	var notFound *container.EngineNotFoundError
	switch {
	case errors.As(err, &notFound):
		return issue.EngineNotInstalledId
	case errors.Is(err, container.ErrEngineUnavailable):
		return issue.EngineUnavailableId
	case errors.Is(err, container.ErrAlreadyExists):
		return issue.ContainerAlreadyExistsId
	case errors.Is(err, container.ErrInvalidState):
		return issue.InvalidStateId
	case errors.Is(err, container.ErrInvalidConfiguration):
		return issue.InvalidConfigurationId
	case errors.Is(err, container.ErrEngineOperationFailed):
		return issue.EngineOperationFailedId
	default:
		var exitErr *ExitError
		if errors.As(err, &exitErr) && exitErr.Code == ExitInvalidConfig {
			return issue.ConfigLoadFailedId
		}
		return 0
	}
}
