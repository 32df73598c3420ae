// SPDX-License-Identifier: MPL-2.0

package container

import (
	"context"
	"errors"
	"strings"
)

// transientMarkers are stderr phrases of engine failures that tend to clear up on retry.
var transientMarkers = []string{
	// Rootless Podman races and OCI runtime hiccups.
	"ping_group_range",
	"OCI runtime error",
	// Registry and network failures while pulling.
	"Temporary failure resolving",
	"Could not resolve host",
	"TLS handshake timeout",
	"connection timed out",
	"connection reset by peer",
	"i/o timeout",
	"toomanyrequests",
	// Storage driver races.
	"error creating overlay mount",
	"error mounting layer",
}

// IsTransientError reports whether err is an engine operation failure that may
// succeed on retry: exit code 125 without a recognizably permanent cause, or a
// stderr message matching a known transient condition.
//
// State errors, configuration errors, an unreachable engine, and context
// cancellation are never transient.
func IsTransientError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, ErrInvalidState) || errors.Is(err, ErrInvalidConfiguration) || errors.Is(err, ErrEngineUnavailable) {
		return false
	}

	var opErr *OperationError
	if !errors.As(err, &opErr) {
		return false
	}

	stderr := strings.Join(opErr.Stderr, "\n")
	for _, m := range transientMarkers {
		if strings.Contains(stderr, m) {
			return true
		}
	}

	// Exit code 125 is the engine's own failure code; a missing image or bad
	// reference is permanent even though it shares the code.
	if opErr.ExitCode == 125 {
		lower := strings.ToLower(stderr)
		return !strings.Contains(lower, "not found") &&
			!strings.Contains(lower, "invalid reference format") &&
			!strings.Contains(lower, "manifest unknown") &&
			!strings.Contains(lower, "pull access denied")
	}
	return false
}
