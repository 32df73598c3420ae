// SPDX-License-Identifier: MPL-2.0

package container

import (
	"fmt"
	"strings"
)

// EngineType identifies the container engine type
type EngineType string

const (
	EngineTypeDocker EngineType = "docker"
	EngineTypePodman EngineType = "podman"
)

// unreachableMarkers are the stderr phrases each engine prints from `info`
// when its daemon or service cannot be contacted.
var unreachableMarkers = map[EngineType][]string{
	EngineTypeDocker: {
		"error during connect",
		"Cannot connect to the Docker daemon",
		"permission denied while trying to connect to the Docker daemon",
	},
	EngineTypePodman: {
		"Cannot connect to Podman",
		"unable to connect to Podman",
	},
}

// EngineNotFoundError is returned when no usable engine binary could be located.
type EngineNotFoundError struct {
	Engine string
	Reason string
}

func (e *EngineNotFoundError) Error() string {
	return fmt.Sprintf("container engine '%s' is not available: %s", e.Engine, e.Reason)
}

func (e *EngineNotFoundError) Unwrap() error { return ErrEngineUnavailable }

// ParseEngineType converts a user-supplied engine name.
// The empty string is accepted and means "detect".
func ParseEngineType(s string) (EngineType, error) {
	switch t := EngineType(strings.ToLower(strings.TrimSpace(s))); t {
	case "", EngineTypeDocker, EngineTypePodman:
		return t, nil
	default:
		return "", &ConfigError{Field: "engine", Value: s, Reason: "must be docker or podman"}
	}
}

// String returns the engine name.
func (t EngineType) String() string { return string(t) }

// versionFormat is the Go template passed to `version --format`.
func (t EngineType) versionFormat() string {
	if t == EngineTypePodman {
		return "{{.Version}}"
	}
	return "{{.Server.Version}}"
}

// isUnreachable reports whether any stderr line carries a "cannot connect" marker.
func (t EngineType) isUnreachable(stderr []string) bool {
	markers := unreachableMarkers[t]
	for _, line := range stderr {
		for _, m := range markers {
			if strings.Contains(line, m) {
				return true
			}
		}
	}
	return false
}
