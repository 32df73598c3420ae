// SPDX-License-Identifier: MPL-2.0

package container

import (
	"fmt"
	"slices"
	"strconv"
	"time"
)

const (
	// runningTemplate selects the running flag from inspect output.
	runningTemplate = "{{.State.Running}}"
	// pausedTemplate selects the paused flag from inspect output.
	pausedTemplate = "{{.State.Paused}}"
)

// runSpec holds the inputs of a run invocation.
type runSpec struct {
	Name        string
	Image       string
	Env         map[string]string
	Detach      bool
	Remove      bool
	Interactive bool
	// Extra holds engine-in-engine flags, inserted before the environment flags.
	Extra   []string
	Command []string
}

// InfoArgs constructs arguments for an engine info query.
//
// Generated command: <binary> info
func InfoArgs() []string {
	return []string{"info"}
}

// InspectArgs constructs arguments for inspecting a named container.
// The query is restricted to containers so that an image, volume or network
// sharing the name is not reported. An empty format returns the engine's full
// description.
//
// Generated command: <binary> inspect --type container [-f <format>] <name>
func InspectArgs(name, format string) []string {
	args := []string{"inspect", "--type", "container"}
	if format != "" {
		args = append(args, "-f", format)
	}
	return append(args, name)
}

// runArgs constructs arguments for a container run command.
//
// Generated command: <binary> run --name <name> [--rm] --quiet [-d] [-i -t] [extra...] [-e K=V...] <image> [command...]
func runArgs(spec runSpec) []string {
	args := []string{"run", "--name", spec.Name}

	if spec.Remove {
		args = append(args, "--rm")
	}

	args = append(args, "--quiet")

	if spec.Detach {
		args = append(args, "-d")
	}

	if spec.Interactive {
		args = append(args, "-i", "-t")
	}

	args = append(args, spec.Extra...)
	args = append(args, EnvArgs(spec.Env)...)
	args = append(args, spec.Image)
	return append(args, spec.Command...)
}

// EnvArgs serializes an environment set as -e KEY=VALUE pairs in ascending key order.
func EnvArgs(env map[string]string) []string {
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	args := make([]string, 0, 2*len(keys))
	for _, k := range keys {
		args = append(args, "-e", fmt.Sprintf("%s=%s", k, env[k]))
	}
	return args
}

// StopArgs constructs arguments for a container stop command.
// A zero grace period leaves the engine default in place; positive values are
// rounded to whole seconds, with a minimum of one.
//
// Generated command: <binary> stop [--time <seconds>] <name>
func StopArgs(name string, grace time.Duration) []string {
	args := []string{"stop"}
	if grace > 0 {
		secs := int(grace.Round(time.Second) / time.Second)
		if secs < 1 {
			secs = 1
		}
		args = append(args, "--time", strconv.Itoa(secs))
	}
	return append(args, name)
}

// KillArgs constructs arguments for a container kill command.
//
// Generated command: <binary> kill <name>
func KillArgs(name string) []string {
	return []string{"kill", name}
}

// RemoveArgs constructs arguments for a container remove command.
//
// Generated command: <binary> rm [-f] <name>
func RemoveArgs(name string, force bool) []string {
	args := []string{"rm"}
	if force {
		args = append(args, "-f")
	}
	return append(args, name)
}

// ExecArgs constructs arguments for running a command inside a container.
//
// Generated command: <binary> exec <name> <command...>
func ExecArgs(name string, command []string) []string {
	args := []string{"exec", name}
	return append(args, command...)
}

// LogsArgs constructs arguments for fetching container logs.
//
// Generated command: <binary> logs <name>
func LogsArgs(name string) []string {
	return []string{"logs", name}
}
