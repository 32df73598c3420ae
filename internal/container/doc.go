// SPDX-License-Identifier: MPL-2.0

// Package container controls the lifecycle of a single named container through
// the command-line interface of a container engine (Docker or Podman).
//
// Probe answers stateless questions about the engine: whether the daemon is
// reachable, whether a named object exists, and whether it is running or paused.
// Nothing is cached; each question is one or two engine invocations.
//
// Controller owns one container name, its image, and an environment set that can
// only be changed before the container is materialized. Its operations (Start,
// Run, Stop, Kill, Remove, Execute, Logs) gate on Probe.EngineReachable, check
// the lifecycle precondition with a live query, invoke the engine, and classify
// the captured output: a failed process is always an error, and stderr output is
// an error unless IgnoreContainerErrors is set for Execute, Logs, or Stop.
//
// The WaitUntil* primitives poll a predicate at a fixed interval and return false,
// not an error, when the limit is reached. Async variants return a Pending handle
// whose Wait reports the failure of the dispatched operation.
//
// The controller never retries. Callers that want retries wrap operations in
// RetryTransient, which only repeats failures IsTransientError accepts.
package container
