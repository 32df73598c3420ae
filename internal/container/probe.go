// SPDX-License-Identifier: MPL-2.0

package container

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coreos/go-semver/semver"

	"github.com/dockhand/dockhand/internal/process"
)

const (
	outcomeSuccess    = "success"
	outcomeStderr     = "stderr"
	outcomeFailure    = "failure"
	outcomeNotStarted = "not_started"
)

type (
	// Observer receives instrumentation events from probes and controllers.
	Observer interface {
		// ObserveInvocation is called after every engine invocation. verb is the
		// engine subcommand and outcome one of success, stderr, failure, not_started.
		ObserveInvocation(engine, verb, outcome string, elapsed time.Duration)
		// ObserveWait is called when a wait primitive returns.
		ObserveWait(condition string, met bool, samples int, elapsed time.Duration)
	}

	// ProbeOption configures a Probe.
	ProbeOption func(*Probe)

	// Probe answers stateless questions about the engine and the objects it manages.
	// Nothing is cached; every call invokes the engine CLI.
	Probe struct {
		engine   EngineType
		binary   string
		invoker  process.Invoker
		lookPath func(file string) (string, error)
		observer Observer
		logger   *log.Logger
	}

	nopObserver struct{}
)

func (nopObserver) ObserveInvocation(string, string, string, time.Duration) {}
func (nopObserver) ObserveWait(string, bool, int, time.Duration)            {}

// WithBinary sets the engine binary instead of resolving it on PATH.
func WithBinary(path string) ProbeOption {
	return func(p *Probe) {
		p.binary = path
	}
}

// WithInvoker sets the process invoker used for engine calls.
func WithInvoker(inv process.Invoker) ProbeOption {
	return func(p *Probe) {
		p.invoker = inv
	}
}

// WithObserver sets the instrumentation hook.
func WithObserver(o Observer) ProbeOption {
	return func(p *Probe) {
		if o != nil {
			p.observer = o
		}
	}
}

// WithLogger sets the logger used for per-invocation debug records.
func WithLogger(l *log.Logger) ProbeOption {
	return func(p *Probe) {
		if l != nil {
			p.logger = l
		}
	}
}

// withLookPath overrides PATH resolution in tests.
func withLookPath(fn func(string) (string, error)) ProbeOption {
	return func(p *Probe) {
		p.lookPath = fn
	}
}

// NewProbe creates a probe for the given engine.
// Unless WithBinary is given the binary is resolved on PATH, falling back to the
// bare engine name so that a missing installation surfaces as an unreachable engine.
func NewProbe(engine EngineType, opts ...ProbeOption) *Probe {
	p := &Probe{
		engine:   engine,
		lookPath: exec.LookPath,
		observer: nopObserver{},
		logger:   log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.invoker == nil {
		// Docker prints "What's next" hints on stderr, which would fail classification.
		p.invoker = process.NewCLIInvoker(process.WithEnv("DOCKER_CLI_HINTS=false"))
	}
	if p.binary == "" {
		if path, err := p.lookPath(string(engine)); err == nil {
			p.binary = path
		} else {
			p.binary = string(engine)
		}
	}
	return p
}

// DetectProbe returns a probe for the preferred engine, falling back to the other
// engine when the preferred one is not installed. An empty preference tries docker
// first, then podman.
func DetectProbe(ctx context.Context, preferred EngineType, opts ...ProbeOption) (*Probe, error) {
	var order []EngineType
	switch preferred {
	case EngineTypeDocker, "":
		order = []EngineType{EngineTypeDocker, EngineTypePodman}
	case EngineTypePodman:
		order = []EngineType{EngineTypePodman, EngineTypeDocker}
	default:
		return nil, fmt.Errorf("unknown container engine type: %s", preferred)
	}

	for _, engine := range order {
		p := NewProbe(engine, opts...)
		if p.Available(ctx) {
			return p, nil
		}
	}

	name := string(preferred)
	if name == "" {
		name = "any"
	}
	return nil, &EngineNotFoundError{
		Engine: name,
		Reason: "neither docker nor podman is installed or responding to 'version'",
	}
}

// Engine returns the engine type this probe talks to.
func (p *Probe) Engine() EngineType {
	return p.engine
}

// Binary returns the engine binary that is invoked.
func (p *Probe) Binary() string {
	return p.binary
}

// Available reports whether the engine binary can be found and answers `version`.
func (p *Probe) Available(ctx context.Context) bool {
	if _, err := p.lookPath(p.binary); err != nil {
		return false
	}
	return p.invoke(ctx, "version", "--format", p.engine.versionFormat()).Succeeded()
}

// EngineReachable reports whether the engine daemon answers an info query.
// It is false when the binary cannot be started or when stderr carries the
// engine's "cannot connect" message, and true otherwise.
func (p *Probe) EngineReachable(ctx context.Context) bool {
	result := p.invoke(ctx, InfoArgs()...)
	if !result.Started() {
		return false
	}
	return !p.engine.isUnreachable(result.Stderr)
}

// ObjectExists reports whether an object with the given name exists.
func (p *Probe) ObjectExists(ctx context.Context, name string) (bool, error) {
	if err := p.ensureReachable(ctx); err != nil {
		return false, err
	}
	return p.objectExists(ctx, name)
}

// ObjectRunning reports whether the named object exists and is running.
func (p *Probe) ObjectRunning(ctx context.Context, name string) (bool, error) {
	if err := p.ensureReachable(ctx); err != nil {
		return false, err
	}
	return p.stateFlag(ctx, name, runningTemplate)
}

// ObjectPaused reports whether the named object exists and is paused.
func (p *Probe) ObjectPaused(ctx context.Context, name string) (bool, error) {
	if err := p.ensureReachable(ctx); err != nil {
		return false, err
	}
	return p.stateFlag(ctx, name, pausedTemplate)
}

// Version returns the engine server version.
func (p *Probe) Version(ctx context.Context) (*semver.Version, error) {
	if err := p.ensureReachable(ctx); err != nil {
		return nil, err
	}
	result := p.invoke(ctx, "version", "--format", p.engine.versionFormat())
	if !result.Succeeded() {
		return nil, &OperationError{
			Operation: "version",
			Args:      p.commandLine("version"),
			ExitCode:  result.ExitCode,
			Stderr:    result.Stderr,
			Cause:     result.Err,
		}
	}
	return ParseVersion(result.LastStdoutLine())
}

// ParseVersion parses an engine version string such as "27.3.1", "v5.2.0" or
// "20.10.24+dfsg1". Missing minor or patch components are filled with zero.
func ParseVersion(raw string) (*semver.Version, error) {
	s := strings.TrimPrefix(strings.TrimSpace(raw), "v")
	if i := strings.IndexAny(s, "+~"); i >= 0 {
		s = s[:i]
	}
	core, pre, hasPre := strings.Cut(s, "-")
	switch strings.Count(core, ".") {
	case 0:
		core += ".0.0"
	case 1:
		core += ".0"
	}
	if hasPre {
		core += "-" + pre
	}
	v, err := semver.NewVersion(core)
	if err != nil {
		return nil, fmt.Errorf("failed to parse engine version %q: %w", raw, err)
	}
	return v, nil
}

// ensureReachable is the gate every controller operation passes first.
func (p *Probe) ensureReachable(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !p.EngineReachable(ctx) {
		if err := ctx.Err(); err != nil {
			return err
		}
		return &EngineUnavailableError{Engine: p.engine}
	}
	return nil
}

// objectExists is ObjectExists without the reachability gate.
func (p *Probe) objectExists(ctx context.Context, name string) (bool, error) {
	result := p.invoke(ctx, InspectArgs(name, "")...)
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return result.Started() && !result.HasStderr(), nil
}

// stateFlag inspects a boolean template; the last stdout line decides so that
// preceding diagnostic lines are tolerated.
func (p *Probe) stateFlag(ctx context.Context, name, template string) (bool, error) {
	result := p.invoke(ctx, InspectArgs(name, template)...)
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return strings.TrimSpace(result.LastStdoutLine()) == "true", nil
}

// invoke runs the engine binary with args, logging and observing the outcome.
func (p *Probe) invoke(ctx context.Context, args ...string) *process.Result {
	return p.invokeRequest(ctx, process.Request{Name: p.binary, Args: args})
}

func (p *Probe) invokeRequest(ctx context.Context, req process.Request) *process.Result {
	start := time.Now()
	result := p.invoker.Invoke(ctx, req)
	elapsed := time.Since(start)

	outcome := outcomeSuccess
	switch {
	case !result.Started():
		outcome = outcomeNotStarted
	case !result.Succeeded():
		outcome = outcomeFailure
	case result.HasStderr():
		outcome = outcomeStderr
	}

	verb := ""
	if len(req.Args) > 0 {
		verb = req.Args[0]
	}
	p.observer.ObserveInvocation(string(p.engine), verb, outcome, elapsed)
	p.logger.Debug("engine invocation",
		"cmd", strings.Join(p.commandLine(req.Args...), " "),
		"outcome", outcome,
		"exit", result.ExitCode,
		"elapsed", elapsed.Round(time.Millisecond))
	return result
}

// commandLine returns the binary followed by args.
func (p *Probe) commandLine(args ...string) []string {
	return append([]string{p.binary}, args...)
}
