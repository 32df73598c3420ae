// SPDX-License-Identifier: MPL-2.0

package container

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dockhand/dockhand/internal/process"
)

type (
	// fakeEngine is an in-memory engine CLI. It understands the subset of
	// docker commands the controller issues and records every invocation.
	fakeEngine struct {
		mu sync.Mutex

		// unreachable makes `info` report the docker "cannot connect" message.
		unreachable bool
		// images lists the image references `run` accepts.
		images map[string]bool
		// logs is returned by `logs` for every container.
		logs []string
		// execResult is returned by `exec`.
		execResult process.Result
		// stopWarning is written to stderr by `stop`.
		stopWarning string
		// startFailure, when set, makes detached runs create the container and
		// then fail with exit 125 and this stderr, as a failed OCI start does.
		startFailure string
		// runGate, when set, holds non-detached runs until it is closed.
		runGate chan struct{}

		containers  map[string]*fakeContainer
		invocations [][]string
	}

	fakeContainer struct {
		image   string
		running bool
		paused  bool
		env     []string
	}
)

func newFakeEngine() *fakeEngine {
	return &fakeEngine{
		images:     map[string]bool{"hello-world": true, "debian:stable-slim": true, "nginx": true},
		containers: make(map[string]*fakeContainer),
	}
}

// newTestController builds a controller backed by a fresh fake engine.
func newTestController(t *testing.T, cfg Config) (*Controller, *fakeEngine) {
	t.Helper()
	fe := newFakeEngine()
	if cfg.Name == "" {
		cfg.Name = "t1"
	}
	if cfg.Image == "" {
		cfg.Image = "hello-world"
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = time.Millisecond
	}
	probe := NewProbe(EngineTypeDocker, WithBinary("docker"), WithInvoker(fe))
	c, err := New(probe, cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return c, fe
}

func (f *fakeEngine) Invoke(ctx context.Context, req process.Request) *process.Result {
	f.mu.Lock()
	f.invocations = append(f.invocations, slices.Clone(req.Args))
	f.mu.Unlock()

	if len(req.Args) == 0 {
		return fail(1, "usage")
	}

	switch req.Args[0] {
	case "info":
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.unreachable {
			return &process.Result{
				Stdout:   []string{"Client:", " Version: 27.3.1"},
				Stderr:   []string{"Cannot connect to the Docker daemon at unix:///var/run/docker.sock. Is the docker daemon running?"},
				ExitCode: 1,
				Err:      fmt.Errorf("exit status 1"),
			}
		}
		return &process.Result{Stdout: []string{"Server:", " Containers: 0"}}
	case "version":
		return &process.Result{Stdout: []string{"27.3.1"}}
	case "inspect":
		return f.inspect(req.Args[1:])
	case "run":
		return f.run(ctx, req.Args[1:])
	case "stop":
		return f.stop(req.Args[len(req.Args)-1])
	case "kill":
		return f.setStopped(req.Args[1], false)
	case "rm":
		return f.rm(req.Args[1:])
	case "exec":
		f.mu.Lock()
		defer f.mu.Unlock()
		r := f.execResult
		return &r
	case "logs":
		f.mu.Lock()
		defer f.mu.Unlock()
		if _, ok := f.containers[req.Args[1]]; !ok {
			return fail(1, "Error response from daemon: No such container: "+req.Args[1])
		}
		return &process.Result{Stdout: slices.Clone(f.logs)}
	default:
		return fail(1, "unknown command "+req.Args[0])
	}
}

func fail(code int, stderr string) *process.Result {
	return &process.Result{Stderr: []string{stderr}, ExitCode: code, Err: fmt.Errorf("exit status %d", code)}
}

func (f *fakeEngine) inspect(args []string) *process.Result {
	f.mu.Lock()
	defer f.mu.Unlock()

	var objectType, format string
	for i := 0; i < len(args)-1; i++ {
		switch args[i] {
		case "--type":
			i++
			objectType = args[i]
		case "-f":
			i++
			format = args[i]
		}
	}

	name := args[len(args)-1]
	c, ok := f.containers[name]
	if !ok {
		// Without --type docker falls back to images, volumes and networks.
		if objectType == "" && f.images[name] {
			return &process.Result{Stdout: []string{"[", "  {", `    "RepoTags": ["` + name + `:latest"]`, "  }", "]"}}
		}
		return &process.Result{Stdout: []string{"[]"}, Stderr: []string{"Error: No such object: " + name}, ExitCode: 1, Err: fmt.Errorf("exit status 1")}
	}
	if format != "" {
		var v bool
		switch format {
		case runningTemplate:
			v = c.running
		case pausedTemplate:
			v = c.paused
		}
		return &process.Result{Stdout: []string{fmt.Sprint(v)}}
	}
	return &process.Result{Stdout: []string{"[", "  {", `    "Name": "/` + name + `"`, "  }", "]"}}
}

func (f *fakeEngine) run(ctx context.Context, args []string) *process.Result {
	var (
		name, image string
		detach, rm  bool
		env         []string
	)
	for i := 0; i < len(args); i++ {
		switch a := args[i]; a {
		case "--name":
			i++
			name = args[i]
		case "-e":
			i++
			env = append(env, args[i])
		case "-v", "--group-add":
			i++
		case "-d":
			detach = true
		case "--rm":
			rm = true
		default:
			if strings.HasPrefix(a, "-") {
				continue
			}
			image = a
			i = len(args)
		}
	}

	f.mu.Lock()
	if _, ok := f.containers[name]; ok {
		f.mu.Unlock()
		return fail(125, fmt.Sprintf(`docker: Error response from daemon: Conflict. The container name "/%s" is already in use.`, name))
	}
	if !f.images[image] {
		f.mu.Unlock()
		return fail(125, fmt.Sprintf("docker: Error response from daemon: manifest for %s not found: manifest unknown.", image))
	}
	if detach && f.startFailure != "" {
		f.containers[name] = &fakeContainer{image: image, env: env}
		f.mu.Unlock()
		return fail(125, f.startFailure)
	}
	f.containers[name] = &fakeContainer{image: image, running: true, env: env}
	gate := f.runGate
	f.mu.Unlock()

	if detach {
		return &process.Result{Stdout: []string{"4f2a9c0d1e3b"}}
	}

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if rm {
		delete(f.containers, name)
	} else {
		f.containers[name].running = false
	}
	return &process.Result{Stdout: slices.Clone(f.logs)}
}

func (f *fakeEngine) stop(name string) *process.Result {
	f.mu.Lock()
	warning := f.stopWarning
	f.mu.Unlock()

	r := f.setStopped(name, false)
	if r.Succeeded() && warning != "" {
		r.Stderr = append(r.Stderr, warning)
	}
	return r
}

func (f *fakeEngine) setStopped(name string, running bool) *process.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.containers[name]
	if !ok {
		return fail(1, "Error response from daemon: No such container: "+name)
	}
	c.running = running
	return &process.Result{Stdout: []string{name}}
}

func (f *fakeEngine) rm(args []string) *process.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	force := slices.Contains(args, "-f")
	name := args[len(args)-1]
	c, ok := f.containers[name]
	if !ok {
		return fail(1, "Error response from daemon: No such container: "+name)
	}
	if c.running && !force {
		return fail(1, "Error response from daemon: cannot remove container: container is running")
	}
	delete(f.containers, name)
	return &process.Result{Stdout: []string{name}}
}

// put materializes a container directly, bypassing run.
func (f *fakeEngine) put(name string, running bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.containers[name] = &fakeContainer{image: "hello-world", running: running}
}

// setUnreachable toggles the daemon connectivity.
func (f *fakeEngine) setUnreachable(v bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.unreachable = v
}

// calls returns the recorded invocations whose subcommand is verb.
func (f *fakeEngine) calls(verb string) [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out [][]string
	for _, inv := range f.invocations {
		if len(inv) > 0 && inv[0] == verb {
			out = append(out, inv)
		}
	}
	return out
}

// lastCall returns the most recent invocation of verb, or nil.
func (f *fakeEngine) lastCall(verb string) []string {
	calls := f.calls(verb)
	if len(calls) == 0 {
		return nil
	}
	return calls[len(calls)-1]
}

// mutatingCalls counts invocations other than info and inspect.
func (f *fakeEngine) mutatingCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, inv := range f.invocations {
		if inv[0] != "info" && inv[0] != "inspect" {
			n++
		}
	}
	return n
}
