// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/dockhand/dockhand/internal/config"
	"github.com/dockhand/dockhand/internal/process"
)

type (
	// cliEngine is a minimal in-memory docker CLI for command tests.
	cliEngine struct {
		mu          sync.Mutex
		unreachable bool
		// startFailure makes `run -d` create the container, then fail with exit 125.
		startFailure string
		running      map[string]bool // name -> running; absent means no container
		calls        [][]string
	}

	staticConfig struct {
		cfg *config.Config
	}

	// cliHarness runs the command tree against a cliEngine.
	cliHarness struct {
		engine *cliEngine
		cfg    *config.Config
		stdout bytes.Buffer
		stderr bytes.Buffer
	}
)

func (s staticConfig) Load(context.Context, config.LoadOptions) (*config.Loaded, error) {
	cfg := *s.cfg
	return &config.Loaded{Config: &cfg}, nil
}

func newHarness(t *testing.T) *cliHarness {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.ContainerEngine = config.ContainerEngineDocker
	cfg.Wait.PollInterval = "1ms"
	cfg.Wait.MaxWait = "50ms"
	return &cliHarness{engine: &cliEngine{running: map[string]bool{}}, cfg: cfg}
}

// run executes the CLI with args and returns the error from cobra.
func (h *cliHarness) run(t *testing.T, args ...string) error {
	t.Helper()
	h.stdout.Reset()
	h.stderr.Reset()

	app := NewApp(Dependencies{
		Config:  staticConfig{cfg: h.cfg},
		Invoker: h.engine,
		Env:     []string{},
		Stdout:  &h.stdout,
		Stderr:  &h.stderr,
	})
	root := NewRootCommand(app)
	root.SetArgs(args)
	return root.ExecuteContext(t.Context())
}

func (e *cliEngine) Invoke(_ context.Context, req process.Request) *process.Result {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = append(e.calls, slices.Clone(req.Args))

	args := req.Args
	name := args[len(args)-1]
	switch args[0] {
	case "info":
		if e.unreachable {
			return failed(1, "Cannot connect to the Docker daemon at unix:///var/run/docker.sock. Is the docker daemon running?")
		}
		return &process.Result{Stdout: []string{"Server:"}}
	case "version":
		return &process.Result{Stdout: []string{"27.3.1"}}
	case "inspect":
		running, ok := e.running[name]
		if !ok {
			return failed(1, "Error: No such object: "+name)
		}
		if i := slices.Index(args, "-f"); i > 0 {
			return &process.Result{Stdout: []string{fmt.Sprint(running && args[i+1] == "{{.State.Running}}")}}
		}
		return &process.Result{Stdout: []string{"[{}]"}}
	case "run":
		return e.runContainer(args)
	case "stop", "kill":
		if _, ok := e.running[name]; !ok {
			return failed(1, "Error response from daemon: No such container: "+name)
		}
		e.running[name] = false
		return &process.Result{Stdout: []string{name}}
	case "rm":
		delete(e.running, name)
		return &process.Result{Stdout: []string{name}}
	case "exec":
		return &process.Result{Stdout: []string{strings.Join(args[2:], " ")}}
	case "logs":
		return &process.Result{Stdout: []string{"line 1", "line 2"}}
	default:
		return failed(1, "unknown command "+args[0])
	}
}

func (e *cliEngine) runContainer(args []string) *process.Result {
	name := args[slices.Index(args, "--name")+1]
	if _, ok := e.running[name]; ok {
		return failed(125, fmt.Sprintf(`Conflict. The container name "/%s" is already in use.`, name))
	}
	if slices.Contains(args, "-d") {
		if e.startFailure != "" {
			e.running[name] = false
			return failed(125, e.startFailure)
		}
		e.running[name] = true
		return &process.Result{Stdout: []string{"4f2a9c0d1e3b"}}
	}
	// --rm runs finish immediately and leave nothing behind.
	cmdStart := slices.IndexFunc(args, func(a string) bool { return a == "hello-world" || strings.Contains(a, ":") })
	return &process.Result{Stdout: []string{"ran: " + strings.Join(args[cmdStart+1:], " ")}}
}

func (e *cliEngine) put(name string, running bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.running[name] = running
}

func (e *cliEngine) exists(name string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.running[name]
	return ok
}

func (e *cliEngine) verbs() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, 0, len(e.calls))
	for _, c := range e.calls {
		out = append(out, c[0])
	}
	return out
}

func failed(code int, stderr string) *process.Result {
	return &process.Result{Stderr: []string{stderr}, ExitCode: code, Err: fmt.Errorf("exit status %d", code)}
}
