// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dockhand/dockhand/internal/config"
	"github.com/dockhand/dockhand/internal/container"
	"github.com/dockhand/dockhand/internal/metrics"
	"github.com/dockhand/dockhand/internal/process"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

const retryBaseBackoff = 500 * time.Millisecond

type (
	// App wires CLI services and shared dependencies. It is the composition root for
	// the CLI layer: all Cobra command handlers receive an App reference.
	App struct {
		Config  ConfigProvider
		invoker process.Invoker
		env     []string
		stdout  io.Writer
		stderr  io.Writer
		flags   globalFlags
	}

	// Dependencies defines the injection points for building an App. Nil fields are
	// replaced with production defaults by NewApp.
	Dependencies struct {
		Config ConfigProvider
		// Invoker runs engine commands. Setting it also skips PATH autodetection,
		// so --engine or container_engine picks the engine.
		Invoker process.Invoker
		// Env replaces the process environment for DOCKHAND_* overrides when non-nil.
		Env    []string
		Stdout io.Writer
		Stderr io.Writer
	}

	// ConfigProvider loads configuration using explicit options.
	ConfigProvider interface {
		Load(ctx context.Context, opts config.LoadOptions) (*config.Loaded, error)
	}

	globalFlags struct {
		configFile     string
		engine         string
		logLevel       string
		metricsFile    string
		ignoreErrors   bool
		engineInEngine bool
		verbose        bool
		retries        int
	}

	// session is the per-invocation state built from config and flags.
	session struct {
		cfg          *config.Loaded
		logger       *log.Logger
		recorder     *metrics.Recorder
		probe        *container.Probe
		pollInterval time.Duration
		maxWait      time.Duration
		retries      int
	}
)

// NewApp creates an App with defaults for omitted dependencies.
func NewApp(deps Dependencies) *App {
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}

	return &App{
		Config:  deps.Config,
		invoker: deps.Invoker,
		env:     deps.Env,
		stdout:  deps.Stdout,
		stderr:  deps.Stderr,
	}
}

// loadConfig loads configuration and applies the persistent flags on top.
func (a *App) loadConfig(cmd *cobra.Command) (*config.Loaded, error) {
	cfg, err := a.Config.Load(cmd.Context(), config.LoadOptions{
		ConfigFilePath: a.flags.configFile,
		Env:            a.env,
	})
	if err != nil {
		return nil, &ExitError{Code: ExitInvalidConfig, Err: err}
	}

	flags := cmd.Flags()
	if flags.Changed("engine") {
		cfg.ContainerEngine = config.ContainerEngine(a.flags.engine)
	}
	if flags.Changed("ignore-errors") {
		cfg.IgnoreContainerErrors = a.flags.ignoreErrors
	}
	if flags.Changed("engine-in-engine") {
		cfg.EngineInEngine = a.flags.engineInEngine
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = a.flags.logLevel
	}
	if flags.Changed("metrics-file") {
		cfg.Metrics.Textfile = a.flags.metricsFile
	}
	if valid, errs := cfg.IsValid(); !valid {
		return nil, &ExitError{Code: ExitInvalidConfig, Err: errs[0]}
	}
	return cfg, nil
}

// newSession resolves configuration, logging, metrics and the engine probe.
func (a *App) newSession(cmd *cobra.Command) (*session, error) {
	cfg, err := a.loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	level, _ := cfg.Level()
	if a.flags.verbose && level > log.DebugLevel {
		level = log.DebugLevel
	}
	logger := log.NewWithOptions(a.stderr, log.Options{
		Prefix:          config.AppName,
		Level:           level,
		ReportTimestamp: a.flags.verbose,
	})

	// Both were validated by cfg.IsValid.
	pollInterval, _ := cfg.Wait.PollIntervalDuration()
	maxWait, _ := cfg.Wait.MaxWaitDuration()

	s := &session{
		cfg:          cfg,
		logger:       logger,
		recorder:     metrics.New(),
		pollInterval: pollInterval,
		maxWait:      maxWait,
		retries:      max(a.flags.retries, 0),
	}

	opts := []container.ProbeOption{
		container.WithLogger(logger),
		container.WithObserver(s.recorder),
	}
	engine := container.EngineType(cfg.ContainerEngine)
	if a.invoker != nil {
		opts = append(opts, container.WithInvoker(a.invoker))
		if engine == "" {
			engine = container.EngineTypeDocker
		}
		s.probe = container.NewProbe(engine, append(opts, container.WithBinary(string(engine)))...)
		return s, nil
	}

	s.probe, err = container.DetectProbe(cmd.Context(), engine, opts...)
	if err != nil {
		return nil, err
	}
	logger.Debug("engine selected", "engine", s.probe.Engine(), "binary", s.probe.Binary())
	return s, nil
}

// close flushes metrics when a textfile is configured.
func (s *session) close() {
	path := s.cfg.Metrics.Textfile
	if path == "" {
		return
	}
	if err := s.recorder.WriteTextfile(path); err != nil {
		s.logger.Warn("failed to write metrics textfile", "path", path, "err", err)
	}
}

// controller builds a Controller for name. An empty name is replaced by a
// generated one.
func (s *session) controller(name, image string, env map[string]string) (*container.Controller, error) {
	if name == "" {
		name = generatedName()
	}
	return container.New(s.probe, container.Config{
		Name:                  name,
		Image:                 image,
		Env:                   env,
		IgnoreContainerErrors: s.cfg.IgnoreContainerErrors,
		EngineInEngine:        s.cfg.EngineInEngine,
		PollInterval:          s.pollInterval,
		Logger:                s.logger,
		Observer:              s.recorder,
	})
}

// retry runs fn, retrying transient engine failures when --retries is set.
func (s *session) retry(ctx context.Context, fn func() error) error {
	attempt := 0
	return container.RetryTransient(ctx, s.retries+1, retryBaseBackoff, func() error {
		attempt++
		err := fn()
		if err != nil && attempt <= s.retries && container.IsTransientError(err) {
			s.logger.Warn("transient engine failure, retrying", "attempt", attempt, "err", err)
		}
		return err
	})
}

// generatedName returns a container name for commands run without --name.
func generatedName() string {
	return config.AppName + "-" + uuid.NewString()
}

// parseEnv converts KEY=VALUE flag values into a map.
func parseEnv(pairs []string) (map[string]string, error) {
	env := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, &container.ConfigError{Field: "env", Value: pair, Reason: "expected KEY=VALUE"}
		}
		if _, dup := env[key]; dup {
			return nil, &container.ConfigError{Field: "env", Value: key, Reason: "set more than once", Kind: container.ErrDuplicateKey}
		}
		env[key] = value
	}
	return env, nil
}

// waitLimit returns the --timeout flag if set, else the configured max wait.
func (s *session) waitLimit(cmd *cobra.Command, flag string) time.Duration {
	if d, err := cmd.Flags().GetDuration(flag); err == nil && cmd.Flags().Changed(flag) && d > 0 {
		return d
	}
	return s.maxWait
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.stdout, format, args...)
}
