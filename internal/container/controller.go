// SPDX-License-Identifier: MPL-2.0

package container

import (
	"context"
	"io"
	"maps"
	"strings"
	"time"
	"unicode"

	"github.com/charmbracelet/log"
)

const (
	// DefaultPollInterval is the sampling interval of the wait primitives.
	DefaultPollInterval = 100 * time.Millisecond
	// DefaultMaxWait bounds a wait primitive when no limit is given.
	DefaultMaxWait = 10 * time.Second
)

// State is the lifecycle classification of a container, derived from the engine on demand.
type State int

const (
	// StateUnmaterialized means no engine object with the container's name exists.
	StateUnmaterialized State = iota
	// StateExists means the object exists but is not running.
	StateExists
	// StateRunning means the object exists and is running (the "ready" state).
	StateRunning
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case StateExists:
		return "exists"
	case StateRunning:
		return "running"
	default:
		return "unmaterialized"
	}
}

type (
	// Config configures a Controller.
	Config struct {
		// Name identifies the container. It must be non-empty, lowercase, and free of whitespace.
		Name string
		// Image is the image reference, including tag.
		Image string
		// Env seeds the environment set. The map is copied.
		Env map[string]string
		// IgnoreContainerErrors tolerates stderr output from Execute, Logs, and Stop.
		IgnoreContainerErrors bool
		// EngineInEngine gives the container access to the host engine.
		EngineInEngine bool
		// PollInterval is the wait sampling interval (DefaultPollInterval when zero).
		PollInterval time.Duration
		// Logger receives wait outcomes and suppressed stderr. Nil discards.
		Logger *log.Logger
		// Observer receives wait instrumentation. Invocations are observed by the Probe.
		Observer Observer
	}

	// Controller manages the lifecycle of one named container through the engine CLI.
	//
	// A Controller holds no engine state: every predicate queries the engine. It
	// performs no locking, and its environment set must not be mutated concurrently.
	// After Remove the same Controller may materialize the container again.
	Controller struct {
		probe        *Probe
		name         string
		image        string
		env          map[string]string
		ignoreErrors bool
		nested       nestedEngine
		pollInterval time.Duration
		logger       *log.Logger
		observer     Observer
	}
)

// New validates cfg and returns an unmaterialized Controller bound to probe.
func New(probe *Probe, cfg Config) (*Controller, error) {
	if err := ValidateName(cfg.Name); err != nil {
		return nil, err
	}
	if strings.TrimSpace(cfg.Image) == "" {
		return nil, &ConfigError{Field: "image", Reason: "must not be empty"}
	}
	for k := range cfg.Env {
		if err := validateEnvKey(k); err != nil {
			return nil, err
		}
	}

	c := &Controller{
		probe:        probe,
		name:         cfg.Name,
		image:        cfg.Image,
		env:          make(map[string]string, len(cfg.Env)),
		ignoreErrors: cfg.IgnoreContainerErrors,
		pollInterval: cfg.PollInterval,
		logger:       cfg.Logger,
		observer:     cfg.Observer,
	}
	maps.Copy(c.env, cfg.Env)

	if cfg.EngineInEngine {
		c.nested = hostEngineAccess()
	}
	if c.pollInterval <= 0 {
		c.pollInterval = DefaultPollInterval
	}
	if c.logger == nil {
		c.logger = log.New(io.Discard)
	}
	if c.observer == nil {
		c.observer = nopObserver{}
	}
	return c, nil
}

// ValidateName checks the syntactic rules for container names.
func ValidateName(name string) error {
	if name == "" {
		return &ConfigError{Field: "name", Reason: "must not be empty"}
	}
	if strings.IndexFunc(name, unicode.IsSpace) >= 0 {
		return &ConfigError{Field: "name", Value: name, Reason: "must not contain whitespace"}
	}
	if name != strings.ToLower(name) {
		return &ConfigError{Field: "name", Value: name, Reason: "must be lowercase"}
	}
	return nil
}

func validateEnvKey(key string) error {
	if key == "" || strings.ContainsAny(key, "=\x00") || strings.IndexFunc(key, unicode.IsSpace) >= 0 {
		return &ConfigError{Field: "env", Value: key, Reason: "keys must be non-empty and contain no '=' or whitespace"}
	}
	return nil
}

// Name returns the container name.
func (c *Controller) Name() string { return c.name }

// Image returns the image reference.
func (c *Controller) Image() string { return c.image }

// Probe returns the engine probe the controller uses.
func (c *Controller) Probe() *Probe { return c.probe }

// Env returns a copy of the environment set.
func (c *Controller) Env() map[string]string {
	return maps.Clone(c.env)
}

// AddEnvironmentVariable inserts key=value into the environment set.
// It fails when the container is materialized or the key is already present.
func (c *Controller) AddEnvironmentVariable(ctx context.Context, key, value string) error {
	if err := c.ensureMutable(ctx, "add environment variable to"); err != nil {
		return err
	}
	if err := validateEnvKey(key); err != nil {
		return err
	}
	if _, ok := c.env[key]; ok {
		return &ConfigError{Field: "env", Value: key, Reason: "already defined; use SetEnvironmentVariable to overwrite", Kind: ErrDuplicateKey}
	}
	c.env[key] = value
	return nil
}

// SetEnvironmentVariable overwrites an existing key in the environment set.
// It fails when the container is materialized or the key is absent.
func (c *Controller) SetEnvironmentVariable(ctx context.Context, key, value string) error {
	if err := c.ensureMutable(ctx, "set environment variable on"); err != nil {
		return err
	}
	if _, ok := c.env[key]; !ok {
		return &ConfigError{Field: "env", Value: key, Reason: "not defined; use AddEnvironmentVariable first", Kind: ErrUnknownKey}
	}
	c.env[key] = value
	return nil
}

func (c *Controller) ensureMutable(ctx context.Context, op string) error {
	if err := c.probe.ensureReachable(ctx); err != nil {
		return err
	}
	exists, err := c.probe.objectExists(ctx, c.name)
	if err != nil {
		return err
	}
	if exists {
		return &StateError{Container: c.name, Operation: op, Reason: "configuration is frozen once the container is materialized"}
	}
	return nil
}

// Exists reports whether the engine has an object with the controller's name.
func (c *Controller) Exists(ctx context.Context) (bool, error) {
	return c.probe.ObjectExists(ctx, c.name)
}

// Running reports whether the container is running.
func (c *Controller) Running(ctx context.Context) (bool, error) {
	return c.probe.ObjectRunning(ctx, c.name)
}

// Paused reports whether the container is paused.
func (c *Controller) Paused(ctx context.Context) (bool, error) {
	return c.probe.ObjectPaused(ctx, c.name)
}

// Ready reports whether the container both exists and is running.
func (c *Controller) Ready(ctx context.Context) (bool, error) {
	state, err := c.State(ctx)
	return state == StateRunning, err
}

// State classifies the container from a fresh engine query.
func (c *Controller) State(ctx context.Context) (State, error) {
	if err := c.probe.ensureReachable(ctx); err != nil {
		return StateUnmaterialized, err
	}
	return c.state(ctx)
}

// state is State without the reachability gate.
func (c *Controller) state(ctx context.Context) (State, error) {
	exists, err := c.probe.objectExists(ctx, c.name)
	if err != nil || !exists {
		return StateUnmaterialized, err
	}
	running, err := c.probe.stateFlag(ctx, c.name, runningTemplate)
	if err != nil {
		return StateUnmaterialized, err
	}
	if running {
		return StateRunning, nil
	}
	return StateExists, nil
}
