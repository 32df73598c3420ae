// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

const (
	// ContainerEngineAuto lets the CLI probe for docker first, then podman.
	ContainerEngineAuto ContainerEngine = ""
	// ContainerEngineDocker uses Docker as the container engine.
	ContainerEngineDocker ContainerEngine = "docker"
	// ContainerEnginePodman uses Podman as the container engine.
	ContainerEnginePodman ContainerEngine = "podman"

	// DefaultPollInterval mirrors container.DefaultPollInterval.
	DefaultPollInterval = "100ms"
	// DefaultMaxWait mirrors container.DefaultMaxWait.
	DefaultMaxWait = "10s"
	// DefaultLogLevel is the level used when nothing else is configured.
	DefaultLogLevel = "info"
)

var (
	// ErrInvalidContainerEngine is returned when a ContainerEngine value is not recognized.
	ErrInvalidContainerEngine = errors.New("invalid container engine")
	// ErrInvalidDuration is returned when a wait duration cannot be parsed or is not positive.
	ErrInvalidDuration = errors.New("invalid duration")
	// ErrInvalidLogLevel is returned when log_level is not a known level.
	ErrInvalidLogLevel = errors.New("invalid log level")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// ContainerEngine names the engine binary configured for the CLI.
	ContainerEngine string

	// InvalidContainerEngineError is returned when a ContainerEngine value is not recognized.
	// It wraps ErrInvalidContainerEngine for errors.Is() compatibility.
	InvalidContainerEngineError struct {
		Value ContainerEngine
	}

	// InvalidDurationError is returned when a duration field is malformed.
	InvalidDurationError struct {
		Field string
		Value string
		Err   error
	}

	// InvalidLogLevelError is returned when log_level is not recognized.
	InvalidLogLevelError struct {
		Value string
	}

	// InvalidConfigError is returned when a Config has invalid fields.
	// It wraps ErrInvalidConfig for errors.Is() compatibility and collects
	// field-level validation errors from all sub-components.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config holds the application configuration.
	Config struct {
		// ContainerEngine selects "docker" or "podman"; empty autodetects.
		ContainerEngine ContainerEngine `json:"container_engine" mapstructure:"container_engine" toml:"container_engine" yaml:"container_engine"`
		// IgnoreContainerErrors downgrades stderr failures of exec, logs and stop to warnings.
		IgnoreContainerErrors bool `json:"ignore_container_errors" mapstructure:"ignore_container_errors" toml:"ignore_container_errors" yaml:"ignore_container_errors"`
		// EngineInEngine gives started containers access to the host engine.
		EngineInEngine bool `json:"engine_in_engine" mapstructure:"engine_in_engine" toml:"engine_in_engine" yaml:"engine_in_engine"`
		// Wait tunes polling for the wait conditions.
		Wait WaitConfig `json:"wait" mapstructure:"wait" toml:"wait" yaml:"wait"`
		// LogLevel is one of debug, info, warn, error.
		LogLevel string `json:"log_level" mapstructure:"log_level" toml:"log_level" yaml:"log_level"`
		// Metrics configures the Prometheus textfile export.
		Metrics MetricsConfig `json:"metrics" mapstructure:"metrics" toml:"metrics" yaml:"metrics"`
	}

	// WaitConfig holds the wait timing, stored as Go duration strings.
	WaitConfig struct {
		PollInterval string `json:"poll_interval" mapstructure:"poll_interval" toml:"poll_interval" yaml:"poll_interval"`
		MaxWait      string `json:"max_wait" mapstructure:"max_wait" toml:"max_wait" yaml:"max_wait"`
	}

	// MetricsConfig configures metric export.
	MetricsConfig struct {
		// Textfile is written in the Prometheus text format on exit. Empty disables it.
		Textfile string `json:"textfile" mapstructure:"textfile" toml:"textfile" yaml:"textfile"`
	}
)

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		ContainerEngine: ContainerEngineAuto,
		Wait: WaitConfig{
			PollInterval: DefaultPollInterval,
			MaxWait:      DefaultMaxWait,
		},
		LogLevel: DefaultLogLevel,
	}
}

// String returns the engine name, or "auto" when unset.
func (e ContainerEngine) String() string {
	if e == ContainerEngineAuto {
		return "auto"
	}
	return string(e)
}

// IsValid returns whether the ContainerEngine is one of the defined engine types.
func (e ContainerEngine) IsValid() (bool, []error) {
	switch e {
	case ContainerEngineAuto, ContainerEngineDocker, ContainerEnginePodman:
		return true, nil
	default:
		return false, []error{&InvalidContainerEngineError{Value: e}}
	}
}

// PollIntervalDuration parses Wait.PollInterval.
func (c WaitConfig) PollIntervalDuration() (time.Duration, error) {
	return parsePositiveDuration("wait.poll_interval", c.PollInterval)
}

// MaxWaitDuration parses Wait.MaxWait.
func (c WaitConfig) MaxWaitDuration() (time.Duration, error) {
	return parsePositiveDuration("wait.max_wait", c.MaxWait)
}

// IsValid returns whether both wait durations parse.
func (c WaitConfig) IsValid() (bool, []error) {
	var errs []error
	if _, err := c.PollIntervalDuration(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.MaxWaitDuration(); err != nil {
		errs = append(errs, err)
	}
	return len(errs) == 0, errs
}

// Level parses LogLevel into a charmbracelet/log level.
func (c Config) Level() (log.Level, error) {
	level, err := log.ParseLevel(strings.ToLower(strings.TrimSpace(c.LogLevel)))
	if err != nil || level == log.FatalLevel {
		return log.InfoLevel, &InvalidLogLevelError{Value: c.LogLevel}
	}
	return level, nil
}

// IsValid returns whether the Config has valid fields, collecting the
// errors of every sub-component.
func (c Config) IsValid() (bool, []error) {
	var errs []error
	if valid, fieldErrs := c.ContainerEngine.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.Wait.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if _, err := c.Level(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return false, []error{&InvalidConfigError{FieldErrors: errs}}
	}
	return true, nil
}

func parsePositiveDuration(field, value string) (time.Duration, error) {
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return 0, &InvalidDurationError{Field: field, Value: value, Err: err}
	}
	if d <= 0 {
		return 0, &InvalidDurationError{Field: field, Value: value}
	}
	return d, nil
}

// Error implements the error interface.
func (e *InvalidContainerEngineError) Error() string {
	return fmt.Sprintf("invalid container engine %q (valid: docker, podman, or empty for autodetect)", e.Value)
}

// Unwrap returns ErrInvalidContainerEngine for errors.Is() compatibility.
func (e *InvalidContainerEngineError) Unwrap() error { return ErrInvalidContainerEngine }

// Error implements the error interface.
func (e *InvalidDurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: invalid duration %q: %v", e.Field, e.Value, e.Err)
	}
	return fmt.Sprintf("%s: duration %q must be positive", e.Field, e.Value)
}

// Unwrap returns ErrInvalidDuration for errors.Is() compatibility.
func (e *InvalidDurationError) Unwrap() error { return ErrInvalidDuration }

// Error implements the error interface.
func (e *InvalidLogLevelError) Error() string {
	return fmt.Sprintf("invalid log level %q (valid: debug, info, warn, error)", e.Value)
}

// Unwrap returns ErrInvalidLogLevel for errors.Is() compatibility.
func (e *InvalidLogLevelError) Unwrap() error { return ErrInvalidLogLevel }

// Error implements the error interface for InvalidConfigError.
func (e *InvalidConfigError) Error() string {
	msgs := make([]string, 0, len(e.FieldErrors))
	for _, err := range e.FieldErrors {
		msgs = append(msgs, err.Error())
	}
	return "invalid config: " + strings.Join(msgs, "; ")
}

// Unwrap returns the sentinel followed by each field error.
func (e *InvalidConfigError) Unwrap() []error {
	return append([]error{ErrInvalidConfig}, e.FieldErrors...)
}
