// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/dockhand/dockhand/internal/issue"

	"github.com/pelletier/go-toml/v2"
)

// isolated returns options that never touch the user's real config or environment.
func isolated(t *testing.T) LoadOptions {
	t.Helper()
	return LoadOptions{ConfigDirPath: t.TempDir(), Env: []string{}}
}

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, ConfigFileName+"."+ConfigFileExt)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()

	if cfg.ContainerEngine != ContainerEngineAuto {
		t.Errorf("expected default container engine to be autodetect, got %q", cfg.ContainerEngine)
	}
	if cfg.IgnoreContainerErrors {
		t.Error("expected ignore_container_errors to be false by default")
	}
	if cfg.EngineInEngine {
		t.Error("expected engine_in_engine to be false by default")
	}
	if cfg.Wait.PollInterval != "100ms" || cfg.Wait.MaxWait != "10s" {
		t.Errorf("unexpected wait defaults: %+v", cfg.Wait)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("expected default log level info, got %q", cfg.LogLevel)
	}
	if valid, errs := cfg.IsValid(); !valid {
		t.Errorf("default config should be valid, got %v", errs)
	}
}

func TestConfigDir(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG resolution is Linux-specific")
	}

	testXDGPath := filepath.Join(t.TempDir(), "xdg")
	t.Setenv("XDG_CONFIG_HOME", testXDGPath)

	dir, err := ConfigDir()
	if err != nil {
		t.Fatalf("ConfigDir() returned error: %v", err)
	}
	if expected := filepath.Join(testXDGPath, AppName); dir != expected {
		t.Errorf("ConfigDir() = %s, want %s", dir, expected)
	}

	t.Setenv("XDG_CONFIG_HOME", "")
	dir, err = ConfigDir()
	if err != nil {
		t.Fatalf("ConfigDir() returned error: %v", err)
	}
	home, _ := os.UserHomeDir()
	if expected := filepath.Join(home, ".config", AppName); dir != expected {
		t.Errorf("ConfigDir() = %s, want %s", dir, expected)
	}
}

func TestLoad_ReturnsDefaultsWhenNoConfigFile(t *testing.T) {
	t.Parallel()

	loaded, err := NewProvider().Load(t.Context(), isolated(t))
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if loaded.Path != "" {
		t.Errorf("Path = %q, want empty", loaded.Path)
	}
	if *loaded.Config != *DefaultConfig() {
		t.Errorf("Load() = %+v, want defaults %+v", *loaded.Config, *DefaultConfig())
	}
}

func TestLoad_MergesFileOverDefaults(t *testing.T) {
	t.Parallel()

	opts := isolated(t)
	path := writeConfig(t, opts.ConfigDirPath, `container_engine: "podman"
ignore_container_errors: true
wait: max_wait: "30s"
`)

	loaded, err := NewProvider().Load(t.Context(), opts)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if loaded.Path != path {
		t.Errorf("Path = %q, want %q", loaded.Path, path)
	}
	if loaded.ContainerEngine != ContainerEnginePodman {
		t.Errorf("ContainerEngine = %q, want podman", loaded.ContainerEngine)
	}
	if !loaded.IgnoreContainerErrors {
		t.Error("IgnoreContainerErrors = false, want true")
	}
	if loaded.Wait.MaxWait != "30s" {
		t.Errorf("Wait.MaxWait = %q, want 30s", loaded.Wait.MaxWait)
	}
	if loaded.Wait.PollInterval != DefaultPollInterval {
		t.Errorf("Wait.PollInterval = %q, want default %q", loaded.Wait.PollInterval, DefaultPollInterval)
	}
}

func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	t.Parallel()

	opts := isolated(t)
	writeConfig(t, opts.ConfigDirPath, `log_level: "warn"
wait: max_wait: "30s"
`)
	opts.Env = []string{
		"DOCKHAND_WAIT_MAX_WAIT=1m",
		"DOCKHAND_ENGINE_IN_ENGINE=true",
		"UNRELATED=1",
	}

	loaded, err := NewProvider().Load(t.Context(), opts)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if loaded.Wait.MaxWait != "1m" {
		t.Errorf("Wait.MaxWait = %q, want 1m", loaded.Wait.MaxWait)
	}
	if !loaded.EngineInEngine {
		t.Error("EngineInEngine = false, want true")
	}
	if loaded.LogLevel != "warn" {
		t.Errorf("LogLevel = %q, want warn from file", loaded.LogLevel)
	}
}

func TestLoad_InvalidEnvironmentOverride(t *testing.T) {
	t.Parallel()

	opts := isolated(t)
	opts.Env = []string{"DOCKHAND_LOG_LEVEL=loud", "DOCKHAND_CONTAINER_ENGINE=lxc"}

	_, err := NewProvider().Load(t.Context(), opts)
	if err == nil {
		t.Fatal("expected Load() to reject invalid environment overrides")
	}
	if !errors.Is(err, ErrInvalidLogLevel) {
		t.Errorf("errors.Is(err, ErrInvalidLogLevel) = false for %v", err)
	}
	if !errors.Is(err, ErrInvalidContainerEngine) {
		t.Errorf("errors.Is(err, ErrInvalidContainerEngine) = false for %v", err)
	}
	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("errors.Is(err, ErrInvalidConfig) = false for %v", err)
	}
}

func TestLoad_SchemaViolations(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		wantMsg string
	}{
		{"wrong type", `container_engine: 123`, "container_engine"},
		{"unknown engine", `container_engine: "lxc"`, "container_engine"},
		{"bad duration", `wait: max_wait: "soon"`, "wait.max_wait"},
		{"bad level", `log_level: "trace"`, "log_level"},
		{"unknown key", `restart_policy: "always"`, "restart_policy"},
		{"syntax error", `wait: {`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			opts := isolated(t)
			path := writeConfig(t, opts.ConfigDirPath, tt.content)

			_, err := NewProvider().Load(t.Context(), opts)
			if err == nil {
				t.Fatal("expected Load() to return error")
			}

			var ae *issue.ActionableError
			if !errors.As(err, &ae) {
				t.Fatalf("expected *issue.ActionableError, got %T", err)
			}
			if ae.Operation != "load configuration" {
				t.Errorf("Operation = %q, want 'load configuration'", ae.Operation)
			}
			if ae.Resource != path {
				t.Errorf("Resource = %q, want %q", ae.Resource, path)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error should mention %q, got: %v", tt.wantMsg, err)
			}
		})
	}
}

func TestLoad_CustomPath(t *testing.T) {
	t.Parallel()

	t.Run("valid", func(t *testing.T) {
		t.Parallel()

		opts := isolated(t)
		custom := filepath.Join(t.TempDir(), "custom-config.cue")
		if err := os.WriteFile(custom, []byte(`container_engine: "docker"`), 0o644); err != nil {
			t.Fatal(err)
		}
		// A file in the config dir must be ignored when an explicit path is set.
		writeConfig(t, opts.ConfigDirPath, `container_engine: "podman"`)
		opts.ConfigFilePath = custom

		loaded, err := NewProvider().Load(t.Context(), opts)
		if err != nil {
			t.Fatalf("Load() returned error: %v", err)
		}
		if loaded.ContainerEngine != ContainerEngineDocker {
			t.Errorf("ContainerEngine = %q, want docker", loaded.ContainerEngine)
		}
		if loaded.Path != custom {
			t.Errorf("Path = %q, want %q", loaded.Path, custom)
		}
	})

	t.Run("not found", func(t *testing.T) {
		t.Parallel()

		opts := isolated(t)
		opts.ConfigFilePath = filepath.Join(t.TempDir(), "missing.cue")

		_, err := NewProvider().Load(t.Context(), opts)
		if err == nil {
			t.Fatal("expected Load() to return error for non-existent config file")
		}
		if !strings.Contains(err.Error(), "config file not found") {
			t.Errorf("error should contain 'config file not found', got: %v", err)
		}

		var ae *issue.ActionableError
		if !errors.As(err, &ae) {
			t.Fatal("expected error to be *issue.ActionableError")
		}
		if !ae.HasSuggestions() {
			t.Error("expected ActionableError to have suggestions")
		}
	})
}

func TestLoad_Canceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	if _, err := NewProvider().Load(ctx, isolated(t)); !errors.Is(err, context.Canceled) {
		t.Errorf("Load() error = %v, want context.Canceled", err)
	}
}

func TestWriteDefault(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "nested", AppName)

	path, created, err := WriteDefault(dir, false)
	if err != nil {
		t.Fatalf("WriteDefault() returned error: %v", err)
	}
	if !created {
		t.Error("first WriteDefault() should create the file")
	}
	if path != filepath.Join(dir, "config.cue") {
		t.Errorf("path = %q", path)
	}

	// The generated file must pass the schema and load back as the defaults.
	loaded, err := NewProvider().Load(t.Context(), LoadOptions{ConfigDirPath: dir, Env: []string{}})
	if err != nil {
		t.Fatalf("Load() of generated config returned error: %v", err)
	}
	if *loaded.Config != *DefaultConfig() {
		t.Errorf("round trip = %+v, want %+v", *loaded.Config, *DefaultConfig())
	}

	if err := os.WriteFile(path, []byte(`log_level: "debug"`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, created, err := WriteDefault(dir, false); err != nil || created {
		t.Errorf("second WriteDefault() = created %v, err %v; want existing file kept", created, err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != `log_level: "debug"` {
		t.Errorf("existing config was overwritten: %q", data)
	}

	if _, created, err := WriteDefault(dir, true); err != nil || !created {
		t.Errorf("forced WriteDefault() = created %v, err %v; want rewrite", created, err)
	}
	data, _ = os.ReadFile(path)
	if string(data) != GenerateCUE(DefaultConfig()) {
		t.Errorf("forced WriteDefault() did not restore defaults: %q", data)
	}
}

func TestGenerateTOML(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.ContainerEngine = ContainerEnginePodman
	cfg.Metrics.Textfile = "/var/lib/node_exporter/dockhand.prom"

	out, err := GenerateTOML(cfg)
	if err != nil {
		t.Fatalf("GenerateTOML() returned error: %v", err)
	}
	if !strings.Contains(out, "[wait]") || !strings.Contains(out, "[metrics]") {
		t.Errorf("expected wait and metrics tables, got:\n%s", out)
	}

	var decoded Config
	if err := toml.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("generated TOML does not parse: %v", err)
	}
	if decoded != *cfg {
		t.Errorf("decoded = %+v, want %+v", decoded, *cfg)
	}
}

func TestGenerateCUE(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.EngineInEngine = true
	out := GenerateCUE(cfg)

	for _, want := range []string{`container_engine: ""`, "engine_in_engine: true", `max_wait: "10s"`} {
		if !strings.Contains(out, want) {
			t.Errorf("GenerateCUE() missing %q:\n%s", want, out)
		}
	}
}

func TestGenerateYAML(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.IgnoreContainerErrors = true

	out, err := GenerateYAML(cfg)
	if err != nil {
		t.Fatalf("GenerateYAML() returned error: %v", err)
	}
	for _, want := range []string{"ignore_container_errors: true", "wait:\n    poll_interval: 100ms\n    max_wait: 10s", "log_level: info"} {
		if !strings.Contains(out, want) {
			t.Errorf("GenerateYAML() missing %q:\n%s", want, out)
		}
	}
}
