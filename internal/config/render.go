// SPDX-License-Identifier: MPL-2.0

package config

import (
	"fmt"
	"strings"

	"cuelang.org/go/cue/errors"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// GenerateCUE generates a CUE representation of the configuration.
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// dockhand configuration file\n\n")

	sb.WriteString(fmt.Sprintf("container_engine: %q\n", string(cfg.ContainerEngine)))
	sb.WriteString(fmt.Sprintf("ignore_container_errors: %v\n", cfg.IgnoreContainerErrors))
	sb.WriteString(fmt.Sprintf("engine_in_engine: %v\n", cfg.EngineInEngine))
	sb.WriteString(fmt.Sprintf("log_level: %q\n", cfg.LogLevel))

	sb.WriteString("\nwait: {\n")
	sb.WriteString(fmt.Sprintf("\tpoll_interval: %q\n", cfg.Wait.PollInterval))
	sb.WriteString(fmt.Sprintf("\tmax_wait: %q\n", cfg.Wait.MaxWait))
	sb.WriteString("}\n")

	sb.WriteString("\nmetrics: {\n")
	sb.WriteString(fmt.Sprintf("\ttextfile: %q\n", cfg.Metrics.Textfile))
	sb.WriteString("}\n")

	return sb.String()
}

// GenerateTOML renders the configuration as TOML.
func GenerateTOML(cfg *Config) (string, error) {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("failed to render config as TOML: %w", err)
	}
	return string(data), nil
}

// GenerateYAML renders the configuration as YAML.
func GenerateYAML(cfg *Config) (string, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("failed to render config as YAML: %w", err)
	}
	return string(data), nil
}

// formatCUEError formats a CUE error with path prefixes:
//
//	config.cue: wait.max_wait: invalid value "soon" (does not match ...)
func formatCUEError(err error, filePath string) error {
	cueErrors := errors.Errors(err)
	if len(cueErrors) == 0 {
		return fmt.Errorf("%s: %w", filePath, err)
	}

	lines := make([]string, 0, len(cueErrors))
	for _, e := range cueErrors {
		pathStr := strings.Join(errors.Path(e), ".")
		msg := e.Error()

		// CUE sometimes includes the path in the message itself
		if pathStr != "" && strings.HasPrefix(msg, pathStr) {
			msg = strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(msg, pathStr), ":"))
		}

		if pathStr != "" {
			lines = append(lines, pathStr+": "+msg)
		} else {
			lines = append(lines, msg)
		}
	}

	if len(lines) == 1 {
		return fmt.Errorf("%s: %s", filePath, lines[0])
	}
	return fmt.Errorf("%s: validation failed:\n  %s", filePath, strings.Join(lines, "\n  "))
}
