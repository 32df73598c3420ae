// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// NewRootCommand builds the dockhand command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "dockhand",
		Short: "Drive a single container through the docker or podman CLI",
		Long: TitleStyle.Render("dockhand") + SubtitleStyle.Render(" - Drive a single container through the docker or podman CLI") + `

dockhand starts, runs, stops, kills and removes one named container at a
time by invoking the engine CLI, and waits for lifecycle conditions by
polling the engine.

` + SubtitleStyle.Render("Examples:") + `
  dockhand start nginx:1.27 --name web --wait 10s
  dockhand exec web -- nginx -v
  dockhand wait web --for removed --timeout 30s
  dockhand run debian:stable-slim -- echo hello
  dockhand engine`,
		SilenceUsage: true,
	}

	rootCmd.SetOut(app.stdout)
	rootCmd.SetErr(app.stderr)

	// Global flags
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&app.flags.configFile, "config", "", "config file (default is $XDG_CONFIG_HOME/dockhand/config.cue)")
	flags.StringVar(&app.flags.engine, "engine", "", "container engine to use: docker or podman (default autodetect)")
	flags.BoolVar(&app.flags.ignoreErrors, "ignore-errors", false, "log engine stderr from exec, logs and stop as warnings instead of failing")
	flags.BoolVar(&app.flags.engineInEngine, "engine-in-engine", false, "give started containers access to the host engine")
	flags.StringVar(&app.flags.logLevel, "log-level", "", "log level: debug, info, warn or error")
	flags.BoolVarP(&app.flags.verbose, "verbose", "v", false, "enable verbose output")
	flags.IntVar(&app.flags.retries, "retries", 0, "retry start and run this many times on transient engine failures")
	flags.StringVar(&app.flags.metricsFile, "metrics-file", "", "write Prometheus metrics to this textfile on exit")

	rootCmd.AddCommand(
		newStartCommand(app),
		newRunCommand(app),
		newStopCommand(app),
		newKillCommand(app),
		newRemoveCommand(app),
		newExecCommand(app),
		newLogsCommand(app),
		newStatusCommand(app),
		newWaitCommand(app),
		newEngineCommand(app),
		newConfigCommand(app),
		newExplainCommand(app),
	)

	return rootCmd
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute builds the command tree and runs it. This is called by main.main().
func Execute() {
	rootCmd := NewRootCommand(NewApp(Dependencies{}))

	// Pass version via fang.WithVersion() since fang overrides rootCmd.Version
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}
