// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/dockhand/dockhand/internal/config"

	"github.com/spf13/cobra"
)

// newConfigCommand creates the `dockhand config` command tree.
func newConfigCommand(app *App) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage dockhand configuration",
		Long: `Manage dockhand configuration.

Configuration is stored in:
  - Linux: ~/.config/dockhand/config.cue
  - macOS: ~/Library/Application Support/dockhand/config.cue
  - Windows: %APPDATA%\dockhand\config.cue

Every key can be overridden with a DOCKHAND_ environment variable, dots
replaced by underscores (DOCKHAND_WAIT_MAX_WAIT=30s).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.loadConfig(cmd)
			if err != nil {
				return app.fail(cmd, "load configuration", app.flags.configFile, err)
			}
			showConfig(app, cfg)
			return nil
		},
	})

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Create the default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, created, err := config.WriteDefault("", force)
			if err != nil {
				return app.fail(cmd, "write configuration", "", err)
			}
			if !created {
				app.printf("%s %s %s\n", WarningStyle.Render("exists:"), path, SubtitleStyle.Render("(use --force to overwrite)"))
				return nil
			}
			app.printf("%s %s\n", SuccessStyle.Render("created:"), path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing configuration file")
	cfgCmd.AddCommand(initCmd)

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show the configuration file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := app.flags.configFile
			if path == "" {
				var err error
				if path, err = config.DefaultPath(""); err != nil {
					return app.fail(cmd, "resolve configuration path", "", err)
				}
			}
			app.printf("%s\n", path)
			return nil
		},
	})

	var format string
	dumpCmd := &cobra.Command{
		Use:   "dump",
		Short: "Output the effective configuration as CUE, TOML or YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.loadConfig(cmd)
			if err != nil {
				return app.fail(cmd, "load configuration", app.flags.configFile, err)
			}

			switch format {
			case "cue":
				app.printf("%s", config.GenerateCUE(cfg.Config))
			case "toml":
				out, err := config.GenerateTOML(cfg.Config)
				if err != nil {
					return app.fail(cmd, "render configuration", "", err)
				}
				app.printf("%s", out)
			case "yaml":
				out, err := config.GenerateYAML(cfg.Config)
				if err != nil {
					return app.fail(cmd, "render configuration", "", err)
				}
				app.printf("%s", out)
			default:
				return app.fail(cmd, "render configuration", "", fmt.Errorf("unknown format %q (valid: cue, toml, yaml)", format))
			}
			return nil
		},
	}
	dumpCmd.Flags().StringVar(&format, "format", "cue", "output format: cue, toml or yaml")
	cfgCmd.AddCommand(dumpCmd)

	return cfgCmd
}

func showConfig(app *App, cfg *config.Loaded) {
	keyStyle := CmdStyle
	valueStyle := SuccessStyle

	app.printf("%s\n\n", TitleStyle.Render("Current Configuration"))

	if cfg.Path != "" {
		app.printf("%s: %s\n", keyStyle.Render("Config file"), cfg.Path)
	} else {
		app.printf("%s: %s\n", keyStyle.Render("Config file"), SubtitleStyle.Render("(using defaults)"))
	}
	app.printf("\n")

	app.printf("%s: %s\n", keyStyle.Render("container_engine"), valueStyle.Render(cfg.ContainerEngine.String()))
	app.printf("%s: %s\n", keyStyle.Render("ignore_container_errors"), valueStyle.Render(fmt.Sprint(cfg.IgnoreContainerErrors)))
	app.printf("%s: %s\n", keyStyle.Render("engine_in_engine"), valueStyle.Render(fmt.Sprint(cfg.EngineInEngine)))
	app.printf("%s: %s\n", keyStyle.Render("log_level"), valueStyle.Render(cfg.LogLevel))

	app.printf("\n%s:\n", keyStyle.Render("wait"))
	app.printf("  poll_interval: %s\n", valueStyle.Render(cfg.Wait.PollInterval))
	app.printf("  max_wait: %s\n", valueStyle.Render(cfg.Wait.MaxWait))

	app.printf("\n%s:\n", keyStyle.Render("metrics"))
	if cfg.Metrics.Textfile == "" {
		app.printf("  textfile: %s\n", SubtitleStyle.Render("(disabled)"))
	} else {
		app.printf("  textfile: %s\n", valueStyle.Render(cfg.Metrics.Textfile))
	}
}
