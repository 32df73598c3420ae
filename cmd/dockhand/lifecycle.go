// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dockhand/dockhand/internal/container"

	"github.com/docker/go-units"
	"github.com/spf13/cobra"
)

// attachedImage fills the image of controllers built for commands that only
// address an existing container; those never start the image.
const attachedImage = "scratch"

// containerFlags are shared by start and run.
type containerFlags struct {
	name  string
	env   []string
	async bool
}

func (f *containerFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.name, "name", "", "container name (default dockhand-<uuid>)")
	cmd.Flags().StringArrayVarP(&f.env, "env", "e", nil, "set an environment variable (KEY=VALUE, repeatable)")
}

func newStartCommand(app *App) *cobra.Command {
	var (
		flags       containerFlags
		interactive bool
		waitFor     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "start IMAGE",
		Short: "Start a detached container",
		Long: `Start a detached container from IMAGE.

The container must not exist yet. With --wait the command also waits until the
container is running; with --async the start is dispatched in the background and
readiness is polled while the engine works.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.newSession(cmd)
			if err != nil {
				return app.fail(cmd, "start container", flags.name, err)
			}
			defer s.close()

			env, err := parseEnv(flags.env)
			if err != nil {
				return app.fail(cmd, "start container", flags.name, err)
			}
			c, err := s.controller(flags.name, args[0], env)
			if err != nil {
				return app.fail(cmd, "start container", flags.name, err)
			}

			ctx := cmd.Context()
			if flags.async {
				pending := c.StartAsync(ctx, interactive)
				// A failed start ends the readiness poll early.
				waitCtx, cancel := context.WithCancel(ctx)
				defer cancel()
				go func() {
					if pending.Wait() != nil {
						cancel()
					}
				}()
				ready, waitErr := c.WaitUntilReady(waitCtx, s.waitLimitOr(waitFor))
				if err := pending.Wait(); err != nil {
					return app.fail(cmd, "start container", c.Name(), err)
				}
				if waitErr != nil {
					return app.fail(cmd, "wait for container", c.Name(), waitErr)
				}
				return app.reportStart(cmd, c.Name(), ready)
			}

			if err := s.retry(ctx, func() error { return c.Start(ctx, interactive) }); err != nil {
				return app.fail(cmd, "start container", c.Name(), err)
			}
			if waitFor <= 0 {
				app.printf("%s %s\n", SuccessStyle.Render("started"), CmdStyle.Render(c.Name()))
				return nil
			}
			ready, err := c.WaitUntilReady(ctx, waitFor)
			if err != nil {
				return app.fail(cmd, "wait for container", c.Name(), err)
			}
			return app.reportStart(cmd, c.Name(), ready)
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&flags.async, "async", false, "dispatch the start in the background and poll for readiness")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "keep stdin open and allocate a TTY")
	cmd.Flags().DurationVar(&waitFor, "wait", 0, "wait up to this long for the container to be running")
	return cmd
}

// waitLimitOr returns d when positive, else the configured max wait.
func (s *session) waitLimitOr(d time.Duration) time.Duration {
	if d > 0 {
		return d
	}
	return s.maxWait
}

func (a *App) reportStart(cmd *cobra.Command, name string, ready bool) error {
	if !ready {
		a.printf("%s %s %s\n", WarningStyle.Render("started"), CmdStyle.Render(name), WarningStyle.Render("(not running yet)"))
		return a.exit(cmd, ExitGeneric)
	}
	a.printf("%s %s\n", SuccessStyle.Render("running"), CmdStyle.Render(name))
	return nil
}

func newRunCommand(app *App) *cobra.Command {
	var flags containerFlags

	cmd := &cobra.Command{
		Use:   "run IMAGE [-- COMMAND [ARG...]]",
		Short: "Run a command in a new auto-removing container",
		Long: `Run COMMAND (or the image's default command) in a new container that is
removed when it exits, and print its output.

With --async the run is dispatched in the background; dockhand waits until the
container is running, reports its name and then waits for completion.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.newSession(cmd)
			if err != nil {
				return app.fail(cmd, "run container", flags.name, err)
			}
			defer s.close()

			env, err := parseEnv(flags.env)
			if err != nil {
				return app.fail(cmd, "run container", flags.name, err)
			}
			c, err := s.controller(flags.name, args[0], env)
			if err != nil {
				return app.fail(cmd, "run container", flags.name, err)
			}

			ctx := cmd.Context()
			argv := args[1:]
			if flags.async {
				pending := c.RunArgsAsync(ctx, argv)
				if ready, _ := c.WaitUntilReady(ctx, s.maxWait); ready {
					app.printf("%s %s\n", SuccessStyle.Render("running"), CmdStyle.Render(c.Name()))
				}
				if err := pending.Wait(); err != nil {
					return app.fail(cmd, "run container", c.Name(), err)
				}
				return nil
			}

			var output string
			err = s.retry(ctx, func() error {
				var runErr error
				output, runErr = c.RunArgs(ctx, argv)
				return runErr
			})
			if err != nil {
				return app.fail(cmd, "run container", c.Name(), err)
			}
			printOutput(app, output)
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&flags.async, "async", false, "dispatch the run in the background and report when it is running")
	return cmd
}

func newStopCommand(app *App) *cobra.Command {
	var grace time.Duration

	cmd := &cobra.Command{
		Use:   "stop NAME",
		Short: "Stop a running container",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.withContainer(cmd, "stop container", args[0], func(s *session, c *container.Controller) error {
				if err := c.Stop(cmd.Context(), grace); err != nil {
					return err
				}
				app.printf("%s %s\n", SuccessStyle.Render("stopped"), CmdStyle.Render(c.Name()))
				return nil
			})
		},
	}

	cmd.Flags().DurationVarP(&grace, "time", "t", 0, "grace period before the engine kills the container (default engine setting)")
	return cmd
}

func newKillCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "kill NAME",
		Short: "Kill a running container",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.withContainer(cmd, "kill container", args[0], func(s *session, c *container.Controller) error {
				if err := c.Kill(cmd.Context()); err != nil {
					return err
				}
				app.printf("%s %s\n", SuccessStyle.Render("killed"), CmdStyle.Render(c.Name()))
				return nil
			})
		},
	}
}

func newRemoveCommand(app *App) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:     "rm NAME",
		Aliases: []string{"remove"},
		Short:   "Remove a container",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.withContainer(cmd, "remove container", args[0], func(s *session, c *container.Controller) error {
				if err := c.Remove(cmd.Context(), force); err != nil {
					return err
				}
				app.printf("%s %s\n", SuccessStyle.Render("removed"), CmdStyle.Render(c.Name()))
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "remove a running container")
	return cmd
}

func newExecCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "exec NAME -- COMMAND [ARG...]",
		Short: "Execute a command in a running container",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.withContainer(cmd, "execute in container", args[0], func(s *session, c *container.Controller) error {
				output, err := c.ExecuteArgs(cmd.Context(), args[1:])
				if err != nil {
					return err
				}
				printOutput(app, output)
				return nil
			})
		},
	}
}

func newLogsCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logs NAME",
		Short: "Print the logs of a container",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.withContainer(cmd, "read logs of", args[0], func(s *session, c *container.Controller) error {
				output, err := c.Logs(cmd.Context())
				if err != nil {
					return err
				}
				printOutput(app, output)
				return nil
			})
		},
	}
}

func newStatusCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "status NAME",
		Short: "Show the lifecycle state of a container",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.withContainer(cmd, "inspect container", args[0], func(s *session, c *container.Controller) error {
				ctx := cmd.Context()
				state, err := c.State(ctx)
				if err != nil {
					return err
				}
				label := state.String()
				if state == container.StateRunning {
					if paused, err := c.Paused(ctx); err == nil && paused {
						label += " (paused)"
					}
				}
				style := stateStyle(state == container.StateRunning, state != container.StateUnmaterialized)
				app.printf("%s: %s\n", CmdStyle.Render(c.Name()), style.Render(label))
				return nil
			})
		},
	}
}

func newWaitCommand(app *App) *cobra.Command {
	var condition string

	cmd := &cobra.Command{
		Use:   "wait NAME",
		Short: "Wait for a container to reach a condition",
		Long: `Wait for a container to reach a condition by polling the engine.

Conditions: ` + conditionList() + `

The command exits with status 1 when the condition is not met within the timeout.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.withContainer(cmd, "wait for container", args[0], func(s *session, c *container.Controller) error {
				limit := s.waitLimit(cmd, "timeout")
				start := time.Now()
				met, err := c.WaitFor(cmd.Context(), container.Condition(condition), limit)
				if err != nil {
					return err
				}
				elapsed := units.HumanDuration(time.Since(start))
				if !met {
					app.printf("%s %s %s within %s\n", WarningStyle.Render("timed out:"), CmdStyle.Render(c.Name()),
						condition, units.HumanDuration(limit))
					return &ExitError{Code: ExitGeneric}
				}
				app.printf("%s %s %s after %s\n", SuccessStyle.Render("met:"), CmdStyle.Render(c.Name()), condition,
					strings.ToLower(elapsed))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&condition, "for", string(container.ConditionReady), "condition to wait for: "+conditionList())
	cmd.Flags().Duration("timeout", 0, "maximum time to wait (default wait.max_wait)")
	return cmd
}

// exit returns a bare ExitError for outcomes that were already reported.
func (a *App) exit(cmd *cobra.Command, code int) error {
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true
	return &ExitError{Code: code}
}

// withContainer runs fn against a controller addressing the existing container name.
func (a *App) withContainer(cmd *cobra.Command, op, name string, fn func(*session, *container.Controller) error) error {
	s, err := a.newSession(cmd)
	if err != nil {
		return a.fail(cmd, op, name, err)
	}
	defer s.close()

	c, err := s.controller(name, attachedImage, nil)
	if err != nil {
		return a.fail(cmd, op, name, err)
	}
	if err := fn(s, c); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) && exitErr.Err == nil {
			return a.exit(cmd, exitErr.Code)
		}
		return a.fail(cmd, op, name, err)
	}
	return nil
}

func conditionList() string {
	names := make([]string, 0, len(container.Conditions))
	for _, c := range container.Conditions {
		names = append(names, string(c))
	}
	return strings.Join(names, ", ")
}

func printOutput(app *App, output string) {
	if output == "" {
		return
	}
	app.printf("%s\n", output)
}
