// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"github.com/dockhand/dockhand/internal/container"

	"github.com/spf13/cobra"
)

func newEngineCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "engine",
		Short: "Show which container engine is used and whether it is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.newSession(cmd)
			if err != nil {
				return app.fail(cmd, "select container engine", "", err)
			}
			defer s.close()

			ctx := cmd.Context()
			probe := s.probe

			app.printf("%s\n\n", TitleStyle.Render("Container Engine"))
			app.printf("%s: %s\n", CmdStyle.Render("engine"), probe.Engine())
			app.printf("%s: %s\n", CmdStyle.Render("binary"), probe.Binary())

			if !probe.EngineReachable(ctx) {
				app.printf("%s: %s\n", CmdStyle.Render("reachable"), ErrorStyle.Render("no"))
				return app.fail(cmd, "reach container engine", string(probe.Engine()),
					&container.EngineUnavailableError{Engine: probe.Engine()})
			}
			app.printf("%s: %s\n", CmdStyle.Render("reachable"), SuccessStyle.Render("yes"))

			version, err := probe.Version(ctx)
			if err != nil {
				s.logger.Warn("failed to read engine version", "err", err)
				app.printf("%s: %s\n", CmdStyle.Render("version"), SubtitleStyle.Render("(unknown)"))
				return nil
			}
			app.printf("%s: %s\n", CmdStyle.Render("version"), version)
			return nil
		},
	}
}
