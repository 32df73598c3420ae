// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/dockhand/dockhand/internal/issue"

	"github.com/spf13/cobra"
)

func newExplainCommand(app *App) *cobra.Command {
	var style string

	cmd := &cobra.Command{
		Use:   "explain [KIND]",
		Short: "Explain an error kind and how to fix it",
		Long: `Explain an error kind and how to fix it.

Without arguments the known kinds are listed.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				app.printf("%s\n\n", TitleStyle.Render("Error kinds"))
				for _, entry := range issue.Values() {
					app.printf("  %s\n", CmdStyle.Render(entry.Slug()))
				}
				return nil
			}

			entry := issue.Lookup(args[0])
			if entry == nil {
				return app.fail(cmd, "explain", args[0], fmt.Errorf("unknown error kind %q (run 'dockhand explain' for the list)", args[0]))
			}
			rendered, err := entry.Render(style)
			if err != nil {
				return app.fail(cmd, "render explanation", args[0], err)
			}
			app.printf("%s", rendered)
			return nil
		},
	}

	cmd.Flags().StringVar(&style, "style", "", "glamour style: auto, dark, light, notty")
	return cmd
}
