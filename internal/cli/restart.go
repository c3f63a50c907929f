// restart.go implements the "foreman restart" command.
//
// The command signals the running instances of one process type, which
// were recorded by a "foreman start" running in another terminal.

package cli

import (
	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/foreman/internal/model"
)

// NewRestartCommand creates the "restart" cobra command.
func NewRestartCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "restart <process>",
		Short: "Restart the running instances of a process",
		Long: `Send SIGHUP to every running instance of the named process type.

Examples:
  foreman restart web`,

		// Exactly one positional argument (process name) is required.
		Args: cobra.ExactArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			_, path, err := app.locate(cmd, model.CommandRestart)
			if err != nil {
				return err
			}
			eng, err := app.loadEngine(path)
			if err != nil {
				return err
			}
			VerboseLog("restarting process %q", args[0])
			return eng.Restart(cmd.Context(), args[0])
		},
	}

	return cmd
}
