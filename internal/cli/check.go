// check.go implements the "foreman check" command.

package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/foreman/internal/model"
)

// NewCheckCommand creates the "check" cobra command.
func NewCheckCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate the Procfile",
		Args:  cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			_, path, err := app.locate(cmd, model.CommandCheck)
			if err != nil {
				return err
			}
			eng, err := app.loadEngine(path)
			if err != nil {
				return err
			}

			names := eng.ProcessNames()
			if len(names) == 0 {
				return model.NewCLIError(model.ExitGeneralError, "no processes defined")
			}
			app.display("valid procfile detected (%s)", strings.Join(names, ", "))
			return nil
		},
	}

	return cmd
}
