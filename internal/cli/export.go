// export.go implements the "foreman export" command.
//
// The command renders the Procfile into an init-system configuration
// format. The format must be one of the registered formatters; the
// optional location is handed to the formatter unchanged.

package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/foreman/internal/export"
	"github.com/mmr-tortoise/foreman/internal/model"
)

// NewExportCommand creates the "export" cobra command.
func NewExportCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <format> [location]",
		Short: "Export the application to another process management format",
		Long: fmt.Sprintf(`Export the Procfile to an init-system configuration format.

Supported formats: %s.

Examples:
  foreman export inittab
  foreman export upstart /etc/init -a blog -u deploy`, strings.Join(export.Formats(), ", ")),

		Args: cobra.RangeArgs(1, 2),

		RunE: func(cmd *cobra.Command, args []string) error {
			location := ""
			if len(args) == 2 {
				location = args[1]
			}
			return runExport(app, cmd, args[0], location)
		},
	}

	cmd.Flags().StringP("app", "a", "", "Application name (default: Procfile directory name)")
	cmd.Flags().StringP("log", "l", "", "Log directory (default /var/log/<app>)")
	cmd.Flags().IntP("port", "p", 0, "Base port (default 5000)")
	cmd.Flags().StringP("user", "u", "", "User to run processes as (default: app name)")
	cmd.Flags().StringP("concurrency", "c", "", "Instances per process, e.g. web=2,worker=1")

	return cmd
}

// runExport validates the format, then builds the formatter and runs it.
// Export-specific failures are reported with the formatter's own message.
func runExport(app *App, cmd *cobra.Command, format, location string) error {
	opts, path, err := app.locate(cmd, model.CommandExport)
	if err != nil {
		return err
	}

	factory, ok := app.LookupFormat(format)
	if !ok {
		return model.NewCLIError(model.ExitGeneralError,
			fmt.Sprintf("Unknown export format: %s.", format))
	}

	eng, err := app.loadEngine(path)
	if err != nil {
		return err
	}

	VerboseLog("exporting %s to %q", format, location)
	if err := factory(eng, app.Stdout).Export(location, opts); err != nil {
		var exportErr *export.Error
		if errors.As(err, &exportErr) {
			return model.NewCLIError(model.ExitGeneralError, exportErr.Message)
		}
		return err
	}
	return nil
}
