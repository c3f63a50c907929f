// start.go implements the "foreman start" command.
//
// Without an argument every process type in the Procfile is started with
// its configured concurrency and supervised until one of them exits or the
// command is interrupted. With a process name only that process type is
// run, as a single instance in the foreground.

package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/foreman/internal/model"
)

// NewStartCommand creates the "start" cobra command.
// It is called from NewRootCommand to register as a subcommand.
func NewStartCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start [process]",
		Short: "Start the application, or a single process",
		Long: `Start every process declared in the Procfile, or only the named one.

Each instance gets $PORT assigned from the base port: the first process
type uses base, base+1, ... for its instances, the second base+100, and
so on.

Examples:
  foreman start
  foreman start -c web=2,worker=1 -p 3000
  foreman start web`,

		// Zero or one positional argument (process name).
		Args: cobra.MaximumNArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			kind := model.CommandStart
			if len(args) == 1 {
				kind = model.CommandExecute
			}
			opts, path, err := app.locate(cmd, kind)
			if err != nil {
				return err
			}
			eng, err := app.loadEngine(path)
			if err != nil {
				return err
			}
			if kind == model.CommandExecute {
				return runExecute(cmd.Context(), eng, args[0], opts)
			}
			return runStart(cmd.Context(), eng, opts)
		},
	}

	cmd.Flags().StringP("env", "e", "", "Environment file to load (default \".env\")")
	cmd.Flags().IntP("port", "p", 0, "Base port (default 5000)")
	cmd.Flags().StringP("concurrency", "c", "", "Instances per process, e.g. web=2,worker=1")

	return cmd
}

// runStart starts every process type and blocks until the run ends.
func runStart(ctx context.Context, eng Engine, opts model.OptionSet) error {
	VerboseLog("starting processes: %v", eng.ProcessNames())
	return eng.Start(ctx, opts)
}

// runExecute runs a single process type in the foreground.
func runExecute(ctx context.Context, eng Engine, name string, opts model.OptionSet) error {
	VerboseLog("executing process %q", name)
	return eng.Execute(ctx, name, opts)
}
