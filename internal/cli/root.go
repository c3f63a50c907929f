// Package cli implements the cobra-based CLI commands for foreman.
//
// Each subcommand (start, restart, export, check) is defined in its own
// file within this package. This file defines the root command that serves
// as the parent for all subcommands, the collaborators a command runs
// against, and the single dispatcher that turns a command's error into an
// exit code.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/mmr-tortoise/foreman/internal/config"
	"github.com/mmr-tortoise/foreman/internal/engine"
	"github.com/mmr-tortoise/foreman/internal/export"
	"github.com/mmr-tortoise/foreman/internal/model"
	"github.com/mmr-tortoise/foreman/internal/procfile"
)

// Global flag variables shared across all subcommands.
// These are bound to cobra persistent flags on the root command,
// which makes them available to every subcommand automatically.
var (
	// verbose enables detailed logging output for debugging.
	// When true, debug-level events are written to stderr.
	verbose bool

	// logger receives VerboseLog output and engine lifecycle events.
	// It is replaced in the root command's PersistentPreRun once the
	// --verbose flag has been parsed.
	logger = zerolog.Nop()
)

// version, commit, and date are set at build time via ldflags.
// They are injected from the main package to display version information.
var (
	// Version is the semantic version of the binary (e.g., "1.0.0").
	Version = "dev"

	// Commit is the Git commit hash the binary was built from.
	Commit = "none"

	// Date is the build timestamp.
	Date = "unknown"
)

// Engine is the lifecycle collaborator the commands dispatch to. It is
// also the manifest context handed to export formatters.
type Engine interface {
	export.Manifest
	ProcessNames() []string
	Start(ctx context.Context, opts model.OptionSet) error
	Execute(ctx context.Context, name string, opts model.OptionSet) error
	Restart(ctx context.Context, name string) error
}

// App holds the streams and collaborators one invocation runs with.
// Tests replace NewEngine and LookupFormat with fakes.
type App struct {
	// Stdout receives success messages, error messages and process output.
	Stdout io.Writer

	// Stderr receives log output.
	Stderr io.Writer

	// DefaultsPath is the persisted defaults file merged beneath flags.
	DefaultsPath string

	// NewEngine builds the lifecycle collaborator for a Procfile path.
	NewEngine func(path string) (Engine, error)

	// LookupFormat resolves an export format name to its formatter factory.
	LookupFormat func(format string) (export.Factory, bool)
}

// NewApp returns an App wired to the real engine and export registry.
func NewApp(stdout, stderr io.Writer) *App {
	app := &App{
		Stdout:       stdout,
		Stderr:       stderr,
		DefaultsPath: config.DefaultsPath(),
		LookupFormat: export.Lookup,
	}
	app.NewEngine = func(path string) (Engine, error) {
		eng, err := engine.New(path, engine.WithLogger(logger), engine.WithOutput(app.Stdout))
		if err != nil {
			return nil, err
		}
		return eng, nil
	}
	return app
}

// NewRootCommand creates and configures the root cobra command.
// This is the entry point for the entire CLI application.
//
// The root command itself does not perform any action. It only provides
// help text and global flags; subcommands do the work.
func NewRootCommand(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "foreman",
		Short: "Manage Procfile-based applications",
		Long: `foreman runs the processes declared in a Procfile, restarts them,
and exports them to init-system configuration.

Option defaults may be kept in a .foreman file in the working directory
(or the file named by $FOREMAN_DEFAULTS). Flags given on the command line
always take precedence over the file.`,

		// SilenceUsage prevents cobra from printing usage on every error.
		SilenceUsage: true,

		// SilenceErrors prevents cobra from printing errors automatically.
		// Execute reports them in the ERROR: form.
		SilenceErrors: true,

		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date),

		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger = newLogger(app.Stderr, verbose)
		},
	}
	rootCmd.SetOut(app.Stdout)
	rootCmd.SetErr(app.Stderr)

	rootCmd.PersistentFlags().StringP("procfile", "f", "", "Procfile path (default \"Procfile\")")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")

	rootCmd.AddCommand(NewStartCommand(app))
	rootCmd.AddCommand(NewRestartCommand(app))
	rootCmd.AddCommand(NewExportCommand(app))
	rootCmd.AddCommand(NewCheckCommand(app))

	return rootCmd
}

// Execute runs the root command and returns the process exit code.
// This is the main entry point called from main.go, and the only place a
// command's failure is reported.
//
// CLIError types carry their own exit codes; other errors, including cobra
// usage errors, map to exit code 1.
func Execute(ctx context.Context, rootCmd *cobra.Command, out io.Writer) int {
	err := rootCmd.ExecuteContext(ctx)
	if err == nil {
		return int(model.ExitSuccess)
	}

	printError(out, err)

	var cliErr *model.CLIError
	if errors.As(err, &cliErr) {
		return int(cliErr.Code)
	}
	return int(model.ExitGeneralError)
}

// printError writes the single-line "ERROR: <message>" form to out.
func printError(out io.Writer, err error) {
	_, _ = fmt.Fprintf(out, "ERROR: %s\n", err)
}

// display writes a success message to stdout.
func (a *App) display(format string, args ...any) {
	_, _ = fmt.Fprintf(a.Stdout, format+"\n", args...)
}

// VerboseLog writes a debug message to stderr, visible only when verbose
// mode is enabled.
func VerboseLog(format string, args ...any) {
	logger.Debug().Msgf(format, args...)
}

func newLogger(w io.Writer, verbose bool) zerolog.Logger {
	level := zerolog.WarnLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	output := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.TimeOnly,
	}
	return zerolog.New(output).Level(level).With().Timestamp().Logger()
}

// options resolves the invocation's option set: flags the user actually
// set on the command line, merged over the persisted defaults.
func (a *App) options(cmd *cobra.Command) (model.OptionSet, error) {
	raw := map[string]any{}
	// Visit walks only the flags set on the command line. A flag left at
	// its zero default must not shadow the value stored in the defaults
	// file.
	cmd.Flags().Visit(func(f *pflag.Flag) {
		switch f.Name {
		case "verbose", "help", "version":
			// Control the CLI itself, never persisted.
			return
		}
		// Keep int flags typed so OptionSet.Int reads them without going
		// through a string round trip.
		if f.Value.Type() == "int" {
			if n, err := cmd.Flags().GetInt(f.Name); err == nil {
				raw[f.Name] = n
				return
			}
		}
		raw[f.Name] = f.Value.String()
	})

	opts, err := config.Resolve(model.NewOptionSet(raw), a.DefaultsPath)
	if err != nil {
		return nil, model.NewCLIError(model.ExitGeneralError, err.Error())
	}
	VerboseLog("resolved options: %v", opts)
	return opts, nil
}

// procfilePath returns the Procfile the invocation refers to.
func procfilePath(opts model.OptionSet) string {
	if p := opts.String("procfile"); p != "" {
		return p
	}
	return procfile.DefaultName
}

// checkProcfile fails when the Procfile does not exist. It runs before any
// collaborator is constructed.
func checkProcfile(path string) error {
	if _, err := os.Stat(path); err != nil {
		return model.NewCLIError(model.ExitGeneralError, fmt.Sprintf("%s does not exist.", path))
	}
	return nil
}

// locate resolves the options and the Procfile path for the command kind,
// checking that the Procfile exists.
func (a *App) locate(cmd *cobra.Command, kind model.Command) (model.OptionSet, string, error) {
	opts, err := a.options(cmd)
	if err != nil {
		return nil, "", err
	}
	path := procfilePath(opts)
	if err := checkProcfile(path); err != nil {
		return nil, "", err
	}
	VerboseLog("%s: using procfile %s", kind, path)
	return opts, path, nil
}

// loadEngine builds the lifecycle collaborator for path.
func (a *App) loadEngine(path string) (Engine, error) {
	eng, err := a.NewEngine(path)
	if err != nil {
		return nil, model.WrapCLIError(model.ExitGeneralError, "invalid procfile", err)
	}
	return eng, nil
}
