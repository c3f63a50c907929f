// Package main is the entry point for the foreman CLI.
//
// This binary runs, restarts and exports the processes declared in a
// Procfile. It delegates all functionality to the internal/cli package,
// which defines cobra commands.
//
// Build-time variables (version, commit, date) are injected via ldflags
// during the release process. During development, they default to "dev",
// "none", and "unknown" respectively.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/mmr-tortoise/foreman/internal/cli"
)

// version, commit, and date are set at build time via ldflags.
// They provide binary identification for the --version flag output.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	// Inject build-time version info into the CLI package.
	cli.Version = version
	cli.Commit = commit
	cli.Date = date

	// Interrupts cancel the context; the engine stops its processes and
	// returns, so the exit below is still the only one.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	app := cli.NewApp(os.Stdout, os.Stderr)
	code := cli.Execute(ctx, cli.NewRootCommand(app), os.Stdout)
	stop()
	os.Exit(code)
}
