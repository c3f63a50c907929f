// Package model defines the value types shared across the foreman CLI.
//
// OptionSet is the canonical, string-keyed option map produced by the
// config resolver and consumed by the command router and collaborators.
// Command names the operations the router can dispatch to. ExitCode and
// CLIError carry failures up to the single process-exit point.
//
// The package has no dependencies outside the standard library.
package model
