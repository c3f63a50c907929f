// Package config resolves the option set for a single foreman invocation.
//
// Options come from two sources: the flags given on the command line and an
// optional persisted defaults file (".foreman" in the working directory, or
// the path in $FOREMAN_DEFAULTS) written as YAML, JSON with comments, or
// TOML.
// The defaults file supplies values only for keys the invocation leaves
// unset. A defaults file that exists but cannot be parsed is an error; the
// cli package reports it like every other fatal condition.
package config
