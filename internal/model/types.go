// Package model defines the domain types for the foreman CLI.
//
// All values in this package are built fresh for every invocation: the
// resolved OptionSet, the command being dispatched, and the CLIError that
// carries a failure up to the single exit point in the cli package.
package model

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// OptionSet maps canonical option names to their values.
//
// Values are strings or ints; an absent key means the option was not
// supplied by any source. Keys are always stored in canonical form (see
// CanonicalKey), so callers may look up "port", ":port" or "Port" and get
// the same answer.
type OptionSet map[string]any

// CanonicalKey normalizes an option name to the single representation used
// as a map key: leading colons stripped, lower-cased, dashes turned into
// underscores.
//
//	":port"  → "port"
//	"Log-Dir" → "log_dir"
func CanonicalKey(key string) string {
	key = strings.TrimSpace(key)
	key = strings.TrimLeft(key, ":")
	key = strings.ToLower(key)
	return strings.ReplaceAll(key, "-", "_")
}

// NewOptionSet builds an OptionSet from an arbitrary map, canonicalizing
// every key. Nil values are dropped. When two raw keys canonicalize to the
// same name, the lexically last raw key wins so the result is deterministic.
func NewOptionSet(raw map[string]any) OptionSet {
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	opts := make(OptionSet, len(raw))
	for _, k := range keys {
		v := raw[k]
		if v == nil {
			continue
		}
		opts[CanonicalKey(k)] = v
	}
	return opts
}

// Merge returns a new OptionSet containing every key of defaults, with any
// key that is also present in overrides replaced by the override value.
// Neither argument is modified.
func Merge(defaults, overrides OptionSet) OptionSet {
	merged := make(OptionSet, len(defaults)+len(overrides))
	for k, v := range defaults {
		merged[CanonicalKey(k)] = v
	}
	for k, v := range overrides {
		merged[CanonicalKey(k)] = v
	}
	return merged
}

// Has reports whether key is present.
func (o OptionSet) Has(key string) bool {
	_, ok := o[CanonicalKey(key)]
	return ok
}

// Get returns the raw value stored under key.
func (o OptionSet) Get(key string) (any, bool) {
	v, ok := o[CanonicalKey(key)]
	return v, ok
}

// String returns the value of key formatted as a string, or "" when the key
// is absent.
func (o OptionSet) String(key string) string {
	v, ok := o.Get(key)
	if !ok {
		return ""
	}
	switch s := v.(type) {
	case string:
		return s
	case fmt.Stringer:
		return s.String()
	default:
		return fmt.Sprint(v)
	}
}

// Int returns the value of key as an int. ok is false when the key is
// absent; err is non-nil when the value cannot be read as an integer.
func (o OptionSet) Int(key string) (n int, ok bool, err error) {
	v, present := o.Get(key)
	if !present {
		return 0, false, nil
	}
	switch x := v.(type) {
	case int:
		return x, true, nil
	case int64:
		return int(x), true, nil
	case uint64:
		return int(x), true, nil
	case float64:
		// YAML and JSON decode every number as float64; only whole values
		// are ports or counts.
		if x != math.Trunc(x) {
			return 0, true, fmt.Errorf("option %q: %v is not a number", CanonicalKey(key), x)
		}
		return int(x), true, nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(x))
		if err != nil {
			return 0, true, fmt.Errorf("option %q: %q is not a number", CanonicalKey(key), x)
		}
		return n, true, nil
	default:
		return 0, true, fmt.Errorf("option %q: unsupported value type %T", CanonicalKey(key), v)
	}
}

// Keys returns the option names in sorted order.
func (o OptionSet) Keys() []string {
	keys := make([]string, 0, len(o))
	for k := range o {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Command identifies the operation a single invocation dispatches to.
type Command string

const (
	// CommandStart starts every process type declared in the Procfile.
	CommandStart Command = "start"

	// CommandExecute runs a single process type in the foreground.
	CommandExecute Command = "execute"

	// CommandRestart restarts all running instances of one process type.
	CommandRestart Command = "restart"

	// CommandExport renders the Procfile into an init-system format.
	CommandExport Command = "export"

	// CommandCheck validates the Procfile.
	CommandCheck Command = "check"
)

// String returns the string representation of Command.
func (c Command) String() string {
	return string(c)
}

// IsValid reports whether c is one of the known commands.
func (c Command) IsValid() bool {
	switch c {
	case CommandStart, CommandExecute, CommandRestart, CommandExport, CommandCheck:
		return true
	default:
		return false
	}
}

// ExitCode is the process exit status reported to the OS.
type ExitCode int

const (
	// ExitSuccess indicates the command completed successfully.
	ExitSuccess ExitCode = 0

	// ExitGeneralError is used for every fatal condition: missing Procfile,
	// unknown export format, empty Procfile on check, export failures and
	// unreadable persisted defaults.
	ExitGeneralError ExitCode = 1
)

// CLIError is an error that carries an exit code to the top-level
// dispatcher.
type CLIError struct {
	// Code is the exit code to return to the OS.
	Code ExitCode

	// Message is the human-readable error description.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error returns the message, followed by the underlying error when present.
func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a new CLIError with the given exit code and message.
func NewCLIError(code ExitCode, message string) *CLIError {
	return &CLIError{Code: code, Message: message}
}

// WrapCLIError creates a new CLIError that wraps an existing error.
func WrapCLIError(code ExitCode, message string, err error) *CLIError {
	return &CLIError{Code: code, Message: message, Err: err}
}
