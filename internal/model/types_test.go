package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCanonicalKey verifies that every spelling of an option name collapses
// to the same plain-string key.
func TestCanonicalKey(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"port", "port"},
		{":port", "port"},
		{"Port", "port"},
		{" :PORT ", "port"},
		{"log-dir", "log_dir"},
		{":log_dir", "log_dir"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, CanonicalKey(tt.input))
		})
	}
}

// TestOptionSet_IndifferentLookup checks that plain and colon-prefixed keys
// resolve to the same value regardless of how the set was built.
func TestOptionSet_IndifferentLookup(t *testing.T) {
	opts := NewOptionSet(map[string]any{
		":port":       5000,
		"concurrency": "web=2",
		"Procfile":    "Procfile.dev",
	})

	for _, key := range []string{"port", ":port", "PORT"} {
		v, ok := opts.Get(key)
		require.True(t, ok, key)
		assert.Equal(t, 5000, v, key)
	}

	assert.Equal(t, "web=2", opts.String(":concurrency"))
	assert.Equal(t, "web=2", opts.String("concurrency"))
	assert.Equal(t, "Procfile.dev", opts.String(":procfile"))
	assert.True(t, opts.Has(":procfile"))
	assert.False(t, opts.Has("env"))
	assert.Equal(t, "", opts.String("env"))
	assert.Equal(t, []string{"concurrency", "port", "procfile"}, opts.Keys())
}

// TestNewOptionSet_DropsNil verifies that nil values are treated as absent.
func TestNewOptionSet_DropsNil(t *testing.T) {
	opts := NewOptionSet(map[string]any{"port": nil, "app": "web"})
	assert.False(t, opts.Has("port"))
	assert.Equal(t, "web", opts.String("app"))
}

// TestMerge verifies last-writer-wins precedence: overrides replace shared
// keys, keys unique to either side are retained, inputs are untouched.
func TestMerge(t *testing.T) {
	defaults := OptionSet{"port": 3000, "app": "blog", "log": "/var/log/blog"}
	overrides := OptionSet{"port": 5000, "user": "deploy"}

	merged := Merge(defaults, overrides)

	assert.Equal(t, 5000, merged["port"], "invocation value wins on shared key")
	assert.Equal(t, "blog", merged["app"], "default-only key retained")
	assert.Equal(t, "/var/log/blog", merged["log"])
	assert.Equal(t, "deploy", merged["user"], "invocation-only key retained")
	assert.Len(t, merged, 4)

	assert.Equal(t, 3000, defaults["port"], "defaults must not be mutated")
	assert.Len(t, overrides, 2)
}

// TestMerge_EmptyDefaults verifies the result equals the overrides when no
// defaults are present.
func TestMerge_EmptyDefaults(t *testing.T) {
	overrides := OptionSet{"port": 5000}
	assert.Equal(t, overrides, Merge(nil, overrides))
}

// TestOptionSet_Int covers the value types an option may carry after YAML
// decoding or flag parsing.
func TestOptionSet_Int(t *testing.T) {
	tests := []struct {
		name     string
		opts     OptionSet
		expected int
		present  bool
		hasError bool
	}{
		{"absent", OptionSet{}, 0, false, false},
		{"int", OptionSet{"port": 5000}, 5000, true, false},
		{"int64", OptionSet{"port": int64(5100)}, 5100, true, false},
		{"float64", OptionSet{"port": float64(5200)}, 5200, true, false},
		{"fractional float64", OptionSet{"port": 3000.9}, 0, true, true},
		{"numeric string", OptionSet{"port": " 5300 "}, 5300, true, false},
		{"bad string", OptionSet{"port": "web"}, 0, true, true},
		{"bad type", OptionSet{"port": []string{"x"}}, 0, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, ok, err := tt.opts.Int(":port")
			assert.Equal(t, tt.present, ok)
			if tt.hasError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, n)
		})
	}
}

// TestCommand_IsValid checks that only the known commands pass validation.
func TestCommand_IsValid(t *testing.T) {
	for _, c := range []Command{CommandStart, CommandExecute, CommandRestart, CommandExport, CommandCheck} {
		assert.True(t, c.IsValid(), c.String())
	}
	assert.False(t, Command("stop").IsValid())
	assert.False(t, Command("").IsValid())
}

// TestCLIError verifies the custom error type used for exit code mapping.
func TestCLIError(t *testing.T) {
	t.Run("simple error", func(t *testing.T) {
		err := NewCLIError(ExitGeneralError, "Procfile does not exist.")
		assert.Equal(t, ExitGeneralError, err.Code)
		assert.Equal(t, "Procfile does not exist.", err.Error())
		assert.Nil(t, err.Unwrap())
	})

	t.Run("wrapped error", func(t *testing.T) {
		inner := errors.New("yaml: line 2: mapping values are not allowed")
		err := WrapCLIError(ExitGeneralError, ".foreman", inner)
		assert.Equal(t, ExitGeneralError, err.Code)
		assert.Equal(t, ".foreman: yaml: line 2: mapping values are not allowed", err.Error())
		assert.Equal(t, inner, err.Unwrap())
	})

	t.Run("errors.Is chain", func(t *testing.T) {
		inner := errors.New("permission denied")
		err := WrapCLIError(ExitGeneralError, "cannot read .foreman", inner)
		assert.True(t, errors.Is(err, inner))
	})
}
