package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/mmr-tortoise/foreman/internal/model"
)

// DefaultsFile is the conventional name of the persisted defaults file,
// looked up in the working directory.
const DefaultsFile = ".foreman"

// EnvDefaultsPath names the environment variable that overrides the
// location of the persisted defaults file.
const EnvDefaultsPath = "FOREMAN_DEFAULTS"

// DefaultsPath returns the path of the persisted defaults file: the value of
// FOREMAN_DEFAULTS when set, otherwise DefaultsFile.
func DefaultsPath() string {
	if p := os.Getenv(EnvDefaultsPath); p != "" {
		return p
	}
	return DefaultsFile
}

// ParseError reports a persisted defaults file that exists but cannot be
// decoded.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// LoadDefaults reads the persisted defaults file at path.
//
// A missing file yields an empty set and no error. The file is YAML; a
// document starting with "{" is treated as JSON with comments and trailing
// commas, which are stripped with jsonc before decoding. A path ending in
// ".toml" is decoded as TOML instead. Keys are
// canonicalized, so colon-prefixed keys (":port") and plain keys
// ("port") are equivalent.
func LoadDefaults(path string) (model.OptionSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return model.OptionSet{}, nil
		}
		return nil, &ParseError{Path: path, Err: err}
	}
	return ParseDefaults(path, data)
}

// ParseDefaults decodes the contents of a persisted defaults file. path is
// only used in error messages.
func ParseDefaults(path string, data []byte) (model.OptionSet, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return model.OptionSet{}, nil
	}

	if strings.EqualFold(filepath.Ext(path), ".toml") {
		var raw map[string]any
		if err := toml.Unmarshal(trimmed, &raw); err != nil {
			return nil, &ParseError{Path: path, Err: err}
		}
		return model.NewOptionSet(raw), nil
	}

	if trimmed[0] == '{' {
		trimmed = jsonc.ToJSON(trimmed)
	}

	var raw map[string]any
	if err := yaml.Unmarshal(trimmed, &raw); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	return model.NewOptionSet(raw), nil
}
