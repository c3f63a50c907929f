package config

import (
	"github.com/mmr-tortoise/foreman/internal/model"
)

// Resolve merges the persisted defaults at defaultsPath beneath the
// invocation options and returns the option set handed to the router.
//
// When the defaults file is absent or empty the result holds exactly the
// invocation options. Otherwise every key of the defaults is kept unless
// the invocation supplies the same key, in which case the invocation value
// wins. Values are replaced whole; list values are never unioned.
func Resolve(invocation model.OptionSet, defaultsPath string) (model.OptionSet, error) {
	defaults, err := LoadDefaults(defaultsPath)
	if err != nil {
		return nil, err
	}
	if len(defaults) == 0 {
		return model.Merge(nil, invocation), nil
	}
	return model.Merge(defaults, invocation), nil
}
