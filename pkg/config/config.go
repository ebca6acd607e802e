package config

import (
	"fmt"
	"os"

	"github.com/ghodss/yaml"
	"github.com/spf13/afero"

	"github.com/sidkik/gistsync/pkg/errors"
)

// parseConfigErrTemplate is shown when the config file isn't valid YAML, or
// doesn't match the User schema. The yaml library's errors don't say which
// field was wrong, so the parser's message is passed on as-is.
const parseConfigErrTemplate = "The gistsync config could not be parsed. " +
	"Please review %q.\n" +
	"Common pitfalls include:\n" +
	" - Using the wrong types for fields, such as a string for `public`\n" +
	" - Misspelled field names, such as `gistId` instead of `gistID`\n\n" +
	"For reference, here is the error from the parser:\n" +
	"%s"

type incompatibleVersionError struct {
	path, exp, actual string
}

func (err incompatibleVersionError) Error() string {
	return err.FriendlyMessage()
}

func (err incompatibleVersionError) FriendlyMessage() string {
	return fmt.Sprintf("The gistsync config %q was written by a different "+
		"version of gistsync.\n"+
		"Expected version %q, but got %q.", err.path, err.exp, err.actual)
}

// readUser reads the config at `path` exactly as it's stored. Unlike
// ParseUser, the token isn't overridden from the environment and file paths
// aren't expanded, so the result is safe to write back.
func readUser(path string) (User, error) {
	configBytes, err := afero.ReadFile(fs, path)
	if err != nil {
		if os.IsNotExist(err) {
			return User{}, errors.FileNotFound{Path: path}
		}
		return User{}, errors.WithContext(err, "read file")
	}

	// Check the version before the strict unmarshal so that a config from a
	// newer gistsync reports the version mismatch rather than unknown fields.
	cfg := User{Version: InitialUserConfigVersion}
	if err := yaml.Unmarshal(configBytes, &cfg); err != nil {
		return User{}, errors.NewFriendlyError(parseConfigErrTemplate, path, err)
	}

	if cfg.Version != SupportedUserConfigVersion {
		return User{}, incompatibleVersionError{path, SupportedUserConfigVersion, cfg.Version}
	}

	if err := yaml.UnmarshalStrict(configBytes, &cfg, yaml.DisallowUnknownFields); err != nil {
		return User{}, errors.NewFriendlyError(parseConfigErrTemplate, path, err)
	}
	return cfg, nil
}

// ReadUser returns the user config as it's stored on disk. Use it, rather
// than ParseUser, when the config will be modified and written back.
func ReadUser() (User, error) {
	path, err := GetUserConfigPath()
	if err != nil {
		return User{}, errors.WithContext(err, "expand config path")
	}

	cfg, err := readUser(path)
	if _, ok := err.(errors.FileNotFound); ok {
		return User{}, missingConfigError(path)
	}
	return cfg, err
}

// EditUser applies `edit` to the stored user config, and writes the result
// if it's still valid. Nothing is written if `edit` fails.
func EditUser(edit func(*User) error) error {
	cfg, err := ReadUser()
	if err != nil {
		return errors.WithContext(err, "read config")
	}

	if err := edit(&cfg); err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return err
	}
	return WriteUser(cfg)
}

func missingConfigError(path string) error {
	return errors.NewFriendlyError("The gistsync user config file doesn't "+
		"exist at %q. Please run `gistsync config` to create the user "+
		"config file.", path)
}
