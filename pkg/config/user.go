package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/ghodss/yaml"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"

	"github.com/sidkik/gistsync/pkg/errors"
	"github.com/sidkik/gistsync/pkg/gist"
	"github.com/sidkik/gistsync/pkg/github"
)

const (
	// UserConfigPath is the default path to the gistsync user config.
	UserConfigPath = "~/.gistsync.yaml"

	// TokenEnvKey is the environment variable that overrides the token in
	// the user config. It lets the token be kept out of the config file.
	TokenEnvKey = "GISTSYNC_TOKEN"

	// InitialUserConfigVersion is the first version of the gistsync
	// user config. Config files that do not specify a version
	// will default to this version.
	InitialUserConfigVersion = "v1alpha1"

	// SupportedUserConfigVersion is the supported version of the
	// gistsync user config of the current gistsync binary.
	SupportedUserConfigVersion = "v1alpha1"
)

// User contains the user's credentials, the gist to sync with, and the files
// to sync.
type User struct {
	Version        string      `json:"version,omitempty"`
	Token          string      `json:"token,omitempty"`
	GistID         string      `json:"gistID,omitempty"`
	Proxy          string      `json:"proxy,omitempty"`
	APIURL         string      `json:"apiURL,omitempty"`
	Public         bool        `json:"public,omitempty"`
	StrictLookup   bool        `json:"strictLookup,omitempty"`
	TimeoutSeconds int         `json:"timeoutSeconds,omitempty"`
	Files          []FileEntry `json:"files,omitempty"`
}

// SyncOptions returns the options for reconciling the gist.
func (u User) SyncOptions() gist.Options {
	return gist.Options{
		Public:       u.Public,
		StrictLookup: u.StrictLookup,
	}
}

// GithubOptions returns the options for connecting to the gist server.
func (u User) GithubOptions() github.Options {
	return github.Options{
		Token:   u.Token,
		Proxy:   u.Proxy,
		BaseURL: u.APIURL,
		Timeout: time.Duration(u.TimeoutSeconds) * time.Second,
	}
}

// homedirExpand will be overridden in mock tests
var homedirExpand = homedir.Expand

// getenv will be overridden in mock tests
var getenv = os.Getenv

// ParseUser attempts to parse the User stored in the default path.
func ParseUser() (User, error) {
	path, err := GetUserConfigPath()
	if err != nil {
		return User{}, errors.WithContext(err, "expand config path")
	}

	config, err := readUser(path)
	if err != nil {
		if _, ok := err.(errors.FileNotFound); ok {
			return User{}, missingConfigError(path)
		}
		return User{}, errors.WithContext(err, "parse")
	}

	if token := getenv(TokenEnvKey); token != "" {
		config.Token = token
	}

	// Evaluate relative paths relative to the config path.
	for i, f := range config.Files {
		expanded, err := homedirExpand(f.Path)
		if err != nil {
			return User{}, errors.WithContext(err, "expand file path")
		}

		if expanded != "" && !filepath.IsAbs(expanded) {
			expanded = filepath.Join(filepath.Dir(path), expanded)
		}
		config.Files[i].Path = expanded
	}

	if err := config.Validate(); err != nil {
		return User{}, err
	}
	return config, nil
}

// WriteUser writes the given user config to disk.
func WriteUser(cfg User) error {
	cfg.Version = SupportedUserConfigVersion
	path, err := GetUserConfigPath()
	if err != nil {
		return errors.WithContext(err, "expand config path")
	}

	yamlBytes, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.WithContext(err, "marshal")
	}

	// The config may contain an access token, so it's only readable by the
	// user.
	if err := afero.WriteFile(fs, path, yamlBytes, 0600); err != nil {
		return errors.WithContext(err, "write")
	}
	return nil
}

// UpdateGistID rewrites the user config with a new gist id, leaving the
// other fields as they are on disk.
func UpdateGistID(id string) error {
	return EditUser(func(cfg *User) error {
		cfg.GistID = id
		return nil
	})
}

// Get the path to the user's global gistsync configuration. This path is
// expanded, so it can be directly passed to file operations.
func GetUserConfigPath() (string, error) {
	return homedirExpand(UserConfigPath)
}
