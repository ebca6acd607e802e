package config

import (
	"fmt"
	"testing"
	"time"

	"github.com/ghodss/yaml"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"

	"github.com/sidkik/gistsync/pkg/errors"
	"github.com/sidkik/gistsync/pkg/github"
)

func mockUserConfig(path string, env map[string]string) {
	fs = afero.NewMemMapFs()
	homedirExpand = func(p string) (string, error) {
		if p == UserConfigPath {
			return path, nil
		}
		return p, nil
	}
	getenv = func(key string) string {
		return env[key]
	}
}

func TestParseUser(t *testing.T) {
	out := "/home/user/.gistsync.yaml"
	userEmptyVersion := User{
		Token:  "token",
		GistID: "gist-id",
	}
	userInitialVersion := User{
		Version: InitialUserConfigVersion,
		Token:   "token",
		GistID:  "gist-id",
	}
	userCorrectVersion := User{
		Version: SupportedUserConfigVersion,
		Token:   "token",
		GistID:  "gist-id",
	}
	userIncorrectVersion := User{
		Version: "incorrect_version",
		Token:   "token",
		GistID:  "gist-id",
	}
	userEmptyVersionString, err := yaml.Marshal(userEmptyVersion)
	assert.NoError(t, err)
	userCorrectVersionString, err := yaml.Marshal(userCorrectVersion)
	assert.NoError(t, err)
	userIncorrectVersionString, err := yaml.Marshal(userIncorrectVersion)
	assert.NoError(t, err)

	tests := []struct {
		name      string
		input     []byte
		expConfig User
		expError  error
	}{
		{
			name:      "EmptyVersion",
			input:     userEmptyVersionString,
			expConfig: userInitialVersion,
		},
		{
			name:      "CorrectVersion",
			input:     userCorrectVersionString,
			expConfig: userCorrectVersion,
		},
		{
			name:  "IncorrectVersion",
			input: userIncorrectVersionString,
			expError: errors.WithContext(incompatibleVersionError{
				path:   out,
				exp:    SupportedUserConfigVersion,
				actual: userIncorrectVersion.Version,
			}, "parse"),
		},
		{
			name: "ExtraFields",
			input: []byte(fmt.Sprintf(
				"version: %s\nextra: fields", SupportedUserConfigVersion)),
			expError: errors.WithContext(
				errors.NewFriendlyError(parseConfigErrTemplate, out,
					errors.New("error unmarshaling JSON: while decoding JSON: "+
						`json: unknown field "extra"`)),
				"parse"),
		},
		{
			name: "IncorrectVersionWithExtraFields",
			input: []byte(`
version: incorrect_version
extra: fields
`),
			expError: errors.WithContext(incompatibleVersionError{
				path:   out,
				exp:    SupportedUserConfigVersion,
				actual: "incorrect_version",
			}, "parse"),
		},
		{
			name: "Files",
			input: []byte(`
files:
- path: settings.json
- path: /abs/keybindings.json
  name: kb.json
`),
			expConfig: User{
				Version: InitialUserConfigVersion,
				Files: []FileEntry{
					{Path: "/home/user/settings.json"},
					{Path: "/abs/keybindings.json", Name: "kb.json"},
				},
			},
		},
		{
			name: "DuplicateNames",
			input: []byte(`
files:
- path: /a/settings.json
- path: /b/settings.json
`),
			expError: errors.NewFriendlyError("Both %q and %q are synced as %q.\n"+
				"Set a unique `name` for one of them in the gistsync config.",
				"/a/settings.json", "/b/settings.json", "settings.json"),
		},
		{
			name: "MissingPath",
			input: []byte(`
files:
- name: foo
`),
			expError: errors.MissingFieldError{Field: "files[0].path"},
		},
	}

	mockUserConfig(out, nil)
	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			err := afero.WriteFile(fs, out, test.input, 0644)
			assert.NoError(t, err)
			config, err := ParseUser()
			assert.Equal(t, test.expConfig, config)
			assert.Equal(t, test.expError, err)
		})
	}
}

func TestParseUserMissing(t *testing.T) {
	mockUserConfig("/home/user/.gistsync.yaml", nil)

	_, err := ParseUser()
	friendly, ok := errors.GetFriendlyError(err)
	assert.True(t, ok)
	assert.Contains(t, friendly.FriendlyMessage(), "gistsync config")
}

func TestParseUserTokenFromEnv(t *testing.T) {
	out := "/home/user/.gistsync.yaml"
	mockUserConfig(out, map[string]string{TokenEnvKey: "env-token"})
	assert.NoError(t, afero.WriteFile(fs, out, []byte("token: file-token\n"), 0644))

	config, err := ParseUser()
	assert.NoError(t, err)
	assert.Equal(t, "env-token", config.Token)
}

func TestParseWrittenUser(t *testing.T) {
	mockUserConfig(".gistsync.yaml", nil)

	user := User{
		Token:  "token",
		GistID: "gist-id",
		Public: true,
		Files:  []FileEntry{{Path: "/settings.json"}},
	}

	// Write the user to disk, and assert that we get the same user config when
	// we parse it.
	assert.NoError(t, WriteUser(user))
	parsed, err := ParseUser()
	assert.NoError(t, err)

	user.Version = SupportedUserConfigVersion
	assert.Equal(t, user, parsed)
}

func TestUpdateGistID(t *testing.T) {
	out := "/home/user/.gistsync.yaml"
	mockUserConfig(out, map[string]string{TokenEnvKey: "env-token"})
	assert.NoError(t, WriteUser(User{
		Token: "file-token",
		Files: []FileEntry{{Path: "settings.json"}},
	}))

	assert.NoError(t, UpdateGistID("new-id"))

	raw, err := afero.ReadFile(fs, out)
	assert.NoError(t, err)

	var written User
	assert.NoError(t, yaml.Unmarshal(raw, &written))
	assert.Equal(t, User{
		Version: SupportedUserConfigVersion,
		Token:   "file-token",
		GistID:  "new-id",
		Files:   []FileEntry{{Path: "settings.json"}},
	}, written)
}

func TestGithubOptions(t *testing.T) {
	user := User{
		Token:          "token",
		Proxy:          "http://proxy:3128",
		APIURL:         "https://github.example.com/api/v3",
		TimeoutSeconds: 5,
	}
	assert.Equal(t, github.Options{
		Token:   "token",
		Proxy:   "http://proxy:3128",
		BaseURL: "https://github.example.com/api/v3",
		Timeout: 5 * time.Second,
	}, user.GithubOptions())
}

func TestRemoteName(t *testing.T) {
	assert.Equal(t, "settings.json", FileEntry{Path: "/a/b/settings.json"}.RemoteName())
	assert.Equal(t, "custom.json", FileEntry{Path: "/a/settings.json", Name: "custom.json"}.RemoteName())
}

func TestEditUser(t *testing.T) {
	out := "/home/user/.gistsync.yaml"
	mockUserConfig(out, map[string]string{TokenEnvKey: "env-token"})
	assert.NoError(t, afero.WriteFile(fs, out, []byte(`
token: file-token
files:
- path: rel.json
`), 0600))

	err := EditUser(func(cfg *User) error {
		cfg.Files = append(cfg.Files, FileEntry{Path: "/tmp/x.json"})
		return nil
	})
	assert.NoError(t, err)

	// The token from the environment and the expanded paths must never be
	// persisted.
	raw, err := afero.ReadFile(fs, out)
	assert.NoError(t, err)
	assert.NotContains(t, string(raw), "env-token")

	var written User
	assert.NoError(t, yaml.Unmarshal(raw, &written))
	assert.Equal(t, User{
		Version: SupportedUserConfigVersion,
		Token:   "file-token",
		Files:   []FileEntry{{Path: "rel.json"}, {Path: "/tmp/x.json"}},
	}, written)
}

func TestEditUserNoWrite(t *testing.T) {
	out := "/home/user/.gistsync.yaml"
	orig := []byte("files:\n- path: /a/settings.json\n")

	tests := []struct {
		name   string
		edit   func(*User) error
		expErr error
	}{
		{
			name:   "EditFails",
			edit:   func(*User) error { return errors.New("edit failed") },
			expErr: errors.New("edit failed"),
		},
		{
			name: "InvalidResult",
			edit: func(cfg *User) error {
				cfg.Files = append(cfg.Files, FileEntry{Path: "/b/settings.json"})
				return nil
			},
			expErr: errors.NewFriendlyError("Both %q and %q are synced as %q.\n"+
				"Set a unique `name` for one of them in the gistsync config.",
				"/a/settings.json", "/b/settings.json", "settings.json"),
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			mockUserConfig(out, nil)
			assert.NoError(t, afero.WriteFile(fs, out, orig, 0600))

			assert.Equal(t, test.expErr, EditUser(test.edit))

			raw, err := afero.ReadFile(fs, out)
			assert.NoError(t, err)
			assert.Equal(t, orig, raw)
		})
	}
}
