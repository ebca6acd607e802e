package util

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"

	"github.com/sidkik/gistsync/pkg/config"
	"github.com/sidkik/gistsync/pkg/errors"
	"github.com/sidkik/gistsync/pkg/gist"
	"github.com/sidkik/gistsync/pkg/github"
)

// TestHelper contains methods commonly used during integration tests. Each
// helper gets its own home directory, so tests don't share a user config.
type TestHelper struct {
	Home   string
	Client *github.Client
	token  string
}

// NewTestHelper creates a new TestHelper that authenticates with `token`.
func NewTestHelper(home, token string) (*TestHelper, error) {
	client, err := github.New(github.Options{Token: token})
	if err != nil {
		return nil, errors.WithContext(err, "create github client")
	}

	return &TestHelper{Home: home, Client: client, token: token}, nil
}

// Path returns the absolute path to a file in the helper's home directory.
func (helper *TestHelper) Path(name string) string {
	return filepath.Join(helper.Home, name)
}

// WriteFile writes a file in the helper's home directory.
func (helper *TestHelper) WriteFile(name, contents string) error {
	return os.WriteFile(helper.Path(name), []byte(contents), 0644)
}

// ReadFile reads a file in the helper's home directory.
func (helper *TestHelper) ReadFile(name string) (string, error) {
	contents, err := os.ReadFile(helper.Path(name))
	return string(contents), err
}

// WriteConfig writes a user config that syncs the given files in the home
// directory.
func (helper *TestHelper) WriteConfig(gistID string, names ...string) error {
	cfg := config.User{
		Version: config.SupportedUserConfigVersion,
		GistID:  gistID,
	}
	for _, name := range names {
		cfg.Files = append(cfg.Files, config.FileEntry{Path: helper.Path(name)})
	}
	return config.WriteUser(cfg)
}

// GistID returns the gist id stored in the user config.
func (helper *TestHelper) GistID() (string, error) {
	cfg, err := config.ParseUser()
	if err != nil {
		return "", err
	}
	return cfg.GistID, nil
}

// Get fetches the gist directly from GitHub.
func (helper *TestHelper) Get(ctx context.Context, id string) (gist.Document, error) {
	return helper.Client.Get(ctx, id)
}

// Start starts the given gistsync command. It returns a reader for the
// stdout output, and a channel for obtaining any errors after starting the
// command, and any errors from starting the command.
func (helper *TestHelper) Start(ctx context.Context, args ...string) (
	io.Reader, chan error, error) {

	cmd := helper.command(args...)

	stdoutReader, err := cmd.StdoutPipe()
	if err != nil {
		return nil, nil, err
	}

	stderr := bytes.NewBuffer(nil)
	cmd.Stderr = stderr

	if err := cmd.Start(); err != nil {
		return nil, nil, err
	}

	errChan := make(chan error)
	go func() {
		waitErr := make(chan error)
		go func() {
			waitErr <- cmd.Wait()
			close(waitErr)
		}()

		defer close(errChan)
		select {
		case <-ctx.Done():
			if err := cmd.Process.Signal(syscall.SIGINT); err != nil {
				errChan <- errors.WithContext(err, "kill")
				return
			}
			<-waitErr
		case err := <-waitErr:
			errChan <- fmt.Errorf("crashed (%s): stderr: %s", err, stderr)
		}
	}()
	return stdoutReader, errChan, nil
}

// Run runs the given gistsync command, and returns its stdout.
func (helper *TestHelper) Run(ctx context.Context, args ...string) (string, error) {
	cmd := helper.command(args...)
	stderr := bytes.NewBuffer(nil)
	cmd.Stderr = stderr

	out, err := cmd.Output()
	if err != nil {
		return string(out), fmt.Errorf("%s (stderr: %s)", err, stderr)
	}
	return string(out), nil
}

func (helper *TestHelper) command(args ...string) *exec.Cmd {
	cmd := exec.Command("gistsync", args...)
	cmd.Env = append(os.Environ(),
		"HOME="+helper.Home,
		config.TokenEnvKey+"="+helper.token)
	return cmd
}
