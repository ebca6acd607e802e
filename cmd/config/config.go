package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/sidkik/gistsync/cmd/util"
	"github.com/sidkik/gistsync/pkg/config"
	"github.com/sidkik/gistsync/pkg/errors"
)

// Mocked for unit testing.
var (
	stdout          io.Writer = os.Stdout
	stdin           io.Reader = os.Stdin
	parseUserConfig           = config.ParseUser
	readUserConfig            = config.ReadUser
	editUserConfig            = config.EditUser
	writeUserConfig           = config.WriteUser
	readSecret                = readSecretImpl
	absPath                   = filepath.Abs
)

// New creates a new `config` command.
func New() *cobra.Command {
	var cliOpts config.User
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Setup the gistsync user configuration",
		Run: func(_ *cobra.Command, _ []string) {
			if err := SetupConfig(cliOpts); err != nil {
				err = errors.NewFriendlyError("Failed to setup configuration:\n%s", err)
				util.HandleFatalError(err)
			}
		},
	}
	cmd.Flags().StringVar(&cliOpts.Token, "token", "",
		"Set the GitHub access token in the config. "+
			"Optional: If not set, `gistsync config` will interactively prompt.")
	cmd.Flags().StringVar(&cliOpts.GistID, "gist-id", "",
		"Set the id of the gist to sync with. "+
			"Optional: If not set, `gistsync config` will interactively prompt.")
	cmd.Flags().StringVar(&cliOpts.Proxy, "proxy", "",
		"Set the HTTP proxy used to reach GitHub. "+
			"Optional: If not set, `gistsync config` will interactively prompt.")

	var name string
	addFileCmd := &cobra.Command{
		Use:   "add-file PATH",
		Short: "Add a local file to the set of synced files",
		Args:  cobra.ExactArgs(1),
		Run: func(_ *cobra.Command, args []string) {
			if err := addFile(args[0], name); err != nil {
				util.HandleFatalError(errors.WithContext(err, "add file"))
			}
		},
	}
	addFileCmd.Flags().StringVar(&name, "name", "",
		"The filename to use in the gist. Defaults to the file's base name.")

	removeFileCmd := &cobra.Command{
		Use:   "remove-file NAME",
		Short: "Stop syncing the file stored in the gist as NAME",
		Args:  cobra.ExactArgs(1),
		Run: func(_ *cobra.Command, args []string) {
			if err := removeFile(args[0]); err != nil {
				util.HandleFatalError(errors.WithContext(err, "remove file"))
			}
		},
	}
	cmd.AddCommand(addFileCmd, removeFileCmd)

	// Setup the commands for querying the contents of the user config.
	type getterDef struct {
		use, short string
		fn         func(config.User) string
	}

	getters := []getterDef{
		{
			use:   "get-gist-id",
			short: "Get the id of the synced gist",
			fn:    func(cfg config.User) string { return cfg.GistID },
		},
		{
			use:   "get-files",
			short: "Get the synced files",
			fn: func(cfg config.User) string {
				var lines []string
				for _, f := range cfg.Files {
					lines = append(lines, fmt.Sprintf("%s\t%s", f.RemoteName(), f.Path))
				}
				return strings.Join(lines, "\n")
			},
		},
	}
	for _, getter := range getters {
		getter := getter
		cmd.AddCommand(&cobra.Command{
			Use:   getter.use,
			Short: getter.short,
			Run: func(_ *cobra.Command, _ []string) {
				cfg, err := parseUserConfig()
				if err != nil {
					err = errors.WithContext(err, "read config")
					util.HandleFatalError(err)
				}

				fmt.Fprintln(stdout, getter.fn(cfg))
			},
		})
	}

	return cmd
}

// SetupConfig prompts for any settings that weren't set in `cliOpts`, and
// writes the resulting config.
func SetupConfig(cliOpts config.User) error {
	cfg, err := generateConfig(cliOpts)
	if err != nil {
		return errors.WithContext(err, "generate config")
	}

	if err := writeUserConfig(cfg); err != nil {
		return errors.WithContext(err, "write config")
	}

	path, err := config.GetUserConfigPath()
	if err != nil {
		return errors.WithContext(err, "get user config path")
	}

	fmt.Fprintf(stdout, "Wrote config to %s\n", path)
	return nil
}

// currentConfig returns the config as stored on disk, or an empty config if
// it can't be read.
func currentConfig() config.User {
	currConfig, err := readUserConfig()
	if err != nil {
		log.WithError(err).Debug("Failed to read current config")
		return config.User{}
	}
	return currConfig
}

// generateConfig interacts with the user to decide what the user's desired
// configuration is. Settings that aren't prompted for, such as the synced
// files, are carried over from the current config.
func generateConfig(cliOpts config.User) (config.User, error) {
	currConfig := currentConfig()
	stdinReader := bufio.NewReader(stdin)

	cfg := currConfig
	if cliOpts.Token != "" {
		cfg.Token = cliOpts.Token
	} else {
		token, err := promptSecret(stdinReader,
			"Enter a GitHub personal access token with the `gist` scope.\n"+
				"Create one at https://github.com/settings/tokens.",
			"Access token", currConfig.Token != "")
		if err != nil {
			return config.User{}, errors.WithContext(err, "read token")
		}
		if token != "" {
			cfg.Token = token
		}
	}

	type prompt struct {
		helpString, prompt, currAnswer string
		cliValue                       string
		field                          *string
	}
	prompts := []prompt{
		{
			helpString: "Enter the id of an existing gist to sync with.\n" +
				"Leave it empty to create a new gist on the first upload.",
			prompt:     "Gist id",
			currAnswer: currConfig.GistID,
			cliValue:   cliOpts.GistID,
			field:      &cfg.GistID,
		},
		{
			helpString: "Enter the URL of the HTTP proxy used to reach GitHub.\n" +
				"Leave it empty to use the proxy from the environment, if any.",
			prompt:     "Proxy",
			currAnswer: currConfig.Proxy,
			cliValue:   cliOpts.Proxy,
			field:      &cfg.Proxy,
		},
	}

	for _, prompt := range prompts {
		if prompt.cliValue != "" {
			*prompt.field = prompt.cliValue
			continue
		}

		resp, err := promptUser(stdinReader, prompt.helpString, prompt.prompt,
			prompt.currAnswer)
		if err != nil {
			return config.User{}, errors.WithContext(err, "read response")
		}
		*prompt.field = resp
	}

	return cfg, nil
}

func addFile(path, name string) error {
	absolute, err := absPath(path)
	if err != nil {
		return errors.WithContext(err, "get absolute path")
	}

	return editUserConfig(func(cfg *config.User) error {
		cfg.Files = append(cfg.Files, config.FileEntry{Path: absolute, Name: name})
		return nil
	})
}

func removeFile(name string) error {
	return editUserConfig(func(cfg *config.User) error {
		var files []config.FileEntry
		for _, f := range cfg.Files {
			if f.RemoteName() != name {
				files = append(files, f)
			}
		}

		if len(files) == len(cfg.Files) {
			return errors.NewFriendlyError("No synced file is named %q.", name)
		}
		cfg.Files = files
		return nil
	})
}

func promptSecret(stdinReader *bufio.Reader, helpString, prompt string,
	hasCurrent bool) (string, error) {
	// Display a new line at the end to separate different fields to make it
	// look clearer.
	defer fmt.Fprintln(stdout)

	fmt.Fprintln(stdout, helpString+"\n"+prompt+":")
	if hasCurrent {
		fmt.Fprint(stdout, "Please enter a new value, or leave empty to keep the current one: ")
	} else {
		fmt.Fprint(stdout, "Please enter manually: ")
	}

	secret, err := readSecret(stdinReader)
	fmt.Fprintln(stdout)
	return secret, err
}

// readSecretImpl reads a line without echoing it if stdin is a terminal.
func readSecretImpl(stdinReader *bufio.Reader) (string, error) {
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		secret, err := term.ReadPassword(int(f.Fd()))
		return strings.TrimSpace(string(secret)), err
	}

	return readLine(stdinReader)
}

// promptUser asks the user for a value. If there's a current value, the user
// can keep it by choosing the first option or entering nothing.
func promptUser(stdinReader *bufio.Reader, helpString, prompt, currAnswer string) (string, error) {
	// Display a new line at the end to separate different fields to make it
	// look clearer.
	defer fmt.Fprintln(stdout)

	fmt.Fprintln(stdout, helpString+"\n"+prompt+":")

	if currAnswer != "" {
		fmt.Fprintln(stdout)
		fmt.Fprintf(stdout, "\t1. %s (current)\n", currAnswer)
		fmt.Fprintln(stdout, "\t2. (Enter manually)")
		fmt.Fprintln(stdout)

	choose:
		for {
			fmt.Fprint(stdout, "Please choose one [1-2]: ")
			choice, err := readLine(stdinReader)
			if err != nil {
				return "", err
			}

			switch choice {
			case "", "1":
				return currAnswer, nil
			case "2":
				break choose
			}
		}
	}

	fmt.Fprint(stdout, "Please enter manually: ")
	return readLine(stdinReader)
}

func readLine(stdinReader *bufio.Reader) (string, error) {
	resp, err := stdinReader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp), nil
}
