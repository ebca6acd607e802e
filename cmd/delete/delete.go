package delete

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/sidkik/gistsync/cmd/util"
	"github.com/sidkik/gistsync/pkg/config"
	"github.com/sidkik/gistsync/pkg/errors"
)

// Mocked for unit testing.
var (
	stdout          io.Writer = os.Stdout
	parseUserConfig           = config.ParseUser
	updateGistID              = config.UpdateGistID
)

// New creates a new `delete` command.
func New() *cobra.Command {
	return &cobra.Command{
		Use: "delete",
		Short: "Delete the gist. " +
			"Does not affect the local files.",
		Run: func(cmd *cobra.Command, _ []string) {
			userConfig, err := parseUserConfig()
			if err != nil {
				util.HandleFatalError(errors.WithContext(err, "parse user config"))
			}

			if err := deleteGist(cmd.Context(), userConfig); err != nil {
				util.HandleFatalError(err)
			}
		},
	}
}

func deleteGist(ctx context.Context, userConfig config.User) error {
	if userConfig.GistID == "" {
		fmt.Fprintln(stdout, "No gist is configured. Nothing to do.")
		return nil
	}

	store, err := util.NewStore(userConfig)
	if err != nil {
		return errors.WithContext(err, "create store")
	}

	pp := util.NewProgressPrinter(stdout, fmt.Sprintf("Deleting gist '%s'...", userConfig.GistID))
	go pp.Run()
	err = store.Delete(ctx, userConfig.GistID)
	pp.Stop()

	switch {
	case errors.IsNotFound(err):
		fmt.Fprintln(stdout, "Gist doesn't exist. Nothing to delete.")
	case err != nil:
		return errors.WithContext(err, "delete gist")
	default:
		fmt.Fprintln(stdout, "Deleted gist.")
	}

	if err := updateGistID(""); err != nil {
		return errors.WithContext(err, "clear gist id")
	}
	return nil
}
