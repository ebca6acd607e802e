package download

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/sidkik/gistsync/cmd/util"
	"github.com/sidkik/gistsync/pkg/config"
	"github.com/sidkik/gistsync/pkg/errors"
	"github.com/sidkik/gistsync/pkg/local"
)

// Mocked for unit testing.
var (
	stdout          io.Writer = os.Stdout
	parseUserConfig           = config.ParseUser
	apply                     = local.Apply
)

// New creates a new `download` command.
func New() *cobra.Command {
	return &cobra.Command{
		Use:   "download",
		Short: "Download the gist's files to the local machine",
		Long: "Overwrite the configured local files with their contents in the gist.\n" +
			"Files that are empty or missing in the gist are left untouched.",
		Run: func(cmd *cobra.Command, _ []string) {
			if err := run(cmd.Context()); err != nil {
				util.HandleFatalError(err)
			}
		},
	}
}

func run(ctx context.Context) error {
	cfg, err := parseUserConfig()
	if err != nil {
		return errors.WithContext(err, "parse user config")
	}

	if cfg.GistID == "" {
		return errors.NewFriendlyError("No gist is configured.\n" +
			"Run `gistsync upload` to create one, or set `gistID` in the gistsync config.")
	}

	store, err := util.NewStore(cfg)
	if err != nil {
		return errors.WithContext(err, "create store")
	}

	doc, err := store.Get(ctx, cfg.GistID)
	if err != nil {
		return errors.WithContext(err, "get gist")
	}

	written, err := apply(doc, cfg.Files)
	if err != nil {
		return errors.WithContext(err, "write local files")
	}

	for _, path := range written {
		fmt.Fprintf(stdout, "Updated %s\n", path)
	}
	if len(written) == 0 {
		fmt.Fprintln(stdout, "Local files are already up to date.")
	}
	return nil
}
