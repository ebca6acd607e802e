package upload

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/jonboulle/clockwork"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sidkik/gistsync/cmd/util"
	"github.com/sidkik/gistsync/pkg/config"
	"github.com/sidkik/gistsync/pkg/errors"
	"github.com/sidkik/gistsync/pkg/fswatch"
	"github.com/sidkik/gistsync/pkg/gist"
	"github.com/sidkik/gistsync/pkg/local"
)

// The interval to poll the filesystem for any changes that need to be synced
// when running with --watch.
const pollInterval = 5 * time.Minute

// Mocked for unit testing.
var (
	stdout          io.Writer = os.Stdout
	parseUserConfig           = config.ParseUser
	updateGistID              = config.UpdateGistID
	snapshot                  = local.Snapshot
	watchFiles                = func(paths []string) (<-chan struct{}, func() error, error) {
		watcher, err := fswatch.Watch(paths, clockwork.NewRealClock(), fswatch.DefaultQuietPeriod)
		if err != nil {
			return nil, nil, err
		}
		return watcher.Changes, watcher.Close, nil
	}
)

// New creates a new `upload` command.
func New() *cobra.Command {
	var watch, noCreate bool
	cmd := &cobra.Command{
		Use:   "upload",
		Short: "Upload the local files to the gist",
		Long: "Upload the configured local files to the gist. Only files that " +
			"changed are sent.\n" +
			"Files that were removed locally are removed from the gist, except " +
			"for settings and keybindings files.\n" +
			"If no gist is configured, a new private gist is created and its id " +
			"is saved to the user config.",
		Run: func(cmd *cobra.Command, _ []string) {
			if err := run(cmd.Context(), watch, !noCreate); err != nil {
				util.HandleFatalError(err)
			}
		},
	}
	cmd.Flags().BoolVar(&watch, "watch", false,
		"Keep running, and upload the files whenever they change.")
	cmd.Flags().BoolVar(&noCreate, "no-create", false,
		"Fail rather than create a new gist if the configured gist doesn't exist.")
	return cmd
}

type uploader struct {
	syncer gist.Syncer
	files  []config.FileEntry
	gistID string
	upsert bool
}

func run(ctx context.Context, watch, upsert bool) error {
	cfg, err := parseUserConfig()
	if err != nil {
		return errors.WithContext(err, "parse user config")
	}

	if len(cfg.Files) == 0 {
		return errors.NewFriendlyError("No files are configured for syncing.\n" +
			"Add them to the `files` section of the gistsync config.")
	}

	syncer, _, err := util.NewSyncer(cfg)
	if err != nil {
		return errors.WithContext(err, "create syncer")
	}

	u := &uploader{
		syncer: syncer,
		files:  cfg.Files,
		gistID: cfg.GistID,
		upsert: upsert,
	}
	if err := u.syncOnce(ctx); err != nil {
		return err
	}

	if !watch {
		return nil
	}
	return u.watch(ctx, clockwork.NewRealClock())
}

func (u *uploader) syncOnce(ctx context.Context) error {
	uploads, err := snapshot(u.files)
	if err != nil {
		return errors.WithContext(err, "read local files")
	}

	doc, err := u.syncer.Reconcile(ctx, u.gistID, uploads, u.upsert)
	if err != nil {
		return errors.WithContext(err, "sync gist")
	}

	if doc.ID != u.gistID {
		if err := updateGistID(doc.ID); err != nil {
			return errors.WithContext(err, "save gist id")
		}
		u.gistID = doc.ID
		fmt.Fprintf(stdout, "Created gist %s\n", doc.HTMLURL)
		return nil
	}

	fmt.Fprintf(stdout, "Synced %d files to %s\n", len(doc.Files), doc.HTMLURL)
	return nil
}

func (u *uploader) watch(ctx context.Context, clock clockwork.Clock) error {
	var paths []string
	for _, f := range u.files {
		paths = append(paths, f.Path)
	}

	changes, closeWatcher, err := watchFiles(paths)
	if err != nil {
		if _, ok := errors.RootCause(err).(errors.FileNotFound); !ok {
			return errors.WithContext(err, "watch files")
		}

		log.WithError(err).Warnf("Failed to watch files for changes. "+
			"gistsync will poll for changes every %s instead.", pollInterval)
	} else {
		defer func() {
			if err := closeWatcher(); err != nil {
				log.WithError(err).Debug("Failed to close file watcher")
			}
		}()
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-changes:
		case <-clock.After(pollInterval):
		}

		if err := u.syncOnce(ctx); err != nil {
			log.WithError(err).Error("Sync failed")
		}
	}
}
