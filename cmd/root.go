package cmd

import (
	"context"
	"os"
	"os/signal"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	configCmd "github.com/sidkik/gistsync/cmd/config"
	deleteCmd "github.com/sidkik/gistsync/cmd/delete"
	"github.com/sidkik/gistsync/cmd/download"
	"github.com/sidkik/gistsync/cmd/status"
	"github.com/sidkik/gistsync/cmd/upload"
	"github.com/sidkik/gistsync/cmd/util"
	"github.com/sidkik/gistsync/cmd/version"
)

// verboseLogKey is the environment variable used to enable verbose logging.
// When it's set to `true`, Debug events are logged, rather than just Info and
// above.
const verboseLogKey = "GISTSYNC_LOG_VERBOSE"

// Execute runs the main CLI process.
func Execute() {
	if os.Getenv(verboseLogKey) == "true" {
		log.SetLevel(log.DebugLevel)
	}

	rootCmd := &cobra.Command{
		Use:          "gistsync",
		Short:        "Sync local settings files with a GitHub gist",
		SilenceUsage: true,

		// The call to rootCmd.Execute prints the error, so we silence errors
		// here to avoid double printing.
		SilenceErrors: true,
	}
	rootCmd.AddCommand(
		configCmd.New(),
		deleteCmd.New(),
		download.New(),
		status.New(),
		upload.New(),
		version.New(),
	)

	// Cancel in-flight requests and stop watching when interrupted.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		util.HandleFatalError(err)
	}
}
