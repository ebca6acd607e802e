package status

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/buger/goterm"
	"github.com/pmezard/go-difflib/difflib"
	"github.com/spf13/cobra"

	"github.com/sidkik/gistsync/cmd/util"
	"github.com/sidkik/gistsync/pkg/config"
	"github.com/sidkik/gistsync/pkg/errors"
	"github.com/sidkik/gistsync/pkg/gist"
	"github.com/sidkik/gistsync/pkg/local"
)

// Mocked for unit testing.
var (
	stdout          io.Writer = os.Stdout
	parseUserConfig           = config.ParseUser
	snapshot                  = local.Snapshot
	color                     = goterm.Color
)

// New creates a new `status` command.
func New() *cobra.Command {
	var showDiff bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show what `gistsync upload` would change",
		Run: func(cmd *cobra.Command, _ []string) {
			if err := run(cmd.Context(), showDiff); err != nil {
				util.HandleFatalError(err)
			}
		},
	}
	cmd.Flags().BoolVar(&showDiff, "diff", false,
		"Also print the contents that would change, as a unified diff.")
	return cmd
}

func run(ctx context.Context, showDiff bool) error {
	cfg, err := parseUserConfig()
	if err != nil {
		return errors.WithContext(err, "parse user config")
	}

	syncer, _, err := util.NewSyncer(cfg)
	if err != nil {
		return errors.WithContext(err, "create syncer")
	}

	uploads, err := snapshot(cfg.Files)
	if err != nil {
		return errors.WithContext(err, "read local files")
	}

	plan, err := syncer.Plan(ctx, cfg.GistID, uploads)
	if err != nil {
		return errors.WithContext(err, "plan sync")
	}

	printPlan(plan)
	if showDiff {
		return printDiffs(plan)
	}
	return nil
}

func printPlan(plan gist.Plan) {
	if plan.NewGist {
		fmt.Fprintln(stdout, "The gist doesn't exist yet, and will be created.")
	} else {
		fmt.Fprintf(stdout, "Gist: %s\n", plan.Remote.HTMLURL)
	}

	entries := plan.Entries()
	if len(entries) == 0 {
		fmt.Fprintln(stdout, "Everything is up to date.")
		return
	}

	for _, entry := range entries {
		fmt.Fprintf(stdout, "  %s\t%s\n", formatAction(entry.Action), entry.Name)
	}
}

func formatAction(action gist.Action) string {
	var c int
	switch action {
	case gist.Create:
		c = goterm.GREEN
	case gist.Update:
		c = goterm.YELLOW
	case gist.Delete:
		c = goterm.RED
	default:
		c = goterm.BLUE
	}
	return color(fmt.Sprintf("%-6s", action), c)
}

// printDiffs prints the remote and local contents of every changed file as a
// unified diff. It's only a preview: files are always uploaded whole.
func printDiffs(plan gist.Plan) error {
	for _, entry := range plan.Entries() {
		if entry.Action == gist.Keep {
			continue
		}

		diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
			A:        splitLines(contentOf(plan.Remote.Files, entry.Name)),
			B:        splitLines(contentOf(plan.Changes, entry.Name)),
			FromFile: "remote/" + entry.Name,
			ToFile:   "local/" + entry.Name,
			Context:  3,
		})
		if err != nil {
			return errors.WithContext(err, "diff "+entry.Name)
		}

		fmt.Fprintln(stdout)
		fmt.Fprint(stdout, diff)
	}
	return nil
}

func contentOf(files gist.FileSet, name string) string {
	if f := files[name]; f != nil {
		return f.Content
	}
	return ""
}

func splitLines(content string) []string {
	if content == "" {
		return nil
	}
	return difflib.SplitLines(content)
}
