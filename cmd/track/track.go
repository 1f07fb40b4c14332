package track

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/sidkik/sitesync/cmd/util"
	"github.com/sidkik/sitesync/pkg/errors"
)

// Mocked for unit testing.
var stdout io.Writer = os.Stdout

// New creates a new `track` command.
func New() *cobra.Command {
	var flags util.TabFlags
	cmd := &cobra.Command{
		Use:   "track",
		Short: "Start syncing a site's local storage",
		Long: "Merge the site's local storage into the remote store and mark the\n" +
			"site as tracked. Values already in the remote store take precedence.",
		Run: func(_ *cobra.Command, _ []string) {
			if err := run(context.Background(), flags); err != nil {
				util.HandleFatalError(err)
			}
		},
	}
	flags.Add(cmd, true)
	return cmd
}

func run(ctx context.Context, flags util.TabFlags) error {
	tab, err := flags.Tab(true)
	if err != nil {
		return err
	}

	origin, err := tab.Origin()
	if err != nil {
		return err
	}

	engine, _, closeEngine, err := util.NewEngine(ctx)
	if err != nil {
		return err
	}
	defer closeEngine()

	record, err := engine.Track(ctx, tab)
	if err != nil {
		return errors.WithContext(err, "track")
	}

	fmt.Fprintf(stdout, "Tracking %s (%d keys).\n", origin, len(record.Data))
	return nil
}
