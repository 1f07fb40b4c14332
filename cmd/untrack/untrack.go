package untrack

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

// New creates a new `untrack` command.
func New() *cobra.Command {
	var flags util.TabFlags
	cmd := &cobra.Command{
		Use:   "untrack",
		Short: "Stop syncing a site",
		Long: "Clear the site's record in the remote store. The site's local\n" +
			"storage isn't modified.",
		Run: func(_ *cobra.Command, _ []string) {
			if err := run(context.Background(), flags); err != nil {
				util.HandleFatalError(err)
			}
		},
	}
	flags.Add(cmd, false)
	return cmd
}

func run(ctx context.Context, flags util.TabFlags) error {
	tab, err := flags.Tab(false)
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

	if err := engine.Untrack(ctx, tab); err != nil {
		return errors.WithContext(err, "untrack")
	}

	fmt.Fprintf(stdout, "Stopped tracking %s.\n", origin)
	return nil
}
