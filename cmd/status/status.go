package status

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/sidkik/sitesync/cmd/util"
	"github.com/sidkik/sitesync/pkg/errors"
	"github.com/sidkik/sitesync/pkg/sync"
)

// Mocked for unit testing.
var stdout io.Writer = os.Stdout

// New creates a new `status` command.
func New() *cobra.Command {
	var flags util.TabFlags
	var showValues bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show which keys of a site are in sync",
		Run: func(_ *cobra.Command, _ []string) {
			if err := run(context.Background(), flags, showValues); err != nil {
				util.HandleFatalError(err)
			}
		},
	}
	flags.Add(cmd, true)
	cmd.Flags().BoolVar(&showValues, "values", false,
		"Show the local and remote value of each key.")
	return cmd
}

func run(ctx context.Context, flags util.TabFlags, showValues bool) error {
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

	record, entries, err := engine.Status(ctx, tab)
	if err != nil {
		return errors.WithContext(err, "get status")
	}

	Print(stdout, origin, record, entries, showValues)
	return nil
}

// Print renders the status of a site. It's shared with `sitesync watch`.
func Print(out io.Writer, origin string, record sync.Record,
	entries []sync.StatusEntry, showValues bool) {

	util.PrintOverview(out, origin, record)
	fmt.Fprintln(out)
	util.PrintStatus(out, entries, showValues)

	if !record.Tracked {
		fmt.Fprintln(out)
		fmt.Fprintln(out, "This site isn't tracked. Run `sitesync track` to start syncing it.")
	} else if !sync.InSync(entries) {
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Run `sitesync sync` or `sitesync resolve` to reconcile the "+
			"keys that are out of sync.")
	}
}
