package sync

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

type options struct {
	tab    util.TabFlags
	prefer string
	keys   []string
}

// New creates a new `sync` command.
func New() *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Merge a site's local storage into the remote store",
		Long: "Merge the site's local storage with its remote record and write the\n" +
			"result to the remote store. When a key exists on both sides, the\n" +
			"side chosen by --prefer wins. Keys that only exist on one side are\n" +
			"kept.",
		Run: func(_ *cobra.Command, _ []string) {
			if err := run(context.Background(), opts); err != nil {
				util.HandleFatalError(err)
			}
		},
	}
	opts.tab.Add(cmd, true)
	cmd.Flags().StringVar(&opts.prefer, "prefer", "remote",
		"The side that wins when a key differs: \"local\" or \"remote\".")
	cmd.Flags().StringSliceVar(&opts.keys, "keys", nil,
		"Only merge these keys. The config's `restrict` mode decides how.")
	return cmd
}

func run(ctx context.Context, opts options) error {
	policy, err := sync.ParsePolicy(opts.prefer)
	if err != nil {
		return err
	}

	tab, err := opts.tab.Tab(true)
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

	record, err := engine.Merge(ctx, tab, opts.keys, policy)
	if err != nil {
		return errors.WithContext(err, "sync")
	}

	fmt.Fprintf(stdout, "Synced %s preferring %s values (%d keys).\n",
		origin, policy, len(record.Data))
	return nil
}
