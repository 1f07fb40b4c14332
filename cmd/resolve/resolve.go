package resolve

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
	tab util.TabFlags
	key string
	use string
}

// New creates a new `resolve` command.
func New() *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Settle a single key that's out of sync",
		Long: "Settle a single key by keeping either its local or its remote value.\n" +
			"With `--use remote`, the remote value is also written to the site's\n" +
			"local storage.",
		Run: func(_ *cobra.Command, _ []string) {
			if err := run(context.Background(), opts); err != nil {
				util.HandleFatalError(err)
			}
		},
	}
	opts.tab.Add(cmd, true)
	cmd.Flags().StringVar(&opts.key, "key", "", "The key to resolve.")
	cmd.Flags().StringVar(&opts.use, "use", "remote",
		"The value to keep: \"local\" or \"remote\".")
	return cmd
}

func run(ctx context.Context, opts options) error {
	if opts.key == "" {
		return errors.NewFriendlyError("The key to resolve is required. Set it with the --key flag.")
	}

	use, err := sync.ParsePolicy(opts.use)
	if err != nil {
		return err
	}

	tab, err := opts.tab.Tab(true)
	if err != nil {
		return err
	}

	engine, _, closeEngine, err := util.NewEngine(ctx)
	if err != nil {
		return err
	}
	defer closeEngine()

	record, err := engine.Resolve(ctx, tab, opts.key, use)
	if err != nil {
		if errors.Is(err, errors.ErrNotTracked) {
			return errors.NewFriendlyError(
				"%s isn't tracked. Run `sitesync track` before resolving keys.", tab.URL)
		}
		return errors.WithContext(err, "resolve")
	}

	value, ok := record.Data[opts.key]
	if !ok {
		fmt.Fprintf(stdout, "Resolved %q using the %s side. The key is now unset.\n",
			opts.key, use)
		return nil
	}
	fmt.Fprintf(stdout, "Resolved %q using the %s value %q.\n", opts.key, use, value)
	return nil
}
