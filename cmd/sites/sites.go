package sites

import (
	"context"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/sidkik/sitesync/cmd/util"
	"github.com/sidkik/sitesync/pkg/errors"
)

// Mocked for unit testing.
var stdout io.Writer = os.Stdout

// New creates a new `sites` command.
func New() *cobra.Command {
	return &cobra.Command{
		Use:   "sites",
		Short: "List the tracked sites",
		Run: func(_ *cobra.Command, _ []string) {
			if err := run(context.Background()); err != nil {
				util.HandleFatalError(err)
			}
		},
	}
}

func run(ctx context.Context) error {
	engine, _, closeEngine, err := util.NewEngine(ctx)
	if err != nil {
		return err
	}
	defer closeEngine()

	sites, err := engine.Sites(ctx)
	if err != nil {
		return errors.WithContext(err, "list sites")
	}

	util.PrintSites(stdout, sites)
	return nil
}
