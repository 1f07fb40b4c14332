package watch

import (
	"bytes"
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/buger/goterm"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sidkik/sitesync/cmd/status"
	"github.com/sidkik/sitesync/cmd/util"
	"github.com/sidkik/sitesync/pkg/config"
	"github.com/sidkik/sitesync/pkg/errors"
	"github.com/sidkik/sitesync/pkg/fswatch"
	"github.com/sidkik/sitesync/pkg/site"
	"github.com/sidkik/sitesync/pkg/sync"
)

// Mocked for unit testing.
var watchFiles = fswatch.Watch

// New creates a new `watch` command.
func New() *cobra.Command {
	var flags util.TabFlags
	var showValues bool
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Show the sync status of a site as it changes",
		Long: "Show the sync status of a site, and redraw it whenever the site's\n" +
			"local storage dump or the remote store file changes.",
		Run: func(_ *cobra.Command, _ []string) {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := run(ctx, flags, showValues, redraw); err != nil {
				util.HandleFatalError(err)
			}
		},
	}
	flags.Add(cmd, true)
	cmd.Flags().BoolVar(&showValues, "values", false,
		"Show the local and remote value of each key.")
	return cmd
}

func run(ctx context.Context, flags util.TabFlags, showValues bool,
	render func(string)) error {

	tab, err := flags.Tab(true)
	if err != nil {
		return err
	}

	origin, err := tab.Origin()
	if err != nil {
		return err
	}

	engine, cfg, closeEngine, err := util.NewEngine(ctx)
	if err != nil {
		return err
	}
	defer closeEngine()

	updates, err := watchFiles(ctx, watchedPaths(tab, cfg)...)
	if err != nil {
		return errors.WithContext(err, "watch files")
	}

	for {
		render(statusString(ctx, engine, tab, origin, showValues))

		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-updates:
			if !ok {
				return nil
			}
		}
	}
}

// watchedPaths returns the files whose changes can affect the status. The
// remote store can only be watched when it's a local file.
func watchedPaths(tab site.Tab, cfg config.User) []string {
	paths := []string{tab.Path}
	if cfg.Remote.Backend == config.BackendFile {
		paths = append(paths, cfg.Remote.Path)
	}
	return paths
}

func statusString(ctx context.Context, engine *sync.Engine, tab site.Tab,
	origin string, showValues bool) string {

	var buf bytes.Buffer
	record, entries, err := engine.Status(ctx, tab)
	if err != nil {
		// The dump may be mid-write, so keep watching rather than exiting.
		log.WithError(err).Debug("Failed to get status")
		msg, ok := errors.GetFriendlyMessage(err)
		if !ok {
			msg = err.Error()
		}
		buf.WriteString(goterm.Color("Failed to get status: "+msg, goterm.RED))
		buf.WriteString("\n")
		return buf.String()
	}

	status.Print(&buf, origin, record, entries, showValues)
	return buf.String()
}

func redraw(s string) {
	goterm.Clear()
	goterm.MoveCursor(1, 1)
	goterm.Print(s)
	goterm.Flush()
}
