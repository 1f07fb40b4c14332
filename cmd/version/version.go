package version

import (
	"fmt"
	"io"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sidkik/sitesync/cmd/util"
	"github.com/sidkik/sitesync/pkg/version"
)

// Mocked for unit testing.
var stdout io.Writer = os.Stdout

// New creates a new `version` command.
func New() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version of sitesync.",
		Long: "Print the version of sitesync, and the remote store it's\n" +
			"configured to sync with.",
		Run: func(_ *cobra.Command, _ []string) {
			run()
		},
	}
}

func run() {
	fmt.Fprintf(stdout, "version: %s\n", version.Version)

	cfg, err := util.LoadConfig()
	if err != nil {
		log.WithError(err).Debug("Failed to read config")
		fmt.Fprintln(stdout, "remote:  unknown (invalid config)")
		return
	}
	fmt.Fprintf(stdout, "remote:  %s\n", cfg.Remote.Backend)
}
