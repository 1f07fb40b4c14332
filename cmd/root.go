package cmd

import (
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sidkik/sitesync/cmd/bugtool"
	configCmd "github.com/sidkik/sitesync/cmd/config"
	"github.com/sidkik/sitesync/cmd/resolve"
	"github.com/sidkik/sitesync/cmd/sites"
	"github.com/sidkik/sitesync/cmd/status"
	syncCmd "github.com/sidkik/sitesync/cmd/sync"
	"github.com/sidkik/sitesync/cmd/track"
	"github.com/sidkik/sitesync/cmd/untrack"
	"github.com/sidkik/sitesync/cmd/util"
	"github.com/sidkik/sitesync/cmd/version"
	"github.com/sidkik/sitesync/cmd/watch"
	"github.com/sidkik/sitesync/pkg/config"
)

// verboseLogKey is the environment variable used to enable verbose logging.
// When it's set to `true`, Debug events are logged, rather than just Info and
// above.
const verboseLogKey = "SITESYNC_LOG_VERBOSE"

// Execute runs the main CLI process.
func Execute() {
	if os.Getenv(verboseLogKey) == "true" {
		log.SetLevel(log.DebugLevel)
	}

	rootCmd := &cobra.Command{
		Use:   "sitesync",
		Short: "Sync a website's local storage with a remote store",
		Long: "sitesync mirrors the local storage of a website to a remote store,\n" +
			"and reconciles differences between the local and remote copies.",
		SilenceUsage: true,

		// The call to rootCmd.Execute prints the error, so we silence errors
		// here to avoid double printing.
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&util.ConfigPath, "config", config.UserConfigPath,
		"Path to the sitesync config.")

	rootCmd.AddCommand(
		bugtool.New(),
		configCmd.New(),
		resolve.New(),
		sites.New(),
		status.New(),
		syncCmd.New(),
		track.New(),
		untrack.New(),
		version.New(),
		watch.New(),
	)

	if err := rootCmd.Execute(); err != nil {
		util.HandleFatalError(err)
	}
}
