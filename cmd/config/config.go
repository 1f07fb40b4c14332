package config

import (
	"fmt"
	"io"
	"os"

	homedir "github.com/mitchellh/go-homedir"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sidkik/sitesync/cmd/util"
	"github.com/sidkik/sitesync/pkg/config"
	"github.com/sidkik/sitesync/pkg/errors"
)

// Mocked for unit testing.
var (
	stdout          io.Writer = os.Stdout
	parseUserConfig           = util.LoadConfig
	writeUserConfig           = config.WriteUserAt
)

// New creates a new `config` command.
func New() *cobra.Command {
	var cliOpts config.User
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Setup the sitesync user configuration",
		Long: "Update the sitesync user configuration. Only the settings passed\n" +
			"as flags are changed.",
		Run: func(_ *cobra.Command, _ []string) {
			if err := SetupConfig(cliOpts); err != nil {
				err = errors.NewFriendlyError("Failed to setup configuration:\n%s", err)
				util.HandleFatalError(err)
			}
		},
	}
	cmd.Flags().StringVar(&cliOpts.Remote.Backend, "backend", "",
		"The remote store: file, sqlite, s3 or memory.")
	cmd.Flags().StringVar(&cliOpts.Remote.Path, "path", "",
		"The JSON file used by the file backend.")
	cmd.Flags().StringVar(&cliOpts.Remote.DSN, "dsn", "",
		"The database used by the sqlite backend.")
	cmd.Flags().StringVar(&cliOpts.Remote.Bucket, "bucket", "",
		"The bucket used by the s3 backend.")
	cmd.Flags().StringVar(&cliOpts.Remote.Prefix, "prefix", "",
		"The object prefix used by the s3 backend.")
	cmd.Flags().StringVar(&cliOpts.Remote.Region, "region", "",
		"The AWS region used by the s3 backend.")
	cmd.Flags().StringVar(&cliOpts.Remote.Endpoint, "endpoint", "",
		"A custom endpoint for S3-compatible services.")
	cmd.Flags().StringVar(&cliOpts.Restrict, "restrict", "",
		"How merges restricted to some keys treat them: patch or drop.")

	// Setup the commands for querying the contents of the user config.
	type getterSpec struct {
		use, short string
		fn         func(config.User) string
	}

	getters := []getterSpec{
		{
			use:   "get-backend",
			short: "Get the configured remote store backend",
			fn:    func(cfg config.User) string { return cfg.Remote.Backend },
		},
		{
			use:   "get-restrict",
			short: "Get the configured restrict mode",
			fn:    func(cfg config.User) string { return cfg.Restrict },
		},
	}
	for _, getter := range getters {
		getter := getter
		cmd.AddCommand(&cobra.Command{
			Use:   getter.use,
			Short: getter.short,
			Run: func(_ *cobra.Command, _ []string) {
				cfg, err := parseUserConfig()
				if err != nil {
					err = errors.WithContext(err, "read config")
					util.HandleFatalError(err)
				}

				fmt.Fprintln(stdout, getter.fn(cfg))
			},
		})
	}

	return cmd
}

// SetupConfig applies `cliOpts` over the current config and writes the
// result.
func SetupConfig(cliOpts config.User) error {
	cfg := mergeConfig(currentConfig(), cliOpts)

	path, err := homedir.Expand(util.ConfigPath)
	if err != nil {
		return errors.WithContext(err, "expand config path")
	}

	if err := writeUserConfig(path, cfg); err != nil {
		return errors.WithContext(err, "write config")
	}

	// Parse the config back so that invalid settings are reported now rather
	// than by the next command.
	if _, err := parseUserConfig(); err != nil {
		return errors.WithContext(err, "validate config")
	}

	fmt.Fprintf(stdout, "Wrote config to %s\n", path)
	return nil
}

func currentConfig() config.User {
	cfg, err := parseUserConfig()
	if err != nil {
		log.WithError(err).Debug("Failed to read current config")
		return config.Default()
	}
	return cfg
}

// mergeConfig overrides the fields of `curr` that are set in `cliOpts`.
// Switching backends drops the settings of the old backend.
func mergeConfig(curr, cliOpts config.User) config.User {
	cfg := curr
	if cliOpts.Remote.Backend != "" && cliOpts.Remote.Backend != curr.Remote.Backend {
		cfg.Remote = config.Remote{Backend: cliOpts.Remote.Backend}
	}

	fields := []struct {
		from string
		to   *string
	}{
		{cliOpts.Remote.Path, &cfg.Remote.Path},
		{cliOpts.Remote.DSN, &cfg.Remote.DSN},
		{cliOpts.Remote.Bucket, &cfg.Remote.Bucket},
		{cliOpts.Remote.Prefix, &cfg.Remote.Prefix},
		{cliOpts.Remote.Region, &cfg.Remote.Region},
		{cliOpts.Remote.Endpoint, &cfg.Remote.Endpoint},
		{cliOpts.Restrict, &cfg.Restrict},
	}
	for _, field := range fields {
		if field.from != "" {
			*field.to = field.from
		}
	}
	return cfg
}
