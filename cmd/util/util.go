package util

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime/debug"

	homedir "github.com/mitchellh/go-homedir"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sidkik/sitesync/pkg/config"
	"github.com/sidkik/sitesync/pkg/errors"
	"github.com/sidkik/sitesync/pkg/site"
	"github.com/sidkik/sitesync/pkg/store"
	"github.com/sidkik/sitesync/pkg/store/file"
	"github.com/sidkik/sitesync/pkg/store/memory"
	"github.com/sidkik/sitesync/pkg/store/s3"
	"github.com/sidkik/sitesync/pkg/store/sqlite"
	"github.com/sidkik/sitesync/pkg/sync"
	"github.com/sidkik/sitesync/pkg/version"
)

// ConfigPath is the user config used by every command. It's set by the
// root command's `--config` flag.
var ConfigPath = config.UserConfigPath

// Mocked for unit testing.
var (
	exit             = os.Exit
	stderr io.Writer = os.Stderr
)

// HandleFatalError prints the error and exits. Errors with a friendly
// message are printed without their context.
func HandleFatalError(err error) {
	if msg, ok := errors.GetFriendlyMessage(err); ok {
		fmt.Fprintln(stderr, msg)
		log.WithError(err).Debug("Fatal error")
	} else {
		fmt.Fprintf(stderr, "Error: %s\n", err)
	}
	exit(1)
}

// HandlePanic logs the stack trace of a panic and exits. It must be deferred
// directly.
func HandlePanic() {
	if r := recover(); r != nil {
		log.WithField("stack", string(debug.Stack())).Errorf("Panic: %v", r)
		exit(1)
	}
}

// LoadConfig parses the user config at ConfigPath.
func LoadConfig() (config.User, error) {
	path, err := homedir.Expand(ConfigPath)
	if err != nil {
		return config.User{}, errors.WithContext(err, "expand config path")
	}
	return config.ParseUserAt(path)
}

// OpenRemoteStore opens the remote store described by `cfg`. The returned
// function releases the store's resources.
func OpenRemoteStore(ctx context.Context, cfg config.Remote) (store.Store, func(), error) {
	noop := func() {}
	switch cfg.Backend {
	case config.BackendFile, "":
		return file.New(cfg.Path), noop, nil
	case config.BackendMemory:
		log.Warn("Using the in-memory remote store. Records won't be saved.")
		return memory.New(), noop, nil
	case config.BackendSQLite:
		db, err := sqlite.Open(ctx, cfg.DSN)
		if err != nil {
			return nil, nil, errors.WithContext(err, "open sqlite store")
		}
		return db, func() {
			if err := db.Close(); err != nil {
				log.WithError(err).Warn("Failed to close sqlite store")
			}
		}, nil
	case config.BackendS3:
		bucket, err := s3.New(ctx, s3.Options{
			Bucket:   cfg.Bucket,
			Prefix:   cfg.Prefix,
			Region:   cfg.Region,
			Endpoint: cfg.Endpoint,
			AppID:    version.UserAgent(),
		})
		if err != nil {
			return nil, nil, errors.WithContext(err, "open s3 store")
		}
		return bucket, noop, nil
	default:
		return nil, nil, errors.UnknownBackendError{Backend: cfg.Backend}
	}
}

// NewEngine builds a sync engine from the user config. The returned function
// must be called once the engine is no longer needed.
func NewEngine(ctx context.Context) (*sync.Engine, config.User, func(), error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, config.User{}, nil, errors.WithContext(err, "load config")
	}

	restrict, err := sync.ParseRestrictMode(cfg.Restrict)
	if err != nil {
		return nil, config.User{}, nil, err
	}

	remote, closeRemote, err := OpenRemoteStore(ctx, cfg.Remote)
	if err != nil {
		return nil, config.User{}, nil, err
	}

	engine := sync.NewEngine(remote, site.NewFileAdapter())
	engine.Restrict = restrict
	return engine, cfg, closeRemote, nil
}

// TabFlags are the flags that select the site a command operates on.
type TabFlags struct {
	URL   string
	Local string
}

// Add registers the flags on `cmd`. If `needsLocal` is false, the command
// only uses the site origin, and the local dump flag is omitted.
func (f *TabFlags) Add(cmd *cobra.Command, needsLocal bool) {
	cmd.Flags().StringVar(&f.URL, "url", "",
		"URL of the site. The site origin is derived from it.")
	if needsLocal {
		cmd.Flags().StringVar(&f.Local, "local", "",
			"Path to a JSON dump of the site's local storage.")
	}
}

// Tab converts the flags into a site.Tab.
func (f TabFlags) Tab(needsLocal bool) (site.Tab, error) {
	if f.URL == "" {
		return site.Tab{}, errors.NewFriendlyError(
			"A site URL is required. Set it with the --url flag.")
	}

	tab := site.Tab{ID: f.URL, URL: f.URL}
	if !needsLocal {
		return tab, nil
	}

	if f.Local == "" {
		return site.Tab{}, errors.NewFriendlyError(
			"The path to the site's local storage dump is required. " +
				"Set it with the --local flag.")
	}

	path, err := homedir.Expand(f.Local)
	if err != nil {
		return site.Tab{}, errors.WithContext(err, "expand local path")
	}
	tab.Path = path
	return tab, nil
}
