package config

import (
	"path/filepath"

	"github.com/ghodss/yaml"
	homedir "github.com/mitchellh/go-homedir"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/sidkik/sitesync/pkg/errors"
)

const (
	// UserConfigPath is the default path to the sitesync user config.
	UserConfigPath = "~/.sitesync.yaml"

	// DefaultRemotePath is where the file backend keeps synced records when
	// the user hasn't configured anything else.
	DefaultRemotePath = "~/.sitesync/remote.json"

	// InitialUserConfigVersion is the version assumed for config files that
	// don't specify one.
	InitialUserConfigVersion = "1.0"

	// SupportedUserConfigVersion is written into new config files.
	SupportedUserConfigVersion = "1.0"

	// supportedUserConfigConstraint is the range of config versions this
	// binary can read.
	supportedUserConfigConstraint = ">= 1.0, < 2.0"
)

// The remote store backends that sitesync can open.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendS3     = "s3"
	BackendMemory = "memory"
)

// How a merge restricted to a set of keys treats those keys.
const (
	// RestrictPatch only replaces the restricted keys in the remote record.
	RestrictPatch = "patch"

	// RestrictDrop drops the restricted keys from the local side before
	// overlaying the two snapshots.
	RestrictDrop = "drop"
)

// User contains the user's sitesync settings.
type User struct {
	Version  string `json:"version,omitempty"`
	Remote   Remote `json:"remote"`
	Restrict string `json:"restrict,omitempty"`
}

// Remote describes where tracked site records are stored.
type Remote struct {
	Backend string `json:"backend"`

	// Path is the JSON file used by the file backend.
	Path string `json:"path,omitempty"`

	// DSN is the database used by the sqlite backend.
	DSN string `json:"dsn,omitempty"`

	// The remaining fields configure the s3 backend. Endpoint is only needed
	// for S3-compatible services such as MinIO.
	Bucket   string `json:"bucket,omitempty"`
	Prefix   string `json:"prefix,omitempty"`
	Region   string `json:"region,omitempty"`
	Endpoint string `json:"endpoint,omitempty"`
}

func (u User) getVersion() string {
	return u.Version
}

// homedirExpand will be overridden in mock tests
var homedirExpand = homedir.Expand

// Default returns the config used when the user hasn't written one.
func Default() User {
	return User{
		Version:  SupportedUserConfigVersion,
		Remote:   Remote{Backend: BackendFile, Path: DefaultRemotePath},
		Restrict: RestrictPatch,
	}
}

// ParseUser attempts to parse the User stored in the default path. If the
// file doesn't exist, the defaults are returned.
func ParseUser() (User, error) {
	path, err := GetUserConfigPath()
	if err != nil {
		return User{}, errors.WithContext(err, "expand config path")
	}
	return ParseUserAt(path)
}

// ParseUserAt parses the User stored at `path`.
func ParseUserAt(path string) (User, error) {
	config := User{Version: InitialUserConfigVersion}
	if err := parseConfig(path, &config, supportedUserConfigConstraint); err != nil {
		if _, ok := err.(errors.FileNotFound); !ok {
			return User{}, errors.WithContext(err, "parse")
		}

		log.WithField("path", path).Debug("No user config. Using defaults.")
		config = Default()
	}

	if err := config.normalize(); err != nil {
		return User{}, err
	}
	return config, nil
}

func (u *User) normalize() error {
	if u.Restrict == "" {
		u.Restrict = RestrictPatch
	}

	switch u.Restrict {
	case RestrictPatch, RestrictDrop:
	default:
		return errors.NewFriendlyError("Unknown restrict mode %q.\n"+
			"Valid modes are %q and %q.", u.Restrict, RestrictPatch, RestrictDrop)
	}

	if u.Remote.Backend == "" {
		u.Remote.Backend = BackendFile
	}

	var err error
	switch u.Remote.Backend {
	case BackendFile:
		if u.Remote.Path == "" {
			u.Remote.Path = DefaultRemotePath
		}
		u.Remote.Path, err = homedirExpand(u.Remote.Path)
		if err != nil {
			return errors.WithContext(err, "expand remote path")
		}
	case BackendSQLite:
		if u.Remote.DSN == "" {
			return errors.MissingFieldError{Field: "remote.dsn"}
		}
		u.Remote.DSN, err = homedirExpand(u.Remote.DSN)
		if err != nil {
			return errors.WithContext(err, "expand remote dsn")
		}
	case BackendS3:
		if u.Remote.Bucket == "" {
			return errors.MissingFieldError{Field: "remote.bucket"}
		}
	case BackendMemory:
	default:
		return errors.UnknownBackendError{Backend: u.Remote.Backend}
	}
	return nil
}

// WriteUser writes the given user config to disk.
func WriteUser(cfg User) error {
	path, err := GetUserConfigPath()
	if err != nil {
		return errors.WithContext(err, "expand config path")
	}
	return WriteUserAt(path, cfg)
}

// WriteUserAt writes the given user config to `path`.
func WriteUserAt(path string, cfg User) error {
	cfg.Version = SupportedUserConfigVersion
	yamlBytes, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.WithContext(err, "marshal")
	}

	if err := fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.WithContext(err, "make config dir")
	}

	if err := afero.WriteFile(fs, path, yamlBytes, 0644); err != nil {
		return errors.WithContext(err, "write")
	}
	return nil
}

// GetUserConfigPath returns the path to the user's sitesync configuration.
// This path is expanded, so it can be directly passed to file operations.
func GetUserConfigPath() (string, error) {
	return homedirExpand(UserConfigPath)
}
