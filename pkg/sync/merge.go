package sync

import (
	"fmt"

	"github.com/sidkik/sitesync/pkg/errors"
	"github.com/sidkik/sitesync/pkg/site"
)

// Policy decides which side wins when a key is present both locally and
// remotely.
type Policy int

const (
	// PreferRemote keeps the remote value on collisions. It's the default.
	PreferRemote Policy = iota

	// PreferLocal keeps the local value on collisions.
	PreferLocal
)

func (p Policy) String() string {
	switch p {
	case PreferRemote:
		return "remote"
	case PreferLocal:
		return "local"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}

// ParsePolicy parses the name of a side, as used on the command line.
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "remote", "":
		return PreferRemote, nil
	case "local":
		return PreferLocal, nil
	default:
		return 0, errors.NewFriendlyError(
			"Unknown side %q. It must be either \"local\" or \"remote\".", s)
	}
}

// RestrictMode controls how a merge restricted to a set of keys treats those
// keys.
type RestrictMode int

const (
	// RestrictPatch only touches the restricted keys. The result is the
	// remote data, with each restricted key copied from the preferred side
	// (or removed, if the preferred side doesn't have it).
	RestrictPatch RestrictMode = iota

	// RestrictDrop removes the restricted keys from the local data and then
	// merges as if unrestricted. The restricted keys therefore always end up
	// with their remote value, whatever the policy. Records written by the
	// browser extension were resolved this way.
	RestrictDrop
)

func (m RestrictMode) String() string {
	switch m {
	case RestrictPatch:
		return "patch"
	case RestrictDrop:
		return "drop"
	default:
		return fmt.Sprintf("RestrictMode(%d)", int(m))
	}
}

// MergeOptions configures MergeSnapshots.
type MergeOptions struct {
	// Keys restricts the merge. An empty list merges every key.
	Keys []string

	Policy   Policy
	Restrict RestrictMode
}

// MergeSnapshots merges the local and remote snapshots. Without a key
// restriction, every key of the winning side overwrites the other side, and
// keys only present on the losing side are kept. The inputs are never
// modified.
func MergeSnapshots(local, remote site.Snapshot, opts MergeOptions) site.Snapshot {
	if len(opts.Keys) == 0 {
		return overlay(local, remote, opts.Policy)
	}

	switch opts.Restrict {
	case RestrictDrop:
		filtered := local.Clone()
		for _, key := range opts.Keys {
			delete(filtered, key)
		}
		return overlay(filtered, remote, opts.Policy)
	default:
		return patch(local, remote, opts.Keys, opts.Policy)
	}
}

func overlay(local, remote site.Snapshot, policy Policy) site.Snapshot {
	base, winner := local, remote
	if policy == PreferLocal {
		base, winner = remote, local
	}

	merged := base.Clone()
	for k, v := range winner {
		merged[k] = v
	}
	return merged
}

func patch(local, remote site.Snapshot, keys []string, policy Policy) site.Snapshot {
	preferred := remote
	if policy == PreferLocal {
		preferred = local
	}

	merged := remote.Clone()
	for _, key := range keys {
		if v, ok := preferred[key]; ok {
			merged[key] = v
		} else {
			delete(merged, key)
		}
	}
	return merged
}

// ParseRestrictMode parses the `restrict` setting of the user config.
func ParseRestrictMode(s string) (RestrictMode, error) {
	switch s {
	case "patch", "":
		return RestrictPatch, nil
	case "drop":
		return RestrictDrop, nil
	default:
		return 0, errors.NewFriendlyError(
			"Unknown restrict mode %q. It must be either \"patch\" or \"drop\".", s)
	}
}
