package sync

import (
	"sort"

	"github.com/sidkik/sitesync/pkg/site"
)

// StatusEntry compares the local and remote values of a single key. A nil
// value means the key is absent on that side.
type StatusEntry struct {
	Key         string
	LocalValue  *string
	RemoteValue *string
	InSync      bool
}

// ComputeSyncStatus returns one entry for every key that's present in either
// `local` or the record's data, sorted by key. An untracked record is
// treated as having no data, so every local key is out of sync.
func ComputeSyncStatus(local site.Snapshot, record Record) []StatusEntry {
	remote := record.RemoteData()

	keys := map[string]struct{}{}
	for k := range local {
		keys[k] = struct{}{}
	}
	for k := range remote {
		keys[k] = struct{}{}
	}

	var entries []StatusEntry
	for k := range keys {
		localValue := local.Lookup(k)
		remoteValue := remote.Lookup(k)
		entries = append(entries, StatusEntry{
			Key:         k,
			LocalValue:  localValue,
			RemoteValue: remoteValue,
			InSync: localValue != nil && remoteValue != nil &&
				*localValue == *remoteValue,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Key < entries[j].Key
	})
	return entries
}

// InSync returns whether every entry is in sync.
func InSync(entries []StatusEntry) bool {
	for _, entry := range entries {
		if !entry.InSync {
			return false
		}
	}
	return true
}
