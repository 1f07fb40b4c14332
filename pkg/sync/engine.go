package sync

import (
	"context"
	"sort"
	"time"

	"github.com/jonboulle/clockwork"
	log "github.com/sirupsen/logrus"

	"github.com/sidkik/sitesync/pkg/errors"
	"github.com/sidkik/sitesync/pkg/site"
	"github.com/sidkik/sitesync/pkg/store"
)

// LocalStore reads and writes the local storage of the page open in a tab.
type LocalStore interface {
	ReadLocalStore(ctx context.Context, tab site.Tab) (site.Snapshot, error)
	WriteLocalStore(ctx context.Context, tab site.Tab, snapshot site.Snapshot) error
	RemoveKey(ctx context.Context, tab site.Tab, key string) error
}

// Engine sequences the reads and writes needed to reconcile a site's local
// storage with its remote record. Only Remote and Local need to be set; a
// nil Clock uses the real time. An Engine must not be copied after first use.
type Engine struct {
	Remote store.Store
	Local  LocalStore

	// Clock dates new records.
	Clock clockwork.Clock

	// Restrict is used by merges that are restricted to a set of keys.
	Restrict RestrictMode

	locks originLocks
}

// TrackedSite is a site with a tracked remote record.
type TrackedSite struct {
	Origin string
	Record Record
}

// NewEngine returns an Engine that uses the real clock and RestrictPatch.
func NewEngine(remote store.Store, local LocalStore) *Engine {
	return &Engine{
		Remote:   remote,
		Local:    local,
		Clock:    clockwork.NewRealClock(),
		Restrict: RestrictPatch,
	}
}

// Track starts tracking the site by merging its local storage into the
// remote record, preferring the remote values.
func (e *Engine) Track(ctx context.Context, tab site.Tab) (Record, error) {
	return e.Merge(ctx, tab, nil, PreferRemote)
}

// Merge merges the local storage into the remote record and writes the
// result to the remote store. If `keys` is non-empty, the merge is
// restricted to them according to e.Restrict.
func (e *Engine) Merge(ctx context.Context, tab site.Tab, keys []string, policy Policy) (Record, error) {
	origin, unlock, err := e.lockTab(ctx, tab)
	if err != nil {
		return Record{}, err
	}
	defer unlock()

	return e.merge(ctx, tab, origin, keys, policy)
}

func (e *Engine) merge(ctx context.Context, tab site.Tab, origin string,
	keys []string, policy Policy) (Record, error) {

	current, err := loadRecord(ctx, e.Remote, origin)
	if err != nil {
		return Record{}, err
	}

	local, err := e.Local.ReadLocalStore(ctx, tab)
	if err != nil {
		return Record{}, errors.WithContext(err, "read local storage")
	}

	merged := MergeSnapshots(local, current.RemoteData(), MergeOptions{
		Keys:     keys,
		Policy:   policy,
		Restrict: e.Restrict,
	})

	record := NewRecord(merged, e.now())
	if err := saveRecord(ctx, e.Remote, origin, record); err != nil {
		return Record{}, err
	}

	log.WithFields(log.Fields{
		"origin": origin,
		"keys":   keys,
		"policy": policy,
	}).Info("Synced site")
	return record, nil
}

// Resolve settles a single out-of-sync key. If `use` is PreferRemote, the
// remote value is first copied into local storage (or the key is removed
// locally when the remote doesn't have it). The remote record is then
// merged, restricted to `key`.
func (e *Engine) Resolve(ctx context.Context, tab site.Tab, key string, use Policy) (Record, error) {
	origin, unlock, err := e.lockTab(ctx, tab)
	if err != nil {
		return Record{}, err
	}
	defer unlock()

	current, err := loadRecord(ctx, e.Remote, origin)
	if err != nil {
		return Record{}, err
	}

	if !current.Tracked {
		return Record{}, errors.WithContext(errors.ErrNotTracked, origin)
	}

	if use == PreferRemote {
		if value, ok := current.Data[key]; ok {
			err = e.Local.WriteLocalStore(ctx, tab, site.Snapshot{key: value})
		} else {
			err = e.Local.RemoveKey(ctx, tab, key)
		}
		if err != nil {
			return Record{}, errors.WithContext(err, "write local storage")
		}
	}

	log.WithFields(log.Fields{
		"origin": origin,
		"key":    key,
		"use":    use,
	}).Debug("Resolving key")
	return e.merge(ctx, tab, origin, []string{key}, use)
}

// Untrack replaces the site's remote record with an empty one. Untracking an
// untracked site has no observable effect.
func (e *Engine) Untrack(ctx context.Context, tab site.Tab) error {
	origin, unlock, err := e.lockTab(ctx, tab)
	if err != nil {
		return err
	}
	defer unlock()

	if err := saveRecord(ctx, e.Remote, origin, Record{}); err != nil {
		return err
	}

	log.WithField("origin", origin).Info("Untracked site")
	return nil
}

// Status compares the local storage with the remote record.
func (e *Engine) Status(ctx context.Context, tab site.Tab) (Record, []StatusEntry, error) {
	origin, unlock, err := e.lockTab(ctx, tab)
	if err != nil {
		return Record{}, nil, err
	}
	defer unlock()

	record, err := loadRecord(ctx, e.Remote, origin)
	if err != nil {
		return Record{}, nil, err
	}

	local, err := e.Local.ReadLocalStore(ctx, tab)
	if err != nil {
		return Record{}, nil, errors.WithContext(err, "read local storage")
	}
	return record, ComputeSyncStatus(local, record), nil
}

// Record returns the remote record for the tab's site.
func (e *Engine) Record(ctx context.Context, tab site.Tab) (Record, error) {
	origin, err := tab.Origin()
	if err != nil {
		return Record{}, err
	}
	return loadRecord(ctx, e.Remote, origin)
}

// Sites returns every tracked site, sorted by origin.
func (e *Engine) Sites(ctx context.Context) ([]TrackedSite, error) {
	origins, err := e.Remote.Keys(ctx)
	if err != nil {
		return nil, errors.WithContext(err, "list remote records")
	}
	sort.Strings(origins)

	var sites []TrackedSite
	for _, origin := range origins {
		record, err := loadRecord(ctx, e.Remote, origin)
		if err != nil {
			return nil, errors.WithContext(err, origin)
		}

		if record.Tracked {
			sites = append(sites, TrackedSite{Origin: origin, Record: record})
		}
	}
	return sites, nil
}

func (e *Engine) now() time.Time {
	if e.Clock == nil {
		return time.Now()
	}
	return e.Clock.Now()
}

func (e *Engine) lockTab(ctx context.Context, tab site.Tab) (string, func(), error) {
	origin, err := tab.Origin()
	if err != nil {
		return "", nil, err
	}

	unlock, err := e.locks.lock(ctx, origin)
	if err != nil {
		return "", nil, errors.WithContext(err, "lock site")
	}
	return origin, unlock, nil
}
