package site

import (
	"context"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/sidkik/sitesync/pkg/errors"
)

// fs is used for mock tests. It will be overridden by afero.NewMemMapFs()
// in the tests.
var fs = afero.NewOsFs()

// FileAdapter reads and writes a page's local storage through a JSON dump on
// disk, located by Tab.Path. The dump is a single JSON object of key/value
// pairs, which is what browsers produce for `JSON.stringify(localStorage)`.
type FileAdapter struct{}

// NewFileAdapter returns a FileAdapter.
func NewFileAdapter() *FileAdapter {
	return &FileAdapter{}
}

// ReadLocalStore returns the tab's local storage. The returned snapshot is
// freshly parsed on every call.
func (adapter *FileAdapter) ReadLocalStore(ctx context.Context, tab Tab) (Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if tab.Path == "" {
		return nil, errors.MissingFieldError{Field: "local storage path"}
	}

	b, err := afero.ReadFile(fs, tab.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.FileNotFound{Path: tab.Path}
		}
		return nil, errors.WithContext(err, "read")
	}

	snapshot, err := ParseSnapshot(b)
	if err != nil {
		return nil, errors.WithContext(err, "parse local storage")
	}

	log.WithFields(log.Fields{
		"tab":  tab.ID,
		"path": tab.Path,
		"keys": len(snapshot),
	}).Debug("Read local storage")
	return snapshot, nil
}

// WriteLocalStore applies each key in `snapshot` to the tab's local storage.
// Keys that are already stored but absent from `snapshot` are left alone. If
// the dump doesn't exist yet, it's created.
func (adapter *FileAdapter) WriteLocalStore(ctx context.Context, tab Tab, snapshot Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	current, err := adapter.ReadLocalStore(ctx, tab)
	if err != nil {
		if _, ok := errors.RootCause(err).(errors.FileNotFound); !ok {
			return errors.WithContext(err, "read current local storage")
		}
		current = Snapshot{}
	}

	for _, key := range snapshot.Keys() {
		current[key] = snapshot[key]
	}

	b, err := current.Marshal()
	if err != nil {
		return errors.WithContext(err, "marshal")
	}

	if err := fs.MkdirAll(filepath.Dir(tab.Path), 0755); err != nil {
		return errors.WithContext(err, "make dump dir")
	}

	if err := afero.WriteFile(fs, tab.Path, b, 0644); err != nil {
		return errors.WithContext(err, "write")
	}

	log.WithFields(log.Fields{
		"tab":  tab.ID,
		"path": tab.Path,
		"keys": len(snapshot),
	}).Debug("Wrote local storage")
	return nil
}

// RemoveKey deletes `key` from the tab's local storage. It is a no-op if the
// key or the dump doesn't exist.
func (adapter *FileAdapter) RemoveKey(ctx context.Context, tab Tab, key string) error {
	current, err := adapter.ReadLocalStore(ctx, tab)
	if err != nil {
		if _, ok := errors.RootCause(err).(errors.FileNotFound); ok {
			return nil
		}
		return errors.WithContext(err, "read current local storage")
	}

	if _, ok := current[key]; !ok {
		return nil
	}
	delete(current, key)

	b, err := current.Marshal()
	if err != nil {
		return errors.WithContext(err, "marshal")
	}
	return afero.WriteFile(fs, tab.Path, b, 0644)
}
