// Package file implements a store kept as a single JSON document on disk.
// Every key maps to its JSON value, so the file can be inspected and edited
// by hand.
package file

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"sync"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/sidkik/sitesync/pkg/errors"
)

// Store reads and writes the whole document on every operation so that
// changes made by other processes are picked up.
type Store struct {
	fs   afero.Fs
	path string
	mu   sync.Mutex
}

// New returns a Store backed by the OS filesystem.
func New(path string) *Store {
	return NewWithFs(afero.NewOsFs(), path)
}

// NewWithFs returns a Store backed by `fs`.
func NewWithFs(fs afero.Fs, path string) *Store {
	return &Store{fs: fs, path: path}
}

// Get returns the value stored under `key`.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return nil, false, err
	}

	value, ok := doc[key]
	if !ok {
		return nil, false, nil
	}
	return []byte(value), true, nil
}

// Set stores `value` under `key`. `value` must be valid JSON.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if !json.Valid(value) {
		return errors.New("value for %q is not valid JSON", key)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}

	doc[key] = json.RawMessage(value)
	return s.save(doc)
}

// Keys returns the stored keys in sorted order.
func (s *Store) Keys(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(doc))
	for k := range doc {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *Store) load() (map[string]json.RawMessage, error) {
	doc := map[string]json.RawMessage{}
	b, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return doc, nil
		}
		return nil, errors.WithContext(err, "read store")
	}

	if len(b) == 0 {
		return doc, nil
	}

	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, errors.WithContext(err, "decode store")
	}
	return doc, nil
}

// save writes the document to a temporary file and renames it into place so
// that readers never see a partially written store.
func (s *Store) save(doc map[string]json.RawMessage) error {
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return errors.WithContext(err, "encode store")
	}

	if err := s.fs.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return errors.WithContext(err, "make store dir")
	}

	tmpPath := s.path + ".tmp"
	if err := afero.WriteFile(s.fs, tmpPath, b, 0600); err != nil {
		return errors.WithContext(err, "write temp store")
	}

	if err := s.fs.Rename(tmpPath, s.path); err != nil {
		if rmErr := s.fs.Remove(tmpPath); rmErr != nil {
			log.WithError(rmErr).WithField("path", tmpPath).Warn(
				"Failed to clean up temporary store file")
		}
		return errors.WithContext(err, "swap store")
	}
	return nil
}
