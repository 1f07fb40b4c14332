// Package memory implements an in-process store ordered by key. It backs
// tests and the `memory` remote backend, which is useful for dry runs.
package memory

import (
	"context"
	"sync"

	"github.com/tidwall/btree"
)

type item struct {
	key   string
	value []byte
}

func byKey(a, b interface{}) bool {
	return a.(*item).key < b.(*item).key
}

// Store keeps values in a B-tree so that keys are always iterated in order.
type Store struct {
	mu   sync.RWMutex
	tree *btree.BTree
}

// New creates an empty Store.
func New() *Store {
	return &Store{tree: btree.New(byKey)}
}

// Get returns a copy of the value stored under `key`.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	found := s.tree.Get(&item{key: key})
	if found == nil {
		return nil, false, nil
	}
	return copyBytes(found.(*item).value), true, nil
}

// Set stores a copy of `value` under `key`.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.tree.Set(&item{key: key, value: copyBytes(value)})
	return nil
}

// Keys returns the stored keys in ascending order.
func (s *Store) Keys(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, s.tree.Len())
	s.tree.Ascend(nil, func(i interface{}) bool {
		keys = append(keys, i.(*item).key)
		return true
	})
	return keys, nil
}

// Len returns the number of stored keys.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tree.Len()
}

func copyBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	cp := make([]byte, len(b))
	copy(cp, b)
	return cp
}
