// Package store defines the key/value persistence used for synced site
// records. Each backend lives in its own subpackage.
package store

import "context"

// Store is a key/value store of JSON documents. A key that has never been
// set is reported as absent rather than as an error.
type Store interface {
	// Get returns the value stored under `key`. `ok` is false if the key is
	// absent.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)

	// Set stores `value` under `key`, replacing any existing value.
	Set(ctx context.Context, key string, value []byte) error

	// Keys returns every stored key in sorted order.
	Keys(ctx context.Context) ([]string, error)
}

// Closer is implemented by stores that hold resources.
type Closer interface {
	Close() error
}
