package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "remote.db")

	s, err := Open(ctx, path)
	require.NoError(t, err)

	_, ok, err := s.Get(ctx, "https://example.com")
	assert.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "https://example.com", []byte(`{"tracked":true}`)))
	require.NoError(t, s.Set(ctx, "https://example.com", []byte(`{}`)))
	require.NoError(t, s.Set(ctx, "https://a.example.com", []byte(`{"tracked":true}`)))

	value, ok, err := s.Get(ctx, "https://example.com")
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{}`, string(value))

	keys, err := s.Keys(ctx)
	assert.NoError(t, err)
	assert.Equal(t, []string{"https://a.example.com", "https://example.com"}, keys)
	require.NoError(t, s.Close())

	// Data survives reopening the database.
	s, err = Open(ctx, path)
	require.NoError(t, err)
	defer s.Close()

	value, ok, err = s.Get(ctx, "https://a.example.com")
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"tracked":true}`, string(value))
}

func TestStoreEmptyKeys(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, ":memory:")
	require.NoError(t, err)
	defer s.Close()

	keys, err := s.Keys(ctx)
	assert.NoError(t, err)
	assert.Empty(t, keys)
}
