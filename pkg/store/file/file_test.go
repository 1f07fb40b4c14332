package file

import (
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore(t *testing.T) {
	ctx := context.Background()
	fs := afero.NewMemMapFs()
	s := NewWithFs(fs, "/home/user/.sitesync/remote.json")

	keys, err := s.Keys(ctx)
	assert.NoError(t, err)
	assert.Empty(t, keys)

	_, ok, err := s.Get(ctx, "https://example.com")
	assert.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "https://example.com", []byte(`{"tracked":true}`)))
	require.NoError(t, s.Set(ctx, "https://a.example.com", []byte(`{}`)))

	value, ok, err := s.Get(ctx, "https://example.com")
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `{"tracked":true}`, string(value))

	keys, err = s.Keys(ctx)
	assert.NoError(t, err)
	assert.Equal(t, []string{"https://a.example.com", "https://example.com"}, keys)

	// A second store over the same file sees the same data.
	other := NewWithFs(fs, "/home/user/.sitesync/remote.json")
	value, ok, err = other.Get(ctx, "https://a.example.com")
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `{}`, string(value))

	exists, err := afero.Exists(fs, "/home/user/.sitesync/remote.json.tmp")
	assert.NoError(t, err)
	assert.False(t, exists)
}

func TestStoreRejectsInvalidJSON(t *testing.T) {
	s := NewWithFs(afero.NewMemMapFs(), "/remote.json")
	assert.Error(t, s.Set(context.Background(), "k", []byte(`{"tracked":`)))
}

func TestStoreCorruptFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/remote.json", []byte("not json"), 0600))

	s := NewWithFs(fs, "/remote.json")
	_, _, err := s.Get(context.Background(), "k")
	assert.Error(t, err)
}
