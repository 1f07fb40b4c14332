package errors

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWithContext(t *testing.T) {
	assert.Nil(t, WithContext(nil, "ignored"))

	root := FileNotFound{Path: "/tmp/local.json"}
	err := WithContext(WithContext(root, "read dump"), "read local store")
	assert.EqualError(t, err, `read local store: read dump: "/tmp/local.json" does not exist`)
	assert.Equal(t, root, RootCause(err))

	var dne FileNotFound
	assert.True(t, As(err, &dne))
	assert.Equal(t, "/tmp/local.json", dne.Path)
}

func TestIs(t *testing.T) {
	err := WithContext(ErrNotTracked, "resolve")
	assert.True(t, Is(err, ErrNotTracked))
	assert.False(t, Is(err, New("site is not tracked")))
}

func TestGetFriendlyMessage(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expMsg   string
		expFound bool
	}{
		{
			name:     "Plain",
			err:      New("boom"),
			expFound: false,
		},
		{
			name:     "Friendly",
			err:      NewFriendlyError("config %q is broken", "a.yaml"),
			expMsg:   `config "a.yaml" is broken`,
			expFound: true,
		},
		{
			name:     "WrappedFriendly",
			err:      WithContext(NewFriendlyError("no %s", "remote"), "open"),
			expMsg:   "no remote",
			expFound: true,
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			msg, ok := GetFriendlyMessage(test.err)
			assert.Equal(t, test.expFound, ok)
			assert.Equal(t, test.expMsg, msg)
		})
	}
}

func TestNewFormatsArgs(t *testing.T) {
	assert.EqualError(t, New("key %q missing", "theme"), `key "theme" missing`)
	assert.EqualError(t, New("100%% synced"), "100% synced")
	assert.EqualError(t, New("no args"), "no args")
}
