package untrack

import (
	"bytes"
	"context"
	"fmt"
	"io/ioutil"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sidkik/sitesync/cmd/util"
)

func TestRun(t *testing.T) {
	dir := t.TempDir()
	remotePath := filepath.Join(dir, "remote.json")

	util.ConfigPath = filepath.Join(dir, "sitesync.yaml")
	require.NoError(t, ioutil.WriteFile(util.ConfigPath, []byte(fmt.Sprintf(
		"version: \"1.0\"\nremote:\n  backend: file\n  path: %s\n", remotePath)), 0644))
	require.NoError(t, ioutil.WriteFile(remotePath, []byte(
		`{"https://example.com": {"tracked": true, "data": {"theme": "light"}}}`), 0644))

	var out bytes.Buffer
	stdout = &out

	// The local dump isn't needed to untrack a site.
	err := run(context.Background(), util.TabFlags{URL: "https://example.com/"})
	require.NoError(t, err)
	assert.Equal(t, "Stopped tracking https://example.com.\n", out.String())

	remote, err := ioutil.ReadFile(remotePath)
	require.NoError(t, err)
	assert.JSONEq(t, `{"https://example.com": {}}`, string(remote))
}

func TestRunBadURL(t *testing.T) {
	err := run(context.Background(), util.TabFlags{URL: "example.com"})
	assert.Error(t, err)
}
