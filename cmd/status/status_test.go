package status

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
	"github.com/sidkik/sitesync/pkg/sync"
)

func TestRun(t *testing.T) {
	dir := t.TempDir()
	remotePath := filepath.Join(dir, "remote.json")
	dumpPath := filepath.Join(dir, "dump.json")

	util.ConfigPath = filepath.Join(dir, "sitesync.yaml")
	require.NoError(t, ioutil.WriteFile(util.ConfigPath, []byte(fmt.Sprintf(
		"version: \"1.0\"\nremote:\n  backend: file\n  path: %s\n", remotePath)), 0644))
	require.NoError(t, ioutil.WriteFile(remotePath, []byte(
		`{"https://example.com": {"tracked": true, "date": "2026-10-15T12:00:00Z", `+
			`"data": {"theme": "light"}}}`), 0644))
	require.NoError(t, ioutil.WriteFile(dumpPath, []byte(
		`{"theme": "dark", "lang": "en"}`), 0644))

	var out bytes.Buffer
	stdout = &out

	err := run(context.Background(), util.TabFlags{URL: "https://example.com/", Local: dumpPath}, true)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Site Origin:")
	assert.Contains(t, out.String(), "https://example.com")
	assert.Contains(t, out.String(), `"dark"`)
	assert.Contains(t, out.String(), "Run `sitesync sync`")
}

func TestPrintUntracked(t *testing.T) {
	var out bytes.Buffer
	Print(&out, "https://example.com", sync.Record{}, nil, false)
	assert.Contains(t, out.String(), "This site isn't tracked.")
	assert.Contains(t, out.String(), "No keys in local storage or the remote record.")
}

func TestPrintInSync(t *testing.T) {
	dark := "dark"
	var out bytes.Buffer
	Print(&out, "https://example.com", sync.Record{Tracked: true, Date: "legacy"},
		[]sync.StatusEntry{{Key: "theme", LocalValue: &dark, RemoteValue: &dark, InSync: true}},
		false)
	assert.NotContains(t, out.String(), "sitesync")
	assert.Contains(t, out.String(), "Last Synced: legacy")
}
