package sync

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
	"github.com/sidkik/sitesync/pkg/store/file"
	"github.com/sidkik/sitesync/pkg/sync"
)

func setup(t *testing.T, restrict string) (remotePath, dumpPath string) {
	dir := t.TempDir()
	remotePath = filepath.Join(dir, "remote.json")
	dumpPath = filepath.Join(dir, "dump.json")

	util.ConfigPath = filepath.Join(dir, "sitesync.yaml")
	require.NoError(t, ioutil.WriteFile(util.ConfigPath, []byte(fmt.Sprintf(
		"version: \"1.0\"\nremote:\n  backend: file\n  path: %s\nrestrict: %s\n",
		remotePath, restrict)), 0644))
	require.NoError(t, ioutil.WriteFile(remotePath, []byte(
		`{"https://example.com": {"tracked": true, "data": {"theme": "light", "lang": "fr"}}}`), 0644))
	require.NoError(t, ioutil.WriteFile(dumpPath, []byte(
		`{"theme": "dark", "lang": "en"}`), 0644))
	return remotePath, dumpPath
}

func readRecord(t *testing.T, remotePath string) sync.Record {
	b, ok, err := file.New(remotePath).Get(context.Background(), "https://example.com")
	require.NoError(t, err)
	require.True(t, ok)

	record, err := sync.ParseRecord(b)
	require.NoError(t, err)
	return record
}

func TestRun(t *testing.T) {
	tests := []struct {
		name     string
		restrict string
		opts     options
		expData  map[string]string
		expOut   string
	}{
		{
			name:    "PreferRemote",
			opts:    options{prefer: "remote"},
			expData: map[string]string{"theme": "light", "lang": "fr"},
			expOut:  "Synced https://example.com preferring remote values (2 keys).\n",
		},
		{
			name:    "PreferLocal",
			opts:    options{prefer: "local"},
			expData: map[string]string{"theme": "dark", "lang": "en"},
			expOut:  "Synced https://example.com preferring local values (2 keys).\n",
		},
		{
			name:     "PatchKeys",
			restrict: "patch",
			opts:     options{prefer: "local", keys: []string{"theme"}},
			expData:  map[string]string{"theme": "dark", "lang": "fr"},
			expOut:   "Synced https://example.com preferring local values (2 keys).\n",
		},
		{
			name:     "DropKeys",
			restrict: "drop",
			opts:     options{prefer: "local", keys: []string{"theme"}},
			expData:  map[string]string{"theme": "light", "lang": "en"},
			expOut:   "Synced https://example.com preferring local values (2 keys).\n",
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			remotePath, dumpPath := setup(t, test.restrict)
			var out bytes.Buffer
			stdout = &out

			test.opts.tab = util.TabFlags{URL: "https://example.com/", Local: dumpPath}
			require.NoError(t, run(context.Background(), test.opts))
			assert.Equal(t, test.expOut, out.String())

			record := readRecord(t, remotePath)
			assert.True(t, record.Tracked)
			assert.Equal(t, test.expData, map[string]string(record.Data))
		})
	}
}

func TestRunBadPolicy(t *testing.T) {
	err := run(context.Background(), options{prefer: "both"})
	assert.EqualError(t, err, `Unknown side "both". It must be either "local" or "remote".`)
}
