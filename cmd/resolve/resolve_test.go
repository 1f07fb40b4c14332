package resolve

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
	"github.com/sidkik/sitesync/pkg/errors"
	"github.com/sidkik/sitesync/pkg/site"
)

func setup(t *testing.T, remote string) (dumpPath string) {
	dir := t.TempDir()
	remotePath := filepath.Join(dir, "remote.json")
	dumpPath = filepath.Join(dir, "dump.json")

	util.ConfigPath = filepath.Join(dir, "sitesync.yaml")
	require.NoError(t, ioutil.WriteFile(util.ConfigPath, []byte(fmt.Sprintf(
		"version: \"1.0\"\nremote:\n  backend: file\n  path: %s\n", remotePath)), 0644))
	require.NoError(t, ioutil.WriteFile(remotePath, []byte(remote), 0644))
	require.NoError(t, ioutil.WriteFile(dumpPath, []byte(
		`{"theme": "dark", "lang": "en"}`), 0644))
	return dumpPath
}

func TestRun(t *testing.T) {
	tests := []struct {
		name     string
		key, use string
		expOut   string
		expLocal site.Snapshot
	}{
		{
			name:     "UseRemote",
			key:      "theme",
			use:      "remote",
			expOut:   "Resolved \"theme\" using the remote value \"light\".\n",
			expLocal: site.Snapshot{"theme": "light", "lang": "en"},
		},
		{
			name:     "UseRemoteUnset",
			key:      "lang",
			use:      "remote",
			expOut:   "Resolved \"lang\" using the remote side. The key is now unset.\n",
			expLocal: site.Snapshot{"theme": "dark"},
		},
		{
			name:     "UseLocal",
			key:      "theme",
			use:      "local",
			expOut:   "Resolved \"theme\" using the local value \"dark\".\n",
			expLocal: site.Snapshot{"theme": "dark", "lang": "en"},
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			dumpPath := setup(t,
				`{"https://example.com": {"tracked": true, "data": {"theme": "light"}}}`)
			var out bytes.Buffer
			stdout = &out

			err := run(context.Background(), options{
				tab: util.TabFlags{URL: "https://example.com/", Local: dumpPath},
				key: test.key,
				use: test.use,
			})
			require.NoError(t, err)
			assert.Equal(t, test.expOut, out.String())

			dump, err := ioutil.ReadFile(dumpPath)
			require.NoError(t, err)
			local, err := site.ParseSnapshot(dump)
			require.NoError(t, err)
			assert.Equal(t, test.expLocal, local)
		})
	}
}

func TestRunUntracked(t *testing.T) {
	dumpPath := setup(t, `{"https://example.com": {}}`)

	err := run(context.Background(), options{
		tab: util.TabFlags{URL: "https://example.com/", Local: dumpPath},
		key: "theme",
		use: "local",
	})
	msg, ok := errors.GetFriendlyMessage(err)
	assert.True(t, ok)
	assert.Equal(t, "https://example.com/ isn't tracked. "+
		"Run `sitesync track` before resolving keys.", msg)
}

func TestRunMissingKey(t *testing.T) {
	err := run(context.Background(), options{use: "local"})
	_, ok := errors.GetFriendlyMessage(err)
	assert.True(t, ok)
}
