package sites

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
	require.NoError(t, ioutil.WriteFile(remotePath, []byte(`{
		"https://b.example.com": {},
		"https://a.example.com": {"tracked": true, "date": "legacy", "data": {"theme": "light"}}
	}`), 0644))

	var out bytes.Buffer
	stdout = &out

	require.NoError(t, run(context.Background()))
	assert.Equal(t, "ORIGIN                 LAST SYNCED  KEYS\n"+
		"https://a.example.com  legacy       1\n", out.String())
}
