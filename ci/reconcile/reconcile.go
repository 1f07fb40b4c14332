package reconcile

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sidkik/sitesync/ci/util"
	"github.com/sidkik/sitesync/pkg/site"
)

const (
	siteURL = "https://example.com/settings?tab=1"
	origin  = "https://example.com"
)

// Test walks a site through tracking, diverging, syncing, resolving and
// untracking, checking both the local dump and the remote record along the
// way.
func Test(t *testing.T, helper *util.TestHelper) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	dump, err := helper.WriteDump("local.json", site.Snapshot{
		"theme": "dark",
		"lang":  "en",
	})
	require.NoError(t, err)

	run := func(args ...string) string {
		out, err := helper.Run(ctx, args...)
		require.NoError(t, err)
		return out
	}
	tabArgs := []string{"--url", siteURL, "--local", dump}

	// An untracked site has no remote record.
	out := run(append([]string{"status"}, tabArgs...)...)
	assert.Contains(t, out, "This site isn't tracked.")

	out = run(append([]string{"track"}, tabArgs...)...)
	assert.Equal(t, "Tracking "+origin+" (2 keys).\n", out)

	record, err := helper.Record(ctx, origin)
	require.NoError(t, err)
	assert.True(t, record.Tracked)
	assert.Equal(t, site.Snapshot{"theme": "dark", "lang": "en"}, record.Data)

	out = run("sites")
	assert.Contains(t, out, origin)

	// Diverge the local copy from the remote record.
	_, err = helper.WriteDump("local.json", site.Snapshot{
		"theme": "light",
		"font":  "serif",
	})
	require.NoError(t, err)

	out = run(append([]string{"status", "--values"}, tabArgs...)...)
	assert.Contains(t, out, `"light"`)
	assert.Contains(t, out, "Run `sitesync sync` or `sitesync resolve`")

	// Resolving with the remote value rewrites the local key.
	out = run(append([]string{"resolve", "--key", "theme", "--use", "remote"}, tabArgs...)...)
	assert.Equal(t, "Resolved \"theme\" using the remote value \"dark\".\n", out)

	local, err := helper.ReadDump(dump)
	require.NoError(t, err)
	assert.Equal(t, "dark", local["theme"])

	// Resolving with the local side only touches the given key.
	out = run(append([]string{"resolve", "--key", "font", "--use", "local"}, tabArgs...)...)
	assert.Equal(t, "Resolved \"font\" using the local value \"serif\".\n", out)

	record, err = helper.Record(ctx, origin)
	require.NoError(t, err)
	assert.Equal(t, site.Snapshot{"theme": "dark", "lang": "en", "font": "serif"}, record.Data)

	out = run(append([]string{"sync", "--prefer", "local"}, tabArgs...)...)
	assert.Equal(t, "Synced "+origin+" preferring local values (3 keys).\n", out)

	out = run("untrack", "--url", siteURL)
	assert.Equal(t, "Stopped tracking "+origin+".\n", out)

	record, err = helper.Record(ctx, origin)
	require.NoError(t, err)
	assert.False(t, record.Tracked)

	out = run("sites")
	assert.Equal(t, "No tracked sites.\n", out)

	// Resolving an untracked site fails with a friendly message.
	_, err = helper.Run(ctx, append([]string{"resolve", "--key", "theme"}, tabArgs...)...)
	assert.Error(t, err)
}
