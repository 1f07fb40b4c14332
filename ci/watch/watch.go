package watch

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sidkik/sitesync/ci/util"
	"github.com/sidkik/sitesync/pkg/site"
)

// Test checks that `sitesync watch` redraws the status when the local dump
// and the remote record change.
func Test(t *testing.T, helper *util.TestHelper) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	dump, err := helper.WriteDump("local.json", site.Snapshot{"theme": "dark"})
	require.NoError(t, err)
	tabArgs := []string{"--url", "https://example.com", "--local", dump}

	watchCtx, stopWatch := context.WithCancel(ctx)
	defer stopWatch()

	out, errChan, err := helper.Start(watchCtx,
		append([]string{"watch", "--values"}, tabArgs...)...)
	require.NoError(t, err)

	waitFor := func(exp string) {
		found := util.TestWithRetry(ctx, func() bool {
			select {
			case err := <-errChan:
				t.Fatalf("watch exited: %s", err)
			default:
			}
			return strings.Contains(out.String(), exp)
		})
		require.True(t, found, "never saw %q in:\n%s", exp, out.String())
	}

	waitFor("This site isn't tracked.")

	_, err = helper.Run(ctx, append([]string{"track"}, tabArgs...)...)
	require.NoError(t, err)
	// The dump and the new record now agree.
	waitFor("yes")

	_, err = helper.WriteDump("local.json", site.Snapshot{"theme": "sepia"})
	require.NoError(t, err)
	waitFor(`"sepia"`)

	stopWatch()
	for err := range errChan {
		assert.NoError(t, err)
	}
}
