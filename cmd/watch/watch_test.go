package watch

import (
	"context"
	"fmt"
	"io/ioutil"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sidkik/sitesync/cmd/util"
	"github.com/sidkik/sitesync/pkg/config"
	"github.com/sidkik/sitesync/pkg/site"
)

func TestRun(t *testing.T) {
	dir := t.TempDir()
	remotePath := filepath.Join(dir, "remote.json")
	dumpPath := filepath.Join(dir, "dump.json")

	util.ConfigPath = filepath.Join(dir, "sitesync.yaml")
	require.NoError(t, ioutil.WriteFile(util.ConfigPath, []byte(fmt.Sprintf(
		"version: \"1.0\"\nremote:\n  backend: file\n  path: %s\n", remotePath)), 0644))
	require.NoError(t, ioutil.WriteFile(dumpPath, []byte(`{"theme": "dark"}`), 0644))

	updates := make(chan struct{}, 1)
	var watched []string
	watchFiles = func(_ context.Context, paths ...string) (chan struct{}, error) {
		watched = paths
		return updates, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var renders []string
	render := func(s string) {
		renders = append(renders, s)
		switch len(renders) {
		case 1:
			// Simulate the page changing its local storage.
			require.NoError(t, ioutil.WriteFile(dumpPath, []byte(`{"theme": "light"}`), 0644))
			updates <- struct{}{}
		case 2:
			cancel()
		}
	}

	err := run(ctx, util.TabFlags{URL: "https://example.com/", Local: dumpPath}, true, render)
	require.NoError(t, err)
	assert.Equal(t, []string{dumpPath, remotePath}, watched)

	require.Len(t, renders, 2)
	assert.Contains(t, renders[0], `"dark"`)
	assert.Contains(t, renders[1], `"light"`)
}

func TestRunStatusError(t *testing.T) {
	dir := t.TempDir()
	dumpPath := filepath.Join(dir, "dump.json")

	util.ConfigPath = filepath.Join(dir, "sitesync.yaml")
	require.NoError(t, ioutil.WriteFile(util.ConfigPath, []byte(
		"version: \"1.0\"\nremote:\n  backend: memory\n"), 0644))
	require.NoError(t, ioutil.WriteFile(dumpPath, []byte(`not json`), 0644))

	updates := make(chan struct{})
	close(updates)
	watchFiles = func(context.Context, ...string) (chan struct{}, error) {
		return updates, nil
	}

	var renders []string
	err := run(context.Background(), util.TabFlags{URL: "https://example.com/", Local: dumpPath},
		false, func(s string) { renders = append(renders, s) })
	require.NoError(t, err)
	require.Len(t, renders, 1)
	assert.Contains(t, renders[0], "Failed to get status")
}

func TestWatchedPaths(t *testing.T) {
	tab := site.Tab{Path: "/dumps/example.json"}

	paths := watchedPaths(tab, config.User{
		Remote: config.Remote{Backend: config.BackendFile, Path: "/home/user/remote.json"},
	})
	assert.Equal(t, []string{"/dumps/example.json", "/home/user/remote.json"}, paths)

	paths = watchedPaths(tab, config.User{
		Remote: config.Remote{Backend: config.BackendS3, Bucket: "sites"},
	})
	assert.Equal(t, []string{"/dumps/example.json"}, paths)
}
