package fswatch

import (
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"

	"github.com/sidkik/sitesync/pkg/errors"
)

func TestGetPathsToWatch(t *testing.T) {
	tests := []struct {
		name     string
		dirs     []string
		files    []string
		paths    []string
		expPaths []string
		expErr   error
	}{
		{
			name:     "Dump and remote file",
			dirs:     []string{"/home/user/dumps", "/home/user/.sitesync"},
			files:    []string{"/home/user/dumps/example.json", "/home/user/.sitesync/remote.json"},
			paths:    []string{"/home/user/dumps/example.json", "/home/user/.sitesync/remote.json"},
			expPaths: []string{"/home/user/.sitesync", "/home/user/.sitesync/remote.json",
				"/home/user/dumps", "/home/user/dumps/example.json"},
		},
		{
			name:     "Files in the same directory",
			dirs:     []string{"/dumps"},
			files:    []string{"/dumps/a.json", "/dumps/b.json"},
			paths:    []string{"/dumps/a.json", "/dumps/b.json", ""},
			expPaths: []string{"/dumps", "/dumps/a.json", "/dumps/b.json"},
		},
		{
			name:     "File not created yet",
			dirs:     []string{"/dumps"},
			paths:    []string{"/dumps/a.json"},
			expPaths: []string{"/dumps"},
		},
		{
			name:     "Directory",
			dirs:     []string{"/dumps"},
			paths:    []string{"/dumps"},
			expPaths: []string{"/dumps"},
		},
		{
			name:   "Missing parent",
			paths:  []string{"/missing/a.json"},
			expErr: errors.FileNotFound{Path: "/missing/a.json"},
		},
	}

	for _, test := range tests {
		fs = afero.NewMemMapFs()
		for _, dir := range test.dirs {
			assert.NoError(t, fs.MkdirAll(dir, 0755))
		}
		for _, file := range test.files {
			assert.NoError(t, afero.WriteFile(fs, file, []byte("{}"), 0644))
		}

		paths, err := getPathsToWatch(test.paths)
		assert.Equal(t, test.expErr, err, test.name)
		assert.Equal(t, test.expPaths, paths, test.name)
	}
}

func TestCombineUpdates(t *testing.T) {
	t.Parallel()

	updates := make(chan fsnotify.Event, 1024)
	addEvents := func(num int) {
		for i := 0; i < num; i++ {
			updates <- fsnotify.Event{}
		}
	}

	// Seed with events.
	numUpdates := 100
	addEvents(numUpdates)
	combined := combineUpdates(updates)

	// Assert that the events are being combined.
	numCombined := countEvents(combined)
	assert.True(t, numCombined < numUpdates,
		"expected less combined events (%d) than %d", numCombined, numUpdates)

	// The combined channel is closed once the updates stop.
	close(updates)
	for range combined {
	}
}

func countEvents(c chan struct{}) (n int) {
	// Block until the first event.
	<-c
	n++

	// Count the number of events until there hasn't been any new events in 500
	// milliseconds.
	for {
		select {
		case <-c:
			n++
		case <-time.After(500 * time.Millisecond):
			return n
		}
	}
}
