package fswatch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/sidkik/sitesync/pkg/errors"
)

var fs = afero.NewOsFs()

// Watch watches for changes to `paths`, such as a local storage dump or the
// remote store file. It sends an event on the returned channel whenever one
// of them changes. Bursts of changes are combined into a single event. The
// watch stops when `ctx` is done.
func Watch(ctx context.Context, paths ...string) (chan struct{}, error) {
	pathsToWatch, err := getPathsToWatch(paths)
	if err != nil {
		return nil, errors.WithContext(err, "get paths")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.WithContext(err, "create watcher")
	}

	for _, path := range pathsToWatch {
		if err := watcher.Add(path); err != nil {
			// Close the watcher so that we release the file handlers for the
			// previously added paths.
			if err := watcher.Close(); err != nil {
				log.WithError(err).Warn("Failed to close file watcher")
			}

			return nil, errors.WithContext(err, fmt.Sprintf("watch %q", path))
		}
	}

	go func() {
		<-ctx.Done()
		if err := watcher.Close(); err != nil {
			log.WithError(err).Warn("Failed to close file watcher")
		}
	}()

	go func() {
		for err := range watcher.Errors {
			log.WithError(err).Warn("File watcher error")
		}
	}()
	return combineUpdates(watcher.Events), nil
}

func combineUpdates(updates <-chan fsnotify.Event) chan struct{} {
	combined := make(chan struct{}, 1)
	go func() {
		for range updates {
			select {
			case combined <- struct{}{}:
			default:
			}
		}
		close(combined)
	}()
	return combined
}

func getPathsToWatch(paths []string) ([]string, error) {
	toWatch := map[string]struct{}{}
	for _, path := range paths {
		if path == "" {
			continue
		}

		fi, err := fs.Stat(path)
		switch {
		case os.IsNotExist(err):
			// Watch the parent so that we notice when the file is created.
			parent := filepath.Dir(path)
			if _, err := fs.Stat(parent); err != nil {
				if os.IsNotExist(err) {
					return nil, errors.FileNotFound{Path: path}
				}
				return nil, errors.WithContext(err, "stat")
			}
			toWatch[parent] = struct{}{}
		case err != nil:
			return nil, errors.WithContext(err, "stat")
		case fi.IsDir():
			toWatch[path] = struct{}{}
		default:
			// Watch the parent directory as well as the file itself. Tools
			// that rewrite the file by renaming a new copy over it replace
			// the watched inode, which only shows up as an event on the
			// directory.
			toWatch[path] = struct{}{}
			toWatch[filepath.Dir(path)] = struct{}{}
		}
	}

	var sorted []string
	for path := range toWatch {
		sorted = append(sorted, path)
	}
	sort.Strings(sorted)
	return sorted, nil
}
