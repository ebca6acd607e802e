package fswatch

import (
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/jonboulle/clockwork"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/sidkik/gistsync/pkg/errors"
)

var fs = afero.NewOsFs()

// DefaultQuietPeriod is how long the watched files must go without changes
// before a change is reported. Editors often write a file several times
// when saving it.
const DefaultQuietPeriod = 500 * time.Millisecond

// Watcher reports changes to a set of files.
type Watcher struct {
	// Changes receives a value after the watched files change. Changes are
	// coalesced, so a single value may represent many file events.
	Changes <-chan struct{}

	watcher *fsnotify.Watcher
}

// Watch watches `files` for changes. Files don't need to exist yet. Since
// the files are watched through their parent directories, creating a file
// is noticed as well.
func Watch(files []string, clock clockwork.Clock, quiet time.Duration) (*Watcher, error) {
	pathsToWatch, err := getPathsToWatch(files)
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

			return nil, errors.WithContext(err, "watch "+path)
		}
	}

	go logErrors(watcher.Errors)

	tracked := map[string]struct{}{}
	for _, f := range files {
		tracked[filepath.Clean(f)] = struct{}{}
	}
	return &Watcher{
		Changes: debounce(watcher.Events, tracked, clock, quiet),
		watcher: watcher,
	}, nil
}

// Close stops watching for changes.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

func logErrors(errs <-chan error) {
	for err := range errs {
		log.WithError(err).Warn("File watcher error")
	}
}

// debounce filters `events` down to the tracked files, and sends a signal
// once no tracked file has changed for `quiet`.
func debounce(events <-chan fsnotify.Event, tracked map[string]struct{},
	clock clockwork.Clock, quiet time.Duration) <-chan struct{} {

	changes := make(chan struct{}, 1)
	go func() {
		var fire <-chan time.Time
		for {
			select {
			case event, ok := <-events:
				if !ok {
					return
				}

				if _, ok := tracked[filepath.Clean(event.Name)]; !ok {
					continue
				}
				fire = clock.After(quiet)
			case <-fire:
				fire = nil
				select {
				case changes <- struct{}{}:
				default:
				}
			}
		}
	}()
	return changes
}

// getPathsToWatch returns the directories containing `files`, plus the files
// themselves if they exist. Watching the file directly catches writes that
// don't generate directory events, and watching the parent catches the file
// being removed and re-added.
func getPathsToWatch(files []string) (paths []string, err error) {
	seen := map[string]struct{}{}
	add := func(path string) {
		if _, ok := seen[path]; !ok {
			seen[path] = struct{}{}
			paths = append(paths, path)
		}
	}

	for _, f := range files {
		dir := filepath.Dir(f)
		if _, err := fs.Stat(dir); err != nil {
			if os.IsNotExist(err) {
				log.WithField("path", dir).Debug(
					"Not watching file since its directory doesn't exist")
				continue
			}
			return nil, errors.WithContext(err, "stat")
		}
		add(dir)

		if fi, err := fs.Stat(f); err == nil && !fi.IsDir() {
			add(f)
		} else if err != nil && !os.IsNotExist(err) {
			return nil, errors.WithContext(err, "stat")
		}
	}

	switch {
	case len(files) == 0:
		return nil, errors.New("no files to watch")
	case len(paths) == 0:
		return nil, errors.FileNotFound{Path: filepath.Dir(files[0])}
	}
	return paths, nil
}
