package fswatch

import (
	"sort"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/jonboulle/clockwork"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"

	"github.com/sidkik/gistsync/pkg/errors"
)

func TestGetPathsToWatch(t *testing.T) {
	tests := []struct {
		name     string
		dirs     []string
		files    []string
		watch    []string
		expPaths []string
		expError error
	}{
		{
			name:     "Existing files",
			dirs:     []string{"/code/User", "/home/kevin"},
			files:    []string{"/code/User/settings.json", "/code/User/keybindings.json", "/home/kevin/.vimrc"},
			watch:    []string{"/code/User/settings.json", "/code/User/keybindings.json", "/home/kevin/.vimrc"},
			expPaths: []string{"/code/User", "/code/User/settings.json", "/code/User/keybindings.json", "/home/kevin", "/home/kevin/.vimrc"},
		},
		{
			name:     "Missing file in existing directory",
			dirs:     []string{"/code/User"},
			watch:    []string{"/code/User/settings.json"},
			expPaths: []string{"/code/User"},
		},
		{
			name:     "Missing directory is skipped",
			dirs:     []string{"/code/User"},
			files:    []string{"/code/User/settings.json"},
			watch:    []string{"/code/User/settings.json", "/missing/dir/file"},
			expPaths: []string{"/code/User", "/code/User/settings.json"},
		},
		{
			name:     "Nothing to watch",
			watch:    []string{"/missing/dir/file"},
			expError: errors.FileNotFound{Path: "/missing/dir"},
		},
		{
			name:     "No files",
			expError: errors.New("no files to watch"),
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			fs = afero.NewMemMapFs()
			for _, dir := range test.dirs {
				assert.NoError(t, fs.MkdirAll(dir, 0755))
			}
			for _, file := range test.files {
				assert.NoError(t, afero.WriteFile(fs, file, []byte("testfile"), 0644))
			}

			paths, err := getPathsToWatch(test.watch)
			assert.Equal(t, test.expError, err)

			// Sort for consistency.
			sort.Strings(test.expPaths)
			sort.Strings(paths)
			assert.Equal(t, test.expPaths, paths)
		})
	}
}

func TestDebounce(t *testing.T) {
	clock := clockwork.NewFakeClock()
	events := make(chan fsnotify.Event)
	tracked := map[string]struct{}{"/code/User/settings.json": {}}
	changes := debounce(events, tracked, clock, time.Second)

	// Events for untracked files are ignored.
	events <- fsnotify.Event{Name: "/code/User/other.json", Op: fsnotify.Write}
	assertNoChange(t, changes)

	// Bursts of events are reported once the files stop changing.
	events <- fsnotify.Event{Name: "/code/User/settings.json", Op: fsnotify.Write}
	events <- fsnotify.Event{Name: "/code/User/./settings.json", Op: fsnotify.Chmod}
	clock.BlockUntil(2)
	assertNoChange(t, changes)

	clock.Advance(time.Second)
	select {
	case <-changes:
	case <-time.After(5 * time.Second):
		t.Fatal("change was never reported")
	}
	assertNoChange(t, changes)

	close(events)
}

func assertNoChange(t *testing.T, changes <-chan struct{}) {
	select {
	case <-changes:
		t.Fatal("unexpected change")
	case <-time.After(50 * time.Millisecond):
	}
}
