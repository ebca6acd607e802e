// Package local reads and writes the user's synced files on the local
// machine.
package local

import (
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/sidkik/gistsync/pkg/config"
	"github.com/sidkik/gistsync/pkg/errors"
	"github.com/sidkik/gistsync/pkg/gist"
)

// fs is used for mock tests. It will be overridden by afero.NewMemMapFs()
// in the tests.
var fs = afero.NewOsFs()

// Snapshot reads the contents of each configured file.
// Files that don't exist are left out of the snapshot, so their remote copies
// are deleted unless they're protected.
func Snapshot(entries []config.FileEntry) (gist.LocalIntent, error) {
	var uploads gist.LocalIntent
	for _, entry := range entries {
		contents, err := afero.ReadFile(fs, entry.Path)
		if err != nil {
			if os.IsNotExist(err) {
				log.WithField("path", entry.Path).Debug("Skipping missing file")
				continue
			}
			return nil, errors.WithContext(err, "read "+entry.Path)
		}

		uploads = append(uploads, gist.Upload{
			RemoteName: entry.RemoteName(),
			Content:    string(contents),
		})
	}
	return uploads, nil
}

// Apply writes the gist's files to their configured local paths. Remote files
// that aren't in `entries` are ignored, as are empty files. It returns the
// paths that were written.
func Apply(doc gist.Document, entries []config.FileEntry) (written []string, err error) {
	for _, entry := range entries {
		f := doc.Files[entry.RemoteName()]
		if f == nil || f.Content == "" {
			continue
		}

		if current, err := afero.ReadFile(fs, entry.Path); err == nil &&
			string(current) == f.Content {
			continue
		}

		if err := fs.MkdirAll(filepath.Dir(entry.Path), 0755); err != nil {
			return written, errors.WithContext(err, "create parent directory")
		}

		if err := afero.WriteFile(fs, entry.Path, []byte(f.Content), 0644); err != nil {
			return written, errors.WithContext(err, "write "+entry.Path)
		}
		written = append(written, entry.Path)
	}
	return written, nil
}
