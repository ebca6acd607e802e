package config

import (
	"fmt"
	"path/filepath"

	"github.com/sidkik/gistsync/pkg/errors"
)

// FileEntry maps a local file to its name within the gist.
type FileEntry struct {
	// Path is the path to the file on the local machine. It's required.
	Path string `json:"path"`

	// Name is the filename within the gist. It defaults to the base name of
	// Path.
	Name string `json:"name,omitempty"`
}

// RemoteName returns the filename that the file is stored as in the gist.
func (f FileEntry) RemoteName() string {
	if f.Name != "" {
		return f.Name
	}
	return filepath.Base(f.Path)
}

// Validate checks that the config is well formed. Each file must have a
// path, and no two files may share a remote name since gists are flat.
func (u User) Validate() error {
	seen := map[string]string{}
	for i, f := range u.Files {
		if f.Path == "" {
			return errors.MissingFieldError{Field: fmt.Sprintf("files[%d].path", i)}
		}

		name := f.RemoteName()
		if other, ok := seen[name]; ok {
			return errors.NewFriendlyError("Both %q and %q are synced as %q.\n"+
				"Set a unique `name` for one of them in the gistsync config.",
				other, f.Path, name)
		}
		seen[name] = f.Path
	}
	return nil
}
