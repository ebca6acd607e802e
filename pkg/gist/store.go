package gist

import "context"

// Store is the remote service that holds gists.
//
// Implementations should classify failures using the types in pkg/errors:
// errors.NotFound when the gist doesn't exist, errors.Unauthorized for
// credential problems, and errors.TransportError for connectivity failures.
type Store interface {
	// Get returns the gist with the given id, including the full contents
	// of each file.
	Get(ctx context.Context, id string) (Document, error)

	// Create creates a new gist containing `files`.
	Create(ctx context.Context, files FileSet, public bool, description string) (Document, error)

	// Update applies `files` to the gist. Files that aren't mentioned are
	// left untouched, and nil entries are deleted.
	Update(ctx context.Context, id string, files FileSet) (Document, error)

	// Delete deletes the gist.
	Delete(ctx context.Context, id string) error
}
