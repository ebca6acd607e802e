// Package memory implements an in-memory gist.Store. It's used in tests, and
// behaves like the real gists API: updates merge into the existing files and
// nil entries delete files.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sidkik/gistsync/pkg/errors"
	"github.com/sidkik/gistsync/pkg/gist"
)

// Store is a thread-safe in-memory gist.Store.
type Store struct {
	docs   map[string]gist.Document
	nextID int
	writes int
	lock   sync.Mutex

	// Now is used to set UpdatedAt. It defaults to time.Now.
	Now func() time.Time
}

// New creates an empty Store.
func New() *Store {
	return &Store{docs: map[string]gist.Document{}, Now: time.Now}
}

// Get implements gist.Store.
func (s *Store) Get(ctx context.Context, id string) (gist.Document, error) {
	if err := ctx.Err(); err != nil {
		return gist.Document{}, errors.TransportError{Op: "get gist", Err: err}
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	doc, ok := s.docs[id]
	if !ok {
		return gist.Document{}, errors.NotFound{ID: id}
	}
	return copyDocument(doc), nil
}

// Create implements gist.Store.
func (s *Store) Create(ctx context.Context, files gist.FileSet, public bool,
	description string) (gist.Document, error) {
	if err := ctx.Err(); err != nil {
		return gist.Document{}, errors.TransportError{Op: "create gist", Err: err}
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	s.nextID++
	s.writes++
	id := fmt.Sprintf("gist-%d", s.nextID)
	doc := gist.Document{
		ID:          id,
		Description: description,
		Public:      public,
		Files:       gist.FileSet{},
		HTMLURL:     "memory://" + id,
		UpdatedAt:   s.Now(),
	}
	applyFiles(doc.Files, files)
	s.docs[id] = doc
	return copyDocument(doc), nil
}

// Update implements gist.Store.
func (s *Store) Update(ctx context.Context, id string, files gist.FileSet) (gist.Document, error) {
	if err := ctx.Err(); err != nil {
		return gist.Document{}, errors.TransportError{Op: "update gist", Err: err}
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	doc, ok := s.docs[id]
	if !ok {
		return gist.Document{}, errors.NotFound{ID: id}
	}

	s.writes++
	applyFiles(doc.Files, files)
	doc.UpdatedAt = s.Now()
	s.docs[id] = doc
	return copyDocument(doc), nil
}

// Delete implements gist.Store.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return errors.TransportError{Op: "delete gist", Err: err}
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	if _, ok := s.docs[id]; !ok {
		return errors.NotFound{ID: id}
	}
	s.writes++
	delete(s.docs, id)
	return nil
}

// Writes returns the number of successful Create, Update, and Delete calls.
func (s *Store) Writes() int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.writes
}

func applyFiles(dst, src gist.FileSet) {
	for name, f := range src {
		if f == nil {
			delete(dst, name)
			continue
		}
		dst[name] = &gist.File{Filename: name, Content: f.Content}
	}
}

// copyDocument deep copies `doc` so that callers can't modify the stored
// files.
func copyDocument(doc gist.Document) gist.Document {
	files := gist.FileSet{}
	for name, f := range doc.Files {
		fileCopy := *f
		files[name] = &fileCopy
	}
	doc.Files = files
	return doc
}
