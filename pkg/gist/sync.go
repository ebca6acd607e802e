package gist

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/sidkik/gistsync/pkg/errors"
)

// DefaultDescription is the description given to gists created by gistsync.
// It's used to recognize gistsync documents among a user's other gists.
const DefaultDescription = "gistsync: synced settings"

// Options configures a Syncer.
type Options struct {
	// Public controls the visibility of newly created gists. Gists are
	// private by default.
	Public bool

	// Description is used for newly created gists. It defaults to
	// DefaultDescription.
	Description string

	// StrictLookup makes a connectivity failure while checking whether the
	// gist exists abort the sync, rather than falling through to creating a
	// new gist.
	StrictLookup bool
}

// Syncer reconciles a remote gist with the user's local files.
// Syncers hold no state between calls, so concurrent calls are safe, but
// calls against the same gist aren't coordinated with each other.
type Syncer struct {
	store Store
	opts  Options
	log   logrus.FieldLogger
}

// NewSyncer creates a Syncer that writes to `store`.
func NewSyncer(store Store, opts Options, log logrus.FieldLogger) Syncer {
	if opts.Description == "" {
		opts.Description = DefaultDescription
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return Syncer{store: store, opts: opts, log: log}
}

type existence int

const (
	absent existence = iota
	exists
	failed
)

// lookupResult is the outcome of checking whether a gist exists. When the
// state is `failed`, err holds the reason the check couldn't be completed.
type lookupResult struct {
	state existence
	doc   Document
	err   error
}

func (s Syncer) lookup(ctx context.Context, id string) lookupResult {
	if id == "" {
		return lookupResult{state: absent}
	}

	doc, err := s.store.Get(ctx, id)
	switch {
	case err == nil:
		return lookupResult{state: exists, doc: doc}
	case errors.IsNotFound(err):
		return lookupResult{state: absent}
	default:
		return lookupResult{state: failed, err: err}
	}
}

// Reconcile makes the gist with the given id match `uploads`.
//
// If the gist exists, only the files that changed are sent, and the existing
// gist is returned without any write if nothing changed. If the gist doesn't
// exist (or `id` is empty), a new gist is created when `upsert` is true, and
// errors.NotFound is returned otherwise.
//
// Credential and connectivity failures while checking for the gist are not
// reported as NotFound. If `upsert` is set, creating the gist is still
// attempted, and the create's error is returned if that fails too. Other
// lookup failures are returned without creating anything.
func (s Syncer) Reconcile(ctx context.Context, id string, uploads LocalIntent,
	upsert bool) (Document, error) {

	local := uploads.FileSet()
	log := s.log.WithField("gist", id)

	res := s.lookup(ctx, id)
	switch res.state {
	case exists:
		changes := Diff(local, res.doc.Files)
		if changes == nil {
			log.Debug("Gist is already up to date")
			return res.doc, nil
		}

		log.WithField("files", changes.Names()).Debug("Updating gist")
		doc, err := s.store.Update(ctx, id, changes)
		if err != nil {
			return Document{}, errors.WithContext(err, "update gist")
		}
		return doc, nil
	case failed:
		if !upsert || !mayCreateAfter(res.err, s.opts.StrictLookup) {
			return Document{}, errors.WithContext(res.err, "get gist")
		}

		log.WithError(res.err).Warn(
			"Failed to check whether the gist exists. Creating a new gist instead.")
	case absent:
		if !upsert {
			return Document{}, errors.NotFound{ID: id}
		}
	}

	files := withContent(local)
	if len(files) == 0 {
		return Document{}, errors.NewFriendlyError("There are no files to upload. " +
			"A gist can't be created until at least one synced file exists " +
			"and isn't empty.")
	}

	log.Debug("Creating gist")
	doc, err := s.store.Create(ctx, files, s.opts.Public, s.opts.Description)
	if err != nil {
		return Document{}, errors.WithContext(err, "create gist")
	}
	return doc, nil
}

// mayCreateAfter returns whether a failed lookup still allows creating a new
// gist. Only credential and connectivity failures qualify. Any other failure
// means the server answered about a gist that may well exist.
func mayCreateAfter(lookupErr error, strict bool) bool {
	switch {
	case errors.IsUnauthorized(lookupErr):
		return true
	case errors.IsTransport(lookupErr):
		return !strict
	default:
		return false
	}
}

// withContent drops files that have no contents, since they're never
// treated as real local files.
func withContent(files FileSet) FileSet {
	filtered := FileSet{}
	for name, f := range files {
		if f.hasContent() {
			filtered[name] = f.copy()
		}
	}
	return filtered
}
