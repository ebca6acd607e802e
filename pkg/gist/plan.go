package gist

import (
	"context"
	"sort"

	"github.com/sidkik/gistsync/pkg/errors"
)

// Action describes what a sync would do to a single remote file.
type Action int

const (
	// Create means the file doesn't exist remotely and will be uploaded.
	Create Action = iota

	// Update means the remote file's contents will be replaced.
	Update

	// Delete means the remote file will be removed.
	Delete

	// Keep means the remote file has no local counterpart, but is protected
	// from deletion.
	Keep
)

func (a Action) String() string {
	switch a {
	case Create:
		return "create"
	case Update:
		return "update"
	case Delete:
		return "delete"
	case Keep:
		return "keep"
	default:
		return "unknown"
	}
}

// PlanEntry is the planned action for one file.
type PlanEntry struct {
	Name   string
	Action Action
}

// Plan describes the writes Reconcile would make, without making them.
type Plan struct {
	// NewGist is true if the gist doesn't exist and would be created.
	NewGist bool

	// Remote is the current gist. It's empty if NewGist is true.
	Remote Document

	// Changes is what would be sent to the store. It's nil if the gist is
	// already up to date.
	Changes FileSet

	// Kept lists the protected remote files that are missing locally.
	Kept []string
}

// Plan computes what Reconcile would do for the same arguments, assuming
// upsert is allowed. It only reads from the store.
func (s Syncer) Plan(ctx context.Context, id string, uploads LocalIntent) (Plan, error) {
	local := uploads.FileSet()

	res := s.lookup(ctx, id)
	switch res.state {
	case failed:
		return Plan{}, errors.WithContext(res.err, "get gist")
	case absent:
		changes := withContent(local)
		if len(changes) == 0 {
			changes = nil
		}
		return Plan{NewGist: true, Changes: changes}, nil
	}

	plan := Plan{
		Remote:  res.doc,
		Changes: Diff(local, res.doc.Files),
	}
	for _, name := range res.doc.Files.Names() {
		if _, ok := local[name]; !ok && IsProtected(name) {
			plan.Kept = append(plan.Kept, name)
		}
	}
	return plan, nil
}

// Entries returns the per-file actions in the plan, sorted by filename.
func (p Plan) Entries() (entries []PlanEntry) {
	kept := map[string]struct{}{}
	for _, name := range p.Kept {
		kept[name] = struct{}{}
	}

	names := p.Changes.Names()
	for _, name := range p.Kept {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if _, ok := kept[name]; ok {
			entries = append(entries, PlanEntry{name, Keep})
			continue
		}

		action := Update
		if p.Changes[name] == nil {
			action = Delete
		} else if _, ok := p.Remote.Files[name]; !ok {
			action = Create
		}
		entries = append(entries, PlanEntry{name, action})
	}
	return entries
}
