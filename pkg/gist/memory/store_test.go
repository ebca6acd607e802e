package memory

import (
	"context"
	"io/ioutil"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"github.com/sidkik/gistsync/pkg/errors"
	"github.com/sidkik/gistsync/pkg/gist"
)

var ctx = context.Background()

func TestStore(t *testing.T) {
	now := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	store := New()
	store.Now = func() time.Time { return now }

	_, err := store.Get(ctx, "missing")
	assert.Equal(t, errors.NotFound{ID: "missing"}, err)

	doc, err := store.Create(ctx, gist.FileSet{
		"a.json": {Content: "1"},
		"b.json": {Content: "2"},
	}, true, "desc")
	assert.NoError(t, err)
	assert.Equal(t, gist.Document{
		ID:          "gist-1",
		Description: "desc",
		Public:      true,
		HTMLURL:     "memory://gist-1",
		UpdatedAt:   now,
		Files: gist.FileSet{
			"a.json": {Filename: "a.json", Content: "1"},
			"b.json": {Filename: "b.json", Content: "2"},
		},
	}, doc)

	// Modifying a returned document doesn't affect the store.
	doc.Files["a.json"].Content = "modified"

	doc, err = store.Update(ctx, "gist-1", gist.FileSet{
		"b.json": nil,
		"c.json": {Content: "3"},
	})
	assert.NoError(t, err)
	assert.Equal(t, gist.FileSet{
		"a.json": {Filename: "a.json", Content: "1"},
		"c.json": {Filename: "c.json", Content: "3"},
	}, doc.Files)

	fetched, err := store.Get(ctx, "gist-1")
	assert.NoError(t, err)
	assert.Equal(t, doc, fetched)

	_, err = store.Update(ctx, "missing", gist.FileSet{})
	assert.True(t, errors.IsNotFound(err))

	assert.NoError(t, store.Delete(ctx, "gist-1"))
	assert.True(t, errors.IsNotFound(store.Delete(ctx, "gist-1")))
	assert.Equal(t, 3, store.Writes())
}

func TestStoreCancelled(t *testing.T) {
	cancelled, cancel := context.WithCancel(ctx)
	cancel()

	_, err := New().Get(cancelled, "id")
	assert.True(t, errors.IsTransport(err))
}

// TestReconcileConverges runs the syncer against a store that applies
// updates the same way the real API does, and checks that the remote ends up
// matching the local files.
func TestReconcileConverges(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(ioutil.Discard)

	store := New()
	syncer := gist.NewSyncer(store, gist.Options{}, logger)

	doc, err := syncer.Reconcile(ctx, "", gist.LocalIntent{
		{RemoteName: "settings.json", Content: "s1"},
		{RemoteName: "keybindings.json", Content: "k1"},
		{RemoteName: "extensions.json", Content: "e1"},
	}, true)
	assert.NoError(t, err)
	assert.Equal(t, 1, store.Writes())

	doc, err = syncer.Reconcile(ctx, doc.ID, gist.LocalIntent{
		{RemoteName: "settings.json", Content: "s2"},
		{RemoteName: "snippets.json", Content: "sn"},
	}, true)
	assert.NoError(t, err)
	assert.Equal(t, 2, store.Writes())
	assert.Equal(t, gist.FileSet{
		"settings.json":    {Filename: "settings.json", Content: "s2"},
		"keybindings.json": {Filename: "keybindings.json", Content: "k1"},
		"snippets.json":    {Filename: "snippets.json", Content: "sn"},
	}, doc.Files)

	// Syncing the same files again is a no-op.
	_, err = syncer.Reconcile(ctx, doc.ID, gist.LocalIntent{
		{RemoteName: "settings.json", Content: "s2"},
		{RemoteName: "snippets.json", Content: "sn"},
	}, false)
	assert.NoError(t, err)
	assert.Equal(t, 2, store.Writes())
}
