package gist

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func files(contents map[string]string) FileSet {
	set := FileSet{}
	for name, content := range contents {
		set[name] = &File{Filename: name, Content: content}
	}
	return set
}

func TestDiff(t *testing.T) {
	tests := []struct {
		name   string
		local  FileSet
		remote FileSet
		exp    FileSet
	}{
		{
			name:   "Unchanged",
			local:  files(map[string]string{"a.json": "1"}),
			remote: files(map[string]string{"a.json": "1"}),
			exp:    nil,
		},
		{
			name:   "ChangedContents",
			local:  files(map[string]string{"a.json": "2"}),
			remote: files(map[string]string{"a.json": "1"}),
			exp:    files(map[string]string{"a.json": "2"}),
		},
		{
			name:   "ProtectedKeybindings",
			local:  FileSet{},
			remote: files(map[string]string{"keybindings.json": "x"}),
			exp:    nil,
		},
		{
			name:   "ProtectedSettings",
			local:  FileSet{},
			remote: files(map[string]string{"settings.json": "x", "mysettings.yaml": "y"}),
			exp:    nil,
		},
		{
			name:   "DeleteUnprotected",
			local:  FileSet{},
			remote: files(map[string]string{"extensions.json": "x"}),
			exp:    FileSet{"extensions.json": nil},
		},
		{
			name:   "NewFile",
			local:  files(map[string]string{"a.json": "1", "b.json": "2"}),
			remote: files(map[string]string{"a.json": "1"}),
			exp:    files(map[string]string{"b.json": "2"}),
		},
		{
			name:   "EmptyLocalDoesNotUpdate",
			local:  files(map[string]string{"a.json": ""}),
			remote: files(map[string]string{"a.json": "1"}),
			exp:    nil,
		},
		{
			name:   "EmptyLocalDoesNotCreate",
			local:  files(map[string]string{"a.json": ""}),
			remote: FileSet{},
			exp:    nil,
		},
		{
			name:   "NilLocalIgnored",
			local:  FileSet{"a.json": nil, "b.json": nil},
			remote: files(map[string]string{"a.json": "1"}),
			exp:    nil,
		},
		{
			name:  "Mixed",
			local: files(map[string]string{"settings.json": "new", "a.json": "same", "c.json": "c"}),
			remote: files(map[string]string{
				"settings.json":    "old",
				"a.json":           "same",
				"keybindings.json": "kb",
				"extensions.json":  "ext",
			}),
			exp: FileSet{
				"settings.json":   {Filename: "settings.json", Content: "new"},
				"c.json":          {Filename: "c.json", Content: "c"},
				"extensions.json": nil,
			},
		},
		{
			name:   "BothEmpty",
			local:  nil,
			remote: nil,
			exp:    nil,
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.exp, Diff(test.local, test.remote))
		})
	}
}

func TestDiffIdempotent(t *testing.T) {
	local := files(map[string]string{"a.json": "2", "b.json": "new"})
	remote := files(map[string]string{"a.json": "1", "gone.json": "x"})
	assert.Equal(t, Diff(local, remote), Diff(local, remote))
}

func TestDiffDoesNotAlias(t *testing.T) {
	local := files(map[string]string{"a.json": "2"})
	remote := files(map[string]string{"a.json": "1", "gone.json": "x"})
	localCopy := files(map[string]string{"a.json": "2"})
	remoteCopy := files(map[string]string{"a.json": "1", "gone.json": "x"})

	changes := Diff(local, remote)
	changes["a.json"].Content = "mutated"
	changes["extra"] = &File{Content: "extra"}

	assert.Equal(t, localCopy, local)
	assert.Equal(t, remoteCopy, remote)
}

func TestDiffNeverTombstonesProtected(t *testing.T) {
	remote := files(map[string]string{
		"settings.json":        "s",
		"keybindings.json":     "k",
		"user-settings.json":   "u",
		"vim-keybindings.conf": "v",
		"snippets.json":        "sn",
	})
	changes := Diff(FileSet{}, remote)
	assert.Equal(t, FileSet{"snippets.json": nil}, changes)
}

func TestIsProtected(t *testing.T) {
	assert.True(t, IsProtected("settings.json"))
	assert.True(t, IsProtected("keybindings.json"))
	assert.True(t, IsProtected("workspace-settings.yaml"))
	assert.False(t, IsProtected("extensions.json"))
	assert.False(t, IsProtected("Settings.json"))
}

func TestLocalIntentLastWins(t *testing.T) {
	uploads := LocalIntent{
		{RemoteName: "a.json", Content: "first"},
		{RemoteName: "b.json", Content: "b"},
		{RemoteName: "a.json", Content: "second"},
	}
	assert.Equal(t, files(map[string]string{"a.json": "second", "b.json": "b"}),
		uploads.FileSet())
}
