package gist

import (
	"sort"
	"strings"
	"time"
)

// protectedSubstrings are the filename fragments that mark a remote file as
// exempt from deletion when it's absent locally.
var protectedSubstrings = []string{"keybindings", "settings"}

// A File is a single named file within a gist.
type File struct {
	Filename string `json:"filename,omitempty"`
	Content  string `json:"content"`

	// RawURL and Truncated are only set on files returned by the store.
	// Large files may be returned without their full contents, in which case
	// Truncated is true and the contents must be fetched from RawURL.
	RawURL    string `json:"raw_url,omitempty"`
	Truncated bool   `json:"truncated,omitempty"`
}

// hasContent returns whether the file may be treated as a real local file.
func (f *File) hasContent() bool {
	return f != nil && f.Content != ""
}

func (f *File) copy() *File {
	fileCopy := *f
	return &fileCopy
}

// FileSet maps filenames to files. A nil File is a tombstone, and signals
// that the remote file should be deleted.
type FileSet map[string]*File

// Names returns the filenames in the set, sorted.
func (files FileSet) Names() []string {
	var names []string
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// An Upload is a file that the user wants to exist remotely.
type Upload struct {
	RemoteName string
	Content    string
}

// LocalIntent is the desired end state of the gist, expressed as uploads.
type LocalIntent []Upload

// FileSet converts the uploads into a FileSet. If the same RemoteName
// appears more than once, the last upload wins.
func (uploads LocalIntent) FileSet() FileSet {
	files := FileSet{}
	for _, upload := range uploads {
		files[upload.RemoteName] = &File{
			Filename: upload.RemoteName,
			Content:  upload.Content,
		}
	}
	return files
}

// Document is a gist as returned by the store.
type Document struct {
	ID          string
	Description string
	Public      bool
	Files       FileSet
	HTMLURL     string
	UpdatedAt   time.Time
}

// IsProtected returns whether `name` belongs to the class of files that are
// never deleted because they're absent locally.
func IsProtected(name string) bool {
	for _, substr := range protectedSubstrings {
		if strings.Contains(name, substr) {
			return true
		}
	}
	return false
}
