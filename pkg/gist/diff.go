package gist

// Diff returns the changes that must be applied to `remote` so that it
// matches `local`. It returns nil if there's nothing to change.
//
// Files that differ are included in full. Remote files without a local
// counterpart are returned as tombstones, unless they're protected. Local
// files with empty contents are ignored entirely.
//
// Neither argument is modified, and the returned FileSet never shares File
// pointers with its inputs.
func Diff(local, remote FileSet) FileSet {
	changes := FileSet{}
	visited := map[string]struct{}{}

	for name, curr := range remote {
		visited[name] = struct{}{}

		exp, ok := local[name]
		if !ok {
			if !IsProtected(name) {
				changes[name] = nil
			}
			continue
		}

		if !exp.hasContent() {
			continue
		}

		if curr == nil || curr.Content != exp.Content {
			changes[name] = exp.copy()
		}
	}

	for name, exp := range local {
		if _, ok := visited[name]; ok {
			continue
		}

		if exp.hasContent() {
			changes[name] = exp.copy()
		}
	}

	if len(changes) == 0 {
		return nil
	}
	return changes
}
