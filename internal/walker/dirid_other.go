//go:build !unix

package walker

import "path/filepath"

// Without inode numbers, directory identity falls back to the cleaned path.
// Symlinks are never followed, so this still visits each directory once.
type dirID struct {
	path string
}

func identify(path string) (dirID, bool) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return dirID{}, false
	}
	return dirID{path: abs}, true
}
