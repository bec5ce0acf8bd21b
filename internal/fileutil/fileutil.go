package fileutil

import (
	"errors"
	"fmt"
	"os"
)

// ErrNotRegular is returned when an operation that only applies to regular
// files meets a directory, symlink, device, or similar.
var ErrNotRegular = errors.New("not a regular file")

// IsRegularFile reports whether path names a regular file without following
// symlinks. A missing path is reported as false with a nil error.
func IsRegularFile(path string) (bool, error) {
	info, err := os.Lstat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return info.Mode().IsRegular(), nil
}

// RemoveRegularFile deletes path only if it is still a regular file.
func RemoveRegularFile(path string) error {
	info, err := os.Lstat(path)
	if err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%s: %w", path, ErrNotRegular)
	}
	return os.Remove(path)
}

// SizeOf returns the size of a regular file, or ErrNotRegular.
func SizeOf(path string) (int64, error) {
	info, err := os.Lstat(path)
	if err != nil {
		return 0, err
	}
	if !info.Mode().IsRegular() {
		return 0, fmt.Errorf("%s: %w", path, ErrNotRegular)
	}
	return info.Size(), nil
}
