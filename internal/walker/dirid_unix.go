//go:build unix

package walker

import "golang.org/x/sys/unix"

type dirID struct {
	dev uint64
	ino uint64
}

func identify(path string) (dirID, bool) {
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		return dirID{}, false
	}
	return dirID{dev: uint64(st.Dev), ino: uint64(st.Ino)}, true
}
