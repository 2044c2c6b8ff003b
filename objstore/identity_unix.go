//go:build unix

package objstore

import (
	"syscall"

	"github.com/go-errors/errors"
	"github.com/spf13/afero"
	"golang.org/x/sys/unix"
)

// Identity returns the device and inode of path. Files on a filesystem
// that carries no stat information are not comparable.
func (s *ELFStore) Identity(path string) (Identity, error) {
	if _, ok := s.fs.(*afero.OsFs); ok {
		stat := &unix.Stat_t{}
		if err := unix.Stat(path, stat); err != nil {
			return Identity{}, errors.WrapPrefix(err, path, 0)
		}
		return Identity{Dev: uint64(stat.Dev), Ino: uint64(stat.Ino)}, nil
	}

	fi, err := s.fs.Stat(path)
	if err != nil {
		return Identity{}, errors.WrapPrefix(err, path, 0)
	}
	if stat, ok := fi.Sys().(*syscall.Stat_t); ok {
		return Identity{Dev: uint64(stat.Dev), Ino: uint64(stat.Ino)}, nil
	}
	return Identity{}, nil
}
