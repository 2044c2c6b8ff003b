package objstore

import (
	"github.com/go-errors/errors"
)

// ErrFormat is returned by Open when a file is not an object of a
// recognized format.
var ErrFormat = errors.Errorf("file format not recognized")

// Identity is the filesystem identity of a file. A zero inode means the
// platform could not provide one and the identity is not comparable.
type Identity struct {
	Dev uint64
	Ino uint64
}

// Comparable reports whether the identity can be used for de-duplication
func (i Identity) Comparable() bool {
	return i.Ino != 0
}

// Same reports whether both identities name the same file. It is never
// true for identities that are not comparable.
func (i Identity) Same(other Identity) bool {
	return i.Comparable() && other.Comparable() && i == other
}

// Object is what the linker needs to know about an opened input
type Object struct {
	// Path the object was opened from.
	Path string

	// Soname is the DT_SONAME value, empty when absent.
	Soname string

	// Dynamic is set for shared objects.
	Dynamic bool

	// Format is the target format tag, e.g. elf64-little-x86_64.
	Format string

	// Flavor is the OS ABI of the object.
	Flavor string

	// Needed lists the DT_NEEDED entries in order.
	Needed []string

	// Runpath lists the DT_RUNPATH strings.
	Runpath []string

	// Rpath lists the DT_RPATH strings.
	Rpath []string

	Size int64
}

// Store opens objects and reports filesystem identities
type Store interface {
	// Open reads path as an object of the target format. A file of another
	// format yields ErrFormat.
	Open(path string) (*Object, error)

	// Identity stats path.
	Identity(path string) (Identity, error)
}
