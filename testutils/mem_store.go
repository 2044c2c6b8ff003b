package testutils

import (
	"os"

	"github.com/go-errors/errors"
	"github.com/nanovms/ldemul/objstore"
)

// MemStore is an in-memory objstore.Store that counts opens
type MemStore struct {
	objects    map[string]*objstore.Object
	identities map[string]objstore.Identity
	opens      map[string]int
	order      []string
}

// NewMemStore returns an empty MemStore
func NewMemStore() *MemStore {
	return &MemStore{
		objects:    map[string]*objstore.Object{},
		identities: map[string]objstore.Identity{},
		opens:      map[string]int{},
	}
}

// AddLib registers a dynamic x86-64 object at path with the given inode
func (m *MemStore) AddLib(path string, ino uint64, soname string, needed ...string) *objstore.Object {
	return m.Add(path, ino, objstore.Object{
		Soname:  soname,
		Dynamic: true,
		Format:  "elf64-little-x86_64",
		Flavor:  "ELFOSABI_NONE",
		Needed:  needed,
	})
}

// Add registers obj at path with the given inode on device 1
func (m *MemStore) Add(path string, ino uint64, obj objstore.Object) *objstore.Object {
	obj.Path = path
	m.objects[path] = &obj
	m.identities[path] = objstore.Identity{Dev: 1, Ino: ino}
	return &obj
}

// Link makes alias another name of target, with the same identity
func (m *MemStore) Link(alias, target string) {
	obj := *m.objects[target]
	obj.Path = alias
	m.objects[alias] = &obj
	m.identities[alias] = m.identities[target]
}

// Open implements objstore.Store
func (m *MemStore) Open(path string) (*objstore.Object, error) {
	m.opens[path]++
	m.order = append(m.order, path)
	obj, ok := m.objects[path]
	if !ok {
		return nil, errors.WrapPrefix(os.ErrNotExist, path, 0)
	}
	copied := *obj
	return &copied, nil
}

// Identity implements objstore.Store
func (m *MemStore) Identity(path string) (objstore.Identity, error) {
	id, ok := m.identities[path]
	if !ok {
		return objstore.Identity{}, errors.WrapPrefix(os.ErrNotExist, path, 0)
	}
	return id, nil
}

// OpenCount returns how many times path was opened
func (m *MemStore) OpenCount(path string) int {
	return m.opens[path]
}

// Opened returns every opened path in order
func (m *MemStore) Opened() []string {
	return m.order
}
