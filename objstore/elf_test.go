package objstore_test

import (
	"debug/elf"
	"testing"

	"github.com/go-errors/errors"
	"github.com/nanovms/ldemul/objstore"
	"github.com/nanovms/ldemul/testutils"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestELFStoreOpen(t *testing.T) {
	t.Run("should read the dynamic section of a shared object", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		err := testutils.WriteSharedObject(fs, "/usr/lib/libfoo.so.1", testutils.SharedObject{
			Soname:  "libfoo.so.1",
			Needed:  []string{"libbar.so.2", "libc.so.6"},
			Runpath: "$ORIGIN/../lib",
		})
		require.NoError(t, err)

		obj, err := objstore.NewELFStore(fs).Open("/usr/lib/libfoo.so.1")
		require.NoError(t, err)

		assert.True(t, obj.Dynamic)
		assert.Equal(t, "/usr/lib/libfoo.so.1", obj.Path)
		assert.Equal(t, "libfoo.so.1", obj.Soname)
		assert.Equal(t, []string{"libbar.so.2", "libc.so.6"}, obj.Needed)
		assert.Equal(t, []string{"$ORIGIN/../lib"}, obj.Runpath)
		assert.Empty(t, obj.Rpath)
		assert.Equal(t, "elf64-little-x86_64", obj.Format)
		assert.Equal(t, "ELFOSABI_NONE", obj.Flavor)
		assert.True(t, obj.Size > 0)
	})

	t.Run("should report relocatable objects as not dynamic", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		err := testutils.WriteSharedObject(fs, "/obj/main.o", testutils.SharedObject{Type: elf.ET_REL})
		require.NoError(t, err)

		obj, err := objstore.NewELFStore(fs).Open("/obj/main.o")
		require.NoError(t, err)

		assert.False(t, obj.Dynamic)
		assert.Empty(t, obj.Needed)
	})

	t.Run("should return ErrFormat for files that are not ELF", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fs, "/usr/lib/libc.so", []byte("/* GNU ld script */\nGROUP ( libc.so.6 )\n"), 0644))

		_, err := objstore.NewELFStore(fs).Open("/usr/lib/libc.so")

		assert.True(t, errors.Is(err, objstore.ErrFormat))
	})

	t.Run("should return ErrFormat for directories", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		require.NoError(t, fs.MkdirAll("/usr/lib/libdir.so", 0755))

		_, err := objstore.NewELFStore(fs).Open("/usr/lib/libdir.so")

		assert.True(t, errors.Is(err, objstore.ErrFormat))
	})

	t.Run("should fail on missing files", func(t *testing.T) {
		_, err := objstore.NewELFStore(afero.NewMemMapFs()).Open("/nope/libx.so")

		assert.Error(t, err)
		assert.False(t, errors.Is(err, objstore.ErrFormat))
	})
}

func TestELFStoreSections(t *testing.T) {
	fs := afero.NewMemMapFs()
	err := testutils.WriteSharedObject(fs, "/obj/a.o", testutils.SharedObject{
		Type: elf.ET_REL,
		Sections: []testutils.ExtraSection{
			{Name: ".text.foo", Type: elf.SHT_PROGBITS, Flags: elf.SHF_ALLOC | elf.SHF_EXECINSTR, Data: []byte{0x90}},
			{Name: ".note.ABI-tag", Type: elf.SHT_NOTE, Flags: elf.SHF_ALLOC, Data: make([]byte, 16)},
		},
	})
	require.NoError(t, err)

	table, err := objstore.NewELFStore(fs).Sections("/obj/a.o")
	require.NoError(t, err)

	assert.False(t, table.Dynamic)

	var names []string
	for _, s := range table.Sections {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{".dynstr", ".dynamic", ".text.foo", ".note.ABI-tag", ".shstrtab"}, names)
	assert.Equal(t, elf.SHT_NOTE, table.Sections[3].Type)
	assert.Equal(t, elf.SHF_ALLOC|elf.SHF_EXECINSTR, table.Sections[2].Flags)
	assert.Equal(t, "", table.Sections[2].Group)
}

func TestIdentity(t *testing.T) {
	t.Run("zero inode is not comparable", func(t *testing.T) {
		a := objstore.Identity{Dev: 3}
		b := objstore.Identity{Dev: 3}

		assert.False(t, a.Comparable())
		assert.False(t, a.Same(b))
	})

	t.Run("equal device and inode are the same file", func(t *testing.T) {
		a := objstore.Identity{Dev: 3, Ino: 42}

		assert.True(t, a.Same(objstore.Identity{Dev: 3, Ino: 42}))
		assert.False(t, a.Same(objstore.Identity{Dev: 4, Ino: 42}))
	})

	t.Run("memory filesystems yield non comparable identities", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fs, "/lib/libz.so.1", []byte("x"), 0644))

		id, err := objstore.NewELFStore(fs).Identity("/lib/libz.so.1")

		require.NoError(t, err)
		assert.False(t, id.Comparable())
	})
}
