package orphan

import (
	"bytes"
	"debug/elf"
	"testing"

	"github.com/nanovms/ldemul/log"
	"github.com/nanovms/ldemul/objstore"
	"github.com/nanovms/ldemul/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	ax  = elf.SHF_ALLOC | elf.SHF_EXECINSTR
	wa  = elf.SHF_ALLOC | elf.SHF_WRITE
	wat = elf.SHF_ALLOC | elf.SHF_WRITE | elf.SHF_TLS
)

func section(file, name string, typ elf.SectionType, flags elf.SectionFlag) *Input {
	s := objstore.Section{Name: name, Type: typ, Flags: flags}
	return &Input{
		File:    file,
		Name:    name,
		Flags:   FlagsFromELF(s),
		Kind:    Kind{Type: uint64(typ)},
		OSFlags: uint64(flags) & shfMaskOSProc,
	}
}

func newLayout(names ...string) *Layout {
	l := &Layout{}
	for _, n := range names {
		l.Append(&OutputSection{Name: n, Patterns: []string{n}})
	}
	return l
}

func place(t *testing.T, l *Layout, c *types.Config, inputs ...*Input) ([]*Decision, *bytes.Buffer) {
	var b bytes.Buffer
	logger := log.New(&b)
	logger.SetWarn(true)
	logger.SetError(true)

	orphans := l.AssignByRules(inputs)
	decisions, err := NewPlacer(l, c, logger).PlaceAll(orphans)
	require.NoError(t, err)
	return decisions, &b
}

func TestPlaceCoalesce(t *testing.T) {
	l := newLayout(".data")
	foo := section("a.o", ".text.foo", elf.SHT_PROGBITS, ax)
	bar := section("b.o", ".text.bar", elf.SHT_PROGBITS, ax)

	d, _ := place(t, l, types.NewConfig(), section("a.o", ".data", elf.SHT_PROGBITS, wa), foo, bar)

	require.Len(t, d, 2)
	assert.True(t, d[0].Created)
	assert.Equal(t, "text", d[0].Bucket)
	assert.True(t, d[1].Merged)
	assert.Same(t, d[0].Output, d[1].Output)
	assert.Equal(t, d[0].Anchor, d[1].Anchor)
	assert.Equal(t, []*Input{foo, bar}, d[0].Output.Inputs)
	assert.Equal(t, []string{".text", ".data"}, l.Names())
}

func TestPlaceBuckets(t *testing.T) {
	t.Run("loaded notes follow the interpreter", func(t *testing.T) {
		l := newLayout(".interp", ".text", ".data")

		d, _ := place(t, l, types.NewConfig(),
			section("a.o", ".interp", elf.SHT_PROGBITS, elf.SHF_ALLOC),
			section("a.o", ".text", elf.SHT_PROGBITS, ax),
			section("a.o", ".data", elf.SHT_PROGBITS, wa),
			section("a.o", ".note.foo", elf.SHT_NOTE, elf.SHF_ALLOC),
			section("a.o", ".note.bar", elf.SHT_NOTE, elf.SHF_ALLOC),
		)

		assert.Equal(t, "interp", d[0].Bucket)
		assert.Equal(t, ".interp", d[0].Anchor)
		assert.Equal(t, ".note.foo", d[1].Anchor)
		assert.Equal(t, []string{".interp", ".note.foo", ".note.bar", ".text", ".data"}, l.Names())
	})

	t.Run("tbss follows tdata", func(t *testing.T) {
		l := newLayout(".text", ".tdata", ".data", ".bss")

		d, _ := place(t, l, types.NewConfig(),
			section("a.o", ".text", elf.SHT_PROGBITS, ax),
			section("a.o", ".tdata", elf.SHT_PROGBITS, wat),
			section("a.o", ".tbss", elf.SHT_NOBITS, wat),
			section("a.o", ".data", elf.SHT_PROGBITS, wa),
			section("a.o", ".bss", elf.SHT_NOBITS, wa),
		)

		require.Len(t, d, 1)
		assert.Equal(t, "tdata", d[0].Bucket)
		assert.Equal(t, []string{".text", ".tdata", ".tbss", ".data", ".bss"}, l.Names())
	})

	t.Run("non-alloc orphans go to the end of the layout", func(t *testing.T) {
		l := newLayout(".text", ".data")

		d, _ := place(t, l, types.NewConfig(),
			section("a.o", ".text", elf.SHT_PROGBITS, ax),
			section("a.o", ".data", elf.SHT_PROGBITS, wa),
			section("a.o", ".debug_info", elf.SHT_PROGBITS, 0),
			section("a.o", ".comment", elf.SHT_PROGBITS, elf.SHF_MERGE|elf.SHF_STRINGS),
		)

		assert.Equal(t, "", d[0].Bucket)
		assert.Equal(t, "nonalloc", d[1].Bucket)
		assert.Equal(t, []string{".text", ".data", ".debug_info", ".comment"}, l.Names())
	})

	t.Run("bss and rodata orphans follow their kind", func(t *testing.T) {
		l := newLayout(".text", ".rodata", ".data", ".bss")

		d, _ := place(t, l, types.NewConfig(),
			section("a.o", ".text", elf.SHT_PROGBITS, ax),
			section("a.o", ".rodata", elf.SHT_PROGBITS, elf.SHF_ALLOC),
			section("a.o", ".data", elf.SHT_PROGBITS, wa),
			section("a.o", ".bss", elf.SHT_NOBITS, wa),
			section("a.o", ".myro", elf.SHT_PROGBITS, elf.SHF_ALLOC),
			section("a.o", ".mybss", elf.SHT_NOBITS, wa),
		)

		assert.Equal(t, "rodata", d[0].Bucket)
		assert.Equal(t, "bss", d[1].Bucket)
		assert.Equal(t, []string{".text", ".rodata", ".myro", ".data", ".bss", ".mybss"}, l.Names())
	})

	t.Run("an empty layout takes the first orphan first", func(t *testing.T) {
		l := &Layout{}

		d, _ := place(t, l, types.NewConfig(), section("a.o", ".data.x", elf.SHT_PROGBITS, wa))

		assert.Equal(t, "", d[0].Anchor)
		assert.Equal(t, []string{".data"}, l.Names())
	})
}

func TestPlaceRelocations(t *testing.T) {
	inputs := func() []*Input {
		return []*Input{
			section("a.o", ".interp", elf.SHT_PROGBITS, elf.SHF_ALLOC),
			section("a.o", ".rela.plt", elf.SHT_RELA, elf.SHF_ALLOC),
			section("a.o", ".text", elf.SHT_PROGBITS, ax),
			section("a.o", ".rela.foo", elf.SHT_RELA, elf.SHF_ALLOC),
		}
	}

	t.Run("combined dynamic relocations precede the other relocation sections", func(t *testing.T) {
		l := newLayout(".interp", ".rela.plt", ".text")

		d, _ := place(t, l, types.NewConfig(), inputs()...)

		assert.Equal(t, ".rela.dyn", d[0].Output.Name)
		assert.Equal(t, "rel", d[0].Bucket)
		assert.Equal(t, []string{".interp", ".rela.dyn", ".rela.plt", ".text"}, l.Names())
	})

	t.Run("without combreloc relocation sections keep their name", func(t *testing.T) {
		l := newLayout(".interp", ".rela.plt", ".text")
		c := types.NewConfig()
		c.CombReloc = false

		place(t, l, c, inputs()...)

		assert.Equal(t, []string{".interp", ".rela.plt", ".rela.foo", ".text"}, l.Names())
	})
}

func TestPlaceMerging(t *testing.T) {
	t.Run("a writable sibling keeps same-named sections together", func(t *testing.T) {
		l := newLayout(".text", ".rodata", ".data")

		d, _ := place(t, l, types.NewConfig(),
			section("a.o", ".text", elf.SHT_PROGBITS, ax),
			section("a.o", ".rodata", elf.SHT_PROGBITS, elf.SHF_ALLOC),
			section("a.o", ".data", elf.SHT_PROGBITS, wa),
			section("a.o", ".mine", elf.SHT_PROGBITS, elf.SHF_ALLOC),
			section("b.o", ".mine", elf.SHT_PROGBITS, wa),
		)

		assert.Equal(t, "data", d[0].Bucket)
		assert.True(t, d[1].Merged)
		assert.Equal(t, Flags(0), d[0].Output.Flags&ReadOnly)
		assert.Equal(t, []string{".text", ".rodata", ".data", ".mine"}, l.Names())
	})

	t.Run("sections created with no flags take any orphan of their name", func(t *testing.T) {
		l, err := ParseLayout([]byte("sections:\n  - name: .boot\n    address: \"0x1000\"\n  - name: .text\n    inputs: [.text]\n"))
		require.NoError(t, err)

		d, _ := place(t, l, types.NewConfig(), section("a.o", ".boot", elf.SHT_PROGBITS, ax))

		assert.True(t, d[0].Merged)
		assert.Equal(t, []string{".boot", ".text"}, l.Names())
	})

	t.Run("unused statements are reused by name", func(t *testing.T) {
		l := newLayout(".text", ".special")
		l.Sections[1].Patterns = []string{".special.in"}

		d, _ := place(t, l, types.NewConfig(),
			section("a.o", ".text", elf.SHT_PROGBITS, ax),
			section("a.o", ".special", elf.SHT_PROGBITS, wa),
		)

		assert.True(t, d[0].Merged)
		assert.Same(t, l.Sections[1], d[0].Output)
		assert.Len(t, l.Sections, 2)
	})

	t.Run("orphans whose load flags disagree get their own section", func(t *testing.T) {
		l := &Layout{}

		d, _ := place(t, l, types.NewConfig(),
			section("a.o", ".stuff", elf.SHT_PROGBITS, wa),
			section("b.o", ".stuff", elf.SHT_NOBITS, wa),
		)

		assert.True(t, d[1].Created)
		assert.NotSame(t, d[0].Output, d[1].Output)
		assert.Len(t, l.FindAll(".stuff"), 2)
	})

	t.Run("relocatable links keep section groups apart", func(t *testing.T) {
		one := section("a.o", ".grp", elf.SHT_PROGBITS, ax)
		one.Group = "sig1"
		two := section("b.o", ".grp", elf.SHT_PROGBITS, ax)
		two.Group = "sig2"

		c := types.NewConfig()
		c.Relocatable = true
		c.Executable = false
		d, _ := place(t, &Layout{}, c, one, two)
		assert.NotSame(t, d[0].Output, d[1].Output)

		one.Output, two.Output = nil, nil
		d, _ = place(t, &Layout{}, types.NewConfig(), one, two)
		assert.Same(t, d[0].Output, d[1].Output)
	})

	t.Run("link warnings go into text on executable links", func(t *testing.T) {
		l := newLayout(".text")

		d, _ := place(t, l, types.NewConfig(),
			section("a.o", ".text", elf.SHT_PROGBITS, ax),
			section("a.o", ".gnu.warning.gets", elf.SHT_PROGBITS, 0),
		)

		assert.Equal(t, ".text", d[0].Output.Name)
		assert.Len(t, l.Sections, 1)
	})

	t.Run("memory affinity sections share a section per kind", func(t *testing.T) {
		l := &Layout{}
		a := section("a.o", ".mb1", elf.SHT_PROGBITS, ax|shfGNUMbind)
		b := section("b.o", ".mb2", elf.SHT_PROGBITS, ax|shfGNUMbind)
		c := section("c.o", ".mb3", elf.SHT_NOBITS, wa|shfGNUMbind)

		d, _ := place(t, l, types.NewConfig(), a, b, c)

		assert.Equal(t, ".mbind.text", d[0].Output.Name)
		assert.Same(t, d[0].Output, d[1].Output)
		assert.Equal(t, ".mbind.bss", d[2].Output.Name)
	})

	t.Run("unique orphan sections keep their own names", func(t *testing.T) {
		l := &Layout{}
		c := types.NewConfig()
		c.UniqueOrphanSections = true

		place(t, l, c,
			section("a.o", ".text.foo", elf.SHT_PROGBITS, ax),
			section("b.o", ".text.bar", elf.SHT_PROGBITS, ax),
			section("c.o", ".text.bar", elf.SHT_PROGBITS, ax),
		)

		assert.Equal(t, []string{".text.foo", ".text.bar", ".text.bar"}, l.Names())
	})
}

func TestPlaceHandling(t *testing.T) {
	orphans := func() []*Input {
		return []*Input{
			section("a.o", ".foo", elf.SHT_PROGBITS, wa),
			section("a.o", ".bar", elf.SHT_PROGBITS, ax),
		}
	}

	t.Run("discard sends orphans to the discard section", func(t *testing.T) {
		l := newLayout(".text")
		c := types.NewConfig()
		c.OrphanHandling = types.OrphanDiscard

		d, _ := place(t, l, c, orphans()...)

		for _, dec := range d {
			assert.True(t, dec.Discarded)
			assert.Equal(t, "/DISCARD/", dec.Output.Name)
		}
		assert.Equal(t, []string{".text", "/DISCARD/"}, l.Names())
	})

	t.Run("warn names every placement", func(t *testing.T) {
		c := types.NewConfig()
		c.OrphanHandling = types.OrphanWarn

		_, out := place(t, &Layout{}, c, orphans()...)

		assert.Contains(t, out.String(), "orphan section '.foo' from 'a.o' being placed in section '.foo'")
		assert.Contains(t, out.String(), "orphan section '.bar' from 'a.o' being placed in section '.bar'")
	})

	t.Run("error still places every orphan", func(t *testing.T) {
		c := types.NewConfig()
		c.OrphanHandling = types.OrphanError
		var b bytes.Buffer
		logger := log.New(&b)
		logger.SetError(true)

		d, err := NewPlacer(&Layout{}, c, logger).PlaceAll(orphans())

		assert.Equal(t, ErrUnplaced, err)
		require.Len(t, d, 2)
		assert.NotNil(t, d[0].Output)
		assert.NotNil(t, d[1].Output)
		assert.Contains(t, b.String(), "unplaced orphan section '.foo' from 'a.o'")
	})

	t.Run("excluded sections are dropped", func(t *testing.T) {
		l := &Layout{}
		in := section("a.o", ".llvm_addrsig", elf.SHT_PROGBITS, elf.SectionFlag(shfExclude))

		d, _ := place(t, l, types.NewConfig(), in)

		assert.True(t, d[0].Discarded)
		assert.Nil(t, d[0].Output)
		assert.Empty(t, l.Sections)
	})
}
