package orphan

import (
	"debug/elf"
	"testing"

	"github.com/nanovms/ldemul/objstore"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlagsFromELF(t *testing.T) {
	t.Run("code", func(t *testing.T) {
		f := FlagsFromELF(objstore.Section{Name: ".text", Type: elf.SHT_PROGBITS, Flags: ax})
		assert.Equal(t, Alloc|Load|Contents|ReadOnly|Code, f)
		assert.Equal(t, "CONTENTS, ALLOC, LOAD, READONLY, CODE", f.String())
	})

	t.Run("zero initialised tls", func(t *testing.T) {
		f := FlagsFromELF(objstore.Section{Name: ".tbss", Type: elf.SHT_NOBITS, Flags: wat})
		assert.Equal(t, Alloc|ThreadLocal, f)
	})

	t.Run("debug info and small data", func(t *testing.T) {
		assert.NotZero(t, FlagsFromELF(objstore.Section{Name: ".debug_line", Type: elf.SHT_PROGBITS})&Debugging)
		assert.NotZero(t, FlagsFromELF(objstore.Section{Name: ".sdata", Type: elf.SHT_PROGBITS, Flags: wa})&SmallData)
	})
}

func TestInputsFromTable(t *testing.T) {
	table := &objstore.SectionTable{
		Path: "a.o",
		Sections: []objstore.Section{
			{Name: ".text", Type: elf.SHT_PROGBITS, Flags: ax},
			{Name: ".rela.text", Type: elf.SHT_RELA, Info: 1},
			{Name: ".rela.dyn", Type: elf.SHT_RELA, Flags: elf.SHF_ALLOC},
			{Name: ".symtab", Type: elf.SHT_SYMTAB},
			{Name: ".strtab", Type: elf.SHT_STRTAB},
			{Name: ".group", Type: elf.SHT_GROUP},
			{Name: ".text.f", Type: elf.SHT_PROGBITS, Flags: ax | elf.SHF_GROUP, Group: "f"},
		},
	}

	inputs := InputsFromTable(table)

	var names []string
	for _, in := range inputs {
		names = append(names, in.Name)
	}
	assert.Equal(t, []string{".text", ".rela.dyn", ".text.f"}, names)
	assert.Equal(t, "f", inputs[2].Group)
	assert.Equal(t, "a.o", inputs[0].File)

	table.Dynamic = true
	assert.Empty(t, InputsFromTable(table))
}

func TestParseLayout(t *testing.T) {
	t.Run("should read statements in order", func(t *testing.T) {
		l, err := ParseLayout([]byte(`
sections:
  - name: .text
    inputs: [".text", ".text.*"]
  - name: .data
    inputs: [".data"]
  - name: /DISCARD/
    inputs: [".note.GNU-stack"]
`))
		require.NoError(t, err)

		assert.Equal(t, []string{".text", ".data", "/DISCARD/"}, l.Names())
		assert.Equal(t, []string{".text", ".text.*"}, l.Sections[0].Patterns)
		assert.False(t, l.Sections[0].Created)
	})

	t.Run("should reject statements without a name", func(t *testing.T) {
		_, err := ParseLayout([]byte("sections:\n  - inputs: [.x]\n"))

		assert.Error(t, err)
	})

	t.Run("should reject malformed yaml", func(t *testing.T) {
		_, err := ParseLayout([]byte("sections: [\n"))

		assert.Error(t, err)
	})

	t.Run("should load from a filesystem", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fs, "/layout.yaml", []byte("sections:\n  - name: .text\n"), 0644))

		l, err := LoadLayout(fs, "/layout.yaml")
		require.NoError(t, err)
		assert.Equal(t, []string{".text"}, l.Names())

		_, err = LoadLayout(fs, "/missing.yaml")
		assert.Error(t, err)
	})
}

func TestAssignByRules(t *testing.T) {
	l := DefaultLayout()
	text := section("a.o", ".text.hot", elf.SHT_PROGBITS, ax)
	stack := section("a.o", ".note.GNU-stack", elf.SHT_PROGBITS, 0)
	odd := section("a.o", ".odd", elf.SHT_PROGBITS, wa)
	excluded := section("a.o", ".text.x", elf.SHT_PROGBITS, ax|elf.SectionFlag(shfExclude))

	orphans := l.AssignByRules([]*Input{text, stack, odd, excluded})

	assert.Equal(t, ".text", text.Output.Name)
	assert.True(t, text.Output.Created)
	assert.True(t, stack.Discarded)
	assert.Equal(t, []*Input{odd, excluded}, orphans)
}
