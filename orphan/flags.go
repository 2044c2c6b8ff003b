package orphan

import (
	"debug/elf"
	"strings"

	"github.com/nanovms/ldemul/objstore"
)

// Flags is the format independent view of a section's attributes
type Flags uint32

const (
	// Alloc sections occupy memory at run time.
	Alloc Flags = 1 << iota
	// Load sections are loaded from the file.
	Load
	// Contents sections have bytes in the file.
	Contents
	// ReadOnly sections are not writable.
	ReadOnly
	// Code sections are executable.
	Code
	// ThreadLocal sections hold TLS data.
	ThreadLocal
	// SmallData sections are addressed through the small data pointer.
	SmallData
	// Debugging sections hold debug information.
	Debugging
	// Exclude sections are dropped from final links.
	Exclude
)

var flagNames = []struct {
	flag Flags
	name string
}{
	{Contents, "CONTENTS"},
	{Alloc, "ALLOC"},
	{Load, "LOAD"},
	{ReadOnly, "READONLY"},
	{Code, "CODE"},
	{ThreadLocal, "THREAD_LOCAL"},
	{SmallData, "SMALL_DATA"},
	{Debugging, "DEBUGGING"},
	{Exclude, "EXCLUDE"},
}

func (f Flags) String() string {
	var names []string
	for _, n := range flagNames {
		if f&n.flag != 0 {
			names = append(names, n.name)
		}
	}
	return strings.Join(names, ", ")
}

// Kind discriminates sections beyond their flags: the section type and
// the linked info field.
type Kind struct {
	Type uint64
	Info uint64
}

const (
	shfExclude  = 0x80000000
	shfGNUMbind = 0x01000000
	// SHF_MASKOS | SHF_MASKPROC
	shfMaskOSProc = 0x0ff00000 | 0xf0000000
)

var debugPrefixes = []string{".debug", ".zdebug", ".gnu.linkonce.wi.", ".line", ".stab"}

// FlagsFromELF derives the Flags of an ELF section header
func FlagsFromELF(s objstore.Section) Flags {
	var f Flags
	if s.Flags&elf.SHF_ALLOC != 0 {
		f |= Alloc
	}
	if s.Type != elf.SHT_NOBITS {
		f |= Contents
		if f&Alloc != 0 {
			f |= Load
		}
	}
	if s.Flags&elf.SHF_WRITE == 0 {
		f |= ReadOnly
	}
	if s.Flags&elf.SHF_EXECINSTR != 0 {
		f |= Code
	}
	if s.Flags&elf.SHF_TLS != 0 {
		f |= ThreadLocal
	}
	if uint64(s.Flags)&shfExclude != 0 {
		f |= Exclude
	}
	for _, p := range []string{".sdata", ".sbss"} {
		if strings.HasPrefix(s.Name, p) {
			f |= SmallData
		}
	}
	if f&Alloc == 0 {
		for _, p := range debugPrefixes {
			if strings.HasPrefix(s.Name, p) {
				f |= Debugging
				break
			}
		}
	}
	return f
}

// Input is an input section waiting for an output section
type Input struct {
	File  string
	Name  string
	Flags Flags
	Kind  Kind

	// OSFlags holds the OS and processor specific section flags.
	OSFlags uint64

	// Group is the signature of the section group, if any.
	Group string

	Output    *OutputSection
	Discarded bool
}

// InputsFromTable returns the placeable sections of an object. Shared
// objects contribute no sections.
func InputsFromTable(table *objstore.SectionTable) []*Input {
	if table.Dynamic {
		return nil
	}

	var inputs []*Input
	for _, s := range table.Sections {
		switch s.Type {
		case elf.SHT_SYMTAB, elf.SHT_STRTAB, elf.SHT_GROUP, elf.SHT_SYMTAB_SHNDX:
			continue
		case elf.SHT_REL, elf.SHT_RELA:
			if s.Flags&elf.SHF_ALLOC == 0 {
				continue
			}
		}
		inputs = append(inputs, &Input{
			File:    table.Path,
			Name:    s.Name,
			Flags:   FlagsFromELF(s),
			Kind:    Kind{Type: uint64(s.Type), Info: uint64(s.Info)},
			OSFlags: uint64(s.Flags) & shfMaskOSProc,
			Group:   s.Group,
		})
	}
	return inputs
}

func (in *Input) isType(t elf.SectionType) bool {
	return in.Kind.Type == uint64(t)
}
