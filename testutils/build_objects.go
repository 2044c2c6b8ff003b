package testutils

import (
	"bytes"
	"debug/elf"
	"encoding/binary"
	"path/filepath"

	"github.com/spf13/afero"
)

// ExtraSection is an additional section written after .dynamic
type ExtraSection struct {
	Name  string
	Type  elf.SectionType
	Flags elf.SectionFlag
	Info  uint32
	Data  []byte
}

// SharedObject describes a minimal little-endian ELF64 file
type SharedObject struct {
	Type     elf.Type
	Machine  elf.Machine
	Soname   string
	Needed   []string
	Runpath  string
	Rpath    string
	Sections []ExtraSection
}

type strtab struct {
	buf bytes.Buffer
}

func newStrtab() *strtab {
	s := &strtab{}
	s.buf.WriteByte(0)
	return s
}

func (s *strtab) add(str string) uint32 {
	off := uint32(s.buf.Len())
	s.buf.WriteString(str)
	s.buf.WriteByte(0)
	return off
}

func align8(n int) int {
	return (n + 7) &^ 7
}

// BuildSharedObject returns the bytes of an ELF file holding a .dynstr, a
// .dynamic and the extra sections of so.
func BuildSharedObject(so SharedObject) []byte {
	if so.Type == elf.ET_NONE {
		so.Type = elf.ET_DYN
	}
	if so.Machine == elf.EM_NONE {
		so.Machine = elf.EM_X86_64
	}

	dynstr := newStrtab()
	var dyns []elf.Dyn64
	if so.Soname != "" {
		dyns = append(dyns, elf.Dyn64{Tag: int64(elf.DT_SONAME), Val: uint64(dynstr.add(so.Soname))})
	}
	for _, n := range so.Needed {
		dyns = append(dyns, elf.Dyn64{Tag: int64(elf.DT_NEEDED), Val: uint64(dynstr.add(n))})
	}
	if so.Runpath != "" {
		dyns = append(dyns, elf.Dyn64{Tag: int64(elf.DT_RUNPATH), Val: uint64(dynstr.add(so.Runpath))})
	}
	if so.Rpath != "" {
		dyns = append(dyns, elf.Dyn64{Tag: int64(elf.DT_RPATH), Val: uint64(dynstr.add(so.Rpath))})
	}
	dyns = append(dyns, elf.Dyn64{Tag: int64(elf.DT_NULL)})

	var dynamic bytes.Buffer
	binary.Write(&dynamic, binary.LittleEndian, dyns)

	shstrtab := newStrtab()
	headers := []elf.Section64{{}}
	var body bytes.Buffer
	const ehsize = 64

	place := func(name string, typ elf.SectionType, flags elf.SectionFlag, link, info uint32, entsize uint64, data []byte) {
		for body.Len()%8 != 0 {
			body.WriteByte(0)
		}
		off := ehsize + body.Len()
		body.Write(data)
		headers = append(headers, elf.Section64{
			Name:      shstrtab.add(name),
			Type:      uint32(typ),
			Flags:     uint64(flags),
			Off:       uint64(off),
			Size:      uint64(len(data)),
			Link:      link,
			Info:      info,
			Addralign: 8,
			Entsize:   entsize,
		})
	}

	place(".dynstr", elf.SHT_STRTAB, elf.SHF_ALLOC, 0, 0, 0, dynstr.buf.Bytes())
	place(".dynamic", elf.SHT_DYNAMIC, elf.SHF_ALLOC|elf.SHF_WRITE, 1, 0, 16, dynamic.Bytes())
	for _, extra := range so.Sections {
		place(extra.Name, extra.Type, extra.Flags, 0, extra.Info, 0, extra.Data)
	}
	shstrndx := len(headers)
	nameOff := shstrtab.add(".shstrtab")
	for body.Len()%8 != 0 {
		body.WriteByte(0)
	}
	shstrOff := ehsize + body.Len()
	body.Write(shstrtab.buf.Bytes())
	headers = append(headers, elf.Section64{
		Name:      nameOff,
		Type:      uint32(elf.SHT_STRTAB),
		Off:       uint64(shstrOff),
		Size:      uint64(shstrtab.buf.Len()),
		Addralign: 1,
	})

	shoff := align8(ehsize + body.Len())
	hdr := elf.Header64{
		Type:      uint16(so.Type),
		Machine:   uint16(so.Machine),
		Version:   uint32(elf.EV_CURRENT),
		Shoff:     uint64(shoff),
		Ehsize:    ehsize,
		Phentsize: 56,
		Shentsize: 64,
		Shnum:     uint16(len(headers)),
		Shstrndx:  uint16(shstrndx),
	}
	copy(hdr.Ident[:], elf.ELFMAG)
	hdr.Ident[elf.EI_CLASS] = byte(elf.ELFCLASS64)
	hdr.Ident[elf.EI_DATA] = byte(elf.ELFDATA2LSB)
	hdr.Ident[elf.EI_VERSION] = byte(elf.EV_CURRENT)

	var out bytes.Buffer
	binary.Write(&out, binary.LittleEndian, &hdr)
	out.Write(body.Bytes())
	for out.Len() < shoff {
		out.WriteByte(0)
	}
	binary.Write(&out, binary.LittleEndian, headers)
	return out.Bytes()
}

// WriteSharedObject writes so to path on fs, creating parent directories
func WriteSharedObject(fs afero.Fs, path string, so SharedObject) error {
	if err := fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return afero.WriteFile(fs, path, BuildSharedObject(so), 0644)
}
