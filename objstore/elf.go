package objstore

import (
	"debug/elf"
	"fmt"
	"strings"

	"github.com/go-errors/errors"
	"github.com/spf13/afero"
)

// ELFStore reads ELF objects from an afero filesystem
type ELFStore struct {
	fs afero.Fs
}

// NewELFStore returns an ELFStore over fs
func NewELFStore(fs afero.Fs) *ELFStore {
	return &ELFStore{fs: fs}
}

// FormatTag builds the format tag of an ELF file
func FormatTag(f *elf.File) string {
	bits := 32
	if f.Class == elf.ELFCLASS64 {
		bits = 64
	}
	order := "little"
	if f.Data == elf.ELFDATA2MSB {
		order = "big"
	}
	machine := strings.ToLower(strings.TrimPrefix(f.Machine.String(), "EM_"))
	return fmt.Sprintf("elf%d-%s-%s", bits, order, machine)
}

func (s *ELFStore) openELF(path string) (*elf.File, afero.File, int64, error) {
	fd, err := s.fs.Open(path)
	if err != nil {
		return nil, nil, 0, errors.WrapPrefix(err, path, 0)
	}

	fi, err := fd.Stat()
	if err != nil {
		fd.Close()
		return nil, nil, 0, errors.WrapPrefix(err, path, 0)
	}
	if fi.IsDir() {
		fd.Close()
		return nil, nil, 0, ErrFormat
	}

	efd, err := elf.NewFile(fd)
	if err != nil {
		fd.Close()
		return nil, nil, 0, ErrFormat
	}
	return efd, fd, fi.Size(), nil
}

// Open reads the dynamic information of the ELF file at path
func (s *ELFStore) Open(path string) (*Object, error) {
	efd, fd, size, err := s.openELF(path)
	if err != nil {
		return nil, err
	}
	defer fd.Close()

	obj := &Object{
		Path:    path,
		Dynamic: efd.Type == elf.ET_DYN,
		Format:  FormatTag(efd),
		Flavor:  efd.OSABI.String(),
		Size:    size,
	}
	if !obj.Dynamic {
		return obj, nil
	}

	soname, err := efd.DynString(elf.DT_SONAME)
	if err != nil {
		return nil, errors.WrapPrefix(err, path, 0)
	}
	if len(soname) > 0 {
		obj.Soname = soname[0]
	}

	if obj.Needed, err = efd.DynString(elf.DT_NEEDED); err != nil {
		return nil, errors.WrapPrefix(err, path, 0)
	}
	if obj.Runpath, err = efd.DynString(elf.DT_RUNPATH); err != nil {
		return nil, errors.WrapPrefix(err, path, 0)
	}
	if obj.Rpath, err = efd.DynString(elf.DT_RPATH); err != nil {
		return nil, errors.WrapPrefix(err, path, 0)
	}

	return obj, nil
}

// Section is a section header as seen by orphan placement
type Section struct {
	Name  string
	Type  elf.SectionType
	Flags elf.SectionFlag
	Info  uint32
	// Group is the signature of the section group holding the section.
	Group string
}

// SectionTable lists the sections of one input file
type SectionTable struct {
	Path     string
	Dynamic  bool
	Sections []Section
}

// Sections lists the section headers of the ELF file at path, skipping
// the null section.
func (s *ELFStore) Sections(path string) (*SectionTable, error) {
	efd, fd, _, err := s.openELF(path)
	if err != nil {
		return nil, err
	}
	defer fd.Close()

	groups, err := groupSignatures(efd)
	if err != nil {
		return nil, errors.WrapPrefix(err, path, 0)
	}

	table := &SectionTable{Path: path, Dynamic: efd.Type == elf.ET_DYN}
	for i, sec := range efd.Sections {
		if sec.Type == elf.SHT_NULL {
			continue
		}
		table.Sections = append(table.Sections, Section{
			Name:  sec.Name,
			Type:  sec.Type,
			Flags: sec.Flags,
			Info:  sec.Info,
			Group: groups[i],
		})
	}
	return table, nil
}

// groupSignatures maps section indexes to the signature symbol of the
// SHT_GROUP section that lists them.
func groupSignatures(efd *elf.File) (map[int]string, error) {
	groups := map[int]string{}

	var syms []elf.Symbol
	for _, sec := range efd.Sections {
		if sec.Type != elf.SHT_GROUP {
			continue
		}
		if syms == nil {
			var err error
			syms, err = efd.Symbols()
			if err == elf.ErrNoSymbols {
				syms, err = []elf.Symbol{}, nil
			}
			if err != nil {
				return nil, err
			}
		}

		signature := sec.Name
		if sec.Info > 0 && int(sec.Info) <= len(syms) {
			signature = syms[sec.Info-1].Name
		}

		data, err := sec.Data()
		if err != nil {
			return nil, err
		}
		// the first word holds the group flags
		for off := 4; off+4 <= len(data); off += 4 {
			groups[int(efd.ByteOrder.Uint32(data[off:]))] = signature
		}
	}
	return groups, nil
}
