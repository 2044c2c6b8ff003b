package hints

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/go-errors/errors"
	"github.com/nanovms/ldemul/constants"
)

// ErrBadHints is returned for a hints file that fails validation
var ErrBadHints = errors.Errorf("invalid ld-elf.so.hints file")

// elfHintsHeader is the on-disk header written by FreeBSD's ldconfig
type elfHintsHeader struct {
	Magic      uint32
	Version    uint32
	Strtab     uint32
	Strsize    uint32
	Dirlist    uint32
	Dirlistlen uint32
	Spare      [26]uint32
}

// ReadElfHints returns the directory list stored in a FreeBSD hints file.
// The list is read as dirlistlen+1 bytes at strtab+dirlist and ends at
// the first NUL.
func ReadElfHints(r io.ReaderAt, order binary.ByteOrder) (string, error) {
	var hdr elfHintsHeader
	raw := make([]byte, binary.Size(hdr))
	if _, err := r.ReadAt(raw, 0); err != nil {
		return "", ErrBadHints
	}
	if err := binary.Read(bytes.NewReader(raw), order, &hdr); err != nil {
		return "", ErrBadHints
	}
	if hdr.Magic != constants.ElfHintsMagic || hdr.Version != constants.ElfHintsVersion {
		return "", ErrBadHints
	}

	dirs := make([]byte, int64(hdr.Dirlistlen)+1)
	off := int64(hdr.Strtab) + int64(hdr.Dirlist)
	if n, err := r.ReadAt(dirs, off); n != len(dirs) {
		if err == nil {
			err = io.ErrUnexpectedEOF
		}
		return "", errors.WrapPrefix(err, "ld-elf.so.hints directory list", 0)
	}

	if nul := bytes.IndexByte(dirs, 0); nul >= 0 {
		dirs = dirs[:nul]
	}
	return string(dirs), nil
}

// WriteElfHints encodes a hints file holding dirs, the way ldconfig lays
// it out: header, then the string table starting with the directory list.
func WriteElfHints(w io.Writer, order binary.ByteOrder, dirs string) error {
	hdr := elfHintsHeader{
		Magic:      constants.ElfHintsMagic,
		Version:    constants.ElfHintsVersion,
		Dirlist:    0,
		Dirlistlen: uint32(len(dirs)),
	}
	hdr.Strtab = uint32(binary.Size(hdr))
	hdr.Strsize = uint32(len(dirs) + 1)

	if err := binary.Write(w, order, &hdr); err != nil {
		return err
	}
	_, err := io.WriteString(w, dirs+"\x00")
	return err
}
