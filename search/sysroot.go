package search

import (
	"strings"

	"github.com/nanovms/ldemul/types"
)

func hasDriveSpec(s string) bool {
	if len(s) < 2 || s[1] != ':' {
		return false
	}
	c := s[0]
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

func isDirSeparator(c byte, p types.Platform) bool {
	return c == '/' || (p.HasDriveLetters && c == '\\')
}

// hasSysroot reports whether dir already lives under sysroot
func hasSysroot(dir, sysroot string) bool {
	if !strings.HasPrefix(dir, sysroot) {
		return false
	}
	rest := dir[len(sysroot):]
	return rest == "" || rest[0] == '/' || rest[0] == '\\'
}

// AddSysroot prefixes every absolute element of list with sysroot. With
// drive letters, an element only gets the sysroot when both name the same
// drive, and the sysroot drive is not repeated.
func AddSysroot(list, sysroot string, p types.Platform) string {
	if sysroot == "" || sysroot == "/" || list == "" {
		return list
	}

	elems := strings.Split(list, p.Separator())
	for i, e := range elems {
		elems[i] = addSysrootOne(e, sysroot, p)
	}
	return strings.Join(elems, p.Separator())
}

func addSysrootOne(dir, sysroot string, p types.Platform) string {
	if hasSysroot(dir, sysroot) {
		return dir
	}

	sysrootDrive := p.HasDriveLetters && hasDriveSpec(sysroot)
	drive := p.HasDriveLetters && hasDriveSpec(dir)

	rest := dir
	if drive {
		rest = dir[2:]
	}
	if rest == "" || !isDirSeparator(rest[0], p) {
		return dir
	}

	if !drive {
		return sysroot + dir
	}
	if sysrootDrive && sysroot[0] == dir[0] {
		return dir[:2] + sysroot[2:] + rest
	}
	return dir
}
