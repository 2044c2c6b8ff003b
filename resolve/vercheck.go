package resolve

import (
	"strings"
)

// soPrefix returns name up to and including ".so.", or "" when name is
// not of the form NAME.so.VERSION.
func soPrefix(name string) string {
	if strings.Contains(name, "/") {
		return ""
	}
	i := strings.Index(name, ".so.")
	if i < 0 {
		return ""
	}
	return name[:i+len(".so.")]
}

// versionConflict returns the name of a loaded dynamic object that looks
// like another version of a library candidate needs, or "".
func (s *Session) versionConflict(needed []string) string {
	for _, obj := range s.objects {
		if !obj.Dynamic {
			continue
		}
		for _, name := range needed {
			if obj.Name == name {
				continue
			}
			prefix := soPrefix(name)
			if prefix != "" && strings.HasPrefix(obj.Name, prefix) {
				return obj.Name
			}
		}
	}
	return ""
}

// needsLibc reports whether a needed list is empty or names libc.
func needsLibc(needed []string) bool {
	if len(needed) == 0 {
		return true
	}
	for _, name := range needed {
		if strings.Contains(name, "libc.so") {
			return true
		}
	}
	return false
}

// mayConflict reports whether obj looks like another version of the
// needed library name.
func mayConflict(name string, obj *LoadedObject) bool {
	prefix := soPrefix(name)
	return prefix != "" && strings.HasPrefix(obj.Name, prefix)
}
