package search

import (
	"strings"

	"github.com/nanovms/ldemul/types"
)

// Acceptor tries one fully qualified candidate and reports whether it was
// accepted.
type Acceptor func(path string) bool

// Enumerator walks search path lists looking for a library
type Enumerator struct {
	Sysroot  string
	Platform types.Platform
	Expander *Expander
}

// NewEnumerator returns an Enumerator configured from c
func NewEnumerator(c *types.Config, x *Expander) *Enumerator {
	return &Enumerator{
		Sysroot:  c.Sysroot,
		Platform: c.Platform,
		Expander: x,
	}
}

// Candidates returns, in order, the paths Search would try for name.
func (e *Enumerator) Candidates(list, name, owner string) []string {
	var out []string
	e.Search(list, name, owner, func(path string) bool {
		out = append(out, path)
		return false
	})
	return out
}

// Search tries name in every directory of list, in order, and stops at
// the first candidate accept takes. owner is the object the list came
// from, for $ORIGIN. An absolute name is tried as is.
func (e *Enumerator) Search(list, name, owner string, accept Acceptor) bool {
	if strings.HasPrefix(name, "/") {
		return accept(name)
	}
	if list == "" {
		return false
	}

	for _, dir := range strings.Split(list, e.Platform.Separator()) {
		if e.Expander != nil {
			dir = e.Expander.Expand(dir, owner)
		}
		dir = e.addSysroot(dir)

		if accept(join(dir, name)) {
			return true
		}
	}
	return false
}

func (e *Enumerator) addSysroot(dir string) string {
	if e.Sysroot == "" || e.Sysroot == "/" {
		return dir
	}
	return addSysrootOne(dir, e.Sysroot, e.Platform)
}

func join(dir, name string) string {
	switch {
	case dir == "":
		return name
	case strings.HasSuffix(dir, "/"):
		return dir + name
	default:
		return dir + "/" + name
	}
}
