package resolve

import (
	"path"
	"strings"

	"github.com/nanovms/ldemul/objstore"
)

// LinkClass records how a dynamic object came into the link and whether
// the output keeps a DT_NEEDED tag for it.
type LinkClass uint8

const (
	// AsNeeded objects are kept only when something references them.
	AsNeeded LinkClass = 1 << iota
	// NoAddNeeded stops dependencies of the object from being tagged.
	NoAddNeeded
	// NoNeeded suppresses the DT_NEEDED tag of the object itself.
	NoNeeded
	// DTNeeded marks objects loaded to satisfy a DT_NEEDED entry.
	DTNeeded
)

// String lists the set flags, e.g. "dt-needed|no-needed"
func (c LinkClass) String() string {
	var names []string
	for _, f := range []struct {
		flag LinkClass
		name string
	}{
		{AsNeeded, "as-needed"},
		{NoAddNeeded, "no-add-needed"},
		{NoNeeded, "no-needed"},
		{DTNeeded, "dt-needed"},
	} {
		if c&f.flag != 0 {
			names = append(names, f.name)
		}
	}
	if len(names) == 0 {
		return "-"
	}
	return strings.Join(names, "|")
}

// LoadedObject is an input of the link session
type LoadedObject struct {
	Identity objstore.Identity

	// Path the object was opened from.
	Path string

	// Name is the soname, or the basename of Path when there is none.
	Name string

	Soname  string
	Format  string
	Flavor  string
	Dynamic bool

	// Needed lists the DT_NEEDED entries in order.
	Needed []string

	Runpath []string
	Rpath   []string

	Class LinkClass

	// Explicit is set for objects named on the command line.
	Explicit bool

	// Referenced is set once a regular object uses a symbol of an as-needed
	// object.
	Referenced bool

	Size int64
}

func newLoadedObject(obj *objstore.Object, id objstore.Identity) *LoadedObject {
	name := obj.Soname
	if name == "" {
		name = path.Base(obj.Path)
	}
	return &LoadedObject{
		Identity: id,
		Path:     obj.Path,
		Name:     name,
		Soname:   obj.Soname,
		Format:   obj.Format,
		Flavor:   obj.Flavor,
		Dynamic:  obj.Dynamic,
		Needed:   obj.Needed,
		Runpath:  obj.Runpath,
		Rpath:    obj.Rpath,
		Size:     obj.Size,
	}
}

// unusedAsNeeded reports whether the object is as-needed and nothing
// references it.
func (o *LoadedObject) unusedAsNeeded() bool {
	return o.Class&AsNeeded != 0 && !o.Referenced
}

// searchPaths returns the run-time search lists the object carries.
// DT_RPATH only counts when there is no DT_RUNPATH.
func (o *LoadedObject) searchPaths() []string {
	if len(o.Runpath) > 0 {
		return o.Runpath
	}
	return o.Rpath
}

// State of a NeededEntry
type State int

const (
	// Pending entries have not been looked at yet.
	Pending State = iota
	// Skipped entries were pruned without a search.
	Skipped
	// Resolved entries have an object in the session.
	Resolved
	// Unresolved entries were searched for and not found.
	Unresolved
)

func (s State) String() string {
	switch s {
	case Skipped:
		return "skipped"
	case Resolved:
		return "resolved"
	case Unresolved:
		return "unresolved"
	}
	return "pending"
}

// Names of the places a needed library can be found in.
const (
	SourceExplicit      = "explicit"
	SourceAbsolute      = "absolute"
	SourceRpathLink     = "rpath-link"
	SourceRpath         = "rpath"
	SourceLdRunPath     = "LD_RUN_PATH"
	SourceLdLibraryPath = "LD_LIBRARY_PATH"
	SourceRunpath       = "runpath"
	SourceSearchDir     = "search-dir"
)

// NeededEntry is one DT_NEEDED entry of a loaded object
type NeededEntry struct {
	Requester *LoadedObject
	Name      string
	State     State

	// Object is the session object satisfying the entry once resolved.
	Object *LoadedObject

	// Source names where the entry was found.
	Source string

	// Forced is set when the entry was only accepted with the version and
	// libc checks disabled.
	Forced bool

	// Reason tells why the entry was skipped.
	Reason string
}

// Pass returns "optimistic" or "forced" for resolved entries
func (n *NeededEntry) Pass() string {
	if n.State != Resolved || n.Source == SourceExplicit {
		return ""
	}
	if n.Forced {
		return "forced"
	}
	return "optimistic"
}
