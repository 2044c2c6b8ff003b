package resolve

import (
	"path"

	"github.com/nanovms/ldemul/objstore"
)

// Session is the append-only list of objects taking part in a link
type Session struct {
	objects []*LoadedObject

	tagged     map[objstore.Identity]bool
	taggedObjs map[*LoadedObject]bool
	tags       []*LoadedObject
}

// NewSession returns an empty session
func NewSession() *Session {
	return &Session{
		tagged:     map[objstore.Identity]bool{},
		taggedObjs: map[*LoadedObject]bool{},
	}
}

// Append adds obj at the tail of the session
func (s *Session) Append(obj *LoadedObject) {
	s.objects = append(s.objects, obj)
}

// Len returns the number of objects, including those appended while the
// session is being walked.
func (s *Session) Len() int {
	return len(s.objects)
}

// At returns the i-th object
func (s *Session) At(i int) *LoadedObject {
	return s.objects[i]
}

// Objects returns the objects in load order
func (s *Session) Objects() []*LoadedObject {
	return s.objects
}

// FindExplicit returns the dynamic object given on the command line under
// name, matched by path, basename or soname. As-needed inputs nothing
// referenced are not considered loaded.
func (s *Session) FindExplicit(name string) *LoadedObject {
	for _, obj := range s.objects {
		if !obj.Explicit || !obj.Dynamic || obj.unusedAsNeeded() {
			continue
		}
		if obj.Path == name || path.Base(obj.Path) == name || (obj.Soname != "" && obj.Soname == name) {
			return obj
		}
	}
	return nil
}

// FindIdentity returns the object with identity id. Identities that are
// not comparable never match.
func (s *Session) FindIdentity(id objstore.Identity) *LoadedObject {
	for _, obj := range s.objects {
		if obj.Identity.Same(id) {
			return obj
		}
	}
	return nil
}

// RequestNeededTag asks for a DT_NEEDED tag for obj. It returns false when
// one was already requested for the same file.
func (s *Session) RequestNeededTag(obj *LoadedObject) bool {
	if obj.Identity.Comparable() {
		if s.tagged[obj.Identity] {
			return false
		}
		s.tagged[obj.Identity] = true
	} else {
		if s.taggedObjs[obj] {
			return false
		}
		s.taggedObjs[obj] = true
	}
	s.tags = append(s.tags, obj)
	return true
}

// NeededTags returns the objects tagged so far, in request order
func (s *Session) NeededTags() []*LoadedObject {
	return s.tags
}
