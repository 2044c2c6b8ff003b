package orphan

import (
	"path"

	"github.com/go-errors/errors"
	"github.com/nanovms/ldemul/constants"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v2"
)

// OutputSection is an output section statement of the layout
type OutputSection struct {
	Name string

	// Patterns select the input sections the statement takes.
	Patterns []string

	// Flags are the merged flags of the inputs once the section exists,
	// the statement flags before that.
	Flags Flags
	Kind  Kind

	OSFlags uint64
	Group   string

	Inputs []*Input

	// Created is set once the output section exists, either because an
	// input went into it or because its address was forced.
	Created bool

	// Orphan is set for sections created by orphan placement.
	Orphan bool

	// Anchor names the statement an orphan section was placed after.
	Anchor string
}

func (os *OutputSection) add(in *Input) {
	if len(os.Inputs) == 0 {
		os.Flags = in.Flags
		os.Kind = in.Kind
		os.Group = in.Group
	} else {
		ro := os.Flags & in.Flags & ReadOnly
		os.Flags = (os.Flags|in.Flags)&^ReadOnly | ro
	}
	os.OSFlags |= in.OSFlags
	os.Created = true
	os.Inputs = append(os.Inputs, in)
	in.Output = os
}

// Layout is the ordered list of output section statements
type Layout struct {
	Sections []*OutputSection
}

// Find returns the first statement called name
func (l *Layout) Find(name string) *OutputSection {
	for _, os := range l.Sections {
		if os.Name == name {
			return os
		}
	}
	return nil
}

// FindAll returns every statement called name, in order
func (l *Layout) FindAll(name string) []*OutputSection {
	var out []*OutputSection
	for _, os := range l.Sections {
		if os.Name == name {
			out = append(out, os)
		}
	}
	return out
}

// Index returns the position of os, or -1
func (l *Layout) Index(os *OutputSection) int {
	for i, s := range l.Sections {
		if s == os {
			return i
		}
	}
	return -1
}

// Names lists the statement names in order
func (l *Layout) Names() []string {
	names := make([]string, len(l.Sections))
	for i, os := range l.Sections {
		names[i] = os.Name
	}
	return names
}

// Append adds os at the end of the layout
func (l *Layout) Append(os *OutputSection) {
	l.Sections = append(l.Sections, os)
}

// InsertAfter puts os right after after, or first when after is nil
func (l *Layout) InsertAfter(after, os *OutputSection) {
	at := 0
	if after != nil {
		at = l.Index(after) + 1
	}
	l.insertAt(at, os)
}

// InsertBefore puts os right before before
func (l *Layout) InsertBefore(before, os *OutputSection) {
	at := l.Index(before)
	if at < 0 {
		at = len(l.Sections)
	}
	l.insertAt(at, os)
}

func (l *Layout) insertAt(at int, os *OutputSection) {
	l.Sections = append(l.Sections, nil)
	copy(l.Sections[at+1:], l.Sections[at:])
	l.Sections[at] = os
}

// AssignByRules puts every input matching a statement pattern into the
// first such statement and returns the inputs left over, the orphans.
// Inputs matched by a /DISCARD/ statement are discarded. Excluded
// sections are left to orphan handling.
func (l *Layout) AssignByRules(inputs []*Input) []*Input {
	var orphans []*Input
	for _, in := range inputs {
		if in.Output != nil || in.Discarded {
			continue
		}
		if in.Flags&Exclude == 0 {
			if os := l.match(in.Name); os != nil {
				os.add(in)
				if os.Name == constants.DiscardSection {
					in.Discarded = true
				}
				continue
			}
		}
		orphans = append(orphans, in)
	}
	return orphans
}

func (l *Layout) match(name string) *OutputSection {
	for _, os := range l.Sections {
		for _, p := range os.Patterns {
			if ok, _ := path.Match(p, name); ok {
				return os
			}
		}
	}
	return nil
}

type layoutFile struct {
	Sections []sectionSpec `yaml:"sections"`
}

type sectionSpec struct {
	Name    string   `yaml:"name"`
	Inputs  []string `yaml:"inputs,omitempty"`
	Address string   `yaml:"address,omitempty"`
}

// ParseLayout reads a layout description:
//
//	sections:
//	  - name: .text
//	    inputs: [".text", ".text.*"]
//	  - name: .boot
//	    address: "0x100000"
//
// A statement with an address exists even when no input goes into it.
func ParseLayout(data []byte) (*Layout, error) {
	var f layoutFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, errors.WrapPrefix(err, "layout", 0)
	}

	l := &Layout{}
	for i, s := range f.Sections {
		if s.Name == "" {
			return nil, errors.Errorf("layout: section %d has no name", i)
		}
		l.Append(&OutputSection{
			Name:     s.Name,
			Patterns: s.Inputs,
			Created:  s.Address != "",
		})
	}
	return l, nil
}

// LoadLayout reads and parses the layout file at filename
func LoadLayout(fs afero.Fs, filename string) (*Layout, error) {
	data, err := afero.ReadFile(fs, filename)
	if err != nil {
		return nil, errors.WrapPrefix(err, filename, 0)
	}
	return ParseLayout(data)
}

// DefaultLayout returns the usual statements of an executable link
func DefaultLayout() *Layout {
	l := &Layout{}
	for _, s := range []struct {
		name     string
		patterns []string
	}{
		{".interp", []string{".interp"}},
		{".note.gnu.build-id", []string{".note.gnu.build-id"}},
		{".hash", []string{".hash"}},
		{".gnu.hash", []string{".gnu.hash"}},
		{".dynsym", []string{".dynsym"}},
		{".dynstr", []string{".dynstr"}},
		{".rela.plt", []string{".rela.plt"}},
		{".init", []string{".init"}},
		{".plt", []string{".plt"}},
		{".text", []string{".text", ".text.*"}},
		{".fini", []string{".fini"}},
		{".rodata", []string{".rodata", ".rodata.*"}},
		{".eh_frame", []string{".eh_frame"}},
		{".tdata", []string{".tdata", ".tdata.*"}},
		{".tbss", []string{".tbss", ".tbss.*"}},
		{".init_array", []string{".init_array", ".init_array.*"}},
		{".fini_array", []string{".fini_array", ".fini_array.*"}},
		{".data.rel.ro", []string{".data.rel.ro", ".data.rel.ro.*"}},
		{".dynamic", []string{".dynamic"}},
		{".got", []string{".got", ".got.plt"}},
		{".data", []string{".data", ".data.*"}},
		{".bss", []string{".bss", ".bss.*", "COMMON"}},
		{".comment", []string{".comment"}},
		{constants.DiscardSection, []string{".note.GNU-stack", ".gnu_debuglink"}},
	} {
		l.Append(&OutputSection{Name: s.name, Patterns: s.patterns})
	}
	return l
}
