package orphan

import (
	"debug/elf"
	"strings"

	"github.com/go-errors/errors"
	"github.com/nanovms/ldemul/constants"
	"github.com/nanovms/ldemul/log"
	"github.com/nanovms/ldemul/types"
)

// ErrUnplaced is returned by PlaceAll when orphan handling is "error"
var ErrUnplaced = errors.Errorf("unplaced orphan sections")

type bucket int

const (
	bucketText bucket = iota
	bucketRodata
	bucketTdata
	bucketData
	bucketBss
	bucketRel
	bucketInterp
	bucketSdata
	bucketNonAlloc
	bucketCount

	noBucket bucket = -1
)

var bucketLabels = [bucketCount]string{
	"text", "rodata", "tdata", "data", "bss", "rel", "interp", "sdata", "nonalloc",
}

// hold tracks where orphans of one bucket go: the statement they follow
// and the last orphan section created for the bucket.
type hold struct {
	name  string
	flags Flags
	os    *OutputSection
	tail  *OutputSection
}

func newHolds() [bucketCount]hold {
	const loaded = Contents | Alloc | Load
	return [bucketCount]hold{
		bucketText:     {name: ".text", flags: loaded | ReadOnly | Code},
		bucketRodata:   {name: ".rodata", flags: loaded | ReadOnly},
		bucketTdata:    {name: ".tdata", flags: loaded | ThreadLocal},
		bucketData:     {name: ".data", flags: loaded},
		bucketBss:      {name: ".bss", flags: Alloc},
		bucketRel:      {flags: loaded | ReadOnly},
		bucketInterp:   {name: ".interp", flags: loaded | ReadOnly},
		bucketSdata:    {name: ".sdata", flags: loaded | SmallData},
		bucketNonAlloc: {name: ".comment", flags: Contents},
	}
}

// Decision records where an orphan went
type Decision struct {
	Input  *Input
	Output *OutputSection

	// Bucket is the class the orphan was sorted in, empty for sections
	// appended at the end and for merges by name.
	Bucket string

	// Anchor names the statement the output section follows.
	Anchor string

	Created   bool
	Merged    bool
	Discarded bool
}

// Placer finds output sections for input sections no rule placed
type Placer struct {
	layout *Layout
	config *types.Config
	logger *log.Logger

	holds      [bucketCount]hold
	holdsReady bool

	pending []*Input
	next    int
}

// NewPlacer returns a Placer adding to l
func NewPlacer(l *Layout, c *types.Config, logger *log.Logger) *Placer {
	if logger == nil {
		logger = log.Default()
	}
	return &Placer{
		layout: l,
		config: c,
		logger: logger,
		holds:  newHolds(),
	}
}

// PlaceAll places every input without an output section, following the
// orphan handling mode. In "error" mode every orphan is still placed and
// ErrUnplaced is returned.
func (p *Placer) PlaceAll(inputs []*Input) ([]*Decision, error) {
	p.pending = inputs

	var decisions []*Decision
	unplaced := false
	for i, in := range inputs {
		if in.Output != nil || in.Discarded {
			continue
		}
		p.next = i + 1

		if in.Flags&Exclude != 0 && !p.config.Relocatable {
			in.Discarded = true
			decisions = append(decisions, &Decision{Input: in, Discarded: true})
			continue
		}

		switch p.config.OrphanHandling {
		case types.OrphanDiscard:
			decisions = append(decisions, p.discard(in))
			continue
		case types.OrphanError:
			p.logger.Errorf("unplaced orphan section '%s' from '%s'", in.Name, in.File)
			unplaced = true
		}

		d := p.Place(in)
		if p.config.OrphanHandling == types.OrphanWarn {
			p.logger.Warnf("orphan section '%s' from '%s' being placed in section '%s'", in.Name, in.File, d.Output.Name)
		}
		decisions = append(decisions, d)
	}

	if unplaced {
		return decisions, ErrUnplaced
	}
	return decisions, nil
}

func (p *Placer) discard(in *Input) *Decision {
	os := p.layout.Find(constants.DiscardSection)
	if os == nil {
		os = &OutputSection{Name: constants.DiscardSection}
		p.layout.Append(os)
	}
	os.add(in)
	in.Discarded = true
	return &Decision{Input: in, Output: os, Discarded: true}
}

// Place finds or creates the output section of one orphan
func (p *Placer) Place(in *Input) *Decision {
	c := p.config
	name := in.Name
	unique := c.UniqueOrphanSections
	if !c.Relocatable && !unique {
		name = OutputName(name)
	}

	isdyn := false
	if !c.Relocatable && c.CombReloc && in.Flags&Alloc != 0 {
		switch {
		case in.isType(elf.SHT_RELA):
			name, isdyn = ".rela.dyn", true
		case in.isType(elf.SHT_REL):
			name, isdyn = ".rel.dyn", true
		}
	}

	if !c.Relocatable && in.Flags&Alloc != 0 && in.OSFlags&shfGNUMbind != 0 {
		if os := p.findMbind(in); os != nil {
			return p.merge(in, os)
		}
		name = mbindName(in.Flags)
	}

	if !unique {
		var unused *OutputSection
		for _, os := range p.layout.FindAll(name) {
			if os.Created && (os.Flags == 0 || ((in.Flags^os.Flags)&(Load|Alloc) == 0 && p.compatible(in, os))) {
				return p.merge(in, os)
			}
			if !os.Created {
				unused = os
			}
		}
		if unused != nil {
			return p.merge(in, unused)
		}
	}

	p.initHolds()

	if c.Executable && strings.HasPrefix(in.Name, ".gnu.warning.") && p.holds[bucketText].os != nil {
		return p.merge(in, p.holds[bucketText].os)
	}

	flags := p.widen(in)
	b := classify(in, flags)

	os := &OutputSection{Name: name, Orphan: true}
	os.add(in)
	d := &Decision{Input: in, Output: os, Created: true}

	if b == noBucket {
		p.layout.Append(os)
	} else {
		d.Bucket = bucketLabels[b]
		p.insert(os, in, flags, b, isdyn)
	}

	if i := p.layout.Index(os); i > 0 {
		os.Anchor = p.layout.Sections[i-1].Name
	}
	d.Anchor = os.Anchor
	return d
}

func (p *Placer) merge(in *Input, os *OutputSection) *Decision {
	os.add(in)
	return &Decision{Input: in, Output: os, Anchor: os.Anchor, Merged: true}
}

func (p *Placer) initHolds() {
	if p.holdsReady {
		return
	}
	for i := range p.holds {
		h := &p.holds[i]
		if h.name == "" {
			continue
		}
		h.os = p.layout.Find(h.name)
		if h.os != nil && !h.os.Created && h.os.Flags == 0 {
			h.os.Flags = h.flags
		}
	}
	p.holdsReady = true
}

// compatible reports whether in may join the existing section os
func (p *Placer) compatible(in *Input, os *OutputSection) bool {
	if os.Kind.Info != in.Kind.Info {
		return false
	}
	if p.config.Relocatable && (os.Group != in.Group || os.OSFlags != in.OSFlags) {
		return false
	}
	return os.Kind.Type == in.Kind.Type
}

func (p *Placer) findMbind(in *Input) *OutputSection {
	const mask = Alloc | Load | Contents | ReadOnly | Code
	for _, os := range p.layout.Sections {
		if os.Created && os.OSFlags&shfGNUMbind != 0 && os.Kind == in.Kind && os.Flags&mask == in.Flags&mask {
			return os
		}
	}
	return nil
}

func mbindName(f Flags) string {
	switch {
	case f&(Load|Contents) == 0:
		return ".mbind.bss"
	case f&ReadOnly == 0:
		return ".mbind.data"
	case f&Code == 0:
		return ".mbind.rodata"
	}
	return ".mbind.text"
}

// widen clears ReadOnly when a same-named section still waiting for
// placement is writable, so that both end up in one output section.
func (p *Placer) widen(in *Input) Flags {
	flags := in.Flags
	if p.config.Relocatable {
		return flags
	}
	for _, next := range p.pending[p.next:] {
		if next == in || next.Name != in.Name || next.Output != nil || next.Discarded || next.Flags&Exclude != 0 {
			continue
		}
		if (next.Flags^flags)&(Load|Alloc) != 0 || next.Kind.Type != in.Kind.Type {
			continue
		}
		flags = ((flags ^ ReadOnly) | (next.Flags ^ ReadOnly)) ^ ReadOnly
	}
	return flags
}

func classify(in *Input, flags Flags) bucket {
	switch {
	case flags&(Alloc|Debugging) == 0:
		return bucketNonAlloc
	case flags&Alloc == 0:
		return noBucket
	case flags&Load != 0 && in.isType(elf.SHT_NOTE):
		return bucketInterp
	case flags&(Load|Contents|ThreadLocal) == 0:
		return bucketBss
	case flags&SmallData != 0:
		return bucketSdata
	case flags&ThreadLocal != 0:
		return bucketTdata
	case flags&ReadOnly == 0:
		return bucketData
	case flags&Load != 0 && (in.isType(elf.SHT_RELA) || in.isType(elf.SHT_REL)):
		return bucketRel
	case flags&Code == 0:
		return bucketRodata
	}
	return bucketText
}

// insert puts a new orphan section in the layout: after the previous
// orphan of its bucket, else after the bucket's statement, else after the
// best match by flags, else first.
func (p *Placer) insert(os *OutputSection, in *Input, flags Flags, b bucket, isdyn bool) {
	h := &p.holds[b]
	defer func() { h.tail = os }()

	if h.tail != nil {
		p.layout.InsertAfter(h.tail, os)
		return
	}

	if h.os == nil {
		if h.name != "" {
			h.os = p.layout.Find(h.name)
		} else if in.isType(elf.SHT_RELA) {
			h.os = p.layout.Find(".rela.dyn")
		} else {
			h.os = p.layout.Find(".rel.dyn")
		}
	}
	after := h.os
	if after == nil {
		after = p.findByFlags(in, flags, &h.os, true)
	}

	if isdyn {
		for _, s := range p.layout.Sections {
			if s != os && strings.HasPrefix(s.Name, ".rel") {
				p.layout.InsertBefore(s, os)
				return
			}
		}
	}
	p.layout.InsertAfter(after, os)
}

// findByFlags returns the statement a new section with flags should
// follow. An exact match on the placement flags is also stored in exact.
func (p *Placer) findByFlags(in *Input, flags Flags, exact **OutputSection, matchType bool) *OutputSection {
	var found *OutputSection

	scan := func(typed bool, accept func(look *OutputSection, differ Flags) bool) {
		for _, look := range p.layout.Sections {
			if look.Name == constants.DiscardSection {
				continue
			}
			if typed && look.Created && look.Kind.Type != in.Kind.Type {
				continue
			}
			if accept(look, look.Flags^flags) {
				found = look
			}
		}
	}

	scan(matchType, func(_ *OutputSection, differ Flags) bool {
		return differ&(Contents|Alloc|Load|ReadOnly|Code|SmallData|ThreadLocal) == 0
	})
	if found != nil {
		if exact != nil {
			*exact = found
		}
		return found
	}

	switch {
	case flags&Code != 0 && flags&Alloc != 0:
		scan(matchType, func(_ *OutputSection, differ Flags) bool {
			return differ&(Contents|Alloc|Load|Code|SmallData|ThreadLocal) == 0
		})
	case flags&ReadOnly != 0 && flags&Alloc != 0:
		scan(matchType, func(look *OutputSection, differ Flags) bool {
			return differ&(Contents|Alloc|Load|ReadOnly|SmallData) == 0 ||
				(differ&(Contents|Alloc|Load|ReadOnly) == 0 && look.Flags&SmallData == 0)
		})
	case flags&ThreadLocal != 0 && flags&Alloc != 0:
		// .tdata goes after .data and .tbss after .tdata, ignoring types
		matchType = false
		seen := false
		for _, look := range p.layout.Sections {
			if look.Name == constants.DiscardSection {
				continue
			}
			differ := look.Flags ^ (flags | Load | Contents)
			if differ&(ThreadLocal|Alloc) == 0 {
				if look.Flags&Load == 0 && flags&Load != 0 {
					break
				}
				found = look
				seen = true
			} else if seen {
				break
			} else if differ&(Contents|Alloc|Load) == 0 {
				found = look
			}
		}
	case flags&SmallData != 0 && flags&Alloc != 0:
		scan(matchType, func(look *OutputSection, differ Flags) bool {
			return differ&(Contents|Alloc|Load|ThreadLocal) == 0 ||
				(look.Flags&SmallData != 0 && flags&Contents == 0)
		})
	case flags&Contents != 0 && flags&Alloc != 0:
		scan(matchType, func(_ *OutputSection, differ Flags) bool {
			return differ&(Contents|Alloc|Load|SmallData|ThreadLocal) == 0
		})
	case flags&Alloc != 0:
		scan(matchType, func(_ *OutputSection, differ Flags) bool {
			return differ&Alloc == 0
		})
	default:
		scan(false, func(_ *OutputSection, differ Flags) bool {
			return differ&Debugging == 0
		})
		return found
	}

	if found != nil || !matchType {
		return found
	}
	return p.findByFlags(in, flags, nil, false)
}
