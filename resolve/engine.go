package resolve

import (
	"strings"

	"github.com/go-errors/errors"
	"github.com/nanovms/ldemul/log"
	"github.com/nanovms/ldemul/objstore"
	"github.com/nanovms/ldemul/search"
	"github.com/nanovms/ldemul/types"
)

// Report is the outcome of a resolution run
type Report struct {
	Objects []*LoadedObject
	Entries []*NeededEntry
	Tags    []*LoadedObject
}

// Unresolved returns the entries that could not be found
func (r *Report) Unresolved() []*NeededEntry {
	var out []*NeededEntry
	for _, n := range r.Entries {
		if n.State == Unresolved {
			out = append(out, n)
		}
	}
	return out
}

// Engine finds the files satisfying the DT_NEEDED entries of the dynamic
// objects of a session, adding them to the session as they are found.
type Engine struct {
	config  *types.Config
	store   objstore.Store
	env     Env
	logger  *log.Logger
	session *Session
	search  *search.Enumerator

	format string
	flavor string

	entries []*NeededEntry
}

// NewEngine returns an Engine with an empty session
func NewEngine(c *types.Config, store objstore.Store, env Env, logger *log.Logger) *Engine {
	if logger == nil {
		logger = log.Default()
	}
	x := &search.Expander{
		Width:  c.AddressWidth,
		Output: c.Output,
		Getwd:  env.Getwd,
		Logger: logger,
	}
	return &Engine{
		config:  c,
		store:   store,
		env:     env,
		logger:  logger,
		session: NewSession(),
		search:  search.NewEnumerator(c, x),
		format:  c.OutputFormat,
		flavor:  c.OutputFlavor,
	}
}

// Session returns the session the engine appends to
func (e *Engine) Session() *Session {
	return e.session
}

// AddInput opens an object named on the command line and appends it to
// the session. A file already in the session, under any name, is returned
// instead of being added again. The output format defaults to the format
// of the first input.
func (e *Engine) AddInput(path string, class LinkClass, referenced bool) (*LoadedObject, error) {
	obj, err := e.store.Open(path)
	if err != nil {
		return nil, err
	}
	id, err := e.store.Identity(path)
	if err != nil {
		return nil, errors.WrapPrefix(err, path, 0)
	}

	if e.format == "" {
		e.format = obj.Format
	}

	if dup := e.session.FindIdentity(id); dup != nil {
		e.logger.Infof("%s is already loaded as %s", path, dup.Path)
		return dup, nil
	}

	loaded := newLoadedObject(obj, id)
	loaded.Explicit = true
	loaded.Class = class
	loaded.Referenced = referenced
	e.session.Append(loaded)
	return loaded, nil
}

// Resolve visits every dynamic object of the session, including the ones
// it adds, and resolves their needed entries. Once done it requests the
// DT_NEEDED tags of the output. Only I/O failures on accepted objects are
// returned as errors.
func (e *Engine) Resolve() (*Report, error) {
	seen := map[string]bool{}

	for i := 0; i < e.session.Len(); i++ {
		req := e.session.At(i)
		if !req.Dynamic {
			continue
		}
		for _, name := range req.Needed {
			n := &NeededEntry{Requester: req, Name: name}
			e.entries = append(e.entries, n)

			if err := e.resolveEntry(n, seen); err != nil {
				return e.report(), err
			}
		}
	}

	for _, obj := range e.session.Objects() {
		if !obj.Dynamic || obj.Class&NoNeeded != 0 || obj.unusedAsNeeded() {
			continue
		}
		e.session.RequestNeededTag(obj)
	}
	return e.report(), nil
}

func (e *Engine) report() *Report {
	return &Report{
		Objects: e.session.Objects(),
		Entries: e.entries,
		Tags:    e.session.NeededTags(),
	}
}

func (e *Engine) resolveEntry(n *NeededEntry, seen map[string]bool) error {
	req := n.Requester

	if req.unusedAsNeeded() {
		n.State, n.Reason = Skipped, "requester is as-needed and unused"
		return nil
	}
	if req.Class&NoAddNeeded != 0 && (e.config.Rescan || e.config.IgnoreUnresolvedInSharedLibs()) {
		n.State, n.Reason = Skipped, "requester does not add needed entries"
		return nil
	}
	if seen[n.Name] {
		n.State, n.Reason = Skipped, "already processed"
		return nil
	}
	seen[n.Name] = true

	if found := e.session.FindExplicit(n.Name); found != nil {
		n.State, n.Object, n.Source = Resolved, found, SourceExplicit
		return nil
	}

	e.logger.Infof("%s needed by %s", n.Name, req.Path)

	for _, force := range []bool{false, true} {
		ok, err := e.tryPass(n, force)
		if err != nil {
			return err
		}
		if ok {
			n.State, n.Forced = Resolved, force
			e.logger.Infof("found %s at %s", n.Name, n.Object.Path)
			return nil
		}
	}

	n.State = Unresolved
	e.logger.Warnf("%s, needed by %s, not found (try using -rpath or -rpath-link)", n.Name, req.Path)
	return nil
}

// tryPass walks the search sources in order and stops at the first one
// yielding an acceptable object.
func (e *Engine) tryPass(n *NeededEntry, force bool) (bool, error) {
	var fatal error
	attempt := func(source string) search.Acceptor {
		return func(path string) bool {
			if fatal != nil {
				return true
			}
			ok, err := e.tryCandidate(n, path, force)
			if err != nil {
				fatal = err
				return true
			}
			if ok {
				n.Source = source
			}
			return ok
		}
	}
	try := func(source, list, owner string) bool {
		return e.search.Search(list, n.Name, owner, attempt(source))
	}

	if strings.HasPrefix(n.Name, "/") {
		found := try(SourceAbsolute, "", "")
		return found && fatal == nil, fatal
	}

	c := e.config
	native := c.Platform.Native

	found := try(SourceRpathLink, c.RpathLink, "")
	if !found && native {
		found = try(SourceRpath, c.Rpath, "")
	}
	if !found && native && c.RpathLink == "" && c.Rpath == "" {
		found = try(SourceLdRunPath, e.env.getenv("LD_RUN_PATH"), "")
	}
	if !found && native {
		found = try(SourceLdLibraryPath, e.env.getenv("LD_LIBRARY_PATH"), "")
	}
	if !found {
		for _, list := range n.Requester.searchPaths() {
			if found = try(SourceRunpath, list, n.Requester.Path); found {
				break
			}
		}
	}
	if !found && native {
		if dirs, source := e.env.hintPaths(); source != "" {
			found = try(source, dirs, "")
		}
	}
	if !found {
		p := attempt(SourceSearchDir)
		for _, dir := range c.SearchDirs {
			if dir.CmdLine {
				continue
			}
			if found = p(strings.TrimSuffix(dir.Path, "/") + "/" + n.Name); found {
				break
			}
		}
	}

	if fatal != nil {
		return false, fatal
	}
	return found, nil
}

// tryCandidate opens path and, when it is an acceptable dynamic object, makes
// it the object of n. A file already in the session is accepted without
// being added again.
func (e *Engine) tryCandidate(n *NeededEntry, path string, force bool) (bool, error) {
	obj, err := e.store.Open(path)
	if err != nil {
		e.logger.Infof("attempt to open %s failed", path)
		return false, nil
	}
	e.logger.Infof("attempt to open %s succeeded", path)

	if !obj.Dynamic || obj.Format != e.format || (e.flavor != "" && obj.Flavor != e.flavor) {
		return false, nil
	}

	if !force {
		if other := e.session.versionConflict(obj.Needed); other != "" {
			e.logger.Infof("%s: dependencies conflict with loaded %s, deferring", path, other)
			return false, nil
		}
		if e.config.Platform.LinuxLike() && !needsLibc(obj.Needed) {
			e.logger.Infof("%s: does not need libc, deferring", path)
			return false, nil
		}
	}

	id, err := e.store.Identity(path)
	if err != nil {
		return false, errors.WrapPrefix(err, path, 0)
	}

	if dup := e.session.FindIdentity(id); dup != nil {
		n.Object = dup
		return true, nil
	}

	for _, loaded := range e.session.Objects() {
		if loaded.Dynamic && mayConflict(n.Name, loaded) {
			e.logger.Warnf("%s, needed by %s, may conflict with %s", n.Name, n.Requester.Path, loaded.Name)
		}
	}

	loaded := newLoadedObject(obj, id)
	loaded.Class = e.linkClass(n.Requester)
	e.session.Append(loaded)
	n.Object = loaded
	return true, nil
}

// linkClass derives the class of a dependency loaded for req
func (e *Engine) linkClass(req *LoadedObject) LinkClass {
	class := DTNeeded
	if !e.config.CopyDTNeededEntries {
		class |= NoNeeded
	}
	if req.Class&NoAddNeeded != 0 {
		class |= NoNeeded | NoAddNeeded
	}
	return class
}
