package workspace

import (
	"strings"
	"sync"
)

// Router tracks the (directory, kind) -> Session maps for ts and js kinds,
// creates a Session whenever a new config file enters the VFS, retires
// fallback Sessions, and answers "nearest enclosing Session for this file"
// (spec.md §4.3).
type Router struct {
	mu sync.Mutex

	workspaceRoot string
	ts            map[string]*Session
	js            map[string]*Session

	vfs      VFS
	versions *versionMap
	registry DocumentRegistry
	analyzer *Analyzer
	logger   Logger
	tracer   Tracer

	traceModuleResolution bool
	unsubscribe           func()
}

type routerOptions struct {
	WorkspaceRoot         string
	VFS                   VFS
	Versions              *versionMap
	Registry              DocumentRegistry
	Analyzer              *Analyzer
	Logger                Logger
	Tracer                Tracer
	TraceModuleResolution bool
}

// newRouter installs the two fallback Sessions at the trimmed workspace
// root and subscribes to the VFS's add event.
func newRouter(opts routerOptions) *Router {
	root := trimTrailingSlash(opts.WorkspaceRoot)
	r := &Router{
		workspaceRoot:         root,
		ts:                    make(map[string]*Session),
		js:                    make(map[string]*Session),
		vfs:                   opts.VFS,
		versions:              opts.Versions,
		registry:              opts.Registry,
		analyzer:              opts.Analyzer,
		logger:                opts.Logger,
		tracer:                opts.Tracer,
		traceModuleResolution: opts.TraceModuleResolution,
	}

	r.ts[root] = r.newFallbackSession(root, KindTS)
	r.js[root] = r.newFallbackSession(root, KindJS)

	r.unsubscribe = opts.VFS.OnAdd(r.onAdd)
	return r
}

func (r *Router) newFallbackSession(root string, kind ConfigKind) *Session {
	return newSession(sessionOptions{
		WorkspaceRoot:         r.workspaceRoot,
		Root:                  root,
		Kind:                  kind,
		ConfigPath:            "",
		PreBaked:              newFallbackConfig(root, kind),
		VFS:                   r.vfs,
		Versions:              r.versions,
		Registry:              r.registry,
		Analyzer:              r.analyzer,
		Logger:                r.logger,
		Tracer:                r.tracer,
		TraceModuleResolution: r.traceModuleResolution,
	})
}

// onAdd is the VFS add-event handler: a non-empty config file anywhere
// outside node_modules creates a new Session and evicts the root fallback
// for its ConfigKind, if still present.
func (r *Router) onAdd(u URI, content string) {
	path := URIToPath(u)
	if content == "" {
		return
	}
	if !isConfigFile(path) || isUnderNodeModules(path) {
		return
	}

	kind := ConfigKindForConfigPath(path)
	dir := trimTrailingSlash(dirOf(path))

	r.mu.Lock()
	defer r.mu.Unlock()

	m := r.mapFor(kind)
	if existing, ok := m[dir]; ok && existing.ConfigPath() == path {
		return
	}

	session := newSession(sessionOptions{
		WorkspaceRoot:         r.workspaceRoot,
		Root:                  dir,
		Kind:                  kind,
		ConfigPath:            path,
		VFS:                   r.vfs,
		Versions:              r.versions,
		Registry:              r.registry,
		Analyzer:              r.analyzer,
		Logger:                r.logger,
		Tracer:                r.tracer,
		TraceModuleResolution: r.traceModuleResolution,
	})
	m[dir] = session

	if fallback, ok := m[r.workspaceRoot]; ok && fallback.ConfigPath() == "" && dir != r.workspaceRoot {
		delete(m, r.workspaceRoot)
	}
}

func (r *Router) mapFor(kind ConfigKind) map[string]*Session {
	if kind == KindJS {
		return r.js
	}
	return r.ts
}

// configurationFor walks from path's containing directory upward toward
// the trimmed workspace root, returning the first Session found in kind's
// map, or the fallback entry at the root, or nil.
func (r *Router) configurationFor(path string, kind ConfigKind) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	m := r.mapFor(kind)
	dir := trimTrailingSlash(dirOf(path))
	if isConfigFile(path) {
		// A config file's own owner is the directory it sits in, not its parent.
		dir = trimTrailingSlash(path[:strings.LastIndexByte(path, '/')])
	}

	for {
		if s, ok := m[dir]; ok {
			return s
		}
		if dir == r.workspaceRoot || dir == "" {
			break
		}
		next := dirOf(dir)
		if next == dir {
			break
		}
		dir = next
	}

	if s, ok := m[r.workspaceRoot]; ok {
		return s
	}
	return nil
}

// childConfigurations returns every Session in either map whose directory
// key starts with dirPath.
func (r *Router) childConfigurations(dirPath string) []*Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	prefix := trimTrailingSlash(dirPath)
	var out []*Session
	for _, m := range [...]map[string]*Session{r.js, r.ts} {
		for d, s := range m {
			if strings.HasPrefix(d, prefix) {
				out = append(out, s)
			}
		}
	}
	return out
}

// allConfigurations concatenates the js map's values then the ts map's.
func (r *Router) allConfigurations() []*Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*Session, 0, len(r.js)+len(r.ts))
	for _, s := range r.js {
		out = append(out, s)
	}
	for _, s := range r.ts {
		out = append(out, s)
	}
	return out
}

// resetAll calls reset() on every Session currently tracked.
func (r *Router) resetAll() {
	for _, s := range r.allConfigurations() {
		s.reset()
	}
}

// dispose tears down the VFS subscription.
func (r *Router) dispose() {
	if r.unsubscribe != nil {
		r.unsubscribe()
	}
}
