package workspace

import "sync"

// VFS is the in-memory mapping URI -> content the core treats as the single
// source of truth for file content (spec.md §6, §5 "Shared resource
// policy"). It is an external dependency in the architecture this repo
// targets — the core only ever depends on this interface — but a concrete
// implementation lives here because every ensure-pipeline and the Router
// need *some* VFS to drive against, and the shape of the in-memory store
// (add-event pubsub, monotonic-once population) is itself part of the
// contract other components rely on.
type VFS interface {
	FileExists(path string) bool
	ReadFile(path string) (content string, ok bool)
	GetContent(u URI) (content string, ok bool)
	URIs() []URI

	DidOpen(u URI, text string)
	DidChange(u URI, text string)
	DidClose(u URI)
	DidSave(u URI)

	// Set populates u with content. It is the Fetcher's entry point for
	// satisfying an ensure()/ensureStructure() request, distinct from the
	// DidOpen/DidChange pair Change Intake uses for editor-originated edits.
	Set(u URI, content string)

	// OnAdd subscribes fn to fire once for every URI the first time its
	// content becomes known. The returned func removes the subscription.
	OnAdd(fn func(u URI, content string)) (unsubscribe func())
}

// memVFS is the default VFS: a mutex-guarded map plus a subscriber list.
// Content is keyed by the bare path (URIToPath), not the raw URI, so that a
// file opened under a scheme'd client URI (file:///root/a.ts) and the same
// file read back by path-only callers (the Compiler Host Adapter, the
// module-resolution host) agree on the same entry.
type memVFS struct {
	mu      sync.RWMutex
	content map[string]string
	subs    map[int]func(URI, string)
	nextSub int
}

// NewMemVFS constructs an empty in-memory VFS.
func NewMemVFS() VFS {
	return &memVFS{
		content: make(map[string]string),
		subs:    make(map[int]func(URI, string)),
	}
}

func (f *memVFS) FileExists(path string) bool {
	_, ok := f.GetContent(PathToURI(path, ""))
	return ok
}

func (f *memVFS) ReadFile(path string) (string, bool) {
	return f.GetContent(PathToURI(path, ""))
}

func (f *memVFS) GetContent(u URI) (string, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	c, ok := f.content[URIToPath(u)]
	return c, ok
}

func (f *memVFS) URIs() []URI {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]URI, 0, len(f.content))
	for path := range f.content {
		out = append(out, PathToURI(path, ""))
	}
	return out
}

// Set populates u with content, firing the add event only the first time u
// transitions from unknown to known. This is the entry point the Fetcher
// uses to satisfy an ensure() or ensureStructure() request.
func (f *memVFS) Set(u URI, content string) {
	path := URIToPath(u)
	f.mu.Lock()
	_, existed := f.content[path]
	f.content[path] = content
	var fire []func(URI, string)
	if !existed {
		fire = make([]func(URI, string), 0, len(f.subs))
		for _, fn := range f.subs {
			fire = append(fire, fn)
		}
	}
	f.mu.Unlock()

	canonical := PathToURI(path, "")
	for _, fn := range fire {
		fn(canonical, content)
	}
}

func (f *memVFS) DidOpen(u URI, text string) { f.Set(u, text) }

func (f *memVFS) DidChange(u URI, text string) { f.Set(u, text) }

func (f *memVFS) DidClose(u URI) {
	// Content is retained; didClose carries no VFS mutation beyond intake's
	// version bump (spec.md §4.6) — the Open Question in §9 leaves
	// un-staging unaddressed, and this repo preserves that by touching
	// nothing here.
}

func (f *memVFS) DidSave(u URI) {
	// No-op: didSave performs VFS.didSave only, per spec.md §4.6, and the
	// in-memory store has no "dirty" concept to flush.
}

func (f *memVFS) OnAdd(fn func(u URI, content string)) func() {
	f.mu.Lock()
	id := f.nextSub
	f.nextSub++
	f.subs[id] = fn
	f.mu.Unlock()

	return func() {
		f.mu.Lock()
		delete(f.subs, id)
		f.mu.Unlock()
	}
}
