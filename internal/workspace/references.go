package workspace

import (
	"strings"
	"sync"

	"context"
)

// referenceResolver implements the Referenced-Files Resolver (spec.md §4.5):
// for a given file, extract its imports, triple-slash path references, and
// type-reference directives, resolve each to a concrete file, and recurse.
// Direct-reference results are memoized per URI until invalidated, since the
// same file is frequently re-walked from multiple starting points.
type referenceResolver struct {
	mu    sync.Mutex
	cache map[URI]*signalSlot[[]URI]

	workspaceRoot string
	fetcher       Fetcher
	router        *Router
	analyzer      *Analyzer
	vfs           VFS
	logger        Logger
	tracer        Tracer

	// ensureStructure is the Manager's materializer.ensureModuleStructure,
	// injected rather than depended on directly to avoid a construction cycle
	// between materializer and referenceResolver.
	ensureStructure func(context.Context) error
}

func newReferenceResolver(workspaceRoot string, fetcher Fetcher, router *Router, analyzer *Analyzer, vfs VFS, logger Logger, tracer Tracer, ensureStructure func(context.Context) error) *referenceResolver {
	return &referenceResolver{
		cache:           make(map[URI]*signalSlot[[]URI]),
		workspaceRoot:   workspaceRoot,
		fetcher:         fetcher,
		router:          router,
		analyzer:        analyzer,
		vfs:             vfs,
		logger:          logger,
		tracer:          tracer,
		ensureStructure: ensureStructure,
	}
}

// ensureReferencedFiles resolves and fetches u's transitive closure of
// referenced files, up to maxDepth hops, tolerating cycles and per-branch
// failures (spec.md §4.5 edge cases: "a cycle must not hang the walk", "a
// single unresolved reference must not abort the rest").
func (r *referenceResolver) ensureReferencedFiles(ctx context.Context, u URI, maxDepth int) error {
	if err := r.ensureStructure(ctx); err != nil {
		return err
	}

	ctx, span := r.tracer.Start(ctx, "references.ensureReferencedFiles")
	defer span.End()
	span.Tag("uri", string(u))

	visited := make(map[URI]bool)
	r.walk(ctx, u, maxDepth, visited)
	return nil
}

// walk resolves u's direct references and recurses, stopping before
// resolving anything once depth reaches zero (spec.md §4.4: "if depth == 0
// emit nothing"). A maxDepth of 0 at the entry point therefore fetches
// nothing beyond ensureModuleStructure's own prerequisite.
func (r *referenceResolver) walk(ctx context.Context, u URI, depth int, visited map[URI]bool) {
	if depth <= 0 || visited[u] {
		return
	}
	visited[u] = true

	refs, err := r.directReferences(ctx, u)
	if err != nil {
		r.logger.Error("resolve references failed", F("uri", string(u)), F("err", &ReferenceResolutionError{URI: u, Err: err}))
		return
	}

	for _, ref := range refs {
		if err := r.fetcher.Ensure(ctx, ref); err != nil {
			r.logger.Error("fetch reference failed", F("uri", string(ref)), F("err", err))
			continue
		}
		r.walk(ctx, ref, depth-1, visited)
	}
}

// directReferences resolves u's one-hop references, memoized per URI.
func (r *referenceResolver) directReferences(ctx context.Context, u URI) ([]URI, error) {
	slot := r.slotFor(u)
	return slot.run(ctx, func(ctx context.Context) ([]URI, error) {
		return r.resolveDirect(ctx, u)
	})
}

func (r *referenceResolver) resolveDirect(ctx context.Context, u URI) ([]URI, error) {
	path := URIToPath(u)

	// Fetch u itself before reading it, per spec.md §4.5 ("on cache miss:
	// fetch u via the Fetcher; then ... read u from the VFS").
	if err := r.fetcher.Ensure(ctx, u); err != nil {
		return nil, err
	}

	kind := ConfigKindForSourcePath(path)
	session := r.router.configurationFor(path, kind)
	if session == nil {
		return nil, ErrConfigNotFound
	}

	if err := session.ensureBasicFiles(ctx); err != nil {
		return nil, err
	}
	if err := session.ensureSourceFile(ctx, path); err != nil {
		return nil, err
	}

	content, ok := r.vfs.GetContent(u)
	if !ok {
		return nil, nil
	}

	pre := r.analyzer.Preprocessor.Preprocess(path, content)
	opts := session.options()

	var out []URI
	for _, spec := range pre.ImportedModules {
		res := r.analyzer.Modules.ResolveModuleName(path, spec, opts, r.vfs)
		if res.Resolved {
			out = append(out, PathToURI(res.ResolvedFileName, u))
		}
	}

	for _, directive := range pre.TypeReferences {
		res := r.analyzer.TypeRefs.ResolveTypeReferenceDirective(path, directive, opts)
		if res.Resolved {
			out = append(out, PathToURI(res.ResolvedFileName, u))
		}
	}

	for _, ref := range pre.PathReferences {
		// Deliberately joins the workspace root with the referencing file's
		// directory rather than resolving ref against just the directory —
		// an intentionally preserved quirk, not a bug. Joining is POSIX-style
		// unless the referencing URI u as given (before URIToPath normalizes
		// its slashes into path) contains a backslash, per spec.md §4.5.
		sep := "/"
		dir := dirOf(path)
		if strings.Contains(string(u), "\\") {
			sep = "\\"
			dir = strings.ReplaceAll(dir, "/", sep)
		}
		joined := strings.TrimSuffix(r.workspaceRoot, sep) + sep + strings.TrimPrefix(dir, sep) + sep + ref
		out = append(out, PathToURI(joined, u))
	}

	return out, nil
}

func (r *referenceResolver) slotFor(u URI) *signalSlot[[]URI] {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.cache[u]
	if !ok {
		s = &signalSlot[[]URI]{}
		r.cache[u] = s
	}
	return s
}

// invalidateAll drops every memoized direct-reference result.
func (r *referenceResolver) invalidateAll() {
	r.mu.Lock()
	r.cache = make(map[URI]*signalSlot[[]URI])
	r.mu.Unlock()
}

// invalidateOne drops u's memoized direct-reference result only.
func (r *referenceResolver) invalidateOne(u URI) {
	r.mu.Lock()
	delete(r.cache, u)
	r.mu.Unlock()
}
