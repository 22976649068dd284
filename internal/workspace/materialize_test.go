package workspace

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
)

type countingFetcher struct {
	fakeFetcher
	structureCalls atomic.Int32
}

func (f *countingFetcher) EnsureStructure(ctx context.Context) error {
	f.structureCalls.Add(1)
	return f.fakeFetcher.EnsureStructure(ctx)
}

// recordingEnsureFetcher records every URI passed to Ensure, for asserting
// the materializer's VFS-filter-then-fetch behavior (spec.md §4.4).
type recordingEnsureFetcher struct {
	fakeFetcher
	mu      sync.Mutex
	ensured map[URI]bool
}

func (f *recordingEnsureFetcher) Ensure(ctx context.Context, u URI) error {
	f.mu.Lock()
	if f.ensured == nil {
		f.ensured = make(map[URI]bool)
	}
	f.ensured[u] = true
	f.mu.Unlock()
	return f.fakeFetcher.Ensure(ctx, u)
}

func (f *recordingEnsureFetcher) wasEnsured(u URI) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ensured[u]
}

func newTestMaterializer(t *testing.T, root string, vfs VFS, fetcher Fetcher) (*materializer, *Router) {
	t.Helper()
	router := newRouter(routerOptions{
		WorkspaceRoot: root,
		VFS:           vfs,
		Versions:      newVersionMap(),
		Registry:      struct{}{},
		Analyzer:      newFakeAnalyzer(),
		Logger:        NewNoopLogger(),
		Tracer:        NewNoopTracer(),
	})
	refs := newReferenceResolver(root, fetcher, router, newFakeAnalyzer(), vfs, NewNoopLogger(), NewNoopTracer(), nil)
	m := newMaterializer(root, fetcher, vfs, router, refs, NewNoopTracer())
	refs.ensureStructure = m.ensureModuleStructure
	return m, router
}

func TestEnsureModuleStructureIsMemoized(t *testing.T) {
	vfs := NewMemVFS()
	fetcher := &countingFetcher{}
	m, _ := newTestMaterializer(t, "/ws", vfs, fetcher)

	for i := 0; i < 3; i++ {
		if err := m.ensureModuleStructure(context.Background()); err != nil {
			t.Fatalf("ensureModuleStructure: %v", err)
		}
	}

	if got := fetcher.structureCalls.Load(); got != 1 {
		t.Fatalf("expected EnsureStructure to run exactly once, ran %d times", got)
	}
}

func TestEnsureModuleStructureRetriesAfterError(t *testing.T) {
	vfs := NewMemVFS()
	fetcher := &countingFetcher{fakeFetcher: fakeFetcher{structureErr: errors.New("boom")}}
	m, _ := newTestMaterializer(t, "/ws", vfs, fetcher)

	if err := m.ensureModuleStructure(context.Background()); err == nil {
		t.Fatal("expected the first call to fail")
	}
	fetcher.structureErr = nil
	if err := m.ensureModuleStructure(context.Background()); err != nil {
		t.Fatalf("expected the retry to succeed, got %v", err)
	}
	if got := fetcher.structureCalls.Load(); got != 2 {
		t.Fatalf("expected exactly 2 attempts (fail, then retry), got %d", got)
	}
}

func TestEnsureModuleStructureFetchesStructureFilesPerURI(t *testing.T) {
	vfs := NewMemVFS()
	root := PathToURI("/ws/tsconfig.json", "")
	pkg := PathToURI("/ws/package.json", "")
	global := PathToURI("/ws/global.d.ts", "")
	source := PathToURI("/ws/a.ts", "")
	vfs.Set(root, "a.ts")
	vfs.Set(pkg, "{}")
	vfs.Set(global, "declare const g: number;")
	vfs.Set(source, "export const a = 1;")

	fetcher := &recordingEnsureFetcher{}
	m, _ := newTestMaterializer(t, "/ws", vfs, fetcher)

	if err := m.ensureModuleStructure(context.Background()); err != nil {
		t.Fatalf("ensureModuleStructure: %v", err)
	}

	for _, u := range []URI{root, pkg, global} {
		if !fetcher.wasEnsured(u) {
			t.Fatalf("expected %s to be fetched by ensureModuleStructure", u)
		}
	}
	if fetcher.wasEnsured(source) {
		t.Fatal("ensureModuleStructure must not fetch ordinary source files")
	}
}

func TestEnsureModuleStructurePropagatesPerURIFetchError(t *testing.T) {
	vfs := NewMemVFS()
	cfg := PathToURI("/ws/tsconfig.json", "")
	vfs.Set(cfg, "a.ts")

	fetcher := &fakeFetcher{ensureErr: map[URI]error{cfg: errors.New("disk unavailable")}}
	m, _ := newTestMaterializer(t, "/ws", vfs, fetcher)

	err := m.ensureModuleStructure(context.Background())
	if err == nil {
		t.Fatal("expected a per-URI fetch error to propagate out of ensureModuleStructure")
	}
	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected a *FetchError, got %T", err)
	}
	if fetchErr.URI != cfg {
		t.Fatalf("expected the FetchError to name the failing URI, got %q", fetchErr.URI)
	}
}

func TestEnsureModuleStructureWrapsStructureFetchError(t *testing.T) {
	vfs := NewMemVFS()
	fetcher := &fakeFetcher{structureErr: errors.New("disk unavailable")}
	m, _ := newTestMaterializer(t, "/ws", vfs, fetcher)

	err := m.ensureModuleStructure(context.Background())
	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected a *FetchError, got %T", err)
	}
	if fetchErr.Scope != "ensureModuleStructure" {
		t.Fatalf("expected the FetchError to name its scope, got %q", fetchErr.Scope)
	}
}

func TestEnsureOwnFilesFetchesSourceConfigAndPackageJSONExcludingNodeModules(t *testing.T) {
	vfs := NewMemVFS()
	cfg := PathToURI("/ws/tsconfig.json", "")
	pkg := PathToURI("/ws/package.json", "")
	source := PathToURI("/ws/a.ts", "")
	decl := PathToURI("/ws/global.d.ts", "")
	vendored := PathToURI("/ws/node_modules/dep/index.ts", "")
	vfs.Set(cfg, "a.ts")
	vfs.Set(pkg, "{}")
	vfs.Set(source, "export const a = 1;")
	vfs.Set(decl, "declare const g: number;")
	vfs.Set(vendored, "export const dep = 1;")

	fetcher := &recordingEnsureFetcher{}
	m, _ := newTestMaterializer(t, "/ws", vfs, fetcher)

	if err := m.ensureOwnFiles(context.Background()); err != nil {
		t.Fatalf("ensureOwnFiles: %v", err)
	}

	for _, u := range []URI{cfg, pkg, source} {
		if !fetcher.wasEnsured(u) {
			t.Fatalf("expected %s to be fetched by ensureOwnFiles", u)
		}
	}
	if fetcher.wasEnsured(vendored) {
		t.Fatal("ensureOwnFiles must not fetch files under node_modules")
	}
}

func TestEnsureAllFilesFetchesEvenUnderNodeModules(t *testing.T) {
	vfs := NewMemVFS()
	vendored := PathToURI("/ws/node_modules/dep/index.ts", "")
	vfs.Set(vendored, "export const dep = 1;")

	fetcher := &recordingEnsureFetcher{}
	m, _ := newTestMaterializer(t, "/ws", vfs, fetcher)

	if err := m.ensureAllFiles(context.Background()); err != nil {
		t.Fatalf("ensureAllFiles: %v", err)
	}

	if !fetcher.wasEnsured(vendored) {
		t.Fatal("ensureAllFiles must fetch JS/TS sources under node_modules too")
	}
}

func TestInvalidateModuleStructureForcesRefetch(t *testing.T) {
	vfs := NewMemVFS()
	fetcher := &countingFetcher{}
	m, _ := newTestMaterializer(t, "/ws", vfs, fetcher)

	if err := m.ensureModuleStructure(context.Background()); err != nil {
		t.Fatalf("ensureModuleStructure: %v", err)
	}
	m.invalidateModuleStructure()
	if err := m.ensureModuleStructure(context.Background()); err != nil {
		t.Fatalf("ensureModuleStructure after invalidate: %v", err)
	}

	if got := fetcher.structureCalls.Load(); got != 2 {
		t.Fatalf("expected EnsureStructure to run again after invalidation, ran %d times", got)
	}
}
