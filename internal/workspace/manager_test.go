package workspace

import (
	"context"
	"errors"
	"testing"
)

func newTestManager(t *testing.T, root string, fetcher Fetcher) (*Manager, VFS) {
	t.Helper()
	vfs := NewMemVFS()
	m := NewManager(ManagerOptions{
		WorkspaceRoot: root,
		VFS:           vfs,
		Fetcher:       fetcher,
		Analyzer:      newFakeAnalyzer(),
	})
	return m, vfs
}

func TestManagerConfigurationForFallsBackToRoot(t *testing.T) {
	m, _ := newTestManager(t, "/ws", &fakeFetcher{})

	s := m.ConfigurationFor("/ws/a/b/c.ts", nil)
	if s == nil || s.ConfigPath() != "" {
		t.Fatalf("expected the root fallback, got %v", s)
	}
}

func TestManagerGetConfigurationNeverFails(t *testing.T) {
	m, _ := newTestManager(t, "/ws", &fakeFetcher{})

	s, err := m.GetConfiguration("/ws/whatever.ts", nil)
	if err != nil {
		t.Fatalf("the root fallback should always exist: %v", err)
	}
	if s == nil {
		t.Fatal("expected a non-nil fallback session")
	}
}

func TestManagerDidOpenThenDidChangeThenDidCloseVersionSequence(t *testing.T) {
	m, vfs := newTestManager(t, "/ws", &fakeFetcher{})
	vfs.Set(PathToURI("/ws/tsconfig.json", ""), "a.ts")
	u := PathToURI("/ws/a.ts", "")

	if err := m.DidOpen(context.Background(), u, "v1"); err != nil {
		t.Fatalf("DidOpen: %v", err)
	}
	if err := m.DidChange(context.Background(), u, "v2"); err != nil {
		t.Fatalf("DidChange: %v", err)
	}
	if err := m.DidClose(context.Background(), u); err != nil {
		t.Fatalf("DidClose: %v", err)
	}

	content, ok := vfs.GetContent(u)
	if !ok || content != "v2" {
		t.Fatalf("expected the VFS to hold the last change, got %q, %v", content, ok)
	}

	session := m.ConfigurationFor("/ws/a.ts", nil)
	if session == nil || !session.host.HasFile("/ws/a.ts") {
		t.Fatal("expected the file to remain staged after close")
	}
}

func TestManagerEnsureModuleStructureResetsSessionsAndReferences(t *testing.T) {
	m, vfs := newTestManager(t, "/ws", &fakeFetcher{})
	vfs.Set(PathToURI("/ws/tsconfig.json", ""), "a.ts")
	vfs.Set(PathToURI("/ws/a.ts", ""), "")

	if err := m.EnsureModuleStructure(context.Background()); err != nil {
		t.Fatalf("EnsureModuleStructure: %v", err)
	}

	s := m.ConfigurationFor("/ws/a.ts", nil)
	if err := s.ensureConfigFile(context.Background()); err != nil {
		t.Fatalf("ensureConfigFile: %v", err)
	}
	if !s.initialized {
		t.Fatal("expected the session initialized before the second structure fetch")
	}

	m.InvalidateModuleStructure()
	a := PathToURI("/ws/a.ts", "")
	if _, err := m.refs.directReferences(context.Background(), a); err != nil {
		t.Fatalf("directReferences: %v", err)
	}
	if m.refs.slotFor(a).peek() == nil {
		t.Fatal("expected a's references memoized before the second structure fetch")
	}
	if err := m.EnsureModuleStructure(context.Background()); err != nil {
		t.Fatalf("EnsureModuleStructure after invalidate: %v", err)
	}
	if s.initialized {
		t.Fatal("expected ensureModuleStructure to reset every session")
	}
	if m.refs.slotFor(a).peek() != nil {
		t.Fatal("expected ensureModuleStructure to drop the referenced-files cache")
	}
}

func TestManagerEnsureReferencedFilesEndToEnd(t *testing.T) {
	fetched := make(map[URI]bool)
	fetcher := &recordingFetcher{fakeFetcher: fakeFetcher{}, fetched: fetched}
	m, vfs := newTestManager(t, "/ws", fetcher)
	vfs.Set(PathToURI("/ws/tsconfig.json", ""), "a.ts,b.ts")
	vfs.Set(PathToURI("/ws/a.ts", ""), "IMPORT:./b")
	vfs.Set(PathToURI("/ws/b.ts", ""), "")

	a := PathToURI("/ws/a.ts", "")
	if err := m.EnsureReferencedFiles(context.Background(), a, 30); err != nil {
		t.Fatalf("EnsureReferencedFiles: %v", err)
	}

	b := PathToURI("/ws/b.ts", "")
	if !fetched[b] {
		t.Fatal("expected b.ts to be fetched as a.ts's reference")
	}
}

func TestManagerPrepareQueryStagesWithoutAnsweringSemanticQuestions(t *testing.T) {
	m, vfs := newTestManager(t, "/ws", &fakeFetcher{})
	vfs.Set(PathToURI("/ws/tsconfig.json", ""), "a.ts")
	u := PathToURI("/ws/a.ts", "")
	vfs.Set(u, "export const a = 1;")

	session, program, err := m.PrepareQuery(context.Background(), u)
	if err != nil {
		t.Fatalf("PrepareQuery: %v", err)
	}
	if session == nil {
		t.Fatal("expected a session")
	}
	if program == nil || !program.ContainsFile("/ws/a.ts") {
		t.Fatal("expected the returned program to contain the staged file")
	}
}

func TestManagerKnownFilesEnumeratesAcrossSessions(t *testing.T) {
	m, vfs := newTestManager(t, "/ws", &fakeFetcher{})
	vfs.Set(PathToURI("/ws/tsconfig.json", ""), "a.ts")
	vfs.Set(PathToURI("/ws/a.ts", ""), "export const a = 1;")
	vfs.Set(PathToURI("/ws/pkg/tsconfig.json", ""), "pkg-a.ts")
	vfs.Set(PathToURI("/ws/pkg/pkg-a.ts", ""), "export const a = 1;")
	vfs.Set(PathToURI("/ws/pkg/pkg-a.js", ""), "module.exports.a = 1;")

	// KnownFiles reads straight off the VFS (spec.md §4.8) — no ensure-pipeline
	// or Session initialization required first.
	files := m.KnownFiles(KindTS)
	want := map[string]bool{"/ws/tsconfig.json": true, "/ws/a.ts": true, "/ws/pkg/tsconfig.json": true, "/ws/pkg/pkg-a.ts": true}
	if len(files) != len(want) {
		t.Fatalf("expected %d files, got %v", len(want), files)
	}
	for _, f := range files {
		if !want[f] {
			t.Fatalf("unexpected file %q in %v", f, files)
		}
	}

	jsFiles := m.KnownFiles(KindJS)
	if len(jsFiles) != 1 || jsFiles[0] != "/ws/pkg/pkg-a.js" {
		t.Fatalf("expected only the .js file under KindJS, got %v", jsFiles)
	}
}

func TestManagerDisposeUnsubscribesFromVFS(t *testing.T) {
	m, vfs := newTestManager(t, "/ws", &fakeFetcher{})
	m.Dispose()

	// After Dispose, a new config file must not create a new Session.
	vfs.Set(PathToURI("/ws/pkg/tsconfig.json", ""), "a.ts")
	s := m.ConfigurationFor("/ws/pkg/a.ts", nil)
	if s == nil || s.ConfigPath() != "" {
		t.Fatalf("expected disposal to stop the router from reacting to new configs, got %v", s)
	}
}

func TestManagerEnsureModuleStructurePropagatesFetchError(t *testing.T) {
	m, _ := newTestManager(t, "/ws", &fakeFetcher{structureErr: errors.New("disk unavailable")})

	if err := m.EnsureModuleStructure(context.Background()); err == nil {
		t.Fatal("expected the fetch error to propagate")
	}
}

type recordingFetcher struct {
	fakeFetcher
	fetched map[URI]bool
}

func (f *recordingFetcher) Ensure(ctx context.Context, u URI) error {
	f.fetched[u] = true
	return f.fakeFetcher.Ensure(ctx, u)
}
