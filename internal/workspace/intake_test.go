package workspace

import (
	"context"
	"testing"
)

func newTestIntake(t *testing.T, root string) (*intake, VFS, *Router, *versionMap) {
	t.Helper()
	vfs := NewMemVFS()
	versions := newVersionMap()
	router := newRouter(routerOptions{
		WorkspaceRoot: root,
		VFS:           vfs,
		Versions:      versions,
		Registry:      struct{}{},
		Analyzer:      newFakeAnalyzer(),
		Logger:        NewNoopLogger(),
		Tracer:        NewNoopTracer(),
	})
	refs := newReferenceResolver(root, &fakeFetcher{}, router, newFakeAnalyzer(), vfs, NewNoopLogger(), NewNoopTracer(), func(context.Context) error { return nil })
	ik := newIntake(vfs, versions, router, refs, NewNoopLogger(), NewNoopTracer())
	return ik, vfs, router, versions
}

func TestIntakeDidOpenStagesFileAndBumpsVersion(t *testing.T) {
	ik, vfs, router, versions := newTestIntake(t, "/ws")
	vfs.Set(PathToURI("/ws/tsconfig.json", ""), "a.ts")

	u := PathToURI("/ws/a.ts", "")
	if err := ik.didOpen(context.Background(), u, "export const a = 1;"); err != nil {
		t.Fatalf("didOpen: %v", err)
	}

	if versions.get(u) != 1 {
		t.Fatalf("expected version 1 after a single open, got %d", versions.get(u))
	}

	session := router.configurationFor("/ws/a.ts", KindTS)
	if session == nil || !session.host.HasFile("/ws/a.ts") {
		t.Fatal("expected the owning session to have staged the opened file")
	}
}

func TestIntakeDidChangeBumpsVersionMonotonically(t *testing.T) {
	ik, vfs, _, versions := newTestIntake(t, "/ws")
	vfs.Set(PathToURI("/ws/tsconfig.json", ""), "a.ts")
	u := PathToURI("/ws/a.ts", "")

	if err := ik.didChange(context.Background(), u, "v1"); err != nil {
		t.Fatalf("didChange 1: %v", err)
	}
	if err := ik.didChange(context.Background(), u, "v2"); err != nil {
		t.Fatalf("didChange 2: %v", err)
	}

	if got := versions.get(u); got != 2 {
		t.Fatalf("expected version 2 after two changes, got %d", got)
	}
	content, _ := vfs.GetContent(u)
	if content != "v2" {
		t.Fatalf("expected latest content, got %q", content)
	}
}

func TestIntakeDidCloseLeavesFileStaged(t *testing.T) {
	ik, vfs, router, _ := newTestIntake(t, "/ws")
	vfs.Set(PathToURI("/ws/tsconfig.json", ""), "a.ts")
	u := PathToURI("/ws/a.ts", "")

	if err := ik.didOpen(context.Background(), u, "export const a = 1;"); err != nil {
		t.Fatalf("didOpen: %v", err)
	}
	if err := ik.didClose(context.Background(), u); err != nil {
		t.Fatalf("didClose: %v", err)
	}

	session := router.configurationFor("/ws/a.ts", KindTS)
	if session == nil || !session.host.HasFile("/ws/a.ts") {
		t.Fatal("didClose must not un-stage the file")
	}
}

func TestIntakeDidSaveOnlyTouchesVFS(t *testing.T) {
	ik, vfs, _, versions := newTestIntake(t, "/ws")
	u := PathToURI("/ws/a.ts", "")
	vfs.Set(u, "content")

	before := versions.get(u)
	if err := ik.didSave(context.Background(), u); err != nil {
		t.Fatalf("didSave: %v", err)
	}
	if after := versions.get(u); after != before {
		t.Fatalf("didSave must not bump the version, got %d -> %d", before, after)
	}
}
