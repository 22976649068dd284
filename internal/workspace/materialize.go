package workspace

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// materializer owns the three workspace-wide ensure-pipelines from spec.md
// §4.4: ensureModuleStructure, ensureOwnFiles, ensureAllFiles. Each is
// memoized through a signalSlot so concurrent callers share one fetch
// instead of issuing their own (spec.md §9 design note, invariant 6). All
// three combine only the Fetcher and the VFS — they populate file content,
// they never stage a file into any Session's host.
type materializer struct {
	workspaceRoot string
	fetcher       Fetcher
	vfs           VFS
	router        *Router
	refs          *referenceResolver
	tracer        Tracer

	structureSlot signalSlot[struct{}]
	ownFilesSlot  signalSlot[struct{}]
	allFilesSlot  signalSlot[struct{}]
}

func newMaterializer(workspaceRoot string, fetcher Fetcher, vfs VFS, router *Router, refs *referenceResolver, tracer Tracer) *materializer {
	return &materializer{workspaceRoot: workspaceRoot, fetcher: fetcher, vfs: vfs, router: router, refs: refs, tracer: tracer}
}

// fetchFiltered calls the Fetcher's per-URI ensure for every URI currently
// known to the VFS whose path satisfies keep. Per-URI fetches within a
// scope proceed concurrently (spec.md §4.4 ordering contract); the first
// error aborts the remaining fetches and is returned.
func (m *materializer) fetchFiltered(ctx context.Context, scope string, keep func(path string) bool) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, u := range m.vfs.URIs() {
		u := u
		if !keep(URIToPath(u)) {
			continue
		}
		g.Go(func() error {
			if err := m.fetcher.Ensure(ctx, u); err != nil {
				return &FetchError{Scope: scope, URI: u, Err: err}
			}
			return nil
		})
	}
	return g.Wait()
}

// ensureModuleStructure fetches the workspace's directory/file skeleton,
// then fetches every global ambient-declaration, config, or package.json
// file the skeleton fetch surfaced into the VFS. Completion resets every
// Session and drops the referenced-files cache, since a structure change
// can move files between configuration scopes (spec.md §4.4 side effects).
func (m *materializer) ensureModuleStructure(ctx context.Context) error {
	_, err := m.structureSlot.run(ctx, func(ctx context.Context) (struct{}, error) {
		ctx, span := m.tracer.Start(ctx, "materialize.ensureModuleStructure")
		defer span.End()

		if err := m.fetcher.EnsureStructure(ctx); err != nil {
			return struct{}{}, &FetchError{Scope: "ensureModuleStructure", Err: err}
		}

		if err := m.fetchFiltered(ctx, "ensureModuleStructure", func(path string) bool {
			return isGlobalDeclarationFile(path, m.workspaceRoot) || isConfigFile(path) || isPackageJSON(path)
		}); err != nil {
			return struct{}{}, err
		}

		m.router.resetAll()
		m.refs.invalidateAll()
		return struct{}{}, nil
	})
	return err
}

// ensureOwnFiles fetches every non-node_modules JS/TS source, config, or
// package.json file currently known to the VFS. No post-completion reset.
func (m *materializer) ensureOwnFiles(ctx context.Context) error {
	if err := m.ensureModuleStructure(ctx); err != nil {
		return err
	}

	_, err := m.ownFilesSlot.run(ctx, func(ctx context.Context) (struct{}, error) {
		ctx, span := m.tracer.Start(ctx, "materialize.ensureOwnFiles")
		defer span.End()

		err := m.fetchFiltered(ctx, "ensureOwnFiles", func(path string) bool {
			if isUnderNodeModules(path) {
				return false
			}
			return isJSOrTSSource(path) || isConfigFile(path) || isPackageJSON(path)
		})
		return struct{}{}, err
	})
	return err
}

// ensureAllFiles fetches every JS/TS source, config, or package.json file
// anywhere currently known to the VFS, node_modules included.
func (m *materializer) ensureAllFiles(ctx context.Context) error {
	if err := m.ensureModuleStructure(ctx); err != nil {
		return err
	}

	_, err := m.allFilesSlot.run(ctx, func(ctx context.Context) (struct{}, error) {
		ctx, span := m.tracer.Start(ctx, "materialize.ensureAllFiles")
		defer span.End()

		err := m.fetchFiltered(ctx, "ensureAllFiles", func(path string) bool {
			return isJSOrTSSource(path) || isConfigFile(path) || isPackageJSON(path)
		})
		return struct{}{}, err
	})
	return err
}

// invalidateModuleStructure drops every memoized result, forcing the next
// call to each pipeline to redo its work (spec.md §4.4 invalidation).
func (m *materializer) invalidateModuleStructure() {
	m.structureSlot.clear()
	m.ownFilesSlot.clear()
	m.allFilesSlot.clear()
	m.refs.invalidateAll()
}
