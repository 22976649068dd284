package workspace

import "context"

// Manager is the Workspace Project Manager (spec.md §1): the single entry
// point the LSP front-end and the on-demand analyzer both talk to. It wires
// the VFS, Fetcher, Router, ensure-pipelines, referenced-files resolver, and
// Change Intake into one façade.
type Manager struct {
	workspaceRoot string
	vfs           VFS
	versions      *versionMap
	fetcher       Fetcher
	analyzer      *Analyzer
	logger        Logger
	tracer        Tracer

	router       *Router
	materializer *materializer
	refs         *referenceResolver
	intake       *intake
}

// ManagerOptions bundles Manager construction inputs.
type ManagerOptions struct {
	WorkspaceRoot         string
	VFS                   VFS
	Fetcher               Fetcher
	Analyzer              *Analyzer
	Logger                Logger
	Tracer                Tracer
	TraceModuleResolution bool
}

// NewManager wires C1-C7 together. A nil Logger/Tracer falls back to no-ops.
func NewManager(opts ManagerOptions) *Manager {
	logger := opts.Logger
	if logger == nil {
		logger = NewNoopLogger()
	}
	tracer := opts.Tracer
	if tracer == nil {
		tracer = NewNoopTracer()
	}

	root := trimTrailingSlash(opts.WorkspaceRoot)
	versions := newVersionMap()

	m := &Manager{
		workspaceRoot: root,
		vfs:           opts.VFS,
		versions:      versions,
		fetcher:       opts.Fetcher,
		analyzer:      opts.Analyzer,
		logger:        logger,
		tracer:        tracer,
	}

	m.router = newRouter(routerOptions{
		WorkspaceRoot:         root,
		VFS:                   opts.VFS,
		Versions:              versions,
		Registry:              opts.Analyzer.Registries.NewDocumentRegistry(),
		Analyzer:              opts.Analyzer,
		Logger:                logger,
		Tracer:                tracer,
		TraceModuleResolution: opts.TraceModuleResolution,
	})

	m.refs = newReferenceResolver(root, opts.Fetcher, m.router, opts.Analyzer, opts.VFS, logger, tracer, func(ctx context.Context) error {
		return m.materializer.ensureModuleStructure(ctx)
	})

	m.materializer = newMaterializer(root, opts.Fetcher, opts.VFS, m.router, m.refs, tracer)

	m.intake = newIntake(opts.VFS, versions, m.router, m.refs, logger, tracer)

	return m
}

// Configurations returns every Session currently tracked (real and fallback).
func (m *Manager) Configurations() []*Session {
	return m.router.allConfigurations()
}

// ConfigurationFor returns the Session owning path. If kind is nil it is
// inferred from path's extension.
func (m *Manager) ConfigurationFor(path string, kind *ConfigKind) *Session {
	k := KindTS
	if kind != nil {
		k = *kind
	} else {
		k = ConfigKindForSourcePath(path)
	}
	return m.router.configurationFor(path, k)
}

// ParentConfigurationFor is ConfigurationFor keyed by URI instead of path.
func (m *Manager) ParentConfigurationFor(u URI, kind *ConfigKind) *Session {
	return m.ConfigurationFor(URIToPath(u), kind)
}

// ChildConfigurationsUnder returns every Session rooted under u's directory.
func (m *Manager) ChildConfigurationsUnder(u URI) []*Session {
	return m.router.childConfigurations(URIToPath(u))
}

// GetConfiguration is ConfigurationFor's throwing variant: ErrConfigNotFound
// if no Session (not even a fallback) owns path.
func (m *Manager) GetConfiguration(path string, kind *ConfigKind) (*Session, error) {
	s := m.ConfigurationFor(path, kind)
	if s == nil {
		return nil, ErrConfigNotFound
	}
	return s, nil
}

// EnsureModuleStructure fetches the workspace's directory/file skeleton.
func (m *Manager) EnsureModuleStructure(ctx context.Context) error {
	return m.materializer.ensureModuleStructure(ctx)
}

// EnsureOwnFiles fetches every JS/TS source, config, or package.json file
// the VFS knows about outside node_modules. It stages nothing into a Session.
func (m *Manager) EnsureOwnFiles(ctx context.Context) error {
	return m.materializer.ensureOwnFiles(ctx)
}

// EnsureAllFiles fetches every JS/TS source, config, or package.json file
// the VFS knows about, node_modules included. It stages nothing into a
// Session.
func (m *Manager) EnsureAllFiles(ctx context.Context) error {
	return m.materializer.ensureAllFiles(ctx)
}

// EnsureReferencedFiles walks u's transitive references up to maxDepth hops.
// A maxDepth <= 0 yields no hops; the spec's default entry point uses 30.
func (m *Manager) EnsureReferencedFiles(ctx context.Context, u URI, maxDepth int) error {
	return m.refs.ensureReferencedFiles(ctx, u, maxDepth)
}

// InvalidateModuleStructure drops every memoized ensure-pipeline result.
func (m *Manager) InvalidateModuleStructure() {
	m.materializer.invalidateModuleStructure()
}

// InvalidateReferencedFiles drops the memoized references for u, or every
// URI if u is empty.
func (m *Manager) InvalidateReferencedFiles(u URI) {
	if u == "" {
		m.refs.invalidateAll()
		return
	}
	m.refs.invalidateOne(u)
}

// DidOpen notifies Change Intake of a newly opened document.
func (m *Manager) DidOpen(ctx context.Context, u URI, text string) error {
	return m.intake.didOpen(ctx, u, text)
}

// DidChange notifies Change Intake of an edited document.
func (m *Manager) DidChange(ctx context.Context, u URI, text string) error {
	return m.intake.didChange(ctx, u, text)
}

// DidClose notifies Change Intake that a document was closed.
func (m *Manager) DidClose(ctx context.Context, u URI) error {
	return m.intake.didClose(ctx, u)
}

// DidSave notifies Change Intake that a document was saved.
func (m *Manager) DidSave(ctx context.Context, u URI) error {
	return m.intake.didSave(ctx, u)
}

// HasFile reports whether path is known to the VFS.
func (m *Manager) HasFile(path string) bool {
	return m.vfs.FileExists(path)
}

// RemoteRoot returns the trimmed workspace root directory (spec.md §6's
// remoteRoot()).
func (m *Manager) RemoteRoot() string {
	return m.workspaceRoot
}

// FS exposes the underlying VFS, for callers (the transport layer, tests)
// that need to seed or inspect content directly.
func (m *Manager) FS() VFS {
	return m.vfs
}

// PrepareQuery resolves uri's owning Session, ensures it has at least its
// basic files staged, and hands back the Session and its current program
// snapshot. It answers no semantic question itself — the analyzer adapter
// (C9) does that with the returned Program — which preserves the Non-goal
// that this repo does not implement hover/completion/diagnostics.
func (m *Manager) PrepareQuery(ctx context.Context, u URI) (*Session, Program, error) {
	path := URIToPath(u)
	session := m.router.configurationFor(path, ConfigKindForSourcePath(path))
	if session == nil {
		return nil, nil, ErrConfigNotFound
	}
	if err := session.ensureBasicFiles(ctx); err != nil {
		return nil, nil, err
	}
	if err := session.ensureSourceFile(ctx, path); err != nil {
		return nil, nil, err
	}
	program, _ := session.getProgram()
	return session, program, nil
}

// KnownFiles enumerates every JS/TS source, config, or package.json file the
// VFS currently knows about and classifies as kind, for workspace/symbol-
// style callers that need a file list without staging any Session's host
// (spec.md §4.8: filter the VFS by the same classification predicates C4/C6
// already use, rather than reading any particular Session's expected set).
func (m *Manager) KnownFiles(kind ConfigKind) []string {
	var out []string
	for _, u := range m.vfs.URIs() {
		path := URIToPath(u)
		if !isJSOrTSSource(path) && !isConfigFile(path) && !isPackageJSON(path) {
			continue
		}
		if ConfigKindForSourcePath(path) != kind {
			continue
		}
		out = append(out, path)
	}
	return out
}

// Dispose tears down the VFS subscription the Router holds.
func (m *Manager) Dispose() {
	m.router.dispose()
}
