package workspace

import "context"

// intake implements Change Intake (C7, spec.md §4.6): the only path by which
// edits from the LSP front-end reach the VFS and the version map.
type intake struct {
	vfs      VFS
	versions *versionMap
	router   *Router
	refs     *referenceResolver
	logger   Logger
	tracer   Tracer
}

func newIntake(vfs VFS, versions *versionMap, router *Router, refs *referenceResolver, logger Logger, tracer Tracer) *intake {
	return &intake{vfs: vfs, versions: versions, router: router, refs: refs, logger: logger, tracer: tracer}
}

// didOpen is identical to didChange (spec.md §4.6: "didOpen ≡ didChange").
func (ik *intake) didOpen(ctx context.Context, u URI, text string) error {
	return ik.didChange(ctx, u, text)
}

// didChange updates the VFS, bumps the URI's version, and stages the file
// into its owning Session, incrementing that Session's project version so
// the next query sees the edit.
func (ik *intake) didChange(ctx context.Context, u URI, text string) error {
	ctx, span := ik.tracer.Start(ctx, "intake.didChange")
	defer span.End()
	span.Tag("uri", string(u))

	ik.vfs.DidChange(u, text)
	ik.versions.bump(u)
	ik.refs.invalidateOne(u)

	path := URIToPath(u)
	session := ik.router.configurationFor(path, ConfigKindForSourcePath(path))
	if session == nil {
		return nil
	}
	if err := session.ensureConfigFile(ctx); err != nil {
		ik.logger.Error("didChange: ensureConfigFile failed", F("uri", string(u)), F("err", err))
		return err
	}
	if err := session.ensureSourceFile(ctx, path); err != nil {
		ik.logger.Error("didChange: ensureSourceFile failed", F("uri", string(u)), F("err", err))
		return err
	}
	session.incProjectVersion()
	return nil
}

// didClose bumps the version and the owning Session's project version but,
// per spec.md §9's Open Question, leaves the file staged — it is never
// removed from the host's script-file list.
func (ik *intake) didClose(ctx context.Context, u URI) error {
	ctx, span := ik.tracer.Start(ctx, "intake.didClose")
	defer span.End()
	span.Tag("uri", string(u))

	ik.vfs.DidClose(u)
	ik.versions.bump(u)

	path := URIToPath(u)
	session := ik.router.configurationFor(path, ConfigKindForSourcePath(path))
	if session == nil {
		return nil
	}
	if err := session.ensureConfigFile(ctx); err != nil {
		ik.logger.Error("didClose: ensureConfigFile failed", F("uri", string(u)), F("err", err))
		return err
	}
	session.incProjectVersion()
	return nil
}

// didSave only notifies the VFS; no version bump, no staging (spec.md §4.6).
func (ik *intake) didSave(ctx context.Context, u URI) error {
	ik.vfs.DidSave(u)
	return nil
}
