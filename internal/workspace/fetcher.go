package workspace

import "context"

// Fetcher pulls file content from a (possibly remote) backing store into the
// VFS. spec.md §6 describes it as returning "a shared completion signal";
// in this Go core that sharing is the job of the memoized ensure-pipelines
// in materialize.go, so Fetcher itself is a plain blocking contract — each
// call populates the VFS (via its own VFS reference) and returns once done.
// Implementations are expected to be idempotent-and-cheap on a URI that is
// already populated.
type Fetcher interface {
	// EnsureStructure populates the VFS with every "known structure" file —
	// the global-declaration, config, and package.json files the Router and
	// the ensure-pipelines need to discover sub-projects.
	EnsureStructure(ctx context.Context) error

	// Ensure populates u's content in the VFS if it is not already known.
	Ensure(ctx context.Context, u URI) error
}
