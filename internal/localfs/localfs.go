// Package localfs provides a workspace.Fetcher backed by the local disk, plus
// the shim vfs.FS it reads from, for running the workspace manager against a
// real checkout rather than an editor's in-memory buffers alone. The
// workspace.VFS it populates is supplied by the caller.
package localfs

import (
	"context"
	goFS "io/fs"
	"strings"

	"github.com/microsoft/typescript-go/shim/bundled"
	"github.com/microsoft/typescript-go/shim/tspath"
	"github.com/microsoft/typescript-go/shim/vfs"
	"github.com/microsoft/typescript-go/shim/vfs/osvfs"

	"github.com/tsworkspace/wsmanager/internal/workspace"
)

// DiskFS wraps the shim's bundled OS filesystem for reuse by internal/tsgo's
// Adapter, which needs a vfs.FS for config parsing and module resolution.
func DiskFS() vfs.FS {
	return bundled.WrapFS(osvfs.FS())
}

// Fetcher reads structure and file content directly off disk into a
// workspace.VFS. EnsureStructure walks the workspace root once, outside
// node_modules, populating every config, package.json, and declaration
// (.d.ts/.d.mts/.d.cts) file it finds; Ensure reads one file on demand. A
// file the VFS already holds is left as it is.
type Fetcher struct {
	fs   vfs.FS
	vfs  workspace.VFS
	root string
}

// NewFetcher builds a disk-backed Fetcher rooted at root, populating target.
func NewFetcher(fs vfs.FS, root string, target workspace.VFS) *Fetcher {
	return &Fetcher{fs: fs, vfs: target, root: tspath.NormalizeSlashes(root)}
}

func (f *Fetcher) EnsureStructure(ctx context.Context) error {
	return f.fs.WalkDir(f.root, func(path string, entry goFS.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if entry.IsDir() {
			if strings.HasSuffix(path, "/node_modules") || strings.Contains(path, "/node_modules/") {
				return goFS.SkipDir
			}
			return nil
		}
		if !isStructureFile(path) {
			return nil
		}
		return f.readInto(path)
	})
}

func (f *Fetcher) Ensure(ctx context.Context, u workspace.URI) error {
	path := workspace.URIToPath(u)
	return f.readInto(path)
}

func (f *Fetcher) readInto(path string) error {
	u := workspace.PathToURI(path, "")
	if _, known := f.vfs.GetContent(u); known {
		return nil
	}
	content, ok := f.fs.ReadFile(path)
	if !ok {
		return nil
	}
	f.vfs.Set(u, content)
	return nil
}

func isStructureFile(path string) bool {
	base := path
	if idx := strings.LastIndexByte(path, '/'); idx != -1 {
		base = path[idx+1:]
	}
	if base == "tsconfig.json" || base == "jsconfig.json" || base == "package.json" {
		return true
	}
	return strings.HasSuffix(path, ".d.ts") || strings.HasSuffix(path, ".d.mts") || strings.HasSuffix(path, ".d.cts")
}
