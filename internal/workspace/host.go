package workspace

import (
	"strconv"
	"strings"
	"sync"
)

// compilerHost adapts the VFS to the analyzer's LanguageServiceHost contract
// (spec.md §4.1). One exists per Session; it is the only place the core
// reaches into the VFS by path rather than by URI, since the analyzer's
// file-name space is paths.
type compilerHost struct {
	mu sync.Mutex

	root    string
	options CompilerOptions
	fs      VFS
	versions *versionMap
	libs    DefaultLibraryResolver

	scriptFiles []string
	staged      map[string]bool
	projVersion uint64
	complete    bool
}

func newCompilerHost(root string, options CompilerOptions, fs VFS, versions *versionMap, libs DefaultLibraryResolver) *compilerHost {
	return &compilerHost{
		root:     root,
		options:  options,
		fs:       fs,
		versions: versions,
		libs:     libs,
		staged:   make(map[string]bool),
	}
}

func (h *compilerHost) CurrentDirectory() string { return h.root }

func (h *compilerHost) CompilationSettings() CompilerOptions { return h.options }

func (h *compilerHost) ScriptFileNames() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, len(h.scriptFiles))
	copy(out, h.scriptFiles)
	return out
}

// ScriptVersion returns the URI's version as a string, seeding it to 1 via
// the shared versionMap if it has never been seen (spec.md §4.1).
func (h *compilerHost) ScriptVersion(path string) string {
	v := h.versions.get(PathToURI(path, ""))
	return strconv.FormatUint(v, 10)
}

// ScriptSnapshot returns the file's current content from the VFS, or
// (nil, false) — not an error — if the VFS does not know the file.
func (h *compilerHost) ScriptSnapshot(path string) (Snapshot, bool) {
	content, ok := h.fs.GetContent(PathToURI(path, ""))
	if !ok {
		return nil, false
	}
	return NewSnapshot(content), true
}

func (h *compilerHost) ProjectVersion() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return strconv.FormatUint(h.projVersion, 10)
}

// IncProjectVersion increments the project-version counter (spec.md invariant 4).
func (h *compilerHost) IncProjectVersion() {
	h.mu.Lock()
	h.projVersion++
	h.mu.Unlock()
}

// NewLine is always "\n", never the host OS default (spec.md §4.1).
func (h *compilerHost) NewLine() string { return "\n" }

// DefaultLibPath forwards to the analyzer's resolver, normalized to forward
// slashes.
func (h *compilerHost) DefaultLibPath() string {
	if h.libs == nil {
		return ""
	}
	return strings.ReplaceAll(h.libs.DefaultLibPath(h.options), "\\", "/")
}

// HasFile reports whether path has already been staged into this host.
func (h *compilerHost) HasFile(path string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.staged[path]
}

// AddFile appends path to the staged list and bumps the project version.
// Idempotent-or-not is the caller's responsibility; §4.2 only calls this
// after a HasFile check, but AddFile itself does not enforce that.
func (h *compilerHost) AddFile(path string) {
	h.mu.Lock()
	h.scriptFiles = append(h.scriptFiles, path)
	h.staged[path] = true
	h.projVersion++
	h.mu.Unlock()
}

// SetComplete settles the complete flag once; further calls are no-ops,
// matching the "settable once" contract in spec.md §4.1.
func (h *compilerHost) SetComplete() {
	h.mu.Lock()
	h.complete = true
	h.mu.Unlock()
}

func (h *compilerHost) Complete() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.complete
}
