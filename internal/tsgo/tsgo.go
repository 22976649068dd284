// Package tsgo adapts the workspace package's analyzer contracts onto the
// real github.com/microsoft/typescript-go shim packages. Apart from the disk
// backend in internal/localfs, it is the only package in this module that
// imports the shim directly — the workspace core depends solely on the
// interfaces in internal/workspace/analyzer.go.
package tsgo

import (
	"strings"

	"github.com/microsoft/typescript-go/shim/bundled"
	"github.com/microsoft/typescript-go/shim/tsoptions"
	"github.com/microsoft/typescript-go/shim/tspath"
	"github.com/microsoft/typescript-go/shim/vfs"

	"github.com/tsworkspace/wsmanager/internal/workspace"
)

// Adapter bundles every ConfigParser/ModuleResolver/... implementation this
// package provides, ready to be embedded into a workspace.Analyzer.
type Adapter struct {
	FS   vfs.FS
	cwd  string
}

// New wraps fs (typically bundled.WrapFS(osvfs.FS())) rooted at cwd.
func New(fs vfs.FS, cwd string) *Adapter {
	return &Adapter{FS: fs, cwd: cwd}
}

// Analyzer builds a workspace.Analyzer whose collaborators are all backed
// by this Adapter.
func (a *Adapter) Analyzer() *workspace.Analyzer {
	return &workspace.Analyzer{
		Registries:   a,
		Services:     a,
		Configs:      a,
		Modules:      a,
		TypeRefs:     a,
		Preprocessor: a,
		DefaultLibs:  a,
	}
}

// DefaultLibPath always resolves to the shim's bundled default library,
// independent of the requested compiler options (spec.md §4.1 — defaultLibPath
// is analyzer-global, not per-project, in this repo's implementation).
func (a *Adapter) DefaultLibPath(workspace.CompilerOptions) string {
	return bundled.LibPath()
}

// ParseConfigFileText tolerantly parses a tsconfig/jsconfig JSON document,
// matching tsoptions' comment- and trailing-comma-tolerant parse.
func (a *Adapter) ParseConfigFileText(configPath, text string) (any, error) {
	return tsoptions.ParseJSONText(normalize(configPath), text)
}

// ParseJSONConfigContent resolves include/exclude against root and computes
// the effective options plus the project's expected file set.
func (a *Adapter) ParseJSONConfigContent(json any, root string) (*workspace.ParsedConfig, error) {
	parsed, err := tsoptions.ParseJSONConfigFileContent(json, a.FS, root)
	if err != nil {
		return nil, err
	}

	opts := workspace.CompilerOptions{
		AllowJS: parsed.CompilerOptions().GetAllowJS(),
		Raw:     parsed.CompilerOptions(),
	}
	if parsed.CompilerOptions().GetModuleKind() != "" {
		opts.ModuleKind = parsed.CompilerOptions().GetModuleKind()
	}

	return &workspace.ParsedConfig{
		Options:       opts,
		ExpectedFiles: parsed.FileNames(),
	}, nil
}

// ResolveModuleName delegates to tsoptions' module resolution host, backed
// by the workspace VFS rather than the shim's own vfs.FS, so resolution sees
// exactly what the Router and Fetcher have staged.
func (a *Adapter) ResolveModuleName(referencingFile, specifier string, opts workspace.CompilerOptions, fs workspace.VFS) workspace.ModuleResolution {
	host := &vfsModuleResolutionHost{fs: fs, cwd: a.cwd}
	resolved := tsoptions.ResolveModuleName(host, referencingFile, specifier, rawOptions(opts))
	if resolved == "" {
		return workspace.ModuleResolution{}
	}
	return workspace.ModuleResolution{ResolvedFileName: resolved, Resolved: true}
}

// ResolveTypeReferenceDirective resolves a triple-slash type-reference
// directive the same way the shim's compiler host does.
func (a *Adapter) ResolveTypeReferenceDirective(referencingFile, directive string, opts workspace.CompilerOptions) workspace.ModuleResolution {
	resolved := tsoptions.ResolveTypeReferenceDirective(a.FS, referencingFile, directive, rawOptions(opts))
	if resolved == "" {
		return workspace.ModuleResolution{}
	}
	return workspace.ModuleResolution{ResolvedFileName: resolved, Resolved: true}
}

// Preprocess extracts import specifiers, triple-slash path references, and
// type-reference directives without a full parse.
func (a *Adapter) Preprocess(fileName, content string) workspace.PreprocessedFile {
	info := tsoptions.PreProcessFile(fileName, content, true)

	out := workspace.PreprocessedFile{}
	for _, imp := range info.ImportedFiles {
		out.ImportedModules = append(out.ImportedModules, imp.FileName)
	}
	for _, ref := range info.ReferencedFiles {
		out.PathReferences = append(out.PathReferences, ref.FileName)
	}
	for _, ref := range info.TypeReferenceDirectives {
		out.TypeReferences = append(out.TypeReferences, ref.FileName)
	}
	return out
}

func rawOptions(opts workspace.CompilerOptions) any {
	if opts.Raw != nil {
		return opts.Raw
	}
	return &tsoptions.CompilerOptions{AllowJs: opts.AllowJS}
}

// vfsModuleResolutionHost adapts a workspace.VFS to whatever filesystem
// shape tsoptions' module resolver expects of its host.
type vfsModuleResolutionHost struct {
	fs  workspace.VFS
	cwd string
}

func (h *vfsModuleResolutionHost) FileExists(path string) bool { return h.fs.FileExists(path) }

func (h *vfsModuleResolutionHost) ReadFile(path string) (string, bool) { return h.fs.ReadFile(path) }

func (h *vfsModuleResolutionHost) GetCurrentDirectory() string { return h.cwd }

func (h *vfsModuleResolutionHost) UseCaseSensitiveFileNames() bool { return true }

// normalize mirrors tspath.NormalizeSlashes for paths crossing the VFS
// boundary, since the shim's resolvers assume forward-slash paths.
func normalize(path string) string {
	return tspath.NormalizeSlashes(strings.TrimSpace(path))
}
