package workspace

import "context"

// This file declares the Analyzer contract from spec.md §6 "Consumed" as
// plain Go interfaces. The core (host.go, session.go, router.go,
// references.go) only ever depends on these — never on a concrete compiler
// package — so that internal/tsgo (the adapter over the real
// microsoft/typescript-go shim packages) and the disk backend
// internal/localfs are the only places that import the shim. Tests in this
// package supply trivial fakes instead.

// Snapshot is an immutable view of a file's content handed to the analyzer.
type Snapshot interface {
	Text() string
}

type stringSnapshot string

func (s stringSnapshot) Text() string { return string(s) }

// NewSnapshot wraps raw text as a Snapshot.
func NewSnapshot(text string) Snapshot { return stringSnapshot(text) }

// LanguageServiceHost is the contract the Compiler Host Adapter (C3)
// implements and that the analyzer's language-service factory consumes.
type LanguageServiceHost interface {
	CurrentDirectory() string
	CompilationSettings() CompilerOptions
	ScriptFileNames() []string
	ScriptVersion(path string) string
	ScriptSnapshot(path string) (Snapshot, bool)
	ProjectVersion() string
	NewLine() string
}

// Program is the analyzer's view of the set of files currently known to a
// language service, handed back to callers by query routing (PrepareQuery).
// The core itself never asks it which files it holds: ensureBasicFiles,
// ensureSourceFile and ensureAllFiles skip a path by checking the compiler
// host's staged list, not ContainsFile.
type Program interface {
	ContainsFile(path string) bool
	FileNames() []string

	// TypeChecker hands back the analyzer's opaque type checker plus a
	// release func the caller must invoke when done with it. This repo never
	// calls it — PrepareQuery only routes to a Program, it never answers a
	// semantic question (the Non-goal on hover/completion/diagnostics) — but
	// a consumer built against this Manager needs a way to reach the checker
	// without this package importing it.
	TypeChecker(ctx context.Context) (checker any, release func())
}

// LanguageService is the analyzer's per-Session handle; GetProgram may
// return nil if the Session is uninitialized or the analyzer declines
// (spec.md §4.2, "Error conditions").
type LanguageService interface {
	GetProgram() Program
}

// DocumentRegistry is the analyzer's shared cache of parsed source files,
// deduplicating parse work across every Session in a workspace (spec.md §4.2
// "shared document registry", §5 "Shared resource policy"). The core treats
// it as an opaque handle passed through to LanguageServiceFactory.
type DocumentRegistry interface{}

// DocumentRegistryFactory constructs the one DocumentRegistry shared by
// every Session the Router creates.
type DocumentRegistryFactory interface {
	NewDocumentRegistry() DocumentRegistry
}

// LanguageServiceFactory builds a LanguageService bound to a host and the
// shared DocumentRegistry.
type LanguageServiceFactory interface {
	NewLanguageService(host LanguageServiceHost, registry DocumentRegistry) LanguageService
}

// ParsedConfig is the result of parsing a config file's JSON against a
// root directory: effective options plus the expected file set.
type ParsedConfig struct {
	Options       CompilerOptions
	ExpectedFiles []string
}

// ConfigParser bundles the analyzer's config-file-text-to-json parser and
// its json-config-content-to-parsed-config parser (spec.md §6).
type ConfigParser interface {
	// ParseConfigFileText parses configPath's raw JSON text (with comments
	// and trailing commas tolerated, per tsconfig conventions) to a JSON
	// value. Returns an error carrying the parser's message on failure.
	ParseConfigFileText(configPath, text string) (any, error)

	// ParseJSONConfigContent resolves include/exclude against root and
	// computes effective compiler options from a parsed JSON value.
	ParseJSONConfigContent(json any, root string) (*ParsedConfig, error)
}

// ModuleResolution is the result of resolving one module specifier or
// type-reference directive; Resolved is false when the analyzer could not
// resolve it (spec.md §7 "FileNotFound (soft)").
type ModuleResolution struct {
	ResolvedFileName string
	Resolved         bool
}

// ModuleResolver resolves import specifiers to files, using the VFS as its
// module-resolution host exactly as spec.md §4.5 requires.
type ModuleResolver interface {
	ResolveModuleName(referencingFile, specifier string, opts CompilerOptions, fs VFS) ModuleResolution
}

// TypeReferenceResolver resolves triple-slash type-reference directives.
type TypeReferenceResolver interface {
	ResolveTypeReferenceDirective(referencingFile, directive string, opts CompilerOptions) ModuleResolution
}

// PreprocessedFile is the result of the analyzer's lightweight
// pre-processor: the three sequences spec.md §4.5 extracts from source.
type PreprocessedFile struct {
	ImportedModules  []string
	PathReferences   []string
	TypeReferences   []string
}

// SourceFilePreprocessor extracts import/reference information from a
// file's source without fully parsing or type-checking it.
type SourceFilePreprocessor interface {
	Preprocess(fileName, content string) PreprocessedFile
}

// DefaultLibraryResolver resolves the analyzer's default library path for a
// given set of compiler options (spec.md §4.1 defaultLibPath).
type DefaultLibraryResolver interface {
	DefaultLibPath(opts CompilerOptions) string
}

// Analyzer bundles every external collaborator a Session needs, so Session
// construction takes one value instead of five.
type Analyzer struct {
	Registries    DocumentRegistryFactory
	Services      LanguageServiceFactory
	Configs       ConfigParser
	Modules       ModuleResolver
	TypeRefs      TypeReferenceResolver
	Preprocessor  SourceFilePreprocessor
	DefaultLibs   DefaultLibraryResolver
}
