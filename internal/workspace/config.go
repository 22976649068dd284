package workspace

// ConfigKind distinguishes the two parallel Router maps.
type ConfigKind string

const (
	KindTS ConfigKind = "ts"
	KindJS ConfigKind = "js"
)

// ConfigKindForConfigPath determines a ConfigKind from a config file's
// basename: tsconfig.json -> ts, jsconfig.json -> js.
func ConfigKindForConfigPath(path string) ConfigKind {
	if isConfigFile(path) {
		base := path
		for i := len(path) - 1; i >= 0; i-- {
			if path[i] == '/' {
				base = path[i+1:]
				break
			}
		}
		if base == "jsconfig.json" {
			return KindJS
		}
	}
	return KindTS
}

// ConfigKindForSourcePath determines a ConfigKind from a source file's
// extension: .js/.jsx (and module variants) -> js, otherwise ts.
func ConfigKindForSourcePath(path string) ConfigKind {
	if isJSSource(path) {
		return KindJS
	}
	return KindTS
}

// CompilerOptions is the subset of parsed compiler options the core cares
// about directly; the Analyzer adapter (C9) carries the full option set
// behind the Raw field for anything the core doesn't need to inspect.
type CompilerOptions struct {
	AllowJS                  bool
	TraceModuleResolution    bool
	ModuleKind               string
	Raw                      any
}

// ProjectConfig is a parsed configuration: options plus the set of paths its
// include/exclude patterns claim as project sources, rooted at Root.
type ProjectConfig struct {
	// ConfigPath is the config file's path, or "" for a fallback config.
	ConfigPath string

	// Root is the directory containing ConfigPath, or the workspace root
	// for a fallback.
	Root string

	Kind ConfigKind

	Options CompilerOptions

	// ExpectedFiles is the set of paths this config's include/exclude
	// patterns claim as project sources. Authoritative for ensureAllFiles
	// and for declaration-file filtering in ensureBasicFiles.
	ExpectedFiles map[string]bool
}

// newFallbackConfig builds the synthetic config installed by the Router at
// workspace-root construction time for a ConfigKind with no real config yet.
// ExpectedFiles starts empty; ensureConfigFile populates it by running the
// analyzer's content parser over fallbackIncludeJSON (spec.md §4.3).
func newFallbackConfig(root string, kind ConfigKind) *ProjectConfig {
	return &ProjectConfig{
		ConfigPath: "",
		Root:       root,
		Kind:       kind,
		Options: CompilerOptions{
			AllowJS:    kind == KindJS,
			ModuleKind: "CommonJS",
		},
		ExpectedFiles: make(map[string]bool),
	}
}

// fallbackIncludeJSON is the synthetic tsconfig/jsconfig body a fallback
// Session parses to compute its expected file set, carrying the include
// globs spec.md §4.3 assigns the fallback: `**/*.{js,jsx}` for the JS
// fallback, `**/*.{ts,tsx}` for the TS one.
func fallbackIncludeJSON(kind ConfigKind) string {
	if kind == KindJS {
		return `{"include":["**/*.{js,jsx}"]}`
	}
	return `{"include":["**/*.{ts,tsx}"]}`
}
