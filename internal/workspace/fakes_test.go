package workspace

import (
	"context"
	"errors"
	"strings"
)

// fakeAnalyzer is a minimal in-memory stand-in for the real typescript-go
// adapter, just capable enough to drive the ensure-tiers, the Router, and
// the referenced-files resolver in tests. Config text is a comma-separated
// file list rather than real JSON; "bad" is a sentinel that fails to parse.
type fakeAnalyzer struct{}

func newFakeAnalyzer() *Analyzer {
	f := &fakeAnalyzer{}
	return &Analyzer{
		Registries:   f,
		Services:     f,
		Configs:      f,
		Modules:      f,
		TypeRefs:     f,
		Preprocessor: f,
		DefaultLibs:  f,
	}
}

func (f *fakeAnalyzer) NewDocumentRegistry() DocumentRegistry { return struct{}{} }

func (f *fakeAnalyzer) NewLanguageService(host LanguageServiceHost, registry DocumentRegistry) LanguageService {
	return &fakeLanguageService{host: host}
}

func (f *fakeAnalyzer) ParseConfigFileText(configPath, text string) (any, error) {
	if text == "bad" {
		return nil, errors.New("malformed config")
	}
	return text, nil
}

func (f *fakeAnalyzer) ParseJSONConfigContent(json any, root string) (*ParsedConfig, error) {
	text, _ := json.(string)
	var files []string
	if text != "" {
		for _, name := range strings.Split(text, ",") {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			if !strings.HasPrefix(name, "/") {
				name = root + "/" + name
			}
			files = append(files, name)
		}
	}
	return &ParsedConfig{ExpectedFiles: files}, nil
}

func (f *fakeAnalyzer) ResolveModuleName(referencingFile, specifier string, opts CompilerOptions, fs VFS) ModuleResolution {
	base := dirOf(referencingFile) + "/" + strings.TrimPrefix(specifier, "./")
	for _, candidate := range []string{base + ".ts", base} {
		if fs.FileExists(candidate) {
			return ModuleResolution{ResolvedFileName: candidate, Resolved: true}
		}
	}
	return ModuleResolution{}
}

func (f *fakeAnalyzer) ResolveTypeReferenceDirective(referencingFile, directive string, opts CompilerOptions) ModuleResolution {
	return ModuleResolution{}
}

func (f *fakeAnalyzer) Preprocess(fileName, content string) PreprocessedFile {
	var out PreprocessedFile
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "IMPORT:"):
			out.ImportedModules = append(out.ImportedModules, strings.TrimPrefix(line, "IMPORT:"))
		case strings.HasPrefix(line, "PATHREF:"):
			out.PathReferences = append(out.PathReferences, strings.TrimPrefix(line, "PATHREF:"))
		case strings.HasPrefix(line, "TYPEREF:"):
			out.TypeReferences = append(out.TypeReferences, strings.TrimPrefix(line, "TYPEREF:"))
		}
	}
	return out
}

func (f *fakeAnalyzer) DefaultLibPath(CompilerOptions) string { return "/lib/lib.d.ts" }

type fakeLanguageService struct {
	host LanguageServiceHost
}

func (ls *fakeLanguageService) GetProgram() Program {
	return &fakeProgram{files: ls.host.ScriptFileNames()}
}

type fakeProgram struct {
	files []string
}

func (p *fakeProgram) ContainsFile(path string) bool {
	for _, f := range p.files {
		if f == path {
			return true
		}
	}
	return false
}

func (p *fakeProgram) FileNames() []string { return p.files }

func (p *fakeProgram) TypeChecker(ctx context.Context) (any, func()) {
	return nil, func() {}
}

// fakeFetcher populates nothing: tests seed the VFS directly, so Ensure and
// EnsureStructure only return the errors injected through structureErr and
// ensureErr (nil when none is set).
type fakeFetcher struct {
	structureErr error
	ensureErr    map[URI]error
}

func (f *fakeFetcher) EnsureStructure(ctx context.Context) error { return f.structureErr }

func (f *fakeFetcher) Ensure(ctx context.Context, u URI) error {
	if f.ensureErr == nil {
		return nil
	}
	return f.ensureErr[u]
}
