package tsgo

import (
	"context"

	"github.com/microsoft/typescript-go/shim/compiler"

	"github.com/tsworkspace/wsmanager/internal/workspace"
)

// documentRegistry is an empty placeholder handle; it carries no state.
type documentRegistry struct{}

// NewDocumentRegistry returns the one DocumentRegistry value shared by every
// Session in a workspace. NewLanguageService ignores it, so no parsed-file
// work is shared between Sessions through it.
func (a *Adapter) NewDocumentRegistry() workspace.DocumentRegistry {
	return &documentRegistry{}
}

// languageService wraps a compiler.Program built fresh from the host's
// current file list every time GetProgram is called. No Program or parsed
// file is cached between calls or passed through the document registry.
type languageService struct {
	host workspace.LanguageServiceHost
}

// NewLanguageService builds the per-Session LanguageService the Compiler
// Host Adapter drives.
func (a *Adapter) NewLanguageService(host workspace.LanguageServiceHost, registry workspace.DocumentRegistry) workspace.LanguageService {
	return &languageService{host: host}
}

func (ls *languageService) GetProgram() workspace.Program {
	prog, err := compiler.NewProgram(&compiler.ProgramOptions{
		RootFiles: ls.host.ScriptFileNames(),
		Host:      &programHost{inner: ls.host},
	})
	if err != nil || prog == nil {
		return nil
	}
	return &program{p: prog}
}

// program adapts a *compiler.Program to workspace.Program.
type program struct {
	p *compiler.Program
}

func (p *program) ContainsFile(path string) bool {
	return p.p.GetSourceFile(path) != nil
}

func (p *program) FileNames() []string {
	var names []string
	for _, f := range p.p.SourceFiles() {
		names = append(names, f.FileName())
	}
	return names
}

// TypeChecker hands back the shim's *checker.Checker, boxed as any so the
// workspace package's Program interface stays free of shim imports.
func (p *program) TypeChecker(ctx context.Context) (any, func()) {
	c, release := p.p.GetTypeChecker(ctx)
	return c, release
}

// programHost adapts a workspace.LanguageServiceHost to whatever host shape
// compiler.NewProgram requires for reading scripts. It forwards only the
// current directory, file existence, file reads and the newline; script
// versions and the project version are not passed on.
type programHost struct {
	inner workspace.LanguageServiceHost
}

func (h *programHost) GetCurrentDirectory() string { return h.inner.CurrentDirectory() }

func (h *programHost) FileExists(path string) bool {
	_, ok := h.inner.ScriptSnapshot(path)
	return ok
}

func (h *programHost) ReadFile(path string) (string, bool) {
	snap, ok := h.inner.ScriptSnapshot(path)
	if !ok {
		return "", false
	}
	return snap.Text(), true
}

func (h *programHost) NewLine() string { return h.inner.NewLine() }
