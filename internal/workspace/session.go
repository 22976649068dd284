package workspace

import (
	"context"
	"sync"
)

// Session is one compiler-analysis context scoped to one configuration file
// (or the synthetic fallback at the workspace root). It stages files into
// the analyzer in three tiers — config-only, basic, all — per spec.md §4.2.
type Session struct {
	mu sync.Mutex

	workspaceRoot string
	root          string
	kind          ConfigKind
	configPath    string
	preBaked      *ProjectConfig

	vfs      VFS
	versions *versionMap
	registry DocumentRegistry
	analyzer *Analyzer
	logger   Logger
	tracer   Tracer

	traceModuleResolution bool

	config *ProjectConfig
	host   *compilerHost
	ls     LanguageService

	initialized       bool
	ensuredBasicFiles bool
	ensuredAllFiles   bool
}

// sessionOptions bundles Session construction inputs.
type sessionOptions struct {
	WorkspaceRoot         string
	Root                  string
	Kind                  ConfigKind
	ConfigPath            string
	PreBaked              *ProjectConfig
	VFS                   VFS
	Versions              *versionMap
	Registry              DocumentRegistry
	Analyzer              *Analyzer
	Logger                Logger
	Tracer                Tracer
	TraceModuleResolution bool
}

func newSession(opts sessionOptions) *Session {
	return &Session{
		workspaceRoot:         opts.WorkspaceRoot,
		root:                  opts.Root,
		kind:                  opts.Kind,
		configPath:            opts.ConfigPath,
		preBaked:              opts.PreBaked,
		vfs:                   opts.VFS,
		versions:              opts.Versions,
		registry:              opts.Registry,
		analyzer:              opts.Analyzer,
		logger:                opts.Logger,
		tracer:                opts.Tracer,
		traceModuleResolution: opts.TraceModuleResolution,
	}
}

func (s *Session) Directory() string    { return s.root }
func (s *Session) Kind() ConfigKind     { return s.kind }
func (s *Session) ConfigPath() string   { return s.configPath }

// ensureConfigFile is the idempotent "init" tier: read+parse the config
// (or adopt the pre-baked fallback), build the compiler host and language
// service. Parse failure is fatal for this Session until the next call.
func (s *Session) ensureConfigFile(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.initialized {
		return nil
	}

	ctx, span := s.tracer.Start(ctx, "session.ensureConfigFile")
	defer span.End()
	span.Tag("configPath", s.configPath)

	var cfg *ProjectConfig
	if s.preBaked != nil {
		// The fallback has no config file on disk to read, but spec.md §4.3
		// still gives it include globs — run them through the same
		// content-parser pipeline as a real config so ExpectedFiles isn't
		// silently empty (ensureAllFiles/KnownFiles would otherwise stage or
		// enumerate nothing for a fallback-only workspace). The fallback's own
		// deliberately-set Options (AllowJS, ModuleKind) are kept as-is.
		expected, _, err := s.parseExpectedFiles(s.configPath, fallbackIncludeJSON(s.kind))
		if err != nil {
			perr := &ConfigParseError{ConfigPath: s.configPath, Reason: err.Error()}
			s.logger.Error("config parse failed", F("config", s.configPath), F("err", perr))
			return perr
		}
		cfg = s.preBaked
		cfg.ExpectedFiles = expected
	} else {
		text, ok := s.vfs.GetContent(PathToURI(s.configPath, ""))
		if !ok {
			err := &ConfigParseError{ConfigPath: s.configPath, Reason: "config file not present in VFS"}
			s.logger.Error("config parse failed", F("config", s.configPath), F("err", err))
			return err
		}

		expected, opts, err := s.parseExpectedFiles(s.configPath, text)
		if err != nil {
			perr := &ConfigParseError{ConfigPath: s.configPath, Reason: err.Error()}
			s.logger.Error("config parse failed", F("config", s.configPath), F("err", perr))
			return perr
		}
		cfg = &ProjectConfig{
			ConfigPath:    s.configPath,
			Root:          s.root,
			Kind:          s.kind,
			Options:       opts,
			ExpectedFiles: expected,
		}
	}

	if isJSConfigPattern(s.configPath) {
		cfg.Options.AllowJS = true
	}
	if s.traceModuleResolution {
		cfg.Options.TraceModuleResolution = true
	}

	s.config = cfg
	s.host = newCompilerHost(s.root, cfg.Options, s.vfs, s.versions, s.analyzer.DefaultLibs)
	s.ls = s.analyzer.Services.NewLanguageService(s.host, s.registry)
	s.initialized = true
	return nil
}

// parseExpectedFiles runs text through the analyzer's two-stage config
// parser (raw JSON, then include/exclude resolution against s.root) and
// returns the resulting expected-file set and effective compiler options.
func (s *Session) parseExpectedFiles(configPath, text string) (map[string]bool, CompilerOptions, error) {
	raw, err := s.analyzer.Configs.ParseConfigFileText(configPath, text)
	if err != nil {
		return nil, CompilerOptions{}, err
	}

	parsed, err := s.analyzer.Configs.ParseJSONConfigContent(raw, s.root)
	if err != nil {
		return nil, CompilerOptions{}, err
	}

	expected := make(map[string]bool, len(parsed.ExpectedFiles))
	for _, f := range parsed.ExpectedFiles {
		expected[f] = true
	}
	return expected, parsed.Options, nil
}

// isJSConfigPattern reports whether configPath looks like a jsconfig.json.
func isJSConfigPattern(configPath string) bool {
	return ConfigKindForConfigPath(configPath) == KindJS
}

// ensureBasicFiles stages every global ambient-declarations file and every
// declaration file in the expected set that the host doesn't already have.
func (s *Session) ensureBasicFiles(ctx context.Context) error {
	if err := s.ensureConfigFile(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ensuredBasicFiles {
		return nil
	}

	for _, u := range s.vfs.URIs() {
		path := URIToPath(u)
		isGlobal := isGlobalDeclarationFile(path, s.workspaceRoot)
		isExpectedDecl := isDeclarationFile(path) && s.config.ExpectedFiles[path]
		if !isGlobal && !isExpectedDecl {
			continue
		}
		if !s.host.HasFile(path) {
			s.host.AddFile(path)
		}
	}

	s.ensuredBasicFiles = true
	return nil
}

// ensureSourceFile stages a single path if the host doesn't already have it.
// Used by Change Intake.
func (s *Session) ensureSourceFile(ctx context.Context, path string) error {
	if err := s.ensureConfigFile(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.host.HasFile(path) {
		s.host.AddFile(path)
	}
	return nil
}

// ensureAllFiles stages every path in the expected file set.
func (s *Session) ensureAllFiles(ctx context.Context) error {
	if err := s.ensureConfigFile(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.host.Complete() {
		return nil
	}

	for path := range s.config.ExpectedFiles {
		if !s.host.HasFile(path) {
			s.host.AddFile(path)
		}
	}

	s.host.SetComplete()
	s.ensuredAllFiles = true
	return nil
}

// reset zeroes the three tier flags and drops the host/language-service,
// which are lazily recreated on next use. Expected files are cleared too.
func (s *Session) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = false
	s.ensuredBasicFiles = false
	s.ensuredAllFiles = false
	s.host = nil
	s.ls = nil
	s.config = nil
}

// getProgram returns the analyzer's cached program, or (nil, false) if the
// Session is not initialized or the analyzer declines.
func (s *Session) getProgram() (Program, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized || s.ls == nil {
		return nil, false
	}
	p := s.ls.GetProgram()
	if p == nil {
		return nil, false
	}
	return p, true
}

// incProjectVersion bumps the host's project version; a no-op before the
// Session is initialized (Change Intake only calls this after ensureConfigFile).
func (s *Session) incProjectVersion() {
	s.mu.Lock()
	h := s.host
	s.mu.Unlock()
	if h != nil {
		h.IncProjectVersion()
	}
}

// expectedFiles returns the config's expected file set, or nil before init.
func (s *Session) expectedFiles() map[string]bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.config == nil {
		return nil
	}
	return s.config.ExpectedFiles
}

// options returns the Session's effective compiler options, or the zero
// value before init.
func (s *Session) options() CompilerOptions {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.config == nil {
		return CompilerOptions{}
	}
	return s.config.Options
}
