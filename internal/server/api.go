package server

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"

	"github.com/tsworkspace/wsmanager/internal/localfs"
	"github.com/tsworkspace/wsmanager/internal/otelsink"
	"github.com/tsworkspace/wsmanager/internal/tsgo"
	"github.com/tsworkspace/wsmanager/internal/workspace"
	"github.com/tsworkspace/wsmanager/internal/ziplog"
)

var debug = os.Getenv("DEBUG") == "1"

func debugf(format string, args ...any) {
	if debug {
		fmt.Fprintf(os.Stderr, format, args...)
	}
}

// API exposes the workspace.Manager's operations as methods a Server can
// dispatch to by name.
type API struct {
	manager *workspace.Manager
	cwd     string
}

// NewAPI wires a Manager over the local disk rooted at cwd: a disk-backed
// VFS/Fetcher pair, the typescript-go shim adapter, zap logging, and an
// OTel tracer, each request tagged with a fresh uuid.
func NewAPI(cwd string) *API {
	fs := localfs.DiskFS()
	adapter := tsgo.New(fs, cwd)

	vfs := workspace.NewMemVFS()
	fetcher := localfs.NewFetcher(fs, cwd, vfs)

	logger, err := ziplog.NewDevelopment(debug)
	if err != nil {
		logger = workspace.NewNoopLogger()
	}

	manager := workspace.NewManager(workspace.ManagerOptions{
		WorkspaceRoot: cwd,
		VFS:           vfs,
		Fetcher:       fetcher,
		Analyzer:      adapter.Analyzer(),
		Logger:        logger,
		Tracer:        otelsink.New("wsmanager"),
	})

	return &API{manager: manager, cwd: cwd}
}

func (s *Server) handleRequest(method string, payload []byte) ([]byte, error) {
	ctx := context.Background()
	id := uuid.New().String()
	debugf("[DEBUG] request %s method=%s\n", id, method)

	switch method {
	case MethodEcho:
		return payload, nil

	case MethodEnsureModuleStructure:
		if err := s.api.manager.EnsureModuleStructure(ctx); err != nil {
			return nil, err
		}
		return json.Marshal(true)

	case MethodEnsureOwnFiles:
		if err := s.api.manager.EnsureOwnFiles(ctx); err != nil {
			return nil, err
		}
		return json.Marshal(true)

	case MethodEnsureAllFiles:
		if err := s.api.manager.EnsureAllFiles(ctx); err != nil {
			return nil, err
		}
		return json.Marshal(true)

	case MethodEnsureReferencedFiles:
		var params EnsureReferencedFilesParams
		if err := json.Unmarshal(payload, &params); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
		maxDepth := params.MaxDepth
		if maxDepth == 0 {
			maxDepth = 30
		}
		if err := s.api.manager.EnsureReferencedFiles(ctx, workspace.URI(params.URI), maxDepth); err != nil {
			return nil, err
		}
		return json.Marshal(true)

	case MethodDidOpen:
		var params DidOpenParams
		if err := json.Unmarshal(payload, &params); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
		if err := s.api.manager.DidOpen(ctx, workspace.URI(params.URI), params.Text); err != nil {
			return nil, err
		}
		return json.Marshal(true)

	case MethodDidChange:
		var params DidChangeParams
		if err := json.Unmarshal(payload, &params); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
		if err := s.api.manager.DidChange(ctx, workspace.URI(params.URI), params.Text); err != nil {
			return nil, err
		}
		return json.Marshal(true)

	case MethodDidClose:
		var params DidCloseParams
		if err := json.Unmarshal(payload, &params); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
		if err := s.api.manager.DidClose(ctx, workspace.URI(params.URI)); err != nil {
			return nil, err
		}
		return json.Marshal(true)

	case MethodDidSave:
		var params DidSaveParams
		if err := json.Unmarshal(payload, &params); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
		if err := s.api.manager.DidSave(ctx, workspace.URI(params.URI)); err != nil {
			return nil, err
		}
		return json.Marshal(true)

	case MethodConfigurationFor:
		var params ConfigurationForParams
		if err := json.Unmarshal(payload, &params); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
		kind := kindPtr(params.Kind)
		session := s.api.manager.ConfigurationFor(params.Path, kind)
		if session == nil {
			return nil, workspace.ErrConfigNotFound
		}
		return json.Marshal(ConfigurationResponse{
			Directory:  session.Directory(),
			Kind:       string(session.Kind()),
			ConfigPath: session.ConfigPath(),
		})

	case MethodChildConfigurations:
		var params ChildConfigurationsParams
		if err := json.Unmarshal(payload, &params); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
		sessions := s.api.manager.ChildConfigurationsUnder(workspace.URI(params.URI))
		out := make([]ConfigurationResponse, 0, len(sessions))
		for _, session := range sessions {
			out = append(out, ConfigurationResponse{
				Directory:  session.Directory(),
				Kind:       string(session.Kind()),
				ConfigPath: session.ConfigPath(),
			})
		}
		return json.Marshal(out)

	case MethodKnownFiles:
		var params KnownFilesParams
		if err := json.Unmarshal(payload, &params); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
		return json.Marshal(s.api.manager.KnownFiles(workspace.ConfigKind(params.Kind)))

	case MethodPrepareQuery:
		var params PrepareQueryParams
		if err := json.Unmarshal(payload, &params); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
		session, program, err := s.api.manager.PrepareQuery(ctx, workspace.URI(params.URI))
		if err != nil {
			return nil, err
		}
		resp := PrepareQueryResponse{
			Directory:  session.Directory(),
			Kind:       string(session.Kind()),
			ConfigPath: session.ConfigPath(),
		}
		if program != nil {
			resp.FileNames = program.FileNames()
		}
		return json.Marshal(resp)

	case MethodHasFile:
		var params HasFileParams
		if err := json.Unmarshal(payload, &params); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
		return json.Marshal(s.api.manager.HasFile(params.Path))

	default:
		return nil, fmt.Errorf("unknown method: %s", method)
	}
}

func kindPtr(k *string) *workspace.ConfigKind {
	if k == nil {
		return nil
	}
	kind := workspace.ConfigKind(*k)
	return &kind
}
