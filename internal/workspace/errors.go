package workspace

import (
	"errors"
	"fmt"
)

// ErrConfigNotFound is returned by GetConfiguration when no Session owns a path.
var ErrConfigNotFound = errors.New("configuration not found")

// ConfigParseError is raised when a Session fails to parse its config file.
// The Session remains uninitialized; the next call to ensureConfigFile retries.
type ConfigParseError struct {
	ConfigPath string
	Reason     string
}

func (e *ConfigParseError) Error() string {
	return fmt.Sprintf("parse config %s: %s", e.ConfigPath, e.Reason)
}

// FetchError wraps a failure from the Fetcher surfaced by an ensure-pipeline.
// Receiving one evicts the pipeline's memoized signal before it reaches subscribers.
type FetchError struct {
	Scope string
	URI   URI
	Err   error
}

func (e *FetchError) Error() string {
	if e.URI != "" {
		return fmt.Sprintf("fetch %s (%s): %v", e.URI, e.Scope, e.Err)
	}
	return fmt.Sprintf("fetch %s: %v", e.Scope, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ReferenceResolutionError wraps a failure resolving a URI's referenced files.
type ReferenceResolutionError struct {
	URI URI
	Err error
}

func (e *ReferenceResolutionError) Error() string {
	return fmt.Sprintf("resolve references for %s: %v", e.URI, e.Err)
}

func (e *ReferenceResolutionError) Unwrap() error { return e.Err }
