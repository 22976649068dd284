package workspace

import (
	"strings"
)

// URI is a canonical file identifier. The VFS and the version map treat two
// URIs as the same file iff they are equal after URIToPath, so a file://
// URI and its bare-path form name one file.
type URI string

// NormalizeURI forces forward slashes and strips any trailing slash, the
// same normalization the teacher's tspath.NormalizeSlashes performs on
// plain paths.
func NormalizeURI(u URI) URI {
	s := strings.ReplaceAll(string(u), "\\", "/")
	for len(s) > 0 && s[len(s)-1] == '/' {
		s = s[:len(s)-1]
	}
	return URI(s)
}

// URIToPath strips the scheme+authority off a file:// URI, returning an
// absolute path. URIs that are already bare paths are returned unchanged.
func URIToPath(u URI) string {
	s := string(NormalizeURI(u))
	const prefix = "file://"
	if strings.HasPrefix(s, prefix) {
		s = s[len(prefix):]
	}
	return s
}

// PathToURI is the inverse of URIToPath, reusing the scheme of a reference
// URI (used by the referenced-files resolver, which must map resolved paths
// back onto the same scheme as the URI it started from). Only the scheme is
// carried over; a host/authority in like is not copied into the result.
func PathToURI(path string, like URI) URI {
	s := strings.ReplaceAll(path, "\\", "/")
	refStr := string(like)
	if idx := strings.Index(refStr, "://"); idx != -1 {
		scheme := refStr[:idx+3]
		if strings.HasPrefix(s, "/") {
			return NormalizeURI(URI(scheme + s))
		}
		return NormalizeURI(URI(scheme + "/" + s))
	}
	return NormalizeURI(URI(s))
}

// dirOf returns the parent directory of a slash-separated path, without a
// trailing slash. dirOf("/root") == "" (the trimmed root has no parent
// within the workspace, matching how the Router keys its fallback).
func dirOf(path string) string {
	idx := strings.LastIndexByte(path, '/')
	if idx <= 0 {
		return ""
	}
	return path[:idx]
}

// isDeclarationFile reports whether path ends in .d.ts/.d.mts/.d.cts (or the
// .tsx-less equivalents) per the classification rules in spec.md §4.2.
func isDeclarationFile(path string) bool {
	for _, suffix := range []string{".d.ts", ".d.mts", ".d.cts"} {
		if strings.HasSuffix(path, suffix) {
			return true
		}
	}
	return false
}

// isGlobalDeclarationFile reports whether path is a declaration file one
// level directly below root — visible to every Session regardless of which
// project's expected-file-set it falls outside of.
func isGlobalDeclarationFile(path, root string) bool {
	if !isDeclarationFile(path) {
		return false
	}
	prefix := strings.TrimSuffix(root, "/") + "/"
	if !strings.HasPrefix(path, prefix) {
		return false
	}
	rel := path[len(prefix):]
	return rel != "" && !strings.Contains(rel, "/")
}

// isConfigFile reports whether path's basename is tsconfig.json or
// jsconfig.json, anywhere in the tree.
func isConfigFile(path string) bool {
	base := path
	if idx := strings.LastIndexByte(path, '/'); idx != -1 {
		base = path[idx+1:]
	}
	return base == "tsconfig.json" || base == "jsconfig.json"
}

// isPackageJSON reports whether path's basename is package.json.
func isPackageJSON(path string) bool {
	base := path
	if idx := strings.LastIndexByte(path, '/'); idx != -1 {
		base = path[idx+1:]
	}
	return base == "package.json"
}

// isJSOrTSSource reports whether path has a JS/TS source extension
// (declaration files are excluded; they are classified separately).
func isJSOrTSSource(path string) bool {
	if isDeclarationFile(path) {
		return false
	}
	for _, ext := range []string{".ts", ".tsx", ".js", ".jsx", ".mts", ".cts", ".mjs", ".cjs"} {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}

// isJSSource reports whether path's extension implies a JS ConfigKind
// (.js/.jsx and their module variants), as opposed to TS.
func isJSSource(path string) bool {
	for _, ext := range []string{".js", ".jsx", ".mjs", ".cjs"} {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}

// isUnderNodeModules reports whether path has a node_modules component.
func isUnderNodeModules(path string) bool {
	return strings.Contains(path, "/node_modules/") || strings.HasSuffix(path, "/node_modules")
}

// trimTrailingSlash normalizes a directory path for use as a Router map key.
func trimTrailingSlash(path string) string {
	for len(path) > 1 && strings.HasSuffix(path, "/") {
		path = path[:len(path)-1]
	}
	return path
}
