// Package classify decides whether changed paths fall inside a
// configured scope and assigns category names to file sets.
package classify

import (
	"strings"

	"github.com/hochfrequenz/changetrack/internal/domain"
)

// DefaultPrefixes returns the compiler-related path prefixes used when
// the caller configures none. The list is an explicit value handed to
// callers, never a hidden global mutated by flags.
func DefaultPrefixes() []string {
	return []string{
		"Compiler/",
		"base/compiler/",
		"base/inference/",
		"src/",
		"JuliaSyntax/",
		"JuliaLowering/",
	}
}

// NormalizePath converts a changed-file path to forward slashes and
// strips a leading "./".
func NormalizePath(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	return strings.TrimPrefix(p, "./")
}

// matchesPrefix reports whether path starts with prefix, aligned on
// path segments: "src/gc" matches "src/gc/foo.c" and "src/gc" itself,
// but not "src/gcutils_other/foo.c".
func matchesPrefix(path, prefix string) bool {
	if prefix == "" {
		return false
	}
	if strings.HasSuffix(prefix, "/") {
		return strings.HasPrefix(path, prefix)
	}
	if path == prefix {
		return true
	}
	return strings.HasPrefix(path, prefix+"/")
}

// InScope reports whether any changed file starts with any configured
// prefix. An empty file list or empty prefix list is out of scope:
// no scope configured means nothing matches, not everything.
func InScope(files, prefixes []string) bool {
	for _, f := range files {
		f = NormalizePath(f)
		for _, p := range prefixes {
			if matchesPrefix(f, NormalizePath(p)) {
				return true
			}
		}
	}
	return false
}

// Category assigns the first rule whose prefix matches any of the files,
// in rule order. Files that match no rule fall back to fallback.
func Category(files []string, rules []domain.CategoryRule, fallback string) string {
	for _, r := range rules {
		for _, f := range files {
			if matchesPrefix(NormalizePath(f), NormalizePath(r.Prefix)) {
				return r.Category
			}
		}
	}
	return fallback
}
