// Package utils contains general helper functions used across repo2txt.
package utils

import (
	"path/filepath"
	"strings"
)

// Project-wide file and directory names.
const (
	// GitDirectoryName is the name of the Git repository directory.
	GitDirectoryName = ".git"
	// ConfigFileName is the name of the application configuration file.
	ConfigFileName = "repo2txt.yaml"
	// GlobalConfigDirectoryName is the directory under the user's home holding global configuration.
	GlobalConfigDirectoryName = ".repo2txt"
)

const pathSegmentSeparator = "/"

// DeduplicatePatterns removes duplicate patterns from a slice while preserving order.
// The first occurrence of each unique pattern is kept.
func DeduplicatePatterns(patterns []string) []string {
	encounteredPatterns := make(map[string]struct{})
	result := make([]string, 0, len(patterns))
	for _, pattern := range patterns {
		if _, exists := encounteredPatterns[pattern]; !exists {
			encounteredPatterns[pattern] = struct{}{}
			result = append(result, pattern)
		}
	}
	return result
}

// RelativePathOrSelf calculates the relative path from root to fullPath in forward-slash form.
// Returns the cleaned fullPath if relative calculation fails.
// Returns "." if fullPath and root resolve to the same directory.
func RelativePathOrSelf(fullPath, root string) string {
	cleanPath := filepath.Clean(fullPath)
	absoluteRoot, err := filepath.Abs(root)
	if err != nil {
		return cleanPath
	}
	cleanAbsoluteRoot := filepath.Clean(absoluteRoot)

	if cleanPath == cleanAbsoluteRoot {
		return "."
	}

	relativePath, relErr := filepath.Rel(cleanAbsoluteRoot, cleanPath)
	if relErr != nil {
		return cleanPath
	}
	return filepath.ToSlash(relativePath)
}

// ContainsGitMarker reports whether path mentions the Git metadata directory
// name anywhere, so ".gitignore" and ".github/ci.yml" match as well as ".git/HEAD".
func ContainsGitMarker(path string) bool {
	return strings.Contains(filepath.ToSlash(path), GitDirectoryName)
}

// ContainsGitSegment reports whether any segment of path, in either separator
// form, is the Git metadata directory.
func ContainsGitSegment(path string) bool {
	normalizedPath := strings.ReplaceAll(filepath.ToSlash(path), "\\", pathSegmentSeparator)
	for _, segment := range strings.Split(normalizedPath, pathSegmentSeparator) {
		if segment == GitDirectoryName {
			return true
		}
	}
	return false
}
