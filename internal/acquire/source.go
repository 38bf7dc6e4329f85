// Package acquire obtains a repository on the local filesystem, either by
// referencing a local directory or by fetching a remote one into a scratch
// directory that the caller releases.
package acquire

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// SourceKind distinguishes local directories from remote repositories.
type SourceKind int

const (
	// SourceLocal is an existing directory on disk.
	SourceLocal SourceKind = iota
	// SourceRemote is a repository fetched over the network.
	SourceRemote
)

const (
	gitHubHost           = "github.com"
	gitHubURLFormat      = "https://github.com/%s/%s.git"
	gitRepositorySuffix  = ".git"
	scpLikePrefix        = "git@"
	unsupportedSourceFmt = "%w: %q"
)

var (
	remoteSchemePrefixes = []string{"http://", "https://", "ssh://", "git://", "file://"}
	shorthandPattern     = regexp.MustCompile(`^[A-Za-z0-9_.-]+/[A-Za-z0-9_.-]+$`)
)

// Source identifies a repository to extract.
type Source struct {
	// Identifier is the value supplied by the caller.
	Identifier string
	Kind       SourceKind
	// Path is the absolute directory of a local source.
	Path string
	// URL is the clone URL of a remote source.
	URL string
	// Owner and Repository are set for sources hosted on GitHub.
	Owner      string
	Repository string
}

// ParseSource classifies identifier. An existing path on disk is a local
// source; "owner/name" is GitHub shorthand; http(s), ssh, git, file URLs and
// scp-like "git@host:path" addresses are remote sources.
func ParseSource(identifier string) (Source, error) {
	trimmed := strings.TrimSpace(identifier)
	if trimmed == "" {
		return Source{}, fmt.Errorf(unsupportedSourceFmt, ErrUnsupportedSource, identifier)
	}

	if _, statError := os.Stat(trimmed); statError == nil {
		absolutePath, absoluteError := filepath.Abs(trimmed)
		if absoluteError != nil {
			return Source{}, fmt.Errorf("resolve %s: %w", trimmed, absoluteError)
		}
		return Source{Identifier: identifier, Kind: SourceLocal, Path: absolutePath}, nil
	}

	if shorthandPattern.MatchString(trimmed) {
		segments := strings.SplitN(trimmed, "/", 2)
		repository := strings.TrimSuffix(segments[1], gitRepositorySuffix)
		return Source{
			Identifier: identifier,
			Kind:       SourceRemote,
			URL:        fmt.Sprintf(gitHubURLFormat, segments[0], repository),
			Owner:      segments[0],
			Repository: repository,
		}, nil
	}

	if !isRemoteAddress(trimmed) {
		return Source{}, fmt.Errorf(unsupportedSourceFmt, ErrUnsupportedSource, identifier)
	}
	source := Source{Identifier: identifier, Kind: SourceRemote, URL: trimmed}
	source.Owner, source.Repository = gitHubCoordinates(trimmed)
	return source, nil
}

// Name is the repository name: the last path segment without a ".git" suffix,
// or the directory name of a local source.
func (source Source) Name() string {
	if source.Kind == SourceLocal {
		return filepath.Base(source.Path)
	}
	trimmed := strings.TrimRight(source.URL, "/")
	if separator := strings.LastIndexAny(trimmed, "/:"); separator >= 0 {
		trimmed = trimmed[separator+1:]
	}
	return strings.TrimSuffix(trimmed, gitRepositorySuffix)
}

// IsGitHub reports whether the source is a repository hosted on github.com.
func (source Source) IsGitHub() bool {
	return source.Owner != "" && source.Repository != ""
}

func isRemoteAddress(identifier string) bool {
	lowered := strings.ToLower(identifier)
	for _, prefix := range remoteSchemePrefixes {
		if strings.HasPrefix(lowered, prefix) {
			return len(identifier) > len(prefix)
		}
	}
	if strings.HasPrefix(identifier, scpLikePrefix) {
		hostAndPath := strings.TrimPrefix(identifier, scpLikePrefix)
		separator := strings.Index(hostAndPath, ":")
		return separator > 0 && separator < len(hostAndPath)-1
	}
	return false
}

func gitHubCoordinates(address string) (string, string) {
	var host, path string
	if strings.HasPrefix(address, scpLikePrefix) {
		hostAndPath := strings.TrimPrefix(address, scpLikePrefix)
		separator := strings.Index(hostAndPath, ":")
		host, path = hostAndPath[:separator], hostAndPath[separator+1:]
	} else {
		parsed, parseError := url.Parse(address)
		if parseError != nil {
			return "", ""
		}
		host, path = parsed.Hostname(), parsed.Path
	}
	if !strings.EqualFold(host, gitHubHost) {
		return "", ""
	}
	segments := strings.Split(strings.Trim(path, "/"), "/")
	if len(segments) != 2 || segments[0] == "" || segments[1] == "" {
		return "", ""
	}
	return segments[0], strings.TrimSuffix(segments[1], gitRepositorySuffix)
}
