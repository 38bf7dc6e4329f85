package utils

import (
	"runtime/debug"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

const (
	unknownVersion       = "unknown"
	develVersion         = "(devel)"
	shortHashLength      = 7
	dirtyVersionSuffix   = "-dirty"
	untaggedVersionLabel = "dev-"
)

// GetApplicationVersion attempts to determine the application version.
// It checks Go build info first, then falls back to the tag or commit of the
// enclosing Git repository.
func GetApplicationVersion() string {
	buildInfo, buildInfoAvailable := debug.ReadBuildInfo()
	if buildInfoAvailable && buildInfo.Main.Version != "" && buildInfo.Main.Version != develVersion {
		return buildInfo.Main.Version
	}
	if repositoryVersion := versionFromRepository("."); repositoryVersion != "" {
		return repositoryVersion
	}
	return unknownVersion
}

// versionFromRepository resolves the tag pointing at HEAD, or the abbreviated
// HEAD hash, for the repository containing startDirectory.
func versionFromRepository(startDirectory string) string {
	repository, openError := git.PlainOpenWithOptions(startDirectory, &git.PlainOpenOptions{DetectDotGit: true})
	if openError != nil {
		return ""
	}
	headReference, headError := repository.Head()
	if headError != nil {
		return ""
	}
	version := untaggedVersionLabel + headReference.Hash().String()[:shortHashLength]

	tagIterator, tagsError := repository.Tags()
	if tagsError == nil {
		_ = tagIterator.ForEach(func(tagReference *plumbing.Reference) error {
			targetHash := tagReference.Hash()
			if annotatedTag, annotatedError := repository.TagObject(targetHash); annotatedError == nil {
				targetHash = annotatedTag.Target
			}
			if targetHash == headReference.Hash() {
				version = tagReference.Name().Short()
			}
			return nil
		})
	}

	if worktree, worktreeError := repository.Worktree(); worktreeError == nil {
		if status, statusError := worktree.Status(); statusError == nil && !status.IsClean() {
			version += dirtyVersionSuffix
		}
	}
	return version
}
