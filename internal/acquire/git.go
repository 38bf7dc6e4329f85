package acquire

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
)

const branchNotFoundFormat = "%w: %s"

// Acquirer materializes a remote source into destination.
type Acquirer interface {
	Acquire(ctx context.Context, source Source, branch string, destination string) error
}

// GitCloner fetches a remote source with a shallow clone.
type GitCloner struct {
	// Progress receives the remote's sideband progress output when set.
	Progress io.Writer
}

// Acquire clones source into destination at depth one. A non-empty branch
// restricts the clone to that single branch.
func (cloner GitCloner) Acquire(ctx context.Context, source Source, branch string, destination string) error {
	cloneOptions := &git.CloneOptions{
		URL:      source.URL,
		Depth:    1,
		Tags:     git.NoTags,
		Progress: cloner.Progress,
	}
	if branch != "" {
		cloneOptions.ReferenceName = plumbing.NewBranchReferenceName(branch)
		cloneOptions.SingleBranch = true
	}

	if _, cloneError := git.PlainCloneContext(ctx, destination, false, cloneOptions); cloneError != nil {
		return classifyCloneError(branch, cloneError)
	}
	return nil
}

// classifyCloneError maps go-git failures onto the acquisition sentinels.
// Hosts such as GitHub answer an anonymous request for a missing repository
// with an authentication challenge, so that case is reported as not found.
func classifyCloneError(branch string, cloneError error) error {
	switch {
	case errors.Is(cloneError, transport.ErrRepositoryNotFound),
		errors.Is(cloneError, transport.ErrAuthenticationRequired):
		return fmt.Errorf("%w: %v", ErrRepositoryNotFound, cloneError)
	case branch != "" && isMissingReference(cloneError):
		return fmt.Errorf(branchNotFoundFormat, ErrBranchNotFound, branch)
	default:
		return cloneError
	}
}

func isMissingReference(cloneError error) bool {
	if errors.Is(cloneError, plumbing.ErrReferenceNotFound) {
		return true
	}
	var refSpecError git.NoMatchingRefSpecError
	return errors.As(cloneError, &refSpecError)
}
