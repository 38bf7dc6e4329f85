package acquire

import (
	"errors"
	"fmt"
)

var (
	// ErrRepositoryNotFound reports a remote repository that does not exist or is not accessible.
	ErrRepositoryNotFound = errors.New("repository not found")
	// ErrBranchNotFound reports a requested branch or reference that the repository does not have.
	ErrBranchNotFound = errors.New("branch not found")
	// ErrUnsupportedSource reports an identifier or method that cannot be acquired.
	ErrUnsupportedSource = errors.New("unsupported source")
	// ErrUnsafeArchivePath reports an archive entry that would be written outside the destination.
	ErrUnsafeArchivePath = errors.New("archive entry escapes destination")
)

const (
	acquisitionErrorFormat       = "acquire %s: %v"
	acquisitionMethodErrorFormat = "acquire %s via %s: %v"
)

// AcquisitionError describes a failure to obtain a repository.
type AcquisitionError struct {
	Source string
	Method string
	Err    error
}

func (acquisitionError *AcquisitionError) Error() string {
	if acquisitionError.Method == "" {
		return fmt.Sprintf(acquisitionErrorFormat, acquisitionError.Source, acquisitionError.Err)
	}
	return fmt.Sprintf(acquisitionMethodErrorFormat, acquisitionError.Source, acquisitionError.Method, acquisitionError.Err)
}

func (acquisitionError *AcquisitionError) Unwrap() error {
	return acquisitionError.Err
}

// IsNotFound reports whether err means the repository or branch does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrRepositoryNotFound) || errors.Is(err, ErrBranchNotFound)
}
