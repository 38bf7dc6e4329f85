package acquire

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/temirov/repo2txt/internal/types"
)

const (
	scratchDirectoryFormat = "repo2txt-%s-%s"
	scratchDirectoryMode   = 0o700
	unknownMethodFormat    = "%w: method %q"
)

// Options configures Acquire.
type Options struct {
	// Method selects types.MethodGit (default) or types.MethodArchive for remote sources.
	Method string
	// Branch selects the branch or reference to fetch; empty means the default branch.
	Branch string
	// TempDirectory hosts scratch directories. Defaults to os.TempDir().
	TempDirectory string
	Logger        *zap.Logger
	// Acquirers overrides the strategy used for a method.
	Acquirers map[string]Acquirer
}

// Workspace is an acquired repository on disk.
type Workspace struct {
	// Root is the directory holding the repository contents.
	Root   string
	Source Source

	scratchDirectory string
	logger           *zap.Logger
}

// Acquire resolves source to a directory on disk. Local sources are used in
// place and are never modified. Remote sources are fetched into a fresh
// scratch directory named after the repository, which Close removes.
func Acquire(ctx context.Context, source Source, options Options) (*Workspace, error) {
	logger := options.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if source.Kind == SourceLocal {
		if options.Branch != "" {
			logger.Warn("branch is ignored for local sources", zap.String("branch", options.Branch))
		}
		return &Workspace{Root: source.Path, Source: source, logger: logger}, nil
	}

	method := options.Method
	if method == "" {
		method = types.MethodGit
	}
	acquirer, resolveError := resolveAcquirer(method, options.Acquirers)
	if resolveError != nil {
		return nil, &AcquisitionError{Source: source.Identifier, Method: method, Err: resolveError}
	}

	temporaryDirectory := options.TempDirectory
	if temporaryDirectory == "" {
		temporaryDirectory = os.TempDir()
	}
	scratchDirectory := filepath.Join(temporaryDirectory, fmt.Sprintf(scratchDirectoryFormat, source.Name(), uuid.NewString()))
	if makeError := os.Mkdir(scratchDirectory, scratchDirectoryMode); makeError != nil {
		return nil, &AcquisitionError{Source: source.Identifier, Method: method, Err: makeError}
	}

	workspace := &Workspace{
		Root:             filepath.Join(scratchDirectory, source.Name()),
		Source:           source,
		scratchDirectory: scratchDirectory,
		logger:           logger,
	}
	logger.Debug("fetching repository",
		zap.String("source", source.URL),
		zap.String("method", method),
		zap.String("destination", workspace.Root),
	)
	if acquireError := acquirer.Acquire(ctx, source, options.Branch, workspace.Root); acquireError != nil {
		workspace.Close()
		return nil, &AcquisitionError{Source: source.Identifier, Method: method, Err: acquireError}
	}
	return workspace, nil
}

// Close removes the scratch directory of a remote source. It is safe to call
// more than once and never touches a local source. Removal failures are
// logged, not returned.
func (workspace *Workspace) Close() error {
	if workspace == nil || workspace.scratchDirectory == "" {
		return nil
	}
	Cleanup(workspace.scratchDirectory, workspace.logger)
	workspace.scratchDirectory = ""
	return nil
}

func resolveAcquirer(method string, overrides map[string]Acquirer) (Acquirer, error) {
	if acquirer, found := overrides[method]; found {
		return acquirer, nil
	}
	switch method {
	case types.MethodGit:
		return GitCloner{}, nil
	case types.MethodArchive:
		return ArchiveDownloader{}, nil
	default:
		return nil, fmt.Errorf(unknownMethodFormat, ErrUnsupportedSource, method)
	}
}
