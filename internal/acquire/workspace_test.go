package acquire_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/temirov/repo2txt/internal/acquire"
	"github.com/temirov/repo2txt/internal/types"
)

type stubAcquirer struct {
	files map[string]string
	err   error

	receivedBranch      string
	receivedDestination string
}

func (stub *stubAcquirer) Acquire(_ context.Context, _ acquire.Source, branch string, destination string) error {
	stub.receivedBranch = branch
	stub.receivedDestination = destination
	for name, content := range stub.files {
		path := filepath.Join(destination, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			return err
		}
	}
	return stub.err
}

func TestAcquire_LocalSourceIsUsedInPlace(t *testing.T) {
	repositoryDirectory := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(repositoryDirectory, "README.md"), []byte("hello"), 0o600))
	source, err := acquire.ParseSource(repositoryDirectory)
	require.NoError(t, err)

	workspace, err := acquire.Acquire(context.Background(), source, acquire.Options{Branch: "ignored", Logger: zap.NewNop()})
	require.NoError(t, err)
	assert.Equal(t, repositoryDirectory, workspace.Root)

	require.NoError(t, workspace.Close())
	assert.FileExists(t, filepath.Join(repositoryDirectory, "README.md"))
}

func TestAcquire_RemoteSourceUsesScopedScratchDirectory(t *testing.T) {
	temporaryDirectory := t.TempDir()
	stub := &stubAcquirer{files: map[string]string{"README.md": "hello"}}
	source, err := acquire.ParseSource("https://github.com/octo/hello.git")
	require.NoError(t, err)

	first, err := acquire.Acquire(context.Background(), source, acquire.Options{
		Method:        types.MethodGit,
		Branch:        "main",
		TempDirectory: temporaryDirectory,
		Acquirers:     map[string]acquire.Acquirer{types.MethodGit: stub},
	})
	require.NoError(t, err)
	second, err := acquire.Acquire(context.Background(), source, acquire.Options{
		TempDirectory: temporaryDirectory,
		Acquirers:     map[string]acquire.Acquirer{types.MethodGit: stub},
	})
	require.NoError(t, err)

	assert.Equal(t, "hello", filepath.Base(first.Root))
	assert.NotEqual(t, first.Root, second.Root, "concurrent invocations must not share scratch space")
	scratchName := filepath.Base(filepath.Dir(first.Root))
	assert.True(t, strings.HasPrefix(scratchName, "repo2txt-hello-"), scratchName)
	assert.FileExists(t, filepath.Join(first.Root, "README.md"))

	require.NoError(t, first.Close())
	require.NoError(t, first.Close())
	assert.NoDirExists(t, filepath.Dir(first.Root))
	assert.DirExists(t, second.Root)
	require.NoError(t, second.Close())

	entries, err := os.ReadDir(temporaryDirectory)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestAcquire_PassesBranchToStrategy(t *testing.T) {
	stub := &stubAcquirer{}
	source, err := acquire.ParseSource("octo/hello")
	require.NoError(t, err)

	workspace, err := acquire.Acquire(context.Background(), source, acquire.Options{
		Method:        types.MethodArchive,
		Branch:        "release",
		TempDirectory: t.TempDir(),
		Acquirers:     map[string]acquire.Acquirer{types.MethodArchive: stub},
	})
	require.NoError(t, err)
	defer workspace.Close()

	assert.Equal(t, "release", stub.receivedBranch)
	assert.Equal(t, workspace.Root, stub.receivedDestination)
}

func TestAcquire_FailureRemovesScratchDirectory(t *testing.T) {
	temporaryDirectory := t.TempDir()
	stub := &stubAcquirer{files: map[string]string{"partial.txt": "x"}, err: acquire.ErrBranchNotFound}
	source, err := acquire.ParseSource("octo/hello")
	require.NoError(t, err)

	workspace, err := acquire.Acquire(context.Background(), source, acquire.Options{
		TempDirectory: temporaryDirectory,
		Acquirers:     map[string]acquire.Acquirer{types.MethodGit: stub},
	})

	assert.Nil(t, workspace)
	var acquisitionError *acquire.AcquisitionError
	require.True(t, errors.As(err, &acquisitionError))
	assert.Equal(t, types.MethodGit, acquisitionError.Method)
	assert.ErrorIs(t, err, acquire.ErrBranchNotFound)

	entries, readErr := os.ReadDir(temporaryDirectory)
	require.NoError(t, readErr)
	assert.Empty(t, entries)
}

func TestAcquire_UnknownMethod(t *testing.T) {
	source, err := acquire.ParseSource("octo/hello")
	require.NoError(t, err)

	_, err = acquire.Acquire(context.Background(), source, acquire.Options{Method: "rsync", TempDirectory: t.TempDir()})
	assert.ErrorIs(t, err, acquire.ErrUnsupportedSource)
}
