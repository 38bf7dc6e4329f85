package acquire

import (
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

const (
	ownerDirectoryPermissions = 0o700
	ownerFilePermissions      = 0o600
)

// Cleanup removes path and everything below it. When removal fails, for
// example because of read-only entries, owner read and write permissions
// (plus execute on directories) are added to every remaining entry and the
// removal is retried once. A failure after the retry is logged as a warning.
func Cleanup(path string, logger *zap.Logger) {
	if path == "" {
		return
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	removeError := os.RemoveAll(path)
	if removeError == nil {
		return
	}
	logger.Debug("retrying cleanup after relaxing permissions", zap.String("path", path), zap.Error(removeError))

	_ = filepath.WalkDir(path, func(entryPath string, directoryEntry fs.DirEntry, walkError error) error {
		if walkError != nil || directoryEntry.Type()&fs.ModeSymlink != 0 {
			return nil
		}
		info, infoError := directoryEntry.Info()
		if infoError != nil {
			return nil
		}
		additionalPermissions := fs.FileMode(ownerFilePermissions)
		if directoryEntry.IsDir() {
			additionalPermissions = ownerDirectoryPermissions
		}
		_ = os.Chmod(entryPath, info.Mode().Perm()|additionalPermissions)
		return nil
	})

	if retryError := os.RemoveAll(path); retryError != nil {
		logger.Warn("failed to remove temporary directory", zap.String("path", path), zap.Error(retryError))
	}
}
