// Package commands contains the repository-to-text core: traversal, tree rendering and content extraction.
package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/temirov/repo2txt/internal/types"
	"github.com/temirov/repo2txt/internal/utils"
)

const (
	// errorAbsolutePathFormat is used when the absolute path cannot be determined.
	errorAbsolutePathFormat = "getting absolute path for %s: %w"
	// errorStatRootFormat is used when the traversal root cannot be inspected.
	errorStatRootFormat = "inspecting root %s: %w"
	// errorReadDirectoryFormat is used when a directory cannot be listed.
	errorReadDirectoryFormat = "reading directory %s: %w"
	// errorStatEntryFormat is used when a symbolic link target cannot be inspected.
	errorStatEntryFormat = "inspecting %s: %w"
)

// ErrRootNotDirectory is returned when the traversal root is not a directory.
var ErrRootNotDirectory = errors.New("root is not a directory")

// PathEntry is a filesystem path visited during traversal.
type PathEntry struct {
	// RelativePath is the forward-slash path relative to the root; "." for the root.
	RelativePath string
	AbsolutePath string
	Name         string
	Depth        int
	IsDir        bool
}

// TraversalOptions configures Traverse.
type TraversalOptions struct {
	Rules types.IgnoreRuleSet
	// Warn receives non-fatal problems such as unreadable subdirectories.
	Warn func(path string, err error)
}

// Traverse walks root depth-first and calls visit for every included entry.
//
// The root is visited first at depth 0 and is never subject to the rules. For
// each directory the visit order is: the directory, its files sorted by name,
// then its subdirectories sorted by name, each recursively. Directories named
// .git are pruned at every depth. Non-root entries whose relative path matches
// the rules are skipped, and skipped directories are not descended into.
// Symbolic links to directories are neither listed nor followed.
func Traverse(root string, options TraversalOptions, visit func(PathEntry) error) error {
	absoluteRoot, absolutePathError := filepath.Abs(root)
	if absolutePathError != nil {
		return fmt.Errorf(errorAbsolutePathFormat, root, absolutePathError)
	}
	absoluteRoot = filepath.Clean(absoluteRoot)

	rootInfo, statError := os.Stat(absoluteRoot)
	if statError != nil {
		return fmt.Errorf(errorStatRootFormat, root, statError)
	}
	if !rootInfo.IsDir() {
		return fmt.Errorf("%w: %s", ErrRootNotDirectory, root)
	}

	walker := traversalWalker{root: absoluteRoot, options: options, visit: visit}
	if walker.options.Warn == nil {
		walker.options.Warn = func(string, error) {}
	}
	rootEntry := PathEntry{
		RelativePath: ".",
		AbsolutePath: absoluteRoot,
		Name:         filepath.Base(absoluteRoot),
		Depth:        0,
		IsDir:        true,
	}
	return walker.walkDirectory(rootEntry)
}

type traversalWalker struct {
	root    string
	options TraversalOptions
	visit   func(PathEntry) error
}

func (walker traversalWalker) walkDirectory(directory PathEntry) error {
	if err := walker.visit(directory); err != nil {
		return err
	}

	directoryEntries, readError := os.ReadDir(directory.AbsolutePath)
	if readError != nil {
		walker.options.Warn(directory.AbsolutePath, fmt.Errorf(errorReadDirectoryFormat, directory.AbsolutePath, readError))
		return nil
	}

	var files []PathEntry
	var subdirectories []PathEntry
	for _, directoryEntry := range directoryEntries {
		childPath := filepath.Join(directory.AbsolutePath, directoryEntry.Name())
		isDirectory, classifyError := classifyEntry(childPath, directoryEntry)
		if classifyError != nil {
			walker.options.Warn(childPath, classifyError)
		}
		if isDirectory && directoryEntry.Type()&os.ModeSymlink != 0 {
			continue
		}
		if isDirectory && directoryEntry.Name() == utils.GitDirectoryName {
			continue
		}

		relativePath := utils.RelativePathOrSelf(childPath, walker.root)
		if utils.ShouldIgnore(relativePath, walker.options.Rules) {
			continue
		}

		child := PathEntry{
			RelativePath: relativePath,
			AbsolutePath: childPath,
			Name:         directoryEntry.Name(),
			Depth:        directory.Depth + 1,
			IsDir:        isDirectory,
		}
		if isDirectory {
			subdirectories = append(subdirectories, child)
		} else {
			files = append(files, child)
		}
	}

	sortEntriesByName(files)
	sortEntriesByName(subdirectories)

	for _, file := range files {
		if err := walker.visit(file); err != nil {
			return err
		}
	}
	for _, subdirectory := range subdirectories {
		if err := walker.walkDirectory(subdirectory); err != nil {
			return err
		}
	}
	return nil
}

// classifyEntry reports whether the entry is a directory, resolving symbolic
// links. A link whose target cannot be inspected is treated as a file.
func classifyEntry(path string, directoryEntry os.DirEntry) (bool, error) {
	if directoryEntry.Type()&os.ModeSymlink == 0 {
		return directoryEntry.IsDir(), nil
	}
	targetInfo, statError := os.Stat(path)
	if statError != nil {
		if os.IsNotExist(statError) {
			return false, nil
		}
		return false, fmt.Errorf(errorStatEntryFormat, path, statError)
	}
	return targetInfo.IsDir(), nil
}

func sortEntriesByName(entries []PathEntry) {
	sort.SliceStable(entries, func(left, right int) bool {
		return entries[left].Name < entries[right].Name
	})
}
