package types

import "fmt"

// FileStatus tags the outcome of reading one file.
type FileStatus string

const (
	// FileStatusRead marks a file whose content was decoded successfully.
	FileStatusRead FileStatus = "read"
	// FileStatusFailed marks a file that could not be read or decoded.
	FileStatusFailed FileStatus = "failed"
	// FileStatusSkipped marks a file inside version-control metadata.
	FileStatusSkipped FileStatus = "skipped"

	readErrorPlaceholderFormat = "[Error reading file: %s]"
	// IgnoredGitPlaceholder replaces the content of files under the .git directory.
	IgnoredGitPlaceholder = "[Ignored .git directory]"
)

// FileResult is the tagged outcome of reading a single file.
type FileResult struct {
	Status  FileStatus `json:"status"`
	Content string     `json:"content,omitempty"`
	Reason  string     `json:"reason,omitempty"`
}

// Text renders the result as it appears in an output document.
func (result FileResult) Text() string {
	switch result.Status {
	case FileStatusFailed:
		return fmt.Sprintf(readErrorPlaceholderFormat, result.Reason)
	case FileStatusSkipped:
		return IgnoredGitPlaceholder
	default:
		return result.Content
	}
}

// FileEntry pairs a root-relative, forward-slash path with its result.
type FileEntry struct {
	Path   string     `json:"path"`
	Result FileResult `json:"result"`
}

// FileRecord holds file results in traversal order, keyed by relative path.
// The zero value is empty and ready to use.
type FileRecord struct {
	entries []FileEntry
	index   map[string]int
}

// Set stores result under path. A path that is already present keeps its
// original position and has its result replaced.
func (record *FileRecord) Set(path string, result FileResult) {
	if record.index == nil {
		record.index = make(map[string]int)
	}
	if position, exists := record.index[path]; exists {
		record.entries[position].Result = result
		return
	}
	record.index[path] = len(record.entries)
	record.entries = append(record.entries, FileEntry{Path: path, Result: result})
}

// Get returns the result stored for path.
func (record *FileRecord) Get(path string) (FileResult, bool) {
	position, exists := record.index[path]
	if !exists {
		return FileResult{}, false
	}
	return record.entries[position].Result, true
}

// Len reports the number of entries.
func (record *FileRecord) Len() int {
	return len(record.entries)
}

// Entries returns a copy of the entries in insertion order.
func (record *FileRecord) Entries() []FileEntry {
	return append([]FileEntry(nil), record.entries...)
}

// Paths returns the keys in insertion order.
func (record *FileRecord) Paths() []string {
	paths := make([]string, 0, len(record.entries))
	for _, entry := range record.entries {
		paths = append(paths, entry.Path)
	}
	return paths
}

// Failures returns the entries whose read failed.
func (record *FileRecord) Failures() []FileEntry {
	var failures []FileEntry
	for _, entry := range record.entries {
		if entry.Result.Status == FileStatusFailed {
			failures = append(failures, entry)
		}
	}
	return failures
}
