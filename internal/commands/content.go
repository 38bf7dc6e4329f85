package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/temirov/repo2txt/internal/types"
	"github.com/temirov/repo2txt/internal/utils"
)

const (
	// invalidEncodingReasonFormat describes content that is not valid UTF-8.
	invalidEncodingReasonFormat = "invalid UTF-8 byte 0x%02x at position %d"
	// sizeLimitReasonFormat describes a file rejected by ContentOptions.MaxFileBytes.
	sizeLimitReasonFormat = "file size %d exceeds limit %d"
	// notRegularFileReasonFormat describes a path that cannot be read as a file.
	notRegularFileReasonFormat = "%s is not a regular file"
)

// ContentOptions configures content extraction.
type ContentOptions struct {
	// Workers bounds the number of concurrent file reads. Values below two read sequentially.
	Workers int
	// MaxFileBytes rejects larger files with a failed result. Zero disables the limit.
	MaxFileBytes int64
	// PreserveLineEndings keeps "\r\n" and "\r" as read instead of normalizing them to "\n".
	PreserveLineEndings bool
	// Warn receives traversal problems and per-file failures. With Workers of two
	// or more it is called from several goroutines at once and must be safe for
	// concurrent use.
	Warn func(path string, err error)
}

// ExtractContents walks root with the same contract as RenderTree and reads
// every included file. The record is keyed by forward-slash relative path in
// traversal order. A file that cannot be read or decoded yields a failed
// result and never aborts the extraction; only traversal of the root itself
// and cancellation of ctx produce an error.
func ExtractContents(ctx context.Context, root string, rules types.IgnoreRuleSet, options ContentOptions) (types.FileRecord, error) {
	warn := options.Warn
	if warn == nil {
		warn = func(string, error) {}
	}

	var files []PathEntry
	traversalError := Traverse(root, TraversalOptions{Rules: rules, Warn: warn}, func(entry PathEntry) error {
		if !entry.IsDir {
			files = append(files, entry)
		}
		return ctx.Err()
	})
	if traversalError != nil {
		return types.FileRecord{}, traversalError
	}

	results := make([]types.FileResult, len(files))
	readInto := func(index int) {
		results[index] = readFileResult(files[index], options)
		if results[index].Status == types.FileStatusFailed {
			warn(files[index].AbsolutePath, errors.New(results[index].Reason))
		}
	}

	if options.Workers < 2 {
		for index := range files {
			if err := ctx.Err(); err != nil {
				return types.FileRecord{}, err
			}
			readInto(index)
		}
	} else {
		group, groupCtx := errgroup.WithContext(ctx)
		group.SetLimit(options.Workers)
		for index := range files {
			fileIndex := index
			group.Go(func() error {
				if err := groupCtx.Err(); err != nil {
					return err
				}
				readInto(fileIndex)
				return nil
			})
		}
		if err := group.Wait(); err != nil {
			return types.FileRecord{}, err
		}
		if err := ctx.Err(); err != nil {
			return types.FileRecord{}, err
		}
	}

	var record types.FileRecord
	for index, file := range files {
		record.Set(file.RelativePath, results[index])
	}
	return record, nil
}

func readFileResult(entry PathEntry, options ContentOptions) types.FileResult {
	// Any relative path naming .git is masked, dotfiles included. The absolute
	// path only counts when a whole segment is .git, as for roots inside metadata.
	if utils.ContainsGitMarker(entry.RelativePath) || utils.ContainsGitSegment(entry.AbsolutePath) {
		return types.FileResult{Status: types.FileStatusSkipped}
	}

	fileBytes, readError := readWithLimit(entry.AbsolutePath, options.MaxFileBytes)
	if readError != nil {
		return failedResult(readError.Error())
	}

	if !utf8.Valid(fileBytes) {
		return failedResult(describeInvalidEncoding(fileBytes))
	}

	content := string(fileBytes)
	if !options.PreserveLineEndings {
		content = normalizeLineEndings(content)
	}
	return types.FileResult{Status: types.FileStatusRead, Content: content}
}

// readWithLimit inspects the file before opening it so that pipes and devices
// are rejected instead of blocking the read.
//
// #nosec G304
func readWithLimit(path string, maxFileBytes int64) ([]byte, error) {
	fileInfo, statError := os.Stat(path)
	if statError != nil {
		return nil, statError
	}
	if !fileInfo.Mode().IsRegular() {
		return nil, fmt.Errorf(notRegularFileReasonFormat, path)
	}
	if maxFileBytes > 0 && fileInfo.Size() > maxFileBytes {
		return nil, fmt.Errorf(sizeLimitReasonFormat, fileInfo.Size(), maxFileBytes)
	}

	fileHandle, openError := os.Open(path)
	if openError != nil {
		return nil, openError
	}
	defer fileHandle.Close()
	return io.ReadAll(fileHandle)
}

func describeInvalidEncoding(data []byte) string {
	position := 0
	for position < len(data) {
		decodedRune, width := utf8.DecodeRune(data[position:])
		if decodedRune == utf8.RuneError && width <= 1 {
			return fmt.Sprintf(invalidEncodingReasonFormat, data[position], position)
		}
		position += width
	}
	return fmt.Sprintf(invalidEncodingReasonFormat, 0, position)
}

func normalizeLineEndings(content string) string {
	if !strings.Contains(content, "\r") {
		return content
	}
	content = strings.ReplaceAll(content, "\r\n", "\n")
	return strings.ReplaceAll(content, "\r", "\n")
}

func failedResult(reason string) types.FileResult {
	return types.FileResult{Status: types.FileStatusFailed, Reason: reason}
}
