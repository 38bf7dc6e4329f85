package commands_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/temirov/repo2txt/internal/commands"
	"github.com/temirov/repo2txt/internal/types"
)

const (
	projectDirectoryName = "proj"
	readmeFileName       = "README.md"
	readmeContent        = "hello"
	sourceDirectoryName  = "src"
	mainFileName         = "main.go"
	mainFileContent      = "package main\n"
	logFileName          = "debug.log"
	modulesDirectoryName = "node_modules"
	gitDirectoryName     = ".git"
	gitHeadFileName      = "HEAD"
)

// writeTestFile creates parent directories and writes content, failing the test on error.
func writeTestFile(testingHandle *testing.T, filePath string, content string) {
	testingHandle.Helper()
	if makeDirError := os.MkdirAll(filepath.Dir(filePath), 0o755); makeDirError != nil {
		testingHandle.Fatalf("mkdir %s: %v", filepath.Dir(filePath), makeDirError)
	}
	if writeError := os.WriteFile(filePath, []byte(content), 0o644); writeError != nil {
		testingHandle.Fatalf("write %s: %v", filePath, writeError)
	}
}

// createProject builds a small repository layout and returns its root.
func createProject(testingHandle *testing.T) string {
	testingHandle.Helper()
	rootDirectory := filepath.Join(testingHandle.TempDir(), projectDirectoryName)
	writeTestFile(testingHandle, filepath.Join(rootDirectory, readmeFileName), readmeContent)
	writeTestFile(testingHandle, filepath.Join(rootDirectory, logFileName), "trace\n")
	writeTestFile(testingHandle, filepath.Join(rootDirectory, sourceDirectoryName, mainFileName), mainFileContent)
	writeTestFile(testingHandle, filepath.Join(rootDirectory, modulesDirectoryName, "lib", "index.js"), "module.exports = {}\n")
	writeTestFile(testingHandle, filepath.Join(rootDirectory, gitDirectoryName, gitHeadFileName), "ref: refs/heads/main\n")
	return rootDirectory
}

// treeFilePaths reconstructs relative file paths from a rendered tree.
func treeFilePaths(testingHandle *testing.T, tree string) []string {
	testingHandle.Helper()
	var directoryStack []string
	var filePaths []string
	for lineIndex, line := range strings.Split(tree, "\n") {
		trimmed := strings.TrimLeft(line, " ")
		depth := (len(line) - len(trimmed)) / 4
		name := strings.TrimPrefix(trimmed, "├── ")
		if lineIndex == 0 {
			continue
		}
		if len(directoryStack) > depth-1 {
			directoryStack = directoryStack[:depth-1]
		}
		if strings.HasSuffix(name, "/") {
			directoryStack = append(directoryStack, strings.TrimSuffix(name, "/"))
			continue
		}
		filePaths = append(filePaths, strings.Join(append(append([]string{}, directoryStack...), name), "/"))
	}
	return filePaths
}

func TestRenderTreeLayout(testingHandle *testing.T) {
	rootDirectory := createProject(testingHandle)

	tree, renderError := commands.RenderTree(rootDirectory, types.NewIgnoreRuleSet("*.log", modulesDirectoryName))
	if renderError != nil {
		testingHandle.Fatalf("RenderTree error: %v", renderError)
	}

	expectedTree := strings.Join([]string{
		"├── proj/",
		"    ├── README.md",
		"    ├── src/",
		"        ├── main.go",
	}, "\n")
	if tree != expectedTree {
		testingHandle.Fatalf("unexpected tree:\n%s\nwant:\n%s", tree, expectedTree)
	}
}

func TestRenderTreeWithoutRulesKeepsEverythingButGit(testingHandle *testing.T) {
	rootDirectory := createProject(testingHandle)

	tree, renderError := commands.RenderTree(rootDirectory, nil)
	if renderError != nil {
		testingHandle.Fatalf("RenderTree error: %v", renderError)
	}

	expectedTree := strings.Join([]string{
		"├── proj/",
		"    ├── README.md",
		"    ├── debug.log",
		"    ├── node_modules/",
		"        ├── lib/",
		"            ├── index.js",
		"    ├── src/",
		"        ├── main.go",
	}, "\n")
	if tree != expectedTree {
		testingHandle.Fatalf("unexpected tree:\n%s\nwant:\n%s", tree, expectedTree)
	}
	if strings.Contains(tree, gitDirectoryName) || strings.Contains(tree, gitHeadFileName) {
		testingHandle.Fatalf("tree must not mention git metadata:\n%s", tree)
	}
}

func TestRenderTreeKeepsEmptyDirectoriesAndGitLookalikes(testingHandle *testing.T) {
	rootDirectory := filepath.Join(testingHandle.TempDir(), projectDirectoryName)
	writeTestFile(testingHandle, filepath.Join(rootDirectory, ".gitignore"), "*.log\n")
	writeTestFile(testingHandle, filepath.Join(rootDirectory, ".github", "ci.yml"), "on: push\n")
	if makeDirError := os.MkdirAll(filepath.Join(rootDirectory, "empty"), 0o755); makeDirError != nil {
		testingHandle.Fatalf("mkdir: %v", makeDirError)
	}

	tree, renderError := commands.RenderTree(rootDirectory, nil)
	if renderError != nil {
		testingHandle.Fatalf("RenderTree error: %v", renderError)
	}
	expectedTree := strings.Join([]string{
		"├── proj/",
		"    ├── .gitignore",
		"    ├── .github/",
		"        ├── ci.yml",
		"    ├── empty/",
	}, "\n")
	if tree != expectedTree {
		testingHandle.Fatalf("unexpected tree:\n%s\nwant:\n%s", tree, expectedTree)
	}
}

func TestRenderTreeRejectsMissingRoot(testingHandle *testing.T) {
	_, renderError := commands.RenderTree(filepath.Join(testingHandle.TempDir(), "missing"), nil)
	if renderError == nil {
		testingHandle.Fatalf("expected error for missing root")
	}

	filePath := filepath.Join(testingHandle.TempDir(), "file.txt")
	writeTestFile(testingHandle, filePath, "x")
	_, renderError = commands.RenderTree(filePath, nil)
	if !errors.Is(renderError, commands.ErrRootNotDirectory) {
		testingHandle.Fatalf("expected ErrRootNotDirectory, got %v", renderError)
	}
}

func TestRenderTreeSkipsDirectorySymlinks(testingHandle *testing.T) {
	rootDirectory := filepath.Join(testingHandle.TempDir(), projectDirectoryName)
	writeTestFile(testingHandle, filepath.Join(rootDirectory, "real", "file.txt"), "x")
	if linkError := os.Symlink(filepath.Join(rootDirectory, "real"), filepath.Join(rootDirectory, "alias")); linkError != nil {
		testingHandle.Skipf("symlinks unavailable: %v", linkError)
	}

	tree, renderError := commands.RenderTree(rootDirectory, nil)
	if renderError != nil {
		testingHandle.Fatalf("RenderTree error: %v", renderError)
	}
	if strings.Contains(tree, "alias") {
		testingHandle.Fatalf("directory symlink must not be listed:\n%s", tree)
	}
}

func TestExtractContentsMatchesTree(testingHandle *testing.T) {
	rootDirectory := createProject(testingHandle)
	ruleSets := []types.IgnoreRuleSet{
		nil,
		types.NewIgnoreRuleSet("*.log"),
		types.NewIgnoreRuleSet(modulesDirectoryName),
		types.NewIgnoreRuleSet("*.md", "src"),
	}

	for _, rules := range ruleSets {
		tree, renderError := commands.RenderTree(rootDirectory, rules)
		if renderError != nil {
			testingHandle.Fatalf("RenderTree error: %v", renderError)
		}
		record, extractError := commands.ExtractContents(context.Background(), rootDirectory, rules, commands.ContentOptions{})
		if extractError != nil {
			testingHandle.Fatalf("ExtractContents error: %v", extractError)
		}

		treePaths := treeFilePaths(testingHandle, tree)
		recordPaths := record.Paths()
		sort.Strings(treePaths)
		sort.Strings(recordPaths)
		if !reflect.DeepEqual(treePaths, recordPaths) {
			testingHandle.Fatalf("rules %v: tree files %v differ from record keys %v", rules, treePaths, recordPaths)
		}
	}
}

func TestExtractContentsReadsInTraversalOrder(testingHandle *testing.T) {
	rootDirectory := createProject(testingHandle)

	record, extractError := commands.ExtractContents(context.Background(), rootDirectory, nil, commands.ContentOptions{})
	if extractError != nil {
		testingHandle.Fatalf("ExtractContents error: %v", extractError)
	}

	expectedPaths := []string{readmeFileName, logFileName, "node_modules/lib/index.js", "src/main.go"}
	if !reflect.DeepEqual(record.Paths(), expectedPaths) {
		testingHandle.Fatalf("unexpected order %v, want %v", record.Paths(), expectedPaths)
	}
	readme, found := record.Get(readmeFileName)
	if !found || readme.Status != types.FileStatusRead || readme.Text() != readmeContent {
		testingHandle.Fatalf("unexpected README result: %+v", readme)
	}
}

func TestExtractContentsToleratesUndecodableFiles(testingHandle *testing.T) {
	rootDirectory := filepath.Join(testingHandle.TempDir(), projectDirectoryName)
	writeTestFile(testingHandle, filepath.Join(rootDirectory, "a.bin"), "\xff\xfe\x00")
	writeTestFile(testingHandle, filepath.Join(rootDirectory, "b.txt"), "after")

	var warnedPaths []string
	record, extractError := commands.ExtractContents(context.Background(), rootDirectory, nil, commands.ContentOptions{
		Warn: func(path string, err error) { warnedPaths = append(warnedPaths, filepath.Base(path)) },
	})
	if extractError != nil {
		testingHandle.Fatalf("ExtractContents error: %v", extractError)
	}

	binaryResult, _ := record.Get("a.bin")
	if binaryResult.Status != types.FileStatusFailed {
		testingHandle.Fatalf("expected failed status, got %+v", binaryResult)
	}
	if !strings.HasPrefix(binaryResult.Text(), "[Error reading file:") {
		testingHandle.Fatalf("unexpected placeholder %q", binaryResult.Text())
	}
	textResult, _ := record.Get("b.txt")
	if textResult.Text() != "after" {
		testingHandle.Fatalf("subsequent file not extracted: %+v", textResult)
	}
	if !reflect.DeepEqual(warnedPaths, []string{"a.bin"}) {
		testingHandle.Fatalf("unexpected warnings %v", warnedPaths)
	}
}

func TestExtractContentsPlaceholderTextIsDistinguishable(testingHandle *testing.T) {
	rootDirectory := filepath.Join(testingHandle.TempDir(), projectDirectoryName)
	writeTestFile(testingHandle, filepath.Join(rootDirectory, "note.txt"), "[Error reading file: not really]")

	record, extractError := commands.ExtractContents(context.Background(), rootDirectory, nil, commands.ContentOptions{})
	if extractError != nil {
		testingHandle.Fatalf("ExtractContents error: %v", extractError)
	}
	result, _ := record.Get("note.txt")
	if result.Status != types.FileStatusRead {
		testingHandle.Fatalf("bracketed content must stay a successful read, got %+v", result)
	}
	if len(record.Failures()) != 0 {
		testingHandle.Fatalf("unexpected failures %+v", record.Failures())
	}
}

func TestExtractContentsLineEndings(testingHandle *testing.T) {
	rootDirectory := filepath.Join(testingHandle.TempDir(), projectDirectoryName)
	writeTestFile(testingHandle, filepath.Join(rootDirectory, "crlf.txt"), "one\r\ntwo\rthree\n")

	testCases := []struct {
		name     string
		preserve bool
		expected string
	}{
		{name: "normalized", preserve: false, expected: "one\ntwo\nthree\n"},
		{name: "preserved", preserve: true, expected: "one\r\ntwo\rthree\n"},
	}
	for _, testCase := range testCases {
		testingHandle.Run(testCase.name, func(testingHandle *testing.T) {
			record, extractError := commands.ExtractContents(context.Background(), rootDirectory, nil, commands.ContentOptions{PreserveLineEndings: testCase.preserve})
			if extractError != nil {
				testingHandle.Fatalf("ExtractContents error: %v", extractError)
			}
			result, _ := record.Get("crlf.txt")
			if result.Content != testCase.expected {
				testingHandle.Fatalf("got %q want %q", result.Content, testCase.expected)
			}
		})
	}
}

func TestExtractContentsSizeLimit(testingHandle *testing.T) {
	rootDirectory := filepath.Join(testingHandle.TempDir(), projectDirectoryName)
	writeTestFile(testingHandle, filepath.Join(rootDirectory, "big.txt"), strings.Repeat("x", 64))
	writeTestFile(testingHandle, filepath.Join(rootDirectory, "small.txt"), "ok")

	record, extractError := commands.ExtractContents(context.Background(), rootDirectory, nil, commands.ContentOptions{MaxFileBytes: 16})
	if extractError != nil {
		testingHandle.Fatalf("ExtractContents error: %v", extractError)
	}
	bigResult, _ := record.Get("big.txt")
	if bigResult.Text() != "[Error reading file: file size 64 exceeds limit 16]" {
		testingHandle.Fatalf("unexpected big result %q", bigResult.Text())
	}
	smallResult, _ := record.Get("small.txt")
	if smallResult.Text() != "ok" {
		testingHandle.Fatalf("unexpected small result %q", smallResult.Text())
	}
}

func TestExtractContentsParallelKeepsOrder(testingHandle *testing.T) {
	rootDirectory := filepath.Join(testingHandle.TempDir(), projectDirectoryName)
	for index := 0; index < 40; index++ {
		name := filepath.Join(rootDirectory, string(rune('a'+index%26)), strings.Repeat("f", index%5+1)+".txt")
		writeTestFile(testingHandle, name, strings.Repeat("line\n", index))
	}

	sequential, sequentialError := commands.ExtractContents(context.Background(), rootDirectory, nil, commands.ContentOptions{Workers: 1})
	if sequentialError != nil {
		testingHandle.Fatalf("sequential error: %v", sequentialError)
	}
	parallel, parallelError := commands.ExtractContents(context.Background(), rootDirectory, nil, commands.ContentOptions{Workers: 8})
	if parallelError != nil {
		testingHandle.Fatalf("parallel error: %v", parallelError)
	}
	if !reflect.DeepEqual(sequential.Entries(), parallel.Entries()) {
		testingHandle.Fatalf("parallel extraction changed the record")
	}
}

func TestExtractContentsWarnsFromConcurrentWorkers(testingHandle *testing.T) {
	rootDirectory := filepath.Join(testingHandle.TempDir(), projectDirectoryName)
	var expectedPaths []string
	for index := 0; index < 12; index++ {
		name := fmt.Sprintf("blob%02d.bin", index)
		writeTestFile(testingHandle, filepath.Join(rootDirectory, name), "\xff\xfe")
		expectedPaths = append(expectedPaths, name)
	}

	var warnedMutex sync.Mutex
	var warnedPaths []string
	record, extractError := commands.ExtractContents(context.Background(), rootDirectory, nil, commands.ContentOptions{
		Workers: 4,
		Warn: func(path string, err error) {
			warnedMutex.Lock()
			defer warnedMutex.Unlock()
			warnedPaths = append(warnedPaths, filepath.Base(path))
		},
	})
	if extractError != nil {
		testingHandle.Fatalf("ExtractContents error: %v", extractError)
	}
	sort.Strings(warnedPaths)
	if !reflect.DeepEqual(warnedPaths, expectedPaths) {
		testingHandle.Fatalf("unexpected warnings %v", warnedPaths)
	}
	if len(record.Failures()) != len(expectedPaths) {
		testingHandle.Fatalf("expected %d failures, got %d", len(expectedPaths), len(record.Failures()))
	}
}

func TestExtractContentsSkipsRootsInsideGitMetadata(testingHandle *testing.T) {
	rootDirectory := filepath.Join(testingHandle.TempDir(), gitDirectoryName, "refs")
	writeTestFile(testingHandle, filepath.Join(rootDirectory, "main"), "abc\n")

	record, extractError := commands.ExtractContents(context.Background(), rootDirectory, nil, commands.ContentOptions{})
	if extractError != nil {
		testingHandle.Fatalf("ExtractContents error: %v", extractError)
	}
	result, found := record.Get("main")
	if !found || result.Status != types.FileStatusSkipped || result.Text() != types.IgnoredGitPlaceholder {
		testingHandle.Fatalf("unexpected result %+v", result)
	}
}

func TestExtractContentsMasksGitNamedFiles(testingHandle *testing.T) {
	rootDirectory := filepath.Join(testingHandle.TempDir(), projectDirectoryName)
	writeTestFile(testingHandle, filepath.Join(rootDirectory, ".gitignore"), "*.log\n")
	writeTestFile(testingHandle, filepath.Join(rootDirectory, ".github", "ci.yml"), "on: push\n")
	writeTestFile(testingHandle, filepath.Join(rootDirectory, "sub", gitDirectoryName, gitHeadFileName), "ref: refs/heads/main\n")
	writeTestFile(testingHandle, filepath.Join(rootDirectory, "sub", "git-notes.md"), "notes\n")

	record, extractError := commands.ExtractContents(context.Background(), rootDirectory, nil, commands.ContentOptions{})
	if extractError != nil {
		testingHandle.Fatalf("ExtractContents error: %v", extractError)
	}

	expectedPaths := []string{".gitignore", ".github/ci.yml", "sub/git-notes.md"}
	if !reflect.DeepEqual(record.Paths(), expectedPaths) {
		testingHandle.Fatalf("unexpected paths %v, want %v", record.Paths(), expectedPaths)
	}
	for _, maskedPath := range []string{".gitignore", ".github/ci.yml"} {
		result, _ := record.Get(maskedPath)
		if result.Status != types.FileStatusSkipped || result.Text() != types.IgnoredGitPlaceholder {
			testingHandle.Fatalf("%s: expected git placeholder, got %+v", maskedPath, result)
		}
	}
	notes, _ := record.Get("sub/git-notes.md")
	if notes.Status != types.FileStatusRead || notes.Text() != "notes\n" {
		testingHandle.Fatalf("unexpected result for sub/git-notes.md: %+v", notes)
	}
}

func TestExtractContentsHonorsCancellation(testingHandle *testing.T) {
	rootDirectory := createProject(testingHandle)
	cancelledContext, cancel := context.WithCancel(context.Background())
	cancel()

	_, extractError := commands.ExtractContents(cancelledContext, rootDirectory, nil, commands.ContentOptions{Workers: 4})
	if !errors.Is(extractError, context.Canceled) {
		testingHandle.Fatalf("expected context.Canceled, got %v", extractError)
	}
}
