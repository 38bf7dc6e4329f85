// Package pipeline runs a complete extraction: acquire a repository, render
// its tree, extract its files and deliver the resulting document.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/repo2txt/internal/acquire"
	"github.com/temirov/repo2txt/internal/commands"
	"github.com/temirov/repo2txt/internal/config"
	"github.com/temirov/repo2txt/internal/output"
	"github.com/temirov/repo2txt/internal/services/clipboard"
	"github.com/temirov/repo2txt/internal/tokenizer"
	"github.com/temirov/repo2txt/internal/types"
	"github.com/temirov/repo2txt/internal/utils"
)

const (
	defaultOutputSuffix = ".txt"

	errorRenderTreeFormat   = "render tree for %s: %w"
	errorExtractFormat      = "extract contents of %s: %w"
	errorWriteOutputFormat  = "write document: %w"
	errorCopyDocumentFormat = "copy document to clipboard: %w"
)

// ErrNoSource is returned when a request does not name a source.
var ErrNoSource = errors.New("source is required")

// Request describes one extraction.
type Request struct {
	// Source is a local path, a repository URL or GitHub "owner/name" shorthand.
	Source string
	Branch string
	// Method selects how remote sources are fetched: types.MethodGit or types.MethodArchive.
	Method string
	// IgnoreFile names a JSON, YAML or TOML file holding an "ignore" list.
	IgnoreFile string
	// Ignore holds additional patterns merged after those of IgnoreFile.
	Ignore []string

	// Output is the destination path, or types.StandardOutputPath for Stdout.
	// When both Output and Writer are empty the document is written to
	// "<repository name>.txt" in the working directory.
	Output string
	// Writer receives the document instead of a file when set.
	Writer io.Writer
	// Stdout is used for types.StandardOutputPath. Defaults to os.Stdout.
	Stdout io.Writer

	Workers             int
	MaxFileBytes        int64
	PreserveLineEndings bool

	// Clipboard receives a copy of the document when set.
	Clipboard clipboard.Copier
	// CountTokens logs a token estimate for TokenModel.
	CountTokens bool
	TokenModel  string

	// GitHubToken authenticates archive downloads.
	GitHubToken   string
	TempDirectory string
	// Acquirers overrides the fetch strategy per method.
	Acquirers map[string]acquire.Acquirer
	Logger    *zap.Logger
}

// Result reports what Run produced.
type Result struct {
	Document output.Document
	Source   acquire.Source
	// OutputPath is the file written, empty when the document went to a writer or standard output.
	OutputPath string
	// Failures lists files whose content was replaced by a read error placeholder.
	Failures   []types.FileEntry
	Tokens     int
	TokenModel string
}

// Run executes request. Scratch space used for remote sources is removed on
// every exit path.
func Run(ctx context.Context, request Request) (Result, error) {
	logger := request.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if request.Source == "" {
		return Result{}, ErrNoSource
	}

	source, parseError := acquire.ParseSource(request.Source)
	if parseError != nil {
		return Result{}, &acquire.AcquisitionError{Source: request.Source, Err: parseError}
	}

	rules, rulesError := config.LoadIgnoreRules(request.IgnoreFile)
	if rulesError != nil {
		return Result{}, rulesError
	}
	rules = rules.Merge(request.Ignore...)

	if source.Kind == acquire.SourceRemote {
		logger.Info("fetching repository", zap.String("source", source.URL), zap.String("method", methodOrDefault(request.Method)))
	} else {
		logger.Info("using local directory", zap.String("path", source.Path))
	}
	workspace, acquireError := acquire.Acquire(ctx, source, acquire.Options{
		Method:        request.Method,
		Branch:        request.Branch,
		TempDirectory: request.TempDirectory,
		Logger:        logger,
		Acquirers:     acquirersFor(ctx, request),
	})
	if acquireError != nil {
		return Result{}, acquireError
	}
	defer func() {
		if source.Kind == acquire.SourceRemote {
			logger.Info("cleaning up temporary files")
		}
		workspace.Close()
	}()

	warn := func(path string, err error) {
		logger.Warn("skipping unreadable path", zap.String("path", path), zap.Error(err))
	}

	logger.Info("generating directory tree", zap.Int("ignore_rules", len(rules)))
	treeBuilder := commands.TreeBuilder{Rules: rules, Warn: warn}
	tree, treeError := treeBuilder.Render(workspace.Root)
	if treeError != nil {
		return Result{}, fmt.Errorf(errorRenderTreeFormat, source.Identifier, treeError)
	}

	logger.Info("extracting file contents", zap.Int("workers", request.Workers))
	record, extractError := commands.ExtractContents(ctx, workspace.Root, rules, commands.ContentOptions{
		Workers:             request.Workers,
		MaxFileBytes:        request.MaxFileBytes,
		PreserveLineEndings: request.PreserveLineEndings,
		Warn: func(path string, err error) {
			logger.Warn("failed to read file", zap.String("path", path), zap.Error(err))
		},
	})
	if extractError != nil {
		return Result{}, fmt.Errorf(errorExtractFormat, source.Identifier, extractError)
	}

	document := output.BuildDocument(tree, record)
	result := Result{Document: document, Source: source, Failures: record.Failures()}

	outputPath, written, writeError := writeDocument(request, source, document)
	if writeError != nil {
		return Result{}, fmt.Errorf(errorWriteOutputFormat, writeError)
	}
	result.OutputPath = outputPath
	logger.Info("document written",
		zap.String("destination", destinationLabel(request, outputPath)),
		zap.Int("files", record.Len()),
		zap.Int("failed", len(result.Failures)),
		zap.Int("lines", document.Lines),
		zap.Int("characters", document.Characters),
		zap.String("size", utils.FormatByteSize(written)),
	)

	if request.Clipboard != nil {
		if copyError := request.Clipboard.Copy(document.String()); copyError != nil {
			return result, fmt.Errorf(errorCopyDocumentFormat, copyError)
		}
		logger.Info("document copied to clipboard")
	}

	if request.CountTokens {
		result.Tokens, result.TokenModel = estimateTokens(document, request.TokenModel, logger)
	}
	return result, nil
}

// DefaultOutputPath is the file name used when no destination is given. A
// remote repository name is cut at its first dot, so "octo/octo.github.io"
// writes "octo.txt". Local directories keep their full name.
func DefaultOutputPath(source acquire.Source) string {
	name := source.Name()
	if source.Kind == acquire.SourceRemote {
		if dot := strings.Index(name, "."); dot > 0 {
			name = name[:dot]
		}
	}
	return name + defaultOutputSuffix
}

func writeDocument(request Request, source acquire.Source, document output.Document) (string, int64, error) {
	if request.Output == types.StandardOutputPath {
		stdout := request.Stdout
		if stdout == nil {
			stdout = os.Stdout
		}
		written, err := document.WriteTo(stdout)
		return "", written, err
	}
	if request.Output == "" && request.Writer != nil {
		written, err := document.WriteTo(request.Writer)
		return "", written, err
	}
	outputPath := request.Output
	if outputPath == "" {
		outputPath = DefaultOutputPath(source)
	}
	written, err := output.WriteDocumentFile(outputPath, document)
	return outputPath, written, err
}

func estimateTokens(document output.Document, model string, logger *zap.Logger) (int, string) {
	counter, resolvedModel, counterError := tokenizer.NewCounter(tokenizer.Config{Model: model})
	if counterError != nil {
		logger.Warn("token estimate unavailable", zap.Error(counterError))
		return 0, ""
	}
	counted, countError := tokenizer.CountDocument(counter, document)
	if countError != nil {
		logger.Warn("token estimate failed", zap.Error(countError))
		return 0, ""
	}
	logger.Info("estimated tokens", zap.Int("tokens", counted.Tokens), zap.String("model", resolvedModel))
	return counted.Tokens, resolvedModel
}

func acquirersFor(ctx context.Context, request Request) map[string]acquire.Acquirer {
	acquirers := map[string]acquire.Acquirer{}
	if request.GitHubToken != "" {
		acquirers[types.MethodArchive] = acquire.ArchiveDownloader{Client: acquire.NewGitHubClient(ctx, request.GitHubToken)}
	}
	for method, acquirer := range request.Acquirers {
		acquirers[method] = acquirer
	}
	return acquirers
}

func methodOrDefault(method string) string {
	if method == "" {
		return types.MethodGit
	}
	return method
}

func destinationLabel(request Request, outputPath string) string {
	switch {
	case outputPath != "":
		return outputPath
	case request.Output == types.StandardOutputPath:
		return "stdout"
	default:
		return "writer"
	}
}
