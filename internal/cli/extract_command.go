package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/repo2txt/internal/config"
	"github.com/temirov/repo2txt/internal/pipeline"
	"github.com/temirov/repo2txt/internal/types"
)

const (
	extractUse              = types.CommandExtract + " <source>"
	extractAlias            = "x"
	extractShortDescription = "write a repository as one text document (" + extractAlias + ")"
	extractLongDescription  = `Fetch a repository and write its directory tree and file contents to a text file.
The source is a local directory, a git URL (https, ssh, git@host:path, file) or
GitHub shorthand such as owner/name. The document is written to <name>.txt unless
--output is given; use --output - for standard output.`
	extractUsageExample = `  # Clone a GitHub repository and write hello.txt
  repo2txt extract octo/hello

  # Use a branch, download the archive instead of cloning, print to stdout
  repo2txt x https://github.com/octo/hello --branch dev --method archive -o -

  # Skip dependencies and logs in a local checkout
  repo2txt extract . -i node_modules -i "*.log" --ignore-file ignore.json`

	branchFlagName              = "branch"
	outputFlagName              = "output"
	outputFlagShorthand         = "o"
	ignoreFileFlagName          = "ignore-file"
	ignoreFlagName              = "ignore"
	ignoreFlagShorthand         = "i"
	methodFlagName              = "method"
	workersFlagName             = "workers"
	maxFileBytesFlagName        = "max-file-bytes"
	preserveLineEndingsFlagName = "preserve-line-endings"
	copyFlagName                = "copy"
	tokensFlagName              = "tokens"
	modelFlagName               = "model"

	branchFlagDescription              = "branch or tag to fetch (default: the repository's default branch)"
	outputFlagDescription              = "output file path, or - for standard output"
	ignoreFileFlagDescription          = "JSON, YAML or TOML file with an ignore list"
	ignoreFlagDescription              = "ignore pattern: *.ext matches a suffix, anything else a substring (repeatable)"
	methodFlagDescription              = "how to fetch remote sources: git or archive"
	workersFlagDescription             = "number of files read concurrently"
	maxFileBytesFlagDescription        = "replace files larger than this many bytes with an error placeholder (0 disables)"
	preserveLineEndingsFlagDescription = "keep CRLF and CR line endings instead of converting them to LF"
	copyFlagDescription                = "copy the document to the clipboard"
	tokensFlagDescription              = "log an estimated token count of the document"
	modelFlagDescription               = "tokenizer model used for the token estimate"

	invalidMethodMessageFormat  = "invalid method %q: expected %s or %s"
	invalidWorkersMessageFormat = "invalid workers value %d: must be positive"
	invalidSizeMessageFormat    = "invalid max-file-bytes value %d: must not be negative"
)

type extractOptions struct {
	branch              string
	output              string
	ignoreFile          string
	ignorePatterns      []string
	method              string
	workers             int
	maxFileBytes        int64
	preserveLineEndings bool
	copyToClipboard     bool
	tokensEnabled       bool
	tokenModel          string
}

func createExtractCommand(state *commandState) *cobra.Command {
	var options extractOptions

	extractCommand := &cobra.Command{
		Use:     extractUse,
		Aliases: []string{extractAlias},
		Short:   extractShortDescription,
		Long:    extractLongDescription,
		Example: extractUsageExample,
		Args:    cobra.ExactArgs(1),
		RunE: func(command *cobra.Command, arguments []string) error {
			resolved := resolveExtractOptions(command, options, state.configuration.Extract)
			if err := validateExtractOptions(resolved); err != nil {
				return err
			}
			request := pipeline.Request{
				Source:              arguments[0],
				Branch:              resolved.branch,
				Method:              resolved.method,
				IgnoreFile:          resolved.ignoreFile,
				Ignore:              resolved.ignorePatterns,
				Output:              resolved.output,
				Stdout:              command.OutOrStdout(),
				Workers:             resolved.workers,
				MaxFileBytes:        resolved.maxFileBytes,
				PreserveLineEndings: resolved.preserveLineEndings,
				CountTokens:         resolved.tokensEnabled,
				TokenModel:          resolved.tokenModel,
				GitHubToken:         state.dependencies.GitHubToken,
				Acquirers:           state.dependencies.Acquirers,
				Logger:              state.dependencies.Logger,
			}
			if resolved.copyToClipboard {
				request.Clipboard = state.dependencies.Clipboard
			}
			result, runErr := pipeline.Run(command.Context(), request)
			if runErr != nil {
				return runErr
			}
			if result.OutputPath != "" {
				state.dependencies.Logger.Info("extraction complete", zap.String("output", result.OutputPath))
			}
			return nil
		},
	}

	flagSet := extractCommand.Flags()
	flagSet.StringVar(&options.branch, branchFlagName, "", branchFlagDescription)
	flagSet.StringVarP(&options.output, outputFlagName, outputFlagShorthand, "", outputFlagDescription)
	flagSet.StringVar(&options.ignoreFile, ignoreFileFlagName, "", ignoreFileFlagDescription)
	flagSet.StringArrayVarP(&options.ignorePatterns, ignoreFlagName, ignoreFlagShorthand, nil, ignoreFlagDescription)
	flagSet.StringVar(&options.method, methodFlagName, types.MethodGit, methodFlagDescription)
	flagSet.IntVar(&options.workers, workersFlagName, config.DefaultWorkers, workersFlagDescription)
	flagSet.Int64Var(&options.maxFileBytes, maxFileBytesFlagName, 0, maxFileBytesFlagDescription)
	registerToggleFlag(flagSet, &options.preserveLineEndings, preserveLineEndingsFlagName, preserveLineEndingsFlagDescription)
	registerToggleFlag(flagSet, &options.copyToClipboard, copyFlagName, copyFlagDescription)
	registerToggleFlag(flagSet, &options.tokensEnabled, tokensFlagName, tokensFlagDescription)
	flagSet.StringVar(&options.tokenModel, modelFlagName, config.DefaultTokenModel, modelFlagDescription)
	return extractCommand
}

// resolveExtractOptions layers explicitly set flags over configuration values
// over flag defaults. Ignore patterns from configuration and flags are combined.
func resolveExtractOptions(command *cobra.Command, flags extractOptions, configuration config.ExtractConfiguration) extractOptions {
	resolved := flags
	changed := command.Flags().Changed

	if !changed(branchFlagName) && configuration.Branch != "" {
		resolved.branch = configuration.Branch
	}
	if !changed(outputFlagName) && configuration.Output != "" {
		resolved.output = configuration.Output
	}
	if !changed(ignoreFileFlagName) && configuration.IgnoreFile != "" {
		resolved.ignoreFile = configuration.IgnoreFile
	}
	if !changed(methodFlagName) && configuration.Method != "" {
		resolved.method = configuration.Method
	}
	if !changed(workersFlagName) && configuration.Workers != nil {
		resolved.workers = *configuration.Workers
	}
	if !changed(maxFileBytesFlagName) && configuration.MaxFileBytes != nil {
		resolved.maxFileBytes = *configuration.MaxFileBytes
	}
	if !changed(preserveLineEndingsFlagName) && configuration.PreserveLineEndings != nil {
		resolved.preserveLineEndings = *configuration.PreserveLineEndings
	}
	if !changed(copyFlagName) && configuration.Clipboard != nil {
		resolved.copyToClipboard = *configuration.Clipboard
	}
	if !changed(tokensFlagName) && configuration.Tokens.Enabled != nil {
		resolved.tokensEnabled = *configuration.Tokens.Enabled
	}
	if !changed(modelFlagName) && configuration.Tokens.Model != "" {
		resolved.tokenModel = configuration.Tokens.Model
	}
	resolved.ignorePatterns = append(append([]string{}, configuration.Ignore...), flags.ignorePatterns...)
	resolved.method = strings.ToLower(strings.TrimSpace(resolved.method))
	return resolved
}

func validateExtractOptions(options extractOptions) error {
	if options.method != types.MethodGit && options.method != types.MethodArchive {
		return fmt.Errorf(invalidMethodMessageFormat, options.method, types.MethodGit, types.MethodArchive)
	}
	if options.workers < 1 {
		return fmt.Errorf(invalidWorkersMessageFormat, options.workers)
	}
	if options.maxFileBytes < 0 {
		return fmt.Errorf(invalidSizeMessageFormat, options.maxFileBytes)
	}
	return nil
}
