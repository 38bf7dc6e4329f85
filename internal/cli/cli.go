// Package cli provides the command line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/repo2txt/internal/acquire"
	"github.com/temirov/repo2txt/internal/config"
	"github.com/temirov/repo2txt/internal/services/clipboard"
	"github.com/temirov/repo2txt/internal/utils"
)

const (
	configFlagName        = "config"
	configFlagDescription = "path to a configuration file (default ./" + utils.ConfigFileName + ")"
	gitHubTokenVariable   = "GITHUB_TOKEN"
	rootUse               = "repo2txt"
	rootShortDescription  = "flatten a repository into one text document"
	rootLongDescription   = `repo2txt fetches a repository, or reads a local directory, and writes a single
text document holding its directory tree followed by the contents of every file.
Use extract to produce a document, serve to expose extraction over HTTP, and init
to write a default configuration file.`
	configurationLoadErrorFormat = "load configuration: %w"
)

// Dependencies carries the collaborators of the command tree.
type Dependencies struct {
	Logger    *zap.Logger
	Clipboard clipboard.Copier
	Stdout    io.Writer
	// WorkingDirectory locates the local configuration file. Defaults to the process working directory.
	WorkingDirectory string
	GitHubToken      string
	// Acquirers overrides fetch strategies per method.
	Acquirers map[string]acquire.Acquirer
}

// Execute runs the repo2txt application.
func Execute(ctx context.Context, logger *zap.Logger) error {
	rootCommand := NewRootCommand(Dependencies{
		Logger:      logger,
		Clipboard:   clipboard.NewService(),
		Stdout:      os.Stdout,
		GitHubToken: os.Getenv(gitHubTokenVariable),
	})
	rootCommand.SetArgs(normalizeToggleArguments(rootCommand, os.Args[1:], pathExistsOnDisk))
	return fang.Execute(ctx, rootCommand, fang.WithVersion(utils.GetApplicationVersion()))
}

// commandState is shared by the subcommands of one root command.
type commandState struct {
	dependencies  Dependencies
	configPath    string
	configuration config.ApplicationConfiguration
}

// NewRootCommand builds the root Cobra command.
func NewRootCommand(dependencies Dependencies) *cobra.Command {
	if dependencies.Logger == nil {
		dependencies.Logger = zap.NewNop()
	}
	if dependencies.Stdout == nil {
		dependencies.Stdout = os.Stdout
	}
	state := &commandState{dependencies: dependencies}

	rootCommand := &cobra.Command{
		Use:          rootUse,
		Short:        rootShortDescription,
		Long:         rootLongDescription,
		SilenceUsage: true,
		RunE: func(command *cobra.Command, arguments []string) error {
			return command.Help()
		},
		PersistentPreRunE: func(command *cobra.Command, arguments []string) error {
			if command.Name() == initUse {
				return nil
			}
			loaded, loadErr := config.LoadApplicationConfiguration(config.LoadOptions{
				WorkingDirectory: state.dependencies.WorkingDirectory,
				ExplicitFilePath: state.configPath,
			})
			if loadErr != nil {
				return fmt.Errorf(configurationLoadErrorFormat, loadErr)
			}
			state.configuration = loaded
			return nil
		},
	}
	rootCommand.PersistentFlags().StringVar(&state.configPath, configFlagName, "", configFlagDescription)
	rootCommand.SetOut(dependencies.Stdout)
	rootCommand.AddCommand(
		createExtractCommand(state),
		createServeCommand(state),
		createInitCommand(state),
	)
	return rootCommand
}
