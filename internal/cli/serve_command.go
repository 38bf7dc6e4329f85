package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/repo2txt/internal/config"
	"github.com/temirov/repo2txt/internal/services/commandserver"
	"github.com/temirov/repo2txt/internal/types"
)

const (
	serveUse              = types.CommandServe
	serveShortDescription = "serve extraction over HTTP"
	serveLongDescription  = `Start an HTTP server exposing extraction as a JSON command.
GET /capabilities lists the available commands. POST /commands/extract accepts
{"source": "...", "branch": "...", "method": "...", "ignore": [...], "ignoreFile": "..."}
and responds with the document in the output field.`
	serveUsageExample = `  repo2txt serve --address 127.0.0.1:8780
  curl -s -X POST localhost:8780/commands/extract -d '{"source":"octo/hello"}'`

	addressFlagName          = "address"
	addressFlagDescription   = "host:port to listen on"
	serverListeningFormat    = "repo2txt server listening on http://%s\n"
	extractCapabilityDetails = "flatten a repository into one text document"
)

func createServeCommand(state *commandState) *cobra.Command {
	var address string

	serveCommand := &cobra.Command{
		Use:     serveUse,
		Short:   serveShortDescription,
		Long:    serveLongDescription,
		Example: serveUsageExample,
		Args:    cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			if !command.Flags().Changed(addressFlagName) && state.configuration.Serve.Address != "" {
				address = state.configuration.Serve.Address
			}
			logger := state.dependencies.Logger
			server := commandserver.NewServer(commandserver.Config{
				Address: address,
				Capabilities: []commandserver.Capability{
					{Name: types.CommandExtract, Description: extractCapabilityDetails},
				},
				Executors: map[string]commandserver.CommandExecutor{
					types.CommandExtract: newExtractExecutor(state),
				},
				Logger: logger,
			})
			output := command.OutOrStdout()
			return server.Run(command.Context(), func(boundAddress string) {
				logger.Info("server started", zap.String("address", boundAddress))
				fmt.Fprintf(output, serverListeningFormat, boundAddress)
			})
		},
	}
	serveCommand.Flags().StringVar(&address, addressFlagName, config.DefaultServeAddress, addressFlagDescription)
	return serveCommand
}
