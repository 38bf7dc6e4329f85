package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/temirov/repo2txt/internal/config"
	"github.com/temirov/repo2txt/internal/types"
	"github.com/temirov/repo2txt/internal/utils"
)

const (
	initUse              = types.CommandInit
	initShortDescription = "write a default configuration file"
	initLongDescription  = `Write the default configuration to ./` + utils.ConfigFileName + `, or to the global
configuration directory with --global. Existing files are kept unless --force is given.`
	globalFlagName             = "global"
	globalFlagDescription      = "write to the global configuration directory"
	forceFlagName              = "force"
	forceFlagDescription       = "overwrite an existing configuration file"
	configurationWrittenFormat = "configuration written to %s\n"
)

func createInitCommand(state *commandState) *cobra.Command {
	var global bool
	var force bool

	initCommand := &cobra.Command{
		Use:   initUse,
		Short: initShortDescription,
		Long:  initLongDescription,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			target := config.InitTargetLocal
			if global {
				target = config.InitTargetGlobal
			}
			writtenPath, initErr := config.InitializeConfiguration(config.InitOptions{
				Target:           target,
				Force:            force,
				WorkingDirectory: state.dependencies.WorkingDirectory,
			})
			if initErr != nil {
				return initErr
			}
			_, printErr := fmt.Fprintf(command.OutOrStdout(), configurationWrittenFormat, writtenPath)
			return printErr
		},
	}
	registerToggleFlag(initCommand.Flags(), &global, globalFlagName, globalFlagDescription)
	registerToggleFlag(initCommand.Flags(), &force, forceFlagName, forceFlagDescription)
	return initCommand
}
