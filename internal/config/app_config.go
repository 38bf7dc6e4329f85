package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/temirov/repo2txt/internal/types"
	"github.com/temirov/repo2txt/internal/utils"
)

const (
	// DefaultTokenModel is the model used for token estimates when none is configured.
	DefaultTokenModel = "gpt-4o"
	// DefaultServeAddress is the listen address of the HTTP command service.
	DefaultServeAddress = "127.0.0.1:8780"
	// DefaultWorkers is the default number of concurrent file reads.
	DefaultWorkers = 4
)

// LoadOptions controls how application configuration is discovered.
type LoadOptions struct {
	WorkingDirectory string
	ExplicitFilePath string
}

// ApplicationConfiguration holds command-specific configuration defaults.
type ApplicationConfiguration struct {
	Extract ExtractConfiguration `mapstructure:"extract" yaml:"extract"`
	Serve   ServeConfiguration   `mapstructure:"serve" yaml:"serve"`
}

// ExtractConfiguration defines defaults for the extract command.
type ExtractConfiguration struct {
	Output              string             `mapstructure:"output" yaml:"output,omitempty"`
	Branch              string             `mapstructure:"branch" yaml:"branch,omitempty"`
	Method              string             `mapstructure:"method" yaml:"method,omitempty"`
	Workers             *int               `mapstructure:"workers" yaml:"workers,omitempty"`
	MaxFileBytes        *int64             `mapstructure:"max_file_bytes" yaml:"max_file_bytes,omitempty"`
	PreserveLineEndings *bool              `mapstructure:"preserve_line_endings" yaml:"preserve_line_endings,omitempty"`
	Ignore              []string           `mapstructure:"ignore" yaml:"ignore"`
	IgnoreFile          string             `mapstructure:"ignore_file" yaml:"ignore_file,omitempty"`
	Clipboard           *bool              `mapstructure:"clipboard" yaml:"clipboard,omitempty"`
	Tokens              TokenConfiguration `mapstructure:"tokens" yaml:"tokens"`
}

// TokenConfiguration controls token estimation defaults.
type TokenConfiguration struct {
	Enabled *bool  `mapstructure:"enabled" yaml:"enabled,omitempty"`
	Model   string `mapstructure:"model" yaml:"model,omitempty"`
}

// ServeConfiguration defines defaults for the serve command.
type ServeConfiguration struct {
	Address string `mapstructure:"address" yaml:"address,omitempty"`
}

// DefaultApplicationConfiguration returns the configuration written by the init command.
func DefaultApplicationConfiguration() ApplicationConfiguration {
	workers := DefaultWorkers
	maxFileBytes := int64(0)
	return ApplicationConfiguration{
		Extract: ExtractConfiguration{
			Method:              types.MethodGit,
			Workers:             &workers,
			MaxFileBytes:        &maxFileBytes,
			PreserveLineEndings: boolValue(false),
			Ignore:              []string{},
			Clipboard:           boolValue(false),
			Tokens: TokenConfiguration{
				Enabled: boolValue(false),
				Model:   DefaultTokenModel,
			},
		},
		Serve: ServeConfiguration{Address: DefaultServeAddress},
	}
}

// LoadApplicationConfiguration loads configuration from global and local files.
// Local configuration overrides global configuration, and an explicit file
// path replaces the local file.
func LoadApplicationConfiguration(options LoadOptions) (ApplicationConfiguration, error) {
	workingDirectory := options.WorkingDirectory
	if workingDirectory == "" {
		currentDirectory, err := os.Getwd()
		if err != nil {
			return ApplicationConfiguration{}, fmt.Errorf("determine working directory: %w", err)
		}
		workingDirectory = currentDirectory
	}

	var merged ApplicationConfiguration

	if homeDirectory, err := os.UserHomeDir(); err == nil && homeDirectory != "" {
		globalPath := filepath.Join(homeDirectory, utils.GlobalConfigDirectoryName, utils.ConfigFileName)
		globalConfig, loadErr := loadConfigurationFromPath(globalPath, false)
		if loadErr != nil {
			return ApplicationConfiguration{}, loadErr
		}
		merged = merged.Merge(globalConfig)
	}

	localPath := resolveLocalConfigPath(workingDirectory, options.ExplicitFilePath)
	localConfig, loadErr := loadConfigurationFromPath(localPath, options.ExplicitFilePath != "")
	if loadErr != nil {
		return ApplicationConfiguration{}, loadErr
	}
	merged = merged.Merge(localConfig)

	merged.Extract.Ignore = utils.DeduplicatePatterns(merged.Extract.Ignore)

	return merged, nil
}

func resolveLocalConfigPath(workingDirectory, explicitPath string) string {
	if explicitPath != "" {
		if filepath.IsAbs(explicitPath) {
			return explicitPath
		}
		return filepath.Join(workingDirectory, explicitPath)
	}
	return filepath.Join(workingDirectory, utils.ConfigFileName)
}

func loadConfigurationFromPath(path string, required bool) (ApplicationConfiguration, error) {
	info, statErr := os.Stat(path)
	if statErr != nil {
		if os.IsNotExist(statErr) && !required {
			return ApplicationConfiguration{}, nil
		}
		return ApplicationConfiguration{}, fmt.Errorf("stat configuration %s: %w", path, statErr)
	}
	if info.IsDir() {
		return ApplicationConfiguration{}, fmt.Errorf("configuration path %s is a directory", path)
	}

	reader := viper.New()
	reader.SetConfigFile(path)
	if readErr := reader.ReadInConfig(); readErr != nil {
		return ApplicationConfiguration{}, fmt.Errorf("read configuration from %s: %w", path, readErr)
	}
	var config ApplicationConfiguration
	if decodeErr := reader.Unmarshal(&config); decodeErr != nil {
		return ApplicationConfiguration{}, fmt.Errorf("decode configuration from %s: %w", path, decodeErr)
	}
	return config, nil
}

// Merge overlays override onto the receiver returning the combined configuration.
func (config ApplicationConfiguration) Merge(override ApplicationConfiguration) ApplicationConfiguration {
	result := config
	result.Extract = result.Extract.merge(override.Extract)
	if override.Serve.Address != "" {
		result.Serve.Address = override.Serve.Address
	}
	return result
}

func (config ExtractConfiguration) merge(override ExtractConfiguration) ExtractConfiguration {
	result := config
	if override.Output != "" {
		result.Output = override.Output
	}
	if override.Branch != "" {
		result.Branch = override.Branch
	}
	if override.Method != "" {
		result.Method = override.Method
	}
	if override.Workers != nil {
		result.Workers = cloneInt(override.Workers)
	}
	if override.MaxFileBytes != nil {
		cloned := *override.MaxFileBytes
		result.MaxFileBytes = &cloned
	}
	if override.PreserveLineEndings != nil {
		result.PreserveLineEndings = cloneBool(override.PreserveLineEndings)
	}
	if len(override.Ignore) > 0 {
		result.Ignore = append([]string{}, utils.DeduplicatePatterns(override.Ignore)...)
	}
	if override.IgnoreFile != "" {
		result.IgnoreFile = override.IgnoreFile
	}
	if override.Clipboard != nil {
		result.Clipboard = cloneBool(override.Clipboard)
	}
	result.Tokens = result.Tokens.merge(override.Tokens)
	return result
}

func (config TokenConfiguration) merge(override TokenConfiguration) TokenConfiguration {
	result := config
	if override.Enabled != nil {
		result.Enabled = cloneBool(override.Enabled)
	}
	if override.Model != "" {
		result.Model = override.Model
	}
	return result
}

func boolValue(value bool) *bool {
	return &value
}

func cloneBool(value *bool) *bool {
	if value == nil {
		return nil
	}
	cloned := *value
	return &cloned
}

func cloneInt(value *int) *int {
	if value == nil {
		return nil
	}
	cloned := *value
	return &cloned
}
