// Package config loads ignore rules and the application configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/temirov/repo2txt/internal/types"
)

const (
	// ignoreKey is the configuration key holding the ordered list of ignore patterns.
	ignoreKey = "ignore"
	// fallbackConfigType is used for files whose extension is not a recognized format.
	fallbackConfigType = "json"

	ignoreConfigErrorFormat   = "ignore configuration %s: %v"
	ignoreEntryNotStringError = "entry %d is %T, expected a string"
)

var (
	// ErrIgnoreConfigIsDirectory is reported when the configured path names a directory.
	ErrIgnoreConfigIsDirectory = errors.New("path is a directory")
	// ErrIgnoreRulesNotList is reported when the ignore key does not hold a list.
	ErrIgnoreRulesNotList = errors.New("ignore must be a list of strings")

	ignoreConfigTypes = map[string]string{
		"json": "json",
		"yaml": "yaml",
		"yml":  "yaml",
		"toml": "toml",
	}
)

// IgnoreConfigError reports an ignore configuration file that is missing or malformed.
type IgnoreConfigError struct {
	Path string
	Err  error
}

func (configError *IgnoreConfigError) Error() string {
	return fmt.Sprintf(ignoreConfigErrorFormat, configError.Path, configError.Err)
}

func (configError *IgnoreConfigError) Unwrap() error {
	return configError.Err
}

// LoadIgnoreRules reads the "ignore" list from a JSON, YAML or TOML file.
// Files with any other extension are parsed as JSON. An empty path yields an
// empty rule set, as does a file without the ignore key.
func LoadIgnoreRules(path string) (types.IgnoreRuleSet, error) {
	if path == "" {
		return types.IgnoreRuleSet{}, nil
	}

	fileInfo, statError := os.Stat(path)
	if statError != nil {
		return nil, &IgnoreConfigError{Path: path, Err: statError}
	}
	if fileInfo.IsDir() {
		return nil, &IgnoreConfigError{Path: path, Err: ErrIgnoreConfigIsDirectory}
	}

	reader := viper.New()
	reader.SetConfigFile(path)
	reader.SetConfigType(ignoreConfigType(path))
	if readError := reader.ReadInConfig(); readError != nil {
		return nil, &IgnoreConfigError{Path: path, Err: readError}
	}
	if !reader.IsSet(ignoreKey) {
		return types.IgnoreRuleSet{}, nil
	}

	patterns, convertError := stringList(reader.Get(ignoreKey))
	if convertError != nil {
		return nil, &IgnoreConfigError{Path: path, Err: convertError}
	}
	return types.NewIgnoreRuleSet(patterns...), nil
}

func ignoreConfigType(path string) string {
	extension := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	if configType, known := ignoreConfigTypes[extension]; known {
		return configType
	}
	return fallbackConfigType
}

func stringList(value interface{}) ([]string, error) {
	switch typed := value.(type) {
	case nil:
		return nil, nil
	case []string:
		return typed, nil
	case []interface{}:
		patterns := make([]string, 0, len(typed))
		for index, item := range typed {
			pattern, isString := item.(string)
			if !isString {
				return nil, fmt.Errorf("%w: "+ignoreEntryNotStringError, ErrIgnoreRulesNotList, index, item)
			}
			patterns = append(patterns, pattern)
		}
		return patterns, nil
	default:
		return nil, ErrIgnoreRulesNotList
	}
}
