// Package tokenizer estimates token counts of rendered documents.
package tokenizer

import (
	"fmt"
	"strings"

	"github.com/pkoukk/tiktoken-go"
)

// Counter estimates token counts for text content.
type Counter interface {
	Name() string
	CountString(input string) (int, error)
}

// Config captures tokenizer selection parameters provided by the CLI.
type Config struct {
	Model string
}

const (
	// DefaultModel is used when Config.Model is empty.
	DefaultModel        = "gpt-4o"
	defaultEncodingName = tiktoken.MODEL_CL100K_BASE
)

// NewCounter returns a Counter for the requested model along with the label it
// reports: the lower-cased model name, or the fallback encoding name when
// tiktoken has no encoding registered for the model.
func NewCounter(cfg Config) (Counter, string, error) {
	model := strings.ToLower(strings.TrimSpace(cfg.Model))
	if model == "" {
		model = DefaultModel
	}
	encodingName, known := encodingNameForModel(model)
	label := model
	if !known {
		encodingName, label = defaultEncodingName, defaultEncodingName
	}
	encoding, err := tiktoken.GetEncoding(encodingName)
	if err != nil {
		return nil, "", fmt.Errorf("load %s encoding: %w", encodingName, err)
	}
	return encodingCounter{encoding: encoding, label: label}, label, nil
}

// encodingNameForModel looks model up in tiktoken's exact and prefix tables.
func encodingNameForModel(model string) (string, bool) {
	if encodingName, found := tiktoken.MODEL_TO_ENCODING[model]; found {
		return encodingName, true
	}
	for prefix, encodingName := range tiktoken.MODEL_PREFIX_TO_ENCODING {
		if strings.HasPrefix(model, prefix) {
			return encodingName, true
		}
	}
	return "", false
}
