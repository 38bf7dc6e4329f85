package tokenizer

import (
	"errors"

	"github.com/temirov/repo2txt/internal/output"
)

// ErrNilCounter is returned when counting without a tokenizer.
var ErrNilCounter = errors.New("nil tokenizer counter")

// CountResult captures the token estimate of one document.
type CountResult struct {
	Tokens int
	Model  string
}

// CountDocument estimates tokens for the fully rendered document.
func CountDocument(counter Counter, document output.Document) (CountResult, error) {
	if counter == nil {
		return CountResult{}, ErrNilCounter
	}
	tokens, err := counter.CountString(document.String())
	if err != nil {
		return CountResult{}, err
	}
	return CountResult{Tokens: tokens, Model: counter.Name()}, nil
}
