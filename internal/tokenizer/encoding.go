package tokenizer

import (
	"errors"

	"github.com/pkoukk/tiktoken-go"
)

// ErrNilEncoding is returned by a counter built without a tiktoken encoding.
var ErrNilEncoding = errors.New("tokenizer has no encoding")

// encodingCounter counts tokens with a tiktoken BPE encoding. Special token
// markers such as "<|endoftext|>" inside repository files are counted as
// ordinary text.
type encodingCounter struct {
	encoding *tiktoken.Tiktoken
	label    string
}

func (counter encodingCounter) Name() string {
	return counter.label
}

func (counter encodingCounter) CountString(input string) (int, error) {
	if counter.encoding == nil {
		return 0, ErrNilEncoding
	}
	return len(counter.encoding.EncodeOrdinary(input)), nil
}
