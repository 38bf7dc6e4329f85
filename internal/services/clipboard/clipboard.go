// Package clipboard copies finished documents to the system clipboard.
package clipboard

import (
	"errors"
	"fmt"

	"github.com/atotto/clipboard"
)

// ErrUnavailable reports that the system clipboard cannot be written, for
// example on a Linux host without xclip, xsel or wl-copy.
var ErrUnavailable = errors.New("system clipboard is unavailable")

// Copier places a document on the clipboard.
type Copier interface {
	Copy(text string) error
}

// Service writes to the system clipboard through github.com/atotto/clipboard.
type Service struct {
	write       func(string) error
	unsupported bool
}

// NewService returns a Service bound to the system clipboard.
func NewService() *Service {
	return &Service{write: clipboard.WriteAll, unsupported: clipboard.Unsupported}
}

// Copy places text on the clipboard. Every failure wraps ErrUnavailable.
func (service *Service) Copy(text string) error {
	if service.unsupported || service.write == nil {
		return ErrUnavailable
	}
	if err := service.write(text); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

var _ Copier = (*Service)(nil)
