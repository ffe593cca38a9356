package history

import (
	"errors"

	"github.com/atotto/clipboard"
)

// SystemCopier writes to the OS clipboard when the platform supports it.
type SystemCopier struct{}

// Copy implements Copier.
func (SystemCopier) Copy(text string) error {
	if clipboard.Unsupported {
		return errors.New("history: clipboard unavailable on this platform")
	}
	return clipboard.WriteAll(text)
}
