// Package inject hands finished transcripts to the desktop clipboard.
package inject

import (
	"fmt"

	"github.com/atotto/clipboard"
)

// Copier places text where the user can paste it.
type Copier interface {
	Copy(text string) error
}

// writeAll is swapped out in tests.
var writeAll = clipboard.WriteAll

type clipboardCopier struct{}

// New returns a Copier backed by the system clipboard (xclip, xsel or
// wl-copy on Linux).
func New() Copier {
	return clipboardCopier{}
}

func (clipboardCopier) Copy(text string) error {
	if clipboard.Unsupported {
		return fmt.Errorf("clipboard unsupported: install xclip, xsel or wl-clipboard")
	}
	if err := writeAll(text); err != nil {
		return fmt.Errorf("copy to clipboard: %w", err)
	}
	return nil
}

type nopCopier struct{}

// Nop returns a Copier that does nothing, for when copying is disabled.
func Nop() Copier {
	return nopCopier{}
}

func (nopCopier) Copy(string) error { return nil }
