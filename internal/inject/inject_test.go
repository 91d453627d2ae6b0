package inject

import (
	"errors"
	"testing"

	"github.com/atotto/clipboard"
)

func TestCopyWritesClipboard(t *testing.T) {
	if clipboard.Unsupported {
		t.Skip("no clipboard utility available")
	}

	var got string
	orig := writeAll
	writeAll = func(text string) error {
		got = text
		return nil
	}
	defer func() { writeAll = orig }()

	if err := New().Copy("hello"); err != nil {
		t.Fatalf("Copy: %v", err)
	}
	if got != "hello" {
		t.Errorf("expected hello, got %q", got)
	}
}

func TestCopyWrapsError(t *testing.T) {
	if clipboard.Unsupported {
		t.Skip("no clipboard utility available")
	}

	boom := errors.New("xclip exited 1")
	orig := writeAll
	writeAll = func(string) error { return boom }
	defer func() { writeAll = orig }()

	if err := New().Copy("x"); !errors.Is(err, boom) {
		t.Errorf("expected wrapped error, got %v", err)
	}
}

func TestNopCopier(t *testing.T) {
	if err := Nop().Copy("anything"); err != nil {
		t.Errorf("expected nil, got %v", err)
	}
}
