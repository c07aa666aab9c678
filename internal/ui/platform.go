package ui

import (
	"github.com/atotto/clipboard"
)

// copyToClipboardFn and readClipboardFn are the active clipboard
// implementations. Tests replace them via StubPlatformActions() to prevent
// side effects.
var (
	copyToClipboardFn = clipboard.WriteAll
	readClipboardFn   = clipboard.ReadAll
)

// CopyToClipboard copies text to the system clipboard.
func CopyToClipboard(text string) error { return copyToClipboardFn(text) }

// ReadClipboard returns the system clipboard's text.
func ReadClipboard() (string, error) { return readClipboardFn() }

// StubPlatformActions replaces the clipboard with an in-memory buffer and
// returns a restore function. Use in tests to prevent side effects.
func StubPlatformActions() (restore func()) {
	origCopy, origRead := copyToClipboardFn, readClipboardFn
	var buf string
	copyToClipboardFn = func(s string) error {
		buf = s
		return nil
	}
	readClipboardFn = func() (string, error) { return buf, nil }
	return func() {
		copyToClipboardFn = origCopy
		readClipboardFn = origRead
	}
}
