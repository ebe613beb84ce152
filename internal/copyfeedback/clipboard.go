package copyfeedback

import (
	"context"
	"fmt"

	"github.com/atotto/clipboard"
)

// Clipboard is a write-only text clipboard. Writes may fail.
type Clipboard interface {
	WriteText(ctx context.Context, text string) error
}

// SystemClipboard writes to the clipboard of the machine running inkpad.
type SystemClipboard struct{}

// WriteText implements Clipboard.
func (SystemClipboard) WriteText(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if clipboard.Unsupported {
		return ErrUnsupported
	}
	if err := clipboard.WriteAll(text); err != nil {
		return fmt.Errorf("system clipboard: %w", err)
	}
	return nil
}

// BrowserClipboard is used when the browser performs the clipboard write.
// The server cannot write for it, so WriteText always fails with
// ErrUnsupported; the browser reports its own successful writes through
// Tracker.Confirm.
type BrowserClipboard struct{}

// WriteText implements Clipboard.
func (BrowserClipboard) WriteText(context.Context, string) error { return ErrUnsupported }

// FuncClipboard adapts a function to Clipboard.
type FuncClipboard func(ctx context.Context, text string) error

// WriteText implements Clipboard.
func (f FuncClipboard) WriteText(ctx context.Context, text string) error { return f(ctx, text) }
