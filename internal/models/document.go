// Package models defines the domain types for inkpad.
package models

import "time"

// Store namespaces used by the persisted snapshot store.
const (
	MarkdownNamespace = "markdown-store"
	UINamespace       = "ui-store"
)

// DefaultFilename is the name used when no valid filename was committed.
const DefaultFilename = "Untitled.md"

// Theme is the display theme of the editor.
type Theme string

// Supported themes.
const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// DefaultFont is the editor font used when none is persisted.
const DefaultFont = "Inter"

// DocumentSnapshot is the persisted part of the document (markdown-store).
type DocumentSnapshot struct {
	Text           string `json:"text"`
	PreviewVisible bool   `json:"previewVisible"`
}

// Document is the full document state as seen by clients.
type Document struct {
	Text           string `json:"text"`
	PreviewVisible bool   `json:"previewVisible"`
	Filename       string `json:"filename"`
	Checksum       string `json:"checksum"`
}

// FilenameEditSession is the transient state of the filename editor.
type FilenameEditSession struct {
	Editing       bool   `json:"editing"`
	TempName      string `json:"tempName"`
	JustCommitted bool   `json:"justCommitted"`
}

// Preferences is the persisted UI state (ui-store).
type Preferences struct {
	Theme Theme  `json:"theme"`
	Font  string `json:"font"`
}

// DefaultPreferences returns the preferences used on first start.
func DefaultPreferences() Preferences {
	return Preferences{Theme: ThemeDark, Font: DefaultFont}
}

// CopyState is the copy feedback of one code block.
type CopyState struct {
	Block     int       `json:"block"`
	Copied    bool      `json:"copied"`
	ExpiresAt time.Time `json:"expiresAt,omitempty"`
}
