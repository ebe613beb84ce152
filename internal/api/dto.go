package api

import (
	"time"

	"github.com/starford/inkpad/internal/models"
	"github.com/starford/inkpad/internal/surface"
)

// DocumentResponse is the document together with its filename edit session.
type DocumentResponse struct {
	models.Document
	EditSession models.FilenameEditSession `json:"editSession"`
	Processing  bool                       `json:"processing" example:"false"`
}

// UpdateDocumentRequest is the request body for replacing the text.
type UpdateDocumentRequest struct {
	Text string `json:"text" example:"# Hello\nWorld"`
}

// PreviewVisibilityRequest is the request body for showing or hiding the preview.
type PreviewVisibilityRequest struct {
	Visible bool `json:"visible" example:"true"`
}

// FilenameEditRequest optionally sets the pending name of the edit session.
type FilenameEditRequest struct {
	TempName *string `json:"tempName,omitempty" example:"notes"`
}

// FilenameCommitRequest commits Name, or the pending name when Name is nil.
type FilenameCommitRequest struct {
	Name *string `json:"name,omitempty" example:"My Notes"`
}

// FilenameResponse is the committed filename and the edit session.
type FilenameResponse struct {
	Filename    string                     `json:"filename" example:"MyNotes.md" validate:"required"`
	EditSession models.FilenameEditSession `json:"editSession"`
}

// PreviewResponse is the latest rendered snapshot.
type PreviewResponse struct {
	ID         string             `json:"id" validate:"required"`
	Checksum   string             `json:"checksum" validate:"required"`
	HTML       string             `json:"html"`
	Headings   []surface.Heading  `json:"headings"`
	Blocks     []surface.Block    `json:"blocks"`
	Degraded   bool               `json:"degraded"`
	Processing bool               `json:"processing"`
	Copied     []models.CopyState `json:"copied"`
	RenderedAt time.Time          `json:"renderedAt"`
}

// RenderRequest is the request body for a stateless render.
type RenderRequest struct {
	Text string `json:"text" example:"| a | b |\n|---|---|\n| 1 | 2 |"`
}

// ExportLinkResponse is an issued single-use export link.
type ExportLinkResponse struct {
	Token     string    `json:"token" validate:"required"`
	Filename  string    `json:"filename" example:"Untitled.md" validate:"required"`
	URL       string    `json:"url" example:"/api/export/links/3f0c..." validate:"required"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// PreferencesRequest replaces both preferences.
type PreferencesRequest struct {
	Theme models.Theme `json:"theme" example:"dark" validate:"required"`
	Font  string       `json:"font" example:"Inter" validate:"required"`
}
