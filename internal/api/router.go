package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(ed Editor, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(ed)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Document.
	r.Get("/document", h.GetDocument)
	r.Put("/document", h.PutDocument)
	r.Put("/document/preview", h.PutPreview)

	// Filename editing.
	r.Post("/filename/edit", h.StartFilenameEdit)
	r.Post("/filename/commit", h.CommitFilename)
	r.Post("/filename/cancel", h.CancelFilenameEdit)
	r.Post("/filename/ack", h.AcknowledgeFilename)

	// Preview and rendering.
	r.Get("/preview", h.GetPreview)
	r.Post("/render", h.Render)
	r.Get("/outline", h.GetOutline)
	r.Get("/blocks/{index}", h.GetBlock)
	r.Post("/blocks/{index}/copy", h.CopyBlock)
	r.Post("/blocks/{index}/copied", h.ConfirmCopy)

	// Export.
	r.Get("/export", h.Export)
	r.Post("/export/links", h.CreateExportLink)
	r.Get("/export/links/{token}", h.TakeExportLink)

	// Preferences.
	r.Get("/preferences", h.GetPreferences)
	r.Put("/preferences", h.PutPreferences)

	// Keyboard surface.
	r.Get("/keymap", h.GetKeymap)
	r.Post("/actions/{action}", h.Dispatch)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
