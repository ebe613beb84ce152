// Package export builds markdown download payloads and the single-use links
// that serve them.
package export

import (
	"fmt"
	"mime"
	"net/http"
	"strconv"

	"github.com/starford/inkpad/internal/filename"
	"github.com/starford/inkpad/internal/models"
)

// ContentType is the media type of exported documents.
const ContentType = "text/markdown; charset=utf-8"

// Payload is one downloadable document. Body is the document text, byte for
// byte.
type Payload struct {
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
	Body        []byte `json:"-"`
}

// Build returns the download payload of doc.
func Build(doc models.Document) Payload {
	return Payload{
		Filename:    filename.Sanitize(doc.Filename),
		ContentType: ContentType,
		Body:        []byte(doc.Text),
	}
}

// Write serves p as an attachment.
func (p Payload) Write(w http.ResponseWriter) error {
	disposition := mime.FormatMediaType("attachment", map[string]string{"filename": p.Filename})
	if disposition == "" {
		disposition = "attachment"
	}
	w.Header().Set("Content-Type", p.ContentType)
	w.Header().Set("Content-Disposition", disposition)
	w.Header().Set("Content-Length", strconv.Itoa(len(p.Body)))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(p.Body); err != nil {
		return fmt.Errorf("export: write %s: %w", p.Filename, err)
	}
	return nil
}
