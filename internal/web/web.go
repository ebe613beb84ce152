// Package web serves the embedded browser client and the highlight
// stylesheets.
package web

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"net/http"

	"github.com/starford/inkpad/internal/models"
	"github.com/starford/inkpad/internal/render"
)

//go:embed static/*
var static embed.FS

// Handler serves the client files. "/" maps to index.html.
func Handler() http.Handler {
	sub, err := fs.Sub(static, "static")
	if err != nil {
		// static/ is embedded at build time.
		panic(err)
	}
	return http.FileServer(http.FS(sub))
}

// HighlightCSS serves the chroma stylesheet of each theme. The theme query
// parameter selects light or dark; dark is the default.
type HighlightCSS struct {
	css map[models.Theme][]byte
}

// NewHighlightCSS renders the stylesheets of the given chroma styles once.
func NewHighlightCSS(light, dark string) (*HighlightCSS, error) {
	h := &HighlightCSS{css: make(map[models.Theme][]byte, 2)}
	for theme, style := range map[models.Theme]string{
		models.ThemeLight: light,
		models.ThemeDark:  dark,
	} {
		var buf bytes.Buffer
		if err := render.HighlightCSS(&buf, style); err != nil {
			return nil, fmt.Errorf("web: %s theme: %w", theme, err)
		}
		h.css[theme] = buf.Bytes()
	}
	return h, nil
}

// ServeHTTP implements http.Handler.
func (h *HighlightCSS) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	css, ok := h.css[models.Theme(r.URL.Query().Get("theme"))]
	if !ok {
		css = h.css[models.ThemeDark]
	}
	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = w.Write(css)
}
