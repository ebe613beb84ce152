package web

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHandler_ServesIndex(t *testing.T) {
	w := httptest.NewRecorder()
	Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `id="editor"`) {
		t.Error("index.html missing editor pane")
	}

	w = httptest.NewRecorder()
	Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/app.js", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("app.js status = %d", w.Code)
	}
}

func TestHighlightCSS_PerTheme(t *testing.T) {
	h, err := NewHighlightCSS("github", "monokai")
	if err != nil {
		t.Fatalf("NewHighlightCSS: %v", err)
	}

	get := func(query string) string {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/assets/highlight.css"+query, nil))
		if ct := w.Header().Get("Content-Type"); ct != "text/css; charset=utf-8" {
			t.Errorf("content type = %q", ct)
		}
		return w.Body.String()
	}

	light, dark := get("?theme=light"), get("?theme=dark")
	if !strings.Contains(light, ".chroma") || !strings.Contains(dark, ".chroma") {
		t.Fatal("stylesheets missing chroma classes")
	}
	if light == dark {
		t.Error("light and dark stylesheets are identical")
	}
	if get("") != dark {
		t.Error("default theme is not dark")
	}
}

func TestHighlightCSS_UnknownStyle(t *testing.T) {
	if _, err := NewHighlightCSS("github", "no-such-style"); err == nil {
		t.Fatal("expected error for unknown style")
	}
}
