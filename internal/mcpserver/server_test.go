package mcpserver

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/inkpad/internal/editor"
	"github.com/starford/inkpad/internal/models"
	"github.com/starford/inkpad/internal/render"
	"github.com/starford/inkpad/internal/state"
	"github.com/starford/inkpad/internal/testutil"
)

func testServer(t *testing.T) (*Server, *editor.Session) {
	t.Helper()
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	db := testutil.TestDB(t)

	doc, err := state.LoadDocument(db, "# Seed\n\nbody", logger)
	if err != nil {
		t.Fatal(err)
	}
	prefs, err := state.LoadPreferences(db, logger)
	if err != nil {
		t.Fatal(err)
	}
	pipeline, err := render.NewDefault(render.DefaultOptions(), logger)
	if err != nil {
		t.Fatal(err)
	}
	sess, err := editor.New(editor.Deps{
		Document:    doc,
		Preferences: prefs,
		Pipeline:    pipeline,
		Logger:      logger,
	}, editor.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(sess.Close)

	return New(sess, "test"), sess
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go has no direct "call tool" test helper, so handlers are called
	// directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "get_document":
		result, err = srv.getDocument(ctx, req)
	case "set_document":
		result, err = srv.setDocument(ctx, req)
	case "render_markdown":
		result, err = srv.renderMarkdown(ctx, req)
	case "get_outline":
		result, err = srv.getOutline(ctx, req)
	case "set_theme":
		result, err = srv.setTheme(ctx, req)
	case "export_document":
		result, err = srv.exportDocument(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestGetAndSetDocument(t *testing.T) {
	srv, sess := testServer(t)

	var doc models.Document
	if err := json.Unmarshal([]byte(resultText(callTool(t, srv, "get_document", nil))), &doc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if doc.Text != "# Seed\n\nbody" {
		t.Errorf("text = %q", doc.Text)
	}

	r := callTool(t, srv, "set_document", map[string]interface{}{
		"text":     "# Changed",
		"checksum": doc.Checksum,
	})
	if r.IsError {
		t.Fatalf("set_document: %s", resultText(r))
	}
	if sess.Document().Text() != "# Changed" {
		t.Errorf("text = %q, want %q", sess.Document().Text(), "# Changed")
	}

	// Stale checksum.
	r = callTool(t, srv, "set_document", map[string]interface{}{
		"text":     "lost",
		"checksum": doc.Checksum,
	})
	if !r.IsError || !strings.Contains(resultText(r), "checksum mismatch") {
		t.Errorf("stale set = %q, want checksum mismatch", resultText(r))
	}
}

func TestSetDocument_MissingText(t *testing.T) {
	srv, _ := testServer(t)
	if r := callTool(t, srv, "set_document", map[string]interface{}{}); !r.IsError {
		t.Error("expected error for missing text")
	}
}

func TestRenderMarkdown(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "render_markdown", map[string]interface{}{
		"text": "## Setup & Run\n\n```sh\nmake\n```",
	})
	var out struct {
		HTML     string `json:"html"`
		Headings []struct {
			ID string `json:"id"`
		} `json:"headings"`
		Blocks []struct {
			Text string `json:"text"`
		} `json:"blocks"`
	}
	if err := json.Unmarshal([]byte(resultText(r)), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.Headings) != 1 || out.Headings[0].ID != "setup--run" {
		t.Errorf("headings = %+v, want setup--run", out.Headings)
	}
	if len(out.Blocks) != 1 || strings.TrimSpace(out.Blocks[0].Text) != "make" {
		t.Errorf("blocks = %+v", out.Blocks)
	}
}

func TestGetOutline(t *testing.T) {
	srv, _ := testServer(t)
	text := resultText(callTool(t, srv, "get_outline", nil))
	if !strings.Contains(text, `"title": "Seed"`) {
		t.Errorf("outline = %s", text)
	}
}

func TestSetTheme(t *testing.T) {
	srv, sess := testServer(t)

	r := callTool(t, srv, "set_theme", map[string]interface{}{"theme": "light", "font": "Georgia"})
	if r.IsError {
		t.Fatalf("set_theme: %s", resultText(r))
	}
	if got := sess.Preferences().Get(); got.Theme != models.ThemeLight || got.Font != "Georgia" {
		t.Errorf("prefs = %+v", got)
	}

	if r := callTool(t, srv, "set_theme", map[string]interface{}{"theme": "neon"}); !r.IsError {
		t.Error("expected error for unknown theme")
	}
}

func TestExportDocument(t *testing.T) {
	srv, sess := testServer(t)
	sess.Document().CommitFilename("release notes")

	var out map[string]string
	if err := json.Unmarshal([]byte(resultText(callTool(t, srv, "export_document", nil))), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out["filename"] != "releasenotes.md" {
		t.Errorf("filename = %q, want releasenotes.md", out["filename"])
	}
	if out["content"] != "# Seed\n\nbody" {
		t.Errorf("content = %q", out["content"])
	}
}

func TestSyntaxResource(t *testing.T) {
	srv, _ := testServer(t)
	res, err := srv.readSyntaxResource(context.Background(), mcp.ReadResourceRequest{})
	if err != nil {
		t.Fatal(err)
	}
	tc, ok := res[0].(mcp.TextResourceContents)
	if !ok || tc.URI != SyntaxURI || !strings.Contains(tc.Text, "Math") {
		t.Errorf("resource = %+v", res[0])
	}
}
