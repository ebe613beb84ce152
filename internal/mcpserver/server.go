// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the inkpad document for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/inkpad/internal/apperr"
	"github.com/starford/inkpad/internal/export"
	"github.com/starford/inkpad/internal/models"
	"github.com/starford/inkpad/internal/outline"
	"github.com/starford/inkpad/internal/state"
	"github.com/starford/inkpad/internal/surface"
)

// SyntaxURI is the resource URI of SyntaxGuide.
const SyntaxURI = "inkpad://syntax"

// Editor is the editing session behind the tools. *editor.Session satisfies it.
type Editor interface {
	Document() *state.Document
	Preferences() *state.Preferences
	Render(text string) surface.Output
	Outline() *outline.Result
	Export() export.Payload
}

// Server wraps the MCP server with inkpad tools.
type Server struct {
	mcp *server.MCPServer
	ed  Editor
}

// New creates a new MCP server with all inkpad tools registered.
func New(ed Editor, version string) *Server {
	s := &Server{ed: ed}

	s.mcp = server.NewMCPServer(
		"inkpad",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("get_document",
		mcp.WithDescription("Read the current markdown document with its filename and checksum."),
	), s.getDocument)

	s.mcp.AddTool(mcp.NewTool("set_document",
		mcp.WithDescription("Replace the document text. The preview re-renders after a short pause. "+
			"Pass the checksum from get_document to avoid overwriting concurrent edits. "+
			"Read the syntax guide first via the "+SyntaxURI+" resource."),
		mcp.WithString("text", mcp.Required(), mcp.Description("New markdown text")),
		mcp.WithString("checksum", mcp.Description("Optional checksum the current text must match")),
	), s.setDocument)

	s.mcp.AddTool(mcp.NewTool("render_markdown",
		mcp.WithDescription("Render markdown to sanitized HTML without changing the document. "+
			"Returns the HTML, the heading list and the code blocks."),
		mcp.WithString("text", mcp.Required(), mcp.Description("Markdown to render")),
	), s.renderMarkdown)

	s.mcp.AddTool(mcp.NewTool("get_outline",
		mcp.WithDescription("Title, headings with anchor ids, tags and word count of the document."),
	), s.getOutline)

	s.mcp.AddTool(mcp.NewTool("set_theme",
		mcp.WithDescription("Change the editor theme and optionally the font."),
		mcp.WithString("theme", mcp.Required(), mcp.Description("light or dark"), mcp.Enum("light", "dark")),
		mcp.WithString("font", mcp.Description("Optional editor font family")),
	), s.setTheme)

	s.mcp.AddTool(mcp.NewTool("export_document",
		mcp.WithDescription("Export the document as a markdown file. Returns the sanitized filename and the exact file content."),
	), s.exportDocument)

	// Resource: syntax guide.
	s.mcp.AddResource(
		mcp.NewResource(SyntaxURI, "Markdown Syntax",
			mcp.WithResourceDescription("Markdown dialect rendered by the inkpad preview."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readSyntaxResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying mcp-go server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.ed.Document().Get())
}

func (s *Server) setDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	doc := s.ed.Document()
	if sum, err := req.RequireString("checksum"); err == nil && sum != "" {
		err = doc.SetTextIfMatch(text, sum)
		if errors.Is(err, apperr.ErrConflict) {
			return mcp.NewToolResultError("checksum mismatch: the document changed, read it again"), nil
		}
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	} else if err := doc.SetText(text); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("updated: %s (checksum %s)", doc.Filename(), doc.Get().Checksum)), nil
}

func (s *Server) renderMarkdown(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(s.ed.Render(text))
}

func (s *Server) getOutline(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.ed.Outline())
}

func (s *Server) setTheme(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	theme, err := req.RequireString("theme")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	prefs := s.ed.Preferences()
	next := prefs.Get()
	next.Theme = models.Theme(theme)
	if font, err := req.RequireString("font"); err == nil && font != "" {
		next.Font = font
	}
	if err := prefs.Save(next); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(prefs.Get())
}

func (s *Server) exportDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p := s.ed.Export()
	return jsonResult(map[string]string{
		"filename":    p.Filename,
		"contentType": p.ContentType,
		"content":     string(p.Body),
	})
}

func (s *Server) readSyntaxResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      SyntaxURI,
			MIMEType: "text/markdown",
			Text:     SyntaxGuide,
		},
	}, nil
}
