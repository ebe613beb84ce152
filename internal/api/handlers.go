package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/inkpad/internal/apperr"
	"github.com/starford/inkpad/internal/copyfeedback"
	"github.com/starford/inkpad/internal/editor"
	"github.com/starford/inkpad/internal/export"
	"github.com/starford/inkpad/internal/models"
	"github.com/starford/inkpad/internal/outline"
	"github.com/starford/inkpad/internal/state"
	"github.com/starford/inkpad/internal/surface"
)

// maxBodyBytes caps every JSON request body.
const maxBodyBytes = 10 << 20

// Editor is the editing session behind the API. *editor.Session satisfies it.
type Editor interface {
	Document() *state.Document
	Preferences() *state.Preferences
	Snapshot() editor.Snapshot
	IsProcessing() bool
	Render(text string) surface.Output
	Outline() *outline.Result
	Block(index int) (surface.Block, error)
	CopyBlock(ctx context.Context, index int) (editor.CopyResult, error)
	ConfirmCopy(index int) (models.CopyState, error)
	CopyStates() []models.CopyState
	Export() export.Payload
	IssueExportLink() (export.Link, error)
	TakeExportLink(token string) (export.Payload, error)
	Dispatch(action string) (editor.ActionResult, error)
}

var _ Editor = (*editor.Session)(nil)

// Handler holds API route handlers.
type Handler struct {
	ed Editor
}

// NewHandler creates a new Handler.
func NewHandler(ed Editor) *Handler {
	return &Handler{ed: ed}
}

// decodeBody decodes a JSON body into v. An empty body leaves v unchanged.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return false
	}
	return true
}

func (h *Handler) documentResponse() DocumentResponse {
	doc := h.ed.Document()
	return DocumentResponse{
		Document:    doc.Get(),
		EditSession: doc.EditSession(),
		Processing:  h.ed.IsProcessing(),
	}
}

// GetDocument handles GET /api/document.
//
//	@Summary		Get the document
//	@Tags			document
//	@Produce		json
//	@Success		200	{object}	DocumentResponse
//	@Security		BearerAuth
//	@Router			/document [get]
func (h *Handler) GetDocument(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.documentResponse())
}

// PutDocument handles PUT /api/document.
// If-Match header is optional: when provided it must match the current
// checksum.
//
//	@Summary		Replace the document text
//	@Tags			document
//	@Accept			json
//	@Produce		json
//	@Param			If-Match	header		string					false	"Expected checksum"
//	@Param			body		body		UpdateDocumentRequest	true	"New text"
//	@Success		200			{object}	DocumentResponse
//	@Failure		400			{object}	errResponse
//	@Failure		409			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/document [put]
func (h *Handler) PutDocument(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req UpdateDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}

	doc := h.ed.Document()
	var err error
	if ifMatch := strings.Trim(r.Header.Get("If-Match"), `"`); ifMatch != "" {
		err = doc.SetTextIfMatch(req.Text, ifMatch)
	} else {
		err = doc.SetText(req.Text)
	}
	if err != nil {
		if errors.Is(err, apperr.ErrConflict) {
			writeJSON(w, http.StatusConflict, errorBody("checksum mismatch"))
		} else {
			slog.Error("update document failed", slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, h.documentResponse())
}

// PutPreview handles PUT /api/document/preview.
//
//	@Summary		Show or hide the preview pane
//	@Tags			document
//	@Accept			json
//	@Produce		json
//	@Param			body	body		PreviewVisibilityRequest	true	"Visibility"
//	@Success		200		{object}	DocumentResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/document/preview [put]
func (h *Handler) PutPreview(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req PreviewVisibilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := h.ed.Document().SetPreviewVisible(req.Visible); err != nil {
		slog.Error("set preview visibility failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, h.documentResponse())
}

// StartFilenameEdit handles POST /api/filename/edit.
//
//	@Summary		Open the filename editor or update its pending name
//	@Tags			filename
//	@Accept			json
//	@Produce		json
//	@Param			body	body		FilenameEditRequest	false	"Pending name"
//	@Success		200		{object}	FilenameResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/filename/edit [post]
func (h *Handler) StartFilenameEdit(w http.ResponseWriter, r *http.Request) {
	var req FilenameEditRequest
	if !decodeBody(w, r, &req) {
		return
	}
	doc := h.ed.Document()
	doc.StartEditing()
	if req.TempName != nil {
		if err := doc.SetTempName(*req.TempName); err != nil {
			writeJSON(w, http.StatusConflict, errorBody("no filename edit in progress"))
			return
		}
	}
	writeJSON(w, http.StatusOK, FilenameResponse{Filename: doc.Filename(), EditSession: doc.EditSession()})
}

// CommitFilename handles POST /api/filename/commit.
//
//	@Summary		Commit a filename
//	@Tags			filename
//	@Accept			json
//	@Produce		json
//	@Param			body	body		FilenameCommitRequest	false	"Name to commit; defaults to the pending name"
//	@Success		200		{object}	FilenameResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/filename/commit [post]
func (h *Handler) CommitFilename(w http.ResponseWriter, r *http.Request) {
	var req FilenameCommitRequest
	if !decodeBody(w, r, &req) {
		return
	}
	doc := h.ed.Document()
	if req.Name != nil {
		doc.CommitFilename(*req.Name)
	} else if _, err := doc.CommitEditing(); err != nil {
		if errors.Is(err, apperr.ErrConflict) {
			writeJSON(w, http.StatusConflict, errorBody("no filename edit in progress"))
		} else {
			slog.Error("commit filename failed", slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, FilenameResponse{Filename: doc.Filename(), EditSession: doc.EditSession()})
}

// CancelFilenameEdit handles POST /api/filename/cancel.
//
//	@Summary		Discard the pending filename
//	@Tags			filename
//	@Produce		json
//	@Success		200	{object}	FilenameResponse
//	@Security		BearerAuth
//	@Router			/filename/cancel [post]
func (h *Handler) CancelFilenameEdit(w http.ResponseWriter, r *http.Request) {
	doc := h.ed.Document()
	doc.CancelEditing()
	writeJSON(w, http.StatusOK, FilenameResponse{Filename: doc.Filename(), EditSession: doc.EditSession()})
}

// AcknowledgeFilename handles POST /api/filename/ack.
//
//	@Summary		Clear the just-committed indicator
//	@Tags			filename
//	@Produce		json
//	@Success		200	{object}	FilenameResponse
//	@Security		BearerAuth
//	@Router			/filename/ack [post]
func (h *Handler) AcknowledgeFilename(w http.ResponseWriter, r *http.Request) {
	doc := h.ed.Document()
	doc.AcknowledgeCommit()
	writeJSON(w, http.StatusOK, FilenameResponse{Filename: doc.Filename(), EditSession: doc.EditSession()})
}

// GetPreview handles GET /api/preview.
//
//	@Summary		Get the latest rendered preview
//	@Tags			preview
//	@Produce		json
//	@Success		200	{object}	PreviewResponse
//	@Security		BearerAuth
//	@Router			/preview [get]
func (h *Handler) GetPreview(w http.ResponseWriter, r *http.Request) {
	snap := h.ed.Snapshot()
	writeJSON(w, http.StatusOK, PreviewResponse{
		ID:         snap.ID,
		Checksum:   snap.Checksum,
		HTML:       snap.Output.HTML,
		Headings:   snap.Output.Headings,
		Blocks:     snap.Output.Blocks,
		Degraded:   snap.Output.Degraded,
		Processing: h.ed.IsProcessing(),
		Copied:     h.ed.CopyStates(),
		RenderedAt: snap.RenderedAt,
	})
}

// Render handles POST /api/render.
//
//	@Summary		Render markdown without changing the document
//	@Tags			preview
//	@Accept			json
//	@Produce		json
//	@Param			body	body		RenderRequest	true	"Markdown"
//	@Success		200		{object}	surface.Output
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/render [post]
func (h *Handler) Render(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req RenderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	writeJSON(w, http.StatusOK, h.ed.Render(req.Text))
}

// GetOutline handles GET /api/outline.
//
//	@Summary		Get title, headings, tags and word count of the document
//	@Tags			preview
//	@Produce		json
//	@Success		200	{object}	outline.Result
//	@Security		BearerAuth
//	@Router			/outline [get]
func (h *Handler) GetOutline(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.ed.Outline())
}

// GetBlock handles GET /api/blocks/{index}.
//
//	@Summary		Get a code block of the preview
//	@Tags			preview
//	@Produce		json
//	@Param			index	path		int	true	"Code block index"
//	@Success		200		{object}	surface.Block
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/blocks/{index} [get]
func (h *Handler) GetBlock(w http.ResponseWriter, r *http.Request) {
	index, ok := blockIndex(w, r)
	if !ok {
		return
	}
	block, err := h.ed.Block(index)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorBody("code block not found"))
		return
	}
	writeJSON(w, http.StatusOK, block)
}

// ConfirmCopy handles POST /api/blocks/{index}/copied. The client calls it
// only after its own clipboard write succeeded.
//
//	@Summary		Record a client-side copy of a code block
//	@Tags			preview
//	@Produce		json
//	@Param			index	path		int	true	"Code block index"
//	@Success		200		{object}	models.CopyState
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/blocks/{index}/copied [post]
func (h *Handler) ConfirmCopy(w http.ResponseWriter, r *http.Request) {
	index, ok := blockIndex(w, r)
	if !ok {
		return
	}
	st, err := h.ed.ConfirmCopy(index)
	if err != nil {
		switch {
		case errors.Is(err, apperr.ErrNotFound):
			writeJSON(w, http.StatusNotFound, errorBody("code block not found"))
		case errors.Is(err, copyfeedback.ErrClosed):
			writeJSON(w, http.StatusServiceUnavailable, errorBody("shutting down"))
		default:
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func blockIndex(w http.ResponseWriter, r *http.Request) (int, bool) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("index must be an integer"))
		return 0, false
	}
	return index, true
}

// CopyBlock handles POST /api/blocks/{index}/copy. The block is written to
// the server-side clipboard; in browser clipboard mode this fails with 501.
//
//	@Summary		Copy a code block of the preview
//	@Tags			preview
//	@Produce		json
//	@Param			index	path		int	true	"Code block index"
//	@Success		200		{object}	editor.CopyResult
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Failure		501		{object}	errResponse
//	@Failure		502		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/blocks/{index}/copy [post]
func (h *Handler) CopyBlock(w http.ResponseWriter, r *http.Request) {
	index, ok := blockIndex(w, r)
	if !ok {
		return
	}
	res, err := h.ed.CopyBlock(r.Context(), index)
	if err != nil {
		switch {
		case errors.Is(err, apperr.ErrNotFound):
			writeJSON(w, http.StatusNotFound, errorBody("code block not found"))
		case errors.Is(err, copyfeedback.ErrUnsupported):
			writeJSON(w, http.StatusNotImplemented, errorBody("clipboard unavailable"))
		case errors.Is(err, copyfeedback.ErrClosed):
			writeJSON(w, http.StatusServiceUnavailable, errorBody("shutting down"))
		default:
			slog.Warn("copy block failed", slog.Int("index", index), slog.String("error", err.Error()))
			writeJSON(w, http.StatusBadGateway, errorBody("clipboard write failed"))
		}
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Export handles GET /api/export.
//
//	@Summary		Download the document as markdown
//	@Tags			export
//	@Produce		text/markdown
//	@Success		200	{string}	string
//	@Security		BearerAuth
//	@Router			/export [get]
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	p := h.ed.Export()
	if err := p.Write(w); err != nil {
		slog.Error("export failed", slog.String("filename", p.Filename), slog.String("error", err.Error()))
	}
}

// CreateExportLink handles POST /api/export/links.
//
//	@Summary		Issue a single-use download link
//	@Tags			export
//	@Produce		json
//	@Success		201	{object}	ExportLinkResponse
//	@Failure		503	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/export/links [post]
func (h *Handler) CreateExportLink(w http.ResponseWriter, r *http.Request) {
	link, err := h.ed.IssueExportLink()
	if err != nil {
		if errors.Is(err, export.ErrClosed) {
			writeJSON(w, http.StatusServiceUnavailable, errorBody("shutting down"))
		} else {
			slog.Error("issue export link failed", slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusCreated, ExportLinkResponse{
		Token:     link.Token,
		Filename:  link.Filename,
		URL:       strings.TrimSuffix(r.URL.Path, "/") + "/" + link.Token,
		ExpiresAt: link.ExpiresAt,
	})
}

// TakeExportLink handles GET /api/export/links/{token}.
//
//	@Summary		Download through a single-use link
//	@Tags			export
//	@Produce		text/markdown
//	@Param			token	path		string	true	"Link token"
//	@Success		200		{string}	string
//	@Failure		404		{object}	errResponse
//	@Failure		410		{object}	errResponse
//	@Router			/export/links/{token} [get]
func (h *Handler) TakeExportLink(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	p, err := h.ed.TakeExportLink(token)
	if err != nil {
		switch {
		case errors.Is(err, apperr.ErrNotFound):
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		case errors.Is(err, apperr.ErrExpired):
			writeJSON(w, http.StatusGone, errorBody("link expired"))
		default:
			slog.Error("take export link failed", slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	if err := p.Write(w); err != nil {
		slog.Error("export failed", slog.String("filename", p.Filename), slog.String("error", err.Error()))
	}
}

// GetPreferences handles GET /api/preferences.
//
//	@Summary		Get theme and font
//	@Tags			preferences
//	@Produce		json
//	@Success		200	{object}	models.Preferences
//	@Security		BearerAuth
//	@Router			/preferences [get]
func (h *Handler) GetPreferences(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.ed.Preferences().Get())
}

// PutPreferences handles PUT /api/preferences.
//
//	@Summary		Replace theme and font
//	@Tags			preferences
//	@Accept			json
//	@Produce		json
//	@Param			body	body		PreferencesRequest	true	"Preferences"
//	@Success		200		{object}	models.Preferences
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/preferences [put]
func (h *Handler) PutPreferences(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req PreferencesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	prefs := h.ed.Preferences()
	if err := prefs.Save(models.Preferences{Theme: req.Theme, Font: req.Font}); err != nil {
		if errors.Is(err, apperr.ErrInvalid) {
			writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		} else {
			slog.Error("save preferences failed", slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, prefs.Get())
}

// GetKeymap handles GET /api/keymap.
//
//	@Summary		List keyboard bindings
//	@Tags			keyboard
//	@Produce		json
//	@Success		200	{array}	editor.Binding
//	@Security		BearerAuth
//	@Router			/keymap [get]
func (h *Handler) GetKeymap(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, editor.Keymap())
}

// Dispatch handles POST /api/actions/{action}.
//
//	@Summary		Run a keyboard action
//	@Tags			keyboard
//	@Produce		json
//	@Param			action	path		string	true	"Action"	Enums(export, toggle-preview, focus-editor, hide-preview, toggle-theme)
//	@Success		200		{object}	editor.ActionResult
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/actions/{action} [post]
func (h *Handler) Dispatch(w http.ResponseWriter, r *http.Request) {
	action := chi.URLParam(r, "action")
	res, err := h.ed.Dispatch(action)
	if err != nil {
		switch {
		case errors.Is(err, apperr.ErrInvalid):
			writeJSON(w, http.StatusBadRequest, errorBody("unknown action"))
		case errors.Is(err, export.ErrClosed):
			writeJSON(w, http.StatusServiceUnavailable, errorBody("shutting down"))
		default:
			slog.Error("dispatch failed", slog.String("action", action), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, res)
}
