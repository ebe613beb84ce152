package editor

import (
	"fmt"

	"github.com/starford/inkpad/internal/apperr"
	"github.com/starford/inkpad/internal/models"
	"github.com/starford/inkpad/internal/sse"
)

// Action names accepted by Dispatch.
const (
	ActionExport        = "export"
	ActionTogglePreview = "toggle-preview"
	ActionFocusEditor   = "focus-editor"
	ActionHidePreview   = "hide-preview"
	ActionToggleTheme   = "toggle-theme"
)

// Binding maps a key chord to an action. "mod" is Ctrl, or Cmd on macOS.
type Binding struct {
	Keys       string `json:"keys"`
	Action     string `json:"action"`
	NarrowOnly bool   `json:"narrowOnly,omitempty"`
}

var keymap = []Binding{
	{Keys: "mod+s", Action: ActionExport},
	{Keys: "mod+p", Action: ActionTogglePreview},
	{Keys: "mod+/", Action: ActionFocusEditor},
	{Keys: "escape", Action: ActionHidePreview, NarrowOnly: true},
}

// Keymap returns the keyboard bindings served to the client.
func Keymap() []Binding {
	out := make([]Binding, len(keymap))
	copy(out, keymap)
	return out
}

// ActionResult describes what an action changed. Client-side effects such
// as focusing the editor or starting a download are carried in Effect.
type ActionResult struct {
	Action         string        `json:"action"`
	Effect         string        `json:"effect,omitempty"`
	PreviewVisible *bool         `json:"previewVisible,omitempty"`
	Theme          models.Theme  `json:"theme,omitempty"`
	Export         *ExportTicket `json:"export,omitempty"`
}

// ExportTicket points the client at a single-use export link.
type ExportTicket struct {
	Token    string `json:"token"`
	Filename string `json:"filename"`
}

// Dispatch runs a keyboard action. Unknown actions wrap apperr.ErrInvalid.
func (s *Session) Dispatch(action string) (ActionResult, error) {
	res := ActionResult{Action: action}
	switch action {
	case ActionExport:
		link, err := s.IssueExportLink()
		if err != nil {
			return res, fmt.Errorf("editor: dispatch %s: %w", action, err)
		}
		res.Effect = "download"
		res.Export = &ExportTicket{Token: link.Token, Filename: link.Filename}
	case ActionTogglePreview:
		visible, err := s.doc.TogglePreview()
		if err != nil {
			return res, fmt.Errorf("editor: dispatch %s: %w", action, err)
		}
		res.PreviewVisible = &visible
	case ActionHidePreview:
		if err := s.doc.SetPreviewVisible(false); err != nil {
			return res, fmt.Errorf("editor: dispatch %s: %w", action, err)
		}
		hidden := false
		res.PreviewVisible = &hidden
	case ActionFocusEditor:
		res.Effect = "focus-editor"
	case ActionToggleTheme:
		theme, err := s.prefs.ToggleTheme()
		if err != nil {
			return res, fmt.Errorf("editor: dispatch %s: %w", action, err)
		}
		res.Theme = theme
	default:
		return res, fmt.Errorf("editor: unknown action %q: %w", action, apperr.ErrInvalid)
	}

	s.pub.Publish(sse.Event{Type: sse.EventAction, Data: res})
	return res, nil
}
