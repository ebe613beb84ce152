package state

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/starford/inkpad/internal/apperr"
	"github.com/starford/inkpad/internal/checksum"
	"github.com/starford/inkpad/internal/filename"
	"github.com/starford/inkpad/internal/kvstore"
	"github.com/starford/inkpad/internal/models"
)

// Document is the editable document together with its filename editor.
//
// Text and preview visibility are mirrored to the markdown-store namespace
// on every change. The filename and the edit session live only in memory.
type Document struct {
	// mu serialises text writers and the edit session.
	mu   sync.Mutex
	snap *Store[models.DocumentSnapshot]
	name *Store[string]
	edit *Store[models.FilenameEditSession]
}

// LoadDocument restores the document snapshot from kv. When nothing usable is
// stored the document starts with seed text and the preview visible.
func LoadDocument(kv kvstore.Store, seed string, logger *slog.Logger) (*Document, error) {
	snap, err := Load(kv, models.MarkdownNamespace, models.DocumentSnapshot{
		Text:           seed,
		PreviewVisible: true,
	}, logger)
	if err != nil {
		return nil, err
	}
	return &Document{
		snap: snap,
		name: NewStore(models.DefaultFilename),
		edit: NewStore(models.FilenameEditSession{}),
	}, nil
}

// Get returns the current document.
func (d *Document) Get() models.Document {
	s := d.snap.Get()
	return models.Document{
		Text:           s.Text,
		PreviewVisible: s.PreviewVisible,
		Filename:       d.name.Get(),
		Checksum:       checksum.String(s.Text),
	}
}

// Text returns the current text.
func (d *Document) Text() string {
	return d.snap.Get().Text
}

// Filename returns the committed filename.
func (d *Document) Filename() string {
	return d.name.Get()
}

// SetText replaces the text unconditionally.
func (d *Document) SetText(text string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.setTextLocked(text)
}

func (d *Document) setTextLocked(text string) error {
	return d.snap.Set(func(s *models.DocumentSnapshot) { s.Text = text })
}

// SetTextIfMatch replaces the text only when the current text has the given
// checksum. An empty expected checksum always matches.
func (d *Document) SetTextIfMatch(text, expected string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if expected != "" && checksum.String(d.Text()) != expected {
		return fmt.Errorf("state: document changed: %w", apperr.ErrConflict)
	}
	return d.setTextLocked(text)
}

// SetPreviewVisible sets the preview flag.
func (d *Document) SetPreviewVisible(visible bool) error {
	return d.snap.Set(func(s *models.DocumentSnapshot) { s.PreviewVisible = visible })
}

// TogglePreview flips the preview flag and returns the new value.
func (d *Document) TogglePreview() (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	visible := !d.snap.Get().PreviewVisible
	return visible, d.SetPreviewVisible(visible)
}

// EditSession returns the filename edit session.
func (d *Document) EditSession() models.FilenameEditSession {
	return d.edit.Get()
}

// StartEditing opens the filename editor seeded with the committed name.
// Starting while a session is open keeps the open session.
func (d *Document) StartEditing() models.FilenameEditSession {
	d.mu.Lock()
	defer d.mu.Unlock()
	if cur := d.edit.Get(); cur.Editing {
		return cur
	}
	current := d.name.Get()
	_ = d.edit.Set(func(e *models.FilenameEditSession) {
		e.Editing = true
		e.TempName = current
		e.JustCommitted = false
	})
	return d.edit.Get()
}

// SetTempName updates the uncommitted name of the open session.
func (d *Document) SetTempName(name string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.edit.Get().Editing {
		return fmt.Errorf("state: no filename edit in progress: %w", apperr.ErrConflict)
	}
	return d.edit.Set(func(e *models.FilenameEditSession) { e.TempName = name })
}

// CommitFilename sanitizes raw, stores it as the filename and closes any open
// session. JustCommitted is raised only when the filename actually changed.
// The committed value is returned.
func (d *Document) CommitFilename(raw string) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	committed := filename.Sanitize(raw)
	changed := committed != d.name.Get()
	if changed {
		_ = d.name.Set(func(n *string) { *n = committed })
	}
	_ = d.edit.Set(func(e *models.FilenameEditSession) {
		e.Editing = false
		e.TempName = ""
		e.JustCommitted = changed
	})
	return committed
}

// CommitEditing commits the temp name of the open session.
func (d *Document) CommitEditing() (string, error) {
	sess := d.EditSession()
	if !sess.Editing {
		return "", fmt.Errorf("state: no filename edit in progress: %w", apperr.ErrConflict)
	}
	return d.CommitFilename(sess.TempName), nil
}

// CancelEditing discards the open session without touching the filename.
func (d *Document) CancelEditing() {
	d.mu.Lock()
	defer d.mu.Unlock()
	_ = d.edit.Set(func(e *models.FilenameEditSession) {
		e.Editing = false
		e.TempName = ""
	})
}

// AcknowledgeCommit clears the one-shot JustCommitted flag.
func (d *Document) AcknowledgeCommit() {
	_ = d.edit.Set(func(e *models.FilenameEditSession) { e.JustCommitted = false })
}

// OnText registers fn for text changes only.
func (d *Document) OnText(fn func(text string)) (unsubscribe func()) {
	var mu sync.Mutex
	last := d.Text()
	return d.snap.Subscribe(func(s models.DocumentSnapshot) {
		mu.Lock()
		changed := s.Text != last
		last = s.Text
		mu.Unlock()
		if changed {
			fn(s.Text)
		}
	})
}

// Subscribe registers fn for any change of the document or its filename.
func (d *Document) Subscribe(fn func(models.Document)) (unsubscribe func()) {
	notify := func() { fn(d.Get()) }
	u1 := d.snap.Subscribe(func(models.DocumentSnapshot) { notify() })
	u2 := d.name.Subscribe(func(string) { notify() })
	return func() {
		u1()
		u2()
	}
}

// SubscribeEditSession registers fn for changes of the filename edit session.
func (d *Document) SubscribeEditSession(fn func(models.FilenameEditSession)) (unsubscribe func()) {
	return d.edit.Subscribe(fn)
}
