// Package editor wires the document, debounced rendering, copy feedback,
// export and live event publishing into one editing session.
package editor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/starford/inkpad/internal/apperr"
	"github.com/starford/inkpad/internal/checksum"
	"github.com/starford/inkpad/internal/copyfeedback"
	"github.com/starford/inkpad/internal/debounce"
	"github.com/starford/inkpad/internal/export"
	"github.com/starford/inkpad/internal/models"
	"github.com/starford/inkpad/internal/outline"
	"github.com/starford/inkpad/internal/render"
	"github.com/starford/inkpad/internal/sse"
	"github.com/starford/inkpad/internal/state"
	"github.com/starford/inkpad/internal/surface"
)

// Publisher receives session events. *sse.Broker satisfies it.
type Publisher interface {
	Publish(event sse.Event)
}

type nopPublisher struct{}

func (nopPublisher) Publish(sse.Event) {}

// Config holds session timings.
type Config struct {
	Debounce      time.Duration
	CopyReset     time.Duration
	ExportLinkTTL time.Duration
}

// DefaultConfig returns the editor defaults.
func DefaultConfig() Config {
	return Config{
		Debounce:      debounce.DefaultWait,
		CopyReset:     copyfeedback.DefaultResetAfter,
		ExportLinkTTL: export.DefaultLinkTTL,
	}
}

// Deps are the collaborators of a Session.
type Deps struct {
	Document    *state.Document
	Preferences *state.Preferences
	Pipeline    *render.Pipeline
	Clipboard   copyfeedback.Clipboard
	Publisher   Publisher
	Logger      *slog.Logger
}

// Snapshot is the debounced text together with its rendered preview.
type Snapshot struct {
	ID         string         `json:"id"`
	Text       string         `json:"-"`
	Checksum   string         `json:"checksum"`
	Output     surface.Output `json:"output"`
	RenderedAt time.Time      `json:"renderedAt"`
}

// CopyResult is the outcome of copying a code block.
type CopyResult struct {
	models.CopyState
	Text string `json:"text"`
}

// Session is one editing session. All methods are safe for concurrent use.
//
// Subscriptions: text changes trigger the debouncer; document, filename
// session, preference and copy state changes are published as events.
type Session struct {
	doc      *state.Document
	prefs    *state.Preferences
	pipeline *render.Pipeline
	pub      Publisher
	logger   *slog.Logger

	debouncer *debounce.Debouncer[string]
	copies    *copyfeedback.Tracker
	links     *export.Links

	mu       sync.RWMutex
	snapshot Snapshot

	unsubs    []func()
	closeOnce sync.Once
}

// New starts a session. The current text is rendered before New returns.
func New(deps Deps, cfg Config) (*Session, error) {
	if deps.Document == nil || deps.Preferences == nil || deps.Pipeline == nil {
		return nil, fmt.Errorf("editor: document, preferences and pipeline are required")
	}
	if deps.Clipboard == nil {
		deps.Clipboard = copyfeedback.BrowserClipboard{}
	}
	if deps.Publisher == nil {
		deps.Publisher = nopPublisher{}
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	s := &Session{
		doc:      deps.Document,
		prefs:    deps.Preferences,
		pipeline: deps.Pipeline,
		pub:      deps.Publisher,
		logger:   deps.Logger,
		links:    export.NewLinks(cfg.ExportLinkTTL, deps.Logger),
	}
	s.copies = copyfeedback.NewTracker(deps.Clipboard,
		copyfeedback.WithResetAfter(cfg.CopyReset),
		copyfeedback.WithLogger(deps.Logger),
		copyfeedback.WithListener(func(st models.CopyState) {
			s.pub.Publish(sse.Event{Type: sse.EventCopyState, Data: st})
		}),
	)

	s.settle(s.doc.Text())
	s.debouncer = debounce.New(cfg.Debounce, s.settle)

	s.unsubs = append(s.unsubs,
		s.doc.OnText(func(text string) {
			s.debouncer.Trigger(text)
			s.pub.Publish(sse.Event{Type: sse.EventProcessing, Data: processingEvent{Processing: true}})
		}),
		s.doc.Subscribe(func(d models.Document) {
			s.pub.Publish(sse.Event{Type: sse.EventDocumentUpdated, Data: d})
		}),
		s.doc.SubscribeEditSession(func(e models.FilenameEditSession) {
			s.pub.Publish(sse.Event{Type: sse.EventFilenameSession, Data: e})
		}),
		s.prefs.Subscribe(func(p models.Preferences) {
			s.pub.Publish(sse.Event{Type: sse.EventPreferencesUpdated, Data: p})
		}),
	)

	s.pub.Publish(sse.Event{Type: sse.EventDocumentUpdated, Data: s.doc.Get()})
	s.pub.Publish(sse.Event{Type: sse.EventPreferencesUpdated, Data: s.prefs.Get()})
	return s, nil
}

func fallbackOutput(text string) surface.Output {
	return surface.Output{
		HTML:     render.Fallback(text, "surface").HTML,
		Headings: []surface.Heading{},
		Blocks:   []surface.Block{},
		Degraded: true,
	}
}

type processingEvent struct {
	Processing bool `json:"processing"`
}

// settle renders text and replaces the snapshot. It runs on the debouncer
// loop (or in New), so snapshot writes never overlap.
func (s *Session) settle(text string) {
	out := s.Render(text)
	snap := Snapshot{
		ID:         uuid.NewString(),
		Text:       text,
		Checksum:   checksum.String(text),
		Output:     out,
		RenderedAt: time.Now(),
	}
	s.mu.Lock()
	s.snapshot = snap
	s.mu.Unlock()

	s.copies.Retain(len(out.Blocks))
	s.pub.Publish(sse.Event{Type: sse.EventPreviewUpdated, Data: snap})
	s.pub.Publish(sse.Event{Type: sse.EventProcessing, Data: processingEvent{Processing: false}})
}

// Document returns the document store.
func (s *Session) Document() *state.Document { return s.doc }

// Preferences returns the preference store.
func (s *Session) Preferences() *state.Preferences { return s.prefs }

// Snapshot returns the latest rendered snapshot.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

// IsProcessing reports whether a text change is waiting to be rendered.
func (s *Session) IsProcessing() bool {
	return s.debouncer.Pending()
}

// Render renders text through the session pipeline without touching the
// document or the snapshot.
func (s *Session) Render(text string) surface.Output {
	out, err := surface.Decorate(s.pipeline.Render(text))
	if err != nil {
		s.logger.Error("editor: decorate failed", slog.String("error", err.Error()))
		return fallbackOutput(text)
	}
	return out
}

// Outline returns the outline of the current text.
func (s *Session) Outline() *outline.Result {
	return outline.Parse([]byte(s.doc.Text()))
}

// Block returns code block index of the latest snapshot.
func (s *Session) Block(index int) (surface.Block, error) {
	blocks := s.Snapshot().Output.Blocks
	if index < 0 || index >= len(blocks) {
		return surface.Block{}, fmt.Errorf("editor: code block %d: %w", index, apperr.ErrNotFound)
	}
	return blocks[index], nil
}

// CopyBlock writes code block index of the latest snapshot to the session
// clipboard and marks it copied.
func (s *Session) CopyBlock(ctx context.Context, index int) (CopyResult, error) {
	block, err := s.Block(index)
	if err != nil {
		return CopyResult{}, err
	}
	st, err := s.copies.Copy(ctx, index, block.Text)
	if err != nil {
		return CopyResult{CopyState: st}, err
	}
	return CopyResult{CopyState: st, Text: block.Text}, nil
}

// ConfirmCopy marks code block index copied after the client wrote it to
// its own clipboard.
func (s *Session) ConfirmCopy(index int) (models.CopyState, error) {
	if _, err := s.Block(index); err != nil {
		return models.CopyState{}, err
	}
	return s.copies.Confirm(index)
}

// CopyStates returns the currently copied blocks.
func (s *Session) CopyStates() []models.CopyState {
	return s.copies.States()
}

// Export returns the download payload of the current document.
func (s *Session) Export() export.Payload {
	return export.Build(s.doc.Get())
}

// IssueExportLink stores the current document behind a single-use link.
func (s *Session) IssueExportLink() (export.Link, error) {
	link, err := s.links.Issue(s.Export())
	if err != nil {
		s.logger.Error("editor: export link failed", slog.String("error", err.Error()))
		return export.Link{}, err
	}
	return link, nil
}

// PendingExportLinks returns the number of issued links not yet fetched.
func (s *Session) PendingExportLinks() int {
	return s.links.Pending()
}

// TakeExportLink consumes token.
func (s *Session) TakeExportLink(token string) (export.Payload, error) {
	return s.links.Take(token)
}

// Close stops rendering and cancels every pending timer. No event is
// published by the session's timers after Close returns.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		for _, unsub := range s.unsubs {
			unsub()
		}
		s.debouncer.Close()
		s.copies.Close()
		s.links.Close()
	})
}
