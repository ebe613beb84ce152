// Package copyfeedback tracks the "copied" confirmation of code blocks.
//
// Each block index owns one timer slot. A successful copy marks the block
// copied and (re)starts its reset timer; a newer copy of the same block
// cancels the older timer first.
package copyfeedback

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/starford/inkpad/internal/models"
)

// DefaultResetAfter is how long a block stays copied.
const DefaultResetAfter = 2000 * time.Millisecond

var (
	// ErrClosed is returned by Copy after Close.
	ErrClosed = errors.New("copyfeedback: tracker closed")
	// ErrUnsupported is returned by SystemClipboard on hosts without a clipboard.
	ErrUnsupported = errors.New("copyfeedback: clipboard unsupported")
)

// Option configures a Tracker.
type Option func(*Tracker)

// WithResetAfter sets how long a block stays copied.
func WithResetAfter(d time.Duration) Option {
	return func(t *Tracker) {
		if d > 0 {
			t.resetAfter = d
		}
	}
}

// WithLogger sets the logger used for clipboard failures.
func WithLogger(l *slog.Logger) Option {
	return func(t *Tracker) {
		if l != nil {
			t.logger = l
		}
	}
}

// WithListener registers fn for every state change. fn is called with the
// tracker lock held and must not call back into the Tracker.
func WithListener(fn func(models.CopyState)) Option {
	return func(t *Tracker) {
		t.listener = fn
	}
}

type slot struct {
	gen       uint64
	timer     *time.Timer
	expiresAt time.Time
}

// Tracker holds the copy state of every code block.
type Tracker struct {
	clip       Clipboard
	resetAfter time.Duration
	logger     *slog.Logger
	listener   func(models.CopyState)

	mu     sync.Mutex
	gen    uint64
	slots  map[int]*slot
	closed bool
}

// NewTracker returns a tracker writing through clip.
func NewTracker(clip Clipboard, opts ...Option) *Tracker {
	t := &Tracker{
		clip:       clip,
		resetAfter: DefaultResetAfter,
		logger:     slog.Default(),
		slots:      make(map[int]*slot),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Copy writes text to the clipboard and marks block copied. When the write
// fails the error is logged and returned and the block state is unchanged.
func (t *Tracker) Copy(ctx context.Context, block int, text string) (models.CopyState, error) {
	if t.isClosed() {
		return models.CopyState{Block: block}, ErrClosed
	}

	if err := t.clip.WriteText(ctx, text); err != nil {
		t.logger.Warn("copy: clipboard write failed",
			slog.Int("block", block),
			slog.String("error", err.Error()))
		return t.State(block), fmt.Errorf("copyfeedback: block %d: %w", block, err)
	}

	return t.Confirm(block)
}

// Confirm marks block copied after a clipboard write performed elsewhere,
// e.g. by the browser, has succeeded.
func (t *Tracker) Confirm(block int) (models.CopyState, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return models.CopyState{Block: block}, ErrClosed
	}

	s, ok := t.slots[block]
	if ok {
		s.timer.Stop()
	} else {
		s = &slot{}
		t.slots[block] = s
	}
	t.gen++
	gen := t.gen
	s.gen = gen
	s.expiresAt = time.Now().Add(t.resetAfter)
	s.timer = time.AfterFunc(t.resetAfter, func() { t.expire(block, gen) })

	state := models.CopyState{Block: block, Copied: true, ExpiresAt: s.expiresAt}
	t.notifyLocked(state)
	return state, nil
}

func (t *Tracker) expire(block int, gen uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	s, ok := t.slots[block]
	if !ok || s.gen != gen {
		return
	}
	delete(t.slots, block)
	t.notifyLocked(models.CopyState{Block: block})
}

// State returns the state of block.
func (t *Tracker) State(block int) models.CopyState {
	t.mu.Lock()
	defer t.mu.Unlock()
	if s, ok := t.slots[block]; ok {
		return models.CopyState{Block: block, Copied: true, ExpiresAt: s.expiresAt}
	}
	return models.CopyState{Block: block}
}

// States returns every copied block ordered by index.
func (t *Tracker) States() []models.CopyState {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]models.CopyState, 0, len(t.slots))
	for block, s := range t.slots {
		out = append(out, models.CopyState{Block: block, Copied: true, ExpiresAt: s.expiresAt})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Block < out[j].Block })
	return out
}

// Retain drops the state of blocks with an index >= n, e.g. after a render
// produced fewer code blocks.
func (t *Tracker) Retain(n int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	for block, s := range t.slots {
		if block < n {
			continue
		}
		s.timer.Stop()
		delete(t.slots, block)
		t.notifyLocked(models.CopyState{Block: block})
	}
}

// Close cancels every pending reset. No state change or notification
// happens after Close returns.
func (t *Tracker) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	t.closed = true
	for block, s := range t.slots {
		s.timer.Stop()
		delete(t.slots, block)
	}
}

func (t *Tracker) isClosed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}

func (t *Tracker) notifyLocked(state models.CopyState) {
	if t.listener != nil {
		t.listener(state)
	}
}
