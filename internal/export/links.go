package export

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/starford/inkpad/internal/apperr"
)

// DefaultLinkTTL bounds how long an unfetched link stays valid.
const DefaultLinkTTL = 30 * time.Second

// ErrClosed is returned by Issue after Close.
var ErrClosed = errors.New("export: links closed")

// Link is an issued download reference.
type Link struct {
	Token     string    `json:"token"`
	Filename  string    `json:"filename"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type issued struct {
	payload   Payload
	timer     *time.Timer
	expiresAt time.Time
}

// Links holds payloads behind single-use tokens. A token is released by its
// first fetch or after the TTL, whichever comes first.
type Links struct {
	ttl    time.Duration
	logger *slog.Logger

	mu      sync.Mutex
	entries map[string]*issued
	closed  bool
}

// NewLinks returns an empty registry.
func NewLinks(ttl time.Duration, logger *slog.Logger) *Links {
	if ttl <= 0 {
		ttl = DefaultLinkTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Links{ttl: ttl, logger: logger, entries: make(map[string]*issued)}
}

// Issue stores p and returns its link.
func (l *Links) Issue(p Payload) (Link, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return Link{}, ErrClosed
	}

	token := uuid.NewString()
	e := &issued{payload: p, expiresAt: time.Now().Add(l.ttl)}
	e.timer = time.AfterFunc(l.ttl, func() { l.release(token) })
	l.entries[token] = e

	return Link{Token: token, Filename: p.Filename, ExpiresAt: e.expiresAt}, nil
}

// Take returns the payload of token and releases it.
func (l *Links) Take(token string) (Payload, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.entries[token]
	if !ok {
		return Payload{}, fmt.Errorf("export: link %s: %w", token, apperr.ErrNotFound)
	}
	e.timer.Stop()
	delete(l.entries, token)
	if time.Now().After(e.expiresAt) {
		return Payload{}, fmt.Errorf("export: link %s: %w", token, apperr.ErrExpired)
	}
	return e.payload, nil
}

// Pending returns the number of unreleased links.
func (l *Links) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

func (l *Links) release(token string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.entries[token]; !ok {
		return
	}
	delete(l.entries, token)
	l.logger.Debug("export: link released unfetched", slog.String("token", token))
}

// Close releases every link and cancels the pending release timers.
func (l *Links) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	for token, e := range l.entries {
		e.timer.Stop()
		delete(l.entries, token)
	}
}
