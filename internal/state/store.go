// Package state holds the observable editor stores: a generic get/set/subscribe
// container persisted to a kvstore namespace, and the Document and Preferences
// stores built on it.
package state

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/starford/inkpad/internal/kvstore"
)

// Listener receives the value held by a Store after each change.
type Listener[T any] func(T)

type subscription[T any] struct {
	id int
	fn Listener[T]
}

// Store is an observable value optionally mirrored to a kvstore namespace.
//
// Listeners run synchronously on the goroutine that called Set, after the
// value lock is released, in registration order. Concurrent Sets notify in
// the order they committed. A listener must not call Set on the store that
// notified it.
type Store[T any] struct {
	mu        sync.Mutex
	seq       uint64
	value     T
	subs      []subscription[T]
	nextID    int
	kv        kvstore.Store
	namespace string
	logger    *slog.Logger

	// turn is the sequence number of the next commit allowed to notify.
	turnMu   sync.Mutex
	turnCond *sync.Cond
	turn     uint64
}

func newStore[T any](initial T, kv kvstore.Store, namespace string, logger *slog.Logger) *Store[T] {
	s := &Store[T]{value: initial, kv: kv, namespace: namespace, logger: logger}
	s.turnCond = sync.NewCond(&s.turnMu)
	return s
}

// NewStore returns a store holding initial that is never persisted.
func NewStore[T any](initial T) *Store[T] {
	return newStore(initial, nil, "", slog.Default())
}

// Load restores the value of namespace from kv. An absent value yields
// defaults; an undecodable one yields defaults and is logged. Only a failing
// kv read is returned as an error.
func Load[T any](kv kvstore.Store, namespace string, defaults T, logger *slog.Logger) (*Store[T], error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := newStore(defaults, kv, namespace, logger)

	raw, ok, err := kv.Get(namespace)
	if err != nil {
		return nil, fmt.Errorf("state: load %s: %w", namespace, err)
	}
	if !ok {
		return s, nil
	}

	restored := defaults
	if err := json.Unmarshal(raw, &restored); err != nil {
		logger.Warn("state: corrupt snapshot, using defaults",
			slog.String("namespace", namespace),
			slog.String("error", err.Error()))
		return s, nil
	}
	s.value = restored
	return s, nil
}

// Get returns the current value.
func (s *Store[T]) Get() T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value
}

// Set applies update to a copy of the current value, stores the result,
// overwrites the persisted snapshot and notifies listeners. The in-memory
// value is kept even when persisting fails; the failure is logged and returned.
func (s *Store[T]) Set(update func(*T)) error {
	s.mu.Lock()
	next := s.value
	update(&next)
	s.value = next
	persistErr := s.persistLocked(next)
	subs := append([]subscription[T](nil), s.subs...)
	ticket := s.seq
	s.seq++
	s.mu.Unlock()

	s.waitTurn(ticket)
	defer s.advanceTurn()
	for _, sub := range subs {
		sub.fn(next)
	}
	return persistErr
}

func (s *Store[T]) waitTurn(ticket uint64) {
	s.turnMu.Lock()
	for s.turn != ticket {
		s.turnCond.Wait()
	}
	s.turnMu.Unlock()
}

func (s *Store[T]) advanceTurn() {
	s.turnMu.Lock()
	s.turn++
	s.turnCond.Broadcast()
	s.turnMu.Unlock()
}

// Subscribe registers fn and returns a function that removes it.
func (s *Store[T]) Subscribe(fn Listener[T]) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs = append(s.subs, subscription[T]{id: id, fn: fn})
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			for i, sub := range s.subs {
				if sub.id == id {
					s.subs = append(s.subs[:i], s.subs[i+1:]...)
					return
				}
			}
		})
	}
}

func (s *Store[T]) persistLocked(v T) error {
	if s.kv == nil {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("state: encode %s: %w", s.namespace, err)
	}
	if err := s.kv.Put(s.namespace, raw); err != nil {
		s.logger.Error("state: persist failed",
			slog.String("namespace", s.namespace),
			slog.String("error", err.Error()))
		return fmt.Errorf("state: persist %s: %w", s.namespace, err)
	}
	return nil
}
