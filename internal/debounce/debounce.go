// Package debounce implements a trailing-edge debouncer.
package debounce

import (
	"sync"
	"sync/atomic"
	"time"
)

// DefaultWait is the quiet period used when a non-positive wait is given.
const DefaultWait = 300 * time.Millisecond

type trigger[T any] struct {
	value T
	gen   uint64
}

// Debouncer collapses bursts of Trigger calls into one call of fn with the
// last triggered value, made once no Trigger arrived for the wait period.
//
// Concurrency model: a single internal loop owns the timer and the latest
// value. fn runs on that loop, so calls never overlap. Close stops the loop
// and returns only after any running fn has returned; no call happens after.
type Debouncer[T any] struct {
	wait time.Duration
	fn   func(T)

	// sendMu keeps generation numbers in send order.
	sendMu    sync.Mutex
	gen       atomic.Uint64
	triggerCh chan trigger[T]
	settled   atomic.Uint64

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// New starts a debouncer calling fn after wait of quiet.
func New[T any](wait time.Duration, fn func(T)) *Debouncer[T] {
	if wait <= 0 {
		wait = DefaultWait
	}
	d := &Debouncer[T]{
		wait:      wait,
		fn:        fn,
		triggerCh: make(chan trigger[T]),
		stopCh:    make(chan struct{}),
		stopped:   make(chan struct{}),
	}
	go d.run()
	return d
}

func (d *Debouncer[T]) run() {
	defer close(d.stopped)

	var (
		timer   *time.Timer
		timerC  <-chan time.Time
		latest  trigger[T]
		waiting bool
	)

	for {
		select {
		case <-d.stopCh:
			if timer != nil {
				timer.Stop()
			}
			return

		case tr := <-d.triggerCh:
			latest = tr
			waiting = true
			if timer == nil {
				timer = time.NewTimer(d.wait)
				timerC = timer.C
			} else {
				timer.Reset(d.wait)
			}

		case <-timerC:
			if !waiting {
				continue
			}
			waiting = false
			d.fn(latest.value)
			d.settled.Store(latest.gen)
		}
	}
}

// Trigger records v as the latest value and restarts the quiet period.
// Triggers after Close are ignored.
func (d *Debouncer[T]) Trigger(v T) {
	if d.closed.Load() {
		return
	}
	d.sendMu.Lock()
	defer d.sendMu.Unlock()
	gen := d.gen.Add(1)
	select {
	case d.triggerCh <- trigger[T]{value: v, gen: gen}:
	case <-d.stopped:
	}
}

// Pending reports whether a triggered value has not been delivered yet.
// It turns false exactly when the call for the latest value returns.
func (d *Debouncer[T]) Pending() bool {
	if d.closed.Load() {
		return false
	}
	return d.settled.Load() != d.gen.Load()
}

// Close cancels any pending call and stops the loop. Safe to call twice.
func (d *Debouncer[T]) Close() {
	if d.closed.CompareAndSwap(false, true) {
		close(d.stopCh)
	}
	<-d.stopped
}
