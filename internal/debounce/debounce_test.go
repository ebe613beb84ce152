package debounce

import (
	"sync"
	"testing"
	"testing/synctest"
	"time"
)

type call struct {
	value string
	at    time.Duration
}

type recorder struct {
	mu    sync.Mutex
	start time.Time
	calls []call
}

func (r *recorder) record(v string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call{value: v, at: time.Since(r.start)})
}

func (r *recorder) snapshot() []call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]call(nil), r.calls...)
}

func TestDebouncer_LastValueWinsAfterQuietPeriod(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		rec := &recorder{start: time.Now()}
		d := New(300*time.Millisecond, rec.record)
		defer d.Close()

		d.Trigger("a")
		time.Sleep(50 * time.Millisecond)
		d.Trigger("b")
		time.Sleep(50 * time.Millisecond)
		d.Trigger("c")
		synctest.Wait()

		if !d.Pending() {
			t.Fatal("expected pending after trigger")
		}

		time.Sleep(299 * time.Millisecond)
		synctest.Wait()
		if got := rec.snapshot(); len(got) != 0 {
			t.Fatalf("fired early: %+v", got)
		}

		time.Sleep(1 * time.Millisecond)
		synctest.Wait()
		got := rec.snapshot()
		if len(got) != 1 {
			t.Fatalf("calls = %d, want 1", len(got))
		}
		if got[0].value != "c" || got[0].at != 400*time.Millisecond {
			t.Errorf("call = %+v, want c at 400ms", got[0])
		}
		if d.Pending() {
			t.Error("still pending after delivery")
		}

		time.Sleep(time.Second)
		synctest.Wait()
		if n := len(rec.snapshot()); n != 1 {
			t.Errorf("calls = %d after idle, want 1", n)
		}
	})
}

func TestDebouncer_SeparateBurstsFireSeparately(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		rec := &recorder{start: time.Now()}
		d := New(300*time.Millisecond, rec.record)
		defer d.Close()

		d.Trigger("first")
		time.Sleep(500 * time.Millisecond)
		d.Trigger("second")
		time.Sleep(500 * time.Millisecond)
		synctest.Wait()

		got := rec.snapshot()
		if len(got) != 2 || got[0].value != "first" || got[1].value != "second" {
			t.Fatalf("calls = %+v", got)
		}
		if got[1].at != 800*time.Millisecond {
			t.Errorf("second at %v, want 800ms", got[1].at)
		}
	})
}

func TestDebouncer_CloseCancelsPending(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		rec := &recorder{start: time.Now()}
		d := New(300*time.Millisecond, rec.record)

		d.Trigger("x")
		time.Sleep(100 * time.Millisecond)
		d.Close()

		if d.Pending() {
			t.Error("pending after Close")
		}
		time.Sleep(time.Second)
		d.Trigger("y")
		synctest.Wait()
		if n := len(rec.snapshot()); n != 0 {
			t.Errorf("calls after Close = %d, want 0", n)
		}
		d.Close()
	})
}

func TestNew_DefaultWait(t *testing.T) {
	d := New(0, func(int) {})
	defer d.Close()
	if d.wait != DefaultWait {
		t.Errorf("wait = %v, want %v", d.wait, DefaultWait)
	}
}
