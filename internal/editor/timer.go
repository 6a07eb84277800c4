package editor

import (
	"sync"
	"time"
)

// timer is a cancellable one-shot. Each session owns one per kind (sync
// debounce, disposal delay); rescheduling always replaces a pending fire, so
// at most one is ever in flight per kind.
type timer struct {
	mu sync.Mutex
	t  *time.Timer
}

// Reschedule cancels any pending fire and arms a new one. Returns true when
// a pending fire was replaced, i.e. the burst got coalesced.
func (tm *timer) Reschedule(d time.Duration, fn func()) bool {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	replaced := false
	if tm.t != nil {
		replaced = tm.t.Stop()
	}
	tm.t = time.AfterFunc(d, fn)
	return replaced
}

// Stop cancels any pending fire. Idempotent.
func (tm *timer) Stop() {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	if tm.t != nil {
		tm.t.Stop()
		tm.t = nil
	}
}
