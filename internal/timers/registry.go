// Package timers centralizes one-shot timer ownership so teardown can cancel
// every outstanding timer in a single pass.
package timers

import (
	"sync"
	"time"
)

// Registry tracks pending time.AfterFunc timers by handle.
type Registry struct {
	mu      sync.Mutex
	seq     uint64
	pending map[uint64]*time.Timer
	closed  bool
}

func NewRegistry() *Registry {
	return &Registry{pending: make(map[uint64]*time.Timer)}
}

// AfterFunc schedules fn after d and returns a cancel function. The timer is
// removed from the registry once it fires or is cancelled. After StopAll, new
// registrations are dropped and the returned cancel is a no-op.
func (r *Registry) AfterFunc(d time.Duration, fn func()) (cancel func()) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return func() {}
	}
	r.seq++
	id := r.seq

	timer := time.AfterFunc(d, func() {
		r.mu.Lock()
		_, live := r.pending[id]
		delete(r.pending, id)
		r.mu.Unlock()
		if live {
			fn()
		}
	})
	r.pending[id] = timer
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		timer, ok := r.pending[id]
		delete(r.pending, id)
		r.mu.Unlock()
		if ok {
			timer.Stop()
		}
	}
}

// Outstanding reports the number of pending timers.
func (r *Registry) Outstanding() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}

// StopAll cancels every pending timer and rejects future registrations.
func (r *Registry) StopAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	for id, timer := range r.pending {
		timer.Stop()
		delete(r.pending, id)
	}
}
